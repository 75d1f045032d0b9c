package service

import (
	"deogratias/contact-api/internal/model"
	"fmt"
	"strings"
	"time"
)

// Mail bodies stay minimal inline HTML. Branded template rendering
// belongs to the frontend team and is out of scope here.

func ConfirmationMail(c *model.Contact) *Message {
	name := c.Prenom
	if name == "" {
		name = "Cher client"
	}

	return &Message{
		To:      c.Email,
		ToName:  c.Prenom,
		Subject: "Confirmation de réception de votre message",
		HTML: fmt.Sprintf(`<p>Bonjour %s,</p>
<p>Nous avons bien reçu votre message et vous en remercions.</p>
<p>Notre équipe va examiner votre demande et vous répondra dans les plus brefs délais, généralement sous 24 heures.</p>
<p>Cordialement,<br>L'équipe Déo-Gratias</p>`, name),
	}
}

func AdminNotificationMail(to string, c *model.Contact) *Message {
	contactMethod := "Téléphone"
	if c.Whatsapp {
		contactMethod = "WhatsApp"
	}

	return &Message{
		To:      to,
		ToName:  "Admin",
		Subject: fmt.Sprintf("Nouveau message de %s", firstNonEmpty(c.Prenom, "un visiteur")),
		HTML: fmt.Sprintf(`<p>Une nouvelle soumission de formulaire a été reçue :</p>
<ul>
<li><strong>Nom :</strong> %s %s</li>
<li><strong>Email :</strong> %s</li>
<li><strong>Téléphone :</strong> %s (%s)</li>
<li><strong>Message :</strong> %s</li>
</ul>`,
			firstNonEmpty(c.Prenom, "Non spécifié"),
			firstNonEmpty(c.Nom, "Non spécifié"),
			c.Email,
			firstNonEmpty(c.Telephone, "Non spécifié"),
			contactMethod,
			firstNonEmpty(c.Projet, "Aucun message"),
		),
	}
}

func VerificationCodeMail(to, code string, ttl time.Duration) *Message {
	return &Message{
		To:      to,
		Subject: "Votre code de vérification",
		HTML: fmt.Sprintf(`<p>Bonjour,</p>
<p>Pour accéder à votre compte, veuillez utiliser le code de vérification suivant :</p>
<p style="font-size:24px;font-weight:bold;letter-spacing:3px">%s</p>
<p><strong>Important :</strong> ce code est valable pendant %d minutes.</p>
<p>Si vous n'avez pas demandé ce code, veuillez ignorer cet email.</p>`, code, int(ttl.Minutes())),
		Text: fmt.Sprintf("Votre code de vérification : %s (valable %d minutes)", code, int(ttl.Minutes())),
	}
}

func LoginLinkMail(to, loginURL string, ttl time.Duration) *Message {
	return &Message{
		To:      to,
		Subject: "🔐 Lien de connexion sécurisé - Administration",
		HTML: fmt.Sprintf(`<p>Bonjour,</p>
<p>Vous avez demandé à vous connecter à l'administration. Cliquez sur le lien ci-dessous pour accéder à votre tableau de bord :</p>
<p><a href="%s">Se connecter à l'administration</a></p>
<p>⏱️ <strong>Ce lien est valable %d minutes.</strong></p>
<p>Si vous n'êtes pas à l'origine de cette demande, veuillez ignorer cet email.</p>`, loginURL, int(ttl.Minutes())),
		Text: fmt.Sprintf("Lien de connexion (valable %d minutes) : %s", int(ttl.Minutes()), loginURL),
	}
}

func WeeklyReportMail(to string, contacts []model.Contact, weekStart time.Time) *Message {
	var rows strings.Builder

	for _, c := range contacts {
		fmt.Fprintf(&rows, "<tr><td>%s %s</td><td>%s</td><td>%s</td><td>%s</td></tr>",
			c.Prenom, c.Nom, c.Email, c.Telephone, c.CreatedAt.Format("02/01/2006 15:04"))
	}

	return &Message{
		To:      to,
		Subject: fmt.Sprintf("Rapport hebdomadaire - semaine du %s", weekStart.Format("02/01/2006")),
		HTML: fmt.Sprintf(`<p>Bonjour,</p>
<p>%d nouveau(x) contact(s) cette semaine :</p>
<table border="1" cellpadding="6" cellspacing="0">
<tr><th>Nom</th><th>Email</th><th>Téléphone</th><th>Date</th></tr>
%s
</table>`, len(contacts), rows.String()),
	}
}

func firstNonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}

	return fallback
}
