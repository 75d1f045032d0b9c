package validators

import (
	"errors"
	"regexp"
)

var (
	ErrNameTooLong    = errors.New("first and last names can't be longer than 50 characters")
	ErrPhoneInvalid   = errors.New("invalid phone number provided")
	ErrMessageEmpty   = errors.New("no message provided")
	ErrMessageTooLong = errors.New("message can't be longer than 1000 characters")

	phoneRe = regexp.MustCompile(`^[0-9+\s-]+$`)
)

type ContactInput struct {
	Prenom    string
	Nom       string
	Email     string
	Telephone string
	Projet    string
}

// ContactValidator checks a contact form submission. The name and
// phone fields are optional, the email and message are not.
func ContactValidator(in *ContactInput) error {
	if len(in.Prenom) > 50 || len(in.Nom) > 50 {
		return ErrNameTooLong
	}

	if err := EmailValidator(in.Email); err != nil {
		return err
	}

	if in.Telephone != "" && !phoneRe.MatchString(in.Telephone) {
		return ErrPhoneInvalid
	}

	if in.Projet == "" {
		return ErrMessageEmpty
	}

	if len(in.Projet) > 1000 {
		return ErrMessageTooLong
	}

	return nil
}
