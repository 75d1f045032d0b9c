package validators

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContactValidator(t *testing.T) {
	valid := ContactInput{
		Prenom:    "Jean",
		Nom:       "Dupont",
		Email:     "jean@example.com",
		Telephone: "+33 6 12 34 56 78",
		Projet:    "Bonjour, j'aimerais un devis.",
	}

	cases := []struct {
		name   string
		mutate func(in *ContactInput)
		err    error
	}{
		{"valid", func(in *ContactInput) {}, nil},
		{"no phone", func(in *ContactInput) { in.Telephone = "" }, nil},
		{"no names", func(in *ContactInput) { in.Prenom = ""; in.Nom = "" }, nil},
		{"long first name", func(in *ContactInput) { in.Prenom = strings.Repeat("a", 51) }, ErrNameTooLong},
		{"long last name", func(in *ContactInput) { in.Nom = strings.Repeat("a", 51) }, ErrNameTooLong},
		{"empty email", func(in *ContactInput) { in.Email = "" }, ErrEmailEmpty},
		{"bad email", func(in *ContactInput) { in.Email = "not-an-email" }, ErrEmailInvalid},
		{"letters in phone", func(in *ContactInput) { in.Telephone = "call me" }, ErrPhoneInvalid},
		{"empty message", func(in *ContactInput) { in.Projet = "" }, ErrMessageEmpty},
		{"long message", func(in *ContactInput) { in.Projet = strings.Repeat("a", 1001) }, ErrMessageTooLong},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)

			err := ContactValidator(&in)
			if tc.err == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.err)
			}
		})
	}
}
