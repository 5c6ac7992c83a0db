package session

import (
	"errors"
	"strings"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

var passwordStrength = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if len(s) < 8 || !strings.ContainsFunc(s, unicode.IsUpper) || !strings.ContainsFunc(s, unicode.IsDigit) {
		return errors.New("must be at least 8 characters and contain an upper-case letter and a digit")
	}
	return nil
})

// Validate checks the sign-in form before it is sent.
func (c Credentials) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Email, validation.Required, is.Email),
		validation.Field(&c.Password, validation.Required),
	)
}

// Validate checks the registration form before it is sent.
func (p Profile) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&p.Password, validation.Required, passwordStrength),
		validation.Field(&p.Authorities, validation.Required),
	)
}

// FieldErrors extracts per-field messages from a validation failure. It
// returns nil when err is not one.
func FieldErrors(err error) map[string]string {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for field, ferr := range verrs {
		if ferr != nil {
			out[field] = ferr.Error()
		}
	}
	return out
}
