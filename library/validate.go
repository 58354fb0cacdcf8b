package library

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("genre", func(fl validator.FieldLevel) bool {
		return ValidGenre(fl.Field().String())
	})
	return v
}

// checkFields runs the struct tags of s and maps the first failing field onto the
// package's error taxonomy.
func checkFields(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.Field() {
	case "Genre":
		return fmt.Errorf("%w: %q (allowed: %v)", ErrInvalidGenre, fe.Value(), Genres)
	case "TotalCopies":
		return fmt.Errorf("%w: %v", ErrInvalidCopies, fe.Value())
	default:
		return fmt.Errorf("%w: %s failed %q", ErrInvalidInput, fe.Field(), fe.Tag())
	}
}
