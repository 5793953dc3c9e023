package utils

import (
	"errors"
	"reflect"
	"strings"

	apperrors "escrow/internal/errors"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateStruct runs the `validate` tags of v and reports failures as a
// VALIDATION_FAILED error keyed by JSON field path.
func ValidateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.ErrValidationFailed.WithMessage("%s", err.Error())
	}

	fields := make(map[string]interface{}, len(verrs))
	names := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := fe.Namespace()
		if i := strings.IndexByte(name, '.'); i >= 0 {
			name = name[i+1:]
		}
		fields[name] = fe.Tag()
		names = append(names, name)
	}
	return apperrors.ErrValidationFailed.
		WithMessage("invalid fields: %s", strings.Join(names, ", ")).
		WithDetails(map[string]interface{}{"fields": fields})
}
