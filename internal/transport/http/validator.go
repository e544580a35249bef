package http

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func ValidateStruct(payload any) map[string]string {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	out := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		out["_"] = err.Error()
		return out
	}

	for _, fe := range validationErrors {
		field := toSnake(fe.Field())
		switch fe.Tag() {
		case "required":
			out[field] = fmt.Sprintf("The %s field is required.", field)
		case "gte":
			out[field] = fmt.Sprintf("The %s must be at least %s.", field, fe.Param())
		case "lte":
			out[field] = fmt.Sprintf("The %s may not be greater than %s.", field, fe.Param())
		default:
			out[field] = fmt.Sprintf("The %s field is invalid.", field)
		}
	}

	return out
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
