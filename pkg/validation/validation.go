// Package validation runs struct tag validation and reports failures as an
// apperr.ValidationError keyed by JSON field name.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/estagio/estagio/pkg/apperr"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Struct validates s. Failures come back as *apperr.ValidationError.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &apperr.ValidationError{}
	for _, fe := range verrs {
		out.Add(fe.Field(), message(fe))
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Este campo é obrigatório."
	case "email":
		return "Informe um e-mail válido."
	case "min":
		return "Valor abaixo do mínimo permitido (" + fe.Param() + ")."
	case "max":
		return "Valor acima do máximo permitido (" + fe.Param() + ")."
	case "gt":
		return "O valor deve ser maior que " + fe.Param() + "."
	case "gte":
		return "O valor deve ser maior ou igual a " + fe.Param() + "."
	case "lte":
		return "O valor deve ser menor ou igual a " + fe.Param() + "."
	case "len":
		return "Deve ter exatamente " + fe.Param() + " caracteres."
	case "oneof":
		return "Valor deve ser um de: " + fe.Param() + "."
	case "uuid":
		return "Identificador inválido."
	case "datetime":
		return "Data inválida. Use o formato AAAA-MM-DD."
	default:
		return "Valor inválido."
	}
}
