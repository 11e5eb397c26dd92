package validation

import (
	"errors"
	"testing"

	"github.com/estagio/estagio/pkg/apperr"
)

type sample struct {
	Nome   string `json:"nome" validate:"required"`
	Email  string `json:"email" validate:"required,email"`
	Numero int    `json:"numero" validate:"gt=0"`
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	err := Struct(sample{Email: "invalido", Numero: 0})
	var verr *apperr.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"nome", "email", "numero"} {
		if _, ok := verr.Fields[field]; !ok {
			t.Fatalf("expected error for %s, got %v", field, verr.Fields)
		}
	}
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected ErrValidation kind")
	}
}

func TestStructAcceptsValidInput(t *testing.T) {
	if err := Struct(sample{Nome: "Ana", Email: "ana@ufx.br", Numero: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
