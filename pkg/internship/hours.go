package internship

import (
	"context"
	"fmt"
	"strings"

	"github.com/estagio/estagio/pkg/access"
	"github.com/estagio/estagio/pkg/apperr"
	"github.com/estagio/estagio/pkg/model"
	"github.com/estagio/estagio/pkg/validation"
)

type HoursInput struct {
	Data       string  `json:"data" validate:"required,datetime=2006-01-02"`
	Quantidade float64 `json:"quantidade" validate:"gt=0,lte=24"`
	Descricao  string  `json:"descricao" validate:"max=2000"`
}

// LogHours records worked hours for the calling student.
func (s *Service) LogHours(ctx context.Context, id *access.Identity, in HoursInput) (*model.HoursLog, error) {
	student, err := s.guard.Student(ctx, id)
	if err != nil {
		return nil, err
	}
	if student.EstagioID == nil {
		return nil, apperr.Validation("estagio", "Você não possui estágio vinculado.")
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	day, _ := model.ParseDay(in.Data)
	if day.After(model.Day(s.now())) {
		return nil, apperr.Validation("data", "A data não pode estar no futuro.")
	}

	entry := &model.HoursLog{
		EstudanteID: student.ID,
		Data:        day,
		Quantidade:  in.Quantidade,
		Descricao:   strings.TrimSpace(in.Descricao),
	}
	if err := s.store.CreateHoursLog(ctx, entry); err != nil {
		return nil, fmt.Errorf("log hours: %w", err)
	}
	return entry, nil
}

func (s *Service) ListHours(ctx context.Context, id *access.Identity) ([]model.HoursLog, error) {
	student, err := s.guard.Student(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.store.ListHoursLogs(ctx, student.ID)
}

func (s *Service) TotalHours(ctx context.Context, id *access.Identity) (float64, error) {
	student, err := s.guard.Student(ctx, id)
	if err != nil {
		return 0, err
	}
	return s.store.SumHours(ctx, student.ID)
}
