package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/estagio/estagio/pkg/apperr"
	"github.com/estagio/estagio/pkg/auth"
	"github.com/estagio/estagio/pkg/model"
	"github.com/estagio/estagio/pkg/store"
	"github.com/estagio/estagio/pkg/validation"
)

type SupervisorInput struct {
	Nome      string    `json:"nome" validate:"required,max=255"`
	Cargo     string    `json:"cargo" validate:"max=100"`
	Email     string    `json:"email" validate:"required,email"`
	Telefone  string    `json:"telefone" validate:"max=20"`
	EmpresaID uuid.UUID `json:"empresa_id" validate:"required"`
	Password  string    `json:"password,omitempty"`
}

type SupervisorPatch struct {
	Nome      *string    `json:"nome"`
	Cargo     *string    `json:"cargo"`
	Email     *string    `json:"email"`
	Telefone  *string    `json:"telefone"`
	EmpresaID *uuid.UUID `json:"empresa_id"`
	Password  *string    `json:"password"`
}

type SupervisorStore interface {
	store.SupervisorStore
	EmailTaken(ctx context.Context, email string, exclude *uuid.UUID) (bool, error)
	GetCompany(ctx context.Context, id uuid.UUID) (*model.Company, error)
	ListInternships(ctx context.Context, filter store.InternshipFilter) ([]model.Internship, error)
}

type SupervisorService struct {
	store  SupervisorStore
	logger *zap.Logger
}

func NewSupervisorService(st SupervisorStore, logger *zap.Logger) *SupervisorService {
	return &SupervisorService{store: st, logger: logger}
}

// Create registers the supervisor and its login account together. Nothing is
// stored unless every field is valid.
func (s *SupervisorService) Create(ctx context.Context, in SupervisorInput) (*model.Supervisor, error) {
	normalizeSupervisorInput(&in)
	if err := s.validate(ctx, in, nil, true); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Validation("password", "A senha deve ter pelo menos 8 caracteres.")
	}

	account := &model.Account{
		Email:        in.Email,
		Nome:         in.Nome,
		PasswordHash: hash,
		Role:         model.RoleSupervisor,
		Active:       true,
	}
	supervisor := &model.Supervisor{
		Nome:      in.Nome,
		Cargo:     in.Cargo,
		Email:     in.Email,
		Telefone:  in.Telefone,
		EmpresaID: in.EmpresaID,
	}
	if err := s.store.CreateSupervisor(ctx, account, supervisor); err != nil {
		return nil, fmt.Errorf("create supervisor: %w", err)
	}
	s.logger.Info("supervisor created",
		zap.String("supervisor_id", supervisor.ID.String()),
		zap.String("empresa_id", supervisor.EmpresaID.String()),
	)
	return s.store.GetSupervisor(ctx, supervisor.ID)
}

func (s *SupervisorService) Update(ctx context.Context, id uuid.UUID, in SupervisorInput) (*model.Supervisor, error) {
	supervisor, err := s.store.GetSupervisor(ctx, id)
	if err != nil {
		return nil, err
	}
	normalizeSupervisorInput(&in)
	if err := s.validate(ctx, in, &supervisor.AccountID, false); err != nil {
		return nil, err
	}
	if in.Password != "" {
		return nil, apperr.Validation("password", "A senha não pode ser alterada por este recurso.")
	}

	supervisor.Nome = in.Nome
	supervisor.Cargo = in.Cargo
	supervisor.Email = in.Email
	supervisor.Telefone = in.Telefone
	supervisor.EmpresaID = in.EmpresaID
	supervisor.Empresa = nil
	if err := s.store.UpdateSupervisor(ctx, supervisor); err != nil {
		return nil, fmt.Errorf("update supervisor: %w", err)
	}
	return s.store.GetSupervisor(ctx, id)
}

func (s *SupervisorService) Patch(ctx context.Context, id uuid.UUID, patch SupervisorPatch) (*model.Supervisor, error) {
	current, err := s.store.GetSupervisor(ctx, id)
	if err != nil {
		return nil, err
	}
	in := SupervisorInput{
		Nome:      current.Nome,
		Cargo:     current.Cargo,
		Email:     current.Email,
		Telefone:  current.Telefone,
		EmpresaID: current.EmpresaID,
	}
	setString(&in.Nome, patch.Nome)
	setString(&in.Cargo, patch.Cargo)
	setString(&in.Email, patch.Email)
	setString(&in.Telefone, patch.Telefone)
	setString(&in.Password, patch.Password)
	if patch.EmpresaID != nil {
		in.EmpresaID = *patch.EmpresaID
	}
	return s.Update(ctx, id, in)
}

func (s *SupervisorService) Get(ctx context.Context, id uuid.UUID) (*model.Supervisor, error) {
	return s.store.GetSupervisor(ctx, id)
}

func (s *SupervisorService) List(ctx context.Context, filter store.SupervisorFilter) ([]model.Supervisor, error) {
	return s.store.ListSupervisors(ctx, filter)
}

// ByCompany lists the supervisors of companyID.
func (s *SupervisorService) ByCompany(ctx context.Context, companyID string) ([]model.Supervisor, error) {
	if companyID == "" {
		return nil, apperr.Validation("empresa_id", "Parâmetro empresa_id é obrigatório.")
	}
	id, err := uuid.Parse(companyID)
	if err != nil {
		return nil, apperr.Validation("empresa_id", "Identificador inválido.")
	}
	return s.store.ListSupervisors(ctx, store.SupervisorFilter{EmpresaID: &id})
}

func (s *SupervisorService) Internships(ctx context.Context, id uuid.UUID) ([]model.Internship, error) {
	if _, err := s.store.GetSupervisor(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListInternships(ctx, store.InternshipFilter{SupervisorID: &id})
}

// Delete removes the supervisor and its account unless internships still
// reference it.
func (s *SupervisorService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.store.GetSupervisor(ctx, id); err != nil {
		return err
	}
	n, err := s.store.CountInternshipsBySupervisor(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperr.Conflict("Não é possível excluir o supervisor: existem %d estágio(s) vinculado(s).", n)
	}
	if err := s.store.DeleteSupervisor(ctx, id); err != nil {
		return fmt.Errorf("delete supervisor: %w", err)
	}
	s.logger.Info("supervisor deleted", zap.String("supervisor_id", id.String()))
	return nil
}

func normalizeSupervisorInput(in *SupervisorInput) {
	in.Nome = strings.TrimSpace(in.Nome)
	in.Cargo = strings.TrimSpace(in.Cargo)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Telefone = strings.TrimSpace(in.Telefone)
}

func (s *SupervisorService) validate(ctx context.Context, in SupervisorInput, accountID *uuid.UUID, creating bool) error {
	verr := &apperr.ValidationError{}
	if err := validation.Struct(in); err != nil {
		var tagErr *apperr.ValidationError
		if !errors.As(err, &tagErr) {
			return err
		}
		for field, msg := range tagErr.Fields {
			verr.Add(field, msg)
		}
	}
	if creating && len(in.Password) < auth.MinPasswordLength {
		verr.Add("password", "A senha deve ter pelo menos 8 caracteres.")
	}

	if in.Email != "" {
		taken, err := s.store.EmailTaken(ctx, in.Email, accountID)
		if err != nil {
			return err
		}
		if taken {
			verr.Add("email", "Este e-mail já está em uso.")
		}
	}
	if in.EmpresaID != uuid.Nil {
		if _, err := s.store.GetCompany(ctx, in.EmpresaID); err != nil {
			if !errors.Is(err, apperr.ErrNotFound) {
				return err
			}
			verr.Add("empresa_id", "Empresa não encontrada.")
		}
	}
	return verr.OrNil()
}
