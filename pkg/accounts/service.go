// Package accounts handles login and the administrative registration of
// institutions, students and coordinators.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/estagio/estagio/pkg/access"
	"github.com/estagio/estagio/pkg/apperr"
	"github.com/estagio/estagio/pkg/auth"
	"github.com/estagio/estagio/pkg/model"
	"github.com/estagio/estagio/pkg/store"
	"github.com/estagio/estagio/pkg/validation"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Store interface {
	store.AccountStore
	store.ProfileStore
}

type Service struct {
	store  Store
	tokens *auth.TokenManager
	guard  *access.Guard
	logger *zap.Logger
}

func NewService(st Store, tokens *auth.TokenManager, logger *zap.Logger) *Service {
	return &Service{
		store:  st,
		tokens: tokens,
		guard:  access.NewGuard(st),
		logger: logger,
	}
}

type LoginResult struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	Account   *model.Account `json:"account"`
}

func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	account, err := s.store.GetAccountByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !account.Active || !auth.CheckPassword(account.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	token, expiresAt, err := s.tokens.Generate(account)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, Account: account}, nil
}

// EnsureAdmin creates the bootstrap administrator when no account uses email.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	taken, err := s.store.EmailTaken(ctx, email, nil)
	if err != nil || taken {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	account := &model.Account{Email: email, Nome: "Administrador", PasswordHash: hash, Role: model.RoleAdmin, Active: true}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	s.logger.Info("bootstrap admin created", zap.String("email", email))
	return nil
}

type InstitutionInput struct {
	Nome     string `json:"nome" validate:"required,max=255"`
	Email    string `json:"email" validate:"omitempty,email"`
	Telefone string `json:"telefone" validate:"max=20"`
	Rua      string `json:"rua" validate:"max=255"`
	Numero   int    `json:"numero" validate:"gte=0"`
	Bairro   string `json:"bairro" validate:"max=100"`
	Cidade   string `json:"cidade" validate:"max=100"`
	Estado   string `json:"estado" validate:"omitempty,len=2"`
	CEP      string `json:"cep" validate:"max=9"`
}

func (s *Service) CreateInstitution(ctx context.Context, id *access.Identity, in InstitutionInput) (*model.Institution, error) {
	if err := s.guard.Admin(id); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	institution := &model.Institution{
		Nome:     strings.TrimSpace(in.Nome),
		Email:    strings.TrimSpace(in.Email),
		Telefone: strings.TrimSpace(in.Telefone),
		Rua:      strings.TrimSpace(in.Rua),
		Numero:   in.Numero,
		Bairro:   strings.TrimSpace(in.Bairro),
		Cidade:   strings.TrimSpace(in.Cidade),
		Estado:   strings.ToUpper(strings.TrimSpace(in.Estado)),
		CEP:      onlyDigits(in.CEP),
	}
	if err := s.store.CreateInstitution(ctx, institution); err != nil {
		return nil, fmt.Errorf("create institution: %w", err)
	}
	return institution, nil
}

type StudentInput struct {
	Nome          string    `json:"nome" validate:"required,max=255"`
	Matricula     string    `json:"matricula" validate:"required,max=30"`
	Email         string    `json:"email" validate:"required,email"`
	Telefone      string    `json:"telefone" validate:"max=20"`
	InstituicaoID uuid.UUID `json:"instituicao_id" validate:"required"`
	Password      string    `json:"password" validate:"required,min=8"`
}

func (s *Service) RegisterStudent(ctx context.Context, id *access.Identity, in StudentInput) (*model.Student, error) {
	if err := s.guard.Admin(id); err != nil {
		return nil, err
	}
	in.Nome = strings.TrimSpace(in.Nome)
	in.Matricula = strings.TrimSpace(in.Matricula)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	verr, err := s.validateProfile(ctx, in, in.Email, in.InstituicaoID)
	if err != nil {
		return nil, err
	}
	if in.Matricula != "" {
		taken, err := s.store.MatriculaTaken(ctx, in.Matricula)
		if err != nil {
			return nil, err
		}
		if taken {
			verr.Add("matricula", "Já existe um estudante com esta matrícula.")
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	account, err := newAccount(in.Email, in.Nome, in.Password, model.RoleStudent)
	if err != nil {
		return nil, err
	}
	student := &model.Student{
		Nome:          in.Nome,
		Matricula:     in.Matricula,
		Email:         in.Email,
		Telefone:      strings.TrimSpace(in.Telefone),
		InstituicaoID: in.InstituicaoID,
	}
	if err := s.store.CreateStudent(ctx, account, student); err != nil {
		return nil, fmt.Errorf("create student: %w", err)
	}
	s.logger.Info("student registered", zap.String("estudante_id", student.ID.String()))
	return student, nil
}

type CoordinatorInput struct {
	Nome          string    `json:"nome" validate:"required,max=255"`
	NomeCurso     string    `json:"nome_curso" validate:"required,max=255"`
	CodigoCurso   string    `json:"codigo_curso" validate:"max=30"`
	Email         string    `json:"email" validate:"required,email"`
	Telefone      string    `json:"telefone" validate:"max=20"`
	InstituicaoID uuid.UUID `json:"instituicao_id" validate:"required"`
	Password      string    `json:"password" validate:"required,min=8"`
}

func (s *Service) RegisterCoordinator(ctx context.Context, id *access.Identity, in CoordinatorInput) (*model.Coordinator, error) {
	if err := s.guard.Admin(id); err != nil {
		return nil, err
	}
	in.Nome = strings.TrimSpace(in.Nome)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	verr, err := s.validateProfile(ctx, in, in.Email, in.InstituicaoID)
	if err != nil {
		return nil, err
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	account, err := newAccount(in.Email, in.Nome, in.Password, model.RoleCoordinator)
	if err != nil {
		return nil, err
	}
	coordinator := &model.Coordinator{
		Nome:          in.Nome,
		NomeCurso:     strings.TrimSpace(in.NomeCurso),
		CodigoCurso:   strings.TrimSpace(in.CodigoCurso),
		Email:         in.Email,
		Telefone:      strings.TrimSpace(in.Telefone),
		InstituicaoID: in.InstituicaoID,
	}
	if err := s.store.CreateCoordinator(ctx, account, coordinator); err != nil {
		return nil, fmt.Errorf("create coordinator: %w", err)
	}
	s.logger.Info("coordinator registered", zap.String("coordenador_id", coordinator.ID.String()))
	return coordinator, nil
}

// Me returns the caller's account.
func (s *Service) Me(ctx context.Context, id *access.Identity) (*model.Account, error) {
	if !id.Authenticated() {
		return nil, apperr.Permission("authentication required")
	}
	return s.store.GetAccount(ctx, id.AccountID)
}

func (s *Service) validateProfile(ctx context.Context, in interface{}, email string, institutionID uuid.UUID) (*apperr.ValidationError, error) {
	verr := &apperr.ValidationError{}
	if err := validation.Struct(in); err != nil {
		var tagErr *apperr.ValidationError
		if !errors.As(err, &tagErr) {
			return nil, err
		}
		for field, msg := range tagErr.Fields {
			verr.Add(field, msg)
		}
	}
	if email != "" {
		taken, err := s.store.EmailTaken(ctx, email, nil)
		if err != nil {
			return nil, err
		}
		if taken {
			verr.Add("email", "Este e-mail já está em uso.")
		}
	}
	if institutionID != uuid.Nil {
		if _, err := s.store.GetInstitution(ctx, institutionID); err != nil {
			if !errors.Is(err, apperr.ErrNotFound) {
				return nil, err
			}
			verr.Add("instituicao_id", "Instituição não encontrada.")
		}
	}
	return verr, nil
}

func newAccount(email, nome, password string, role model.Role) (*model.Account, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, apperr.Validation("password", "A senha deve ter pelo menos 8 caracteres.")
	}
	return &model.Account{Email: email, Nome: nome, PasswordHash: hash, Role: role, Active: true}, nil
}

func onlyDigits(value string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, value)
}
