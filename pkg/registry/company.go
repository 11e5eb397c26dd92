// Package registry manages companies and their supervisors.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/estagio/estagio/pkg/apperr"
	"github.com/estagio/estagio/pkg/model"
	"github.com/estagio/estagio/pkg/store"
	"github.com/estagio/estagio/pkg/validation"
)

type CompanyInput struct {
	CNPJ         string `json:"cnpj" validate:"max=18"`
	RazaoSocial  string `json:"razao_social" validate:"max=255"`
	NomeFantasia string `json:"nome_fantasia" validate:"max=255"`
	Rua          string `json:"rua" validate:"max=255"`
	Numero       int    `json:"numero"`
	Bairro       string `json:"bairro" validate:"max=100"`
	Cidade       string `json:"cidade" validate:"max=100"`
	Estado       string `json:"estado" validate:"omitempty,len=2"`
}

// CompanyPatch carries only the fields present in a partial update.
type CompanyPatch struct {
	CNPJ         *string `json:"cnpj"`
	RazaoSocial  *string `json:"razao_social"`
	NomeFantasia *string `json:"nome_fantasia"`
	Rua          *string `json:"rua"`
	Numero       *int    `json:"numero"`
	Bairro       *string `json:"bairro"`
	Cidade       *string `json:"cidade"`
	Estado       *string `json:"estado"`
}

type CompanyStore interface {
	store.CompanyStore
	ListSupervisors(ctx context.Context, filter store.SupervisorFilter) ([]model.Supervisor, error)
}

type CompanyService struct {
	store  CompanyStore
	logger *zap.Logger
}

func NewCompanyService(st CompanyStore, logger *zap.Logger) *CompanyService {
	return &CompanyService{store: st, logger: logger}
}

func (s *CompanyService) Create(ctx context.Context, in CompanyInput) (*model.Company, error) {
	company := &model.Company{}
	applyCompanyInput(company, in)
	if err := s.validate(ctx, company, in, nil); err != nil {
		return nil, err
	}
	if err := s.store.CreateCompany(ctx, company); err != nil {
		return nil, fmt.Errorf("create company: %w", err)
	}
	s.logger.Info("company created", zap.String("empresa_id", company.ID.String()), zap.String("cnpj", company.CNPJ))
	return company, nil
}

// Update replaces every field of the company.
func (s *CompanyService) Update(ctx context.Context, id uuid.UUID, in CompanyInput) (*model.Company, error) {
	company, err := s.store.GetCompany(ctx, id)
	if err != nil {
		return nil, err
	}
	applyCompanyInput(company, in)
	if err := s.validate(ctx, company, in, &company.ID); err != nil {
		return nil, err
	}
	if err := s.store.UpdateCompany(ctx, company); err != nil {
		return nil, fmt.Errorf("update company: %w", err)
	}
	return company, nil
}

// Patch merges the present fields into the stored company and validates the
// result as a whole.
func (s *CompanyService) Patch(ctx context.Context, id uuid.UUID, patch CompanyPatch) (*model.Company, error) {
	company, err := s.store.GetCompany(ctx, id)
	if err != nil {
		return nil, err
	}
	in := CompanyInput{
		CNPJ:         company.CNPJ,
		RazaoSocial:  company.RazaoSocial,
		NomeFantasia: company.NomeFantasia,
		Rua:          company.Rua,
		Numero:       company.Numero,
		Bairro:       company.Bairro,
		Cidade:       company.Cidade,
		Estado:       company.Estado,
	}
	setString(&in.CNPJ, patch.CNPJ)
	setString(&in.RazaoSocial, patch.RazaoSocial)
	setString(&in.NomeFantasia, patch.NomeFantasia)
	setString(&in.Rua, patch.Rua)
	setString(&in.Bairro, patch.Bairro)
	setString(&in.Cidade, patch.Cidade)
	setString(&in.Estado, patch.Estado)
	if patch.Numero != nil {
		in.Numero = *patch.Numero
	}
	return s.Update(ctx, id, in)
}

func (s *CompanyService) Get(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	return s.store.GetCompany(ctx, id)
}

func (s *CompanyService) List(ctx context.Context, filter store.CompanyFilter) ([]model.Company, error) {
	return s.store.ListCompanies(ctx, filter)
}

// Delete refuses while supervisors still belong to the company.
func (s *CompanyService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.store.GetCompany(ctx, id); err != nil {
		return err
	}
	n, err := s.store.CountSupervisorsByCompany(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperr.Conflict("Não é possível excluir a empresa: existem %d supervisor(es) vinculado(s).", n)
	}
	if err := s.store.DeleteCompany(ctx, id); err != nil {
		return fmt.Errorf("delete company: %w", err)
	}
	s.logger.Info("company deleted", zap.String("empresa_id", id.String()))
	return nil
}

func (s *CompanyService) Supervisors(ctx context.Context, id uuid.UUID) ([]model.Supervisor, error) {
	if _, err := s.store.GetCompany(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListSupervisors(ctx, store.SupervisorFilter{EmpresaID: &id})
}

func (s *CompanyService) Stats(ctx context.Context) (*store.CompanyStats, error) {
	return s.store.CompanyStats(ctx)
}

func applyCompanyInput(company *model.Company, in CompanyInput) {
	company.CNPJ = NormalizeCNPJ(in.CNPJ)
	company.RazaoSocial = strings.TrimSpace(in.RazaoSocial)
	company.NomeFantasia = strings.TrimSpace(in.NomeFantasia)
	company.Rua = strings.TrimSpace(in.Rua)
	company.Numero = in.Numero
	company.Bairro = strings.TrimSpace(in.Bairro)
	company.Cidade = strings.TrimSpace(in.Cidade)
	company.Estado = strings.ToUpper(strings.TrimSpace(in.Estado))
}

func (s *CompanyService) validate(ctx context.Context, company *model.Company, in CompanyInput, exclude *uuid.UUID) error {
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

	if msg := CheckCNPJ(company.CNPJ); msg != "" {
		verr.Add("cnpj", msg)
	} else {
		taken, err := s.store.CNPJTaken(ctx, company.CNPJ, exclude)
		if err != nil {
			return err
		}
		if taken {
			verr.Add("cnpj", "Já existe uma empresa cadastrada com este CNPJ.")
		}
	}
	if company.RazaoSocial == "" {
		verr.Add("razao_social", "Razão social é obrigatória.")
	}
	if company.Rua == "" {
		verr.Add("rua", "Rua é obrigatória.")
	}
	if company.Bairro == "" {
		verr.Add("bairro", "Bairro é obrigatório.")
	}
	if company.Numero <= 0 {
		verr.Add("numero", "Número deve ser maior que zero.")
	}
	return verr.OrNil()
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
