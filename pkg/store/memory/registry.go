package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/estagio/estagio/pkg/apperr"
	"github.com/estagio/estagio/pkg/model"
	"github.com/estagio/estagio/pkg/store"
)

func (s *Store) CreateCompany(ctx context.Context, company *model.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cnpjTakenLocked(company.CNPJ, nil) {
		return fmt.Errorf("duplicate cnpj %q", company.CNPJ)
	}
	ensureID(&company.ID)
	s.stamp(&company.CreatedAt, &company.UpdatedAt)
	s.companies.put(company.ID, *company)
	return nil
}

func (s *Store) UpdateCompany(ctx context.Context, company *model.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies.get(company.ID); !ok {
		return apperr.NotFound("empresa", company.ID)
	}
	if s.cnpjTakenLocked(company.CNPJ, &company.ID) {
		return fmt.Errorf("duplicate cnpj %q", company.CNPJ)
	}
	s.stamp(nil, &company.UpdatedAt)
	s.companies.put(company.ID, *company)
	return nil
}

func (s *Store) GetCompany(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	company, ok := s.companies.get(id)
	if !ok {
		return nil, apperr.NotFound("empresa", id)
	}
	return &company, nil
}

func (s *Store) ListCompanies(ctx context.Context, filter store.CompanyFilter) ([]model.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]model.Company, 0)
	for _, company := range s.companies.all() {
		if filter.Estado != "" && !strings.EqualFold(company.Estado, filter.Estado) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(company.RazaoSocial), search) &&
			!strings.Contains(strings.ToLower(company.NomeFantasia), search) &&
			!strings.Contains(company.CNPJ, search) {
			continue
		}
		out = append(out, company)
	}
	return out, nil
}

func (s *Store) CNPJTaken(ctx context.Context, cnpj string, exclude *uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cnpjTakenLocked(cnpj, exclude), nil
}

func (s *Store) cnpjTakenLocked(cnpj string, exclude *uuid.UUID) bool {
	for _, company := range s.companies.all() {
		if exclude != nil && company.ID == *exclude {
			continue
		}
		if company.CNPJ == cnpj {
			return true
		}
	}
	return false
}

func (s *Store) CountSupervisorsByCompany(ctx context.Context, companyID uuid.UUID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, supervisor := range s.supervisors.all() {
		if supervisor.EmpresaID == companyID {
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteCompany(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies.get(id); !ok {
		return apperr.NotFound("empresa", id)
	}
	for _, supervisor := range s.supervisors.all() {
		if supervisor.EmpresaID == id {
			return fmt.Errorf("empresa %s still referenced by supervisor %s", id, supervisor.ID)
		}
	}
	s.companies.delete(id)
	return nil
}

func (s *Store) CompanyStats(ctx context.Context) (*store.CompanyStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := &store.CompanyStats{PorEstado: make(map[string]int64)}
	withSupervisors := make(map[uuid.UUID]bool)
	for _, supervisor := range s.supervisors.all() {
		stats.TotalSupervisores++
		withSupervisors[supervisor.EmpresaID] = true
	}
	for _, company := range s.companies.all() {
		stats.TotalEmpresas++
		if withSupervisors[company.ID] {
			stats.EmpresasComSupervisores++
		}
		if company.Estado != "" {
			stats.PorEstado[strings.ToUpper(company.Estado)]++
		}
	}
	return stats, nil
}

func (s *Store) CreateSupervisor(ctx context.Context, account *model.Account, supervisor *model.Supervisor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies.get(supervisor.EmpresaID); !ok {
		return apperr.NotFound("empresa", supervisor.EmpresaID)
	}
	if err := s.insertAccountLocked(account); err != nil {
		return err
	}
	ensureID(&supervisor.ID)
	supervisor.AccountID = account.ID
	s.stamp(&supervisor.CreatedAt, &supervisor.UpdatedAt)
	supervisor.Empresa = nil
	s.supervisors.put(supervisor.ID, *supervisor)
	return nil
}

func (s *Store) UpdateSupervisor(ctx context.Context, supervisor *model.Supervisor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.supervisors.get(supervisor.ID)
	if !ok {
		return apperr.NotFound("supervisor", supervisor.ID)
	}
	if account, ok := s.accounts.get(current.AccountID); ok {
		if s.emailTakenLocked(supervisor.Email, &account.ID) {
			return fmt.Errorf("duplicate account email %q", supervisor.Email)
		}
		account.Email = supervisor.Email
		account.Nome = supervisor.Nome
		s.stamp(nil, &account.UpdatedAt)
		s.accounts.put(account.ID, account)
	}
	s.stamp(nil, &supervisor.UpdatedAt)
	stored := *supervisor
	stored.Empresa = nil
	s.supervisors.put(supervisor.ID, stored)
	return nil
}

func (s *Store) GetSupervisor(ctx context.Context, id uuid.UUID) (*model.Supervisor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	supervisor, ok := s.supervisors.get(id)
	if !ok {
		return nil, apperr.NotFound("supervisor", id)
	}
	if company, ok := s.companies.get(supervisor.EmpresaID); ok {
		supervisor.Empresa = &company
	}
	return &supervisor, nil
}

func (s *Store) ListSupervisors(ctx context.Context, filter store.SupervisorFilter) ([]model.Supervisor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]model.Supervisor, 0)
	for _, supervisor := range s.supervisors.all() {
		if filter.EmpresaID != nil && supervisor.EmpresaID != *filter.EmpresaID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(supervisor.Nome), search) {
			continue
		}
		if company, ok := s.companies.get(supervisor.EmpresaID); ok {
			supervisor.Empresa = &company
		}
		out = append(out, supervisor)
	}
	return out, nil
}

func (s *Store) CountInternshipsBySupervisor(ctx context.Context, supervisorID uuid.UUID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, internship := range s.internships.all() {
		if internship.SupervisorID == supervisorID {
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteSupervisor(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	supervisor, ok := s.supervisors.get(id)
	if !ok {
		return apperr.NotFound("supervisor", id)
	}
	for _, internship := range s.internships.all() {
		if internship.SupervisorID == id {
			return fmt.Errorf("supervisor %s still referenced by estagio %s", id, internship.ID)
		}
	}
	s.supervisors.delete(id)
	s.accounts.delete(supervisor.AccountID)
	return nil
}
