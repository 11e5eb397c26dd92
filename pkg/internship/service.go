// Package internship manages vacancies, student requests and the hours a
// student logs during the internship.
package internship

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
	"github.com/estagio/estagio/pkg/model"
	"github.com/estagio/estagio/pkg/notification"
	"github.com/estagio/estagio/pkg/store"
	"github.com/estagio/estagio/pkg/validation"
)

type Store interface {
	store.InternshipStore
	store.HoursStore
	store.ProfileStore
	GetCompany(ctx context.Context, id uuid.UUID) (*model.Company, error)
	GetSupervisor(ctx context.Context, id uuid.UUID) (*model.Supervisor, error)
}

type Notifier interface {
	Dispatch(ctx context.Context, notice notification.Notice)
}

type Service struct {
	store    Store
	guard    *access.Guard
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(st Store, notifier Notifier, logger *zap.Logger) *Service {
	return &Service{
		store:    st,
		guard:    access.NewGuard(st),
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

type CreateInput struct {
	Titulo              string    `json:"titulo" validate:"required,max=255"`
	Funcao              string    `json:"funcao" validate:"max=255"`
	DataInicio          string    `json:"data_inicio" validate:"required,datetime=2006-01-02"`
	DataFim             string    `json:"data_fim" validate:"required,datetime=2006-01-02"`
	CargaHorariaSemanal int       `json:"carga_horaria_semanal" validate:"gte=1,lte=40"`
	Atividades          []string  `json:"atividades"`
	EmpresaID           uuid.UUID `json:"empresa_id" validate:"required"`
	SupervisorID        uuid.UUID `json:"supervisor_id" validate:"required"`
}

// Create opens a vacancy. Only administrators and coordinators may do so.
func (s *Service) Create(ctx context.Context, id *access.Identity, in CreateInput) (*model.Internship, error) {
	if err := s.requireStaff(ctx, id); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	verr := &apperr.ValidationError{}
	start, _ := model.ParseDay(in.DataInicio)
	end, _ := model.ParseDay(in.DataFim)
	if !end.After(start) {
		verr.Add("data_fim", "A data de término deve ser posterior à data de início.")
	}
	if start.Before(model.Day(s.now())) {
		verr.Add("data_inicio", "A data de início não pode estar no passado.")
	}
	if _, err := s.store.GetCompany(ctx, in.EmpresaID); err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		verr.Add("empresa_id", "Empresa não encontrada.")
	}
	supervisor, err := s.store.GetSupervisor(ctx, in.SupervisorID)
	switch {
	case err == nil:
		if supervisor.EmpresaID != in.EmpresaID {
			verr.Add("supervisor_id", "O supervisor não pertence à empresa informada.")
		}
	case errors.Is(err, apperr.ErrNotFound):
		verr.Add("supervisor_id", "Supervisor não encontrado.")
	default:
		return nil, err
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	atividades := make([]string, 0, len(in.Atividades))
	for _, a := range in.Atividades {
		if a = strings.TrimSpace(a); a != "" {
			atividades = append(atividades, a)
		}
	}
	internship := &model.Internship{
		Titulo:              strings.TrimSpace(in.Titulo),
		Funcao:              strings.TrimSpace(in.Funcao),
		DataInicio:          start,
		DataFim:             end,
		CargaHorariaSemanal: in.CargaHorariaSemanal,
		Atividades:          atividades,
		EmpresaID:           in.EmpresaID,
		SupervisorID:        in.SupervisorID,
		Status:              model.InternshipAnalise,
		StatusVaga:          model.VacancyDisponivel,
	}
	if err := s.store.CreateInternship(ctx, internship); err != nil {
		return nil, fmt.Errorf("create internship: %w", err)
	}
	s.logger.Info("internship created", zap.String("estagio_id", internship.ID.String()))
	return internship, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Internship, error) {
	return s.store.GetInternship(ctx, id)
}

func (s *Service) ListAvailable(ctx context.Context) ([]model.Internship, error) {
	return s.store.ListInternships(ctx, store.InternshipFilter{StatusVaga: model.VacancyDisponivel})
}

// Request records the calling student's interest in an available vacancy.
func (s *Service) Request(ctx context.Context, id *access.Identity, internshipID uuid.UUID) (*model.Internship, error) {
	student, err := s.guard.Student(ctx, id)
	if err != nil {
		return nil, err
	}
	if student.EstagioID != nil {
		return nil, apperr.Validation("estagio", "Você já possui um estágio vinculado.")
	}
	internship, err := s.store.GetInternship(ctx, internshipID)
	if err != nil {
		return nil, err
	}
	if internship.StatusVaga != model.VacancyDisponivel {
		return nil, apperr.Validation("estagio", "Esta vaga não está disponível.")
	}
	if internship.EstudanteSolicitanteID != nil {
		return nil, apperr.Validation("estagio", "Já existe uma solicitação pendente para esta vaga.")
	}

	now := s.now().UTC()
	studentID := student.ID
	internship.EstudanteSolicitanteID = &studentID
	internship.DataSolicitacao = &now
	internship.Status = model.InternshipAnalise
	if err := s.store.UpdateInternship(ctx, internship); err != nil {
		return nil, fmt.Errorf("request internship: %w", err)
	}

	coordinator, err := s.store.CoordinatorForInstitution(ctx, student.InstituicaoID)
	if err == nil {
		s.notifier.Dispatch(ctx, notification.Notice{
			Destinatario: coordinator.Email,
			Assunto:      fmt.Sprintf("Nova solicitação de estágio: %s", internship.Titulo),
			Mensagem:     fmt.Sprintf("O estudante %s (%s) solicitou a vaga %s.", student.Nome, student.Matricula, internship.Titulo),
			Referencia:   fmt.Sprintf("estagio_%s_solicitacao_%s", internship.ID, student.ID),
		})
	}
	return internship, nil
}

// Decide approves or rejects the pending request on a vacancy. Approval links
// the student to the internship in the same transaction.
func (s *Service) Decide(ctx context.Context, id *access.Identity, internshipID uuid.UUID, approve bool, remarks string) (*model.Internship, error) {
	coordinator, err := s.guard.Coordinator(ctx, id)
	if err != nil {
		return nil, err
	}
	internship, err := s.store.GetInternship(ctx, internshipID)
	if err != nil {
		return nil, err
	}
	if internship.EstudanteSolicitanteID == nil || internship.Status != model.InternshipAnalise {
		return nil, apperr.Validation("estagio", "Não há solicitação pendente para esta vaga.")
	}
	student, err := s.store.GetStudent(ctx, *internship.EstudanteSolicitanteID)
	if err != nil {
		return nil, err
	}
	if student.InstituicaoID != coordinator.InstituicaoID {
		return nil, apperr.Permission("estudante %s não pertence à sua instituição", student.ID)
	}

	var subject string
	if approve {
		if student.EstagioID != nil {
			return nil, apperr.Validation("estagio", "O estudante já possui um estágio vinculado.")
		}
		internship.Status = model.InternshipAprovado
		internship.StatusVaga = model.VacancyOcupada
		if err := s.store.AssignStudent(ctx, internship, student.ID); err != nil {
			return nil, fmt.Errorf("assign student: %w", err)
		}
		subject = fmt.Sprintf("Solicitação aprovada: %s", internship.Titulo)
	} else {
		internship.Status = model.InternshipReprovado
		internship.StatusVaga = model.VacancyDisponivel
		internship.EstudanteSolicitanteID = nil
		internship.DataSolicitacao = nil
		if err := s.store.UpdateInternship(ctx, internship); err != nil {
			return nil, fmt.Errorf("reject request: %w", err)
		}
		subject = fmt.Sprintf("Solicitação reprovada: %s", internship.Titulo)
	}

	s.logger.Info("internship request decided",
		zap.String("estagio_id", internship.ID.String()),
		zap.String("estudante_id", student.ID.String()),
		zap.Bool("aprovado", approve),
	)
	body := fmt.Sprintf("Sua solicitação para a vaga %s foi analisada pela coordenação: %s.", internship.Titulo, internship.Status)
	if remarks != "" {
		body += "\n\nObservações: " + remarks
	}
	s.notifier.Dispatch(ctx, notification.Notice{
		Destinatario: student.Email,
		Assunto:      subject,
		Mensagem:     body,
		Referencia:   fmt.Sprintf("estagio_%s_%s_%s", internship.ID, internship.Status, student.ID),
	})
	return internship, nil
}

// Start moves an approved internship into progress.
func (s *Service) Start(ctx context.Context, id *access.Identity, internshipID uuid.UUID) (*model.Internship, error) {
	internship, err := s.supervised(ctx, id, internshipID)
	if err != nil {
		return nil, err
	}
	if internship.Status != model.InternshipAprovado {
		return nil, apperr.Validation("status", "Apenas estágios aprovados podem ser iniciados.")
	}
	internship.Status = model.InternshipEmAndamento
	if err := s.store.UpdateInternship(ctx, internship); err != nil {
		return nil, fmt.Errorf("start internship: %w", err)
	}
	return internship, nil
}

// Close ends the vacancy of an internship that was approved or is running.
func (s *Service) Close(ctx context.Context, id *access.Identity, internshipID uuid.UUID) (*model.Internship, error) {
	internship, err := s.supervised(ctx, id, internshipID)
	if err != nil {
		return nil, err
	}
	if internship.Status != model.InternshipEmAndamento && internship.Status != model.InternshipAprovado {
		return nil, apperr.Validation("status", "Apenas estágios em andamento podem ser encerrados.")
	}
	internship.StatusVaga = model.VacancyEncerrada
	if err := s.store.UpdateInternship(ctx, internship); err != nil {
		return nil, fmt.Errorf("close internship: %w", err)
	}
	return internship, nil
}

func (s *Service) SetParecer(ctx context.Context, id *access.Identity, internshipID uuid.UUID, parecer string) (*model.Internship, error) {
	internship, err := s.supervised(ctx, id, internshipID)
	if err != nil {
		return nil, err
	}
	parecer = strings.TrimSpace(parecer)
	if parecer == "" {
		return nil, apperr.Validation("parecer", "Parecer é obrigatório.")
	}
	internship.Parecer = parecer
	if err := s.store.UpdateInternship(ctx, internship); err != nil {
		return nil, fmt.Errorf("save parecer: %w", err)
	}
	return internship, nil
}

// Supervised lists the internships of the calling supervisor.
func (s *Service) Supervised(ctx context.Context, id *access.Identity) ([]model.Internship, error) {
	supervisor, err := s.guard.Supervisor(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.store.ListInternships(ctx, store.InternshipFilter{SupervisorID: &supervisor.ID})
}

// Pending lists vacancies with a request awaiting the coordinator.
func (s *Service) Pending(ctx context.Context, id *access.Identity) ([]model.Internship, error) {
	coordinator, err := s.guard.Coordinator(ctx, id)
	if err != nil {
		return nil, err
	}
	all, err := s.store.ListInternships(ctx, store.InternshipFilter{Status: model.InternshipAnalise})
	if err != nil {
		return nil, err
	}
	out := make([]model.Internship, 0)
	for _, internship := range all {
		if internship.EstudanteSolicitanteID == nil {
			continue
		}
		student, err := s.store.GetStudent(ctx, *internship.EstudanteSolicitanteID)
		if err != nil || student.InstituicaoID != coordinator.InstituicaoID {
			continue
		}
		out = append(out, internship)
	}
	return out, nil
}

func (s *Service) supervised(ctx context.Context, id *access.Identity, internshipID uuid.UUID) (*model.Internship, error) {
	supervisor, err := s.guard.Supervisor(ctx, id)
	if err != nil {
		return nil, err
	}
	internship, err := s.store.GetInternship(ctx, internshipID)
	if err != nil {
		return nil, err
	}
	if internship.SupervisorID != supervisor.ID {
		return nil, apperr.Permission("estágio %s não é supervisionado por você", internship.ID)
	}
	return internship, nil
}

func (s *Service) requireStaff(ctx context.Context, id *access.Identity) error {
	if id.Authenticated() && id.Role == model.RoleAdmin {
		return nil
	}
	_, err := s.guard.Coordinator(ctx, id)
	return err
}
