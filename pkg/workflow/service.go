// Package workflow implements the document approval lifecycle: submission,
// supervisor review, resubmission as a new version and coordinator
// finalization.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/estagio/estagio/pkg/access"
	"github.com/estagio/estagio/pkg/apperr"
	"github.com/estagio/estagio/pkg/eventbus"
	"github.com/estagio/estagio/pkg/metrics"
	"github.com/estagio/estagio/pkg/model"
	"github.com/estagio/estagio/pkg/notification"
	"github.com/estagio/estagio/pkg/storage"
	"github.com/estagio/estagio/pkg/store"
	"github.com/estagio/estagio/pkg/validation"
)

type Store interface {
	store.DocumentStore
	store.ProfileStore
	GetAccount(ctx context.Context, id uuid.UUID) (*model.Account, error)
	GetInternship(ctx context.Context, id uuid.UUID) (*model.Internship, error)
	GetSupervisor(ctx context.Context, id uuid.UUID) (*model.Supervisor, error)
}

type Notifier interface {
	Dispatch(ctx context.Context, notice notification.Notice)
}

type Service struct {
	store    Store
	guard    *access.Guard
	files    storage.FileStore
	policy   storage.Policy
	notifier Notifier
	events   eventbus.Publisher
	logger   *zap.Logger
}

func NewService(st Store, files storage.FileStore, policy storage.Policy, notifier Notifier, logger *zap.Logger) *Service {
	return &Service{
		store:    st,
		guard:    access.NewGuard(st),
		files:    files,
		policy:   policy,
		notifier: notifier,
		logger:   logger,
	}
}

// WithEvents publishes every status change on the event bus.
func (s *Service) WithEvents(p eventbus.Publisher) *Service {
	s.events = p
	return s
}

type SubmitInput struct {
	Tipo        string    `json:"tipo" validate:"required,max=50"`
	NomeArquivo string    `json:"nome_arquivo" validate:"required,max=255"`
	Content     io.Reader `json:"-"`
}

type ResubmitInput struct {
	NomeArquivo string
	Content     io.Reader
}

// Submit stores a first version of a document for the caller's internship.
func (s *Service) Submit(ctx context.Context, id *access.Identity, in SubmitInput) (*model.Document, error) {
	student, err := s.guard.Student(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if student.EstagioID == nil {
		return nil, apperr.Validation("estagio", "Você não possui estágio vinculado.")
	}
	internship, err := s.store.GetInternship(ctx, *student.EstagioID)
	if err != nil {
		return nil, err
	}

	ref, err := s.storeUpload(ctx, in.NomeArquivo, in.Content)
	if err != nil {
		return nil, err
	}

	submitter := id.AccountID
	doc := &model.Document{
		EstagioID:    internship.ID,
		SupervisorID: internship.SupervisorID,
		EnviadoPorID: &submitter,
		NomeArquivo:  in.NomeArquivo,
		Arquivo:      ref,
		Tipo:         in.Tipo,
		Versao:       1,
		Status:       model.DocumentEnviado,
	}
	coordinator, err := s.store.CoordinatorForInstitution(ctx, student.InstituicaoID)
	switch {
	case err == nil:
		doc.CoordenadorID = &coordinator.ID
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, err
	}

	entry := &model.DocumentHistory{Acao: model.DocumentEnviado, UsuarioID: id.AccountID}
	if err := s.store.CreateDocument(ctx, doc, entry); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	s.transitioned(ctx, doc, id, "")
	s.notifySupervisor(ctx, doc, fmt.Sprintf("Novo documento enviado: %s", doc.NomeArquivo),
		fmt.Sprintf("O estudante %s enviou o documento %s (versão %.1f) para revisão.", student.Nome, doc.NomeArquivo, doc.Versao))
	return doc, nil
}

func (s *Service) Approve(ctx context.Context, id *access.Identity, docID uuid.UUID, remarks string) (*model.Document, error) {
	return s.review(ctx, id, docID, model.DocumentAprovado, nil, remarks)
}

func (s *Service) Reject(ctx context.Context, id *access.Identity, docID uuid.UUID, remarks string) (*model.Document, error) {
	return s.review(ctx, id, docID, model.DocumentReprovado, nil, remarks)
}

// RequestChanges asks the student for a corrected version. deadline is
// optional and must be YYYY-MM-DD when present.
func (s *Service) RequestChanges(ctx context.Context, id *access.Identity, docID uuid.UUID, deadline string, remarks string) (*model.Document, error) {
	var prazo *time.Time
	if deadline != "" {
		d, err := model.ParseDay(deadline)
		if err != nil {
			return nil, apperr.Validation("prazo_limite", "Data inválida. Use o formato AAAA-MM-DD.")
		}
		prazo = &d
	}
	return s.review(ctx, id, docID, model.DocumentAjustesSolicitados, prazo, remarks)
}

func (s *Service) review(ctx context.Context, id *access.Identity, docID uuid.UUID, outcome model.DocumentStatus, deadline *time.Time, remarks string) (*model.Document, error) {
	supervisor, err := s.guard.Supervisor(ctx, id)
	if err != nil {
		return nil, err
	}
	doc, err := s.store.GetDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.SupervisorID != supervisor.ID {
		return nil, apperr.Permission("documento %s não pertence a este supervisor", doc.ID)
	}
	if !doc.Status.Reviewable() {
		return nil, apperr.Validation("status", fmt.Sprintf("Documento com status %q não pode ser revisado.", doc.Status))
	}

	doc.Status = outcome
	doc.ObservacoesSupervisor = remarks
	if outcome == model.DocumentAjustesSolicitados {
		doc.PrazoLimite = deadline
	}

	review := &model.DocumentReview{
		DocumentoID: doc.ID,
		Versao:      doc.Versao,
		NomeArquivo: doc.NomeArquivo,
		Arquivo:     doc.Arquivo,
		Tipo:        doc.Tipo,
		Resultado:   outcome,
		RevisorID:   id.AccountID,
		Observacoes: remarks,
		PrazoLimite: doc.PrazoLimite,
	}
	entry := &model.DocumentHistory{Acao: outcome, UsuarioID: id.AccountID, Observacoes: remarks}
	if err := s.store.ApplyReview(ctx, doc, review, entry); err != nil {
		return nil, fmt.Errorf("apply review: %w", err)
	}

	s.transitioned(ctx, doc, id, remarks)
	subject, body := reviewMessage(doc, supervisor, remarks)
	s.notifySubmitter(ctx, doc, subject, body)
	return doc, nil
}

// Resubmit uploads a new version of a document returned to the student. The
// new version and the supersession of the old one are stored atomically.
func (s *Service) Resubmit(ctx context.Context, id *access.Identity, docID uuid.UUID, in ResubmitInput) (*model.Document, error) {
	student, err := s.guard.Student(ctx, id)
	if err != nil {
		return nil, err
	}
	doc, err := s.store.GetDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	if student.EstagioID == nil || *student.EstagioID != doc.EstagioID {
		return nil, apperr.Permission("documento %s não pertence ao seu estágio", doc.ID)
	}
	if !doc.Status.Resubmittable() {
		return nil, apperr.Validation("status", fmt.Sprintf("Documento com status %q não aceita reenvio.", doc.Status))
	}
	if in.Content == nil {
		return nil, apperr.Validation("arquivo", "Arquivo é obrigatório.")
	}
	name := in.NomeArquivo
	if name == "" {
		name = doc.NomeArquivo
	}

	ref, err := s.storeUpload(ctx, name, in.Content)
	if err != nil {
		return nil, err
	}

	parentID, submitter := doc.ID, id.AccountID
	next := &model.Document{
		EstagioID:     doc.EstagioID,
		SupervisorID:  doc.SupervisorID,
		CoordenadorID: doc.CoordenadorID,
		EnviadoPorID:  &submitter,
		NomeArquivo:   name,
		Arquivo:       ref,
		Tipo:          doc.Tipo,
		Versao:        doc.Versao + 1,
		Status:        model.DocumentEnviado,
		ParentID:      &parentID,
	}
	doc.Status = model.DocumentSubstituido

	previousEntry := &model.DocumentHistory{Acao: model.DocumentSubstituido, UsuarioID: id.AccountID}
	nextEntry := &model.DocumentHistory{Acao: model.DocumentEnviado, UsuarioID: id.AccountID}
	if err := s.store.Supersede(ctx, doc, next, previousEntry, nextEntry); err != nil {
		return nil, fmt.Errorf("supersede document: %w", err)
	}

	s.transitioned(ctx, doc, id, "")
	s.transitioned(ctx, next, id, "")
	s.notifySupervisor(ctx, next, fmt.Sprintf("Nova versão enviada: %s", next.NomeArquivo),
		fmt.Sprintf("O estudante %s enviou a versão %.1f do documento %s.", student.Nome, next.Versao, next.NomeArquivo))
	return next, nil
}

// Finalize closes an approved document. Only its coordinator may do so.
func (s *Service) Finalize(ctx context.Context, id *access.Identity, docID uuid.UUID, remarks string) (*model.Document, error) {
	coordinator, err := s.guard.Coordinator(ctx, id)
	if err != nil {
		return nil, err
	}
	doc, err := s.store.GetDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.CoordenadorID == nil || *doc.CoordenadorID != coordinator.ID {
		return nil, apperr.Permission("documento %s não pertence a este coordenador", doc.ID)
	}
	if doc.Status != model.DocumentAprovado {
		return nil, apperr.Validation("status", "Apenas documentos aprovados podem ser finalizados.")
	}

	doc.Status = model.DocumentFinalizado
	entry := &model.DocumentHistory{Acao: model.DocumentFinalizado, UsuarioID: id.AccountID, Observacoes: remarks}
	if err := s.store.UpdateStatus(ctx, doc, model.DocumentAprovado, entry); err != nil {
		return nil, fmt.Errorf("finalize document: %w", err)
	}

	s.transitioned(ctx, doc, id, remarks)
	body := fmt.Sprintf("O documento %s (versão %.1f) foi finalizado pela coordenação.", doc.NomeArquivo, doc.Versao)
	if remarks != "" {
		body += "\n\nObservações: " + remarks
	}
	s.notifySubmitter(ctx, doc, fmt.Sprintf("Documento finalizado: %s", doc.NomeArquivo), body)
	return doc, nil
}

// Track lists the documents that concern the caller: the student's live
// documents, the supervisor's review queue or the coordinator's
// finalization queue.
func (s *Service) Track(ctx context.Context, id *access.Identity) ([]model.Document, error) {
	if !id.Authenticated() {
		return nil, apperr.Permission("authentication required")
	}
	switch id.Role {
	case model.RoleStudent:
		student, err := s.guard.Student(ctx, id)
		if err != nil {
			return nil, err
		}
		if student.EstagioID == nil {
			return []model.Document{}, nil
		}
		return s.store.ListDocuments(ctx, store.DocumentFilter{
			EstagioID: student.EstagioID,
			Statuses: []model.DocumentStatus{
				model.DocumentEnviado, model.DocumentAjustesSolicitados, model.DocumentCorrigido,
				model.DocumentAprovado, model.DocumentReprovado, model.DocumentFinalizado,
			},
		})
	case model.RoleSupervisor:
		supervisor, err := s.guard.Supervisor(ctx, id)
		if err != nil {
			return nil, err
		}
		return s.store.ListDocuments(ctx, store.DocumentFilter{
			SupervisorID: &supervisor.ID,
			Statuses:     []model.DocumentStatus{model.DocumentEnviado, model.DocumentCorrigido},
		})
	case model.RoleCoordinator:
		coordinator, err := s.guard.Coordinator(ctx, id)
		if err != nil {
			return nil, err
		}
		return s.store.ListDocuments(ctx, store.DocumentFilter{
			CoordenadorID: &coordinator.ID,
			Statuses:      []model.DocumentStatus{model.DocumentAprovado},
		})
	default:
		return nil, apperr.Permission("perfil sem documentos")
	}
}

func (s *Service) storeUpload(ctx context.Context, name string, content io.Reader) (string, error) {
	upload, err := storage.ReadUpload(s.policy, name, content)
	if err != nil {
		return "", err
	}
	ref, err := storage.SaveUpload(ctx, s.files, upload)
	if err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	return ref, nil
}

func (s *Service) transitioned(ctx context.Context, doc *model.Document, id *access.Identity, remarks string) {
	metrics.DocumentTransitions.WithLabelValues(string(doc.Status)).Inc()
	s.logger.Info("document status changed",
		zap.String("documento_id", doc.ID.String()),
		zap.String("status", string(doc.Status)),
		zap.Float64("versao", doc.Versao),
		zap.String("usuario_id", id.AccountID.String()),
	)
	if s.events == nil {
		return
	}
	err := eventbus.PublishDocument(ctx, s.events, eventbus.DocumentEvent{
		DocumentID: doc.ID.String(),
		EstagioID:  doc.EstagioID.String(),
		Versao:     doc.Versao,
		Status:     string(doc.Status),
		ActorID:    id.AccountID.String(),
		Message:    remarks,
	})
	if err != nil {
		s.logger.Warn("failed to publish document event", zap.Error(err), zap.String("documento_id", doc.ID.String()))
	}
}

// submitterContact prefers the recorded submitter and falls back to the
// student linked to the internship. Empty means nobody to notify.
func (s *Service) submitterContact(ctx context.Context, doc *model.Document) string {
	if doc.EnviadoPorID != nil {
		account, err := s.store.GetAccount(ctx, *doc.EnviadoPorID)
		if err == nil && account.Email != "" {
			return account.Email
		}
	}
	student, err := s.store.StudentByInternship(ctx, doc.EstagioID)
	if err == nil && student.Email != "" {
		return student.Email
	}
	return ""
}

func (s *Service) notifySubmitter(ctx context.Context, doc *model.Document, subject, body string) {
	to := s.submitterContact(ctx, doc)
	if to == "" {
		s.logger.Warn("no recipient for document notice", zap.String("documento_id", doc.ID.String()))
		return
	}
	s.notifier.Dispatch(ctx, notification.Notice{
		Destinatario: to,
		Assunto:      subject,
		Mensagem:     body,
		Referencia:   notification.DocumentReference(doc),
	})
}

func (s *Service) notifySupervisor(ctx context.Context, doc *model.Document, subject, body string) {
	supervisor, err := s.store.GetSupervisor(ctx, doc.SupervisorID)
	if err != nil || supervisor.Email == "" {
		s.logger.Warn("no supervisor contact for document", zap.String("documento_id", doc.ID.String()))
		return
	}
	s.notifier.Dispatch(ctx, notification.Notice{
		Destinatario: supervisor.Email,
		Assunto:      subject,
		Mensagem:     body,
		Referencia:   notification.DocumentReference(doc),
	})
}

func reviewMessage(doc *model.Document, supervisor *model.Supervisor, remarks string) (string, string) {
	var subject, body string
	switch doc.Status {
	case model.DocumentAprovado:
		subject = fmt.Sprintf("Documento aprovado: %s", doc.NomeArquivo)
		body = fmt.Sprintf("Seu documento %s (versão %.1f) foi aprovado por %s.", doc.NomeArquivo, doc.Versao, supervisor.Nome)
	case model.DocumentReprovado:
		subject = fmt.Sprintf("Documento reprovado: %s", doc.NomeArquivo)
		body = fmt.Sprintf("Seu documento %s (versão %.1f) foi reprovado por %s.", doc.NomeArquivo, doc.Versao, supervisor.Nome)
	default:
		subject = fmt.Sprintf("Ajustes solicitados: %s", doc.NomeArquivo)
		body = fmt.Sprintf("%s solicitou ajustes no documento %s (versão %.1f).", supervisor.Nome, doc.NomeArquivo, doc.Versao)
		if doc.PrazoLimite != nil {
			body += "\nPrazo para reenvio: " + doc.PrazoLimite.Format(model.DateLayout) + "."
		}
	}
	if remarks != "" {
		body += "\n\nObservações: " + remarks
	}
	return subject, body
}
