package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/estagio/estagio/pkg/apperr"
	"github.com/estagio/estagio/pkg/metrics"
	"github.com/estagio/estagio/pkg/model"
)

const DefaultAlertWindowDays = 3

// Statuses that never receive deadline reminders. Only documents waiting on
// the student (ajustes_solicitados, reprovado) remain.
var sweepExcluded = []model.DocumentStatus{
	model.DocumentAprovado,
	model.DocumentFinalizado,
	model.DocumentSubstituido,
	model.DocumentEnviado,
	model.DocumentCorrigido,
}

type SweepStore interface {
	ListWithDeadline(ctx context.Context, from, to time.Time, excluded []model.DocumentStatus) ([]model.Document, error)
	StudentByInternship(ctx context.Context, internshipID uuid.UUID) (*model.Student, error)
	NotificationExists(ctx context.Context, destinatario, referencia string) (bool, error)
	CreateNotification(ctx context.Context, n *model.Notification) (bool, error)
}

type Sweeper struct {
	store  SweepStore
	mailer Mailer
	logger *zap.Logger
	now    func() time.Time
}

func NewSweeper(store SweepStore, mailer Mailer, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		store:  store,
		mailer: mailer,
		logger: logger,
		now:    time.Now,
	}
}

// FindUpcomingDeadlineNotices reminds students of deadlines that fall within
// window days of today and returns the notifications created by this run.
// It is safe to run concurrently with itself.
func (s *Sweeper) FindUpcomingDeadlineNotices(ctx context.Context, today time.Time, window int) ([]model.Notification, error) {
	if window < 0 {
		window = DefaultAlertWindowDays
	}
	from := model.Day(today)
	to := from.AddDate(0, 0, window)

	docs, err := s.store.ListWithDeadline(ctx, from, to, sweepExcluded)
	if err != nil {
		return nil, fmt.Errorf("list documents with deadline: %w", err)
	}

	created := make([]model.Notification, 0)
	for i := range docs {
		doc := &docs[i]
		days := model.DaysBetween(from, *doc.PrazoLimite)
		if days < 0 || days > window {
			continue
		}
		n, err := s.notify(ctx, doc, days)
		if err != nil {
			s.logger.Error("deadline notice failed",
				zap.Error(err),
				zap.String("documento_id", doc.ID.String()),
			)
			continue
		}
		if n != nil {
			created = append(created, *n)
		}
	}
	return created, nil
}

func (s *Sweeper) notify(ctx context.Context, doc *model.Document, days int) (*model.Notification, error) {
	student, err := s.store.StudentByInternship(ctx, doc.EstagioID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			metrics.SweepSkipped.WithLabelValues("sem_estudante").Inc()
			s.logger.Warn("no student linked to internship",
				zap.String("documento_id", doc.ID.String()),
				zap.String("estagio_id", doc.EstagioID.String()),
			)
			return nil, nil
		}
		return nil, err
	}
	if student.Email == "" {
		metrics.SweepSkipped.WithLabelValues("sem_contato").Inc()
		s.logger.Warn("student has no contact", zap.String("estudante_id", student.ID.String()))
		return nil, nil
	}

	referencia := DeadlineReference(doc)
	exists, err := s.store.NotificationExists(ctx, student.Email, referencia)
	if err != nil {
		return nil, err
	}
	if exists {
		metrics.SweepSkipped.WithLabelValues("ja_enviado").Inc()
		return nil, nil
	}

	deadline := doc.PrazoLimite.Format(model.DateLayout)
	subject := fmt.Sprintf("Prazo se aproximando: %s", doc.NomeArquivo)
	body := fmt.Sprintf(
		"Olá %s,\n\nO prazo para o documento %s (versão %.1f) termina em %s (%d dia(s)).\nStatus atual: %s.",
		student.Nome, doc.NomeArquivo, doc.Versao, deadline, days, doc.Status,
	)

	if err := s.mailer.Send(ctx, student.Email, subject, body); err != nil {
		metrics.NotificationFailures.WithLabelValues(metrics.KindDeadline).Inc()
		return nil, apperr.Delivery(student.Email, err)
	}
	metrics.NotificationsSent.WithLabelValues(metrics.KindDeadline).Inc()

	n := &model.Notification{
		Destinatario: student.Email,
		Assunto:      subject,
		Mensagem:     body,
		Referencia:   referencia,
		DataEnvio:    s.now().UTC(),
	}
	inserted, err := s.store.CreateNotification(ctx, n)
	if err != nil {
		return nil, err
	}
	if !inserted {
		// a concurrent sweep recorded it first
		metrics.SweepSkipped.WithLabelValues("concorrente").Inc()
		return nil, nil
	}
	return n, nil
}
