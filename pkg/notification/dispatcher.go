package notification

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/estagio/estagio/pkg/apperr"
	"github.com/estagio/estagio/pkg/metrics"
	"github.com/estagio/estagio/pkg/model"
	"github.com/estagio/estagio/pkg/store"
)

// Notice is a message to one recipient identified by Referencia.
type Notice struct {
	Destinatario string
	Assunto      string
	Mensagem     string
	Referencia   string
}

// Dispatcher sends transition notices best-effort and records them so they
// show up in the recipient's inbox.
type Dispatcher struct {
	mailer        Mailer
	notifications store.NotificationStore
	logger        *zap.Logger
	now           func() time.Time
}

func NewDispatcher(mailer Mailer, notifications store.NotificationStore, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		mailer:        mailer,
		notifications: notifications,
		logger:        logger,
		now:           time.Now,
	}
}

// Dispatch never returns an error: failures are logged so the caller's
// already committed change stands.
func (d *Dispatcher) Dispatch(ctx context.Context, notice Notice) {
	if notice.Destinatario == "" {
		return
	}

	if err := d.mailer.Send(ctx, notice.Destinatario, notice.Assunto, notice.Mensagem); err != nil {
		metrics.NotificationFailures.WithLabelValues(metrics.KindTransition).Inc()
		d.logger.Warn("failed to send notification",
			zap.Error(apperr.Delivery(notice.Destinatario, err)),
			zap.String("referencia", notice.Referencia),
		)
	} else {
		metrics.NotificationsSent.WithLabelValues(metrics.KindTransition).Inc()
	}

	n := &model.Notification{
		Destinatario: notice.Destinatario,
		Assunto:      notice.Assunto,
		Mensagem:     notice.Mensagem,
		Referencia:   notice.Referencia,
		DataEnvio:    d.now().UTC(),
	}
	if _, err := d.notifications.CreateNotification(ctx, n); err != nil {
		d.logger.Warn("failed to record notification",
			zap.Error(err),
			zap.String("referencia", notice.Referencia),
		)
	}
}

// DocumentReference is the dedup key of a document transition notice.
func DocumentReference(doc *model.Document) string {
	return fmt.Sprintf("documento_%s_%s", doc.ID, doc.Status)
}

// DeadlineReference is the dedup key of a deadline reminder.
func DeadlineReference(doc *model.Document) string {
	return fmt.Sprintf("alerta_prazo_%s_%s", doc.ID, doc.PrazoLimite.Format(model.DateLayout))
}
