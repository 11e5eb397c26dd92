package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/estagio/estagio/pkg/model"
	"github.com/estagio/estagio/pkg/store/memory"
)

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail map[string]bool
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail[to] {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

var today = time.Date(2025, 12, 1, 9, 30, 0, 0, time.UTC)

func day(offset int) *time.Time {
	d := model.Day(today).AddDate(0, 0, offset)
	return &d
}

type fixture struct {
	store      *memory.Store
	internship *model.Internship
	student    *model.Student
}

func newFixture(t *testing.T, st *memory.Store, email string) *fixture {
	t.Helper()
	ctx := context.Background()
	internship := &model.Internship{Titulo: "Backend", EmpresaID: uuid.New(), SupervisorID: uuid.New()}
	require.NoError(t, st.CreateInternship(ctx, internship))

	account := &model.Account{Email: email, Nome: "Aluno", Role: model.RoleStudent, Active: true}
	student := &model.Student{
		Nome:          "Aluno",
		Matricula:     uuid.NewString()[:8],
		Email:         email,
		InstituicaoID: uuid.New(),
		EstagioID:     &internship.ID,
	}
	require.NoError(t, st.CreateStudent(ctx, account, student))
	return &fixture{store: st, internship: internship, student: student}
}

func (f *fixture) document(t *testing.T, status model.DocumentStatus, deadline *time.Time) *model.Document {
	t.Helper()
	doc := &model.Document{
		EstagioID:    f.internship.ID,
		SupervisorID: f.internship.SupervisorID,
		NomeArquivo:  "plano.pdf",
		Arquivo:      "documentos/plano.pdf",
		Tipo:         "plano_atividades",
		Versao:       1,
		Status:       status,
		PrazoLimite:  deadline,
	}
	require.NoError(t, f.store.CreateDocument(context.Background(), doc, nil))
	return doc
}

func TestSweepIsIdempotent(t *testing.T) {
	st := memory.New()
	f := newFixture(t, st, "ana@ufx.br")
	f.document(t, model.DocumentAjustesSolicitados, day(2))
	f.document(t, model.DocumentReprovado, day(2))

	mailer := &fakeMailer{}
	sweeper := NewSweeper(st, mailer, zap.NewNop())

	first, err := sweeper.FindUpcomingDeadlineNotices(context.Background(), today, 3)
	require.NoError(t, err)
	assert.Len(t, first, 2)
	assert.NotEqual(t, first[0].Referencia, first[1].Referencia)

	second, err := sweeper.FindUpcomingDeadlineNotices(context.Background(), today, 3)
	require.NoError(t, err)
	assert.Empty(t, second)
	assert.Equal(t, 2, st.NotificationCount())
	assert.Equal(t, 2, mailer.count())
}

func TestSweepExcludesStatusesAndOutOfWindow(t *testing.T) {
	st := memory.New()
	f := newFixture(t, st, "bia@ufx.br")
	for _, status := range []model.DocumentStatus{
		model.DocumentAprovado,
		model.DocumentFinalizado,
		model.DocumentSubstituido,
		model.DocumentEnviado,
		model.DocumentCorrigido,
	} {
		f.document(t, status, day(1))
	}
	f.document(t, model.DocumentAjustesSolicitados, day(4))
	f.document(t, model.DocumentAjustesSolicitados, day(-1))
	f.document(t, model.DocumentAjustesSolicitados, nil)
	due := f.document(t, model.DocumentAjustesSolicitados, day(0))

	mailer := &fakeMailer{}
	created, err := NewSweeper(st, mailer, zap.NewNop()).FindUpcomingDeadlineNotices(context.Background(), today, 3)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, DeadlineReference(due), created[0].Referencia)
	assert.Equal(t, "alerta_prazo_"+due.ID.String()+"_2025-12-01", created[0].Referencia)
}

func TestSweepIsolatesFailures(t *testing.T) {
	st := memory.New()
	broken := newFixture(t, st, "falha@ufx.br")
	healthy := newFixture(t, st, "ok@ufx.br")
	broken.document(t, model.DocumentReprovado, day(1))
	healthy.document(t, model.DocumentReprovado, day(1))

	orphan := &model.Document{
		EstagioID:    uuid.New(),
		SupervisorID: uuid.New(),
		NomeArquivo:  "orfao.pdf",
		Arquivo:      "documentos/orfao.pdf",
		Tipo:         "relatorio",
		Versao:       1,
		Status:       model.DocumentAjustesSolicitados,
		PrazoLimite:  day(1),
	}
	require.NoError(t, st.CreateDocument(context.Background(), orphan, nil))

	mailer := &fakeMailer{fail: map[string]bool{"falha@ufx.br": true}}
	sweeper := NewSweeper(st, mailer, zap.NewNop())

	created, err := sweeper.FindUpcomingDeadlineNotices(context.Background(), today, 3)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "ok@ufx.br", created[0].Destinatario)

	// the failed delivery was not recorded and is retried on the next run
	mailer.mu.Lock()
	mailer.fail = nil
	mailer.mu.Unlock()
	retried, err := sweeper.FindUpcomingDeadlineNotices(context.Background(), today, 3)
	require.NoError(t, err)
	require.Len(t, retried, 1)
	assert.Equal(t, "falha@ufx.br", retried[0].Destinatario)
}

func TestConcurrentSweepsCreateOneNotificationPerKey(t *testing.T) {
	st := memory.New()
	f := newFixture(t, st, "ana@ufx.br")
	f.document(t, model.DocumentAjustesSolicitados, day(1))
	f.document(t, model.DocumentAjustesSolicitados, day(1))

	sweeper := NewSweeper(st, &fakeMailer{}, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = sweeper.FindUpcomingDeadlineNotices(context.Background(), today, 3)
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, st.NotificationCount())
}

func TestDispatcherRecordsEvenWhenDeliveryFails(t *testing.T) {
	st := memory.New()
	mailer := &fakeMailer{fail: map[string]bool{"ana@ufx.br": true}}
	d := NewDispatcher(mailer, st, zap.NewNop())

	doc := &model.Document{ID: uuid.New(), Status: model.DocumentReprovado}
	d.Dispatch(context.Background(), Notice{
		Destinatario: "ana@ufx.br",
		Assunto:      "Documento reprovado",
		Mensagem:     "ajustar anexo",
		Referencia:   DocumentReference(doc),
	})
	d.Dispatch(context.Background(), Notice{Referencia: "sem-destinatario"})

	list, err := st.ListNotifications(context.Background(), "ana@ufx.br", false, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "documento_"+doc.ID.String()+"_reprovado", list[0].Referencia)
	assert.Equal(t, 1, st.NotificationCount())
}

type fakeLocker struct {
	held bool
}

func (l *fakeLocker) TryLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	if l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

func (l *fakeLocker) Unlock(ctx context.Context, key, token string) error {
	l.held = false
	return nil
}

func TestRunnerRunOnceHonoursLock(t *testing.T) {
	st := memory.New()
	f := newFixture(t, st, "ana@ufx.br")
	f.document(t, model.DocumentReprovado, day(1))

	locker := &fakeLocker{held: true}
	runner := NewRunner(NewSweeper(st, &fakeMailer{}, zap.NewNop()), locker, zap.NewNop(), time.Minute, 3)
	runner.now = func() time.Time { return today }

	assert.Equal(t, 0, runner.RunOnce(context.Background()))

	locker.held = false
	assert.Equal(t, 1, runner.RunOnce(context.Background()))
	assert.False(t, locker.held)
}
