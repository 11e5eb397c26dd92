package workflow

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/estagio/estagio/pkg/access"
	"github.com/estagio/estagio/pkg/model"
	"github.com/estagio/estagio/pkg/notification"
	"github.com/estagio/estagio/pkg/storage"
	"github.com/estagio/estagio/pkg/store/memory"
)

var pdf = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n%%EOF\n")

type mail struct {
	to, subject, body string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, mail{to: to, subject: subject, body: body})
	return nil
}

func (m *recordingMailer) to(addr string) []mail {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []mail
	for _, sent := range m.sent {
		if sent.to == addr {
			out = append(out, sent)
		}
	}
	return out
}

type env struct {
	t       *testing.T
	ctx     context.Context
	store   *memory.Store
	mailer  *recordingMailer
	service *Service

	institution *model.Institution
	company     *model.Company
	internship  *model.Internship

	student     *model.Student
	supervisor  *model.Supervisor
	coordinator *model.Coordinator

	studentID     *access.Identity
	supervisorID  *access.Identity
	coordinatorID *access.Identity
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	st := memory.New()

	files, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	mailer := &recordingMailer{}
	dispatcher := notification.NewDispatcher(mailer, st, zap.NewNop())

	e := &env{
		t:       t,
		ctx:     ctx,
		store:   st,
		mailer:  mailer,
		service: NewService(st, files, storage.DefaultPolicy(), dispatcher, zap.NewNop()),
	}

	e.institution = &model.Institution{Nome: "Universidade Federal X"}
	require.NoError(t, st.CreateInstitution(ctx, e.institution))

	e.company = &model.Company{CNPJ: "11222333000181", RazaoSocial: "Acme", Rua: "Rua X", Numero: 10, Bairro: "Centro"}
	require.NoError(t, st.CreateCompany(ctx, e.company))

	e.supervisor, e.supervisorID = e.newSupervisor("carla@acme.com")

	e.internship = &model.Internship{
		Titulo:              "Desenvolvimento backend",
		DataInicio:          time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		DataFim:             time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC),
		CargaHorariaSemanal: 30,
		EmpresaID:           e.company.ID,
		SupervisorID:        e.supervisor.ID,
		Status:              model.InternshipEmAndamento,
		StatusVaga:          model.VacancyOcupada,
	}
	require.NoError(t, st.CreateInternship(ctx, e.internship))

	studentAccount := &model.Account{Email: "ana@ufx.br", Nome: "Ana", Role: model.RoleStudent, Active: true}
	e.student = &model.Student{
		Nome:          "Ana",
		Matricula:     "2024001",
		Email:         "ana@ufx.br",
		InstituicaoID: e.institution.ID,
		EstagioID:     &e.internship.ID,
	}
	require.NoError(t, st.CreateStudent(ctx, studentAccount, e.student))
	e.studentID = &access.Identity{AccountID: studentAccount.ID, Email: studentAccount.Email, Role: model.RoleStudent}

	coordAccount := &model.Account{Email: "rui@ufx.br", Nome: "Rui", Role: model.RoleCoordinator, Active: true}
	e.coordinator = &model.Coordinator{Nome: "Rui", Email: "rui@ufx.br", InstituicaoID: e.institution.ID}
	require.NoError(t, st.CreateCoordinator(ctx, coordAccount, e.coordinator))
	e.coordinatorID = &access.Identity{AccountID: coordAccount.ID, Email: coordAccount.Email, Role: model.RoleCoordinator}

	return e
}

func (e *env) newSupervisor(email string) (*model.Supervisor, *access.Identity) {
	e.t.Helper()
	account := &model.Account{Email: email, Nome: "Supervisor", Role: model.RoleSupervisor, Active: true}
	supervisor := &model.Supervisor{Nome: "Carla", Cargo: "Tech lead", Email: email, EmpresaID: e.company.ID}
	require.NoError(e.t, e.store.CreateSupervisor(e.ctx, account, supervisor))
	return supervisor, &access.Identity{AccountID: account.ID, Email: email, Role: model.RoleSupervisor}
}

func (e *env) submit() *model.Document {
	e.t.Helper()
	doc, err := e.service.Submit(e.ctx, e.studentID, SubmitInput{
		Tipo:        "plano_atividades",
		NomeArquivo: "plano.pdf",
		Content:     bytes.NewReader(pdf),
	})
	require.NoError(e.t, err)
	return doc
}

func (e *env) resubmit(docID *model.Document) *model.Document {
	e.t.Helper()
	doc, err := e.service.Resubmit(e.ctx, e.studentID, docID.ID, ResubmitInput{
		NomeArquivo: "plano-v2.pdf",
		Content:     bytes.NewReader(pdf),
	})
	require.NoError(e.t, err)
	return doc
}

func (e *env) history(doc *model.Document) []model.DocumentHistory {
	e.t.Helper()
	entries, err := e.store.ListHistory(e.ctx, doc.ID)
	require.NoError(e.t, err)
	return entries
}

func (e *env) reload(doc *model.Document) *model.Document {
	e.t.Helper()
	got, err := e.store.GetDocument(e.ctx, doc.ID)
	require.NoError(e.t, err)
	return got
}

var errSMTP = errors.New("smtp down")
