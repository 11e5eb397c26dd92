//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/estagio/estagio/pkg/apperr"
	"github.com/estagio/estagio/pkg/model"
	"github.com/estagio/estagio/pkg/store"
)

// Run with: ESTAGIO_TEST_DSN=postgres://... go test -tags integration ./pkg/store/postgres/
func openTestRepositories(t *testing.T) *Repositories {
	t.Helper()
	dsn := os.Getenv("ESTAGIO_TEST_DSN")
	if dsn == "" {
		t.Skip("ESTAGIO_TEST_DSN not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	s := &Store{db: db}
	require.NoError(t, s.AutoMigrate())
	t.Cleanup(func() { _ = s.Close() })
	return s.Repositories()
}

type seeded struct {
	supervisor *model.Supervisor
	internship *model.Internship
}

func seed(t *testing.T, ctx context.Context, repos *Repositories) seeded {
	t.Helper()
	company := &model.Company{
		CNPJ:        fmt.Sprintf("%014d", rand.Int63n(1e14)),
		RazaoSocial: "Empresa Teste LTDA",
		Rua:         "Rua A",
		Numero:      10,
		Bairro:      "Centro",
	}
	require.NoError(t, repos.CreateCompany(ctx, company))

	account := &model.Account{
		Email:        uuid.NewString() + "@empresa.com",
		Nome:         "Carlos",
		PasswordHash: "x",
		Role:         model.RoleSupervisor,
		Active:       true,
	}
	supervisor := &model.Supervisor{Nome: "Carlos", Email: account.Email, EmpresaID: company.ID}
	require.NoError(t, repos.CreateSupervisor(ctx, account, supervisor))

	start := time.Now().UTC().Truncate(24 * time.Hour)
	internship := &model.Internship{
		Titulo:              "Desenvolvimento",
		DataInicio:          start,
		DataFim:             start.AddDate(0, 6, 0),
		CargaHorariaSemanal: 20,
		EmpresaID:           company.ID,
		SupervisorID:        supervisor.ID,
	}
	require.NoError(t, repos.CreateInternship(ctx, internship))
	return seeded{supervisor: supervisor, internship: internship}
}

func (s seeded) createDocument(t *testing.T, ctx context.Context, repos *Repositories) *model.Document {
	t.Helper()
	doc := &model.Document{
		EstagioID:    s.internship.ID,
		SupervisorID: s.supervisor.ID,
		NomeArquivo:  "plano.pdf",
		Arquivo:      "documentos/plano.pdf",
		Tipo:         "plano_atividades",
		Versao:       1,
		Status:       model.DocumentEnviado,
	}
	entry := &model.DocumentHistory{Acao: model.DocumentEnviado, UsuarioID: s.supervisor.AccountID}
	require.NoError(t, repos.CreateDocument(ctx, doc, entry))
	return doc
}

func TestCreateNotificationIgnoresDuplicateReference(t *testing.T) {
	repos := openTestRepositories(t)
	ctx := context.Background()
	recipient := uuid.NewString() + "@ufx.br"

	created, err := repos.CreateNotification(ctx, &model.Notification{
		Destinatario: recipient,
		Assunto:      "Prazo próximo",
		Referencia:   "prazo:doc-1:3",
	})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repos.CreateNotification(ctx, &model.Notification{
		Destinatario: recipient,
		Assunto:      "Prazo próximo",
		Referencia:   "prazo:doc-1:3",
	})
	require.NoError(t, err)
	assert.False(t, created)

	list, err := repos.ListNotifications(ctx, recipient, false, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestApplyReviewRejectsDecidedDocument(t *testing.T) {
	repos := openTestRepositories(t)
	ctx := context.Background()
	s := seed(t, ctx, repos)
	doc := s.createDocument(t, ctx, repos)

	approved := *doc
	approved.Status = model.DocumentAprovado
	err := repos.ApplyReview(ctx, &approved, s.review(doc, model.DocumentAprovado), s.entry(model.DocumentAprovado))
	require.NoError(t, err)

	rejected := *doc
	rejected.Status = model.DocumentReprovado
	err = repos.ApplyReview(ctx, &rejected, s.review(doc, model.DocumentReprovado), s.entry(model.DocumentReprovado))
	assert.True(t, errors.Is(err, apperr.ErrConflict), "got %v", err)

	stored, err := repos.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DocumentAprovado, stored.Status)

	reviews, err := repos.ListReviews(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, reviews, 1)
	history, err := repos.ListHistory(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestUpdateStatusRequiresExpectedStatus(t *testing.T) {
	repos := openTestRepositories(t)
	ctx := context.Background()
	s := seed(t, ctx, repos)
	doc := s.createDocument(t, ctx, repos)

	finalized := *doc
	finalized.Status = model.DocumentFinalizado
	err := repos.UpdateStatus(ctx, &finalized, model.DocumentAprovado, s.entry(model.DocumentFinalizado))
	assert.True(t, errors.Is(err, apperr.ErrConflict), "got %v", err)

	missing := finalized
	missing.ID = uuid.New()
	err = repos.UpdateStatus(ctx, &missing, model.DocumentAprovado, s.entry(model.DocumentFinalizado))
	assert.True(t, errors.Is(err, apperr.ErrNotFound), "got %v", err)
}

func TestConcurrentSupersedeCreatesOneVersion(t *testing.T) {
	repos := openTestRepositories(t)
	ctx := context.Background()
	s := seed(t, ctx, repos)
	doc := s.createDocument(t, ctx, repos)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			previous := *doc
			previous.Status = model.DocumentSubstituido
			next := &model.Document{
				EstagioID:    doc.EstagioID,
				SupervisorID: doc.SupervisorID,
				NomeArquivo:  "plano_v2.pdf",
				Arquivo:      fmt.Sprintf("documentos/plano_v2_%d.pdf", i),
				Tipo:         doc.Tipo,
				Versao:       1.1,
				Status:       model.DocumentCorrigido,
				ParentID:     &doc.ID,
			}
			errs[i] = repos.Supersede(ctx, &previous, next,
				s.entry(model.DocumentSubstituido), s.entry(model.DocumentCorrigido))
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, apperr.ErrConflict), "got %v", err)
	}
	assert.Equal(t, 1, succeeded)

	versions, err := repos.ListDocuments(ctx, store.DocumentFilter{EstagioID: &doc.EstagioID})
	require.NoError(t, err)
	assert.Len(t, versions, 2)
}

func (s seeded) review(doc *model.Document, result model.DocumentStatus) *model.DocumentReview {
	return &model.DocumentReview{
		Versao:      doc.Versao,
		NomeArquivo: doc.NomeArquivo,
		Arquivo:     doc.Arquivo,
		Tipo:        doc.Tipo,
		Resultado:   result,
		RevisorID:   s.supervisor.AccountID,
	}
}

func (s seeded) entry(action model.DocumentStatus) *model.DocumentHistory {
	return &model.DocumentHistory{Acao: action, UsuarioID: s.supervisor.AccountID}
}
