package apiserver

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/estagio/estagio/pkg/config"
	"github.com/estagio/estagio/pkg/model"
	"github.com/estagio/estagio/pkg/notification"
	"github.com/estagio/estagio/pkg/storage"
	"github.com/estagio/estagio/pkg/store"
	"github.com/estagio/estagio/pkg/store/memory"
)

var pdf = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n%%EOF\n")

type healthResponse struct {
	Status string `json:"status"`
}

type envelope struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
	Data    json.RawMessage   `json:"data"`
}

type deniedResponse struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect"`
}

type notificationsResponse struct {
	Count        int                  `json:"count"`
	Notificacoes []model.Notification `json:"notificacoes"`
}

type testServer struct {
	t        *testing.T
	server   *Server
	store    *memory.Store
	services Services

	company    *model.Company
	supervisor *model.Supervisor

	studentToken    string
	supervisorToken string
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{LoginURL: "/login/", HomeURL: "/"},
		Auth:   config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour, Issuer: "estagio"},
		Storage: config.StorageConfig{
			MaxUploadMB:  10,
			AllowedTypes: []string{storage.MimePDF, storage.MimeDOCX},
		},
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	cfg := testConfig()
	st := memory.New()

	files, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create file store: %v", err)
	}
	services := NewServices(st, files, notification.NewLogMailer(zap.NewNop()), nil, cfg, zap.NewNop())
	ts := &testServer{
		t:        t,
		server:   NewServer(services, cfg, zap.NewNop()),
		store:    st,
		services: services,
	}

	institution := &model.Institution{Nome: "Universidade Federal X"}
	if err := st.CreateInstitution(ctx, institution); err != nil {
		t.Fatalf("failed to create institution: %v", err)
	}
	ts.company = &model.Company{CNPJ: "11222333000181", RazaoSocial: "Acme", Rua: "Rua X", Numero: 10, Bairro: "Centro"}
	if err := st.CreateCompany(ctx, ts.company); err != nil {
		t.Fatalf("failed to create company: %v", err)
	}

	supervisorAccount := &model.Account{Email: "carla@acme.com", Nome: "Carla", Role: model.RoleSupervisor, Active: true}
	ts.supervisor = &model.Supervisor{Nome: "Carla", Email: "carla@acme.com", EmpresaID: ts.company.ID}
	if err := st.CreateSupervisor(ctx, supervisorAccount, ts.supervisor); err != nil {
		t.Fatalf("failed to create supervisor: %v", err)
	}

	internship := &model.Internship{
		Titulo:              "Desenvolvimento backend",
		DataInicio:          time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		DataFim:             time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC),
		CargaHorariaSemanal: 30,
		EmpresaID:           ts.company.ID,
		SupervisorID:        ts.supervisor.ID,
		Status:              model.InternshipEmAndamento,
		StatusVaga:          model.VacancyOcupada,
	}
	if err := st.CreateInternship(ctx, internship); err != nil {
		t.Fatalf("failed to create internship: %v", err)
	}

	studentAccount := &model.Account{Email: "ana@ufx.br", Nome: "Ana", Role: model.RoleStudent, Active: true}
	student := &model.Student{
		Nome:          "Ana",
		Matricula:     "2024001",
		Email:         "ana@ufx.br",
		InstituicaoID: institution.ID,
		EstagioID:     &internship.ID,
	}
	if err := st.CreateStudent(ctx, studentAccount, student); err != nil {
		t.Fatalf("failed to create student: %v", err)
	}

	ts.studentToken = ts.token(studentAccount)
	ts.supervisorToken = ts.token(supervisorAccount)
	return ts
}

func (ts *testServer) token(account *model.Account) string {
	ts.t.Helper()
	token, _, err := ts.services.Tokens.Generate(account)
	if err != nil {
		ts.t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func (ts *testServer) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(recorder, req)
	return recorder
}

func (ts *testServer) doJSON(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	ts.t.Helper()
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			ts.t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	return ts.do(req, token)
}

func (ts *testServer) upload(path, token string) *httptest.ResponseRecorder {
	ts.t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("tipo", "plano_atividades"); err != nil {
		ts.t.Fatalf("failed to write field: %v", err)
	}
	part, err := writer.CreateFormFile("arquivo", "plano.pdf")
	if err != nil {
		ts.t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write(pdf); err != nil {
		ts.t.Fatalf("failed to write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		ts.t.Fatalf("failed to close multipart writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return ts.do(req, token)
}

func decode(t *testing.T, recorder *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), dst); err != nil {
		t.Fatalf("failed to decode response %q: %v", recorder.Body.String(), err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	recorder := ts.do(httptest.NewRequest(http.MethodGet, "/health", nil), "")

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}

	var response healthResponse
	decode(t, recorder, &response)
	if response.Status != "ok" {
		t.Fatalf("expected status ok, got %q", response.Status)
	}
}

func TestAPIAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	recorder := ts.do(httptest.NewRequest(http.MethodGet, "/api/empresas/", nil), "")
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, recorder.Code)
	}

	recorder = ts.do(httptest.NewRequest(http.MethodGet, "/api/empresas/", nil), "not-a-token")
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected status %d for a bad token, got %d", http.StatusForbidden, recorder.Code)
	}
}

func TestCompanyDuplicateCNPJ(t *testing.T) {
	ts := newTestServer(t)

	recorder := ts.doJSON(http.MethodPost, "/api/empresas/", ts.supervisorToken, map[string]interface{}{
		"cnpj":         "11.222.333/0001-81",
		"razao_social": "Outra",
		"rua":          "Rua Y",
		"numero":       20,
		"bairro":       "Centro",
	})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d: %s", http.StatusBadRequest, recorder.Code, recorder.Body.String())
	}
	var response envelope
	decode(t, recorder, &response)
	if response.Errors["cnpj"] == "" {
		t.Fatalf("expected a cnpj error, got %v", response.Errors)
	}

	companies, err := ts.store.ListCompanies(context.Background(), store.CompanyFilter{})
	if err != nil {
		t.Fatalf("failed to list companies: %v", err)
	}
	if len(companies) != 1 {
		t.Fatalf("expected 1 company, got %d", len(companies))
	}
}

func TestCompanyCRUD(t *testing.T) {
	ts := newTestServer(t)

	recorder := ts.doJSON(http.MethodPost, "/api/empresas/", ts.supervisorToken, map[string]interface{}{
		"cnpj":         "45.723.174/0001-10",
		"razao_social": "Beta Ltda",
		"rua":          "Rua Z",
		"numero":       5,
		"bairro":       "Norte",
		"estado":       "sp",
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, recorder.Code, recorder.Body.String())
	}
	var created envelope
	decode(t, recorder, &created)
	var company model.Company
	if err := json.Unmarshal(created.Data, &company); err != nil {
		t.Fatalf("failed to decode company: %v", err)
	}
	if company.CNPJ != "45723174000110" {
		t.Fatalf("expected normalized cnpj, got %q", company.CNPJ)
	}

	recorder = ts.doJSON(http.MethodPatch, "/api/empresas/"+company.ID.String()+"/", ts.supervisorToken, map[string]interface{}{
		"numero": 0,
	})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, recorder.Code)
	}

	recorder = ts.doJSON(http.MethodDelete, "/api/empresas/"+ts.company.ID.String()+"/", ts.supervisorToken, nil)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected conflict status %d, got %d", http.StatusBadRequest, recorder.Code)
	}

	recorder = ts.doJSON(http.MethodDelete, "/api/empresas/"+company.ID.String()+"/", ts.supervisorToken, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}

	recorder = ts.doJSON(http.MethodGet, "/api/empresas/"+company.ID.String()+"/", ts.supervisorToken, nil)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, recorder.Code)
	}
}

func TestRoleGuardRedirectsAnonymous(t *testing.T) {
	ts := newTestServer(t)

	recorder := ts.do(httptest.NewRequest(http.MethodGet, "/estagio/aluno/documentos/", nil), "")

	if recorder.Code != http.StatusFound {
		t.Fatalf("expected status %d, got %d", http.StatusFound, recorder.Code)
	}
	location := recorder.Header().Get("Location")
	if location != "/login/?next=%2Festagio%2Faluno%2Fdocumentos%2F" {
		t.Fatalf("unexpected redirect %q", location)
	}
}

func TestRoleGuardDeniesOtherRoles(t *testing.T) {
	ts := newTestServer(t)

	recorder := ts.do(httptest.NewRequest(http.MethodGet, "/estagio/aluno/documentos/", nil), ts.supervisorToken)

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, recorder.Code)
	}
	var response deniedResponse
	decode(t, recorder, &response)
	if response.Error != "Acesso restrito a estudantes." {
		t.Fatalf("unexpected message %q", response.Error)
	}
	if response.Redirect != "/" {
		t.Fatalf("unexpected redirect %q", response.Redirect)
	}
}

func TestDocumentReviewNotifiesStudent(t *testing.T) {
	ts := newTestServer(t)

	recorder := ts.upload("/estagio/aluno/documentos/", ts.studentToken)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, recorder.Code, recorder.Body.String())
	}
	var created envelope
	decode(t, recorder, &created)
	var doc model.Document
	if err := json.Unmarshal(created.Data, &doc); err != nil {
		t.Fatalf("failed to decode document: %v", err)
	}

	recorder = ts.doJSON(http.MethodPost, "/estagio/supervisor/documentos/"+doc.ID.String()+"/reprovar/", ts.supervisorToken, map[string]string{
		"observacoes": "ajustar anexo",
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, recorder.Code, recorder.Body.String())
	}

	recorder = ts.doJSON(http.MethodPost, "/estagio/supervisor/documentos/"+doc.ID.String()+"/ajustes/", ts.supervisorToken, map[string]string{
		"prazo_limite": "2025-13-45",
	})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, recorder.Code)
	}

	recorder = ts.doJSON(http.MethodGet, "/notificacoes/", ts.studentToken, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}
	var inbox notificationsResponse
	decode(t, recorder, &inbox)
	if inbox.Count != 1 {
		t.Fatalf("expected 1 notification, got %d", inbox.Count)
	}

	recorder = ts.doJSON(http.MethodPost, "/notificacoes/"+inbox.Notificacoes[0].ID.String()+"/lida/", ts.studentToken, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}
	recorder = ts.doJSON(http.MethodGet, "/notificacoes/?nao_lidas=true", ts.studentToken, nil)
	decode(t, recorder, &inbox)
	if inbox.Count != 0 {
		t.Fatalf("expected no unread notifications, got %d", inbox.Count)
	}

	recorder = ts.do(httptest.NewRequest(http.MethodGet, "/estagio/documentos/"+doc.ID.String()+"/arquivo/", nil), ts.studentToken)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}
	if !bytes.Equal(recorder.Body.Bytes(), pdf) {
		t.Fatalf("downloaded file differs from the upload")
	}
}

func TestLoginIssuesUsableToken(t *testing.T) {
	ts := newTestServer(t)
	if err := ts.services.Accounts.EnsureAdmin(context.Background(), "admin@ufx.br", "s3cret-pass"); err != nil {
		t.Fatalf("failed to create admin: %v", err)
	}

	recorder := ts.doJSON(http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "admin@ufx.br",
		"password": "wrong-pass",
	})
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, recorder.Code)
	}

	recorder = ts.doJSON(http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "admin@ufx.br",
		"password": "s3cret-pass",
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, recorder.Code, recorder.Body.String())
	}
	var response envelope
	decode(t, recorder, &response)
	var login struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(response.Data, &login); err != nil || login.Token == "" {
		t.Fatalf("expected a token, got %s", response.Data)
	}

	recorder = ts.doJSON(http.MethodPost, "/estagio/admin/instituicoes/", login.Token, map[string]string{
		"nome": "Instituto Y",
		"cep":  "01001-000",
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, recorder.Code, recorder.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/empresas/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	recorder := ts.do(req, "")

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, recorder.Code)
	}
	if got := recorder.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected any origin to be allowed, got %q", got)
	}
}
