package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/estagio/estagio/pkg/apperr"
	"github.com/estagio/estagio/pkg/auth"
	"github.com/estagio/estagio/pkg/model"
	"github.com/estagio/estagio/pkg/store"
	"github.com/estagio/estagio/pkg/store/memory"
)

func acme() CompanyInput {
	return CompanyInput{
		CNPJ:        "12345678901234",
		RazaoSocial: "Acme",
		Rua:         "Rua X",
		Numero:      10,
		Bairro:      "Centro",
	}
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *apperr.ValidationError
	require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
	return verr.Fields
}

func TestCheckCNPJ(t *testing.T) {
	for d := '0'; d <= '9'; d++ {
		digits := ""
		for i := 0; i < 14; i++ {
			digits += string(d)
		}
		assert.NotEmpty(t, CheckCNPJ(digits), "identical digits %s", digits)
	}
	assert.NotEmpty(t, CheckCNPJ("123"))
	assert.Empty(t, CheckCNPJ("12345678901234"))
	assert.Equal(t, "11222333000181", NormalizeCNPJ("11.222.333/0001-81"))
}

func TestCreateCompanyDuplicateCNPJ(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	svc := NewCompanyService(st, zap.NewNop())

	_, err := svc.Create(ctx, acme())
	require.NoError(t, err)

	_, err = svc.Create(ctx, acme())
	assert.Contains(t, fieldErrors(t, err), "cnpj")

	companies, err := svc.List(ctx, store.CompanyFilter{})
	require.NoError(t, err)
	assert.Len(t, companies, 1)
}

func TestCreateCompanyValidation(t *testing.T) {
	svc := NewCompanyService(memory.New(), zap.NewNop())
	_, err := svc.Create(context.Background(), CompanyInput{
		CNPJ:        "00000000000000",
		RazaoSocial: "   ",
		Rua:         "",
		Numero:      0,
		Bairro:      " ",
	})
	fields := fieldErrors(t, err)
	for _, field := range []string{"cnpj", "razao_social", "rua", "numero", "bairro"} {
		assert.Contains(t, fields, field)
	}
}

func TestPatchCompanyRevalidatesMergedEntity(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	svc := NewCompanyService(st, zap.NewNop())

	company, err := svc.Create(ctx, acme())
	require.NoError(t, err)
	other := acme()
	other.CNPJ = "11.222.333/0001-81"
	_, err = svc.Create(ctx, other)
	require.NoError(t, err)

	name := "Acme Ltda"
	patched, err := svc.Patch(ctx, company.ID, CompanyPatch{RazaoSocial: &name})
	require.NoError(t, err)
	assert.Equal(t, "Acme Ltda", patched.RazaoSocial)
	assert.Equal(t, "12345678901234", patched.CNPJ)

	taken := "11222333000181"
	_, err = svc.Patch(ctx, company.ID, CompanyPatch{CNPJ: &taken})
	assert.Contains(t, fieldErrors(t, err), "cnpj")

	zero := 0
	_, err = svc.Patch(ctx, company.ID, CompanyPatch{Numero: &zero})
	assert.Contains(t, fieldErrors(t, err), "numero")
}

func newSupervisorInput(companyID uuid.UUID, email string) SupervisorInput {
	return SupervisorInput{
		Nome:      "Carla",
		Cargo:     "Tech lead",
		Email:     email,
		EmpresaID: companyID,
		Password:  "segredo123",
	}
}

func TestSupervisorLifecycle(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	companies := NewCompanyService(st, zap.NewNop())
	supervisors := NewSupervisorService(st, zap.NewNop())

	company, err := companies.Create(ctx, acme())
	require.NoError(t, err)

	sup, err := supervisors.Create(ctx, newSupervisorInput(company.ID, "Carla@Acme.com"))
	require.NoError(t, err)
	assert.Equal(t, "carla@acme.com", sup.Email)
	require.NotNil(t, sup.Empresa)

	account, err := st.GetAccount(ctx, sup.AccountID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleSupervisor, account.Role)
	assert.True(t, auth.CheckPassword(account.PasswordHash, "segredo123"))

	_, err = supervisors.Create(ctx, newSupervisorInput(company.ID, "carla@acme.com"))
	assert.Contains(t, fieldErrors(t, err), "email")

	err = companies.Delete(ctx, company.ID)
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	list, err := supervisors.ByCompany(ctx, company.ID.String())
	require.NoError(t, err)
	assert.Len(t, list, 1)

	internship := &model.Internship{Titulo: "Backend", EmpresaID: company.ID, SupervisorID: sup.ID}
	require.NoError(t, st.CreateInternship(ctx, internship))
	err = supervisors.Delete(ctx, sup.ID)
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	internships, err := supervisors.Internships(ctx, sup.ID)
	require.NoError(t, err)
	assert.Len(t, internships, 1)

	stats, err := companies.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalEmpresas)
	assert.Equal(t, int64(1), stats.TotalSupervisores)
	assert.Equal(t, int64(1), stats.EmpresasComSupervisores)
}

func TestSupervisorCreateValidatesBeforePersisting(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	supervisors := NewSupervisorService(st, zap.NewNop())

	in := newSupervisorInput(uuid.New(), "nao-e-email")
	in.Password = "curta"
	_, err := supervisors.Create(ctx, in)
	fields := fieldErrors(t, err)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "empresa_id")
	assert.Contains(t, fields, "password")

	taken, err := st.EmailTaken(ctx, "nao-e-email", nil)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestSupervisorDeleteRemovesAccount(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	company, err := NewCompanyService(st, zap.NewNop()).Create(ctx, acme())
	require.NoError(t, err)
	supervisors := NewSupervisorService(st, zap.NewNop())

	sup, err := supervisors.Create(ctx, newSupervisorInput(company.ID, "carla@acme.com"))
	require.NoError(t, err)

	email := "carla.souza@acme.com"
	updated, err := supervisors.Patch(ctx, sup.ID, SupervisorPatch{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, email, updated.Email)
	account, err := st.GetAccount(ctx, sup.AccountID)
	require.NoError(t, err)
	assert.Equal(t, email, account.Email)

	require.NoError(t, supervisors.Delete(ctx, sup.ID))
	_, err = st.GetAccount(ctx, sup.AccountID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	_, err = supervisors.ByCompany(ctx, "")
	assert.Contains(t, fieldErrors(t, err), "empresa_id")
}
