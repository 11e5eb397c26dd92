package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/estagio/estagio/pkg/model"
)

// Lookups return an apperr.ErrNotFound error when the row does not exist.

type AccountStore interface {
	GetAccount(ctx context.Context, id uuid.UUID) (*model.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)
	// EmailTaken reports whether another account uses email.
	EmailTaken(ctx context.Context, email string, exclude *uuid.UUID) (bool, error)
	CreateAccount(ctx context.Context, account *model.Account) error
}

type ProfileStore interface {
	StudentByAccount(ctx context.Context, accountID uuid.UUID) (*model.Student, error)
	SupervisorByAccount(ctx context.Context, accountID uuid.UUID) (*model.Supervisor, error)
	CoordinatorByAccount(ctx context.Context, accountID uuid.UUID) (*model.Coordinator, error)

	GetStudent(ctx context.Context, id uuid.UUID) (*model.Student, error)
	StudentByInternship(ctx context.Context, internshipID uuid.UUID) (*model.Student, error)
	MatriculaTaken(ctx context.Context, matricula string) (bool, error)
	CoordinatorForInstitution(ctx context.Context, institutionID uuid.UUID) (*model.Coordinator, error)
	GetCoordinator(ctx context.Context, id uuid.UUID) (*model.Coordinator, error)

	CreateInstitution(ctx context.Context, institution *model.Institution) error
	GetInstitution(ctx context.Context, id uuid.UUID) (*model.Institution, error)
	// CreateStudent and CreateCoordinator persist the account and its profile
	// in one transaction.
	CreateStudent(ctx context.Context, account *model.Account, student *model.Student) error
	CreateCoordinator(ctx context.Context, account *model.Account, coordinator *model.Coordinator) error
}

type CompanyFilter struct {
	Search string
	Estado string
}

type CompanyStats struct {
	TotalEmpresas           int64            `json:"total_empresas"`
	EmpresasComSupervisores int64            `json:"empresas_com_supervisores"`
	TotalSupervisores       int64            `json:"total_supervisores"`
	PorEstado               map[string]int64 `json:"por_estado"`
}

type CompanyStore interface {
	CreateCompany(ctx context.Context, company *model.Company) error
	UpdateCompany(ctx context.Context, company *model.Company) error
	GetCompany(ctx context.Context, id uuid.UUID) (*model.Company, error)
	ListCompanies(ctx context.Context, filter CompanyFilter) ([]model.Company, error)
	CNPJTaken(ctx context.Context, cnpj string, exclude *uuid.UUID) (bool, error)
	CountSupervisorsByCompany(ctx context.Context, companyID uuid.UUID) (int64, error)
	DeleteCompany(ctx context.Context, id uuid.UUID) error
	CompanyStats(ctx context.Context) (*CompanyStats, error)
}

type SupervisorFilter struct {
	EmpresaID *uuid.UUID
	Search    string
}

type SupervisorStore interface {
	// CreateSupervisor persists the account and the supervisor in one
	// transaction.
	CreateSupervisor(ctx context.Context, account *model.Account, supervisor *model.Supervisor) error
	UpdateSupervisor(ctx context.Context, supervisor *model.Supervisor) error
	GetSupervisor(ctx context.Context, id uuid.UUID) (*model.Supervisor, error)
	ListSupervisors(ctx context.Context, filter SupervisorFilter) ([]model.Supervisor, error)
	CountInternshipsBySupervisor(ctx context.Context, supervisorID uuid.UUID) (int64, error)
	// DeleteSupervisor removes the supervisor together with its account.
	DeleteSupervisor(ctx context.Context, id uuid.UUID) error
}

type InternshipFilter struct {
	SupervisorID *uuid.UUID
	EmpresaID    *uuid.UUID
	StatusVaga   model.VacancyStatus
	Status       model.InternshipStatus
}

type InternshipStore interface {
	CreateInternship(ctx context.Context, internship *model.Internship) error
	GetInternship(ctx context.Context, id uuid.UUID) (*model.Internship, error)
	ListInternships(ctx context.Context, filter InternshipFilter) ([]model.Internship, error)
	UpdateInternship(ctx context.Context, internship *model.Internship) error
	// AssignStudent saves the internship and links the student to it in one
	// transaction.
	AssignStudent(ctx context.Context, internship *model.Internship, studentID uuid.UUID) error
}

type DocumentFilter struct {
	EstagioID     *uuid.UUID
	SupervisorID  *uuid.UUID
	CoordenadorID *uuid.UUID
	Statuses      []model.DocumentStatus
}

type DocumentStore interface {
	// CreateDocument inserts the document and its first history row.
	CreateDocument(ctx context.Context, doc *model.Document, entry *model.DocumentHistory) error
	GetDocument(ctx context.Context, id uuid.UUID) (*model.Document, error)
	ListDocuments(ctx context.Context, filter DocumentFilter) ([]model.Document, error)
	// ApplyReview saves the reviewed document's status, deadline and remarks
	// together with the audit snapshot and history entry. The stored document
	// must still be reviewable, otherwise apperr.ErrConflict is returned and
	// nothing is written.
	ApplyReview(ctx context.Context, doc *model.Document, review *model.DocumentReview, entry *model.DocumentHistory) error
	// UpdateStatus saves doc.Status and appends entry when the stored status is
	// still from; otherwise it returns apperr.ErrConflict.
	UpdateStatus(ctx context.Context, doc *model.Document, from model.DocumentStatus, entry *model.DocumentHistory) error
	// Supersede inserts next and marks previous as superseded. Both history
	// entries are appended in the same transaction.
	Supersede(ctx context.Context, previous, next *model.Document, previousEntry, nextEntry *model.DocumentHistory) error
	ListHistory(ctx context.Context, documentID uuid.UUID) ([]model.DocumentHistory, error)
	ListReviews(ctx context.Context, documentID uuid.UUID) ([]model.DocumentReview, error)
	// ListWithDeadline returns documents whose deadline falls in [from, to]
	// and whose status is not excluded.
	ListWithDeadline(ctx context.Context, from, to time.Time, excluded []model.DocumentStatus) ([]model.Document, error)
}

type NotificationStore interface {
	NotificationExists(ctx context.Context, destinatario, referencia string) (bool, error)
	// CreateNotification inserts n unless (destinatario, referencia) already
	// exists, in which case it returns false and leaves the table unchanged.
	CreateNotification(ctx context.Context, n *model.Notification) (bool, error)
	ListNotifications(ctx context.Context, destinatario string, unreadOnly bool, limit int) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, destinatario string, id uuid.UUID) error
}

type HoursStore interface {
	CreateHoursLog(ctx context.Context, entry *model.HoursLog) error
	ListHoursLogs(ctx context.Context, studentID uuid.UUID) ([]model.HoursLog, error)
	SumHours(ctx context.Context, studentID uuid.UUID) (float64, error)
}

// Store is the full persistence surface. Both the postgres and the memory
// implementations satisfy it.
type Store interface {
	AccountStore
	ProfileStore
	CompanyStore
	SupervisorStore
	InternshipStore
	DocumentStore
	NotificationStore
	HoursStore
	Close() error
}
