// Package memory is an in-process implementation of store.Store used for
// local development and as the test double for the services.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/estagio/estagio/pkg/apperr"
	"github.com/estagio/estagio/pkg/model"
	"github.com/estagio/estagio/pkg/store"
)

type table[T any] struct {
	rows  map[uuid.UUID]T
	order []uuid.UUID
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[uuid.UUID]T)}
}

func (t *table[T]) put(id uuid.UUID, row T) {
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	t.rows[id] = row
}

func (t *table[T]) get(id uuid.UUID) (T, bool) {
	row, ok := t.rows[id]
	return row, ok
}

func (t *table[T]) delete(id uuid.UUID) {
	if _, ok := t.rows[id]; !ok {
		return
	}
	delete(t.rows, id)
	for i, existing := range t.order {
		if existing == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// all returns rows in insertion order.
func (t *table[T]) all() []T {
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.rows[id])
	}
	return out
}

type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	accounts      *table[model.Account]
	institutions  *table[model.Institution]
	students      *table[model.Student]
	coordinators  *table[model.Coordinator]
	companies     *table[model.Company]
	supervisors   *table[model.Supervisor]
	internships   *table[model.Internship]
	documents     *table[model.Document]
	reviews       *table[model.DocumentReview]
	history       *table[model.DocumentHistory]
	notifications *table[model.Notification]
	hours         *table[model.HoursLog]
	notifyKeys    map[string]uuid.UUID
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		now:           time.Now,
		accounts:      newTable[model.Account](),
		institutions:  newTable[model.Institution](),
		students:      newTable[model.Student](),
		coordinators:  newTable[model.Coordinator](),
		companies:     newTable[model.Company](),
		supervisors:   newTable[model.Supervisor](),
		internships:   newTable[model.Internship](),
		documents:     newTable[model.Document](),
		reviews:       newTable[model.DocumentReview](),
		history:       newTable[model.DocumentHistory](),
		notifications: newTable[model.Notification](),
		hours:         newTable[model.HoursLog](),
		notifyKeys:    make(map[string]uuid.UUID),
	}
}

func (s *Store) Close() error {
	return nil
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (s *Store) stamp(created, updated *time.Time) {
	now := s.now().UTC()
	if created != nil && created.IsZero() {
		*created = now
	}
	if updated != nil {
		*updated = now
	}
}

// Accounts

func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts.get(id)
	if !ok {
		return nil, apperr.NotFound("account", id)
	}
	return &account, nil
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, account := range s.accounts.all() {
		if strings.EqualFold(account.Email, email) {
			a := account
			return &a, nil
		}
	}
	return nil, apperr.NotFound("account", email)
}

func (s *Store) EmailTaken(ctx context.Context, email string, exclude *uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emailTakenLocked(email, exclude), nil
}

func (s *Store) emailTakenLocked(email string, exclude *uuid.UUID) bool {
	for _, account := range s.accounts.all() {
		if exclude != nil && account.ID == *exclude {
			continue
		}
		if strings.EqualFold(account.Email, email) {
			return true
		}
	}
	return false
}

func (s *Store) CreateAccount(ctx context.Context, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertAccountLocked(account)
}

func (s *Store) insertAccountLocked(account *model.Account) error {
	if s.emailTakenLocked(account.Email, nil) {
		return fmt.Errorf("duplicate account email %q", account.Email)
	}
	ensureID(&account.ID)
	s.stamp(&account.CreatedAt, &account.UpdatedAt)
	s.accounts.put(account.ID, *account)
	return nil
}

// Profiles

func (s *Store) StudentByAccount(ctx context.Context, accountID uuid.UUID) (*model.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, student := range s.students.all() {
		if student.AccountID == accountID {
			st := student
			return &st, nil
		}
	}
	return nil, apperr.NotFound("estudante", accountID)
}

func (s *Store) SupervisorByAccount(ctx context.Context, accountID uuid.UUID) (*model.Supervisor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, supervisor := range s.supervisors.all() {
		if supervisor.AccountID == accountID {
			sup := supervisor
			return &sup, nil
		}
	}
	return nil, apperr.NotFound("supervisor", accountID)
}

func (s *Store) CoordinatorByAccount(ctx context.Context, accountID uuid.UUID) (*model.Coordinator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, coordinator := range s.coordinators.all() {
		if coordinator.AccountID == accountID {
			c := coordinator
			return &c, nil
		}
	}
	return nil, apperr.NotFound("coordenador", accountID)
}

func (s *Store) GetStudent(ctx context.Context, id uuid.UUID) (*model.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	student, ok := s.students.get(id)
	if !ok {
		return nil, apperr.NotFound("estudante", id)
	}
	return &student, nil
}

func (s *Store) StudentByInternship(ctx context.Context, internshipID uuid.UUID) (*model.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, student := range s.students.all() {
		if student.EstagioID != nil && *student.EstagioID == internshipID {
			st := student
			return &st, nil
		}
	}
	return nil, apperr.NotFound("estudante do estagio", internshipID)
}

func (s *Store) MatriculaTaken(ctx context.Context, matricula string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, student := range s.students.all() {
		if student.Matricula == matricula {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CoordinatorForInstitution(ctx context.Context, institutionID uuid.UUID) (*model.Coordinator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, coordinator := range s.coordinators.all() {
		if coordinator.InstituicaoID == institutionID {
			c := coordinator
			return &c, nil
		}
	}
	return nil, apperr.NotFound("coordenador da instituicao", institutionID)
}

func (s *Store) GetCoordinator(ctx context.Context, id uuid.UUID) (*model.Coordinator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	coordinator, ok := s.coordinators.get(id)
	if !ok {
		return nil, apperr.NotFound("coordenador", id)
	}
	return &coordinator, nil
}

func (s *Store) CreateInstitution(ctx context.Context, institution *model.Institution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&institution.ID)
	s.stamp(&institution.CreatedAt, &institution.UpdatedAt)
	s.institutions.put(institution.ID, *institution)
	return nil
}

func (s *Store) GetInstitution(ctx context.Context, id uuid.UUID) (*model.Institution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	institution, ok := s.institutions.get(id)
	if !ok {
		return nil, apperr.NotFound("instituicao", id)
	}
	return &institution, nil
}

func (s *Store) CreateStudent(ctx context.Context, account *model.Account, student *model.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.students.all() {
		if existing.Matricula == student.Matricula {
			return fmt.Errorf("duplicate matricula %q", student.Matricula)
		}
	}
	if err := s.insertAccountLocked(account); err != nil {
		return err
	}
	ensureID(&student.ID)
	student.AccountID = account.ID
	s.stamp(&student.CreatedAt, &student.UpdatedAt)
	s.students.put(student.ID, *student)
	return nil
}

func (s *Store) CreateCoordinator(ctx context.Context, account *model.Account, coordinator *model.Coordinator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.insertAccountLocked(account); err != nil {
		return err
	}
	ensureID(&coordinator.ID)
	coordinator.AccountID = account.ID
	s.stamp(&coordinator.CreatedAt, &coordinator.UpdatedAt)
	s.coordinators.put(coordinator.ID, *coordinator)
	return nil
}
