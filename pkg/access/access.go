// Package access decides whether an identity may act in a given role. Every
// check is evaluated against the store on each call; nothing is cached.
package access

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/estagio/estagio/pkg/apperr"
	"github.com/estagio/estagio/pkg/model"
)

// Identity is the caller as established by the bearer token.
type Identity struct {
	AccountID uuid.UUID
	Email     string
	Role      model.Role
}

func (i *Identity) Authenticated() bool {
	return i != nil && i.AccountID != uuid.Nil
}

type Outcome int

const (
	Allowed Outcome = iota
	LoginRequired
	Denied
)

type Decision struct {
	Outcome Outcome
	Message string
}

func (d Decision) Allowed() bool {
	return d.Outcome == Allowed
}

var deniedMessages = map[model.Role]string{
	model.RoleStudent:     "Acesso restrito a estudantes.",
	model.RoleSupervisor:  "Acesso restrito a supervisores.",
	model.RoleCoordinator: "Acesso restrito a coordenadores.",
	model.RoleAdmin:       "Acesso restrito a administradores.",
}

func allow() Decision { return Decision{Outcome: Allowed} }

func deny(role model.Role) Decision {
	return Decision{Outcome: Denied, Message: deniedMessages[role]}
}

// CheckStudent is the pure ownership rule: the identity carries the student
// role tag and the profile belongs to its account.
func CheckStudent(id *Identity, student *model.Student) Decision {
	if !id.Authenticated() {
		return Decision{Outcome: LoginRequired}
	}
	if id.Role != model.RoleStudent || student == nil || student.AccountID != id.AccountID {
		return deny(model.RoleStudent)
	}
	return allow()
}

func CheckSupervisor(id *Identity, supervisor *model.Supervisor) Decision {
	if !id.Authenticated() {
		return Decision{Outcome: LoginRequired}
	}
	if id.Role != model.RoleSupervisor || supervisor == nil || supervisor.AccountID != id.AccountID {
		return deny(model.RoleSupervisor)
	}
	return allow()
}

func CheckCoordinator(id *Identity, coordinator *model.Coordinator) Decision {
	if !id.Authenticated() {
		return Decision{Outcome: LoginRequired}
	}
	if id.Role != model.RoleCoordinator || coordinator == nil || coordinator.AccountID != id.AccountID {
		return deny(model.RoleCoordinator)
	}
	return allow()
}

func CheckAdmin(id *Identity) Decision {
	if !id.Authenticated() {
		return Decision{Outcome: LoginRequired}
	}
	if id.Role != model.RoleAdmin {
		return deny(model.RoleAdmin)
	}
	return allow()
}

type Profiles interface {
	StudentByAccount(ctx context.Context, accountID uuid.UUID) (*model.Student, error)
	SupervisorByAccount(ctx context.Context, accountID uuid.UUID) (*model.Supervisor, error)
	CoordinatorByAccount(ctx context.Context, accountID uuid.UUID) (*model.Coordinator, error)
}

// Guard resolves the linked profile and applies the pure checks.
type Guard struct {
	profiles Profiles
}

func NewGuard(profiles Profiles) *Guard {
	return &Guard{profiles: profiles}
}

// Check evaluates role access without returning the profile.
func (g *Guard) Check(ctx context.Context, id *Identity, role model.Role) (Decision, error) {
	var (
		decision Decision
		err      error
	)
	switch role {
	case model.RoleStudent:
		_, decision, err = g.student(ctx, id)
	case model.RoleSupervisor:
		_, decision, err = g.supervisor(ctx, id)
	case model.RoleCoordinator:
		_, decision, err = g.coordinator(ctx, id)
	default:
		decision = CheckAdmin(id)
	}
	return decision, err
}

// Student returns the caller's student profile or a permission error.
func (g *Guard) Student(ctx context.Context, id *Identity) (*model.Student, error) {
	student, decision, err := g.student(ctx, id)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed() {
		return nil, decisionError(decision, model.RoleStudent)
	}
	return student, nil
}

func (g *Guard) Supervisor(ctx context.Context, id *Identity) (*model.Supervisor, error) {
	supervisor, decision, err := g.supervisor(ctx, id)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed() {
		return nil, decisionError(decision, model.RoleSupervisor)
	}
	return supervisor, nil
}

func (g *Guard) Coordinator(ctx context.Context, id *Identity) (*model.Coordinator, error) {
	coordinator, decision, err := g.coordinator(ctx, id)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed() {
		return nil, decisionError(decision, model.RoleCoordinator)
	}
	return coordinator, nil
}

func (g *Guard) Admin(id *Identity) error {
	if decision := CheckAdmin(id); !decision.Allowed() {
		return decisionError(decision, model.RoleAdmin)
	}
	return nil
}

func (g *Guard) student(ctx context.Context, id *Identity) (*model.Student, Decision, error) {
	if !id.Authenticated() || id.Role != model.RoleStudent {
		return nil, CheckStudent(id, nil), nil
	}
	student, err := g.profiles.StudentByAccount(ctx, id.AccountID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, Decision{}, err
	}
	return student, CheckStudent(id, student), nil
}

func (g *Guard) supervisor(ctx context.Context, id *Identity) (*model.Supervisor, Decision, error) {
	if !id.Authenticated() || id.Role != model.RoleSupervisor {
		return nil, CheckSupervisor(id, nil), nil
	}
	supervisor, err := g.profiles.SupervisorByAccount(ctx, id.AccountID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, Decision{}, err
	}
	return supervisor, CheckSupervisor(id, supervisor), nil
}

func (g *Guard) coordinator(ctx context.Context, id *Identity) (*model.Coordinator, Decision, error) {
	if !id.Authenticated() || id.Role != model.RoleCoordinator {
		return nil, CheckCoordinator(id, nil), nil
	}
	coordinator, err := g.profiles.CoordinatorByAccount(ctx, id.AccountID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, Decision{}, err
	}
	return coordinator, CheckCoordinator(id, coordinator), nil
}

func decisionError(decision Decision, role model.Role) error {
	if decision.Outcome == LoginRequired {
		return apperr.Permission("authentication required")
	}
	return apperr.Permission("%s", deniedMessages[role])
}
