package model

import (
	"time"

	"github.com/google/uuid"
)

// Role tags an Account with the profile variant it owns.
type Role string

const (
	RoleStudent     Role = "aluno"
	RoleSupervisor  Role = "supervisor"
	RoleCoordinator Role = "coordenador"
	RoleAdmin       Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleSupervisor, RoleCoordinator, RoleAdmin:
		return true
	default:
		return false
	}
}

// Account is the login identity. Exactly one profile row (Student,
// Supervisor or Coordinator) points back at it, selected by Role; admins have
// no profile.
type Account struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	Nome         string    `gorm:"not null" json:"nome"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         Role      `gorm:"type:varchar(20);not null;index" json:"role"`
	Active       bool      `gorm:"default:true" json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}
