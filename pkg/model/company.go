package model

import (
	"time"

	"github.com/google/uuid"
)

type Company struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CNPJ         string    `gorm:"type:varchar(14);uniqueIndex;not null" json:"cnpj"`
	RazaoSocial  string    `gorm:"not null" json:"razao_social"`
	NomeFantasia string    `json:"nome_fantasia"`
	Rua          string    `gorm:"not null" json:"rua"`
	Numero       int       `gorm:"not null" json:"numero"`
	Bairro       string    `gorm:"not null" json:"bairro"`
	Cidade       string    `json:"cidade"`
	Estado       string    `gorm:"type:varchar(2)" json:"estado"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Company) TableName() string {
	return "empresas"
}

type Supervisor struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	AccountID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"account_id"`
	Account   *Account  `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"-"`
	Nome      string    `gorm:"not null" json:"nome"`
	Cargo     string    `json:"cargo"`
	Email     string    `gorm:"not null" json:"email"`
	Telefone  string    `json:"telefone"`
	EmpresaID uuid.UUID `gorm:"type:uuid;not null;index" json:"empresa_id"`
	Empresa   *Company  `gorm:"foreignKey:EmpresaID;constraint:OnDelete:RESTRICT" json:"empresa,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Supervisor) TableName() string {
	return "supervisores"
}
