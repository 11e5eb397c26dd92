package model

import (
	"time"

	"github.com/google/uuid"
)

type Institution struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Nome      string    `gorm:"not null" json:"nome"`
	Email     string    `json:"email"`
	Telefone  string    `json:"telefone"`
	Rua       string    `json:"rua"`
	Numero    int       `json:"numero"`
	Bairro    string    `json:"bairro"`
	Cidade    string    `json:"cidade"`
	Estado    string    `gorm:"type:varchar(2)" json:"estado"`
	CEP       string    `gorm:"type:varchar(8)" json:"cep"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Institution) TableName() string {
	return "instituicoes"
}

type Coordinator struct {
	ID            uuid.UUID    `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	AccountID     uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex" json:"account_id"`
	Account       *Account     `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"-"`
	Nome          string       `gorm:"not null" json:"nome"`
	NomeCurso     string       `json:"nome_curso"`
	CodigoCurso   string       `json:"codigo_curso"`
	Email         string       `json:"email"`
	Telefone      string       `json:"telefone"`
	InstituicaoID uuid.UUID    `gorm:"type:uuid;not null;index" json:"instituicao_id"`
	Instituicao   *Institution `gorm:"foreignKey:InstituicaoID" json:"-"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

func (Coordinator) TableName() string {
	return "coordenadores"
}

type Student struct {
	ID            uuid.UUID    `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	AccountID     uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex" json:"account_id"`
	Account       *Account     `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"-"`
	Nome          string       `gorm:"not null" json:"nome"`
	Matricula     string       `gorm:"uniqueIndex;not null" json:"matricula"`
	Email         string       `json:"email"`
	Telefone      string       `json:"telefone"`
	InstituicaoID uuid.UUID    `gorm:"type:uuid;not null;index" json:"instituicao_id"`
	Instituicao   *Institution `gorm:"foreignKey:InstituicaoID" json:"-"`
	EstagioID     *uuid.UUID   `gorm:"type:uuid;index" json:"estagio_id,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

func (Student) TableName() string {
	return "estudantes"
}
