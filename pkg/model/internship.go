package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type InternshipStatus string

const (
	InternshipAnalise     InternshipStatus = "analise"
	InternshipAprovado    InternshipStatus = "aprovado"
	InternshipReprovado   InternshipStatus = "reprovado"
	InternshipEmAndamento InternshipStatus = "em_andamento"
)

type VacancyStatus string

const (
	VacancyDisponivel VacancyStatus = "disponivel"
	VacancyOcupada    VacancyStatus = "ocupada"
	VacancyEncerrada  VacancyStatus = "encerrada"
)

type Internship struct {
	ID                     uuid.UUID        `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Titulo                 string           `gorm:"not null" json:"titulo"`
	Funcao                 string           `json:"funcao"`
	DataInicio             time.Time        `gorm:"type:date;not null" json:"data_inicio"`
	DataFim                time.Time        `gorm:"type:date;not null" json:"data_fim"`
	CargaHorariaSemanal    int              `gorm:"not null" json:"carga_horaria_semanal"`
	Atividades             pq.StringArray   `gorm:"type:text[]" json:"atividades"`
	EmpresaID              uuid.UUID        `gorm:"type:uuid;not null;index" json:"empresa_id"`
	Empresa                *Company         `gorm:"foreignKey:EmpresaID" json:"-"`
	SupervisorID           uuid.UUID        `gorm:"type:uuid;not null;index" json:"supervisor_id"`
	Supervisor             *Supervisor      `gorm:"foreignKey:SupervisorID;constraint:OnDelete:RESTRICT" json:"-"`
	Status                 InternshipStatus `gorm:"type:varchar(20);default:'analise';index" json:"status"`
	StatusVaga             VacancyStatus    `gorm:"type:varchar(20);default:'disponivel';index" json:"status_vaga"`
	EstudanteSolicitanteID *uuid.UUID       `gorm:"type:uuid" json:"estudante_solicitante_id,omitempty"`
	DataSolicitacao        *time.Time       `json:"data_solicitacao,omitempty"`
	Parecer                string           `gorm:"type:text" json:"parecer,omitempty"`
	CreatedAt              time.Time        `json:"created_at"`
	UpdatedAt              time.Time        `json:"updated_at"`
}

func (Internship) TableName() string {
	return "estagios"
}

type HoursLog struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	EstudanteID uuid.UUID `gorm:"type:uuid;not null;index" json:"estudante_id"`
	Data        time.Time `gorm:"type:date;not null" json:"data"`
	Quantidade  float64   `gorm:"not null" json:"quantidade"`
	Descricao   string    `gorm:"type:text" json:"descricao"`
	CreatedAt   time.Time `json:"created_at"`
}

func (HoursLog) TableName() string {
	return "registros_horas"
}
