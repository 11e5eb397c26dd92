package model

import (
	"time"

	"github.com/google/uuid"
)

type DocumentStatus string

const (
	DocumentEnviado            DocumentStatus = "enviado"
	DocumentAjustesSolicitados DocumentStatus = "ajustes_solicitados"
	DocumentCorrigido          DocumentStatus = "corrigido"
	DocumentAprovado           DocumentStatus = "aprovado"
	DocumentReprovado          DocumentStatus = "reprovado"
	DocumentSubstituido        DocumentStatus = "substituido"
	DocumentFinalizado         DocumentStatus = "finalizado"
)

func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentEnviado, DocumentAjustesSolicitados, DocumentCorrigido, DocumentAprovado,
		DocumentReprovado, DocumentSubstituido, DocumentFinalizado:
		return true
	default:
		return false
	}
}

// Reviewable reports whether a supervisor may still decide on the document.
func (s DocumentStatus) Reviewable() bool {
	return s == DocumentEnviado || s == DocumentCorrigido
}

// Resubmittable reports whether the submitter may upload a new version.
func (s DocumentStatus) Resubmittable() bool {
	return s == DocumentAjustesSolicitados || s == DocumentReprovado
}

// Document is one version of a submitted artifact. ParentID links to the
// previous version; the chain is anchored at version 1.0.
type Document struct {
	ID                    uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	EstagioID             uuid.UUID      `gorm:"type:uuid;not null;index" json:"estagio_id"`
	Estagio               *Internship    `gorm:"foreignKey:EstagioID" json:"-"`
	SupervisorID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"supervisor_id"`
	CoordenadorID         *uuid.UUID     `gorm:"type:uuid;index" json:"coordenador_id,omitempty"`
	EnviadoPorID          *uuid.UUID     `gorm:"type:uuid" json:"enviado_por_id,omitempty"`
	EnviadoPor            *Account       `gorm:"foreignKey:EnviadoPorID" json:"-"`
	NomeArquivo           string         `gorm:"not null" json:"nome_arquivo"`
	Arquivo               string         `gorm:"not null" json:"arquivo"`
	Tipo                  string         `gorm:"type:varchar(50);not null" json:"tipo"`
	Versao                float64        `gorm:"not null;default:1" json:"versao"`
	Status                DocumentStatus `gorm:"type:varchar(30);default:'enviado';index" json:"status"`
	PrazoLimite           *time.Time     `gorm:"type:date;index" json:"prazo_limite,omitempty"`
	ObservacoesSupervisor string         `gorm:"type:text" json:"observacoes_supervisor,omitempty"`
	ParentID              *uuid.UUID     `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

func (Document) TableName() string {
	return "documentos"
}

// DocumentReview is the audit snapshot written for every supervisor decision.
// It copies the reviewed version so the decision stays readable after the
// document is superseded.
type DocumentReview struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	DocumentoID uuid.UUID      `gorm:"type:uuid;not null;index" json:"documento_id"`
	Versao      float64        `gorm:"not null" json:"versao"`
	NomeArquivo string         `gorm:"not null" json:"nome_arquivo"`
	Arquivo     string         `gorm:"not null" json:"arquivo"`
	Tipo        string         `gorm:"type:varchar(50);not null" json:"tipo"`
	Resultado   DocumentStatus `gorm:"type:varchar(30);not null" json:"resultado"`
	RevisorID   uuid.UUID      `gorm:"type:uuid;not null" json:"revisor_id"`
	Observacoes string         `gorm:"type:text" json:"observacoes,omitempty"`
	PrazoLimite *time.Time     `gorm:"type:date" json:"prazo_limite,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (DocumentReview) TableName() string {
	return "documento_revisoes"
}

// DocumentHistory is append-only; rows are never updated or deleted.
type DocumentHistory struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	DocumentoID uuid.UUID      `gorm:"type:uuid;not null;index" json:"documento_id"`
	Acao        DocumentStatus `gorm:"type:varchar(30);not null" json:"acao"`
	UsuarioID   uuid.UUID      `gorm:"type:uuid;not null" json:"usuario_id"`
	Observacoes string         `gorm:"type:text" json:"observacoes,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
}

func (DocumentHistory) TableName() string {
	return "documento_historico"
}
