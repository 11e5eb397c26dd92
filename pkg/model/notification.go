package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification records a message sent to a contact. (Destinatario,
// Referencia) is unique so a reference is delivered at most once.
type Notification struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Destinatario string    `gorm:"not null;uniqueIndex:idx_notificacao_referencia" json:"destinatario"`
	Assunto      string    `gorm:"not null" json:"assunto"`
	Mensagem     string    `gorm:"type:text" json:"mensagem"`
	Referencia   string    `gorm:"not null;uniqueIndex:idx_notificacao_referencia" json:"referencia"`
	Lida         bool      `gorm:"default:false" json:"lida"`
	DataEnvio    time.Time `gorm:"not null;index" json:"data_envio"`
}

func (Notification) TableName() string {
	return "notificacoes"
}
