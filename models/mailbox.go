package models

import "time"

/************************************************
/**** MARK: MAIL KINDS ****/
/************************************************/
const MAIL_KIND_PENDING_REVIEW = "pending_review"
const MAIL_KIND_ASSIGNMENT = "assignment"
const MAIL_KIND_ALERT = "alert"

// MailboxMessage é a notificação assíncrona entre atores: o reviewer recebe
// o aviso de submissão pendente, o participante recebe o aviso de assignment.
// FromUser=0 indica mensagem do sistema.
type MailboxMessage struct {
	ID        int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	FromUser  int64      `gorm:"not null;default:0" json:"from_user"`
	ToUser    int64      `gorm:"not null;index" json:"to_user"`
	Kind      string     `gorm:"not null" json:"kind"`
	Subject   string     `gorm:"not null;default:''" json:"subject"`
	Body      string     `gorm:"type:text" json:"body"`
	RefID     int64      `gorm:"not null;default:0" json:"ref_id"` // task ou grupo, conforme Kind
	IsRead    bool       `gorm:"not null;default:false" json:"is_read"`
	CreatedAt *time.Time `json:"created_at"`
}
