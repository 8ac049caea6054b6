package models

import "time"

/************************************************
/**** MARK: JOB STATUS ****/
/************************************************/
const JOB_STATUS_PENDING = "pending"
const JOB_STATUS_PROCESSING = "processing"
const JOB_STATUS_DONE = "done"
const JOB_STATUS_FAILED = "failed"

// AssistantJob é uma resposta do assistente agendada para um canal privado.
// Entra como "pending" e é processada pelo worker após ScheduledAt
// (lock otimista pending -> processing, igual ao fluxo de eventos).
type AssistantJob struct {
	ID          int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	GroupID     int64      `gorm:"not null;index" json:"group_id"`
	MessageID   int64      `gorm:"not null;default:0" json:"message_id"`
	UserID      int64      `gorm:"not null;default:0" json:"user_id"`
	Text        string     `gorm:"type:text" json:"text"`
	Status      string     `gorm:"not null;default:'pending';index" json:"status"`
	ScheduledAt *time.Time `gorm:"index" json:"scheduled_at"`
	ProcessedAt *time.Time `json:"processed_at"`
	ReplyText   string     `gorm:"type:text" json:"reply_text"`
	CreatedAt   *time.Time `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}
