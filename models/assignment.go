package models

import "time"

/************************************************
/**** MARK: TASK STATUS ****/
/************************************************/
const TASK_STATUS_PENDING_REVIEW = "pending_review"
const TASK_STATUS_ASSIGNED = "assigned"
const TASK_STATUS_REASSIGNED = "reassigned"

// AssignmentTask acompanha uma submissão do pending_review até a decisão do
// reviewer. A transição de pending_review acontece exatamente uma vez
// (lock otimista no workflow); assigned e reassigned são terminais.
// Override=true registra que o reviewer rejeitou a recomendação e escolheu
// outro destino (auditoria).
type AssignmentTask struct {
	ID            int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	SubmissionID  int64      `gorm:"not null;index" json:"submission_id"`
	ParticipantID int64      `gorm:"not null;index" json:"participant_id"`
	ReviewerID    int64      `gorm:"not null;index" json:"reviewer_id"`
	Status        string     `gorm:"not null;default:'pending_review';index" json:"status"`
	ChosenGroupID int64      `gorm:"not null;default:0" json:"chosen_group_id"`
	Override      bool       `gorm:"not null;default:false" json:"override"`
	ResolvedAt    *time.Time `json:"resolved_at"`
	CreatedAt     *time.Time `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at"`
}
