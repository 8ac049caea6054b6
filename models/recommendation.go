package models

import "time"

/************************************************
/**** MARK: MATCH DECISIONS ****/
/************************************************/
const MATCH_DECISION_EXISTING_GROUP = "existing_group"
const MATCH_DECISION_NEW_GROUP = "new_group"
const MATCH_DECISION_NO_GROUPS = "no_groups_configured"

// MatchRecommendation é o resultado do matcher para uma submissão.
// Criada uma vez, imutável; o reviewer pode reler quantas vezes quiser,
// mas o workflow consome a decisão exatamente uma vez.
// Candidates é a lista ranqueada [(group_id, similarity)] em JSON.
type MatchRecommendation struct {
	ID            int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	SubmissionID  int64      `gorm:"not null;unique_index" json:"submission_id"`
	Decision      string     `gorm:"not null" json:"decision"`
	TargetGroupID int64      `gorm:"not null;default:0" json:"target_group_id"`
	Score         float64    `gorm:"not null;default:0" json:"score"`
	Threshold     float64    `gorm:"not null;default:0" json:"threshold"`
	Candidates    string     `gorm:"type:text" json:"candidates"`
	Reason        string     `gorm:"not null;default:''" json:"reason"`
	CreatedAt     *time.Time `json:"created_at"`
}
