package models

import "time"

// QuestionnaireSubmission guarda as respostas do questionário de onboarding.
// Imutável depois de criada: o encoder lê, ninguém atualiza.
// Vector é um cache do feature vector (JSON array); se vazio, recomputa-se
// a partir de Answers.
type QuestionnaireSubmission struct {
	ID         int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	UserID     int64      `gorm:"not null;index" json:"user_id"`
	ReviewerID int64      `gorm:"not null;index" json:"reviewer_id"`
	Answers    string     `gorm:"type:text;not null" json:"answers"` // question key -> answer(s), JSON
	Vector     string     `gorm:"type:text" json:"-"`
	CreatedAt  *time.Time `json:"created_at"`
}
