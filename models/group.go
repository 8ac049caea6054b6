package models

import "time"

// GroupProfile é um grupo de apoio com seu perfil agregado.
// Centroid é o vetor agregado dos membros (JSON array, normalizado L2) e é
// recomputado a cada mudança de membership. AvgSim é a similaridade média
// membro<->centroide, usada na regra de leniência do matcher.
// Private marca o canal 1:1 participante+assistente: sempre dois membros e
// nunca aparece como candidato de matching.
type GroupProfile struct {
	ID          int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Name        string     `gorm:"not null" json:"name"`
	ReviewerID  int64      `gorm:"not null;index" json:"reviewer_id"`
	Centroid    string     `gorm:"type:text" json:"-"`
	MemberCount int        `gorm:"not null;default:0" json:"member_count"`
	AvgSim      float64    `gorm:"not null;default:0" json:"avg_sim"`
	Active      bool       `gorm:"not null;default:true" json:"active"`
	Private     bool       `gorm:"not null;default:false" json:"private"`
	CreatedAt   *time.Time `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

// GroupMember liga usuários a grupos.
type GroupMember struct {
	ID        int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	GroupID   int64      `gorm:"not null;index" json:"group_id"`
	UserID    int64      `gorm:"not null;index" json:"user_id"`
	Active    bool       `gorm:"not null;default:true" json:"active"`
	CreatedAt *time.Time `json:"created_at"`
}
