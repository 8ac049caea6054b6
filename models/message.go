package models

import "time"

/************************************************
/**** MARK: MODERATION OUTCOMES ****/
/************************************************/
const MODERATION_SAFE = "safe"
const MODERATION_SELF_HARM = "self_harm"
const MODERATION_VIOLENCE = "violence"
const MODERATION_HATE = "hate"
const MODERATION_SEXUAL = "sexual"

// Message é uma mensagem aceita em um grupo. Imutável depois de inserida,
// exceto o flag Visible: mensagens barradas pelo safety screen ficam
// guardadas (auditoria) mas invisíveis na entrega normal.
// Assistant=true marca mensagens do assistente (SenderID aponta para a
// identidade seedada).
type Message struct {
	ID         int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	GroupID    int64      `gorm:"not null;index" json:"group_id"`
	SenderID   int64      `gorm:"not null;default:0;index" json:"sender_id"`
	Assistant  bool       `gorm:"not null;default:false" json:"assistant"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	Visible    bool       `gorm:"not null;default:true" json:"visible"`
	Moderation string     `gorm:"not null;default:'safe'" json:"moderation"`
	CreatedAt  *time.Time `json:"created_at"`
}
