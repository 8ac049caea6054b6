package models

import "time"

/************************************************
/**** MARK: USER ROLES ****/
/************************************************/
const USER_ROLE_PARTICIPANT = 0
const USER_ROLE_REVIEWER = 1
const USER_ROLE_ASSISTANT = 2

/************************************************
/**** MARK: USER STATUS ****/
/************************************************/
const USER_STATUS_AVAILABLE = 0
const USER_STATUS_PENDING = 1
const USER_STATUS_BLOCKED = 2

// User representa uma identidade no sistema.
// Autenticação e perfil completo ficam fora deste core (colaborador externo);
// aqui só o mínimo para foreign keys e para a identidade do assistente.
type User struct {
	ID        int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Name      string     `gorm:"not null" json:"name" form:"name"`
	Email     string     `gorm:"not null;unique" json:"email" form:"email"`
	Role      int        `gorm:"not null;default:0" json:"role" form:"role"`
	Status    int        `gorm:"default:0" json:"status" form:"status"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}
