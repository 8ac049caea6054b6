package assistant

import (
	"fmt"

	"wemind/broker"
	"wemind/models"

	"github.com/jinzhu/gorm"
)

const assistantEmail = "assistant@wemind.local"

// EnsureIdentity garante a linha de usuário do assistente (seed de boot) e
// devolve o id. Idempotente.
func EnsureIdentity(db *gorm.DB, name string) (models.User, error) {
	var user models.User
	err := db.Where("role = ?", models.USER_ROLE_ASSISTANT).First(&user).Error
	if err == nil {
		return user, nil
	}
	if !gorm.IsRecordNotFoundError(err) {
		return models.User{}, err
	}

	user = models.User{
		Name:   name,
		Email:  assistantEmail,
		Role:   models.USER_ROLE_ASSISTANT,
		Status: models.USER_STATUS_AVAILABLE,
	}
	if err := db.Create(&user).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

// EnsureChannel acha-ou-cria o canal privado do participante com o
// assistente. Um por participante, reusado entre incidentes; sempre com
// exatamente dois membros e fora dos candidatos de matching (Private=true).
func (s *Service) EnsureChannel(db *gorm.DB, participantID int64) (models.GroupProfile, bool, error) {
	var group models.GroupProfile
	err := db.
		Joins("JOIN group_members ON group_members.group_id = group_profiles.id").
		Where("group_profiles.private = ? AND group_members.user_id = ? AND group_members.active = ?",
			true, participantID, true).
		First(&group).Error
	if err == nil {
		return group, false, nil
	}
	if !gorm.IsRecordNotFoundError(err) {
		return models.GroupProfile{}, false, err
	}

	var participant models.User
	if err := db.First(&participant, participantID).Error; err != nil {
		return models.GroupProfile{}, false, fmt.Errorf("participant %d: %w", participantID, err)
	}

	tx := db.Begin()
	if tx.Error != nil {
		return models.GroupProfile{}, false, tx.Error
	}

	group = models.GroupProfile{
		Name:        participant.Name + " & " + s.Name,
		MemberCount: 2,
		Active:      true,
		Private:     true,
	}
	if err := tx.Create(&group).Error; err != nil {
		tx.Rollback()
		return models.GroupProfile{}, false, err
	}

	members := []models.GroupMember{
		{GroupID: group.ID, UserID: participantID, Active: true},
		{GroupID: group.ID, UserID: s.ID, Active: true},
	}
	for _, m := range members {
		member := m
		if err := tx.Create(&member).Error; err != nil {
			tx.Rollback()
			return models.GroupProfile{}, false, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return models.GroupProfile{}, false, err
	}
	return group, true, nil
}

// Start garante o canal do participante, publica a mensagem de abertura do
// assistente pelo broker (mesma maquinaria de qualquer grupo) e devolve o id
// do grupo para o cliente trocar de sala.
func (s *Service) Start(db *gorm.DB, hub *broker.Hub, participantID int64, openingMessage string) (int64, error) {
	group, _, err := s.EnsureChannel(db, participantID)
	if err != nil {
		return 0, err
	}
	if openingMessage == "" {
		openingMessage = "Hi, I'm " + s.Name + ". This is a private space just for us. How are you feeling right now?"
	}
	if _, err := hub.PostAssistant(db, group.ID, s.ID, openingMessage); err != nil {
		return 0, err
	}
	return group.ID, nil
}
