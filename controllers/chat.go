package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"wemind/broker"
	dbpkg "wemind/db"
	"wemind/models"

	"github.com/gin-gonic/gin"
)

// GET /api/chat-groups
//
// Grupos ativos do usuário logado (inclui o canal privado do assistente,
// se existir).
func GetGroups(c *gin.Context) {
	user, _ := GetUserLogged(c)
	db := dbpkg.DBInstance(c)

	var groups []models.GroupProfile
	if err := db.
		Joins("JOIN group_members ON group_members.group_id = group_profiles.id").
		Where("group_members.user_id = ? AND group_members.active = ? AND group_profiles.active = ?",
			user.ID, true, true).
		Order("group_profiles.id asc").
		Find(&groups).Error; err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, groups)
}

// GET /api/messages?group_id=&limit=
//
// Histórico do grupo (só mensagens visíveis, ordem cronológica). Não-membro
// recebe 403.
func GetMessages(c *gin.Context) {
	user, _ := GetUserLogged(c)
	db := dbpkg.DBInstance(c)

	groupID, err := strconv.ParseInt(c.Query("group_id"), 10, 64)
	if err != nil || groupID <= 0 {
		RespondError(c, "group_id inválido", http.StatusBadRequest)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	if !isMember(c, groupID, user.ID) {
		RespondError(c, "not a member of this group", http.StatusForbidden)
		return
	}

	messages, err := broker.History(db, groupID, limit)
	if err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, messages)
}

type postMessageInput struct {
	GroupID int64  `json:"group_id"`
	Content string `json:"content"`
}

// POST /api/messages
//
// Fallback REST do websocket: mesmo pipeline (triagem, persistência, fanout).
// Mensagem barrada pela triagem volta com ok=false, detail e a abertura do
// assistente quando houver escalonamento.
func PostMessage(c *gin.Context) {
	user, _ := GetUserLogged(c)
	db := dbpkg.DBInstance(c)

	var input postMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, "invalid json", http.StatusBadRequest)
		return
	}
	if input.GroupID <= 0 || input.Content == "" {
		RespondError(c, "group_id e content são obrigatórios", http.StatusBadRequest)
		return
	}

	result, err := hub.Send(db, input.GroupID, user.ID, input.Content)
	if err != nil {
		if errors.Is(err, broker.ErrNotAMember) {
			RespondError(c, err.Error(), http.StatusForbidden)
			return
		}
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, result)
}

type supportChatInput struct {
	OpeningMessage string `json:"opening_message"`
}

// POST /api/support-chat/start
//
// Abre (ou reusa) o canal privado do participante com o assistente e devolve
// o group_id para o cliente trocar de sala.
func StartSupportChat(c *gin.Context) {
	user, _ := GetUserLogged(c)
	db := dbpkg.DBInstance(c)

	var input supportChatInput
	_ = c.ShouldBindJSON(&input)

	groupID, err := aiSvc.Start(db, hub, user.ID, input.OpeningMessage)
	if err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, gin.H{"ok": true, "group_id": groupID})
}

func isMember(c *gin.Context, groupID, userID int64) bool {
	db := dbpkg.DBInstance(c)
	var count int
	err := db.Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ? AND active = ?", groupID, userID, true).
		Count(&count).Error
	return err == nil && count > 0
}
