package controllers

import (
	"net/http"

	dbpkg "wemind/db"
	"wemind/models"

	"github.com/gin-gonic/gin"
)

// GET /api/mailbox
func GetMailbox(c *gin.Context) {
	user, _ := GetUserLogged(c)
	db := dbpkg.DBInstance(c)

	var messages []models.MailboxMessage
	if err := db.
		Where("to_user = ?", user.ID).
		Order("created_at desc, id desc").
		Limit(100).
		Find(&messages).Error; err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, messages)
}

// POST /api/mailbox/:id/read
func MarkMailRead(c *gin.Context) {
	user, _ := GetUserLogged(c)
	db := dbpkg.DBInstance(c)

	mailID, ok := ParamID(c, "id")
	if !ok {
		return
	}

	res := db.Model(&models.MailboxMessage{}).
		Where("id = ? AND to_user = ?", mailID, user.ID).
		Update("is_read", true)
	if res.Error != nil {
		RespondError(c, res.Error.Error(), http.StatusInternalServerError)
		return
	}
	if res.RowsAffected == 0 {
		RespondError(c, "mailbox message not found", http.StatusNotFound)
		return
	}
	RespondSuccess(c, gin.H{"ok": true})
}
