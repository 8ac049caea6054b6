package assistant

import (
	"context"
	"testing"

	"wemind/broker"
	"wemind/models"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.DB().SetMaxOpenConns(1)
	db.AutoMigrate(
		&models.User{},
		&models.GroupProfile{},
		&models.GroupMember{},
		&models.Message{},
		&models.AssistantJob{},
	)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestEnsureIdentity(t *testing.T) {
	db := testDB(t)

	first, err := EnsureIdentity(db, "WeMind AI")
	require.NoError(t, err)
	assert.Equal(t, models.USER_ROLE_ASSISTANT, first.Role)
	assert.Equal(t, "WeMind AI", first.Name)

	second, err := EnsureIdentity(db, "WeMind AI")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var n int
	require.NoError(t, db.Model(&models.User{}).
		Where("role = ?", models.USER_ROLE_ASSISTANT).Count(&n).Error)
	assert.Equal(t, 1, n)
}

func TestEnsureChannel(t *testing.T) {
	db := testDB(t)

	ai, err := EnsureIdentity(db, "WeMind AI")
	require.NoError(t, err)
	svc := NewService(ai.Name, ai.ID)

	participant := models.User{Name: "Ana", Email: "ana@test.local"}
	require.NoError(t, db.Create(&participant).Error)

	group, created, err := svc.EnsureChannel(db, participant.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, group.Private)
	assert.Equal(t, 2, group.MemberCount)
	assert.Equal(t, "Ana & WeMind AI", group.Name)

	// segunda chamada reusa o mesmo canal
	again, created, err := svc.EnsureChannel(db, participant.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, group.ID, again.ID)

	var members int
	require.NoError(t, db.Model(&models.GroupMember{}).
		Where("group_id = ?", group.ID).Count(&members).Error)
	assert.Equal(t, 2, members)
}

func TestStart(t *testing.T) {
	db := testDB(t)

	ai, err := EnsureIdentity(db, "WeMind AI")
	require.NoError(t, err)
	svc := NewService(ai.Name, ai.ID)
	hub := broker.NewHub(ai.Name, svc)

	participant := models.User{Name: "Ana", Email: "ana@test.local"}
	require.NoError(t, db.Create(&participant).Error)

	groupID, err := svc.Start(db, hub, participant.ID, "")
	require.NoError(t, err)
	assert.NotZero(t, groupID)

	// a abertura do assistente já está no canal
	msgs, err := broker.History(db, groupID, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].Assistant)
	assert.Contains(t, msgs[0].Content, "WeMind AI")
}

func TestOpeningLine(t *testing.T) {
	// sem modelo configurado, as linhas fixas respondem
	t.Setenv("OPENAI_API_KEY", "")

	svc := NewService("WeMind AI", 1)

	selfHarm := svc.OpeningLine(models.MODERATION_SELF_HARM, "…")
	assert.Equal(t, openingLines[models.MODERATION_SELF_HARM], selfHarm)

	unknown := svc.OpeningLine("something_else", "…")
	assert.Equal(t, defaultOpeningLine, unknown)
}

func TestReplyFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	svc := NewService("WeMind AI", 1)
	reply, err := svc.Reply(context.Background(), "I had a hard day", []string{"earlier message"})
	require.NoError(t, err)
	assert.Equal(t, fallbackReply, reply)
}
