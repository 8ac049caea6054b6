package workflow

import (
	"strconv"
	"testing"

	"wemind/matching"
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
	// :memory: é por conexão; uma conexão só para todo mundo ver o mesmo banco
	db.DB().SetMaxOpenConns(1)
	db.AutoMigrate(
		&models.User{},
		&models.QuestionnaireSubmission{},
		&models.GroupProfile{},
		&models.GroupMember{},
		&models.MatchRecommendation{},
		&models.AssignmentTask{},
		&models.MailboxMessage{},
	)
	t.Cleanup(func() { db.Close() })
	return db
}

type fixture struct {
	reviewer    models.User
	participant models.User
	group       models.GroupProfile
	task        models.AssignmentTask
}

// seed monta o cenário padrão: um grupo existente com dois membros e uma task
// pendente cuja recomendação aponta para ele.
func seed(t *testing.T, db *gorm.DB, decision string) fixture {
	t.Helper()

	reviewer := models.User{Name: "Rev", Email: "rev@test.local", Role: models.USER_ROLE_REVIEWER}
	require.NoError(t, db.Create(&reviewer).Error)
	participant := models.User{Name: "Ana", Email: "ana@test.local", Role: models.USER_ROLE_PARTICIPANT}
	require.NoError(t, db.Create(&participant).Error)

	group := models.GroupProfile{
		Name:        "Circle A",
		ReviewerID:  reviewer.ID,
		Centroid:    matching.RenderVector([]float64{1, 0, 0}),
		MemberCount: 2,
		AvgSim:      0.9,
		Active:      true,
	}
	require.NoError(t, db.Create(&group).Error)

	submission := models.QuestionnaireSubmission{
		UserID:     participant.ID,
		ReviewerID: reviewer.ID,
		Answers:    "{}",
		Vector:     matching.RenderVector([]float64{0.9, 0.1, 0}),
	}
	require.NoError(t, db.Create(&submission).Error)

	targetID := int64(0)
	if decision == models.MATCH_DECISION_EXISTING_GROUP {
		targetID = group.ID
	}
	rec := models.MatchRecommendation{
		SubmissionID:  submission.ID,
		Decision:      decision,
		TargetGroupID: targetID,
		Score:         0.93,
		Threshold:     0.65,
		Candidates:    matching.RenderCandidates([]matching.Candidate{{GroupID: group.ID, Score: 0.93}}),
	}
	require.NoError(t, db.Create(&rec).Error)

	task := models.AssignmentTask{
		SubmissionID:  submission.ID,
		ParticipantID: participant.ID,
		ReviewerID:    reviewer.ID,
		Status:        models.TASK_STATUS_PENDING_REVIEW,
	}
	require.NoError(t, db.Create(&task).Error)

	return fixture{reviewer: reviewer, participant: participant, group: group, task: task}
}

func membershipCount(t *testing.T, db *gorm.DB, userID int64) int {
	t.Helper()
	var n int
	require.NoError(t, db.Model(&models.GroupMember{}).
		Where("user_id = ? AND active = ?", userID, true).Count(&n).Error)
	return n
}

func TestApprove(t *testing.T) {
	t.Run("Joins recommended group", func(t *testing.T) {
		db := testDB(t)
		fx := seed(t, db, models.MATCH_DECISION_EXISTING_GROUP)

		res, err := Approve(db, fx.task.ID)
		require.NoError(t, err)
		assert.Equal(t, fx.group.ID, res.GroupID)
		assert.False(t, res.Created)
		assert.Equal(t, models.TASK_STATUS_ASSIGNED, res.Status)

		assert.Equal(t, 1, membershipCount(t, db, fx.participant.ID))

		var group models.GroupProfile
		require.NoError(t, db.First(&group, fx.group.ID).Error)
		assert.Equal(t, 3, group.MemberCount)
		assert.Less(t, group.AvgSim, 0.95)

		var task models.AssignmentTask
		require.NoError(t, db.First(&task, fx.task.ID).Error)
		assert.Equal(t, models.TASK_STATUS_ASSIGNED, task.Status)
		assert.Equal(t, fx.group.ID, task.ChosenGroupID)
		assert.False(t, task.Override)
		assert.NotNil(t, task.ResolvedAt)

		var mail models.MailboxMessage
		require.NoError(t, db.Where("to_user = ?", fx.participant.ID).First(&mail).Error)
		assert.Equal(t, models.MAIL_KIND_ASSIGNMENT, mail.Kind)
	})

	t.Run("Creates new group when recommended", func(t *testing.T) {
		db := testDB(t)
		fx := seed(t, db, models.MATCH_DECISION_NEW_GROUP)

		res, err := Approve(db, fx.task.ID)
		require.NoError(t, err)
		assert.True(t, res.Created)
		assert.NotEqual(t, fx.group.ID, res.GroupID)

		var group models.GroupProfile
		require.NoError(t, db.First(&group, res.GroupID).Error)
		assert.Equal(t, 1, group.MemberCount)
		assert.Equal(t, 1.0, group.AvgSim)
		assert.Equal(t, fx.reviewer.ID, group.ReviewerID)
		assert.False(t, group.Private)
		assert.NotEmpty(t, group.Centroid)
	})

	t.Run("Second resolution fails without side effects", func(t *testing.T) {
		db := testDB(t)
		fx := seed(t, db, models.MATCH_DECISION_EXISTING_GROUP)

		_, err := Approve(db, fx.task.ID)
		require.NoError(t, err)

		_, err = Approve(db, fx.task.ID)
		assert.ErrorIs(t, err, ErrAlreadyResolved)
		_, err = RejectAndAssign(db, fx.task.ID, NewGroupChoice)
		assert.ErrorIs(t, err, ErrAlreadyResolved)

		// exatamente um membership, não dois
		assert.Equal(t, 1, membershipCount(t, db, fx.participant.ID))
	})

	t.Run("Existing membership blocks assignment", func(t *testing.T) {
		db := testDB(t)
		fx := seed(t, db, models.MATCH_DECISION_EXISTING_GROUP)

		other := models.GroupProfile{Name: "Circle B", ReviewerID: fx.reviewer.ID, MemberCount: 1, Active: true}
		require.NoError(t, db.Create(&other).Error)
		require.NoError(t, db.Create(&models.GroupMember{
			GroupID: other.ID, UserID: fx.participant.ID, Active: true,
		}).Error)

		_, err := Approve(db, fx.task.ID)
		assert.ErrorIs(t, err, ErrAlreadyMember)

		// rollback: task continua pendente
		var task models.AssignmentTask
		require.NoError(t, db.First(&task, fx.task.ID).Error)
		assert.Equal(t, models.TASK_STATUS_PENDING_REVIEW, task.Status)
	})

	t.Run("Private assistant channel does not block", func(t *testing.T) {
		db := testDB(t)
		fx := seed(t, db, models.MATCH_DECISION_EXISTING_GROUP)

		private := models.GroupProfile{Name: "Ana & AI", MemberCount: 2, Active: true, Private: true}
		require.NoError(t, db.Create(&private).Error)
		require.NoError(t, db.Create(&models.GroupMember{
			GroupID: private.ID, UserID: fx.participant.ID, Active: true,
		}).Error)

		_, err := Approve(db, fx.task.ID)
		assert.NoError(t, err)
	})
}

func TestRejectAndAssign(t *testing.T) {
	t.Run("Listed candidate override", func(t *testing.T) {
		db := testDB(t)
		fx := seed(t, db, models.MATCH_DECISION_NEW_GROUP)

		res, err := RejectAndAssign(db, fx.task.ID, strconv.FormatInt(fx.group.ID, 10))
		require.NoError(t, err)
		assert.Equal(t, fx.group.ID, res.GroupID)
		assert.Equal(t, models.TASK_STATUS_REASSIGNED, res.Status)

		var task models.AssignmentTask
		require.NoError(t, db.First(&task, fx.task.ID).Error)
		assert.True(t, task.Override)
	})

	t.Run("New group sentinel", func(t *testing.T) {
		db := testDB(t)
		fx := seed(t, db, models.MATCH_DECISION_EXISTING_GROUP)

		res, err := RejectAndAssign(db, fx.task.ID, NewGroupChoice)
		require.NoError(t, err)
		assert.True(t, res.Created)
		assert.NotEqual(t, fx.group.ID, res.GroupID)
	})

	t.Run("Unlisted choice rejected", func(t *testing.T) {
		db := testDB(t)
		fx := seed(t, db, models.MATCH_DECISION_EXISTING_GROUP)

		_, err := RejectAndAssign(db, fx.task.ID, "9999")
		assert.ErrorIs(t, err, ErrInvalidChoice)
		_, err = RejectAndAssign(db, fx.task.ID, "")
		assert.ErrorIs(t, err, ErrInvalidChoice)
		_, err = RejectAndAssign(db, fx.task.ID, "not-a-number")
		assert.ErrorIs(t, err, ErrInvalidChoice)

		// escolha inválida não resolve a task
		var task models.AssignmentTask
		require.NoError(t, db.First(&task, fx.task.ID).Error)
		assert.Equal(t, models.TASK_STATUS_PENDING_REVIEW, task.Status)
	})
}
