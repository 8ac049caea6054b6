package controllers

import (
	"errors"
	"net/http"

	dbpkg "wemind/db"
	"wemind/models"
	"wemind/workflow"

	"github.com/gin-gonic/gin"
)

type assignmentView struct {
	Task            models.AssignmentTask      `json:"task"`
	ParticipantName string                     `json:"participant_name"`
	Recommendation  models.MatchRecommendation `json:"recommendation"`
}

// GET /api/assignments
//
// Lista as tasks pendentes do reviewer logado, com a recomendação anexada
// para a tela de decisão.
func GetAssignments(c *gin.Context) {
	user, _ := GetUserLogged(c)
	db := dbpkg.DBInstance(c)

	var tasks []models.AssignmentTask
	if err := db.
		Where("reviewer_id = ? AND status = ?", user.ID, models.TASK_STATUS_PENDING_REVIEW).
		Order("created_at asc, id asc").
		Find(&tasks).Error; err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}

	views := make([]assignmentView, 0, len(tasks))
	for _, task := range tasks {
		view := assignmentView{Task: task}

		var participant models.User
		if err := db.First(&participant, task.ParticipantID).Error; err == nil {
			view.ParticipantName = participant.Name
		}
		var rec models.MatchRecommendation
		if err := db.Where("submission_id = ?", task.SubmissionID).First(&rec).Error; err == nil {
			view.Recommendation = rec
		}
		views = append(views, view)
	}

	RespondSuccess(c, views)
}

// POST /api/assignments/:id/approve
func ApproveAssignment(c *gin.Context) {
	taskID, ok := ParamID(c, "id")
	if !ok {
		return
	}
	db := dbpkg.DBInstance(c)

	if !ownsTask(c, taskID) {
		return
	}

	result, err := workflow.Approve(db, taskID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	RespondSuccess(c, result)
}

type rejectInput struct {
	Choice string `json:"choice"`
}

// POST /api/assignments/:id/reject
//
// O corpo traz a escolha do reviewer: o id de um candidato listado ou "new".
func RejectAssignment(c *gin.Context) {
	taskID, ok := ParamID(c, "id")
	if !ok {
		return
	}
	db := dbpkg.DBInstance(c)

	if !ownsTask(c, taskID) {
		return
	}

	var input rejectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, "invalid json", http.StatusBadRequest)
		return
	}

	result, err := workflow.RejectAndAssign(db, taskID, input.Choice)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	RespondSuccess(c, result)
}

// ownsTask barra reviewer mexendo em task alheia. Já responde em caso de erro.
func ownsTask(c *gin.Context, taskID int64) bool {
	user, _ := GetUserLogged(c)
	db := dbpkg.DBInstance(c)

	var task models.AssignmentTask
	if err := db.First(&task, taskID).Error; err != nil {
		RespondError(c, "task not found", http.StatusNotFound)
		return false
	}
	if task.ReviewerID != user.ID {
		RespondError(c, "task pertence a outro reviewer", http.StatusForbidden)
		return false
	}
	return true
}

func respondWorkflowError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, workflow.ErrAlreadyResolved):
		RespondError(c, err.Error(), http.StatusConflict)
	case errors.Is(err, workflow.ErrAlreadyMember):
		RespondError(c, err.Error(), http.StatusConflict)
	case errors.Is(err, workflow.ErrInvalidChoice):
		RespondError(c, err.Error(), http.StatusBadRequest)
	case errors.Is(err, workflow.ErrGroupCreateFailed),
		errors.Is(err, workflow.ErrMembershipMutationFailed):
		RespondError(c, err.Error(), http.StatusBadGateway)
	default:
		RespondError(c, err.Error(), http.StatusInternalServerError)
	}
}
