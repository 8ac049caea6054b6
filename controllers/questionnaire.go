package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	dbpkg "wemind/db"
	"wemind/matching"
	"wemind/models"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

type questionnaireInput struct {
	ReviewerID int64                      `json:"reviewer_id"`
	Answers    map[string]json.RawMessage `json:"answers"`
}

// POST /api/questionnaire
//
// Recebe o questionário, codifica, roda o matcher contra os grupos do
// reviewer escolhido e persiste submissão + recomendação + task pendente,
// avisando o reviewer pela mailbox. Devolve a recomendação.
func SubmitQuestionnaire(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}
	if user.Role != models.USER_ROLE_PARTICIPANT {
		RespondError(c, "somente participantes enviam questionário", http.StatusForbidden)
		return
	}

	var input questionnaireInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, "invalid json", http.StatusBadRequest)
		return
	}
	if input.ReviewerID <= 0 {
		RespondError(c, "reviewer_id é obrigatório", http.StatusBadRequest)
		return
	}

	answersJSON, err := json.Marshal(input.Answers)
	if err != nil {
		RespondError(c, "invalid answers", http.StatusBadRequest)
		return
	}

	// hard stop em questionário malformado: nada de matching parcial
	vec, err := matching.EncodeRaw(string(answersJSON))
	if err != nil {
		if errors.Is(err, matching.ErrMalformedSubmission) {
			RespondError(c, err.Error(), http.StatusBadRequest)
			return
		}
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}

	var reviewer models.User
	if err := db.Where("id = ? AND role = ?", input.ReviewerID, models.USER_ROLE_REVIEWER).
		First(&reviewer).Error; err != nil {
		RespondError(c, "reviewer não encontrado", http.StatusBadRequest)
		return
	}

	aggregates, err := eligibleGroups(db, reviewer.ID)
	if err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}

	rec := matching.Recommend(vec, aggregates, matching.Params{
		TopK:      cfg.Matching.TopK,
		Threshold: cfg.Matching.Threshold,
		Leniency:  cfg.Matching.Leniency,
	})

	tx := db.Begin()
	if tx.Error != nil {
		RespondError(c, tx.Error.Error(), http.StatusInternalServerError)
		return
	}

	submission := models.QuestionnaireSubmission{
		UserID:     user.ID,
		ReviewerID: reviewer.ID,
		Answers:    string(answersJSON),
		Vector:     matching.RenderVector(vec),
	}
	if err := tx.Create(&submission).Error; err != nil {
		tx.Rollback()
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}

	stored := models.MatchRecommendation{
		SubmissionID:  submission.ID,
		Decision:      rec.Decision,
		TargetGroupID: rec.GroupID,
		Score:         rec.Score,
		Threshold:     rec.Threshold,
		Candidates:    matching.RenderCandidates(rec.Candidates),
		Reason:        rec.Reason,
	}
	if err := tx.Create(&stored).Error; err != nil {
		tx.Rollback()
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}

	task := models.AssignmentTask{
		SubmissionID:  submission.ID,
		ParticipantID: user.ID,
		ReviewerID:    reviewer.ID,
		Status:        models.TASK_STATUS_PENDING_REVIEW,
	}
	if err := tx.Create(&task).Error; err != nil {
		tx.Rollback()
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}

	notice := models.MailboxMessage{
		FromUser: user.ID,
		ToUser:   reviewer.ID,
		Kind:     models.MAIL_KIND_PENDING_REVIEW,
		Subject:  "New questionnaire awaiting review",
		Body:     user.Name + " submitted a questionnaire. Recommendation: " + rec.Decision,
		RefID:    task.ID,
	}
	if err := tx.Create(&notice).Error; err != nil {
		tx.Rollback()
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := tx.Commit().Error; err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}

	RespondSuccess(c, gin.H{
		"task_id":        task.ID,
		"recommendation": rec,
	})
}

// eligibleGroups carrega os agregados dos grupos candidatos: escopo do
// reviewer, ativos, não-privados. Centroides ilegíveis são pulados
// (staleness tolerada, não é erro).
func eligibleGroups(db *gorm.DB, reviewerID int64) ([]matching.GroupAggregate, error) {
	var groups []models.GroupProfile
	if err := db.
		Where("reviewer_id = ? AND active = ? AND private = ?", reviewerID, true, false).
		Find(&groups).Error; err != nil {
		return nil, err
	}

	aggregates := make([]matching.GroupAggregate, 0, len(groups))
	for _, g := range groups {
		centroid, err := matching.ParseVector(g.Centroid)
		if err != nil {
			continue
		}
		aggregates = append(aggregates, matching.GroupAggregate{
			ID:          g.ID,
			Centroid:    centroid,
			MemberCount: g.MemberCount,
			AvgSim:      g.AvgSim,
		})
	}
	return aggregates, nil
}
