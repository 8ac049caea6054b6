package workflow

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"wemind/matching"
	"wemind/models"
	"wemind/tools"

	"github.com/jinzhu/gorm"
)

/************************************************
/**** MARK: ERRORS ****/
/************************************************/

// ErrAlreadyResolved: transição duplicada. A saída de pending_review é
// exactly-once; a segunda chamada falha sem nenhum efeito colateral.
var ErrAlreadyResolved = errors.New("assignment task already resolved")

// ErrAlreadyMember: o participante já tem um grupo regular ativo. Decisão de
// projeto: no máximo um grupo regular por participante, além do canal privado
// do assistente.
var ErrAlreadyMember = errors.New("participant already holds a group membership")

// ErrInvalidChoice: o reject_and_assign recebeu um grupo que não está na lista
// de candidatos da recomendação (nem o sentinel "new").
var ErrInvalidChoice = errors.New("choice is not a listed candidate")

// Falhas transientes de infra. O task permanece pending_review e o caller
// tenta de novo; mutação e transição andam juntas na mesma transação.
var ErrGroupCreateFailed = errors.New("group create failed")
var ErrMembershipMutationFailed = errors.New("membership mutation failed")

// NewGroupChoice é o sentinel do reject_and_assign para "criar grupo novo".
const NewGroupChoice = "new"

// Result descreve o desfecho de uma transição.
type Result struct {
	TaskID  int64  `json:"task_id"`
	GroupID int64  `json:"group_id"`
	Created bool   `json:"created"`
	Status  string `json:"status"`
}

// Approve executa a recomendação como está: entra no grupo alvo se a decisão
// foi existing_group, senão cria um grupo novo semeado com o vetor do
// participante. Transição para "assigned".
func Approve(db *gorm.DB, taskID int64) (Result, error) {
	return resolve(db, taskID, "", false)
}

// RejectAndAssign aplica a escolha explícita do reviewer (um candidato listado
// ou NewGroupChoice) no lugar da recomendação. Transição para "reassigned",
// com override registrado para auditoria.
func RejectAndAssign(db *gorm.DB, taskID int64, choice string) (Result, error) {
	if choice == "" {
		return Result{}, ErrInvalidChoice
	}
	return resolve(db, taskID, choice, true)
}

func resolve(db *gorm.DB, taskID int64, choice string, override bool) (Result, error) {
	var task models.AssignmentTask
	if err := db.First(&task, taskID).Error; err != nil {
		return Result{}, err
	}
	if task.Status != models.TASK_STATUS_PENDING_REVIEW {
		return Result{}, ErrAlreadyResolved
	}

	var rec models.MatchRecommendation
	if err := db.Where("submission_id = ?", task.SubmissionID).First(&rec).Error; err != nil {
		return Result{}, fmt.Errorf("%w: recommendation not found: %v", ErrMembershipMutationFailed, err)
	}

	targetID, createNew, err := pickTarget(rec, choice, override)
	if err != nil {
		return Result{}, err
	}

	vec, err := submissionVector(db, task.SubmissionID)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMembershipMutationFailed, err)
	}

	finalStatus := models.TASK_STATUS_ASSIGNED
	if override {
		finalStatus = models.TASK_STATUS_REASSIGNED
	}

	// Mutação + transição em uma unidade: qualquer falha desfaz tudo e o task
	// continua pending_review para retry.
	tx := db.Begin()
	if tx.Error != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMembershipMutationFailed, tx.Error)
	}

	now := time.Now()

	// lock otimista: só um caller sai do pending_review
	res := tx.Model(&models.AssignmentTask{}).
		Where("id = ? AND status = ?", task.ID, models.TASK_STATUS_PENDING_REVIEW).
		Updates(map[string]any{
			"status":      finalStatus,
			"override":    override,
			"resolved_at": &now,
		})
	if res.Error != nil {
		tx.Rollback()
		return Result{}, fmt.Errorf("%w: %v", ErrMembershipMutationFailed, res.Error)
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return Result{}, ErrAlreadyResolved
	}

	// guarda: no máximo um grupo regular por participante
	var existing int
	if err := tx.Table("group_members").
		Joins("JOIN group_profiles ON group_profiles.id = group_members.group_id").
		Where("group_members.user_id = ? AND group_members.active = ? AND group_profiles.private = ?",
			task.ParticipantID, true, false).
		Count(&existing).Error; err != nil {
		tx.Rollback()
		return Result{}, fmt.Errorf("%w: %v", ErrMembershipMutationFailed, err)
	}
	if existing > 0 {
		tx.Rollback()
		return Result{}, ErrAlreadyMember
	}

	group, created, err := targetGroup(tx, task, vec, targetID, createNew)
	if err != nil {
		tx.Rollback()
		return Result{}, err
	}

	member := models.GroupMember{GroupID: group.ID, UserID: task.ParticipantID, Active: true}
	if err := tx.Create(&member).Error; err != nil {
		tx.Rollback()
		return Result{}, fmt.Errorf("%w: %v", ErrMembershipMutationFailed, err)
	}

	if err := tx.Model(&models.AssignmentTask{}).Where("id = ?", task.ID).
		Update("chosen_group_id", group.ID).Error; err != nil {
		tx.Rollback()
		return Result{}, fmt.Errorf("%w: %v", ErrMembershipMutationFailed, err)
	}

	notice := models.MailboxMessage{
		FromUser: task.ReviewerID,
		ToUser:   task.ParticipantID,
		Kind:     models.MAIL_KIND_ASSIGNMENT,
		Subject:  "You have been placed in a support group",
		Body:     "Your questionnaire was reviewed and you now have a group: " + group.Name,
		RefID:    group.ID,
	}
	if err := tx.Create(&notice).Error; err != nil {
		tx.Rollback()
		return Result{}, fmt.Errorf("%w: %v", ErrMembershipMutationFailed, err)
	}

	if err := tx.Commit().Error; err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMembershipMutationFailed, err)
	}

	return Result{TaskID: task.ID, GroupID: group.ID, Created: created, Status: finalStatus}, nil
}

// pickTarget decide grupo existente vs grupo novo a partir da recomendação
// (approve) ou da escolha do reviewer (reject).
func pickTarget(rec models.MatchRecommendation, choice string, override bool) (int64, bool, error) {
	if !override {
		if rec.Decision == models.MATCH_DECISION_EXISTING_GROUP && rec.TargetGroupID > 0 {
			return rec.TargetGroupID, false, nil
		}
		// new_group e no_groups_configured criam grupo
		return 0, true, nil
	}

	if choice == NewGroupChoice {
		return 0, true, nil
	}
	id, err := strconv.ParseInt(choice, 10, 64)
	if err != nil || id <= 0 {
		return 0, false, ErrInvalidChoice
	}
	for _, cand := range matching.ParseCandidates(rec.Candidates) {
		if cand.GroupID == id {
			return id, false, nil
		}
	}
	return 0, false, ErrInvalidChoice
}

func targetGroup(tx *gorm.DB, task models.AssignmentTask, vec []float64, targetID int64, createNew bool) (models.GroupProfile, bool, error) {
	if createNew {
		group := models.GroupProfile{
			Name:        "Support Circle " + tools.RandomString(6),
			ReviewerID:  task.ReviewerID,
			Centroid:    matching.RenderVector(matching.L2Normalize(vec)),
			MemberCount: 1,
			AvgSim:      1.0,
			Active:      true,
		}
		if err := tx.Create(&group).Error; err != nil {
			return models.GroupProfile{}, false, fmt.Errorf("%w: %v", ErrGroupCreateFailed, err)
		}
		return group, true, nil
	}

	var group models.GroupProfile
	if err := tx.Where("id = ? AND private = ? AND active = ?", targetID, false, true).
		First(&group).Error; err != nil {
		return models.GroupProfile{}, false, fmt.Errorf("%w: target group %d: %v", ErrMembershipMutationFailed, targetID, err)
	}

	centroid, _ := matching.ParseVector(group.Centroid)
	newCentroid, newAvg := matching.UpdateCentroid(centroid, group.MemberCount, group.AvgSim, vec)

	if err := tx.Model(&models.GroupProfile{}).Where("id = ?", group.ID).
		Updates(map[string]any{
			"centroid":     matching.RenderVector(newCentroid),
			"member_count": group.MemberCount + 1,
			"avg_sim":      newAvg,
		}).Error; err != nil {
		return models.GroupProfile{}, false, fmt.Errorf("%w: %v", ErrMembershipMutationFailed, err)
	}
	group.Centroid = matching.RenderVector(newCentroid)
	group.MemberCount++
	group.AvgSim = newAvg
	return group, false, nil
}

// submissionVector usa o vetor cacheado na submissão, recomputando das
// respostas quando o cache está vazio.
func submissionVector(db *gorm.DB, submissionID int64) ([]float64, error) {
	var sub models.QuestionnaireSubmission
	if err := db.First(&sub, submissionID).Error; err != nil {
		return nil, err
	}
	if sub.Vector != "" {
		if vec, err := matching.ParseVector(sub.Vector); err == nil {
			return vec, nil
		}
	}
	return matching.EncodeRaw(sub.Answers)
}
