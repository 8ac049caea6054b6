package workers

import (
	"context"
	"log"
	"time"

	"wemind/assistant"
	"wemind/broker"
	"wemind/models"

	"github.com/jinzhu/gorm"
)

// StartAssistantWorker processa AssistantJobs pendentes cujo ScheduledAt já
// passou: gera a resposta do assistente e publica no canal privado.
func StartAssistantWorker(db *gorm.DB, hub *broker.Hub, svc *assistant.Service) {
	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()

		for range ticker.C {
			processDueJobs(db, hub, svc)
		}
	}()
}

func processDueJobs(db *gorm.DB, hub *broker.Hub, svc *assistant.Service) {
	now := time.Now()

	var jobs []models.AssistantJob
	if err := db.
		Where("status = ?", models.JOB_STATUS_PENDING).
		Where("scheduled_at IS NOT NULL AND scheduled_at <= ?", now).
		Order("scheduled_at asc, id asc").
		Limit(50).
		Find(&jobs).Error; err != nil {
		log.Printf("assistant worker: query error: %v", err)
		return
	}

	for _, job := range jobs {
		// lock otimista: só processa se conseguir mudar status
		res := db.Model(&models.AssistantJob{}).
			Where("id = ? AND status = ?", job.ID, models.JOB_STATUS_PENDING).
			Update("status", models.JOB_STATUS_PROCESSING)
		if res.Error != nil || res.RowsAffected == 0 {
			continue
		}

		go handleJob(db, hub, svc, job.ID)
	}
}

func handleJob(db *gorm.DB, hub *broker.Hub, svc *assistant.Service, jobID int64) {
	var job models.AssistantJob
	if err := db.First(&job, jobID).Error; err != nil {
		return
	}
	if job.Status != models.JOB_STATUS_PROCESSING {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	recent := recentContext(db, job.GroupID, 10)

	reply, err := svc.Reply(ctx, job.Text, recent)
	if err != nil {
		log.Printf("assistant worker: reply error: %v", err)
		markJob(db, job.ID, models.JOB_STATUS_FAILED, "")
		return
	}

	if _, err := hub.PostAssistant(db, job.GroupID, svc.ID, reply); err != nil {
		log.Printf("assistant worker: post error: %v", err)
		markJob(db, job.ID, models.JOB_STATUS_FAILED, "")
		return
	}

	markJob(db, job.ID, models.JOB_STATUS_DONE, reply)
}

// recentContext pega as últimas mensagens visíveis do canal para dar
// contexto curto ao modelo.
func recentContext(db *gorm.DB, groupID int64, limit int) []string {
	msgs, err := broker.History(db, groupID, limit)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Content)
	}
	return out
}

func markJob(db *gorm.DB, jobID int64, status, reply string) {
	t := time.Now()
	_ = db.Model(&models.AssistantJob{}).Where("id = ?", jobID).Updates(map[string]any{
		"status":       status,
		"processed_at": &t,
		"reply_text":   reply,
	}).Error
}
