package broker

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"wemind/models"
	"wemind/moderation"

	"github.com/jinzhu/gorm"
)

// ErrNotAMember: envio a partir de quem não é membro ativo do grupo.
var ErrNotAMember = errors.New("sender is not a member of the group")

// OpeningLiner fornece a primeira fala do assistente para a oferta de
// escalação quando uma mensagem é barrada.
type OpeningLiner interface {
	OpeningLine(category, content string) string
}

// Hub é o message broker: guarda as conexões vivas, o vínculo
// conexão->grupo e um mutex por grupo. O lock por grupo cobre o append no
// banco E o fanout, então a ordem de aceitação é a ordem de entrega para
// todo mundo (invariante de ordenação por grupo). Operações em grupos
// diferentes não se bloqueiam.
type Hub struct {
	mu     sync.Mutex
	conns  map[string]*Conn
	groups map[int64]map[string]*Conn

	lockMu sync.Mutex
	locks  map[int64]*sync.Mutex

	AssistantName string
	Opener        OpeningLiner
}

func NewHub(assistantName string, opener OpeningLiner) *Hub {
	return &Hub{
		conns:         make(map[string]*Conn),
		groups:        make(map[int64]map[string]*Conn),
		locks:         make(map[int64]*sync.Mutex),
		AssistantName: assistantName,
		Opener:        opener,
	}
}

// SendResult é o desfecho estruturado de um send: ok normal, ou a rejeição
// de moderação com categoria + fala de abertura para o cliente oferecer a
// escalação.
type SendResult struct {
	OK          bool   `json:"ok"`
	MessageID   int64  `json:"id"`
	Detail      string `json:"detail,omitempty"`
	OpeningLine string `json:"ai_opening_line,omitempty"`
	Escalate    bool   `json:"escalate,omitempty"`
}

// Send valida membership, roda o safety screen e aceita a mensagem.
// Flagrada: fica guardada invisível (auditoria), ninguém além do sender fica
// sabendo, e o resultado carrega a categoria + oferta de escalação.
// Limpa: armazenada visível e fanout na ordem de aceitação.
func (h *Hub) Send(db *gorm.DB, groupID, senderID int64, content string) (SendResult, error) {
	if !h.memberOf(db, groupID, senderID) {
		return SendResult{}, ErrNotAMember
	}

	category := moderation.Classify(content)
	visible := !moderation.Flagged(category)

	msg := models.Message{
		GroupID:    groupID,
		SenderID:   senderID,
		Content:    content,
		Visible:    visible,
		Moderation: category,
	}

	// o lock do grupo cobre só append + fanout; tudo que vem depois (fala de
	// abertura, agendamento do assistente) roda fora dele para não travar os
	// outros sends do grupo
	lock := h.groupLock(groupID)
	lock.Lock()
	if err := db.Create(&msg).Error; err != nil {
		lock.Unlock()
		return SendResult{}, fmt.Errorf("store message: %w", err)
	}
	if visible {
		h.fanout(db, msg)
	}
	lock.Unlock()

	if !visible {
		line := ""
		if moderation.Escalates(category) {
			if h.Opener != nil {
				line = h.Opener.OpeningLine(category, content)
			}
			h.alertReviewer(db, msg)
		}
		return SendResult{
			OK:          false,
			MessageID:   msg.ID,
			Detail:      category,
			OpeningLine: line,
			Escalate:    moderation.Escalates(category),
		}, nil
	}

	h.maybeQueueAssistantReply(db, msg)

	return SendResult{OK: true, MessageID: msg.ID}, nil
}

// PostAssistant publica uma mensagem do assistente (abertura de escalação,
// resposta no canal privado). Não passa pelo screen: conteúdo nosso.
func (h *Hub) PostAssistant(db *gorm.DB, groupID, assistantID int64, content string) (models.Message, error) {
	lock := h.groupLock(groupID)
	lock.Lock()
	defer lock.Unlock()

	msg := models.Message{
		GroupID:    groupID,
		SenderID:   assistantID,
		Assistant:  true,
		Content:    content,
		Visible:    true,
		Moderation: models.MODERATION_SAFE,
	}
	if err := db.Create(&msg).Error; err != nil {
		return models.Message{}, fmt.Errorf("store assistant message: %w", err)
	}
	h.fanout(db, msg)
	return msg, nil
}

// History devolve as últimas `limit` mensagens visíveis em ordem cronológica.
// É o caminho de reconciliação do cliente depois de reconectar.
func History(db *gorm.DB, groupID int64, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var msgs []models.Message
	if err := db.
		Where("group_id = ? AND visible = ?", groupID, true).
		Order("id desc").
		Limit(limit).
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	// query desc + reverse = mais recentes, em ordem de aceitação
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// Subscribe vincula a conexão a um grupo. Rebind desfaz o vínculo anterior;
// resubscrever no mesmo grupo é no-op (reconexão idempotente).
func (h *Hub) Subscribe(c *Conn, groupID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.groupID == groupID {
		return
	}
	h.detachLocked(c)
	if h.groups[groupID] == nil {
		h.groups[groupID] = make(map[string]*Conn)
	}
	h.groups[groupID][c.ID] = c
	c.groupID = groupID
}

// Disconnect remove a conexão do hub e de qualquer grupo. Seguro chamar mais
// de uma vez.
func (h *Hub) Disconnect(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[c.ID]; !ok {
		return
	}
	delete(h.conns, c.ID)
	h.detachLocked(c)
	close(c.send)
}

func (h *Hub) detachLocked(c *Conn) {
	if set, ok := h.groups[c.groupID]; ok {
		delete(set, c.ID)
		if len(set) == 0 {
			delete(h.groups, c.groupID)
		}
	}
	c.groupID = 0
}

// fanout entrega a mensagem a toda conexão inscrita no grupo que pertença a
// um membro. Chamado segurando o lock do grupo.
func (h *Hub) fanout(db *gorm.DB, msg models.Message) {
	frame, err := json.Marshal(messageFrame(db, h.AssistantName, msg))
	if err != nil {
		log.Printf("broker: marshal fanout frame: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.groups[msg.GroupID] {
		h.enqueueLocked(c, frame)
	}
}

// enqueueLocked tenta enfileirar sem bloquear; buffer cheio derruba a
// conexão (o cliente reconcilia via history ao reconectar).
func (h *Hub) enqueueLocked(c *Conn, frame []byte) {
	select {
	case c.send <- frame:
	default:
		log.Printf("broker: conn %s slow, dropping", c.ID)
		delete(h.conns, c.ID)
		h.detachLocked(c)
		close(c.send)
	}
}

// sendTo entrega um frame só para a conexão dada (rejeições de moderação,
// erros de protocolo).
func (h *Hub) sendTo(c *Conn, payload any) {
	frame, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[c.ID]; !ok {
		return
	}
	h.enqueueLocked(c, frame)
}

func (h *Hub) groupLock(groupID int64) *sync.Mutex {
	h.lockMu.Lock()
	defer h.lockMu.Unlock()
	lock, ok := h.locks[groupID]
	if !ok {
		lock = &sync.Mutex{}
		h.locks[groupID] = lock
	}
	return lock
}

func (h *Hub) memberOf(db *gorm.DB, groupID, userID int64) bool {
	var member models.GroupMember
	err := db.Where("group_id = ? AND user_id = ? AND active = ?", groupID, userID, true).
		First(&member).Error
	return err == nil
}

// alertReviewer avisa o reviewer do grupo quando uma mensagem escala
// (self-harm/hate). Canais privados não têm reviewer e ficam de fora.
func (h *Hub) alertReviewer(db *gorm.DB, msg models.Message) {
	var group models.GroupProfile
	if err := db.First(&group, msg.GroupID).Error; err != nil || group.ReviewerID == 0 {
		return
	}
	alert := models.MailboxMessage{
		ToUser:  group.ReviewerID,
		Kind:    models.MAIL_KIND_ALERT,
		Subject: "Safety screen flagged a message in " + group.Name,
		Body:    "A message was held back (category: " + msg.Moderation + ") and the sender was offered the private support channel.",
		RefID:   msg.ID,
	}
	if err := db.Create(&alert).Error; err != nil {
		log.Printf("broker: reviewer alert: %v", err)
	}
}

// maybeQueueAssistantReply agenda uma resposta do assistente quando a
// mensagem entra num canal privado (o worker processa depois do debounce).
func (h *Hub) maybeQueueAssistantReply(db *gorm.DB, msg models.Message) {
	if msg.Assistant {
		return
	}
	var group models.GroupProfile
	if err := db.First(&group, msg.GroupID).Error; err != nil || !group.Private {
		return
	}
	schedule := time.Now().Add(2 * time.Second)
	job := models.AssistantJob{
		GroupID:     msg.GroupID,
		MessageID:   msg.ID,
		UserID:      msg.SenderID,
		Text:        msg.Content,
		Status:      models.JOB_STATUS_PENDING,
		ScheduledAt: &schedule,
	}
	if err := db.Create(&job).Error; err != nil {
		log.Printf("broker: queue assistant reply: %v", err)
	}
}

// messageFrame monta o shape outbound `message` do transporte.
func messageFrame(db *gorm.DB, assistantName string, msg models.Message) map[string]any {
	username := assistantName
	if !msg.Assistant {
		var user models.User
		if err := db.First(&user, msg.SenderID).Error; err == nil {
			username = user.Name
		} else {
			username = "unknown"
		}
	}
	created := time.Now()
	if msg.CreatedAt != nil {
		created = *msg.CreatedAt
	}
	return map[string]any{
		"type": "message",
		"message": map[string]any{
			"id":         msg.ID,
			"group_id":   msg.GroupID,
			"sender_id":  msg.SenderID,
			"username":   username,
			"assistant":  msg.Assistant,
			"content":    msg.Content,
			"created_at": created.Format(time.RFC3339),
		},
	}
}
