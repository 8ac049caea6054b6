package assistant

import (
	"context"
	"log"

	"wemind/models"
)

// Service é a identidade automatizada: gera a fala de abertura da escalação
// e as respostas no canal privado. Com OPENAI_API_KEY setada usa o modelo;
// sem, cai nas linhas fixas (determinísticas, usadas nos testes).
type Service struct {
	Name string
	ID   int64 // id da identidade seedada em users
}

func NewService(name string, id int64) *Service {
	return &Service{Name: name, ID: id}
}

// Linhas fixas por categoria. Tom de acolhimento, sem diagnóstico.
var openingLines = map[string]string{
	models.MODERATION_SELF_HARM: "I noticed your message and I'm concerned about you. I'm here to listen, without judgment. Would you like to talk about what's going on?",
	models.MODERATION_HATE:      "It sounds like there's a lot of frustration in what you wrote. This is a private space — want to talk through what happened?",
	models.MODERATION_VIOLENCE:  "That message couldn't be delivered to the group. If something is making you feel this way, I'm here to talk it through.",
	models.MODERATION_SEXUAL:    "That message couldn't be shared with the group. If there's something on your mind, we can talk here privately.",
}

const defaultOpeningLine = "Your message couldn't be delivered to the group. If you'd like, we can talk here privately."
const fallbackReply = "Thank you for sharing that with me. I'm listening — tell me more about how you're feeling."

// OpeningLine devolve a primeira fala do assistente para a oferta de
// escalação. Nunca falha: sem modelo, devolve a linha fixa da categoria.
func (s *Service) OpeningLine(category, content string) string {
	line, ok := openingLines[category]
	if !ok {
		line = defaultOpeningLine
	}

	generated, err := generateReply(context.Background(),
		"A peer support group message was held back by moderation (category: "+category+"). "+
			"Write one short, warm opening line inviting the author to a private conversation. "+
			"No diagnosis, no judgment.\n\nTheir message: "+content)
	if err != nil {
		return line
	}
	return generated
}

// Reply gera a resposta do assistente no canal privado, com contexto das
// mensagens recentes. Sem modelo disponível, devolve a resposta fixa.
func (s *Service) Reply(ctx context.Context, userText string, recent []string) (string, error) {
	prompt := "You are " + s.Name + ", a supportive mental health companion in a private chat. " +
		"Be warm, brief and concrete. Never diagnose, never prescribe.\n\n"
	if len(recent) > 0 {
		prompt += "Recent conversation:\n"
		for _, line := range recent {
			prompt += "- " + line + "\n"
		}
		prompt += "\n"
	}
	prompt += "They just said: " + userText

	reply, err := generateReply(ctx, prompt)
	if err != nil {
		log.Printf("assistant: generate reply: %v (fallback)", err)
		return fallbackReply, nil
	}
	return reply, nil
}
