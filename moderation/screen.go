package moderation

import (
	"regexp"
	"strings"
)

/************************************************
/**** MARK: CATEGORIES ****/
/************************************************/
const CATEGORY_SAFE = "safe"
const CATEGORY_SELF_HARM = "self_harm"
const CATEGORY_VIOLENCE = "violence"
const CATEGORY_HATE = "hate"
const CATEGORY_SEXUAL = "sexual"

// O screen é intencionalmente simples: casamento conservador de palavras e
// frases, sem entendimento semântico. Falsos positivos são aceitos; para
// self-harm e hate preferimos pegar demais a deixar passar. Um classificador
// de verdade pode substituir Classify sem mudar nenhum outro componente.

var categoryPhrases = []struct {
	category string
	phrases  []string
}{
	{CATEGORY_SELF_HARM, []string{
		"kill myself", "end my life", "end it all", "suicide", "suicidal",
		"hurt myself", "harm myself", "self harm", "self-harm", "cut myself",
		"want to die", "wish i was dead", "no reason to live", "overdose",
		"better off without me",
	}},
	{CATEGORY_VIOLENCE, []string{
		"kill you", "kill him", "kill her", "kill them", "hurt you",
		"beat you up", "stab", "shoot you", "murder", "make you suffer",
		"break your", "watch your back",
	}},
	{CATEGORY_HATE, []string{
		"i hate you", "hate you all", "hate people like you", "you people",
		"worthless", "pathetic", "disgusting", "nobody likes you",
		"go away freak", "you don't belong here", "shut up idiot",
	}},
	{CATEGORY_SEXUAL, []string{
		"send nudes", "nudes", "sexting", "explicit photos", "porn", "nsfw",
	}},
}

var categoryPatterns = buildPatterns()

func buildPatterns() map[string][]*regexp.Regexp {
	out := make(map[string][]*regexp.Regexp, len(categoryPhrases))
	for _, entry := range categoryPhrases {
		patterns := make([]*regexp.Regexp, 0, len(entry.phrases))
		for _, phrase := range entry.phrases {
			patterns = append(patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(phrase)+`\b`))
		}
		out[entry.category] = patterns
	}
	return out
}

// Classify devolve CATEGORY_SAFE ou a primeira categoria flagrada, na ordem
// de severidade self_harm > violence > hate > sexual. Função pura.
// Texto vazio/branco é sempre safe.
func Classify(text string) string {
	t := strings.TrimSpace(text)
	if t == "" {
		return CATEGORY_SAFE
	}
	for _, entry := range categoryPhrases {
		for _, pattern := range categoryPatterns[entry.category] {
			if pattern.MatchString(t) {
				return entry.category
			}
		}
	}
	return CATEGORY_SAFE
}

// Flagged diz se a categoria suprime a mensagem.
func Flagged(category string) bool {
	return category != CATEGORY_SAFE
}

// Escalates diz se a categoria dispara a oferta de escalação para o canal
// privado do assistente (self-harm e hate, conforme a política).
func Escalates(category string) bool {
	return category == CATEGORY_SELF_HARM || category == CATEGORY_HATE
}
