package matching

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrMalformedSubmission indica questionário inválido: dimensão obrigatória
// ausente, opção desconhecida ou múltipla resposta em questão de escolha única.
// O caller deve tratar como hard stop (sem matching parcial).
var ErrMalformedSubmission = errors.New("malformed submission")

// Question é uma dimensão do questionário fixo de onboarding.
// Sensitive exclui a questão do vetor (Age/Gender não entram na similaridade).
type Question struct {
	Key       string
	Multi     bool
	Weight    float64
	Sensitive bool
	Options   []string
}

// Schema é o questionário fixo. As chaves, opções e pesos vêm do formulário
// de onboarding; mudar a ordem muda o layout do vetor, então só acrescente
// no final.
var Schema = []Question{
	{
		Key:       "age",
		Weight:    1.0,
		Sensitive: true,
		Options:   []string{"18–25", "26–40", "41–60", "60+"},
	},
	{
		Key:       "gender",
		Weight:    1.0,
		Sensitive: true,
		Options:   []string{"Male", "Female", "Other", "Prefer not to say"},
	},
	{
		Key:    "lookingFor",
		Multi:  true,
		Weight: 1.4,
		Options: []string{
			"Someone to listen and understand me",
			"A place to vent or let feelings out",
			"Advice or practical suggestions",
			"Emotional support and encouragement",
			"Calm company and quiet presence",
			"Not sure yet, I just want to try",
		},
	},
	{
		Key:    "struggles",
		Multi:  true,
		Weight: 1.6,
		Options: []string{
			"Stress from school or work",
			"Relationship or friendship issues",
			"Family or partner conflicts",
			"Feeling anxious or overwhelmed",
			"Feeling sad, numb or low-energy",
			"Loneliness or lack of connection",
			"Low confidence or self-doubt",
			"General confusion about life direction",
		},
	},
	{
		Key:    "atmosphere",
		Weight: 1.3,
		Options: []string{
			"Warm & gentle",
			"Real & direct",
			"Light & humorous",
			"Calm & slow",
		},
	},
	{
		Key:    "communication",
		Weight: 1.2,
		Options: []string{
			"Mostly text chat",
			"Text chat + occasional voice",
			"Prefer to read/listen first",
		},
	},
}

// Answers mapeia chave da questão -> respostas selecionadas.
type Answers map[string][]string

// ParseAnswers aceita o JSON cru da submissão, onde cada valor pode ser
// string (escolha única) ou lista de strings (multi escolha).
func ParseAnswers(raw string) (Answers, error) {
	var generic map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &generic); err != nil {
		return nil, fmt.Errorf("%w: invalid json: %v", ErrMalformedSubmission, err)
	}

	out := Answers{}
	for key, rawVal := range generic {
		var single string
		if err := json.Unmarshal(rawVal, &single); err == nil {
			out[key] = []string{single}
			continue
		}
		var many []string
		if err := json.Unmarshal(rawVal, &many); err == nil {
			out[key] = many
			continue
		}
		return nil, fmt.Errorf("%w: answer for %q is neither string nor list", ErrMalformedSubmission, key)
	}
	return out, nil
}

// Dimension retorna o tamanho do feature vector (um slot por opção
// não-sensível do schema).
func Dimension() int {
	n := 0
	for _, q := range Schema {
		if q.Sensitive {
			continue
		}
		n += len(q.Options)
	}
	return n
}

// Encode transforma respostas em um feature vector determinístico:
// escolha única -> one-hot, multi escolha -> bitset de presença, cada slot
// recebe o peso da questão, e o vetor final é normalizado L2.
// Função pura: mesma entrada, mesmo vetor, sempre.
func Encode(answers Answers) ([]float64, error) {
	vec := make([]float64, Dimension())

	offset := 0
	for _, q := range Schema {
		selected, ok := answers[q.Key]
		if !ok || len(selected) == 0 {
			return nil, fmt.Errorf("%w: missing answer for %q", ErrMalformedSubmission, q.Key)
		}
		if !q.Multi && len(selected) > 1 {
			return nil, fmt.Errorf("%w: multiple answers for single-choice %q", ErrMalformedSubmission, q.Key)
		}

		for _, ans := range selected {
			idx := optionIndex(q, ans)
			if idx < 0 {
				return nil, fmt.Errorf("%w: unknown option %q for %q", ErrMalformedSubmission, ans, q.Key)
			}
			if !q.Sensitive {
				vec[offset+idx] = q.Weight
			}
		}

		if !q.Sensitive {
			offset += len(q.Options)
		}
	}

	return L2Normalize(vec), nil
}

// EncodeRaw é o atalho parse+encode usado pelo caminho de submissão.
func EncodeRaw(raw string) ([]float64, error) {
	answers, err := ParseAnswers(raw)
	if err != nil {
		return nil, err
	}
	return Encode(answers)
}

func optionIndex(q Question, answer string) int {
	for i, opt := range q.Options {
		if opt == answer {
			return i
		}
	}
	return -1
}

// L2Normalize devolve uma cópia do vetor com norma 1 (vetor nulo fica nulo).
func L2Normalize(v []float64) []float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	out := make([]float64, len(v))
	if sum == 0 {
		return out
	}
	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}
