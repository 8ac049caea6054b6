package matching

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAnswers() Answers {
	return Answers{
		"age":           {"18–25"},
		"gender":        {"Female"},
		"lookingFor":    {"Someone to listen and understand me", "Emotional support and encouragement"},
		"struggles":     {"Feeling anxious or overwhelmed"},
		"atmosphere":    {"Warm & gentle"},
		"communication": {"Mostly text chat"},
	}
}

func TestEncode(t *testing.T) {
	t.Run("Deterministic", func(t *testing.T) {
		a, err := Encode(validAnswers())
		require.NoError(t, err)
		b, err := Encode(validAnswers())
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("Dimension and L2 norm", func(t *testing.T) {
		vec, err := Encode(validAnswers())
		require.NoError(t, err)
		assert.Len(t, vec, Dimension())

		var sum float64
		for _, x := range vec {
			sum += x * x
		}
		assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-9)
	})

	t.Run("Sensitive questions excluded", func(t *testing.T) {
		a := validAnswers()
		vecA, err := Encode(a)
		require.NoError(t, err)

		b := validAnswers()
		b["age"] = []string{"60+"}
		b["gender"] = []string{"Male"}
		vecB, err := Encode(b)
		require.NoError(t, err)

		// idade e gênero não entram na similaridade
		assert.Equal(t, vecA, vecB)
	})

	t.Run("Missing answer", func(t *testing.T) {
		a := validAnswers()
		delete(a, "struggles")
		_, err := Encode(a)
		assert.ErrorIs(t, err, ErrMalformedSubmission)
	})

	t.Run("Unknown option", func(t *testing.T) {
		a := validAnswers()
		a["atmosphere"] = []string{"Chaotic & loud"}
		_, err := Encode(a)
		assert.ErrorIs(t, err, ErrMalformedSubmission)
	})

	t.Run("Multiple answers on single choice", func(t *testing.T) {
		a := validAnswers()
		a["communication"] = []string{"Mostly text chat", "Prefer to read/listen first"}
		_, err := Encode(a)
		assert.ErrorIs(t, err, ErrMalformedSubmission)
	})
}

func TestParseAnswers(t *testing.T) {
	t.Run("String or list values", func(t *testing.T) {
		answers, err := ParseAnswers(`{"age":"18–25","lookingFor":["A place to vent or let feelings out"]}`)
		require.NoError(t, err)
		assert.Equal(t, []string{"18–25"}, answers["age"])
		assert.Equal(t, []string{"A place to vent or let feelings out"}, answers["lookingFor"])
	})

	t.Run("Invalid json", func(t *testing.T) {
		_, err := ParseAnswers(`{broken`)
		assert.ErrorIs(t, err, ErrMalformedSubmission)
	})

	t.Run("Non string value", func(t *testing.T) {
		_, err := ParseAnswers(`{"age":42}`)
		assert.ErrorIs(t, err, ErrMalformedSubmission)
	})
}
