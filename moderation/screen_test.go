package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{"Safe everyday message", "had a rough day at work, want to talk about it", CATEGORY_SAFE},
		{"Empty text", "   ", CATEGORY_SAFE},
		{"Self harm phrase", "sometimes I just want to end my life", CATEGORY_SELF_HARM},
		{"Self harm case insensitive", "I Want To Die", CATEGORY_SELF_HARM},
		{"Violence threat", "I will kill you if you say that again", CATEGORY_VIOLENCE},
		{"Hate speech", "you are worthless and nobody likes you", CATEGORY_HATE},
		{"Sexual content", "just send nudes already", CATEGORY_SEXUAL},
		{"Severity order prefers self harm", "I hate you all and I want to die", CATEGORY_SELF_HARM},
		{"Substring does not match", "I am skillful", CATEGORY_SAFE},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.text))
		})
	}
}

func TestFlaggedAndEscalates(t *testing.T) {
	assert.False(t, Flagged(CATEGORY_SAFE))
	assert.True(t, Flagged(CATEGORY_SEXUAL))

	assert.True(t, Escalates(CATEGORY_SELF_HARM))
	assert.True(t, Escalates(CATEGORY_HATE))
	assert.False(t, Escalates(CATEGORY_VIOLENCE))
	assert.False(t, Escalates(CATEGORY_SEXUAL))
	assert.False(t, Escalates(CATEGORY_SAFE))
}
