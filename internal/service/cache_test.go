package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeQuestion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Quelle est votre politique de logement ?", "quelle est votre politique de logement"},
		{"QUELLE EST VOTRE POLITIQUE DE LOGEMENT", "quelle est votre politique de logement"},
		{"  quelle   est\tvotre politique de logement!!! ", "quelle est votre politique de logement"},
		{"", ""},
		{"?!.", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeQuestion(tt.in), "input %q", tt.in)
	}
}

func TestQuestionKeyStable(t *testing.T) {
	a := QuestionKey("Quelle est votre politique de logement ?")
	b := QuestionKey("quelle est votre politique de logement")
	c := QuestionKey("quelle est votre politique de transport")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestCacheLookupAndStore(t *testing.T) {
	c := NewAnswerCache(time.Hour)

	_, found := c.Lookup("t1", "question")
	assert.False(t, found)

	c.Store("t1", "Quelle est votre politique ?", "la réponse")

	answer, found := c.Lookup("t1", "quelle est votre politique")
	assert.True(t, found)
	assert.Equal(t, "la réponse", answer)
}

func TestCacheTenantsIsolated(t *testing.T) {
	c := NewAnswerCache(time.Hour)

	c.Store("t1", "question", "réponse t1")

	_, found := c.Lookup("t2", "question")
	assert.False(t, found)
}

func TestCacheInvalidateTenant(t *testing.T) {
	c := NewAnswerCache(time.Hour)

	c.Store("t1", "question", "réponse")
	c.Store("t2", "question", "autre réponse")

	c.InvalidateTenant("t1")

	_, found := c.Lookup("t1", "question")
	assert.False(t, found)

	answer, found := c.Lookup("t2", "question")
	assert.True(t, found)
	assert.Equal(t, "autre réponse", answer)
}

func TestCacheLastWriterWins(t *testing.T) {
	c := NewAnswerCache(time.Hour)

	c.Store("t1", "question", "première")
	c.Store("t1", "question", "seconde")

	answer, found := c.Lookup("t1", "question")
	assert.True(t, found)
	assert.Equal(t, "seconde", answer)
}
