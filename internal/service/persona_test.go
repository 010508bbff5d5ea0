package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eluia/eluia-api/internal/model"
)

func testTenant() *model.Tenant {
	return &model.Tenant{
		Name: "Marie Dupont",
		Persona: model.Persona{
			AgentName:      "Clara",
			Tone:           model.ToneFormal,
			ResponseLength: model.LengthDetailed,
		},
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	sections := []model.RetrievedChunk{
		{Chunk: model.Chunk{Page: 3, Text: "Nous construirons 500 logements sociaux."}, Score: 0.9},
		{Chunk: model.Chunk{Page: 7, Text: "Les transports seront gratuits le week-end."}, Score: 0.7},
	}

	prompt := BuildSystemPrompt(testTenant(), sections)

	assert.Contains(t, prompt, "Clara")
	assert.Contains(t, prompt, "Marie Dupont")
	assert.Contains(t, prompt, "[Page 3]")
	assert.Contains(t, prompt, "[Page 7]")
	assert.Contains(t, prompt, "500 logements sociaux")
	assert.Contains(t, prompt, toneInstructions[model.ToneFormal])
	assert.Contains(t, prompt, lengthInstructions[model.LengthDetailed])
	assert.Contains(t, prompt, "Respond in French")
}

func TestBuildSystemPromptUnknownPersonaFallsBack(t *testing.T) {
	tenant := testTenant()
	tenant.Persona.Tone = "sarcastique"
	tenant.Persona.ResponseLength = "interminable"

	prompt := BuildSystemPrompt(tenant, nil)

	assert.Contains(t, prompt, toneInstructions[model.ToneAccessible])
	assert.Contains(t, prompt, lengthInstructions[model.LengthConcise])
}

func TestGracefulAnswersNameTheCandidate(t *testing.T) {
	tenant := testTenant()

	assert.Contains(t, NoCoverageAnswer(tenant), "Marie Dupont")
	assert.Contains(t, BudgetExhaustedAnswer(tenant), "Marie Dupont")
	assert.NotEmpty(t, GenerationFailureAnswer())
}
