package service

import (
	"fmt"
	"strings"

	"github.com/eluia/eluia-api/internal/model"
)

var toneInstructions = map[model.Tone]string{
	model.ToneFormal:     "Maintain a professional and formal tone. Use complete sentences and avoid colloquialisms.",
	model.ToneAccessible: "Use clear, friendly language that's easy to understand. Be warm and approachable.",
}

var lengthInstructions = map[model.ResponseLength]string{
	model.LengthConcise:  "Keep responses brief and to the point, typically 2-3 sentences.",
	model.LengthDetailed: "Provide comprehensive answers with explanations and context when appropriate.",
}

// BuildSystemPrompt composes the grounding prompt: the answer must come from
// the supplied sections only, phrased according to the tenant's persona.
func BuildSystemPrompt(tenant *model.Tenant, sections []model.RetrievedChunk) string {
	tone, ok := toneInstructions[tenant.Persona.Tone]
	if !ok {
		tone = toneInstructions[model.ToneAccessible]
	}
	length, ok := lengthInstructions[tenant.Persona.ResponseLength]
	if !ok {
		length = lengthInstructions[model.LengthConcise]
	}

	var context strings.Builder
	for i, section := range sections {
		if i > 0 {
			context.WriteString("\n\n")
		}
		fmt.Fprintf(&context, "[Page %d]\n%s", section.Chunk.Page, section.Chunk.Text)
	}

	return fmt.Sprintf(`You are %s, an AI assistant for %s's campaign.

IMPORTANT INSTRUCTIONS:
- Answer questions based ONLY on the provided program sections below
- %s
- %s
- Always cite specific page numbers when referencing the program
- If a topic is not covered in the program, respond: %q
- Be helpful, accurate, and maintain a non-partisan tone
- Respond in French

PROGRAM SECTIONS:
%s

Remember: Only answer based on the above sections. If the information isn't there, admit it.`,
		tenant.Persona.AgentName, tenant.Name, tone, length,
		NoCoverageAnswer(tenant), context.String())
}

// NoCoverageAnswer is the graceful non-answer used when the corpus does not
// cover a topic: redirect to the candidate, never invent content.
func NoCoverageAnswer(tenant *model.Tenant) string {
	return fmt.Sprintf("Ce sujet n'est pas abordé dans le programme. Je vous encourage à contacter %s directement pour plus d'informations.", tenant.Name)
}

// GenerationFailureAnswer is the user-facing apology shown when the model
// call keeps failing. A citizen never sees a raw error.
func GenerationFailureAnswer() string {
	return "Désolé, une erreur technique est survenue. Veuillez réessayer dans quelques instants."
}

// BudgetExhaustedAnswer is shown when the tenant's daily budget is spent.
// It is deliberately distinct from quota exhaustion, which is per citizen.
func BudgetExhaustedAnswer(tenant *model.Tenant) string {
	return fmt.Sprintf("L'assistant a atteint sa limite d'activité pour aujourd'hui. Vous pouvez consulter le programme de %s ou réessayer demain.", tenant.Name)
}
