// Package prompts builds the prompts sent to the language model.
package prompts

import (
	"fmt"
	"strings"
)

// SearchInterpretationSystemMessage pins the model to the perfume-advisor role.
const SearchInterpretationSystemMessage = "You are a fragrance shopping assistant for a Spanish-speaking perfume store. " +
	"You interpret free-text searches into structured filters. " +
	"Respond with a single JSON object and nothing else."

// BuildSearchInterpretationPrompt creates the prompt that turns a free-text
// search into structured filters. It enumerates the allowed value for every
// field so the response can be validated against a closed vocabulary, and asks
// for a short explanation of why the filters were chosen.
func BuildSearchInterpretationPrompt(query string, familySlugs []string) string {
	var prompt strings.Builder

	prompt.WriteString("# Search Interpretation\n\n")
	prompt.WriteString("Interpret the following perfume search query into structured filters.\n\n")
	prompt.WriteString(fmt.Sprintf("Query: %q\n\n", query))

	prompt.WriteString("## Allowed values\n\n")
	prompt.WriteString("- gender: Hombre, Mujer, Unisex\n")
	prompt.WriteString("- occasion: Diario, Trabajo, Cita, Fiesta, Deporte, Formal\n")
	prompt.WriteString("- intensity: Ligera, Moderada, Intensa\n")
	prompt.WriteString("- climate: Calido, Templado, Frio, Humedo\n")
	prompt.WriteString("- event: Boda, Gala, Casual, Nocturno, Oficina\n")
	prompt.WriteString(fmt.Sprintf("- families: %s\n\n", strings.Join(familySlugs, ", ")))

	prompt.WriteString("## Rules\n\n")
	prompt.WriteString("- Only infer a field when the query clearly implies it; otherwise use null.\n")
	prompt.WriteString("- families is an ordered list of matching family identifiers from the allowed set; use [] when none apply.\n")
	prompt.WriteString("- explanation is one or two sentences, in Spanish, saying why these filters fit the query.\n\n")

	prompt.WriteString("## Response format\n\n")
	prompt.WriteString("```json\n")
	prompt.WriteString(`{
  "gender": "Hombre" | "Mujer" | "Unisex" | null,
  "occasion": "..." | null,
  "intensity": "..." | null,
  "climate": "..." | null,
  "event": "..." | null,
  "families": ["..."],
  "explanation": "..."
}`)
	prompt.WriteString("\n```\n")

	return prompt.String()
}
