package engine

import (
	"fmt"
	"strings"
)

const extractionResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "entities": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": {
            "type": "string",
            "pattern": "^[a-z0-9]+( [a-z0-9]+)*$"
          },
          "type": {
            "type": "string"
          },
          "description": {
            "type": "string"
          }
        },
        "required": ["name", "type"],
        "additionalProperties": false
      }
    },
    "relations": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "source": {
            "type": "string"
          },
          "target": {
            "type": "string"
          },
          "description": {
            "type": "string"
          }
        },
        "required": ["source", "target"],
        "additionalProperties": false
      }
    }
  },
  "required": ["entities", "relations"],
  "additionalProperties": false
}`

const extractionPromptTemplate = `Extract the named entities and the relations between them from the given text and return them as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Entity names must be lowercase, 1-4 words, singular form only.
- Every relation's source and target must appear in the entities list.
- Prefer a few well-grounded entities over many marginal ones.`

// buildExtractionPrompt returns the system prompt for entity extraction.
func buildExtractionPrompt() string {
	return fmt.Sprintf(extractionPromptTemplate, extractionResponseSchema)
}

const answerSystemPrompt = `You answer questions using only the supplied context. The context contains
retrieved document passages and, when available, related entities from a
knowledge graph. If the context does not contain the answer, say so
plainly instead of guessing.`

// buildAnswerPrompt assembles the user prompt from the question, the
// retrieved passages and the optional graph context block.
func buildAnswerPrompt(query string, passages []string, graphContext string) string {
	var b strings.Builder

	b.WriteString("Context passages:\n")
	for i, p := range passages {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, p)
	}

	if graphContext != "" {
		b.WriteString("\nKnowledge graph context:\n")
		b.WriteString(graphContext)
		b.WriteString("\n")
	}

	b.WriteString("\nQuestion: ")
	b.WriteString(query)
	return b.String()
}
