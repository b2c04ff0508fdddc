package promptbuilder

import "time"

// TimestampLayout is ISO 8601 in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Payload is the JSON body posted to the webhook. Field order is the wire order.
type Payload struct {
	AgentName        *string  `json:"agent_name"`
	Languages        []string `json:"languages"`
	Objective        *string  `json:"objective"`
	IdealNextSteps   *string  `json:"ideal_next_steps"`
	FAQsOrDocuments  *string  `json:"faqs_or_documents"`
	SampleTranscript *string  `json:"sample_transcript"`
	Source           string   `json:"source"`
	Timestamp        string   `json:"timestamp"`
}

// BuildPayload snapshots state into a payload stamped with now. Empty text
// becomes null; anything else, whitespace included, is sent verbatim.
func BuildPayload(state FormState, now time.Time) Payload {
	return Payload{
		AgentName:        nullIfEmpty(state.AgentName),
		Languages:        state.SelectedLanguages(),
		Objective:        nullIfEmpty(state.Objective),
		IdealNextSteps:   nullIfEmpty(state.IdealNextSteps),
		FAQsOrDocuments:  nullIfEmpty(state.FAQsOrDocuments),
		SampleTranscript: nullIfEmpty(state.SampleTranscript),
		Source:           Source,
		Timestamp:        FormatTimestamp(now),
	}
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// PayloadSchema is the JSON Schema of the webhook payload.
const PayloadSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "prompt-builder webhook payload",
  "type": "object",
  "required": ["agent_name", "languages", "objective", "ideal_next_steps", "faqs_or_documents", "sample_transcript", "source", "timestamp"],
  "additionalProperties": false,
  "properties": {
    "agent_name": {"type": ["string", "null"], "minLength": 1},
    "languages": {
      "type": "array",
      "uniqueItems": true,
      "maxItems": 2,
      "items": {"type": "string", "enum": ["English", "Hindi"]}
    },
    "objective": {"type": ["string", "null"], "minLength": 1},
    "ideal_next_steps": {"type": ["string", "null"], "minLength": 1},
    "faqs_or_documents": {"type": ["string", "null"], "minLength": 1},
    "sample_transcript": {"type": ["string", "null"], "minLength": 1},
    "source": {"const": "prompt-builder-ui"},
    "timestamp": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}T\\d{2}:\\d{2}:\\d{2}\\.\\d{3}Z$"}
  }
}`
