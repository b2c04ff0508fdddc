package promptbuilder

import "prompt-builder/internal/common/validation"

// GetEditSchema describes a PATCH /api/form body: text fields take strings,
// "languages" takes an object of booleans keyed by language.
func GetEditSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:          "object",
		MinProperties: 1,
		Properties: map[string]validation.Property{
			string(FieldAgentName): {
				Type:        "string",
				Description: "Name of the agent",
			},
			"languages": {
				Type:        "object",
				Description: "Language toggles",
				Properties: map[string]validation.Property{
					string(English): {Type: "boolean"},
					string(Hindi):   {Type: "boolean"},
				},
			},
			string(FieldObjective): {
				Type:        "string",
				Description: "What the call should achieve",
			},
			string(FieldIdealNextSteps): {
				Type:        "string",
				Description: "What should happen after the call",
			},
			string(FieldFAQsOrDocuments): {
				Type:        "string",
				Description: "FAQs, business documents or other information",
			},
			string(FieldSampleTranscript): {
				Type:        "string",
				Description: "Sample conversation transcript",
			},
		},
	}
}

// editsFromBody converts a body that passed GetEditSchema into edits, text
// fields first and languages in fixed order.
func editsFromBody(body map[string]interface{}) []Edit {
	var edits []Edit
	for _, f := range TextFields {
		if v, ok := body[string(f)].(string); ok {
			edits = append(edits, TextEdit(f, v))
		}
	}
	if langs, ok := body["languages"].(map[string]interface{}); ok {
		for _, lang := range Languages {
			if v, ok := langs[string(lang)].(bool); ok {
				edits = append(edits, LanguageEdit(lang, v))
			}
		}
	}
	return edits
}
