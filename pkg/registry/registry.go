// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
)

// RequiredFieldIDs lists the ids every registry must define.
var RequiredFieldIDs = []string{
	"agent_name",
	"languages",
	"objective",
	"ideal_next_steps",
	"faqs_or_documents",
	"sample_transcript",
}

func LoadRegistry(path string) (*FieldRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg FieldRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return &reg, nil
}

// LoadOrDefault loads path, or returns the built-in registry when path is empty.
func LoadOrDefault(path string) (*FieldRegistry, error) {
	if path == "" {
		return Default(), nil
	}
	reg, err := LoadRegistry(path)
	if err != nil {
		return nil, err
	}
	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid registry %s: %w", path, err)
	}
	return reg, nil
}

// LanguagesID is the one checkbox_group field.
const LanguagesID = "languages"

// LanguageOptions are the choices the languages field may offer.
var LanguageOptions = []string{"English", "Hindi"}

// Validate checks ids are unique and known, each field has a kind its
// Form State field can hold, and all required ids exist.
func (r *FieldRegistry) Validate() error {
	seen := make(map[string]bool, len(r.Fields))
	for i, f := range r.Fields {
		if f.ID == "" {
			return fmt.Errorf("fields[%d]: id is required", i)
		}
		if seen[f.ID] {
			return fmt.Errorf("fields[%d]: duplicate id %q", i, f.ID)
		}
		seen[f.ID] = true

		switch f.Kind {
		case KindText, KindTextarea, KindCheckboxGroup:
		default:
			return fmt.Errorf("field %q: unknown kind %q", f.ID, f.Kind)
		}
		if err := checkShape(f); err != nil {
			return err
		}

		if f.Label == "" {
			return fmt.Errorf("field %q: label is required", f.ID)
		}
	}

	for _, id := range RequiredFieldIDs {
		if !seen[id] {
			return fmt.Errorf("missing field %q", id)
		}
	}
	return nil
}

func checkShape(f Field) error {
	if !contains(RequiredFieldIDs, f.ID) {
		return fmt.Errorf("unknown field %q", f.ID)
	}

	if f.ID != LanguagesID {
		if f.Kind == KindCheckboxGroup {
			return fmt.Errorf("field %q: kind must be %q or %q", f.ID, KindText, KindTextarea)
		}
		if len(f.Options) > 0 {
			return fmt.Errorf("field %q: options are only allowed on %q", f.ID, LanguagesID)
		}
		return nil
	}

	if f.Kind != KindCheckboxGroup {
		return fmt.Errorf("field %q: kind must be %q", f.ID, KindCheckboxGroup)
	}
	if len(f.Options) == 0 {
		return fmt.Errorf("field %q: checkbox_group needs options", f.ID)
	}
	listed := make(map[string]bool, len(f.Options))
	for _, opt := range f.Options {
		if !contains(LanguageOptions, opt) {
			return fmt.Errorf("field %q: unsupported option %q", f.ID, opt)
		}
		if listed[opt] {
			return fmt.Errorf("field %q: duplicate option %q", f.ID, opt)
		}
		listed[opt] = true
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// Field returns the field with the given id.
func (r *FieldRegistry) Field(id string) (Field, bool) {
	for _, f := range r.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// Default is the registry matching the stock prompt-builder page.
func Default() *FieldRegistry {
	return &FieldRegistry{
		Version:  "1.0.0",
		Title:    "Select your use case and let AI build your agent",
		Subtitle: "You can always modify & edit it later.",
		Intro:    "Tell us about your ideal agent and we'll help you build it step by step.",
		Fields: []Field{
			{
				ID:          "agent_name",
				Label:       "Name of Agent",
				Placeholder: "Enter agent name",
				Kind:        KindText,
				Required:    true,
			},
			{
				ID:       LanguagesID,
				Label:    "Languages",
				Kind:     KindCheckboxGroup,
				Required: true,
				Options:  []string{"English", "Hindi"},
			},
			{
				ID:          "objective",
				Label:       "What do you want to achieve in this call?",
				Placeholder: "Be descriptive as you would to a human who you are asking to lead the call...",
				Kind:        KindTextarea,
				Required:    true,
			},
			{
				ID:          "ideal_next_steps",
				Label:       "Ideal Next Steps after this call",
				Placeholder: "Describe what should happen after the call is completed...",
				Kind:        KindTextarea,
				Required:    true,
			},
			{
				ID:          "faqs_or_documents",
				Label:       "FAQs / Business Documents / Any information",
				Placeholder: "Add any relevant FAQs, business documents, or additional information...",
				Kind:        KindTextarea,
			},
			{
				ID:          "sample_transcript",
				Label:       "Sample Transcript",
				Placeholder: "Provide a sample conversation transcript to help guide the agent...",
				Kind:        KindTextarea,
			},
		},
	}
}
