package promptbuilder

import (
	"time"
)

// Language is one of the selectable agent languages.
type Language string

const (
	English Language = "English"
	Hindi   Language = "Hindi"
)

// Languages is the fixed serialisation order.
var Languages = []Language{English, Hindi}

// Field names a Form State field that can be edited.
type Field string

const (
	FieldAgentName        Field = "agent_name"
	FieldObjective        Field = "objective"
	FieldIdealNextSteps   Field = "ideal_next_steps"
	FieldFAQsOrDocuments  Field = "faqs_or_documents"
	FieldSampleTranscript Field = "sample_transcript"
	FieldEnglish          Field = "languages.English"
	FieldHindi            Field = "languages.Hindi"
)

// TextFields are the free-text fields, in page order.
var TextFields = []Field{
	FieldAgentName,
	FieldObjective,
	FieldIdealNextSteps,
	FieldFAQsOrDocuments,
	FieldSampleTranscript,
}

// LanguageField returns the toggle field for lang.
func LanguageField(lang Language) Field {
	return Field("languages." + string(lang))
}

const (
	// Source tags every payload sent by this service.
	Source = "prompt-builder-ui"

	StatusSent    = "Sent successfully."
	FailurePrefix = "Failed to send: "
)

// FormState is the editable state of one view. Required markers on the page
// are visual only; nothing here is validated.
type FormState struct {
	AgentName        string `json:"agent_name"`
	English          bool   `json:"english"`
	Hindi            bool   `json:"hindi"`
	Objective        string `json:"objective"`
	IdealNextSteps   string `json:"ideal_next_steps"`
	FAQsOrDocuments  string `json:"faqs_or_documents"`
	SampleTranscript string `json:"sample_transcript"`
	Submitting       bool   `json:"submitting"`
	// SubmittingSince is when the current submission took the flag.
	SubmittingSince *time.Time `json:"submitting_since,omitempty"`
	Status          *string    `json:"status"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Clone returns a copy that shares no pointers with s.
func (s FormState) Clone() FormState {
	out := s
	if s.Status != nil {
		status := *s.Status
		out.Status = &status
	}
	if s.SubmittingSince != nil {
		since := *s.SubmittingSince
		out.SubmittingSince = &since
	}
	return out
}

// StatusText returns the status message or "".
func (s FormState) StatusText() string {
	if s.Status == nil {
		return ""
	}
	return *s.Status
}

// Text returns the value of a text field.
func (s FormState) Text(f Field) (string, bool) {
	switch f {
	case FieldAgentName:
		return s.AgentName, true
	case FieldObjective:
		return s.Objective, true
	case FieldIdealNextSteps:
		return s.IdealNextSteps, true
	case FieldFAQsOrDocuments:
		return s.FAQsOrDocuments, true
	case FieldSampleTranscript:
		return s.SampleTranscript, true
	}
	return "", false
}

// Selected reports whether lang is toggled on.
func (s FormState) Selected(lang Language) bool {
	switch lang {
	case English:
		return s.English
	case Hindi:
		return s.Hindi
	}
	return false
}

// SelectedLanguages lists toggled languages in fixed order, never nil.
func (s FormState) SelectedLanguages() []string {
	out := make([]string, 0, len(Languages))
	for _, lang := range Languages {
		if s.Selected(lang) {
			out = append(out, string(lang))
		}
	}
	return out
}

// Edit is a single field write.
type Edit struct {
	Field   Field
	Value   string
	Checked bool
}

func TextEdit(f Field, value string) Edit {
	return Edit{Field: f, Value: value}
}

func LanguageEdit(lang Language, checked bool) Edit {
	return Edit{Field: LanguageField(lang), Checked: checked}
}

func (s *FormState) apply(e Edit) error {
	switch e.Field {
	case FieldAgentName:
		s.AgentName = e.Value
	case FieldObjective:
		s.Objective = e.Value
	case FieldIdealNextSteps:
		s.IdealNextSteps = e.Value
	case FieldFAQsOrDocuments:
		s.FAQsOrDocuments = e.Value
	case FieldSampleTranscript:
		s.SampleTranscript = e.Value
	case FieldEnglish:
		s.English = e.Checked
	case FieldHindi:
		s.Hindi = e.Checked
	default:
		return ErrUnknownField
	}
	return nil
}

func (s *FormState) clearFields() {
	s.AgentName = ""
	s.English = false
	s.Hindi = false
	s.Objective = ""
	s.IdealNextSteps = ""
	s.FAQsOrDocuments = ""
	s.SampleTranscript = ""
	s.Status = nil
}

// Outcome describes one Submit call.
type Outcome struct {
	// Started is false when a submission was already in flight.
	Started bool
	State   FormState
	Payload *Payload
	// Err is the delivery failure, already reflected in State.Status.
	Err error
}
