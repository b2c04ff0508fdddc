package promptbuilder

import (
	"testing"
	"time"

	"prompt-builder/internal/common/validation"
	"prompt-builder/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormState_Apply(t *testing.T) {
	var state FormState

	for _, e := range []Edit{
		TextEdit(FieldAgentName, "Sales Bot"),
		TextEdit(FieldObjective, "Book meetings"),
		TextEdit(FieldIdealNextSteps, "Send calendar link"),
		TextEdit(FieldFAQsOrDocuments, "Q: price?"),
		TextEdit(FieldSampleTranscript, "Agent: hi"),
		LanguageEdit(Hindi, true),
	} {
		require.NoError(t, state.apply(e))
	}

	for _, f := range TextFields {
		v, ok := state.Text(f)
		assert.True(t, ok)
		assert.NotEmpty(t, v, string(f))
	}
	assert.Equal(t, []string{"Hindi"}, state.SelectedLanguages())

	assert.ErrorIs(t, state.apply(TextEdit("languages", "English")), ErrUnknownField)
	_, ok := state.Text(FieldEnglish)
	assert.False(t, ok)
}

func TestFormState_Clone(t *testing.T) {
	status := StatusSent
	since := fixedNow
	state := FormState{AgentName: "a", Status: &status, SubmittingSince: &since}

	clone := state.Clone()
	*clone.Status = "changed"
	*clone.SubmittingSince = since.Add(time.Hour)

	assert.Equal(t, StatusSent, state.StatusText())
	assert.Equal(t, fixedNow, *state.SubmittingSince)
	assert.Equal(t, "", FormState{}.StatusText())
}

func TestFormState_ClearFields(t *testing.T) {
	status := StatusSent
	state := salesBotState()
	state.Status = &status
	state.Submitting = true

	state.clearFields()
	assert.Equal(t, FormState{Submitting: true}, state)
}

func TestLanguageField(t *testing.T) {
	assert.Equal(t, FieldEnglish, LanguageField(English))
	assert.Equal(t, FieldHindi, LanguageField(Hindi))
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.SessionTTL = 0
	assert.Error(t, cfg.Validate())
}

func TestEditsFromBody(t *testing.T) {
	body := map[string]interface{}{
		"sample_transcript": "t",
		"agent_name":        "",
		"languages":         map[string]interface{}{"Hindi": true, "English": false},
	}
	require.True(t, validation.ValidateInput(body, GetEditSchema()).Valid)

	assert.Equal(t, []Edit{
		TextEdit(FieldAgentName, ""),
		TextEdit(FieldSampleTranscript, "t"),
		LanguageEdit(English, false),
		LanguageEdit(Hindi, true),
	}, editsFromBody(body))
}

func TestRegistryMatchesFormState(t *testing.T) {
	ids := make([]string, 0, len(TextFields)+1)
	for _, f := range TextFields {
		ids = append(ids, string(f))
	}
	ids = append(ids, registry.LanguagesID)
	assert.ElementsMatch(t, ids, registry.RequiredFieldIDs)

	langs := make([]string, 0, len(Languages))
	for _, l := range Languages {
		langs = append(langs, string(l))
	}
	assert.Equal(t, langs, registry.LanguageOptions)
}
