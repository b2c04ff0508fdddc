package promptbuilder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	apperrors "prompt-builder/internal/common/errors"
	"prompt-builder/internal/common/logger"
	"prompt-builder/pkg/registry"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handlerFixture struct {
	router http.Handler
	store  *MemoryStore
	sender *recordingSender
}

func createTestConfig() *Config {
	cfg := DefaultConfig()
	cfg.CleanupInterval = 0
	return cfg
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	sender := &recordingSender{}
	svc, store := newTestService(t, sender)

	h, err := NewHandler(HandlerOptions{
		Service:  svc,
		Registry: registry.Default(),
		Config:   createTestConfig(),
		Logger:   logger.NewTestLogger(t),
	})
	require.NoError(t, err)

	r := chi.NewRouter()
	h.Routes(r)
	return &handlerFixture{router: r, store: store, sender: sender}
}

func (f *handlerFixture) do(t *testing.T, method, target, contentType string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.AddCookie(&http.Cookie{Name: "pb_session", Value: testSession})
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *handlerFixture) setState(t *testing.T, fn func(*FormState)) {
	t.Helper()
	_, err := f.store.Update(context.Background(), testSession, func(st *FormState) error {
		fn(st)
		return nil
	})
	require.NoError(t, err)
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

// ==========================
// Session cookie
// ==========================

func TestHandler_IssuesSessionCookie(t *testing.T) {
	f := newHandlerFixture(t)

	for _, cookie := range []*http.Cookie{nil, {Name: "pb_session", Value: "not-a-uuid"}} {
		req := httptest.NewRequest(http.MethodGet, "/api/form", nil)
		if cookie != nil {
			req.AddCookie(cookie)
		}
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)

		c := cookies[0]
		assert.Equal(t, "pb_session", c.Name)
		_, err := uuid.Parse(c.Value)
		assert.NoError(t, err)
		assert.True(t, c.HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
		assert.Equal(t, int((24 * time.Hour).Seconds()), c.MaxAge)
	}
}

func TestHandler_KeepsValidSession(t *testing.T) {
	f := newHandlerFixture(t)
	rec := f.do(t, http.MethodGet, "/api/form", "", "")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, testSession, cookies[0].Value)
}

// ==========================
// HTML page
// ==========================

func TestHandler_GetPage(t *testing.T) {
	f := newHandlerFixture(t)
	rec := f.do(t, http.MethodGet, "/", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	for _, field := range registry.Default().Fields {
		assert.Contains(t, body, field.Label)
	}
	assert.Contains(t, body, "Enter agent name")
	assert.Contains(t, body, ButtonIdle)
	assert.NotContains(t, body, ButtonSending)
	assert.NotContains(t, body, `class="primary" disabled`)
	assert.NotContains(t, body, `role="status"`)
}

func TestHandler_GetPageWhileSubmitting(t *testing.T) {
	f := newHandlerFixture(t)
	f.setState(t, func(st *FormState) { st.Submitting = true })

	body := f.do(t, http.MethodGet, "/", "", "").Body.String()
	assert.Contains(t, body, ButtonSending)
	assert.Contains(t, body, `class="primary" disabled`)
	assert.NotContains(t, body, ButtonIdle)
}

func TestHandler_GetPageShowsStateEscaped(t *testing.T) {
	f := newHandlerFixture(t)
	failed := "Failed to send: 500 Internal Server Error - <b>down</b>"
	f.setState(t, func(st *FormState) {
		st.AgentName = `<script>alert(1)</script>`
		st.Hindi = true
		st.Status = &failed
	})

	body := f.do(t, http.MethodGet, "/", "", "").Body.String()
	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.Contains(t, body, "&lt;script&gt;")
	assert.Contains(t, body, `value="Hindi" checked`)
	assert.NotContains(t, body, `value="English" checked`)
	assert.Contains(t, body, `class="status failed"`)
	assert.Contains(t, body, "&lt;b&gt;down&lt;/b&gt;")
}

func TestHandler_PostPageSubmits(t *testing.T) {
	f := newHandlerFixture(t)

	form := url.Values{
		"agent_name":        {"Sales Bot"},
		"languages":         {"Hindi", "English"},
		"objective":         {"Book meetings"},
		"ideal_next_steps":  {"Send calendar link"},
		"faqs_or_documents": {""},
		"sample_transcript": {""},
		"action":            {"submit"},
	}
	rec := f.do(t, http.MethodPost, "/", "application/x-www-form-urlencoded", form.Encode())

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	require.Equal(t, 1, f.sender.calls())
	sent := f.sender.payloads[0]
	assert.Equal(t, "Sales Bot", *sent.AgentName)
	assert.Equal(t, []string{"English", "Hindi"}, sent.Languages)
	assert.Nil(t, sent.FAQsOrDocuments)

	body := f.do(t, http.MethodGet, "/", "", "").Body.String()
	assert.Contains(t, body, StatusSent)
	assert.Contains(t, body, `value="Sales Bot"`)
}

func TestHandler_PostPageUncheckedLanguages(t *testing.T) {
	f := newHandlerFixture(t)
	f.setState(t, func(st *FormState) { st.English = true })

	rec := f.do(t, http.MethodPost, "/", "application/x-www-form-urlencoded", url.Values{"agent_name": {"Bot"}}.Encode())
	require.Equal(t, http.StatusSeeOther, rec.Code)

	require.Equal(t, 1, f.sender.calls())
	assert.Equal(t, []string{}, f.sender.payloads[0].Languages)
}

func TestHandler_PostPageNormalizesLineBreaks(t *testing.T) {
	f := newHandlerFixture(t)

	form := url.Values{
		"agent_name":       {"Bot"},
		"ideal_next_steps": {"line1\r\nline2\r\n"},
		"objective":        {"keeps a lone \r as typed"},
	}
	rec := f.do(t, http.MethodPost, "/", "application/x-www-form-urlencoded", form.Encode())
	require.Equal(t, http.StatusSeeOther, rec.Code)

	require.Equal(t, 1, f.sender.calls())
	sent := f.sender.payloads[0]
	assert.Equal(t, "line1\nline2\n", *sent.IdealNextSteps)
	assert.Equal(t, "keeps a lone \r as typed", *sent.Objective)
}

func TestHandler_TextareaKeepsLeadingNewline(t *testing.T) {
	f := newHandlerFixture(t)
	f.setState(t, func(st *FormState) {
		st.SampleTranscript = "\nStarts with a blank line"
	})

	body := f.do(t, http.MethodGet, "/", "", "").Body.String()
	// the first newline after <textarea> is dropped when parsed
	assert.Contains(t, body, ">\n\nStarts with a blank line</textarea>")
}

func TestHandler_PostPageCancel(t *testing.T) {
	f := newHandlerFixture(t)
	f.setState(t, func(st *FormState) {
		st.AgentName = "Sales Bot"
		st.English = true
	})

	form := url.Values{"agent_name": {"Other"}, "action": {"cancel"}}
	rec := f.do(t, http.MethodPost, "/", "application/x-www-form-urlencoded", form.Encode())
	require.Equal(t, http.StatusSeeOther, rec.Code)

	state, err := f.store.Load(context.Background(), testSession)
	require.NoError(t, err)
	assert.Equal(t, "", state.AgentName)
	assert.False(t, state.English)
	assert.Equal(t, 0, f.sender.calls())
}

// ==========================
// JSON API
// ==========================

func TestHandler_PatchForm(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodPatch, "/api/form", "application/json",
		`{"agent_name":"Sales Bot","languages":{"Hindi":true},"objective":"  "}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var state FormState
	decodeJSON(t, rec, &state)
	assert.Equal(t, "Sales Bot", state.AgentName)
	assert.True(t, state.Hindi)
	assert.False(t, state.English)
	assert.Equal(t, "  ", state.Objective)
}

func TestHandler_PatchFormInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		code apperrors.ErrorCode
	}{
		{name: "malformed json", body: `{"agent_name":`, code: apperrors.ErrCodeInvalidBody},
		{name: "not an object", body: `["agent_name"]`, code: apperrors.ErrCodeInvalidBody},
		{name: "empty object", body: `{}`, code: apperrors.ErrCodeValidationFailed},
		{name: "number for text", body: `{"agent_name":42}`, code: apperrors.ErrCodeValidationFailed},
		{name: "null for text", body: `{"objective":null}`, code: apperrors.ErrCodeValidationFailed},
		{name: "unknown key", body: `{"color":"blue"}`, code: apperrors.ErrCodeValidationFailed},
		{name: "unknown language", body: `{"languages":{"French":true}}`, code: apperrors.ErrCodeValidationFailed},
		{name: "string for toggle", body: `{"languages":{"English":"yes"}}`, code: apperrors.ErrCodeValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHandlerFixture(t)
			rec := f.do(t, http.MethodPatch, "/api/form", "application/json", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var stdErr apperrors.StandardError
			decodeJSON(t, rec, &stdErr)
			assert.Equal(t, tt.code, stdErr.Code)
		})
	}
}

func TestHandler_SubmitAPI(t *testing.T) {
	f := newHandlerFixture(t)
	f.setState(t, func(st *FormState) { st.AgentName = "Sales Bot" })

	rec := f.do(t, http.MethodPost, "/api/form/submit", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp submitResponse
	decodeJSON(t, rec, &resp)
	assert.True(t, resp.Started)
	assert.Equal(t, StatusSent, resp.State.StatusText())
	require.NotNil(t, resp.Payload)
	assert.Equal(t, "Sales Bot", *resp.Payload.AgentName)
	assert.Nil(t, resp.Error)
}

func TestHandler_SubmitAPIFailureIsReported(t *testing.T) {
	f := newHandlerFixture(t)
	f.sender.err = errors.New("dial tcp: connection refused")

	rec := f.do(t, http.MethodPost, "/api/form/submit", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp submitResponse
	decodeJSON(t, rec, &resp)
	assert.Equal(t, "Failed to send: dial tcp: connection refused", resp.State.StatusText())
	assert.False(t, resp.State.Submitting)
}

func TestHandler_SubmitAPIInFlight(t *testing.T) {
	f := newHandlerFixture(t)
	f.setState(t, func(st *FormState) { st.Submitting = true })

	rec := f.do(t, http.MethodPost, "/api/form/submit", "", "")
	require.Equal(t, http.StatusConflict, rec.Code)

	var resp submitResponse
	decodeJSON(t, rec, &resp)
	assert.False(t, resp.Started)
	assert.True(t, resp.State.Submitting)
	require.NotNil(t, resp.Error)
	assert.Equal(t, apperrors.ErrCodeSubmissionInFlight, resp.Error.Code)
	assert.Equal(t, 0, f.sender.calls())
}

func TestHandler_ResetAPI(t *testing.T) {
	f := newHandlerFixture(t)
	f.setState(t, func(st *FormState) { st.Objective = "Book meetings" })

	rec := f.do(t, http.MethodPost, "/api/form/reset", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp resetResponse
	decodeJSON(t, rec, &resp)
	assert.True(t, resp.Cleared)
	assert.Equal(t, "", resp.State.Objective)

	f.setState(t, func(st *FormState) {
		st.Objective = "again"
		st.Submitting = true
	})
	rec = f.do(t, http.MethodPost, "/api/form/reset", "", "")
	decodeJSON(t, rec, &resp)
	assert.False(t, resp.Cleared)
	assert.Equal(t, "again", resp.State.Objective)
}

func TestHandler_PreviewAPI(t *testing.T) {
	f := newHandlerFixture(t)
	f.setState(t, func(st *FormState) { *st = salesBotState() })

	rec := f.do(t, http.MethodGet, "/api/payload/preview", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	validatePayloadSchema(t, rec.Body.Bytes())

	var payload Payload
	decodeJSON(t, rec, &payload)
	assert.Equal(t, BuildPayload(salesBotState(), fixedNow), payload)
	assert.Equal(t, 0, f.sender.calls())
}

func TestHandler_SchemaAPI(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodGet, "/api/schema", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Registry registry.FieldRegistry `json:"registry"`
		Payload  map[string]interface{} `json:"payload"`
	}
	decodeJSON(t, rec, &resp)
	assert.Len(t, resp.Registry.Fields, len(registry.RequiredFieldIDs))
	assert.Equal(t, "object", resp.Payload["type"])
}

func TestNewHandler_InvalidConfig(t *testing.T) {
	cfg := createTestConfig()
	cfg.CookieName = ""

	_, err := NewHandler(HandlerOptions{Config: cfg})
	assert.Error(t, err)
}
