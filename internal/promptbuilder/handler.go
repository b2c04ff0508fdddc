package promptbuilder

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"strings"
	"time"

	apperrors "prompt-builder/internal/common/errors"
	"prompt-builder/internal/common/logger"
	"prompt-builder/internal/common/validation"
	"prompt-builder/pkg/registry"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	ButtonIdle    = "Generate Agent"
	ButtonSending = "Sending..."

	actionCancel   = "cancel"
	languagesInput = registry.LanguagesID
	maxBodyBytes   = 1 << 20
)

//go:embed templates/*.html
var templateFS embed.FS

type HandlerOptions struct {
	Service  *Service
	Registry *registry.FieldRegistry
	Config   *Config
	Logger   logger.Logger
}

// Handler serves the form page and its JSON API.
type Handler struct {
	service  *Service
	registry *registry.FieldRegistry
	config   *Config
	logger   logger.Logger
	page     *template.Template
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	reg := opts.Registry
	if reg == nil {
		reg = registry.Default()
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	page, err := template.ParseFS(templateFS, "templates/form.html")
	if err != nil {
		return nil, err
	}

	return &Handler{
		service:  opts.Service,
		registry: reg,
		config:   cfg,
		logger:   log.With(map[string]interface{}{"component": "promptbuilder.handler"}),
		page:     page,
	}, nil
}

// Routes registers the page and API endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.getPage)
	r.Post("/", h.postPage)

	r.Route("/api", func(r chi.Router) {
		r.Get("/form", h.getForm)
		r.Patch("/form", h.patchForm)
		r.Post("/form/submit", h.submitForm)
		r.Post("/form/reset", h.resetForm)
		r.Get("/payload/preview", h.previewPayload)
		r.Get("/schema", h.getSchema)
	})
}

// session returns the caller's session id, issuing a new cookie when the
// request carries none or an invalid one. The cookie is refreshed either way.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) string {
	id := ""
	if c, err := r.Cookie(h.config.CookieName); err == nil {
		if parsed, err := uuid.Parse(c.Value); err == nil {
			id = parsed.String()
		}
	}
	if id == "" {
		id = uuid.NewString()
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.config.CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(h.config.SessionTTL / time.Second),
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

type optionView struct {
	Value   string
	Checked bool
}

type fieldView struct {
	registry.Field
	Value   string
	Choices []optionView
}

type pageView struct {
	Title       string
	Subtitle    string
	Intro       string
	Fields      []fieldView
	Submitting  bool
	ButtonLabel string
	Status      string
	HasStatus   bool
	Failed      bool
}

func (h *Handler) buildPage(state FormState) pageView {
	view := pageView{
		Title:       h.registry.Title,
		Subtitle:    h.registry.Subtitle,
		Intro:       h.registry.Intro,
		Submitting:  state.Submitting,
		ButtonLabel: ButtonIdle,
		Status:      state.StatusText(),
		HasStatus:   state.Status != nil,
	}
	if state.Submitting {
		view.ButtonLabel = ButtonSending
	}
	if view.HasStatus && view.Status != StatusSent {
		view.Failed = true
	}

	for _, f := range h.registry.Fields {
		fv := fieldView{Field: f}
		if f.Kind == registry.KindCheckboxGroup {
			for _, opt := range f.Options {
				fv.Choices = append(fv.Choices, optionView{
					Value:   opt,
					Checked: state.Selected(Language(opt)),
				})
			}
		} else {
			fv.Value, _ = state.Text(Field(f.ID))
		}
		view.Fields = append(view.Fields, fv)
	}
	return view
}

func (h *Handler) getPage(w http.ResponseWriter, r *http.Request) {
	id := h.session(w, r)

	state, err := h.service.View(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := h.page.Execute(w, h.buildPage(state)); err != nil {
		h.logger.Error("failed to render page", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// postPage handles the HTML form. The whole form is posted, so unchecked
// language boxes are read as false.
func (h *Handler) postPage(w http.ResponseWriter, r *http.Request) {
	id := h.session(w, r)
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		h.writeError(w, apperrors.NewInvalidBodyError(err))
		return
	}

	if r.PostFormValue("action") == actionCancel {
		if _, _, err := h.service.Reset(ctx, id); err != nil {
			h.writeError(w, err)
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if _, err := h.service.Edit(ctx, id, formEdits(r)...); err != nil {
		h.writeError(w, err)
		return
	}
	if _, err := h.service.Submit(ctx, id); err != nil {
		h.writeError(w, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func formEdits(r *http.Request) []Edit {
	edits := make([]Edit, 0, len(TextFields)+len(Languages))
	for _, f := range TextFields {
		if values, ok := r.PostForm[string(f)]; ok && len(values) > 0 {
			edits = append(edits, TextEdit(f, normalizeNewlines(values[0])))
		}
	}

	checked := make(map[string]bool)
	for _, v := range r.PostForm[languagesInput] {
		checked[v] = true
	}
	for _, lang := range Languages {
		edits = append(edits, LanguageEdit(lang, checked[string(lang)]))
	}
	return edits
}

// normalizeNewlines turns the CRLF line breaks browsers post for textareas
// back into the LF the user typed.
func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

func (h *Handler) getForm(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.View(r.Context(), h.session(w, r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, state)
}

func (h *Handler) patchForm(w http.ResponseWriter, r *http.Request) {
	id := h.session(w, r)

	var body map[string]interface{}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		h.writeError(w, apperrors.NewInvalidBodyError(err))
		return
	}

	result := validation.ValidateInput(body, GetEditSchema())
	if !result.Valid {
		h.writeError(w, apperrors.NewValidationFailedError(result.GetErrorMessages()))
		return
	}

	state, err := h.service.Edit(r.Context(), id, editsFromBody(body)...)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, state)
}

type submitResponse struct {
	Started bool                     `json:"started"`
	State   FormState                `json:"state"`
	Payload *Payload                 `json:"payload,omitempty"`
	Error   *apperrors.StandardError `json:"error,omitempty"`
}

// submitForm answers 200 once the submission has finished, whatever its
// outcome, and 409 when one was already in flight.
func (h *Handler) submitForm(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.service.Submit(r.Context(), h.session(w, r))
	if err != nil {
		h.writeError(w, err)
		return
	}

	if !outcome.Started {
		h.writeJSON(w, http.StatusConflict, submitResponse{
			Started: false,
			State:   outcome.State,
			Error:   apperrors.NewSubmissionInFlightError(),
		})
		return
	}

	h.writeJSON(w, http.StatusOK, submitResponse{
		Started: true,
		State:   outcome.State,
		Payload: outcome.Payload,
	})
}

type resetResponse struct {
	Cleared bool      `json:"cleared"`
	State   FormState `json:"state"`
}

func (h *Handler) resetForm(w http.ResponseWriter, r *http.Request) {
	state, cleared, err := h.service.Reset(r.Context(), h.session(w, r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resetResponse{Cleared: cleared, State: state})
}

func (h *Handler) previewPayload(w http.ResponseWriter, r *http.Request) {
	payload, err := h.service.Preview(r.Context(), h.session(w, r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, payload)
}

type schemaResponse struct {
	Registry *registry.FieldRegistry `json:"registry"`
	Payload  json.RawMessage         `json:"payload"`
}

func (h *Handler) getSchema(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, schemaResponse{
		Registry: h.registry,
		Payload:  json.RawMessage(PayloadSchema),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("failed to write response", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	stdErr := apperrors.ToStandardError(err)
	status := apperrors.HTTPStatus(stdErr.Code)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", map[string]interface{}{
			"errorCode": stdErr.Code,
			"error":     err.Error(),
		})
	}
	h.writeJSON(w, status, stdErr)
}
