package promptbuilder

import (
	"context"
	"errors"
	"time"

	apperrors "prompt-builder/internal/common/errors"
	"prompt-builder/internal/common/logger"
	"prompt-builder/internal/common/metrics"
)

// ErrUnknownField is returned for edits naming no Form State field.
var ErrUnknownField = errors.New("unknown form field")

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeSkipped = "skipped"
)

const (
	finishAttempts = 5
	finishBackoff  = 200 * time.Millisecond
	finishTimeout  = 5 * time.Second
)

// Sender delivers a payload to the webhook.
type Sender interface {
	Send(ctx context.Context, payload interface{}) error
}

// Recorder receives submission measurements; observability.Observability
// implements it.
type Recorder interface {
	RecordSubmission(ctx context.Context, outcome string, duration time.Duration)
}

type ServiceDependencies struct {
	Store    Store
	Sender   Sender
	Logger   logger.Logger
	Recorder Recorder
	Clock    func() time.Time
	// SubmitLease is how long a submitting flag may stand before the
	// session is treated as idle again. Zero keeps it until cleared.
	SubmitLease time.Duration
}

// Service implements the form view operations for any number of sessions.
type Service struct {
	store    Store
	sender   Sender
	logger   logger.Logger
	recorder Recorder
	now      func() time.Time
	lease    time.Duration

	finishAttempts int
	finishBackoff  time.Duration
}

func NewService(deps ServiceDependencies) *Service {
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		store:    deps.Store,
		sender:   deps.Sender,
		logger:   log.With(map[string]interface{}{"component": "promptbuilder"}),
		recorder: deps.Recorder,
		now:      clock,
		lease:    deps.SubmitLease,

		finishAttempts: finishAttempts,
		finishBackoff:  finishBackoff,
	}
}

// releaseExpired clears a submitting flag whose lease ran out, which happens
// when the outcome of a submission could never be written back.
func (s *Service) releaseExpired(st *FormState) bool {
	if !st.Submitting || s.lease <= 0 || st.SubmittingSince == nil {
		return false
	}
	if s.now().Sub(*st.SubmittingSince) < s.lease {
		return false
	}
	st.Submitting = false
	st.SubmittingSince = nil
	return true
}

func (s *Service) logReleased(id string, released bool) {
	if released {
		s.logger.Warn("released expired submission lease", map[string]interface{}{
			"session": id,
			"lease":   s.lease.String(),
		})
	}
}

// View returns the session's state, creating it when missing.
func (s *Service) View(ctx context.Context, id string) (FormState, error) {
	var released bool
	state, err := s.store.Update(ctx, id, func(st *FormState) error {
		released = s.releaseExpired(st)
		return nil
	})
	if err != nil {
		return FormState{}, apperrors.NewStateStoreError(err)
	}
	s.logReleased(id, released)
	return state, nil
}

// Edit writes each field immediately. Edits are accepted while a submission
// is in flight; that submission keeps the snapshot it started with.
func (s *Service) Edit(ctx context.Context, id string, edits ...Edit) (FormState, error) {
	var unknown Field
	state, err := s.store.Update(ctx, id, func(st *FormState) error {
		for _, e := range edits {
			if err := st.apply(e); err != nil {
				unknown = e.Field
				return err
			}
		}
		return nil
	})
	if errors.Is(err, ErrUnknownField) {
		return FormState{}, apperrors.NewUnknownFieldError(string(unknown))
	}
	if err != nil {
		return FormState{}, apperrors.NewStateStoreError(err)
	}

	for _, e := range edits {
		metrics.FormEditsTotal.WithLabelValues(string(e.Field)).Inc()
	}
	return state, nil
}

// Submit sends one payload built from the current state. When a submission
// is already in flight it does nothing and reports Started=false.
func (s *Service) Submit(ctx context.Context, id string) (*Outcome, error) {
	var (
		started  bool
		released bool
		snapshot FormState
	)
	since := s.now()
	state, err := s.store.Update(ctx, id, func(st *FormState) error {
		started = false
		released = s.releaseExpired(st)
		if st.Submitting {
			return nil
		}
		st.Status = nil
		st.Submitting = true
		st.SubmittingSince = &since
		started = true
		snapshot = st.Clone()
		return nil
	})
	if err != nil {
		return nil, apperrors.NewStateStoreError(err)
	}
	s.logReleased(id, released)

	if !started {
		metrics.FormSubmissionsTotal.WithLabelValues(outcomeSkipped, "").Inc()
		s.logger.Info("submission already in flight", map[string]interface{}{
			"session": id,
		})
		return &Outcome{Started: false, State: state}, nil
	}

	metrics.FormSubmissionsInFlight.Inc()
	defer metrics.FormSubmissionsInFlight.Dec()

	// The call outlives the request that triggered it.
	sendCtx := context.WithoutCancel(ctx)

	payload := BuildPayload(snapshot, s.now())
	start := time.Now()
	sendErr := s.sender.Send(sendCtx, &payload)
	duration := time.Since(start)

	status := StatusSent
	outcome := outcomeSuccess
	if sendErr != nil {
		status = FailurePrefix + sendErr.Error()
		outcome = outcomeFailure
	}

	final, err := s.finish(sendCtx, id, since, status)

	s.record(sendCtx, id, outcome, sendErr, duration)

	if err != nil {
		s.logger.Error("failed to record submission outcome", map[string]interface{}{
			"session": id,
			"error":   err.Error(),
		})
		return nil, apperrors.NewStateStoreError(err)
	}

	return &Outcome{
		Started: true,
		State:   final,
		Payload: &payload,
		Err:     sendErr,
	}, nil
}

// finish writes the outcome and clears the submitting flag, retrying while
// the store is unavailable. A flag taken by a later submission is left alone.
func (s *Service) finish(ctx context.Context, id string, since time.Time, status string) (FormState, error) {
	var (
		state FormState
		err   error
	)
	for attempt := 1; attempt <= s.finishAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, finishTimeout)
		state, err = s.store.Update(attemptCtx, id, func(st *FormState) error {
			if st.SubmittingSince != nil && !st.SubmittingSince.Equal(since) {
				return nil
			}
			st.Status = &status
			st.Submitting = false
			st.SubmittingSince = nil
			return nil
		})
		cancel()
		if err == nil {
			return state, nil
		}

		if attempt < s.finishAttempts {
			s.logger.Warn("retrying submission outcome write", map[string]interface{}{
				"session": id,
				"attempt": attempt,
				"error":   err.Error(),
			})
			time.Sleep(s.finishBackoff * time.Duration(attempt))
		}
	}
	return FormState{}, err
}

func (s *Service) record(ctx context.Context, id, outcome string, sendErr error, duration time.Duration) {
	code := string(apperrors.CodeOf(sendErr))
	metrics.FormSubmissionsTotal.WithLabelValues(outcome, code).Inc()
	metrics.FormSubmissionDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	if s.recorder != nil {
		s.recorder.RecordSubmission(ctx, outcome, duration)
	}

	fields := map[string]interface{}{
		"session":    id,
		"outcome":    outcome,
		"durationMs": duration.Milliseconds(),
	}
	if sendErr != nil {
		fields["errorCode"] = code
		fields["errorCategory"] = apperrors.GetErrorCategory(apperrors.ErrorCode(code))
		fields["error"] = sendErr.Error()
		s.logger.Error("payload delivery failed", fields)
		return
	}
	s.logger.Info("payload delivered", fields)
}

// Reset clears every field and the status. It does nothing while a
// submission is in flight and then reports false.
func (s *Service) Reset(ctx context.Context, id string) (FormState, bool, error) {
	var cleared, released bool
	state, err := s.store.Update(ctx, id, func(st *FormState) error {
		cleared = false
		released = s.releaseExpired(st)
		if st.Submitting {
			return nil
		}
		st.clearFields()
		cleared = true
		return nil
	})
	if err != nil {
		return FormState{}, false, apperrors.NewStateStoreError(err)
	}
	s.logReleased(id, released)
	return state, cleared, nil
}

// Preview returns the payload Submit would send right now.
func (s *Service) Preview(ctx context.Context, id string) (Payload, error) {
	state, err := s.store.Load(ctx, id)
	if err != nil {
		return Payload{}, apperrors.NewStateStoreError(err)
	}
	return BuildPayload(state, s.now()), nil
}
