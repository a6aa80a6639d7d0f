// Package lead holds the contact form: field state, honeypot filtering and the single lead write.
package lead

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"valetsite/internal/content"
	"valetsite/internal/domain"
	"valetsite/internal/notify"
)

var (
	ErrValidation   = errors.New("missing required field")
	ErrInFlight     = errors.New("a submission is already in flight")
	ErrUnknownField = errors.New("unknown form field")
	ErrSubmit       = errors.New("lead submission failed")
	ErrRateLimited  = errors.New("too many submissions")
)

// ValidationError lists the required fields that were blank.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(e.Missing, ", "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Phase is where a Form is in its submit cycle:
// Idle → Submitting → Succeeded → Idle (auto-hide), or Submitting → Failed → Idle (edit or resubmit).
type Phase int

const (
	Idle Phase = iota
	Submitting
	Succeeded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Fields are the raw form values. Company is the honeypot and is never stored.
type Fields struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
	Company string `json:"company"`
}

func (f Fields) trimmed() Fields {
	return Fields{
		Name:    strings.TrimSpace(f.Name),
		Email:   strings.TrimSpace(f.Email),
		Phone:   strings.TrimSpace(f.Phone),
		Subject: strings.TrimSpace(f.Subject),
		Message: strings.TrimSpace(f.Message),
		Company: strings.TrimSpace(f.Company),
	}
}

// Validate reports blank required fields (name, message).
func (f Fields) Validate() error {
	t := f.trimmed()
	var missing []string
	if t.Name == "" {
		missing = append(missing, "name")
	}
	if t.Message == "" {
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

func (f Fields) IsSpam() bool { return strings.TrimSpace(f.Company) != "" }

// Config is what a Form needs beyond its fields: where leads go and what the notices say.
type Config struct {
	Collection string
	Phone      notify.Phone
	AutoHide   time.Duration
}

// Outcome is the result of one Submit.
type Outcome struct {
	Phase    Phase         `json:"phase"`
	Notice   notify.Notice `json:"notice"`
	RecordID string        `json:"-"`
	// Filtered is true when the honeypot caught the submission. Never shown to the submitter.
	Filtered bool `json:"-"`
}

// Option customizes a Form.
type Option func(*Form)

func WithClock(c Clock) Option        { return func(f *Form) { f.clock = c } }
func WithLogger(l *zap.Logger) Option { return func(f *Form) { f.log = l } }

// Form is one contact form instance. It allows a single submission in flight.
type Form struct {
	store content.Store
	cfg   Config
	clock Clock
	log   *zap.Logger

	mu     sync.Mutex
	fields Fields
	phase  Phase
	notice *notify.Notice
	hide   Timer
	gen    int
}

func NewForm(store content.Store, cfg Config, opts ...Option) *Form {
	f := &Form{store: store, cfg: cfg, clock: SystemClock{}, log: zap.NewNop()}
	for _, o := range opts {
		o(f)
	}
	if f.log == nil {
		f.log = zap.NewNop()
	}
	return f
}

// Set updates one field by its form name. Editing after a failure returns the form to Idle.
// The contact page script applies the same rule in the browser: the first edit after a
// failed post clears the failure notice (see guardForms in site.js).
func (f *Form) Set(field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch field {
	case "name":
		f.fields.Name = value
	case "email":
		f.fields.Email = value
	case "phone":
		f.fields.Phone = value
	case "subject":
		f.fields.Subject = value
	case "message":
		f.fields.Message = value
	case "company":
		f.fields.Company = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	if f.phase == Failed {
		f.phase = Idle
		f.notice = nil
	}
	return nil
}

// Fill replaces every field at once, as a posted form does.
func (f *Form) Fill(fields Fields) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields = fields
	if f.phase == Failed {
		f.phase = Idle
		f.notice = nil
	}
}

func (f *Form) Fields() Fields {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields
}

func (f *Form) Phase() Phase {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phase
}

// Notice is the confirmation currently on screen, if any.
func (f *Form) Notice() (notify.Notice, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.notice == nil {
		return notify.Notice{}, false
	}
	return *f.notice, true
}

// Submit sends the lead. pageURL is the page the form was posted from.
func (f *Form) Submit(ctx context.Context, pageURL string) (Outcome, error) {
	f.mu.Lock()
	if f.phase == Submitting {
		f.mu.Unlock()
		return Outcome{Phase: Submitting}, ErrInFlight
	}
	f.resetLocked()

	fields := f.fields.trimmed()

	if fields.IsSpam() {
		out := f.succeedLocked()
		out.Filtered = true
		f.mu.Unlock()
		f.log.Info("lead filtered by honeypot", zap.String("page_url", pageURL))
		return out, nil
	}

	if err := fields.Validate(); err != nil {
		f.mu.Unlock()
		return Outcome{Phase: Idle}, err
	}

	sub := domain.LeadSubmission{
		Name:        fields.Name,
		Email:       fields.Email,
		Phone:       fields.Phone,
		Subject:     fields.Subject,
		Message:     fields.Message,
		SubmittedAt: f.clock.Now().UTC(),
		PageURL:     strings.TrimSpace(pageURL),
	}
	f.phase = Submitting
	f.mu.Unlock()

	rec, err := f.store.Create(ctx, f.cfg.Collection, sub.Payload())

	f.mu.Lock()
	defer f.mu.Unlock()

	if err != nil {
		f.phase = Failed
		n := notify.Failed(f.cfg.Phone)
		f.notice = &n
		f.log.Error("lead submission failed",
			zap.String("collection", f.cfg.Collection),
			zap.Error(err))
		return Outcome{Phase: Failed, Notice: n}, fmt.Errorf("%w: %w", ErrSubmit, err)
	}

	out := f.succeedLocked()
	out.RecordID = rec.ID
	f.log.Info("lead created",
		zap.String("collection", f.cfg.Collection),
		zap.String("id", rec.ID))
	return out, nil
}

// Close stops a pending auto-hide.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hide != nil {
		f.hide.Stop()
		f.hide = nil
	}
}

func (f *Form) resetLocked() {
	if f.hide != nil {
		f.hide.Stop()
		f.hide = nil
	}
	f.phase = Idle
	f.notice = nil
}

func (f *Form) succeedLocked() Outcome {
	f.fields = Fields{}
	f.phase = Succeeded
	n := notify.Succeeded(f.cfg.AutoHide)
	f.notice = &n

	f.gen++
	gen := f.gen
	if f.cfg.AutoHide > 0 {
		f.hide = f.clock.AfterFunc(f.cfg.AutoHide, func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			if f.gen == gen && f.phase == Succeeded {
				f.phase = Idle
				f.notice = nil
				f.hide = nil
			}
		})
	}
	return Outcome{Phase: Succeeded, Notice: n}
}
