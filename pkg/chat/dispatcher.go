// Package chat turns UI chat requests into quota-checked, persona-framed
// calls to a generative backend.
package chat

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"

	"github.com/abyan-ai/askme/pkg/backend"
	"github.com/abyan-ai/askme/pkg/locale"
	"github.com/abyan-ai/askme/pkg/models"
	"github.com/abyan-ai/askme/pkg/persona"
	"github.com/abyan-ai/askme/pkg/ratelimit"
)

// DefaultMaxMessageChars is the ceiling on a trimmed message, in characters.
const DefaultMaxMessageChars = 1500

// DefaultImageMIMEType is assumed for images sent without a data-URL prefix.
const DefaultImageMIMEType = "image/png"

// KeyFunc yields the rate-limit key of the current caller. An error is a
// key extraction fault and is handled according to the failure mode.
type KeyFunc func() (string, error)

// Recorder observes dispatcher outcomes. All methods must be safe for concurrent use.
type Recorder interface {
	ChatResult(code models.ErrorCode)
	RateLimitRejected()
	RateLimitFault()
	BackendDuration(d time.Duration)
}

// Config controls validation and policy.
type Config struct {
	MaxMessageChars int
	// MaxHistory caps how many of the most recent history turns are forwarded.
	// Zero forwards none.
	MaxHistory    int
	DefaultMode   persona.Mode
	FailureMode   ratelimit.FailureMode
	Locale        string
	ImageMIMEType string
	// Timeout bounds the backend call. Zero means no timeout.
	Timeout time.Duration
}

// Dispatcher is the single entry point for assistant replies.
type Dispatcher struct {
	cfg      Config
	limiter  ratelimit.Limiter
	limit    int
	backend  backend.Backend
	personas *persona.Registry
	catalog  locale.Catalog
	recorder Recorder
	now      func() time.Time
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) { d.recorder = r }
}

// New wires a Dispatcher. limit is the limiter's quota, reported in usage
// snapshots when the limiter cannot be read. A nil backend means the
// service is not configured; requests then fail with CodeNotConfigured.
func New(cfg Config, l ratelimit.Limiter, limit int, b backend.Backend, opts ...Option) *Dispatcher {
	if cfg.MaxMessageChars <= 0 {
		cfg.MaxMessageChars = DefaultMaxMessageChars
	}
	if cfg.ImageMIMEType == "" {
		cfg.ImageMIMEType = DefaultImageMIMEType
	}
	if cfg.FailureMode == "" {
		cfg.FailureMode = ratelimit.FailOpen
	}
	d := &Dispatcher{
		cfg:      cfg,
		limiter:  l,
		limit:    limit,
		backend:  b,
		personas: persona.NewRegistry(cfg.DefaultMode),
		catalog:  locale.Lookup(cfg.Locale),
		recorder: nopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch validates req, enforces the caller's quota, frames the message
// with the selected persona and asks the backend for a reply. It never
// returns a raw error: every failure is a ChatResult with Error set.
func (d *Dispatcher) Dispatch(ctx context.Context, req models.ChatRequest, key KeyFunc) models.ChatResult {
	res := d.dispatch(ctx, req, key)
	d.recorder.ChatResult(res.Code)
	return res
}

func (d *Dispatcher) dispatch(ctx context.Context, req models.ChatRequest, key KeyFunc) models.ChatResult {
	message := strings.TrimSpace(req.Message)
	image := strings.TrimSpace(req.Image)
	if _, payload := SplitDataURL(image); payload == "" {
		image = ""
	}

	if message == "" && image == "" {
		return d.fail(models.CodeInvalidRequest, d.catalog.EmptyMessage)
	}
	if utf8.RuneCountInString(message) > d.cfg.MaxMessageChars {
		return d.fail(models.CodeInvalidRequest, d.catalog.TooLong(d.cfg.MaxMessageChars))
	}

	clientKey, res, ok := d.admit(ctx, key)
	if !ok {
		return res
	}

	if d.backend == nil {
		return d.fail(models.CodeNotConfigured, d.catalog.NotConfigured)
	}

	p := d.personas.Resolve(req.Mode)
	breq := backend.Request{
		Preamble: d.preamble(p),
		History:  d.trimHistory(req.History),
		Message:  models.ChatMessage{Role: models.RoleUser, Text: message},
	}
	if image != "" {
		breq.Message.Image = d.inlineImage(image)
	}

	text, err := d.generate(ctx, breq)
	if err != nil {
		log.WithFields(log.Fields{
			"client": clientKey,
			"mode":   p.Mode,
		}).WithError(err).Error("backend request failed")
		return d.fail(models.CodeBackendError, d.catalog.BackendFailed)
	}
	if strings.TrimSpace(text) == "" {
		text = d.catalog.EmptyReply
	}

	usage := d.usage(ctx, clientKey)
	return models.ChatResult{Text: text, Usage: &usage}
}

// admit consults the limiter. On a key or limiter fault it proceeds when the
// failure mode is open, returning an empty client key, and refuses otherwise.
func (d *Dispatcher) admit(ctx context.Context, key KeyFunc) (string, models.ChatResult, bool) {
	clientKey, err := key()
	if err == nil {
		var dec ratelimit.Decision
		dec, err = d.limiter.CheckAndRecord(ctx, clientKey, d.now())
		if err == nil {
			if !dec.Allowed {
				d.recorder.RateLimitRejected()
				res := d.fail(models.CodeRateLimited, d.catalog.RetryAfter(dec.RetryAfter))
				res.RetryAfter = dec.RetryAfter
				return clientKey, res, false
			}
			return clientKey, models.ChatResult{}, true
		}
	}

	d.recorder.RateLimitFault()
	log.WithError(err).WithField("failure_mode", d.cfg.FailureMode).Warn("rate limit check failed")
	if d.cfg.FailureMode == ratelimit.FailClosed {
		return "", d.fail(models.CodeLimiterUnavailable, d.catalog.LimiterUnavailable), false
	}
	return "", models.ChatResult{}, true
}

// generate calls the backend detached from caller cancellation so a reply
// already in flight completes even if the client goes away.
func (d *Dispatcher) generate(ctx context.Context, req backend.Request) (string, error) {
	ctx = context.WithoutCancel(ctx)
	if d.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := d.backend.Generate(ctx, req)
	d.recorder.BackendDuration(time.Since(start))
	return text, err
}

// RemainingQuota reports the caller's usage without consuming quota.
func (d *Dispatcher) RemainingQuota(ctx context.Context, key KeyFunc) models.QuotaUsage {
	clientKey, err := key()
	if err != nil {
		d.recorder.RateLimitFault()
		log.WithError(err).Warn("quota lookup: client key unavailable")
		return models.QuotaUsage{Limit: d.limit}
	}
	return d.usage(ctx, clientKey)
}

func (d *Dispatcher) usage(ctx context.Context, clientKey string) models.QuotaUsage {
	if clientKey == "" {
		return models.QuotaUsage{Limit: d.limit}
	}
	u, err := d.limiter.Peek(ctx, clientKey, d.now())
	if err != nil {
		d.recorder.RateLimitFault()
		log.WithError(err).Warn("quota lookup failed")
		return models.QuotaUsage{Limit: d.limit}
	}
	return models.QuotaUsage{Count: u.Count, Limit: u.Limit}
}

// preamble frames the persona instruction as a user turn followed by a
// canned model acknowledgment.
func (d *Dispatcher) preamble(p persona.Persona) []models.ChatMessage {
	return []models.ChatMessage{
		{Role: models.RoleUser, Text: "System Instruction: " + p.Instruction(d.catalog.Language)},
		{Role: models.RoleModel, Text: d.catalog.Acknowledge},
	}
}

func (d *Dispatcher) trimHistory(history []models.ChatMessage) []models.ChatMessage {
	if d.cfg.MaxHistory <= 0 || len(history) == 0 {
		return nil
	}
	if len(history) > d.cfg.MaxHistory {
		history = history[len(history)-d.cfg.MaxHistory:]
	}
	out := make([]models.ChatMessage, 0, len(history))
	for _, m := range history {
		if m.Role != models.RoleModel {
			m.Role = models.RoleUser
		}
		out = append(out, m)
	}
	return out
}

func (d *Dispatcher) inlineImage(raw string) *models.InlineImage {
	mime, data := SplitDataURL(raw)
	if mime == "" {
		mime = d.cfg.ImageMIMEType
	}
	return &models.InlineImage{MIMEType: mime, Data: data}
}

func (d *Dispatcher) fail(code models.ErrorCode, msg string) models.ChatResult {
	return models.ChatResult{Error: msg, Code: code}
}

// SplitDataURL separates "data:<mime>;base64,<payload>" into its MIME type
// and payload. Input without a comma is returned as the payload unchanged.
func SplitDataURL(s string) (mime, payload string) {
	head, body, found := strings.Cut(s, ",")
	if !found {
		return "", s
	}
	if rest, ok := strings.CutPrefix(head, "data:"); ok {
		mime, _, _ = strings.Cut(rest, ";")
	}
	return mime, body
}

type nopRecorder struct{}

func (nopRecorder) ChatResult(models.ErrorCode)   {}
func (nopRecorder) RateLimitRejected()            {}
func (nopRecorder) RateLimitFault()               {}
func (nopRecorder) BackendDuration(time.Duration) {}
