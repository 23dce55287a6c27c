// Package dialogue runs the four-question farm survey: it sequences the
// prompts, extracts and validates each answer, and hands the finished
// record to the insight service.
package dialogue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/agriform/internal/locale"
)

var (
	ErrUnknownLanguage   = errors.New("unknown language")
	ErrEmptyAnswer       = errors.New("empty answer")
	ErrComplete          = errors.New("session already complete")
	ErrBusy              = errors.New("previous answer still processing")
	ErrHandoffNotPending = errors.New("no failed hand-off to retry")
)

// DefaultRemoteTimeout bounds every validator and insight call.
const DefaultRemoteTimeout = 15 * time.Second

// Options configures the optional collaborators of a Controller.
type Options struct {
	// Validator enables semantic checks on free-text answers. Nil means
	// local validation only.
	Validator Validator
	// Events receives lifecycle events. Nil disables publishing.
	Events Publisher
	// RemoteTimeout bounds each outbound call. Zero uses DefaultRemoteTimeout.
	RemoteTimeout time.Duration
	// InsightPageURL, when set, is linked after a successful hand-off with
	// the record as query parameters.
	InsightPageURL string
	// Now overrides the clock.
	Now func() time.Time
}

// Controller drives sessions through the question sequence. It holds no
// per-session state beyond the set of sessions currently being processed,
// so one Controller serves any number of sessions.
type Controller struct {
	languages *locale.Table
	insight   InsightClient
	validator Validator
	events    Publisher
	logger    *slog.Logger
	timeout   time.Duration
	pageURL   string
	now       func() time.Time

	mu       sync.Mutex
	inflight map[uuid.UUID]struct{}
}

func New(languages *locale.Table, insight InsightClient, logger *slog.Logger, opts Options) *Controller {
	c := &Controller{
		languages: languages,
		insight:   insight,
		validator: opts.Validator,
		events:    opts.Events,
		logger:    logger,
		timeout:   opts.RemoteTimeout,
		pageURL:   opts.InsightPageURL,
		now:       opts.Now,
		inflight:  make(map[uuid.UUID]struct{}),
	}
	if c.timeout <= 0 {
		c.timeout = DefaultRemoteTimeout
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Start opens a session in the chosen language and greets the user with
// the first question.
func (c *Controller) Start(language string) (*Session, Reply, error) {
	lang, ok := c.languages.Lookup(language)
	if !ok {
		return nil, Reply{}, fmt.Errorf("%w: %q", ErrUnknownLanguage, language)
	}

	now := c.now()
	s := &Session{
		ID:        uuid.New(),
		Language:  lang.Code,
		State:     AwaitingLocation,
		CreatedAt: now,
		UpdatedAt: now,
	}

	r := c.newReply(s)
	c.say(s, &r, lang, lang.Prompt(locale.KeyLocation), lang.Prompt(locale.KeyLocation))
	r.Accepted = true
	c.finish(s, &r)

	c.logger.Info("session started", "session_id", s.ID, "language", lang.Code)
	c.publish(SubjectSessionStarted, SessionStartedEvent{
		SessionID: s.ID.String(),
		Language:  lang.Code,
		Timestamp: now.UTC().Format(time.RFC3339),
	})
	return s, r, nil
}

// Submit processes one answer: semantic check, extraction, local
// validation, store, advance, prompt. A rejected answer leaves the session
// where it was and re-asks the same question. The answer completing the
// record triggers the insight hand-off before Submit returns.
func (c *Controller) Submit(ctx context.Context, s *Session, answer, source string) (Reply, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return Reply{}, ErrEmptyAnswer
	}
	if s.State == Complete {
		return Reply{}, ErrComplete
	}
	lang, ok := c.languages.Lookup(s.Language)
	if !ok {
		return Reply{}, fmt.Errorf("%w: %q", ErrUnknownLanguage, s.Language)
	}
	if !c.acquire(s.ID) {
		return Reply{}, ErrBusy
	}
	defer c.release(s.ID)

	if source != SourceSpeech {
		source = SourceText
	}
	s.Transcript = append(s.Transcript, Entry{Role: RoleUser, Text: answer, Source: source, At: c.now()})

	q := questions[s.State]
	r := c.newReply(s)

	if q.semantic && !c.validate(ctx, s, lang.Prompt(q.key), answer) {
		c.reject(s, &r, lang, q, "semantic")
		return r, nil
	}
	if !q.accept(&s.Record, answer, c.now()) {
		c.reject(s, &r, lang, q, "extraction")
		return r, nil
	}

	r.Accepted = true
	s.State++
	c.logger.Info("answer accepted", "session_id", s.ID, "state", s.State.String())

	if s.State != Complete {
		prompt := lang.Prompt(questions[s.State].key)
		c.say(s, &r, lang, prompt, prompt)
		c.finish(s, &r)
		return r, nil
	}

	r.Completed = true
	c.say(s, &r, lang, lang.Processing, "")
	c.publish(SubjectRecordCompleted, RecordCompletedEvent{
		SessionID: s.ID.String(),
		Language:  s.Language,
		Record:    s.Record,
		Timestamp: c.now().UTC().Format(time.RFC3339),
	})
	c.handoff(ctx, s, &r, lang)
	c.finish(s, &r)
	return r, nil
}

// Handoff re-sends a completed record whose previous hand-off failed.
func (c *Controller) Handoff(ctx context.Context, s *Session) (Reply, error) {
	if s.State != Complete || s.Handoff != HandoffFailed {
		return Reply{}, ErrHandoffNotPending
	}
	lang, ok := c.languages.Lookup(s.Language)
	if !ok {
		return Reply{}, fmt.Errorf("%w: %q", ErrUnknownLanguage, s.Language)
	}
	if !c.acquire(s.ID) {
		return Reply{}, ErrBusy
	}
	defer c.release(s.ID)

	r := c.newReply(s)
	c.handoff(ctx, s, &r, lang)
	c.finish(s, &r)
	return r, nil
}

func (c *Controller) handoff(ctx context.Context, s *Session, r *Reply, lang *locale.Language) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.insight.Submit(ctx, s.Record)
	if err != nil {
		s.Handoff = HandoffFailed
		r.HandoffFailed = true
		c.logger.Error("insight hand-off failed", "session_id", s.ID, "error", err)
		c.say(s, r, lang, lang.InsightFailed, lang.InsightFailed)
		c.publish(SubjectInsightFailed, InsightFailedEvent{
			SessionID: s.ID.String(),
			Error:     err.Error(),
			Timestamp: c.now().UTC().Format(time.RFC3339),
		})
		return
	}

	s.Handoff = HandoffDelivered
	s.Insight = result
	r.Insight = result
	c.logger.Info("insight hand-off delivered", "session_id", s.ID, "bytes", len(result))
	c.say(s, r, lang, lang.InsightResult+"\n"+renderJSON(result), "")

	if c.pageURL != "" {
		r.InsightPageURL = PageURL(c.pageURL, s.Record)
		c.say(s, r, lang, lang.InsightPage+" "+r.InsightPageURL, lang.InsightPageSpoken)
	}
}

func (c *Controller) validate(ctx context.Context, s *Session, question, answer string) bool {
	if c.validator == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	valid, err := c.validator.Validate(ctx, question, answer)
	if err != nil {
		// Fail open: the local checks still run.
		c.logger.Warn("semantic validation unavailable, accepting answer",
			"session_id", s.ID, "state", s.State.String(), "error", err)
		return true
	}
	return valid
}

func (c *Controller) reject(s *Session, r *Reply, lang *locale.Language, q question, reason string) {
	retry := lang.Retry(q.key)
	c.say(s, r, lang, retry.Display, retry.Spoken)
	c.finish(s, r)

	c.logger.Info("answer rejected", "session_id", s.ID, "state", s.State.String(), "reason", reason)
	c.publish(SubjectAnswerRejected, AnswerRejectedEvent{
		SessionID: s.ID.String(),
		State:     s.State,
		Reason:    reason,
		Timestamp: c.now().UTC().Format(time.RFC3339),
	})
}

// say appends a system message to the transcript and the reply. An empty
// spoken text means the message is display-only.
func (c *Controller) say(s *Session, r *Reply, lang *locale.Language, text, spoken string) {
	e := Entry{Role: RoleSystem, Text: text, At: c.now()}
	s.Transcript = append(s.Transcript, e)
	r.Messages = append(r.Messages, e)
	if spoken != "" {
		r.Speak = append(r.Speak, Utterance{Text: spoken, Locale: lang.SpeechLocale})
	}
}

func (c *Controller) newReply(s *Session) Reply {
	return Reply{SessionID: s.ID}
}

func (c *Controller) finish(s *Session, r *Reply) {
	s.UpdatedAt = c.now()
	r.State = s.State
	r.InputEnabled = s.InputEnabled()
	r.Record = s.Record
}

func (c *Controller) acquire(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inflight[id]; busy {
		return false
	}
	c.inflight[id] = struct{}{}
	return true
}

func (c *Controller) release(id uuid.UUID) {
	c.mu.Lock()
	delete(c.inflight, id)
	c.mu.Unlock()
}

func (c *Controller) publish(subject string, data any) {
	if c.events == nil {
		return
	}
	if err := c.events.Publish(subject, data); err != nil {
		c.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}

func renderJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
