package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/MikeSquared-Agency/agriform/internal/locale"
)

var testNow = time.Date(2025, time.July, 1, 8, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeInsight struct {
	mu      sync.Mutex
	calls   []Record
	result  json.RawMessage
	err     error
	failFor int // fail the first failFor calls
}

func (f *fakeInsight) Submit(_ context.Context, rec Record) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, rec)
	if f.err != nil && len(f.calls) <= f.failFor {
		return nil, f.err
	}
	return f.result, nil
}

type fakeValidator struct {
	mu        sync.Mutex
	questions []string
	valid     bool
	err       error
	block     chan struct{}
}

func (f *fakeValidator) Validate(ctx context.Context, question, _ string) (bool, error) {
	f.mu.Lock()
	f.questions = append(f.questions, question)
	f.mu.Unlock()
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	return f.valid, f.err
}

type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (f *fakePublisher) Publish(subject string, _ any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subjects = append(f.subjects, subject)
	return nil
}

func newTestController(t *testing.T, ins InsightClient, opts Options) *Controller {
	t.Helper()
	if opts.Now == nil {
		opts.Now = func() time.Time { return testNow }
	}
	return New(locale.MustLoad(), ins, discardLogger(), opts)
}

func english(t *testing.T) *locale.Language {
	t.Helper()
	l, ok := locale.MustLoad().Lookup("english")
	if !ok {
		t.Fatal("english missing from language table")
	}
	return l
}

func ptr[T any](v T) *T { return &v }

func TestStart(t *testing.T) {
	c := newTestController(t, &fakeInsight{}, Options{})

	s, r, err := c.Start("Tamil")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.Language != "tamil" {
		t.Errorf("expected language tamil, got %q", s.Language)
	}
	if s.State != AwaitingLocation || r.State != AwaitingLocation {
		t.Errorf("expected awaiting_location, got session %s reply %s", s.State, r.State)
	}
	if !r.InputEnabled {
		t.Error("expected input enabled after start")
	}
	if len(r.Messages) != 1 || len(s.Transcript) != 1 {
		t.Fatalf("expected one greeting, got %d messages, %d transcript entries", len(r.Messages), len(s.Transcript))
	}
	if len(r.Speak) != 1 || r.Speak[0].Locale != "ta-IN" {
		t.Errorf("expected greeting spoken in ta-IN, got %+v", r.Speak)
	}
}

func TestStart_UnknownLanguage(t *testing.T) {
	c := newTestController(t, &fakeInsight{}, Options{})
	if _, _, err := c.Start("latin"); !errors.Is(err, ErrUnknownLanguage) {
		t.Errorf("expected ErrUnknownLanguage, got %v", err)
	}
}

func TestSubmit_EndToEnd(t *testing.T) {
	ins := &fakeInsight{result: json.RawMessage(`{"yield_estimate":[1,2,3]}`)}
	pub := &fakePublisher{}
	c := newTestController(t, ins, Options{Events: pub, InsightPageURL: "https://insights.example/view"})

	s, _, err := c.Start("english")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	answers := []struct {
		text string
		want State
	}{
		{"My farm is in Nashik, Maharashtra", AwaitingFarmSize},
		{"I have 3.5 acres", AwaitingCropType},
		{"I grow Basmati rice here", AwaitingSowingDate},
		{"during kharif season", Complete},
	}

	var last Reply
	for _, a := range answers {
		r, err := c.Submit(context.Background(), s, a.text, SourceText)
		if err != nil {
			t.Fatalf("Submit(%q): %v", a.text, err)
		}
		if !r.Accepted {
			t.Fatalf("Submit(%q) rejected", a.text)
		}
		if r.State != a.want || s.State != a.want {
			t.Fatalf("Submit(%q): expected state %s, got reply %s session %s", a.text, a.want, r.State, s.State)
		}
		last = r
	}

	want := Record{
		District:      ptr("Nashik"),
		State:         ptr("Maharashtra"),
		FarmSizeAcres: ptr(3.5),
		CropType:      ptr("Rice"),
		SowingDate:    ptr("2025-06-15"),
	}
	if diff := cmp.Diff(want, s.Record); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}

	if len(ins.calls) != 1 {
		t.Fatalf("expected exactly one hand-off, got %d", len(ins.calls))
	}
	if !ins.calls[0].Complete() {
		t.Errorf("hand-off record incomplete: %+v", ins.calls[0])
	}

	if !last.Completed || last.InputEnabled || last.HandoffFailed {
		t.Errorf("unexpected final reply flags: %+v", last)
	}
	if s.Handoff != HandoffDelivered {
		t.Errorf("expected handoff delivered, got %q", s.Handoff)
	}
	if string(last.Insight) != `{"yield_estimate":[1,2,3]}` {
		t.Errorf("unexpected insight %s", last.Insight)
	}
	if !strings.HasPrefix(last.InsightPageURL, "https://insights.example/view?") ||
		!strings.Contains(last.InsightPageURL, "district=Nashik") {
		t.Errorf("unexpected insight page url %q", last.InsightPageURL)
	}

	wantSubjects := []string{SubjectSessionStarted, SubjectRecordCompleted}
	if diff := cmp.Diff(wantSubjects, pub.subjects); diff != "" {
		t.Errorf("event subjects mismatch (-want +got):\n%s", diff)
	}

	if _, err := c.Submit(context.Background(), s, "more", SourceText); !errors.Is(err, ErrComplete) {
		t.Errorf("expected ErrComplete after completion, got %v", err)
	}
}

func TestSubmit_InvalidAnswerLeavesSessionUnchanged(t *testing.T) {
	en := english(t)

	tests := []struct {
		name    string
		prior   []string
		answer  string
		state   State
		promptK string
	}{
		{"location without state", nil, "somewhere far", AwaitingLocation, locale.KeyLocation},
		{"zero farm size", []string{"Nashik, Maharashtra"}, "no idea", AwaitingFarmSize, locale.KeyFarmSize},
		{"unusable crop", []string{"Nashik, Maharashtra", "two acres"}, "12 34", AwaitingCropType, locale.KeyCropType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{}
			c := newTestController(t, &fakeInsight{}, Options{Events: pub})
			s, _, _ := c.Start("english")
			for _, a := range tt.prior {
				if _, err := c.Submit(context.Background(), s, a, SourceText); err != nil {
					t.Fatalf("prior answer %q: %v", a, err)
				}
			}
			before := s.Record

			r, err := c.Submit(context.Background(), s, tt.answer, SourceSpeech)
			if err != nil {
				t.Fatalf("Submit: %v", err)
			}
			if r.Accepted {
				t.Fatal("expected answer to be rejected")
			}
			if s.State != tt.state || r.State != tt.state {
				t.Errorf("expected state %s, got %s", tt.state, s.State)
			}
			if diff := cmp.Diff(before, s.Record); diff != "" {
				t.Errorf("record changed on rejection (-before +after):\n%s", diff)
			}
			retry := en.Retry(tt.promptK)
			if len(r.Messages) != 1 || r.Messages[0].Text != retry.Display {
				t.Errorf("expected retry message %q, got %+v", retry.Display, r.Messages)
			}
			if len(r.Speak) != 1 || r.Speak[0].Text != retry.Spoken {
				t.Errorf("expected spoken retry %q, got %+v", retry.Spoken, r.Speak)
			}
			if !r.InputEnabled {
				t.Error("input should stay enabled after a rejection")
			}
			if got := pub.subjects[len(pub.subjects)-1]; got != SubjectAnswerRejected {
				t.Errorf("expected last event %s, got %s", SubjectAnswerRejected, got)
			}

			userEntry := s.Transcript[len(s.Transcript)-2]
			if userEntry.Role != RoleUser || userEntry.Source != SourceSpeech {
				t.Errorf("expected user speech entry, got %+v", userEntry)
			}
		})
	}
}

func TestSubmit_EmptyAnswer(t *testing.T) {
	c := newTestController(t, &fakeInsight{}, Options{})
	s, _, _ := c.Start("english")

	if _, err := c.Submit(context.Background(), s, "   ", SourceText); !errors.Is(err, ErrEmptyAnswer) {
		t.Errorf("expected ErrEmptyAnswer, got %v", err)
	}
	if len(s.Transcript) != 1 {
		t.Errorf("blank answer should not reach the transcript, got %d entries", len(s.Transcript))
	}
}

func TestSubmit_SemanticValidator(t *testing.T) {
	v := &fakeValidator{valid: false}
	c := newTestController(t, &fakeInsight{}, Options{Validator: v})
	s, _, _ := c.Start("english")

	r, err := c.Submit(context.Background(), s, "Nashik, Maharashtra", SourceText)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if r.Accepted || s.State != AwaitingLocation {
		t.Fatalf("expected semantic rejection, got accepted=%v state=%s", r.Accepted, s.State)
	}
	if s.Record.District != nil {
		t.Error("record must not change on semantic rejection")
	}

	v.valid = true
	if _, err := c.Submit(context.Background(), s, "Nashik, Maharashtra", SourceText); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := c.Submit(context.Background(), s, "4 acres", SourceText); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if s.State != AwaitingCropType {
		t.Fatalf("expected awaiting_crop_type, got %s", s.State)
	}

	en := english(t)
	want := []string{en.Prompt(locale.KeyLocation), en.Prompt(locale.KeyLocation)}
	if diff := cmp.Diff(want, v.questions); diff != "" {
		t.Errorf("validator should only see free-text questions (-want +got):\n%s", diff)
	}
}

func TestSubmit_ValidatorFailsOpen(t *testing.T) {
	tests := []struct {
		name string
		v    *fakeValidator
	}{
		{"error", &fakeValidator{err: errors.New("connection refused")}},
		{"timeout", &fakeValidator{valid: false, block: make(chan struct{})}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(t, &fakeInsight{}, Options{Validator: tt.v, RemoteTimeout: 20 * time.Millisecond})
			s, _, _ := c.Start("english")

			r, err := c.Submit(context.Background(), s, "Nashik, Maharashtra", SourceText)
			if err != nil {
				t.Fatalf("Submit: %v", err)
			}
			if !r.Accepted || s.State != AwaitingFarmSize {
				t.Errorf("expected fail-open acceptance, got accepted=%v state=%s", r.Accepted, s.State)
			}
		})
	}
}

func TestSubmit_Busy(t *testing.T) {
	v := &fakeValidator{valid: true, block: make(chan struct{})}
	c := newTestController(t, &fakeInsight{}, Options{Validator: v})
	s, _, _ := c.Start("english")
	other, _, _ := c.Start("english")

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background(), s, "Nashik, Maharashtra", SourceText)
		done <- err
	}()

	// Wait until the first answer is inside the validator.
	deadline := time.Now().Add(2 * time.Second)
	for {
		v.mu.Lock()
		n := len(v.questions)
		v.mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("first answer never reached the validator")
		}
		time.Sleep(time.Millisecond)
	}

	if _, err := c.Submit(context.Background(), &Session{ID: s.ID, Language: "english"}, "Pune, Maharashtra", SourceText); !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}

	close(v.block)
	if err := <-done; err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if s.State != AwaitingFarmSize {
		t.Errorf("expected first answer accepted, got %s", s.State)
	}

	if _, err := c.Submit(context.Background(), other, "Pune, Maharashtra", SourceText); err != nil {
		t.Errorf("other session should not be blocked: %v", err)
	}
}

func completeSession(t *testing.T, c *Controller) (*Session, Reply) {
	t.Helper()
	s, _, _ := c.Start("english")
	var r Reply
	for _, a := range []string{"Nashik, Maharashtra", "ten acres", "cotton", "15 June 2025"} {
		var err error
		r, err = c.Submit(context.Background(), s, a, SourceText)
		if err != nil {
			t.Fatalf("Submit(%q): %v", a, err)
		}
	}
	return s, r
}

func TestSubmit_InsightFailureIsSurfaced(t *testing.T) {
	ins := &fakeInsight{err: errors.New("503"), failFor: 1, result: json.RawMessage(`[]`)}
	pub := &fakePublisher{}
	c := newTestController(t, ins, Options{Events: pub})

	s, r := completeSession(t, c)
	if s.State != Complete {
		t.Fatalf("expected complete, got %s", s.State)
	}
	if !r.HandoffFailed || s.Handoff != HandoffFailed {
		t.Errorf("expected failed hand-off, got reply %v session %q", r.HandoffFailed, s.Handoff)
	}
	en := english(t)
	if last := r.Messages[len(r.Messages)-1]; last.Text != en.InsightFailed {
		t.Errorf("expected failure message, got %q", last.Text)
	}
	if s.Record.CropType == nil || *s.Record.CropType != "Cotton" {
		t.Errorf("stored fields must survive a failed hand-off: %+v", s.Record)
	}
	if got := pub.subjects[len(pub.subjects)-1]; got != SubjectInsightFailed {
		t.Errorf("expected %s event, got %s", SubjectInsightFailed, got)
	}

	retry, err := c.Handoff(context.Background(), s)
	if err != nil {
		t.Fatalf("Handoff: %v", err)
	}
	if retry.HandoffFailed || s.Handoff != HandoffDelivered {
		t.Errorf("expected retry to deliver, got %+v", retry)
	}
	if len(ins.calls) != 2 {
		t.Errorf("expected two hand-off attempts, got %d", len(ins.calls))
	}

	if _, err := c.Handoff(context.Background(), s); !errors.Is(err, ErrHandoffNotPending) {
		t.Errorf("expected ErrHandoffNotPending after delivery, got %v", err)
	}
}

func TestHandoff_NotComplete(t *testing.T) {
	c := newTestController(t, &fakeInsight{}, Options{})
	s, _, _ := c.Start("english")
	if _, err := c.Handoff(context.Background(), s); !errors.Is(err, ErrHandoffNotPending) {
		t.Errorf("expected ErrHandoffNotPending, got %v", err)
	}
}

func TestReply_JSONState(t *testing.T) {
	c := newTestController(t, &fakeInsight{}, Options{})
	_, r, _ := c.Start("english")

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["state"] != "awaiting_location" {
		t.Errorf("expected state awaiting_location, got %v", body["state"])
	}
	rec := body["record"].(map[string]any)
	if v, ok := rec["district"]; !ok || v != nil {
		t.Errorf("expected null district, got %v", v)
	}
}

func TestState_UnmarshalText(t *testing.T) {
	var s State
	if err := s.UnmarshalText([]byte("awaiting_crop_type")); err != nil || s != AwaitingCropType {
		t.Errorf("expected awaiting_crop_type, got %s (%v)", s, err)
	}
	if err := s.UnmarshalText([]byte("bogus")); err == nil {
		t.Error("expected error for unknown state")
	}
}

func TestPageURL(t *testing.T) {
	rec := Record{
		District:      ptr("Nashik"),
		State:         ptr("Tamil Nadu"),
		FarmSizeAcres: ptr(2.0),
	}
	got := PageURL("https://insights.example/", rec)
	want := "https://insights.example/?district=Nashik&farm_size_acres=2&state=Tamil+Nadu"
	if got != want {
		t.Errorf("PageURL = %q, want %q", got, want)
	}

	if got := PageURL("https://x.example/?ref=chat", Record{CropType: ptr("Rice")}); got != "https://x.example/?ref=chat&crop_type=Rice" {
		t.Errorf("PageURL with existing query = %q", got)
	}
}
