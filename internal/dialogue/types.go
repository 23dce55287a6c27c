package dialogue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// State is the position of a session in the fixed question sequence.
type State int

const (
	AwaitingLocation State = iota
	AwaitingFarmSize
	AwaitingCropType
	AwaitingSowingDate
	Complete
)

var stateNames = [...]string{
	AwaitingLocation:   "awaiting_location",
	AwaitingFarmSize:   "awaiting_farm_size",
	AwaitingCropType:   "awaiting_crop_type",
	AwaitingSowingDate: "awaiting_sowing_date",
	Complete:           "complete",
}

func (s State) String() string {
	if s < AwaitingLocation || s > Complete {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

func (s State) MarshalText() ([]byte, error) {
	if s < AwaitingLocation || s > Complete {
		return nil, fmt.Errorf("invalid state %d", int(s))
	}
	return []byte(stateNames[s]), nil
}

func (s *State) UnmarshalText(b []byte) error {
	for i, name := range stateNames {
		if name == string(b) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", string(b))
}

// Record is the structured output of one session. Fields stay nil until
// their question is answered and are never overwritten afterwards.
type Record struct {
	District      *string  `json:"district"`
	State         *string  `json:"state"`
	FarmSizeAcres *float64 `json:"farm_size_acres"`
	CropType      *string  `json:"crop_type"`
	SowingDate    *string  `json:"sowing_date"`
}

// Complete reports whether every field is set.
func (r Record) Complete() bool {
	return r.District != nil && r.State != nil && r.FarmSizeAcres != nil &&
		r.CropType != nil && r.SowingDate != nil
}

type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Answer sources.
const (
	SourceText   = "text"
	SourceSpeech = "speech"
)

// Entry is one line of the transcript.
type Entry struct {
	Role   Role      `json:"role"`
	Text   string    `json:"text"`
	Source string    `json:"source,omitempty"`
	At     time.Time `json:"at"`
}

// Utterance is text the client should speak in the given locale.
type Utterance struct {
	Text   string `json:"text"`
	Locale string `json:"locale"`
}

type HandoffStatus string

const (
	HandoffNone      HandoffStatus = ""
	HandoffDelivered HandoffStatus = "delivered"
	HandoffFailed    HandoffStatus = "failed"
)

// Session is the full state of one conversation. It is owned by a single
// caller at a time; the Controller rejects overlapping answers.
type Session struct {
	ID         uuid.UUID       `json:"id"`
	Language   string          `json:"language"`
	State      State           `json:"state"`
	Record     Record          `json:"record"`
	Transcript []Entry         `json:"transcript"`
	Handoff    HandoffStatus   `json:"handoff,omitempty"`
	Insight    json.RawMessage `json:"insight,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// InputEnabled reports whether the session still accepts answers.
func (s *Session) InputEnabled() bool {
	return s.State != Complete
}

// Reply is what one controller step produced.
type Reply struct {
	SessionID      uuid.UUID       `json:"session_id"`
	State          State           `json:"state"`
	Messages       []Entry         `json:"messages"`
	Speak          []Utterance     `json:"speak,omitempty"`
	InputEnabled   bool            `json:"input_enabled"`
	Accepted       bool            `json:"accepted"`
	Completed      bool            `json:"completed,omitempty"`
	Record         Record          `json:"record"`
	Insight        json.RawMessage `json:"insight,omitempty"`
	InsightPageURL string          `json:"insight_page_url,omitempty"`
	HandoffFailed  bool            `json:"handoff_failed,omitempty"`
}
