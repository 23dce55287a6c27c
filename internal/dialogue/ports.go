package dialogue

import (
	"context"
	"encoding/json"
)

// Validator judges whether an answer is a sensible reply to a question.
type Validator interface {
	Validate(ctx context.Context, question, answer string) (bool, error)
}

// InsightClient receives the completed record and returns an opaque result.
type InsightClient interface {
	Submit(ctx context.Context, rec Record) (json.RawMessage, error)
}

// Publisher emits lifecycle events.
type Publisher interface {
	Publish(subject string, data any) error
}
