package validator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/MikeSquared-Agency/agriform/internal/anthropic"
)

const systemPrompt = `You check answers in an agricultural survey. Farmers answer by voice or short text, often with spelling mistakes or mixed languages. Judge only whether the answer is a plausible response to the question, not whether it is complete or correctly formatted.`

const userPrompt = `Question: "%s"
User Answer: "%s"
Does the answer make logical sense for this question? Reply only 'Yes' or 'No'.`

// Completer is the subset of the Anthropic client the LLM validator needs.
type Completer interface {
	Complete(ctx context.Context, system string, messages []anthropic.Message, maxTokens int) (string, error)
}

// LLM asks a language model for a yes/no verdict.
type LLM struct {
	llm    Completer
	logger *slog.Logger
}

func NewLLM(llm Completer, logger *slog.Logger) *LLM {
	return &LLM{llm: llm, logger: logger}
}

// Validate returns the model's verdict. A reply that is neither yes nor no
// is an error so the caller can apply its own fallback.
func (l *LLM) Validate(ctx context.Context, question, answer string) (bool, error) {
	messages := []anthropic.Message{
		{Role: "user", Content: fmt.Sprintf(userPrompt, question, answer)},
	}

	raw, err := l.llm.Complete(ctx, systemPrompt, messages, 5)
	if err != nil {
		var apiErr *anthropic.APIError
		if errors.As(err, &apiErr) && !apiErr.Temporary() {
			l.logger.Error("llm validator request refused", "status", apiErr.StatusCode, "error", apiErr.Message)
		}
		return false, fmt.Errorf("llm validation: %w", err)
	}

	verdict, err := parseVerdict(raw)
	if err != nil {
		l.logger.Warn("unparseable validation verdict", "raw", raw)
		return false, err
	}
	return verdict, nil
}

func parseVerdict(raw string) (bool, error) {
	words := strings.FieldsFunc(strings.ToLower(raw), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if len(words) > 0 {
		switch words[0] {
		case "yes":
			return true, nil
		case "no":
			return false, nil
		}
	}
	return false, fmt.Errorf("ambiguous verdict %q", raw)
}
