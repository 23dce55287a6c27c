// Package locale holds the prompt strings and speech locales for each
// language the conversation can be held in.
package locale

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed languages.yaml
var languagesYAML []byte

// Prompt keys, one per question.
const (
	KeyLocation   = "location"
	KeyFarmSize   = "farm_size"
	KeyCropType   = "crop_type"
	KeySowingDate = "sowing_date"
)

// DefaultLanguage supplies any string another language leaves out.
const DefaultLanguage = "english"

var promptKeys = []string{KeyLocation, KeyFarmSize, KeyCropType, KeySowingDate}

// Retry is the re-prompt shown and spoken after a rejected answer.
type Retry struct {
	Display string `yaml:"display" json:"display"`
	Spoken  string `yaml:"spoken" json:"spoken"`
}

// Language is one entry of the language table.
type Language struct {
	Code              string            `yaml:"-" json:"code"`
	Name              string            `yaml:"name" json:"name"`
	SpeechLocale      string            `yaml:"speech_locale" json:"speech_locale"`
	Prompts           map[string]string `yaml:"prompts" json:"-"`
	Retries           map[string]Retry  `yaml:"retry" json:"-"`
	Processing        string            `yaml:"processing" json:"-"`
	InsightResult     string            `yaml:"insight_result" json:"-"`
	InsightFailed     string            `yaml:"insight_failed" json:"-"`
	InsightPage       string            `yaml:"insight_page" json:"-"`
	InsightPageSpoken string            `yaml:"insight_page_spoken" json:"-"`
}

// Prompt returns the question text for key.
func (l *Language) Prompt(key string) string {
	return l.Prompts[key]
}

// Retry returns the re-prompt for key.
func (l *Language) Retry(key string) Retry {
	return l.Retries[key]
}

// Table is the parsed language table, in file order.
type Table struct {
	langs map[string]*Language
	order []string
}

// Load parses the embedded language table.
func Load() (*Table, error) {
	return Parse(languagesYAML)
}

// MustLoad is Load for package initialisation; the embedded table is
// covered by tests so a failure here is a build defect.
func MustLoad() *Table {
	t, err := Load()
	if err != nil {
		panic(fmt.Sprintf("load languages.yaml: %v", err))
	}
	return t
}

// Parse builds a Table from YAML. Strings missing from a language are
// filled from DefaultLanguage; every language must define all prompts.
func Parse(data []byte) (*Table, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse language table: %w", err)
	}
	if len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("language table: expected a mapping of languages")
	}
	doc := root.Content[0]

	t := &Table{langs: make(map[string]*Language)}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		code := strings.ToLower(doc.Content[i].Value)
		var l Language
		if err := doc.Content[i+1].Decode(&l); err != nil {
			return nil, fmt.Errorf("language %s: %w", code, err)
		}
		l.Code = code
		t.langs[code] = &l
		t.order = append(t.order, code)
	}

	base, ok := t.langs[DefaultLanguage]
	if !ok {
		return nil, fmt.Errorf("language table: missing %s", DefaultLanguage)
	}
	for _, code := range t.order {
		l := t.langs[code]
		l.fillFrom(base)
		for _, key := range promptKeys {
			if l.Prompts[key] == "" {
				return nil, fmt.Errorf("language %s: missing prompt %q", code, key)
			}
		}
		if l.SpeechLocale == "" {
			return nil, fmt.Errorf("language %s: missing speech_locale", code)
		}
	}
	return t, nil
}

func (l *Language) fillFrom(base *Language) {
	if l.Retries == nil {
		l.Retries = make(map[string]Retry)
	}
	for key, r := range base.Retries {
		if _, ok := l.Retries[key]; !ok {
			l.Retries[key] = r
		}
	}
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&l.Processing, base.Processing)
	fill(&l.InsightResult, base.InsightResult)
	fill(&l.InsightFailed, base.InsightFailed)
	fill(&l.InsightPage, base.InsightPage)
	fill(&l.InsightPageSpoken, base.InsightPageSpoken)
}

// Lookup finds a language by code, case-insensitively.
func (t *Table) Lookup(code string) (*Language, bool) {
	l, ok := t.langs[strings.ToLower(strings.TrimSpace(code))]
	return l, ok
}

// Languages returns every language in table order.
func (t *Table) Languages() []*Language {
	out := make([]*Language, 0, len(t.order))
	for _, code := range t.order {
		out = append(out, t.langs[code])
	}
	return out
}
