package llm

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrNoJSON is returned when no strategy finds a JSON object in the output
var ErrNoJSON = errors.New("no JSON object in generated output")

// Strategy pulls a JSON object out of generated text. ok is false when the
// output does not have the shape the strategy recognizes.
type Strategy interface {
	Name() string
	Extract(output string) (obj json.RawMessage, ok bool)
}

type strategyFunc struct {
	name string
	fn   func(string) (json.RawMessage, bool)
}

func (s strategyFunc) Name() string { return s.name }

func (s strategyFunc) Extract(output string) (json.RawMessage, bool) { return s.fn(output) }

// NewStrategy builds a Strategy from a function
func NewStrategy(name string, fn func(string) (json.RawMessage, bool)) Strategy {
	return strategyFunc{name: name, fn: fn}
}

var fencedJSON = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(\\{.*?\\})\\s*```")

var (
	// BareObject accepts output that is exactly one JSON object
	BareObject = NewStrategy("bare_object", func(out string) (json.RawMessage, bool) {
		return asObject(strings.TrimSpace(out))
	})

	// FencedBlock accepts a JSON object inside a markdown code fence
	FencedBlock = NewStrategy("fenced_block", func(out string) (json.RawMessage, bool) {
		m := fencedJSON.FindStringSubmatch(out)
		if m == nil {
			return nil, false
		}
		return asObject(m[1])
	})

	// EmbeddedObject accepts prose around a single JSON object, taking the
	// span from the first '{' to the last '}'
	EmbeddedObject = NewStrategy("embedded_object", func(out string) (json.RawMessage, bool) {
		start := strings.IndexByte(out, '{')
		end := strings.LastIndexByte(out, '}')
		if start < 0 || end <= start {
			return nil, false
		}
		return asObject(out[start : end+1])
	})
)

// DefaultStrategies is the order ExtractJSON tries when none are given
var DefaultStrategies = []Strategy{BareObject, FencedBlock, EmbeddedObject}

// ExtractJSON returns the first object any strategy extracts from output,
// together with the name of the strategy that matched.
func ExtractJSON(output string, strategies ...Strategy) (json.RawMessage, string, error) {
	if len(strategies) == 0 {
		strategies = DefaultStrategies
	}
	for _, s := range strategies {
		if obj, ok := s.Extract(output); ok {
			return obj, s.Name(), nil
		}
	}
	return nil, "", ErrNoJSON
}

func asObject(s string) (json.RawMessage, bool) {
	if !strings.HasPrefix(s, "{") || !json.Valid([]byte(s)) {
		return nil, false
	}
	return json.RawMessage(s), true
}
