package pipeline

import (
	"encoding/json"
	"strings"
)

// TokenFeature is one named, primitive-valued generative parameter exposed by
// an artwork page.
type TokenFeature struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// filterFeatures turns the serialised feature global into an ordered feature
// list. The export must be a JSON object; anything else degrades to an empty
// list. Entries keep the source order, and only boolean, string and number
// values survive — object, array and null values are dropped silently.
//
// A streaming decoder is used rather than unmarshalling into a map because
// maps do not preserve key order.
func filterFeatures(text string) []TokenFeature {
	features := []TokenFeature{}

	// Whole-document validity first: a truncated export must degrade to
	// empty, not to whatever entries happened to precede the breakage.
	if !json.Valid([]byte(text)) {
		return features
	}

	dec := json.NewDecoder(strings.NewReader(text))
	tok, err := dec.Token()
	if err != nil {
		return features
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return features
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return []TokenFeature{}
		}
		key, ok := keyTok.(string)
		if !ok {
			return []TokenFeature{}
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return []TokenFeature{}
		}
		if value, ok := primitive(raw); ok {
			features = append(features, TokenFeature{Name: key, Value: value})
		}
	}

	return features
}

// primitive reports whether raw holds a boolean, string or number, returning
// the decoded value when it does.
func primitive(raw json.RawMessage) (any, bool) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false
	}
	switch v.(type) {
	case bool, string, float64:
		return v, true
	}
	return nil, false
}
