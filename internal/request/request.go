// Package request parses and validates untrusted request bodies into typed
// values. Validation is pure: no browser resource is touched before a body
// has passed through here, and the first failing rule decides the error code.
package request

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"time"

	"github.com/tomasbasham/art-capture/internal/allowlist"
	"github.com/tomasbasham/art-capture/internal/errcode"
)

// Mode selects what the capture endpoint extracts.
type Mode string

const (
	ModeViewport Mode = "VIEWPORT"
	ModeCanvas   Mode = "CANVAS"
)

// TriggerMode selects how readiness of the artwork is decided.
type TriggerMode string

const (
	TriggerDelay  TriggerMode = "DELAY"
	TriggerFnCall TriggerMode = "FN_TRIGGER"
)

// Bounds applied during validation. Delay and resolution limits are inclusive
// on both ends.
const (
	MaxDelay = 300000 * time.Millisecond

	MinResolution = 256
	MaxResolution = 2048
)

// Capture is a fully validated capture request. Exactly the fields required
// by Mode and Trigger are populated.
type Capture struct {
	URL     string
	Mode    Mode
	Trigger TriggerMode

	// Delay is set when Trigger is TriggerDelay.
	Delay time.Duration

	// ResX and ResY are set when Mode is ModeViewport, rounded to the
	// nearest integer.
	ResX, ResY int

	// CanvasSelector is set when Mode is ModeCanvas.
	CanvasSelector string
}

// Feature is a validated feature-extraction request.
type Feature struct {
	URL string
}

// rawCapture mirrors the wire body. Pointers distinguish absent fields from
// zero values; unknown fields are rejected by the decoder.
type rawCapture struct {
	URL            *string  `json:"url"`
	Mode           *string  `json:"mode"`
	TriggerMode    *string  `json:"triggerMode"`
	Delay          *float64 `json:"delay"`
	ResX           *float64 `json:"resX"`
	ResY           *float64 `json:"resY"`
	CanvasSelector *string  `json:"canvasSelector"`
}

type rawFeature struct {
	URL *string `json:"url"`
}

// ParseCapture validates a capture body against the allow list and the
// mode-specific field rules. Rules short-circuit in a fixed order, so a body
// that is broken in several ways reports the first breakage only.
func ParseCapture(body []byte, allow *allowlist.List) (*Capture, error) {
	raw, err := decode[rawCapture](body)
	if err != nil {
		return nil, errcode.Wrap(errcode.MissingParameters, err)
	}

	if !present(raw.URL) || !present(raw.Mode) {
		return nil, errcode.New(errcode.MissingParameters)
	}
	if !allow.Allows(*raw.URL) {
		return nil, errcode.New(errcode.UnsupportedURL)
	}

	mode := Mode(*raw.Mode)
	if mode != ModeViewport && mode != ModeCanvas {
		return nil, errcode.New(errcode.MissingParameters)
	}

	out := &Capture{URL: *raw.URL, Mode: mode}
	if err := applyTrigger(out, raw); err != nil {
		return nil, err
	}

	switch mode {
	case ModeViewport:
		if present(raw.CanvasSelector) {
			return nil, errcode.New(errcode.InvalidParameters)
		}
		if raw.ResX == nil || raw.ResY == nil {
			return nil, errcode.New(errcode.MissingParameters)
		}
		resX, okX := roundResolution(*raw.ResX)
		resY, okY := roundResolution(*raw.ResY)
		if !okX || !okY {
			return nil, errcode.New(errcode.InvalidParameters)
		}
		out.ResX, out.ResY = resX, resY

	case ModeCanvas:
		if raw.ResX != nil || raw.ResY != nil {
			return nil, errcode.New(errcode.InvalidParameters)
		}
		if !present(raw.CanvasSelector) {
			return nil, errcode.New(errcode.InvalidParameters)
		}
		out.CanvasSelector = *raw.CanvasSelector
	}

	return out, nil
}

// ParseFeature validates a feature-extraction body.
func ParseFeature(body []byte, allow *allowlist.List) (*Feature, error) {
	raw, err := decode[rawFeature](body)
	if err != nil {
		return nil, errcode.Wrap(errcode.MissingParameters, err)
	}
	if !present(raw.URL) {
		return nil, errcode.New(errcode.MissingParameters)
	}
	if !allow.Allows(*raw.URL) {
		return nil, errcode.New(errcode.UnsupportedURL)
	}
	return &Feature{URL: *raw.URL}, nil
}

// applyTrigger resolves the trigger mode, defaulting to a fixed delay, and
// checks that the delay field is present exactly when it is meaningful.
func applyTrigger(out *Capture, raw rawCapture) error {
	trigger := TriggerDelay
	if raw.TriggerMode != nil {
		trigger = TriggerMode(*raw.TriggerMode)
		if trigger != TriggerDelay && trigger != TriggerFnCall {
			return errcode.New(errcode.InvalidTriggerParameters)
		}
	}
	out.Trigger = trigger

	if trigger == TriggerFnCall {
		if raw.Delay != nil {
			return errcode.New(errcode.InvalidTriggerParameters)
		}
		return nil
	}

	if raw.Delay == nil {
		return errcode.New(errcode.InvalidTriggerParameters)
	}

	// Range-check the raw float before converting: durations saturate well
	// below the float range, so a post-conversion comparison cannot catch
	// large values.
	delay := *raw.Delay
	if math.IsNaN(delay) || delay < 0 || delay > float64(MaxDelay/time.Millisecond) {
		return errcode.New(errcode.InvalidTriggerParameters)
	}
	out.Delay = time.Duration(delay * float64(time.Millisecond))
	return nil
}

// roundResolution rounds to the nearest integer and checks the inclusive
// [MinResolution, MaxResolution] range.
func roundResolution(v float64) (int, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	r := int(math.Round(v))
	if r < MinResolution || r > MaxResolution {
		return 0, false
	}
	return r, true
}

func decode[T any](body []byte) (T, error) {
	var v T
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, err
	}

	// The body must be exactly one JSON value.
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return v, errors.New("unexpected data after request body")
	}
	return v, nil
}

func present(s *string) bool {
	return s != nil && *s != ""
}
