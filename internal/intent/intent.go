package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gab-cat/cold-start-sub000/internal/llm"
	"github.com/gab-cat/cold-start-sub000/internal/metrics"
	"github.com/gab-cat/cold-start-sub000/internal/model"
)

// Kind classifies a user message.
type Kind string

const (
	KindLogActivity  Kind = "log-activity"
	KindAskAdvice    Kind = "ask-advice"
	KindCheckStatus  Kind = "check-status"
	KindSetGoal      Kind = "set-goal"
	KindUpdateWeight Kind = "update-weight"
	KindOther        Kind = "other"
)

func (k Kind) Valid() bool {
	switch k {
	case KindLogActivity, KindAskAdvice, KindCheckStatus, KindSetGoal, KindUpdateWeight, KindOther:
		return true
	}
	return false
}

// Unit is the unit of an extracted value.
type Unit string

var Units = []Unit{"km", "mi", "m", "min", "h", "ml", "l", "glass", "kg", "lb", "kcal", "steps", "count"}

func (u Unit) Valid() bool {
	for _, k := range Units {
		if k == u {
			return true
		}
	}
	return false
}

// Intent is the structured reading of one message.
type Intent struct {
	Intent       Kind                    `json:"intent" jsonschema:"enum=log-activity,enum=ask-advice,enum=check-status,enum=set-goal,enum=update-weight,enum=other"`
	ActivityType *model.ActivityCategory `json:"activityType,omitempty" jsonschema:"enum=walk,enum=run,enum=cycle,enum=swim,enum=strength,enum=yoga,enum=hiit,enum=sports,enum=workout,enum=meal,enum=sleep,enum=hydration,enum=reading,enum=meditation,enum=gaming,enum=social,enum=chores,enum=shopping,enum=commute"`
	Value        *float64                `json:"value,omitempty"`
	Unit         *Unit                   `json:"unit,omitempty" jsonschema:"enum=km,enum=mi,enum=m,enum=min,enum=h,enum=ml,enum=l,enum=glass,enum=kg,enum=lb,enum=kcal,enum=steps,enum=count"`
	Confidence   float64                 `json:"confidence" jsonschema:"minimum=0,maximum=1"`
	Extracted    map[string]string       `json:"extracted,omitempty"`
}

// Fallback is the intent used whenever parsing fails.
func Fallback() Intent {
	return Intent{Intent: KindOther, Confidence: 0}
}

// IsFallback reports whether i carries no information.
func (i Intent) IsFallback() bool {
	return i.Intent == KindOther && i.Confidence == 0 && i.ActivityType == nil && i.Value == nil && i.Unit == nil && len(i.Extracted) == 0
}

func (i Intent) validate() error {
	if !i.Intent.Valid() {
		return fmt.Errorf("unknown intent %q", i.Intent)
	}
	if i.ActivityType != nil && !i.ActivityType.Valid() {
		return fmt.Errorf("unknown activity type %q", *i.ActivityType)
	}
	if i.Unit != nil && !i.Unit.Valid() {
		return fmt.Errorf("unknown unit %q", *i.Unit)
	}
	if i.Confidence < 0 || i.Confidence > 1 {
		return fmt.Errorf("confidence %v out of range", i.Confidence)
	}
	return nil
}

var schema = llm.SchemaFor("intent", &Intent{})

// Parser classifies messages with one structured-generation call.
type Parser struct {
	gen     llm.Generator
	log     zerolog.Logger
	timeout time.Duration
}

// NewParser returns a Parser. A zero timeout leaves the caller's deadline.
func NewParser(gen llm.Generator, log zerolog.Logger, timeout time.Duration) *Parser {
	return &Parser{gen: gen, log: log, timeout: timeout}
}

// Parse never fails: transport errors, empty output and schema violations
// all yield Fallback().
func (p *Parser) Parse(ctx context.Context, message string) Intent {
	if strings.TrimSpace(message) == "" {
		return Fallback()
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	raw, err := p.gen.GenerateStructured(ctx, buildPrompt(message), schema)
	if err != nil {
		return p.fallback(err, "generate")
	}
	in, err := Decode(raw)
	if err != nil {
		return p.fallback(err, "decode")
	}
	return in
}

func (p *Parser) fallback(err error, stage string) Intent {
	p.log.Warn().Err(err).Str("stage", stage).Msg("intent parsing failed, using fallback")
	metrics.IncFallback("intent")
	return Fallback()
}

// Decode strictly parses model output into an Intent.
func Decode(raw []byte) (Intent, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Intent{}, llm.ErrEmptyResponse
	}
	var in Intent
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return Intent{}, err
	}
	if err := in.validate(); err != nil {
		return Intent{}, err
	}
	return in, nil
}

func buildPrompt(message string) string {
	var b strings.Builder
	b.WriteString("Classify the wellness-app message below. Answer with JSON only.\n")
	b.WriteString("intent: log-activity (user reports something they did), ask-advice, check-status (progress, streaks, goals), ")
	b.WriteString("set-goal, update-weight, other.\n")
	b.WriteString("activityType: the activity category when one is mentioned.\n")
	b.WriteString("value and unit: the main quantity mentioned, e.g. 5 km, 2 glass, 70 kg.\n")
	b.WriteString("extracted: any other useful details as short strings (e.g. time, mood, food).\n")
	b.WriteString("confidence: 0 to 1.\n\nMessage: ")
	b.WriteString(message)
	return b.String()
}
