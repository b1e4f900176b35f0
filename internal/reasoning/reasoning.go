// Package reasoning turns a message, its intent and the retrieved context into
// a reply plus a plan of domain actions.
package reasoning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gab-cat/cold-start-sub000/internal/actions"
	"github.com/gab-cat/cold-start-sub000/internal/intent"
	"github.com/gab-cat/cold-start-sub000/internal/llm"
	"github.com/gab-cat/cold-start-sub000/internal/metrics"
	"github.com/gab-cat/cold-start-sub000/internal/model"
	"github.com/gab-cat/cold-start-sub000/internal/rag"
)

const (
	// FallbackText is the reply used when the model output cannot be used.
	FallbackText       = "Thanks for the update! I've noted it."
	FallbackConfidence = 0.3
	FallbackReasoning  = "fallback"

	promptActivities = 5
)

// Input is everything the engine sees for one turn.
type Input struct {
	Message  string
	Intent   intent.Intent
	Context  rag.Context
	Profile  *model.UserProfile
	Now      time.Time
	Location *time.Location
}

// PlanStep is one proposed action. Action is nil when the proposal failed to
// decode, in which case Err says why and the step must not be executed.
type PlanStep struct {
	Operation string
	Params    json.RawMessage
	Action    actions.Action
	Err       error
}

// Rejected reports whether the step failed to decode.
func (s PlanStep) Rejected() bool { return s.Action == nil }

// Response is the engine's decision.
type Response struct {
	Type       model.ResponseType
	Text       string
	Steps      []PlanStep
	Reasoning  string
	Confidence float64
	Fallback   bool
}

// Fallback is the response used when the model output is unusable.
func Fallback() Response {
	return Response{
		Type:       model.ResponseConfirmation,
		Text:       FallbackText,
		Reasoning:  FallbackReasoning,
		Confidence: FallbackConfidence,
		Fallback:   true,
	}
}

// wireAction and wireResponse describe the schema handed to the model.
type wireAction struct {
	Operation string         `json:"operation" jsonschema:"enum=activity-log,enum=streak-update,enum=goal-adjust,enum=profile-context-touch,enum=weight-update"`
	Params    map[string]any `json:"params"`
}

type wireResponse struct {
	Type         model.ResponseType `json:"type" jsonschema:"enum=recommendation,enum=confirmation,enum=alert,enum=question"`
	ResponseText string             `json:"responseText"`
	Actions      []wireAction       `json:"actions"`
	Reasoning    string             `json:"reasoning"`
	Confidence   float64            `json:"confidence" jsonschema:"minimum=0,maximum=1"`
}

// decodedResponse keeps params raw so each action goes through actions.Decode.
type decodedResponse struct {
	Type         model.ResponseType `json:"type"`
	ResponseText string             `json:"responseText"`
	Actions      []struct {
		Operation string          `json:"operation"`
		Params    json.RawMessage `json:"params"`
	} `json:"actions"`
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"confidence"`
}

var schema = llm.SchemaFor("reasoning", &wireResponse{})

// Engine produces Responses with one structured-generation call.
type Engine struct {
	gen     llm.Generator
	log     zerolog.Logger
	timeout time.Duration
}

func NewEngine(gen llm.Generator, log zerolog.Logger, timeout time.Duration) *Engine {
	return &Engine{gen: gen, log: log, timeout: timeout}
}

// Reason never fails; unusable model output yields Fallback().
func (e *Engine) Reason(ctx context.Context, in Input) Response {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	raw, err := e.gen.GenerateStructured(ctx, BuildPrompt(in), schema)
	if err != nil {
		return e.fallback(err, "generate")
	}
	resp, err := Decode(raw)
	if err != nil {
		return e.fallback(err, "decode")
	}
	for _, s := range resp.Steps {
		if s.Rejected() {
			e.log.Warn().Err(s.Err).Str("operation", s.Operation).Msg("rejected planned action")
		}
	}
	return resp
}

func (e *Engine) fallback(err error, stage string) Response {
	e.log.Warn().Err(err).Str("stage", stage).Msg("reasoning failed, using fallback")
	metrics.IncFallback("reasoning")
	return Fallback()
}

// Decode parses model output. Envelope errors fail the whole response;
// action errors only reject their own step.
func Decode(raw []byte) (Response, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Response{}, llm.ErrEmptyResponse
	}
	var d decodedResponse
	if err := json.Unmarshal(raw, &d); err != nil {
		return Response{}, err
	}
	if !d.Type.Valid() {
		return Response{}, fmt.Errorf("unknown response type %q", d.Type)
	}
	if strings.TrimSpace(d.ResponseText) == "" {
		return Response{}, fmt.Errorf("empty responseText")
	}
	if d.Confidence < 0 || d.Confidence > 1 {
		return Response{}, fmt.Errorf("confidence %v out of range", d.Confidence)
	}

	resp := Response{Type: d.Type, Text: d.ResponseText, Reasoning: d.Reasoning, Confidence: d.Confidence}
	for _, a := range d.Actions {
		step := PlanStep{Operation: a.Operation, Params: a.Params}
		step.Action, step.Err = actions.Decode(a.Operation, a.Params)
		resp.Steps = append(resp.Steps, step)
	}
	return resp, nil
}

// BuildPrompt renders the reasoning prompt.
func BuildPrompt(in Input) string {
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	var b strings.Builder
	b.WriteString("You are a supportive wellness coach inside a chat app. Reply briefly and warmly.\n")
	b.WriteString("Propose actions only for things the user actually reported or asked to change.\n\n")
	fmt.Fprintf(&b, "Current time: %s (%s)\n", in.Now.In(loc).Format(time.RFC3339), loc)

	b.WriteString("\nProfile:\n")
	if in.Profile == nil {
		b.WriteString("- unknown\n")
	} else {
		writeProfile(&b, *in.Profile)
	}

	fmt.Fprintf(&b, "\nDetected intent: %s (confidence %.2f)", in.Intent.Intent, in.Intent.Confidence)
	if in.Intent.ActivityType != nil {
		fmt.Fprintf(&b, ", activity %s", *in.Intent.ActivityType)
	}
	if in.Intent.Value != nil && in.Intent.Unit != nil {
		fmt.Fprintf(&b, ", %g %s", *in.Intent.Value, *in.Intent.Unit)
	}
	b.WriteString("\n")

	b.WriteString("\nRecent activities:\n")
	recent := in.Context.RecentActivities
	if len(recent) > promptActivities {
		recent = recent[:promptActivities]
	}
	if len(recent) == 0 {
		b.WriteString("- none\n")
	}
	for _, a := range recent {
		fmt.Fprintf(&b, "- %s %s\n", a.OccurredAt().In(loc).Format("Mon Jan 2 15:04"), a.Describe())
	}

	b.WriteString("\nStreaks:\n")
	if len(in.Context.ActiveStreaks) == 0 {
		b.WriteString("- none\n")
	}
	for _, s := range in.Context.ActiveStreaks {
		b.WriteString("- " + s.Describe() + "\n")
	}

	b.WriteString("\nActive goals:\n")
	if len(in.Context.ActiveGoals) == 0 {
		b.WriteString("- none\n")
	}
	for _, g := range in.Context.ActiveGoals {
		fmt.Fprintf(&b, "- [%s] %s\n", g.ID, g.Describe())
	}

	if len(in.Context.SemanticChunks) > 0 {
		b.WriteString("\nRelevant memories:\n")
		for _, c := range in.Context.SemanticChunks {
			b.WriteString("- " + c + "\n")
		}
	}

	b.WriteString("\nAllowed actions (operation: params):\n")
	b.WriteString("- activity-log: {activityType, activityName?, durationMin?, distanceKm?, caloriesBurned?, caloriesConsumed?, ")
	b.WriteString("intensity? (low|moderate|high), hydrationMl?, sleepHours?, sleepQuality? (poor|fair|good|excellent), ")
	b.WriteString("mealType? (breakfast|lunch|dinner|snack), mood?, weightKg?, timeStarted?, timeEnded?, note?}\n")
	b.WriteString("  timeStarted/timeEnded may be phrases like \"7am\", \"yesterday evening\" or timestamps.\n")
	b.WriteString("- streak-update: {streakType (workout|hydration|sleep|nutrition|mindfulness|logging)}\n")
	b.WriteString("- goal-adjust: {goalId or goalType, newTarget?, milestone?, status? (active|completed|paused), reasoning, evidence?, confidence?}\n")
	b.WriteString("- profile-context-touch: {}\n")
	b.WriteString("- weight-update: {weightKg or weightChange}\n")
	b.WriteString("Logging an activity already updates goals and streaks.\n")

	b.WriteString("\nMessage: ")
	b.WriteString(in.Message)
	return b.String()
}

func writeProfile(b *strings.Builder, p model.UserProfile) {
	if p.DisplayName != "" {
		fmt.Fprintf(b, "- name: %s\n", p.DisplayName)
	}
	h := p.Health
	if h.Age != nil {
		fmt.Fprintf(b, "- age: %d\n", *h.Age)
	}
	if h.FitnessLevel != "" {
		fmt.Fprintf(b, "- fitness level: %s\n", h.FitnessLevel)
	}
	if len(h.Conditions) > 0 {
		fmt.Fprintf(b, "- conditions: %s\n", strings.Join(h.Conditions, ", "))
	}
	if h.WeightKg != nil {
		fmt.Fprintf(b, "- weight: %.1f kg\n", *h.WeightKg)
	}
	if h.HeightCm != nil {
		fmt.Fprintf(b, "- height: %.0f cm\n", *h.HeightCm)
	}
}
