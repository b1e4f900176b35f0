// Package agent orchestrates one conversational turn: intent and context in
// parallel, then reasoning, then sequential execution of the plan.
package agent

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gab-cat/cold-start-sub000/internal/actions"
	"github.com/gab-cat/cold-start-sub000/internal/intent"
	"github.com/gab-cat/cold-start-sub000/internal/metrics"
	"github.com/gab-cat/cold-start-sub000/internal/model"
	"github.com/gab-cat/cold-start-sub000/internal/rag"
	"github.com/gab-cat/cold-start-sub000/internal/reasoning"
	"github.com/gab-cat/cold-start-sub000/internal/store"
	"github.com/gab-cat/cold-start-sub000/internal/tasks"
)

// GenericFailureText is returned when a turn fails on storage.
const GenericFailureText = "Sorry, something went wrong on our side. Please try again in a moment."

type IntentParser interface {
	Parse(ctx context.Context, message string) intent.Intent
}

type ContextRetriever interface {
	Retrieve(ctx context.Context, userID, query string, categories ...model.MemoryCategory) (rag.Context, error)
}

type Reasoner interface {
	Reason(ctx context.Context, in reasoning.Input) reasoning.Response
}

type ActionExecutor interface {
	Execute(ctx context.Context, userID string, a actions.Action, ec actions.ExecContext) (actions.Result, error)
}

// Submitter runs background jobs keyed by user; *tasks.Queue satisfies it.
type Submitter interface {
	Submit(ctx context.Context, key string, job tasks.Job) error
}

// Deps are the pipeline's collaborators.
type Deps struct {
	Store     store.Store
	Intents   IntentParser
	Retriever ContextRetriever
	Reasoner  Reasoner
	Executor  ActionExecutor
	Tasks     Submitter
}

// Options tune the turn.
type Options struct {
	DefaultLocation *time.Location
	// MaxClockSkew bounds how far in the future a client timestamp may be.
	MaxClockSkew time.Duration
	// MaxClientAge bounds how far in the past a client timestamp may be.
	MaxClientAge time.Duration
	TurnTimeout  time.Duration
}

// Reply is the result of ProcessMessage.
type Reply struct {
	Success              bool                  `json:"success"`
	ResponseText         string                `json:"responseText"`
	ResponseType         model.ResponseType    `json:"responseType,omitempty"`
	Confidence           float64               `json:"confidence,omitempty"`
	ActionsExecutedCount int                   `json:"actionsExecutedCount"`
	Outcomes             []model.ActionOutcome `json:"outcomes,omitempty"`
}

// Pipeline holds only immutable collaborators and is safe for concurrent turns.
type Pipeline struct {
	deps Deps
	opts Options
	log  zerolog.Logger
	now  func() time.Time
}

func New(deps Deps, opts Options, log zerolog.Logger) *Pipeline {
	if opts.DefaultLocation == nil {
		opts.DefaultLocation = time.UTC
	}
	if opts.MaxClockSkew <= 0 {
		opts.MaxClockSkew = 5 * time.Minute
	}
	if opts.MaxClientAge <= 0 {
		opts.MaxClientAge = 24 * time.Hour
	}
	return &Pipeline{deps: deps, opts: opts, log: log.With().Str("component", "agent").Logger(), now: time.Now}
}

// WithClock returns a copy of p reading time from now.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	cp := *p
	cp.now = now
	return &cp
}

// ReferenceInstant picks the instant relative phrases are resolved against:
// the client's timestamp when it is plausible, otherwise the server clock.
func ReferenceInstant(client *time.Time, now time.Time, maxSkew, maxAge time.Duration) time.Time {
	if client == nil || client.IsZero() {
		return now
	}
	if client.After(now.Add(maxSkew)) || client.Before(now.Add(-maxAge)) {
		return now
	}
	return *client
}

// ProcessMessage runs one turn. It never returns an error; storage failures
// surface as Success=false with GenericFailureText.
func (p *Pipeline) ProcessMessage(ctx context.Context, userID, text string, clientTS *time.Time) Reply {
	if p.opts.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.TurnTimeout)
		defer cancel()
	}
	serverNow := p.now()
	ref := ReferenceInstant(clientTS, serverNow, p.opts.MaxClockSkew, p.opts.MaxClientAge)
	log := p.log.With().Str("user_id", userID).Logger()

	profile, err := p.deps.Store.Profiles().Get(ctx, userID)
	switch {
	case err == nil:
	case model.IsNotFound(err):
		profile = nil
	default:
		return p.fail(log, "load profile", err)
	}
	loc := p.opts.DefaultLocation
	if profile != nil {
		loc = profile.Location(loc)
	}

	var (
		in   intent.Intent
		rctx rag.Context
	)
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		in = p.deps.Intents.Parse(gctx, text)
		return nil
	})
	g.Go(func() error {
		c, err := p.deps.Retriever.Retrieve(gctx, userID, text)
		if err != nil {
			return err
		}
		rctx = c
		return nil
	})
	if err := g.Wait(); err != nil {
		return p.fail(log, "retrieve context", err)
	}
	metrics.ObservePhase("understand", time.Since(start))

	start = time.Now()
	resp := p.deps.Reasoner.Reason(ctx, reasoning.Input{
		Message: text, Intent: in, Context: rctx, Profile: profile, Now: ref, Location: loc,
	})
	metrics.ObservePhase("reason", time.Since(start))

	start = time.Now()
	outcomes, executed, err := p.execute(ctx, log, userID, resp.Steps, actions.ExecContext{Now: ref, Location: loc, Source: model.SourceChat})
	metrics.ObservePhase("execute", time.Since(start))
	if err != nil {
		return p.fail(log, "execute actions", err)
	}

	reply := Reply{
		Success:              true,
		ResponseText:         resp.Text,
		ResponseType:         resp.Type,
		Confidence:           resp.Confidence,
		ActionsExecutedCount: executed,
		Outcomes:             outcomes,
	}
	p.logTurn(ctx, log, model.ConversationTurn{
		ID:      uuid.New().String(),
		UserID:  userID,
		Message: text,
		Response: model.TurnResponse{
			Type: resp.Type, Text: resp.Text, Reasoning: resp.Reasoning, Confidence: resp.Confidence,
		},
		Actions:         outcomes,
		ClientTimestamp: clientTS,
		CreatedAt:       serverNow.UTC(),
	})
	metrics.ObserveTurn(metrics.OutcomeSuccess)
	log.Info().Str("intent", string(in.Intent)).Bool("fallback", resp.Fallback).
		Int("planned", len(resp.Steps)).Int("executed", executed).Bool("degraded_context", rctx.Degraded).
		Msg("turn processed")
	return reply
}

// execute applies steps in order. Rejected steps and validation errors fail
// only their own step; any other error aborts the turn.
func (p *Pipeline) execute(ctx context.Context, log zerolog.Logger, userID string, steps []reasoning.PlanStep, ec actions.ExecContext) ([]model.ActionOutcome, int, error) {
	outcomes := make([]model.ActionOutcome, 0, len(steps))
	executed := 0
	for _, step := range steps {
		out := model.ActionOutcome{Operation: step.Operation}
		if step.Rejected() {
			ev := log.Warn()
			if errors.Is(step.Err, actions.ErrUnknownOperation) {
				ev = log.Error()
			}
			ev.Err(step.Err).Str("operation", step.Operation).Msg("skipping rejected action")
			metrics.ObserveAction(step.Operation, false)
			out.Error = step.Err.Error()
			outcomes = append(outcomes, out)
			continue
		}

		res, err := p.deps.Executor.Execute(ctx, userID, step.Action, ec)
		switch {
		case err == nil && res.Applied:
			out.Success = true
			executed++
		case err == nil:
			out.Error = res.Note
		case model.IsValidationError(err):
			log.Warn().Err(err).Str("operation", step.Operation).Msg("action rejected by validation")
			out.Error = err.Error()
		default:
			return outcomes, executed, err
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, executed, nil
}

// logTurn hands the turn to the background queue; the request does not wait.
func (p *Pipeline) logTurn(ctx context.Context, log zerolog.Logger, turn model.ConversationTurn) {
	bg := context.WithoutCancel(ctx)
	job := tasks.JobFunc(func(jctx context.Context) error {
		return p.deps.Store.Conversations().Insert(jctx, turn)
	})
	if err := p.deps.Tasks.Submit(bg, turn.UserID, job); err != nil {
		log.Error().Err(err).Str("turn_id", turn.ID).Msg("could not queue conversation turn")
	}
}

func (p *Pipeline) fail(log zerolog.Logger, stage string, err error) Reply {
	log.Error().Stack().Err(err).Str("stage", stage).Msg("turn failed")
	metrics.ObserveTurn(metrics.OutcomeFailure)
	return Reply{Success: false, ResponseText: GenericFailureText}
}
