package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gab-cat/cold-start-sub000/internal/llm"
	"github.com/gab-cat/cold-start-sub000/internal/model"
)

type stubGenerator struct {
	out    string
	err    error
	prompt string
}

func (s *stubGenerator) GenerateStructured(_ context.Context, prompt string, _ *llm.Schema) ([]byte, error) {
	s.prompt = prompt
	return []byte(s.out), s.err
}

func TestParse_ValidOutput(t *testing.T) {
	gen := &stubGenerator{out: `{"intent":"log-activity","activityType":"walk","value":5,"unit":"km","confidence":0.92,"extracted":{"time":"this morning"}}`}
	in := NewParser(gen, zerolog.Nop(), 0).Parse(context.Background(), "walked 5km this morning")

	assert.Equal(t, KindLogActivity, in.Intent)
	require.NotNil(t, in.ActivityType)
	assert.Equal(t, model.CategoryWalk, *in.ActivityType)
	assert.Equal(t, 5.0, *in.Value)
	assert.Equal(t, Unit("km"), *in.Unit)
	assert.Equal(t, "this morning", in.Extracted["time"])
	assert.Contains(t, gen.prompt, "walked 5km this morning")
}

func TestParse_FallbackTotality(t *testing.T) {
	cases := map[string]*stubGenerator{
		"transport error":  {err: errors.New("connection refused")},
		"empty":            {out: ""},
		"not json":         {out: "I think the user walked"},
		"unknown intent":   {out: `{"intent":"dance","confidence":0.5}`},
		"unknown activity": {out: `{"intent":"log-activity","activityType":"teleport","confidence":0.5}`},
		"unknown unit":     {out: `{"intent":"log-activity","unit":"parsec","confidence":0.5}`},
		"confidence range": {out: `{"intent":"other","confidence":7}`},
		"unknown field":    {out: `{"intent":"other","confidence":0.5,"mood":"happy"}`},
		"wrong type":       {out: `{"intent":"other","confidence":"high"}`},
		"array":            {out: `[]`},
	}
	for name, gen := range cases {
		t.Run(name, func(t *testing.T) {
			in := NewParser(gen, zerolog.Nop(), 0).Parse(context.Background(), "hello")
			assert.Equal(t, Fallback(), in)
			assert.True(t, in.IsFallback())
		})
	}
}

func TestParse_BlankMessageSkipsModel(t *testing.T) {
	gen := &stubGenerator{out: `{"intent":"ask-advice","confidence":1}`}
	in := NewParser(gen, zerolog.Nop(), 0).Parse(context.Background(), "   ")
	assert.True(t, in.IsFallback())
	assert.Empty(t, gen.prompt)
}
