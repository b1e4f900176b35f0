package embeddings

import (
	"context"

	"github.com/rs/zerolog"
)

// Provider produces vector representations for text.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Zero returns the all-zero vector of the given dimension. Cosine similarity
// against it is zero for every record.
func Zero(dim int) []float32 {
	if dim < 0 {
		dim = 0
	}
	return make([]float32, dim)
}

// EmbedOrZero embeds text and degrades to the zero vector when the provider
// fails, returns nothing, or returns a vector whose length is not dim. The
// second result reports whether it degraded.
func EmbedOrZero(ctx context.Context, p Provider, text string, dim int, log zerolog.Logger) ([]float32, bool) {
	vec, err := p.Embed(ctx, text)
	if err != nil || len(vec) == 0 {
		log.Warn().Err(err).Int("dim", dim).Msg("query embedding failed, using zero vector")
		return Zero(dim), true
	}
	if dim > 0 && len(vec) != dim {
		log.Warn().Int("vec_len", len(vec)).Int("dim", dim).Msg("query embedding has wrong dimensions, using zero vector")
		return Zero(dim), true
	}
	return vec, false
}
