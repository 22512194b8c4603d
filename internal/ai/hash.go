package ai

import (
	"context"
	"crypto/sha256"
)

type hashConfig struct {
	Dim int `json:"dim"`
}

// hashEmbedProvider is a deterministic, offline embedder: the vector is
// derived from SHA-256 digests of the text. Useful for tests and for
// deployments without an embedding backend; similarity is only meaningful
// for identical or near-identical text.
type hashEmbedProvider struct {
	dim int
}

func (p *hashEmbedProvider) Name() string {
	return "hash"
}

func (p *hashEmbedProvider) Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error) {
	_ = ctx
	_ = model
	_ = taskType
	vector := make([]float32, p.dim)
	filled := 0
	counter := byte(0)
	for filled < p.dim {
		digest := sha256.Sum256(append([]byte(text), counter))
		for _, b := range digest {
			if filled == p.dim {
				break
			}
			vector[filled] = float32(b) / 255
			filled++
		}
		counter++
	}
	return vector, nil
}

func init() {
	RegisterEmbed("hash", func(args interface{}) (IEmbedProvider, error) {
		cfg := &hashConfig{Dim: 32}
		if err := decodeConfig(args, cfg); err != nil {
			return nil, err
		}
		return &hashEmbedProvider{dim: cfg.Dim}, nil
	})
}
