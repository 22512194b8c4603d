package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

type geminiConfig struct {
	APIKey string `json:"api_key"`
}

// geminiClient backs both the chat and the embed registrations with one
// genai client, created lazily on first use.
type geminiClient struct {
	apiKey string
	client *genai.Client
}

func newGeminiClient(args interface{}) (*geminiClient, error) {
	cfg := &geminiConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	return &geminiClient{apiKey: strings.TrimSpace(cfg.APIKey)}, nil
}

func (g *geminiClient) Name() string {
	return "gemini"
}

func (g *geminiClient) ensure(ctx context.Context) (*genai.Client, error) {
	if g.apiKey == "" {
		return nil, ErrUnavailable
	}
	if g.client != nil {
		return g.client, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	g.client = client
	return client, nil
}

func (g *geminiClient) Generate(ctx context.Context, model string, prompt string) (string, error) {
	client, err := g.ensure(ctx)
	if err != nil {
		return "", err
	}
	contents := []*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}}
	resp, err := client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text()), nil
}

func (g *geminiClient) Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error) {
	client, err := g.ensure(ctx)
	if err != nil {
		return nil, err
	}
	var config *genai.EmbedContentConfig
	if taskType != "" {
		config = &genai.EmbedContentConfig{TaskType: taskType}
	}
	contents := []*genai.Content{{Parts: []*genai.Part{{Text: text}}}}
	resp, err := client.Models.EmbedContent(ctx, model, contents, config)
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embedding values returned")
	}
	return resp.Embeddings[0].Values, nil
}

func init() {
	Register("gemini", func(args interface{}) (IChatProvider, error) {
		return newGeminiClient(args)
	})
	RegisterEmbed("gemini", func(args interface{}) (IEmbedProvider, error) {
		return newGeminiClient(args)
	})
}
