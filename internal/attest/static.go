package attest

import "context"

type staticConfig struct {
	Attested bool `json:"attested"`
}

type staticProvider struct {
	attested bool
}

func init() {
	Register("static", createStaticProvider)
}

func createStaticProvider(args interface{}) (Provider, error) {
	cfg := &staticConfig{Attested: true}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	return &staticProvider{attested: cfg.Attested}, nil
}

func (p *staticProvider) Name() string {
	return "static"
}

func (p *staticProvider) IsAttested(ctx context.Context) bool {
	_ = ctx
	return p.attested
}
