package attest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Provider reports whether the current execution environment is trusted
// enough to release key material. Implementations here are placeholders for
// a real TEE attestation flow; the fail-closed contract lives in the key
// custodian, not in the provider.
type Provider interface {
	Name() string
	IsAttested(ctx context.Context) bool
}

type Factory func(args interface{}) (Provider, error)

var registry = map[string]Factory{}

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func NewProvider(name string, args interface{}) (Provider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("attest provider is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported attest provider: %s", name)
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode attest provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode attest provider config: %w", err)
	}
	return nil
}
