package attest

import (
	"context"
	"time"
)

// timedProvider is a demo stand-in for a TEE quote check: it flips between
// attested and not attested on even/odd seconds so that fail-closed paths
// actually get exercised.
type timedProvider struct {
	now func() time.Time
}

func init() {
	Register("timed", createTimedProvider)
}

func createTimedProvider(args interface{}) (Provider, error) {
	_ = args
	return &timedProvider{now: time.Now}, nil
}

func (p *timedProvider) Name() string {
	return "timed"
}

func (p *timedProvider) IsAttested(ctx context.Context) bool {
	_ = ctx
	return p.now().UTC().Second()%2 == 0
}
