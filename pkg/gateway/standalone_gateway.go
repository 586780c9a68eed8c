package gateway

import (
	"context"
	"fmt"

	"ai-flowchat-be/pkg/flow"
)

// StandaloneGateway is the demo-mode fallback used when the host platform
// is absent. Identity is synthetic and every mutating or host-bound call is
// disabled with ErrSdkUnavailable.
type StandaloneGateway struct {
	registry *flow.Registry
	identity Identity
}

// NewStandaloneGateway creates the fallback gateway with a synthetic
// identity so the chat keeps working outside the host.
func NewStandaloneGateway(registry *flow.Registry) *StandaloneGateway {
	return &StandaloneGateway{
		registry: registry,
		identity: Identity{
			UserId:      "demo-user",
			AccountId:   "demo-account",
			DisplayName: "Demo User",
			Email:       "demo@example.com",
		},
	}
}

func (g *StandaloneGateway) IsAvailable() bool { return false }

func (g *StandaloneGateway) GetIdentity(ctx context.Context) (*Identity, error) {
	identity := g.identity
	return &identity, nil
}

func (g *StandaloneGateway) CreateRecord(ctx context.Context, flowKey string, fields map[string]string) (*RecordResult, error) {
	// The permission check still runs first so misconfigured flows surface
	// the same error in demo mode as in production.
	if !g.registry.IsActionPermitted(flowKey, flow.ActionCreate) {
		return nil, fmt.Errorf("%w: %s CREATE", ErrActionNotPermitted, flowKey)
	}
	return nil, ErrSdkUnavailable
}

func (g *StandaloneGateway) QueryDataset(ctx context.Context, datasetRef string, filter map[string]string, limit int) ([]map[string]interface{}, error) {
	return nil, ErrSdkUnavailable
}

func (g *StandaloneGateway) OpenRecordPopup(ctx context.Context, popupRef string, params map[string]string) error {
	return ErrSdkUnavailable
}
