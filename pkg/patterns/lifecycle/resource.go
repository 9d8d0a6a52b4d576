package lifecycle

import (
	"context"
	"errors"
	"fmt"
)

var ErrNotReady = errors.New("resource not ready after start")

// HealthStatus represents the health of a component.
type HealthStatus struct {
	Ready   bool   `json:"ready"`
	Message string `json:"message,omitempty"`
}

// ManagedResource defines a component with a managed lifecycle.
type ManagedResource interface {
	// Start starts the component without blocking. It should be idempotent.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the component. It should be idempotent.
	Stop(ctx context.Context) error

	Health(ctx context.Context) HealthStatus
}

// Group starts resources in order and stops them in reverse order.
type Group struct {
	resources []ManagedResource
	started   int
}

func NewGroup(resources ...ManagedResource) *Group {
	return &Group{resources: resources}
}

// Start starts every resource and then requires the group to report ready.
// On failure, the resources already started are stopped.
func (g *Group) Start(ctx context.Context) error {
	for i, r := range g.resources {
		if err := r.Start(ctx); err != nil {
			g.started = i
			return errors.Join(fmt.Errorf("failed to start resource %d: %w", i, err), g.Stop(ctx))
		}
	}
	g.started = len(g.resources)

	if status := g.Health(ctx); !status.Ready {
		return errors.Join(fmt.Errorf("%w: %s", ErrNotReady, status.Message), g.Stop(ctx))
	}
	return nil
}

// Stop stops every started resource in reverse order and joins their errors.
func (g *Group) Stop(ctx context.Context) error {
	var errs []error
	for i := g.started - 1; i >= 0; i-- {
		if err := g.resources[i].Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	g.started = 0
	return errors.Join(errs...)
}

// Health reports ready only when every resource is ready.
func (g *Group) Health(ctx context.Context) HealthStatus {
	for _, r := range g.resources {
		if status := r.Health(ctx); !status.Ready {
			return status
		}
	}
	return HealthStatus{Ready: true}
}
