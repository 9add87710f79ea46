// internal/modules/registry.go
package modules

import (
	"context"
	"slices"

	"reddit-modbot/internal/models"
)

// PostMonitorModule reacts to a batch of newly observed posts. Batches are
// not guaranteed to be in chronological order.
type PostMonitorModule interface {
	Name() string
	ProcessNewPosts(ctx context.Context, posts []models.Post) error
}

// Registry is the fixed, ordered set of modules built at startup. Dispatch
// follows registration order.
type Registry struct {
	modules []PostMonitorModule
}

func NewRegistry(modules ...PostMonitorModule) *Registry {
	r := &Registry{}
	for _, m := range modules {
		if m != nil {
			r.modules = append(r.modules, m)
		}
	}
	return r
}

func (r *Registry) Modules() []PostMonitorModule {
	return slices.Clone(r.modules)
}

func (r *Registry) Names() []string {
	names := make([]string, len(r.modules))
	for i, m := range r.modules {
		names[i] = m.Name()
	}
	return names
}

func (r *Registry) Len() int {
	return len(r.modules)
}
