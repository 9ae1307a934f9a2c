package core

import (
	"github.com/go-chi/chi/v5"
)

// Service is an HTTP module mounted by the edge router under /<Name()>.
type Service interface {
	// Name returns the path prefix for this service (e.g. "session").
	Name() string

	// RegisterRoutes sets up HTTP routes on a sub-router scoped to the prefix.
	RegisterRoutes(router chi.Router)
}

// Registry holds the services to mount, in registration order.
type Registry struct {
	services []Service
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds s to the registry.
func (r *Registry) Register(s Service) {
	r.services = append(r.services, s)
}

// Services returns all registered services.
func (r *Registry) Services() []Service {
	return r.services
}
