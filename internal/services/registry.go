package services

import (
	"fmt"
	"sync"

	"github.com/desertthunder/xfer/internal/models"
	"github.com/desertthunder/xfer/internal/shared"
	"github.com/samber/lo"
)

// Registry maps platforms to their [Service] implementation.
// It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	services map[models.Platform]Service
}

// NewRegistry creates a registry holding the given services.
func NewRegistry(svcs ...Service) *Registry {
	r := &Registry{services: make(map[models.Platform]Service)}
	for _, svc := range svcs {
		r.Register(svc)
	}
	return r
}

// Register adds a service keyed by its Platform, replacing any previous one.
func (r *Registry) Register(svc Service) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[svc.Platform()] = svc
}

// Get returns the service for platform.
func (r *Registry) Get(platform models.Platform) (Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	svc, ok := r.services[platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrUnsupportedPlatform, platform)
	}
	return svc, nil
}

// Lookup parses name (aliases allowed) and returns the matching service.
func (r *Registry) Lookup(name string) (Service, error) {
	platform, err := models.ParsePlatform(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrUnsupportedPlatform, err)
	}
	return r.Get(platform)
}

// Available lists registered platforms in [models.Platforms] order.
func (r *Registry) Available() []models.Platform {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Filter(models.Platforms, func(p models.Platform, _ int) bool {
		_, ok := r.services[p]
		return ok
	})
}
