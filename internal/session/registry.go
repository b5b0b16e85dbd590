package session

import (
	"context"
	"sync"
)

// Registry holds one Service per student, built on first use.
type Registry struct {
	deps Deps

	mu       sync.Mutex
	services map[string]*Service
}

// NewRegistry creates a registry whose services share deps.
func NewRegistry(deps Deps) *Registry {
	return &Registry{deps: deps, services: make(map[string]*Service)}
}

// Get returns the student's service. A new service resumes the student's
// open session from the repository. The restore runs outside the lock; if
// two callers race for the same student, the first one stored wins.
func (r *Registry) Get(ctx context.Context, studentID string) (*Service, error) {
	if svc := r.lookup(studentID); svc != nil {
		return svc, nil
	}

	svc := NewService(studentID, r.deps)
	if _, err := svc.Restore(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.services[studentID]; ok {
		return existing, nil
	}
	r.services[studentID] = svc
	return svc, nil
}

func (r *Registry) lookup(studentID string) *Service {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.services[studentID]
}
