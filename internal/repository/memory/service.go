package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/camilomoreno07/gorkis-api/internal/domain"
	"github.com/camilomoreno07/gorkis-api/internal/repository"
	apperrors "github.com/camilomoreno07/gorkis-api/pkg/errors"
)

// ServiceRepository is an in-process repository.ServiceRepository with the
// same conditional-write semantics as the DynamoDB one. It backs tests and
// STORAGE_BACKEND=memory.
type ServiceRepository struct {
	mu    sync.RWMutex
	items map[string]domain.Service
}

// NewServiceRepository creates an empty repository.
func NewServiceRepository() *ServiceRepository {
	return &ServiceRepository{items: make(map[string]domain.Service)}
}

// Create stores svc, failing with apperrors.ErrConflict when the id exists.
func (r *ServiceRepository) Create(_ context.Context, svc *domain.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[svc.ServiceID]; ok {
		return fmt.Errorf("put service %s: %w", svc.ServiceID, apperrors.ErrConflict)
	}
	r.items[svc.ServiceID] = clone(*svc)
	return nil
}

// GetByID returns a copy of the service or apperrors.ErrNotFound.
func (r *ServiceRepository) GetByID(_ context.Context, id string) (*domain.Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	svc, ok := r.items[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	out := clone(svc)
	return &out, nil
}

// List returns services ordered by id, paged the way a DynamoDB scan is.
func (r *ServiceRepository) List(_ context.Context, filter repository.ListFilter) (*repository.ListResult, error) {
	startAfter, err := repository.DecodeToken(filter.NextToken)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.items))
	for id := range r.items {
		if id > startAfter {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	res := &repository.ListResult{Services: make([]domain.Service, 0, len(ids))}
	for _, id := range ids {
		if filter.Limit > 0 && len(res.Services) == int(filter.Limit) {
			res.NextToken = repository.EncodeToken(res.Services[len(res.Services)-1].ServiceID)
			break
		}
		res.Services = append(res.Services, clone(r.items[id]))
	}
	return res, nil
}

// Update applies patch under policy. A partial update needs at least one
// field; replace clears every field the patch leaves out.
func (r *ServiceRepository) Update(_ context.Context, id string, patch domain.ServicePatch, policy domain.UpdatePolicy) (domain.Attributes, error) {
	if policy != domain.UpdatePolicyReplace && patch.IsEmpty() {
		return nil, fmt.Errorf("%w: no fields to update", apperrors.ErrInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	svc, ok := r.items[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}

	if policy == domain.UpdatePolicyReplace {
		svc = domain.Service{ServiceID: svc.ServiceID}
	}
	if patch.Author != nil {
		svc.Author = patch.Author
	}
	if patch.Title != nil {
		svc.Title = patch.Title
	}
	if patch.Description != nil {
		svc.Description = patch.Description
	}
	if patch.Rate != nil {
		svc.Rate = patch.Rate
	}
	if patch.ImageURL != nil {
		svc.ImageURL = patch.ImageURL
	}
	r.items[id] = clone(svc)

	attrs := domain.Attributes{}
	for k, v := range patch.Values() {
		attrs[k] = v
	}
	return attrs, nil
}

// GetRate returns the stored rate; Raw is nil when the service has none.
func (r *ServiceRepository) GetRate(_ context.Context, id string) (repository.StoredRate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	svc, ok := r.items[id]
	if !ok {
		return repository.StoredRate{}, apperrors.ErrNotFound
	}
	if svc.Rate == nil {
		return repository.StoredRate{}, nil
	}
	return repository.StoredRate{Raw: *svc.Rate}, nil
}

// UpdateRate writes rate if the stored rate still matches expected.
func (r *ServiceRepository) UpdateRate(_ context.Context, id string, expected repository.StoredRate, rate int) (domain.Attributes, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	svc, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("rate of %s changed: %w", id, apperrors.ErrConflict)
	}

	switch {
	case !expected.Present() && svc.Rate != nil,
		expected.Present() && (svc.Rate == nil || expected.Raw != any(*svc.Rate)):
		return nil, fmt.Errorf("rate of %s changed: %w", id, apperrors.ErrConflict)
	}

	svc.Rate = &rate
	r.items[id] = svc
	return domain.Attributes{domain.AttrRate: rate}, nil
}

// Delete removes the service. Unknown ids are ignored.
func (r *ServiceRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.items, id)
	return nil
}

// clone copies the pointed-to fields so callers cannot mutate stored state.
func clone(svc domain.Service) domain.Service {
	out := domain.Service{ServiceID: svc.ServiceID}
	out.Author = copyPtr(svc.Author)
	out.Title = copyPtr(svc.Title)
	out.Description = copyPtr(svc.Description)
	out.Rate = copyPtr(svc.Rate)
	out.ImageURL = copyPtr(svc.ImageURL)
	return out
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
