package repository

import (
	"context"

	"github.com/camilomoreno07/gorkis-api/internal/domain"
)

// ListFilter selects a page of services. A zero Limit returns every record.
type ListFilter struct {
	Limit     int32
	NextToken string
}

// ListResult is one page of services. NextToken is empty on the last page.
type ListResult struct {
	Services  []domain.Service
	NextToken string
}

// StoredRate is a rate as read from the store. Raw is the stored value and
// is the compare value of UpdateRate. It is nil when the item has no rate or
// the rate is stored as NULL.
type StoredRate struct {
	Raw any
}

// Present reports whether the item had a rate attribute.
func (s StoredRate) Present() bool {
	return s.Raw != nil
}

// ServiceRepository defines the persistence operations for services.
type ServiceRepository interface {
	// Create stores a new service.
	Create(ctx context.Context, svc *domain.Service) error

	// GetByID returns the service with the given id or apperrors.ErrNotFound.
	GetByID(ctx context.Context, id string) (*domain.Service, error)

	// List returns services in storage order.
	List(ctx context.Context, filter ListFilter) (*ListResult, error)

	// Update writes patch to an existing service according to policy and
	// returns the attributes written. Unknown ids yield apperrors.ErrNotFound.
	Update(ctx context.Context, id string, patch domain.ServicePatch, policy domain.UpdatePolicy) (domain.Attributes, error)

	// GetRate returns the stored rate of a service or apperrors.ErrNotFound.
	GetRate(ctx context.Context, id string) (StoredRate, error)

	// UpdateRate sets the rate only if the stored rate still equals expected.
	// A failed comparison, or a service deleted meanwhile, yields
	// apperrors.ErrConflict.
	UpdateRate(ctx context.Context, id string, expected StoredRate, rate int) (domain.Attributes, error)

	// Delete removes a service. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
}
