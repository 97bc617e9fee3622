package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/camilomoreno07/gorkis-api/internal/domain"
	"github.com/camilomoreno07/gorkis-api/internal/event"
	"github.com/camilomoreno07/gorkis-api/internal/repository"
	apperrors "github.com/camilomoreno07/gorkis-api/pkg/errors"
	"github.com/camilomoreno07/gorkis-api/pkg/logger"
)

// maxRateAttempts bounds the read and conditional-write cycles of RateService.
const maxRateAttempts = 3

// Client-facing messages of the storage error family.
const (
	msgCreateFailed   = "could not create the service"
	msgUpdateFailed   = "could not update the service"
	msgDeleteFailed   = "could not delete the service"
	msgRetrieveFailed = "could not retrieve the service"
	msgScanFailed     = "could not retrieve services"
	msgRateConflict   = "the service rating changed concurrently, retry the request"
)

// CatalogService implements the operations on the services resource.
type CatalogService struct {
	repo      repository.ServiceRepository
	publisher event.Publisher
	policy    domain.UpdatePolicy
	logger    *slog.Logger
	newID     func() string
}

// NewCatalogService creates a catalog service. policy selects how
// UpdateService treats fields missing from a request.
func NewCatalogService(repo repository.ServiceRepository, publisher event.Publisher, policy domain.UpdatePolicy, logger *slog.Logger) *CatalogService {
	if publisher == nil {
		publisher = event.Noop{}
	}
	if policy == "" {
		policy = domain.UpdatePolicyPartial
	}
	return &CatalogService{
		repo:      repo,
		publisher: publisher,
		policy:    policy,
		logger:    logger,
		newID:     uuid.NewString,
	}
}

// Policy returns the active update policy.
func (s *CatalogService) Policy() domain.UpdatePolicy {
	return s.policy
}

// CreateServiceInput holds the fields of a new service.
type CreateServiceInput struct {
	Author      *string
	Title       *string
	Description *string
	Rate        *int
	ImageURL    *string
}

// ListResult is a page of services. NextToken is set only when a limit was
// requested and more records remain.
type ListResult struct {
	Services  []domain.Service
	NextToken string
}

// log prefers the request-scoped logger stored by the HTTP middleware.
func (s *CatalogService) log(ctx context.Context) *slog.Logger {
	if l := logger.FromContext(ctx); l != slog.Default() {
		return l
	}
	return s.logger
}

func (s *CatalogService) logStorageError(ctx context.Context, msg, id string, err error) {
	s.log(ctx).ErrorContext(ctx, msg,
		slog.String("service_id", id),
		slog.String("error", err.Error()),
	)
}

// CreateService mints an id and stores the service.
func (s *CatalogService) CreateService(ctx context.Context, input *CreateServiceInput) (*domain.Service, error) {
	svc := &domain.Service{
		ServiceID:   s.newID(),
		Author:      input.Author,
		Title:       input.Title,
		Description: input.Description,
		Rate:        input.Rate,
		ImageURL:    input.ImageURL,
	}

	if err := s.repo.Create(ctx, svc); err != nil {
		s.logStorageError(ctx, "failed to create service", svc.ServiceID, err)
		return nil, apperrors.StorageWrite(msgCreateFailed, err)
	}

	if err := s.publisher.PublishServiceCreated(ctx, svc); err != nil {
		s.log(ctx).WarnContext(ctx, "failed to publish service.created event",
			slog.String("service_id", svc.ServiceID),
			slog.String("error", err.Error()),
		)
	}

	s.log(ctx).InfoContext(ctx, "service created", slog.String("service_id", svc.ServiceID))
	return svc, nil
}

// GetService returns one service.
func (s *CatalogService) GetService(ctx context.Context, id string) (*domain.Service, error) {
	svc, err := s.repo.GetByID(ctx, id)
	switch {
	case err == nil:
		return svc, nil
	case errors.Is(err, apperrors.ErrNotFound):
		return nil, apperrors.NotFound("service", id)
	default:
		s.logStorageError(ctx, "failed to get service", id, err)
		return nil, apperrors.Retrieval(msgRetrieveFailed, err)
	}
}

// ListServices returns every service, or one page of them when limit > 0.
func (s *CatalogService) ListServices(ctx context.Context, limit int32, nextToken string) (*ListResult, error) {
	if limit < 0 {
		return nil, apperrors.InvalidInput("limit must not be negative")
	}

	res, err := s.repo.List(ctx, repository.ListFilter{Limit: limit, NextToken: nextToken})
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidInput) {
			return nil, apperrors.InvalidInput("nextToken is not valid")
		}
		s.log(ctx).ErrorContext(ctx, "failed to scan services", slog.String("error", err.Error()))
		return nil, apperrors.Scan(msgScanFailed, err)
	}

	return &ListResult{Services: res.Services, NextToken: res.NextToken}, nil
}

// UpdateService writes patch under the configured policy and returns the
// attributes written.
func (s *CatalogService) UpdateService(ctx context.Context, id string, patch domain.ServicePatch) (domain.Attributes, error) {
	if s.policy == domain.UpdatePolicyPartial && patch.IsEmpty() {
		return nil, apperrors.InvalidInput("at least one of author, title, description, rate or imageUrl is required")
	}

	attrs, err := s.repo.Update(ctx, id, patch, s.policy)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			return nil, apperrors.NotFound("service", id)
		case errors.Is(err, apperrors.ErrInvalidInput):
			return nil, apperrors.InvalidInput("no fields to update")
		default:
			s.logStorageError(ctx, "failed to update service", id, err)
			return nil, apperrors.StorageUpdate(msgUpdateFailed, err)
		}
	}

	if err := s.publisher.PublishServiceUpdated(ctx, id, attrs); err != nil {
		s.log(ctx).WarnContext(ctx, "failed to publish service.updated event",
			slog.String("service_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.log(ctx).InfoContext(ctx, "service updated",
		slog.String("service_id", id),
		slog.String("policy", string(s.policy)),
	)
	return attrs, nil
}

// RateService merges submitted into the stored rate. The write is
// conditional on the rate read, so concurrent ratings are never lost; after
// maxRateAttempts lost races the request fails with a conflict.
func (s *CatalogService) RateService(ctx context.Context, id string, submitted int) (domain.Attributes, error) {
	for attempt := 1; attempt <= maxRateAttempts; attempt++ {
		stored, err := s.repo.GetRate(ctx, id)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.NotFound("service", id)
			}
			s.logStorageError(ctx, "failed to read service rate", id, err)
			return nil, apperrors.Retrieval(msgRetrieveFailed, err)
		}

		merged := submitted
		if stored.Present() {
			if old, err := domain.ParseRate(stored.Raw); err == nil {
				merged = domain.MergeRate(old, submitted)
			}
		}

		attrs, err := s.repo.UpdateRate(ctx, id, stored, merged)
		if err == nil {
			if err := s.publisher.PublishServiceRated(ctx, id, submitted, merged); err != nil {
				s.log(ctx).WarnContext(ctx, "failed to publish service.rated event",
					slog.String("service_id", id),
					slog.String("error", err.Error()),
				)
			}
			s.log(ctx).InfoContext(ctx, "service rated",
				slog.String("service_id", id),
				slog.Int("submitted", submitted),
				slog.Int("rate", merged),
			)
			return attrs, nil
		}
		if !errors.Is(err, apperrors.ErrConflict) {
			s.logStorageError(ctx, "failed to update service rate", id, err)
			return nil, apperrors.StorageUpdate(msgUpdateFailed, err)
		}

		s.log(ctx).DebugContext(ctx, "service rate changed during update",
			slog.String("service_id", id),
			slog.Int("attempt", attempt),
		)
	}

	s.log(ctx).WarnContext(ctx, "giving up on contended rate update",
		slog.String("service_id", id),
		slog.Int("attempts", maxRateAttempts),
	)
	return nil, apperrors.Conflict(msgRateConflict)
}

// DeleteService removes a service. Deleting an unknown id succeeds.
func (s *CatalogService) DeleteService(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logStorageError(ctx, "failed to delete service", id, err)
		return apperrors.StorageDelete(msgDeleteFailed, err)
	}

	if err := s.publisher.PublishServiceDeleted(ctx, id); err != nil {
		s.log(ctx).WarnContext(ctx, "failed to publish service.deleted event",
			slog.String("service_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.log(ctx).InfoContext(ctx, "service deleted", slog.String("service_id", id))
	return nil
}
