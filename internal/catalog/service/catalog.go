package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	catalogerrors "cospace/internal/catalog/errors"
	"cospace/internal/catalog/repository"
	"cospace/internal/catalog/validator"
	"cospace/pkg/config"
	apperrors "cospace/pkg/errors"
	"cospace/pkg/model"
	"cospace/pkg/sanitizer"
)

type CatalogService interface {
	Create(ctx context.Context, resource *model.Resource) error
	GetByID(ctx context.Context, id string) (*model.Resource, error)
	GetBookable(ctx context.Context, id string) (*model.Resource, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Resource, int64, error)
	ListOperatingWindows(ctx context.Context, id string, window model.Interval) ([]model.OperatingWindow, error)
	IsWithinOperatingHours(ctx context.Context, id string, window model.Interval) (bool, error)
	UpdateWindows(ctx context.Context, id string, windows []model.OperatingWindow) error
	Retire(ctx context.Context, id string) error
}

type catalogService struct {
	repo      repository.ResourceRepository
	validator *validator.ResourceValidator
	cfg       *config.Config
}

func NewCatalogService(
	repo repository.ResourceRepository,
	validator *validator.ResourceValidator,
	cfg *config.Config,
) CatalogService {
	return &catalogService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *catalogService) Create(ctx context.Context, resource *model.Resource) error {
	resource.Name = sanitizer.NormalizeName(resource.Name)
	if resource.Status == "" {
		resource.Status = model.ResourceActive
	}

	if err := s.validator.Validate(resource); err != nil {
		s.cfg.Log.Warn("Resource validation failed",
			"name", resource.Name,
			"error", err,
		)
		return apperrors.Validation("Resource validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Create(ctx, resource); err != nil {
		s.cfg.Log.Error("Failed to create resource",
			"name", resource.Name,
			"error", err,
		)
		return apperrors.Internal("Failed to create resource", err)
	}

	s.cfg.Log.Info("Resource created successfully",
		"id", resource.ID,
		"name", resource.Name,
		"capacity", resource.Capacity,
	)

	return nil
}

func (s *catalogService) GetByID(ctx context.Context, id string) (*model.Resource, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Resource ID cannot be empty")
	}

	resource, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, catalogerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Resource", id)
		}
		if errors.Is(err, catalogerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid resource ID format")
		}
		s.cfg.Log.Error("Failed to get resource by ID",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve resource", err)
	}

	return resource, nil
}

// GetBookable resolves a resource for scheduling decisions. Retired
// resources are indistinguishable from missing ones to callers booking
// against them.
func (s *catalogService) GetBookable(ctx context.Context, id string) (*model.Resource, error) {
	resource, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if resource.Status != model.ResourceActive {
		return nil, apperrors.NotFoundWithID("Resource", id)
	}

	return resource, nil
}

func (s *catalogService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Resource, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var resources []*model.Resource
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.Count(ctx)
		if err != nil {
			s.cfg.Log.Error("Failed to count resources", "error", err)
			errCount = apperrors.Internal("Failed to count resources", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		resources, err = s.repo.FindAll(ctx, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to get all resources",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve resources", err)
		}
	}()
	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return resources, count, nil
}

// ListOperatingWindows returns the resource's windows that are open at
// some point inside window, ordered by opening time.
func (s *catalogService) ListOperatingWindows(ctx context.Context, id string, window model.Interval) ([]model.OperatingWindow, error) {
	if !window.IsValid() {
		return nil, apperrors.InvalidInput("Window start must be before end")
	}

	resource, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var windows []model.OperatingWindow
	for _, w := range resource.Windows {
		day := time.Date(window.Start.Year(), window.Start.Month(), window.Start.Day(), 0, 0, 0, 0, window.Start.Location())
		for !day.After(window.End) {
			if w.AppliesOn(day) {
				windows = append(windows, w)
				break
			}
			day = day.AddDate(0, 0, 1)
		}
	}

	sort.SliceStable(windows, func(i, j int) bool {
		return model.ClockMinutes(windows[i].Start) < model.ClockMinutes(windows[j].Start)
	})

	return windows, nil
}

func (s *catalogService) IsWithinOperatingHours(ctx context.Context, id string, window model.Interval) (bool, error) {
	resource, err := s.GetBookable(ctx, id)
	if err != nil {
		return false, err
	}
	return resource.IsOpenDuring(window), nil
}

func (s *catalogService) UpdateWindows(ctx context.Context, id string, windows []model.OperatingWindow) error {
	if id == "" {
		return apperrors.InvalidInput("Resource ID cannot be empty")
	}

	if err := s.validator.ValidateWindows(windows); err != nil {
		s.cfg.Log.Warn("Operating window validation failed",
			"id", id,
			"error", err,
		)
		return apperrors.Validation("Operating window validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.UpdateWindows(ctx, id, windows); err != nil {
		if errors.Is(err, catalogerrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Resource", id)
		}
		if errors.Is(err, catalogerrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid resource ID format")
		}
		s.cfg.Log.Error("Failed to update resource windows",
			"id", id,
			"error", err,
		)
		return apperrors.Internal("Failed to update resource windows", err)
	}

	s.cfg.Log.Info("Resource windows updated successfully",
		"id", id,
		"windows", len(windows),
	)

	return nil
}

// Retire marks a resource as no longer bookable. Existing bookings keep
// their history; the scheduler stops accepting new ones.
func (s *catalogService) Retire(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Resource ID cannot be empty")
	}

	if err := s.repo.SetStatus(ctx, id, model.ResourceRetired); err != nil {
		if errors.Is(err, catalogerrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Resource", id)
		}
		if errors.Is(err, catalogerrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid resource ID format")
		}
		s.cfg.Log.Error("Failed to retire resource",
			"id", id,
			"error", err,
		)
		return apperrors.Internal("Failed to retire resource", err)
	}

	s.cfg.Log.Info("Resource retired successfully", "id", id)

	return nil
}
