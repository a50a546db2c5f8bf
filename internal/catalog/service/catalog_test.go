package service

import (
	"context"
	"testing"
	"time"

	catalogerrors "cospace/internal/catalog/errors"
	"cospace/internal/catalog/validator"
	"cospace/pkg/config"
	apperrors "cospace/pkg/errors"
	"cospace/pkg/logger"
	"cospace/pkg/model"
)

type mockResourceRepo struct {
	createFn        func(ctx context.Context, resource *model.Resource) error
	findByIDFn      func(ctx context.Context, id string) (*model.Resource, error)
	findAllFn       func(ctx context.Context, limit int, offset int64) ([]*model.Resource, error)
	updateWindowsFn func(ctx context.Context, id string, windows []model.OperatingWindow) error
	setStatusFn     func(ctx context.Context, id string, status string) error
	countFn         func(ctx context.Context) (int64, error)
}

func (m *mockResourceRepo) Create(ctx context.Context, resource *model.Resource) error {
	return m.createFn(ctx, resource)
}

func (m *mockResourceRepo) FindByID(ctx context.Context, id string) (*model.Resource, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockResourceRepo) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Resource, error) {
	return m.findAllFn(ctx, limit, offset)
}

func (m *mockResourceRepo) UpdateWindows(ctx context.Context, id string, windows []model.OperatingWindow) error {
	return m.updateWindowsFn(ctx, id, windows)
}

func (m *mockResourceRepo) SetStatus(ctx context.Context, id string, status string) error {
	return m.setStatusFn(ctx, id, status)
}

func (m *mockResourceRepo) Count(ctx context.Context) (int64, error) {
	return m.countFn(ctx)
}

func testConfig() *config.Config {
	return &config.Config{
		ReadTimeout: time.Second,
		Log: logger.New(logger.Config{
			Level:   logger.LevelError,
			Format:  logger.FormatText,
			Service: "test",
		}),
	}
}

func validResource() *model.Resource {
	return &model.Resource{
		Name:     "Focus Room",
		Capacity: 4,
		Status:   model.ResourceActive,
		Windows: []model.OperatingWindow{
			{Days: []string{"monday", "friday"}, Start: "09:00", End: "17:00"},
		},
	}
}

func newService(repo *mockResourceRepo) CatalogService {
	cfg := testConfig()
	return NewCatalogService(repo, validator.NewResourceValidator(cfg.Log), cfg)
}

func TestCreateDefaultsStatusToActive(t *testing.T) {
	var created *model.Resource
	repo := &mockResourceRepo{
		createFn: func(ctx context.Context, resource *model.Resource) error {
			resource.ID = "507f1f77bcf86cd799439011"
			created = resource
			return nil
		},
	}
	svc := newService(repo)

	resource := validResource()
	resource.Status = ""
	if err := svc.Create(context.Background(), resource); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.Status != model.ResourceActive {
		t.Errorf("expected default status active, got %s", created.Status)
	}
}

func TestCreateNormalizesName(t *testing.T) {
	repo := &mockResourceRepo{
		createFn: func(ctx context.Context, resource *model.Resource) error { return nil },
	}
	svc := newService(repo)

	resource := validResource()
	resource.Name = "  Focus   Room  "
	if err := svc.Create(context.Background(), resource); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if resource.Name != "Focus Room" {
		t.Errorf("expected normalized name, got %q", resource.Name)
	}
}

func TestCreateRejectsInvalidResource(t *testing.T) {
	svc := newService(&mockResourceRepo{})

	tests := []struct {
		name   string
		mutate func(*model.Resource)
	}{
		{"empty name", func(r *model.Resource) { r.Name = "" }},
		{"zero capacity", func(r *model.Resource) { r.Capacity = 0 }},
		{"no windows", func(r *model.Resource) { r.Windows = nil }},
		{"inverted window", func(r *model.Resource) { r.Windows[0].End = "08:00" }},
		{"days and date together", func(r *model.Resource) { r.Windows[0].Date = "2026-09-07" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resource := validResource()
			tt.mutate(resource)
			err := svc.Create(context.Background(), resource)
			if !apperrors.HasCode(err, apperrors.CodeValidation) {
				t.Errorf("expected VALIDATION_ERROR, got %v", err)
			}
		})
	}
}

func TestCreateRejectsOverlappingWindows(t *testing.T) {
	svc := newService(&mockResourceRepo{})

	resource := validResource()
	resource.Windows = []model.OperatingWindow{
		{Days: []string{"monday"}, Start: "09:00", End: "13:00"},
		{Days: []string{"monday"}, Start: "12:00", End: "17:00"},
	}

	err := svc.Create(context.Background(), resource)
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Errorf("expected VALIDATION_ERROR for overlapping windows, got %v", err)
	}
}

func TestGetByIDMapsRepositoryErrors(t *testing.T) {
	tests := []struct {
		name     string
		repoErr  error
		wantCode string
	}{
		{"not found", catalogerrors.ErrNotFound, apperrors.CodeNotFound},
		{"invalid id", catalogerrors.ErrInvalidID, apperrors.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockResourceRepo{
				findByIDFn: func(ctx context.Context, id string) (*model.Resource, error) {
					return nil, tt.repoErr
				},
			}
			svc := newService(repo)

			_, err := svc.GetByID(context.Background(), "507f1f77bcf86cd799439011")
			if !apperrors.HasCode(err, tt.wantCode) {
				t.Errorf("expected %s, got %v", tt.wantCode, err)
			}
		})
	}
}

func TestGetBookableHidesRetiredResource(t *testing.T) {
	repo := &mockResourceRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Resource, error) {
			resource := validResource()
			resource.ID = id
			resource.Status = model.ResourceRetired
			return resource, nil
		},
	}
	svc := newService(repo)

	_, err := svc.GetBookable(context.Background(), "507f1f77bcf86cd799439011")
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND for retired resource, got %v", err)
	}
}

func TestRetireSetsRetiredStatus(t *testing.T) {
	var gotStatus string
	repo := &mockResourceRepo{
		setStatusFn: func(ctx context.Context, id string, status string) error {
			gotStatus = status
			return nil
		},
	}
	svc := newService(repo)

	if err := svc.Retire(context.Background(), "507f1f77bcf86cd799439011"); err != nil {
		t.Fatalf("retire failed: %v", err)
	}
	if gotStatus != model.ResourceRetired {
		t.Errorf("expected retired status, got %s", gotStatus)
	}
}

func TestUpdateWindowsValidatesBeforeWriting(t *testing.T) {
	repoCalled := false
	repo := &mockResourceRepo{
		updateWindowsFn: func(ctx context.Context, id string, windows []model.OperatingWindow) error {
			repoCalled = true
			return nil
		},
	}
	svc := newService(repo)

	err := svc.UpdateWindows(context.Background(), "507f1f77bcf86cd799439011", []model.OperatingWindow{
		{Start: "17:00", End: "09:00"},
	})
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Errorf("expected VALIDATION_ERROR, got %v", err)
	}
	if repoCalled {
		t.Error("repository should not be called for invalid windows")
	}
}

func TestListOperatingWindowsFiltersAndOrders(t *testing.T) {
	repo := &mockResourceRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Resource, error) {
			resource := validResource()
			resource.ID = id
			resource.Windows = []model.OperatingWindow{
				{Days: []string{"monday"}, Start: "13:00", End: "17:00"},
				{Days: []string{"monday"}, Start: "09:00", End: "12:00"},
				{Days: []string{"sunday"}, Start: "08:00", End: "20:00"},
			}
			return resource, nil
		},
	}
	svc := newService(repo)

	// A Monday: sunday's window must be filtered out.
	day := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	windows, err := svc.ListOperatingWindows(context.Background(), "507f1f77bcf86cd799439011",
		model.NewInterval(day, day.Add(23*time.Hour)))
	if err != nil {
		t.Fatalf("list windows failed: %v", err)
	}
	if len(windows) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(windows))
	}
	if windows[0].Start != "09:00" || windows[1].Start != "13:00" {
		t.Errorf("expected windows ordered by opening time, got %s then %s",
			windows[0].Start, windows[1].Start)
	}
}

func TestIsWithinOperatingHours(t *testing.T) {
	repo := &mockResourceRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Resource, error) {
			resource := validResource()
			resource.ID = id
			return resource, nil
		},
	}
	svc := newService(repo)

	// validResource opens mondays 09:00-17:00.
	day := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

	open, err := svc.IsWithinOperatingHours(context.Background(), "507f1f77bcf86cd799439011",
		model.NewInterval(day.Add(10*time.Hour), day.Add(11*time.Hour)))
	if err != nil {
		t.Fatalf("operating hours check failed: %v", err)
	}
	if !open {
		t.Error("expected 10:00-11:00 monday to be within operating hours")
	}

	open, err = svc.IsWithinOperatingHours(context.Background(), "507f1f77bcf86cd799439011",
		model.NewInterval(day.Add(16*time.Hour), day.Add(18*time.Hour)))
	if err != nil {
		t.Fatalf("operating hours check failed: %v", err)
	}
	if open {
		t.Error("booking spilling past closing must not be within operating hours")
	}
}

func TestGetAllReturnsCountAndPage(t *testing.T) {
	repo := &mockResourceRepo{
		findAllFn: func(ctx context.Context, limit int, offset int64) ([]*model.Resource, error) {
			return []*model.Resource{validResource(), validResource()}, nil
		},
		countFn: func(ctx context.Context) (int64, error) { return 7, nil },
	}
	svc := newService(repo)

	resources, total, err := svc.GetAll(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("get all failed: %v", err)
	}
	if len(resources) != 2 {
		t.Errorf("expected 2 resources, got %d", len(resources))
	}
	if total != 7 {
		t.Errorf("expected total 7, got %d", total)
	}
}
