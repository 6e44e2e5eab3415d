package timers

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/good-yellow-bee/countdown/internal/models"
	"github.com/good-yellow-bee/countdown/internal/storage"
)

// TimerInput is the write payload for creating or replacing a timer.
// Omitted style fields take their defaults; unknown values are rejected.
type TimerInput struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=1000"`
	StartDate   string `json:"startDate" validate:"required,datetime=2006-01-02"`
	StartTime   string `json:"startTime" validate:"required,clock"`
	EndDate     string `json:"endDate" validate:"required,datetime=2006-01-02"`
	EndTime     string `json:"endTime" validate:"required,clock"`
	Size        string `json:"size" validate:"omitempty,oneof=small medium large"`
	Position    string `json:"position" validate:"omitempty,oneof=top bottom"`
	Urgency     string `json:"urgency" validate:"omitempty,oneof=none pulse blink"`
	Color       string `json:"color" validate:"omitempty,hexcolor,rgbcolor"`
	IsActive    *bool  `json:"isActive"`
}

func (in *TimerInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.StartDate = strings.TrimSpace(in.StartDate)
	in.StartTime = strings.TrimSpace(in.StartTime)
	in.EndDate = strings.TrimSpace(in.EndDate)
	in.EndTime = strings.TrimSpace(in.EndTime)
	in.Size = strings.ToLower(strings.TrimSpace(in.Size))
	in.Position = strings.ToLower(strings.TrimSpace(in.Position))
	in.Urgency = strings.ToLower(strings.TrimSpace(in.Urgency))
	in.Color = strings.TrimSpace(in.Color)
}

// Service implements the administrative operations on a shop's timers.
// It embeds the Resolver for the read paths.
type Service struct {
	*Resolver
	repo     storage.TimerRepository
	validate *validator.Validate
}

// NewService creates a service over repo.
func NewService(repo storage.TimerRepository, opts ...Option) *Service {
	return &Service{
		Resolver: NewResolver(repo, opts...),
		repo:     repo,
		validate: newValidator(),
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := models.ParseClock(fl.Field().String())
		return err == nil
	})
	// hexcolor also admits alpha forms that cannot be rendered.
	v.RegisterValidation("rgbcolor", func(fl validator.FieldLevel) bool {
		_, _, _, err := models.ParseHexColor(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks the input and returns the first problem as a ValidationError.
func (s *Service) Validate(in *TimerInput) error {
	in.normalize()

	if err := s.validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return validationMessage(fieldErrs[0])
		}
		return &ValidationError{Message: err.Error()}
	}

	start, err := models.CombineCivil(in.StartDate, in.StartTime, s.loc)
	if err != nil {
		return &ValidationError{Field: "startDate", Message: err.Error()}
	}
	end, err := models.CombineCivil(in.EndDate, in.EndTime, s.loc)
	if err != nil {
		return &ValidationError{Field: "endDate", Message: err.Error()}
	}
	if end.Before(start) {
		return &ValidationError{Field: "endDate", Message: "end must not be before start"}
	}
	return nil
}

func validationMessage(fe validator.FieldError) *ValidationError {
	field := fe.Field()
	var msg string
	switch fe.Tag() {
	case "required":
		msg = "is required"
	case "max":
		msg = fmt.Sprintf("must be %s characters or less", fe.Param())
	case "oneof":
		msg = fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "datetime":
		msg = "must be a date in YYYY-MM-DD format"
	case "clock":
		msg = "must be a time in HH:MM or HH:MM:SS format"
	case "hexcolor", "rgbcolor":
		msg = "must be a hex color like #RRGGBB"
	default:
		msg = "is invalid"
	}
	return &ValidationError{Field: field, Message: msg}
}

// apply copies validated input onto timer, filling defaults.
func apply(timer *models.Timer, in *TimerInput) {
	timer.Name = in.Name
	timer.Description = in.Description
	timer.StartDate = in.StartDate
	timer.StartTime = in.StartTime
	timer.EndDate = in.EndDate
	timer.EndTime = in.EndTime

	timer.Size = models.DefaultSize
	if in.Size != "" {
		timer.Size = models.Size(in.Size)
	}
	timer.Position = models.DefaultPosition
	if in.Position != "" {
		timer.Position = models.Position(in.Position)
	}
	timer.Urgency = models.DefaultUrgency
	if in.Urgency != "" {
		timer.Urgency = models.Urgency(in.Urgency)
	}
	timer.Color = models.DefaultColor
	if in.Color != "" {
		timer.Color = strings.ToLower(in.Color)
	}
	timer.IsActive = true
	if in.IsActive != nil {
		timer.IsActive = *in.IsActive
	}
}

func requireShop(shop string) error {
	if strings.TrimSpace(shop) == "" {
		return &ValidationError{Field: "shop", Message: "Shop parameter is required"}
	}
	return nil
}

// Create persists a new timer for shop.
func (s *Service) Create(ctx context.Context, shop string, in TimerInput) (*models.Timer, error) {
	if err := requireShop(shop); err != nil {
		return nil, err
	}
	if err := s.Validate(&in); err != nil {
		return nil, err
	}

	now := s.clock().UTC()
	timer := &models.Timer{
		ID:        uuid.New().String(),
		Shop:      shop,
		CreatedAt: now,
		UpdatedAt: now,
	}
	apply(timer, &in)

	if err := s.repo.Create(ctx, timer); err != nil {
		return nil, &StorageError{Op: "create timer", Err: err}
	}
	return timer, nil
}

// Get returns the shop's timer with id, or ErrNotFound.
func (s *Service) Get(ctx context.Context, shop, id string) (*models.Timer, error) {
	if err := requireShop(shop); err != nil {
		return nil, err
	}
	timer, err := s.repo.GetByID(ctx, shop, id)
	if err != nil {
		return nil, &StorageError{Op: "get timer", Err: err}
	}
	if timer == nil {
		return nil, ErrNotFound
	}
	return timer, nil
}

// Update replaces every mutable field of the timer. The id, owner and
// creation time are kept.
func (s *Service) Update(ctx context.Context, shop, id string, in TimerInput) (*models.Timer, error) {
	if err := s.Validate(&in); err != nil {
		return nil, err
	}
	timer, err := s.Get(ctx, shop, id)
	if err != nil {
		return nil, err
	}

	apply(timer, &in)
	timer.UpdatedAt = s.clock().UTC()
	if err := s.save(ctx, timer); err != nil {
		return nil, err
	}
	return timer, nil
}

// SetActive flips the kill switch of a timer without touching its window.
func (s *Service) SetActive(ctx context.Context, shop, id string, active bool) (*models.Timer, error) {
	timer, err := s.Get(ctx, shop, id)
	if err != nil {
		return nil, err
	}

	timer.IsActive = active
	timer.UpdatedAt = s.clock().UTC()
	if err := s.save(ctx, timer); err != nil {
		return nil, err
	}
	return timer, nil
}

func (s *Service) save(ctx context.Context, timer *models.Timer) error {
	err := s.repo.Update(ctx, timer)
	if errors.Is(err, storage.ErrNotFound) {
		// Deleted between read and write.
		return ErrNotFound
	}
	if err != nil {
		return &StorageError{Op: "update timer", Err: err}
	}
	return nil
}

// Delete removes the timer. Deleting a missing timer is not an error; the
// result reports whether a record was removed.
func (s *Service) Delete(ctx context.Context, shop, id string) (bool, error) {
	if err := requireShop(shop); err != nil {
		return false, err
	}
	deleted, err := s.repo.Delete(ctx, shop, id)
	if err != nil {
		return false, &StorageError{Op: "delete timer", Err: err}
	}
	return deleted, nil
}

// Count returns how many timers the shop owns.
func (s *Service) Count(ctx context.Context, shop string) (int64, error) {
	if err := requireShop(shop); err != nil {
		return 0, err
	}
	n, err := s.repo.CountByShop(ctx, shop)
	if err != nil {
		return 0, &StorageError{Op: "count timers", Err: err}
	}
	return n, nil
}
