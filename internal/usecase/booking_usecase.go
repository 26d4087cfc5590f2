package usecase

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"localxplore/internal/domain/entity"
	"localxplore/internal/domain/repository"
	"localxplore/internal/infrastructure/ratelimit"
	"localxplore/pkg/errors"
	"localxplore/pkg/logger"
)

const dateLayout = "2006-01-02"

// serviceFeeRate is charged on top of the subtotal and rounded half-up to
// the nearest currency unit.
const serviceFeeRate = 0.12

type BookingUseCase struct {
	bookingRepo    repository.BookingRepository
	experienceRepo repository.ExperienceRepository
	notifier       Notifier
	rateLimiter    *ratelimit.RateLimiter

	// allowPastCancel permits cancelling a booking after its date passed.
	allowPastCancel bool
}

func NewBookingUseCase(
	bookingRepo repository.BookingRepository,
	experienceRepo repository.ExperienceRepository,
	notifier Notifier,
	allowPastCancel bool,
) *BookingUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &BookingUseCase{
		bookingRepo:     bookingRepo,
		experienceRepo:  experienceRepo,
		notifier:        notifier,
		rateLimiter:     rateLimiter,
		allowPastCancel: allowPastCancel,
	}
}

type CreateBookingInput struct {
	ExperienceID   string
	Date           string
	NumberOfGuests int
}

func (uc *BookingUseCase) CreateBooking(ctx context.Context, userID string, input CreateBookingInput) (*entity.Booking, error) {
	allowed, waitTime := uc.rateLimiter.Allow(userID, "create_booking")
	if !allowed {
		logger.Warn("CreateBooking rate limited: user %s must wait %v", userID, waitTime)
		return nil, errors.TooManyRequests("Too many booking attempts, please slow down", waitTime)
	}

	if input.NumberOfGuests <= 0 {
		return nil, errors.InvalidGuestCount("Number of guests must be positive")
	}

	if _, err := time.Parse(dateLayout, input.Date); err != nil {
		return nil, errors.BadRequest("Date must be in YYYY-MM-DD form", err)
	}
	if input.Date < time.Now().Format(dateLayout) {
		return nil, errors.PastDate("Booking date is in the past")
	}

	experience, err := uc.experienceRepo.GetByID(ctx, input.ExperienceID)
	if err != nil {
		return nil, err
	}

	booking := &entity.Booking{
		ExperienceID:   input.ExperienceID,
		UserID:         userID,
		Date:           input.Date,
		NumberOfGuests: input.NumberOfGuests,
		TotalAmount:    totalWithServiceFee(experience.Price, input.NumberOfGuests),
	}

	if err := uc.bookingRepo.CreateConfirmed(ctx, booking); err != nil {
		return nil, err
	}

	uc.notifyHost(experience.Host.ID, "created", booking)

	return booking, nil
}

// CancelBooking releases the booking's spots. Cancelling an already
// cancelled booking is a no-op success.
func (uc *BookingUseCase) CancelBooking(ctx context.Context, userID, bookingID string) (*entity.Booking, error) {
	booking, err := uc.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.UserID != userID {
		return nil, errors.Forbidden("Only the booking owner can cancel it", nil)
	}

	if !uc.allowPastCancel && booking.Date < time.Now().Format(dateLayout) {
		return nil, errors.PastDate("Booking date has already passed")
	}

	alreadyCancelled := booking.Status == entity.BookingStatusCancelled

	cancelled, err := uc.bookingRepo.Cancel(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if !alreadyCancelled {
		if experience, expErr := uc.experienceRepo.GetByID(ctx, cancelled.ExperienceID); expErr == nil {
			uc.notifyHost(experience.Host.ID, "cancelled", cancelled)
		}
	}

	return cancelled, nil
}

func (uc *BookingUseCase) ListUserBookings(ctx context.Context, userID string, limit, offset int) ([]*entity.Booking, int64, error) {
	return uc.bookingRepo.ListByUserID(ctx, userID, limit, offset)
}

type Availability struct {
	ExperienceID    string `json:"experience_id"`
	Date            string `json:"date"`
	AvailableSpots  int    `json:"available_spots"`
	MaxParticipants int    `json:"max_participants"`
}

func (uc *BookingUseCase) GetAvailability(ctx context.Context, experienceID, date string) (*Availability, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, errors.BadRequest("Date must be in YYYY-MM-DD form", err)
	}

	experience, err := uc.experienceRepo.GetByID(ctx, experienceID)
	if err != nil {
		return nil, err
	}

	return &Availability{
		ExperienceID:    experienceID,
		Date:            date,
		AvailableSpots:  experience.AvailableSpots(date),
		MaxParticipants: experience.MaxParticipants,
	}, nil
}

func (uc *BookingUseCase) notifyHost(hostID, action string, booking *entity.Booking) {
	if hostID == "" || hostID == booking.UserID {
		return
	}

	notification := map[string]interface{}{
		"type":    "booking_update",
		"action":  action,
		"booking": booking,
	}

	payload, err := json.Marshal(notification)
	if err != nil {
		logger.Error("Failed to marshal booking notification: %v", err)
		return
	}

	uc.notifier.PublishToUser(hostID, payload)
}

// totalWithServiceFee computes subtotal plus the service fee, rounded
// half-up to the nearest currency unit.
func totalWithServiceFee(price float64, guests int) float64 {
	subtotal := price * float64(guests)
	fee := math.Floor(subtotal*serviceFeeRate + 0.5)
	return subtotal + fee
}
