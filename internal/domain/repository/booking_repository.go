package repository

import (
	"context"

	"localxplore/internal/domain/entity"
)

type BookingRepository interface {
	// CreateConfirmed atomically checks capacity for the booking's
	// (experience, date), increments the ledger and persists the booking.
	// Fails with CAPACITY_EXCEEDED leaving no trace when spots are short.
	CreateConfirmed(ctx context.Context, booking *entity.Booking) error

	// Cancel transitions a confirmed booking to cancelled and releases its
	// ledger entry in the same transaction. Cancelling an already-cancelled
	// booking is a no-op success.
	Cancel(ctx context.Context, bookingID string) (*entity.Booking, error)

	GetByID(ctx context.Context, id string) (*entity.Booking, error)
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Booking, int64, error)
}
