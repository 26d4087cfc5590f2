package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"localxplore/internal/domain/entity"
	"localxplore/internal/domain/repository"
	"localxplore/pkg/errors"
	"localxplore/pkg/logger"
)

type firestoreBookingRepository struct {
	client *firestore.Client
}

func NewFirestoreBookingRepository(client *firestore.Client) repository.BookingRepository {
	return &firestoreBookingRepository{
		client: client,
	}
}

// CreateConfirmed reads the experience, checks the per-date ledger against
// maxParticipants, increments it and writes the booking — all in one
// transaction, so two guests racing for the last spot cannot both succeed
// and a ledger increment can never outlive a failed booking write.
func (r *firestoreBookingRepository) CreateConfirmed(ctx context.Context, booking *entity.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}
	booking.Status = entity.BookingStatusConfirmed
	booking.CreatedAt = time.Now()

	expRef := r.client.Collection("experiences").Doc(booking.ExperienceID)
	bookingRef := r.client.Collection("bookings").Doc(booking.ID)

	return runTransaction(ctx, r.client, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(expRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Experience", err)
			}
			return err
		}

		var experience entity.Experience
		if err := doc.DataTo(&experience); err != nil {
			return errors.Internal("Failed to parse experience data", err)
		}

		booked := experience.BookedParticipants[booking.Date]
		if booked+booking.NumberOfGuests > experience.MaxParticipants {
			return errors.CapacityExceeded(fmt.Sprintf(
				"Only %d of %d spots left on %s",
				experience.MaxParticipants-booked, experience.MaxParticipants, booking.Date))
		}

		if err := tx.Update(expRef, []firestore.Update{
			{FieldPath: firestore.FieldPath{"bookedParticipants", booking.Date}, Value: booked + booking.NumberOfGuests},
		}); err != nil {
			return err
		}

		return tx.Create(bookingRef, booking)
	})
}

func (r *firestoreBookingRepository) Cancel(ctx context.Context, bookingID string) (*entity.Booking, error) {
	bookingRef := r.client.Collection("bookings").Doc(bookingID)

	var cancelled *entity.Booking

	err := runTransaction(ctx, r.client, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(bookingRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Booking", err)
			}
			return err
		}

		var booking entity.Booking
		if err := doc.DataTo(&booking); err != nil {
			return errors.Internal("Failed to parse booking data", err)
		}

		// Idempotent: a second cancel changes nothing.
		if booking.Status == entity.BookingStatusCancelled {
			cancelled = &booking
			return nil
		}

		expRef := r.client.Collection("experiences").Doc(booking.ExperienceID)
		expDoc, err := tx.Get(expRef)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}

		if err == nil {
			var experience entity.Experience
			if err := expDoc.DataTo(&experience); err != nil {
				return errors.Internal("Failed to parse experience data", err)
			}

			remaining := experience.BookedParticipants[booking.Date] - booking.NumberOfGuests
			if remaining < 0 {
				remaining = 0
			}

			if err := tx.Update(expRef, []firestore.Update{
				{FieldPath: firestore.FieldPath{"bookedParticipants", booking.Date}, Value: remaining},
			}); err != nil {
				return err
			}
		} else {
			// Experience vanished from the catalog; there is no ledger
			// entry left to release, but the booking still gets cancelled.
			logger.Warn("Cancel: experience %s for booking %s no longer exists", booking.ExperienceID, bookingID)
		}

		booking.Status = entity.BookingStatusCancelled
		if err := tx.Set(bookingRef, &booking); err != nil {
			return err
		}

		cancelled = &booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	return cancelled, nil
}

func (r *firestoreBookingRepository) GetByID(ctx context.Context, id string) (*entity.Booking, error) {
	doc, err := r.client.Collection("bookings").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Booking", err)
		}
		return nil, errors.Internal("Failed to get booking", err)
	}

	var booking entity.Booking
	if err := doc.DataTo(&booking); err != nil {
		return nil, errors.Internal("Failed to parse booking data", err)
	}

	return &booking, nil
}

func (r *firestoreBookingRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Booking, int64, error) {
	query := r.client.Collection("bookings").Where("userId", "==", userID)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching bookings for user %s: %v", userID, err)
		return nil, 0, errors.Internal("Failed to fetch bookings", err)
	}

	total := int64(len(allDocs))

	var bookings []*entity.Booking
	for _, doc := range allDocs {
		var booking entity.Booking
		if err := doc.DataTo(&booking); err != nil {
			logger.Warn("Skipping malformed booking document %s: %v", doc.Ref.ID, err)
			continue
		}
		bookings = append(bookings, &booking)
	}

	// Newest first; sorted in memory to avoid a composite index on
	// (userId, createdAt).
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})

	start := offset
	if start > len(bookings) {
		start = len(bookings)
	}
	end := len(bookings)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	return bookings[start:end], total, nil
}
