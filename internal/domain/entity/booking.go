package entity

import "time"

const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

type Booking struct {
	ID             string    `json:"id" firestore:"id"`
	ExperienceID   string    `json:"experience_id" firestore:"experienceId"`
	UserID         string    `json:"user_id" firestore:"userId"`
	Date           string    `json:"date" firestore:"date"` // YYYY-MM-DD
	NumberOfGuests int       `json:"number_of_guests" firestore:"numberOfGuests"`
	TotalAmount    float64   `json:"total_amount" firestore:"totalAmount"`
	Status         string    `json:"status" firestore:"status"` // "confirmed", "cancelled"
	CreatedAt      time.Time `json:"created_at" firestore:"createdAt"`
}
