package entity

import "time"

// Experience is owned by the catalog; this service only ever writes the
// BookedParticipants sub-map, and only through booking transactions.
type Experience struct {
	ID                 string         `json:"id" firestore:"id"`
	Title              string         `json:"title" firestore:"title"`
	Price              float64        `json:"price" firestore:"price"`
	Currency           string         `json:"currency" firestore:"currency"`
	MaxParticipants    int            `json:"max_participants" firestore:"maxParticipants"`
	BookedParticipants map[string]int `json:"booked_participants" firestore:"bookedParticipants"` // date (YYYY-MM-DD) -> reserved count
	Host               Host           `json:"host" firestore:"host"`
	CreatedAt          time.Time      `json:"created_at" firestore:"createdAt"`
}

type Host struct {
	ID     string `json:"id" firestore:"id"`
	Name   string `json:"name" firestore:"name"`
	Avatar string `json:"avatar,omitempty" firestore:"avatar,omitempty"`
}

// AvailableSpots returns the remaining capacity for a date. Dates without a
// ledger entry have full capacity.
func (e *Experience) AvailableSpots(date string) int {
	booked := e.BookedParticipants[date]
	if booked >= e.MaxParticipants {
		return 0
	}
	return e.MaxParticipants - booked
}
