package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"localxplore/internal/usecase"
	"localxplore/pkg/response"
)

type BookingHandler struct {
	bookingUseCase *usecase.BookingUseCase
}

func NewBookingHandler(bookingUseCase *usecase.BookingUseCase) *BookingHandler {
	return &BookingHandler{
		bookingUseCase: bookingUseCase,
	}
}

type createBookingRequest struct {
	ExperienceID   string `json:"experience_id" validate:"required"`
	Date           string `json:"date" validate:"required"`
	// Bounds checked in the use case, not by the validator.
	NumberOfGuests int `json:"number_of_guests"`
}

// CreateBooking reserves spots for the authenticated user
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	var req createBookingRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	booking, err := h.bookingUseCase.CreateBooking(c.Request().Context(), userID, usecase.CreateBookingInput{
		ExperienceID:   req.ExperienceID,
		Date:           req.Date,
		NumberOfGuests: req.NumberOfGuests,
	})

	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, booking)
}

// CancelBooking cancels a booking and releases its spots
func (h *BookingHandler) CancelBooking(c echo.Context) error {
	bookingID := c.Param("id")
	userID := c.Get("uid").(string)

	booking, err := h.bookingUseCase.CancelBooking(c.Request().Context(), userID, bookingID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, booking)
}

// ListMyBookings returns the authenticated user's bookings
func (h *BookingHandler) ListMyBookings(c echo.Context) error {
	userID := c.Get("uid").(string)

	limit, offset := paginationParams(c, 20)

	bookings, total, err := h.bookingUseCase.ListUserBookings(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessPaginated(c, bookings, total, limit, offset)
}

// GetAvailability returns the remaining spots of an experience on a date
func (h *BookingHandler) GetAvailability(c echo.Context) error {
	experienceID := c.Param("id")
	date := c.QueryParam("date")

	availability, err := h.bookingUseCase.GetAvailability(c.Request().Context(), experienceID, date)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, availability)
}

func paginationParams(c echo.Context, defaultLimit int) (int, int) {
	limit := defaultLimit
	offset := 0

	if limitStr := c.QueryParam("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}

	if offsetStr := c.QueryParam("offset"); offsetStr != "" {
		if parsedOffset, err := strconv.Atoi(offsetStr); err == nil && parsedOffset >= 0 {
			offset = parsedOffset
		}
	}

	return limit, offset
}
