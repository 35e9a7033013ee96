package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tourly/tourly-api/internal/model"
	"github.com/tourly/tourly-api/internal/service"
)

// BookingHandler bundles the reservation endpoints.
type BookingHandler struct {
	Bookings *service.BookingService
}

func NewBookingHandler(bookings *service.BookingService) *BookingHandler {
	return &BookingHandler{Bookings: bookings}
}

type bookReq struct {
	TourID       uint64 `json:"tour_id"`
	Participants int    `json:"number_of_participants"`
}

type bookingPart struct {
	ID           uint64    `json:"id"`
	TourID       uint64    `json:"tour_id"`
	Participants int       `json:"number_of_participants"`
	BookingDate  time.Time `json:"booking_date"`
	Status       string    `json:"status"`
}

type bookingWithTourPart struct {
	bookingPart
	Tour tourPart `json:"tour"`
}

func toBookingPart(b model.Booking) bookingPart {
	return bookingPart{
		ID:           b.ID,
		TourID:       b.TourID,
		Participants: b.NumberOfParticipants,
		BookingDate:  b.BookingDate,
		Status:       b.Status,
	}
}

func toBookingWithTourParts(bts []model.BookingWithTour) []bookingWithTourPart {
	out := make([]bookingWithTourPart, 0, len(bts))
	for _, bt := range bts {
		out = append(out, bookingWithTourPart{
			bookingPart: toBookingPart(bt.Booking),
			Tour:        toTourPart(bt.Tour),
		})
	}
	return out
}

// Book reserves spots on a tour for the authenticated traveler.
func (h *BookingHandler) Book(c echo.Context) error {
	var req bookReq
	if err := c.Bind(&req); err != nil || req.TourID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tour_id required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.Bookings.BookTour(ctx, callerEmail(c), req.TourID, req.Participants)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, toBookingPart(b))
}

// Cancel moves the caller's booking to CANCELLED and releases its
// spots.
func (h *BookingHandler) Cancel(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Bookings.CancelBooking(ctx, callerEmail(c), id); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "booking cancelled"})
}

// Mine returns the caller's bookings with tour details.
func (h *BookingHandler) Mine(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	bts, err := h.Bookings.ListUserBookings(ctx, callerEmail(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toBookingWithTourParts(bts))
}

// ForMyTours returns the bookings made against the authenticated
// guide's tours.
func (h *BookingHandler) ForMyTours(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	bts, err := h.Bookings.ListGuideBookings(ctx, callerEmail(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toBookingWithTourParts(bts))
}
