package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tourly/tourly-api/internal/model"
	"github.com/tourly/tourly-api/internal/service"
)

// TourHandler bundles the tour CRUD endpoints.
type TourHandler struct {
	Tours   *service.TourService
	Reviews *service.ReviewService
}

func NewTourHandler(tours *service.TourService, reviews *service.ReviewService) *TourHandler {
	return &TourHandler{Tours: tours, Reviews: reviews}
}

type tourReq struct {
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Location       string  `json:"location"`
	Duration       string  `json:"duration"` // HH:mm
	MaxGroupSize   int     `json:"max_group_size"`
	PricePerPerson float64 `json:"price_per_person"`
	ScheduledDate  string  `json:"scheduled_date"` // YYYY-MM-DD
	StartTime      string  `json:"start_time"`     // HH:mm
}

func (r tourReq) toInput() (service.TourInput, bool) {
	in := service.TourInput{
		Title:          r.Title,
		Description:    r.Description,
		Location:       r.Location,
		Duration:       r.Duration,
		MaxGroupSize:   r.MaxGroupSize,
		PricePerPerson: r.PricePerPerson,
	}
	if r.ScheduledDate != "" {
		d, err := time.Parse("2006-01-02", r.ScheduledDate)
		if err != nil {
			return in, false
		}
		in.ScheduledDate = &d
	}
	if r.StartTime != "" {
		if _, err := time.Parse("15:04", r.StartTime); err != nil {
			return in, false
		}
		st := r.StartTime
		in.StartTime = &st
	}
	return in, true
}

type tourPart struct {
	ID             uint64  `json:"id"`
	GuideID        uint64  `json:"guide_id"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Location       string  `json:"location"`
	Duration       string  `json:"duration"`
	MaxGroupSize   int     `json:"max_group_size"`
	AvailableSpots int     `json:"available_spots"`
	PricePerPerson float64 `json:"price_per_person"`
	ScheduledDate  string  `json:"scheduled_date,omitempty"`
	StartTime      string  `json:"start_time,omitempty"`
	Status         string  `json:"status"`
	Rating         float64 `json:"rating"`
	Reviews        int     `json:"reviews_count"`
}

func toTourPart(t model.Tour) tourPart {
	p := tourPart{
		ID:             t.ID,
		GuideID:        t.GuideID,
		Title:          t.Title,
		Description:    t.Description,
		Location:       t.Location,
		Duration:       t.Duration,
		MaxGroupSize:   t.MaxGroupSize,
		AvailableSpots: t.AvailableSpots,
		PricePerPerson: t.PricePerPerson,
		Status:         t.Status,
		Rating:         t.Rating,
		Reviews:        t.ReviewsCount,
	}
	if t.ScheduledDate != nil {
		p.ScheduledDate = t.ScheduledDate.Format("2006-01-02")
	}
	if t.StartTime != nil {
		p.StartTime = *t.StartTime
	}
	return p
}

func toTourParts(ts []model.Tour) []tourPart {
	out := make([]tourPart, 0, len(ts))
	for _, t := range ts {
		out = append(out, toTourPart(t))
	}
	return out
}

func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// Create publishes a new tour for the authenticated guide.
func (h *TourHandler) Create(c echo.Context) error {
	var req tourReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	in, ok := req.toInput()
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "scheduled_date must be YYYY-MM-DD and start_time HH:mm"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	t, err := h.Tours.CreateTour(ctx, callerEmail(c), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, toTourPart(t))
}

// List returns all active tours.
func (h *TourHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	ts, err := h.Tours.ListActive(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toTourParts(ts))
}

// Get returns one active tour.
func (h *TourHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tour id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	t, err := h.Tours.GetTour(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toTourPart(t))
}

// Mine returns the authenticated guide's tours.
func (h *TourHandler) Mine(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	ts, err := h.Tours.ListByGuide(ctx, callerEmail(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toTourParts(ts))
}

// Update overwrites an owned tour's editable fields.
func (h *TourHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tour id"})
	}
	var req tourReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	in, ok := req.toInput()
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "scheduled_date must be YYYY-MM-DD and start_time HH:mm"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	t, err := h.Tours.UpdateTour(ctx, callerEmail(c), id, in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toTourPart(t))
}

// Delete soft-deletes an owned tour and cancels its confirmed bookings.
func (h *TourHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tour id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Tours.DeleteTour(ctx, callerEmail(c), id); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "tour deleted"})
}

// ListReviews returns a tour's reviews.
func (h *TourHandler) ListReviews(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tour id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	revs, err := h.Reviews.ListTourReviews(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toReviewParts(revs))
}
