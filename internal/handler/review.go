package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tourly/tourly-api/internal/model"
	"github.com/tourly/tourly-api/internal/service"
)

// ReviewHandler bundles the review endpoints.
type ReviewHandler struct {
	Reviews *service.ReviewService
}

func NewReviewHandler(reviews *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{Reviews: reviews}
}

type reviewReq struct {
	BookingID   uint64 `json:"booking_id"`
	TourRating  int    `json:"tour_rating"`
	GuideRating int    `json:"guide_rating"`
	Comment     string `json:"comment"`
}

type reviewPart struct {
	ID          uint64    `json:"id"`
	BookingID   uint64    `json:"booking_id"`
	ReviewerID  uint64    `json:"reviewer_id"`
	GuideID     uint64    `json:"guide_id"`
	TourID      uint64    `json:"tour_id"`
	TourRating  int       `json:"tour_rating"`
	GuideRating int       `json:"guide_rating"`
	Comment     string    `json:"comment"`
	CreatedAt   time.Time `json:"created_at"`
}

func toReviewPart(r model.Review) reviewPart {
	return reviewPart{
		ID:          r.ID,
		BookingID:   r.BookingID,
		ReviewerID:  r.ReviewerID,
		GuideID:     r.GuideID,
		TourID:      r.TourID,
		TourRating:  r.TourRating,
		GuideRating: r.GuideRating,
		Comment:     r.Comment,
		CreatedAt:   r.CreatedAt,
	}
}

func toReviewParts(rs []model.Review) []reviewPart {
	out := make([]reviewPart, 0, len(rs))
	for _, r := range rs {
		out = append(out, toReviewPart(r))
	}
	return out
}

// Create records a review for the caller's completed booking.
func (h *ReviewHandler) Create(c echo.Context) error {
	var req reviewReq
	if err := c.Bind(&req); err != nil || req.BookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking_id required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rev, err := h.Reviews.CreateReview(ctx, callerEmail(c), service.ReviewInput{
		BookingID:   req.BookingID,
		TourRating:  req.TourRating,
		GuideRating: req.GuideRating,
		Comment:     req.Comment,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, toReviewPart(rev))
}
