package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mash021/meal-sharing/internal/model"
	"github.com/mash021/meal-sharing/internal/service"
)

const reviewNotFound = "Review not found"

// ReviewRequestDTO is the JSON payload for creating a review.
type ReviewRequestDTO struct {
	MealID      int64       `json:"meal_id" binding:"required,min=1"`
	Title       string      `json:"title" binding:"required,notblank"`
	Description string      `json:"description" binding:"required,notblank"`
	Stars       int         `json:"stars" binding:"required,min=1,max=5"`
	CreatedDate *model.Date `json:"created_date"`
}

// ReviewPatchDTO is the JSON payload for a partial review update.
type ReviewPatchDTO struct {
	MealID      *int64      `json:"meal_id" binding:"omitempty,min=1"`
	Title       *string     `json:"title" binding:"omitempty,notblank"`
	Description *string     `json:"description" binding:"omitempty,notblank"`
	Stars       *int        `json:"stars" binding:"omitempty,min=1,max=5"`
	CreatedDate *model.Date `json:"created_date"`
}

// ReviewHandler ties HTTP requests to the ReviewService.
type ReviewHandler struct {
	reviewSvc *service.ReviewService
}

// NewReviewHandler constructs a ReviewHandler.
func NewReviewHandler(rs *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewSvc: rs}
}

// RegisterRoutes registers:
//
//	GET    /api/reviews[?mealId=]
//	GET    /api/reviews/:id
//	POST   /api/reviews
//	PUT    /api/reviews/:id
//	DELETE /api/reviews/:id
func (h *ReviewHandler) RegisterRoutes(rg, write *gin.RouterGroup) {
	rg.GET("/reviews", h.GetReviews)
	rg.GET("/reviews/:id", h.GetReview)

	write.POST("/reviews", h.CreateReview)
	write.PUT("/reviews/:id", h.UpdateReview)
	write.DELETE("/reviews/:id", h.DeleteReview)
}

func (h *ReviewHandler) GetReviews(c *gin.Context) {
	mealID, ok := mealIDQuery(c)
	if !ok {
		return
	}

	var (
		reviews []model.Review
		err     error
	)
	if mealID != nil {
		reviews, err = h.reviewSvc.ListForMeal(c.Request.Context(), *mealID)
	} else {
		reviews, err = h.reviewSvc.List(c.Request.Context())
	}
	if err != nil {
		fail(c, err, mealNotFound)
		return
	}
	if reviews == nil {
		reviews = []model.Review{}
	}
	c.JSON(http.StatusOK, reviews)
}

func (h *ReviewHandler) GetReview(c *gin.Context) {
	id, ok := pathID(c, reviewNotFound)
	if !ok {
		return
	}
	rev, err := h.reviewSvc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err, reviewNotFound)
		return
	}
	c.JSON(http.StatusOK, rev)
}

func (h *ReviewHandler) CreateReview(c *gin.Context) {
	var req ReviewRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	rev := &model.Review{
		MealID:      req.MealID,
		Title:       req.Title,
		Description: req.Description,
		Stars:       req.Stars,
	}
	if req.CreatedDate != nil {
		rev.CreatedDate = *req.CreatedDate
	}
	if err := h.reviewSvc.Create(c.Request.Context(), rev); err != nil {
		fail(c, err, reviewNotFound)
		return
	}
	c.JSON(http.StatusCreated, rev)
}

func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	id, ok := pathID(c, reviewNotFound)
	if !ok {
		return
	}
	var req ReviewPatchDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	patch := model.ReviewPatch{
		MealID:      req.MealID,
		Title:       req.Title,
		Description: req.Description,
		Stars:       req.Stars,
		CreatedDate: req.CreatedDate,
	}
	if patch.Empty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}
	rev, err := h.reviewSvc.Update(c.Request.Context(), id, patch)
	if err != nil {
		fail(c, err, reviewNotFound)
		return
	}
	c.JSON(http.StatusOK, rev)
}

func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	id, ok := pathID(c, reviewNotFound)
	if !ok {
		return
	}
	if err := h.reviewSvc.Delete(c.Request.Context(), id); err != nil {
		fail(c, err, reviewNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Review deleted"})
}
