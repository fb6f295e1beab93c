package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mash021/meal-sharing/internal/model"
	"github.com/mash021/meal-sharing/internal/service"
)

const reservationNotFound = "Reservation not found"

// ReservationHandler serves /api/reservations.
type ReservationHandler struct {
	reservations *service.ReservationService
}

func NewReservationHandler(rs *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservations: rs}
}

func (h *ReservationHandler) RegisterRoutes(rg, write *gin.RouterGroup) {
	rg.GET("/reservations", h.List)
	rg.GET("/reservations/:id", h.Get)

	write.POST("/reservations", h.Create)
	write.PUT("/reservations/:id", h.Update)
	write.DELETE("/reservations/:id", h.Delete)
}

type createReservationRequest struct {
	MealID             int64       `json:"meal_id" binding:"required,min=1"`
	ContactName        string      `json:"contact_name" binding:"required,notblank"`
	ContactPhoneNumber string      `json:"contact_phone_number" binding:"required,notblank"`
	ContactEmail       string      `json:"contact_email" binding:"required,email"`
	NumberOfGuests     int         `json:"number_of_guests" binding:"required,min=1"`
	CreatedDate        *model.Date `json:"created_date"`
}

type updateReservationRequest struct {
	MealID             *int64      `json:"meal_id" binding:"omitempty,min=1"`
	ContactName        *string     `json:"contact_name" binding:"omitempty,notblank"`
	ContactPhoneNumber *string     `json:"contact_phone_number" binding:"omitempty,notblank"`
	ContactEmail       *string     `json:"contact_email" binding:"omitempty,email"`
	NumberOfGuests     *int        `json:"number_of_guests" binding:"omitempty,min=1"`
	CreatedDate        *model.Date `json:"created_date"`
}

// GET /api/reservations?mealId=
func (h *ReservationHandler) List(c *gin.Context) {
	mealID, ok := mealIDQuery(c)
	if !ok {
		return
	}
	list, err := h.reservations.List(c.Request.Context(), mealID)
	if err != nil {
		fail(c, err, reservationNotFound)
		return
	}
	if list == nil {
		list = []model.Reservation{}
	}
	c.JSON(http.StatusOK, list)
}

// GET /api/reservations/:id
func (h *ReservationHandler) Get(c *gin.Context) {
	id, ok := pathID(c, reservationNotFound)
	if !ok {
		return
	}
	res, err := h.reservations.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err, reservationNotFound)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/reservations
func (h *ReservationHandler) Create(c *gin.Context) {
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res := &model.Reservation{
		MealID:             req.MealID,
		ContactName:        req.ContactName,
		ContactPhoneNumber: req.ContactPhoneNumber,
		ContactEmail:       req.ContactEmail,
		NumberOfGuests:     req.NumberOfGuests,
	}
	if req.CreatedDate != nil {
		res.CreatedDate = *req.CreatedDate
	}
	if err := h.reservations.Create(c.Request.Context(), res); err != nil {
		fail(c, err, reservationNotFound)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// PUT /api/reservations/:id
func (h *ReservationHandler) Update(c *gin.Context) {
	id, ok := pathID(c, reservationNotFound)
	if !ok {
		return
	}
	var req updateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	patch := model.ReservationPatch{
		MealID:             req.MealID,
		ContactName:        req.ContactName,
		ContactPhoneNumber: req.ContactPhoneNumber,
		ContactEmail:       req.ContactEmail,
		NumberOfGuests:     req.NumberOfGuests,
		CreatedDate:        req.CreatedDate,
	}
	if patch.Empty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}
	res, err := h.reservations.Update(c.Request.Context(), id, patch)
	if err != nil {
		fail(c, err, reservationNotFound)
		return
	}
	c.JSON(http.StatusOK, res)
}

// DELETE /api/reservations/:id
func (h *ReservationHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, reservationNotFound)
	if !ok {
		return
	}
	if err := h.reservations.Delete(c.Request.Context(), id); err != nil {
		fail(c, err, reservationNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reservation deleted"})
}
