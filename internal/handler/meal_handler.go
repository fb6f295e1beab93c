package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mash021/meal-sharing/internal/model"
	"github.com/mash021/meal-sharing/internal/service"
)

const mealNotFound = "Meal not found"

// MealHandler serves /api/meals and the per-meal sub-resources.
type MealHandler struct {
	meals   *service.MealService
	reviews *service.ReviewService
}

func NewMealHandler(meals *service.MealService, reviews *service.ReviewService) *MealHandler {
	return &MealHandler{meals: meals, reviews: reviews}
}

// RegisterRoutes registers reads on rg and mutations on write, which may carry auth.
func (h *MealHandler) RegisterRoutes(rg, write *gin.RouterGroup) {
	rg.GET("/meals", h.List)
	rg.GET("/meals/availability", h.ListAvailability)
	rg.GET("/meals/:id", h.Get)
	rg.GET("/meals/:id/availability", h.Availability)
	rg.GET("/meals/:id/rating", h.Rating)
	rg.GET("/meals/:id/reviews", h.Reviews)

	write.POST("/meals", h.Create)
	write.PUT("/meals/:id", h.Update)
	write.DELETE("/meals/:id", h.Delete)
}

type createMealRequest struct {
	Title           string          `json:"title" binding:"required,notblank"`
	Description     string          `json:"description" binding:"required,notblank"`
	Location        string          `json:"location" binding:"required,notblank"`
	When            *model.DateTime `json:"when" binding:"required_without=Date"`
	Date            *model.DateTime `json:"date"`
	MaxReservations int             `json:"max_reservations" binding:"required,min=1"`
	Price           float64         `json:"price" binding:"required,gt=0"`
	CreatedDate     *model.Date     `json:"created_date"`
	ImageURL        *string         `json:"image_url"`
}

func (r createMealRequest) toModel() *model.Meal {
	m := &model.Meal{
		Title:           r.Title,
		Description:     r.Description,
		Location:        r.Location,
		MaxReservations: r.MaxReservations,
		Price:           r.Price,
		ImageURL:        r.ImageURL,
	}
	if r.When != nil {
		m.When = *r.When
	} else {
		m.When = *r.Date
	}
	if r.CreatedDate != nil {
		m.CreatedDate = *r.CreatedDate
	}
	return m
}

type updateMealRequest struct {
	Title           *string         `json:"title" binding:"omitempty,notblank"`
	Description     *string         `json:"description" binding:"omitempty,notblank"`
	Location        *string         `json:"location" binding:"omitempty,notblank"`
	When            *model.DateTime `json:"when"`
	Date            *model.DateTime `json:"date"`
	MaxReservations *int            `json:"max_reservations" binding:"omitempty,min=1"`
	Price           *float64        `json:"price" binding:"omitempty,gt=0"`
	CreatedDate     *model.Date     `json:"created_date"`
	ImageURL        *string         `json:"image_url"`
}

func (r updateMealRequest) toPatch() model.MealPatch {
	when := r.When
	if when == nil {
		when = r.Date
	}
	return model.MealPatch{
		Title:           r.Title,
		Description:     r.Description,
		Location:        r.Location,
		When:            when,
		MaxReservations: r.MaxReservations,
		Price:           r.Price,
		CreatedDate:     r.CreatedDate,
		ImageURL:        r.ImageURL,
	}
}

// parseMealFilter reads the listing query parameters. Unknown sort keys are ignored.
func parseMealFilter(c *gin.Context) (model.MealFilter, bool) {
	var f model.MealFilter

	if v := c.Query("maxPrice"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			invalidField(c, "maxPrice", "must be a number")
			return f, false
		}
		f.MaxPrice = &p
	}
	f.Title = c.Query("title")

	for _, q := range []struct {
		name string
		dst  **model.DateTime
	}{{"dateAfter", &f.DateAfter}, {"dateBefore", &f.DateBefore}} {
		v := c.Query(q.name)
		if v == "" {
			continue
		}
		t, err := model.ParseDateTime(v)
		if err != nil {
			invalidField(c, q.name, "must be a date or timestamp")
			return f, false
		}
		*q.dst = &t
	}

	if v := c.Query("availableReservations"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			invalidField(c, "availableReservations", "must be true or false")
			return f, false
		}
		f.Available = &b
	}

	if key, ok := model.ParseSortKey(c.Query("sortKey")); ok {
		f.SortKey = key
		f.SortDesc = strings.EqualFold(c.Query("sortDir"), "desc")
	}

	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			invalidField(c, "limit", "must be a positive integer")
			return f, false
		}
		f.Limit = n
	}
	return f, true
}

// GET /api/meals?maxPrice=&title=&dateAfter=&dateBefore=&availableReservations=&sortKey=&sortDir=&limit=
func (h *MealHandler) List(c *gin.Context) {
	f, ok := parseMealFilter(c)
	if !ok {
		return
	}
	meals, err := h.meals.List(c.Request.Context(), f)
	if err != nil {
		fail(c, err, mealNotFound)
		return
	}
	if meals == nil {
		meals = []model.Meal{}
	}
	c.JSON(http.StatusOK, meals)
}

// GET /api/meals/availability takes the same filters as List.
func (h *MealHandler) ListAvailability(c *gin.Context) {
	f, ok := parseMealFilter(c)
	if !ok {
		return
	}
	list, err := h.meals.Availability(c.Request.Context(), f)
	if err != nil {
		fail(c, err, mealNotFound)
		return
	}
	if list == nil {
		list = []model.MealAvailability{}
	}
	c.JSON(http.StatusOK, list)
}

// GET /api/meals/:id
func (h *MealHandler) Get(c *gin.Context) {
	id, ok := pathID(c, mealNotFound)
	if !ok {
		return
	}
	m, err := h.meals.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err, mealNotFound)
		return
	}
	c.JSON(http.StatusOK, m)
}

// POST /api/meals
func (h *MealHandler) Create(c *gin.Context) {
	var req createMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	m := req.toModel()
	if err := h.meals.Create(c.Request.Context(), m); err != nil {
		fail(c, err, mealNotFound)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// PUT /api/meals/:id
func (h *MealHandler) Update(c *gin.Context) {
	id, ok := pathID(c, mealNotFound)
	if !ok {
		return
	}
	var req updateMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	patch := req.toPatch()
	if patch.Empty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}
	m, err := h.meals.Update(c.Request.Context(), id, patch)
	if err != nil {
		fail(c, err, mealNotFound)
		return
	}
	c.JSON(http.StatusOK, m)
}

// DELETE /api/meals/:id
func (h *MealHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, mealNotFound)
	if !ok {
		return
	}
	if err := h.meals.Delete(c.Request.Context(), id); err != nil {
		fail(c, err, mealNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Meal deleted"})
}

// GET /api/meals/:id/availability
func (h *MealHandler) Availability(c *gin.Context) {
	id, ok := pathID(c, mealNotFound)
	if !ok {
		return
	}
	a, err := h.meals.AvailabilityOf(c.Request.Context(), id)
	if err != nil {
		fail(c, err, mealNotFound)
		return
	}
	c.JSON(http.StatusOK, a)
}

// GET /api/meals/:id/rating
func (h *MealHandler) Rating(c *gin.Context) {
	id, ok := pathID(c, mealNotFound)
	if !ok {
		return
	}
	r, err := h.reviews.Rating(c.Request.Context(), id)
	if err != nil {
		fail(c, err, mealNotFound)
		return
	}
	c.JSON(http.StatusOK, r)
}

// GET /api/meals/:id/reviews
func (h *MealHandler) Reviews(c *gin.Context) {
	id, ok := pathID(c, mealNotFound)
	if !ok {
		return
	}
	reviews, err := h.reviews.ListForMeal(c.Request.Context(), id)
	if err != nil {
		fail(c, err, mealNotFound)
		return
	}
	if reviews == nil {
		reviews = []model.Review{}
	}
	c.JSON(http.StatusOK, reviews)
}
