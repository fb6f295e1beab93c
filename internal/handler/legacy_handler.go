package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mash021/meal-sharing/internal/model"
	"github.com/mash021/meal-sharing/internal/service"
)

const noMeals = "No meals found"

// LegacyHandler keeps the old top level meal shortcuts alive.
type LegacyHandler struct {
	meals *service.MealService
}

func NewLegacyHandler(meals *service.MealService) *LegacyHandler {
	return &LegacyHandler{meals: meals}
}

func (h *LegacyHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/future-meals", h.list(h.meals.Future))
	rg.GET("/past-meals", h.list(h.meals.Past))
	rg.GET("/all-meals", h.list(h.meals.AllByID))
	rg.GET("/first-meal", h.one(h.meals.First))
	rg.GET("/last-meal", h.one(h.meals.Last))
}

func (h *LegacyHandler) list(fetch func(context.Context) ([]model.Meal, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		meals, err := fetch(c.Request.Context())
		if err != nil {
			fail(c, err, noMeals)
			return
		}
		if meals == nil {
			meals = []model.Meal{}
		}
		c.JSON(http.StatusOK, meals)
	}
}

func (h *LegacyHandler) one(fetch func(context.Context) (*model.Meal, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := fetch(c.Request.Context())
		if err != nil {
			fail(c, err, noMeals)
			return
		}
		c.JSON(http.StatusOK, m)
	}
}
