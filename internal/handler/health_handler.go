package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mash021/meal-sharing/internal/repository"
)

// TableLister reports the user tables of the backing store.
type TableLister interface {
	Tables(ctx context.Context) ([]repository.Table, error)
}

type HealthHandler struct {
	tables TableLister
}

func NewHealthHandler(t TableLister) *HealthHandler {
	return &HealthHandler{tables: t}
}

func (h *HealthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/", h.Tables)
}

// GET /api/
func (h *HealthHandler) Tables(c *gin.Context) {
	tables, err := h.tables.Tables(c.Request.Context())
	if err != nil {
		fail(c, err, "No tables found")
		return
	}
	if tables == nil {
		tables = []repository.Table{}
	}
	c.JSON(http.StatusOK, gin.H{"tables": tables})
}
