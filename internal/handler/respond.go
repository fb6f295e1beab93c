package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/mash021/meal-sharing/internal/repository"
	"github.com/mash021/meal-sharing/internal/service"
)

// Issue is one field level validation failure.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var configureOnce sync.Once

// configureValidator makes validator report fields by their json tag and adds
// "notblank", which rejects strings that are empty after trimming whitespace.
func configureValidator() {
	configureOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
			panic(err)
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

func issueMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "notblank":
		return "must not be blank"
	case "email":
		return "must be a valid email address"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

// badRequest writes a 400. Validator errors become a list of issues,
// everything else (malformed JSON, bad timestamps) a plain message.
func badRequest(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		issues := make([]Issue, 0, len(verrs))
		for _, fe := range verrs {
			issues = append(issues, Issue{Field: fe.Field(), Message: issueMessage(fe)})
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": issues})
		return
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": []Issue{{
			Field:   typeErr.Field,
			Message: "must be a " + typeErr.Type.String(),
		}}})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func invalidField(c *gin.Context, field, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": []Issue{{Field: field, Message: message}}})
}

// fail maps a service error to a status. notFound is the message for a missing resource.
func fail(c *gin.Context, err error, notFound string) {
	switch {
	case errors.Is(err, service.ErrMealNotFound):
		invalidField(c, "meal_id", service.ErrMealNotFound.Error())
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
	case errors.Is(err, repository.ErrCapacityExceeded):
		c.JSON(http.StatusConflict, gin.H{"error": "Not enough seats left for this meal"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// pathID parses :id. Anything that is not a positive integer cannot name a row, so it is a 404.
func pathID(c *gin.Context, notFound string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
		return 0, false
	}
	return id, true
}

// mealIDQuery parses the optional ?mealId= list filter.
func mealIDQuery(c *gin.Context) (*int64, bool) {
	raw := c.Query("mealId")
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		invalidField(c, "mealId", "must be an integer")
		return nil, false
	}
	return &id, true
}
