package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"market-confluence/src/helpers"
	"market-confluence/src/models"

	"github.com/creasty/defaults"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// -----------------------------------------------------------------------------
// Query Models
// -----------------------------------------------------------------------------

// at accepts RFC3339 or unix seconds; empty means now.
type instantQuery struct {
	At string `form:"at"`
}

type snapshotQuery struct {
	At          string  `form:"at"`
	Tolerance   float64 `form:"tolerance" validate:"omitempty,gt=0,lte=120"`
	HorizonDays int     `form:"horizon_days" validate:"omitempty,gte=1,lte=730"`
}

type macroQuery struct {
	At          string `form:"at"`
	HorizonDays int    `form:"horizon_days" validate:"omitempty,gte=1,lte=730"`
}

type eventsQuery struct {
	Limit int    `form:"limit" default:"100" validate:"gte=1,lte=1000"`
	Kind  string `form:"kind" validate:"omitempty,oneof=phase_change cluster_escalated intraday_confluence macro_confluence"`
}

// MFieldError is one failed query field in a 400 response.
type MFieldError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// -----------------------------------------------------------------------------

// bindQuery binds, defaults and validates req. Every failure is a
// ValidationError.
func bindQuery(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindQuery(req); err != nil {
		return helpers.NewValidationError("invalid query", err)
	}
	if err := defaults.Set(req); err != nil {
		return helpers.NewValidationError("invalid query", err)
	}
	if err := validate.StructCtx(c.Request.Context(), req); err != nil {
		return helpers.NewValidationError("invalid query", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// respondError maps typed errors to status codes.
func respondError(c *gin.Context, err error) {
	var validationErr *helpers.ValidationError
	if errors.As(err, &validationErr) {
		body := gin.H{"error": err.Error()}
		if fields := fieldErrors(err); len(fields) > 0 {
			body["details"] = fields
		}
		c.JSON(http.StatusBadRequest, body)
		return
	}

	var dbErr *helpers.DatabaseError
	if errors.As(err, &dbErr) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event journal unavailable"})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
}

func fieldErrors(err error) []MFieldError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}
	out := make([]MFieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		out = append(out, MFieldError{
			Code:    "ERR_" + strings.ToUpper(fe.Tag()),
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}

// -----------------------------------------------------------------------------

// streamMessage turns a Broadcast payload into a typed message before it
// enters the hub queue.
func streamMessage(payload interface{}, now time.Time) (*models.MStreamMessage, bool) {
	switch v := payload.(type) {
	case *models.MStreamMessage:
		return v, v != nil
	case *models.MConfluenceSnapshot:
		if v == nil {
			return nil, false
		}
		return &models.MStreamMessage{Type: models.StreamSnapshot, Timestamp: v.Clock.Instant.UnixMilli(), Snapshot: v}, true
	case models.MConfluenceSnapshot:
		return &models.MStreamMessage{Type: models.StreamSnapshot, Timestamp: v.Clock.Instant.UnixMilli(), Snapshot: &v}, true
	case []models.MConfluenceEvent:
		if len(v) == 0 {
			return nil, false
		}
		return &models.MStreamMessage{Type: models.StreamEvents, Timestamp: now.UnixMilli(), Events: v}, true
	}
	return nil, false
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
