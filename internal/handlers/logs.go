package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"two_point_controller/internal/models"
	"two_point_controller/internal/service"
)

const (
	errFromInvalid = "invalid 'from' time; use RFC3339 or YYYY-MM-DD"
	errToInvalid   = "invalid 'to' time; use RFC3339 or YYYY-MM-DD"
	errRange       = "'from' must be <= 'to'"
	errLoadLogs    = "failed to load logs"

	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
)

var errUnknownEventType = errors.New("unknown event type; expected one of " + strings.Join(models.EventTypes, ", "))

// @Summary      List control history
// @Description  Switching decisions, write failures, sensor faults and attribute changes of the controller. Dates accept RFC3339, 'YYYY-MM-DD HH:MM:SS' or 'YYYY-MM-DD'; a date-only 'to' covers the whole day.
// @Tags         logs
// @Produce      json
// @Param        from  query   string  false  "Start of range"  example(2025-08-01)
// @Param        to    query   string  false  "End of range. Date-only treated as end of day."  example(2025-08-31)
// @Param        type  query   string  false  "Event type (case-insensitive)"  Enums(START,STOP,ACTUATE,WRITE_FAILED,SENSOR_FAULT,SENSOR_RECOVERED,TARGET_CHANGE,ENABLE_CHANGE)
// @Success      200   {object}  map[string]interface{}  "count, events"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/logs [get]
// @Security     BearerAuth
func (h *Handler) getLogs(c *gin.Context) {
	filter, err := parseLogFilter(c.Query("from"), c.Query("to"), c.Query("type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	events, err := h.services.EventLog.List(c.Request.Context(), filter)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadLogs, "logs_list_failed", err,
			"from", filter.From, "to", filter.To, "type", filter.Type)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(events),
		"events": events,
	})
}

// parseLogFilter turns the query parameters into a history filter. Empty
// parameters leave that bound or the type open.
func parseLogFilter(fromQ, toQ, typeQ string) (service.LogFilter, error) {
	var (
		f   service.LogFilter
		err error
	)
	if fromQ != "" {
		if f.From, err = parseQueryTime(fromQ); err != nil {
			return f, errors.New(errFromInvalid)
		}
	}
	if toQ != "" {
		if f.To, err = parseQueryTime(toQ); err != nil {
			return f, errors.New(errToInvalid)
		}
		if isDateOnly(toQ) {
			f.To = f.To.Add(24*time.Hour - time.Nanosecond)
		}
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return f, errors.New(errRange)
	}

	if t := strings.ToUpper(strings.TrimSpace(typeQ)); t != "" {
		if !models.IsEventType(t) {
			return f, errUnknownEventType
		}
		f.Type = t
	}
	return f, nil
}

// isDateOnly reports whether the query string represents a date without time component.
func isDateOnly(s string) bool {
	return !strings.ContainsAny(s, "T ")
}

func parseQueryTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, layoutDateTime, layoutDate} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time format %q", s)
}
