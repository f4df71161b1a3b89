package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"two_point_controller/internal/policy"
	"two_point_controller/internal/service"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK         = "ok"
	statusTargetSet  = "target_set"
	statusEnabledSet = "enabled_set"

	errSensorUnavailable = "sensor unavailable"
	errReadOnly          = "attribute is read-only for this controller"
	errSetAttribute      = "failed to set attribute"
	errInvalidBodyPref   = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// Request DTOs. Pointers make "value" mandatory while still accepting 0/false.
type targetRequest struct {
	Value *float64 `json:"value" binding:"required"`
}

type enabledRequest struct {
	Value *bool `json:"value" binding:"required"`
}

// SetTargetRequest is an exported model for Swagger docs of the target payload.
type SetTargetRequest struct {
	// New setpoint; -999999999 clears it
	Value float64 `json:"value" example:"21.5"`
}

// SetEnabledRequest is an exported model for Swagger docs of the enabled payload.
type SetEnabledRequest struct {
	Value bool `json:"value" example:"true"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Get all controller attributes
// @Tags         controller
// @Produce      json
// @Success      200  {object}  models.Attributes
// @Failure      401  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/controller/attributes [get]
// @Security     BearerAuth
func (h *Handler) getAttributes(c *gin.Context) {
	a, err := h.services.Controller.Attributes(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusServiceUnavailable, errSensorUnavailable, "controller_attributes_failed", err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// @Summary      Current sensor value
// @Tags         controller
// @Produce      json
// @Success      200  {object}  map[string]float64
// @Failure      401  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/controller/sensor-value [get]
// @Security     BearerAuth
func (h *Handler) getSensorValue(c *gin.Context) {
	v, err := h.services.Controller.SensorValue(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusServiceUnavailable, errSensorUnavailable, "controller_sensor_read_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"value": v})
}

// @Summary      Current actuator value
// @Description  An unreadable actuator reports 0
// @Tags         controller
// @Produce      json
// @Success      200  {object}  map[string]float64
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/controller/actor-value [get]
// @Security     BearerAuth
func (h *Handler) getActorValue(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"value": h.services.Controller.ActorValue(c.Request.Context())})
}

// @Summary      Control difference
// @Description  Target minus current sensor value
// @Tags         controller
// @Produce      json
// @Success      200  {object}  map[string]float64
// @Failure      401  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/controller/difference [get]
// @Security     BearerAuth
func (h *Handler) getDifference(c *gin.Context) {
	v, err := h.services.Controller.Difference(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusServiceUnavailable, errSensorUnavailable, "controller_difference_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"value": v})
}

// @Summary      Get target
// @Tags         controller
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "value, set"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/controller/target [get]
// @Security     BearerAuth
func (h *Handler) getTarget(c *gin.Context) {
	v := h.services.Controller.Target()
	c.JSON(http.StatusOK, gin.H{"value": v, "set": v != policy.TargetNoValue})
}

// @Summary      Set target
// @Tags         controller
// @Accept       json
// @Produce      json
// @Param        body  body   SetTargetRequest  true  "Target payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /api/v1/controller/target [put]
// @Security     BearerAuth
func (h *Handler) setTarget(c *gin.Context) {
	var req targetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if err := h.services.Controller.SetTarget(c.Request.Context(), *req.Value); err != nil {
		h.attributeWriteError(c, err, "target", *req.Value)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusTargetSet, "value": *req.Value})
}

// @Summary      Get enabled flag
// @Tags         controller
// @Produce      json
// @Success      200  {object}  map[string]bool
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/controller/enabled [get]
// @Security     BearerAuth
func (h *Handler) getEnabled(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"value": h.services.Controller.Enabled()})
}

// @Summary      Enable or disable regulation
// @Tags         controller
// @Accept       json
// @Produce      json
// @Param        body  body   SetEnabledRequest  true  "Enabled payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /api/v1/controller/enabled [put]
// @Security     BearerAuth
func (h *Handler) setEnabled(c *gin.Context) {
	var req enabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if err := h.services.Controller.SetEnabled(c.Request.Context(), *req.Value); err != nil {
		h.attributeWriteError(c, err, "enabled", *req.Value)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusEnabledSet, "value": *req.Value})
}

func (h *Handler) attributeWriteError(c *gin.Context, err error, attr string, v any) {
	switch {
	case errors.Is(err, service.ErrReadOnlyAttribute):
		c.JSON(http.StatusForbidden, gin.H{"error": errReadOnly})
	case errors.Is(err, service.ErrInvalidTarget):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, errSetAttribute, "controller_set_attribute_failed", err,
			"attribute", attr, "value", v)
	}
}
