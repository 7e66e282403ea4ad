package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/inakamono/paddy-advisor/internal/domain"
)

// createFieldRequest is the registration payload. Transplant date is a
// plain calendar date string.
type createFieldRequest struct {
	Name             string   `json:"name" binding:"required"`
	Latitude         float64  `json:"latitude" binding:"required"`
	Longitude        float64  `json:"longitude" binding:"required"`
	AreaM2           *float64 `json:"area_m2"`
	Variety          string   `json:"variety" binding:"required"`
	TransplantDate   string   `json:"transplant_date"`
	StationID        string   `json:"station_id" binding:"required"`
	ElevationM       *float64 `json:"elevation_m"`
	StationElevation *float64 `json:"station_elevation_m"`
	RecipientID      string   `json:"recipient_id"`
}

func (s *Server) handleCreateField(c *gin.Context) {
	var req createFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := domain.LookupVariety(req.Variety); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	f := domain.Field{
		Name:             req.Name,
		Latitude:         req.Latitude,
		Longitude:        req.Longitude,
		AreaM2:           req.AreaM2,
		Variety:          req.Variety,
		StationID:        req.StationID,
		ElevationM:       req.ElevationM,
		StationElevation: req.StationElevation,
		RecipientID:      req.RecipientID,
	}
	if req.TransplantDate != "" {
		d, err := time.Parse("2006-01-02", req.TransplantDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transplant_date, want YYYY-MM-DD"})
			return
		}
		f.TransplantDate = &d
	}

	id, err := s.store.CreateField(c.Request.Context(), f)
	if err != nil {
		s.internalError(c, err)
		return
	}
	f.ID = id
	c.JSON(http.StatusCreated, f)
}

func (s *Server) handleGetField(c *gin.Context) {
	id, ok := fieldID(c)
	if !ok {
		return
	}
	f, err := s.store.GetField(c.Request.Context(), id)
	if err != nil {
		s.fieldError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (s *Server) handleAdvice(c *gin.Context) {
	id, ok := fieldID(c)
	if !ok {
		return
	}
	asOf, ok := s.asOfDate(c)
	if !ok {
		return
	}

	advice, err := s.service.Advise(c.Request.Context(), id, asOf)
	if err != nil {
		s.fieldError(c, err)
		return
	}
	c.JSON(http.StatusOK, advice)
}

func (s *Server) handleEvaluate(c *gin.Context) {
	id, ok := fieldID(c)
	if !ok {
		return
	}
	asOf, ok := s.asOfDate(c)
	if !ok {
		return
	}

	events, err := s.service.EvaluateField(c.Request.Context(), id, asOf)
	if err != nil {
		s.fieldError(c, err)
		return
	}
	if events == nil {
		events = []domain.Event{}
	}
	c.JSON(http.StatusOK, gin.H{"notifications": events})
}

func (s *Server) handleNotifications(c *gin.Context) {
	id, ok := fieldID(c)
	if !ok {
		return
	}
	if _, err := s.store.GetField(c.Request.Context(), id); err != nil {
		s.fieldError(c, err)
		return
	}
	events, err := s.store.ListNotifications(c.Request.Context(), id)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": events})
}

// fieldID parses the :id route parameter, writing a 400 on failure.
func fieldID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid field id"})
		return 0, false
	}
	return id, true
}

// asOfDate reads the optional date query parameter, defaulting to today.
func (s *Server) asOfDate(c *gin.Context) (time.Time, bool) {
	raw := c.Query("date")
	if raw == "" {
		return s.service.Today(), true
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, want YYYY-MM-DD"})
		return time.Time{}, false
	}
	return d, true
}

// fieldError maps domain errors onto HTTP statuses.
func (s *Server) fieldError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrFieldNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "field not found"})
	case errors.Is(err, domain.ErrUnknownVariety),
		errors.Is(err, domain.ErrNoStation),
		errors.Is(err, domain.ErrNoTransplantDate):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		s.internalError(c, err)
	}
}

func (s *Server) internalError(c *gin.Context, err error) {
	s.logger.Error("request failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
