package compliance

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/swachhsetu/training-backend/internal/directory"
	"github.com/swachhsetu/training-backend/utils"
)

type Handler struct {
	Service Service
}

func NewHandler(s Service) *Handler {
	return &Handler{Service: s}
}

// ===========================
// 👤 User Compliance - GET /compliance/users/:kind/:id
func (h *Handler) UserCompliance(c *gin.Context) {
	kind := c.Param("kind")
	if !directory.ValidUserKind(kind) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user kind must be CITIZEN or WORKER"})
		return
	}

	year, _ := strconv.Atoi(c.Query("year"))
	ref := directory.UserRef{Kind: directory.UserKind(kind), ID: c.Param("id")}

	report, err := h.Service.UserCompliance(c.Request.Context(), ref, year)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// ===========================
// 🏘 Locality Compliance - GET /compliance/localities/:id
func (h *Handler) LocalityCompliance(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid locality id"})
		return
	}
	year, _ := strconv.Atoi(c.Query("year"))

	report, err := h.Service.LocalityCompliance(c.Request.Context(), uint(id), year)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// ===========================
// 🏙 District Compliance - GET /compliance/districts/:id
func (h *Handler) DistrictCompliance(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid district id"})
		return
	}
	year, _ := strconv.Atoi(c.Query("year"))

	report, err := h.Service.DistrictCompliance(c.Request.Context(), uint(id), year)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// ===========================
// 📅 Monthly Trend - GET /compliance/trends/monthly
func (h *Handler) MonthlyTrend(c *gin.Context) {
	filter := TrendFilter{}
	if localityStr := c.Query("locality_id"); localityStr != "" {
		localityID, err := strconv.ParseUint(localityStr, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid locality_id"})
			return
		}
		filter.LocalityID = uint(localityID)
	}
	filter.Year, _ = strconv.Atoi(c.Query("year"))

	trend, err := h.Service.MonthlyTrend(c.Request.Context(), filter)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"year": filter.Year, "trend": trend})
}

// ===========================
// 📈 Training Analytics - GET /compliance/analytics
func (h *Handler) TrainingAnalytics(c *gin.Context) {
	filter := AnalyticsFilter{}

	if localityStr := c.Query("locality_id"); localityStr != "" {
		localityID, err := strconv.ParseUint(localityStr, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid locality_id"})
			return
		}
		filter.LocalityID = uint(localityID)
	}
	if districtStr := c.Query("district_id"); districtStr != "" {
		districtID, err := strconv.ParseUint(districtStr, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid district_id"})
			return
		}
		filter.DistrictID = uint(districtID)
	}

	var err error
	filter.From, filter.To, err = parseDateRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.Service.TrainingAnalytics(c.Request.Context(), filter)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ===========================
// 📋 Locality Attendance Report - GET /compliance/localities/:id/attendance
func (h *Handler) LocalityAttendanceReport(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid locality id"})
		return
	}

	from, to, err := parseDateRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.Service.LocalityAttendanceReport(c.Request.Context(), uint(id), from, to)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// parseDateRange reads the optional from/to query params as RFC 3339 dates.
func parseDateRange(c *gin.Context) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if fromStr := c.Query("from"); fromStr != "" {
		t, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			return nil, nil, errors.New("from must be an RFC 3339 timestamp")
		}
		from = &t
	}
	if toStr := c.Query("to"); toStr != "" {
		t, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			return nil, nil, errors.New("to must be an RFC 3339 timestamp")
		}
		to = &t
	}
	return from, to, nil
}

// ===========================
// 🚨 Alerts - GET /compliance/alerts
func (h *Handler) ComplianceAlerts(c *gin.Context) {
	threshold, _ := strconv.ParseFloat(c.DefaultQuery("threshold", "70"), 64)

	alerts, err := h.Service.ComplianceAlerts(c.Request.Context(), threshold)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"threshold": threshold, "alerts": alerts})
}
