package reports

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/swachhsetu/training-backend/utils"
)

type Handler struct {
	Service Service
}

func NewHandler(s Service) *Handler {
	return &Handler{Service: s}
}

// ===========================
// 📥 Download Report - GET /reports/:type
func (h *Handler) Download(c *gin.Context) {
	reportType := c.Param("type")
	format := c.DefaultQuery("format", FormatCSV)
	if !ValidFormat(format) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv, excel or pdf"})
		return
	}

	filter := Filter{}
	if localityStr := c.Query("locality_id"); localityStr != "" {
		localityID, err := strconv.ParseUint(localityStr, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid locality_id"})
			return
		}
		filter.LocalityID = uint(localityID)
	}
	if eventStr := c.Query("event_id"); eventStr != "" {
		eventID, err := strconv.ParseUint(eventStr, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event_id"})
			return
		}
		filter.EventID = uint(eventID)
	}
	filter.Year, _ = strconv.Atoi(c.Query("year"))

	switch reportType {
	case ReportTypeLocalityCompliance:
		if filter.LocalityID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "locality_id is required"})
			return
		}
	case ReportTypeEventAttendance:
		if filter.EventID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "event_id is required"})
			return
		}
	case ReportTypeReminderTargets:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported report type"})
		return
	}

	content, filename, mimeType, err := h.Service.Generate(c.Request.Context(), reportType, format, filter)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, mimeType, content)
}
