package attendance

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/swachhsetu/training-backend/internal/directory"
	"github.com/swachhsetu/training-backend/middleware"
	"github.com/swachhsetu/training-backend/utils"
)

type Handler struct {
	Service Service
}

func NewHandler(s Service) *Handler {
	return &Handler{Service: s}
}

func parseEventID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return 0, false
	}
	return uint(id), true
}

// ===========================
// ✅ Mark Attendance - POST /events/:id/attendance
func (h *Handler) MarkAttendance(c *gin.Context) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}

	var req MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
		return
	}
	if !directory.ValidUserKind(req.UserKind) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_kind must be CITIZEN or WORKER"})
		return
	}

	ref := directory.UserRef{Kind: directory.UserKind(req.UserKind), ID: req.UserID}
	record, err := h.Service.MarkAttendance(c.Request.Context(), eventID, ref, req.PresenceStatus, req.CompletionStatus, middleware.GetClientIP(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "attendance marked", "attendance": record})
}

// ===========================
// 🎓 Issue Certificate - POST /events/:id/certificates
func (h *Handler) IssueCertificate(c *gin.Context) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}

	var req struct {
		UserKind string `json:"user_kind" binding:"required"`
		UserID   string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
		return
	}
	if !directory.ValidUserKind(req.UserKind) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_kind must be CITIZEN or WORKER"})
		return
	}

	ref := directory.UserRef{Kind: directory.UserKind(req.UserKind), ID: req.UserID}
	record, err := h.Service.IssueCertificate(c.Request.Context(), eventID, ref, middleware.GetClientIP(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "certificate issued", "attendance": record})
}

// ===========================
// 📊 Event Attendance - GET /events/:id/attendance
func (h *Handler) GetEventAttendance(c *gin.Context) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}

	result, err := h.Service.GetEventAttendance(c.Request.Context(), eventID, c.Query("presence_status"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ===========================
// 🚫 Missed Users - GET /events/:id/attendance/missed
func (h *Handler) MissedUsers(c *gin.Context) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}

	missed, err := h.Service.MissedUsers(c.Request.Context(), eventID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"event_id": eventID, "missed_users": missed})
}
