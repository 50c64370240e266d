package reminder

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

func parseFilter(c *gin.Context) (SelectFilter, bool) {
	filter := SelectFilter{}

	if localityStr := c.Query("locality_id"); localityStr != "" {
		localityID, err := strconv.ParseUint(localityStr, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid locality_id"})
			return filter, false
		}
		id := uint(localityID)
		filter.LocalityID = &id
	}
	if kindStr := c.Query("user_kind"); kindStr != "" {
		if !directory.ValidUserKind(kindStr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_kind must be CITIZEN or WORKER"})
			return filter, false
		}
		kind := directory.UserKind(kindStr)
		filter.UserKind = &kind
	}
	return filter, true
}

// ===========================
// 🎯 Select Targets - GET /reminders/targets
func (h *Handler) SelectTargets(c *gin.Context) {
	filter, ok := parseFilter(c)
	if !ok {
		return
	}

	targets, err := h.Service.SelectTargets(c.Request.Context(), filter)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": len(targets), "targets": targets})
}

// ===========================
// 📨 Send Reminders - POST /reminders/send
func (h *Handler) SendReminders(c *gin.Context) {
	filter, ok := parseFilter(c)
	if !ok {
		return
	}

	var actorID *string
	if authCtx, ok := middleware.GetAuthContext(c); ok && authCtx.UserID != "" {
		actorID = &authCtx.UserID
	}

	count, err := h.Service.SendReminders(c.Request.Context(), filter, actorID, middleware.GetClientIP(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "reminders published", "count": count})
}
