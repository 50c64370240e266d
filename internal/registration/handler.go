package registration

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

// resolveUser picks the acting user: admins may register on behalf of any
// user via the request body, everyone else acts as themselves.
func resolveUser(c *gin.Context, kind, id string) (directory.UserRef, bool) {
	authCtx, ok := middleware.GetAuthContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth context missing"})
		return directory.UserRef{}, false
	}

	if authCtx.IsAdmin() {
		if kind == "" || id == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_kind and user_id are required"})
			return directory.UserRef{}, false
		}
		return directory.UserRef{Kind: directory.UserKind(kind), ID: id}, true
	}

	return directory.UserRef{Kind: directory.UserKind(authCtx.UserKind), ID: authCtx.UserID}, true
}

// ===========================
// 🎯 Register - POST /events/:id/registrations
func (h *Handler) Register(c *gin.Context) {
	eventID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	var req RegisterRequest
	// Body is optional for self-registration
	_ = c.ShouldBindJSON(&req)

	ref, ok := resolveUser(c, req.UserKind, req.UserID)
	if !ok {
		return
	}

	view, err := h.Service.Register(c.Request.Context(), uint(eventID), ref, middleware.GetClientIP(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "registered", "data": view})
}

// ===========================
// ❌ Cancel - DELETE /events/:id/registrations
func (h *Handler) Cancel(c *gin.Context) {
	eventID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	ref, ok := resolveUser(c, c.Query("user_kind"), c.Query("user_id"))
	if !ok {
		return
	}

	reg, err := h.Service.Cancel(c.Request.Context(), uint(eventID), ref, middleware.GetClientIP(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "registration cancelled", "registration": reg})
}

// ===========================
// 📄 List my registrations - GET /registrations
func (h *Handler) ListForUser(c *gin.Context) {
	ref, ok := resolveUser(c, c.Query("user_kind"), c.Query("user_id"))
	if !ok {
		return
	}

	filter := ListFilter{
		Status:       c.Query("status"),
		UpcomingOnly: c.Query("upcoming") == "true",
	}

	views, err := h.Service.ListForUser(c.Request.Context(), ref, filter)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"registrations": views})
}

// ===========================
// 📄 List event registrations - GET /events/:id/registrations
func (h *Handler) ListForEvent(c *gin.Context) {
	eventID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	filter := ListFilter{Status: c.Query("status")}

	regs, summary, err := h.Service.ListForEvent(c.Request.Context(), uint(eventID), filter)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"event": summary, "registrations": regs})
}
