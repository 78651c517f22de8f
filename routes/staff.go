package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"awazgram-server/middleware"
	"awazgram-server/models"
)

// RegisterStaffRoutes registers staff management for village administrators
func RegisterStaffRoutes(admin *gin.RouterGroup, h *Handler) {
	admin.GET("/staff", h.listStaff)
	admin.POST("/staff", h.addStaff)
}

func (h *Handler) listStaff(c *gin.Context) {
	staff, err := h.staff.ListStaff(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    staff,
		"total":   len(staff),
	})
}

// addStaff creates a staff account. The setup code is returned only when it could not be emailed.
func (h *Handler) addStaff(c *gin.Context) {
	var req models.StaffMemberCreate
	if err := c.ShouldBind(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	out, err := h.staff.AddStaff(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	message := "Staff member created. A password setup link was emailed."
	if !out.Emailed {
		message = "Staff member created. Share the setup code so they can choose a password."
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": message,
		"data":    out,
	})
}
