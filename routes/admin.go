package routes

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"awazgram-server/apperrors"
	"awazgram-server/middleware"
	"awazgram-server/models"
	"awazgram-server/services"
)

// StatusUpdateRequest moves one complaint to a new status
type StatusUpdateRequest struct {
	ComplaintID string `json:"complaint_id" form:"complaint_id" binding:"required"`
	Status      string `json:"status" form:"status" binding:"required,complaint_status"`
	Notes       string `json:"notes" form:"notes" binding:"max=2000"`
}

// AssignmentRequest changes who handles a complaint and its performance markers.
// Omitted fields are left alone; staff_id 0 clears the assignment.
type AssignmentRequest struct {
	ComplaintID string  `json:"complaint_id" form:"complaint_id" binding:"required"`
	StaffID     *uint   `json:"staff_id" form:"staff_id"`
	EscalatedTo *string `json:"escalated_to" form:"escalated_to" binding:"omitempty,max=100"`
	SLABreached *bool   `json:"sla_breached" form:"sla_breached"`
	TrustBadge  *bool   `json:"trust_badge" form:"trust_badge"`
	Notes       string  `json:"notes" form:"notes" binding:"max=2000"`
}

// BulkStatusUpdateRequest moves several complaints to the same status
type BulkStatusUpdateRequest struct {
	ComplaintIDs []string `json:"complaint_ids" binding:"required,min=1,max=100"`
	Status       string   `json:"status" binding:"required,complaint_status"`
	Notes        string   `json:"notes" binding:"max=2000"`
}

// RegisterAdminRoutes registers the village administration routes.
// The group must already carry AdminAuthMiddleware.
func RegisterAdminRoutes(admin *gin.RouterGroup, h *Handler) {
	admin.GET("/dashboard", h.adminDashboard)

	complaints := admin.Group("/complaints")
	{
		complaints.GET("", h.listComplaints)
		complaints.GET("/:complaint_id", h.getComplaint)
		complaints.POST("/status", h.updateComplaintStatus)
		complaints.POST("/assign", h.assignComplaint)
		complaints.POST("/bulk-status", h.bulkUpdateComplaintStatus)
		complaints.POST("/feedback", h.adminFeedback)
	}
}

// adminDashboard shows the actor's village complaints, stats and staff
func (h *Handler) adminDashboard(c *gin.Context) {
	actor := middleware.GetActor(c)
	ctx := c.Request.Context()

	page, err := h.complaints.ListForAdmin(ctx, actor, services.ListFilter{Page: 1})
	if err != nil {
		h.respondError(c, err)
		return
	}
	stats, err := h.stats.ActorStats(ctx, actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	staff, err := h.staff.ListStaff(ctx, actor)
	if err != nil {
		h.respondError(c, err)
		return
	}

	items := toResponses(page.Items, time.Now())
	if middleware.WantsHTML(c) {
		c.HTML(http.StatusOK, "admin_dashboard.html", gin.H{
			"Title":      "Admin dashboard",
			"Username":   actor.User.Username,
			"Village":    actor.Village(),
			"Stats":      stats,
			"Complaints": items,
			"Staff":      staff,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"village":    actor.Village(),
			"stats":      stats,
			"complaints": items,
			"total":      page.Total,
			"staff":      staff,
		},
	})
}

// listComplaints returns a page of the actor's village complaints.
// q searches the text fields; from and to are inclusive YYYY-MM-DD dates.
func (h *Handler) listComplaints(c *gin.Context) {
	pageNum, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	filter := services.ListFilter{
		Status:   c.Query("status"),
		Search:   c.Query("q"),
		Location: c.Query("location"),
		Page:     pageNum,
		Limit:    limit,
	}
	var err error
	if filter.CreatedFrom, err = parseDay(c.Query("from"), "from"); err != nil {
		h.respondError(c, err)
		return
	}
	if filter.CreatedTo, err = parseDay(c.Query("to"), "to"); err != nil {
		h.respondError(c, err)
		return
	}
	if filter.CreatedTo != nil {
		end := filter.CreatedTo.AddDate(0, 0, 1)
		filter.CreatedTo = &end
	}

	page, err := h.complaints.ListForAdmin(c.Request.Context(), middleware.GetActor(c), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    toResponses(page.Items, time.Now()),
		"total":   page.Total,
		"page":    page.Page,
		"limit":   page.Limit,
	})
}

func parseDay(value, field string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	day, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return nil, apperrors.NewValidationError("Dates must look like 2025-01-31", field)
	}
	return &day, nil
}

// getComplaint returns one complaint with its full history
func (h *Handler) getComplaint(c *gin.Context) {
	complaint, err := h.complaints.GetForAdmin(c.Request.Context(), middleware.GetActor(c), c.Param("complaint_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	if middleware.WantsHTML(c) {
		h.renderComplaintPage(c, http.StatusOK, complaint, "")
		return
	}

	resp := complaint.ToResponse(time.Now())
	trackings := trackingResponses(complaint.Trackings)
	allowed := complaint.Status.AllowedTransitions()
	c.JSON(http.StatusOK, gin.H{
		"success":             true,
		"data":                resp,
		"trackings":           trackings,
		"allowed_transitions": allowed,
	})
}

// renderComplaintPage shows the admin detail page with the status and
// assignment forms. errMsg is shown above the forms when set.
func (h *Handler) renderComplaintPage(c *gin.Context, status int, complaint *models.Complaint, errMsg string) {
	staff, err := h.staff.ListStaff(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	var assigned uint
	if complaint.AssignedStaffID != nil {
		assigned = *complaint.AssignedStaffID
	}
	resp := complaint.ToResponse(time.Now())
	c.HTML(status, "admin_complaint.html", gin.H{
		"Title":      complaint.ComplaintID,
		"Complaint":  &resp,
		"Trackings":  trackingResponses(complaint.Trackings),
		"Allowed":    complaint.Status.AllowedTransitions(),
		"Staff":      staff,
		"AssignedID": assigned,
		"Error":      errMsg,
	})
}

// formFailed answers a browser form post that the service rejected: village
// denials go to the login page, anything else re-renders the complaint page.
func (h *Handler) formFailed(c *gin.Context, complaintID string, err error) {
	appErr := apperrors.GetAppError(err)
	if appErr == nil || appErr.Type == apperrors.ErrorTypeAuthorization {
		h.respondError(c, err)
		return
	}
	complaint, loadErr := h.complaints.GetForAdmin(c.Request.Context(), middleware.GetActor(c), complaintID)
	if loadErr != nil {
		h.respondError(c, loadErr)
		return
	}
	h.renderComplaintPage(c, http.StatusOK, complaint, errorMessage(err))
}

// updateComplaintStatus accepts JSON clients and the form on the detail page
func (h *Handler) updateComplaintStatus(c *gin.Context) {
	jsonReq := isJSONRequest(c)

	var req StatusUpdateRequest
	if err := c.ShouldBind(&req); err != nil {
		if jsonReq || req.ComplaintID == "" {
			h.respondBindError(c, err)
			return
		}
		h.formFailed(c, req.ComplaintID, apperrors.NewValidationError(strings.Join(middleware.ValidationMessages(err), "; ")))
		return
	}

	result, err := h.complaints.ChangeStatus(c.Request.Context(), middleware.GetActor(c), services.StatusChange{
		ComplaintID: req.ComplaintID,
		Status:      req.Status,
		Notes:       req.Notes,
	})
	if err != nil {
		if jsonReq {
			h.respondError(c, err)
			return
		}
		h.formFailed(c, req.ComplaintID, err)
		return
	}

	if !jsonReq {
		c.Redirect(http.StatusSeeOther, "/admin/complaints/"+result.Complaint.ComplaintID)
		return
	}

	message := "Status updated"
	if !result.Changed {
		message = "Status unchanged"
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
		"changed": result.Changed,
		"from":    result.From,
		"to":      result.To,
		"data":    result.Complaint.ToResponse(time.Now()),
	})
}

// assignComplaint sets the handling staff member, escalation contact and markers
func (h *Handler) assignComplaint(c *gin.Context) {
	jsonReq := isJSONRequest(c)

	var req AssignmentRequest
	if err := c.ShouldBind(&req); err != nil {
		if jsonReq || req.ComplaintID == "" {
			h.respondBindError(c, err)
			return
		}
		h.formFailed(c, req.ComplaintID, apperrors.NewValidationError(strings.Join(middleware.ValidationMessages(err), "; ")))
		return
	}

	result, err := h.complaints.UpdateHandling(c.Request.Context(), middleware.GetActor(c), services.HandlingUpdate{
		ComplaintID: req.ComplaintID,
		StaffID:     req.StaffID,
		EscalatedTo: req.EscalatedTo,
		SLABreached: req.SLABreached,
		TrustBadge:  req.TrustBadge,
		Notes:       req.Notes,
	})
	if err != nil {
		if jsonReq {
			h.respondError(c, err)
			return
		}
		h.formFailed(c, req.ComplaintID, err)
		return
	}

	if !jsonReq {
		c.Redirect(http.StatusSeeOther, "/admin/complaints/"+result.Complaint.ComplaintID)
		return
	}
	message := "Complaint updated"
	if !result.Changed {
		message = "Nothing to update"
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
		"changed": result.Changed,
		"data":    result.Complaint.ToResponse(time.Now()),
	})
}

func (h *Handler) bulkUpdateComplaintStatus(c *gin.Context) {
	var req BulkStatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	results, err := h.complaints.BulkTransition(c.Request.Context(), middleware.GetActor(c), req.ComplaintIDs, req.Status, req.Notes)
	if err != nil {
		h.respondError(c, err)
		return
	}

	updated := 0
	for _, r := range results {
		if r.Changed {
			updated++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": strconv.Itoa(updated) + " complaint(s) marked as " + models.ComplaintStatus(req.Status).Label(),
		"updated": updated,
		"results": results,
	})
}

// adminFeedback records feedback on behalf of a villager, within the actor's village
func (h *Handler) adminFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	result, err := h.complaints.AttachFeedback(c.Request.Context(), middleware.GetActor(c), req.ComplaintID, req.Feedback)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Feedback recorded",
		"data":    result.Complaint.ToResponse(time.Now()),
	})
}
