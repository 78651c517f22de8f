package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"awazgram-server/apperrors"
	"awazgram-server/models"
)

// RegisterPublicRoutes registers the villager-facing HTML pages
func RegisterPublicRoutes(router *gin.Engine, h *Handler) {
	router.GET("/", h.homePage)
	router.GET("/about", staticPage("about.html", "About"))
	router.GET("/report", h.reportPage)
	router.GET("/trackcomplaint", h.trackPage)
	router.GET("/dashboard", h.publicDashboard)
	router.GET("/offlinehelp", staticPage("offlinehelp.html", "Offline help"))
	router.GET("/success", h.successPage)
}

func staticPage(name, title string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, name, gin.H{"Title": title})
	}
}

func (h *Handler) homePage(c *gin.Context) {
	data := gin.H{"Title": "Home"}
	stats, err := h.stats.Stats(c.Request.Context())
	if err != nil {
		h.log.Warn("home page stats unavailable", "error", err)
	} else {
		data["Stats"] = stats
		data["Recent"] = toResponses(stats.Recent, time.Now())
	}
	c.HTML(http.StatusOK, "index.html", data)
}

func (h *Handler) reportPage(c *gin.Context) {
	h.renderReportForm(c, http.StatusOK, models.ComplaintCreate{}, "")
}

func (h *Handler) renderReportForm(c *gin.Context, status int, form models.ComplaintCreate, errMsg string) {
	c.HTML(status, "report.html", gin.H{
		"Title":      "Report a complaint",
		"Form":       form,
		"Categories": complaintCategories,
		"Error":      errMsg,
	})
}

func (h *Handler) trackPage(c *gin.Context) {
	query := strings.TrimSpace(c.Query("complaint_id"))
	data := gin.H{"Title": "Track complaint", "Query": query}
	if query == "" {
		c.HTML(http.StatusOK, "trackcomplaint.html", data)
		return
	}

	complaint, err := h.complaints.Track(c.Request.Context(), query)
	if err != nil {
		if !apperrors.IsNotFoundError(err) && !apperrors.IsValidationError(err) {
			h.log.Error("track lookup failed", "complaint_id", query, "error", err)
		}
		data["Error"] = errorMessage(err)
		c.HTML(http.StatusOK, "trackcomplaint.html", data)
		return
	}

	resp := complaint.ToResponse(time.Now())
	data["Complaint"] = &resp
	data["Trackings"] = trackingResponses(complaint.Trackings)
	c.HTML(http.StatusOK, "trackcomplaint.html", data)
}

func (h *Handler) publicDashboard(c *gin.Context) {
	stats, err := h.stats.Stats(c.Request.Context())
	if err != nil {
		h.log.Error("dashboard stats failed", "error", err)
		c.HTML(http.StatusInternalServerError, "dashboard.html", gin.H{"Title": "Dashboard"})
		return
	}
	c.HTML(http.StatusOK, "dashboard.html", gin.H{"Title": "Dashboard", "Stats": stats})
}

func (h *Handler) successPage(c *gin.Context) {
	data := gin.H{"Title": "Complaint registered"}
	if id := c.Query("complaint_id"); id != "" {
		if complaint, err := h.complaints.Track(c.Request.Context(), id); err == nil {
			resp := complaint.ToResponse(time.Now())
			data["Complaint"] = &resp
		}
	}
	c.HTML(http.StatusOK, "success.html", data)
}

func toResponses(items []models.Complaint, now time.Time) []models.ComplaintResponse {
	out := make([]models.ComplaintResponse, 0, len(items))
	for i := range items {
		out = append(out, items[i].ToResponse(now))
	}
	return out
}

func trackingResponses(entries []models.ComplaintTracking) []models.ComplaintTrackingResponse {
	out := make([]models.ComplaintTrackingResponse, 0, len(entries))
	for i := range entries {
		out = append(out, entries[i].ToResponse())
	}
	return out
}
