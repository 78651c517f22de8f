package routes

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"awazgram-server/apperrors"
	"awazgram-server/models"
	"awazgram-server/services"
)

// RegisterComplaintRoutes registers the public complaint API
func RegisterComplaintRoutes(router *gin.Engine, h *Handler, limit gin.HandlerFunc) {
	router.POST("/complaint", limit, h.submitComplaint)

	api := router.Group("/api")
	{
		api.GET("/complaints/:complaint_id/track", h.trackComplaint)
		api.POST("/complaints/feedback", limit, h.submitFeedback)
		api.GET("/statistics", h.getStatistics)
	}
}

var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var audioExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".ogg":  true,
	".oga":  true,
	".m4a":  true,
	".aac":  true,
	".webm": true,
	".amr":  true,
	".3gp":  true,
}

// submitComplaint accepts the report form (urlencoded or multipart) and JSON clients
func (h *Handler) submitComplaint(c *gin.Context) {
	if isJSONRequest(c) {
		h.submitComplaintJSON(c)
		return
	}

	var form models.ComplaintCreate
	if err := c.ShouldBind(&form); err != nil {
		h.renderReportForm(c, http.StatusBadRequest, form, "Invalid form submission")
		return
	}

	in := services.SubmitInput{ComplaintCreate: form}
	var err error
	if in.Photo, err = h.readUpload(c, "photo", validateImageFile); err != nil {
		h.renderReportForm(c, http.StatusBadRequest, form, errorMessage(err))
		return
	}
	if in.VoiceNote, err = h.readUpload(c, "voice_note", validateAudioFile); err != nil {
		h.renderReportForm(c, http.StatusBadRequest, form, errorMessage(err))
		return
	}

	complaint, err := h.complaints.Create(c.Request.Context(), in)
	if err != nil {
		status := http.StatusBadRequest
		if appErr := apperrors.GetAppError(err); appErr != nil {
			status = appErr.Code
		} else {
			status = http.StatusInternalServerError
		}
		if status >= http.StatusInternalServerError {
			h.log.Error("complaint submission failed", "error", err)
		}
		h.renderReportForm(c, status, form, errorMessage(err))
		return
	}

	resp := complaint.ToResponse(time.Now())
	c.HTML(http.StatusCreated, "success.html", gin.H{
		"Title":     "Complaint registered",
		"Complaint": &resp,
	})
}

func (h *Handler) submitComplaintJSON(c *gin.Context) {
	var req models.ComplaintCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	in := services.SubmitInput{ComplaintCreate: req}
	if strings.TrimSpace(req.PhotoBase64) != "" {
		data, ext, err := services.DecodeImageData(req.PhotoBase64, h.cfg.Media.MaxBytes)
		if err != nil {
			h.respondError(c, err)
			return
		}
		in.Photo = &services.MediaUpload{Filename: "photo" + ext, Data: data}
	}

	complaint, err := h.complaints.Create(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":      true,
		"message":      "Complaint submitted successfully",
		"complaint_id": complaint.ComplaintID,
		"data":         complaint.ToResponse(time.Now()),
	})
}

type uploadValidator func(fh *multipart.FileHeader, data []byte) (string, error)

// readUpload returns nil when the request carries no file for field.
func (h *Handler) readUpload(c *gin.Context, field string, validate uploadValidator) (*services.MediaUpload, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		return nil, nil
	}
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewValidationError("Could not read uploaded file", err.Error())
	}

	maxBytes := h.cfg.Media.MaxBytes
	if maxBytes > 0 && fh.Size > maxBytes {
		return nil, apperrors.NewValidationError(fmt.Sprintf("File must be at most %d MB", maxBytes>>20))
	}

	f, err := fh.Open()
	if err != nil {
		return nil, apperrors.NewValidationError("Could not read uploaded file", err.Error())
	}
	defer f.Close()

	reader := io.Reader(f)
	if maxBytes > 0 {
		reader = io.LimitReader(f, maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, apperrors.NewValidationError("Could not read uploaded file", err.Error())
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, apperrors.NewValidationError(fmt.Sprintf("File must be at most %d MB", maxBytes>>20))
	}
	if len(data) == 0 {
		return nil, nil
	}

	ext, err := validate(fh, data)
	if err != nil {
		return nil, err
	}
	return &services.MediaUpload{Filename: field + ext, Data: data}, nil
}

// validateImageFile accepts JPEG, PNG, GIF and WebP by content
func validateImageFile(_ *multipart.FileHeader, data []byte) (string, error) {
	ext, ok := imageTypes[http.DetectContentType(data)]
	if !ok {
		return "", apperrors.NewValidationError("Photo must be a JPEG, PNG, GIF or WebP image")
	}
	return ext, nil
}

// validateAudioFile accepts common phone recording formats by extension and rejects text and images
func validateAudioFile(fh *multipart.FileHeader, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	sniffed := http.DetectContentType(data)
	if !audioExtensions[ext] || strings.HasPrefix(sniffed, "text/") || strings.HasPrefix(sniffed, "image/") {
		return "", apperrors.NewValidationError("Voice note must be an audio recording")
	}
	return ext, nil
}

// trackComplaint returns the complaint and its history, newest entry first
func (h *Handler) trackComplaint(c *gin.Context) {
	complaint, err := h.complaints.Track(c.Request.Context(), c.Param("complaint_id"))
	if err != nil {
		if apperrors.IsNotFoundError(err) || apperrors.IsValidationError(err) {
			c.JSON(http.StatusOK, gin.H{
				"success": false,
				"message": "Complaint not found",
				"error":   apperrors.ErrorTypeNotFound,
			})
			return
		}
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"data":      complaint.ToResponse(time.Now()),
		"trackings": trackingResponses(complaint.Trackings),
	})
}

type feedbackRequest struct {
	ComplaintID string `json:"complaint_id" form:"complaint_id" binding:"required"`
	Feedback    string `json:"feedback" form:"feedback" binding:"required,complaint_feedback"`
}

// submitFeedback records the villager's reaction from the tracking page
func (h *Handler) submitFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBind(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	result, err := h.complaints.AttachFeedback(c.Request.Context(), nil, req.ComplaintID, req.Feedback)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if !isJSONRequest(c) {
		c.Redirect(http.StatusSeeOther, "/trackcomplaint?complaint_id="+result.Complaint.ComplaintID)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Thank you for your feedback",
		"data":    result.Complaint.ToResponse(time.Now()),
	})
}

// getStatistics returns the public counters shown on the landing page
func (h *Handler) getStatistics(c *gin.Context) {
	stats, err := h.stats.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"total":           stats.Total,
		"submitted":       stats.ByStatus[models.StatusSubmitted],
		"verified":        stats.ByStatus[models.StatusVerified],
		"resolved":        stats.Resolved,
		"resolution_rate": stats.ResolutionRate,
		"by_status":       stats.ByStatus,
		"feedback":        stats.Feedback,
	})
}
