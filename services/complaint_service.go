package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"awazgram-server/apperrors"
	"awazgram-server/config"
	"awazgram-server/database"
	"awazgram-server/logger"
	"awazgram-server/models"
	"awazgram-server/utils"
)

const (
	maxBulkComplaints = 100
	submittedNote     = "Complaint submitted"
)

// ComplaintService owns complaint creation, lookup and the status lifecycle.
// Every status change and its tracking entry are written in one transaction.
type ComplaintService struct {
	db          *gorm.DB
	ids         IDGenerator
	qr          *QREncoder
	media       MediaStore
	policy      AccessPolicy
	maxAttempts int
	now         func() time.Time
	log         *slog.Logger
}

func NewComplaintService(db *gorm.DB, ids IDGenerator, qr *QREncoder, media MediaStore, cfg config.ComplaintConfig) *ComplaintService {
	attempts := cfg.IDMaxAttempts
	if attempts <= 0 {
		attempts = 5
	}
	return &ComplaintService{
		db:          db,
		ids:         ids,
		qr:          qr,
		media:       media,
		maxAttempts: attempts,
		now:         time.Now,
		log:         logger.WithComponent("complaint_service"),
	}
}

// MediaUpload is an attachment already read into memory and validated by the caller.
type MediaUpload struct {
	Filename string
	Data     []byte
}

// SubmitInput is a public complaint submission.
type SubmitInput struct {
	models.ComplaintCreate
	Photo     *MediaUpload
	VoiceNote *MediaUpload
}

// StatusChange is an administrator's request to move a complaint.
type StatusChange struct {
	ComplaintID string `json:"complaint_id" binding:"required"`
	Status      string `json:"status" binding:"required"`
	Notes       string `json:"notes" binding:"max=2000"`
}

// TransitionResult describes what a lifecycle operation did.
type TransitionResult struct {
	Complaint *models.Complaint
	From      models.ComplaintStatus
	To        models.ComplaintStatus
	// Changed is false for a request that named the current status.
	Changed bool
	Entry   *models.ComplaintTracking
}

// Create validates and stores a submission, writes the first tracking entry and
// attaches a QR code. A failed QR encode leaves the complaint without one.
func (s *ComplaintService) Create(ctx context.Context, in SubmitInput) (*models.Complaint, error) {
	complaint, err := s.buildComplaint(in)
	if err != nil {
		return nil, err
	}

	if in.Photo != nil {
		url, err := s.saveMedia(ctx, FolderPhotos, in.Photo)
		if err != nil {
			return nil, err
		}
		complaint.PhotoURL = &url
	}
	if in.VoiceNote != nil {
		url, err := s.saveMedia(ctx, FolderVoiceNotes, in.VoiceNote)
		if err != nil {
			return nil, err
		}
		complaint.VoiceNoteURL = &url
	}

	if err := s.insertWithUniqueID(ctx, complaint); err != nil {
		return nil, err
	}

	s.attachQRCode(ctx, complaint)

	s.log.Info("complaint submitted",
		"complaint_id", complaint.ComplaintID,
		"location", complaint.Location,
		"has_photo", complaint.PhotoURL != nil,
		"has_voice_note", complaint.VoiceNoteURL != nil,
	)
	return complaint, nil
}

func (s *ComplaintService) buildComplaint(in SubmitInput) (*models.Complaint, error) {
	name := utils.SanitizeText(in.Name)
	location := utils.SanitizeText(in.Location)
	issue := utils.SanitizeText(in.Issue)

	var missing []string
	if name == "" {
		missing = append(missing, "name")
	}
	if location == "" {
		missing = append(missing, "location")
	}
	if issue == "" {
		missing = append(missing, "issue")
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("Name, location and issue are required", "missing: "+strings.Join(missing, ", "))
	}

	category := utils.SanitizeText(in.Category)
	switch {
	case len([]rune(name)) > 100:
		return nil, apperrors.NewValidationError("Name must be at most 100 characters")
	case len([]rune(location)) > 100:
		return nil, apperrors.NewValidationError("Location must be at most 100 characters")
	case len([]rune(category)) > 50:
		return nil, apperrors.NewValidationError("Category must be at most 50 characters")
	}

	return &models.Complaint{
		Name:        name,
		Location:    location,
		Category:    category,
		Issue:       issue,
		Description: utils.SanitizeText(in.Description),
		Status:      models.StatusSubmitted,
	}, nil
}

func (s *ComplaintService) saveMedia(ctx context.Context, folder string, m *MediaUpload) (string, error) {
	name := uuid.NewString() + strings.ToLower(filepath.Ext(m.Filename))
	url, err := s.media.Save(ctx, folder, name, m.Data)
	if err != nil {
		return "", apperrors.NewInternalError("Failed to store attachment", err)
	}
	return url, nil
}

// insertWithUniqueID retries with a fresh identifier when the insert hits the
// unique index on complaint_id, up to maxAttempts.
func (s *ComplaintService) insertWithUniqueID(ctx context.Context, complaint *models.Complaint) error {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		id, err := s.ids.Generate(s.now())
		if err != nil {
			return apperrors.NewInternalError("Failed to generate complaint id", err)
		}
		complaint.ID = 0
		complaint.ComplaintID = id

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(complaint).Error; err != nil {
				return err
			}
			return tx.Create(&models.ComplaintTracking{
				ComplaintID: complaint.ID,
				Status:      complaint.Status,
				Notes:       submittedNote,
			}).Error
		})
		if err == nil {
			return nil
		}
		if !database.IsDuplicateError(err) {
			return apperrors.NewInternalError("Failed to save complaint", err)
		}
		s.log.Warn("complaint id collision, retrying", "complaint_id", id, "attempt", attempt)
	}

	err := apperrors.NewConflictError("Could not allocate a unique complaint id, please try again")
	s.log.Error("complaint id allocation exhausted", "attempts", s.maxAttempts)
	return err
}

// attachQRCode encodes and persists the QR reference, logging instead of failing.
func (s *ComplaintService) attachQRCode(ctx context.Context, complaint *models.Complaint) {
	if s.qr == nil {
		return
	}
	attached, err := s.qr.Attach(ctx, complaint)
	if err != nil {
		s.log.Warn("qr code generation failed", "complaint_id", complaint.ComplaintID, "error", err)
		return
	}
	if !attached {
		return
	}

	res := s.db.WithContext(ctx).Model(&models.Complaint{}).
		Where("id = ? AND (qr_code_url IS NULL OR qr_code_url = '')", complaint.ID).
		Update("qr_code_url", *complaint.QRCodeURL)
	if res.Error != nil {
		s.log.Warn("failed to save qr code reference", "complaint_id", complaint.ComplaintID, "error", res.Error)
		complaint.QRCodeURL = nil
	}
}

// BackfillQRCodes attaches QR codes to up to limit complaints that have none.
func (s *ComplaintService) BackfillQRCodes(ctx context.Context, limit int) (int, error) {
	if s.qr == nil {
		return 0, nil
	}
	var pending []models.Complaint
	if err := s.db.WithContext(ctx).
		Where("qr_code_url IS NULL OR qr_code_url = ''").
		Order("id ASC").
		Limit(limit).
		Find(&pending).Error; err != nil {
		return 0, fmt.Errorf("find complaints without qr code: %w", err)
	}

	attached := 0
	for i := range pending {
		if err := ctx.Err(); err != nil {
			return attached, err
		}
		s.attachQRCode(ctx, &pending[i])
		if pending[i].HasQRCode() {
			attached++
		}
	}
	return attached, nil
}

// Track is the public lookup by complaint identifier. Entries are newest first.
func (s *ComplaintService) Track(ctx context.Context, complaintID string) (*models.Complaint, error) {
	complaintID = normalizeComplaintID(complaintID)
	if complaintID == "" {
		return nil, apperrors.NewValidationError("Complaint ID is required")
	}
	return s.loadWithTrackings(s.db.WithContext(ctx), complaintID)
}

func (s *ComplaintService) loadWithTrackings(db *gorm.DB, complaintID string) (*models.Complaint, error) {
	var complaint models.Complaint
	err := db.
		Preload("Trackings", func(db *gorm.DB) *gorm.DB {
			return db.Order("updated_at DESC, id DESC")
		}).
		Preload("Trackings.UpdatedBy").
		Where("complaint_id = ?", complaintID).
		First(&complaint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundError("Complaint not found", complaintID)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load complaint", err)
	}
	return &complaint, nil
}

// GetForAdmin loads a complaint with its ledger after checking the village scope.
func (s *ComplaintService) GetForAdmin(ctx context.Context, actor *Actor, complaintID string) (*models.Complaint, error) {
	complaint, err := s.loadWithTrackings(s.db.WithContext(ctx).Preload("AssignedStaff.User"), normalizeComplaintID(complaintID))
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(actor, complaint); err != nil {
		return nil, err
	}
	return complaint, nil
}

// ChangeStatus moves a complaint through the lifecycle on behalf of actor.
func (s *ComplaintService) ChangeStatus(ctx context.Context, actor *Actor, req StatusChange) (*TransitionResult, error) {
	to, err := models.ParseComplaintStatus(strings.TrimSpace(req.Status))
	if err != nil {
		return nil, apperrors.NewValidationError("Unknown status", req.Status)
	}
	complaintID := normalizeComplaintID(req.ComplaintID)
	if complaintID == "" {
		return nil, apperrors.NewValidationError("Complaint ID is required")
	}
	notes := utils.SanitizeText(req.Notes)

	var result *TransitionResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		complaint, err := lockComplaint(tx, complaintID)
		if err != nil {
			return err
		}
		if err := s.policy.Authorize(actor, complaint); err != nil {
			return err
		}

		result, err = s.transition(tx, complaint, to, notes, actor.UserID())
		return err
	})
	if err != nil {
		return nil, err
	}

	if result.Changed {
		s.log.Info("complaint status changed",
			"complaint_id", result.Complaint.ComplaintID,
			"from", result.From,
			"to", result.To,
			"user_id", actor.User.ID,
		)
	}
	return result, nil
}

// transition applies one checked status move inside tx. Same-status requests are no-ops.
// The update only matches while the row still holds from, and the phase column
// is written with COALESCE so a timestamp that is already set survives.
func (s *ComplaintService) transition(tx *gorm.DB, complaint *models.Complaint, to models.ComplaintStatus, notes string, actorID *uint) (*TransitionResult, error) {
	from := complaint.Status
	result := &TransitionResult{Complaint: complaint, From: from, To: to}
	if from == to {
		return result, nil
	}
	if !from.CanTransitionTo(to) {
		return nil, apperrors.NewValidationError("Invalid status transition", fmt.Sprintf("%s -> %s", from, to))
	}

	now := s.now()
	updates := map[string]interface{}{
		"status":     string(to),
		"updated_at": now,
	}
	if col := to.PhaseColumn(); col != "" {
		updates[col] = gorm.Expr("COALESCE("+col+", ?)", now)
	}

	res := tx.Model(&models.Complaint{}).
		Where("id = ? AND status = ?", complaint.ID, string(from)).
		Updates(updates)
	if res.Error != nil {
		return nil, apperrors.NewInternalError("Failed to update complaint", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.NewConflictError("Complaint was changed by someone else, please reload and try again")
	}
	if err := tx.First(complaint, complaint.ID).Error; err != nil {
		return nil, apperrors.NewInternalError("Failed to reload complaint", err)
	}

	entry := &models.ComplaintTracking{
		ComplaintID: complaint.ID,
		FromStatus:  from,
		Status:      to,
		Notes:       notes,
		UpdatedByID: actorID,
		UpdatedAt:   now,
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, apperrors.NewInternalError("Failed to record status change", err)
	}

	result.Changed = true
	result.Entry = entry
	return result, nil
}

// BulkResult is the outcome for one complaint of a bulk status change.
type BulkResult struct {
	ComplaintID string `json:"complaint_id"`
	Success     bool   `json:"success"`
	Changed     bool   `json:"changed"`
	Message     string `json:"message,omitempty"`
}

// BulkTransition applies the same change to each complaint in its own transaction.
func (s *ComplaintService) BulkTransition(ctx context.Context, actor *Actor, complaintIDs []string, status, notes string) ([]BulkResult, error) {
	if len(complaintIDs) == 0 {
		return nil, apperrors.NewValidationError("No complaints selected")
	}
	if len(complaintIDs) > maxBulkComplaints {
		return nil, apperrors.NewValidationError(fmt.Sprintf("At most %d complaints per request", maxBulkComplaints))
	}
	if _, err := models.ParseComplaintStatus(strings.TrimSpace(status)); err != nil {
		return nil, apperrors.NewValidationError("Unknown status", status)
	}

	results := make([]BulkResult, 0, len(complaintIDs))
	for _, id := range complaintIDs {
		res, err := s.ChangeStatus(ctx, actor, StatusChange{ComplaintID: id, Status: status, Notes: notes})
		if err != nil {
			msg := err.Error()
			if appErr := apperrors.GetAppError(err); appErr != nil {
				msg = appErr.Message
			}
			results = append(results, BulkResult{ComplaintID: id, Message: msg})
			continue
		}
		results = append(results, BulkResult{ComplaintID: id, Success: true, Changed: res.Changed})
	}
	return results, nil
}

// AttachFeedback records the villager's reaction. A nil actor is the public
// tracking page and skips the village check. A resolved complaint moves to
// feedback with a ledger entry; one already in feedback only has its value replaced.
func (s *ComplaintService) AttachFeedback(ctx context.Context, actor *Actor, complaintID, feedback string) (*TransitionResult, error) {
	fb, err := models.ParseComplaintFeedback(strings.ToLower(strings.TrimSpace(feedback)))
	if err != nil {
		return nil, apperrors.NewValidationError("Feedback must be happy, neutral or angry")
	}
	complaintID = normalizeComplaintID(complaintID)
	if complaintID == "" {
		return nil, apperrors.NewValidationError("Complaint ID is required")
	}

	var result *TransitionResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		complaint, err := lockComplaint(tx, complaintID)
		if err != nil {
			return err
		}
		if actor != nil {
			if err := s.policy.Authorize(actor, complaint); err != nil {
				return err
			}
		}
		if complaint.Status != models.StatusResolved && complaint.Status != models.StatusFeedback {
			return apperrors.NewValidationError("Feedback can only be given once the complaint is resolved")
		}

		complaint.Feedback = &fb
		if err := tx.Model(complaint).Update("feedback", string(fb)).Error; err != nil {
			return apperrors.NewInternalError("Failed to save feedback", err)
		}

		result, err = s.transition(tx, complaint, models.StatusFeedback, "Feedback received: "+string(fb), actor.UserID())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("complaint feedback received", "complaint_id", complaintID, "feedback", fb)
	return result, nil
}

// HandlingUpdate changes who handles a complaint and its performance markers.
// Nil fields are left alone; a StaffID of 0 clears the assignment.
type HandlingUpdate struct {
	ComplaintID string
	StaffID     *uint
	EscalatedTo *string
	SLABreached *bool
	TrustBadge  *bool
	Notes       string
}

// UpdateHandling applies h within actor's village. Assigned staff must work for
// an administrator of the complaint's village. Any change is written to the
// ledger as an entry that keeps the current status.
func (s *ComplaintService) UpdateHandling(ctx context.Context, actor *Actor, h HandlingUpdate) (*TransitionResult, error) {
	complaintID := normalizeComplaintID(h.ComplaintID)
	if complaintID == "" {
		return nil, apperrors.NewValidationError("Complaint ID is required")
	}
	var escalatedTo string
	if h.EscalatedTo != nil {
		escalatedTo = utils.SanitizeText(*h.EscalatedTo)
		if len([]rune(escalatedTo)) > 100 {
			return nil, apperrors.NewValidationError("Escalation contact must be at most 100 characters")
		}
	}

	var result *TransitionResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		complaint, err := lockComplaint(tx, complaintID)
		if err != nil {
			return err
		}
		if err := s.policy.Authorize(actor, complaint); err != nil {
			return err
		}

		updates := map[string]interface{}{}
		var changes []string

		if h.StaffID != nil {
			switch {
			case *h.StaffID == 0 && complaint.AssignedStaffID != nil:
				updates["assigned_staff_id"] = nil
				changes = append(changes, "Unassigned")
			case *h.StaffID != 0 && (complaint.AssignedStaffID == nil || *complaint.AssignedStaffID != *h.StaffID):
				staff, err := s.assignableStaff(tx, actor, complaint, *h.StaffID)
				if err != nil {
					return err
				}
				updates["assigned_staff_id"] = staff.ID
				changes = append(changes, "Assigned to "+staff.User.Username)
			}
		}
		if h.EscalatedTo != nil && escalatedTo != complaint.EscalatedTo {
			updates["escalated_to"] = escalatedTo
			if escalatedTo == "" {
				changes = append(changes, "Escalation contact cleared")
			} else {
				changes = append(changes, "Escalated to "+escalatedTo)
			}
		}
		if h.SLABreached != nil && *h.SLABreached != complaint.SLABreached {
			updates["sla_breached"] = *h.SLABreached
			changes = append(changes, markerNote(*h.SLABreached, "SLA breached", "SLA breach cleared"))
		}
		if h.TrustBadge != nil && *h.TrustBadge != complaint.TrustBadge {
			updates["trust_badge"] = *h.TrustBadge
			changes = append(changes, markerNote(*h.TrustBadge, "Trust badge awarded", "Trust badge removed"))
		}

		result = &TransitionResult{Complaint: complaint, From: complaint.Status, To: complaint.Status}
		if len(changes) == 0 {
			return nil
		}

		now := s.now()
		updates["updated_at"] = now
		if err := tx.Model(&models.Complaint{}).Where("id = ?", complaint.ID).Updates(updates).Error; err != nil {
			return apperrors.NewInternalError("Failed to update complaint", err)
		}

		notes := strings.Join(changes, "; ")
		if extra := utils.SanitizeText(h.Notes); extra != "" {
			notes += ": " + extra
		}
		entry := &models.ComplaintTracking{
			ComplaintID: complaint.ID,
			FromStatus:  complaint.Status,
			Status:      complaint.Status,
			Notes:       notes,
			UpdatedByID: actor.UserID(),
			UpdatedAt:   now,
		}
		if err := tx.Create(entry).Error; err != nil {
			return apperrors.NewInternalError("Failed to record handling change", err)
		}

		if err := tx.Preload("AssignedStaff.User").First(complaint, complaint.ID).Error; err != nil {
			return apperrors.NewInternalError("Failed to reload complaint", err)
		}
		result.Changed = true
		result.Entry = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Changed {
		s.log.Info("complaint handling updated",
			"complaint_id", result.Complaint.ComplaintID,
			"notes", result.Entry.Notes,
			"user_id", actor.User.ID,
		)
	}
	return result, nil
}

func (s *ComplaintService) assignableStaff(tx *gorm.DB, actor *Actor, complaint *models.Complaint, staffID uint) (*models.StaffMember, error) {
	var staff models.StaffMember
	err := tx.Preload("User").Preload("AdminProfile").First(&staff, staffID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundError("Staff member not found")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load staff member", err)
	}
	if !staff.IsActive || !staff.User.IsActive {
		return nil, apperrors.NewValidationError("Staff member is not active")
	}
	if !actor.IsSuperuser() && (staff.AdminProfile == nil || !strings.EqualFold(staff.AdminProfile.VillageName, complaint.Location)) {
		return nil, apperrors.NewAuthorizationError("Staff member works in another village")
	}
	return &staff, nil
}

func markerNote(set bool, on, off string) string {
	if set {
		return on
	}
	return off
}

// ListFilter narrows the admin complaint list. Search matches the id, name,
// location, issue and description. CreatedTo is exclusive.
type ListFilter struct {
	Status      string
	Search      string
	Location    string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Page        int
	Limit       int
}

// ComplaintPage is one page of the admin complaint list.
type ComplaintPage struct {
	Items []models.Complaint
	Total int64
	Page  int
	Limit int
}

// ListForAdmin returns the complaints in actor's village, newest first.
func (s *ComplaintService) ListForAdmin(ctx context.Context, actor *Actor, f ListFilter) (*ComplaintPage, error) {
	q, err := s.policy.Scope(s.db.WithContext(ctx).Model(&models.Complaint{}), actor)
	if err != nil {
		return nil, err
	}
	if f.Status != "" {
		status, err := models.ParseComplaintStatus(f.Status)
		if err != nil {
			return nil, apperrors.NewValidationError("Unknown status", f.Status)
		}
		q = q.Where("status = ?", string(status))
	}
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		like := "%" + term + "%"
		q = q.Where("(LOWER(complaint_id) LIKE ? OR LOWER(name) LIKE ? OR LOWER(location) LIKE ? OR LOWER(issue) LIKE ? OR LOWER(description) LIKE ?)",
			like, like, like, like, like)
	}
	if loc := strings.TrimSpace(f.Location); loc != "" {
		q = q.Where("LOWER(location) = LOWER(?)", loc)
	}
	if f.CreatedFrom != nil {
		q = q.Where("created_at >= ?", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		q = q.Where("created_at < ?", *f.CreatedTo)
	}
	q = q.Session(&gorm.Session{})

	page, limit := utils.NormalizePage(f.Page, f.Limit)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, apperrors.NewInternalError("Failed to count complaints", err)
	}

	var items []models.Complaint
	if err := q.Preload("AssignedStaff.User").
		Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, apperrors.NewInternalError("Failed to list complaints", err)
	}

	return &ComplaintPage{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// lockComplaint reads the row FOR UPDATE so concurrent changes to one complaint
// run one after another. SQLite ignores the clause and serializes writers itself.
func lockComplaint(tx *gorm.DB, complaintID string) (*models.Complaint, error) {
	var complaint models.Complaint
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("complaint_id = ?", complaintID).
		First(&complaint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundError("Complaint not found", complaintID)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load complaint", err)
	}
	return &complaint, nil
}

// normalizeComplaintID accepts ids typed in lower case; generated ids are upper case.
func normalizeComplaintID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
