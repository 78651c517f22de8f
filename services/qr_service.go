package services

import (
	"context"
	"fmt"

	"github.com/skip2/go-qrcode"

	"awazgram-server/models"
)

const qrIssueExcerpt = 100

// QREncoder renders the complaint summary as a PNG QR code and stores it.
type QREncoder struct {
	store MediaStore
	size  int
}

func NewQREncoder(store MediaStore, size int) *QREncoder {
	if size <= 0 {
		size = 256
	}
	return &QREncoder{store: store, size: size}
}

// QRPayload is the text encoded into a complaint's QR code.
func QRPayload(c *models.Complaint) string {
	issue := []rune(c.Issue)
	if len(issue) > qrIssueExcerpt {
		issue = issue[:qrIssueExcerpt]
	}
	return fmt.Sprintf("Complaint ID: %s\nName: %s\nLocation: %s\nIssue: %s",
		c.ComplaintID, c.Name, c.Location, string(issue))
}

// Encode returns the PNG bytes without storing them.
func (q *QREncoder) Encode(c *models.Complaint) ([]byte, error) {
	png, err := qrcode.Encode(QRPayload(c), qrcode.Medium, q.size)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}

// Attach sets c.QRCodeURL when it is empty. It reports whether a code was attached;
// a complaint that already has one is left alone.
func (q *QREncoder) Attach(ctx context.Context, c *models.Complaint) (bool, error) {
	if c.HasQRCode() {
		return false, nil
	}
	if c.ComplaintID == "" {
		return false, fmt.Errorf("complaint has no id yet")
	}

	png, err := q.Encode(c)
	if err != nil {
		return false, err
	}

	url, err := q.store.Save(ctx, FolderQRCodes, c.ComplaintID+".png", png)
	if err != nil {
		return false, fmt.Errorf("store qr code: %w", err)
	}
	c.QRCodeURL = &url
	return true, nil
}
