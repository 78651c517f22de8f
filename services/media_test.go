package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"awazgram-server/apperrors"
	"awazgram-server/config"
	"awazgram-server/models"
)

func TestQRPayload_TruncatesIssue(t *testing.T) {
	c := &models.Complaint{
		ComplaintID: "AWZ20250301ABC123",
		Name:        "Ram",
		Location:    "Rampur",
		Issue:       strings.Repeat("पा", 80),
	}

	payload := QRPayload(c)

	assert.True(t, strings.HasPrefix(payload, "Complaint ID: AWZ20250301ABC123\nName: Ram\nLocation: Rampur\nIssue: "))
	issue := strings.TrimPrefix(payload[strings.Index(payload, "Issue: "):], "Issue: ")
	assert.Equal(t, 100, len([]rune(issue)))
}

func TestQREncoder_EncodeProducesPNG(t *testing.T) {
	enc := NewQREncoder(nil, 256)

	data, err := enc.Encode(&models.Complaint{ComplaintID: "AWZ20250301ABC123", Name: "Ram", Location: "Rampur", Issue: "No water"})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
}

func TestQREncoder_AttachIsIdempotent(t *testing.T) {
	store := NewLocalMediaStore(t.TempDir(), "/media")
	enc := NewQREncoder(store, 128)
	c := &models.Complaint{ComplaintID: "AWZ20250301ABC123", Name: "Ram", Location: "Rampur", Issue: "No water"}

	attached, err := enc.Attach(context.Background(), c)
	require.NoError(t, err)
	assert.True(t, attached)
	require.NotNil(t, c.QRCodeURL)
	assert.Equal(t, "/media/complaint_qrcodes/AWZ20250301ABC123.png", *c.QRCodeURL)

	_, err = os.Stat(filepath.Join(store.Root, FolderQRCodes, "AWZ20250301ABC123.png"))
	assert.NoError(t, err)

	attached, err = enc.Attach(context.Background(), c)
	require.NoError(t, err)
	assert.False(t, attached)
}

func TestLocalMediaStore_ConfinesPaths(t *testing.T) {
	root := t.TempDir()
	store := NewLocalMediaStore(root, "/media/")

	url, err := store.Save(context.Background(), "../../etc", "../passwd", []byte("x"))
	require.NoError(t, err)

	assert.Equal(t, "/media/etc/passwd", url)
	_, err = os.Stat(filepath.Join(root, "etc", "passwd"))
	assert.NoError(t, err)
}

func TestNewMediaStore(t *testing.T) {
	store, err := NewMediaStore(config.MediaConfig{Backend: "local", Root: t.TempDir(), URLPath: "/media"}, config.CloudinaryConfig{})
	require.NoError(t, err)
	assert.IsType(t, &LocalMediaStore{}, store)

	_, err = NewMediaStore(config.MediaConfig{Backend: "cloudinary"}, config.CloudinaryConfig{})
	assert.Error(t, err)

	store, err = NewMediaStore(config.MediaConfig{Backend: "cloudinary"}, config.CloudinaryConfig{CloudName: "demo", APIKey: "key", APISecret: "secret"})
	require.NoError(t, err)
	assert.IsType(t, &CloudinaryMediaStore{}, store)

	_, err = NewMediaStore(config.MediaConfig{Backend: "s3"}, config.CloudinaryConfig{})
	assert.Error(t, err)
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func TestDecodeImageData(t *testing.T) {
	raw := tinyPNG(t)
	encoded := base64.StdEncoding.EncodeToString(raw)

	data, ext, err := DecodeImageData("data:image/png;base64,"+encoded, 1<<20)
	require.NoError(t, err)
	assert.Equal(t, raw, data)
	assert.Equal(t, ".png", ext)

	_, ext, err = DecodeImageData(encoded, 1<<20)
	require.NoError(t, err)
	assert.Equal(t, ".png", ext)

	_, _, err = DecodeImageData("not base64!!", 1<<20)
	assert.True(t, apperrors.IsIntegrityError(err))

	_, _, err = DecodeImageData(base64.StdEncoding.EncodeToString([]byte("plain text, not an image")), 1<<20)
	assert.True(t, apperrors.IsIntegrityError(err))

	_, _, err = DecodeImageData(encoded, 10)
	assert.True(t, apperrors.IsValidationError(err))
}
