package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"awazgram-server/apperrors"
	"awazgram-server/config"
)

// Folders used for complaint media.
const (
	FolderPhotos     = "complaint_photos"
	FolderVoiceNotes = "complaint_voice_notes"
	FolderQRCodes    = "complaint_qrcodes"
)

// MediaStore persists blobs and returns an opaque reference (URL or path) to them.
type MediaStore interface {
	Save(ctx context.Context, folder, name string, data []byte) (string, error)
}

// LocalMediaStore writes files under Root and serves them from URLPath.
type LocalMediaStore struct {
	Root    string
	URLPath string
}

func NewLocalMediaStore(root, urlPath string) *LocalMediaStore {
	return &LocalMediaStore{Root: root, URLPath: strings.TrimSuffix(urlPath, "/")}
}

func (s *LocalMediaStore) Save(_ context.Context, folder, name string, data []byte) (string, error) {
	folder = filepath.Base(filepath.Clean("/" + folder))
	name = filepath.Base(name)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("invalid media file name")
	}

	dir := filepath.Join(s.Root, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create media folder: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write media file: %w", err)
	}
	return path.Join(s.URLPath, folder, name), nil
}

// CloudinaryMediaStore uploads to a Cloudinary folder and returns the secure URL.
type CloudinaryMediaStore struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryMediaStore(cfg config.CloudinaryConfig) (*CloudinaryMediaStore, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary not configured")
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary initialization failed: %w", err)
	}
	return &CloudinaryMediaStore{cld: cld, folder: cfg.Folder}, nil
}

func (s *CloudinaryMediaStore) Save(ctx context.Context, folder, name string, data []byte) (string, error) {
	ow := true
	uf := false
	up, err := s.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		Folder:         path.Join(s.folder, folder),
		PublicID:       strings.TrimSuffix(name, filepath.Ext(name)),
		Overwrite:      &ow,
		UniqueFilename: &uf,
		ResourceType:   "auto",
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if up.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", up.Error.Message)
	}
	return up.SecureURL, nil
}

// NewMediaStore returns the backend named by media.backend.
func NewMediaStore(media config.MediaConfig, cld config.CloudinaryConfig) (MediaStore, error) {
	switch strings.ToLower(media.Backend) {
	case "", "local":
		return NewLocalMediaStore(media.Root, media.URLPath), nil
	case "cloudinary":
		return NewCloudinaryMediaStore(cld)
	default:
		return nil, fmt.Errorf("unknown media backend %q", media.Backend)
	}
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// DecodeImageData decodes a base64 image, with or without a data: URI header,
// and returns the bytes and a file extension matching the sniffed content type.
func DecodeImageData(raw string, maxBytes int64) ([]byte, string, error) {
	raw = strings.TrimSpace(raw)
	if i := strings.Index(raw, ";base64,"); strings.HasPrefix(raw, "data:") && i >= 0 {
		raw = raw[i+len(";base64,"):]
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		if data, err = base64.RawStdEncoding.DecodeString(raw); err != nil {
			return nil, "", apperrors.NewIntegrityError("Invalid image data", err.Error())
		}
	}
	if len(data) == 0 {
		return nil, "", apperrors.NewIntegrityError("Invalid image data", "empty image")
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, "", apperrors.NewValidationError("Image is too large")
	}

	ext, ok := imageExtensions[http.DetectContentType(data)]
	if !ok {
		return nil, "", apperrors.NewIntegrityError("Invalid image data", "unsupported image type")
	}
	return data, ext, nil
}
