package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"awazgram-server/config"
)

// IDGenerator produces human-readable complaint identifiers.
type IDGenerator interface {
	Generate(now time.Time) (string, error)
}

const idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DateIDGenerator builds ids like AWZ20250301K7Q2ZD: prefix, local date, 6 random characters.
type DateIDGenerator struct {
	Prefix   string
	Location *time.Location
	// SuffixLen defaults to 6.
	SuffixLen int
}

func (g *DateIDGenerator) Generate(now time.Time) (string, error) {
	loc := g.Location
	if loc == nil {
		loc = time.UTC
	}
	n := g.SuffixLen
	if n <= 0 {
		n = 6
	}

	suffix, err := randomString(n)
	if err != nil {
		return "", fmt.Errorf("generate complaint id: %w", err)
	}
	return g.Prefix + now.In(loc).Format("20060102") + suffix, nil
}

// UUIDIDGenerator builds ids like COMP_3F9A1C0B2E from a random UUID.
type UUIDIDGenerator struct {
	Prefix string
}

func (g *UUIDIDGenerator) Generate(time.Time) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate complaint id: %w", err)
	}
	hex := strings.ReplaceAll(id.String(), "-", "")
	return g.Prefix + strings.ToUpper(hex[:10]), nil
}

// NewIDGenerator selects the generator named by complaint.id_format.
func NewIDGenerator(cfg config.ComplaintConfig, loc *time.Location) (IDGenerator, error) {
	switch strings.ToLower(cfg.IDFormat) {
	case "", "date":
		prefix := cfg.IDPrefix
		if prefix == "" {
			prefix = "AWZ"
		}
		return &DateIDGenerator{Prefix: prefix, Location: loc}, nil
	case "uuid":
		return &UUIDIDGenerator{Prefix: "COMP_"}, nil
	default:
		return nil, fmt.Errorf("unknown complaint id format %q", cfg.IDFormat)
	}
}

func randomString(n int) (string, error) {
	max := big.NewInt(int64(len(idAlphabet)))
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(idAlphabet[idx.Int64()])
	}
	return sb.String(), nil
}
