package utils

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100
)

// NormalizePage applies the list defaults: page 1, limit 50, limit at most 100.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}
