package routes

import (
	"embed"
	"html/template"
	"strings"
	"time"

	"awazgram-server/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"formatTime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("02 Jan 2006, 15:04")
	},
	"formatTimePtr": func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.Format("02 Jan 2006, 15:04")
	},
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	"statusLabel": func(s models.ComplaintStatus) string { return s.Label() },
	"statusColor": func(s models.ComplaintStatus) string { return s.Color() },
	"upper":       strings.ToUpper,
}

func loadTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
}

func mustLoadTemplates() *template.Template {
	tmpl, err := loadTemplates()
	if err != nil {
		panic(err)
	}
	return tmpl
}

type categoryOption struct {
	Value string
	Label string
}

var complaintCategories = []categoryOption{
	{"road", "Road Issue"},
	{"water", "Water Supply"},
	{"electricity", "Electricity"},
	{"sanitation", "Sanitation"},
	{"other", "Other"},
}
