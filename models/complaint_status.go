package models

import "fmt"

// ComplaintStatus represents where a complaint is in its lifecycle
type ComplaintStatus string

const (
	StatusSubmitted   ComplaintStatus = "submitted"
	StatusVerified    ComplaintStatus = "verified"
	StatusResolved    ComplaintStatus = "resolved"
	StatusFeedback    ComplaintStatus = "feedback"
	StatusPerformance ComplaintStatus = "performance"
	StatusEscalation  ComplaintStatus = "escalation"
	StatusDashboard   ComplaintStatus = "dashboard"
)

// AllStatuses lists every status in display order.
var AllStatuses = []ComplaintStatus{
	StatusSubmitted,
	StatusVerified,
	StatusResolved,
	StatusFeedback,
	StatusPerformance,
	StatusEscalation,
	StatusDashboard,
}

var statusTransitions = map[ComplaintStatus][]ComplaintStatus{
	StatusSubmitted:   {StatusVerified, StatusEscalation},
	StatusVerified:    {StatusResolved, StatusEscalation},
	StatusResolved:    {StatusFeedback, StatusEscalation},
	StatusFeedback:    {StatusEscalation, StatusPerformance},
	StatusEscalation:  {StatusVerified, StatusResolved},
	StatusPerformance: {StatusDashboard},
	StatusDashboard:   {},
}

var statusLabels = map[ComplaintStatus][2]string{
	StatusSubmitted:   {"Submitted", "दर्ज"},
	StatusVerified:    {"Verified", "सत्यापित"},
	StatusResolved:    {"Resolved", "हल हुई"},
	StatusFeedback:    {"Feedback", "प्रतिक्रिया"},
	StatusPerformance: {"Performance", "प्रदर्शन"},
	StatusEscalation:  {"Escalation", "एस्केलेशन"},
	StatusDashboard:   {"Dashboard", "डैशबोर्ड"},
}

var statusColors = map[ComplaintStatus]string{
	StatusSubmitted:   "orange",
	StatusVerified:    "blue",
	StatusResolved:    "green",
	StatusFeedback:    "purple",
	StatusPerformance: "teal",
	StatusEscalation:  "red",
	StatusDashboard:   "gray",
}

// ParseComplaintStatus validates a raw status string.
func ParseComplaintStatus(s string) (ComplaintStatus, error) {
	status := ComplaintStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid complaint status: %q", s)
	}
	return status, nil
}

func (s ComplaintStatus) IsValid() bool {
	_, ok := statusTransitions[s]
	return ok
}

func (s ComplaintStatus) String() string {
	return string(s)
}

// CanTransitionTo reports whether next is a legal move from s. Staying put is not a transition.
func (s ComplaintStatus) CanTransitionTo(next ComplaintStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AllowedTransitions returns a copy of the legal targets from s.
func (s ComplaintStatus) AllowedTransitions() []ComplaintStatus {
	return append([]ComplaintStatus(nil), statusTransitions[s]...)
}

// Label returns the English display label.
func (s ComplaintStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l[0]
	}
	return string(s)
}

// LabelHindi returns the Hindi display label.
func (s ComplaintStatus) LabelHindi() string {
	if l, ok := statusLabels[s]; ok {
		return l[1]
	}
	return string(s)
}

// Color is the badge color used by the dashboards.
func (s ComplaintStatus) Color() string {
	if c, ok := statusColors[s]; ok {
		return c
	}
	return "gray"
}

// ComplaintFeedback is the villager's reaction once a complaint is resolved
type ComplaintFeedback string

const (
	FeedbackHappy   ComplaintFeedback = "happy"
	FeedbackNeutral ComplaintFeedback = "neutral"
	FeedbackAngry   ComplaintFeedback = "angry"
)

var AllFeedback = []ComplaintFeedback{FeedbackHappy, FeedbackNeutral, FeedbackAngry}

func ParseComplaintFeedback(s string) (ComplaintFeedback, error) {
	f := ComplaintFeedback(s)
	if !f.IsValid() {
		return "", fmt.Errorf("invalid feedback: %q", s)
	}
	return f, nil
}

func (f ComplaintFeedback) IsValid() bool {
	switch f {
	case FeedbackHappy, FeedbackNeutral, FeedbackAngry:
		return true
	default:
		return false
	}
}

func (f ComplaintFeedback) Label() string {
	switch f {
	case FeedbackHappy:
		return "🙂 Happy"
	case FeedbackNeutral:
		return "😐 Neutral"
	case FeedbackAngry:
		return "😡 Angry"
	default:
		return string(f)
	}
}
