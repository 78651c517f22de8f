package middleware

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"awazgram-server/models"
)

var registerOnce sync.Once

// RegisterValidators adds the complaint_status and complaint_feedback tags to gin's validator.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("complaint_status", func(fl validator.FieldLevel) bool {
			return models.ComplaintStatus(fl.Field().String()).IsValid()
		})
		_ = v.RegisterValidation("complaint_feedback", func(fl validator.FieldLevel) bool {
			return models.ComplaintFeedback(fl.Field().String()).IsValid()
		})
	})
}

// ValidationMessages turns binding errors into short user-facing messages.
func ValidationMessages(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{"Invalid request payload"}
	}

	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			out = append(out, fmt.Sprintf("%s is required", fe.Field()))
		case "complaint_status":
			out = append(out, fmt.Sprintf("%s is not a known status", fe.Field()))
		case "complaint_feedback":
			out = append(out, fmt.Sprintf("%s must be happy, neutral or angry", fe.Field()))
		case "min", "max":
			out = append(out, fmt.Sprintf("%s must be %s %s characters", fe.Field(), map[string]string{"min": "at least", "max": "at most"}[fe.Tag()], fe.Param()))
		case "email":
			out = append(out, fmt.Sprintf("%s must be a valid email address", fe.Field()))
		default:
			out = append(out, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return out
}
