package routes

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"awazgram-server/apperrors"
	"awazgram-server/middleware"
)

// respondError writes err using the {success:false, message} envelope.
// Business-rule failures are reported with 200 and an error type; only
// unauthenticated requests and unexpected errors keep their HTTP status.
// A browser denied by the village policy is sent to the login page.
func (h *Handler) respondError(c *gin.Context, err error) {
	appErr := apperrors.GetAppError(err)
	if appErr == nil {
		appErr = apperrors.NewInternalError("Internal server error", err)
	}

	if appErr.Code >= http.StatusInternalServerError {
		h.log.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		_ = c.Error(err)
		c.JSON(appErr.Code, gin.H{
			"success": false,
			"message": "Something went wrong. Please try again later.",
		})
		return
	}

	if appErr.Type == apperrors.ErrorTypeAuthorization && middleware.WantsHTML(c) {
		c.Redirect(http.StatusFound, loginRedirect(c))
		return
	}

	status := http.StatusOK
	if appErr.Type == apperrors.ErrorTypeUnauthorized {
		status = http.StatusUnauthorized
	}
	body := gin.H{
		"success": false,
		"message": appErr.Message,
		"error":   appErr.Type,
	}
	if appErr.Details != "" {
		body["details"] = appErr.Details
	}
	if appErr.Retryable {
		body["retryable"] = true
	}
	c.JSON(status, body)
}

// respondBindError reports a request body that failed to bind or validate.
func (h *Handler) respondBindError(c *gin.Context, err error) {
	messages := middleware.ValidationMessages(err)
	c.JSON(http.StatusOK, gin.H{
		"success": false,
		"message": strings.Join(messages, "; "),
		"error":   apperrors.ErrorTypeValidation,
	})
}

func loginRedirect(c *gin.Context) string {
	return "/login?next=" + url.QueryEscape(c.Request.URL.RequestURI())
}

// errorMessage is the text shown on an HTML page for err.
func errorMessage(err error) string {
	if appErr := apperrors.GetAppError(err); appErr != nil && appErr.Code < http.StatusInternalServerError {
		return appErr.Message
	}
	return "Something went wrong. Please try again later."
}

func isJSONRequest(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "application/json")
}
