package routes

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"awazgram-server/middleware"
	"awazgram-server/services"
)

// LoginRequest represents the admin login request
type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
	Next     string `json:"-" form:"next"`
}

// PasswordResetRequest sets a password with a one-time setup token
type PasswordResetRequest struct {
	Token       string `json:"token" form:"token" binding:"required"`
	NewPassword string `json:"new_password" form:"new_password" binding:"required,min=8"`
}

// RegisterAuthRoutes registers login, logout and password setup routes
func RegisterAuthRoutes(router *gin.Engine, h *Handler, limit gin.HandlerFunc) {
	router.GET("/login", h.loginPage)
	router.POST("/login", limit, h.login)
	router.POST("/logout", h.logout)
	router.GET("/password/reset", h.resetPasswordPage)
	router.POST("/password/reset", limit, h.resetPassword)
}

func (h *Handler) loginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{
		"Title":    "Login",
		"Next":     c.Query("next"),
		"Username": "",
	})
}

// login handles both the HTML form and JSON clients
func (h *Handler) login(c *gin.Context) {
	jsonReq := isJSONRequest(c)

	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		if jsonReq {
			h.respondBindError(c, err)
			return
		}
		h.renderLogin(c, http.StatusBadRequest, req, "Username and password are required")
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, services.ErrPasswordResetRequired) {
		if jsonReq {
			c.JSON(http.StatusOK, gin.H{
				"success":        false,
				"message":        "Please set your password with the setup code before logging in",
				"reset_required": true,
			})
			return
		}
		c.Redirect(http.StatusSeeOther, "/password/reset")
		return
	}
	if err != nil {
		if jsonReq {
			h.respondError(c, err)
			return
		}
		h.renderLogin(c, http.StatusUnauthorized, req, errorMessage(err))
		return
	}

	h.setSessionCookie(c, result.Token.AccessToken, int(result.Token.ExpiresIn))

	if !jsonReq {
		c.Redirect(http.StatusSeeOther, safeRedirect(req.Next))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Login successful",
		"token":      result.Token.AccessToken,
		"token_type": result.Token.TokenType,
		"expires_in": result.Token.ExpiresIn,
		"user": gin.H{
			"id":       result.User.ID,
			"username": result.User.Username,
			"email":    result.User.Email,
			"role":     result.User.Role,
		},
	})
}

func (h *Handler) renderLogin(c *gin.Context, status int, req LoginRequest, errMsg string) {
	c.HTML(status, "login.html", gin.H{
		"Title":    "Login",
		"Username": req.Username,
		"Next":     req.Next,
		"Error":    errMsg,
	})
}

// logout revokes the presented session, if any, and clears the cookie
func (h *Handler) logout(c *gin.Context) {
	if token := middleware.TokenFromRequest(c, h.cfg.JWT.CookieName); token != "" {
		if _, claims, err := h.auth.Authenticate(c.Request.Context(), token); err == nil {
			if err := h.auth.Logout(c.Request.Context(), claims); err != nil {
				h.respondError(c, err)
				return
			}
		}
	}
	h.setSessionCookie(c, "", -1)

	if middleware.WantsHTML(c) {
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logged out successfully",
	})
}

func (h *Handler) resetPasswordPage(c *gin.Context) {
	c.HTML(http.StatusOK, "reset_password.html", gin.H{
		"Title": "Set password",
		"Token": c.Query("token"),
	})
}

func (h *Handler) resetPassword(c *gin.Context) {
	jsonReq := isJSONRequest(c)

	var req PasswordResetRequest
	if err := c.ShouldBind(&req); err != nil {
		if jsonReq {
			h.respondBindError(c, err)
			return
		}
		c.HTML(http.StatusBadRequest, "reset_password.html", gin.H{
			"Title": "Set password",
			"Token": req.Token,
			"Error": "Setup code and a password of at least 8 characters are required",
		})
		return
	}

	if err := h.auth.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		if jsonReq {
			h.respondError(c, err)
			return
		}
		c.HTML(http.StatusBadRequest, "reset_password.html", gin.H{
			"Title": "Set password",
			"Token": req.Token,
			"Error": errorMessage(err),
		})
		return
	}

	if !jsonReq {
		c.HTML(http.StatusOK, "reset_password.html", gin.H{"Title": "Set password", "Done": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Password updated. You can now log in.",
	})
}

func (h *Handler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	secure := strings.HasPrefix(h.cfg.Server.BaseURL, "https://")
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.JWT.CookieName, value, maxAge, "/", "", secure, true)
}

// safeRedirect only follows local paths.
func safeRedirect(next string) string {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") && !strings.HasPrefix(next, "/\\") {
		return next
	}
	return "/admin/dashboard"
}
