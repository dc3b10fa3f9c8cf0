package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/pos-api/internal/application/service"
	"github.com/sangkips/pos-api/internal/presentation/http/dto/request"
	"github.com/sangkips/pos-api/internal/presentation/http/dto/response"
	"github.com/sangkips/pos-api/pkg/apperror"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login handles user login
// @Summary Login
// @Description Authenticate with username and password and return tokens
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.LoginInput true "Login credentials"
// @Success 200 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginInput
	if !bindJSON(c, &req) {
		return
	}

	output, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Login successful", output)
}

// Register handles business sign-up
// @Summary Register
// @Description Create a business on a trial plan with its default branch and admin user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.RegisterInput true "Registration data"
// @Success 201 {object} response.APIResponse
// @Failure 400 {object} response.APIResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterInput
	if !bindJSON(c, &req) {
		return
	}

	output, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Registration successful", output)
}

// RefreshToken handles token refresh
// @Summary Refresh Token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body request.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req request.RefreshTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	output, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Token refreshed successfully", output)
}

// Me returns the caller's profile, business and resolved capabilities
func (h *AuthHandler) Me(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}

	profile, err := h.authService.Profile(c.Request.Context(), a)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Profile retrieved successfully", profile)
}

// ChangePassword handles password change for the caller
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	var req service.ChangePasswordInput
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), a, &req); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Password changed successfully", nil)
}

// ForgotPassword handles password reset requests
// @Summary Forgot Password
// @Description Email a one-hour reset link. Always succeeds.
// @Tags auth
// @Router /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req service.ForgotPasswordInput
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), &req); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "If an account with that email exists, a password reset link has been sent", nil)
}

// ResetPassword handles password reset with token
// @Summary Reset Password
// @Tags auth
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req service.ResetPasswordInput
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), &req); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Password has been reset successfully", nil)
}

// GoogleLogin redirects to the Google consent screen
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	authURL, err := h.authService.GoogleAuthURL()
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, authURL)
}

// GoogleCallback completes Google sign-in. With frontend URLs configured the
// tokens travel in the redirect fragment; otherwise they are returned as JSON.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	var q request.GoogleCallbackQuery
	if !bindQuery(c, &q) {
		return
	}
	successURL, failureURL := h.authService.GoogleRedirects()

	if q.Error != "" || q.Code == "" {
		h.googleFailure(c, failureURL, apperror.NewBadRequestError("Google sign-in was cancelled"))
		return
	}

	output, err := h.authService.GoogleLogin(c.Request.Context(), q.Code, q.State)
	if err != nil {
		h.googleFailure(c, failureURL, err)
		return
	}

	if successURL == "" {
		response.OK(c, "Login successful", output)
		return
	}
	fragment := url.Values{}
	fragment.Set("access_token", output.AccessToken)
	fragment.Set("refresh_token", output.RefreshToken)
	fragment.Set("token_type", output.TokenType)
	c.Redirect(http.StatusTemporaryRedirect, successURL+"#"+fragment.Encode())
}

func (h *AuthHandler) googleFailure(c *gin.Context, failureURL string, err error) {
	if failureURL == "" {
		response.Error(c, err)
		return
	}
	appErr := apperror.GetAppError(err)
	q := url.Values{}
	q.Set("error", appErr.Reason)
	q.Set("message", appErr.Message)
	c.Redirect(http.StatusTemporaryRedirect, failureURL+"?"+q.Encode())
}
