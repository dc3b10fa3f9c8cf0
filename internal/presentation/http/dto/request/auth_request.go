package request

// RefreshTokenRequest represents a token refresh request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// GoogleCallbackQuery carries the OAuth redirect parameters
type GoogleCallbackQuery struct {
	Code  string `form:"code"`
	State string `form:"state"`
	Error string `form:"error"`
}
