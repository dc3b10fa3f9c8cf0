package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/actor"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/sangkips/pos-api/internal/domain/repository"
	"github.com/sangkips/pos-api/internal/infrastructure/database"
	"github.com/sangkips/pos-api/pkg/apperror"
	"github.com/sangkips/pos-api/pkg/oauth"
	"github.com/sangkips/pos-api/pkg/utils"
	"github.com/sangkips/pos-api/pkg/validation"
)

const resetTokenTTL = time.Hour

// AuthService handles authentication-related operations
type AuthService struct {
	tx                repository.Transactor
	businessRepo      repository.BusinessRepository
	branchRepo        repository.BranchRepository
	userRepo          repository.UserRepository
	passwordResetRepo repository.PasswordResetTokenRepository
	jwtManager        *utils.JWTManager
	mailer            Mailer
	google            oauth.Authenticator
	stateSecret       []byte
	trialDays         int
}

// NewAuthService creates a new auth service
func NewAuthService(
	tx repository.Transactor,
	businessRepo repository.BusinessRepository,
	branchRepo repository.BranchRepository,
	userRepo repository.UserRepository,
	passwordResetRepo repository.PasswordResetTokenRepository,
	jwtManager *utils.JWTManager,
	mailer Mailer,
	google oauth.Authenticator,
	stateSecret string,
	trialDays int,
) *AuthService {
	if trialDays <= 0 {
		trialDays = 30
	}
	return &AuthService{
		tx:                tx,
		businessRepo:      businessRepo,
		branchRepo:        branchRepo,
		userRepo:          userRepo,
		passwordResetRepo: passwordResetRepo,
		jwtManager:        jwtManager,
		mailer:            mailer,
		google:            google,
		stateSecret:       []byte(stateSecret),
		trialDays:         trialDays,
	}
}

// LoginInput represents the login input
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is returned by every operation that signs a user in.
type AuthResult struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	TokenType    string           `json:"token_type"`
	ExpiresIn    int64            `json:"expires_in"`
	User         *entity.User     `json:"user"`
	Business     *entity.Business `json:"business"`
	Capabilities []string         `json:"capabilities"`
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResult, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(input.Username))
	if err != nil {
		return nil, err
	}
	if user == nil || !utils.CheckPassword(user.Password, input.Password) || !user.IsActive() {
		return nil, apperror.ErrInvalidCredentials
	}

	business, err := s.checkBusinessAccess(ctx, user.BusinessID)
	if err != nil {
		return nil, err
	}

	now := timeNow()
	if err := s.userRepo.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLogin = &now

	return s.issueTokens(user, business)
}

// checkBusinessAccess loads the business and rejects sign-in when it is
// disabled or its subscription has lapsed. A lapsed expiry is persisted as
// an inactive subscription.
func (s *AuthService) checkBusinessAccess(ctx context.Context, businessID uuid.UUID) (*entity.Business, error) {
	business, err := s.businessRepo.GetByID(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if business == nil || !business.IsActive() {
		return nil, apperror.ErrBusinessInactive
	}

	now := timeNow()
	if business.SubscriptionExpiry != nil && now.After(*business.SubscriptionExpiry) {
		if business.SubscriptionStatus != enum.SubscriptionInactive {
			business.SubscriptionStatus = enum.SubscriptionInactive
			if err := s.businessRepo.Update(ctx, business); err != nil {
				return nil, err
			}
		}
		return nil, apperror.ErrSubscriptionExpired
	}
	if !business.SubscriptionStatus.AllowsAccess() {
		return nil, apperror.ErrSubscriptionExpired
	}
	return business, nil
}

func (s *AuthService) issueTokens(user *entity.User, business *entity.Business) (*AuthResult, error) {
	caps := user.Capabilities().Strings()
	accessToken, err := s.jwtManager.GenerateAccessToken(utils.TokenSubject{
		UserID:       user.ID,
		BusinessID:   user.BusinessID,
		BranchID:     user.BranchID,
		Username:     user.Username,
		Role:         user.Role.String(),
		Capabilities: caps,
	})
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.jwtManager.AccessTokenTTL().Seconds()),
		User:         user,
		Business:     business,
		Capabilities: caps,
	}, nil
}

// RegisterInput represents the registration input
type RegisterInput struct {
	BusinessName         string  `json:"business_name" validate:"required,max=255"`
	TaxID                string  `json:"tax_id" validate:"omitempty,taxid"`
	BusinessEmail        *string `json:"business_email" validate:"omitempty,email"`
	BusinessPhone        *string `json:"business_phone" validate:"omitempty,phone,max=20"`
	BusinessAddress      *string `json:"business_address"`
	FirstName            string  `json:"first_name" validate:"required,max=100"`
	LastName             string  `json:"last_name" validate:"max=100"`
	Username             string  `json:"username" validate:"required,username"`
	Email                string  `json:"email" validate:"required,email,max=100"`
	Password             string  `json:"password" validate:"required,min=8"`
	PasswordConfirmation string  `json:"password_confirmation" validate:"required,eqfield=Password"`
}

// Register creates a business on a trial plan with its main branch and an
// administrator, all in one transaction, and signs the administrator in.
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) (*AuthResult, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if err := s.ensureIdentityFree(ctx, input.Username, input.Email); err != nil {
		return nil, err
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	var business *entity.Business
	var user *entity.User
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		expiry := timeNow().AddDate(0, 0, s.trialDays)
		business = &entity.Business{
			Name:               strings.TrimSpace(input.BusinessName),
			Email:              optionalString(input.BusinessEmail),
			Phone:              optionalString(input.BusinessPhone),
			Address:            optionalString(input.BusinessAddress),
			SubscriptionPlan:   enum.PlanBasic,
			SubscriptionStatus: enum.SubscriptionTrial,
			SubscriptionExpiry: &expiry,
			Status:             enum.StatusActive,
		}
		if input.TaxID != "" {
			business.TaxID = &input.TaxID
		}
		if err := s.businessRepo.Create(ctx, business); err != nil {
			return err
		}

		branch := &entity.Branch{
			BusinessID: business.ID,
			Name:       "Main Branch - " + business.Name,
			Address:    business.Address,
			Phone:      business.Phone,
			Email:      business.Email,
			Status:     enum.StatusActive,
		}
		if err := s.branchRepo.Create(ctx, branch); err != nil {
			return err
		}

		user = &entity.User{
			BusinessID: business.ID,
			BranchID:   &branch.ID,
			FirstName:  strings.TrimSpace(input.FirstName),
			LastName:   strings.TrimSpace(input.LastName),
			Username:   input.Username,
			Email:      strings.ToLower(input.Email),
			Password:   hashedPassword,
			Role:       enum.RoleAdmin,
			Status:     enum.StatusActive,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			if errors.Is(err, database.ErrDuplicate) {
				return apperror.NewDuplicateEmail("Username or email already registered")
			}
			return err
		}

		perms := capabilityNames(enum.RoleAdmin.DefaultCapabilities())
		return s.userRepo.ReplacePermissions(ctx, user.ID, perms)
	})
	if err != nil {
		return nil, err
	}

	// reload so permissions are attached
	user, err = s.userRepo.FindByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return s.issueTokens(user, business)
}

func (s *AuthService) ensureIdentityFree(ctx context.Context, username, email string) error {
	existing, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperror.NewDuplicateName("Username already taken")
	}
	existing, err = s.userRepo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return err
	}
	if existing != nil {
		return apperror.NewDuplicateEmail("Email already registered")
	}
	return nil
}

func capabilityNames(caps []enum.Capability) []string {
	out := make([]string, len(caps))
	for i, c := range caps {
		out[i] = c.String()
	}
	return out
}

// RefreshToken generates new tokens from a refresh token
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResult, error) {
	userID, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperror.ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive() {
		return nil, apperror.ErrInvalidToken
	}

	business, err := s.checkBusinessAccess(ctx, user.BusinessID)
	if err != nil {
		return nil, err
	}
	return s.issueTokens(user, business)
}

// Profile describes the signed-in actor.
type Profile struct {
	User         *entity.User     `json:"user"`
	Business     *entity.Business `json:"business"`
	Capabilities []string         `json:"capabilities"`
}

// Profile returns the current user with their business and effective capabilities.
func (s *AuthService) Profile(ctx context.Context, a actor.Context) (*Profile, error) {
	user, err := s.userRepo.GetByID(ctx, a.BusinessID, a.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NewNotFoundError("User")
	}
	business, err := s.businessRepo.GetByID(ctx, a.BusinessID)
	if err != nil {
		return nil, err
	}
	return &Profile{User: user, Business: business, Capabilities: user.Capabilities().Strings()}, nil
}

// ChangePasswordInput represents the change password input
type ChangePasswordInput struct {
	CurrentPassword         string `json:"current_password" validate:"required"`
	NewPassword             string `json:"new_password" validate:"required,min=8"`
	NewPasswordConfirmation string `json:"new_password_confirmation" validate:"required,eqfield=NewPassword"`
}

// ChangePassword changes the actor's password after verifying the current one.
func (s *AuthService) ChangePassword(ctx context.Context, a actor.Context, input *ChangePasswordInput) error {
	if err := validation.Struct(input); err != nil {
		return err
	}

	user, err := s.userRepo.GetByID(ctx, a.BusinessID, a.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return apperror.NewNotFoundError("User")
	}
	if !utils.CheckPassword(user.Password, input.CurrentPassword) {
		return apperror.NewInvalidValue("current_password", "Current password is incorrect")
	}

	hashedPassword, err := utils.HashPassword(input.NewPassword)
	if err != nil {
		return err
	}
	return s.userRepo.UpdatePassword(ctx, user.ID, hashedPassword)
}

// ForgotPasswordInput represents the forgot password input
type ForgotPasswordInput struct {
	Email string `json:"email" validate:"required,email"`
}

// ForgotPassword emails a one-hour reset link. Unknown addresses succeed
// silently so the endpoint cannot be used to probe for accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, input *ForgotPasswordInput) error {
	if err := validation.Struct(input); err != nil {
		return err
	}

	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(input.Email))
	if err != nil {
		return err
	}
	if user == nil || !user.IsActive() {
		return nil
	}

	token, digest, err := utils.NewOpaqueToken()
	if err != nil {
		return err
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.passwordResetRepo.DeleteByUser(ctx, user.ID); err != nil {
			return err
		}
		return s.passwordResetRepo.Create(ctx, &entity.PasswordResetToken{
			UserID:    user.ID,
			TokenHash: digest,
			ExpiresAt: timeNow().Add(resetTokenTTL),
		})
	})
	if err != nil {
		return err
	}

	if s.mailer != nil {
		logSideEffect("password reset email to "+user.Email, s.mailer.SendPasswordResetEmail(user.Email, token))
	}
	return nil
}

// ResetPasswordInput represents the reset password input
type ResetPasswordInput struct {
	Token                string `json:"token" validate:"required"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

// ResetPassword resets the user's password using a valid token
func (s *AuthService) ResetPassword(ctx context.Context, input *ResetPasswordInput) error {
	if err := validation.Struct(input); err != nil {
		return err
	}

	resetToken, err := s.passwordResetRepo.GetByHash(ctx, utils.DigestToken(input.Token))
	if err != nil {
		return err
	}
	now := timeNow()
	if resetToken == nil || !resetToken.Usable(now) {
		return apperror.NewBadRequestError("Invalid or expired reset token")
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		return err
	}

	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.userRepo.UpdatePassword(ctx, resetToken.UserID, hashedPassword); err != nil {
			return err
		}
		if err := s.passwordResetRepo.MarkAsUsed(ctx, resetToken.ID, now); err != nil {
			return err
		}
		return s.passwordResetRepo.DeleteExpired(ctx, now)
	})
}

// GoogleAuthURL returns the consent URL with a signed state value.
func (s *AuthService) GoogleAuthURL() (string, error) {
	if s.google == nil || !s.google.IsConfigured() {
		return "", apperror.NewBadRequestError("Google sign-in is not configured")
	}
	state, err := oauth.NewState(s.stateSecret, timeNow())
	if err != nil {
		return "", err
	}
	return s.google.AuthURL(state), nil
}

// GoogleLogin completes the consent round trip. Only users whose email
// already exists may sign in this way.
func (s *AuthService) GoogleLogin(ctx context.Context, code, state string) (*AuthResult, error) {
	if s.google == nil || !s.google.IsConfigured() {
		return nil, apperror.NewBadRequestError("Google sign-in is not configured")
	}
	if err := oauth.VerifyState(s.stateSecret, state, timeNow()); err != nil {
		return nil, apperror.NewBadRequestError("Invalid OAuth state")
	}

	info, err := s.google.UserInfo(ctx, code)
	if err != nil {
		log.Printf("Google sign-in failed: %v", err)
		return nil, apperror.ErrInvalidCredentials
	}
	if !info.VerifiedEmail {
		return nil, apperror.ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(info.Email))
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive() {
		return nil, apperror.ErrInvalidCredentials
	}

	business, err := s.checkBusinessAccess(ctx, user.BusinessID)
	if err != nil {
		return nil, err
	}

	now := timeNow()
	if err := s.userRepo.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLogin = &now
	return s.issueTokens(user, business)
}

// GoogleRedirects returns the frontend URLs used after the callback.
func (s *AuthService) GoogleRedirects() (success, failure string) {
	if s.google == nil {
		return "", ""
	}
	return s.google.FrontendSuccessURL(), s.google.FrontendErrorURL()
}
