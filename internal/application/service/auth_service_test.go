package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/enum"
	domainRepo "github.com/sangkips/pos-api/internal/domain/repository"
	"github.com/sangkips/pos-api/internal/infrastructure/repository"
	"github.com/sangkips/pos-api/pkg/apperror"
	"github.com/sangkips/pos-api/pkg/utils"
)

// failingPermissions breaks the last step of registration.
type failingPermissions struct {
	domainRepo.UserRepository
}

func (failingPermissions) ReplacePermissions(context.Context, uuid.UUID, []string) error {
	return errors.New("permissions table unavailable")
}

func registerInput(name, username string) *RegisterInput {
	return &RegisterInput{
		BusinessName:         name,
		FirstName:            "Ada",
		Username:             username,
		Email:                username + "@example.com",
		Password:             "password123",
		PasswordConfirmation: "password123",
	}
}

func TestRegisterCreatesTrialBusinessWithAdmin(t *testing.T) {
	env := newTestEnv(t)
	res, err := env.auth.Register(context.Background(), registerInput("Corner Shop", "ada"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if res.AccessToken == "" || res.RefreshToken == "" {
		t.Fatalf("expected tokens")
	}
	if res.Business.SubscriptionStatus != enum.SubscriptionTrial || res.Business.SubscriptionExpiry == nil {
		t.Fatalf("expected trial with expiry, got %s", res.Business.SubscriptionStatus)
	}
	if res.User.Role != enum.RoleAdmin || res.User.BranchID == nil {
		t.Fatalf("expected admin on the main branch")
	}
	if !res.User.Capabilities().Has(enum.CapManageSettings) {
		t.Fatalf("expected admin capabilities")
	}

	_, err = env.auth.Register(context.Background(), registerInput("Other", "ada"))
	expectReason(t, err, "DuplicateName")
}

func TestRegisterRollsBackOnFailure(t *testing.T) {
	env := newTestEnv(t)
	db := env.db
	auth := NewAuthService(
		repository.NewTransactor(db),
		repository.NewBusinessRepository(db),
		repository.NewBranchRepository(db),
		failingPermissions{repository.NewUserRepository(db)},
		repository.NewPasswordResetTokenRepository(db),
		utils.NewJWTManager("secret", time.Hour, time.Hour),
		nil, nil, "state", 30,
	)

	if _, err := auth.Register(context.Background(), registerInput("Doomed", "doomed")); err == nil {
		t.Fatalf("expected registration to fail")
	}
	for _, model := range []interface{}{&entity.Business{}, &entity.Branch{}, &entity.User{}} {
		var n int64
		if err := db.Model(model).Count(&n).Error; err != nil {
			t.Fatalf("count: %v", err)
		}
		if n != 0 {
			t.Fatalf("expected no rows in %T after rollback, got %d", model, n)
		}
	}
}

func TestLoginAndRefresh(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.auth.Register(ctx, registerInput("Shop", "grace")); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := env.auth.Login(ctx, &LoginInput{Username: "grace", Password: "wrong-password"})
	expectReason(t, err, "InvalidCredentials")
	_, err = env.auth.Login(ctx, &LoginInput{Username: "nobody", Password: "password123"})
	expectReason(t, err, "InvalidCredentials")

	res, err := env.auth.Login(ctx, &LoginInput{Username: "grace", Password: "password123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.User.LastLogin == nil {
		t.Fatalf("expected last login to be stamped")
	}

	refreshed, err := env.auth.RefreshToken(ctx, res.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.User.ID != res.User.ID {
		t.Fatalf("expected same user after refresh")
	}
	_, err = env.auth.RefreshToken(ctx, res.AccessToken)
	expectReason(t, err, "InvalidToken")
}

func TestLoginRejectsExpiredSubscription(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res, err := env.auth.Register(ctx, registerInput("Lapsed", "lapsed"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	past := time.Now().UTC().Add(-time.Hour)
	if err := env.db.Model(&entity.Business{}).Where("id = ?", res.Business.ID).
		Update("subscription_expiry", past).Error; err != nil {
		t.Fatalf("expire: %v", err)
	}

	_, err = env.auth.Login(ctx, &LoginInput{Username: "lapsed", Password: "password123"})
	expectReason(t, err, "SubscriptionExpired")

	var business entity.Business
	if err := env.db.First(&business, "id = ?", res.Business.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if business.SubscriptionStatus != enum.SubscriptionInactive {
		t.Fatalf("expected lapsed subscription to be marked inactive, got %s", business.SubscriptionStatus)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.auth.Register(ctx, registerInput("Shop", "linus")); err != nil {
		t.Fatalf("register: %v", err)
	}

	// unknown addresses succeed silently
	if err := env.auth.ForgotPassword(ctx, &ForgotPasswordInput{Email: "ghost@example.com"}); err != nil {
		t.Fatalf("forgot unknown: %v", err)
	}
	if len(env.mailer.resets) != 0 {
		t.Fatalf("expected no mail for unknown address")
	}

	if err := env.auth.ForgotPassword(ctx, &ForgotPasswordInput{Email: "LINUS@example.com"}); err != nil {
		t.Fatalf("forgot: %v", err)
	}
	if len(env.mailer.resets) != 1 {
		t.Fatalf("expected one reset mail, got %d", len(env.mailer.resets))
	}
	token := env.mailer.resets[0]

	var stored entity.PasswordResetToken
	if err := env.db.First(&stored).Error; err != nil {
		t.Fatalf("load token: %v", err)
	}
	if stored.TokenHash == token {
		t.Fatalf("expected the raw token not to be stored")
	}

	reset := &ResetPasswordInput{Token: token, Password: "newpassword1", PasswordConfirmation: "newpassword1"}
	if err := env.auth.ResetPassword(ctx, reset); err != nil {
		t.Fatalf("reset: %v", err)
	}
	expectReason(t, env.auth.ResetPassword(ctx, reset), "BadRequest")

	if _, err := env.auth.Login(ctx, &LoginInput{Username: "linus", Password: "newpassword1"}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.register(t, "Shop")

	err := env.auth.ChangePassword(ctx, admin, &ChangePasswordInput{
		CurrentPassword:         "not-it",
		NewPassword:             "another-pass",
		NewPasswordConfirmation: "another-pass",
	})
	expectReason(t, err, "InvalidValue")

	err = env.auth.ChangePassword(ctx, admin, &ChangePasswordInput{
		CurrentPassword:         "password123",
		NewPassword:             "another-pass",
		NewPasswordConfirmation: "another-pass",
	})
	if err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, err := env.auth.Login(ctx, &LoginInput{Username: admin.Username, Password: "another-pass"}); err != nil {
		t.Fatalf("login with changed password: %v", err)
	}
}

func TestLoginRejectsInactiveBusiness(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res, err := env.auth.Register(ctx, registerInput("Closed", "closed"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := env.db.Model(&entity.Business{}).Where("id = ?", res.Business.ID).
		Update("status", enum.StatusInactive).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	_, err = env.auth.Login(ctx, &LoginInput{Username: "closed", Password: "password123"})
	expectReason(t, err, "BusinessInactive")
	if code := apperror.GetAppError(err).Code; code != 403 {
		t.Fatalf("expected 403, got %d", code)
	}

	_, err = env.auth.RefreshToken(ctx, res.RefreshToken)
	expectReason(t, err, "BusinessInactive")
}
