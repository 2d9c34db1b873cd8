package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"skillmart/internal/config"
	"skillmart/internal/services/users"
	"skillmart/internal/utils/crypto"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Service handles authentication business logic
type Service struct {
	repo   UsersRepo
	mail   Mailer
	config config.Config
	log    *slog.Logger
	now    func() time.Time
}

// NewService creates a new auth service. mail may be nil, in which case
// reset codes cannot be delivered.
func NewService(repo UsersRepo, mail Mailer, cfg config.Config, log *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		mail:   mail,
		config: cfg,
		log:    log,
		now:    time.Now,
	}
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=50,username" example:"alice"`
	Email    string `json:"email" validate:"required,email,max=254" example:"alice@example.com"`
	Password string `json:"password" validate:"required,min=6,max=72" example:"secret1"`
}

// LoginRequest represents a user login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"alice@example.com"`
	Password string `json:"password" validate:"required" example:"secret1"`
}

// SendResetOTPRequest asks for a reset code to be mailed
type SendResetOTPRequest struct {
	Email string `json:"email" validate:"required,email" example:"alice@example.com"`
}

// ResetPasswordRequest redeems a reset code
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email" example:"alice@example.com"`
	OTP         string `json:"otp" validate:"required,len=6,numeric" example:"042917"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=72" example:"secret2"`
}

// LoginResponse represents the response for successful authentication
type LoginResponse struct {
	Token string      `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJpZCI6IjY4M2NkYjhhYTk2YWQ3MWU4ZTA3NWJkMSJ9.sig"`
	User  *users.User `json:"user"`
}

// MessageResponse carries a human readable outcome
type MessageResponse struct {
	Message string `json:"message" example:"OTP sent to email"`
}

const (
	msgUserCreated   = "User created successfully"
	msgOTPSent       = "OTP sent to email"
	msgPasswordReset = "Password reset successful"
)

// Register creates an account. Uniqueness of email and name is enforced by
// the store, which reports users.ErrEmailTaken or users.ErrNameTaken.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*users.UserResponse, error) {
	hashedPassword, err := crypto.HashPassword(req.Password, s.config.BcryptCost)
	if err != nil {
		s.log.Error("failed to hash password", "error", err)
		return nil, errors.New("failed to process password")
	}

	user := &users.User{
		ID:           bson.NewObjectID(),
		Name:         strings.TrimSpace(req.Name),
		Email:        normalizeEmail(req.Email),
		PasswordHash: hashedPassword,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, users.ErrEmailTaken) || errors.Is(err, users.ErrNameTaken) {
			return nil, err
		}
		s.log.Error("failed to create user", "error", err)
		return nil, errors.New("failed to create user")
	}

	user.PasswordHash = ""
	return &users.UserResponse{Message: msgUserCreated, User: user}, nil
}

// Login authenticates a user and issues an access token
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if !errors.Is(err, users.ErrUserNotFound) {
			s.log.Error("failed to find user by email", "error", err)
		}
		return nil, err
	}

	if err := crypto.CheckPassword(req.Password, user.PasswordHash); err != nil {
		return nil, ErrInvalidPassword
	}

	token, err := s.generateJWT(user)
	if err != nil {
		s.log.Error("failed to generate token", "error", err, "user_id", user.ID.Hex())
		return nil, ErrGenAccessToken
	}

	return &LoginResponse{Token: token, User: publicView(user)}, nil
}

// SendResetOTP stores a fresh hashed code and mails it. Unknown emails get the
// same answer as known ones.
func (s *Service) SendResetOTP(ctx context.Context, req SendResetOTPRequest) (*MessageResponse, error) {
	email := normalizeEmail(req.Email)

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			s.log.Debug("reset requested for unknown email")
			return &MessageResponse{Message: msgOTPSent}, nil
		}
		s.log.Error("failed to find user by email", "error", err)
		return nil, err
	}

	otp, err := crypto.GenerateOTP()
	if err != nil {
		s.log.Error("failed to generate otp", "error", err)
		return nil, err
	}
	otpHash, err := crypto.HashPassword(otp, s.config.BcryptCost)
	if err != nil {
		s.log.Error("failed to hash otp", "error", err)
		return nil, err
	}

	ttl := time.Duration(s.config.OTPTTLMinutes) * time.Minute
	if err := s.repo.SetResetOTP(ctx, user.ID, otpHash, s.now().Add(ttl)); err != nil {
		s.log.Error("failed to store otp", "error", err, "user_id", user.ID.Hex())
		return nil, err
	}

	if err := s.deliver(ctx, email, otp, ttl); err != nil {
		s.log.Error("failed to send otp mail", "error", err, "user_id", user.ID.Hex())
		if clearErr := s.repo.ClearResetOTP(ctx, user.ID); clearErr != nil {
			s.log.Warn("failed to clear undelivered otp", "error", clearErr, "user_id", user.ID.Hex())
		}
		return nil, ErrMailFailed
	}

	return &MessageResponse{Message: msgOTPSent}, nil
}

func (s *Service) deliver(ctx context.Context, email, otp string, ttl time.Duration) error {
	if s.mail == nil {
		return errors.New("mailer is not configured")
	}
	return s.mail.SendResetOTP(ctx, email, otp, ttl)
}

// ResetPasswordWithOTP replaces the password when otp matches the stored,
// unexpired code. A code can be redeemed once.
func (s *Service) ResetPasswordWithOTP(ctx context.Context, req ResetPasswordRequest) (*MessageResponse, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return nil, ErrInvalidOTP
		}
		s.log.Error("failed to find user by email", "error", err)
		return nil, err
	}

	if user.ResetPasswordOTP == "" || user.ResetPasswordExpire == nil {
		return nil, ErrInvalidOTP
	}

	if !s.now().Before(*user.ResetPasswordExpire) {
		if err := s.repo.ClearResetOTP(ctx, user.ID); err != nil {
			s.log.Warn("failed to clear expired otp", "error", err, "user_id", user.ID.Hex())
		}
		return nil, ErrInvalidOTP
	}

	if err := crypto.CheckPassword(req.OTP, user.ResetPasswordOTP); err != nil {
		return nil, ErrInvalidOTP
	}

	passwordHash, err := crypto.HashPassword(req.NewPassword, s.config.BcryptCost)
	if err != nil {
		s.log.Error("failed to hash password", "error", err)
		return nil, errors.New("failed to process password")
	}

	applied, err := s.repo.ConsumeResetOTP(ctx, user.ID, user.ResetPasswordOTP, passwordHash)
	if err != nil {
		s.log.Error("failed to reset password", "error", err, "user_id", user.ID.Hex())
		return nil, err
	}
	if !applied {
		// redeemed or replaced concurrently
		return nil, ErrInvalidOTP
	}

	return &MessageResponse{Message: msgPasswordReset}, nil
}

func (s *Service) generateJWT(user *users.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"id":    user.ID.Hex(),
		"email": user.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Duration(s.config.JWTExpiryHours) * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// publicView strips credential and reset state from a full record.
func publicView(u *users.User) *users.User {
	out := *u
	out.PasswordHash = ""
	out.ResetPasswordOTP = ""
	out.ResetPasswordExpire = nil
	return &out
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
