package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"skillmart/internal/config"
	"skillmart/internal/services/users"
	"skillmart/internal/utils/crypto"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var silentLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

const testSecret = "super-secret-jwt-key-at-least-32-chars"

func testConfig() config.Config {
	return config.Config{
		BcryptCost:     4,
		JWTSecret:      testSecret,
		JWTExpiryHours: 168,
		OTPTTLMinutes:  10,
	}
}

// MockUsersRepo is a mock implementation of UsersRepo
type MockUsersRepo struct {
	mock.Mock
}

func (m *MockUsersRepo) Create(ctx context.Context, user *users.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUsersRepo) FindByEmail(ctx context.Context, email string) (*users.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.User), args.Error(1)
}

func (m *MockUsersRepo) SetResetOTP(ctx context.Context, id bson.ObjectID, otpHash string, expires time.Time) error {
	return m.Called(ctx, id, otpHash, expires).Error(0)
}

func (m *MockUsersRepo) ConsumeResetOTP(ctx context.Context, id bson.ObjectID, otpHash, passwordHash string) (bool, error) {
	args := m.Called(ctx, id, otpHash, passwordHash)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsersRepo) ClearResetOTP(ctx context.Context, id bson.ObjectID) error {
	return m.Called(ctx, id).Error(0)
}

// MockMailer records the last code it was asked to send
type MockMailer struct {
	mock.Mock
	lastOTP string
}

func (m *MockMailer) SendResetOTP(ctx context.Context, to, otp string, ttl time.Duration) error {
	m.lastOTP = otp
	return m.Called(ctx, to, otp, ttl).Error(0)
}

func newTestService(repo *MockUsersRepo, mail Mailer, now time.Time) *Service {
	svc := NewService(repo, mail, testConfig(), silentLogger)
	svc.now = func() time.Time { return now }
	return svc
}

func mustHash(t *testing.T, s string) string {
	t.Helper()
	h, err := crypto.HashPassword(s, 4)
	require.NoError(t, err)
	return h
}

func TestService_Register(t *testing.T) {
	tests := []struct {
		name    string
		repoErr error
		wantErr error
	}{
		{name: "success"},
		{name: "duplicate email", repoErr: users.ErrEmailTaken, wantErr: users.ErrEmailTaken},
		{name: "duplicate name", repoErr: users.ErrNameTaken, wantErr: users.ErrNameTaken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUsersRepo)
			var created *users.User
			repo.On("Create", mock.Anything, mock.AnythingOfType("*users.User")).
				Run(func(args mock.Arguments) { created = args.Get(1).(*users.User) }).
				Return(tt.repoErr)

			svc := newTestService(repo, nil, time.Now())
			resp, err := svc.Register(context.Background(), RegisterRequest{
				Name:     "alice",
				Email:    "  Alice@Example.COM ",
				Password: "secret1",
			})

			require.NotNil(t, created)
			assert.Equal(t, "alice@example.com", created.Email, "email is normalized before storage")
			assert.NoError(t, crypto.CheckPassword("secret1", created.PasswordHash))

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, resp)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "User created successfully", resp.Message)
			assert.Equal(t, "alice", resp.User.Name)
			assert.Empty(t, resp.User.PasswordHash)
		})
	}
}

func TestService_Register_StoreFailureIsGeneric(t *testing.T) {
	repo := new(MockUsersRepo)
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	svc := newTestService(repo, nil, time.Now())
	_, err := svc.Register(context.Background(), RegisterRequest{Name: "bob", Email: "bob@example.com", Password: "secret1"})

	require.Error(t, err)
	assert.Equal(t, "failed to create user", err.Error())
}

func TestService_Login(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	stored := &users.User{
		ID:           bson.NewObjectID(),
		Name:         "alice",
		Email:        "alice@example.com",
		PasswordHash: mustHash(t, "secret1"),
	}

	t.Run("success issues HS256 token with id claim", func(t *testing.T) {
		repo := new(MockUsersRepo)
		repo.On("FindByEmail", mock.Anything, "alice@example.com").Return(stored, nil)

		svc := newTestService(repo, nil, now)
		resp, err := svc.Login(context.Background(), LoginRequest{Email: "ALICE@example.com", Password: "secret1"})
		require.NoError(t, err)
		assert.Empty(t, resp.User.PasswordHash)
		assert.NotEmpty(t, stored.PasswordHash, "stored record must not be mutated")

		claims := jwt.MapClaims{}
		_, err = jwt.ParseWithClaims(resp.Token, claims, func(tok *jwt.Token) (any, error) {
			assert.Equal(t, jwt.SigningMethodHS256, tok.Method)
			return []byte(testSecret), nil
		}, jwt.WithTimeFunc(func() time.Time { return now }))
		require.NoError(t, err)

		assert.Equal(t, stored.ID.Hex(), claims["id"])
		assert.Equal(t, "alice@example.com", claims["email"])
		assert.EqualValues(t, now.Unix(), claims["iat"])
		assert.EqualValues(t, now.Add(168*time.Hour).Unix(), claims["exp"])
	})

	t.Run("unknown email", func(t *testing.T) {
		repo := new(MockUsersRepo)
		repo.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, users.ErrUserNotFound)

		svc := newTestService(repo, nil, now)
		_, err := svc.Login(context.Background(), LoginRequest{Email: "ghost@example.com", Password: "secret1"})
		assert.ErrorIs(t, err, users.ErrUserNotFound)
	})

	t.Run("wrong password", func(t *testing.T) {
		repo := new(MockUsersRepo)
		repo.On("FindByEmail", mock.Anything, "alice@example.com").Return(stored, nil)

		svc := newTestService(repo, nil, now)
		_, err := svc.Login(context.Background(), LoginRequest{Email: "alice@example.com", Password: "nope123"})
		assert.ErrorIs(t, err, ErrInvalidPassword)
	})
}

func TestService_SendResetOTP(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	user := &users.User{ID: bson.NewObjectID(), Email: "alice@example.com"}

	t.Run("stores hash and mails the code", func(t *testing.T) {
		repo := new(MockUsersRepo)
		mail := new(MockMailer)
		repo.On("FindByEmail", mock.Anything, "alice@example.com").Return(user, nil)

		var storedHash string
		repo.On("SetResetOTP", mock.Anything, user.ID, mock.AnythingOfType("string"), now.Add(10*time.Minute)).
			Run(func(args mock.Arguments) { storedHash = args.String(2) }).
			Return(nil)
		mail.On("SendResetOTP", mock.Anything, "alice@example.com", mock.AnythingOfType("string"), 10*time.Minute).Return(nil)

		svc := newTestService(repo, mail, now)
		resp, err := svc.SendResetOTP(context.Background(), SendResetOTPRequest{Email: "alice@example.com"})
		require.NoError(t, err)
		assert.Equal(t, "OTP sent to email", resp.Message)

		assert.Len(t, mail.lastOTP, 6)
		assert.NotEqual(t, mail.lastOTP, storedHash, "the code is stored hashed")
		assert.NoError(t, crypto.CheckPassword(mail.lastOTP, storedHash))
		repo.AssertExpectations(t)
		mail.AssertExpectations(t)
	})

	t.Run("unknown email looks identical", func(t *testing.T) {
		repo := new(MockUsersRepo)
		mail := new(MockMailer)
		repo.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, users.ErrUserNotFound)

		svc := newTestService(repo, mail, now)
		resp, err := svc.SendResetOTP(context.Background(), SendResetOTPRequest{Email: "ghost@example.com"})
		require.NoError(t, err)
		assert.Equal(t, "OTP sent to email", resp.Message)
		mail.AssertNotCalled(t, "SendResetOTP", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("mail failure clears the code", func(t *testing.T) {
		repo := new(MockUsersRepo)
		mail := new(MockMailer)
		repo.On("FindByEmail", mock.Anything, "alice@example.com").Return(user, nil)
		repo.On("SetResetOTP", mock.Anything, user.ID, mock.Anything, mock.Anything).Return(nil)
		repo.On("ClearResetOTP", mock.Anything, user.ID).Return(nil)
		mail.On("SendResetOTP", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("535 auth failed"))

		svc := newTestService(repo, mail, now)
		_, err := svc.SendResetOTP(context.Background(), SendResetOTPRequest{Email: "alice@example.com"})
		assert.ErrorIs(t, err, ErrMailFailed)
		repo.AssertCalled(t, "ClearResetOTP", mock.Anything, user.ID)
	})

	t.Run("no mailer configured", func(t *testing.T) {
		repo := new(MockUsersRepo)
		repo.On("FindByEmail", mock.Anything, "alice@example.com").Return(user, nil)
		repo.On("SetResetOTP", mock.Anything, user.ID, mock.Anything, mock.Anything).Return(nil)
		repo.On("ClearResetOTP", mock.Anything, user.ID).Return(nil)

		svc := newTestService(repo, nil, now)
		_, err := svc.SendResetOTP(context.Background(), SendResetOTPRequest{Email: "alice@example.com"})
		assert.ErrorIs(t, err, ErrMailFailed)
	})
}

func TestService_ResetPasswordWithOTP(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	otpHash := mustHash(t, "042917")
	future := now.Add(5 * time.Minute)
	past := now.Add(-time.Second)

	withOTP := func(expires *time.Time) *users.User {
		return &users.User{
			ID:                  bson.NewObjectID(),
			Email:               "alice@example.com",
			ResetPasswordOTP:    otpHash,
			ResetPasswordExpire: expires,
		}
	}
	req := ResetPasswordRequest{Email: "alice@example.com", OTP: "042917", NewPassword: "secret2"}

	t.Run("valid code resets once", func(t *testing.T) {
		user := withOTP(&future)
		repo := new(MockUsersRepo)
		repo.On("FindByEmail", mock.Anything, "alice@example.com").Return(user, nil)

		var newHash string
		repo.On("ConsumeResetOTP", mock.Anything, user.ID, otpHash, mock.AnythingOfType("string")).
			Run(func(args mock.Arguments) { newHash = args.String(3) }).
			Return(true, nil).Once()

		svc := newTestService(repo, nil, now)
		resp, err := svc.ResetPasswordWithOTP(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "Password reset successful", resp.Message)
		assert.NoError(t, crypto.CheckPassword("secret2", newHash))

		// second redemption loses the guarded update
		repo.On("ConsumeResetOTP", mock.Anything, user.ID, otpHash, mock.Anything).Return(false, nil)
		_, err = svc.ResetPasswordWithOTP(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidOTP)
	})

	t.Run("wrong code", func(t *testing.T) {
		repo := new(MockUsersRepo)
		repo.On("FindByEmail", mock.Anything, "alice@example.com").Return(withOTP(&future), nil)

		svc := newTestService(repo, nil, now)
		bad := req
		bad.OTP = "111111"
		_, err := svc.ResetPasswordWithOTP(context.Background(), bad)
		assert.ErrorIs(t, err, ErrInvalidOTP)
		repo.AssertNotCalled(t, "ConsumeResetOTP", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("expired code is cleared", func(t *testing.T) {
		user := withOTP(&past)
		repo := new(MockUsersRepo)
		repo.On("FindByEmail", mock.Anything, "alice@example.com").Return(user, nil)
		repo.On("ClearResetOTP", mock.Anything, user.ID).Return(nil)

		svc := newTestService(repo, nil, now)
		_, err := svc.ResetPasswordWithOTP(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidOTP)
		repo.AssertExpectations(t)
	})

	t.Run("no pending code", func(t *testing.T) {
		repo := new(MockUsersRepo)
		repo.On("FindByEmail", mock.Anything, "alice@example.com").Return(&users.User{ID: bson.NewObjectID()}, nil)

		svc := newTestService(repo, nil, now)
		_, err := svc.ResetPasswordWithOTP(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidOTP)
	})

	t.Run("unknown email", func(t *testing.T) {
		repo := new(MockUsersRepo)
		repo.On("FindByEmail", mock.Anything, "alice@example.com").Return(nil, users.ErrUserNotFound)

		svc := newTestService(repo, nil, now)
		_, err := svc.ResetPasswordWithOTP(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidOTP)
	})
}
