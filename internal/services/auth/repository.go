package auth

import (
	"context"
	"time"

	"skillmart/internal/services/users"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// UsersRepo defines the credential operations auth needs from the user store
type UsersRepo interface {
	Create(ctx context.Context, user *users.User) error
	FindByEmail(ctx context.Context, email string) (*users.User, error)
	SetResetOTP(ctx context.Context, id bson.ObjectID, otpHash string, expires time.Time) error
	// ConsumeResetOTP applies passwordHash only while otpHash is the stored,
	// unexpired code, and reports whether it did.
	ConsumeResetOTP(ctx context.Context, id bson.ObjectID, otpHash, passwordHash string) (bool, error)
	ClearResetOTP(ctx context.Context, id bson.ObjectID) error
}

// Mailer delivers reset codes
type Mailer interface {
	SendResetOTP(ctx context.Context, to, otp string, ttl time.Duration) error
}
