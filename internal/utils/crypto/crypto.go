package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

// OTPDigits is the length of a password reset code.
const OTPDigits = 6

var (
	reUsername = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	otpMax     = big.NewInt(1_000_000)

	ErrUsernameRule = errors.New("name may contain only letters and digits")
)

// HashPassword hashes a password using bcrypt with the given cost
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword verifies a password against its hash
func CheckPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// GenerateOTP returns a zero-padded 6 digit code drawn from crypto/rand.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpMax)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", OTPDigits, n.Int64()), nil
}

// IsValidUsername reports whether name matches ^[A-Za-z0-9]+$.
func IsValidUsername(name string) bool {
	return reUsername.MatchString(name)
}

func usernameRule(fl validator.FieldLevel) bool {
	return IsValidUsername(fl.Field().String())
}

// RegisterValidators registers the "username" tag with the validator.
// Registering twice on the same validator is not an error.
func RegisterValidators(v *validator.Validate) error {
	err := v.RegisterValidation("username", usernameRule)
	if err != nil && err.Error() == "validator: tag 'username' already exists" {
		return nil
	}
	return err
}
