package auth

import "errors"

var (
	// ErrGenAccessToken is returned when we cannot create a JWT.
	ErrGenAccessToken  = errors.New("failed to generate access token")
	ErrInvalidPassword = errors.New("Invalid password")
	ErrInvalidOTP      = errors.New("Invalid or expired OTP")
	// ErrMailFailed means the reset code could not be delivered; the code is cleared.
	ErrMailFailed = errors.New("failed to send reset code")
)
