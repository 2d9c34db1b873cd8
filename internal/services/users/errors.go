package users

import "errors"

// ErrUserNotFound is returned when the addressed user does not exist.
var ErrUserNotFound = errors.New("User not found")

// ErrSectionNotFound is returned when the section id is not under the addressed user.
var ErrSectionNotFound = errors.New("Section not found")

// ErrForbidden is returned when the actor tries to modify someone else's profile.
var ErrForbidden = errors.New("You can only modify your own profile")

// ErrEmailTaken is returned when another user already holds the email.
var ErrEmailTaken = errors.New("User already exists")

// ErrNameTaken is returned when another user already holds the name.
var ErrNameTaken = errors.New("Name already taken")

// ErrInvalidName is returned for names outside ^[A-Za-z0-9]+$.
var ErrInvalidName = errors.New("Name may contain only letters and digits")

// ErrInvalidFee is returned for a negative fee.
var ErrInvalidFee = errors.New("Fee must not be negative")

// ErrInvalidFeeRange is returned when minFee is greater than maxFee.
var ErrInvalidFeeRange = errors.New("minFee must not be greater than maxFee")

// ErrSelfLike is returned when a user tries to like their own profile.
var ErrSelfLike = errors.New("You cannot like your own profile")
