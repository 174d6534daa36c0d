package services

import "errors"

// Business-rule failures. Handlers map ErrNotFound and ErrNotOwner to the same
// redirect so an ownership failure is indistinguishable from a missing record.
var (
	ErrNotFound         = errors.New("record not found")
	ErrNotOwner         = errors.New("caller does not own the record")
	ErrAlreadyPublished = errors.New("listing already published")
	ErrNoImage          = errors.New("listing has no image")

	ErrUserNotFound = errors.New("user not found")
	ErrNotConfirmed = errors.New("account not confirmed")
	ErrBadPassword  = errors.New("wrong password")
	ErrEmailTaken   = errors.New("email already registered")
	ErrTokenInvalid = errors.New("token invalid or expired")
)
