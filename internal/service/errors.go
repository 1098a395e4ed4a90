package service

import "errors"

// Sentinel errors handlers translate into HTTP statuses.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrTitleNotFound    = errors.New("title not found")
	ErrReviewNotFound   = errors.New("review not found")
	ErrCommentNotFound  = errors.New("comment not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrGenreNotFound    = errors.New("genre not found")

	ErrForbidden = errors.New("you don't have permission to modify this resource")

	ErrReservedUsername = errors.New(`username "me" is reserved`)
	// signup mismatch cases are distinguished for diagnostics
	ErrUsernameMismatch = errors.New("username is already registered with a different email")
	ErrEmailMismatch    = errors.New("email is already registered with a different username")

	ErrUsernameTaken   = errors.New("username already in use")
	ErrEmailTaken      = errors.New("email already in use")
	ErrSlugTaken       = errors.New("slug already in use")
	ErrDuplicateReview = errors.New("you have already reviewed this title")

	ErrFutureYear = errors.New("year cannot be later than the current year")
)
