package domain

import "errors"

var (
	ErrUpstreamUnavailable = errors.New("upstream source unavailable")
	ErrUpstreamRateLimited = errors.New("upstream source rate limited")
	ErrInvalidLabel        = errors.New("invalid sentiment label")
)
