package oauthmodel

import "errors"

var (
	ErrProfileMissingUserID = errors.New("profile has no user id")
	ErrProfileMissingEmail  = errors.New("profile has no email")
)
