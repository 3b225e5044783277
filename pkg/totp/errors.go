package totp

import "errors"

var (
	ErrInvalidURI                = errors.New("not an otpauth:// URI")
	ErrMissingLabel              = errors.New("otpauth URI path contains no label")
	ErrMalformedParameters       = errors.New("malformed otpauth URI parameters")
	ErrMissingSecret             = errors.New("missing secret")
	ErrInvalidSecret             = errors.New("invalid Base32 secret")
	ErrInvalidAlgorithm          = errors.New("unsupported HMAC algorithm")
	ErrInvalidParams             = errors.New("invalid code parameters")
	ErrFailedToGenerateSecretKey = errors.New("failed to generate TOTP secret key")
)
