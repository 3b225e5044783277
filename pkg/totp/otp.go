package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base32"
	"errors"
	"fmt"
	"hash"
	"math"
	"regexp"
	"strings"
	"time"
)

const (
	DefaultDigits = 6  // Standard 6-digit TOTP codes
	DefaultPeriod = 30 // 30-second validity window (RFC 6238 standard)
)

// DefaultAlgorithm is the HMAC algorithm used when none is specified (RFC 6238 standard).
const DefaultAlgorithm = AlgorithmSHA1

// Algorithm identifies the HMAC hash function used for code derivation.
type Algorithm string

const (
	AlgorithmSHA1   Algorithm = "SHA1"
	AlgorithmSHA256 Algorithm = "SHA256"
	AlgorithmSHA512 Algorithm = "SHA512"
)

// hasher returns the hash constructor for the algorithm.
func (a Algorithm) hasher() (func() hash.Hash, error) {
	switch a {
	case AlgorithmSHA1:
		return sha1.New, nil
	case AlgorithmSHA256:
		return sha256.New, nil
	case AlgorithmSHA512:
		return sha512.New, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidAlgorithm, string(a))
	}
}

// ValidateSecretKeyRegex ensures Base32 format: uppercase A-Z, digits 2-7, optional padding
var ValidateSecretKeyRegex = regexp.MustCompile("^[A-Z2-7]+=*$")

// Params contains the code-derivation parameters stored alongside a credential.
type Params struct {
	Algorithm Algorithm // HMAC algorithm (optional, defaults to SHA1)
	Digits    int       // Number of digits in generated codes (optional, defaults to 6)
	Period    int       // Code validity period in seconds (optional, defaults to 30)
}

// WithDefaults returns a copy with RFC 6238 standard defaults applied to zero-valued fields.
func (p Params) WithDefaults() Params {
	if p.Algorithm == "" {
		p.Algorithm = DefaultAlgorithm
	}
	if p.Digits == 0 {
		p.Digits = DefaultDigits
	}
	if p.Period == 0 {
		p.Period = DefaultPeriod
	}
	return p
}

// Validate ensures the parameters describe a code that can actually be derived.
func (p Params) Validate() error {
	if _, err := p.Algorithm.hasher(); err != nil {
		return err
	}
	if p.Digits < 6 || p.Digits > 10 {
		return fmt.Errorf("%w: digits must be 6-10, got %d", ErrInvalidParams, p.Digits)
	}
	if p.Period <= 0 {
		return fmt.Errorf("%w: period must be positive, got %d", ErrInvalidParams, p.Period)
	}
	return nil
}

// Code is a generated one-time password together with the time left in its window.
type Code struct {
	Value            string // Zero-padded decimal code
	SecondsRemaining int    // Seconds until the next counter window begins
}

// NormalizeSecret trims and upper-cases a Base32 secret and verifies its alphabet.
// Manual entry is accepted case-insensitively and padding-tolerant.
func NormalizeSecret(secret string) (string, error) {
	secret = strings.TrimSpace(strings.ToUpper(secret))
	if secret == "" {
		return "", ErrMissingSecret
	}
	if !ValidateSecretKeyRegex.MatchString(secret) {
		return "", ErrInvalidSecret
	}
	return secret, nil
}

// DecodeSecret normalizes and decodes a Base32 secret into raw key bytes.
func DecodeSecret(secret string) ([]byte, error) {
	secret, err := NormalizeSecret(secret)
	if err != nil {
		return nil, err
	}
	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.TrimRight(secret, "="))
	if err != nil {
		return nil, errors.Join(ErrInvalidSecret, err)
	}
	return key, nil
}

// GenerateSecretKey generates a new Base32-encoded secret key for TOTP.
func GenerateSecretKey() (string, error) {
	secret := make([]byte, 20) // 160-bit secret (RFC 4226 recommendation for cryptographic strength)
	if _, err := rand.Read(secret); err != nil {
		return "", errors.Join(ErrFailedToGenerateSecretKey, err)
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(secret), nil
}

// Generate derives the one-time code for the window containing t.
// The result is fully determined by the secret, the parameters, and t; nothing
// is cached, so every call reflects the counter window current at t.
func Generate(secret string, params Params, t time.Time) (Code, error) {
	key, err := DecodeSecret(secret)
	if err != nil {
		return Code{}, err
	}

	params = params.WithDefaults()
	if err := params.Validate(); err != nil {
		return Code{}, err
	}

	h, err := params.Algorithm.hasher()
	if err != nil {
		return Code{}, err
	}

	now := t.Unix()
	period := int64(params.Period)
	counter := uint64(now / period)

	code := hotp(h, key, counter, params.Digits)

	return Code{
		Value:            fmt.Sprintf("%0*d", params.Digits, code),
		SecondsRemaining: int(period - now%period),
	}, nil
}

// hotp implements the RFC 4226 HMAC-based One-Time Password algorithm:
// HMAC over the big-endian counter, dynamic truncation, decimal reduction.
func hotp(h func() hash.Hash, key []byte, counter uint64, digits int) int {
	counterBytes := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		counterBytes[i] = byte(counter & 0xff)
		counter >>= 8
	}

	mac := hmac.New(h, key)
	mac.Write(counterBytes)
	sum := mac.Sum(nil)

	// Dynamic truncation (RFC 4226): last 4 bits select the offset,
	// MSB of the extracted word is cleared to keep the value positive.
	offset := sum[len(sum)-1] & 0x0f
	code := (int(sum[offset]&0x7f) << 24) |
		(int(sum[offset+1]&0xff) << 16) |
		(int(sum[offset+2]&0xff) << 8) |
		int(sum[offset+3]&0xff)

	return code % int(math.Pow10(digits))
}
