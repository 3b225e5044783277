package gate

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// Verifier checks a presented credential against the configured app password.
// It is a capability, not a comparison: implementations decide how the
// reference value is stored and how the check avoids timing side channels.
type Verifier interface {
	Verify(credential string) bool
}

// staticVerifier compares against a plaintext reference in constant time.
type staticVerifier struct {
	secret []byte
}

// NewStaticVerifier returns a Verifier doing a constant-time comparison
// against the configured plaintext password.
func NewStaticVerifier(secret string) Verifier {
	return &staticVerifier{secret: []byte(secret)}
}

func (v *staticVerifier) Verify(credential string) bool {
	return subtle.ConstantTimeCompare(v.secret, []byte(credential)) == 1
}

// bcryptVerifier compares against a bcrypt hash of the password.
type bcryptVerifier struct {
	hash []byte
}

// NewBcryptVerifier returns a Verifier for a bcrypt-hashed password.
func NewBcryptVerifier(hash string) Verifier {
	return &bcryptVerifier{hash: []byte(hash)}
}

func (v *bcryptVerifier) Verify(credential string) bool {
	return bcrypt.CompareHashAndPassword(v.hash, []byte(credential)) == nil
}

// NewVerifier picks the verifier implied by the config: the bcrypt hash when
// present, the plaintext password otherwise.
func NewVerifier(cfg Config) (Verifier, error) {
	switch {
	case cfg.PasswordBcrypt != "":
		if _, err := bcrypt.Cost([]byte(cfg.PasswordBcrypt)); err != nil {
			return nil, ErrInvalidPasswordHash
		}
		return NewBcryptVerifier(cfg.PasswordBcrypt), nil
	case cfg.Password != "":
		return NewStaticVerifier(cfg.Password), nil
	default:
		return nil, ErrNoCredentialConfigured
	}
}
