package gate

import "time"

// Config holds the access gate settings, populated from the environment.
type Config struct {
	// Password is the shared app password compared in constant time.
	Password string `env:"APP_PASSWORD"`
	// PasswordBcrypt is a bcrypt hash of the app password. When set it takes
	// precedence over Password so the plaintext never has to live in the
	// environment.
	PasswordBcrypt string `env:"APP_PASSWORD_BCRYPT"`
	// MaxAttempts is the number of consecutive failures before lockout.
	MaxAttempts int `env:"MAX_LOGIN_ATTEMPTS" envDefault:"5"`
	// LockoutDuration is how long an identity stays locked.
	LockoutDuration time.Duration `env:"LOGIN_LOCKOUT_DURATION" envDefault:"15m"`
	// RedisURL, when set, switches the attempt store to Redis so lockouts are
	// shared across instances and survive restarts.
	RedisURL string `env:"LOCKOUT_REDIS_URL"`
}
