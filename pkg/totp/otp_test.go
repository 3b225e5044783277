package totp_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otpvault/otpvault/pkg/totp"
)

// RFC 6238 Appendix B reference secrets (ASCII "1234567890" repeated to the
// hash block requirement, Base32-encoded).
const (
	rfcSecretSHA1   = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"
	rfcSecretSHA256 = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQGEZA===="
	rfcSecretSHA512 = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQGEZDGNA="
)

func TestGenerate_RFC6238Vectors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		secret string
		params totp.Params
		at     int64
		want   string
	}{
		{"sha1 8-digit epoch 59", rfcSecretSHA1, totp.Params{Digits: 8}, 59, "94287082"},
		{"sha1 8-digit epoch 1111111109", rfcSecretSHA1, totp.Params{Digits: 8}, 1111111109, "07081804"},
		{"sha1 8-digit epoch 1111111111", rfcSecretSHA1, totp.Params{Digits: 8}, 1111111111, "14050471"},
		{"sha1 8-digit epoch 1234567890", rfcSecretSHA1, totp.Params{Digits: 8}, 1234567890, "89005924"},
		{"sha1 8-digit epoch 2000000000", rfcSecretSHA1, totp.Params{Digits: 8}, 2000000000, "69279037"},
		{"sha1 8-digit epoch 20000000000", rfcSecretSHA1, totp.Params{Digits: 8}, 20000000000, "65353130"},
		{"sha1 default digits epoch 59", rfcSecretSHA1, totp.Params{}, 59, "287082"},
		{"sha1 default digits epoch 1111111109", rfcSecretSHA1, totp.Params{}, 1111111109, "081804"},
		{"sha1 default digits epoch 1234567890", rfcSecretSHA1, totp.Params{}, 1234567890, "005924"},
		{"sha256 8-digit epoch 59", rfcSecretSHA256, totp.Params{Algorithm: totp.AlgorithmSHA256, Digits: 8}, 59, "46119246"},
		{"sha512 8-digit epoch 59", rfcSecretSHA512, totp.Params{Algorithm: totp.AlgorithmSHA512, Digits: 8}, 59, "90693936"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			code, err := totp.Generate(tt.secret, tt.params, time.Unix(tt.at, 0))
			require.NoError(t, err)
			assert.Equal(t, tt.want, code.Value)
		})
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	t.Parallel()

	at := time.Unix(1111111111, 0)
	first, err := totp.Generate(rfcSecretSHA1, totp.Params{}, at)
	require.NoError(t, err)

	second, err := totp.Generate(rfcSecretSHA1, totp.Params{}, at)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Same window, same code; next window, different counter.
	sameWindow, err := totp.Generate(rfcSecretSHA1, totp.Params{}, time.Unix(1111111100, 0))
	require.NoError(t, err)
	assert.Equal(t, first.Value, sameWindow.Value)
}

func TestGenerate_SecondsRemaining(t *testing.T) {
	t.Parallel()

	tests := []struct {
		at   int64
		want int
	}{
		{at: 0, want: 30},
		{at: 1, want: 29},
		{at: 29, want: 1},
		{at: 30, want: 30},
		{at: 59, want: 1},
	}

	for _, tt := range tests {
		code, err := totp.Generate(rfcSecretSHA1, totp.Params{}, time.Unix(tt.at, 0))
		require.NoError(t, err)
		assert.Equal(t, tt.want, code.SecondsRemaining, "epoch %d", tt.at)
	}
}

func TestGenerate_InvalidInput(t *testing.T) {
	t.Parallel()

	t.Run("invalid base32 secret", func(t *testing.T) {
		t.Parallel()
		_, err := totp.Generate("not-base32!@#", totp.Params{}, time.Unix(59, 0))
		assert.ErrorIs(t, err, totp.ErrInvalidSecret)
	})

	t.Run("empty secret", func(t *testing.T) {
		t.Parallel()
		_, err := totp.Generate("  ", totp.Params{}, time.Unix(59, 0))
		assert.ErrorIs(t, err, totp.ErrMissingSecret)
	})

	t.Run("unknown algorithm", func(t *testing.T) {
		t.Parallel()
		_, err := totp.Generate(rfcSecretSHA1, totp.Params{Algorithm: "MD5"}, time.Unix(59, 0))
		assert.ErrorIs(t, err, totp.ErrInvalidAlgorithm)
	})

	t.Run("digits out of range", func(t *testing.T) {
		t.Parallel()
		_, err := totp.Generate(rfcSecretSHA1, totp.Params{Digits: 4}, time.Unix(59, 0))
		assert.ErrorIs(t, err, totp.ErrInvalidParams)
	})
}

func TestNormalizeSecret(t *testing.T) {
	t.Parallel()

	got, err := totp.NormalizeSecret("  jbswy3dpehpk3pxp ")
	require.NoError(t, err)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", got)

	got, err = totp.NormalizeSecret("JBSWY3DPEHPK3PXP====")
	require.NoError(t, err)
	assert.Equal(t, "JBSWY3DPEHPK3PXP====", got)

	_, err = totp.NormalizeSecret("JBSWY3DP EHPK3PXP")
	assert.ErrorIs(t, err, totp.ErrInvalidSecret)

	_, err = totp.NormalizeSecret("018-invalid")
	assert.ErrorIs(t, err, totp.ErrInvalidSecret)
}

func TestDecodeSecret(t *testing.T) {
	t.Parallel()

	key, err := totp.DecodeSecret(rfcSecretSHA1)
	require.NoError(t, err)
	assert.Equal(t, []byte("12345678901234567890"), key)

	// Padding-tolerant decoding.
	key, err = totp.DecodeSecret(rfcSecretSHA256)
	require.NoError(t, err)
	assert.Equal(t, []byte("12345678901234567890123456789012"), key)
}

func TestGenerateSecretKey(t *testing.T) {
	t.Parallel()

	secret, err := totp.GenerateSecretKey()
	require.NoError(t, err)
	assert.NotEmpty(t, secret)
	assert.Regexp(t, totp.ValidateSecretKeyRegex, secret)

	// Must be decodable and usable for generation.
	code, err := totp.Generate(secret, totp.Params{}, time.Unix(59, 0))
	require.NoError(t, err)
	assert.Len(t, code.Value, totp.DefaultDigits)
}
