// Package totp implements RFC 4226/6238 one-time password generation and the
// otpauth:// Key Uri Format codec.
//
// Code generation is a pure function of the secret, the derivation parameters,
// and a caller-supplied time, which keeps it deterministic and directly
// testable against the RFC test vectors:
//
//	code, err := totp.Generate(secret, totp.Params{}, time.Now())
//	// code.Value, code.SecondsRemaining
//
// URI parsing treats the path segment as the authoritative label and reads
// only secret, issuer, and derivation parameters from the query section.
package totp
