package totp

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Scheme is the URI scheme defined by the Key Uri Format:
// https://github.com/google/google-authenticator/wiki/Key-Uri-Format
const Scheme = "otpauth://"

// UnknownIssuer is used when neither the URI nor the label carries an issuer.
const UnknownIssuer = "Unknown Issuer"

// ParsedURI is the result of decoding an otpauth:// URI.
type ParsedURI struct {
	Label  string // Path-derived label, e.g. "GitHub:alice@example.com"
	Issuer string // issuer parameter, or inferred from the label
	Secret string // Normalized Base32 secret
	Params Params // Algorithm/digits/period, defaulted when absent
}

// ParseURI decodes an otpauth:// URI into its label, issuer, secret, and
// code-derivation parameters.
//
// The stored label is always taken from the URI path, not from whatever the
// query parameters claim: authenticator apps encode the label inconsistently
// between the two, and the path is what users see in their own app. The query
// section is consulted only for secret, issuer, and derivation parameters.
func ParseURI(raw string) (ParsedURI, error) {
	if !strings.HasPrefix(raw, Scheme) {
		return ParsedURI{}, ErrInvalidURI
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ParsedURI{}, errors.Join(ErrMalformedParameters, err)
	}

	label := PathLabel(u.Path)
	if label == "" {
		return ParsedURI{}, ErrMissingLabel
	}

	q, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return ParsedURI{}, errors.Join(ErrMalformedParameters, err)
	}

	secret, err := NormalizeSecret(q.Get("secret"))
	if err != nil {
		return ParsedURI{}, errors.Join(ErrMalformedParameters, err)
	}

	issuer := strings.TrimSpace(q.Get("issuer"))
	if issuer == "" {
		issuer = IssuerFromLabel(label)
	}

	params, err := paramsFromQuery(q)
	if err != nil {
		return ParsedURI{}, err
	}

	return ParsedURI{
		Label:  label,
		Issuer: issuer,
		Secret: secret,
		Params: params,
	}, nil
}

// PathLabel extracts the credential label from a decoded URI path, stripping
// a leading "/totp/" type segment or a bare leading "/".
func PathLabel(path string) string {
	if rest, ok := strings.CutPrefix(path, "/totp/"); ok {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(strings.TrimPrefix(path, "/"))
}

// IssuerFromLabel infers the issuer from the substring before the first colon
// of an "issuer:account" label. Falls back to UnknownIssuer.
func IssuerFromLabel(label string) string {
	issuer, _, found := strings.Cut(label, ":")
	if !found {
		return UnknownIssuer
	}
	if issuer = strings.TrimSpace(issuer); issuer == "" {
		return UnknownIssuer
	}
	return issuer
}

func paramsFromQuery(q url.Values) (Params, error) {
	params := Params{
		Algorithm: Algorithm(strings.ToUpper(strings.TrimSpace(q.Get("algorithm")))),
	}

	if v := q.Get("digits"); v != "" {
		digits, err := strconv.Atoi(v)
		if err != nil {
			return Params{}, fmt.Errorf("%w: digits %q", ErrMalformedParameters, v)
		}
		params.Digits = digits
	}
	if v := q.Get("period"); v != "" {
		period, err := strconv.Atoi(v)
		if err != nil {
			return Params{}, fmt.Errorf("%w: period %q", ErrMalformedParameters, v)
		}
		params.Period = period
	}

	params = params.WithDefaults()
	if err := params.Validate(); err != nil {
		return Params{}, errors.Join(ErrMalformedParameters, err)
	}
	return params, nil
}

// BuildURI assembles an otpauth:// URI for a stored credential so it can be
// re-enrolled into another authenticator app.
func BuildURI(label, issuer, secret string, params Params) string {
	params = params.WithDefaults()

	query := url.Values{}
	query.Set("secret", secret)
	query.Set("issuer", issuer)
	query.Set("algorithm", string(params.Algorithm))
	query.Set("digits", strconv.Itoa(params.Digits))
	query.Set("period", strconv.Itoa(params.Period))

	return fmt.Sprintf("%stotp/%s?%s", Scheme, url.PathEscape(label), query.Encode())
}
