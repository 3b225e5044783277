package vault

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/otpvault/otpvault/pkg/totp"
)

// Service is the ingestion pipeline: it composes the otpauth codec with the
// storage collaborator and enforces the confidentiality boundaries between
// listing and reveal-class operations.
type Service struct {
	storage Storage
	log     *slog.Logger
	now     func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates the vault service on top of the given storage.
func NewService(storage Storage, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		storage: storage,
		log:     log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddFromURI ingests an otpauth:// URI and upserts the credential keyed by
// its path-derived label. Re-ingesting a label overwrites its secret, issuer,
// parameters, and note rather than duplicating the record.
func (s *Service) AddFromURI(ctx context.Context, rawURI, note string) (string, error) {
	parsed, err := totp.ParseURI(rawURI)
	if err != nil {
		return "", err
	}

	rec := Record{
		Label:     parsed.Label,
		Secret:    parsed.Secret,
		Issuer:    parsed.Issuer,
		Note:      note,
		Algorithm: parsed.Params.Algorithm,
		Digits:    parsed.Params.Digits,
		Period:    parsed.Params.Period,
		UpdatedAt: s.now(),
	}
	if err := s.storage.Upsert(ctx, rec); err != nil {
		return "", err
	}

	s.log.InfoContext(ctx, "credential ingested from uri", slog.String("label", parsed.Label))
	return parsed.Label, nil
}

// AddManual ingests a manually entered label and Base32 secret. The issuer is
// inferred from the label's "issuer:account" prefix.
func (s *Service) AddManual(ctx context.Context, label, secret, note string) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", ErrEmptyLabel
	}

	secret, err := totp.NormalizeSecret(secret)
	if err != nil {
		return "", err
	}

	rec := Record{
		Label:     label,
		Secret:    secret,
		Issuer:    totp.IssuerFromLabel(label),
		Note:      note,
		UpdatedAt: s.now(),
	}
	if err := s.storage.Upsert(ctx, rec); err != nil {
		return "", err
	}

	s.log.InfoContext(ctx, "credential ingested manually", slog.String("label", label))
	return label, nil
}

// GenerateCode derives the current one-time code for a stored credential.
// Only the code and its remaining window are returned; the secret stays
// inside the server boundary. Codes are recomputed on every call so a result
// is never stale relative to the current counter window.
func (s *Service) GenerateCode(ctx context.Context, id string) (totp.Code, error) {
	rec, err := s.storage.FindByID(ctx, id)
	if err != nil {
		return totp.Code{}, err
	}
	return totp.Generate(rec.Secret, rec.Params(), s.now())
}

// Preview derives a code directly from a submitted secret without touching
// the store. Used for verifying a secret before saving it.
func (s *Service) Preview(ctx context.Context, secret string) (totp.Code, error) {
	return totp.Generate(secret, totp.Params{}, s.now())
}

// List returns all credentials, most recently touched first, stripped of
// secrets and note bodies.
func (s *Service) List(ctx context.Context) ([]ListItem, error) {
	records, err := s.storage.List(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]ListItem, len(records))
	for i, rec := range records {
		items[i] = listItem(rec)
	}
	return items, nil
}

// Note reveals the note body of a single credential.
func (s *Service) Note(ctx context.Context, id string) (string, error) {
	rec, err := s.storage.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return rec.Note, nil
}

// UpdateNote replaces the note of a credential and refreshes its timestamp.
// The secret is untouched.
func (s *Service) UpdateNote(ctx context.Context, id, note string) error {
	return s.storage.UpdateNote(ctx, id, note, s.now())
}

// Delete removes a credential after the caller echoes back its exact current
// label. Ids are not human-memorable and deletion is irreversible; the label
// echo is the safety rail, not an authorization mechanism.
func (s *Service) Delete(ctx context.Context, id, labelConfirmation string) error {
	rec, err := s.storage.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if rec.Label != labelConfirmation {
		return ErrLabelMismatch
	}

	if err := s.storage.Delete(ctx, id); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "credential deleted", slog.String("label", rec.Label))
	return nil
}

// ExportURI rebuilds the otpauth:// URI of a stored credential so it can be
// re-enrolled elsewhere. Reveal-class operation: it discloses the secret and
// must stay behind the same gate as code generation.
func (s *Service) ExportURI(ctx context.Context, id string) (string, error) {
	rec, err := s.storage.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return totp.BuildURI(rec.Label, rec.Issuer, rec.Secret, rec.Params()), nil
}
