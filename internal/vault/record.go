package vault

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/otpvault/otpvault/pkg/totp"
)

// Record is a stored credential: one per label, keyed by an opaque id.
// The secret never leaves the server except through reveal-class operations
// (code generation, QR export); listings strip it unconditionally.
type Record struct {
	ID        bson.ObjectID  `bson:"_id,omitempty"`
	Label     string         `bson:"label"`
	Secret    string         `bson:"secret"`
	Issuer    string         `bson:"issuer"`
	Note      string         `bson:"note,omitempty"`
	Algorithm totp.Algorithm `bson:"algorithm,omitempty"`
	Digits    int            `bson:"digits,omitempty"`
	Period    int            `bson:"period,omitempty"`
	UpdatedAt time.Time      `bson:"updatedAt"`
}

// Params returns the code-derivation parameters of the record with standard
// defaults for records ingested before parameters were stored.
func (r Record) Params() totp.Params {
	return totp.Params{
		Algorithm: r.Algorithm,
		Digits:    r.Digits,
		Period:    r.Period,
	}.WithDefaults()
}

// ListItem is the listing projection of a Record: no secret, no note body.
// The note's presence is signalled so clients can offer the reveal action.
type ListItem struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Issuer    string    `json:"issuer"`
	HasNote   bool      `json:"has_note"`
	UpdatedAt time.Time `json:"updated_at"`
}

// listItem converts a stored record into its listing projection.
func listItem(r Record) ListItem {
	return ListItem{
		ID:        r.ID.Hex(),
		Label:     r.Label,
		Issuer:    r.Issuer,
		HasNote:   r.Note != "",
		UpdatedAt: r.UpdatedAt,
	}
}
