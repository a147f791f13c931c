package uuid

import (
	"database/sql/driver"
	"fmt"

	"github.com/google/uuid"
)

// UUID is a thin wrapper around google's uuid.UUID that implements database
// scanning and driver.Value interfaces. It is stored as BINARY(16).
type UUID uuid.UUID

// Nil is the zero UUID.
var Nil = UUID(uuid.Nil)

// ownerNamespace scopes the name-based UUIDs derived from caller identities.
var ownerNamespace = uuid.MustParse("6f1c1c9e-5a0e-4d3b-9a57-3f5e2d7c8b41")

// NewUUID creates a new random UUID.
func NewUUID() UUID {
	return UUID(uuid.New())
}

// Parse parses the textual form of a UUID.
func Parse(s string) (UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return Nil, err
	}
	return UUID(id), nil
}

// ForOwner returns the stable, name-based UUID of an owner identity.
func ForOwner(ownerID string) UUID {
	return UUID(uuid.NewSHA1(ownerNamespace, []byte(ownerID)))
}

func (u UUID) String() string {
	return uuid.UUID(u).String()
}

func (u *UUID) Scan(src interface{}) error {
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("UUID.Scan: expected []byte, got %T", src)
	}
	id, err := uuid.FromBytes(b)
	if err != nil {
		return err
	}
	*u = UUID(id)
	return nil
}

func (u UUID) Value() (driver.Value, error) {
	return uuid.UUID(u).MarshalBinary()
}

func (u UUID) MarshalText() ([]byte, error) {
	return []byte(uuid.UUID(u).String()), nil
}

func (u *UUID) UnmarshalText(text []byte) error {
	parsed, err := uuid.ParseBytes(text)
	if err != nil {
		return err
	}
	*u = UUID(parsed)
	return nil
}
