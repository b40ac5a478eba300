package models

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ShortIDLength is the length of the human-readable invite code.
const ShortIDLength = 6

const shortIDAlphabet = "abcdefghijklmnopqrstuvwxyz1234567890"

// Invite is a single-use admission token for a plan. The code is only
// meaningful within its plan; the unique index still keeps codes
// globally distinct so a code never resolves ambiguously.
type Invite struct {
	UUID      uuid.UUID `gorm:"type:uuid;column:uuid;primaryKey" json:"uuid"`
	ShortID   string    `gorm:"column:short_id;size:16;not null;uniqueIndex" json:"short_id"`
	PlanUUID  uuid.UUID `gorm:"type:uuid;column:plan_uuid;not null;index" json:"plan_uuid"`
	Cancelled bool      `gorm:"not null;default:false" json:"cancelled"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewInvite(shortID string, planUUID uuid.UUID, expiresAt time.Time) *Invite {
	return &Invite{
		UUID:      uuid.New(),
		ShortID:   shortID,
		PlanUUID:  planUUID,
		ExpiresAt: expiresAt,
	}
}

// Usable reports whether the invite can still admit someone: not
// cancelled and not past its expiry instant.
func (i *Invite) Usable(now time.Time) bool {
	return !i.Cancelled && now.Before(i.ExpiresAt)
}

// RandomShortID draws a 6 character code from the lowercase
// alphanumeric alphabet using crypto/rand. Bytes of 252 and above are
// rejected so every character is equally likely (252 is the largest
// multiple of 36 that fits in a byte).
func RandomShortID() (string, error) {
	const limit = 252

	code := make([]byte, 0, ShortIDLength)
	buf := make([]byte, 1)
	for len(code) < ShortIDLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		if buf[0] >= limit {
			continue
		}
		code = append(code, shortIDAlphabet[int(buf[0])%len(shortIDAlphabet)])
	}
	return string(code), nil
}

func (Invite) TableName() string {
	return "invites"
}
