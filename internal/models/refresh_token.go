package models

import (
	"time"

	"github.com/google/uuid"
)

type RefreshToken struct {
	UUID      uuid.UUID `gorm:"type:uuid;column:uuid;primaryKey" json:"uuid"`
	UserUUID  uuid.UUID `gorm:"type:uuid;column:user_uuid;not null;index" json:"user_uuid"`
	TokenHash string    `gorm:"uniqueIndex;not null;size:64" json:"-"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null" json:"expires_at"`
	Revoked   bool      `gorm:"default:false" json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}
