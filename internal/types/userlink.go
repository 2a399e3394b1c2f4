package types

import (
  "time"
  "gorm.io/datatypes"
  "gorm.io/gorm"
  "github.com/google/uuid"
)

// UserLink ties a Slack user to the Google account they authorized.
type UserLink struct {
  ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
  SlackUserID   string          `gorm:"uniqueIndex;not null;column:slack_user_id" json:"slack_user_id"`
  GoogleEmail   string          `gorm:"column:google_email" json:"google_email"`
  Token         datatypes.JSON  `gorm:"column:token" json:"-"`
  TokenExpiry   time.Time       `gorm:"column:token_expiry" json:"token_expiry"`
  CreatedAt     time.Time       `gorm:"not null" json:"created_at"`
  UpdatedAt     time.Time       `gorm:"not null" json:"updated_at"`
  DeletedAt     gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

func (UserLink) TableName() string {
  return "user_link"
}

func (u *UserLink) BeforeCreate(tx *gorm.DB) error {
  if u.ID == uuid.Nil {
    u.ID = uuid.New()
  }
  return nil
}
