package types

import (
  "time"
  "gorm.io/gorm"
  "github.com/google/uuid"
)

// ConversationThread maps a Slack thread (or DM channel) to the OpenAI
// conversation that carries its context across turns.
type ConversationThread struct {
  ID              uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
  ChannelID       string      `gorm:"uniqueIndex:idx_thread;not null;column:channel_id" json:"channel_id"`
  ThreadTS        string      `gorm:"uniqueIndex:idx_thread;column:thread_ts" json:"thread_ts"`
  ConversationID  string      `gorm:"not null;column:conversation_id" json:"conversation_id"`
  CreatedAt       time.Time       `gorm:"not null" json:"created_at"`
  UpdatedAt       time.Time       `gorm:"not null" json:"updated_at"`
  DeletedAt       gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

func (ConversationThread) TableName() string {
  return "conversation_thread"
}

func (c *ConversationThread) BeforeCreate(tx *gorm.DB) error {
  if c.ID == uuid.Nil {
    c.ID = uuid.New()
  }
  return nil
}
