package types

import (
  "time"
  "gorm.io/datatypes"
  "gorm.io/gorm"
  "github.com/google/uuid"
)

type AICallLog struct {
  ID            uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
  SlackUserID   string            `gorm:"index;column:slack_user_id" json:"slack_user_id"`
  CallType      string            `gorm:"column:call_type;not null" json:"call_type"`
  Model         string            `gorm:"column:model;not null" json:"model"`
  Prompt        string            `gorm:"column:prompt" json:"prompt"`
  Response      string            `gorm:"column:response" json:"response"`
  Success       bool              `gorm:"column:success;not null" json:"success"`
  Error         string            `gorm:"column:error" json:"error"`
  Usage         datatypes.JSON    `gorm:"column:usage" json:"usage"`
  CreatedAt     time.Time         `gorm:"not null" json:"created_at"`
  UpdatedAt     time.Time         `gorm:"not null" json:"updated_at"`
  DeletedAt     gorm.DeletedAt    `gorm:"index" json:"deleted_at,omitempty"`
}

func (AICallLog) TableName() string {
  return "ai_call_log"
}

func (a *AICallLog) BeforeCreate(tx *gorm.DB) error {
  if a.ID == uuid.Nil {
    a.ID = uuid.New()
  }
  return nil
}
