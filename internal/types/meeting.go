package types

import (
  "time"
  "gorm.io/datatypes"
  "gorm.io/gorm"
  "github.com/google/uuid"
)

type Meeting struct {
  ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
  SlackUserID       string          `gorm:"index;not null;column:slack_user_id" json:"slack_user_id"`
  ChannelID         string          `gorm:"column:channel_id" json:"channel_id"`
  Title             string          `gorm:"not null;column:title" json:"title"`
  StartTime         time.Time       `gorm:"not null;column:start_time" json:"start_time"`
  DurationMinutes   int             `gorm:"not null;column:duration_minutes" json:"duration_minutes"`
  Attendees         datatypes.JSON  `gorm:"column:attendees" json:"attendees"`
  CalendarEventID   string          `gorm:"column:calendar_event_id" json:"calendar_event_id"`
  CalendarLink      string          `gorm:"column:calendar_link" json:"calendar_link"`
  VideoLink         string          `gorm:"column:video_link" json:"video_link"`
  CreatedAt         time.Time       `gorm:"not null" json:"created_at"`
  UpdatedAt         time.Time       `gorm:"not null" json:"updated_at"`
  DeletedAt         gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

func (Meeting) TableName() string {
  return "meeting"
}

func (m *Meeting) BeforeCreate(tx *gorm.DB) error {
  if m.ID == uuid.Nil {
    m.ID = uuid.New()
  }
  return nil
}
