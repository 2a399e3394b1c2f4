package repos

import (
  "context"
  "errors"
  "gorm.io/gorm"
  "github.com/botvine/huddle/internal/logger"
  "github.com/botvine/huddle/internal/types"
)

type MeetingRepo interface {
  Create(ctx context.Context, tx *gorm.DB, meeting *types.Meeting) (*types.Meeting, error)
}

type meetingRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewMeetingRepo(db *gorm.DB, baseLog *logger.Logger) MeetingRepo {
  return &meetingRepo{db: db, log: baseLog.With("repo", "MeetingRepo")}
}

func (r *meetingRepo) Create(ctx context.Context, tx *gorm.DB, meeting *types.Meeting) (*types.Meeting, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if meeting == nil {
    return nil, errors.New("nil meeting")
  }
  if err := transaction.WithContext(ctx).Create(meeting).Error; err != nil {
    return nil, err
  }
  return meeting, nil
}
