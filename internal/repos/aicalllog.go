package repos

import (
  "context"
  "gorm.io/gorm"
  "github.com/botvine/huddle/internal/logger"
  "github.com/botvine/huddle/internal/types"
)

type AICallLogRepo interface {
  Create(ctx context.Context, tx *gorm.DB, entry *types.AICallLog) error
}

type aiCallLogRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewAICallLogRepo(db *gorm.DB, baseLog *logger.Logger) AICallLogRepo {
  return &aiCallLogRepo{db: db, log: baseLog.With("repo", "AICallLogRepo")}
}

func (r *aiCallLogRepo) Create(ctx context.Context, tx *gorm.DB, entry *types.AICallLog) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if entry == nil {
    return nil
  }
  return transaction.WithContext(ctx).Create(entry).Error
}
