package repos

import (
  "context"
  "errors"
  "gorm.io/gorm"
  "gorm.io/gorm/clause"
  "github.com/botvine/huddle/internal/logger"
  "github.com/botvine/huddle/internal/types"
)

type ConversationThreadRepo interface {
  Get(ctx context.Context, tx *gorm.DB, channelID, threadTS string) (*types.ConversationThread, error)
  Upsert(ctx context.Context, tx *gorm.DB, thread *types.ConversationThread) (*types.ConversationThread, error)
}

type conversationThreadRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewConversationThreadRepo(db *gorm.DB, baseLog *logger.Logger) ConversationThreadRepo {
  return &conversationThreadRepo{db: db, log: baseLog.With("repo", "ConversationThreadRepo")}
}

func (r *conversationThreadRepo) Get(ctx context.Context, tx *gorm.DB, channelID, threadTS string) (*types.ConversationThread, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var result types.ConversationThread
  err := transaction.WithContext(ctx).
    Where("channel_id = ? AND thread_ts = ?", channelID, threadTS).
    First(&result).Error
  if errors.Is(err, gorm.ErrRecordNotFound) {
    return nil, nil
  }
  if err != nil {
    return nil, err
  }
  return &result, nil
}

func (r *conversationThreadRepo) Upsert(ctx context.Context, tx *gorm.DB, thread *types.ConversationThread) (*types.ConversationThread, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if thread == nil {
    return nil, errors.New("nil thread")
  }
  err := transaction.WithContext(ctx).
    Clauses(clause.OnConflict{
      Columns:   []clause.Column{{Name: "channel_id"}, {Name: "thread_ts"}},
      DoUpdates: clause.AssignmentColumns([]string{"conversation_id", "updated_at"}),
    }).
    Create(thread).Error
  if err != nil {
    return nil, err
  }
  return thread, nil
}
