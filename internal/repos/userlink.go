package repos

import (
  "context"
  "errors"
  "gorm.io/gorm"
  "gorm.io/gorm/clause"
  "github.com/botvine/huddle/internal/logger"
  "github.com/botvine/huddle/internal/types"
)

type UserLinkRepo interface {
  Upsert(ctx context.Context, tx *gorm.DB, link *types.UserLink) (*types.UserLink, error)
  GetBySlackUserID(ctx context.Context, tx *gorm.DB, slackUserID string) (*types.UserLink, error)
  Delete(ctx context.Context, tx *gorm.DB, slackUserID string) error
}

type userLinkRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewUserLinkRepo(db *gorm.DB, baseLog *logger.Logger) UserLinkRepo {
  return &userLinkRepo{db: db, log: baseLog.With("repo", "UserLinkRepo")}
}

func (r *userLinkRepo) Upsert(ctx context.Context, tx *gorm.DB, link *types.UserLink) (*types.UserLink, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if link == nil {
    return nil, errors.New("nil link")
  }
  err := transaction.WithContext(ctx).
    Clauses(clause.OnConflict{
      Columns:   []clause.Column{{Name: "slack_user_id"}},
      DoUpdates: clause.AssignmentColumns([]string{"google_email", "token", "token_expiry", "updated_at"}),
    }).
    Create(link).Error
  if err != nil {
    return nil, err
  }
  return link, nil
}

func (r *userLinkRepo) GetBySlackUserID(ctx context.Context, tx *gorm.DB, slackUserID string) (*types.UserLink, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var result types.UserLink
  err := transaction.WithContext(ctx).
    Where("slack_user_id = ?", slackUserID).
    First(&result).Error
  if errors.Is(err, gorm.ErrRecordNotFound) {
    return nil, nil
  }
  if err != nil {
    return nil, err
  }
  return &result, nil
}

func (r *userLinkRepo) Delete(ctx context.Context, tx *gorm.DB, slackUserID string) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  return transaction.WithContext(ctx).
    Where("slack_user_id = ?", slackUserID).
    Delete(&types.UserLink{}).Error
}
