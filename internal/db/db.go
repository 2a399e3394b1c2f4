package db

import (
  "fmt"
  "strings"
  "gorm.io/driver/postgres"
  "gorm.io/driver/sqlite"
  "gorm.io/gorm"
  gormlogger "gorm.io/gorm/logger"
  "github.com/botvine/huddle/internal/types"
  "github.com/botvine/huddle/internal/utils"
  "github.com/botvine/huddle/internal/logger"
)

type Service struct {
  db  *gorm.DB
  log *logger.Logger
}

// New opens the bot's store. DB_DRIVER selects postgres or sqlite;
// sqlite is the default so a fresh checkout runs with zero setup.
func New(log *logger.Logger) (*Service, error) {
  serviceLog := log.With("service", "DBService")

  driver := strings.ToLower(utils.GetEnv("DB_DRIVER", "sqlite", log))

  var dialector gorm.Dialector
  switch driver {
  case "postgres":
    host := utils.GetEnv("POSTGRES_HOST", "localhost", log)
    port := utils.GetEnv("POSTGRES_PORT", "5432", log)
    user := utils.GetEnv("POSTGRES_USER", "postgres", log)
    password := utils.GetEnv("POSTGRES_PASSWORD", "", log)
    name := utils.GetEnv("POSTGRES_NAME", "huddle", log)
    dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)
    dialector = postgres.Open(dsn)
  case "sqlite":
    path := utils.GetEnv("SQLITE_PATH", "huddle.db", log)
    dialector = sqlite.Open(path)
  default:
    return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
  }

  log.Info("Connecting to database...", "driver", driver)
  gdb, err := gorm.Open(dialector, &gorm.Config{
    DisableForeignKeyConstraintWhenMigrating: true,
    Logger: gormlogger.Default.LogMode(gormlogger.Silent),
  })
  if err != nil {
    log.Error("Failed to connect to database", "driver", driver, "error", err)
    return nil, fmt.Errorf("connect %s: %w", driver, err)
  }

  return &Service{db: gdb, log: serviceLog}, nil
}

func (s *Service) AutoMigrateAll() error {
  s.log.Info("Auto migrating tables...")
  err := s.db.AutoMigrate(
    &types.UserLink{},
    &types.Meeting{},
    &types.ConversationThread{},
    &types.AICallLog{},
  )
  if err != nil {
    s.log.Error("Auto migration failed", "error", err)
    return err
  }
  return nil
}

func (s *Service) DB() *gorm.DB {
  return s.db
}
