package db

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/skillhub-backend/internal/platform/logger"
	"github.com/yungbote/skillhub-backend/internal/utils"
)

const (
	connectAttempts = 5
	connectBackoff  = 2 * time.Second
)

// PostgresConfig is read from POSTGRES_* variables.
type PostgresConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

func LoadPostgresConfig(log *logger.Logger) PostgresConfig {
	return PostgresConfig{
		Host:         utils.GetEnv("POSTGRES_HOST", "localhost", log),
		Port:         utils.GetEnv("POSTGRES_PORT", "5432", log),
		User:         utils.GetEnv("POSTGRES_USER", "postgres", log),
		Password:     utils.GetEnv("POSTGRES_PASSWORD", "", log),
		Name:         utils.GetEnv("POSTGRES_NAME", "skillhub", log),
		SSLMode:      utils.GetEnv("POSTGRES_SSLMODE", "disable", log),
		MaxOpenConns: utils.GetEnvAsInt("POSTGRES_MAX_OPEN_CONNS", 20, log),
		MaxIdleConns: utils.GetEnvAsInt("POSTGRES_MAX_IDLE_CONNS", 5, log),
	}
}

// DSN escapes credentials so passwords may contain URL delimiters.
func (c PostgresConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewPostgresService connects, retrying while the database is still starting,
// and enables the pgvector extension.
func NewPostgresService(ctx context.Context, log *logger.Logger, cfg PostgresConfig) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	var (
		db  *gorm.DB
		err error
	)
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		db, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
			Logger:                                   newGormLogger(serviceLog),
		})
		if err == nil {
			break
		}
		serviceLog.Warn("Postgres not reachable", "attempt", attempt, "host", cfg.Host, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * connectBackoff):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect postgres %s:%s: %w", cfg.Host, cfg.Port, err)
	}

	if err := db.WithContext(ctx).Exec(`CREATE EXTENSION IF NOT EXISTS vector`).Error; err != nil {
		return nil, fmt.Errorf("enable pgvector extension: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("access sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	serviceLog.Info("Connected to Postgres", "host", cfg.Host, "db", cfg.Name)
	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) DB() *gorm.DB { return s.db }

func (s *PostgresService) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// gormWriter sends gorm's slow query and error lines to zap.
type gormWriter struct {
	log *logger.Logger
}

func (w gormWriter) Printf(format string, args ...any) {
	w.log.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func newGormLogger(log *logger.Logger) gormLogger.Interface {
	return gormLogger.New(gormWriter{log: log.With("component", "gorm")}, gormLogger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  gormLogger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
