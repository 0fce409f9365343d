package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yungbote/skillhub-backend/internal/platform/accountlookup"
	"github.com/yungbote/skillhub-backend/internal/platform/logger"
)

type Clients struct {
	// Redis is nil when REDIS_ADDR is unset.
	Redis         *redis.Client
	AccountLookup accountlookup.Client
	HTTP          *http.Client
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	out := Clients{
		AccountLookup: accountlookup.New(accountlookup.Config{
			GitLabURL:    cfg.GitLabURL,
			GitHubAPIURL: cfg.GitHubAPIURL,
		}),
		HTTP: &http.Client{Timeout: 15 * time.Second},
	}

	// Redis
	if addr := strings.TrimSpace(cfg.RedisAddr); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return Clients{}, fmt.Errorf("init redis client: %w", err)
		}
		out.Redis = rdb
	}

	return out, nil
}

func (c Clients) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
