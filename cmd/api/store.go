package main

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/hamed0406/alertapi/internal/config"
	"github.com/hamed0406/alertapi/internal/metrics"
	"github.com/hamed0406/alertapi/internal/repo"
	"github.com/hamed0406/alertapi/internal/repo/memory"
	"github.com/hamed0406/alertapi/internal/repo/mysql"
	"github.com/hamed0406/alertapi/internal/repo/postgres"
)

type store interface {
	repo.AlertStore
	repo.SchemaInitializer
}

func openStore(ctx context.Context, cfg config.DBConfig, log *zap.Logger, m *metrics.Metrics) (store, error) {
	switch cfg.Driver {
	case config.DriverMySQL:
		s, err := mysql.New(mysql.Config{
			Host:     cfg.Host,
			Port:     cfg.Port,
			User:     cfg.User,
			Password: cfg.Password,
			Database: cfg.Name,
			PoolSize: cfg.PoolSize,
			DSN:      cfg.URL,
		}, log, m)
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
		return s, nil
	case config.DriverPostgres:
		dsn := cfg.URL
		if dsn == "" {
			u := url.URL{
				Scheme:   "postgres",
				User:     url.UserPassword(cfg.User, cfg.Password),
				Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
				Path:     "/" + cfg.Name,
				RawQuery: "sslmode=disable",
			}
			dsn = u.String()
		}
		s, err := postgres.New(ctx, dsn, cfg.PoolSize, log, m)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return s, nil
	case config.DriverMemory:
		log.Warn("memory_store_in_use", zap.String("note", "alerts are lost on restart"))
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.Driver)
	}
}
