package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/alertapi/internal/domain"
	"github.com/hamed0406/alertapi/internal/metrics"
	"github.com/hamed0406/alertapi/internal/repo"
)

var _ repo.AlertStore = (*Store)(nil)
var _ repo.SchemaInitializer = (*Store)(nil)

type Store struct {
	pool    *pgxpool.Pool
	log     *zap.Logger
	metrics *metrics.Metrics
}

// New builds the pool. poolSize <= 0 keeps the pgxpool default. Connections
// are established lazily, so an unreachable server surfaces on Ping.
func New(ctx context.Context, dsn string, poolSize int, log *zap.Logger, m *metrics.Metrics) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.ParseConfig: %w", err)
	}
	if poolSize > 0 {
		cfg.MaxConns = int32(poolSize)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{pool: pool, log: log, metrics: m}, nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	defer s.metrics.ObserveDB("ping", time.Now())
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()
	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS alerts (
  id            BIGSERIAL PRIMARY KEY,
  alert_name    VARCHAR(255) NOT NULL,
  alert_state   VARCHAR(50)  NOT NULL,
  alert_message TEXT,
  rule_id       VARCHAR(255),
  rule_name     VARCHAR(255),
  rule_url      TEXT,
  dashboard_id  VARCHAR(255),
  panel_id      VARCHAR(255),
  tags          TEXT,
  alert_values  TEXT,
  generator_url TEXT,
  fingerprint   VARCHAR(255),
  silence_url   TEXT,
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
  fired_at      TIMESTAMPTZ NULL,
  resolved_at   TIMESTAMPTZ NULL
);

CREATE INDEX IF NOT EXISTS idx_alert_state ON alerts (alert_state);
CREATE INDEX IF NOT EXISTS idx_created_at  ON alerts (created_at);
CREATE INDEX IF NOT EXISTS idx_alert_name  ON alerts (alert_name);
`

func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		s.log.Error("schema_init_failed", zap.Error(err))
		return fmt.Errorf("create alerts table: %w", err)
	}
	s.log.Info("schema_ready", zap.String("table", "alerts"))
	return nil
}

func (s *Store) Insert(ctx context.Context, rec *domain.AlertRecord) (int64, error) {
	defer s.metrics.ObserveDB("insert", time.Now())
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO alerts
		   (alert_name, alert_state, alert_message, rule_id, rule_name, rule_url,
		    dashboard_id, panel_id, tags, alert_values, generator_url, fingerprint,
		    silence_url, fired_at, resolved_at)
		 VALUES
		   ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 RETURNING id`,
		rec.AlertName, rec.AlertState, rec.AlertMessage, rec.RuleID, rec.RuleName, rec.RuleURL,
		rec.DashboardID, rec.PanelID, rec.Tags, rec.AlertValues, rec.GeneratorURL, rec.Fingerprint,
		rec.SilenceURL, rec.FiredAt, rec.ResolvedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert alert: %w", err)
	}
	rec.ID = id
	return id, nil
}

func (s *Store) Recent(ctx context.Context, limit int) ([]domain.AlertRecord, error) {
	defer s.metrics.ObserveDB("recent", time.Now())
	rows, err := s.pool.Query(ctx, `
SELECT id, alert_name, alert_state, alert_message, rule_id, rule_name, rule_url,
       dashboard_id, panel_id, COALESCE(tags, ''), COALESCE(alert_values, ''),
       generator_url, fingerprint, silence_url, created_at, fired_at, resolved_at
  FROM alerts
 ORDER BY created_at DESC, id DESC
 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent alerts: %w", err)
	}
	defer rows.Close()

	out := make([]domain.AlertRecord, 0, min(limit, 256))
	for rows.Next() {
		var r domain.AlertRecord
		if err := rows.Scan(
			&r.ID, &r.AlertName, &r.AlertState, &r.AlertMessage, &r.RuleID, &r.RuleName, &r.RuleURL,
			&r.DashboardID, &r.PanelID, &r.Tags, &r.AlertValues,
			&r.GeneratorURL, &r.Fingerprint, &r.SilenceURL, &r.CreatedAt, &r.FiredAt, &r.ResolvedAt,
		); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
