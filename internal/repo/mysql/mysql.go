package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/hamed0406/alertapi/internal/domain"
	"github.com/hamed0406/alertapi/internal/metrics"
	"github.com/hamed0406/alertapi/internal/repo"
)

var _ repo.AlertStore = (*Store)(nil)
var _ repo.SchemaInitializer = (*Store)(nil)

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	PoolSize int    // max open connections; waiters queue without limit
	DSN      string // when set, used as-is instead of the fields above
}

// utcSession pins the session zone so TIMESTAMP columns are stored and read as UTC.
const utcSession = "'+00:00'"

// recentPrealloc bounds the initial result capacity; limit itself is unbounded.
const recentPrealloc = 256

// FormatDSN returns the driver DSN. Timestamps are scanned as UTC time.Time.
func (c Config) FormatDSN() (string, error) {
	if c.DSN != "" {
		parsed, err := gomysql.ParseDSN(c.DSN)
		if err != nil {
			return "", fmt.Errorf("parse dsn: %w", err)
		}
		parsed.ParseTime = true
		parsed.Loc = time.UTC
		if parsed.Params == nil {
			parsed.Params = map[string]string{}
		}
		parsed.Params["time_zone"] = utcSession
		return parsed.FormatDSN(), nil
	}
	mc := gomysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	mc.User = c.User
	mc.Passwd = c.Password
	mc.DBName = c.Database
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.Params = map[string]string{"charset": "utf8mb4", "time_zone": utcSession}
	return mc.FormatDSN(), nil
}

type Store struct {
	db      *sql.DB
	log     *zap.Logger
	metrics *metrics.Metrics
}

// New opens the pool. It does not touch the network; use Ping for that.
func New(cfg Config, log *zap.Logger, m *metrics.Metrics) (*Store, error) {
	dsn, err := cfg.FormatDSN()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	if cfg.PoolSize > 0 {
		db.SetMaxOpenConns(cfg.PoolSize)
		db.SetMaxIdleConns(cfg.PoolSize)
	}
	db.SetConnMaxLifetime(5 * time.Minute)
	return NewWithDB(db, log, m), nil
}

// NewWithDB wraps an existing handle, e.g. one owned by a test container.
func NewWithDB(db *sql.DB, log *zap.Logger, m *metrics.Metrics) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, log: log, metrics: m}
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	defer s.metrics.ObserveDB("ping", time.Now())
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()
	if err := conn.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS alerts (
  id INT AUTO_INCREMENT PRIMARY KEY,
  alert_name VARCHAR(255) NOT NULL,
  alert_state VARCHAR(50) NOT NULL,
  alert_message TEXT,
  rule_id VARCHAR(255),
  rule_name VARCHAR(255),
  rule_url TEXT,
  dashboard_id VARCHAR(255),
  panel_id VARCHAR(255),
  tags TEXT,
  alert_values TEXT,
  generator_url TEXT,
  fingerprint VARCHAR(255),
  silence_url TEXT,
  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
  fired_at TIMESTAMP NULL,
  resolved_at TIMESTAMP NULL,
  INDEX idx_alert_state (alert_state),
  INDEX idx_created_at (created_at),
  INDEX idx_alert_name (alert_name)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`

func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		s.log.Error("schema_init_failed", zap.Error(err))
		return fmt.Errorf("create alerts table: %w", err)
	}
	s.log.Info("schema_ready", zap.String("table", "alerts"))
	return nil
}

const insertSQL = `
INSERT INTO alerts (
  alert_name, alert_state, alert_message, rule_id, rule_name, rule_url,
  dashboard_id, panel_id, tags, alert_values, generator_url, fingerprint,
  silence_url, fired_at, resolved_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (s *Store) Insert(ctx context.Context, rec *domain.AlertRecord) (int64, error) {
	defer s.metrics.ObserveDB("insert", time.Now())
	res, err := s.db.ExecContext(ctx, insertSQL,
		rec.AlertName, rec.AlertState, rec.AlertMessage, rec.RuleID, rec.RuleName, rec.RuleURL,
		rec.DashboardID, rec.PanelID, rec.Tags, rec.AlertValues, rec.GeneratorURL, rec.Fingerprint,
		rec.SilenceURL, rec.FiredAt, rec.ResolvedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert alert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	rec.ID = id
	return id, nil
}

const recentSQL = `
SELECT id, alert_name, alert_state, alert_message, rule_id, rule_name, rule_url,
       dashboard_id, panel_id, tags, alert_values, generator_url, fingerprint,
       silence_url, created_at, fired_at, resolved_at
  FROM alerts
 ORDER BY created_at DESC, id DESC
 LIMIT ?`

func (s *Store) Recent(ctx context.Context, limit int) ([]domain.AlertRecord, error) {
	defer s.metrics.ObserveDB("recent", time.Now())
	rows, err := s.db.QueryContext(ctx, recentSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("recent alerts: %w", err)
	}
	defer rows.Close()

	out := make([]domain.AlertRecord, 0, min(limit, recentPrealloc))
	for rows.Next() {
		var (
			r           domain.AlertRecord
			tags, vals  sql.NullString
			createdAt   sql.NullTime
			fired, resd sql.NullTime
		)
		if err := rows.Scan(
			&r.ID, &r.AlertName, &r.AlertState, &r.AlertMessage, &r.RuleID, &r.RuleName, &r.RuleURL,
			&r.DashboardID, &r.PanelID, &tags, &vals, &r.GeneratorURL, &r.Fingerprint,
			&r.SilenceURL, &createdAt, &fired, &resd,
		); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		r.Tags = tags.String
		r.AlertValues = vals.String
		r.CreatedAt = createdAt.Time
		r.FiredAt = nullTime(fired)
		r.ResolvedAt = nullTime(resd)
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
