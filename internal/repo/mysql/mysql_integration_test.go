//go:build integration

package mysql

// go test -tags=integration ./internal/repo/mysql -count=1

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"
	"go.uber.org/zap"

	"github.com/hamed0406/alertapi/internal/domain"
)

var testStore *Store

func TestMain(m *testing.M) {
	ctx := context.Background()

	ctr, err := tcmysql.Run(ctx, "mysql:8.0",
		tcmysql.WithDatabase("alerts_test"),
		tcmysql.WithUsername("testuser"),
		tcmysql.WithPassword("testpass"),
	)
	if err != nil {
		panic("failed to start MySQL container: " + err.Error())
	}

	dsn, err := ctr.ConnectionString(ctx, "parseTime=true")
	if err != nil {
		_ = ctr.Terminate(context.Background())
		panic("connection string: " + err.Error())
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		_ = ctr.Terminate(context.Background())
		panic("open: " + err.Error())
	}
	db.SetMaxOpenConns(10)
	testStore = NewWithDB(db, zap.NewNop(), nil)

	code := m.Run()

	_ = testStore.Close()
	_ = ctr.Terminate(context.Background())
	os.Exit(code)
}

func reset(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, testStore.InitSchema(ctx))
	_, err := testStore.db.ExecContext(ctx, "TRUNCATE TABLE alerts")
	require.NoError(t, err)
}

func strp(s string) *string { return &s }

func TestMySQL_InitSchemaIsIdempotent(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testStore.InitSchema(ctx))
	require.NoError(t, testStore.InitSchema(ctx))

	var n int
	err := testStore.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM information_schema.columns
		  WHERE table_schema = DATABASE() AND table_name = 'alerts'`).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 17, n, "alerts table should have exactly 17 columns")

	var idx int
	err = testStore.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT index_name) FROM information_schema.statistics
		  WHERE table_schema = DATABASE() AND table_name = 'alerts'
		    AND index_name IN ('idx_alert_state', 'idx_created_at', 'idx_alert_name')`).Scan(&idx)
	require.NoError(t, err)
	assert.Equal(t, 3, idx)
}

func TestMySQL_PingAndInsertRecent(t *testing.T) {
	reset(t)
	ctx := context.Background()
	require.NoError(t, testStore.Ping(ctx))

	fired := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	resolved := fired.Add(5 * time.Minute)

	var ids []int64
	for i, name := range []string{"a", "b", "c", "d", "e"} {
		rec := &domain.AlertRecord{
			AlertName:    name,
			AlertState:   "resolved",
			AlertMessage: strp("summary " + name),
			Tags:         `{"alertname":"` + name + `"}`,
			AlertValues:  `{}`,
			Fingerprint:  strp("fp"),
			FiredAt:      &fired,
		}
		if i == 4 {
			rec.ResolvedAt = &resolved
		}
		id, err := testStore.Insert(ctx, rec)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		assert.Greater(t, ids[i], ids[i-1], "ids should increase")
	}

	got, err := testStore.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "e", got[0].AlertName)
	assert.Equal(t, "d", got[1].AlertName)

	require.NotNil(t, got[0].ResolvedAt)
	assert.True(t, got[0].ResolvedAt.Equal(resolved))
	require.NotNil(t, got[0].FiredAt)
	assert.True(t, got[0].FiredAt.Equal(fired))
	assert.Nil(t, got[1].ResolvedAt)
	assert.Nil(t, got[0].RuleID)
	assert.Equal(t, "fp", *got[0].Fingerprint)
	assert.False(t, got[0].CreatedAt.IsZero())
}

func TestMySQL_DuplicateFingerprintsAreKept(t *testing.T) {
	reset(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := testStore.Insert(ctx, &domain.AlertRecord{
			AlertName: "dup", AlertState: "firing", Tags: "{}", AlertValues: "{}", Fingerprint: strp("same"),
		})
		require.NoError(t, err)
	}
	got, err := testStore.Recent(ctx, 50)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
