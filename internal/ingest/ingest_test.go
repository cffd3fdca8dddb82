package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hamed0406/alertapi/internal/metrics"
	"github.com/hamed0406/alertapi/internal/repo/memory"
)

func raws(items ...string) []json.RawMessage {
	out := make([]json.RawMessage, len(items))
	for i, s := range items {
		out[i] = json.RawMessage(s)
	}
	return out
}

func TestProcess_AllInsertedInOrder(t *testing.T) {
	store := memory.New()
	ing := NewIngester(store, zap.NewNop(), nil)

	res := ing.Process(context.Background(), raws(
		`{"status":"firing","labels":{"alertname":"A"}}`,
		`{"status":"resolved","labels":{"alertname":"B"},"startsAt":"2025-08-18T12:00:00Z","endsAt":"2025-08-18T12:01:00Z"}`,
		`{}`,
	))

	assert.Equal(t, 3, res.Processed)
	require.Len(t, res.Inserted, 3)
	assert.Empty(t, res.Failures)
	assert.NoError(t, res.Err())

	assert.Equal(t, "A", res.Inserted[0].AlertName)
	assert.Equal(t, "B", res.Inserted[1].AlertName)
	assert.Equal(t, "Unknown Alert", res.Inserted[2].AlertName)
	assert.Equal(t, "unknown", res.Inserted[2].AlertState)
	assert.Less(t, res.Inserted[0].ID, res.Inserted[1].ID)
	assert.Less(t, res.Inserted[1].ID, res.Inserted[2].ID)
	assert.Equal(t, 3, store.Len())
}

func TestProcess_PartialFailureContinues(t *testing.T) {
	store := memory.New()
	boom := errors.New("connection reset")
	store.FailInsert(2, boom) // second Insert call: the "insert-fails" item

	core, logs := observer.New(zap.WarnLevel)
	reg := prometheus.NewRegistry()
	ing := NewIngester(store, zap.New(core), metrics.New(reg))

	res := ing.Process(context.Background(), raws(
		`{"labels":{"alertname":"ok-1"}}`,
		`"not an object"`,
		`{"labels":{"alertname":"insert-fails"}}`,
		`{"startsAt":"garbage"}`,
		`{"labels":{"alertname":"ok-2"}}`,
	))

	assert.Equal(t, 5, res.Processed)
	require.Len(t, res.Inserted, 2)
	assert.Equal(t, "ok-1", res.Inserted[0].AlertName)
	assert.Equal(t, "ok-2", res.Inserted[1].AlertName)
	assert.Equal(t, 2, store.Len())

	require.Len(t, res.Failures, 3)
	assert.Equal(t, 1, res.Failures[0].Index)
	assert.Equal(t, KindDecode, res.Failures[0].Kind)
	assert.Equal(t, 2, res.Failures[1].Index)
	assert.Equal(t, KindStore, res.Failures[1].Kind)
	assert.ErrorIs(t, res.Failures[1], boom)
	assert.Equal(t, 3, res.Failures[2].Index)
	assert.Equal(t, KindNormalize, res.Failures[2].Kind)

	err := res.Err()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 3)
	assert.ErrorIs(t, err, boom)

	failed := logs.FilterMessage("alert_failed").All()
	require.Len(t, failed, 3)
	assert.Equal(t, `"not an object"`, failed[0].ContextMap()["alert"])
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "decode", KindDecode.String())
	assert.Equal(t, "normalize", KindNormalize.String())
	assert.Equal(t, "store", KindStore.String())
	assert.Equal(t, "unknown", Kind(0).String())
}
