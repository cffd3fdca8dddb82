package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/alertapi/internal/domain"
	"github.com/hamed0406/alertapi/internal/metrics"
	"github.com/hamed0406/alertapi/internal/repo"
)

// Kind classifies why a single alert was dropped from a batch.
type Kind int

const (
	KindDecode Kind = iota + 1
	KindNormalize
	KindStore
)

func (k Kind) String() string {
	switch k {
	case KindDecode:
		return "decode"
	case KindNormalize:
		return "normalize"
	case KindStore:
		return "store"
	default:
		return "unknown"
	}
}

// Failure is one alert that could not be persisted.
type Failure struct {
	Index int
	Kind  Kind
	Err   error
	Raw   json.RawMessage
}

func (f Failure) Error() string {
	return fmt.Sprintf("alert %d (%s): %v", f.Index, f.Kind, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Result is the outcome of one batch. Inserted keeps input order.
type Result struct {
	Processed int
	Inserted  []domain.InsertedAlert
	Failures  []Failure
}

// Err combines every per-item failure, or returns nil if all alerts were stored.
func (r Result) Err() error {
	var err error
	for _, f := range r.Failures {
		err = multierr.Append(err, f)
	}
	return err
}

type Ingester struct {
	Store   repo.AlertStore
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

func NewIngester(store repo.AlertStore, log *zap.Logger, m *metrics.Metrics) *Ingester {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ingester{Store: store, Logger: log, Metrics: m}
}

// Process handles the batch strictly in order, one insert at a time. A failing
// item is logged and skipped; it never stops the rest of the batch.
func (in *Ingester) Process(ctx context.Context, items []json.RawMessage) Result {
	res := Result{
		Processed: len(items),
		Inserted:  make([]domain.InsertedAlert, 0, len(items)),
	}
	in.Metrics.Received(len(items))

	for i, raw := range items {
		ins, f := in.processOne(ctx, i, raw)
		if f != nil {
			res.Failures = append(res.Failures, *f)
			in.Metrics.Failed(f.Kind.String())
			in.Logger.Warn("alert_failed",
				zap.Int("index", f.Index),
				zap.Stringer("kind", f.Kind),
				zap.Error(f.Err),
				zap.ByteString("alert", raw),
			)
			continue
		}
		res.Inserted = append(res.Inserted, ins)
		in.Metrics.Inserted()
		in.Logger.Info("alert_inserted",
			zap.Int64("id", ins.ID),
			zap.String("alert_name", ins.AlertName),
			zap.String("alert_state", ins.AlertState),
		)
	}
	return res
}

func (in *Ingester) processOne(ctx context.Context, i int, raw json.RawMessage) (domain.InsertedAlert, *Failure) {
	input, err := Decode(raw)
	if err != nil {
		return domain.InsertedAlert{}, &Failure{Index: i, Kind: KindDecode, Err: err, Raw: raw}
	}
	rec, err := Normalize(input)
	if err != nil {
		return domain.InsertedAlert{}, &Failure{Index: i, Kind: KindNormalize, Err: err, Raw: raw}
	}
	id, err := in.Store.Insert(ctx, &rec)
	if err != nil {
		return domain.InsertedAlert{}, &Failure{Index: i, Kind: KindStore, Err: err, Raw: raw}
	}
	return domain.InsertedAlert{ID: id, AlertName: rec.AlertName, AlertState: rec.AlertState}, nil
}
