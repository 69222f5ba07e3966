// Package ingest merges freshly fetched state vectors into the store.
package ingest

import (
	"context"

	"github.com/bitmark-inc/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vjranagit/isstracker/pkg/fault"
	"github.com/vjranagit/isstracker/pkg/feed"
	"github.com/vjranagit/isstracker/pkg/storage"
	"github.com/vjranagit/isstracker/pkg/types"
)

var upsertTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "isstracker_ingest_upserts_total",
	Help: "State vector upserts by outcome",
}, []string{"outcome"})

// Reconciler merges feed samples into a store
type Reconciler struct {
	store  storage.Storage
	source feed.Source
	log    *logger.L
}

// NewReconciler creates a reconciler; source may be nil when only
// Reconcile is used
func NewReconciler(store storage.Storage, source feed.Source) *Reconciler {
	return &Reconciler{
		store:  store,
		source: source,
		log:    logger.New("ingest"),
	}
}

// Reconcile upserts samples in feed order. New epochs are appended to
// the index in that order. The first failing upsert aborts the batch;
// the report then counts what was merged before it and the error is a
// *fault.PartialIngestError.
func (r *Reconciler) Reconcile(samples []types.StateVector) (types.ReconcileReport, error) {
	report := types.ReconcileReport{}
	if len(samples) == 0 {
		return report, &fault.IngestError{Err: fault.ErrEmptyFeed}
	}

	for i := range samples {
		sv := &samples[i]
		result, err := r.store.UpsertIfChanged(sv.Epoch, sv)
		if err != nil {
			upsertTotal.WithLabelValues("error").Inc()
			if fault.IsErrCorrupt(err) {
				r.log.Criticalf("reconcile aborted at %s after %d samples: %s", sv.Epoch, report.Processed(), err)
			} else {
				r.log.Errorf("reconcile aborted at %s after %d samples: %s", sv.Epoch, report.Processed(), err)
			}
			return report, &fault.PartialIngestError{Processed: report.Processed(), Key: sv.Epoch, Err: err}
		}
		upsertTotal.WithLabelValues(result.String()).Inc()
		report.Add(result)
	}

	r.log.Infof("reconciled %d samples: %d inserted, %d updated, %d unchanged",
		report.Processed(), report.Inserted, report.Updated, report.Unchanged)
	return report, nil
}

// Refresh pulls the feed and reconciles it
func (r *Reconciler) Refresh(ctx context.Context) (types.ReconcileReport, error) {
	if r.source == nil {
		return types.ReconcileReport{}, &fault.IngestError{Err: fault.ErrNoSource}
	}

	samples, err := r.source.Fetch(ctx)
	if err != nil {
		return types.ReconcileReport{}, &fault.IngestError{Err: err}
	}
	return r.Reconcile(samples)
}
