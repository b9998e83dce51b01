package source

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/esg-engine/internal/model"
)

// LoadOptions bounds a load.
type LoadOptions struct {
	YearFrom    int
	YearTo      int
	Concurrency int
	// ContinueOnError records per-firm failures instead of aborting.
	ContinueOnError bool
}

// Dataset is the engine input: firms plus their raw assessments, per firm in
// source order.
type Dataset struct {
	Firms       []model.Firm                     `json:"firms"`
	Assessments map[string][]model.RawAssessment `json:"assessments"`
	Failed      []string                         `json:"failed,omitempty"`
}

// AssessmentCount returns the number of raw assessments held.
func (d *Dataset) AssessmentCount() int {
	n := 0
	for _, list := range d.Assessments {
		n += len(list)
	}
	return n
}

// Load reads every firm and its assessments. Bulk sources are read in one
// call; others fan out one request per firm, at most opts.Concurrency at a
// time.
func Load(ctx context.Context, src Source, opts LoadOptions) (*Dataset, error) {
	firms, err := src.ListFirms(ctx)
	if err != nil {
		return nil, eris.Wrapf(err, "source: list firms from %s", src.Name())
	}

	ds := &Dataset{Firms: firms}
	log := zap.L().With(zap.String("source", src.Name()))

	if bulk, ok := src.(BulkSource); ok {
		byFirm, err := bulk.AllAssessments(ctx, opts.YearFrom, opts.YearTo)
		if err != nil {
			return nil, eris.Wrapf(err, "source: list assessments from %s", src.Name())
		}
		ds.Assessments = byFirm
		log.Info("source: loaded", zap.Int("firms", len(firms)), zap.Int("assessments", ds.AssessmentCount()))
		return ds, nil
	}

	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var (
		mu      sync.Mutex
		byFirm  = make(map[string][]model.RawAssessment, len(firms))
		failed  []string
		fetched atomic.Int64
	)

	for _, f := range firms {
		id := f.ID
		g.Go(func() error {
			list, err := src.ListAssessments(gctx, id, opts.YearFrom, opts.YearTo)
			if err != nil {
				if !opts.ContinueOnError || gctx.Err() != nil {
					return eris.Wrapf(err, "source: assessments for firm %s", id)
				}
				log.Error("source: firm assessments failed", zap.String("firm_id", id), zap.Error(err))
				mu.Lock()
				failed = append(failed, id)
				mu.Unlock()
				return nil
			}

			fetched.Add(int64(len(list)))
			if len(list) == 0 {
				return nil
			}
			mu.Lock()
			byFirm[id] = list
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.Sort(failed)
	ds.Assessments = byFirm
	ds.Failed = failed
	log.Info("source: loaded",
		zap.Int("firms", len(firms)),
		zap.Int64("assessments", fetched.Load()),
		zap.Int("failed", len(failed)),
		zap.Int("concurrency", concurrency),
	)
	return ds, nil
}
