package fusion

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/salvocorp/rankcore/internal/algorithm"
	"github.com/salvocorp/rankcore/internal/query"
	"github.com/salvocorp/rankcore/internal/topk"
	"github.com/salvocorp/rankcore/pkg/errors"
	"github.com/salvocorp/rankcore/pkg/tracing"
)

// Driver runs the two selectable multi-query fusion strategies of §4.4.
type Driver struct {
	Evaluator *Evaluator
	// PoolSize bounds the number of concurrent per-variant workers; 0
	// defaults to runtime.GOMAXPROCS(0), per §9's redesign note preferring
	// a hardware-concurrency-sized pool over one goroutine per variant.
	PoolSize int
}

func (d *Driver) poolSize() int {
	if d.PoolSize > 0 {
		return d.PoolSize
	}
	return runtime.GOMAXPROCS(0)
}

// CombSUM runs every variant of mq independently on its own worker (§5:
// "variants run on separate workers... share only the read-only index,
// wand data, and scorer; each constructs its own cursors and its own
// TopKQueue"), joins before fusing, and sums per-docid scores in input
// order of variants (Open Question #2's resolved canonical order).
func (d *Driver) CombSUM(ctx context.Context, mq query.MultiQuery, perVariantK int, fusedK int, algo algorithm.Name) ([]topk.Entry, error) {
	if len(mq.Variants) == 0 {
		return nil, fmt.Errorf("%w: %s", errors.ErrEmptyMultiQuery, mq.Id)
	}
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "fusion.CombSUM", mq.Id)
	span.SetAttr("algorithm", string(algo))
	span.SetAttr("variants", len(mq.Variants))
	defer span.End()

	results := make([][]topk.Entry, len(mq.Variants))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(d.poolSize())
	for i, variant := range mq.Variants {
		i, variant := i, variant
		g.Go(func() error {
			_, childSpan := tracing.StartChildSpan(ctx, fmt.Sprintf("variant[%d]", i))
			childSpan.SetAttr("terms", len(variant.Terms))
			defer childSpan.End()
			res, err := d.Evaluator.Eval(variant, algo, perVariantK)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if d.Evaluator.Metrics != nil {
			d.Evaluator.Metrics.WorkerFailuresTotal.Inc()
		}
		return nil, fmt.Errorf("%w: %v", errors.ErrWorkerFailure, err)
	}

	accum := make(map[topk.DocId]float64)
	var order []topk.DocId
	for _, res := range results {
		for _, e := range res {
			if _, seen := accum[e.DocId]; !seen {
				order = append(order, e.DocId)
			}
			accum[e.DocId] += e.Score
		}
	}

	fused := topk.New(fusedK)
	for _, docid := range order {
		fused.Insert(accum[docid], docid)
	}
	fused.Finalize()
	out := fused.TopK()
	if d.Evaluator.Metrics != nil {
		d.Evaluator.Metrics.FusedQueryLatency.Observe(time.Since(start).Seconds())
		d.Evaluator.Metrics.TopKResultsCount.Observe(float64(len(out)))
	}
	return out, nil
}

// SPCS collapses every variant of mq into a single concatenated Query
// (internal/query.Flatten) and evaluates it once, per §4.4's "Alternative
// driver". For single-term variants this is equivalent to CombSUM
// (property 7).
func (d *Driver) SPCS(mq query.MultiQuery, k int, algo algorithm.Name) ([]topk.Entry, error) {
	if len(mq.Variants) == 0 {
		return nil, fmt.Errorf("%w: %s", errors.ErrEmptyMultiQuery, mq.Id)
	}
	flat := query.Flatten(mq)
	return d.Evaluator.Eval(flat, algo, k)
}
