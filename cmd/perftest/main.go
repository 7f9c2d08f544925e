// Command perftest times a ranked-retrieval query stream against a
// flat-file reference index, per spec.md §4.6's timing harness and §6's
// perftest CLI surface.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/salvocorp/rankcore/internal/algorithm"
	"github.com/salvocorp/rankcore/internal/fusion"
	"github.com/salvocorp/rankcore/internal/index"
	"github.com/salvocorp/rankcore/internal/perf"
	"github.com/salvocorp/rankcore/internal/query"
	"github.com/salvocorp/rankcore/internal/scorer"
	"github.com/salvocorp/rankcore/internal/telemetry"
	"github.com/salvocorp/rankcore/internal/wand"
	"github.com/salvocorp/rankcore/pkg/config"
	"github.com/salvocorp/rankcore/pkg/health"
	"github.com/salvocorp/rankcore/pkg/kafka"
	"github.com/salvocorp/rankcore/pkg/logger"
	"github.com/salvocorp/rankcore/pkg/metrics"
)

func main() {
	var (
		indexType   = flag.String("t", "flat", "index type (flat)")
		algoFlag    = flag.String("a", string(algorithm.RankedOrName), "colon-separated list of algorithm names")
		indexPath   = flag.String("i", "", "index directory (vocab.bin/postings.bin/lengths.bin)")
		useWand     = flag.Bool("w", false, "build block-max wand metadata over the index")
		queryPath   = flag.String("q", "-", "query file path ('-' for stdin)")
		scorerName  = flag.String("s", "bm25", "scorer name (bm25, identity)")
		perVariantK = flag.Int("k", 1000, "per-variant top-k")
		fusedK      = flag.Int("z", 1000, "fused top-k")
		runs        = flag.Int("T", 5, "number of timed repetitions (thresholds)")
		extract     = flag.Bool("extract", false, "emit 'qid\\tusec' rows to stdout instead of summary stats")
		silent      = flag.Bool("silent", false, "suppress summary stats on stderr")
		lazyBlock   = flag.Int("lazy-block-size", 0, "ranked-or-taat accumulator block size; 0 selects the dense accumulator")
		configPath  = flag.String("config", "", "optional YAML config enabling telemetry and metrics backends")
	)
	flag.Parse()

	logger.Setup("info", "text")

	if *indexType != "flat" {
		fmt.Fprintf(os.Stderr, "unknown index type %q\n", *indexType)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}
	explicit := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
	if !explicit["k"] {
		*perVariantK = cfg.Fusion.PerVariantK
	}
	if !explicit["z"] {
		*fusedK = cfg.Fusion.FusedK
	}

	algoNames := strings.Split(*algoFlag, ":")

	idx, err := index.OpenFlatFile(*indexPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening index: %v\n", err)
		os.Exit(1)
	}
	defer idx.Close()

	sc := buildScorer(*scorerName, idx)
	var wandData wand.Data
	if *useWand {
		wandData = buildWand(idx, sc)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	lazyBlockSize := *lazyBlock
	if lazyBlockSize == 0 {
		lazyBlockSize = cfg.Index.LazyAccumulatorBlockSize
	}
	eval := &fusion.Evaluator{Index: idx, Wand: wandData, Scorer: sc, Log: slog.Default(), Metrics: m, LazyAccumulatorBlockSize: lazyBlockSize}
	driver := &fusion.Driver{Evaluator: eval, PoolSize: cfg.Fusion.PoolSize}

	var collector *telemetry.Collector
	if cfg.Telemetry.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Telemetry.Topic)
		collector = telemetry.NewCollector(producer, 0)
		collector.Start(context.Background())
		defer collector.Close()
	}

	if cfg.Metrics.Enabled {
		checker := health.NewChecker()
		checker.Register("index", func(ctx context.Context) health.ComponentHealth {
			return health.ComponentHealth{Status: health.StatusUp}
		})
		shutdown := metrics.StartServer(cfg.Metrics.Addr, checker)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdown(ctx)
		}()
	}

	queries, err := readIdsQueries(*queryPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reading queries: %v\n", err)
		os.Exit(1)
	}
	mqs, err := query.GroupMultiQueries(queries)
	if err != nil {
		fmt.Fprintf(os.Stderr, "grouping multi-queries: %v\n", err)
		os.Exit(1)
	}

	terms := distinctTerms(queries)

	for _, raw := range algoNames {
		algo, err := algorithm.ParseName(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		runPerftest(driver, eval, collector, mqs, terms, idx, algo, *perVariantK, *fusedK, *runs, *extract, *silent, cfg.Fusion.UseSPCS)
	}
}

func runPerftest(driver *fusion.Driver, eval *fusion.Evaluator, collector *telemetry.Collector, mqs []query.MultiQuery, terms []index.TermId, idx *index.FlatFileIndex, algo algorithm.Name, perVariantK, fusedK, runs int, extract, silent, useSPCS bool) {
	warm := func() {
		for _, t := range terms {
			idx.Warmup(t)
		}
	}
	eval_ := func(i int) error {
		mq := mqs[i]
		start := time.Now()
		err := evalMultiQuery(context.Background(), driver, eval, mq, algo, perVariantK, fusedK, useSPCS)
		if collector != nil {
			collector.Track(telemetry.QueryEvent{
				Type:         telemetry.EventFusionEval,
				QueryId:      mq.Id,
				Algorithm:    string(algo),
				VariantCount: len(mq.Variants),
				LatencyUsec:  time.Since(start).Microseconds(),
				Timestamp:    start,
			})
		}
		return err
	}
	means, stats, err := perf.Run(warm, eval_, len(mqs), runs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "perftest failed for %s: %v\n", algo, err)
		os.Exit(1)
	}

	if extract {
		w := bufio.NewWriter(os.Stdout)
		defer w.Flush()
		for i, mq := range mqs {
			fmt.Fprintf(w, "%s\t%.2f\n", mq.Id, means[i])
		}
		return
	}
	if !silent {
		fmt.Fprintf(os.Stderr, "algorithm=%s queries=%d mean=%.2fus p50=%.2fus p90=%.2fus p95=%.2fus\n",
			algo, len(mqs), stats.MeanUsec, stats.P50Usec, stats.P90Usec, stats.P95Usec)
	}
}

func evalMultiQuery(ctx context.Context, driver *fusion.Driver, eval *fusion.Evaluator, mq query.MultiQuery, algo algorithm.Name, perVariantK, fusedK int, useSPCS bool) error {
	var err error
	switch {
	case len(mq.Variants) == 1:
		_, err = eval.Eval(mq.Variants[0], algo, fusedK)
	case useSPCS:
		_, err = driver.SPCS(mq, fusedK, algo)
	default:
		_, err = driver.CombSUM(ctx, mq, perVariantK, fusedK, algo)
	}
	return err
}

func buildScorer(name string, idx *index.FlatFileIndex) scorer.Scorer {
	if name == "identity" {
		return scorer.Identity{}
	}
	docFreq := func(t index.TermId) int {
		postings, ok := idx.Postings(t)
		if !ok {
			return 0
		}
		return len(postings)
	}
	return scorer.NewBM25(idx.NumDocs(), idx.AverageDocLength(), idx.DocLength, docFreq)
}

func buildWand(idx *index.FlatFileIndex, sc scorer.Scorer) wand.Data {
	b := wand.NewBuilder(idx.NumDocs())
	for _, t := range idx.Terms() {
		postings, ok := idx.Postings(t)
		if !ok {
			continue
		}
		b.AddTerm(t, postings, 128, sc.TermScorer(t))
	}
	return b.Build()
}

func readIdsQueries(path string) ([]query.Query, error) {
	r := os.Stdin
	if path != "-" && path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var queries []query.Query
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		q, err := query.ParseIds(line)
		if err != nil {
			return nil, err
		}
		queries = append(queries, q)
	}
	return queries, scanner.Err()
}

func distinctTerms(queries []query.Query) []index.TermId {
	seen := make(map[index.TermId]struct{})
	var out []index.TermId
	for _, q := range queries {
		for _, t := range q.Terms {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				out = append(out, t)
			}
		}
	}
	return out
}
