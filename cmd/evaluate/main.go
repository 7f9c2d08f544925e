// Command evaluate runs a ranked-retrieval query stream against a flat-file
// reference index and writes TREC-format top-k rankings to stdout, per
// spec.md §6's normative CLI surface.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/salvocorp/rankcore/internal/algorithm"
	rcache "github.com/salvocorp/rankcore/internal/cache"
	"github.com/salvocorp/rankcore/internal/fusion"
	"github.com/salvocorp/rankcore/internal/index"
	"github.com/salvocorp/rankcore/internal/lexicon"
	"github.com/salvocorp/rankcore/internal/query"
	"github.com/salvocorp/rankcore/internal/scorer"
	"github.com/salvocorp/rankcore/internal/telemetry"
	"github.com/salvocorp/rankcore/internal/topk"
	"github.com/salvocorp/rankcore/internal/trec"
	"github.com/salvocorp/rankcore/internal/wand"
	"github.com/salvocorp/rankcore/pkg/config"
	"github.com/salvocorp/rankcore/pkg/health"
	"github.com/salvocorp/rankcore/pkg/kafka"
	"github.com/salvocorp/rankcore/pkg/logger"
	"github.com/salvocorp/rankcore/pkg/metrics"
	pkgredis "github.com/salvocorp/rankcore/pkg/redis"
)

func main() {
	var (
		indexType    = flag.String("t", "flat", "index type (flat)")
		algoFlag     = flag.String("a", string(algorithm.RankedOrName), "algorithm name")
		indexPath    = flag.String("i", "", "index directory (vocab.bin/postings.bin/lengths.bin)")
		useWand      = flag.Bool("w", false, "build block-max wand metadata over the index")
		queryPath    = flag.String("q", "-", "query file path ('-' for stdin)")
		runID        = flag.String("r", "R0", "TREC run id")
		scorerName   = flag.String("s", "bm25", "scorer name (bm25, identity)")
		_            = flag.Bool("compressed-wand", false, "ignored; no compressed wand codec")
		perVariantK  = flag.Int("k", 1000, "per-variant top-k")
		fusedK       = flag.Int("z", 1000, "fused top-k")
		termsMode    = flag.Bool("terms", false, "parse queries as surface terms instead of raw TermIds")
		stopwordPath = flag.String("stopwords", "", "stopword list path (terms mode)")
		_            = flag.String("stemmer", "default", "ignored; one stemmer available")
		documentsPth = flag.String("documents", "", "document lexicon path (docid -> external id, one per line)")
		lazyBlock    = flag.Int("lazy-block-size", 0, "ranked-or-taat accumulator block size; 0 selects the dense accumulator")
		configPath   = flag.String("config", "", "optional YAML config enabling the fused-result cache, telemetry, and metrics backends")
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

	algo, err := algorithm.ParseName(*algoFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

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

	lex, err := loadLexicon(*documentsPth)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading document lexicon: %v\n", err)
		os.Exit(1)
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

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		return health.ComponentHealth{Status: health.StatusUp}
	})

	var resultCache *rcache.FusedResultCache
	if cfg.Cache.Enabled {
		redisClient, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			fmt.Fprintf(os.Stderr, "connecting to cache backend: %v\n", err)
			os.Exit(1)
		}
		resultCache = rcache.New(redisClient, cfg.Redis, m)
		checker.Register("cache", func(ctx context.Context) health.ComponentHealth {
			if err := redisClient.Ping(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
	}

	var collector *telemetry.Collector
	if cfg.Telemetry.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Telemetry.Topic)
		collector = telemetry.NewCollector(producer, 0)
		collector.Start(context.Background())
		defer collector.Close()
	}

	if cfg.Metrics.Enabled {
		shutdown := metrics.StartServer(cfg.Metrics.Addr, checker)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdown(ctx)
		}()
	}

	queries, err := readQueries(*queryPath, *termsMode, *stopwordPath, *indexPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reading queries: %v\n", err)
		os.Exit(1)
	}
	mqs, err := query.GroupMultiQueries(queries)
	if err != nil {
		fmt.Fprintf(os.Stderr, "grouping multi-queries: %v\n", err)
		os.Exit(1)
	}

	out := trec.NewWriter(bufio.NewWriter(os.Stdout))
	out.RunId = *runID
	for _, mq := range mqs {
		start := time.Now()
		entries, err := evaluateOne(context.Background(), driver, eval, resultCache, mq, algo, *perVariantK, *fusedK, cfg.Fusion.UseSPCS)
		if collector != nil {
			collector.Track(telemetry.QueryEvent{
				Type:         telemetry.EventQueryEval,
				QueryId:      mq.Id,
				Algorithm:    string(algo),
				VariantCount: len(mq.Variants),
				ResultCount:  len(entries),
				LatencyUsec:  time.Since(start).Microseconds(),
				Timestamp:    start,
			})
		}
		if err != nil {
			slog.Error("query evaluation failed", "query_id", mq.Id, "error", err)
			continue
		}
		if err := out.WriteQuery(mq.Id, entries, lex); err != nil {
			slog.Error("writing trec output failed", "query_id", mq.Id, "error", err)
		}
	}
}

func evalMultiQuery(ctx context.Context, driver *fusion.Driver, eval *fusion.Evaluator, mq query.MultiQuery, algo algorithm.Name, perVariantK, fusedK int, useSPCS bool) ([]topk.Entry, error) {
	if len(mq.Variants) == 1 {
		return eval.Eval(mq.Variants[0], algo, fusedK)
	}
	if useSPCS {
		return driver.SPCS(mq, fusedK, algo)
	}
	return driver.CombSUM(ctx, mq, perVariantK, fusedK, algo)
}

// evaluateOne runs evalMultiQuery, routing through resultCache when the
// fused-result cache is enabled.
func evaluateOne(ctx context.Context, driver *fusion.Driver, eval *fusion.Evaluator, resultCache *rcache.FusedResultCache, mq query.MultiQuery, algo algorithm.Name, perVariantK, fusedK int, useSPCS bool) ([]topk.Entry, error) {
	compute := func() ([]topk.Entry, error) {
		return evalMultiQuery(ctx, driver, eval, mq, algo, perVariantK, fusedK, useSPCS)
	}
	if resultCache == nil {
		return compute()
	}
	entries, _, err := resultCache.GetOrCompute(ctx, mq.Id, string(algo), fusedK, compute)
	return entries, err
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

func readQueries(path string, termsMode bool, stopwordPath string, indexPath string) ([]query.Query, error) {
	r := os.Stdin
	if path != "-" && path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var proc query.TermProcessor
	if termsMode {
		stopwords, err := loadStopwords(stopwordPath)
		if err != nil {
			return nil, err
		}
		termLexicon, err := loadTermLexicon(indexPath)
		if err != nil {
			return nil, err
		}
		proc = query.NewLexiconTermProcessor(termLexicon, stopwords)
	}

	var queries []query.Query
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if termsMode {
			queries = append(queries, query.ParseTerms(line, proc, slog.Default()))
		} else {
			q, err := query.ParseIds(line)
			if err != nil {
				return nil, err
			}
			queries = append(queries, q)
		}
	}
	return queries, scanner.Err()
}

func loadStopwords(path string) (map[string]struct{}, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	out := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		out[scanner.Text()] = struct{}{}
	}
	return out, scanner.Err()
}

// loadTermLexicon reads an optional sidecar terms.dict file ("term\tid" per
// line) colocated with the index directory, used only in terms mode.
func loadTermLexicon(indexPath string) (map[string]query.TermId, error) {
	out := make(map[string]query.TermId)
	f, err := os.Open(indexPath + "/terms.dict")
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		parts := strings.SplitN(scanner.Text(), "\t", 2)
		if len(parts) != 2 {
			continue
		}
		id, err := strconv.ParseUint(parts[1], 10, 32)
		if err != nil {
			continue
		}
		out[parts[0]] = query.TermId(id)
	}
	return out, scanner.Err()
}

func loadLexicon(path string) (lexicon.Lexicon, error) {
	if path == "" {
		return lexicon.NewInMemory(nil), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var entries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		entries = append(entries, scanner.Text())
	}
	return lexicon.NewInMemory(entries), scanner.Err()
}
