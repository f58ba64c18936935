// File path: cmd/partfinder/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/nicodishanthj/partfinder/internal/api"
	"github.com/nicodishanthj/partfinder/internal/catalog"
	"github.com/nicodishanthj/partfinder/internal/common"
	"github.com/nicodishanthj/partfinder/internal/embedding"
	"github.com/nicodishanthj/partfinder/internal/ingest"
	"github.com/nicodishanthj/partfinder/internal/inventory"
	"github.com/nicodishanthj/partfinder/internal/llm"
	"github.com/nicodishanthj/partfinder/internal/pricing"
	"github.com/nicodishanthj/partfinder/internal/search"
	"github.com/nicodishanthj/partfinder/internal/vector"
	"github.com/nicodishanthj/partfinder/internal/vector/chroma"
	"github.com/nicodishanthj/partfinder/internal/vector/sqlitestore"
)

func main() {
	logger := common.Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(); err != nil {
		logger.Warn("partfinder: .env file not loaded", "error", err)
	} else {
		logger.Info("partfinder: environment loaded from .env")
	}

	addr := flag.String("addr", ":8080", "listen address")
	backend := flag.String("backend", "sqlite", "vector store backend (sqlite or chroma)")
	dbPath := flag.String("db", "", "path to the SQLite parts database (sqlite backend)")
	query := flag.String("query", "", "run a single search and exit instead of serving")
	topK := flag.Int("k", 0, "candidate count for -query (0 uses the configured default)")
	ingestPath := flag.String("ingest", "", "ingest a JSON dump file and exit instead of serving")
	ingestSource := flag.String("source", "", "marketplace source for -ingest (amazon or ebay)")
	flag.Parse()

	logger.Info("partfinder: startup initiated", "addr", *addr, "backend", *backend)

	store, closeStore, err := openStore(ctx, *backend, *dbPath)
	if err != nil {
		logger.Error("partfinder: store initialization failed", "error", err)
		fmt.Println("store error:", err)
		os.Exit(1)
	}
	defer closeStore()

	embedder := embedding.NewCachedEmbedder(embedding.NewFromEnv(), 0)
	logger.Info("partfinder: embedder ready", "embedder", embedder.Name())

	provider := llm.NewProvider()
	logger.Info("partfinder: llm provider ready", "provider", provider.Name())

	searchCfg, err := search.LoadConfig()
	if err != nil {
		logger.Error("partfinder: search config load failed", "error", err)
		fmt.Println("search config error:", err)
		os.Exit(1)
	}

	rates := pricing.LoadTable()
	searchSvc := search.NewService(embedder, store, provider, rates, searchCfg)
	inventorySvc := inventory.New(store, 0)
	runner := ingest.NewRunner(embedder, store)

	if strings.TrimSpace(*ingestPath) != "" {
		runIngest(ctx, runner, *ingestPath, *ingestSource)
		return
	}
	if strings.TrimSpace(*query) != "" {
		runQuery(ctx, searchSvc, *query, *topK)
		return
	}

	server := api.NewServer(searchSvc, inventorySvc, runner, store)

	logger.Info("partfinder: server listening", "addr", *addr, "health", "/api/health")
	fmt.Printf("Serving on %s\n", *addr)
	if err := http.ListenAndServe(*addr, server.Router()); err != nil {
		logger.Error("partfinder: server stopped", "error", err)
		fmt.Println("server stopped:", err)
	}
}

func openStore(ctx context.Context, backend, dbPath string) (vector.Store, func(), error) {
	logger := common.Logger()
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "sqlite", "":
		cfg, err := sqlitestore.LoadConfig()
		if err != nil {
			return nil, nil, err
		}
		if trimmed := strings.TrimSpace(dbPath); trimmed != "" {
			cfg.Path = trimmed
		}
		store, err := sqlitestore.OpenWithConfig(cfg)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("partfinder: sqlite store ready", "path", cfg.Path)
		return store, func() { _ = store.Close() }, nil
	case "chroma":
		client, err := chroma.NewFromEnv(ctx)
		if err != nil {
			return nil, nil, err
		}
		if client.Available() {
			logger.Info("partfinder: chromadb available", "collection", client.Collection())
		} else {
			logger.Warn("partfinder: chromadb unreachable", "collection", client.Collection())
		}
		return client, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", backend)
	}
}

func runIngest(ctx context.Context, runner *ingest.Runner, path, source string) {
	logger := common.Logger()
	parsed, err := catalog.ParseSource(source)
	if err != nil {
		logger.Error("partfinder: ingest source invalid", "error", err)
		fmt.Println("ingest error:", err)
		os.Exit(1)
	}
	report, err := runner.RunConnector(ctx, ingest.NewFileConnector(parsed, path), "")
	if err != nil {
		logger.Error("partfinder: ingest failed", "error", err)
		fmt.Println("ingest error:", err)
		os.Exit(1)
	}
	fmt.Printf("Ingested %d parts from %s (%d skipped), job %s\n",
		report.Ingested, path, report.Skipped, report.JobID)
}

func runQuery(ctx context.Context, svc *search.Service, query string, k int) {
	result, err := svc.Search(ctx, query, k)
	if err != nil {
		common.Logger().Error("partfinder: query failed", "error", err)
		fmt.Println("query error:", err)
		os.Exit(1)
	}

	fmt.Printf("Recommended: %s (%s)\n", result.Recommended.Name, result.Recommended.Key())
	fmt.Printf("  Price: %s  Source: %s\n",
		pricing.Format(result.Recommended.PriceAmount, result.Recommended.PriceCurrency),
		result.Recommended.Source)
	fmt.Printf("  Why: %s\n", result.Rationale)
	if len(result.Alternatives) > 0 {
		fmt.Println("Alternatives:")
		for i, alt := range result.Alternatives {
			fmt.Printf("  %d. %s at %s (%s)\n", i+1, alt.Name,
				pricing.Format(alt.PriceAmount, alt.PriceCurrency), alt.Source)
		}
	}
}
