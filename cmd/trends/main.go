// Command trends fetches cumulative tornado counts straight from the SPC
// and writes the same JSON the /api/tornado-trends route serves. It is
// useful for capturing fixtures and for checking upstream data by hand.
//
// Usage:
//
//	go run ./cmd/trends -start 2015 -current 2025 -out trends.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/public-data-proxy/internal/adapter/spc"
	"github.com/couchcryptid/public-data-proxy/internal/aggregate"
	"github.com/couchcryptid/public-data-proxy/internal/observability"
	"github.com/couchcryptid/public-data-proxy/internal/upstream"
	"github.com/couchcryptid/public-data-proxy/internal/yearcache"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	start := flag.Int("start", 0, "first year to compare (default: the service floor)")
	current := flag.Int("current", 0, "running year (default: the current UTC year)")
	byState := flag.Bool("by-state", false, "include per-state totals for completed years")
	out := flag.String("out", "", "output path (default: stdout)")
	concurrency := flag.Int("concurrency", spc.DefaultDailyConcurrency, "in-flight daily report requests")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := sharedobs.NewLogger("warn", "text")
	metrics := observability.NewMetricsForTesting()

	client := spc.NewClient(upstream.New(spc.Provider, upstream.DefaultTimeout, metrics, logger), *concurrency)
	trends := aggregate.NewTornadoTrends(client, yearcache.New(client.DailyReportsSource()),
		aggregate.TornadoConfig{}, clockwork.NewRealClock(), metrics, logger)

	res, err := trends.Run(ctx, aggregate.TornadoRequest{StartYear: *start, CurrentYear: *current, ByState: *byState})
	if err != nil {
		return fmt.Errorf("fetch trends: %w", err)
	}

	for _, y := range res.Years {
		log.Printf("%d: %d reports", y.Year, y.TotalReports)
	}
	for _, m := range res.MissingYears {
		log.Printf("%d: missing (%s)", m.Year, m.Message)
	}

	var w io.Writer = os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return fmt.Errorf("create %s: %w", *out, err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if *out != "" {
		log.Printf("wrote %s", *out)
	}
	return nil
}
