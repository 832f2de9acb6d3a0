// Command quakecheck runs the dashboard engine once over a CSV file and
// prints the ranked regional table and global summary.
//
// Usage:
//
//	go run ./cmd/quakecheck -source data/earthquakes.csv
//	go run ./cmd/quakecheck -variant district -source data/india.csv -json
//
// With no -source the built-in fallback dataset is used.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/couchcryptid/quake-compass/internal/adapter/csvsource"
	"github.com/couchcryptid/quake-compass/internal/domain"
	"github.com/couchcryptid/quake-compass/internal/pipeline"
)

// Exit codes.
const (
	exitOK     = 0
	exitError  = 1
	exitUsage  = 2
	exitNoData = 3
)

const defaultWait = 30 * time.Second

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("quakecheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	source := fs.String("source", "", "CSV file path or http(s) URL (default: built-in dataset)")
	variant := fs.String("variant", "country", "engine preset: country or district")
	regionField := fs.String("region-field", "", "override the grouping column")
	minMag := fs.Float64("min-mag", -1, "override the minimum magnitude (negative keeps the preset)")
	asJSON := fs.Bool("json", false, "print the full dashboard as JSON")
	timeout := fs.Duration("timeout", defaultWait, "source read timeout")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	var cfg domain.Config
	switch *variant {
	case "country":
		cfg = domain.CountryConfig()
	case "district":
		cfg = domain.DistrictConfig()
	default:
		fmt.Fprintf(stderr, "unknown variant %q\n", *variant)
		return exitUsage
	}
	if *regionField != "" {
		cfg.RegionField = *regionField
	}
	if *minMag >= 0 {
		cfg.MinMagnitude = *minMag
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	var src pipeline.BatchSource = csvsource.Fallback{}
	if *source != "" {
		src = csvsource.NewSource(*source, *timeout, logger)
	}

	records, err := src.Load(context.Background())
	if err != nil {
		fmt.Fprintf(stderr, "load %s: %v\n", src.Name(), err)
		return exitError
	}

	dash, err := domain.Build(records, cfg)
	switch {
	case errors.Is(err, domain.ErrDegenerateInput):
		fmt.Fprintf(stderr, "no data: %d rows read from %s, none valid\n", len(records), src.Name())
		return exitNoData
	case err != nil:
		fmt.Fprintf(stderr, "build dashboard: %v\n", err)
		return exitError
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(dash); err != nil {
			fmt.Fprintf(stderr, "encode: %v\n", err)
			return exitError
		}
		return exitOK
	}

	printTable(stdout, dash, len(records))
	return exitOK
}

func printTable(w io.Writer, dash domain.Dashboard, read int) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "REGION\tCOUNT\tAVG\tMAX\tMIN\tFROM\tTO\tTIER")
	for _, r := range dash.Ranked() {
		fmt.Fprintf(tw, "%s\t%d\t%.1f\t%g\t%g\t%s\t%s\t%s\n",
			r.Region, r.RecordCount, r.AvgMagnitude, r.MaxMagnitude, r.MinMagnitude,
			r.DateRange.Start, r.DateRange.End, r.RiskTier)
	}
	tw.Flush() //nolint:errcheck // stdout

	g := dash.Global
	fmt.Fprintf(w, "\n%d valid of %d rows, %d regions, magnitude avg %.1f max %g min %g\n",
		g.TotalValidEvents, read, g.RegionsAffected, g.AvgMagnitude, g.MaxMagnitude, g.MinMagnitude)
}
