// Command validate performs integrity checks on a block model result folder
// before it is loaded into the service: table schemas, coordinate domains,
// mesh geometry, and (optionally) agreement with a summary previously written
// by cmd/project.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -folder ../results/0000000042 \
//	  -summary data/render/run_42_summary.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/fault-render-etl/internal/adapter/csvtable"
	"github.com/couchcryptid/fault-render-etl/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jonboulle/clockwork"
)

// fixedLoadTime matches cmd/project so dataset IDs are reproducible.
var fixedLoadTime = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name     string
	errors   []string
	warnings []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	folder := flag.String("folder", "", "result folder containing station, segment and mesh CSV files")
	convention := flag.String("depth-convention", string(domain.PositiveDown), "mesh depth sign convention")
	summaryPath := flag.String("summary", "", "optional summary JSON written by cmd/project for the same folder")
	strict := flag.Bool("strict", false, "treat degenerate mesh elements as failures")
	flag.Parse()

	if *folder == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*folder, *convention, *summaryPath, *strict); code != 0 {
		os.Exit(code)
	}
}

func run(folder, convention, summaryPath string, strict bool) int {
	domain.SetClock(clockwork.NewFakeClockAt(fixedLoadTime))
	defer domain.SetClock(nil)

	dc, err := domain.ParseDepthConvention(convention)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	fmt.Println("=== Fault Model Result Validation ===")
	fmt.Println()

	ctx := context.Background()
	source := csvtable.NewFolderSource(csvtable.DefaultFiles, slog.New(slog.NewTextHandler(io.Discard, nil)))

	// ── Run validation phases ──
	schema, tables := validateSchema(ctx, source, folder)
	phases := []*phase{schema}
	if schema.passed() {
		phases = append(phases,
			validateDomain(tables, dc),
			validateGeometry(tables, strict),
		)
		if summaryPath != "" {
			phases = append(phases, validateSummary(ctx, folder, tables, dc, summaryPath))
		}
	}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d stations, %d segments, %d mesh elements\n",
		len(tables.Stations), len(tables.Segments), len(tables.Meshes))

	for _, p := range phases {
		if p.passed() && len(p.warnings) == 0 {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
		for _, w := range p.warnings {
			fmt.Printf("  warning: %s\n", w)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Schema ──
// Every table exists, has its required columns, and parses as numbers.

func validateSchema(ctx context.Context, source *csvtable.FolderSource, folder string) (*phase, domain.Tables) {
	p := &phase{name: "Phase 1: Table Schema (CSV files)"}
	tables, err := source.Load(ctx, folder)
	if err != nil {
		p.errorf("%v", err)
	}
	return p, tables
}

// ── Phase 2: Coordinate Domain ──
// Latitudes project to finite Mercator values and depths follow the convention.

func validateDomain(tables domain.Tables, dc domain.DepthConvention) *phase {
	p := &phase{name: "Phase 2: Coordinate Domain"}
	if err := domain.ValidateStations(tables.Stations); err != nil {
		p.errorf("%v", err)
	}
	if err := domain.ValidateSegments(tables.Segments); err != nil {
		p.errorf("%v", err)
	}
	if err := domain.ValidateMeshes(tables.Meshes, dc); err != nil {
		p.errorf("%v", err)
	}
	return p
}

// ── Phase 3: Mesh Geometry ──
// Reports degenerate elements and meshes whose every element is degenerate.

func validateGeometry(tables domain.Tables, strict bool) *phase {
	p := &phase{name: "Phase 3: Mesh Geometry"}
	geometry := domain.AnalyzeTriangles(tables.Meshes)

	report := p.warnf
	if strict {
		report = p.errorf
	}
	for _, w := range domain.DegenerateWarnings(tables.Meshes, geometry) {
		report("%v", w)
	}

	for _, g := range domain.GroupElements(tables.Meshes) {
		usable := 0
		for _, row := range g.Rows {
			if !geometry[row].Degenerate {
				usable++
			}
		}
		if usable == 0 {
			p.errorf("mesh_idx %d: all %d elements are degenerate", g.MeshIdx, len(g.Rows))
		}
	}
	return p
}

// ── Phase 4: Summary Agreement ──
// A rebuilt dataset must match the summary recorded for the same folder.

func validateSummary(ctx context.Context, folder string, tables domain.Tables, dc domain.DepthConvention, path string) *phase {
	p := &phase{name: "Phase 4: Summary Agreement (JSON vs CSV)"}

	want, err := loadJSON[domain.DatasetSummary](path)
	if err != nil {
		p.errorf("load summary: %v", err)
		return p
	}

	ds, err := domain.BuildDataset(ctx, want.Slot, folder, tables, domain.BuildOptions{DepthConvention: dc})
	if err != nil {
		p.errorf("build dataset: %v", err)
		return p
	}

	got := domain.Summarize(ds)
	opts := []cmp.Option{
		cmpopts.EquateApprox(0, 1e-9),
		cmpopts.EquateEmpty(),
		cmpopts.IgnoreFields(domain.DatasetSummary{}, "LoadedAt"),
	}
	if diff := cmp.Diff(want, got, opts...); diff != "" {
		p.errorf("summary mismatch (-recorded +rebuilt):\n%s", diff)
	}
	return p
}

func loadJSON[T any](path string) (T, error) {
	var v T
	data, err := os.ReadFile(path)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, err
	}
	return v, nil
}
