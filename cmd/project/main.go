// Command project runs the geometry pipeline over one result folder and writes
// the rendered dataset to disk. It uses the same domain and render packages as
// the service, with a fixed load time so repeated runs produce identical files.
//
// Usage:
//
//	go run ./cmd/project \
//	  -folder ../results/0000000042 \
//	  -geojson-out data/render/run_42.geojson \
//	  -kml-out data/render/run_42.kml \
//	  -summary-out data/render/run_42_summary.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/couchcryptid/fault-render-etl/internal/adapter/csvtable"
	"github.com/couchcryptid/fault-render-etl/internal/adapter/render"
	"github.com/couchcryptid/fault-render-etl/internal/domain"
	"github.com/jonboulle/clockwork"
)

var fixedLoadTime = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	folder := flag.String("folder", "", "result folder containing station, segment and mesh CSV files")
	slot := flag.Int("slot", 1, "slot the dataset is assigned to (1 or 2)")
	convention := flag.String("depth-convention", string(domain.PositiveDown), "mesh depth sign convention")
	threshold := flag.Float64("steep-dip-threshold", domain.DefaultSteepDipThreshold, "mean dip in degrees above which a mesh is projected")
	geojsonOut := flag.String("geojson-out", "", "output path for the GeoJSON rendering")
	kmlOut := flag.String("kml-out", "", "output path for the KML rendering")
	summaryOut := flag.String("summary-out", "", "output path for the dataset summary JSON")
	flag.Parse()

	if *folder == "" || (*geojsonOut == "" && *kmlOut == "" && *summaryOut == "") {
		flag.Usage()
		return fmt.Errorf("missing required flags: -folder and at least one of -geojson-out, -kml-out, -summary-out")
	}

	dc, err := domain.ParseDepthConvention(*convention)
	if err != nil {
		return err
	}

	// Set a fixed clock for reproducible dataset IDs.
	domain.SetClock(clockwork.NewFakeClockAt(fixedLoadTime))
	defer domain.SetClock(nil)

	ctx := context.Background()
	source := csvtable.NewFolderSource(csvtable.DefaultFiles, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	tables, err := source.Load(ctx, *folder)
	if err != nil {
		return fmt.Errorf("reading %s: %w", *folder, err)
	}

	ds, err := domain.BuildDataset(ctx, domain.Slot(*slot), *folder, tables, domain.BuildOptions{
		DepthConvention: dc,
		SteepDip:        domain.SteepDipOptions{Threshold: *threshold, Workers: 4},
	})
	if err != nil {
		return fmt.Errorf("building dataset: %w", err)
	}

	if *geojsonOut != "" {
		data, err := render.GeoJSON(ds)
		if err != nil {
			return fmt.Errorf("encoding GeoJSON: %w", err)
		}
		if err := os.WriteFile(*geojsonOut, data, 0o644); err != nil { //nolint:gosec // output fixtures are not secret
			return fmt.Errorf("writing GeoJSON: %w", err)
		}
		log.Printf("wrote GeoJSON: %s", *geojsonOut)
	}

	if *kmlOut != "" {
		data, err := render.KML(ds)
		if err != nil {
			return fmt.Errorf("encoding KML: %w", err)
		}
		if err := os.WriteFile(*kmlOut, data, 0o644); err != nil { //nolint:gosec // output fixtures are not secret
			return fmt.Errorf("writing KML: %w", err)
		}
		log.Printf("wrote KML: %s", *kmlOut)
	}

	summary := domain.Summarize(ds)
	if *summaryOut != "" {
		if err := writeJSON(*summaryOut, summary); err != nil {
			return fmt.Errorf("writing summary: %w", err)
		}
		log.Printf("wrote summary: %s", *summaryOut)
	}

	printStats(ds, summary)
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644) //nolint:gosec // output fixtures are not secret
}

func printStats(ds *domain.ProjectedDataset, s domain.DatasetSummary) {
	fmt.Println("\n=== Dataset stats ===")
	fmt.Printf("ID: %s\n", s.ID)
	fmt.Printf("Stations: %d (max residual %.3f mm/yr)\n", s.Stations, s.MaxResidual)
	fmt.Printf("Segments: %d\n", s.Segments)
	fmt.Printf("Triangles: %d in %d meshes, %d degenerate\n", s.Triangles, s.MeshGroups, s.DegenerateElements)

	groups := make([]domain.GroupSummary, len(ds.Groups))
	copy(groups, ds.Groups)
	sort.Slice(groups, func(i, j int) bool { return groups[i].MeanDip > groups[j].MeanDip })

	fmt.Println("\nMeshes by mean dip:")
	for _, g := range groups {
		marker := ""
		if g.Steep {
			marker = fmt.Sprintf("  steep, dip direction %.1f°", domain.Rad2Deg(g.DipDirection))
		}
		fmt.Printf("  mesh %d: %d elements, mean dip %.2f°%s\n", g.MeshIdx, g.Elements, g.MeanDip, marker)
	}
}
