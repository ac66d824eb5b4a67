// Command ms-tile-build converts a long-form scan CSV into an on-disk
// tiled point cache (.NonUniform.cache) for downstream feature-finding.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"strings"
	"time"

	"github.com/phanidev19/msnontile/internal/msdoc"
	"github.com/phanidev19/msnontile/internal/numeric"
	"github.com/phanidev19/msnontile/internal/tile"
	"github.com/phanidev19/msnontile/internal/tilecoord"
)

func main() {
	var (
		mzTileWidth    float64
		scanTileHeight int
		verbose        bool
	)

	flag.Float64Var(&mzTileWidth, "mz-tile-width", 10, "Tile width in mz units")
	flag.IntVar(&scanTileHeight, "scan-tile-height", 64, "Tile height in scan count")
	flag.BoolVar(&verbose, "verbose", false, "Verbose progress output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ms-tile-build [flags] <input.csv> <output.NonUniform.cache>\n\n")
		fmt.Fprintf(os.Stderr, "Build a tiled point cache from a long-form scan CSV.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) != 2 {
		flag.Usage()
		os.Exit(1)
	}
	inputPath, outputPath := args[0], args[1]
	if !strings.HasSuffix(outputPath, ".cache") {
		log.Fatal("Output file must end in .cache")
	}

	start := time.Now()
	reader := msdoc.NewCSVScanReader()
	if err := reader.OpenFile(inputPath); err != nil {
		log.Fatalf("Reading input CSV: %v", err)
	}

	infos, err := reader.ScanInfoListAtLevel(1)
	if err != nil {
		log.Fatalf("Listing scans: %v", err)
	}
	if len(infos) == 0 {
		log.Fatal("No scans found in input CSV")
	}
	if verbose {
		log.Printf("Loaded %d scans in %v", len(infos), time.Since(start).Round(time.Millisecond))
	}

	// A document holds both content kinds side by side (spec §3/§6), so both
	// the raw and centroided reads of every scan go into the same cache
	// file, in two independent tile-builder passes.
	rawRows := make([]tile.ScanRow, len(infos))
	centroidedRows := make([]tile.ScanRow, len(infos))
	mzMin, mzMax := math.MaxFloat64, -math.MaxFloat64
	for i, info := range infos {
		raw, err := reader.GetScanData(info.ScanNumber, false)
		if err != nil {
			log.Fatalf("Reading raw scan %d: %v", info.ScanNumber, err)
		}
		centroided, err := reader.GetScanData(info.ScanNumber, true)
		if err != nil {
			log.Fatalf("Reading centroided scan %d: %v", info.ScanNumber, err)
		}
		rawRows[i] = tile.ScanRow{ScanIndex: i, Points: raw}
		centroidedRows[i] = tile.ScanRow{ScanIndex: i, Points: centroided}
		for _, pts := range [][]numeric.Point{raw, centroided} {
			for _, p := range pts {
				if p.X < mzMin {
					mzMin = p.X
				}
				if p.X > mzMax {
					mzMax = p.X
				}
			}
		}
	}
	if mzMax < mzMin {
		log.Fatal("No points found across any scan")
	}

	rng, err := tilecoord.NewRange(mzMin, mzMax, 0, len(infos)-1, mzTileWidth, scanTileHeight)
	if err != nil {
		log.Fatalf("Building tile range: %v", err)
	}

	store, err := tile.OpenSQLitePointStore(outputPath, scanTileHeight)
	if err != nil {
		log.Fatalf("Opening tile store: %v", err)
	}

	infoDAO, err := msdoc.NewInfoDAO(store.DB())
	if err != nil {
		log.Fatalf("Creating tile info table: %v", err)
	}
	if err := infoDAO.Save(rng); err != nil {
		log.Fatalf("Saving tile info: %v", err)
	}

	rawBuilder := tile.NewBuilder(rng, store, tile.KindMS1Raw)
	for _, row := range rawRows {
		if err := rawBuilder.AddScan(row); err != nil {
			log.Fatalf("Adding raw scan %d: %v", row.ScanIndex, err)
		}
	}
	if err := rawBuilder.Finish(); err != nil {
		log.Fatalf("Finishing raw tile build: %v", err)
	}

	centroidedBuilder := tile.NewBuilder(rng, store, tile.KindMS1Centroided)
	for _, row := range centroidedRows {
		if err := centroidedBuilder.AddScan(row); err != nil {
			log.Fatalf("Adding centroided scan %d: %v", row.ScanIndex, err)
		}
	}
	if err := centroidedBuilder.Finish(); err != nil {
		log.Fatalf("Finishing centroided tile build: %v", err)
	}

	elapsed := time.Since(start).Round(time.Millisecond)
	fmt.Printf("Built %s: %d scans, mz [%.4f, %.4f] in %v\n", outputPath, len(infos), mzMin, mzMax, elapsed)
}
