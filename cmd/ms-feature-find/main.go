// Command ms-feature-find runs the cluster finder over a built tile cache
// and emits hill/feature CSV and SQLite output.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/phanidev19/msnontile/internal/errs"
	"github.com/phanidev19/msnontile/internal/feature"
	"github.com/phanidev19/msnontile/internal/msdoc"
	"github.com/phanidev19/msnontile/internal/numeric"
	"github.com/phanidev19/msnontile/internal/serialize"
	"github.com/phanidev19/msnontile/internal/tile"
	"github.com/phanidev19/msnontile/internal/tilecoord"
)

func main() {
	var (
		scanInfoPath       string
		sampleName         string
		chargeDeterminator string
		monoDeterminator   string
		hillAlgorithm      string
		mzTolerance        float64
		minIntensity       float64
		progressLimit      float64
		workers            int
		hillCSVPath        string
		insilicoCSVPath    string
		sqliteOutPath      string
	)

	flag.StringVar(&scanInfoPath, "scan-info", "", "CSV of scan_number,retention_time used to build the session's time converter (required)")
	flag.StringVar(&sampleName, "sample", "sample", "Sample name recorded in SQLite output")
	flag.StringVar(&chargeDeterminator, "charge-determinator", "isodiff", "Registered charge determinator name")
	flag.StringVar(&monoDeterminator, "mono-determinator", "isodiff", "Registered monoisotope determinator name")
	flag.StringVar(&hillAlgorithm, "hill-algorithm", "zero-bounded", "Hill algorithm: zero-bounded or zscore")
	flag.Float64Var(&mzTolerance, "mz-tolerance", 0.02, "Mz band full width for hill scan collection (the band is the seed mz plus/minus half this value)")
	flag.Float64Var(&minIntensity, "min-intensity", 0, "Terminate once max intensity drops below this")
	flag.Float64Var(&progressLimit, "progress-limit", 0, "Terminate once this fraction of points is processed (0 disables)")
	flag.IntVar(&workers, "workers", 0, "Max-intensity index builder worker count (0 = GOMAXPROCS)")
	flag.StringVar(&hillCSVPath, "hill-csv", "", "Hill-cluster CSV output path (optional)")
	flag.StringVar(&insilicoCSVPath, "insilico-csv", "", "Insilico-peptide CSV output path (optional)")
	flag.StringVar(&sqliteOutPath, "sqlite-out", "", "Feature SQLite output path (optional)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ms-feature-find [flags] <input.NonUniform.cache>\n\n")
		fmt.Fprintf(os.Stderr, "Run the cluster finder over a tile cache and emit feature output.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 || scanInfoPath == "" {
		flag.Usage()
		os.Exit(1)
	}
	cachePath := args[0]

	start := time.Now()
	store, err := tile.OpenSQLitePointStore(cachePath, 0)
	if err != nil {
		log.Fatalf("Opening tile cache: %v", err)
	}
	infoDAO, err := msdoc.NewInfoDAO(store.DB())
	if err != nil {
		log.Fatalf("Opening tile info table: %v", err)
	}
	rng, err := infoDAO.Load()
	if err != nil {
		log.Fatalf("Loading tile range: %v", err)
	}

	cv, err := loadScanConverter(scanInfoPath)
	if err != nil {
		log.Fatalf("Loading scan info: %v", err)
	}

	mgr := tile.NewManager[numeric.Point](store, 256)
	doc := msdoc.NewDocument(rng, mgr, cv)

	rect := tilecoord.TileRect{X: 0, Y: 0, W: rng.TileCountX(), H: rng.TileCountY()}
	session, err := feature.NewSessionWithWorkers(doc, rect, true, workers)
	if err != nil {
		log.Fatalf("Building session: %v", err)
	}
	totalPoints := session.RemainingPoints()
	log.Printf("Session ready: %d unselected points in %d tiles", totalPoints, rect.W*rect.H)

	registry := feature.NewDeterminatorRegistry()
	charge := registry.Charge(chargeDeterminator)
	if charge == nil {
		log.Fatalf("Unknown charge determinator %q", chargeDeterminator)
	}
	mono := registry.Mono(monoDeterminator)
	if mono == nil {
		log.Fatalf("Unknown monoisotope determinator %q", monoDeterminator)
	}

	algo := feature.ZeroBounded
	if hillAlgorithm == "zscore" {
		algo = feature.ZScoreIntegration
	}
	hillFinder := feature.NewHillFinder(session, algo, mzTolerance)

	finder := feature.NewClusterFinder(session, hillFinder, charge, mono, totalPoints)
	finder.MinIntensity = minIntensity
	finder.ProgressLimit = progressLimit

	features, err := finder.Run()
	if err != nil {
		log.Fatalf("Running cluster finder: %v", err)
	}
	log.Printf("Found %d features in %v", len(features), time.Since(start).Round(time.Millisecond))

	if hillCSVPath != "" {
		if err := writeHillCSV(hillCSVPath, cv, features); err != nil {
			log.Fatalf("Writing hill CSV: %v", err)
		}
	}
	if insilicoCSVPath != "" {
		if err := writeInsilicoCSV(insilicoCSVPath, features); err != nil {
			log.Fatalf("Writing insilico CSV: %v", err)
		}
	}
	if sqliteOutPath != "" {
		if err := writeSQLite(sqliteOutPath, sampleName, features, cv); err != nil {
			log.Fatalf("Writing SQLite output: %v", err)
		}
	}

	fmt.Printf("Done: %d features from %s\n", len(features), cachePath)
}

// loadScanConverter reads a scan_number,retention_time CSV (the header row,
// if present, is skipped automatically).
func loadScanConverter(path string) (*msdoc.ScanConverter, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(err, errs.FileOpen, "opening scan info CSV")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var infos []msdoc.ScanInfo
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errs.Wrap(err, errs.FileOpen, "reading scan info CSV")
		}
		if len(rec) < 2 {
			continue
		}
		scanNumber, err := strconv.ParseInt(rec[0], 10, 64)
		if err != nil {
			continue // header row
		}
		rt, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, errs.Wrapf(err, errs.FileOpen, "parsing retention_time %q", rec[1])
		}
		infos = append(infos, msdoc.ScanInfo{ScanNumber: scanNumber, RetentionTime: rt})
	}
	return msdoc.NewScanConverter(infos), nil
}

func writeHillCSV(path string, cv *msdoc.ScanConverter, features []feature.Feature) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w, err := serialize.NewHillClusterCSVWriter(f, cv)
	if err != nil {
		return err
	}
	for groupID, feat := range features {
		if err := w.WriteFeature(groupID, feat); err != nil {
			return err
		}
	}
	return w.Flush()
}

func writeInsilicoCSV(path string, features []feature.Feature) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w, err := serialize.NewInsilicoPeptideCSVWriter(f)
	if err != nil {
		return err
	}
	for _, feat := range features {
		if err := w.WriteFeature(feat); err != nil {
			return err
		}
	}
	return w.Flush()
}

func writeSQLite(path, sampleName string, features []feature.Feature, cv *msdoc.ScanConverter) error {
	w, err := serialize.OpenFeatureSQLiteWriter(path)
	if err != nil {
		return err
	}
	defer w.Close()
	w.AddSample(sampleName, features, cv)
	return w.Finalize()
}
