package serialize

import (
	"database/sql"
	"strconv"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/phanidev19/msnontile/internal/errs"
	"github.com/phanidev19/msnontile/internal/feature"
	"github.com/phanidev19/msnontile/internal/msdoc"
)

// FeatureSQLiteWriter accumulates features in memory per sample and writes
// them in one transaction per sample on Finalize, grounded on the
// teacher's accumulate-then-finalize Writer pattern.
type FeatureSQLiteWriter struct {
	db *sql.DB
	mu sync.Mutex

	samples    []string
	features   map[string][]feature.Feature
	converters map[string]*msdoc.ScanConverter
	finalized  bool
}

// OpenFeatureSQLiteWriter opens (creating if needed) the database at path
// and ensures its schema exists.
func OpenFeatureSQLiteWriter(path string) (*FeatureSQLiteWriter, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errs.Wrap(err, errs.FileOpen, "opening feature database")
	}
	const schema = `
CREATE TABLE IF NOT EXISTS FinderSamples (
	Id INTEGER PRIMARY KEY AUTOINCREMENT,
	Name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS FinderFeatures (
	Id INTEGER PRIMARY KEY AUTOINCREMENT,
	SamplesId INTEGER NOT NULL REFERENCES FinderSamples(Id),
	UnchargedMass REAL NOT NULL,
	StartTime REAL NOT NULL,
	EndTime REAL NOT NULL,
	ApexTime REAL NOT NULL,
	Intensity REAL NOT NULL,
	ChargeList TEXT NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errs.Wrap(err, errs.SQLiteExec, "creating feature schema")
	}
	return &FeatureSQLiteWriter{db: db, features: make(map[string][]feature.Feature)}, nil
}

// AddSample registers sampleName (if not already present) and queues
// features for it. cv converts each feature's widest hill scan extent to
// StartTime/EndTime minutes.
func (w *FeatureSQLiteWriter) AddSample(sampleName string, features []feature.Feature, cv *msdoc.ScanConverter) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.features[sampleName]; !ok {
		w.samples = append(w.samples, sampleName)
		if w.converters == nil {
			w.converters = make(map[string]*msdoc.ScanConverter)
		}
		w.converters[sampleName] = cv
	}
	w.features[sampleName] = append(w.features[sampleName], features...)
}

// Finalize writes every queued sample's rows, one transaction per sample.
func (w *FeatureSQLiteWriter) Finalize() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.finalized {
		return errs.New(errs.BadParameter, "feature writer already finalized")
	}
	w.finalized = true

	for _, sampleName := range w.samples {
		if err := w.writeSample(sampleName, w.features[sampleName], w.converters[sampleName]); err != nil {
			return err
		}
	}
	return nil
}

func (w *FeatureSQLiteWriter) writeSample(sampleName string, feats []feature.Feature, cv *msdoc.ScanConverter) error {
	tx, err := w.db.Begin()
	if err != nil {
		return errs.Wrap(err, errs.SQLiteExec, "beginning sample transaction")
	}

	res, err := tx.Exec(`INSERT INTO FinderSamples (Name) VALUES (?)`, sampleName)
	if err != nil {
		tx.Rollback()
		return errs.Wrap(err, errs.SQLiteExec, "inserting sample")
	}
	sampleID, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return errs.Wrap(err, errs.SQLiteExec, "reading sample id")
	}

	stmt, err := tx.Prepare(`INSERT INTO FinderFeatures
		(SamplesId, UnchargedMass, StartTime, EndTime, ApexTime, Intensity, ChargeList)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return errs.Wrap(err, errs.SQLiteExec, "preparing feature insert")
	}
	defer stmt.Close()

	for _, f := range feats {
		startTime, endTime := featureTimeExtent(f, cv)
		if _, err := stmt.Exec(sampleID, f.UnchargedMass, startTime, endTime, f.ApexTime, f.Intensity, chargeListOf(f)); err != nil {
			tx.Rollback()
			return errs.Wrap(err, errs.SQLiteExec, "inserting feature")
		}
	}

	if err := tx.Commit(); err != nil {
		return errs.Wrap(err, errs.SQLiteExec, "committing sample transaction")
	}
	return nil
}

// featureTimeExtent returns the earliest and latest retention time covered
// by any hill (parent or neighbor) across f's clusters.
func featureTimeExtent(f feature.Feature, cv *msdoc.ScanConverter) (start, end float64) {
	if cv == nil {
		return f.ApexTime, f.ApexTime
	}
	first := true
	for _, cl := range f.Clusters {
		for _, h := range append([]*feature.Hill{cl.Parent}, cl.Neighbors...) {
			if h == nil || len(h.Points) == 0 {
				continue
			}
			s, e := cv.TimeAt(h.ScanStart), cv.TimeAt(h.ScanEnd)
			if first {
				start, end = s, e
				first = false
				continue
			}
			if s < start {
				start = s
			}
			if e > end {
				end = e
			}
		}
	}
	if first {
		return f.ApexTime, f.ApexTime
	}
	return start, end
}

func chargeListOf(f feature.Feature) string {
	charges := make([]string, len(f.Clusters))
	for i, cl := range f.Clusters {
		charges[i] = strconv.Itoa(cl.Charge)
	}
	return strings.Join(charges, ",")
}

// Close closes the underlying database handle.
func (w *FeatureSQLiteWriter) Close() error {
	return w.db.Close()
}
