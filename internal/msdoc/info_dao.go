package msdoc

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"github.com/phanidev19/msnontile/internal/errs"
	"github.com/phanidev19/msnontile/internal/tilecoord"
)

// InfoDAO persists the single NonUniformTilesInfo row describing a tile
// cache's grid geometry, so a later process can reopen the cache without
// re-deriving mz/scan-index bounds from the source file.
type InfoDAO struct {
	db *sql.DB
}

// NewInfoDAO wraps an already-open database handle (typically the same one
// backing SQLitePointStore).
func NewInfoDAO(db *sql.DB) (*InfoDAO, error) {
	const schema = `
CREATE TABLE IF NOT EXISTS NonUniformTilesInfo (
	Id INTEGER PRIMARY KEY CHECK (Id = 1),
	MzMin REAL NOT NULL,
	MzMax REAL NOT NULL,
	MzTileLength REAL NOT NULL,
	ScanIndexMin INTEGER NOT NULL,
	ScanIndexMax INTEGER NOT NULL,
	ScanIndexTileLength INTEGER NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		return nil, errs.Wrap(err, errs.SQLiteExec, "creating NonUniformTilesInfo schema")
	}
	return &InfoDAO{db: db}, nil
}

// Save upserts the single info row describing rng.
func (d *InfoDAO) Save(rng *tilecoord.Range) error {
	_, err := d.db.Exec(`
INSERT INTO NonUniformTilesInfo (Id, MzMin, MzMax, MzTileLength, ScanIndexMin, ScanIndexMax, ScanIndexTileLength)
VALUES (1, ?, ?, ?, ?, ?, ?)
ON CONFLICT(Id) DO UPDATE SET
	MzMin=excluded.MzMin, MzMax=excluded.MzMax, MzTileLength=excluded.MzTileLength,
	ScanIndexMin=excluded.ScanIndexMin, ScanIndexMax=excluded.ScanIndexMax,
	ScanIndexTileLength=excluded.ScanIndexTileLength`,
		rng.MzMin(), rng.MzMax(), rng.MzTileWidth(),
		rng.ScanIndexMin(), rng.ScanIndexMax(), rng.ScanIndexTileHeight())
	if err != nil {
		return errs.Wrap(err, errs.SQLiteExec, "saving NonUniformTilesInfo")
	}
	return nil
}

// Load reads the single info row back into a Range. Returns
// SQLiteMissingContent if no row has been saved yet.
func (d *InfoDAO) Load() (*tilecoord.Range, error) {
	var mzMin, mzMax, mzTileLen float64
	var scanMin, scanMax, scanTileLen int
	err := d.db.QueryRow(`SELECT MzMin, MzMax, MzTileLength, ScanIndexMin, ScanIndexMax, ScanIndexTileLength FROM NonUniformTilesInfo WHERE Id = 1`).
		Scan(&mzMin, &mzMax, &mzTileLen, &scanMin, &scanMax, &scanTileLen)
	if err == sql.ErrNoRows {
		return nil, errs.New(errs.SQLiteMissingContent, "no NonUniformTilesInfo row saved")
	}
	if err != nil {
		return nil, errs.Wrap(err, errs.SQLiteExec, "loading NonUniformTilesInfo")
	}
	return tilecoord.NewRange(mzMin, mzMax, scanMin, scanMax, mzTileLen, scanTileLen)
}
