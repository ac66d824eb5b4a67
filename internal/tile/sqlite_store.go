package tile

import (
	"database/sql"
	"encoding/binary"
	"math"

	_ "github.com/mattn/go-sqlite3"

	"github.com/phanidev19/msnontile/internal/errs"
	"github.com/phanidev19/msnontile/internal/numeric"
	"github.com/phanidev19/msnontile/internal/tilecoord"
)

// SQLitePointStore is the durable Store for the two point content kinds
// (KindMS1Raw, KindMS1Centroided): the only kinds that need to survive past
// a single process run, per the multi-store hierarchy (memory for
// ephemeral selection/hill-id tiles, SQLite for point tiles). Each row
// holds one scan's worth of points inside one (tile, kind), as three
// little-endian BLOBs: an internal-index i32 array (the row's point
// ordering, always 0..n-1 and reconstructed rather than trusted on
// decode), and mz/intensity f64 arrays. Partial writes from a sequential
// builder pass go into a scratch table of the same shape until Defragment
// consolidates them into the final rows table and drops the scratch rows
// for that (tile, kind).
type SQLitePointStore struct {
	db     *sql.DB
	path   string
	height int
}

// OpenSQLitePointStore opens (creating if needed) a SQLite point store at
// path, with scanIndexTileHeight rows expected per tile.
func OpenSQLitePointStore(path string, scanIndexTileHeight int) (*SQLitePointStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errs.Wrap(err, errs.FileOpen, "opening sqlite point store")
	}
	s := &SQLitePointStore{db: db, path: path, height: scanIndexTileHeight}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// DB exposes the underlying connection for callers that need to share it
// with another DAO against the same file, e.g. msdoc.InfoDAO writing the
// NonUniformTilesInfo row alongside this store's tile tables.
func (s *SQLitePointStore) DB() *sql.DB { return s.db }

// Clone opens an independent connection to the same database file, for a
// max-intensity index worker: SQLite enforces one connection per thread, so
// sharing *sql.DB across goroutines performing blocking reads would
// serialize them anyway.
func (s *SQLitePointStore) Clone() (Store[numeric.Point], error) {
	return OpenSQLitePointStore(s.path, s.height)
}

func (s *SQLitePointStore) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS tile_rows (
	tile_x INTEGER NOT NULL,
	tile_y INTEGER NOT NULL,
	content_kind TEXT NOT NULL,
	row_offset INTEGER NOT NULL,
	internal_index BLOB NOT NULL,
	mz BLOB NOT NULL,
	intensity BLOB NOT NULL,
	PRIMARY KEY (tile_x, tile_y, content_kind, row_offset)
);
CREATE TABLE IF NOT EXISTS tile_rows_scratch (
	tile_x INTEGER NOT NULL,
	tile_y INTEGER NOT NULL,
	content_kind TEXT NOT NULL,
	row_offset INTEGER NOT NULL,
	internal_index BLOB NOT NULL,
	mz BLOB NOT NULL,
	intensity BLOB NOT NULL,
	PRIMARY KEY (tile_x, tile_y, content_kind, row_offset)
);
`
	if _, err := s.db.Exec(schema); err != nil {
		return errs.Wrap(err, errs.SQLiteExec, "creating tile_rows schema")
	}
	return nil
}

// encodeRow produces the three on-disk BLOBs for row. internalIndexBlob
// records each point's position within the row (0..len(row)-1): the spec's
// on-disk schema carries it explicitly, even though it is always
// reconstructable from array position and decodeRow never needs to read it
// back.
func encodeRow(row []numeric.Point) (internalIndexBlob, mzBlob, intensityBlob []byte) {
	internalIndexBlob = make([]byte, 4*len(row))
	mzBlob = make([]byte, 8*len(row))
	intensityBlob = make([]byte, 8*len(row))
	for i, p := range row {
		binary.LittleEndian.PutUint32(internalIndexBlob[i*4:], uint32(i))
		binary.LittleEndian.PutUint64(mzBlob[i*8:], math.Float64bits(p.X))
		binary.LittleEndian.PutUint64(intensityBlob[i*8:], math.Float64bits(p.Y))
	}
	return internalIndexBlob, mzBlob, intensityBlob
}

func decodeRow(mzBlob, intensityBlob []byte) []numeric.Point {
	n := len(mzBlob) / 8
	row := make([]numeric.Point, n)
	for i := 0; i < n; i++ {
		row[i] = numeric.Point{
			X: math.Float64frombits(binary.LittleEndian.Uint64(mzBlob[i*8:])),
			Y: math.Float64frombits(binary.LittleEndian.Uint64(intensityBlob[i*8:])),
		}
	}
	return row
}

// Get loads a full tile (all written rows) for (pos, kind) from the main
// table.
func (s *SQLitePointStore) Get(pos tilecoord.Pos, kind ContentKind) (*Tile[numeric.Point], bool, error) {
	rows, err := s.db.Query(
		`SELECT row_offset, mz, intensity FROM tile_rows WHERE tile_x = ? AND tile_y = ? AND content_kind = ?`,
		pos.X, pos.Y, kind.String())
	if err != nil {
		return nil, false, errs.Wrap(err, errs.SQLiteExec, "querying tile_rows")
	}
	defer rows.Close()

	t := NewTile[numeric.Point](pos, s.height)
	t.Partial = false
	found := false
	for rows.Next() {
		var offset int
		var mzBlob, intensityBlob []byte
		if err := rows.Scan(&offset, &mzBlob, &intensityBlob); err != nil {
			return nil, false, errs.Wrap(err, errs.SQLiteExec, "scanning tile_rows")
		}
		t.SetRow(offset, decodeRow(mzBlob, intensityBlob))
		found = true
	}
	if err := rows.Err(); err != nil {
		return nil, false, errs.Wrap(err, errs.SQLiteExec, "iterating tile_rows")
	}
	if !found {
		return nil, false, nil
	}
	return t, true, nil
}

// Put overwrites every row of the tile at (pos, kind) in the main table.
func (s *SQLitePointStore) Put(pos tilecoord.Pos, kind ContentKind, t *Tile[numeric.Point]) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errs.Wrap(err, errs.SQLiteExec, "beginning tile_rows write")
	}
	if _, err := tx.Exec(`DELETE FROM tile_rows WHERE tile_x = ? AND tile_y = ? AND content_kind = ?`, pos.X, pos.Y, kind.String()); err != nil {
		tx.Rollback()
		return errs.Wrap(err, errs.SQLiteExec, "clearing tile_rows")
	}
	stmt, err := tx.Prepare(`INSERT INTO tile_rows (tile_x, tile_y, content_kind, row_offset, internal_index, mz, intensity) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return errs.Wrap(err, errs.SQLiteExec, "preparing tile_rows insert")
	}
	defer stmt.Close()
	for offset, row := range t.Rows {
		if len(row) == 0 {
			continue
		}
		idxBlob, mzBlob, intensityBlob := encodeRow(row)
		if _, err := stmt.Exec(pos.X, pos.Y, kind.String(), offset, idxBlob, mzBlob, intensityBlob); err != nil {
			tx.Rollback()
			return errs.Wrap(err, errs.SQLiteExec, "inserting tile_rows")
		}
	}
	if err := tx.Commit(); err != nil {
		return errs.Wrap(err, errs.SQLiteExec, "committing tile_rows write")
	}
	return nil
}

// PutPartialRow appends a single row to the scratch table for (pos, kind),
// used by the sequential builder while a tile is still being filled in.
func (s *SQLitePointStore) PutPartialRow(pos tilecoord.Pos, kind ContentKind, offset int, row []numeric.Point) error {
	idxBlob, mzBlob, intensityBlob := encodeRow(row)
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO tile_rows_scratch (tile_x, tile_y, content_kind, row_offset, internal_index, mz, intensity) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		pos.X, pos.Y, kind.String(), offset, idxBlob, mzBlob, intensityBlob)
	if err != nil {
		return errs.Wrap(err, errs.SQLiteExec, "inserting tile_rows_scratch")
	}
	return nil
}

// Defragment consolidates every scratch row for (pos, kind) into the main
// table in a single transaction, then clears the scratch rows, turning a
// partially-written tile into a complete one.
func (s *SQLitePointStore) Defragment(pos tilecoord.Pos, kind ContentKind) error {
	t, _, err := s.Get(pos, kind)
	if err != nil {
		return err
	}
	if t == nil {
		t = NewTile[numeric.Point](pos, s.height)
	}

	rows, err := s.db.Query(
		`SELECT row_offset, mz, intensity FROM tile_rows_scratch WHERE tile_x = ? AND tile_y = ? AND content_kind = ?`,
		pos.X, pos.Y, kind.String())
	if err != nil {
		return errs.Wrap(err, errs.SQLiteExec, "querying tile_rows_scratch")
	}
	any := false
	for rows.Next() {
		var offset int
		var mzBlob, intensityBlob []byte
		if err := rows.Scan(&offset, &mzBlob, &intensityBlob); err != nil {
			rows.Close()
			return errs.Wrap(err, errs.SQLiteExec, "scanning tile_rows_scratch")
		}
		t.SetRow(offset, decodeRow(mzBlob, intensityBlob))
		any = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return errs.Wrap(err, errs.SQLiteExec, "iterating tile_rows_scratch")
	}
	if !any {
		return nil
	}

	t.Partial = false
	if err := s.Put(pos, kind, t); err != nil {
		return err
	}
	if _, err := s.db.Exec(`DELETE FROM tile_rows_scratch WHERE tile_x = ? AND tile_y = ? AND content_kind = ?`, pos.X, pos.Y, kind.String()); err != nil {
		return errs.Wrap(err, errs.SQLiteExec, "clearing tile_rows_scratch")
	}
	return nil
}

func (s *SQLitePointStore) Has(pos tilecoord.Pos, kind ContentKind) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM tile_rows WHERE tile_x = ? AND tile_y = ? AND content_kind = ?`, pos.X, pos.Y, kind.String()).Scan(&count)
	if err != nil {
		return false, errs.Wrap(err, errs.SQLiteExec, "checking tile_rows existence")
	}
	return count > 0, nil
}

func (s *SQLitePointStore) Delete(pos tilecoord.Pos, kind ContentKind) error {
	if _, err := s.db.Exec(`DELETE FROM tile_rows WHERE tile_x = ? AND tile_y = ? AND content_kind = ?`, pos.X, pos.Y, kind.String()); err != nil {
		return errs.Wrap(err, errs.SQLiteExec, "deleting tile_rows")
	}
	return nil
}

func (s *SQLitePointStore) Positions(kind ContentKind) ([]tilecoord.Pos, error) {
	rows, err := s.db.Query(`SELECT DISTINCT tile_x, tile_y FROM tile_rows WHERE content_kind = ?`, kind.String())
	if err != nil {
		return nil, errs.Wrap(err, errs.SQLiteExec, "listing tile positions")
	}
	defer rows.Close()
	var out []tilecoord.Pos
	for rows.Next() {
		var p tilecoord.Pos
		if err := rows.Scan(&p.X, &p.Y); err != nil {
			return nil, errs.Wrap(err, errs.SQLiteExec, "scanning tile positions")
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLitePointStore) Close() error {
	if err := s.db.Close(); err != nil {
		return errs.Wrap(err, errs.SQLiteExec, "closing sqlite point store")
	}
	return nil
}
