package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"mlsync/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := db.seedDefaultRates(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS weights (
  sku TEXT PRIMARY KEY,
  product TEXT NOT NULL DEFAULT '',
  weightKg REAL NOT NULL,
  updatedAt TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS rates (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  maxWeightKg REAL NOT NULL,
  cost REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  mlFile TEXT,
  odooFile TEXT,
  countsJson TEXT NOT NULL,
  timingsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// seedDefaultRates installs the initial tier table exactly once per database
// file. A later deliberate wipe of all rates is respected.
func (d *DB) seedDefaultRates() error {
	seeded, err := d.GetMetadata("rates.seeded")
	if err != nil {
		return err
	}
	if seeded != nil {
		return nil
	}

	defaults := []internal.ShippingRate{
		{MaxWeightKg: 0.5, Cost: 5500},
		{MaxWeightKg: 1.0, Cost: 6800},
		{MaxWeightKg: 2.0, Cost: 8200},
	}
	if err := d.ReplaceRates(defaults); err != nil {
		return err
	}
	return d.SetMetadata("rates.seeded", time.Now().UTC().Format(time.RFC3339))
}

func (d *DB) ListWeights() ([]internal.WeightEntry, error) {
	rows, err := d.conn.Query(`SELECT sku, product, weightKg, updatedAt FROM weights ORDER BY sku ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.WeightEntry
	for rows.Next() {
		var w internal.WeightEntry
		if err := rows.Scan(&w.SKU, &w.Product, &w.WeightKg, &w.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// ReplaceWeights swaps the whole collection. Duplicate SKUs in the payload
// collapse to the last occurrence.
func (d *DB) ReplaceWeights(weights []internal.WeightEntry) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM weights`); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
INSERT INTO weights (sku, product, weightKg, updatedAt) VALUES (?, ?, ?, ?)
ON CONFLICT(sku) DO UPDATE SET
  product=excluded.product,
  weightKg=excluded.weightKg,
  updatedAt=excluded.updatedAt
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, w := range weights {
		if _, err := stmt.Exec(w.SKU, w.Product, w.WeightKg, w.UpdatedAt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) DeleteWeight(sku string) error {
	_, err := d.conn.Exec(`DELETE FROM weights WHERE sku = ?`, sku)
	return err
}

func (d *DB) ListRates() ([]internal.ShippingRate, error) {
	rows, err := d.conn.Query(`SELECT maxWeightKg, cost FROM rates ORDER BY maxWeightKg ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ShippingRate
	for rows.Next() {
		var r internal.ShippingRate
		if err := rows.Scan(&r.MaxWeightKg, &r.Cost); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) ReplaceRates(rates []internal.ShippingRate) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM rates`); err != nil {
		return err
	}
	for _, r := range rates {
		if _, err := tx.Exec(`INSERT INTO rates (maxWeightKg, cost) VALUES (?, ?)`, r.MaxWeightKg, r.Cost); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) InsertRun(traceID, mlFile, odooFile string, counts map[string]int, timings map[string]float64) error {
	countsJSON, _ := json.Marshal(counts)
	timingsJSON, _ := json.Marshal(timings)
	_, err := d.conn.Exec(`
INSERT INTO runs (traceId, mlFile, odooFile, countsJson, timingsJson) VALUES (?, ?, ?, ?, ?)
`, traceID, mlFile, odooFile, string(countsJSON), string(timingsJSON))
	return err
}

func (d *DB) ListRuns(limit int) ([]internal.RunRecord, error) {
	rows, err := d.conn.Query(`
SELECT id, traceId, mlFile, odooFile, countsJson, timingsJson, createdAt
FROM runs ORDER BY id DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RunRecord
	for rows.Next() {
		var r internal.RunRecord
		var countsJSON, timingsJSON string
		if err := rows.Scan(&r.ID, &r.TraceID, &r.MLFile, &r.OdooFile, &countsJSON, &timingsJSON, &r.CreatedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(countsJSON), &r.Counts)
		_ = json.Unmarshal([]byte(timingsJSON), &r.Timings)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
