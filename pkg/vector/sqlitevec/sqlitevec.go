// Package sqlitevec provides a SQLite-backed vector driver using sqlite-vec.
//
// It exists so the service and loader can run against a local file (or an
// in-memory database in tests) without a Qdrant account.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/cardinalpay/sift/pkg/vector"
)

// Driver implements vector.Driver using SQLite with sqlite-vec.
type Driver struct {
	db         *sql.DB
	dimensions uint
	logger     *slog.Logger
}

// Config holds configuration for the SQLite vec driver.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint
}

// NewDriver creates a new SQLite vector driver backed by sqlite-vec.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	if c.Dimensions == 0 {
		return nil, fmt.Errorf("sqlite-vec embedding dimensions cannot be 0, must be configured")
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Verify sqlite-vec is loaded
	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	logger.Info("sqlite-vec vector driver initialized",
		"db_path", c.DBPath,
		"dimensions", c.Dimensions,
		"vec_version", vecVersion,
	)

	return &Driver{
		db:         db,
		dimensions: c.Dimensions,
		logger:     logger,
	}, nil
}

// EnsureCollection creates the payload table and the vec0 virtual table.
// The payload-field indexes Qdrant maintains have no sqlite-vec equivalent;
// payloads here live as JSON in a side table keyed by the point id.
func (d *Driver) EnsureCollection(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS transaction_payloads (
			id INTEGER PRIMARY KEY,
			payload TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("%w: creating payload table: %v", vector.ErrConnection, err)
	}

	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS transaction_vectors USING vec0(embedding float[%d] distance_metric=cosine)`,
		d.dimensions,
	)
	if _, err := d.db.ExecContext(ctx, createVec); err != nil {
		return fmt.Errorf("%w: creating vec0 table: %v", vector.ErrConnection, err)
	}

	return nil
}

// Upsert inserts or overwrites points by ID.
func (d *Driver) Upsert(ctx context.Context, points []vector.Point) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range points {
		blob, err := serializeFloat32(p.Embedding)
		if err != nil {
			return fmt.Errorf("serializing embedding for point %d: %w", p.ID, err)
		}

		payload, err := json.Marshal(p.Payload)
		if err != nil {
			return fmt.Errorf("encoding payload for point %d: %w", p.ID, err)
		}

		// vec0 virtual tables do not support ON CONFLICT; delete then insert.
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM transaction_vectors WHERE rowid = ?`, int64(p.ID),
		); err != nil {
			return fmt.Errorf("clearing point %d: %w", p.ID, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO transaction_vectors (rowid, embedding) VALUES (?, ?)`,
			int64(p.ID), blob,
		); err != nil {
			return fmt.Errorf("inserting embedding for point %d: %w", p.ID, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO transaction_payloads (id, payload) VALUES (?, ?)`,
			int64(p.ID), string(payload),
		); err != nil {
			return fmt.Errorf("inserting payload for point %d: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing upsert: %w", err)
	}

	d.logger.Debug("upserted points to sqlite-vec", "count", len(points))

	return nil
}

// Search returns the limit nearest stored points by cosine similarity.
func (d *Driver) Search(ctx context.Context, embedding []float32, limit int) ([]vector.Neighbor, error) {
	if limit <= 0 {
		limit = 5
	}

	blob, err := serializeFloat32(embedding)
	if err != nil {
		return nil, fmt.Errorf("%w: serializing query embedding: %v", vector.ErrSearch, err)
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT v.rowid, v.distance, p.payload
		FROM transaction_vectors v
		JOIN transaction_payloads p ON p.id = v.rowid
		WHERE v.embedding MATCH ? AND v.k = ?
		ORDER BY v.distance
	`, blob, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vector.ErrSearch, err)
	}
	defer rows.Close()

	var neighbors []vector.Neighbor
	for rows.Next() {
		var (
			id       int64
			distance float64
			raw      string
		)
		if err := rows.Scan(&id, &distance, &raw); err != nil {
			return nil, fmt.Errorf("%w: scanning result: %v", vector.ErrSearch, err)
		}

		var payload map[string]any
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return nil, fmt.Errorf("%w: decoding payload for point %d: %v", vector.ErrSearch, id, err)
		}

		// Cosine distance to similarity.
		neighbors = append(neighbors, vector.Neighbor{
			ID:      uint64(id),
			Score:   float32(1 - distance),
			Payload: payload,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", vector.ErrSearch, err)
	}

	d.logger.Debug("queried sqlite-vec", "results", len(neighbors))

	return neighbors, nil
}

// Close releases the database handle.
func (d *Driver) Close() error {
	return d.db.Close()
}

// serializeFloat32 converts a float32 slice to a little-endian byte slice
// suitable for sqlite-vec BLOB format.
func serializeFloat32(v []float32) ([]byte, error) {
	if len(v) == 0 {
		return nil, fmt.Errorf("empty embedding")
	}
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf, nil
}

// Ensure Driver implements vector.Driver
var _ vector.Driver = (*Driver)(nil)
