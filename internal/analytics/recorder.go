// Package analytics keeps an append-only record of every conversion attempt
// and aggregates it into usage insights.
package analytics

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"sync"

	"github.com/marcboeker/go-duckdb"

	"github.com/swiftconvert/backend/internal/models"
)

const recordQueueSize = 1024

// Recorder persists conversion records in a DuckDB file. Writes go through a
// single goroutine so callers never block on the database; a full queue drops
// the record rather than stalling a conversion.
type Recorder struct {
	db      *sql.DB
	queue   chan models.AnalyticsRecord
	done    chan struct{}
	mu      sync.RWMutex
	closed  bool
	pending sync.WaitGroup
}

// NewRecorder opens (or creates) the analytics database at dbPath.
func NewRecorder(dbPath string) (*Recorder, error) {
	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		pragmas := []string{
			"PRAGMA memory_limit='256MB'",
			"PRAGMA threads=2",
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS conversions (
			ts            TIMESTAMP NOT NULL,
			input_format  VARCHAR NOT NULL,
			output_format VARCHAR NOT NULL,
			success       BOOLEAN NOT NULL,
			error_kind    VARCHAR,
			duration_ms   BIGINT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	r := &Recorder{
		db:    db,
		queue: make(chan models.AnalyticsRecord, recordQueueSize),
		done:  make(chan struct{}),
	}
	go r.writeLoop()
	return r, nil
}

// Record enqueues an event. It never blocks; under sustained backpressure
// the event is dropped, and a record arriving after Close is a no-op.
func (r *Recorder) Record(rec models.AnalyticsRecord) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	r.pending.Add(1)
	select {
	case r.queue <- rec:
	default:
		r.pending.Done()
	}
}

// Flush blocks until every enqueued record has been written.
func (r *Recorder) Flush() {
	r.pending.Wait()
}

func (r *Recorder) writeLoop() {
	defer close(r.done)
	for rec := range r.queue {
		_, err := r.db.Exec(
			`INSERT INTO conversions (ts, input_format, output_format, success, error_kind, duration_ms)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			rec.Timestamp, rec.InputFormat, rec.OutputFormat, rec.Success, rec.ErrorKind, rec.DurationMs,
		)
		if err != nil {
			fmt.Printf("[Analytics] insert failed: %v\n", err)
		}
		r.pending.Done()
	}
}

// Close drains the queue and closes the database.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()
	<-r.done
	return r.db.Close()
}

// PairCount is one conversion pair with its observed frequency.
type PairCount struct {
	Conversion string `json:"conversion"`
	Count      int    `json:"count"`
}

// FailureCount is one error kind with its observed frequency.
type FailureCount struct {
	ErrorKind string `json:"error_kind"`
	Count     int    `json:"count"`
}

// Insights is the aggregated usage summary served by the analytics endpoint.
type Insights struct {
	TotalConversions   int            `json:"total_conversions"`
	SuccessRate        float64        `json:"success_rate"`
	PopularConversions []PairCount    `json:"popular_conversions"`
	FailurePatterns    []FailureCount `json:"failure_patterns"`
	AvgDurationMs      float64        `json:"avg_duration_ms"`
}

const popularLimit = 5

// Insights aggregates the full record set.
func (r *Recorder) Insights(ctx context.Context) (*Insights, error) {
	out := &Insights{
		PopularConversions: []PairCount{},
		FailurePatterns:    []FailureCount{},
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(AVG(CASE WHEN success THEN 1.0 ELSE 0.0 END), 0),
		       COALESCE(AVG(duration_ms), 0)
		FROM conversions`)
	if err := row.Scan(&out.TotalConversions, &out.SuccessRate, &out.AvgDurationMs); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT input_format || '_to_' || output_format AS pair, COUNT(*) AS n
		FROM conversions
		GROUP BY pair ORDER BY n DESC, pair LIMIT ?`, popularLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var pc PairCount
		if err := rows.Scan(&pc.Conversion, &pc.Count); err != nil {
			return nil, err
		}
		out.PopularConversions = append(out.PopularConversions, pc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	failRows, err := r.db.QueryContext(ctx, `
		SELECT error_kind, COUNT(*) AS n
		FROM conversions
		WHERE NOT success AND error_kind IS NOT NULL AND error_kind <> ''
		GROUP BY error_kind ORDER BY n DESC, error_kind`)
	if err != nil {
		return nil, err
	}
	defer failRows.Close()
	for failRows.Next() {
		var fc FailureCount
		if err := failRows.Scan(&fc.ErrorKind, &fc.Count); err != nil {
			return nil, err
		}
		out.FailurePatterns = append(out.FailurePatterns, fc)
	}
	return out, failRows.Err()
}

// Export streams every record in insertion order, for the msgpack export
// endpoint. The visit callback returning an error stops the scan.
func (r *Recorder) Export(ctx context.Context, visit func(models.AnalyticsRecord) error) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ts, input_format, output_format, success, COALESCE(error_kind, ''), duration_ms
		FROM conversions ORDER BY ts`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var rec models.AnalyticsRecord
		if err := rows.Scan(&rec.Timestamp, &rec.InputFormat, &rec.OutputFormat, &rec.Success, &rec.ErrorKind, &rec.DurationMs); err != nil {
			return err
		}
		if err := visit(rec); err != nil {
			return err
		}
	}
	return rows.Err()
}
