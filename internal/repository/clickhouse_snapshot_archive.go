package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"PlumbWatch/internal/domain/models"
	domrepo "PlumbWatch/internal/domain/repository"
	pkgch "PlumbWatch/pkg/clickhouse"
	applogger "PlumbWatch/pkg/logger"
	"PlumbWatch/pkg/util"
)

const defaultSnapshotTable = "market_snapshots"

// SnapshotSchema returns the DDL for the archive table in database db.
func SnapshotSchema(db string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
            date        Date,
            ts          DateTime64(3, 'UTC'),
            cycle_id    String,
            provenance  LowCardinality(String),
            score       UInt8,
            level       LowCardinality(String),
            payload     String
        ) ENGINE = ReplacingMergeTree(ts)
        ORDER BY date`, db, defaultSnapshotTable),
	}
}

// CHSnapshotArchive keeps one row per refresh cycle; reads collapse to the
// latest row of each day.
type CHSnapshotArchive struct {
	client *pkgch.Client
	db     *sql.DB
	table  string
	l      *applogger.Logger
}

var _ domrepo.SnapshotArchive = (*CHSnapshotArchive)(nil)

func NewCHSnapshotArchive(client *pkgch.Client, database string) *CHSnapshotArchive {
	return &CHSnapshotArchive{
		client: client,
		db:     client.DB(),
		table:  database + "." + defaultSnapshotTable,
		l:      applogger.Nop(),
	}
}

// SetLogger injects a structured logger.
func (s *CHSnapshotArchive) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHSnapshotArchive) Name() string { return "clickhouse" }

func (s *CHSnapshotArchive) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

// Consume inserts the payload's daily entry.
func (s *CHSnapshotArchive) Consume(ctx context.Context, data *models.MarketData) error {
	row, err := encodeSnapshotRow(data)
	if err != nil {
		return err
	}

	start := time.Now()
	q := fmt.Sprintf("INSERT INTO %s (date, ts, cycle_id, provenance, score, level, payload) VALUES (?, ?, ?, ?, ?, ?, ?)", s.table)
	if _, err := s.db.ExecContext(ctx, q,
		row.Date, row.TS, row.CycleID, row.Provenance, row.Score, row.Level, row.Payload,
	); err != nil {
		s.l.Error("clickhouse archive insert error",
			applogger.String("table", s.table),
			applogger.String("cycle_id", row.CycleID),
			applogger.Error(err),
		)
		return fmt.Errorf("insert snapshot: %w", err)
	}

	s.l.Debug("clickhouse archive insert ok",
		applogger.String("table", s.table),
		applogger.String("cycle_id", row.CycleID),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

// Range returns the last entry of each day in [from, to], oldest first.
func (s *CHSnapshotArchive) Range(ctx context.Context, from, to time.Time) ([]models.HistoryEntry, error) {
	start := time.Now()
	const qtpl = `
        SELECT argMax(payload, ts)
        FROM %s
        WHERE date >= ? AND date <= ?
        GROUP BY date
        ORDER BY date ASC
    `
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(qtpl, s.table), util.StartOfDay(from), util.StartOfDay(to))
	if err != nil {
		s.l.Error("clickhouse archive range query error",
			applogger.String("table", s.table),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("range snapshots: %w", err)
	}
	defer rows.Close()

	out := make([]models.HistoryEntry, 0, 64)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		entry, err := decodeSnapshotPayload(payload)
		if err != nil {
			s.l.Warn("clickhouse archive skipped bad payload", applogger.Error(err))
			continue
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	s.l.Debug("clickhouse archive range ok",
		applogger.String("table", s.table),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

type snapshotRow struct {
	Date       time.Time
	TS         time.Time
	CycleID    string
	Provenance string
	Score      uint8
	Level      string
	Payload    string
}

func encodeSnapshotRow(data *models.MarketData) (snapshotRow, error) {
	if data == nil {
		return snapshotRow{}, fmt.Errorf("nil market data")
	}
	entry := data.Entry()
	payload, err := json.Marshal(entry)
	if err != nil {
		return snapshotRow{}, fmt.Errorf("encode snapshot: %w", err)
	}

	score := data.Stress.Score
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return snapshotRow{
		Date:       util.StartOfDay(data.Snapshot.Timestamp),
		TS:         data.Snapshot.Timestamp.UTC(),
		CycleID:    data.CycleID,
		Provenance: string(data.DataSource),
		Score:      uint8(score),
		Level:      string(data.Stress.Level),
		Payload:    string(payload),
	}, nil
}

func decodeSnapshotPayload(payload string) (models.HistoryEntry, error) {
	var entry models.HistoryEntry
	if err := json.Unmarshal([]byte(payload), &entry); err != nil {
		return models.HistoryEntry{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if entry.Date == "" {
		return models.HistoryEntry{}, fmt.Errorf("decode snapshot: missing date")
	}
	return entry, nil
}
