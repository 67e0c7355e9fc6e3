// Copyright Veracode, Inc., 2026. All rights reserved.

package verify

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/veracode-customer-success/veracode-report-fetch-reporting-api/pkg/types"
)

// Ledger accumulates audit records across runs in a SQLite database, so
// repeated fetches leave a queryable history next to the audit JSON
// documents.
type Ledger struct {
	db *sql.DB
}

// OpenLedger opens or creates the ledger database at path and ensures
// the schema exists.
func OpenLedger(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening ledger database: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS audits (
		report_id TEXT PRIMARY KEY,
		page_indexes_seen TEXT NOT NULL,
		pages_seen_count INTEGER NOT NULL,
		total_pages_reported INTEGER,
		total_elements_reported INTEGER,
		collected_count INTEGER NOT NULL,
		id_field TEXT,
		duplicate_id_count INTEGER,
		strict_ok INTEGER NOT NULL,
		recorded_at TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger schema: %w", err)
	}

	return &Ledger{db: db}, nil
}

// Close releases the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record inserts or replaces the audit row for a report.
func (l *Ledger) Record(ctx context.Context, a types.AuditRecord) error {
	indexes, err := json.Marshal(a.PageIndexesSeen)
	if err != nil {
		return fmt.Errorf("encoding page indexes: %w", err)
	}

	_, err = l.db.ExecContext(ctx, `INSERT OR REPLACE INTO audits
		(report_id, page_indexes_seen, pages_seen_count, total_pages_reported,
		 total_elements_reported, collected_count, id_field, duplicate_id_count,
		 strict_ok, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ReportID, string(indexes), a.PagesSeenCount, intOrNil(a.TotalPagesReported),
		intOrNil(a.TotalElementsReported), a.CollectedCount, strOrNil(a.IDField),
		intOrNil(a.DuplicateIDCount), a.StrictOK, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("recording audit for report %s: %w", a.ReportID, err)
	}
	return nil
}

// Get returns the stored audit row for a report id, or sql.ErrNoRows.
func (l *Ledger) Get(ctx context.Context, reportID string) (types.AuditRecord, error) {
	row := l.db.QueryRowContext(ctx, `SELECT report_id, page_indexes_seen,
		pages_seen_count, total_pages_reported, total_elements_reported,
		collected_count, id_field, duplicate_id_count, strict_ok
		FROM audits WHERE report_id = ?`, reportID)

	var a types.AuditRecord
	var indexes string
	var totalPages, totalElements, dupCount sql.NullInt64
	var idField sql.NullString
	err := row.Scan(&a.ReportID, &indexes, &a.PagesSeenCount, &totalPages,
		&totalElements, &a.CollectedCount, &idField, &dupCount, &a.StrictOK)
	if err != nil {
		return types.AuditRecord{}, err
	}

	if err := json.Unmarshal([]byte(indexes), &a.PageIndexesSeen); err != nil {
		return types.AuditRecord{}, fmt.Errorf("decoding page indexes: %w", err)
	}
	if totalPages.Valid {
		v := int(totalPages.Int64)
		a.TotalPagesReported = &v
	}
	if totalElements.Valid {
		v := int(totalElements.Int64)
		a.TotalElementsReported = &v
	}
	if dupCount.Valid {
		v := int(dupCount.Int64)
		a.DuplicateIDCount = &v
	}
	if idField.Valid {
		a.IDField = &idField.String
	}
	return a, nil
}

func intOrNil(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func strOrNil(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
