package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgSearch implements Searcher over PostgreSQL as a fallback when
// Meilisearch is down.
type PgSearch struct {
	db *sql.DB
}

// NewPgSearch creates a PostgreSQL searcher.
func NewPgSearch(db *sql.DB) *PgSearch {
	return &PgSearch{db: db}
}

// Healthy always returns true. If Postgres is down, the whole app is down.
func (p *PgSearch) Healthy() bool {
	return true
}

// Search runs a case-insensitive substring match across group, client,
// code and label, most specific columns first.
func (p *PgSearch) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	pattern := "%" + q.Text + "%"
	where := `group_name ILIKE $1 OR client_name ILIKE $1 OR code ILIKE $1 OR label ILIKE $1`

	ctx := context.Background()

	var total int
	countSQL := fmt.Sprintf("SELECT count(*) FROM missions WHERE %s", where)
	if err := p.db.QueryRowContext(ctx, countSQL, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgsearch count: %w", err)
	}

	dataSQL := fmt.Sprintf(`
		SELECT mission_id, group_id, group_name, client_id, client_name, code, label, millesime
		FROM missions
		WHERE %s
		ORDER BY
			CASE
				WHEN code ILIKE $1 THEN 0
				WHEN client_name ILIKE $1 THEN 1
				WHEN group_name ILIKE $1 THEN 2
				ELSE 3
			END,
			group_name, client_name, code
		LIMIT %d OFFSET %d`, where, limit, offset)

	rows, err := p.db.QueryContext(ctx, dataSQL, pattern)
	if err != nil {
		return nil, 0, fmt.Errorf("pgsearch query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.MissionID, &r.GroupID, &r.GroupName, &r.ClientID, &r.ClientName, &r.Code, &r.Label, &r.Millesime); err != nil {
			return nil, 0, fmt.Errorf("pgsearch scan: %w", err)
		}
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns all missions for full reindexing.
func (p *PgSearch) LoadAllRecords(ctx context.Context) ([]MissionRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT mission_id, group_id, group_name, client_id, client_name, code, label, millesime
		FROM missions
	`)
	if err != nil {
		return nil, fmt.Errorf("load missions: %w", err)
	}
	defer rows.Close()

	missions := make([]MissionRecord, 0)
	for rows.Next() {
		var m MissionRecord
		if err := rows.Scan(&m.ID, &m.GroupID, &m.GroupName, &m.ClientID, &m.ClientName, &m.Code, &m.Label, &m.Millesime); err != nil {
			return nil, fmt.Errorf("scan mission: %w", err)
		}
		missions = append(missions, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate missions: %w", err)
	}
	return missions, nil
}
