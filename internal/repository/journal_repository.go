package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/Qiyd81/flightsurety-2/internal/surety"
)

// JournalRepo appends every committed engine event to 'surety_events'.
type JournalRepo struct{ DB *sql.DB }

func NewJournalRepo(db *sql.DB) *JournalRepo { return &JournalRepo{DB: db} }

// Emit stores ev.  Replayed events are ignored by id.
func (r *JournalRepo) Emit(ctx context.Context, ev surety.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	var flight sql.NullString
	if ev.Flight != nil {
		flight = sql.NullString{String: ev.Flight.String(), Valid: true}
	}
	_, err = r.DB.ExecContext(ctx,
		`INSERT IGNORE INTO surety_events (id, seq, type, account, flight, payload, occurred_at)
		 VALUES (?,?,?,?,?,?,?)`,
		ev.ID, ev.Seq, string(ev.Type), ev.Account.String(), flight, payload, ev.At)
	return err
}

// ListSince returns up to limit events with a sequence number above seq,
// oldest first.
func (r *JournalRepo) ListSince(ctx context.Context, seq uint64, limit int) ([]surety.Event, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT payload FROM surety_events WHERE seq > ? ORDER BY seq, occurred_at LIMIT ?",
		seq, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []surety.Event{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var ev surety.Event
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
