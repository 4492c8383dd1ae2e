package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"truthguard/internal/analysis"
)

// createdLayout keeps every stored timestamp the same width so created_at
// sorts as text in time order.
const createdLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Record is one finished analysis as kept in the local history.
type Record struct {
	ID        string                   `json:"id"`
	Kind      analysis.Kind            `json:"kind"`
	Input     string                   `json:"input"`
	Result    *analysis.AnalysisResult `json:"result,omitempty"`
	Error     string                   `json:"error,omitempty"`
	CreatedAt time.Time                `json:"created_at"`
}

// RecordFromOutcome converts a session outcome into a history record.
func RecordFromOutcome(o analysis.Outcome) Record {
	return Record{
		Kind:   o.Kind,
		Input:  o.Input,
		Result: o.Result,
		Error:  o.Err,
	}
}

// SaveAnalysis stores rec and returns its id, generating one when rec has none.
func SaveAnalysis(rec Record) (string, error) {
	if err := initDB(); err != nil {
		return "", err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	var resultJSON sql.NullString
	if rec.Result != nil {
		data, err := json.Marshal(rec.Result)
		if err != nil {
			return "", fmt.Errorf("marshal result: %w", err)
		}
		resultJSON = sql.NullString{String: string(data), Valid: true}
	}

	_, err := db.Exec(`
		INSERT INTO analyses (id, kind, input, result_json, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			input = excluded.input,
			result_json = excluded.result_json,
			error = excluded.error;`,
		rec.ID, string(rec.Kind), rec.Input, resultJSON, rec.Error, rec.CreatedAt.UTC().Format(createdLayout),
	)
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

// ListAnalyses returns up to limit records, newest first. limit <= 0 means all.
func ListAnalyses(limit int) ([]Record, error) {
	if err := initDB(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.Query(`
		SELECT id, kind, input, result_json, error, created_at
		FROM analyses
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// LoadAnalysis returns the record with id, or nil when there is none.
func LoadAnalysis(id string) (*Record, error) {
	if err := initDB(); err != nil {
		return nil, err
	}
	row := db.QueryRow(`
		SELECT id, kind, input, result_json, error, created_at
		FROM analyses WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// DeleteAnalysis removes one record. Deleting a missing id is not an error.
func DeleteAnalysis(id string) error {
	if err := initDB(); err != nil {
		return err
	}
	_, err := db.Exec("DELETE FROM analyses WHERE id = ?", id)
	return err
}

func ClearHistory() error {
	if err := initDB(); err != nil {
		return err
	}
	_, err := db.Exec("DELETE FROM analyses")
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (Record, error) {
	var (
		rec           Record
		kind, created string
		resultJSON    sql.NullString
	)
	if err := s.Scan(&rec.ID, &kind, &rec.Input, &resultJSON, &rec.Error, &created); err != nil {
		return Record{}, err
	}
	rec.Kind = analysis.Kind(kind)
	if resultJSON.Valid && resultJSON.String != "" {
		var res analysis.AnalysisResult
		if err := json.Unmarshal([]byte(resultJSON.String), &res); err != nil {
			return Record{}, fmt.Errorf("decode stored result %s: %w", rec.ID, err)
		}
		rec.Result = &res
	}
	t, err := time.Parse(createdLayout, created)
	if err != nil {
		t, err = time.Parse(time.RFC3339Nano, created)
	}
	if err != nil {
		return Record{}, fmt.Errorf("parse created_at %s: %w", rec.ID, err)
	}
	rec.CreatedAt = t
	return rec, nil
}
