package store

import (
	"database/sql"
	"encoding/json"

	"github.com/teranos/triage/errors"
	"github.com/teranos/triage/triage"
)

// SQLStore persists responses in an embedded SQLite database. Each Put is a
// single upsert statement, atomic under SQLite's transaction semantics.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an open database handle with the schema already
// applied (see db.OpenWithMigrations)
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Get returns the persisted response for nuc, or triage.ErrResponseNotFound
func (s *SQLStore) Get(nuc string) (*triage.Response, error) {
	query := `
		SELECT nuc, narrative, raw_output, fields, status, attempts,
		       failure_reason, model, prompt_hash, created_at
		FROM responses WHERE nuc = ?
	`
	resp, err := scanResponse(s.db.QueryRow(query, nuc))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(triage.ErrResponseNotFound, "nuc %s", nuc)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get response for %s", nuc)
	}
	return resp, nil
}

// Put atomically publishes the response, replacing any previous one
func (s *SQLStore) Put(resp *triage.Response) error {
	fieldsJSON, err := marshalFields(resp.Fields)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal fields for %s", resp.NUC)
	}

	query := `
		INSERT INTO responses (
			nuc, narrative, raw_output, fields, status, attempts,
			failure_reason, model, prompt_hash, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(nuc) DO UPDATE SET
			narrative = excluded.narrative,
			raw_output = excluded.raw_output,
			fields = excluded.fields,
			status = excluded.status,
			attempts = excluded.attempts,
			failure_reason = excluded.failure_reason,
			model = excluded.model,
			prompt_hash = excluded.prompt_hash,
			created_at = excluded.created_at
	`

	_, err = s.db.Exec(query,
		resp.NUC,
		resp.Narrative,
		nullString(resp.RawOutput),
		nullString(fieldsJSON),
		string(resp.Status),
		resp.Attempts,
		nullString(resp.FailureReason),
		nullString(resp.Model),
		nullString(resp.PromptHash),
		resp.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to put response for %s", resp.NUC)
	}
	return nil
}

// List enumerates all persisted responses ordered by NUC
func (s *SQLStore) List() ([]*triage.Response, error) {
	query := `
		SELECT nuc, narrative, raw_output, fields, status, attempts,
		       failure_reason, model, prompt_hash, created_at
		FROM responses ORDER BY nuc
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list responses")
	}
	defer rows.Close()

	var responses []*triage.Response
	for rows.Next() {
		resp, err := scanResponse(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan response row")
		}
		responses = append(responses, resp)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate responses")
	}
	return responses, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanResponse(row rowScanner) (*triage.Response, error) {
	var resp triage.Response
	var rawOutput, fieldsJSON, failureReason, model, promptHash sql.NullString
	var status string

	err := row.Scan(
		&resp.NUC,
		&resp.Narrative,
		&rawOutput,
		&fieldsJSON,
		&status,
		&resp.Attempts,
		&failureReason,
		&model,
		&promptHash,
		&resp.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	resp.Status = triage.ValidationStatus(status)
	resp.RawOutput = rawOutput.String
	resp.FailureReason = failureReason.String
	resp.Model = model.String
	resp.PromptHash = promptHash.String

	if fieldsJSON.Valid && fieldsJSON.String != "" {
		if err := json.Unmarshal([]byte(fieldsJSON.String), &resp.Fields); err != nil {
			return nil, errors.Wrapf(err, "corrupt fields JSON for %s", resp.NUC)
		}
	}
	return &resp, nil
}

func marshalFields(fields map[string]any) (string, error) {
	if len(fields) == 0 {
		return "", nil
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
