package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/career-coach/internal/types"
)

// GetProfile returns the stored profile document. Returns nil, nil when the
// user has never saved one.
func (db *DB) GetProfile(ctx context.Context, userID uuid.UUID) (*types.Profile, error) {
	var doc []byte
	err := db.pool.QueryRow(ctx,
		`SELECT document FROM profiles WHERE user_id = $1`, userID,
	).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	var p types.Profile
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return &p, nil
}

// UpsertProfile replaces the editable profile fields and returns the stored
// document. The resume key is owned by SetResumeKey: p.ResumeKey is ignored
// and the stored key is carried over in the same statement.
func (db *DB) UpsertProfile(ctx context.Context, userID uuid.UUID, p *types.Profile) (*types.Profile, error) {
	fields := *p
	fields.ResumeKey = ""
	doc, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal profile: %w", err)
	}

	var stored []byte
	err = db.pool.QueryRow(ctx,
		`INSERT INTO profiles (user_id, document)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE
		 SET document = EXCLUDED.document
		     || jsonb_strip_nulls(jsonb_build_object('resumeKey', profiles.document->'resumeKey')),
		     updated_at = NOW()
		 RETURNING document`,
		userID, doc,
	).Scan(&stored)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}

	var out types.Profile
	if err := json.Unmarshal(stored, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return &out, nil
}

// SetResumeKey records the object-storage key of the user's latest resume,
// leaving the rest of the profile untouched.
func (db *DB) SetResumeKey(ctx context.Context, userID uuid.UUID, key string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO profiles (user_id, document)
		 VALUES ($1, jsonb_build_object('resumeKey', $2::text))
		 ON CONFLICT (user_id) DO UPDATE
		 SET document = profiles.document || EXCLUDED.document, updated_at = NOW()`,
		userID, key,
	)
	if err != nil {
		return fmt.Errorf("failed to set resume key: %w", err)
	}
	return nil
}
