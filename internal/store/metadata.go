package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// GetFederationMetadata returns the cached metadata row for a federation,
// or nil if none has been fetched yet.
func (s *DB) GetFederationMetadata(id string) (*MintMetadata, error) {
	var m MintMetadata
	var name, welcome, preview, countdown *string
	err := s.db.QueryRow(`
		SELECT id, name, welcome_message, federation_expiry_timestamp,
		       preview_message, popup_end_timestamp, popup_countdown_message,
		       created_at, updated_at
		FROM mint_metadata WHERE id = ?
	`, id).Scan(&m.ID, &name, &welcome, &m.FederationExpiry,
		&preview, &m.PopupEndTimestamp, &countdown, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get federation metadata: %w", err)
	}
	if name != nil {
		m.Name = *name
	}
	if welcome != nil {
		m.WelcomeMessage = *welcome
	}
	if preview != nil {
		m.PreviewMessage = *preview
	}
	if countdown != nil {
		m.PopupCountdownMessage = *countdown
	}
	return &m, nil
}

// UpsertFederationMetadata inserts or refreshes the metadata row for a
// federation, bumping updated_at but preserving created_at.
func (s *DB) UpsertFederationMetadata(meta MintMetadata) error {
	now := s.now()
	_, err := s.db.Exec(`
		INSERT INTO mint_metadata
		(id, name, welcome_message, federation_expiry_timestamp, preview_message,
		 popup_end_timestamp, popup_countdown_message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			welcome_message = excluded.welcome_message,
			federation_expiry_timestamp = excluded.federation_expiry_timestamp,
			preview_message = excluded.preview_message,
			popup_end_timestamp = excluded.popup_end_timestamp,
			popup_countdown_message = excluded.popup_countdown_message,
			updated_at = excluded.updated_at
	`, meta.ID, nullable(meta.Name), nullable(meta.WelcomeMessage), meta.FederationExpiry,
		nullable(meta.PreviewMessage), meta.PopupEndTimestamp, nullable(meta.PopupCountdownMessage),
		now, now)
	if err != nil {
		return fmt.Errorf("upsert federation metadata: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
