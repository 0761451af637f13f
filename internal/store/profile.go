package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// GetProfile returns the wallet profile or nil if none exists yet.
func (s *DB) GetProfile() (*Profile, error) {
	var p Profile
	var onchain, tor int
	err := s.db.QueryRow(`
		SELECT id, seed_words, onchain_receive_enabled, tor_enabled FROM profile LIMIT 1
	`).Scan(&p.ID, &p.SeedWords, &onchain, &tor)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	p.OnchainReceiveEnabled = onchain != 0
	p.TorEnabled = tor != 0
	return &p, nil
}

// InsertProfile creates the wallet profile. Seed words are NFKD-normalized
// before storage so the same mnemonic always persists identically.
func (s *DB) InsertProfile(seedWords string) (*Profile, error) {
	p := Profile{
		ID:        uuid.Must(uuid.NewV7()).String(),
		SeedWords: norm.NFKD.String(seedWords),
	}
	_, err := s.db.Exec(`
		INSERT INTO profile (id, seed_words, onchain_receive_enabled, tor_enabled)
		VALUES (?, ?, 0, 0)
	`, p.ID, p.SeedWords)
	if err != nil {
		return nil, fmt.Errorf("insert profile: %w", err)
	}
	return &p, nil
}

// SetOnchainReceiveEnabled toggles the on-chain receive feature flag.
func (s *DB) SetOnchainReceiveEnabled(enabled bool) error {
	_, err := s.db.Exec(`UPDATE profile SET onchain_receive_enabled = ?`, boolToInt(enabled))
	if err != nil {
		return fmt.Errorf("set onchain receive enabled: %w", err)
	}
	return nil
}

// SetTorEnabled toggles the anonymized-transport flag.
func (s *DB) SetTorEnabled(enabled bool) error {
	_, err := s.db.Exec(`UPDATE profile SET tor_enabled = ?`, boolToInt(enabled))
	if err != nil {
		return fmt.Errorf("set tor enabled: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
