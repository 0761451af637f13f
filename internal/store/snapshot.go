package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// GetFederationValue returns the snapshot blob for a federation and whether
// a row exists. The blob may be empty for a freshly joined federation.
func (s *DB) GetFederationValue(id string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM fedimint WHERE id = ?`, id).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get federation value: %w", err)
	}
	return value, true, nil
}

// InsertNewFederation creates the snapshot row for a newly joined federation
// with an empty blob.
func (s *DB) InsertNewFederation(id, inviteCode string) error {
	_, err := s.db.Exec(`
		INSERT INTO fedimint (id, invite_code, value, active) VALUES (?, ?, ?, 1)
	`, id, inviteCode, []byte{})
	if err != nil {
		return fmt.Errorf("insert new federation: %w", err)
	}
	return nil
}

// UpdateFederationValue replaces the snapshot blob for a federation as a
// single update. Every client transaction commit rewrites the whole blob.
func (s *DB) UpdateFederationValue(id string, value []byte) error {
	res, err := s.db.Exec(`UPDATE fedimint SET value = ? WHERE id = ?`, value, id)
	if err != nil {
		return fmt.Errorf("update federation value: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update federation value: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update federation value: no snapshot row for %s", id)
	}
	return nil
}

// SetFederationActive reactivates an archived federation.
func (s *DB) SetFederationActive(id string) error {
	_, err := s.db.Exec(`UPDATE fedimint SET active = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("set federation active: %w", err)
	}
	return nil
}

// ArchiveFederation marks a federation as removed. The snapshot blob is
// kept so the federation can be rejoined without a fresh recovery.
func (s *DB) ArchiveFederation(id string) error {
	_, err := s.db.Exec(`UPDATE fedimint SET active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("archive federation: %w", err)
	}
	return nil
}

// ListFederations returns the ids of active federations.
func (s *DB) ListFederations() ([]string, error) {
	return s.listFederations(1)
}

// ListArchivedFederations returns the ids of archived federations.
func (s *DB) ListArchivedFederations() ([]string, error) {
	return s.listFederations(0)
}

func (s *DB) listFederations(active int) ([]string, error) {
	rows, err := s.db.Query(`SELECT id FROM fedimint WHERE active = ? ORDER BY id`, active)
	if err != nil {
		return nil, fmt.Errorf("list federations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetFederationInviteCode returns the invite code stored at join time, or
// empty if the federation is unknown.
func (s *DB) GetFederationInviteCode(id string) (string, error) {
	var code string
	err := s.db.QueryRow(`SELECT invite_code FROM fedimint WHERE id = ?`, id).Scan(&code)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get federation invite code: %w", err)
	}
	return code, nil
}

// InsertCashuMint records a Cashu mint membership. Re-adding a known mint
// reactivates it.
func (s *DB) InsertCashuMint(url string) error {
	_, err := s.db.Exec(`
		INSERT INTO cashu_mint (mint_url, active) VALUES (?, 1)
		ON CONFLICT(mint_url) DO UPDATE SET active = 1
	`, url)
	if err != nil {
		return fmt.Errorf("insert cashu mint: %w", err)
	}
	return nil
}

// SetCashuMintActive reactivates an archived mint.
func (s *DB) SetCashuMintActive(url string) error {
	_, err := s.db.Exec(`UPDATE cashu_mint SET active = 1 WHERE mint_url = ?`, url)
	if err != nil {
		return fmt.Errorf("set cashu mint active: %w", err)
	}
	return nil
}

// ArchiveCashuMint marks a mint as removed.
func (s *DB) ArchiveCashuMint(url string) error {
	_, err := s.db.Exec(`UPDATE cashu_mint SET active = 0 WHERE mint_url = ?`, url)
	if err != nil {
		return fmt.Errorf("archive cashu mint: %w", err)
	}
	return nil
}

// ListCashuMints returns the urls of active Cashu mints.
func (s *DB) ListCashuMints() ([]string, error) {
	rows, err := s.db.Query(`SELECT mint_url FROM cashu_mint WHERE active = 1 ORDER BY mint_url`)
	if err != nil {
		return nil, fmt.Errorf("list cashu mints: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, rows.Err()
}
