package store

import (
	"fmt"
	"sort"
)

// GetTransactionHistory merges the user-visible records of all four
// operation kinds into one feed sorted by updated_at descending.
//
// Visible means Success everywhere, plus WaitingConfirmation for on-chain
// receives: a deposit seen in the mempool shows up before it settles.
func (s *DB) GetTransactionHistory() ([]TransactionItem, error) {
	lightningPayments, err := s.lightningPaymentHistory()
	if err != nil {
		return nil, err
	}
	lightningReceives, err := s.lightningReceiveHistory()
	if err != nil {
		return nil, err
	}
	onchainPayments, err := s.onChainPaymentHistory()
	if err != nil {
		return nil, err
	}
	onchainReceives, err := s.onChainReceiveHistory()
	if err != nil {
		return nil, err
	}

	items := make([]TransactionItem, 0,
		len(lightningPayments)+len(lightningReceives)+len(onchainPayments)+len(onchainReceives))
	for _, p := range lightningPayments {
		items = append(items, p.transactionItem())
	}
	for _, r := range lightningReceives {
		items = append(items, r.transactionItem())
	}
	for _, p := range onchainPayments {
		items = append(items, p.transactionItem())
	}
	for _, r := range onchainReceives {
		items = append(items, r.transactionItem())
	}

	// most recent first; ties are unordered
	sort.Slice(items, func(i, j int) bool {
		return items[i].Timestamp.After(items[j].Timestamp)
	})

	return items, nil
}

func (s *DB) lightningPaymentHistory() ([]LightningPayment, error) {
	rows, err := s.db.Query(`
		SELECT operation_id, fedimint_id, cashu_mint_url, payment_hash, bolt11,
		       amount_msats, fee_msats, preimage, status, created_at, updated_at
		FROM lightning_payments WHERE status = ?
	`, int(StatusSuccess))
	if err != nil {
		return nil, fmt.Errorf("query lightning payment history: %w", err)
	}
	defer rows.Close()

	var out []LightningPayment
	for rows.Next() {
		p, err := scanLightningPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *DB) lightningReceiveHistory() ([]LightningReceive, error) {
	rows, err := s.db.Query(`
		SELECT operation_id, fedimint_id, cashu_mint_url, payment_hash, bolt11,
		       amount_msats, fee_msats, status, created_at, updated_at
		FROM lightning_receives WHERE status = ?
	`, int(StatusSuccess))
	if err != nil {
		return nil, fmt.Errorf("query lightning receive history: %w", err)
	}
	defer rows.Close()

	var out []LightningReceive
	for rows.Next() {
		r, err := scanLightningReceive(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *DB) onChainPaymentHistory() ([]OnChainPayment, error) {
	rows, err := s.db.Query(`
		SELECT operation_id, fedimint_id, cashu_mint_url, address,
		       amount_sats, fee_sats, txid, status, created_at, updated_at
		FROM on_chain_payments WHERE status = ?
	`, int(StatusSuccess))
	if err != nil {
		return nil, fmt.Errorf("query onchain payment history: %w", err)
	}
	defer rows.Close()

	var out []OnChainPayment
	for rows.Next() {
		p, err := scanOnChainPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *DB) onChainReceiveHistory() ([]OnChainReceive, error) {
	rows, err := s.db.Query(`
		SELECT operation_id, fedimint_id, cashu_mint_url, address,
		       amount_sats, fee_sats, txid, status, created_at, updated_at
		FROM on_chain_receives WHERE status IN (?, ?)
	`, int(StatusSuccess), int(StatusWaitingConfirmation))
	if err != nil {
		return nil, fmt.Errorf("query onchain receive history: %w", err)
	}
	defer rows.Close()

	var out []OnChainReceive
	for rows.Next() {
		r, err := scanOnChainReceive(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}
