package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// The ledger enforces forward-only status transitions in SQL: every
// terminal UPDATE carries a WHERE clause excluding records that are
// already terminal, so a late duplicate "mark failed" against a Success
// record is a no-op rather than an overwrite.

func (s *DB) now() time.Time {
	return time.Now().UTC()
}

func validateInvoiceAmount(invoice Invoice, amountMsats uint64) error {
	if invoice.AmountMsats != 0 && invoice.AmountMsats != amountMsats {
		return fmt.Errorf("%w: invoice %d msat, declared %d msat",
			ErrAmountMismatch, invoice.AmountMsats, amountMsats)
	}
	return nil
}

// CreateLightningPayment records a new outbound Lightning payment as Pending.
// Fails if the operation id already exists or the invoice amount mismatches.
func (s *DB) CreateLightningPayment(operationID string, mint MintID, invoice Invoice, amountMsats, feeMsats uint64) error {
	if err := validateInvoiceAmount(invoice, amountMsats); err != nil {
		return err
	}

	fedimintID, cashuMintURL := mint.columns()
	now := s.now()
	_, err := s.db.Exec(`
		INSERT INTO lightning_payments
		(operation_id, fedimint_id, cashu_mint_url, payment_hash, bolt11, amount_msats, fee_msats, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, operationID, fedimintID, cashuMintURL, invoice.PaymentHash, invoice.Encoded,
		int64(amountMsats), int64(feeMsats), int(StatusPending), now, now)
	if err != nil {
		return fmt.Errorf("create lightning payment: %w", err)
	}
	return nil
}

// SetLightningPaymentComplete stores the preimage, optionally corrects the
// fee to the amount actually paid, and marks the payment Success.
func (s *DB) SetLightningPaymentComplete(operationID, preimage string, feeMsats *uint64) error {
	var err error
	if feeMsats != nil {
		_, err = s.db.Exec(`
			UPDATE lightning_payments
			SET preimage = ?, fee_msats = ?, status = ?, updated_at = ?
			WHERE operation_id = ? AND status NOT IN (?, ?)
		`, preimage, int64(*feeMsats), int(StatusSuccess), s.now(),
			operationID, int(StatusSuccess), int(StatusFailed))
	} else {
		_, err = s.db.Exec(`
			UPDATE lightning_payments
			SET preimage = ?, status = ?, updated_at = ?
			WHERE operation_id = ? AND status NOT IN (?, ?)
		`, preimage, int(StatusSuccess), s.now(),
			operationID, int(StatusSuccess), int(StatusFailed))
	}
	if err != nil {
		return fmt.Errorf("set lightning payment complete: %w", err)
	}
	return nil
}

// MarkLightningPaymentFailed marks a payment Failed unless already terminal.
func (s *DB) MarkLightningPaymentFailed(operationID string) error {
	_, err := s.db.Exec(`
		UPDATE lightning_payments SET status = ?, updated_at = ?
		WHERE operation_id = ? AND status NOT IN (?, ?)
	`, int(StatusFailed), s.now(), operationID, int(StatusSuccess), int(StatusFailed))
	if err != nil {
		return fmt.Errorf("mark lightning payment failed: %w", err)
	}
	return nil
}

// GetLightningPayment returns the payment or nil if not found.
func (s *DB) GetLightningPayment(operationID string) (*LightningPayment, error) {
	row := s.db.QueryRow(`
		SELECT operation_id, fedimint_id, cashu_mint_url, payment_hash, bolt11,
		       amount_msats, fee_msats, preimage, status, created_at, updated_at
		FROM lightning_payments WHERE operation_id = ?
	`, operationID)

	p, err := scanLightningPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get lightning payment: %w", err)
	}
	return p, nil
}

// GetPendingLightningPayments returns payments that are not yet terminal.
func (s *DB) GetPendingLightningPayments() ([]LightningPayment, error) {
	rows, err := s.db.Query(`
		SELECT operation_id, fedimint_id, cashu_mint_url, payment_hash, bolt11,
		       amount_msats, fee_msats, preimage, status, created_at, updated_at
		FROM lightning_payments WHERE status IN (?, ?)
	`, int(StatusPending), int(StatusWaitingConfirmation))
	if err != nil {
		return nil, fmt.Errorf("query pending lightning payments: %w", err)
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

// CreateLightningReceive records a new inbound Lightning payment as Pending.
func (s *DB) CreateLightningReceive(operationID string, mint MintID, invoice Invoice, amountMsats, feeMsats uint64) error {
	if err := validateInvoiceAmount(invoice, amountMsats); err != nil {
		return err
	}

	fedimintID, cashuMintURL := mint.columns()
	now := s.now()
	_, err := s.db.Exec(`
		INSERT INTO lightning_receives
		(operation_id, fedimint_id, cashu_mint_url, payment_hash, bolt11, amount_msats, fee_msats, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, operationID, fedimintID, cashuMintURL, invoice.PaymentHash, invoice.Encoded,
		int64(amountMsats), int64(feeMsats), int(StatusPending), now, now)
	if err != nil {
		return fmt.Errorf("create lightning receive: %w", err)
	}
	return nil
}

// MarkLightningReceiveSuccess marks a receive Success unless already terminal.
func (s *DB) MarkLightningReceiveSuccess(operationID string) error {
	_, err := s.db.Exec(`
		UPDATE lightning_receives SET status = ?, updated_at = ?
		WHERE operation_id = ? AND status NOT IN (?, ?)
	`, int(StatusSuccess), s.now(), operationID, int(StatusSuccess), int(StatusFailed))
	if err != nil {
		return fmt.Errorf("mark lightning receive success: %w", err)
	}
	return nil
}

// MarkLightningReceiveFailed marks a receive Failed unless already terminal.
func (s *DB) MarkLightningReceiveFailed(operationID string) error {
	_, err := s.db.Exec(`
		UPDATE lightning_receives SET status = ?, updated_at = ?
		WHERE operation_id = ? AND status NOT IN (?, ?)
	`, int(StatusFailed), s.now(), operationID, int(StatusSuccess), int(StatusFailed))
	if err != nil {
		return fmt.Errorf("mark lightning receive failed: %w", err)
	}
	return nil
}

// GetLightningReceive returns the receive or nil if not found.
func (s *DB) GetLightningReceive(operationID string) (*LightningReceive, error) {
	row := s.db.QueryRow(`
		SELECT operation_id, fedimint_id, cashu_mint_url, payment_hash, bolt11,
		       amount_msats, fee_msats, status, created_at, updated_at
		FROM lightning_receives WHERE operation_id = ?
	`, operationID)

	r, err := scanLightningReceive(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get lightning receive: %w", err)
	}
	return r, nil
}

// GetPendingLightningReceives returns receives that are not yet terminal.
func (s *DB) GetPendingLightningReceives() ([]LightningReceive, error) {
	rows, err := s.db.Query(`
		SELECT operation_id, fedimint_id, cashu_mint_url, payment_hash, bolt11,
		       amount_msats, fee_msats, status, created_at, updated_at
		FROM lightning_receives WHERE status IN (?, ?)
	`, int(StatusPending), int(StatusWaitingConfirmation))
	if err != nil {
		return nil, fmt.Errorf("query pending lightning receives: %w", err)
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

// CreateOnChainPayment records a new outbound on-chain withdrawal as Pending.
func (s *DB) CreateOnChainPayment(operationID string, mint MintID, address string, amountSats, feeSats uint64) error {
	fedimintID, cashuMintURL := mint.columns()
	now := s.now()
	_, err := s.db.Exec(`
		INSERT INTO on_chain_payments
		(operation_id, fedimint_id, cashu_mint_url, address, amount_sats, fee_sats, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, operationID, fedimintID, cashuMintURL, address,
		int64(amountSats), int64(feeSats), int(StatusPending), now, now)
	if err != nil {
		return fmt.Errorf("create onchain payment: %w", err)
	}
	return nil
}

// SetOnChainPaymentTxid stores the broadcast txid and marks the payment
// Success, unless already terminal.
func (s *DB) SetOnChainPaymentTxid(operationID, txid string) error {
	_, err := s.db.Exec(`
		UPDATE on_chain_payments SET txid = ?, status = ?, updated_at = ?
		WHERE operation_id = ? AND status NOT IN (?, ?)
	`, txid, int(StatusSuccess), s.now(), operationID, int(StatusSuccess), int(StatusFailed))
	if err != nil {
		return fmt.Errorf("set onchain payment txid: %w", err)
	}
	return nil
}

// MarkOnChainPaymentFailed marks a withdrawal Failed unless already terminal.
func (s *DB) MarkOnChainPaymentFailed(operationID string) error {
	_, err := s.db.Exec(`
		UPDATE on_chain_payments SET status = ?, updated_at = ?
		WHERE operation_id = ? AND status NOT IN (?, ?)
	`, int(StatusFailed), s.now(), operationID, int(StatusSuccess), int(StatusFailed))
	if err != nil {
		return fmt.Errorf("mark onchain payment failed: %w", err)
	}
	return nil
}

// GetOnChainPayment returns the withdrawal or nil if not found.
func (s *DB) GetOnChainPayment(operationID string) (*OnChainPayment, error) {
	row := s.db.QueryRow(`
		SELECT operation_id, fedimint_id, cashu_mint_url, address,
		       amount_sats, fee_sats, txid, status, created_at, updated_at
		FROM on_chain_payments WHERE operation_id = ?
	`, operationID)

	p, err := scanOnChainPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get onchain payment: %w", err)
	}
	return p, nil
}

// GetPendingOnChainPayments returns withdrawals that are not yet terminal.
func (s *DB) GetPendingOnChainPayments() ([]OnChainPayment, error) {
	rows, err := s.db.Query(`
		SELECT operation_id, fedimint_id, cashu_mint_url, address,
		       amount_sats, fee_sats, txid, status, created_at, updated_at
		FROM on_chain_payments WHERE status IN (?, ?)
	`, int(StatusPending), int(StatusWaitingConfirmation))
	if err != nil {
		return nil, fmt.Errorf("query pending onchain payments: %w", err)
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

// CreateOnChainReceive records a new deposit address allocation as Pending.
// Amount, fee and txid stay unset until the deposit transaction is seen.
func (s *DB) CreateOnChainReceive(operationID string, mint MintID, address string) error {
	fedimintID, cashuMintURL := mint.columns()
	now := s.now()
	_, err := s.db.Exec(`
		INSERT INTO on_chain_receives
		(operation_id, fedimint_id, cashu_mint_url, address, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, operationID, fedimintID, cashuMintURL, address, int(StatusPending), now, now)
	if err != nil {
		return fmt.Errorf("create onchain receive: %w", err)
	}
	return nil
}

// SetOnChainReceiveTxid records the deposit transaction and moves the
// receive to WaitingConfirmation. Only applies while the txid is unset,
// so a duplicate mempool notification is a no-op.
func (s *DB) SetOnChainReceiveTxid(operationID, txid string, amountSats, feeSats uint64) error {
	_, err := s.db.Exec(`
		UPDATE on_chain_receives
		SET txid = ?, amount_sats = ?, fee_sats = ?, status = ?, updated_at = ?
		WHERE operation_id = ? AND txid IS NULL AND status NOT IN (?, ?)
	`, txid, int64(amountSats), int64(feeSats), int(StatusWaitingConfirmation), s.now(),
		operationID, int(StatusSuccess), int(StatusFailed))
	if err != nil {
		return fmt.Errorf("set onchain receive txid: %w", err)
	}
	return nil
}

// MarkOnChainReceiveConfirmed marks a deposit Success. Requires the txid to
// already be recorded; confirming a live row that has no transaction yet is
// reported as an error so the caller can log it.
func (s *DB) MarkOnChainReceiveConfirmed(operationID string) error {
	res, err := s.db.Exec(`
		UPDATE on_chain_receives SET status = ?, updated_at = ?
		WHERE operation_id = ? AND txid IS NOT NULL AND status NOT IN (?, ?)
	`, int(StatusSuccess), s.now(), operationID, int(StatusSuccess), int(StatusFailed))
	if err != nil {
		return fmt.Errorf("mark onchain receive confirmed: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// a terminal row is a legitimate no-op
		rec, err := s.GetOnChainReceive(operationID)
		if err != nil {
			return err
		}
		if rec != nil && !rec.Status.Terminal() && rec.Txid == "" {
			return fmt.Errorf("on-chain receive %s confirmed without a recorded transaction", operationID)
		}
	}
	return nil
}

// MarkOnChainReceiveFailed marks a deposit Failed unless already terminal.
func (s *DB) MarkOnChainReceiveFailed(operationID string) error {
	_, err := s.db.Exec(`
		UPDATE on_chain_receives SET status = ?, updated_at = ?
		WHERE operation_id = ? AND status NOT IN (?, ?)
	`, int(StatusFailed), s.now(), operationID, int(StatusSuccess), int(StatusFailed))
	if err != nil {
		return fmt.Errorf("mark onchain receive failed: %w", err)
	}
	return nil
}

// GetOnChainReceive returns the deposit or nil if not found.
func (s *DB) GetOnChainReceive(operationID string) (*OnChainReceive, error) {
	row := s.db.QueryRow(`
		SELECT operation_id, fedimint_id, cashu_mint_url, address,
		       amount_sats, fee_sats, txid, status, created_at, updated_at
		FROM on_chain_receives WHERE operation_id = ?
	`, operationID)

	r, err := scanOnChainReceive(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get onchain receive: %w", err)
	}
	return r, nil
}

// GetPendingOnChainReceives returns deposits that are not yet terminal.
func (s *DB) GetPendingOnChainReceives() ([]OnChainReceive, error) {
	rows, err := s.db.Query(`
		SELECT operation_id, fedimint_id, cashu_mint_url, address,
		       amount_sats, fee_sats, txid, status, created_at, updated_at
		FROM on_chain_receives WHERE status IN (?, ?)
	`, int(StatusPending), int(StatusWaitingConfirmation))
	if err != nil {
		return nil, fmt.Errorf("query pending onchain receives: %w", err)
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

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanLightningPayment(sc scanner) (*LightningPayment, error) {
	var p LightningPayment
	var fedimintID, cashuMintURL, preimage *string
	var status int
	if err := sc.Scan(&p.OperationID, &fedimintID, &cashuMintURL, &p.PaymentHash, &p.Bolt11,
		&p.AmountMsats, &p.FeeMsats, &preimage, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Mint = mintIDFromColumns(fedimintID, cashuMintURL)
	if preimage != nil {
		p.Preimage = *preimage
	}
	p.Status = PaymentStatus(status)
	return &p, nil
}

func scanLightningReceive(sc scanner) (*LightningReceive, error) {
	var r LightningReceive
	var fedimintID, cashuMintURL *string
	var status int
	if err := sc.Scan(&r.OperationID, &fedimintID, &cashuMintURL, &r.PaymentHash, &r.Bolt11,
		&r.AmountMsats, &r.FeeMsats, &status, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Mint = mintIDFromColumns(fedimintID, cashuMintURL)
	r.Status = PaymentStatus(status)
	return &r, nil
}

func scanOnChainPayment(sc scanner) (*OnChainPayment, error) {
	var p OnChainPayment
	var fedimintID, cashuMintURL, txid *string
	var status int
	if err := sc.Scan(&p.OperationID, &fedimintID, &cashuMintURL, &p.Address,
		&p.AmountSats, &p.FeeSats, &txid, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Mint = mintIDFromColumns(fedimintID, cashuMintURL)
	if txid != nil {
		p.Txid = *txid
	}
	p.Status = PaymentStatus(status)
	return &p, nil
}

func scanOnChainReceive(sc scanner) (*OnChainReceive, error) {
	var r OnChainReceive
	var fedimintID, cashuMintURL, txid *string
	var status int
	if err := sc.Scan(&r.OperationID, &fedimintID, &cashuMintURL, &r.Address,
		&r.AmountSats, &r.FeeSats, &txid, &status, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Mint = mintIDFromColumns(fedimintID, cashuMintURL)
	if txid != nil {
		r.Txid = *txid
	}
	r.Status = PaymentStatus(status)
	return &r, nil
}
