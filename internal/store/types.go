package store

import (
	"fmt"
	"time"
)

// PaymentStatus is the lifecycle position of a payment operation.
// Statuses only move forward: once Success or Failed, a record never
// returns to Pending or WaitingConfirmation.
type PaymentStatus int

const (
	// StatusPending - payment is in flight or has not been received yet.
	StatusPending PaymentStatus = 0
	// StatusWaitingConfirmation - payment seen on-chain, waiting for confirmations.
	StatusWaitingConfirmation PaymentStatus = 1
	// StatusSuccess - payment confirmed and settled.
	StatusSuccess PaymentStatus = 2
	// StatusFailed - payment failed.
	StatusFailed PaymentStatus = 3
)

// Terminal reports whether the status is a terminal state.
func (s PaymentStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

func (s PaymentStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusWaitingConfirmation:
		return "waiting_confirmation"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// MintID identifies the mint an operation settles against: either a
// federation or a Cashu mint URL. Exactly one field must be set.
type MintID struct {
	Fedimint  string
	CashuMint string
}

// FedimintID returns a MintID for a federation.
func FedimintID(id string) MintID { return MintID{Fedimint: id} }

// CashuMintID returns a MintID for a Cashu mint URL.
func CashuMintID(url string) MintID { return MintID{CashuMint: url} }

// Valid reports whether exactly one identifier is set.
func (m MintID) Valid() bool {
	return (m.Fedimint == "") != (m.CashuMint == "")
}

func (m MintID) String() string {
	if m.Fedimint != "" {
		return m.Fedimint
	}
	return m.CashuMint
}

// columns returns the nullable fedimint_id / cashu_mint_url pair for storage.
func (m MintID) columns() (fedimintID, cashuMintURL any) {
	if m.Fedimint != "" {
		fedimintID = m.Fedimint
	}
	if m.CashuMint != "" {
		cashuMintURL = m.CashuMint
	}
	return fedimintID, cashuMintURL
}

func mintIDFromColumns(fedimintID, cashuMintURL *string) MintID {
	var m MintID
	if fedimintID != nil {
		m.Fedimint = *fedimintID
	}
	if cashuMintURL != nil {
		m.CashuMint = *cashuMintURL
	}
	return m
}

// Invoice is the subset of a bolt11 invoice the ledger needs. AmountMsats
// is the amount embedded in the invoice, zero for amountless invoices.
type Invoice struct {
	Encoded     string
	PaymentHash string
	AmountMsats uint64
}

// Profile is the single wallet profile row.
type Profile struct {
	ID                    string
	SeedWords             string
	OnchainReceiveEnabled bool
	TorEnabled            bool
}

// LightningPayment is one outbound Lightning payment attempt.
type LightningPayment struct {
	OperationID string
	Mint        MintID
	PaymentHash string
	Bolt11      string
	AmountMsats int64
	FeeMsats    int64
	Preimage    string // empty until the payment succeeds
	Status      PaymentStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LightningReceive is one inbound Lightning payment attempt.
type LightningReceive struct {
	OperationID string
	Mint        MintID
	PaymentHash string
	Bolt11      string
	AmountMsats int64
	FeeMsats    int64
	Status      PaymentStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OnChainPayment is one outbound on-chain withdrawal.
type OnChainPayment struct {
	OperationID string
	Mint        MintID
	Address     string
	AmountSats  int64
	FeeSats     int64
	Txid        string // empty until broadcast
	Status      PaymentStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OnChainReceive is one inbound on-chain deposit. Amount, fee and txid are
// unknown until the deposit transaction is seen in the mempool.
type OnChainReceive struct {
	OperationID string
	Mint        MintID
	Address     string
	AmountSats  *int64
	FeeSats     *int64
	Txid        string
	Status      PaymentStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TransactionItemKind distinguishes history entries.
type TransactionItemKind string

const (
	TransactionKindLightning TransactionItemKind = "lightning"
	TransactionKindOnchain   TransactionItemKind = "onchain"
)

// TransactionDirection distinguishes sends from receives.
type TransactionDirection string

const (
	DirectionIncoming TransactionDirection = "incoming"
	DirectionOutgoing TransactionDirection = "outgoing"
)

// TransactionItem is one entry in the merged, user-visible history feed.
type TransactionItem struct {
	Kind       TransactionItemKind
	Direction  TransactionDirection
	Mint       MintID
	AmountSats uint64
	FeeMsats   uint64
	Txid       string
	Preimage   string
	Status     PaymentStatus
	Timestamp  time.Time // updated_at of the underlying record
}

func (p LightningPayment) transactionItem() TransactionItem {
	return TransactionItem{
		Kind:       TransactionKindLightning,
		Direction:  DirectionOutgoing,
		Mint:       p.Mint,
		AmountSats: uint64(p.AmountMsats) / 1000,
		FeeMsats:   uint64(p.FeeMsats),
		Preimage:   p.Preimage,
		Status:     p.Status,
		Timestamp:  p.UpdatedAt,
	}
}

func (r LightningReceive) transactionItem() TransactionItem {
	return TransactionItem{
		Kind:       TransactionKindLightning,
		Direction:  DirectionIncoming,
		Mint:       r.Mint,
		AmountSats: uint64(r.AmountMsats) / 1000,
		FeeMsats:   uint64(r.FeeMsats),
		Status:     r.Status,
		Timestamp:  r.UpdatedAt,
	}
}

func (p OnChainPayment) transactionItem() TransactionItem {
	return TransactionItem{
		Kind:       TransactionKindOnchain,
		Direction:  DirectionOutgoing,
		Mint:       p.Mint,
		AmountSats: uint64(p.AmountSats),
		FeeMsats:   uint64(p.FeeSats) * 1000,
		Txid:       p.Txid,
		Status:     p.Status,
		Timestamp:  p.UpdatedAt,
	}
}

func (r OnChainReceive) transactionItem() TransactionItem {
	var amount, fee int64
	if r.AmountSats != nil {
		amount = *r.AmountSats
	}
	if r.FeeSats != nil {
		fee = *r.FeeSats
	}
	return TransactionItem{
		Kind:       TransactionKindOnchain,
		Direction:  DirectionIncoming,
		Mint:       r.Mint,
		AmountSats: uint64(amount),
		FeeMsats:   uint64(fee) * 1000,
		Txid:       r.Txid,
		Status:     r.Status,
		Timestamp:  r.UpdatedAt,
	}
}

// MintMetadata is the cached metadata row for a federation.
type MintMetadata struct {
	ID                    string
	Name                  string
	WelcomeMessage        string
	FederationExpiry      *time.Time
	PreviewMessage        string
	PopupEndTimestamp     *time.Time
	PopupCountdownMessage string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}
