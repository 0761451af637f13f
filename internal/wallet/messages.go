package wallet

import (
	"github.com/google/uuid"

	"github.com/harborwallet/harbor/internal/store"
)

// Msg is one update delivered to the UI over the pipe. ID echoes the request
// id of the operation that produced the update; it is nil for unsolicited
// updates such as a resumed operation settling or a background balance
// refresh.
type Msg struct {
	ID      *uuid.UUID
	Payload Payload
}

// Payload is the closed set of update kinds.
type Payload interface {
	payload()
}

// Sending - an outbound payment was accepted and is in flight.
type Sending struct{}

// SendSuccess - an outbound payment settled. Preimage is set for Lightning,
// Txid for on-chain, Transfer for the paying leg of a mint-to-mint transfer.
type SendSuccess struct {
	Preimage string
	Txid     string
	Transfer bool
}

// SendFailure - an outbound payment failed.
type SendFailure struct {
	Reason string
}

// ReceiveGenerating - an invoice or address is being created.
type ReceiveGenerating struct{}

// ReceiveInvoiceGenerated - a Lightning invoice is ready to be shared.
type ReceiveInvoiceGenerated struct {
	Invoice store.Invoice
}

// ReceiveAddressGenerated - an on-chain deposit address is ready.
type ReceiveAddressGenerated struct {
	Address string
}

// ReceiveSuccess - an inbound payment settled. Transfer marks the receiving
// leg of a mint-to-mint transfer.
type ReceiveSuccess struct {
	Transfer bool
}

// ReceiveFailed - an inbound payment failed or expired.
type ReceiveFailed struct {
	Reason string
}

// TransferFailure - a mint-to-mint transfer failed.
type TransferFailure struct {
	Reason string
}

// MintBalanceUpdated - the spendable balance of one mint changed.
type MintBalanceUpdated struct {
	Mint        store.MintID
	BalanceSats uint64
}

// TransactionHistoryUpdated - the merged history feed changed.
type TransactionHistoryUpdated struct {
	Items []store.TransactionItem
}

// StatusUpdate - freeform progress text for long-running operations.
type StatusUpdate struct {
	Message string
}

// AddMintSuccess - a federation or Cashu mint was added.
type AddMintSuccess struct {
	Mint store.MintID
}

// AddMintFailed - joining a federation or Cashu mint failed.
type AddMintFailed struct {
	Reason string
}

func (Sending) payload()                   {}
func (SendSuccess) payload()               {}
func (SendFailure) payload()               {}
func (ReceiveGenerating) payload()         {}
func (ReceiveInvoiceGenerated) payload()   {}
func (ReceiveAddressGenerated) payload()   {}
func (ReceiveSuccess) payload()            {}
func (ReceiveFailed) payload()             {}
func (TransferFailure) payload()           {}
func (MintBalanceUpdated) payload()        {}
func (TransactionHistoryUpdated) payload() {}
func (StatusUpdate) payload()              {}
func (AddMintSuccess) payload()            {}
func (AddMintFailed) payload()             {}
