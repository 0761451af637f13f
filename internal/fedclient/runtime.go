package fedclient

import (
	"context"
	"time"

	"github.com/harborwallet/harbor/internal/store"
)

// PaymentType distinguishes a payment routed over the Lightning network from
// one settled internally between members of the same federation.
type PaymentType int

const (
	PaymentLightning PaymentType = iota
	PaymentInternal
)

// PayResult is the handle returned when a Lightning payment is initiated.
// The operation id keys the subscription stream; Type selects which stream
// kind to subscribe to.
type PayResult struct {
	OperationID string
	Type        PaymentType
	FeeMsats    uint64
}

// InvoiceResult is the handle returned when an invoice is created for an
// incoming Lightning payment. Expiry is when the invoice stops being
// payable; zero if the runtime does not report it.
type InvoiceResult struct {
	OperationID string
	Invoice     store.Invoice
	Expiry      time.Time
}

// DepositAddress is the handle returned when a deposit address is allocated.
type DepositAddress struct {
	OperationID string
	Address     string
}

// FederationInfo describes a federation as learned from its invite code,
// before or after joining.
type FederationInfo struct {
	ID         string
	Name       string
	InviteCode string
	// Metadata carries the announced key/value config metadata verbatim.
	Metadata map[string]string
}

// Client is one connected federation. Implementations wrap the federation
// protocol runtime; the wallet only drives operations and consumes their
// subscription streams.
type Client interface {
	// FederationID returns the stable hex identifier of the federation.
	FederationID() string

	// Info returns the announced details of the federation.
	Info(ctx context.Context) (FederationInfo, error)

	// Balance returns the spendable e-cash balance in millisatoshis.
	Balance(ctx context.Context) (uint64, error)

	// ListGateways returns the Lightning gateways currently announced by the
	// federation, in announcement order.
	ListGateways(ctx context.Context) ([]Gateway, error)

	// PayInvoice initiates payment of a bolt11 invoice through the given
	// gateway. It returns once the operation is accepted; settlement is
	// reported on the matching subscription stream.
	PayInvoice(ctx context.Context, invoice store.Invoice, gateway Gateway) (PayResult, error)

	// SubscribeLnPay streams state for an externally routed payment.
	SubscribeLnPay(ctx context.Context, operationID string) (<-chan LnPayState, error)

	// SubscribeInternalPay streams state for an internally settled payment.
	SubscribeInternalPay(ctx context.Context, operationID string) (<-chan InternalPayState, error)

	// CreateInvoice creates a bolt11 invoice receivable through the given
	// gateway.
	CreateInvoice(ctx context.Context, amountMsats uint64, gateway Gateway) (InvoiceResult, error)

	// SubscribeLnReceive streams state for an incoming Lightning payment.
	SubscribeLnReceive(ctx context.Context, operationID string) (<-chan LnReceiveState, error)

	// LnReceiveQuoteState polls whether the invoice behind an in-flight
	// receive has been paid, independently of the subscription stream.
	LnReceiveQuoteState(ctx context.Context, operationID string) (MintQuoteState, error)

	// WithdrawFees quotes the on-chain fee in satoshis for withdrawing
	// amountSats to address.
	WithdrawFees(ctx context.Context, address string, amountSats uint64) (uint64, error)

	// Withdraw initiates an on-chain withdrawal and returns its operation id.
	Withdraw(ctx context.Context, address string, amountSats, feeSats uint64) (string, error)

	// SubscribeWithdraw streams state for an on-chain withdrawal.
	SubscribeWithdraw(ctx context.Context, operationID string) (<-chan WithdrawState, error)

	// AllocateDepositAddress derives a fresh on-chain deposit address.
	AllocateDepositAddress(ctx context.Context) (DepositAddress, error)

	// SubscribeDeposit streams state for deposits to a previously allocated
	// address.
	SubscribeDeposit(ctx context.Context, operationID string) (<-chan DepositState, error)

	// Shutdown releases the client's resources. The backing database commits
	// have already persisted all state; Shutdown does not flush.
	Shutdown(ctx context.Context) error
}

// MeltQuote is a quote for paying a Lightning invoice from a Cashu mint
// balance.
type MeltQuote struct {
	ID         string
	AmountSats uint64
	FeeSats    uint64
	Expiry     time.Time
}

// MeltResult is the outcome of executing a melt quote.
type MeltResult struct {
	Preimage string
	FeeSats  uint64
}

// MintQuote is a quote for receiving into a Cashu mint balance over
// Lightning. Paying Invoice entitles the wallet to mint AmountSats of
// e-cash until Expiry.
type MintQuote struct {
	ID      string
	Invoice store.Invoice
	Expiry  time.Time
}

// MintQuoteState is the settlement state of a mint quote.
type MintQuoteState int

const (
	MintQuoteUnpaid MintQuoteState = iota
	MintQuotePaid
	MintQuoteIssued
)

// CashuClient is one connected Cashu mint. Cashu mints expose no push
// subscriptions; incoming payments are discovered by polling MintQuoteState.
type CashuClient interface {
	// MintURL returns the canonical URL identifying the mint.
	MintURL() string

	// Balance returns the spendable e-cash balance in satoshis.
	Balance(ctx context.Context) (uint64, error)

	// MeltQuote quotes paying invoice from the mint balance.
	MeltQuote(ctx context.Context, invoice store.Invoice) (MeltQuote, error)

	// Melt executes a previously obtained melt quote.
	Melt(ctx context.Context, quoteID string) (MeltResult, error)

	// MintQuote requests an invoice whose payment mints amountSats of e-cash.
	MintQuote(ctx context.Context, amountSats uint64) (MintQuote, error)

	// MintQuoteState polls the settlement state of a mint quote.
	MintQuoteState(ctx context.Context, quoteID string) (MintQuoteState, error)

	// Mint claims the e-cash for a paid quote.
	Mint(ctx context.Context, quoteID string) error

	// RemoveMintQuote forgets an expired or abandoned quote.
	RemoveMintQuote(ctx context.Context, quoteID string) error

	// Shutdown releases the client's resources.
	Shutdown(ctx context.Context) error
}

// Factory constructs runtime clients. The wallet owns when to join, open and
// shut down clients; the factory owns how.
type Factory interface {
	// Preview downloads a federation's config from an invite code without
	// joining it.
	Preview(ctx context.Context, inviteCode string) (FederationInfo, error)

	// Join joins the federation named by inviteCode, persisting its state
	// through db, and returns a connected client.
	Join(ctx context.Context, inviteCode string, db Database) (Client, error)

	// Open reconnects to an already joined federation from the state in db.
	Open(ctx context.Context, federationID string, db Database) (Client, error)

	// OpenCashu connects to the Cashu mint at mintURL.
	OpenCashu(ctx context.Context, mintURL string) (CashuClient, error)
}
