package store

// Storage is the narrow capability interface the wallet core and the
// federation client depend on. *DB is the production implementation;
// tests substitute fakes.
type Storage interface {
	// Profile
	GetProfile() (*Profile, error)
	InsertProfile(seedWords string) (*Profile, error)
	SetOnchainReceiveEnabled(enabled bool) error
	SetTorEnabled(enabled bool) error

	// Federation snapshots
	GetFederationValue(id string) ([]byte, bool, error)
	InsertNewFederation(id, inviteCode string) error
	UpdateFederationValue(id string, value []byte) error
	SetFederationActive(id string) error
	ArchiveFederation(id string) error
	ListFederations() ([]string, error)
	ListArchivedFederations() ([]string, error)
	GetFederationInviteCode(id string) (string, error)

	// Cashu mints
	InsertCashuMint(url string) error
	SetCashuMintActive(url string) error
	ArchiveCashuMint(url string) error
	ListCashuMints() ([]string, error)

	// Lightning payments
	CreateLightningPayment(operationID string, mint MintID, invoice Invoice, amountMsats, feeMsats uint64) error
	SetLightningPaymentComplete(operationID, preimage string, feeMsats *uint64) error
	MarkLightningPaymentFailed(operationID string) error
	GetLightningPayment(operationID string) (*LightningPayment, error)
	GetPendingLightningPayments() ([]LightningPayment, error)

	// Lightning receives
	CreateLightningReceive(operationID string, mint MintID, invoice Invoice, amountMsats, feeMsats uint64) error
	MarkLightningReceiveSuccess(operationID string) error
	MarkLightningReceiveFailed(operationID string) error
	GetLightningReceive(operationID string) (*LightningReceive, error)
	GetPendingLightningReceives() ([]LightningReceive, error)

	// On-chain payments
	CreateOnChainPayment(operationID string, mint MintID, address string, amountSats, feeSats uint64) error
	SetOnChainPaymentTxid(operationID, txid string) error
	MarkOnChainPaymentFailed(operationID string) error
	GetOnChainPayment(operationID string) (*OnChainPayment, error)
	GetPendingOnChainPayments() ([]OnChainPayment, error)

	// On-chain receives
	CreateOnChainReceive(operationID string, mint MintID, address string) error
	SetOnChainReceiveTxid(operationID, txid string, amountSats, feeSats uint64) error
	MarkOnChainReceiveConfirmed(operationID string) error
	MarkOnChainReceiveFailed(operationID string) error
	GetOnChainReceive(operationID string) (*OnChainReceive, error)
	GetPendingOnChainReceives() ([]OnChainReceive, error)

	// History
	GetTransactionHistory() ([]TransactionItem, error)

	// Federation metadata
	GetFederationMetadata(id string) (*MintMetadata, error)
	UpsertFederationMetadata(meta MintMetadata) error
}

var _ Storage = (*DB)(nil)
