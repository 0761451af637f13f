package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/harborwallet/harbor/internal/fedclient"
	"github.com/harborwallet/harbor/internal/metadata"
	"github.com/harborwallet/harbor/internal/store"
)

// Bitcoin consensus treats outputs below this as non-standard; a withdrawal
// this small would never confirm.
const dustLimitSats = 546

var (
	// ErrUnknownMint is returned when an operation names a mint the wallet
	// has not joined.
	ErrUnknownMint = errors.New("unknown mint")

	// ErrInsufficientBalance is returned when a send exceeds the spendable
	// balance of the selected mint.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrNoGateway is returned when a federation announces no usable
	// Lightning gateway.
	ErrNoGateway = errors.New("no usable lightning gateway")

	// ErrAmountlessInvoice is returned for invoices without an embedded
	// amount; the wallet does not pay those.
	ErrAmountlessInvoice = errors.New("invoice carries no amount")

	// ErrOnchainReceiveDisabled is returned when on-chain receive is
	// requested but the profile flag is off.
	ErrOnchainReceiveDisabled = errors.New("on-chain receive is disabled")
)

// Core coordinates payment operations across all joined mints. It owns the
// client registry, the operation task registry and the outbound message
// pipe. One Core exists per wallet process.
type Core struct {
	storage store.Storage
	factory fedclient.Factory
	pipe    *Pipe
	meta    *metadata.Cache
	tasks   *taskRegistry

	// background context for operation tasks, outlives the request contexts
	// that spawn them
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	clients map[string]fedclient.Client
	cashu   map[string]fedclient.CashuClient
}

// NewCore opens clients for every stored mint and resumes the subscriptions
// of operations that were pending at last shutdown. A mint that fails to
// open is logged and skipped; the wallet stays usable with the rest.
func NewCore(ctx context.Context, storage store.Storage, factory fedclient.Factory, pipe *Pipe, cache *metadata.Cache) (*Core, error) {
	taskCtx, cancel := context.WithCancel(context.Background())
	c := &Core{
		storage: storage,
		factory: factory,
		pipe:    pipe,
		meta:    cache,
		tasks:   newTaskRegistry(),
		ctx:     taskCtx,
		cancel:  cancel,
	}
	c.clients = make(map[string]fedclient.Client)
	c.cashu = make(map[string]fedclient.CashuClient)

	federationIDs, err := storage.ListFederations()
	if err != nil {
		cancel()
		return nil, err
	}
	for _, id := range federationIDs {
		if err := c.openFederation(ctx, id); err != nil {
			slog.Error("failed to open federation", "federation_id", id, "error", err)
		}
	}

	mintURLs, err := storage.ListCashuMints()
	if err != nil {
		cancel()
		return nil, err
	}
	for _, url := range mintURLs {
		client, err := factory.OpenCashu(ctx, url)
		if err != nil {
			slog.Error("failed to open cashu mint", "mint_url", url, "error", err)
			continue
		}
		c.cashu[url] = client
	}

	c.resumePending()
	return c, nil
}

func (c *Core) openFederation(ctx context.Context, id string) error {
	bridge, err := fedclient.NewSnapshotBridge(c.storage, id, "")
	if err != nil {
		return err
	}
	client, err := c.factory.Open(ctx, id, bridge)
	if err != nil {
		return err
	}
	c.clients[id] = client
	c.refreshMetadata(ctx, client)
	return nil
}

// refreshMetadata re-parses the federation's announced metadata into the
// cache and the durable row. Falls back to the stored row when the
// federation is unreachable.
func (c *Core) refreshMetadata(ctx context.Context, client fedclient.Client) {
	id := client.FederationID()
	info, err := client.Info(ctx)
	if err != nil {
		slog.Warn("federation metadata refresh failed", "federation_id", id, "error", err)
		if row, err := c.storage.GetFederationMetadata(id); err == nil && row != nil {
			c.meta.Set(id, metadata.FederationMeta{
				Name:                  row.Name,
				WelcomeMessage:        row.WelcomeMessage,
				FederationExpiry:      row.FederationExpiry,
				PreviewMessage:        row.PreviewMessage,
				PopupEndTimestamp:     row.PopupEndTimestamp,
				PopupCountdownMessage: row.PopupCountdownMessage,
			})
		}
		return
	}
	meta := metadata.Parse(info.Metadata)
	c.meta.Set(id, meta)
	if err := c.storage.UpsertFederationMetadata(store.MintMetadata{
		ID:                    id,
		Name:                  meta.Name,
		WelcomeMessage:        meta.WelcomeMessage,
		FederationExpiry:      meta.FederationExpiry,
		PreviewMessage:        meta.PreviewMessage,
		PopupEndTimestamp:     meta.PopupEndTimestamp,
		PopupCountdownMessage: meta.PopupCountdownMessage,
	}); err != nil {
		slog.Warn("federation metadata persist failed", "federation_id", id, "error", err)
	}
}

// Close cancels all operation tasks, shuts down every client and closes the
// pipe. Ledger state is already durable; nothing is flushed here.
func (c *Core) Close() {
	c.cancel()
	c.tasks.Close()

	c.mu.Lock()
	defer c.mu.Unlock()
	ctx := context.Background()
	for id, client := range c.clients {
		if err := client.Shutdown(ctx); err != nil {
			slog.Warn("federation client shutdown failed", "federation_id", id, "error", err)
		}
	}
	for url, client := range c.cashu {
		if err := client.Shutdown(ctx); err != nil {
			slog.Warn("cashu client shutdown failed", "mint_url", url, "error", err)
		}
	}
	c.clients = map[string]fedclient.Client{}
	c.cashu = map[string]fedclient.CashuClient{}
	c.pipe.Close()
}

func (c *Core) send(id *uuid.UUID, p Payload) {
	c.pipe.Send(Msg{ID: id, Payload: p})
}

func (c *Core) clientFor(mint store.MintID) (fedclient.Client, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	client, ok := c.clients[mint.Fedimint]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMint, mint)
	}
	return client, nil
}

func (c *Core) cashuFor(mint store.MintID) (fedclient.CashuClient, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	client, ok := c.cashu[mint.CashuMint]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMint, mint)
	}
	return client, nil
}

// Federations returns the ids of currently connected federations.
func (c *Core) Federations() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.clients))
	for id := range c.clients {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// CashuMints returns the urls of currently connected Cashu mints.
func (c *Core) CashuMints() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	urls := make([]string, 0, len(c.cashu))
	for url := range c.cashu {
		urls = append(urls, url)
	}
	slices.Sort(urls)
	return urls
}

// BalanceSats returns the spendable balance of one mint in satoshis.
func (c *Core) BalanceSats(ctx context.Context, mint store.MintID) (uint64, error) {
	if mint.CashuMint != "" {
		client, err := c.cashuFor(mint)
		if err != nil {
			return 0, err
		}
		return client.Balance(ctx)
	}
	client, err := c.clientFor(mint)
	if err != nil {
		return 0, err
	}
	msats, err := client.Balance(ctx)
	if err != nil {
		return 0, err
	}
	return msats / 1000, nil
}

// notifyBalance emits a MintBalanceUpdated for the mint, best-effort.
func (c *Core) notifyBalance(ctx context.Context, mint store.MintID) {
	balance, err := c.BalanceSats(ctx, mint)
	if err != nil {
		slog.Warn("balance refresh failed", "mint", mint.String(), "error", err)
		return
	}
	c.send(nil, MintBalanceUpdated{Mint: mint, BalanceSats: balance})
}

// notifyHistory emits the merged transaction feed, best-effort.
func (c *Core) notifyHistory() {
	items, err := c.storage.GetTransactionHistory()
	if err != nil {
		slog.Warn("history refresh failed", "error", err)
		return
	}
	c.send(nil, TransactionHistoryUpdated{Items: items})
}

// markVetted flags gateways the federation's announced metadata endorses.
func (c *Core) markVetted(federationID string, gateways []fedclient.Gateway) {
	vetted := c.meta.VettedGateways(federationID)
	if len(vetted) == 0 {
		return
	}
	for i := range gateways {
		if slices.Contains(vetted, gateways[i].ID) {
			gateways[i].Vetted = true
		}
	}
}

func (c *Core) selectGateway(ctx context.Context, client fedclient.Client) (fedclient.Gateway, error) {
	gateways, err := client.ListGateways(ctx)
	if err != nil {
		return fedclient.Gateway{}, fmt.Errorf("list gateways: %w", err)
	}
	c.markVetted(client.FederationID(), gateways)
	gw, ok := fedclient.SelectGateway(gateways)
	if !ok {
		return fedclient.Gateway{}, ErrNoGateway
	}
	return gw, nil
}

// SendLightning pays a bolt11 invoice from the given mint. The request
// returns once the payment is accepted and recorded; settlement is reported
// on the pipe.
func (c *Core) SendLightning(ctx context.Context, msgID *uuid.UUID, mint store.MintID, invoice store.Invoice) error {
	err := c.payInvoice(ctx, msgID, mint, invoice, false)
	if err != nil {
		c.send(msgID, SendFailure{Reason: err.Error()})
	}
	return err
}

func (c *Core) payInvoice(ctx context.Context, msgID *uuid.UUID, mint store.MintID, invoice store.Invoice, transfer bool) error {
	if invoice.AmountMsats == 0 {
		return ErrAmountlessInvoice
	}
	if mint.CashuMint != "" {
		return c.meltCashu(ctx, msgID, mint, invoice, transfer)
	}

	client, err := c.clientFor(mint)
	if err != nil {
		return err
	}

	gw, err := c.selectGateway(ctx, client)
	if err != nil {
		return err
	}

	balanceMsats, err := client.Balance(ctx)
	if err != nil {
		return fmt.Errorf("check balance: %w", err)
	}
	feeMsats := gw.BaseFeeMsat + invoice.AmountMsats*gw.ProportionalFeePPM/1_000_000
	if balanceMsats < invoice.AmountMsats+feeMsats {
		return ErrInsufficientBalance
	}

	res, err := client.PayInvoice(ctx, invoice, gw)
	if err != nil {
		return fmt.Errorf("pay invoice: %w", err)
	}

	if err := c.storage.CreateLightningPayment(res.OperationID, mint, invoice, invoice.AmountMsats, res.FeeMsats); err != nil {
		// the payment is already in flight; keep driving it
		slog.Error("ledger write failed for lightning payment",
			"operation_id", res.OperationID, "error", err)
	}

	c.send(msgID, Sending{})
	sink := c.newSink(opLightningSend, msgID, mint, res.OperationID, transfer)
	if res.Type == fedclient.PaymentInternal {
		c.tasks.Spawn(c.ctx, res.OperationID, func(ctx context.Context) {
			c.driveInternalPay(ctx, client, res.OperationID, sink)
		})
	} else {
		c.tasks.Spawn(c.ctx, res.OperationID, func(ctx context.Context) {
			c.driveLnPay(ctx, client, res.OperationID, sink)
		})
	}
	return nil
}

// meltCashu pays a Lightning invoice from a Cashu mint balance. Melting has
// no push subscription; the single Melt call settles or fails.
func (c *Core) meltCashu(ctx context.Context, msgID *uuid.UUID, mint store.MintID, invoice store.Invoice, transfer bool) error {
	client, err := c.cashuFor(mint)
	if err != nil {
		return err
	}

	quote, err := client.MeltQuote(ctx, invoice)
	if err != nil {
		return fmt.Errorf("melt quote: %w", err)
	}

	balanceSats, err := client.Balance(ctx)
	if err != nil {
		return fmt.Errorf("check balance: %w", err)
	}
	if balanceSats < quote.AmountSats+quote.FeeSats {
		return ErrInsufficientBalance
	}

	if err := c.storage.CreateLightningPayment(quote.ID, mint, invoice, invoice.AmountMsats, quote.FeeSats*1000); err != nil {
		slog.Error("ledger write failed for lightning payment",
			"operation_id", quote.ID, "error", err)
	}

	c.send(msgID, Sending{})
	sink := c.newSink(opLightningSend, msgID, mint, quote.ID, transfer)
	c.tasks.Spawn(c.ctx, quote.ID, func(ctx context.Context) {
		res, err := client.Melt(ctx, quote.ID)
		if err != nil {
			sink.fail(ctx, err.Error())
			return
		}
		feeMsats := res.FeeSats * 1000
		sink.succeedLightning(ctx, res.Preimage, &feeMsats)
	})
	return nil
}

// ReceiveLightning creates an invoice receivable into the given mint and
// spawns the settlement watchers. The invoice is both returned and emitted
// on the pipe.
func (c *Core) ReceiveLightning(ctx context.Context, msgID *uuid.UUID, mint store.MintID, amountSats uint64) (store.Invoice, error) {
	c.send(msgID, ReceiveGenerating{})
	invoice, err := c.createReceive(ctx, msgID, mint, amountSats, false)
	if err != nil {
		c.send(msgID, ReceiveFailed{Reason: err.Error()})
		return store.Invoice{}, err
	}
	c.send(msgID, ReceiveInvoiceGenerated{Invoice: invoice})
	return invoice, nil
}

func (c *Core) createReceive(ctx context.Context, msgID *uuid.UUID, mint store.MintID, amountSats uint64, transfer bool) (store.Invoice, error) {
	if mint.CashuMint != "" {
		return c.mintQuoteCashu(ctx, msgID, mint, amountSats, transfer)
	}

	client, err := c.clientFor(mint)
	if err != nil {
		return store.Invoice{}, err
	}

	gw, err := c.selectGateway(ctx, client)
	if err != nil {
		return store.Invoice{}, err
	}

	res, err := client.CreateInvoice(ctx, amountSats*1000, gw)
	if err != nil {
		return store.Invoice{}, fmt.Errorf("create invoice: %w", err)
	}

	if err := c.storage.CreateLightningReceive(res.OperationID, mint, res.Invoice, res.Invoice.AmountMsats, 0); err != nil {
		slog.Error("ledger write failed for lightning receive",
			"operation_id", res.OperationID, "error", err)
	}

	sink := c.newSink(opLightningReceive, msgID, mint, res.OperationID, transfer)
	c.tasks.Spawn(c.ctx, res.OperationID, func(ctx context.Context) {
		c.driveLnReceive(ctx, lnReceiveHandle{
			operationID: res.OperationID,
			expiry:      res.Expiry,
			subscribe:   client.SubscribeLnReceive,
			pollState:   client.LnReceiveQuoteState,
		}, sink)
	})
	return res.Invoice, nil
}

// mintQuoteCashu requests a mint quote and watches it by polling only;
// Cashu mints push no events.
func (c *Core) mintQuoteCashu(ctx context.Context, msgID *uuid.UUID, mint store.MintID, amountSats uint64, transfer bool) (store.Invoice, error) {
	client, err := c.cashuFor(mint)
	if err != nil {
		return store.Invoice{}, err
	}

	quote, err := client.MintQuote(ctx, amountSats)
	if err != nil {
		return store.Invoice{}, fmt.Errorf("mint quote: %w", err)
	}

	if err := c.storage.CreateLightningReceive(quote.ID, mint, quote.Invoice, quote.Invoice.AmountMsats, 0); err != nil {
		slog.Error("ledger write failed for lightning receive",
			"operation_id", quote.ID, "error", err)
	}

	sink := c.newSink(opLightningReceive, msgID, mint, quote.ID, transfer)
	c.tasks.Spawn(c.ctx, quote.ID, func(ctx context.Context) {
		c.driveLnReceive(ctx, lnReceiveHandle{
			operationID: quote.ID,
			expiry:      quote.Expiry,
			pollState: func(ctx context.Context, _ string) (fedclient.MintQuoteState, error) {
				return client.MintQuoteState(ctx, quote.ID)
			},
			claim:   func(ctx context.Context) error { return client.Mint(ctx, quote.ID) },
			discard: func(ctx context.Context) error { return client.RemoveMintQuote(ctx, quote.ID) },
		}, sink)
	})
	return quote.Invoice, nil
}

// SendOnChain withdraws to an on-chain address. amountSats of zero means
// send-all: the whole balance minus fees, rejected if the remainder is dust.
func (c *Core) SendOnChain(ctx context.Context, msgID *uuid.UUID, mint store.MintID, address string, amountSats uint64) error {
	err := c.sendOnChain(ctx, msgID, mint, address, amountSats)
	if err != nil {
		c.send(msgID, SendFailure{Reason: err.Error()})
	}
	return err
}

func (c *Core) sendOnChain(ctx context.Context, msgID *uuid.UUID, mint store.MintID, address string, amountSats uint64) error {
	if mint.CashuMint != "" {
		return fmt.Errorf("on-chain send is not supported for cashu mints")
	}
	client, err := c.clientFor(mint)
	if err != nil {
		return err
	}

	balanceMsats, err := client.Balance(ctx)
	if err != nil {
		return fmt.Errorf("check balance: %w", err)
	}
	balanceSats := balanceMsats / 1000

	var amount, fees uint64
	if amountSats == 0 {
		fees, err = client.WithdrawFees(ctx, address, balanceSats)
		if err != nil {
			return fmt.Errorf("estimate withdraw fees: %w", err)
		}
		if fees >= balanceSats {
			return ErrInsufficientBalance
		}
		amount = balanceSats - fees
		if amount < dustLimitSats {
			return fmt.Errorf("withdrawal of %d sats is below the %d sat dust limit", amount, dustLimitSats)
		}
	} else {
		amount = amountSats
		fees, err = client.WithdrawFees(ctx, address, amount)
		if err != nil {
			return fmt.Errorf("estimate withdraw fees: %w", err)
		}
		if amount+fees > balanceSats {
			return ErrInsufficientBalance
		}
	}

	operationID, err := client.Withdraw(ctx, address, amount, fees)
	if err != nil {
		return fmt.Errorf("withdraw: %w", err)
	}

	if err := c.storage.CreateOnChainPayment(operationID, mint, address, amount, fees); err != nil {
		slog.Error("ledger write failed for onchain payment",
			"operation_id", operationID, "error", err)
	}

	c.send(msgID, Sending{})
	sink := c.newSink(opOnChainSend, msgID, mint, operationID, false)
	c.tasks.Spawn(c.ctx, operationID, func(ctx context.Context) {
		c.driveWithdraw(ctx, client, operationID, sink)
	})
	return nil
}

// ReceiveOnChain allocates a deposit address and spawns the deposit watcher.
// Gated on the profile's on-chain receive flag.
func (c *Core) ReceiveOnChain(ctx context.Context, msgID *uuid.UUID, mint store.MintID) (string, error) {
	address, err := c.receiveOnChain(ctx, msgID, mint)
	if err != nil {
		c.send(msgID, ReceiveFailed{Reason: err.Error()})
		return "", err
	}
	c.send(msgID, ReceiveAddressGenerated{Address: address})
	return address, nil
}

func (c *Core) receiveOnChain(ctx context.Context, msgID *uuid.UUID, mint store.MintID) (string, error) {
	profile, err := c.storage.GetProfile()
	if err != nil {
		return "", err
	}
	if profile == nil || !profile.OnchainReceiveEnabled {
		return "", ErrOnchainReceiveDisabled
	}
	if mint.CashuMint != "" {
		return "", fmt.Errorf("on-chain receive is not supported for cashu mints")
	}
	client, err := c.clientFor(mint)
	if err != nil {
		return "", err
	}

	c.send(msgID, ReceiveGenerating{})
	dep, err := client.AllocateDepositAddress(ctx)
	if err != nil {
		return "", fmt.Errorf("allocate deposit address: %w", err)
	}

	if err := c.storage.CreateOnChainReceive(dep.OperationID, mint, dep.Address); err != nil {
		slog.Error("ledger write failed for onchain receive",
			"operation_id", dep.OperationID, "error", err)
	}

	sink := c.newSink(opOnChainReceive, msgID, mint, dep.OperationID, false)
	c.tasks.Spawn(c.ctx, dep.OperationID, func(ctx context.Context) {
		c.driveDeposit(ctx, client, dep.OperationID, sink)
	})
	return dep.Address, nil
}

// Transfer moves funds between two mints by receiving into the target over
// Lightning and paying the resulting invoice from the source.
func (c *Core) Transfer(ctx context.Context, msgID *uuid.UUID, from, to store.MintID, amountSats uint64) error {
	if from == to {
		err := fmt.Errorf("transfer source and target are the same mint")
		c.send(msgID, TransferFailure{Reason: err.Error()})
		return err
	}
	invoice, err := c.createReceive(ctx, msgID, to, amountSats, true)
	if err != nil {
		c.send(msgID, TransferFailure{Reason: err.Error()})
		return err
	}
	if err := c.payInvoice(ctx, msgID, from, invoice, true); err != nil {
		c.send(msgID, TransferFailure{Reason: err.Error()})
		return err
	}
	return nil
}

// AddFederation joins the federation named by an invite code and registers
// its client. Returns the federation id.
func (c *Core) AddFederation(ctx context.Context, msgID *uuid.UUID, inviteCode string) (string, error) {
	id, err := c.addFederation(ctx, msgID, inviteCode)
	if err != nil {
		c.send(msgID, AddMintFailed{Reason: err.Error()})
		return "", err
	}
	c.send(msgID, AddMintSuccess{Mint: store.FedimintID(id)})
	c.notifyBalance(ctx, store.FedimintID(id))
	return id, nil
}

func (c *Core) addFederation(ctx context.Context, msgID *uuid.UUID, inviteCode string) (string, error) {
	c.send(msgID, StatusUpdate{Message: "Downloading federation config"})
	info, err := c.factory.Preview(ctx, inviteCode)
	if err != nil {
		return "", fmt.Errorf("preview federation: %w", err)
	}

	c.mu.RLock()
	_, joined := c.clients[info.ID]
	c.mu.RUnlock()
	if joined {
		return "", fmt.Errorf("federation %s is already joined", info.ID)
	}

	bridge, err := fedclient.NewSnapshotBridge(c.storage, info.ID, inviteCode)
	if err != nil {
		return "", err
	}

	c.send(msgID, StatusUpdate{Message: "Joining federation"})
	client, err := c.factory.Join(ctx, inviteCode, bridge)
	if err != nil {
		return "", fmt.Errorf("join federation: %w", err)
	}

	c.mu.Lock()
	c.clients[info.ID] = client
	c.mu.Unlock()

	c.refreshMetadata(ctx, client)
	return info.ID, nil
}

// AddCashuMint connects to a Cashu mint and records the membership.
func (c *Core) AddCashuMint(ctx context.Context, msgID *uuid.UUID, mintURL string) error {
	client, err := c.factory.OpenCashu(ctx, mintURL)
	if err != nil {
		c.send(msgID, AddMintFailed{Reason: err.Error()})
		return fmt.Errorf("open cashu mint: %w", err)
	}
	if err := c.storage.InsertCashuMint(mintURL); err != nil {
		c.send(msgID, AddMintFailed{Reason: err.Error()})
		return err
	}

	c.mu.Lock()
	c.cashu[mintURL] = client
	c.mu.Unlock()

	c.send(msgID, AddMintSuccess{Mint: store.CashuMintID(mintURL)})
	c.notifyBalance(ctx, store.CashuMintID(mintURL))
	return nil
}

// RemoveMint archives a mint and shuts down its client. The stored snapshot
// survives so the mint can be re-added without recovery.
func (c *Core) RemoveMint(ctx context.Context, mint store.MintID) error {
	if mint.CashuMint != "" {
		c.mu.Lock()
		client, ok := c.cashu[mint.CashuMint]
		delete(c.cashu, mint.CashuMint)
		c.mu.Unlock()
		if ok {
			if err := client.Shutdown(ctx); err != nil {
				slog.Warn("cashu client shutdown failed", "mint_url", mint.CashuMint, "error", err)
			}
		}
		return c.storage.ArchiveCashuMint(mint.CashuMint)
	}

	c.mu.Lock()
	client, ok := c.clients[mint.Fedimint]
	delete(c.clients, mint.Fedimint)
	c.mu.Unlock()
	if ok {
		if err := client.Shutdown(ctx); err != nil {
			slog.Warn("federation client shutdown failed", "federation_id", mint.Fedimint, "error", err)
		}
	}
	c.meta.Remove(mint.Fedimint)
	return c.storage.ArchiveFederation(mint.Fedimint)
}

// CancelOperation aborts the watcher task for an in-flight operation. The
// ledger record stays pending and is resumed on next start.
func (c *Core) CancelOperation(operationID string) {
	c.tasks.Cancel(operationID)
}

// SetOnchainReceiveEnabled toggles the on-chain receive feature flag.
func (c *Core) SetOnchainReceiveEnabled(enabled bool) error {
	return c.storage.SetOnchainReceiveEnabled(enabled)
}

// SetTorEnabled toggles the anonymized-transport flag.
func (c *Core) SetTorEnabled(enabled bool) error {
	return c.storage.SetTorEnabled(enabled)
}

// History re-emits the merged transaction feed on the pipe and returns it.
func (c *Core) History() ([]store.TransactionItem, error) {
	items, err := c.storage.GetTransactionHistory()
	if err != nil {
		return nil, err
	}
	c.send(nil, TransactionHistoryUpdated{Items: items})
	return items, nil
}

// Balances emits a balance update for every connected mint.
func (c *Core) Balances(ctx context.Context) {
	for _, id := range c.Federations() {
		c.notifyBalance(ctx, store.FedimintID(id))
	}
	for _, url := range c.CashuMints() {
		c.notifyBalance(ctx, store.CashuMintID(url))
	}
}
