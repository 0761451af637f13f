package wallet

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborwallet/harbor/internal/fedclient"
	"github.com/harborwallet/harbor/internal/metadata"
	"github.com/harborwallet/harbor/internal/store"
)

type testEnv struct {
	core    *Core
	pipe    *Pipe
	db      *store.DB
	factory *fakeFactory
	fed     *fakeClient
}

// newTestEnv builds a Core over a real SQLite store with one fake federation
// "fed1" holding 1M sats. prepare runs after the federation row exists but
// before the Core opens, for seeding pending records or extra mints.
func newTestEnv(t *testing.T, prepare func(db *store.DB, factory *fakeFactory)) *testEnv {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "harbor.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.InsertNewFederation("fed1", "invite1"))
	fed := newFakeClient("fed1", 1_000_000_000)
	factory := newFakeFactory()
	factory.add(fed, "invite1")

	if prepare != nil {
		prepare(db, factory)
	}

	pipe := NewPipe()
	core, err := NewCore(context.Background(), db, factory, pipe, metadata.NewCache())
	require.NoError(t, err)
	t.Cleanup(core.Close)

	return &testEnv{core: core, pipe: pipe, db: db, factory: factory, fed: fed}
}

func nextMsg(t *testing.T, p *Pipe) Msg {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	m, ok := p.Next(ctx)
	require.True(t, ok, "expected a message on the pipe")
	return m
}

func requirePayload[T Payload](t *testing.T, m Msg) T {
	t.Helper()
	p, ok := m.Payload.(T)
	require.True(t, ok, "unexpected payload %T", m.Payload)
	return p
}

func TestSendLightningSuccess(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	msgID := uuid.New()
	invoice := store.Invoice{Encoded: "lnbc1", PaymentHash: "h1", AmountMsats: 21000}

	require.NoError(t, env.core.SendLightning(ctx, &msgID, store.FedimintID("fed1"), invoice))

	m := nextMsg(t, env.pipe)
	requirePayload[Sending](t, m)
	require.NotNil(t, m.ID)
	assert.Equal(t, msgID, *m.ID)

	op := "pay-fed1-1"
	env.fed.emitLnPay(op, fedclient.LnPayState{Kind: fedclient.LnPayCreated})
	env.fed.emitLnPay(op, fedclient.LnPayState{Kind: fedclient.LnPaySuccess, Preimage: "pre1"})

	success := requirePayload[SendSuccess](t, nextMsg(t, env.pipe))
	assert.Equal(t, "pre1", success.Preimage)

	balance := requirePayload[MintBalanceUpdated](t, nextMsg(t, env.pipe))
	assert.Equal(t, store.FedimintID("fed1"), balance.Mint)
	requirePayload[TransactionHistoryUpdated](t, nextMsg(t, env.pipe))

	p, err := env.db.GetLightningPayment(op)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, store.StatusSuccess, p.Status)
	assert.Equal(t, "pre1", p.Preimage)
}

func TestSendLightningInternal(t *testing.T) {
	env := newTestEnv(t, nil)
	env.fed.payType = fedclient.PaymentInternal
	msgID := uuid.New()

	require.NoError(t, env.core.SendLightning(context.Background(), &msgID,
		store.FedimintID("fed1"), store.Invoice{Encoded: "lnbc1", PaymentHash: "h1", AmountMsats: 1000}))
	requirePayload[Sending](t, nextMsg(t, env.pipe))

	op := "pay-fed1-1"
	env.fed.emitInternalPay(op, fedclient.InternalPayState{Kind: fedclient.InternalPayPreimage, Preimage: "ipre"})

	success := requirePayload[SendSuccess](t, nextMsg(t, env.pipe))
	assert.Equal(t, "ipre", success.Preimage)
}

func TestSendLightningInsufficientBalance(t *testing.T) {
	env := newTestEnv(t, nil)
	env.fed.setBalance(1000)
	msgID := uuid.New()

	err := env.core.SendLightning(context.Background(), &msgID,
		store.FedimintID("fed1"), store.Invoice{Encoded: "lnbc1", PaymentHash: "h1", AmountMsats: 21000})
	require.True(t, errors.Is(err, ErrInsufficientBalance))
	requirePayload[SendFailure](t, nextMsg(t, env.pipe))

	pending, err := env.db.GetPendingLightningPayments()
	require.NoError(t, err)
	assert.Empty(t, pending, "a rejected send leaves no ledger record")
}

func TestSendLightningBalanceCoversGatewayFee(t *testing.T) {
	env := newTestEnv(t, nil)
	// covers the invoice amount but not the gateway fee estimate on top
	env.fed.setBalance(21_500)
	msgID := uuid.New()

	err := env.core.SendLightning(context.Background(), &msgID,
		store.FedimintID("fed1"), store.Invoice{Encoded: "lnbc1", PaymentHash: "h1", AmountMsats: 21000})
	require.True(t, errors.Is(err, ErrInsufficientBalance))
	requirePayload[SendFailure](t, nextMsg(t, env.pipe))

	pending, err := env.db.GetPendingLightningPayments()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSendLightningAmountless(t *testing.T) {
	env := newTestEnv(t, nil)
	msgID := uuid.New()
	err := env.core.SendLightning(context.Background(), &msgID,
		store.FedimintID("fed1"), store.Invoice{Encoded: "lnbc1", PaymentHash: "h1"})
	assert.True(t, errors.Is(err, ErrAmountlessInvoice))
	requirePayload[SendFailure](t, nextMsg(t, env.pipe))
}

func TestSendLightningNoGateway(t *testing.T) {
	env := newTestEnv(t, nil)
	env.fed.gateways = nil
	msgID := uuid.New()
	err := env.core.SendLightning(context.Background(), &msgID,
		store.FedimintID("fed1"), store.Invoice{Encoded: "lnbc1", PaymentHash: "h1", AmountMsats: 1000})
	assert.True(t, errors.Is(err, ErrNoGateway))
	requirePayload[SendFailure](t, nextMsg(t, env.pipe))
}

func TestSendLightningCanceled(t *testing.T) {
	env := newTestEnv(t, nil)
	msgID := uuid.New()
	require.NoError(t, env.core.SendLightning(context.Background(), &msgID,
		store.FedimintID("fed1"), store.Invoice{Encoded: "lnbc1", PaymentHash: "h1", AmountMsats: 1000}))
	requirePayload[Sending](t, nextMsg(t, env.pipe))

	op := "pay-fed1-1"
	env.fed.emitLnPay(op, fedclient.LnPayState{Kind: fedclient.LnPayCanceled})

	failure := requirePayload[SendFailure](t, nextMsg(t, env.pipe))
	assert.Equal(t, "payment canceled", failure.Reason)
	requirePayload[TransactionHistoryUpdated](t, nextMsg(t, env.pipe))

	p, err := env.db.GetLightningPayment(op)
	require.NoError(t, err)
	assert.Equal(t, store.StatusFailed, p.Status)
}

func TestReceiveLightningSuccess(t *testing.T) {
	env := newTestEnv(t, nil)
	msgID := uuid.New()

	invoice, err := env.core.ReceiveLightning(context.Background(), &msgID, store.FedimintID("fed1"), 50)
	require.NoError(t, err)
	assert.Equal(t, uint64(50000), invoice.AmountMsats)

	requirePayload[ReceiveGenerating](t, nextMsg(t, env.pipe))
	generated := requirePayload[ReceiveInvoiceGenerated](t, nextMsg(t, env.pipe))
	assert.Equal(t, invoice, generated.Invoice)

	op := "recv-fed1-1"
	env.fed.emitLnReceive(op, fedclient.LnReceiveState{Kind: fedclient.LnReceiveClaimed})

	requirePayload[ReceiveSuccess](t, nextMsg(t, env.pipe))
	requirePayload[MintBalanceUpdated](t, nextMsg(t, env.pipe))
	requirePayload[TransactionHistoryUpdated](t, nextMsg(t, env.pipe))

	r, err := env.db.GetLightningReceive(op)
	require.NoError(t, err)
	assert.Equal(t, store.StatusSuccess, r.Status)
}

func TestReceiveLightningSubscriptionClosed(t *testing.T) {
	env := newTestEnv(t, nil)
	msgID := uuid.New()

	_, err := env.core.ReceiveLightning(context.Background(), &msgID, store.FedimintID("fed1"), 50)
	require.NoError(t, err)
	requirePayload[ReceiveGenerating](t, nextMsg(t, env.pipe))
	requirePayload[ReceiveInvoiceGenerated](t, nextMsg(t, env.pipe))

	op := "recv-fed1-1"
	env.fed.closeLnReceive(op)

	requirePayload[ReceiveFailed](t, nextMsg(t, env.pipe))
	r, err := env.db.GetLightningReceive(op)
	require.NoError(t, err)
	assert.Equal(t, store.StatusFailed, r.Status)
}

func TestReceiveCashuPolling(t *testing.T) {
	cashu := newFakeCashu("https://mint.example.com", 100)
	env := newTestEnv(t, func(_ *store.DB, factory *fakeFactory) {
		factory.cashuMints["https://mint.example.com"] = cashu
	})
	ctx := context.Background()
	msgID := uuid.New()
	mint := store.CashuMintID("https://mint.example.com")

	require.NoError(t, env.core.AddCashuMint(ctx, &msgID, "https://mint.example.com"))
	requirePayload[AddMintSuccess](t, nextMsg(t, env.pipe))
	requirePayload[MintBalanceUpdated](t, nextMsg(t, env.pipe))

	_, err := env.core.ReceiveLightning(ctx, &msgID, mint, 25)
	require.NoError(t, err)
	requirePayload[ReceiveGenerating](t, nextMsg(t, env.pipe))
	requirePayload[ReceiveInvoiceGenerated](t, nextMsg(t, env.pipe))

	cashu.setQuoteState("mint-1", fedclient.MintQuotePaid)

	// the 1s poll discovers the payment, claims the e-cash and settles
	requirePayload[ReceiveSuccess](t, nextMsg(t, env.pipe))
	requirePayload[MintBalanceUpdated](t, nextMsg(t, env.pipe))
	requirePayload[TransactionHistoryUpdated](t, nextMsg(t, env.pipe))

	cashu.mu.Lock()
	minted := append([]string(nil), cashu.minted...)
	cashu.mu.Unlock()
	assert.Equal(t, []string{"mint-1"}, minted)

	r, err := env.db.GetLightningReceive("mint-1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusSuccess, r.Status)
}

func TestReceiveCashuQuoteExpires(t *testing.T) {
	cashu := newFakeCashu("https://mint.example.com", 100)
	cashu.quoteExpiry = 1500 * time.Millisecond
	env := newTestEnv(t, func(_ *store.DB, factory *fakeFactory) {
		factory.cashuMints["https://mint.example.com"] = cashu
	})
	ctx := context.Background()
	msgID := uuid.New()
	mint := store.CashuMintID("https://mint.example.com")

	require.NoError(t, env.core.AddCashuMint(ctx, &msgID, "https://mint.example.com"))
	requirePayload[AddMintSuccess](t, nextMsg(t, env.pipe))
	requirePayload[MintBalanceUpdated](t, nextMsg(t, env.pipe))

	_, err := env.core.ReceiveLightning(ctx, &msgID, mint, 25)
	require.NoError(t, err)
	requirePayload[ReceiveGenerating](t, nextMsg(t, env.pipe))
	requirePayload[ReceiveInvoiceGenerated](t, nextMsg(t, env.pipe))

	// the quote is never paid; the poll notices the deadline has passed,
	// discards the quote and fails the operation
	failed := requirePayload[ReceiveFailed](t, nextMsg(t, env.pipe))
	assert.Equal(t, "invoice expired before payment", failed.Reason)
	requirePayload[TransactionHistoryUpdated](t, nextMsg(t, env.pipe))

	cashu.mu.Lock()
	removed := append([]string(nil), cashu.removed...)
	minted := append([]string(nil), cashu.minted...)
	cashu.mu.Unlock()
	assert.Equal(t, []string{"mint-1"}, removed)
	assert.Empty(t, minted)

	r, err := env.db.GetLightningReceive("mint-1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusFailed, r.Status)
}

func TestSendCashuMelt(t *testing.T) {
	cashu := newFakeCashu("https://mint.example.com", 100)
	cashu.meltFee = 2
	env := newTestEnv(t, func(_ *store.DB, factory *fakeFactory) {
		factory.cashuMints["https://mint.example.com"] = cashu
	})
	ctx := context.Background()
	msgID := uuid.New()
	mint := store.CashuMintID("https://mint.example.com")

	require.NoError(t, env.core.AddCashuMint(ctx, &msgID, "https://mint.example.com"))
	requirePayload[AddMintSuccess](t, nextMsg(t, env.pipe))
	requirePayload[MintBalanceUpdated](t, nextMsg(t, env.pipe))

	require.NoError(t, env.core.SendLightning(ctx, &msgID, mint,
		store.Invoice{Encoded: "lnbc1", PaymentHash: "h1", AmountMsats: 21000}))
	requirePayload[Sending](t, nextMsg(t, env.pipe))

	success := requirePayload[SendSuccess](t, nextMsg(t, env.pipe))
	assert.Equal(t, "melt-preimage", success.Preimage)
	requirePayload[MintBalanceUpdated](t, nextMsg(t, env.pipe))
	requirePayload[TransactionHistoryUpdated](t, nextMsg(t, env.pipe))

	p, err := env.db.GetLightningPayment("melt-1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, store.StatusSuccess, p.Status)
	assert.Equal(t, int64(2000), p.FeeMsats)
}

func TestSendCashuMeltInsufficient(t *testing.T) {
	cashu := newFakeCashu("https://mint.example.com", 10)
	env := newTestEnv(t, func(_ *store.DB, factory *fakeFactory) {
		factory.cashuMints["https://mint.example.com"] = cashu
	})
	ctx := context.Background()
	msgID := uuid.New()

	require.NoError(t, env.core.AddCashuMint(ctx, &msgID, "https://mint.example.com"))
	requirePayload[AddMintSuccess](t, nextMsg(t, env.pipe))
	requirePayload[MintBalanceUpdated](t, nextMsg(t, env.pipe))

	err := env.core.SendLightning(ctx, &msgID, store.CashuMintID("https://mint.example.com"),
		store.Invoice{Encoded: "lnbc1", PaymentHash: "h1", AmountMsats: 21000})
	assert.True(t, errors.Is(err, ErrInsufficientBalance))
	requirePayload[SendFailure](t, nextMsg(t, env.pipe))
}

func TestSendOnChain(t *testing.T) {
	env := newTestEnv(t, nil)
	env.fed.withdrawFee = 100
	msgID := uuid.New()

	require.NoError(t, env.core.SendOnChain(context.Background(), &msgID,
		store.FedimintID("fed1"), "bc1qdest", 10000))
	requirePayload[Sending](t, nextMsg(t, env.pipe))

	assert.Equal(t, uint64(10000), env.fed.lastWithdraw.amount)
	assert.Equal(t, uint64(100), env.fed.lastWithdraw.fee)

	op := "wd-fed1-1"
	env.fed.emitWithdraw(op, fedclient.WithdrawState{Kind: fedclient.WithdrawCreated})
	env.fed.emitWithdraw(op, fedclient.WithdrawState{Kind: fedclient.WithdrawSucceeded, Txid: "tx1"})

	success := requirePayload[SendSuccess](t, nextMsg(t, env.pipe))
	assert.Equal(t, "tx1", success.Txid)
	requirePayload[MintBalanceUpdated](t, nextMsg(t, env.pipe))
	requirePayload[TransactionHistoryUpdated](t, nextMsg(t, env.pipe))

	p, err := env.db.GetOnChainPayment(op)
	require.NoError(t, err)
	assert.Equal(t, store.StatusSuccess, p.Status)
	assert.Equal(t, "tx1", p.Txid)
}

func TestSendOnChainSendAll(t *testing.T) {
	env := newTestEnv(t, nil)
	env.fed.withdrawFee = 100
	msgID := uuid.New()

	// zero amount means the whole balance minus fees
	require.NoError(t, env.core.SendOnChain(context.Background(), &msgID,
		store.FedimintID("fed1"), "bc1qdest", 0))
	requirePayload[Sending](t, nextMsg(t, env.pipe))

	assert.Equal(t, uint64(999_900), env.fed.lastWithdraw.amount)
	assert.Equal(t, uint64(100), env.fed.lastWithdraw.fee)
}

func TestSendOnChainSendAllDust(t *testing.T) {
	env := newTestEnv(t, nil)
	env.fed.setBalance(600_000) // 600 sats
	env.fed.withdrawFee = 100
	msgID := uuid.New()

	err := env.core.SendOnChain(context.Background(), &msgID,
		store.FedimintID("fed1"), "bc1qdest", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dust")
	requirePayload[SendFailure](t, nextMsg(t, env.pipe))
}

func TestSendOnChainInsufficient(t *testing.T) {
	env := newTestEnv(t, nil)
	env.fed.setBalance(5_000_000) // 5000 sats
	env.fed.withdrawFee = 100
	msgID := uuid.New()

	err := env.core.SendOnChain(context.Background(), &msgID,
		store.FedimintID("fed1"), "bc1qdest", 10000)
	assert.True(t, errors.Is(err, ErrInsufficientBalance))
	requirePayload[SendFailure](t, nextMsg(t, env.pipe))
}

func TestReceiveOnChainDisabled(t *testing.T) {
	env := newTestEnv(t, nil)
	msgID := uuid.New()
	_, err := env.core.ReceiveOnChain(context.Background(), &msgID, store.FedimintID("fed1"))
	assert.True(t, errors.Is(err, ErrOnchainReceiveDisabled))
	requirePayload[ReceiveFailed](t, nextMsg(t, env.pipe))
}

func TestReceiveOnChainProgression(t *testing.T) {
	env := newTestEnv(t, func(db *store.DB, _ *fakeFactory) {
		_, err := db.InsertProfile("abandon ability able")
		require.NoError(t, err)
		require.NoError(t, db.SetOnchainReceiveEnabled(true))
	})
	msgID := uuid.New()

	address, err := env.core.ReceiveOnChain(context.Background(), &msgID, store.FedimintID("fed1"))
	require.NoError(t, err)
	requirePayload[ReceiveGenerating](t, nextMsg(t, env.pipe))
	generated := requirePayload[ReceiveAddressGenerated](t, nextMsg(t, env.pipe))
	assert.Equal(t, address, generated.Address)

	op := "dep-fed1-1"
	env.fed.emitDeposit(op, fedclient.DepositState{Kind: fedclient.DepositWaitingForTransaction})
	env.fed.emitDeposit(op, fedclient.DepositState{
		Kind: fedclient.DepositWaitingForConfirmation, Txid: "d1", AmountSats: 5000, FeeSats: 100,
	})

	requirePayload[StatusUpdate](t, nextMsg(t, env.pipe))
	requirePayload[TransactionHistoryUpdated](t, nextMsg(t, env.pipe))

	r, err := env.db.GetOnChainReceive(op)
	require.NoError(t, err)
	assert.Equal(t, store.StatusWaitingConfirmation, r.Status)
	assert.Equal(t, "d1", r.Txid)

	// a duplicate notification neither rewrites the row nor re-emits
	env.fed.emitDeposit(op, fedclient.DepositState{
		Kind: fedclient.DepositWaitingForConfirmation, Txid: "d2", AmountSats: 9999, FeeSats: 1,
	})
	env.fed.emitDeposit(op, fedclient.DepositState{Kind: fedclient.DepositClaimed, Txid: "d1"})

	requirePayload[ReceiveSuccess](t, nextMsg(t, env.pipe))
	requirePayload[MintBalanceUpdated](t, nextMsg(t, env.pipe))
	requirePayload[TransactionHistoryUpdated](t, nextMsg(t, env.pipe))

	r, err = env.db.GetOnChainReceive(op)
	require.NoError(t, err)
	assert.Equal(t, store.StatusSuccess, r.Status)
	assert.Equal(t, "d1", r.Txid)
	require.NotNil(t, r.AmountSats)
	assert.Equal(t, int64(5000), *r.AmountSats)
}

func TestTransfer(t *testing.T) {
	fed2 := newFakeClient("fed2", 0)
	env := newTestEnv(t, func(db *store.DB, factory *fakeFactory) {
		require.NoError(t, db.InsertNewFederation("fed2", "invite2"))
		factory.add(fed2, "invite2")
	})
	ctx := context.Background()
	msgID := uuid.New()

	require.NoError(t, env.core.Transfer(ctx, &msgID,
		store.FedimintID("fed1"), store.FedimintID("fed2"), 100))
	requirePayload[Sending](t, nextMsg(t, env.pipe))

	env.fed.emitLnPay("pay-fed1-1", fedclient.LnPayState{Kind: fedclient.LnPaySuccess, Preimage: "tp"})
	sent := requirePayload[SendSuccess](t, nextMsg(t, env.pipe))
	assert.True(t, sent.Transfer)
	requirePayload[MintBalanceUpdated](t, nextMsg(t, env.pipe))
	requirePayload[TransactionHistoryUpdated](t, nextMsg(t, env.pipe))

	fed2.emitLnReceive("recv-fed2-1", fedclient.LnReceiveState{Kind: fedclient.LnReceiveClaimed})
	received := requirePayload[ReceiveSuccess](t, nextMsg(t, env.pipe))
	assert.True(t, received.Transfer)

	// both legs are recorded
	p, err := env.db.GetLightningPayment("pay-fed1-1")
	require.NoError(t, err)
	require.NotNil(t, p)
	r, err := env.db.GetLightningReceive("recv-fed2-1")
	require.NoError(t, err)
	require.NotNil(t, r)
}

func TestTransferSameMint(t *testing.T) {
	env := newTestEnv(t, nil)
	msgID := uuid.New()
	err := env.core.Transfer(context.Background(), &msgID,
		store.FedimintID("fed1"), store.FedimintID("fed1"), 100)
	require.Error(t, err)
	requirePayload[TransferFailure](t, nextMsg(t, env.pipe))
}

func TestAddFederation(t *testing.T) {
	fed3 := newFakeClient("fed3", 42_000)
	env := newTestEnv(t, func(_ *store.DB, factory *fakeFactory) {
		factory.add(fed3, "invite3")
	})
	ctx := context.Background()
	msgID := uuid.New()

	id, err := env.core.AddFederation(ctx, &msgID, "invite3")
	require.NoError(t, err)
	assert.Equal(t, "fed3", id)

	requirePayload[StatusUpdate](t, nextMsg(t, env.pipe))
	requirePayload[StatusUpdate](t, nextMsg(t, env.pipe))
	requirePayload[AddMintSuccess](t, nextMsg(t, env.pipe))
	requirePayload[MintBalanceUpdated](t, nextMsg(t, env.pipe))

	federations, err := env.db.ListFederations()
	require.NoError(t, err)
	assert.Contains(t, federations, "fed3")
	assert.Contains(t, env.core.Federations(), "fed3")

	meta, err := env.db.GetFederationMetadata("fed3")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "Fake fed3", meta.Name)
}

func TestAddFederationUnknownInvite(t *testing.T) {
	env := newTestEnv(t, nil)
	msgID := uuid.New()
	_, err := env.core.AddFederation(context.Background(), &msgID, "bogus")
	require.Error(t, err)
	requirePayload[StatusUpdate](t, nextMsg(t, env.pipe))
	requirePayload[AddMintFailed](t, nextMsg(t, env.pipe))
}

func TestRemoveMint(t *testing.T) {
	env := newTestEnv(t, nil)
	require.NoError(t, env.core.RemoveMint(context.Background(), store.FedimintID("fed1")))

	assert.Empty(t, env.core.Federations())
	archived, err := env.db.ListArchivedFederations()
	require.NoError(t, err)
	assert.Contains(t, archived, "fed1")
}

func TestResumePendingPayment(t *testing.T) {
	env := newTestEnv(t, func(db *store.DB, _ *fakeFactory) {
		require.NoError(t, db.CreateLightningPayment("pop1", store.FedimintID("fed1"),
			store.Invoice{Encoded: "lnbc1", PaymentHash: "h1", AmountMsats: 1000}, 1000, 0))
	})

	env.fed.emitLnPay("pop1", fedclient.LnPayState{Kind: fedclient.LnPaySuccess, Preimage: "rp"})

	m := nextMsg(t, env.pipe)
	success := requirePayload[SendSuccess](t, m)
	assert.Nil(t, m.ID, "resumed operations carry no request id")
	assert.Equal(t, "rp", success.Preimage)

	p, err := env.db.GetLightningPayment("pop1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusSuccess, p.Status)
}

func TestCancelOperation(t *testing.T) {
	env := newTestEnv(t, nil)
	msgID := uuid.New()
	require.NoError(t, env.core.SendLightning(context.Background(), &msgID,
		store.FedimintID("fed1"), store.Invoice{Encoded: "lnbc1", PaymentHash: "h1", AmountMsats: 1000}))
	requirePayload[Sending](t, nextMsg(t, env.pipe))

	op := "pay-fed1-1"
	env.core.CancelOperation(op)

	deadline := time.Now().Add(5 * time.Second)
	for env.core.tasks.Running(op) && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.False(t, env.core.tasks.Running(op))

	// the record stays pending for resume on next start
	p, err := env.db.GetLightningPayment(op)
	require.NoError(t, err)
	assert.Equal(t, store.StatusPending, p.Status)
}

func TestVettedGatewayPreferred(t *testing.T) {
	env := newTestEnv(t, nil)
	env.fed.gateways = []fedclient.Gateway{
		{ID: "gw-cheap", BaseFeeMsat: 2000, ProportionalFeePPM: 200},
		{ID: "gw-vetted"},
	}
	env.fed.info.Metadata = map[string]string{"vetted_gateways": `["gw-vetted"]`}

	// metadata is refreshed on open; re-open to pick up the announcement
	env.core.refreshMetadata(context.Background(), env.fed)

	gw, err := env.core.selectGateway(context.Background(), env.fed)
	require.NoError(t, err)
	assert.Equal(t, "gw-vetted", gw.ID)
}
