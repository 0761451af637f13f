package wallet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/harborwallet/harbor/internal/fedclient"
	"github.com/harborwallet/harbor/internal/store"
)

// fakeClient is an in-process federation client. Operations hand out
// deterministic operation ids and buffered event channels the test feeds
// directly.
type fakeClient struct {
	id          string
	info        fedclient.FederationInfo
	gateways    []fedclient.Gateway
	payType     fedclient.PaymentType
	withdrawFee uint64
	payErr      error

	mu           sync.Mutex
	balanceMsats uint64
	nextOp       int
	lnPay        map[string]chan fedclient.LnPayState
	internalPay  map[string]chan fedclient.InternalPayState
	lnReceive    map[string]chan fedclient.LnReceiveState
	withdraw     map[string]chan fedclient.WithdrawState
	deposit      map[string]chan fedclient.DepositState
	quoteState   map[string]fedclient.MintQuoteState
	lastWithdraw struct {
		address string
		amount  uint64
		fee     uint64
	}
}

func newFakeClient(id string, balanceMsats uint64) *fakeClient {
	return &fakeClient{
		id:           id,
		info:         fedclient.FederationInfo{ID: id, Name: "Fake " + id},
		gateways:     []fedclient.Gateway{{ID: "gw1", BaseFeeMsat: 1000, ProportionalFeePPM: 100}},
		balanceMsats: balanceMsats,
		lnPay:        map[string]chan fedclient.LnPayState{},
		internalPay:  map[string]chan fedclient.InternalPayState{},
		lnReceive:    map[string]chan fedclient.LnReceiveState{},
		withdraw:     map[string]chan fedclient.WithdrawState{},
		deposit:      map[string]chan fedclient.DepositState{},
		quoteState:   map[string]fedclient.MintQuoteState{},
	}
}

func (f *fakeClient) opID(prefix string) string {
	f.nextOp++
	return fmt.Sprintf("%s-%s-%d", prefix, f.id, f.nextOp)
}

func (f *fakeClient) FederationID() string { return f.id }

func (f *fakeClient) Info(context.Context) (fedclient.FederationInfo, error) {
	return f.info, nil
}

func (f *fakeClient) Balance(context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balanceMsats, nil
}

func (f *fakeClient) setBalance(msats uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balanceMsats = msats
}

func (f *fakeClient) ListGateways(context.Context) ([]fedclient.Gateway, error) {
	gws := make([]fedclient.Gateway, len(f.gateways))
	copy(gws, f.gateways)
	return gws, nil
}

func (f *fakeClient) PayInvoice(_ context.Context, _ store.Invoice, _ fedclient.Gateway) (fedclient.PayResult, error) {
	if f.payErr != nil {
		return fedclient.PayResult{}, f.payErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	op := f.opID("pay")
	f.lnPay[op] = make(chan fedclient.LnPayState, 8)
	f.internalPay[op] = make(chan fedclient.InternalPayState, 8)
	return fedclient.PayResult{OperationID: op, Type: f.payType, FeeMsats: 1000}, nil
}

func (f *fakeClient) lnPayChan(op string) chan fedclient.LnPayState {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.lnPay[op]
	if !ok {
		ch = make(chan fedclient.LnPayState, 8)
		f.lnPay[op] = ch
	}
	return ch
}

func (f *fakeClient) internalPayChan(op string) chan fedclient.InternalPayState {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.internalPay[op]
	if !ok {
		ch = make(chan fedclient.InternalPayState, 8)
		f.internalPay[op] = ch
	}
	return ch
}

func (f *fakeClient) lnReceiveChan(op string) chan fedclient.LnReceiveState {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.lnReceive[op]
	if !ok {
		ch = make(chan fedclient.LnReceiveState, 8)
		f.lnReceive[op] = ch
	}
	return ch
}

func (f *fakeClient) withdrawChan(op string) chan fedclient.WithdrawState {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.withdraw[op]
	if !ok {
		ch = make(chan fedclient.WithdrawState, 8)
		f.withdraw[op] = ch
	}
	return ch
}

func (f *fakeClient) depositChan(op string) chan fedclient.DepositState {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.deposit[op]
	if !ok {
		ch = make(chan fedclient.DepositState, 8)
		f.deposit[op] = ch
	}
	return ch
}

func (f *fakeClient) SubscribeLnPay(_ context.Context, op string) (<-chan fedclient.LnPayState, error) {
	return f.lnPayChan(op), nil
}

func (f *fakeClient) SubscribeInternalPay(_ context.Context, op string) (<-chan fedclient.InternalPayState, error) {
	return f.internalPayChan(op), nil
}

func (f *fakeClient) CreateInvoice(_ context.Context, amountMsats uint64, _ fedclient.Gateway) (fedclient.InvoiceResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	op := f.opID("recv")
	f.lnReceive[op] = make(chan fedclient.LnReceiveState, 8)
	return fedclient.InvoiceResult{
		OperationID: op,
		Invoice: store.Invoice{
			Encoded:     "lnbc1fake" + op,
			PaymentHash: "hash-" + op,
			AmountMsats: amountMsats,
		},
		Expiry: time.Now().Add(time.Hour),
	}, nil
}

func (f *fakeClient) SubscribeLnReceive(_ context.Context, op string) (<-chan fedclient.LnReceiveState, error) {
	return f.lnReceiveChan(op), nil
}

func (f *fakeClient) LnReceiveQuoteState(_ context.Context, op string) (fedclient.MintQuoteState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quoteState[op], nil
}

func (f *fakeClient) WithdrawFees(context.Context, string, uint64) (uint64, error) {
	return f.withdrawFee, nil
}

func (f *fakeClient) Withdraw(_ context.Context, address string, amount, fee uint64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	op := f.opID("wd")
	f.withdraw[op] = make(chan fedclient.WithdrawState, 8)
	f.lastWithdraw.address = address
	f.lastWithdraw.amount = amount
	f.lastWithdraw.fee = fee
	return op, nil
}

func (f *fakeClient) SubscribeWithdraw(_ context.Context, op string) (<-chan fedclient.WithdrawState, error) {
	return f.withdrawChan(op), nil
}

func (f *fakeClient) AllocateDepositAddress(context.Context) (fedclient.DepositAddress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	op := f.opID("dep")
	f.deposit[op] = make(chan fedclient.DepositState, 8)
	return fedclient.DepositAddress{OperationID: op, Address: "bc1qfake" + op}, nil
}

func (f *fakeClient) SubscribeDeposit(_ context.Context, op string) (<-chan fedclient.DepositState, error) {
	return f.depositChan(op), nil
}

func (f *fakeClient) Shutdown(context.Context) error { return nil }

func (f *fakeClient) emitLnPay(op string, st fedclient.LnPayState) { f.lnPayChan(op) <- st }

func (f *fakeClient) emitInternalPay(op string, st fedclient.InternalPayState) {
	f.internalPayChan(op) <- st
}

func (f *fakeClient) emitLnReceive(op string, st fedclient.LnReceiveState) {
	f.lnReceiveChan(op) <- st
}

func (f *fakeClient) emitWithdraw(op string, st fedclient.WithdrawState) { f.withdrawChan(op) <- st }

func (f *fakeClient) emitDeposit(op string, st fedclient.DepositState) { f.depositChan(op) <- st }

func (f *fakeClient) closeLnReceive(op string) { close(f.lnReceiveChan(op)) }

var _ fedclient.Client = (*fakeClient)(nil)

// fakeCashu is an in-process Cashu mint client.
type fakeCashu struct {
	url string

	mu          sync.Mutex
	balanceSats uint64
	nextQuote   int
	quoteState  map[string]fedclient.MintQuoteState
	quoteExpiry time.Duration
	meltFee     uint64
	meltErr     error
	minted      []string
	removed     []string
}

func newFakeCashu(url string, balanceSats uint64) *fakeCashu {
	return &fakeCashu{
		url:         url,
		balanceSats: balanceSats,
		quoteState:  map[string]fedclient.MintQuoteState{},
		quoteExpiry: time.Hour,
	}
}

func (f *fakeCashu) MintURL() string { return f.url }

func (f *fakeCashu) Balance(context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balanceSats, nil
}

func (f *fakeCashu) MeltQuote(_ context.Context, invoice store.Invoice) (fedclient.MeltQuote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextQuote++
	return fedclient.MeltQuote{
		ID:         fmt.Sprintf("melt-%d", f.nextQuote),
		AmountSats: invoice.AmountMsats / 1000,
		FeeSats:    f.meltFee,
		Expiry:     time.Now().Add(f.quoteExpiry),
	}, nil
}

func (f *fakeCashu) Melt(context.Context, string) (fedclient.MeltResult, error) {
	if f.meltErr != nil {
		return fedclient.MeltResult{}, f.meltErr
	}
	return fedclient.MeltResult{Preimage: "melt-preimage", FeeSats: f.meltFee}, nil
}

func (f *fakeCashu) MintQuote(_ context.Context, amountSats uint64) (fedclient.MintQuote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextQuote++
	id := fmt.Sprintf("mint-%d", f.nextQuote)
	return fedclient.MintQuote{
		ID: id,
		Invoice: store.Invoice{
			Encoded:     "lnbc1cashu" + id,
			PaymentHash: "hash-" + id,
			AmountMsats: amountSats * 1000,
		},
		Expiry: time.Now().Add(f.quoteExpiry),
	}, nil
}

func (f *fakeCashu) MintQuoteState(_ context.Context, quoteID string) (fedclient.MintQuoteState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quoteState[quoteID], nil
}

func (f *fakeCashu) Mint(_ context.Context, quoteID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.minted = append(f.minted, quoteID)
	return nil
}

func (f *fakeCashu) RemoveMintQuote(_ context.Context, quoteID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, quoteID)
	return nil
}

func (f *fakeCashu) Shutdown(context.Context) error { return nil }

func (f *fakeCashu) setQuoteState(quoteID string, st fedclient.MintQuoteState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quoteState[quoteID] = st
}

var _ fedclient.CashuClient = (*fakeCashu)(nil)

// fakeFactory hands out pre-built clients.
type fakeFactory struct {
	federations map[string]*fakeClient // by federation id
	invites     map[string]string      // invite code -> federation id
	cashuMints  map[string]*fakeCashu  // by url
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{
		federations: map[string]*fakeClient{},
		invites:     map[string]string{},
		cashuMints:  map[string]*fakeCashu{},
	}
}

func (f *fakeFactory) add(client *fakeClient, inviteCode string) {
	f.federations[client.id] = client
	f.invites[inviteCode] = client.id
}

func (f *fakeFactory) Preview(_ context.Context, inviteCode string) (fedclient.FederationInfo, error) {
	id, ok := f.invites[inviteCode]
	if !ok {
		return fedclient.FederationInfo{}, fmt.Errorf("unknown invite code")
	}
	return f.federations[id].info, nil
}

func (f *fakeFactory) Join(ctx context.Context, inviteCode string, _ fedclient.Database) (fedclient.Client, error) {
	id, ok := f.invites[inviteCode]
	if !ok {
		return nil, fmt.Errorf("unknown invite code")
	}
	return f.federations[id], nil
}

func (f *fakeFactory) Open(_ context.Context, federationID string, _ fedclient.Database) (fedclient.Client, error) {
	client, ok := f.federations[federationID]
	if !ok {
		return nil, fmt.Errorf("unknown federation %s", federationID)
	}
	return client, nil
}

func (f *fakeFactory) OpenCashu(_ context.Context, mintURL string) (fedclient.CashuClient, error) {
	client, ok := f.cashuMints[mintURL]
	if !ok {
		return nil, fmt.Errorf("unknown cashu mint %s", mintURL)
	}
	return client, nil
}

var _ fedclient.Factory = (*fakeFactory)(nil)
