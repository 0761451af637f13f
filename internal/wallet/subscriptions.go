package wallet

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harborwallet/harbor/internal/fedclient"
	"github.com/harborwallet/harbor/internal/store"
)

const (
	receivePollInterval  = time.Second
	maxReceivePollErrors = 5
)

type opKind int

const (
	opLightningSend opKind = iota
	opLightningReceive
	opOnChainSend
	opOnChainReceive
)

// terminalSink is the single point an operation can terminate through. The
// subscription consumer and the polling fallback both race into it; the
// once guard ensures exactly one terminal transition, and done stops the
// losing racer.
//
// Every terminal transition runs the same sequence: ledger write, terminal
// UI message, balance refresh (successes only), history refresh. The ledger
// write is best-effort: a failed write is logged and the UI messages still
// go out, since the ledger's own monotonicity guards make the record safe
// to resume on restart.
type terminalSink struct {
	core        *Core
	kind        opKind
	msgID       *uuid.UUID
	mint        store.MintID
	operationID string
	transfer    bool
	once        sync.Once
	done        chan struct{}
}

func (c *Core) newSink(kind opKind, msgID *uuid.UUID, mint store.MintID, operationID string, transfer bool) *terminalSink {
	return &terminalSink{
		core:        c,
		kind:        kind,
		msgID:       msgID,
		mint:        mint,
		operationID: operationID,
		transfer:    transfer,
		done:        make(chan struct{}),
	}
}

func (s *terminalSink) finish(fn func()) {
	s.once.Do(func() {
		defer close(s.done)
		fn()
	})
}

func (s *terminalSink) logLedgerErr(err error) {
	if err != nil {
		slog.Error("terminal ledger write failed",
			"operation_id", s.operationID, "error", err)
	}
}

// succeedLightning settles an outbound Lightning payment. feeMsats, when
// set, corrects the estimate to the fee actually paid.
func (s *terminalSink) succeedLightning(ctx context.Context, preimage string, feeMsats *uint64) {
	s.finish(func() {
		s.logLedgerErr(s.core.storage.SetLightningPaymentComplete(s.operationID, preimage, feeMsats))
		s.core.send(s.msgID, SendSuccess{Preimage: preimage, Transfer: s.transfer})
		s.core.notifyBalance(ctx, s.mint)
		s.core.notifyHistory()
	})
}

// succeedWithdraw settles an outbound on-chain payment.
func (s *terminalSink) succeedWithdraw(ctx context.Context, txid string) {
	s.finish(func() {
		s.logLedgerErr(s.core.storage.SetOnChainPaymentTxid(s.operationID, txid))
		s.core.send(s.msgID, SendSuccess{Txid: txid})
		s.core.notifyBalance(ctx, s.mint)
		s.core.notifyHistory()
	})
}

// succeedReceive settles an inbound Lightning payment.
func (s *terminalSink) succeedReceive(ctx context.Context) {
	s.finish(func() {
		s.logLedgerErr(s.core.storage.MarkLightningReceiveSuccess(s.operationID))
		s.core.send(s.msgID, ReceiveSuccess{Transfer: s.transfer})
		s.core.notifyBalance(ctx, s.mint)
		s.core.notifyHistory()
	})
}

// succeedDeposit settles an inbound on-chain deposit.
func (s *terminalSink) succeedDeposit(ctx context.Context) {
	s.finish(func() {
		s.logLedgerErr(s.core.storage.MarkOnChainReceiveConfirmed(s.operationID))
		s.core.send(s.msgID, ReceiveSuccess{Transfer: s.transfer})
		s.core.notifyBalance(ctx, s.mint)
		s.core.notifyHistory()
	})
}

// fail marks the operation Failed and emits the matching failure message.
// Failures do not change the spendable balance, so no balance refresh.
func (s *terminalSink) fail(_ context.Context, reason string) {
	s.finish(func() {
		switch s.kind {
		case opLightningSend:
			s.logLedgerErr(s.core.storage.MarkLightningPaymentFailed(s.operationID))
		case opLightningReceive:
			s.logLedgerErr(s.core.storage.MarkLightningReceiveFailed(s.operationID))
		case opOnChainSend:
			s.logLedgerErr(s.core.storage.MarkOnChainPaymentFailed(s.operationID))
		case opOnChainReceive:
			s.logLedgerErr(s.core.storage.MarkOnChainReceiveFailed(s.operationID))
		}
		switch {
		case s.transfer:
			s.core.send(s.msgID, TransferFailure{Reason: reason})
		case s.kind == opLightningSend || s.kind == opOnChainSend:
			s.core.send(s.msgID, SendFailure{Reason: reason})
		default:
			s.core.send(s.msgID, ReceiveFailed{Reason: reason})
		}
		s.core.notifyHistory()
	})
}

// driveLnPay consumes the subscription of an externally routed payment to
// its terminal event.
func (c *Core) driveLnPay(ctx context.Context, client fedclient.Client, operationID string, sink *terminalSink) {
	stream, err := client.SubscribeLnPay(ctx, operationID)
	if err != nil {
		sink.fail(ctx, err.Error())
		return
	}
	for {
		select {
		case <-ctx.Done():
			// canceled; the record stays pending and resumes on next start
			return
		case st, ok := <-stream:
			if !ok {
				sink.fail(ctx, "payment subscription closed unexpectedly")
				return
			}
			switch st.Kind {
			case fedclient.LnPaySuccess:
				sink.succeedLightning(ctx, st.Preimage, nil)
				return
			case fedclient.LnPayCanceled:
				sink.fail(ctx, "payment canceled")
				return
			case fedclient.LnPayUnexpectedError:
				sink.fail(ctx, st.ErrorMessage)
				return
			}
		}
	}
}

// driveInternalPay consumes the subscription of an internally settled
// payment to its terminal event.
func (c *Core) driveInternalPay(ctx context.Context, client fedclient.Client, operationID string, sink *terminalSink) {
	stream, err := client.SubscribeInternalPay(ctx, operationID)
	if err != nil {
		sink.fail(ctx, err.Error())
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-stream:
			if !ok {
				sink.fail(ctx, "payment subscription closed unexpectedly")
				return
			}
			switch st.Kind {
			case fedclient.InternalPayPreimage:
				sink.succeedLightning(ctx, st.Preimage, nil)
				return
			case fedclient.InternalPayFundingFailed, fedclient.InternalPayUnexpectedError:
				sink.fail(ctx, st.ErrorMessage)
				return
			}
		}
	}
}

// lnReceiveHandle abstracts over the two receive backends: federations push
// a subscription stream and expose a pollable quote; Cashu mints are
// poll-only, with explicit claim and discard calls.
type lnReceiveHandle struct {
	operationID string
	expiry      time.Time
	subscribe   func(ctx context.Context, operationID string) (<-chan fedclient.LnReceiveState, error)
	pollState   func(ctx context.Context, operationID string) (fedclient.MintQuoteState, error)
	claim       func(ctx context.Context) error
	discard     func(ctx context.Context) error
}

func (h lnReceiveHandle) discardQuote(ctx context.Context) {
	if h.discard == nil {
		return
	}
	if err := h.discard(ctx); err != nil {
		slog.Warn("quote discard failed", "operation_id", h.operationID, "error", err)
	}
}

// driveLnReceive runs the subscription consumer and the polling fallback as
// two independent completions racing into the sink. The subscription owns
// the success path; the poll owns expiry and doubles as the success path
// where no subscription exists.
func (c *Core) driveLnReceive(ctx context.Context, h lnReceiveHandle, sink *terminalSink) {
	var wg sync.WaitGroup
	if h.subscribe != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.watchLnReceive(ctx, h, sink)
		}()
	}
	if h.pollState != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.pollLnReceive(ctx, h, sink)
		}()
	}
	wg.Wait()
}

func (c *Core) watchLnReceive(ctx context.Context, h lnReceiveHandle, sink *terminalSink) {
	stream, err := h.subscribe(ctx, h.operationID)
	if err != nil {
		sink.fail(ctx, err.Error())
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-sink.done:
			return
		case st, ok := <-stream:
			if !ok {
				sink.fail(ctx, "receive subscription closed unexpectedly")
				return
			}
			switch st.Kind {
			case fedclient.LnReceiveClaimed:
				sink.succeedReceive(ctx)
				return
			case fedclient.LnReceiveCanceled:
				h.discardQuote(ctx)
				reason := st.Reason
				if reason == "" {
					reason = "receive canceled"
				}
				sink.fail(ctx, reason)
				return
			}
		}
	}
}

func (c *Core) pollLnReceive(ctx context.Context, h lnReceiveHandle, sink *terminalSink) {
	ticker := time.NewTicker(receivePollInterval)
	defer ticker.Stop()

	errCount := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-sink.done:
			return
		case <-ticker.C:
		}

		if !h.expiry.IsZero() && time.Now().After(h.expiry) {
			h.discardQuote(ctx)
			sink.fail(ctx, "invoice expired before payment")
			return
		}

		state, err := h.pollState(ctx, h.operationID)
		if err != nil {
			errCount++
			if errCount > maxReceivePollErrors {
				slog.Warn("receive poll aborted after repeated errors",
					"operation_id", h.operationID, "error", err)
				return
			}
			continue
		}
		errCount = 0

		switch state {
		case fedclient.MintQuotePaid:
			if h.claim != nil {
				if err := h.claim(ctx); err != nil {
					slog.Error("claim failed, will retry",
						"operation_id", h.operationID, "error", err)
					continue
				}
			}
			sink.succeedReceive(ctx)
			return
		case fedclient.MintQuoteIssued:
			sink.succeedReceive(ctx)
			return
		}
	}
}

// driveWithdraw consumes the subscription of an on-chain withdrawal to its
// terminal event.
func (c *Core) driveWithdraw(ctx context.Context, client fedclient.Client, operationID string, sink *terminalSink) {
	stream, err := client.SubscribeWithdraw(ctx, operationID)
	if err != nil {
		sink.fail(ctx, err.Error())
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-stream:
			if !ok {
				sink.fail(ctx, "withdraw subscription closed unexpectedly")
				return
			}
			switch st.Kind {
			case fedclient.WithdrawSucceeded:
				sink.succeedWithdraw(ctx, st.Txid)
				return
			case fedclient.WithdrawFailed:
				sink.fail(ctx, st.ErrorMessage)
				return
			}
		}
	}
}

// driveDeposit consumes the subscription of an on-chain deposit. Unlike the
// other machines it has a meaningful intermediate state: the first
// WaitingForConfirmation records the transaction exactly once.
func (c *Core) driveDeposit(ctx context.Context, client fedclient.Client, operationID string, sink *terminalSink) {
	stream, err := client.SubscribeDeposit(ctx, operationID)
	if err != nil {
		sink.fail(ctx, err.Error())
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-stream:
			if !ok {
				sink.fail(ctx, "deposit subscription closed unexpectedly")
				return
			}
			switch st.Kind {
			case fedclient.DepositWaitingForConfirmation:
				c.depositSeen(sink, st)
			case fedclient.DepositConfirmed:
				slog.Info("deposit confirmed", "operation_id", operationID, "txid", st.Txid)
			case fedclient.DepositClaimed:
				c.depositSeen(sink, st)
				sink.succeedDeposit(ctx)
				return
			case fedclient.DepositFailed:
				sink.fail(ctx, st.ErrorMessage)
				return
			}
		}
	}
}

// depositSeen records the deposit transaction the first time it is
// reported. The guard is the ledger's own txid column: once set, duplicate
// notifications neither rewrite the row nor re-emit UI events.
func (c *Core) depositSeen(sink *terminalSink, st fedclient.DepositState) {
	if st.Txid == "" {
		return
	}
	rec, err := c.storage.GetOnChainReceive(sink.operationID)
	if err != nil {
		slog.Error("deposit lookup failed", "operation_id", sink.operationID, "error", err)
		return
	}
	if rec == nil || rec.Txid != "" {
		return
	}
	if err := c.storage.SetOnChainReceiveTxid(sink.operationID, st.Txid, st.AmountSats, st.FeeSats); err != nil {
		slog.Error("ledger write failed for deposit transaction",
			"operation_id", sink.operationID, "error", err)
		return
	}
	c.send(sink.msgID, StatusUpdate{Message: "Transaction seen, waiting for confirmation"})
	c.notifyHistory()
}

// resumePending re-spawns the watcher for every operation that was still
// pending at last shutdown. Resumed operations carry no request id; their
// terminal messages arrive unsolicited.
func (c *Core) resumePending() {
	payments, err := c.storage.GetPendingLightningPayments()
	if err != nil {
		slog.Error("failed to list pending lightning payments", "error", err)
	}
	for _, p := range payments {
		if p.Mint.Fedimint == "" {
			// melt settles in one call; a pending record here means the
			// process died mid-melt and the quote outcome is unknown
			slog.Warn("pending cashu melt left for manual inspection", "operation_id", p.OperationID)
			continue
		}
		client, err := c.clientFor(p.Mint)
		if err != nil {
			continue
		}
		sink := c.newSink(opLightningSend, nil, p.Mint, p.OperationID, false)
		c.tasks.Spawn(c.ctx, p.OperationID, func(ctx context.Context) {
			c.driveLnPay(ctx, client, p.OperationID, sink)
		})
	}

	receives, err := c.storage.GetPendingLightningReceives()
	if err != nil {
		slog.Error("failed to list pending lightning receives", "error", err)
	}
	for _, r := range receives {
		sink := c.newSink(opLightningReceive, nil, r.Mint, r.OperationID, false)
		if r.Mint.Fedimint != "" {
			client, err := c.clientFor(r.Mint)
			if err != nil {
				continue
			}
			c.tasks.Spawn(c.ctx, r.OperationID, func(ctx context.Context) {
				c.driveLnReceive(ctx, lnReceiveHandle{
					operationID: r.OperationID,
					subscribe:   client.SubscribeLnReceive,
					pollState:   client.LnReceiveQuoteState,
				}, sink)
			})
			continue
		}
		client, err := c.cashuFor(r.Mint)
		if err != nil {
			continue
		}
		c.tasks.Spawn(c.ctx, r.OperationID, func(ctx context.Context) {
			c.driveLnReceive(ctx, lnReceiveHandle{
				operationID: r.OperationID,
				pollState:   client.MintQuoteState,
				claim:       func(ctx context.Context) error { return client.Mint(ctx, r.OperationID) },
				discard:     func(ctx context.Context) error { return client.RemoveMintQuote(ctx, r.OperationID) },
			}, sink)
		})
	}

	withdrawals, err := c.storage.GetPendingOnChainPayments()
	if err != nil {
		slog.Error("failed to list pending onchain payments", "error", err)
	}
	for _, w := range withdrawals {
		client, err := c.clientFor(w.Mint)
		if err != nil {
			continue
		}
		sink := c.newSink(opOnChainSend, nil, w.Mint, w.OperationID, false)
		c.tasks.Spawn(c.ctx, w.OperationID, func(ctx context.Context) {
			c.driveWithdraw(ctx, client, w.OperationID, sink)
		})
	}

	deposits, err := c.storage.GetPendingOnChainReceives()
	if err != nil {
		slog.Error("failed to list pending onchain receives", "error", err)
	}
	for _, d := range deposits {
		client, err := c.clientFor(d.Mint)
		if err != nil {
			continue
		}
		sink := c.newSink(opOnChainReceive, nil, d.Mint, d.OperationID, false)
		c.tasks.Spawn(c.ctx, d.OperationID, func(ctx context.Context) {
			c.driveDeposit(ctx, client, d.OperationID, sink)
		})
	}
}
