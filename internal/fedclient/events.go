package fedclient

// Subscription event types delivered by the federation client runtime. Each
// subscription stream is a receive-only channel that the runtime closes after
// emitting a terminal event. Consumers must treat an unexpectedly closed
// channel as a failed operation.

// LnPayStateKind enumerates the states of an outgoing Lightning payment
// routed through a gateway.
type LnPayStateKind int

const (
	LnPayCreated LnPayStateKind = iota
	LnPayFunded
	LnPayCanceled
	LnPaySuccess
	LnPayUnexpectedError
)

// LnPayState is one event on an outgoing Lightning payment subscription.
// Preimage is set for LnPaySuccess, ErrorMessage for LnPayUnexpectedError.
type LnPayState struct {
	Kind         LnPayStateKind
	Preimage     string
	ErrorMessage string
}

// Terminal reports whether no further events follow this one.
func (s LnPayState) Terminal() bool {
	return s.Kind == LnPayCanceled || s.Kind == LnPaySuccess || s.Kind == LnPayUnexpectedError
}

// InternalPayStateKind enumerates the states of a payment settled inside the
// federation without touching the Lightning network.
type InternalPayStateKind int

const (
	InternalPayFunding InternalPayStateKind = iota
	InternalPayPreimage
	InternalPayFundingFailed
	InternalPayUnexpectedError
)

// InternalPayState is one event on an internally settled payment
// subscription. Preimage is set for InternalPayPreimage, ErrorMessage for
// the two failure kinds.
type InternalPayState struct {
	Kind         InternalPayStateKind
	Preimage     string
	ErrorMessage string
}

// Terminal reports whether no further events follow this one.
func (s InternalPayState) Terminal() bool {
	return s.Kind != InternalPayFunding
}

// LnReceiveStateKind enumerates the states of an incoming Lightning payment.
type LnReceiveStateKind int

const (
	LnReceiveCreated LnReceiveStateKind = iota
	LnReceiveWaitingForPayment
	LnReceiveCanceled
	LnReceiveFunded
	LnReceiveAwaitingFunds
	LnReceiveClaimed
)

// LnReceiveState is one event on an incoming Lightning payment subscription.
// Reason is set for LnReceiveCanceled.
type LnReceiveState struct {
	Kind   LnReceiveStateKind
	Reason string
}

// Terminal reports whether no further events follow this one.
func (s LnReceiveState) Terminal() bool {
	return s.Kind == LnReceiveCanceled || s.Kind == LnReceiveClaimed
}

// WithdrawStateKind enumerates the states of an on-chain withdrawal.
type WithdrawStateKind int

const (
	WithdrawCreated WithdrawStateKind = iota
	WithdrawSucceeded
	WithdrawFailed
)

// WithdrawState is one event on an on-chain withdrawal subscription. Txid is
// set for WithdrawSucceeded, ErrorMessage for WithdrawFailed.
type WithdrawState struct {
	Kind         WithdrawStateKind
	Txid         string
	ErrorMessage string
}

// Terminal reports whether no further events follow this one.
func (s WithdrawState) Terminal() bool {
	return s.Kind == WithdrawSucceeded || s.Kind == WithdrawFailed
}

// DepositStateKind enumerates the states of an on-chain deposit to an
// allocated address.
type DepositStateKind int

const (
	DepositWaitingForTransaction DepositStateKind = iota
	DepositWaitingForConfirmation
	DepositConfirmed
	DepositClaimed
	DepositFailed
)

// DepositState is one event on an on-chain deposit subscription. The
// transaction fields are set from DepositWaitingForConfirmation onward,
// ErrorMessage for DepositFailed.
type DepositState struct {
	Kind         DepositStateKind
	Txid         string
	AmountSats   uint64
	FeeSats      uint64
	ErrorMessage string
}

// Terminal reports whether no further events follow this one.
func (s DepositState) Terminal() bool {
	return s.Kind == DepositClaimed || s.Kind == DepositFailed
}
