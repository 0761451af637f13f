// Package wallet is the payment coordination core: it owns the registry of
// mint clients, initiates sends and receives against them, and drives each
// operation's event subscription to exactly one terminal state.
//
// Every operation follows the same shape: validate, call the mint client,
// record the operation in the ledger, emit an acceptance message, then spawn
// a watcher task that consumes the client's event stream. Terminal events
// flow through a once-guarded sink that writes the ledger, notifies the UI
// and refreshes balance and history.
//
// The UI consumes updates from the Pipe; it never calls into the state
// machines directly.
package wallet
