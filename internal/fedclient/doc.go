// Package fedclient defines the contract the wallet consumes from the
// external federation client runtime, and the two pieces of glue the wallet
// supplies to it:
//
//   - SnapshotBridge: the transactional key-value store the runtime requires,
//     backed by an in-memory working copy and persisted as a whole-snapshot
//     row per federation.
//   - SelectGateway: the Lightning gateway selection policy.
//
// The protocol implementations themselves (e-cash cryptography, Lightning
// routing, transports) live behind the Client and CashuClient interfaces.
package fedclient
