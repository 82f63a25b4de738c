// Package multisig implements the multisig aggregate: a message whose
// immutable content is bound to a fixed, ordered set of public keys, collects
// at most one signature per key, and verifies once a quorum of valid
// signatures is present.
//
// Messages carry no logger. The two events the aggregate reports, a skipped
// re-sign and a successful verification, go to slog.Default, which the
// binaries install through common.SetupLogger.
package multisig
