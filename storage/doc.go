// Package storage archives verified message contents and verification
// receipts on content-addressed backends.
//
// Every item is identified by the SHA-256 hash of its bytes and stored in a
// namespace per content type (contents, receipts). Backends are created from
// location URIs:
//
//	[scheme]://[auth@]host[:port][/path][?params]
//
// Supported URI schemes:
//
//   - file:///var/lib/multisig/archive
//   - s3://bucket-name/prefix?region=us-west-2
//   - vault://vault.example.com:8200/secret/multisig
//   - ipfs://localhost:5001/multisig?timeout=30s
//
// MultiStorageBackend combines several backends: stores go to every
// available backend and fetches fall back through them in order.
package storage
