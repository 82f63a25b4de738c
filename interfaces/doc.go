// Package interfaces defines the contracts between the multisig service
// components, separating interface definitions from implementations.
//
// # Store Interfaces
//
// UserStore: users and the key pairs generated for them.
//
// KeyResolver: the key-hash index that turns a decoded address into a public
// key or key pair without scanning users.
//
// MessageStore: multisig messages with per-message exclusive updates.
//
// # Storage Interfaces
//
// StorageBackend: content-addressed blob storage used to archive verified
// message contents and verification receipts across multiple backend types
// (file, S3, IPFS, Vault).
//
// StorageBackendFactory: creates storage backends from URI strings and manages
// multi-backend configurations for redundant storage.
package interfaces
