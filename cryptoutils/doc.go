// Package cryptoutils holds the secp256k1 primitives used by the multisig
// service: key pairs, compact public keys, ECDSA signing over the SHA-256
// digest of the content, and the base58check address encoding that maps a
// public key to a printable identifier.
//
// An address is version byte 0x00, the RIPEMD-160 of the SHA-256 of the
// compressed public key, and a four byte double SHA-256 checksum, encoded in
// base58. DecodeAddress rejects, in order, strings that are not base58, that
// do not decode to 25 bytes, that carry another version byte, and whose
// checksum does not match.
package cryptoutils
