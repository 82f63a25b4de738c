package multisig

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/ruteri/multisig-service/cryptoutils"
)

// Binding ties one assigned public key to its signature, if any.
type Binding struct {
	PublicKey cryptoutils.PublicKey
	Signature []byte
}

// Signed reports whether the binding holds a signature.
func (b Binding) Signed() bool {
	return len(b.Signature) > 0
}

// Bindings is the ordered key/signature set of a message. Its length is
// fixed when the message is created.
type Bindings []Binding

// NewBindings creates one empty binding per key. Duplicate keys are rejected
// so that a single key pair can never fill two quorum slots.
func NewBindings(keys []cryptoutils.PublicKey) (Bindings, error) {
	if len(keys) == 0 {
		return nil, ErrNoKeys
	}

	seen := make(map[cryptoutils.PublicKey]struct{}, len(keys))
	bindings := make(Bindings, 0, len(keys))
	for _, key := range keys {
		if _, ok := seen[key]; ok {
			return nil, ErrDuplicateKey
		}
		seen[key] = struct{}{}
		bindings = append(bindings, Binding{PublicKey: key})
	}
	return bindings, nil
}

// Sign stores a signature over content in the binding of kp's public key.
// It returns false without touching the binding when that key already
// signed.
func (bs Bindings) Sign(content []byte, kp *cryptoutils.KeyPair) (bool, error) {
	idx := bs.indexOf(kp.PublicKey())
	if idx < 0 {
		return false, ErrKeyNotAssigned
	}

	if bs[idx].Signed() {
		slog.Warn("signature already exists, skip signing", "address", kp.Address())
		return false, nil
	}

	sig, err := kp.Sign(content)
	if err != nil {
		return false, err
	}
	bs[idx].Signature = sig
	return true, nil
}

// Verify checks the quorum first and only then validates every present
// signature against content. A quorum below one is rejected with
// ErrInvalidQuorum. A single invalid signature fails the whole
// verification even when enough other signatures are valid.
func (bs Bindings) Verify(content []byte, required int) error {
	if required < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidQuorum, required)
	}

	have := bs.SignatureCount()
	if have < required {
		return &NotEnoughSignaturesError{Have: have, Need: required}
	}

	for i, b := range bs {
		if !b.Signed() {
			continue
		}
		if err := cryptoutils.VerifySignature(b.PublicKey, content, b.Signature); err != nil {
			return &InvalidSignatureError{Index: i, PublicKey: b.PublicKey, Err: err}
		}
	}

	slog.Info("verification succeeded", "signatures", have, "required", required)
	return nil
}

// SignatureCount returns the number of bindings holding a signature.
func (bs Bindings) SignatureCount() int {
	n := 0
	for _, b := range bs {
		if b.Signed() {
			n++
		}
	}
	return n
}

// Clone returns a deep copy.
func (bs Bindings) Clone() Bindings {
	if bs == nil {
		return nil
	}
	out := make(Bindings, len(bs))
	for i, b := range bs {
		out[i] = Binding{PublicKey: b.PublicKey, Signature: bytes.Clone(b.Signature)}
	}
	return out
}

func (bs Bindings) indexOf(key cryptoutils.PublicKey) int {
	for i := range bs {
		if bs[i].PublicKey == key {
			return i
		}
	}
	return -1
}
