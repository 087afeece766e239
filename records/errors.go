package records

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/tranvictor/ensprefs/ens"
	"github.com/tranvictor/ensprefs/prefs"
)

var (
	ErrKeyFetch         = errors.New("preference read failed")
	ErrStoreUnavailable = errors.New("record store unavailable")
	ErrEncoding         = errors.New("preference encoding failed")
	ErrSubmission       = errors.New("transaction submission failed")
	ErrReverted         = errors.New("transaction reverted")
	ErrNoResolver       = errors.New("name has no resolver")
	ErrReadOnly         = errors.New("record store is read only")
	ErrNoEdits          = errors.New("no preferences to write")
)

// KeyFetchError is a single failed key. It is data in Results, not a
// failure of the whole read.
type KeyFetchError struct {
	Key prefs.Key
	Err error
}

func (e *KeyFetchError) Error() string {
	return fmt.Sprintf("reading %s: %s", e.Key, e.Err)
}

func (e *KeyFetchError) Unwrap() []error {
	return []error{ErrKeyFetch, e.Err}
}

type StoreUnavailableError struct {
	Node ens.Node
	Err  error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("records of %s unavailable: %s", e.Node.Hex(), e.Err)
}

func (e *StoreUnavailableError) Unwrap() []error {
	return []error{ErrStoreUnavailable, e.Err}
}

type EncodingError struct {
	Key prefs.Key
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding %q: %s", e.Key, e.Err)
}

func (e *EncodingError) Unwrap() []error {
	return []error{ErrEncoding, e.Err}
}

// SubmissionError means the transaction never made it on chain: no node
// accepted it, or it was accepted and then dropped.
type SubmissionError struct {
	Hash common.Hash
	Err  error
}

func (e *SubmissionError) Error() string {
	if e.Hash == (common.Hash{}) {
		return fmt.Sprintf("submitting preferences: %s", e.Err)
	}
	return fmt.Sprintf("tx %s: %s", e.Hash.Hex(), e.Err)
}

func (e *SubmissionError) Unwrap() []error {
	return []error{ErrSubmission, e.Err}
}

type RevertedError struct {
	Hash    common.Hash
	Receipt *types.Receipt
}

func (e *RevertedError) Error() string {
	return fmt.Sprintf("tx %s reverted", e.Hash.Hex())
}

func (e *RevertedError) Unwrap() error {
	return ErrReverted
}
