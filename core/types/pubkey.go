package types

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// PubkeyLength is the expected length of an account key on the ledger.
const PubkeyLength = 32

var ErrInvalidPubkey = errors.New("invalid pubkey")

// Pubkey is the 32-byte address of a ledger account. Its text form is base58.
type Pubkey [PubkeyLength]byte

var (
	// SystemProgramID owns every plain wallet account.
	SystemProgramID = Pubkey{}

	// Secp256k1ProgramID is the native precompile that checks secp256k1
	// signatures against Ethereum addresses before any program runs.
	Secp256k1ProgramID = MustPubkeyFromBase58("KeccakSecp256k11111111111111111111111111111")

	// InstructionsSysvarID exposes the instructions of the running transaction.
	InstructionsSysvarID = MustPubkeyFromBase58("Sysvar1nstructions1111111111111111111111111")
)

// BytesToPubkey returns Pubkey with value b.
// If b is larger than len(p), b will be cropped from the left.
func BytesToPubkey(b []byte) Pubkey {
	var p Pubkey
	if len(b) > len(p) {
		b = b[len(b)-PubkeyLength:]
	}
	copy(p[PubkeyLength-len(b):], b)
	return p
}

// PubkeyFromBase58 decodes a base58 account key.
func PubkeyFromBase58(s string) (Pubkey, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return Pubkey{}, fmt.Errorf("%w: %v", ErrInvalidPubkey, err)
	}
	if len(b) != PubkeyLength {
		return Pubkey{}, fmt.Errorf("%w: decoded %d bytes, want %d", ErrInvalidPubkey, len(b), PubkeyLength)
	}
	return BytesToPubkey(b), nil
}

// MustPubkeyFromBase58 is PubkeyFromBase58 but panics on malformed input.
func MustPubkeyFromBase58(s string) Pubkey {
	p, err := PubkeyFromBase58(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Pubkey) Bytes() []byte { return p[:] }

func (p Pubkey) IsZero() bool { return p == Pubkey{} }

func (p Pubkey) Equal(o Pubkey) bool { return bytes.Equal(p[:], o[:]) }

// String implements fmt.Stringer.
func (p Pubkey) String() string {
	return base58.Encode(p[:])
}

// MarshalText implements encoding.TextMarshaler.
func (p Pubkey) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Pubkey) UnmarshalText(input []byte) error {
	dec, err := PubkeyFromBase58(string(input))
	if err != nil {
		return err
	}
	*p = dec
	return nil
}
