package types

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrMissingSignature = errors.New("missing signature for required signer")
	ErrInvalidTxSig     = errors.New("invalid transaction signature")
	ErrNoInstructions   = errors.New("transaction has no instructions")
)

// Keypair is an ed25519 signing key for a ledger account.
type Keypair struct {
	ed25519.PrivateKey
}

// NewKeypair generates a random keypair.
func NewKeypair() (*Keypair, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &Keypair{PrivateKey: priv}, nil
}

// KeypairFromSeed rebuilds a keypair from its 32-byte seed.
func KeypairFromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("bad seed length %d", len(seed))
	}
	return &Keypair{PrivateKey: ed25519.NewKeyFromSeed(seed)}, nil
}

func (k *Keypair) Pubkey() Pubkey {
	return BytesToPubkey(k.PrivateKey.Public().(ed25519.PublicKey))
}

// Transaction is an ordered list of instructions executed atomically. The fee
// payer and every top-level signer meta must have signed the message.
type Transaction struct {
	FeePayer     Pubkey            `json:"feePayer"`
	Instructions []Instruction     `json:"instructions"`
	Signatures   map[Pubkey][]byte `json:"signatures"`
}

type txMessage struct {
	FeePayer     Pubkey
	Instructions []Instruction
}

// NewTransaction creates an unsigned transaction.
func NewTransaction(feePayer Pubkey, ixs ...Instruction) *Transaction {
	return &Transaction{
		FeePayer:     feePayer,
		Instructions: ixs,
		Signatures:   make(map[Pubkey][]byte),
	}
}

// MessageBytes returns the bytes covered by signatures.
func (tx *Transaction) MessageBytes() ([]byte, error) {
	return Encode(txMessage{FeePayer: tx.FeePayer, Instructions: tx.Instructions})
}

// Hash identifies the transaction.
func (tx *Transaction) Hash() common.Hash {
	msg, err := tx.MessageBytes()
	if err != nil {
		return common.Hash{}
	}
	return crypto.Keccak256Hash(msg)
}

// RequiredSigners returns the fee payer followed by every distinct key that a
// top-level instruction marks as signer.
func (tx *Transaction) RequiredSigners() []Pubkey {
	seen := map[Pubkey]struct{}{tx.FeePayer: {}}
	signers := []Pubkey{tx.FeePayer}
	for _, ix := range tx.Instructions {
		for _, meta := range ix.Accounts {
			if !meta.IsSigner {
				continue
			}
			if _, ok := seen[meta.Pubkey]; ok {
				continue
			}
			seen[meta.Pubkey] = struct{}{}
			signers = append(signers, meta.Pubkey)
		}
	}
	return signers
}

// Privileges merges the account metas of every top-level instruction. The
// fee payer is always a writable signer.
func (tx *Transaction) Privileges() (signers, writable mapset.Set[Pubkey]) {
	signers = mapset.NewThreadUnsafeSet(tx.FeePayer)
	writable = mapset.NewThreadUnsafeSet(tx.FeePayer)
	for _, ix := range tx.Instructions {
		for _, meta := range ix.Accounts {
			if meta.IsSigner {
				signers.Add(meta.Pubkey)
			}
			if meta.IsWritable {
				writable.Add(meta.Pubkey)
			}
		}
	}
	return signers, writable
}

// Sign adds a signature for every given keypair.
func (tx *Transaction) Sign(keys ...*Keypair) error {
	msg, err := tx.MessageBytes()
	if err != nil {
		return err
	}
	if tx.Signatures == nil {
		tx.Signatures = make(map[Pubkey][]byte)
	}
	for _, k := range keys {
		tx.Signatures[k.Pubkey()] = ed25519.Sign(k.PrivateKey, msg)
	}
	return nil
}

// VerifySignatures checks that every required signer produced a valid
// signature over the message.
func (tx *Transaction) VerifySignatures() error {
	if len(tx.Instructions) == 0 {
		return ErrNoInstructions
	}
	msg, err := tx.MessageBytes()
	if err != nil {
		return err
	}
	for _, signer := range tx.RequiredSigners() {
		sig, ok := tx.Signatures[signer]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingSignature, signer)
		}
		if !ed25519.Verify(ed25519.PublicKey(signer[:]), msg, sig) {
			return fmt.Errorf("%w: %s", ErrInvalidTxSig, signer)
		}
	}
	return nil
}
