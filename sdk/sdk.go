// Package sdk builds the instructions a client sends to the zipline program.
package sdk

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/SipengXie/zipline/core/ledger"
	"github.com/SipengXie/zipline/core/secp256k1"
	"github.com/SipengXie/zipline/core/types"
	"github.com/SipengXie/zipline/core/zipline"
)

var (
	ErrIdentityNotFound = errors.New("identity not found")
	ErrMessageTooLarge  = errors.New("authorize instruction exceeds the secp256k1 offset range")
	ErrIndexTooHigh     = errors.New("secp256k1 instruction index too high")
)

// AccountReader reads committed ledger accounts.
type AccountReader interface {
	Account(ctx context.Context, key types.Pubkey) (*ledger.Account, error)
}

// Client builds instructions for one deployment of the program.
type Client struct {
	ProgramID types.Pubkey
}

func New(programID types.Pubkey) *Client {
	return &Client{ProgramID: programID}
}

// FindIdentity returns the identity record address of eth.
func (c *Client) FindIdentity(eth common.Address) (types.Pubkey, error) {
	addr, _, err := zipline.FindIdentityAddress(eth, c.ProgramID)
	return addr, err
}

// FindAuthority returns the delegated authority of eth, the account that
// holds assets and signs the operations of authorized batches.
func (c *Client) FindAuthority(eth common.Address) (types.Pubkey, error) {
	addr, _, err := zipline.FindAuthorityAddress(eth, c.ProgramID)
	return addr, err
}

// CreateIdentity returns the instruction creating the identity of eth, paid
// for by payer.
func (c *Client) CreateIdentity(payer types.Pubkey, eth common.Address) (types.Instruction, error) {
	identity, err := c.FindIdentity(eth)
	if err != nil {
		return types.Instruction{}, err
	}
	authority, err := c.FindAuthority(eth)
	if err != nil {
		return types.Instruction{}, err
	}
	data, err := zipline.EncodeCreateIdentity(zipline.CreateIdentityArgs{EthAddress: eth})
	if err != nil {
		return types.Instruction{}, err
	}
	return types.Instruction{
		ProgramID: c.ProgramID,
		Accounts: []types.AccountMeta{
			types.NewAccountMeta(payer, true, true),
			types.Writable(identity),
			types.Readonly(authority),
			types.Readonly(types.SystemProgramID),
		},
		Data: data,
	}, nil
}

// Authorize signs msg with signer and returns the two instructions that
// must be placed at positions index and index+1 of a transaction: the
// secp256k1 verification followed by authorize_and_execute.
func (c *Client) Authorize(signer *types.EthSigner, msg *types.Message, index uint8) ([]types.Instruction, error) {
	batch, err := types.EncodeMessage(msg)
	if err != nil {
		return nil, err
	}
	sig, _, err := signer.SignPersonal(batch)
	if err != nil {
		return nil, err
	}
	return c.AuthorizeSigned(signer.Address(), sig, msg, index)
}

// AuthorizeSigned is Authorize for a signature produced elsewhere, usually a
// wallet's personal_sign over the encoded batch.
func (c *Client) AuthorizeSigned(eth common.Address, sig types.EthSignature, msg *types.Message, index uint8) ([]types.Instruction, error) {
	if index == 255 {
		return nil, fmt.Errorf("%w: %d", ErrIndexTooHigh, index)
	}
	identity, err := c.FindIdentity(eth)
	if err != nil {
		return nil, err
	}
	authority, err := c.FindAuthority(eth)
	if err != nil {
		return nil, err
	}
	batch, err := types.EncodeMessage(msg)
	if err != nil {
		return nil, err
	}
	data, err := zipline.EncodeAuthorize(zipline.AuthorizeArgs{
		Signature:  sig.Signature,
		RecoveryID: sig.RecoveryID,
		EthAddress: eth,
		Prefix:     types.PersonalPrefix(len(batch)),
		Message:    *msg,
	})
	if err != nil {
		return nil, err
	}
	size := len(data) - zipline.MessageOffset
	if size > 0xffff {
		return nil, fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, size)
	}

	accounts := []types.AccountMeta{
		types.Writable(identity),
		types.Readonly(authority),
		types.Readonly(types.InstructionsSysvarID),
	}
	accounts = append(accounts, RemainingAccounts(msg, authority)...)

	target := index + 1
	verify := secp256k1.NewOffsetsInstruction(secp256k1.SignatureOffsets{
		SignatureOffset:            zipline.SignatureOffset,
		SignatureInstructionIndex:  target,
		EthAddressOffset:           zipline.EthAddressOffset,
		EthAddressInstructionIndex: target,
		MessageDataOffset:          zipline.MessageOffset,
		MessageDataSize:            uint16(size),
		MessageInstructionIndex:    target,
	})
	return []types.Instruction{
		verify,
		{ProgramID: c.ProgramID, Accounts: accounts, Data: data},
	}, nil
}

// RemainingAccounts lists the accounts of every operation in order, which is
// how the program hands them out on replay. The authority cannot sign the
// transaction, the program signs for it.
func RemainingAccounts(msg *types.Message, authority types.Pubkey) []types.AccountMeta {
	out := make([]types.AccountMeta, 0, msg.AccountCount())
	for _, op := range msg.Operations {
		for _, meta := range op.Accounts {
			if meta.Pubkey == authority {
				meta.IsSigner = false
			}
			out = append(out, meta)
		}
	}
	return out
}

// Identity reads the identity record of eth.
func (c *Client) Identity(ctx context.Context, reader AccountReader, eth common.Address) (*types.Identity, error) {
	key, err := c.FindIdentity(eth)
	if err != nil {
		return nil, err
	}
	acc, err := reader.Account(ctx, key)
	if err != nil {
		return nil, err
	}
	if acc.Owner != c.ProgramID || len(acc.Data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrIdentityNotFound, eth.Hex())
	}
	return types.DecodeIdentity(acc.Data)
}

// NextSequence returns the smallest sequence the identity of eth accepts.
func (c *Client) NextSequence(ctx context.Context, reader AccountReader, eth common.Address) (uint64, error) {
	id, err := c.Identity(ctx, reader, eth)
	if err != nil {
		return 0, err
	}
	return id.SequenceCounter + 1, nil
}
