// Package zipline is the ledger program that lets the holder of a secp256k1
// key authorize batches of instructions executed by a delegated authority
// account.
package zipline

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ledgerwatch/log/v3"

	"github.com/SipengXie/zipline/core/ledger"
	"github.com/SipengXie/zipline/core/types"
)

// ProgramID is the default address the program is deployed under.
var ProgramID = types.MustPubkeyFromBase58("348BA1isLeaRYH5XYKuats1hwJ5yQLm9mRmdyhFT9Xoo")

var (
	ErrInvalidSequence        = errors.New("sequence does not exceed the identity counter")
	ErrInvalidAddress         = errors.New("eth address does not match the identity")
	ErrIdentityExists         = errors.New("identity already exists")
	ErrInvalidIdentityAccount = errors.New("invalid identity account")
	ErrInvalidAuthority       = errors.New("authority account does not match the identity")
	ErrInvalidSystemProgram   = errors.New("system program account expected")
	ErrNotEnoughAccountKeys   = errors.New("not enough account keys")
	ErrInvalidSysvar          = ledger.ErrInvalidSysvar
	errIdentityNotDerivable   = errors.New("no identity address for eth address")
	errAuthorityNotDerivable  = errors.New("no authority address for eth address")
)

// IdentitySeeds are the seeds of the identity record of eth.
func IdentitySeeds(eth common.Address) [][]byte {
	return [][]byte{IdentitySeed, eth.Bytes()}
}

// AuthoritySeeds are the signer seeds of the authority of eth.
func AuthoritySeeds(eth common.Address, bump uint8) [][]byte {
	return [][]byte{AuthoritySeed, eth.Bytes(), {bump}}
}

// FindIdentityAddress returns the identity record address of eth under
// programID and its bump.
func FindIdentityAddress(eth common.Address, programID types.Pubkey) (types.Pubkey, uint8, error) {
	addr, bump, err := types.FindProgramAddress(IdentitySeeds(eth), programID)
	if err != nil {
		return types.Pubkey{}, 0, fmt.Errorf("%w %s: %v", errIdentityNotDerivable, eth.Hex(), err)
	}
	return addr, bump, nil
}

// FindAuthorityAddress returns the delegated authority of eth under
// programID and its bump.
func FindAuthorityAddress(eth common.Address, programID types.Pubkey) (types.Pubkey, uint8, error) {
	addr, bump, err := types.FindProgramAddress([][]byte{AuthoritySeed, eth.Bytes()}, programID)
	if err != nil {
		return types.Pubkey{}, 0, fmt.Errorf("%w %s: %v", errAuthorityNotDerivable, eth.Hex(), err)
	}
	return addr, bump, nil
}

// Program implements ledger.Program.
type Program struct {
	id     types.Pubkey
	logger log.Logger
}

// New returns the program for deployment under id.
func New(id types.Pubkey, logger log.Logger) *Program {
	if logger == nil {
		logger = log.Root()
	}
	return &Program{id: id, logger: logger.New("program", id)}
}

func (p *Program) ID() types.Pubkey { return p.id }

func (p *Program) Process(ctx *ledger.InvokeContext, data []byte) error {
	args, err := decodeInstruction(data)
	if err != nil {
		return err
	}
	switch args := args.(type) {
	case *CreateIdentityArgs:
		return p.createIdentity(ctx, args)
	case *AuthorizeArgs:
		return p.authorizeAndExecute(ctx, args)
	default:
		return ErrUnknownInstruction
	}
}

// createIdentity expects [payer, identity, authority, system program].
func (p *Program) createIdentity(ctx *ledger.InvokeContext, args *CreateIdentityArgs) error {
	accounts := ctx.Accounts()
	if len(accounts) < 4 {
		return fmt.Errorf("%w: create_identity needs 4, got %d", ErrNotEnoughAccountKeys, len(accounts))
	}
	payer, identity, authority, system := accounts[0], accounts[1], accounts[2], accounts[3]

	identityKey, identityBump, err := FindIdentityAddress(args.EthAddress, p.id)
	if err != nil {
		return err
	}
	if identity.Key != identityKey {
		return fmt.Errorf("%w: got %s, want %s", ErrInvalidIdentityAccount, identity.Key, identityKey)
	}
	authorityKey, authorityBump, err := FindAuthorityAddress(args.EthAddress, p.id)
	if err != nil {
		return err
	}
	if authority.Key != authorityKey {
		return fmt.Errorf("%w: got %s, want %s", ErrInvalidAuthority, authority.Key, authorityKey)
	}
	if system.Key != types.SystemProgramID {
		return fmt.Errorf("%w: got %s", ErrInvalidSystemProgram, system.Key)
	}
	owner, err := identity.Owner()
	if err != nil {
		return err
	}
	if owner == p.id {
		return fmt.Errorf("%w: %s", ErrIdentityExists, args.EthAddress.Hex())
	}

	seeds := append(IdentitySeeds(args.EthAddress), []byte{identityBump})
	if err := p.initIdentityAccount(ctx, payer, identity, owner, seeds); err != nil {
		return err
	}

	record := &types.Identity{AuthorityBump: authorityBump, EthAddress: args.EthAddress}
	enc, err := record.EncodeAccountData()
	if err != nil {
		return err
	}
	if err := identity.SetData(enc); err != nil {
		return err
	}
	ctx.Log("created identity %s for %s", identity.Key, args.EthAddress.Hex())
	p.logger.Debug("Identity created", "eth", args.EthAddress, "identity", identity.Key, "authority", authority.Key)
	return nil
}

// initIdentityAccount funds, allocates and assigns the identity account. The
// address is public, so lamports may have been sent to it already; such an
// account is topped up to the rent-exempt minimum instead of created.
func (p *Program) initIdentityAccount(ctx *ledger.InvokeContext, payer, identity *ledger.AccountInfo, owner types.Pubkey, seeds [][]byte) error {
	required := ledger.MinimumBalance(types.IdentitySize)
	lamports, err := identity.Lamports()
	if err != nil {
		return err
	}
	data, err := identity.Data()
	if err != nil {
		return err
	}
	signer := [][][]byte{seeds}
	if lamports == 0 || owner != types.SystemProgramID || len(data) > 0 {
		create := ledger.CreateAccountInstruction(payer.Key, identity.Key, required, types.IdentitySize, p.id)
		return ctx.Invoke(create, []*ledger.AccountInfo{payer, identity}, signer)
	}

	if lamports < required {
		topUp := ledger.TransferInstruction(payer.Key, identity.Key, required-lamports)
		if err := ctx.Invoke(topUp, []*ledger.AccountInfo{payer, identity}, nil); err != nil {
			return err
		}
	}
	infos := []*ledger.AccountInfo{identity}
	if err := ctx.Invoke(ledger.AllocateInstruction(identity.Key, types.IdentitySize), infos, signer); err != nil {
		return err
	}
	return ctx.Invoke(ledger.AssignInstruction(identity.Key, p.id), infos, signer)
}

// authorizeAndExecute expects [identity, authority, instructions sysvar,
// remaining...], where the remaining accounts are handed out to the batch's
// operations in order.
func (p *Program) authorizeAndExecute(ctx *ledger.InvokeContext, args *AuthorizeArgs) error {
	accounts := ctx.Accounts()
	if len(accounts) < 3 {
		return fmt.Errorf("%w: authorize_and_execute needs 3, got %d", ErrNotEnoughAccountKeys, len(accounts))
	}
	identityInfo, authority, sysvarInfo := accounts[0], accounts[1], accounts[2]
	remaining := accounts[3:]

	identity, err := p.loadIdentity(identityInfo)
	if err != nil {
		return err
	}
	authorityKey, err := types.CreateProgramAddress(AuthoritySeeds(identity.EthAddress, identity.AuthorityBump), p.id)
	if err != nil || authority.Key != authorityKey {
		return fmt.Errorf("%w: %s", ErrInvalidAuthority, authority.Key)
	}
	sysvar, err := ctx.LoadInstructions(sysvarInfo)
	if err != nil {
		return err
	}

	if args.Message.Sequence <= identity.SequenceCounter {
		return fmt.Errorf("%w: %d <= %d", ErrInvalidSequence, args.Message.Sequence, identity.SequenceCounter)
	}
	// the counter moves by one, not to the submitted sequence
	identity.SequenceCounter++
	if args.EthAddress != identity.EthAddress {
		return fmt.Errorf("%w: got %s, want %s", ErrInvalidAddress, args.EthAddress.Hex(), identity.EthAddress.Hex())
	}
	if ctx.Depth() > 0 {
		return fmt.Errorf("%w: invoked at depth %d", ErrNotTopLevelCall, ctx.Depth())
	}
	if err := VerifyBinding(sysvar, p.id); err != nil {
		return err
	}

	enc, err := identity.EncodeAccountData()
	if err != nil {
		return err
	}
	if err := identityInfo.SetData(enc); err != nil {
		return err
	}

	seeds := [][][]byte{AuthoritySeeds(identity.EthAddress, identity.AuthorityBump)}
	for i, op := range args.Message.Operations {
		n := len(op.Accounts)
		if n > len(remaining) {
			return fmt.Errorf("%w: operation %d needs %d, %d left", ErrNotEnoughAccountKeys, i, n, len(remaining))
		}
		infos := remaining[:n]
		remaining = remaining[n:]
		if err := ctx.Invoke(op.Instruction(), infos, seeds); err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
	}
	ctx.Log("executed %d operations for %s at sequence %d", len(args.Message.Operations), identity.EthAddress.Hex(), args.Message.Sequence)
	p.logger.Debug("Batch executed", "eth", identity.EthAddress, "sequence", args.Message.Sequence, "counter", identity.SequenceCounter, "operations", len(args.Message.Operations))
	return nil
}

func (p *Program) loadIdentity(info *ledger.AccountInfo) (*types.Identity, error) {
	owner, err := info.Owner()
	if err != nil {
		return nil, err
	}
	if owner != p.id {
		return nil, fmt.Errorf("%w: %s owned by %s", ErrInvalidIdentityAccount, info.Key, owner)
	}
	data, err := info.Data()
	if err != nil {
		return nil, err
	}
	identity, err := types.DecodeIdentity(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIdentityAccount, err)
	}
	return identity, nil
}
