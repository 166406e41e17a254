package ledger

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/SipengXie/zipline/core/types"
)

// System program instruction tags.
const (
	SystemCreateAccount uint32 = 0
	SystemAssign        uint32 = 1
	SystemTransfer      uint32 = 2
	SystemAllocate      uint32 = 8
)

var (
	ErrAccountAlreadyInUse       = errors.New("account already in use")
	ErrFromMustNotCarryData      = errors.New("from account must not carry data")
	ErrMissingRequiredSignature  = errors.New("missing required signature")
	ErrInvalidSystemInstruction  = errors.New("invalid system instruction")
	ErrNotEnoughAccountsInSystem = errors.New("not enough account keys for system instruction")
)

type createAccountArgs struct {
	Lamports uint64
	Space    uint64
	Owner    types.Pubkey
}

type transferArgs struct {
	Lamports uint64
}

type assignArgs struct {
	Owner types.Pubkey
}

type allocateArgs struct {
	Space uint64
}

func encodeSystem(tag uint32, args interface{}) []byte {
	body, err := types.Encode(args)
	if err != nil {
		// fixed-size structs always encode
		panic(err)
	}
	out := binary.LittleEndian.AppendUint32(make([]byte, 0, 4+len(body)), tag)
	return append(out, body...)
}

// CreateAccountInstruction funds, allocates and assigns a new account. Both
// from and to must sign; to is typically signed for with seeds.
func CreateAccountInstruction(from, to types.Pubkey, lamports, space uint64, owner types.Pubkey) types.Instruction {
	return types.Instruction{
		ProgramID: types.SystemProgramID,
		Accounts: []types.AccountMeta{
			types.NewAccountMeta(from, true, true),
			types.NewAccountMeta(to, true, true),
		},
		Data: encodeSystem(SystemCreateAccount, createAccountArgs{Lamports: lamports, Space: space, Owner: owner}),
	}
}

// TransferInstruction moves lamports between system accounts.
func TransferInstruction(from, to types.Pubkey, lamports uint64) types.Instruction {
	return types.Instruction{
		ProgramID: types.SystemProgramID,
		Accounts: []types.AccountMeta{
			types.NewAccountMeta(from, true, true),
			types.NewAccountMeta(to, false, true),
		},
		Data: encodeSystem(SystemTransfer, transferArgs{Lamports: lamports}),
	}
}

// AssignInstruction hands a system account to owner. account must sign.
func AssignInstruction(account, owner types.Pubkey) types.Instruction {
	return types.Instruction{
		ProgramID: types.SystemProgramID,
		Accounts:  []types.AccountMeta{types.NewAccountMeta(account, true, true)},
		Data:      encodeSystem(SystemAssign, assignArgs{Owner: owner}),
	}
}

// AllocateInstruction gives a system account space zeroed bytes of data.
// account must sign.
func AllocateInstruction(account types.Pubkey, space uint64) types.Instruction {
	return types.Instruction{
		ProgramID: types.SystemProgramID,
		Accounts:  []types.AccountMeta{types.NewAccountMeta(account, true, true)},
		Data:      encodeSystem(SystemAllocate, allocateArgs{Space: space}),
	}
}

// SystemProgram creates accounts and moves lamports.
type SystemProgram struct{}

func (SystemProgram) Process(ctx *InvokeContext, data []byte) error {
	if len(data) < 4 {
		return ErrInvalidSystemInstruction
	}
	accounts := ctx.Accounts()
	switch tag := binary.LittleEndian.Uint32(data[:4]); tag {
	case SystemCreateAccount:
		var args createAccountArgs
		if err := types.Decode(&args, data[4:]); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSystemInstruction, err)
		}
		if len(accounts) < 2 {
			return ErrNotEnoughAccountsInSystem
		}
		return createAccount(ctx, accounts[0], accounts[1], args)
	case SystemTransfer:
		var args transferArgs
		if err := types.Decode(&args, data[4:]); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSystemInstruction, err)
		}
		if len(accounts) < 2 {
			return ErrNotEnoughAccountsInSystem
		}
		return transfer(ctx, accounts[0], accounts[1], args.Lamports)
	case SystemAssign:
		var args assignArgs
		if err := types.Decode(&args, data[4:]); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSystemInstruction, err)
		}
		if len(accounts) < 1 {
			return ErrNotEnoughAccountsInSystem
		}
		if !accounts[0].IsSigner {
			return fmt.Errorf("%w: %s", ErrMissingRequiredSignature, accounts[0].Key)
		}
		return accounts[0].Assign(args.Owner)
	case SystemAllocate:
		var args allocateArgs
		if err := types.Decode(&args, data[4:]); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSystemInstruction, err)
		}
		if len(accounts) < 1 {
			return ErrNotEnoughAccountsInSystem
		}
		if !accounts[0].IsSigner {
			return fmt.Errorf("%w: %s", ErrMissingRequiredSignature, accounts[0].Key)
		}
		return accounts[0].Allocate(args.Space)
	default:
		return fmt.Errorf("%w: tag %d", ErrInvalidSystemInstruction, tag)
	}
}

func createAccount(ctx *InvokeContext, from, to *AccountInfo, args createAccountArgs) error {
	if !to.IsSigner {
		return fmt.Errorf("%w: %s", ErrMissingRequiredSignature, to.Key)
	}
	acc, err := to.account()
	if err != nil {
		return err
	}
	if acc.InUse() {
		return fmt.Errorf("%w: %s", ErrAccountAlreadyInUse, to.Key)
	}
	if err := transfer(ctx, from, to, args.Lamports); err != nil {
		return err
	}
	if err := to.Allocate(args.Space); err != nil {
		return err
	}
	ctx.Log("create account %s space %d owner %s", to.Key, args.Space, args.Owner)
	return to.Assign(args.Owner)
}

func transfer(ctx *InvokeContext, from, to *AccountInfo, lamports uint64) error {
	if !from.IsSigner {
		return fmt.Errorf("%w: %s", ErrMissingRequiredSignature, from.Key)
	}
	data, err := from.Data()
	if err != nil {
		return err
	}
	if len(data) > 0 {
		return fmt.Errorf("%w: %s", ErrFromMustNotCarryData, from.Key)
	}
	if err := from.Debit(lamports); err != nil {
		return err
	}
	return to.Credit(lamports)
}
