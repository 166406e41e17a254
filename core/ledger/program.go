package ledger

import (
	"errors"
	"fmt"
	"math"

	"github.com/SipengXie/zipline/core/types"
)

var (
	ErrReadonlyAccount             = errors.New("instruction modified a read-only account")
	ErrExternalAccountDataModified = errors.New("instruction modified data of an account it does not own")
	ErrExternalAccountLamportSpend = errors.New("instruction spent from the balance of an account it does not own")
	ErrInsufficientFunds           = errors.New("insufficient funds")
	ErrLamportOverflow             = errors.New("lamport balance overflow")
	ErrAccountNotEmpty             = errors.New("account data already allocated")
)

// Program is native code the ledger dispatches instructions to.
type Program interface {
	Process(ctx *InvokeContext, data []byte) error
}

// ProgramFunc adapts a function to the Program interface.
type ProgramFunc func(ctx *InvokeContext, data []byte) error

func (f ProgramFunc) Process(ctx *InvokeContext, data []byte) error { return f(ctx, data) }

// AccountInfo is an account as seen by one invocation, with the privileges
// that invocation holds over it.
type AccountInfo struct {
	Key        types.Pubkey
	IsSigner   bool
	IsWritable bool

	ctx *InvokeContext
}

// Meta returns the reference that reproduces this account's privileges in a
// nested instruction.
func (a *AccountInfo) Meta() types.AccountMeta {
	return types.NewAccountMeta(a.Key, a.IsSigner, a.IsWritable)
}

func (a *AccountInfo) account() (*Account, error) {
	return a.ctx.exec.state.GetAccount(a.Key)
}

func (a *AccountInfo) Lamports() (uint64, error) {
	acc, err := a.account()
	if err != nil {
		return 0, err
	}
	return acc.Lamports, nil
}

func (a *AccountInfo) Owner() (types.Pubkey, error) {
	acc, err := a.account()
	if err != nil {
		return types.Pubkey{}, err
	}
	return acc.Owner, nil
}

// Data returns a copy of the account data.
func (a *AccountInfo) Data() ([]byte, error) {
	acc, err := a.account()
	if err != nil {
		return nil, err
	}
	return acc.Data, nil
}

// modify loads the account, lets fn change it and stores the result.
func (a *AccountInfo) modify(fn func(acc *Account) error) error {
	if !a.IsWritable {
		return fmt.Errorf("%w: %s", ErrReadonlyAccount, a.Key)
	}
	acc, err := a.account()
	if err != nil {
		return err
	}
	if err := fn(acc); err != nil {
		return err
	}
	return a.ctx.exec.state.SetAccount(a.Key, acc)
}

// SetData replaces the account data. Only the owning program may do this.
func (a *AccountInfo) SetData(data []byte) error {
	return a.modify(func(acc *Account) error {
		if acc.Owner != a.ctx.programID {
			return fmt.Errorf("%w: %s owned by %s", ErrExternalAccountDataModified, a.Key, acc.Owner)
		}
		if len(data) != len(acc.Data) {
			return fmt.Errorf("%w: %s has %d bytes allocated, got %d", ErrExternalAccountDataModified, a.Key, len(acc.Data), len(data))
		}
		acc.Data = append(acc.Data[:0], data...)
		return nil
	})
}

// Debit moves lamports out of the account. Only the owning program may do this.
func (a *AccountInfo) Debit(lamports uint64) error {
	return a.modify(func(acc *Account) error {
		if acc.Owner != a.ctx.programID {
			return fmt.Errorf("%w: %s owned by %s", ErrExternalAccountLamportSpend, a.Key, acc.Owner)
		}
		if acc.Lamports < lamports {
			return fmt.Errorf("%w: %s has %d, need %d", ErrInsufficientFunds, a.Key, acc.Lamports, lamports)
		}
		acc.Lamports -= lamports
		return nil
	})
}

// Credit moves lamports into the account.
func (a *AccountInfo) Credit(lamports uint64) error {
	return a.modify(func(acc *Account) error {
		if acc.Lamports > math.MaxUint64-lamports {
			return fmt.Errorf("%w: %s", ErrLamportOverflow, a.Key)
		}
		acc.Lamports += lamports
		return nil
	})
}

// Allocate sizes the data of an empty account owned by the caller.
func (a *AccountInfo) Allocate(space uint64) error {
	return a.modify(func(acc *Account) error {
		if acc.Owner != a.ctx.programID {
			return fmt.Errorf("%w: %s owned by %s", ErrExternalAccountDataModified, a.Key, acc.Owner)
		}
		if len(acc.Data) > 0 {
			return fmt.Errorf("%w: %s", ErrAccountNotEmpty, a.Key)
		}
		acc.Data = make([]byte, space)
		return nil
	})
}

// Assign hands the account to a new owner. Only the current owner may do this.
func (a *AccountInfo) Assign(owner types.Pubkey) error {
	return a.modify(func(acc *Account) error {
		if acc.Owner != a.ctx.programID {
			return fmt.Errorf("%w: %s owned by %s", ErrExternalAccountDataModified, a.Key, acc.Owner)
		}
		acc.Owner = owner
		return nil
	})
}
