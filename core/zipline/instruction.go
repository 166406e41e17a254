package zipline

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/SipengXie/zipline/core/types"
)

var (
	IdentitySeed  = []byte("identity")
	AuthoritySeed = []byte("authority")

	CreateIdentityDiscriminator      = types.Discriminator("global", "create_identity")
	AuthorizeAndExecuteDiscriminator = types.Discriminator("global", "authorize_and_execute")

	ErrUnknownInstruction = errors.New("unknown instruction")
)

// Byte positions inside authorize_and_execute instruction data. The
// secp256k1 offsets instruction must point exactly at these.
const (
	SignatureOffset  = types.DiscriminatorLength
	RecoveryIDOffset = SignatureOffset + types.SignatureLength
	EthAddressOffset = RecoveryIDOffset + 1
	prefixLenOffset  = EthAddressOffset + common.AddressLength
	MessageOffset    = prefixLenOffset + 4
)

// CreateIdentityArgs are the arguments of create_identity.
type CreateIdentityArgs struct {
	EthAddress common.Address
}

// AuthorizeArgs are the arguments of authorize_and_execute. Prefix and the
// encoded Message are contiguous in instruction data, which is what lets the
// precompile verify a signature over prefix || message in place.
type AuthorizeArgs struct {
	Signature  [types.SignatureLength]byte
	RecoveryID uint8
	EthAddress common.Address
	Prefix     string
	Message    types.Message
}

// EncodeCreateIdentity returns create_identity instruction data.
func EncodeCreateIdentity(args CreateIdentityArgs) ([]byte, error) {
	return encodeInstruction(CreateIdentityDiscriminator, args)
}

// EncodeAuthorize returns authorize_and_execute instruction data.
func EncodeAuthorize(args AuthorizeArgs) ([]byte, error) {
	return encodeInstruction(AuthorizeAndExecuteDiscriminator, args)
}

func encodeInstruction(disc [types.DiscriminatorLength]byte, args interface{}) ([]byte, error) {
	body, err := types.Encode(args)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(disc)+len(body))
	out = append(out, disc[:]...)
	return append(out, body...), nil
}

// decodeInstruction splits data into its discriminator and strictly decodes
// the arguments into the matching type.
func decodeInstruction(data []byte) (interface{}, error) {
	if len(data) < types.DiscriminatorLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrUnknownInstruction, len(data))
	}
	disc, body := data[:types.DiscriminatorLength], data[types.DiscriminatorLength:]
	switch {
	case bytes.Equal(disc, CreateIdentityDiscriminator[:]):
		args := new(CreateIdentityArgs)
		if err := types.Decode(args, body); err != nil {
			return nil, fmt.Errorf("create_identity: %w", err)
		}
		return args, nil
	case bytes.Equal(disc, AuthorizeAndExecuteDiscriminator[:]):
		args := new(AuthorizeArgs)
		if err := types.Decode(args, body); err != nil {
			return nil, fmt.Errorf("authorize_and_execute: %w", err)
		}
		return args, nil
	default:
		return nil, fmt.Errorf("%w: %x", ErrUnknownInstruction, disc)
	}
}
