package secp256k1

import (
	"bytes"
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/SipengXie/zipline/core/types"
)

var (
	ErrInvalidInstructionDataSize = errors.New("invalid secp256k1 instruction data size")
	ErrInvalidInstructionIndex    = errors.New("secp256k1 offsets reference a missing instruction")
	ErrInvalidSignature           = errors.New("secp256k1 signature verification failed")
)

// Verify runs the precompile over data, the secp256k1 instruction, with
// instructionDatas holding the data of every instruction in the transaction.
// Each record's signature must recover to the address it points at, over
// keccak256 of the message it points at.
func Verify(data []byte, instructionDatas [][]byte) error {
	if len(data) == 0 {
		return ErrInvalidInstructionDataSize
	}
	if data[0] == 0 && len(data) > 1 {
		return ErrInvalidInstructionDataSize
	}
	it, err := IterSignatureOffsets(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInstructionDataSize, err)
	}
	for i := 0; ; i++ {
		offsets, ok := it.Next()
		if !ok {
			return nil
		}
		if err := verifyOne(offsets, instructionDatas); err != nil {
			return fmt.Errorf("signature %d: %w", i, err)
		}
	}
}

func verifyOne(o SignatureOffsets, instructionDatas [][]byte) error {
	sigBytes, err := span(instructionDatas, o.SignatureInstructionIndex, o.SignatureOffset, SignatureSerializedSize+1)
	if err != nil {
		return err
	}
	ethAddress, err := span(instructionDatas, o.EthAddressInstructionIndex, o.EthAddressOffset, HashedPubkeySerializedSize)
	if err != nil {
		return err
	}
	message, err := span(instructionDatas, o.MessageInstructionIndex, o.MessageDataOffset, int(o.MessageDataSize))
	if err != nil {
		return err
	}

	var sig types.EthSignature
	copy(sig.Signature[:], sigBytes[:SignatureSerializedSize])
	sig.RecoveryID = sigBytes[SignatureSerializedSize]

	recovered, err := types.RecoverPlain(crypto.Keccak256(message), sig)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if !bytes.Equal(recovered[:], ethAddress) {
		return fmt.Errorf("%w: recovered %s", ErrInvalidSignature, recovered.Hex())
	}
	return nil
}

func span(instructionDatas [][]byte, index uint8, offset uint16, size int) ([]byte, error) {
	if int(index) >= len(instructionDatas) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidInstructionIndex, index)
	}
	data := instructionDatas[index]
	start := int(offset)
	if start+size > len(data) {
		return nil, fmt.Errorf("%w: [%d, %d) outside instruction %d of %d bytes", ErrInvalidSignature, start, start+size, index, len(data))
	}
	return data[start : start+size], nil
}

// NewOffsetsInstruction builds a secp256k1 instruction that carries only the
// offset table; the signature, address and message live in other
// instructions of the same transaction.
func NewOffsetsInstruction(offsets ...SignatureOffsets) types.Instruction {
	return types.Instruction{
		ProgramID: types.Secp256k1ProgramID,
		Data:      EncodeOffsetTable(offsets...),
	}
}

// NewInstruction builds a self-contained secp256k1 instruction signing
// keccak256(message) with key. ixIndex is the position the instruction will
// take in its transaction.
func NewInstruction(key *ecdsa.PrivateKey, message []byte, ixIndex uint8) (types.Instruction, error) {
	sig, err := crypto.Sign(crypto.Keccak256(message), key)
	if err != nil {
		return types.Instruction{}, err
	}
	ethAddress := crypto.PubkeyToAddress(key.PublicKey)

	ethAddressOffset := DataStart
	signatureOffset := ethAddressOffset + HashedPubkeySerializedSize
	messageDataOffset := signatureOffset + SignatureSerializedSize + 1

	offsets := SignatureOffsets{
		SignatureOffset:            uint16(signatureOffset),
		SignatureInstructionIndex:  ixIndex,
		EthAddressOffset:           uint16(ethAddressOffset),
		EthAddressInstructionIndex: ixIndex,
		MessageDataOffset:          uint16(messageDataOffset),
		MessageDataSize:            uint16(len(message)),
		MessageInstructionIndex:    ixIndex,
	}
	data := EncodeOffsetTable(offsets)
	data = append(data, ethAddress[:]...)
	data = append(data, sig...)
	data = append(data, message...)
	return types.Instruction{ProgramID: types.Secp256k1ProgramID, Data: data}, nil
}
