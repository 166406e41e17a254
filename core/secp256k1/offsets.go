// Package secp256k1 holds the instruction layout of the native secp256k1
// signature-verification program and the host-side verification it performs.
package secp256k1

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	HashedPubkeySerializedSize     = 20
	SignatureSerializedSize        = 64
	SignatureOffsetsSerializedSize = 11

	// DataStart is where inline payloads begin after a single offsets record.
	DataStart = 1 + SignatureOffsetsSerializedSize
)

var ErrMalformedOffsetTable = errors.New("malformed signature offset table")

// SignatureOffsets says where one signature, the Ethereum address it must
// recover to, and the signed message live in the transaction's instructions.
type SignatureOffsets struct {
	SignatureOffset            uint16 `json:"signatureOffset"`
	SignatureInstructionIndex  uint8  `json:"signatureInstructionIndex"`
	EthAddressOffset           uint16 `json:"ethAddressOffset"`
	EthAddressInstructionIndex uint8  `json:"ethAddressInstructionIndex"`
	MessageDataOffset          uint16 `json:"messageDataOffset"`
	MessageDataSize            uint16 `json:"messageDataSize"`
	MessageInstructionIndex    uint8  `json:"messageInstructionIndex"`
}

// Encode returns the 11-byte wire form of the record.
func (o SignatureOffsets) Encode() []byte {
	return o.appendTo(make([]byte, 0, SignatureOffsetsSerializedSize))
}

func (o SignatureOffsets) appendTo(b []byte) []byte {
	b = binary.LittleEndian.AppendUint16(b, o.SignatureOffset)
	b = append(b, o.SignatureInstructionIndex)
	b = binary.LittleEndian.AppendUint16(b, o.EthAddressOffset)
	b = append(b, o.EthAddressInstructionIndex)
	b = binary.LittleEndian.AppendUint16(b, o.MessageDataOffset)
	b = binary.LittleEndian.AppendUint16(b, o.MessageDataSize)
	return append(b, o.MessageInstructionIndex)
}

func decodeOffsets(chunk []byte) SignatureOffsets {
	return SignatureOffsets{
		SignatureOffset:            binary.LittleEndian.Uint16(chunk[0:2]),
		SignatureInstructionIndex:  chunk[2],
		EthAddressOffset:           binary.LittleEndian.Uint16(chunk[3:5]),
		EthAddressInstructionIndex: chunk[5],
		MessageDataOffset:          binary.LittleEndian.Uint16(chunk[6:8]),
		MessageDataSize:            binary.LittleEndian.Uint16(chunk[8:10]),
		MessageInstructionIndex:    chunk[10],
	}
}

// EncodeOffsetTable returns count || records.
func EncodeOffsetTable(offsets ...SignatureOffsets) []byte {
	out := make([]byte, 0, 1+len(offsets)*SignatureOffsetsSerializedSize)
	out = append(out, byte(len(offsets)))
	for _, o := range offsets {
		out = o.appendTo(out)
	}
	return out
}

// OffsetsIterator yields the records of an offset table one at a time.
type OffsetsIterator struct {
	table []byte
	next  int
}

// IterSignatureOffsets validates that the declared record count fits in data
// and returns an iterator over the records. Nothing beyond the size is checked.
func IterSignatureOffsets(data []byte) (*OffsetsIterator, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty instruction data", ErrMalformedOffsetTable)
	}
	count := int(data[0])
	end := 1 + count*SignatureOffsetsSerializedSize
	if end > len(data) {
		return nil, fmt.Errorf("%w: %d records need %d bytes, have %d", ErrMalformedOffsetTable, count, end, len(data))
	}
	return &OffsetsIterator{table: data[1:end]}, nil
}

// Len returns the number of records not yet consumed.
func (it *OffsetsIterator) Len() int {
	return (len(it.table) - it.next) / SignatureOffsetsSerializedSize
}

// Next returns the next record, or false when the table is exhausted.
func (it *OffsetsIterator) Next() (SignatureOffsets, bool) {
	if it.next+SignatureOffsetsSerializedSize > len(it.table) {
		return SignatureOffsets{}, false
	}
	o := decodeOffsets(it.table[it.next : it.next+SignatureOffsetsSerializedSize])
	it.next += SignatureOffsetsSerializedSize
	return o, true
}
