package types

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"reflect"

	"github.com/near/borsh-go"
)

// DiscriminatorLength is the size of the tag prefixed to instruction and
// account data.
const DiscriminatorLength = 8

var (
	ErrMalformedEncoding = errors.New("malformed encoding")
	ErrNonCanonical      = errors.New("non-canonical encoding")
)

// Discriminator tags data of kind name within namespace ("global" for
// instructions, "account" for account layouts).
func Discriminator(namespace, name string) [DiscriminatorLength]byte {
	var d [DiscriminatorLength]byte
	sum := sha256.Sum256([]byte(namespace + ":" + name))
	copy(d[:], sum[:DiscriminatorLength])
	return d
}

// Encode serializes v with the borsh layout: little-endian integers, u32
// length prefixes for strings and slices, fixed arrays inline, fields in
// declaration order. v must be passed by value.
func Encode(v interface{}) ([]byte, error) {
	out, err := borsh.Serialize(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEncoding, err)
	}
	return out, nil
}

// Decode parses data into ptr and insists on a byte-exact round trip, so
// trailing bytes and alternative spellings of the same value are rejected.
func Decode(ptr interface{}, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrMalformedEncoding, r)
		}
	}()
	if err := borsh.Deserialize(ptr, data); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEncoding, err)
	}
	again, err := borsh.Serialize(reflect.ValueOf(ptr).Elem().Interface())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEncoding, err)
	}
	if !bytes.Equal(again, data) {
		return fmt.Errorf("%w: %w: decoded %d of %d bytes", ErrMalformedEncoding, ErrNonCanonical, len(again), len(data))
	}
	return nil
}

// EncodeMessage returns the canonical bytes of a batch. These are the bytes
// the identity's key holder signs.
func EncodeMessage(m *Message) ([]byte, error) {
	return Encode(*m)
}

// DecodeMessage parses canonical batch bytes.
func DecodeMessage(data []byte) (*Message, error) {
	m := new(Message)
	if err := Decode(m, data); err != nil {
		return nil, err
	}
	return m, nil
}
