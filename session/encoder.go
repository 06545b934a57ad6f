package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// Encoding selects the record blob layout used by a store.
type Encoding uint8

const (
	// EncodingBinary is the length-prefixed layout, written by default.
	EncodingBinary Encoding = iota
	// EncodingCBOR stores the record as a CBOR map. Decoding accepts both
	// layouts regardless of the configured writer.
	EncodingCBOR
)

const (
	recordFormatBinaryV1 = 0x01
	recordFormatCBORV1   = 0x02
)

// ErrBadRecordEncoding is returned for record blobs that cannot be decoded.
var ErrBadRecordEncoding = errors.New("malformed session record encoding")

type recordBlob struct {
	ID         []byte   `cbor:"1,keyasint"`
	Persistent bool     `cbor:"2,keyasint"`
	Principal  string   `cbor:"3,keyasint"`
	Roles      []string `cbor:"4,keyasint"`
	ClientHost string   `cbor:"5,keyasint"`
	ExpireAt   int64    `cbor:"6,keyasint"`
}

var cborEncMode cbor.EncMode

func init() {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	cborEncMode = mode
}

// EncodeRecord serializes a record for storage using the given encoding.
func EncodeRecord(r *Record, enc Encoding) ([]byte, error) {
	switch enc {
	case EncodingBinary:
		return encodeRecordBinary(r)
	case EncodingCBOR:
		return encodeRecordCBOR(r)
	}
	return nil, fmt.Errorf("%w: unknown encoding %d", ErrBadRecordEncoding, enc)
}

// DecodeRecord rebuilds a record from a stored blob. The format byte selects
// the layout, so stores can migrate encodings without flag days.
func DecodeRecord(data []byte) (*Record, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty blob", ErrBadRecordEncoding)
	}
	switch data[0] {
	case recordFormatBinaryV1:
		return decodeRecordBinary(data[1:])
	case recordFormatCBORV1:
		return decodeRecordCBOR(data[1:])
	}
	return nil, fmt.Errorf("%w: unknown format %d", ErrBadRecordEncoding, data[0])
}

func encodeRecordBinary(r *Record) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var buf bytes.Buffer
	buf.WriteByte(recordFormatBinaryV1)

	if err := r.id.Encode(&buf); err != nil {
		return nil, err
	}
	if r.persistent {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}

	if err := writeShortString(&buf, r.subject.Principal); err != nil {
		return nil, err
	}
	if len(r.subject.Roles) > 255 {
		return nil, errors.New("too many roles")
	}
	buf.WriteByte(byte(len(r.subject.Roles)))
	for _, role := range r.subject.Roles {
		if err := writeShortString(&buf, role); err != nil {
			return nil, err
		}
	}
	if err := writeShortString(&buf, r.clientHost); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, r.expireAt); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeRecordBinary(data []byte) (*Record, error) {
	reader := bytes.NewReader(data)

	id, err := DecodeID(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRecordEncoding, err)
	}
	persistentByte, err := reader.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRecordEncoding, err)
	}
	principal, err := readShortString(reader)
	if err != nil {
		return nil, err
	}
	roleCount, err := reader.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRecordEncoding, err)
	}
	roles := make([]string, 0, roleCount)
	for i := 0; i < int(roleCount); i++ {
		role, err := readShortString(reader)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	clientHost, err := readShortString(reader)
	if err != nil {
		return nil, err
	}
	var expireAt int64
	if err := binary.Read(reader, binary.BigEndian, &expireAt); err != nil {
		return nil, fmt.Errorf("%w: truncated expiration", ErrBadRecordEncoding)
	}

	return NewRecord(id,
		&Subject{Principal: principal, Roles: roles},
		clientHost, expireAt, persistentByte == 1), nil
}

func encodeRecordCBOR(r *Record) ([]byte, error) {
	r.mu.RLock()
	var idBuf bytes.Buffer
	err := r.id.Encode(&idBuf)
	blob := recordBlob{
		ID:         idBuf.Bytes(),
		Persistent: r.persistent,
		Principal:  r.subject.Principal,
		Roles:      append([]string(nil), r.subject.Roles...),
		ClientHost: r.clientHost,
		ExpireAt:   r.expireAt,
	}
	r.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	body, err := cborEncMode.Marshal(&blob)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(body)+1)
	out = append(out, recordFormatCBORV1)
	return append(out, body...), nil
}

func decodeRecordCBOR(data []byte) (*Record, error) {
	var blob recordBlob
	if err := cbor.Unmarshal(data, &blob); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRecordEncoding, err)
	}
	id, err := DecodeID(bytes.NewReader(blob.ID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRecordEncoding, err)
	}
	return NewRecord(id,
		&Subject{Principal: blob.Principal, Roles: blob.Roles},
		blob.ClientHost, blob.ExpireAt, blob.Persistent), nil
}

func writeShortString(buf *bytes.Buffer, s string) error {
	if len(s) > 255 {
		return fmt.Errorf("string too long for record encoding: %d bytes", len(s))
	}
	buf.WriteByte(byte(len(s)))
	buf.WriteString(s)
	return nil
}

func readShortString(reader *bytes.Reader) (string, error) {
	length, err := reader.ReadByte()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadRecordEncoding, err)
	}
	raw := make([]byte, length)
	if _, err := io.ReadFull(reader, raw); err != nil {
		return "", fmt.Errorf("%w: truncated string", ErrBadRecordEncoding)
	}
	return string(raw), nil
}
