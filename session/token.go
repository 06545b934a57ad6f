package session

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
)

const tokenFormatVersion = 1

var (
	// ErrBadTokenEncoding is returned when a token blob cannot be decoded.
	ErrBadTokenEncoding = errors.New("malformed login token encoding")
)

// Token pairs a session identity with an absolute expiration. Tokens are
// immutable; renewal mints a new Token sharing the same identity.
type Token struct {
	id       ID
	expireAt int64 // unix milliseconds; 0 = never expires
}

// NewToken builds a token for the given identity expiring at expireAt unix
// milliseconds. An expireAt of 0 means the token never expires.
func NewToken(id ID, expireAt int64) *Token {
	return &Token{id: id, expireAt: expireAt}
}

// ID returns the session identity the token refers to.
func (t *Token) ID() ID {
	return t.id
}

// ExpireAt returns the expiration in unix milliseconds, 0 for never.
func (t *Token) ExpireAt() int64 {
	return t.expireAt
}

// ExpiredAt reports whether the token is expired at nowMillis. The boundary
// is inclusive: a token whose expiration equals now is expired.
func (t *Token) ExpiredAt(nowMillis int64) bool {
	return t.expireAt != 0 && t.expireAt <= nowMillis
}

// Equal compares session identity and expiration.
func (t *Token) Equal(other *Token) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.expireAt == other.expireAt && t.id.Equal(other.id)
}

func (t *Token) String() string {
	return fmt.Sprintf("token[%s exp=%d]", t.id, t.expireAt)
}

// Encode returns the opaque byte form of the token: a version tag, the
// expiration as a big-endian int64, and the session identity encoding.
func (t *Token) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(tokenFormatVersion)
	if err := binary.Write(&buf, binary.BigEndian, t.expireAt); err != nil {
		return nil, err
	}
	if err := t.id.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeToken rebuilds a token from its Encode form.
func DecodeToken(data []byte) (*Token, error) {
	reader := bytes.NewReader(data)
	version, err := reader.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadTokenEncoding, err)
	}
	if version != tokenFormatVersion {
		return nil, fmt.Errorf("%w: unknown version %d", ErrBadTokenEncoding, version)
	}
	var expireAt int64
	if err := binary.Read(reader, binary.BigEndian, &expireAt); err != nil {
		return nil, fmt.Errorf("%w: truncated expiration", ErrBadTokenEncoding)
	}
	id, err := DecodeID(reader)
	if err != nil {
		return nil, err
	}
	if reader.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrBadTokenEncoding, reader.Len())
	}
	return &Token{id: id, expireAt: expireAt}, nil
}

// EncodeHex returns the token in the form carried by HTTP headers: two
// lowercase hex characters per byte, most-significant nibble first.
func (t *Token) EncodeHex() (string, error) {
	raw, err := t.Encode()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

// DecodeHex rebuilds a token from its EncodeHex form.
func DecodeHex(s string) (*Token, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadTokenEncoding, err)
	}
	return DecodeToken(raw)
}
