package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const sessionFormatVersionV1 = 1

// ErrCorruptRecord is returned when a stored session payload cannot be
// decoded. Corrupt records are treated as absent by the stores.
var ErrCorruptRecord = errors.New("corrupt session record")

// Encode serializes s into the v1 binary format: a version byte, three
// length-prefixed strings, then two big-endian int64 timestamps.
func Encode(s *Session) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(sessionFormatVersionV1)

	for _, field := range []struct {
		name  string
		value string
	}{
		{"sessionID", s.SessionID},
		{"userID", s.UserID},
		{"email", s.Email},
	} {
		if len(field.value) > 255 {
			return nil, fmt.Errorf("%s too long", field.name)
		}
		buf.WriteByte(byte(len(field.value)))
		buf.WriteString(field.value)
	}

	if err := binary.Write(&buf, binary.BigEndian, s.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, s.ExpiresAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses a binary session record produced by Encode.
func Decode(data []byte) (*Session, error) {
	if len(data) == 0 {
		return nil, ErrCorruptRecord
	}

	r := bytes.NewReader(data)

	version, err := r.ReadByte()
	if err != nil {
		return nil, ErrCorruptRecord
	}
	if version != sessionFormatVersionV1 {
		return nil, fmt.Errorf("%w: unknown format version %d", ErrCorruptRecord, version)
	}

	s := &Session{}
	if s.SessionID, err = readString(r); err != nil {
		return nil, err
	}
	if s.UserID, err = readString(r); err != nil {
		return nil, err
	}
	if s.Email, err = readString(r); err != nil {
		return nil, err
	}

	if err := binary.Read(r, binary.BigEndian, &s.CreatedAt); err != nil {
		return nil, ErrCorruptRecord
	}
	if err := binary.Read(r, binary.BigEndian, &s.ExpiresAt); err != nil {
		return nil, ErrCorruptRecord
	}

	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: trailing bytes", ErrCorruptRecord)
	}

	return s, nil
}

func readString(r *bytes.Reader) (string, error) {
	length, err := r.ReadByte()
	if err != nil {
		return "", ErrCorruptRecord
	}
	if length == 0 {
		return "", nil
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", ErrCorruptRecord
	}
	return string(buf), nil
}
