package credstore

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"time"

	"github.com/credgate/credgate"
)

const (
	accountRecordVersionV1 = 1
)

const (
	flagActive       = 1 << 0
	flagHasLock      = 1 << 1
	flagHasReset     = 1 << 2
	flagHasLastLogin = 1 << 3
)

func encodeAccountRecord(a credgate.Account) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(accountRecordVersionV1)

	if err := writeString8(&buf, a.ID); err != nil {
		return nil, errors.New("id too long")
	}
	if err := writeString8(&buf, a.Username); err != nil {
		return nil, errors.New("username too long")
	}
	if err := writeString8(&buf, a.Email); err != nil {
		return nil, errors.New("email too long")
	}
	if err := writeString8(&buf, a.Role); err != nil {
		return nil, errors.New("role too long")
	}

	if len(a.PasswordHash) > 65535 {
		return nil, errors.New("password hash too long")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(a.PasswordHash))); err != nil {
		return nil, err
	}
	buf.WriteString(a.PasswordHash)

	var flags byte
	if a.IsActive {
		flags |= flagActive
	}
	if a.LockUntil != nil {
		flags |= flagHasLock
	}
	if a.ResetTokenHash != nil {
		if a.ResetExpires == nil {
			return nil, errors.New("reset hash without expiry")
		}
		flags |= flagHasReset
	}
	if a.LastLogin != nil {
		flags |= flagHasLastLogin
	}
	buf.WriteByte(flags)

	if a.LoginAttempts < 0 || a.LoginAttempts > 65535 {
		return nil, errors.New("login attempts out of range")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(a.LoginAttempts)); err != nil {
		return nil, err
	}

	if a.LockUntil != nil {
		if err := binary.Write(&buf, binary.BigEndian, a.LockUntil.Unix()); err != nil {
			return nil, err
		}
	}
	if a.ResetTokenHash != nil {
		buf.Write(a.ResetTokenHash[:])
		if err := binary.Write(&buf, binary.BigEndian, a.ResetExpires.Unix()); err != nil {
			return nil, err
		}
	}
	if a.LastLogin != nil {
		if err := binary.Write(&buf, binary.BigEndian, a.LastLogin.Unix()); err != nil {
			return nil, err
		}
	}

	if err := binary.Write(&buf, binary.BigEndian, a.CreatedAt.Unix()); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func decodeAccountRecord(data []byte) (credgate.Account, error) {
	var a credgate.Account
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return a, err
	}
	if version != accountRecordVersionV1 {
		return a, errors.New("invalid account record version")
	}

	if a.ID, err = readString8(reader); err != nil {
		return a, err
	}
	if a.Username, err = readString8(reader); err != nil {
		return a, err
	}
	if a.Email, err = readString8(reader); err != nil {
		return a, err
	}
	if a.Role, err = readString8(reader); err != nil {
		return a, err
	}

	var hashLen uint16
	if err := binary.Read(reader, binary.BigEndian, &hashLen); err != nil {
		return a, err
	}
	hash := make([]byte, hashLen)
	if _, err := io.ReadFull(reader, hash); err != nil {
		return a, err
	}
	a.PasswordHash = string(hash)

	flags, err := reader.ReadByte()
	if err != nil {
		return a, err
	}
	a.IsActive = flags&flagActive != 0

	var attempts uint16
	if err := binary.Read(reader, binary.BigEndian, &attempts); err != nil {
		return a, err
	}
	a.LoginAttempts = int(attempts)

	if flags&flagHasLock != 0 {
		t, err := readUnix(reader)
		if err != nil {
			return a, err
		}
		a.LockUntil = &t
	}
	if flags&flagHasReset != 0 {
		var resetHash [32]byte
		if _, err := io.ReadFull(reader, resetHash[:]); err != nil {
			return a, err
		}
		a.ResetTokenHash = &resetHash

		t, err := readUnix(reader)
		if err != nil {
			return a, err
		}
		a.ResetExpires = &t
	}
	if flags&flagHasLastLogin != 0 {
		t, err := readUnix(reader)
		if err != nil {
			return a, err
		}
		a.LastLogin = &t
	}

	createdAt, err := readUnix(reader)
	if err != nil {
		return a, err
	}
	a.CreatedAt = createdAt

	return a, nil
}

func writeString8(buf *bytes.Buffer, s string) error {
	if len(s) > 255 {
		return errors.New("string too long")
	}
	buf.WriteByte(byte(len(s)))
	buf.WriteString(s)
	return nil
}

func readString8(reader *bytes.Reader) (string, error) {
	length, err := reader.ReadByte()
	if err != nil {
		return "", err
	}
	b := make([]byte, length)
	if _, err := io.ReadFull(reader, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func readUnix(reader *bytes.Reader) (time.Time, error) {
	var unix int64
	if err := binary.Read(reader, binary.BigEndian, &unix); err != nil {
		return time.Time{}, err
	}
	return time.Unix(unix, 0).UTC(), nil
}
