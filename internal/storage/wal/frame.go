package wal

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/mintworks/nftregistry-go/internal/core/ledger"
	"github.com/mintworks/nftregistry-go/pkg/crypto/adaptive"
)

// Errors for WAL frame handling.
var (
	ErrCorruptedFrame   = errors.New("wal: corrupted frame")
	ErrChecksumMismatch = errors.New("wal: checksum mismatch")
	ErrInvalidOp        = errors.New("wal: invalid record op")
)

// frameEnvelope is the JSON payload of one frame. Exactly one of
// Record or EncryptedRecord is present.
type frameEnvelope struct {
	Record *ledger.Record `json:"record,omitempty"`

	// EncryptedRecord is base64 of adaptive.Cipher.Encrypt(recordJSON).
	EncryptedRecord string `json:"enc_record,omitempty"`
}

func encodeFrame(rec *ledger.Record, cipher adaptive.Cipher) ([]byte, error) {
	if rec == nil {
		return nil, fmt.Errorf("wal: record is nil")
	}
	opByte := rec.Op.Code()
	if opByte == 0 {
		return nil, ErrInvalidOp
	}

	var env frameEnvelope
	if cipher == nil {
		env.Record = rec
	} else {
		plain, err := rec.Encode()
		if err != nil {
			return nil, fmt.Errorf("wal: marshal record: %w", err)
		}
		sealed, err := cipher.Encrypt(plain, nil)
		if err != nil {
			return nil, fmt.Errorf("wal: encrypt record: %w", err)
		}
		env.EncryptedRecord = base64.StdEncoding.EncodeToString(sealed)
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("wal: marshal payload: %w", err)
	}

	crc := crc32.ChecksumIEEE(append([]byte{opByte}, payload...))

	// Length = CRC(4) + Op(1) + Payload.
	length := uint32(4 + 1 + len(payload))

	out := make([]byte, 0, 4+int(length))
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], length)
	out = append(out, buf[:]...)
	binary.BigEndian.PutUint32(buf[:], crc)
	out = append(out, buf[:]...)
	out = append(out, opByte)
	out = append(out, payload...)
	return out, nil
}

func decodeFrame(frame []byte, cipher adaptive.Cipher) (*ledger.Record, error) {
	// Frame layout after the length prefix: [crc32:4][op:1][payload...]
	if len(frame) < 5 {
		return nil, ErrCorruptedFrame
	}

	wantCRC := binary.BigEndian.Uint32(frame[:4])
	opByte := frame[4]
	payload := frame[5:]

	if crc32.ChecksumIEEE(append([]byte{opByte}, payload...)) != wantCRC {
		return nil, ErrChecksumMismatch
	}

	var env frameEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("wal: unmarshal payload: %w", err)
	}

	var rec *ledger.Record
	switch {
	case env.Record != nil:
		rec = env.Record

	case env.EncryptedRecord != "":
		if cipher == nil {
			return nil, fmt.Errorf("wal: encrypted frame requires cipher")
		}
		sealed, err := base64.StdEncoding.DecodeString(env.EncryptedRecord)
		if err != nil {
			return nil, fmt.Errorf("wal: decode encrypted record: %w", err)
		}
		plain, err := cipher.Decrypt(sealed, nil)
		if err != nil {
			return nil, fmt.Errorf("wal: decrypt record: %w", err)
		}
		rec, err = ledger.DecodeRecord(plain)
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("wal: missing record payload")
	}

	if rec.Op.Code() != opByte {
		return nil, ErrInvalidOp
	}
	return rec, nil
}
