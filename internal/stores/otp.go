// Package stores holds the Redis persistence for the per-phone OTP
// ledger. Records are kept in a compact binary encoding with a leading
// sequence number; updates go through a Lua compare-and-swap keyed on
// that sequence so concurrent read-modify-write cycles on the same phone
// cannot silently lose counter bumps.
package stores

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const otpRecordVersionV1 = 1

var (
	ErrNotFound         = errors.New("otp record not found")
	ErrExists           = errors.New("otp record already exists")
	ErrConflict         = errors.New("otp record sequence conflict")
	ErrRedisUnavailable = errors.New("otp redis unavailable")
)

// updateOtpLua atomically performs GET -> sequence check -> SET.
// KEYS[1] = record key
// ARGV[1] = new record bytes (already carrying the next sequence)
// ARGV[2] = expected current sequence (int string)
//
// The sequence lives in bytes 2..9 (big-endian) right after the version
// byte, so the script can read it without decoding the whole record.
var updateOtpLua = redis.NewScript(`
local data = redis.call('GET', KEYS[1])
if not data then
  return {err='not_found'}
end

local seq = 0
for i = 2, 9 do
  seq = seq * 256 + string.byte(data, i)
end

if seq ~= tonumber(ARGV[2]) then
  return {err='conflict'}
end

redis.call('SET', KEYS[1], ARGV[1])
return redis.status_reply('OK')
`)

// OtpRecord is the stored form of one phone's OTP ledger entry.
type OtpRecord struct {
	Phone         string
	OtpHash       string
	RememberToken string
	VerifyToken   string
	Count         int
	Errors        int
	UpdatedAt     time.Time
	Seq           uint64
}

// OtpStore reads and writes OtpRecords in Redis. Records carry no TTL:
// the ledger is rolling and never expires on its own.
type OtpStore struct {
	redis  redis.UniversalClient
	prefix string
}

func NewOtpStore(redisClient redis.UniversalClient, prefix string) *OtpStore {
	if prefix == "" {
		prefix = "po"
	}
	return &OtpStore{redis: redisClient, prefix: prefix}
}

func (s *OtpStore) key(phone string) string {
	return s.prefix + ":otp:" + phone
}

func (s *OtpStore) Get(ctx context.Context, phone string) (*OtpRecord, error) {
	data, err := s.redis.Get(ctx, s.key(phone)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return decodeOtpRecord(data)
}

// Create stores a brand-new record with sequence 1. Fails with ErrExists
// when the phone already has a ledger entry.
func (s *OtpStore) Create(ctx context.Context, record *OtpRecord) (*OtpRecord, error) {
	stored := *record
	stored.Seq = 1

	encoded, err := encodeOtpRecord(&stored)
	if err != nil {
		return nil, err
	}

	ok, err := s.redis.SetNX(ctx, s.key(record.Phone), encoded, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if !ok {
		return nil, ErrExists
	}
	return &stored, nil
}

// Update replaces the record only if the stored sequence still equals
// expectedSeq, bumping the sequence by one. ErrConflict means another
// writer got there first and the caller must re-read and re-decide.
func (s *OtpStore) Update(ctx context.Context, record *OtpRecord, expectedSeq uint64) (*OtpRecord, error) {
	stored := *record
	stored.Seq = expectedSeq + 1

	encoded, err := encodeOtpRecord(&stored)
	if err != nil {
		return nil, err
	}

	err = updateOtpLua.Run(ctx, s.redis,
		[]string{s.key(record.Phone)},
		encoded,
		expectedSeq,
	).Err()
	if err != nil {
		switch err.Error() {
		case "not_found":
			return nil, ErrNotFound
		case "conflict":
			return nil, ErrConflict
		default:
			return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}
	return &stored, nil
}

func encodeOtpRecord(record *OtpRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(otpRecordVersionV1)
	if err := binary.Write(&buf, binary.BigEndian, record.Seq); err != nil {
		return nil, err
	}
	if record.Count < 0 || record.Count > 65535 || record.Errors < 0 || record.Errors > 65535 {
		return nil, errors.New("otp record counter out of range")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(record.Count)); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(record.Errors)); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.UpdatedAt.UnixNano()); err != nil {
		return nil, err
	}

	for _, field := range []string{record.Phone, record.OtpHash, record.RememberToken, record.VerifyToken} {
		if len(field) > 65535 {
			return nil, errors.New("otp record field too long")
		}
		if err := binary.Write(&buf, binary.BigEndian, uint16(len(field))); err != nil {
			return nil, err
		}
		buf.WriteString(field)
	}

	return buf.Bytes(), nil
}

func decodeOtpRecord(data []byte) (*OtpRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != otpRecordVersionV1 {
		return nil, errors.New("invalid otp record version")
	}

	record := &OtpRecord{}
	if err := binary.Read(reader, binary.BigEndian, &record.Seq); err != nil {
		return nil, err
	}

	var count, errCount uint16
	if err := binary.Read(reader, binary.BigEndian, &count); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &errCount); err != nil {
		return nil, err
	}
	record.Count = int(count)
	record.Errors = int(errCount)

	var updatedAt int64
	if err := binary.Read(reader, binary.BigEndian, &updatedAt); err != nil {
		return nil, err
	}
	record.UpdatedAt = time.Unix(0, updatedAt).UTC()

	for _, field := range []*string{&record.Phone, &record.OtpHash, &record.RememberToken, &record.VerifyToken} {
		var length uint16
		if err := binary.Read(reader, binary.BigEndian, &length); err != nil {
			return nil, err
		}
		raw := make([]byte, length)
		if _, err := io.ReadFull(reader, raw); err != nil {
			return nil, err
		}
		*field = string(raw)
	}

	return record, nil
}
