package phoneauth

import (
	"context"
	"errors"

	"github.com/aungsithu-dev/phoneauth/internal/stores"
)

// redisOtpStore adapts the internal Redis ledger to the public OtpStore
// interface, translating store-level errors into the package sentinels.
type redisOtpStore struct {
	inner *stores.OtpStore
}

func (s *redisOtpStore) GetOtpByPhone(ctx context.Context, phone string) (*OtpRecord, error) {
	rec, err := s.inner.Get(ctx, phone)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return fromStoreRecord(rec), nil
}

func (s *redisOtpStore) CreateOtp(ctx context.Context, record *OtpRecord) error {
	stored, err := s.inner.Create(ctx, toStoreRecord(record))
	if err != nil {
		return mapStoreErr(err)
	}
	record.Seq = stored.Seq
	return nil
}

func (s *redisOtpStore) UpdateOtp(ctx context.Context, record *OtpRecord, expectedSeq uint64) (*OtpRecord, error) {
	stored, err := s.inner.Update(ctx, toStoreRecord(record), expectedSeq)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return fromStoreRecord(stored), nil
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, stores.ErrNotFound):
		return ErrOtpNotFound
	case errors.Is(err, stores.ErrExists):
		return ErrOtpExists
	case errors.Is(err, stores.ErrConflict):
		return ErrOtpConflict
	default:
		return err
	}
}

func toStoreRecord(record *OtpRecord) *stores.OtpRecord {
	return &stores.OtpRecord{
		Phone:         record.Phone,
		OtpHash:       record.OtpHash,
		RememberToken: record.RememberToken,
		VerifyToken:   record.VerifyToken,
		Count:         record.Count,
		Errors:        record.Errors,
		UpdatedAt:     record.UpdatedAt,
		Seq:           record.Seq,
	}
}

func fromStoreRecord(record *stores.OtpRecord) *OtpRecord {
	return &OtpRecord{
		Phone:         record.Phone,
		OtpHash:       record.OtpHash,
		RememberToken: record.RememberToken,
		VerifyToken:   record.VerifyToken,
		Count:         record.Count,
		Errors:        record.Errors,
		UpdatedAt:     record.UpdatedAt,
		Seq:           record.Seq,
	}
}
