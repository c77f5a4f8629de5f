package phoneauth

import (
	"context"
	"errors"
	"time"

	"github.com/aungsithu-dev/phoneauth/internal"
	"github.com/aungsithu-dev/phoneauth/internal/metrics"
	"github.com/aungsithu-dev/phoneauth/internal/policy"
)

// Register starts a registration cycle: it issues a one-time code for an
// unregistered phone, delivers it through the configured sender and
// returns the challenge the caller must echo back to VerifyOtp.
func (e *Engine) Register(ctx context.Context, phone string) (*OtpChallenge, error) {
	phone, err := normalizePhone(phone)
	if err != nil {
		return nil, err
	}

	challenge, err := e.register(ctx, phone)
	switch {
	case err == nil:
		e.metrics.Inc(metrics.MetricOtpIssued)
	case errors.Is(err, ErrOtpRequestLimit):
		e.metrics.Inc(metrics.MetricOtpRequestLimited)
	}
	e.emitAudit(ctx, ActionOtpRequest, 0, phone, err)
	return challenge, err
}

func (e *Engine) register(ctx context.Context, phone string) (*OtpChallenge, error) {
	if _, err := e.userStore.GetUserByPhone(ctx, phone); err == nil {
		return nil, ErrAlreadyRegistered
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, serverError(err)
	}

	return runOtpCAS(func() (*OtpChallenge, error) {
		return e.issueOtp(ctx, phone, e.config.OTP.RegisterDailyLimit, true)
	})
}

// issueOtp generates a fresh code plus remember token and advances the
// phone's ledger entry. The issuance counter carries across calendar
// days: a rollover bumps it rather than resetting it, so the daily limit
// is really a per-record budget that day changes merely unlock again.
// Error counters reset on rollover only for the registration path.
func (e *Engine) issueOtp(ctx context.Context, phone string, dailyLimit int, resetErrorsOnNewDay bool) (*OtpChallenge, error) {
	code, err := internal.NewOTP(e.config.OTP.Digits)
	if err != nil {
		return nil, serverError(err)
	}
	otpHash, err := e.hasher.Hash(code)
	if err != nil {
		return nil, serverError(err)
	}
	remember, err := internal.NewOpaqueToken()
	if err != nil {
		return nil, serverError(err)
	}

	now := e.now()

	rec, err := e.otpStore.GetOtpByPhone(ctx, phone)
	switch {
	case errors.Is(err, ErrOtpNotFound):
		rec = &OtpRecord{
			Phone:         phone,
			OtpHash:       otpHash,
			RememberToken: remember,
			Count:         1,
			UpdatedAt:     now,
		}
		if err := e.otpStore.CreateOtp(ctx, rec); err != nil {
			if errors.Is(err, ErrOtpExists) {
				return nil, ErrOtpConflict
			}
			return nil, serverError(err)
		}
	case err != nil:
		return nil, serverError(err)
	default:
		sameDay := policy.SameCalendarDay(rec.UpdatedAt, now)
		if policy.ErrorCeilingReached(sameDay, rec.Errors, e.config.OTP.ErrorCeiling) {
			return nil, ErrOtpOverLimit
		}
		if policy.IssueLimitReached(sameDay, rec.Count, dailyLimit) {
			return nil, ErrOtpRequestLimit
		}

		next := *rec
		next.OtpHash = otpHash
		next.RememberToken = remember
		next.Count = rec.Count + 1
		next.UpdatedAt = now
		if !sameDay && resetErrorsOnNewDay {
			next.Errors = 0
		}
		if err := e.writeOtp(ctx, &next, rec.Seq); err != nil {
			return nil, err
		}
	}

	if e.otpSender != nil {
		if err := e.otpSender.SendOtp(ctx, phone, code); err != nil {
			return nil, serverError(err)
		}
	}

	return &OtpChallenge{
		Phone:         phone,
		RememberToken: remember,
		Message:       "otp sent successfully to " + phone,
	}, nil
}

// VerifyOtp checks the submitted code against the pending challenge for
// an unregistered phone and, on success, returns the verify token that
// unlocks ConfirmPassword.
func (e *Engine) VerifyOtp(ctx context.Context, phone, otp, rememberToken string) (*OtpVerification, error) {
	phone, err := normalizePhone(phone)
	if err != nil {
		return nil, err
	}
	if err := e.validateOtpInput(otp); err != nil {
		return nil, err
	}
	if rememberToken == "" {
		return nil, ErrInvalidToken
	}

	verification, err := e.verifyOtp(ctx, phone, otp, rememberToken)
	switch {
	case err == nil:
		e.metrics.Inc(metrics.MetricOtpVerifySuccess)
	case errors.Is(err, ErrOtpIncorrect):
		e.metrics.Inc(metrics.MetricOtpVerifyFailure)
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrOtpOverLimit):
		e.metrics.Inc(metrics.MetricOtpBlocked)
	}
	e.emitAudit(ctx, ActionOtpVerify, 0, phone, err)
	return verification, err
}

func (e *Engine) verifyOtp(ctx context.Context, phone, otp, rememberToken string) (*OtpVerification, error) {
	if _, err := e.userStore.GetUserByPhone(ctx, phone); err == nil {
		return nil, ErrAlreadyRegistered
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, serverError(err)
	}

	return runOtpCAS(func() (*OtpVerification, error) {
		return e.verifyOtpRecord(ctx, phone, otp, rememberToken)
	})
}

// verifyOtpRecord is the shared verification core for the register and
// reset paths. A remember-token mismatch blocks the record outright; a
// wrong code bumps the error counter. Success rotates the verify token
// and resets the record's counters.
func (e *Engine) verifyOtpRecord(ctx context.Context, phone, otp, rememberToken string) (*OtpVerification, error) {
	now := e.now()

	rec, err := e.otpStore.GetOtpByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, ErrOtpNotFound) {
			return nil, ErrPhoneNotFound
		}
		return nil, serverError(err)
	}

	sameDay := policy.SameCalendarDay(rec.UpdatedAt, now)
	if policy.ErrorCeilingReached(sameDay, rec.Errors, e.config.OTP.ErrorCeiling) {
		return nil, ErrOtpOverLimit
	}

	if !internal.TokensEqual(rememberToken, rec.RememberToken) {
		if err := e.blockOtpRecord(ctx, rec, now); err != nil {
			return nil, err
		}
		return nil, ErrInvalidToken
	}

	if policy.VerifyExpired(rec.UpdatedAt, now, e.config.OTP.VerifyWindow) {
		return nil, ErrOtpExpired
	}

	match, err := e.hasher.Verify(otp, rec.OtpHash)
	if err != nil {
		return nil, serverError(err)
	}
	if !match {
		next := *rec
		next.Errors = policy.NextErrorCount(sameDay, rec.Errors)
		next.UpdatedAt = now
		if err := e.writeOtp(ctx, &next, rec.Seq); err != nil {
			return nil, err
		}
		return nil, ErrOtpIncorrect
	}

	verifyToken, err := internal.NewOpaqueToken()
	if err != nil {
		return nil, serverError(err)
	}

	next := *rec
	next.VerifyToken = verifyToken
	next.Count = 1
	next.Errors = 0
	next.UpdatedAt = now
	if err := e.writeOtp(ctx, &next, rec.Seq); err != nil {
		return nil, err
	}

	return &OtpVerification{
		Phone:         phone,
		RememberToken: rec.RememberToken,
		VerifyToken:   verifyToken,
	}, nil
}

// ConfirmPassword finishes registration: it consumes the verify token,
// creates the account with the chosen PIN and opens the first session.
func (e *Engine) ConfirmPassword(ctx context.Context, phone, password, verifyToken string) (*Session, error) {
	phone, err := normalizePhone(phone)
	if err != nil {
		return nil, err
	}
	if err := e.validatePin(password); err != nil {
		return nil, err
	}
	if verifyToken == "" {
		return nil, ErrInvalidToken
	}

	sess, err := e.confirmPassword(ctx, phone, password, verifyToken)
	if err == nil {
		e.metrics.Inc(metrics.MetricRegisterSuccess)
	}
	e.emitAudit(ctx, ActionPasswordConfirm, userIDOf(sess), phone, err)
	return sess, err
}

func (e *Engine) confirmPassword(ctx context.Context, phone, password, verifyToken string) (*Session, error) {
	if _, err := e.userStore.GetUserByPhone(ctx, phone); err == nil {
		return nil, ErrAlreadyRegistered
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, serverError(err)
	}

	// Consume and rotate before touching the user table. Once the
	// rotation lands, a concurrent duplicate of this call fails the
	// token check and cannot create a second account.
	err := runOtpWrite(func() error {
		now := e.now()

		rec, err := e.otpStore.GetOtpByPhone(ctx, phone)
		if err != nil {
			if errors.Is(err, ErrOtpNotFound) {
				return ErrPhoneNotFound
			}
			return serverError(err)
		}
		if rec.Errors >= e.config.OTP.ErrorCeiling {
			return ErrRequestAttack
		}
		if !internal.TokensEqual(verifyToken, rec.VerifyToken) {
			if err := e.blockOtpRecord(ctx, rec, now); err != nil {
				return err
			}
			return ErrInvalidToken
		}
		if policy.ConsumeExpired(rec.UpdatedAt, now, e.config.OTP.ConsumeWindow) {
			return ErrRequestExpired
		}
		return e.rotateOtpTokens(ctx, rec, now)
	})
	if err != nil {
		return nil, err
	}

	hash, err := e.hasher.Hash(password)
	if err != nil {
		return nil, serverError(err)
	}
	seed, err := internal.NewOpaqueToken()
	if err != nil {
		return nil, serverError(err)
	}

	user, err := e.userStore.CreateUser(ctx, CreateUserInput{
		Phone:        phone,
		PasswordHash: hash,
		Status:       UserActive,
		SessionToken: seed,
	})
	if err != nil {
		return nil, serverError(err)
	}

	pair, err := e.issuePair(user.ID, phone, e.config.JWT.RefreshTTL)
	if err != nil {
		return nil, err
	}
	if _, err := e.userStore.UpdateUser(ctx, user.ID, UserUpdate{SessionToken: &pair.RefreshToken}); err != nil {
		return nil, serverError(err)
	}

	return &Session{UserID: user.ID, Phone: phone, Tokens: *pair}, nil
}

// writeOtp performs one CAS update, letting sequence conflicts through
// untranslated so the surrounding retry loop can see them.
func (e *Engine) writeOtp(ctx context.Context, record *OtpRecord, expectedSeq uint64) error {
	if _, err := e.otpStore.UpdateOtp(ctx, record, expectedSeq); err != nil {
		if errors.Is(err, ErrOtpConflict) {
			return ErrOtpConflict
		}
		return serverError(err)
	}
	return nil
}

// blockOtpRecord pins the error counter at the ceiling so every flow
// refuses the record until the counter is cleared again.
func (e *Engine) blockOtpRecord(ctx context.Context, rec *OtpRecord, now time.Time) error {
	next := *rec
	next.Errors = e.config.OTP.ErrorCeiling
	next.UpdatedAt = now
	return e.writeOtp(ctx, &next, rec.Seq)
}

// rotateOtpTokens invalidates both correlation tokens, closing the
// current OTP cycle.
func (e *Engine) rotateOtpTokens(ctx context.Context, rec *OtpRecord, now time.Time) error {
	remember, err := internal.NewOpaqueToken()
	if err != nil {
		return serverError(err)
	}
	verify, err := internal.NewOpaqueToken()
	if err != nil {
		return serverError(err)
	}

	next := *rec
	next.RememberToken = remember
	next.VerifyToken = verify
	next.UpdatedAt = now
	return e.writeOtp(ctx, &next, rec.Seq)
}

func userIDOf(sess *Session) int64 {
	if sess == nil {
		return 0
	}
	return sess.UserID
}
