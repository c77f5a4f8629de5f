package phoneauth

import (
	"context"
	"errors"

	"github.com/aungsithu-dev/phoneauth/internal"
	"github.com/aungsithu-dev/phoneauth/internal/metrics"
	"github.com/aungsithu-dev/phoneauth/internal/policy"
)

// ForgotPassword starts a password-reset cycle for a registered,
// previously verified phone. Requesting a reset immediately invalidates
// the account's live session.
func (e *Engine) ForgotPassword(ctx context.Context, phone string) (*OtpChallenge, error) {
	phone, err := normalizePhone(phone)
	if err != nil {
		return nil, err
	}

	challenge, err := e.forgotPassword(ctx, phone)
	switch {
	case err == nil:
		e.metrics.Inc(metrics.MetricOtpIssued)
	case errors.Is(err, ErrOtpRequestLimit):
		e.metrics.Inc(metrics.MetricOtpRequestLimited)
	}
	e.emitAudit(ctx, ActionPasswordForgot, 0, phone, err)
	return challenge, err
}

func (e *Engine) forgotPassword(ctx context.Context, phone string) (*OtpChallenge, error) {
	rec, err := e.otpStore.GetOtpByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, ErrOtpNotFound) {
			return nil, ErrPhoneNotFound
		}
		return nil, serverError(err)
	}
	if rec.VerifyToken == "" {
		return nil, ErrPhoneNotVerified
	}
	if rec.Errors >= e.config.OTP.ErrorCeiling {
		return nil, ErrUnauthenticated
	}

	user, err := e.userStore.GetUserByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrNotRegistered
		}
		return nil, serverError(err)
	}

	// A reset request always costs the current session, even when the
	// checks below end up rejecting it.
	hadSession := user.SessionToken != ""
	replacement, err := internal.NewOpaqueToken()
	if err != nil {
		return nil, serverError(err)
	}
	if _, err := e.userStore.UpdateUser(ctx, user.ID, UserUpdate{SessionToken: &replacement}); err != nil {
		return nil, serverError(err)
	}

	if user.Status == UserFrozen {
		return nil, ErrUnauthenticated
	}
	if !hadSession {
		return nil, ErrUnauthenticated
	}

	// Reset issuance never clears the error counter on day rollover.
	return runOtpCAS(func() (*OtpChallenge, error) {
		return e.issueOtp(ctx, phone, e.config.OTP.ResetDailyLimit, false)
	})
}

// VerifyOtpForReset checks the reset code. It shares the verification
// core with VerifyOtp but additionally requires a registered, unfrozen
// account that went through ForgotPassword.
func (e *Engine) VerifyOtpForReset(ctx context.Context, phone, otp, rememberToken string) (*OtpVerification, error) {
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

	verification, err := e.verifyOtpForReset(ctx, phone, otp, rememberToken)
	switch {
	case err == nil:
		e.metrics.Inc(metrics.MetricOtpVerifySuccess)
	case errors.Is(err, ErrOtpIncorrect):
		e.metrics.Inc(metrics.MetricOtpVerifyFailure)
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrOtpOverLimit):
		e.metrics.Inc(metrics.MetricOtpBlocked)
	}
	e.emitAudit(ctx, ActionOtpVerifyReset, 0, phone, err)
	return verification, err
}

func (e *Engine) verifyOtpForReset(ctx context.Context, phone, otp, rememberToken string) (*OtpVerification, error) {
	rec, err := e.otpStore.GetOtpByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, ErrOtpNotFound) {
			return nil, ErrPhoneNotFound
		}
		return nil, serverError(err)
	}
	if rec.VerifyToken == "" {
		return nil, ErrPhoneNotVerified
	}
	if rec.Errors >= e.config.OTP.ErrorCeiling {
		return nil, ErrUnauthenticated
	}

	user, err := e.userStore.GetUserByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrNotRegistered
		}
		return nil, serverError(err)
	}
	if user.Status == UserFrozen {
		return nil, ErrUnauthenticated
	}
	if user.SessionToken == "" {
		return nil, ErrUnauthenticated
	}

	return runOtpCAS(func() (*OtpVerification, error) {
		return e.verifyOtpRecord(ctx, phone, otp, rememberToken)
	})
}

// ResetPassword consumes the reset verify token, replaces the account
// PIN and opens a fresh session. A wrong verify token here is treated as
// hostile: the record blocks and the account freezes.
func (e *Engine) ResetPassword(ctx context.Context, phone, password, verifyToken string) (*Session, error) {
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

	sess, err := e.resetPassword(ctx, phone, password, verifyToken)
	if err == nil {
		e.metrics.Inc(metrics.MetricPasswordResetSuccess)
	}
	e.emitAudit(ctx, ActionPasswordReset, userIDOf(sess), phone, err)
	return sess, err
}

func (e *Engine) resetPassword(ctx context.Context, phone, password, verifyToken string) (*Session, error) {
	rec, err := e.otpStore.GetOtpByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, ErrOtpNotFound) {
			return nil, ErrPhoneNotFound
		}
		return nil, serverError(err)
	}
	if rec.VerifyToken == "" {
		return nil, ErrPhoneNotVerified
	}
	if rec.Errors >= e.config.OTP.ErrorCeiling {
		return nil, ErrRequestAttack
	}

	user, err := e.userStore.GetUserByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrNotRegistered
		}
		return nil, serverError(err)
	}
	if user.Status == UserFrozen {
		return nil, ErrRequestAttack
	}
	if user.SessionToken == "" {
		return nil, ErrUnauthenticated
	}

	err = runOtpWrite(func() error {
		now := e.now()

		rec, err := e.otpStore.GetOtpByPhone(ctx, phone)
		if err != nil {
			if errors.Is(err, ErrOtpNotFound) {
				return ErrPhoneNotFound
			}
			return serverError(err)
		}
		if !internal.TokensEqual(verifyToken, rec.VerifyToken) {
			if err := e.blockOtpRecord(ctx, rec, now); err != nil {
				return err
			}
			frozen := UserFrozen
			if _, err := e.userStore.UpdateUser(ctx, user.ID, UserUpdate{Status: &frozen}); err != nil {
				return serverError(err)
			}
			e.metrics.Inc(metrics.MetricAccountFrozen)
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
	pair, err := e.issuePair(user.ID, user.Phone, e.config.JWT.RefreshTTL)
	if err != nil {
		return nil, err
	}

	zero := 0
	if _, err := e.userStore.UpdateUser(ctx, user.ID, UserUpdate{
		PasswordHash:    &hash,
		ErrorLoginCount: &zero,
		SessionToken:    &pair.RefreshToken,
	}); err != nil {
		return nil, serverError(err)
	}

	return &Session{UserID: user.ID, Phone: user.Phone, Tokens: *pair}, nil
}
