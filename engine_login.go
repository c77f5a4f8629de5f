package phoneauth

import (
	"context"
	"errors"
	"strconv"

	"github.com/aungsithu-dev/phoneauth/internal"
	"github.com/aungsithu-dev/phoneauth/internal/metrics"
	"github.com/aungsithu-dev/phoneauth/internal/policy"
)

// Login authenticates a registered phone with its PIN and opens a fresh
// session, replacing whatever refresh token the account held before.
func (e *Engine) Login(ctx context.Context, phone, password string) (*Session, error) {
	phone, err := normalizePhone(phone)
	if err != nil {
		return nil, err
	}
	if err := e.validatePin(password); err != nil {
		return nil, err
	}

	sess, err := e.login(ctx, phone, password)
	e.emitAudit(ctx, ActionLogin, userIDOf(sess), phone, err)
	return sess, err
}

func (e *Engine) login(ctx context.Context, phone, password string) (*Session, error) {
	user, err := e.userStore.GetUserByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrNotRegistered
		}
		return nil, serverError(err)
	}

	if user.Status == UserFrozen {
		return nil, ErrAccountFrozen
	}

	match, err := e.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, serverError(err)
	}
	if !match {
		if err := e.recordLoginFailure(ctx, user); err != nil {
			return nil, err
		}
		e.metrics.Inc(metrics.MetricLoginFailure)
		return nil, ErrWrongPassword
	}

	pair, err := e.issuePair(user.ID, user.Phone, e.config.JWT.RefreshTTL)
	if err != nil {
		return nil, err
	}

	zero := 0
	if _, err := e.userStore.UpdateUser(ctx, user.ID, UserUpdate{
		ErrorLoginCount: &zero,
		SessionToken:    &pair.RefreshToken,
	}); err != nil {
		return nil, serverError(err)
	}

	e.metrics.Inc(metrics.MetricLoginSuccess)
	return &Session{UserID: user.ID, Phone: user.Phone, Tokens: *pair}, nil
}

// recordLoginFailure advances the failed-login guard. The first failure
// of a calendar day restarts the streak at one; a failure that finds the
// streak already at the threshold within the same day freezes the
// account instead of counting further.
func (e *Engine) recordLoginFailure(ctx context.Context, user *UserAccount) error {
	sameDay := policy.SameCalendarDay(user.UpdatedAt, e.now())

	var update UserUpdate
	switch {
	case !sameDay:
		one := 1
		update.ErrorLoginCount = &one
	case user.ErrorLoginCount >= e.config.Account.FreezeThreshold:
		frozen := UserFrozen
		update.Status = &frozen
		e.metrics.Inc(metrics.MetricAccountFrozen)
	default:
		next := user.ErrorLoginCount + 1
		update.ErrorLoginCount = &next
	}

	if _, err := e.userStore.UpdateUser(ctx, user.ID, update); err != nil {
		return serverError(err)
	}
	return nil
}

// Logout invalidates the session carried by refreshToken. The stored
// session token is replaced with a throwaway value, so the presented
// refresh token can never pass the rotation check again.
func (e *Engine) Logout(ctx context.Context, refreshToken string) error {
	userID, err := e.logout(ctx, refreshToken)
	if err == nil {
		e.metrics.Inc(metrics.MetricLogout)
	}
	e.emitAudit(ctx, ActionLogout, userID, "", err)
	return err
}

func (e *Engine) logout(ctx context.Context, refreshToken string) (int64, error) {
	if refreshToken == "" {
		return 0, ErrUnauthenticated
	}
	claims, err := e.jwtManager.ParseRefresh(refreshToken)
	if err != nil {
		return 0, ErrUnauthenticated
	}
	uid, err := strconv.ParseInt(claims.UID, 10, 64)
	if err != nil {
		return 0, ErrUnauthenticated
	}

	user, err := e.userStore.GetUserByID(ctx, uid)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return 0, ErrNotRegistered
		}
		return 0, serverError(err)
	}
	if user.Phone != claims.Phone {
		return 0, ErrUnauthenticated
	}

	replacement, err := internal.NewOpaqueToken()
	if err != nil {
		return 0, serverError(err)
	}
	if _, err := e.userStore.UpdateUser(ctx, user.ID, UserUpdate{SessionToken: &replacement}); err != nil {
		return 0, serverError(err)
	}
	return user.ID, nil
}
