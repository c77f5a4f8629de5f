package phoneauth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/aungsithu-dev/phoneauth/internal"
	"github.com/aungsithu-dev/phoneauth/internal/metrics"
	"github.com/aungsithu-dev/phoneauth/jwt"
)

// Authenticate resolves the caller's identity from the access/refresh
// token pair.
//
// A valid access token answers immediately. When the access token is
// expired or absent, the refresh token is checked against the account's
// stored session token and, if it matches, both tokens are rotated: the
// result carries the replacement pair and the old refresh token is dead
// from that point on. Presenting a refresh token that was already
// rotated out is treated as replay and rejected.
func (e *Engine) Authenticate(ctx context.Context, accessToken, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, ErrUnauthenticated
	}

	if accessToken != "" {
		claims, err := e.jwtManager.ParseAccess(accessToken)
		if err == nil {
			uid, perr := strconv.ParseInt(claims.UID, 10, 64)
			if perr != nil {
				return nil, ErrUnauthenticated
			}
			return &AuthResult{UserID: uid}, nil
		}
		if !errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrUnauthenticated
		}
	}

	return e.refreshSession(ctx, refreshToken)
}

func (e *Engine) refreshSession(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := e.jwtManager.ParseRefresh(refreshToken)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	uid, err := strconv.ParseInt(claims.UID, 10, 64)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	user, err := e.userStore.GetUserByID(ctx, uid)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	if user.Phone != claims.Phone {
		return nil, ErrUnauthenticated
	}

	// The presented token must be the one the account currently holds;
	// anything else is a replay of an already-rotated token.
	if !internal.TokensEqual(user.SessionToken, refreshToken) {
		e.metrics.Inc(metrics.MetricRefreshReuseDetected)
		e.emitAudit(ctx, ActionSessionReuse, user.ID, user.Phone, ErrUnauthenticated)
		return nil, ErrUnauthenticated
	}

	pair, err := e.issuePair(user.ID, user.Phone, e.config.JWT.RotatedRefreshTTL)
	if err != nil {
		return nil, err
	}
	if _, err := e.userStore.UpdateUser(ctx, user.ID, UserUpdate{SessionToken: &pair.RefreshToken}); err != nil {
		return nil, serverError(err)
	}

	e.metrics.Inc(metrics.MetricRefreshSuccess)
	e.emitAudit(ctx, ActionSessionRefresh, user.ID, user.Phone, nil)
	return &AuthResult{UserID: user.ID, Rotated: pair}, nil
}

// issuePair mints a fresh access/refresh pair for the user.
func (e *Engine) issuePair(userID int64, phone string, refreshTTL time.Duration) (*TokenPair, error) {
	now := e.now()
	uid := strconv.FormatInt(userID, 10)

	access, err := e.jwtManager.CreateAccess(uid, e.config.JWT.AccessTTL, now)
	if err != nil {
		return nil, serverError(err)
	}
	refresh, err := e.jwtManager.CreateRefresh(uid, phone, refreshTTL, now)
	if err != nil {
		return nil, serverError(err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessTTL:    e.config.JWT.AccessTTL,
		RefreshTTL:   refreshTTL,
	}, nil
}
