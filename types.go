package phoneauth

import (
	"context"
	"time"
)

// UserStatus is the lifecycle state of a user account.
type UserStatus string

const (
	UserActive UserStatus = "ACTIVE"
	UserFrozen UserStatus = "FREEZE"
)

// UserAccount is the account record exchanged with the consumer-provided
// UserStore. SessionToken holds the currently valid refresh-token value;
// empty means no active session. UpdatedAt anchors all same-calendar-day
// comparisons, so implementations must refresh it on every update.
type UserAccount struct {
	ID              int64
	Phone           string
	PasswordHash    string
	Status          UserStatus
	ErrorLoginCount int
	SessionToken    string
	UpdatedAt       time.Time
}

// CreateUserInput is the input for UserStore.CreateUser.
type CreateUserInput struct {
	Phone        string
	PasswordHash string
	Status       UserStatus
	SessionToken string
}

// UserUpdate is a partial update applied by UserStore.UpdateUser. Nil
// fields are left untouched.
type UserUpdate struct {
	PasswordHash    *string
	Status          *UserStatus
	ErrorLoginCount *int
	SessionToken    *string
}

// UserStore is the interface callers implement to integrate the engine
// with their user database. Lookups return ErrUserNotFound when no row
// matches. UpdateUser must bump UpdatedAt on every call.
type UserStore interface {
	GetUserByPhone(ctx context.Context, phone string) (*UserAccount, error)
	GetUserByID(ctx context.Context, id int64) (*UserAccount, error)
	CreateUser(ctx context.Context, input CreateUserInput) (*UserAccount, error)
	UpdateUser(ctx context.Context, id int64, update UserUpdate) (*UserAccount, error)
}

// OtpRecord is the per-phone OTP ledger entry. One record exists per
// phone, reused across register, login and reset flows, and is never
// deleted. Seq is the optimistic-concurrency sequence number maintained
// by the store; UpdatedAt is refreshed on every write, including
// failure-path writes, and anchors expiry and day-bucket checks.
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

// OtpStore persists OtpRecords. The engine ships a Redis implementation;
// custom implementations must honor the sentinel contract: GetOtpByPhone
// returns ErrOtpNotFound when absent, CreateOtp returns ErrOtpExists when
// a record is already present, and UpdateOtp returns ErrOtpConflict when
// the stored sequence no longer equals expectedSeq.
type OtpStore interface {
	GetOtpByPhone(ctx context.Context, phone string) (*OtpRecord, error)
	CreateOtp(ctx context.Context, record *OtpRecord) error
	UpdateOtp(ctx context.Context, record *OtpRecord, expectedSeq uint64) (*OtpRecord, error)
}

// OtpSender delivers a raw one-time code out of band (SMS gateway or
// similar). The engine never returns the raw code to the caller.
type OtpSender interface {
	SendOtp(ctx context.Context, phone, code string) error
}

// OtpSenderFunc adapts a function to the OtpSender interface.
type OtpSenderFunc func(ctx context.Context, phone, code string) error

func (f OtpSenderFunc) SendOtp(ctx context.Context, phone, code string) error {
	return f(ctx, phone, code)
}

// OtpChallenge is returned by Register and ForgotPassword. RememberToken
// must be echoed back on verification to prove correlation with the code
// recipient.
type OtpChallenge struct {
	Phone         string
	RememberToken string
	Message       string
}

// OtpVerification is returned by VerifyOtp and VerifyOtpForReset.
// VerifyToken proves a completed verification to the following
// password-confirmation step.
type OtpVerification struct {
	Phone         string
	RememberToken string
	VerifyToken   string
}

// TokenPair is a freshly signed access/refresh token pair together with
// the lifetimes the transport layer should apply to cookies.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

// Session is returned by the operations that establish a session:
// ConfirmPassword, Login and ResetPassword.
type Session struct {
	UserID int64
	Phone  string
	Tokens TokenPair
}

// AuthResult is returned by Authenticate. Rotated is non-nil when the
// access token was minted from the refresh token, in which case the
// transport layer must replace both cookies.
type AuthResult struct {
	UserID  int64
	Rotated *TokenPair
}
