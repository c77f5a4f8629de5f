package phoneauth

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the stable machine-readable classification of an engine failure.
type Kind string

const (
	KindValidation        Kind = "VALIDATION"
	KindAlreadyRegistered Kind = "ALREADY_REGISTERED"
	KindNotRegistered     Kind = "NOT_REGISTERED"
	KindOtpRequestLimit   Kind = "OTP_REQUEST_LIMIT"
	KindOtpOverLimit      Kind = "OTP_OVER_LIMIT"
	KindOtpExpired        Kind = "OTP_EXPIRED"
	KindOtpIncorrect      Kind = "OTP_INCORRECT"
	KindInvalidToken      Kind = "INVALID_TOKEN"
	KindRequestAttack     Kind = "REQUEST_ATTACK"
	KindRequestExpired    Kind = "REQUEST_EXPIRED"
	KindAccountFrozen     Kind = "ACCOUNT_FROZEN"
	KindWrongPassword     Kind = "WRONG_PASSWORD"
	KindUnauthenticated   Kind = "UNAUTHENTICATED"
	KindUnauthorized      Kind = "UNAUTHORIZED"
	KindPhoneNotVerified  Kind = "PHONE_NOT_VERIFIED"
	KindServer            Kind = "SERVER"
)

// Error is the failure type returned by every engine operation. Sentinel
// instances below are comparable with errors.Is; Status is an HTTP-style
// code for the transport layer, Kind is stable across releases.
type Error struct {
	Kind    Kind
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// AsError unwraps err into the engine failure taxonomy. Transport layers
// use it to map any engine error onto a status code and kind.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

var (
	ErrInvalidPhone = &Error{Kind: KindValidation, Status: http.StatusBadRequest, Message: "the phone number is invalid"}

	ErrInvalidOtp = &Error{Kind: KindValidation, Status: http.StatusBadRequest, Message: "the otp is invalid"}

	ErrInvalidPassword = &Error{Kind: KindValidation, Status: http.StatusBadRequest, Message: "password must be 8 digits"}

	ErrAlreadyRegistered = &Error{Kind: KindAlreadyRegistered, Status: http.StatusConflict, Message: "user is already registered"}

	ErrNotRegistered = &Error{Kind: KindNotRegistered, Status: http.StatusUnauthorized, Message: "this phone number is not registered"}

	// ErrPhoneNotFound reports a phone with no OTP record at all. The
	// original service classifies it as a plain invalid-input failure.
	ErrPhoneNotFound = &Error{Kind: KindValidation, Status: http.StatusBadRequest, Message: "the phone number is incorrect or does not exist"}

	ErrOtpRequestLimit = &Error{Kind: KindOtpRequestLimit, Status: http.StatusTooManyRequests, Message: "otp request limit reached, try again tomorrow"}

	ErrOtpOverLimit = &Error{Kind: KindOtpOverLimit, Status: http.StatusUnauthorized, Message: "too many incorrect otp attempts, try again tomorrow"}

	ErrOtpExpired = &Error{Kind: KindOtpExpired, Status: http.StatusForbidden, Message: "otp has expired"}

	ErrOtpIncorrect = &Error{Kind: KindOtpIncorrect, Status: http.StatusUnauthorized, Message: "incorrect otp"}

	ErrInvalidToken = &Error{Kind: KindInvalidToken, Status: http.StatusBadRequest, Message: "invalid verification token"}

	ErrRequestAttack = &Error{Kind: KindRequestAttack, Status: http.StatusBadRequest, Message: "suspicious request detected"}

	ErrRequestExpired = &Error{Kind: KindRequestExpired, Status: http.StatusForbidden, Message: "request has expired, please start over"}

	ErrAccountFrozen = &Error{Kind: KindAccountFrozen, Status: http.StatusForbidden, Message: "account is temporarily frozen, contact support"}

	ErrWrongPassword = &Error{Kind: KindWrongPassword, Status: http.StatusUnauthorized, Message: "incorrect password"}

	ErrUnauthenticated = &Error{Kind: KindUnauthenticated, Status: http.StatusUnauthorized, Message: "authentication required"}

	ErrUnauthorized = &Error{Kind: KindUnauthorized, Status: http.StatusForbidden, Message: "not authorized to perform this action"}

	ErrPhoneNotVerified = &Error{Kind: KindPhoneNotVerified, Status: http.StatusBadRequest, Message: "phone number has not been verified"}

	// ErrServer covers store and dependency failures. Transient backend
	// errors are deliberately not distinguished from logic failures.
	ErrServer = &Error{Kind: KindServer, Status: http.StatusInternalServerError, Message: "internal server error"}

	ErrThrottled = &Error{Kind: KindValidation, Status: http.StatusTooManyRequests, Message: "too many requests"}
)

// Store-level sentinels. Custom UserStore and OtpStore implementations
// must return these so the engine can classify lookups and conflicts.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrOtpNotFound  = errors.New("otp record not found")
	ErrOtpExists    = errors.New("otp record already exists")
	ErrOtpConflict  = errors.New("otp record modified concurrently")
)

func serverError(err error) error {
	return fmt.Errorf("%w: %v", ErrServer, err)
}
