package phoneauth

import (
	"errors"
	"time"
)

// Config groups every tunable of the engine. Zero values are filled from
// defaultConfig by the Builder; Build rejects configurations that would
// weaken the protocol (missing keys, non-positive windows).
type Config struct {
	JWT      JWTConfig
	OTP      OTPConfig
	Password PasswordConfig
	Account  AccountConfig
	Throttle ThrottleConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

// JWTConfig controls the token codec.
//
// RefreshTTL applies to the refresh token granted at login, registration
// and password reset. RotatedRefreshTTL applies to the replacement token
// minted during Authenticate. The original service grants 30 days on
// issuance but only 24 hours on rotation; the asymmetry is preserved
// deliberately.
type JWTConfig struct {
	SigningMethod     string // "hs256" or "ed25519"
	PrivateKey        []byte
	PublicKey         []byte
	Issuer            string
	AccessTTL         time.Duration
	RefreshTTL        time.Duration
	RotatedRefreshTTL time.Duration
	Leeway            time.Duration
}

// OTPConfig controls the OTP lifecycle engine.
//
// RegisterDailyLimit caps issuance on the register path at 3/day while
// ResetDailyLimit caps forgot-password at 4/day; the asymmetry comes from
// the original service and is intentional.
type OTPConfig struct {
	Digits             int
	VerifyWindow       time.Duration // OTP accepted within this window of issuance
	ConsumeWindow      time.Duration // verifyToken accepted within this window of verification
	ErrorCeiling       int           // same-day wrong attempts before the record blocks
	RegisterDailyLimit int
	ResetDailyLimit    int
	RedisPrefix        string
}

// PasswordConfig holds the argon2id parameters used for both account
// passwords and stored OTP hashes. PinLength is the exact number of
// digits a password must have.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	PinLength   int
}

// AccountConfig controls the login failure guard. An account freezes on
// the failure that finds ErrorLoginCount already at FreezeThreshold
// within the same calendar day.
type AccountConfig struct {
	FreezeThreshold int
}

// ThrottleConfig controls the per-IP fixed-window request throttle used
// by the middleware layer.
type ThrottleConfig struct {
	Enabled     bool
	Window      time.Duration
	MaxRequests int
	RedisPrefix string
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			SigningMethod:     "ed25519",
			AccessTTL:         2 * time.Minute,
			RefreshTTL:        30 * 24 * time.Hour,
			RotatedRefreshTTL: 24 * time.Hour,
			Leeway:            0,
		},
		OTP: OTPConfig{
			Digits:             6,
			VerifyWindow:       2 * time.Minute,
			ConsumeWindow:      10 * time.Minute,
			ErrorCeiling:       5,
			RegisterDailyLimit: 3,
			ResetDailyLimit:    4,
			RedisPrefix:        "po",
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
			PinLength:   8,
		},
		Account: AccountConfig{
			FreezeThreshold: 2,
		},
		Throttle: ThrottleConfig{
			Enabled:     true,
			Window:      time.Minute,
			MaxRequests: 15,
			RedisPrefix: "prt",
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func validateConfig(cfg Config) error {
	if cfg.JWT.AccessTTL <= 0 || cfg.JWT.RefreshTTL <= 0 || cfg.JWT.RotatedRefreshTTL <= 0 {
		return errors.New("jwt ttls must be positive")
	}
	if cfg.OTP.Digits < 4 || cfg.OTP.Digits > 10 {
		return errors.New("otp digits must be between 4 and 10")
	}
	if cfg.OTP.VerifyWindow <= 0 || cfg.OTP.ConsumeWindow <= 0 {
		return errors.New("otp windows must be positive")
	}
	if cfg.OTP.ErrorCeiling <= 0 {
		return errors.New("otp error ceiling must be positive")
	}
	if cfg.OTP.RegisterDailyLimit <= 0 || cfg.OTP.ResetDailyLimit <= 0 {
		return errors.New("otp daily limits must be positive")
	}
	if cfg.Account.FreezeThreshold <= 0 {
		return errors.New("freeze threshold must be positive")
	}
	if cfg.Password.PinLength <= 0 {
		return errors.New("password pin length must be positive")
	}
	if cfg.Throttle.Enabled && (cfg.Throttle.Window <= 0 || cfg.Throttle.MaxRequests <= 0) {
		return errors.New("throttle window and max requests must be positive")
	}
	return nil
}
