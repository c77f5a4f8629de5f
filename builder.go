package phoneauth

import (
	"errors"
	"time"

	"github.com/aungsithu-dev/phoneauth/internal/audit"
	"github.com/aungsithu-dev/phoneauth/internal/limiters"
	"github.com/aungsithu-dev/phoneauth/internal/metrics"
	"github.com/aungsithu-dev/phoneauth/internal/stores"
	"github.com/aungsithu-dev/phoneauth/jwt"
	"github.com/aungsithu-dev/phoneauth/password"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an Engine. A single Builder builds a single Engine.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	userStore UserStore
	otpStore  OtpStore
	otpSender OtpSender
	auditSink AuditSink
	clock     func() time.Time

	built bool
}

// New returns a Builder seeded with the default configuration.
func New() *Builder {
	return &Builder{config: defaultConfig()}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis supplies the Redis client backing the OTP ledger and the
// request throttle.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserStore supplies the consumer's user database integration.
// Required.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.userStore = store
	return b
}

// WithOtpStore replaces the built-in Redis OTP ledger with a custom
// implementation.
func (b *Builder) WithOtpStore(store OtpStore) *Builder {
	b.otpStore = store
	return b
}

// WithOtpSender supplies the out-of-band code delivery hook (SMS
// gateway). When unset, codes are stored but not delivered anywhere.
func (b *Builder) WithOtpSender(sender OtpSender) *Builder {
	b.otpSender = sender
	return b
}

// WithAuditSink supplies the destination for audit events.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock overrides the engine's time source. Intended for tests.
func (b *Builder) WithClock(clock func() time.Time) *Builder {
	b.clock = clock
	return b
}

// Build validates the configuration, wires the internals and returns the
// Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	if err := validateConfig(b.config); err != nil {
		return nil, err
	}
	if b.userStore == nil {
		return nil, errors.New("user store is required")
	}

	otpStore := b.otpStore
	if otpStore == nil {
		if b.redis == nil {
			return nil, errors.New("redis client or custom otp store is required")
		}
		otpStore = &redisOtpStore{inner: stores.NewOtpStore(b.redis, b.config.OTP.RedisPrefix)}
	}

	var throttle *limiters.RequestThrottle
	if b.config.Throttle.Enabled {
		if b.redis == nil {
			return nil, errors.New("request throttling requires a redis client")
		}
		throttle = limiters.NewRequestThrottle(b.redis, b.config.Throttle.RedisPrefix, limiters.RequestThrottleConfig{
			Window:      b.config.Throttle.Window,
			MaxRequests: b.config.Throttle.MaxRequests,
		})
	}

	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	jwtManager, err := jwt.NewManager(jwt.Config{
		SigningMethod: jwt.SigningMethod(b.config.JWT.SigningMethod),
		PrivateKey:    b.config.JWT.PrivateKey,
		PublicKey:     b.config.JWT.PublicKey,
		Issuer:        b.config.JWT.Issuer,
		Leeway:        b.config.JWT.Leeway,
		TimeFunc:      clock,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(password.Config{
		Memory:      b.config.Password.Memory,
		Time:        b.config.Password.Time,
		Parallelism: b.config.Password.Parallelism,
		SaltLength:  b.config.Password.SaltLength,
		KeyLength:   b.config.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	b.built = true

	return &Engine{
		config:     b.config,
		userStore:  b.userStore,
		otpStore:   otpStore,
		otpSender:  b.otpSender,
		jwtManager: jwtManager,
		hasher:     hasher,
		throttle:   throttle,
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    b.config.Audit.Enabled,
			BufferSize: b.config.Audit.BufferSize,
			DropIfFull: b.config.Audit.DropIfFull,
		}, b.auditSink),
		metrics: metrics.New(b.config.Metrics.Enabled),
		now:     clock,
	}, nil
}
