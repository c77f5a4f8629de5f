// Package phoneauth is an embeddable phone-number/OTP authentication and
// session engine.
//
// The engine owns the OTP issuance/verification state machine, the
// per-phone daily request and error counters, the account freeze guard,
// and the access/refresh bearer-token rotation protocol. It does not own
// HTTP routing, SMS delivery, or user persistence: callers provide a
// UserStore backed by their database, an optional OtpSender for
// out-of-band code delivery, and a Redis client for the OTP ledger and
// request throttling.
//
// A typical setup:
//
//	engine, err := phoneauth.New().
//		WithConfig(cfg).
//		WithRedis(rdb).
//		WithUserStore(store).
//		WithOtpSender(sender).
//		Build()
//
// Every operation returns either a success payload or a *Error carrying a
// stable machine-readable kind and an HTTP-style status code for the
// transport layer to map.
package phoneauth
