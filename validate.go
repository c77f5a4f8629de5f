package phoneauth

import "strings"

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// normalizePhone validates the raw input and returns the canonical
// subscriber number: the national "09" trunk prefix, when present, is
// stripped so "09778899001" and "778899001" address the same account.
func normalizePhone(raw string) (string, error) {
	phone := strings.TrimSpace(raw)
	if !allDigits(phone) || len(phone) < 5 || len(phone) > 15 {
		return "", ErrInvalidPhone
	}
	if strings.HasPrefix(phone, "09") {
		phone = phone[2:]
	}
	return phone, nil
}

func (e *Engine) validateOtpInput(otp string) error {
	if !allDigits(otp) || len(otp) != e.config.OTP.Digits {
		return ErrInvalidOtp
	}
	return nil
}

// validatePin enforces the numeric PIN shape used as the account
// password: exactly PinLength digits.
func (e *Engine) validatePin(pin string) error {
	if !allDigits(pin) || len(pin) != e.config.Password.PinLength {
		return ErrInvalidPassword
	}
	return nil
}
