package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// Accounts uses the common 30 second, 6 digit, SHA1 TOTP profile.
func totpOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    6,
		Algorithm: otp.AlgorithmSHA1,
	}
}

func normalizeSecret(secret string) string {
	return strings.ToUpper(strings.ReplaceAll(secret, " ", ""))
}

// VerificationCode returns the current sign-in verification code for an
// account with two-step sign-in enabled.
func VerificationCode(secret string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("totp secret cannot be empty")
	}
	passcode, err := totp.GenerateCodeCustom(normalizeSecret(secret), time.Now().UTC(), totpOpts())
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	return passcode, nil
}

// ValidateCode reports whether passcode is currently valid for secret.
func ValidateCode(passcode, secret string) (bool, error) {
	if secret == "" {
		return false, fmt.Errorf("totp secret cannot be empty")
	}
	if passcode == "" {
		return false, fmt.Errorf("passcode cannot be empty")
	}
	valid, err := totp.ValidateCustom(passcode, normalizeSecret(secret), time.Now().UTC(), totpOpts())
	if err != nil {
		return false, fmt.Errorf("failed to validate verification code: %w", err)
	}
	return valid, nil
}
