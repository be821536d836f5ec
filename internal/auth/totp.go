package auth

import (
	"github.com/pquerna/otp/totp"
)

const totpIssuer = "ATMP"

// GenerateEnrollment creates a fresh TOTP secret for the account and returns
// the secret plus the otpauth:// provisioning URL for authenticator apps.
// The device only gates login once confirmed with a first valid code.
func GenerateEnrollment(email string) (secret, url string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: email,
	})
	if err != nil {
		return "", "", err
	}
	return key.Secret(), key.URL(), nil
}

// VerifyCode checks a 6-digit code against the stored secret.
func VerifyCode(secret, code string) bool {
	return totp.Validate(code, secret)
}
