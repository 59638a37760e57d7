package utils

import (
	"crypto/rand" // secure random number generation
	"math/big"
	"strconv"
	"time"
)

// OTPTTL is how long a freshly issued verification code stays valid.
const OTPTTL = 10 * time.Minute

// GenerateOTP returns a 6-digit numeric verification code drawn uniformly
// from 100000-999999.  Codes are stored per user, so collisions across
// accounts are harmless and no retry logic is needed.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}

// OTPExpiry returns the expiration timestamp for a code issued now.
func OTPExpiry() time.Time {
	return time.Now().UTC().Add(OTPTTL)
}
