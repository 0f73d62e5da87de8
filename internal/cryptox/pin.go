package cryptox

import (
	"crypto/subtle"

	"golang.org/x/crypto/argon2"

	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/common"
)

const pinSaltSize = 16

// NewPinSalt returns a fresh random salt for a vault PIN.
func NewPinSalt() []byte {
	return common.GenerateRandByteArray(pinSaltSize)
}

// HashPin derives a slow, salted hash of the PIN with Argon2id. The PIN
// itself is never stored or logged.
func HashPin(pin string, salt []byte) []byte {
	return argon2.IDKey([]byte(pin), salt, 1, 64*1024, 4, 32)
}

// VerifyPin rehashes the candidate PIN and compares in constant time.
func VerifyPin(pin string, salt, hash []byte) bool {
	candidate := HashPin(pin, salt)
	defer common.WipeByteArray(candidate)
	return subtle.ConstantTimeCompare(candidate, hash) == 1
}

// ValidPinFormat reports whether pin is exactly six ASCII digits.
func ValidPinFormat(pin string) bool {
	if len(pin) != common.PinLength {
		return false
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
