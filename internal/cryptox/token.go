package cryptox

import "github.com/moroccanspectacle/Elysian-Vault-sub001/internal/common"

const shareTokenBytes = 32

// NewShareToken mints a 256-bit bearer token from the CSPRNG, hex encoded.
// The token is the sole credential for redemption, so its entropy is the
// whole security story.
func NewShareToken() (string, error) {
	return common.MakeRandHexString(shareTokenBytes)
}
