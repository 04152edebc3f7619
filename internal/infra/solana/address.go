// internal/infra/solana/address.go
package solana

import (
	"errors"
	"fmt"
	"strings"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/mr-tron/base58"

	"tokenflows/internal/domain/chainerr"
)

const (
	// Metaplex token-metadata PDA seed prefix.
	metadataSeed = "metadata"

	publicKeyLength = 32
)

var (
	ErrAddressEmpty   = errors.New("address is empty")
	ErrAddressBadSize = errors.New("address must decode to 32 bytes")
)

// ParsePublicKey decodes a base58 address strictly.
// common.PublicKeyFromString does not report malformed input, so decoding goes through base58 first.
func ParsePublicKey(field, s string) (common.PublicKey, error) {
	op := "parse_" + field
	v := strings.TrimSpace(s)
	if v == "" {
		return common.PublicKey{}, chainerr.Address(op, ErrAddressEmpty)
	}
	b, err := base58.Decode(v)
	if err != nil {
		return common.PublicKey{}, chainerr.Address(op, fmt.Errorf("%q: %w", v, err))
	}
	if len(b) != publicKeyLength {
		return common.PublicKey{}, chainerr.Address(op, fmt.Errorf("%w: %q has %d", ErrAddressBadSize, v, len(b)))
	}
	return common.PublicKeyFromBytes(b), nil
}

// FindTokenAccountAddress derives the associated token account of (owner, mint).
func FindTokenAccountAddress(owner, mint common.PublicKey) (common.PublicKey, error) {
	ata, _, err := common.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return common.PublicKey{}, chainerr.Address("derive_ata", err)
	}
	return ata, nil
}

// FindMetadataAddress derives the metadata record PDA:
// seeds "metadata" ‖ token-metadata program id ‖ mint, owned by the token-metadata program.
func FindMetadataAddress(mint common.PublicKey) (common.PublicKey, error) {
	pda, _, err := common.FindProgramAddress(
		[][]byte{
			[]byte(metadataSeed),
			common.MetaplexTokenMetaProgramID.Bytes(),
			mint.Bytes(),
		},
		common.MetaplexTokenMetaProgramID,
	)
	if err != nil {
		return common.PublicKey{}, chainerr.Address("derive_metadata_pda", err)
	}
	return pda, nil
}

func maskShort(s string) string {
	t := strings.TrimSpace(s)
	if t == "" {
		return ""
	}
	if len(t) <= 10 {
		return t
	}
	return t[:4] + "***" + t[len(t)-4:]
}
