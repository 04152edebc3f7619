package solana

import (
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenflows/internal/domain/chainerr"
)

func TestParsePublicKey(t *testing.T) {
	acc := types.NewAccount()

	got, err := ParsePublicKey("mint", " "+acc.PublicKey.ToBase58()+" ")
	require.NoError(t, err)
	assert.Equal(t, acc.PublicKey, got)

	tests := []struct {
		name string
		in   string
		want error
	}{
		{"empty", "  ", ErrAddressEmpty},
		{"not base58", "0OIl", nil},
		{"wrong size", "3yZe7d", ErrAddressBadSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePublicKey("recipient", tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, chainerr.ErrAddressResolution)
			assert.Equal(t, chainerr.KindAddressResolution, chainerr.KindOf(err))
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestFindMetadataAddress_MatchesProgramDerivation(t *testing.T) {
	mint := types.NewAccount().PublicKey

	got, err := FindMetadataAddress(mint)
	require.NoError(t, err)

	want, err := token_metadata.GetTokenMetaPubkey(mint)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	again, err := FindMetadataAddress(mint)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestFindTokenAccountAddress(t *testing.T) {
	owner := types.NewAccount().PublicKey
	mint := types.NewAccount().PublicKey

	got, err := FindTokenAccountAddress(owner, mint)
	require.NoError(t, err)

	want, _, err := common.FindAssociatedTokenAddress(owner, mint)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	other, err := FindTokenAccountAddress(types.NewAccount().PublicKey, mint)
	require.NoError(t, err)
	assert.NotEqual(t, got, other)
}

func TestMaskShort(t *testing.T) {
	assert.Equal(t, "", maskShort("  "))
	assert.Equal(t, "short", maskShort("short"))
	assert.Equal(t, "GPgk***4Fz9", maskShort("GPgkJv33mptgSzCaBRU1wvg66u3nPhSU2AQNnrxN4Fz9"))
}
