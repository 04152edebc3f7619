package solana

import (
	"context"
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	usecase "tokenflows/internal/application/usecase"
	"tokenflows/internal/domain/chainerr"
	tmdom "tokenflows/internal/domain/tokenMetadata"
)

func newTestMetadataExecutor(t *testing.T, rpc *fakeRPC) *MetadataExecutorSolana {
	return NewMetadataExecutorSolana(rpc, newTestSubmitter(t, rpc), zaptest.NewLogger(t))
}

func testPayload() tmdom.Payload {
	return tmdom.Payload{
		Name:      "Chinaza Solana Token",
		Symbol:    "chinaza",
		URI:       "https://arweave.net/1234",
		IsMutable: true,
	}
}

func TestReadMetadata_Absent(t *testing.T) {
	rpc := newFakeRPC()
	mint := types.NewAccount().PublicKey

	snap, err := newTestMetadataExecutor(t, rpc).ReadMetadata(context.Background(), mint)
	require.NoError(t, err)
	assert.Nil(t, snap.Record)
	assert.Equal(t, tmdom.StateNoMetadata, snap.State())

	pda, err := FindMetadataAddress(mint)
	require.NoError(t, err)
	assert.Equal(t, pda, snap.Address)
}

func TestReadMetadata_Present(t *testing.T) {
	rpc := newFakeRPC()
	authority := types.NewAccount().PublicKey
	mint := types.NewAccount().PublicKey
	pda, err := FindMetadataAddress(mint)
	require.NoError(t, err)
	rpc.put(pda, metadataAccountData(t, authority, mint, "Old Name", "OLD", "https://example.com/old.json", 250))

	snap, err := newTestMetadataExecutor(t, rpc).ReadMetadata(context.Background(), mint)
	require.NoError(t, err)
	require.NotNil(t, snap.Record)
	assert.Equal(t, tmdom.StateMetadataExists, snap.State())
	assert.Equal(t, pda.ToBase58(), snap.Record.Address)
	assert.Equal(t, mint.ToBase58(), snap.Record.Mint)
	assert.Equal(t, authority.ToBase58(), snap.Record.UpdateAuthority)
	assert.Equal(t, "Old Name", snap.Record.Payload.Name)
	assert.Equal(t, "OLD", snap.Record.Payload.Symbol)
	assert.Equal(t, "https://example.com/old.json", snap.Record.Payload.URI)
	assert.Equal(t, uint16(250), snap.Record.Payload.SellerFeeBasisPoints)
	assert.True(t, snap.Record.Payload.IsMutable)
}

func TestReadMetadata_Errors(t *testing.T) {
	mint := types.NewAccount().PublicKey
	pda, err := FindMetadataAddress(mint)
	require.NoError(t, err)

	rpc := newFakeRPC()
	rpc.getErr = errRPCDown
	_, err = newTestMetadataExecutor(t, rpc).ReadMetadata(context.Background(), mint)
	assert.ErrorIs(t, err, chainerr.ErrAccountLookup)

	rpc = newFakeRPC()
	rpc.put(pda, metadataAccountData(t, mint, types.NewAccount().PublicKey, "x", "x", "x", 0))
	_, err = newTestMetadataExecutor(t, rpc).ReadMetadata(context.Background(), mint)
	assert.ErrorIs(t, err, ErrMetadataAddressMismatch)
}

func TestCreateMetadata_SendsV3(t *testing.T) {
	rpc := newFakeRPC()
	authority := types.NewAccount()
	mint := types.NewAccount().PublicKey
	pda, err := FindMetadataAddress(mint)
	require.NoError(t, err)

	sig, err := newTestMetadataExecutor(t, rpc).CreateMetadata(context.Background(), usecase.MetadataWriteInput{
		Mint:            mint,
		MetadataAddress: pda,
		Authority:       authority,
		Payload:         testPayload(),
	})
	require.NoError(t, err)
	assert.Equal(t, "sig-1", sig)

	msg := rpc.sent[0].Message
	require.Len(t, msg.Instructions, 1)
	ix := msg.Instructions[0]
	assert.Equal(t, common.MetaplexTokenMetaProgramID, msg.Accounts[ix.ProgramIDIndex])
	assert.Equal(t, byte(33), ix.Data[0], "CreateMetadataAccountV3")
	assert.Equal(t, authority.PublicKey, msg.Accounts[0], "authority pays")
}

func TestBuildUpdateMetadataInstruction(t *testing.T) {
	authority := types.NewAccount()
	mint := types.NewAccount().PublicKey
	pda, err := FindMetadataAddress(mint)
	require.NoError(t, err)

	p := testPayload()
	ix := BuildUpdateMetadataInstruction(usecase.MetadataWriteInput{
		Mint:            mint,
		MetadataAddress: pda,
		Authority:       authority,
		Payload:         p,
	})

	assert.Equal(t, common.MetaplexTokenMetaProgramID, ix.ProgramID)
	require.Len(t, ix.Accounts, 2)
	assert.Equal(t, types.AccountMeta{PubKey: pda, IsSigner: false, IsWritable: true}, ix.Accounts[0])
	assert.Equal(t, types.AccountMeta{PubKey: authority.PublicKey, IsSigner: true, IsWritable: false}, ix.Accounts[1])

	// discriminator, Some(data), u32 name length, name bytes
	require.Greater(t, len(ix.Data), 6+len(p.Name))
	assert.Equal(t, byte(15), ix.Data[0])
	assert.Equal(t, byte(1), ix.Data[1])
	assert.Equal(t, []byte{byte(len(p.Name)), 0, 0, 0}, ix.Data[2:6])
	assert.Equal(t, p.Name, string(ix.Data[6:6+len(p.Name)]))

	// ... None creators/collection/uses, Some(authority), None primary sale, Some(isMutable)
	n := len(ix.Data)
	assert.Equal(t, []byte{0, 0, 0, 1}, ix.Data[n-39:n-35])
	assert.Equal(t, authority.PublicKey.Bytes(), ix.Data[n-35:n-3])
	assert.Equal(t, []byte{0, 1, 1}, ix.Data[n-3:])
}

func TestUpdateMetadata_Sends(t *testing.T) {
	rpc := newFakeRPC()
	authority := types.NewAccount()
	mint := types.NewAccount().PublicKey
	pda, err := FindMetadataAddress(mint)
	require.NoError(t, err)

	sig, err := newTestMetadataExecutor(t, rpc).UpdateMetadata(context.Background(), usecase.MetadataWriteInput{
		Mint:            mint,
		MetadataAddress: pda,
		Authority:       authority,
		Payload:         testPayload(),
	})
	require.NoError(t, err)
	assert.Equal(t, "sig-1", sig)
	assert.Equal(t, byte(15), rpc.sent[0].Message.Instructions[0].Data[0])
}

func TestTrimPadding(t *testing.T) {
	assert.Equal(t, "abc", trimPadding("abc\x00\x00\x00"))
	assert.Equal(t, "", trimPadding("\x00\x00"))
}
