package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	uc "tokenflows/internal/application/usecase"
	"tokenflows/internal/domain/chainerr"
)

type stubTransferer struct {
	calls int
	res   uc.TransferResult
	err   error
}

func (s *stubTransferer) Transfer(_ context.Context, in uc.TransferInput) (uc.TransferResult, error) {
	s.calls++
	if s.err != nil {
		return uc.TransferResult{}, s.err
	}
	out := s.res
	out.Amount = in.Amount
	return out, nil
}

type stubBalances map[common.PublicKey]uint64

func (b stubBalances) TokenBalance(_ context.Context, account common.PublicKey) (uint64, error) {
	v, ok := b[account]
	if !ok {
		return 0, chainerr.Lookup("token_balance", errors.New("missing"))
	}
	return v, nil
}

func TestBuildTransferInput(t *testing.T) {
	signer := types.NewAccount()
	mint := types.NewAccount().PublicKey

	in, err := buildTransferInput(signer, transferOptions{Recipient: defaultRecipient, Amount: 1}, mint.ToBase58())
	require.NoError(t, err)
	assert.Equal(t, mint, in.Mint)
	assert.Equal(t, defaultRecipient, in.Recipient.ToBase58())
	assert.Equal(t, uint64(100), in.Amount)
	assert.Equal(t, signer.PublicKey, in.Sender.PublicKey)

	override := types.NewAccount().PublicKey
	in, err = buildTransferInput(signer, transferOptions{Mint: override.ToBase58(), Recipient: defaultRecipient, Amount: 3}, mint.ToBase58())
	require.NoError(t, err)
	assert.Equal(t, override, in.Mint)
	assert.Equal(t, uint64(300), in.Amount)
}

func TestBuildTransferInput_Invalid(t *testing.T) {
	signer := types.NewAccount()
	mint := types.NewAccount().PublicKey.ToBase58()

	tests := []struct {
		name string
		opts transferOptions
		mint string
		kind error
	}{
		{"mint unset", transferOptions{Recipient: defaultRecipient, Amount: 1}, "", chainerr.ErrAddressResolution},
		{"bad recipient", transferOptions{Recipient: "not-base58!", Amount: 1}, mint, chainerr.ErrAddressResolution},
		{"amount overflow", transferOptions{Recipient: defaultRecipient, Amount: ^uint64(0)}, mint, chainerr.ErrConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildTransferInput(signer, tt.opts, tt.mint)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestExecuteTransfer_PrintsLinksAndBalances(t *testing.T) {
	signer := types.NewAccount()
	src := types.NewAccount().PublicKey
	dst := types.NewAccount().PublicKey
	tr := &stubTransferer{res: uc.TransferResult{
		Signature:    "sig-ok",
		ExplorerLink: "https://explorer.solana.com/tx/sig-ok?cluster=devnet",
		Source:       uc.TokenAccount{Address: src},
		Destination:  uc.TokenAccount{Address: dst, Created: true},
	}}
	in := uc.TransferInput{Sender: signer, Recipient: types.NewAccount().PublicKey, Amount: 100}

	var out bytes.Buffer
	err := executeTransfer(context.Background(), tr, stubBalances{src: 900, dst: 100}, in, "devnet", &out, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 1, tr.calls)

	s := out.String()
	assert.Contains(t, s, "Signer: "+signer.PublicKey.ToBase58())
	assert.Contains(t, s, src.ToBase58())
	assert.Contains(t, s, dst.ToBase58())
	assert.Contains(t, s, "https://explorer.solana.com/tx/sig-ok?cluster=devnet")
	assert.Contains(t, s, "Source balance:      900")
	assert.Contains(t, s, "Destination balance: 100")
}

func TestExecuteTransfer_BalanceReadFailureIsNotFatal(t *testing.T) {
	tr := &stubTransferer{res: uc.TransferResult{Signature: "sig-ok"}}
	in := uc.TransferInput{Sender: types.NewAccount(), Recipient: types.NewAccount().PublicKey, Amount: 100}

	var out bytes.Buffer
	err := executeTransfer(context.Background(), tr, stubBalances{}, in, "devnet", &out, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.NotContains(t, out.String(), "balance")
}

func TestExecuteTransfer_FailurePropagates(t *testing.T) {
	cause := chainerr.Timeout("transfer", errors.New("not confirmed"))
	tr := &stubTransferer{err: cause}
	in := uc.TransferInput{Sender: types.NewAccount(), Recipient: types.NewAccount().PublicKey, Amount: 100}

	var out bytes.Buffer
	err := executeTransfer(context.Background(), tr, stubBalances{}, in, "devnet", &out, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, chainerr.ErrConfirmationTimeout)
	assert.NotContains(t, out.String(), "Transaction:")
}
