package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"tokenflows/internal/adapters/out/memory"
	"tokenflows/internal/domain/chainerr"
	"tokenflows/internal/domain/submission"
)

func TestMinorUnits(t *testing.T) {
	got, err := MinorUnits(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), got)

	got, err = MinorUnits(0)
	require.NoError(t, err)
	assert.Zero(t, got)

	_, err = MinorUnits(^uint64(0) / 10)
	assert.ErrorIs(t, err, ErrTransferAmountOverflow)
	assert.ErrorIs(t, err, chainerr.ErrConfiguration)
}

func TestTransfer_CreatesDestinationAndMovesOneToken(t *testing.T) {
	ctx := context.Background()
	chain := newFakeChain()
	ledger := memory.NewSubmissionRepositoryMem()
	log := zaptest.NewLogger(t)
	uc := NewTransferUsecase(chain, chain, NewSubmissionRecorder(ledger, log), "devnet", log)

	sender := types.NewAccount()
	recipient := types.NewAccount().PublicKey
	mint := types.NewAccount().PublicKey
	chain.fund(sender.PublicKey, mint, 1000)

	amount, err := MinorUnits(1)
	require.NoError(t, err)

	res, err := uc.Transfer(ctx, TransferInput{Sender: sender, Mint: mint, Recipient: recipient, Amount: amount})
	require.NoError(t, err)

	assert.False(t, res.Source.Created)
	assert.True(t, res.Destination.Created)
	assert.Equal(t, uint64(100), res.Amount)
	assert.Equal(t, "https://explorer.solana.com/tx/"+res.Signature+"?cluster=devnet", res.ExplorerLink)

	assert.Equal(t, uint64(900), chain.balanceOf(sender.PublicKey, mint))
	assert.Equal(t, uint64(100), chain.balanceOf(recipient, mint))
	assert.Equal(t, 1, chain.creates)
	assert.Equal(t, 1, chain.transfers)

	entries := ledger.All()
	require.Len(t, entries, 2)
	flows := []submission.Flow{entries[0].Flow, entries[1].Flow}
	assert.ElementsMatch(t, []submission.Flow{submission.FlowCreateATA, submission.FlowTransfer}, flows)
	for _, e := range entries {
		assert.Equal(t, submission.StatusSucceeded, e.Status)
	}
}

func TestTransfer_SecondRunReusesAccounts(t *testing.T) {
	ctx := context.Background()
	chain := newFakeChain()
	uc := NewTransferUsecase(chain, chain, nil, "devnet", zaptest.NewLogger(t))

	sender := types.NewAccount()
	recipient := types.NewAccount().PublicKey
	mint := types.NewAccount().PublicKey
	chain.fund(sender.PublicKey, mint, 1000)

	in := TransferInput{Sender: sender, Mint: mint, Recipient: recipient, Amount: 100}
	first, err := uc.Transfer(ctx, in)
	require.NoError(t, err)
	second, err := uc.Transfer(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, first.Destination.Address, second.Destination.Address)
	assert.False(t, second.Destination.Created)
	assert.Equal(t, 1, chain.creates)

	src := chain.balanceOf(sender.PublicKey, mint)
	dst := chain.balanceOf(recipient, mint)
	assert.Equal(t, uint64(800), src)
	assert.Equal(t, uint64(200), dst)
	assert.Equal(t, uint64(1000), src+dst)
}

func TestTransfer_ZeroAmount(t *testing.T) {
	chain := newFakeChain()
	uc := NewTransferUsecase(chain, chain, nil, "devnet", zaptest.NewLogger(t))

	_, err := uc.Transfer(context.Background(), TransferInput{
		Sender: types.NewAccount(), Mint: types.NewAccount().PublicKey, Recipient: types.NewAccount().PublicKey,
	})
	assert.ErrorIs(t, err, ErrTransferAmountZero)
	assert.Zero(t, chain.creates)
}

func TestTransfer_LookupFailureStopsBeforeSubmit(t *testing.T) {
	chain := newFakeChain()
	chain.lookupErr = chainerr.Lookup("get_token_account", errors.New("rpc down"))
	uc := NewTransferUsecase(chain, chain, nil, "devnet", zaptest.NewLogger(t))

	_, err := uc.Transfer(context.Background(), TransferInput{
		Sender: types.NewAccount(), Mint: types.NewAccount().PublicKey, Recipient: types.NewAccount().PublicKey, Amount: 100,
	})
	assert.ErrorIs(t, err, chainerr.ErrAccountLookup)
	assert.Zero(t, chain.transfers)
}

func TestTransfer_SubmissionFailureIsRecorded(t *testing.T) {
	ctx := context.Background()
	chain := newFakeChain()
	chain.transferErr = chainerr.Timeout("transfer", errors.New("not confirmed"))
	ledger := memory.NewSubmissionRepositoryMem()
	log := zaptest.NewLogger(t)
	uc := NewTransferUsecase(chain, chain, NewSubmissionRecorder(ledger, log), "devnet", log)

	sender := types.NewAccount()
	mint := types.NewAccount().PublicKey
	chain.fund(sender.PublicKey, mint, 1000)
	recipient := types.NewAccount().PublicKey
	chain.fund(recipient, mint, 0)

	_, err := uc.Transfer(ctx, TransferInput{Sender: sender, Mint: mint, Recipient: recipient, Amount: 100})
	require.Error(t, err)
	assert.ErrorIs(t, err, chainerr.ErrConfirmationTimeout)

	entries, err := ledger.ListByMint(ctx, mint.ToBase58(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, submission.FlowTransfer, e.Flow)
	assert.Equal(t, submission.StatusFailed, e.Status)
	require.NotNil(t, e.ErrorType)
	assert.Equal(t, submission.ErrorTypeConfirmationTimeout, *e.ErrorType)
	require.NotNil(t, e.Signature)
	assert.Equal(t, "sig-failed", *e.Signature)
}
