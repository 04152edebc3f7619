package solana

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"
	"github.com/near/borsh-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var testBlockhash = base58.Encode(bytes.Repeat([]byte{7}, 32))

// fakeRPC is an in-memory ledger. Sent transactions are confirmed on the next status poll
// unless statusErr / neverConfirm is set.
type fakeRPC struct {
	mu sync.Mutex

	accounts map[common.PublicKey]AccountInfo
	sent     []types.Transaction

	getErr       error
	sendErr      error
	statusErr    any
	neverConfirm bool

	// onSend runs after a transaction is accepted; tests use it to apply effects.
	onSend func(tx types.Transaction)
}

var _ RPC = (*fakeRPC)(nil)

func newFakeRPC() *fakeRPC {
	return &fakeRPC{accounts: map[common.PublicKey]AccountInfo{}}
}

func (f *fakeRPC) GetAccount(_ context.Context, address common.PublicKey) (AccountInfo, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return AccountInfo{}, false, f.getErr
	}
	info, ok := f.accounts[address]
	return info, ok, nil
}

func (f *fakeRPC) LatestBlockhash(context.Context) (string, error) {
	return testBlockhash, nil
}

func (f *fakeRPC) SendTransaction(_ context.Context, tx types.Transaction) (string, error) {
	f.mu.Lock()
	if f.sendErr != nil {
		f.mu.Unlock()
		return "", f.sendErr
	}
	f.sent = append(f.sent, tx)
	sig := fmt.Sprintf("sig-%d", len(f.sent))
	hook := f.onSend
	f.mu.Unlock()

	if hook != nil {
		hook(tx)
	}
	return sig, nil
}

func (f *fakeRPC) SignatureStatus(context.Context, string) (SignatureStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.neverConfirm {
		return SignatureStatus{}, nil
	}
	if f.statusErr != nil {
		return SignatureStatus{Found: true, ConfirmationStatus: CommitmentProcessed, Err: f.statusErr}, nil
	}
	return SignatureStatus{Found: true, ConfirmationStatus: CommitmentConfirmed}, nil
}

func (f *fakeRPC) put(address common.PublicKey, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[address] = AccountInfo{Lamports: 2039280, Data: data}
}

func (f *fakeRPC) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func newTestSubmitter(t *testing.T, r RPC) *Submitter {
	t.Helper()
	s := NewSubmitter(r, CommitmentConfirmed, time.Second, zaptest.NewLogger(t))
	s.PollInterval = time.Millisecond
	return s
}

// tokenAccountData encodes an initialized SPL token account (165 bytes).
func tokenAccountData(mint, owner common.PublicKey, amount uint64) []byte {
	b := make([]byte, 165)
	copy(b[0:32], mint.Bytes())
	copy(b[32:64], owner.Bytes())
	binary.LittleEndian.PutUint64(b[64:72], amount)
	b[108] = 1 // initialized
	return b
}

// readTokenAmount reads the amount field of an encoded token account.
func readTokenAmount(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b[64:72])
}

type metadataAccountHead struct {
	Key                  uint8
	UpdateAuthority      common.PublicKey
	Mint                 common.PublicKey
	Name                 string
	Symbol               string
	Uri                  string
	SellerFeeBasisPoints uint16
	Creators             *uint8
	PrimarySaleHappened  bool
	IsMutable            bool
}

// metadataAccountData encodes a MetadataV1 account padded the way the program stores it.
func metadataAccountData(t *testing.T, updateAuthority, mint common.PublicKey, name, symbol, uri string, fee uint16) []byte {
	t.Helper()
	head, err := borsh.Serialize(metadataAccountHead{
		Key:                  4, // MetadataV1
		UpdateAuthority:      updateAuthority,
		Mint:                 mint,
		Name:                 padRight(name, 32),
		Symbol:               padRight(symbol, 10),
		Uri:                  padRight(uri, 200),
		SellerFeeBasisPoints: fee,
		IsMutable:            true,
	})
	require.NoError(t, err)

	const metadataAccountSize = 679
	out := make([]byte, metadataAccountSize)
	copy(out, head)
	return out
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + string(bytes.Repeat([]byte{0}, n-len(s)))
}

var errRPCDown = errors.New("rpc down")
