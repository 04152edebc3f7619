package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"

	"tokenflows/internal/domain/chainerr"
	tmdom "tokenflows/internal/domain/tokenMetadata"
)

// fakeChain keeps token accounts and balances keyed by (owner, mint).
type fakeChain struct {
	mu       sync.Mutex
	accounts map[[2]common.PublicKey]common.PublicKey
	balances map[common.PublicKey]uint64

	creates   int
	transfers int
	sigSeq    int

	lookupErr   error
	transferErr error
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		accounts: map[[2]common.PublicKey]common.PublicKey{},
		balances: map[common.PublicKey]uint64{},
	}
}

func (c *fakeChain) nextSig() string {
	c.sigSeq++
	return fmt.Sprintf("sig-%d", c.sigSeq)
}

// fund registers an existing account for (owner, mint) holding amount.
func (c *fakeChain) fund(owner, mint common.PublicKey, amount uint64) common.PublicKey {
	c.mu.Lock()
	defer c.mu.Unlock()
	ata := types.NewAccount().PublicKey
	c.accounts[[2]common.PublicKey{owner, mint}] = ata
	c.balances[ata] = amount
	return ata
}

func (c *fakeChain) balanceOf(owner, mint common.PublicKey) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balances[c.accounts[[2]common.PublicKey{owner, mint}]]
}

func (c *fakeChain) ResolveOrCreate(_ context.Context, _ types.Account, mint, owner common.PublicKey) (TokenAccount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lookupErr != nil {
		return TokenAccount{}, c.lookupErr
	}
	key := [2]common.PublicKey{owner, mint}
	if ata, ok := c.accounts[key]; ok {
		return TokenAccount{Address: ata, Owner: owner, Mint: mint}, nil
	}
	ata := types.NewAccount().PublicKey
	c.accounts[key] = ata
	c.balances[ata] = 0
	c.creates++
	return TokenAccount{Address: ata, Owner: owner, Mint: mint, Created: true, Signature: c.nextSig()}, nil
}

func (c *fakeChain) ExecuteTransfer(_ context.Context, in ExecuteTransferInput) (ExecuteTransferResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transferErr != nil {
		return ExecuteTransferResult{TxSignature: "sig-failed"}, c.transferErr
	}
	if c.balances[in.Source] < in.Amount {
		return ExecuteTransferResult{}, chainerr.Submission("transfer", errors.New("insufficient funds"))
	}
	c.balances[in.Source] -= in.Amount
	c.balances[in.Destination] += in.Amount
	c.transfers++
	return ExecuteTransferResult{TxSignature: c.nextSig()}, nil
}

// fakeMetadataStore keeps one record per mint.
type fakeMetadataStore struct {
	mu      sync.Mutex
	records map[common.PublicKey]*tmdom.Record

	reads   int
	creates int
	updates int

	readErr   error
	submitErr error

	// raceCreate makes a concurrent writer create the record just before a create lands.
	raceCreate bool
}

func newFakeMetadataStore() *fakeMetadataStore {
	return &fakeMetadataStore{records: map[common.PublicKey]*tmdom.Record{}}
}

func metadataAddressOf(mint common.PublicKey) common.PublicKey {
	var b [32]byte
	copy(b[:], mint.Bytes())
	b[0] ^= 0xff
	return common.PublicKeyFromBytes(b[:])
}

func (s *fakeMetadataStore) ReadMetadata(_ context.Context, mint common.PublicKey) (MetadataSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.readErr != nil {
		return MetadataSnapshot{}, s.readErr
	}
	snap := MetadataSnapshot{Address: metadataAddressOf(mint)}
	if r, ok := s.records[mint]; ok {
		cp := *r
		snap.Record = &cp
	}
	return snap, nil
}

func (s *fakeMetadataStore) write(in MetadataWriteInput) {
	s.records[in.Mint] = &tmdom.Record{
		Address:         in.MetadataAddress.ToBase58(),
		Mint:            in.Mint.ToBase58(),
		UpdateAuthority: in.Authority.PublicKey.ToBase58(),
		Payload:         in.Payload,
	}
}

func (s *fakeMetadataStore) CreateMetadata(_ context.Context, in MetadataWriteInput) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	if s.raceCreate {
		s.write(in)
		return "", chainerr.Submission("metadata_create", errors.New("account already in use"))
	}
	if s.submitErr != nil {
		return "", s.submitErr
	}
	if _, ok := s.records[in.Mint]; ok {
		return "", chainerr.Submission("metadata_create", errors.New("account already in use"))
	}
	s.write(in)
	return "sig-create", nil
}

func (s *fakeMetadataStore) UpdateMetadata(_ context.Context, in MetadataWriteInput) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates++
	if s.submitErr != nil {
		return "", s.submitErr
	}
	if _, ok := s.records[in.Mint]; !ok {
		return "", chainerr.Submission("metadata_update", errors.New("uninitialized account"))
	}
	s.write(in)
	return "sig-update", nil
}

// fakeUploader records uploaded documents.
type fakeUploader struct {
	uri  string
	err  error
	docs [][]byte
}

func (u *fakeUploader) UploadMetadata(_ context.Context, data []byte) (string, error) {
	u.docs = append(u.docs, data)
	if u.err != nil {
		return "", u.err
	}
	return u.uri, nil
}
