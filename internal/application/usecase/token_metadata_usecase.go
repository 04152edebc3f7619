// internal/application/usecase/token_metadata_usecase.go
package usecase

/*
責任と機能:
- mint の metadata PDA を 1 回だけ読み、その結果で create / update を分岐する。
  NO_METADATA      -> CreateMetadataAccountV3
  METADATA_EXISTS  -> UpdateMetadataAccountV2
- 送信失敗は error ではなく tokenMetadata.Result.Err に入れて返す
  （呼び出し側がログして処理を続けられるように）。
- 送信前の失敗（入力不正・読み取り失敗・off-chain JSON のアップロード失敗）は error で返す。
*/

import (
	"context"
	"errors"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"go.uber.org/zap"

	"tokenflows/internal/domain/chainerr"
	"tokenflows/internal/domain/explorer"
	"tokenflows/internal/domain/submission"
	tmdom "tokenflows/internal/domain/tokenMetadata"
)

// ============================================================
// Ports
// ============================================================

// MetadataSnapshot is the result of the single existence read.
type MetadataSnapshot struct {
	Address common.PublicKey
	Record  *tmdom.Record // nil when the account does not exist
}

func (s MetadataSnapshot) State() tmdom.State {
	if s.Record == nil {
		return tmdom.StateNoMetadata
	}
	return tmdom.StateMetadataExists
}

type MetadataWriteInput struct {
	Mint            common.PublicKey
	MetadataAddress common.PublicKey
	Authority       types.Account // mint authority, payer and update authority
	Payload         tmdom.Payload
}

// MetadataStore reads and writes the on-chain metadata record of a mint.
type MetadataStore interface {
	ReadMetadata(ctx context.Context, mint common.PublicKey) (MetadataSnapshot, error)
	CreateMetadata(ctx context.Context, in MetadataWriteInput) (string, error)
	UpdateMetadata(ctx context.Context, in MetadataWriteInput) (string, error)
}

// ============================================================
// Usecase
// ============================================================

var (
	ErrMetadataNotConfigured = errors.New("token_metadata_uc: not configured")

	// ErrMetadataCreatedConcurrently marks a failed create whose PDA exists on a re-read,
	// i.e. another writer created the record between the read and the submission.
	ErrMetadataCreatedConcurrently = errors.New("token_metadata_uc: metadata created concurrently")
)

type TokenMetadataUsecase struct {
	store    MetadataStore
	offchain *OffchainMetadataPublisher
	recorder *SubmissionRecorder

	network string
	logger  *zap.Logger
}

func NewTokenMetadataUsecase(
	store MetadataStore,
	offchain *OffchainMetadataPublisher,
	recorder *SubmissionRecorder,
	network string,
	logger *zap.Logger,
) *TokenMetadataUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenMetadataUsecase{
		store:    store,
		offchain: offchain,
		recorder: recorder,
		network:  network,
		logger:   logger.Named("token_metadata_uc"),
	}
}

type ApplyMetadataInput struct {
	Authority types.Account
	Mint      common.PublicKey
	Payload   tmdom.Payload

	// Offchain, when set, is published first and its URI replaces Payload.URI.
	Offchain *OffchainMetadata
}

// Apply creates the metadata record when absent, or updates it in place.
func (u *TokenMetadataUsecase) Apply(ctx context.Context, in ApplyMetadataInput) (tmdom.Result, error) {
	if u == nil || u.store == nil {
		return tmdom.Result{}, ErrMetadataNotConfigured
	}

	payload := in.Payload.Normalized()

	if in.Offchain != nil {
		uri, err := u.offchain.Publish(ctx, payload, *in.Offchain)
		if err != nil {
			return tmdom.Result{}, fmt.Errorf("token_metadata_uc: publish off-chain metadata: %w", err)
		}
		payload.URI = uri
	}

	if err := payload.Validate(); err != nil {
		return tmdom.Result{}, chainerr.Config("validate_metadata", err)
	}

	snap, err := u.store.ReadMetadata(ctx, in.Mint)
	if err != nil {
		return tmdom.Result{}, fmt.Errorf("token_metadata_uc: read metadata: %w", err)
	}

	state := snap.State()
	action := tmdom.ActionFor(state)
	res := tmdom.Result{
		Mint:            in.Mint.ToBase58(),
		MetadataAddress: snap.Address.ToBase58(),
		State:           state,
		Action:          action,
		Payload:         payload,
	}

	u.logger.Info("metadata state resolved",
		zap.String("mint", res.Mint),
		zap.String("metadata", res.MetadataAddress),
		zap.String("state", string(state)),
		zap.String("action", string(action)),
	)

	write := MetadataWriteInput{
		Mint:            in.Mint,
		MetadataAddress: snap.Address,
		Authority:       in.Authority,
		Payload:         payload,
	}

	flow := submission.FlowMetadataCreate
	submit := u.store.CreateMetadata
	if action == tmdom.ActionUpdate {
		flow = submission.FlowMetadataUpdate
		submit = u.store.UpdateMetadata
	}

	entry := u.recorder.Begin(ctx, flow, res.Mint, in.Authority.PublicKey.ToBase58(), res.MetadataAddress, 0)

	sig, err := submit(ctx, write)
	if err != nil {
		if action == tmdom.ActionCreate {
			if again, rerr := u.store.ReadMetadata(ctx, in.Mint); rerr == nil && again.Record != nil {
				err = fmt.Errorf("%w: %w", ErrMetadataCreatedConcurrently, err)
			}
		}
		u.recorder.Fail(ctx, entry, err, sig)
		res.Signature = sig
		res.Err = err
		u.logger.Error("metadata submission failed",
			zap.String("action", string(action)),
			zap.String("mint", res.Mint),
			zap.Error(err),
		)
		return res, nil
	}
	u.recorder.Succeed(ctx, entry, sig)

	res.Signature = sig
	res.ExplorerLink = explorer.MustLink(explorer.KindTransaction, sig, u.network)
	return res, nil
}
