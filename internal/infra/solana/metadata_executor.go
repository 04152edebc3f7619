// internal/infra/solana/metadata_executor.go
package solana

/*
責任と機能:
- mint の Metaplex metadata PDA を導出し、1 回の getAccountInfo で存在を確認・デコードする。
- 無ければ CreateMetadataAccountV3、あれば UpdateMetadataAccountV2 を送信する。
  authority（= mint authority / payer / update authority）が署名する。
- creators / collection / uses は常に null で書き込む。
*/

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"
	"github.com/blocto/solana-go-sdk/types"
	"go.uber.org/zap"

	usecase "tokenflows/internal/application/usecase"
	"tokenflows/internal/domain/chainerr"
	tmdom "tokenflows/internal/domain/tokenMetadata"
)

var (
	ErrMetadataStoreNotConfigured = errors.New("metadata_executor: not configured")
	ErrMetadataAddressMismatch    = errors.New("metadata_executor: metadata address does not match mint")
)

type MetadataExecutorSolana struct {
	RPC       RPC
	Submitter *Submitter
	Logger    *zap.Logger
}

var _ usecase.MetadataStore = (*MetadataExecutorSolana)(nil)

func NewMetadataExecutorSolana(r RPC, s *Submitter, logger *zap.Logger) *MetadataExecutorSolana {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetadataExecutorSolana{
		RPC:       r,
		Submitter: s,
		Logger:    logger.Named("metadata_executor"),
	}
}

// ReadMetadata derives the metadata PDA and reads it once.
func (e *MetadataExecutorSolana) ReadMetadata(ctx context.Context, mint common.PublicKey) (usecase.MetadataSnapshot, error) {
	if e == nil || e.RPC == nil {
		return usecase.MetadataSnapshot{}, ErrMetadataStoreNotConfigured
	}

	pda, err := FindMetadataAddress(mint)
	if err != nil {
		return usecase.MetadataSnapshot{}, err
	}
	snap := usecase.MetadataSnapshot{Address: pda}

	info, ok, err := e.RPC.GetAccount(ctx, pda)
	if err != nil {
		return usecase.MetadataSnapshot{}, chainerr.Lookup("get_metadata", fmt.Errorf("%s: %w", pda.ToBase58(), err))
	}
	if !ok {
		return snap, nil
	}

	md, err := token_metadata.MetadataDeserialize(info.Data)
	if err != nil {
		return usecase.MetadataSnapshot{}, chainerr.Lookup("decode_metadata", fmt.Errorf("%s: %w", pda.ToBase58(), err))
	}
	if md.Mint != mint {
		return usecase.MetadataSnapshot{}, chainerr.Lookup("decode_metadata",
			fmt.Errorf("%w: %s has mint %s", ErrMetadataAddressMismatch, pda.ToBase58(), md.Mint.ToBase58()))
	}

	snap.Record = &tmdom.Record{
		Address:         pda.ToBase58(),
		Mint:            md.Mint.ToBase58(),
		UpdateAuthority: md.UpdateAuthority.ToBase58(),
		Payload: tmdom.Payload{
			Name:                 trimPadding(md.Data.Name),
			Symbol:               trimPadding(md.Data.Symbol),
			URI:                  trimPadding(md.Data.Uri),
			SellerFeeBasisPoints: md.Data.SellerFeeBasisPoints,
			IsMutable:            md.IsMutable,
		},
	}
	return snap, nil
}

func (e *MetadataExecutorSolana) CreateMetadata(ctx context.Context, in usecase.MetadataWriteInput) (string, error) {
	if e == nil || e.Submitter == nil {
		return "", ErrMetadataStoreNotConfigured
	}
	e.Logger.Info("creating metadata",
		zap.String("mint", in.Mint.ToBase58()),
		zap.String("metadata", in.MetadataAddress.ToBase58()),
		zap.String("name", in.Payload.Name),
	)
	return e.Submitter.Submit(ctx, "metadata_create", in.Authority, nil, BuildCreateMetadataInstruction(in))
}

func (e *MetadataExecutorSolana) UpdateMetadata(ctx context.Context, in usecase.MetadataWriteInput) (string, error) {
	if e == nil || e.Submitter == nil {
		return "", ErrMetadataStoreNotConfigured
	}
	e.Logger.Info("updating metadata",
		zap.String("mint", in.Mint.ToBase58()),
		zap.String("metadata", in.MetadataAddress.ToBase58()),
		zap.String("name", in.Payload.Name),
	)
	return e.Submitter.Submit(ctx, "metadata_update", in.Authority, nil, BuildUpdateMetadataInstruction(in))
}

// BuildCreateMetadataInstruction builds CreateMetadataAccountV3 with the authority as
// mint authority, payer and signing update authority.
func BuildCreateMetadataInstruction(in usecase.MetadataWriteInput) types.Instruction {
	authority := in.Authority.PublicKey
	return token_metadata.CreateMetadataAccountV3(token_metadata.CreateMetadataAccountV3Param{
		Metadata:                in.MetadataAddress,
		Mint:                    in.Mint,
		MintAuthority:           authority,
		Payer:                   authority,
		UpdateAuthority:         authority,
		UpdateAuthorityIsSigner: true,
		IsMutable:               in.Payload.IsMutable,
		Data: token_metadata.DataV2{
			Name:                 in.Payload.Name,
			Symbol:               in.Payload.Symbol,
			Uri:                  in.Payload.URI,
			SellerFeeBasisPoints: in.Payload.SellerFeeBasisPoints,
		},
		CollectionDetails: nil,
	})
}

// BuildUpdateMetadataInstruction builds UpdateMetadataAccountV2 replacing the data block and
// re-asserting the authority as update authority. Primary sale is left unchanged.
func BuildUpdateMetadataInstruction(in usecase.MetadataWriteInput) types.Instruction {
	authority := in.Authority.PublicKey
	isMutable := in.Payload.IsMutable
	return token_metadata.UpdateMetadataAccountV2(token_metadata.UpdateMetadataAccountV2Param{
		MetadataAccount: in.MetadataAddress,
		UpdateAuthority: authority,
		Data: &token_metadata.DataV2{
			Name:                 in.Payload.Name,
			Symbol:               in.Payload.Symbol,
			Uri:                  in.Payload.URI,
			SellerFeeBasisPoints: in.Payload.SellerFeeBasisPoints,
		},
		NewUpdateAuthority:  &authority,
		PrimarySaleHappened: nil,
		IsMutable:           &isMutable,
	})
}

// trimPadding strips the NUL padding the program stores after fixed-size strings.
func trimPadding(s string) string {
	return strings.TrimSpace(strings.TrimRight(s, "\x00"))
}
