// internal/infra/solana/token_account_resolver.go
package solana

import (
	"context"
	"errors"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/associated_token_account"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/types"
	"go.uber.org/zap"

	usecase "tokenflows/internal/application/usecase"
	"tokenflows/internal/domain/chainerr"
)

var (
	ErrTokenAccountNotConfigured = errors.New("token_account_resolver: not configured")
	ErrTokenAccountMintMismatch  = errors.New("token_account_resolver: account mint does not match")
	ErrTokenAccountOwnerMismatch = errors.New("token_account_resolver: account owner does not match")
)

// TokenAccountResolverSolana implements usecase.TokenAccountResolver.
type TokenAccountResolverSolana struct {
	RPC       RPC
	Submitter *Submitter
	Logger    *zap.Logger
}

var _ usecase.TokenAccountResolver = (*TokenAccountResolverSolana)(nil)

func NewTokenAccountResolverSolana(r RPC, s *Submitter, logger *zap.Logger) *TokenAccountResolverSolana {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenAccountResolverSolana{
		RPC:       r,
		Submitter: s,
		Logger:    logger.Named("token_account_resolver"),
	}
}

// ResolveOrCreate returns the ATA of (owner, mint), creating it with payer as funder when absent.
// When the creation fails but a re-read finds the account, the existing account is returned
// with Created=false.
func (r *TokenAccountResolverSolana) ResolveOrCreate(
	ctx context.Context,
	payer types.Account,
	mint, owner common.PublicKey,
) (usecase.TokenAccount, error) {
	if r == nil || r.RPC == nil || r.Submitter == nil {
		return usecase.TokenAccount{}, ErrTokenAccountNotConfigured
	}

	ata, err := FindTokenAccountAddress(owner, mint)
	if err != nil {
		return usecase.TokenAccount{}, err
	}
	out := usecase.TokenAccount{Address: ata, Owner: owner, Mint: mint}

	exists, err := r.lookup(ctx, ata, mint, owner)
	if err != nil {
		return usecase.TokenAccount{}, err
	}
	if exists {
		r.Logger.Debug("token account found",
			zap.String("owner", maskShort(owner.ToBase58())),
			zap.String("ata", ata.ToBase58()),
		)
		return out, nil
	}

	r.Logger.Info("creating token account",
		zap.String("owner", maskShort(owner.ToBase58())),
		zap.String("mint", maskShort(mint.ToBase58())),
		zap.String("ata", ata.ToBase58()),
		zap.String("payer", maskShort(payer.PublicKey.ToBase58())),
	)

	sig, err := r.Submitter.Submit(ctx, "create_ata", payer, nil,
		associated_token_account.Create(associated_token_account.CreateParam{
			Funder:                 payer.PublicKey,
			Owner:                  owner,
			Mint:                   mint,
			AssociatedTokenAccount: ata,
		}),
	)
	if err != nil {
		again, rerr := r.lookup(ctx, ata, mint, owner)
		if rerr == nil && again {
			r.Logger.Warn("token account creation failed but account exists",
				zap.String("ata", ata.ToBase58()),
				zap.Error(err),
			)
			return out, nil
		}
		return usecase.TokenAccount{}, err
	}

	out.Created = true
	out.Signature = sig
	return out, nil
}

// lookup reports whether ata exists and belongs to (owner, mint).
func (r *TokenAccountResolverSolana) lookup(ctx context.Context, ata, mint, owner common.PublicKey) (bool, error) {
	info, ok, err := r.RPC.GetAccount(ctx, ata)
	if err != nil {
		return false, chainerr.Lookup("get_token_account", fmt.Errorf("%s: %w", ata.ToBase58(), err))
	}
	if !ok {
		return false, nil
	}

	acc, err := token.TokenAccountFromData(info.Data)
	if err != nil {
		return false, chainerr.Lookup("decode_token_account", fmt.Errorf("%s: %w", ata.ToBase58(), err))
	}
	if acc.Mint != mint {
		return false, chainerr.Lookup("get_token_account",
			fmt.Errorf("%w: %s has mint %s", ErrTokenAccountMintMismatch, ata.ToBase58(), acc.Mint.ToBase58()))
	}
	if acc.Owner != owner {
		return false, chainerr.Lookup("get_token_account",
			fmt.Errorf("%w: %s has owner %s", ErrTokenAccountOwnerMismatch, ata.ToBase58(), acc.Owner.ToBase58()))
	}
	return true, nil
}
