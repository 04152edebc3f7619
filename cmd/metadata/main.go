// cmd/metadata/main.go
//
// mint の Metaplex metadata を作成または更新するコマンド。
// - metadata PDA を 1 回だけ読み、無ければ create (V3)、あれば update (V2)
// - 送信・確定の失敗はログに出して exit 0
// - 入力不正（鍵・mint・payload・uploader 未設定）と metadata の読み取り失敗は exit 1。
//   読み取り失敗を exit 0 で握りつぶす挙動は意図的に採らない。
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	uc "tokenflows/internal/application/usecase"
	"tokenflows/internal/domain/chainerr"
	"tokenflows/internal/domain/explorer"
	tmdom "tokenflows/internal/domain/tokenMetadata"
	appcfg "tokenflows/internal/infra/config"
	solanainfra "tokenflows/internal/infra/solana"
	"tokenflows/internal/platform/di"
	"tokenflows/internal/platform/logger"
)

var errOffchainUploaderMissing = errors.New("metadata: --description/--image need ARWEAVE_BASE_URL or METADATA_GCS_BUCKET")

type metadataOptions struct {
	Mint        string
	Name        string
	Symbol      string
	URI         string
	SellerFee   uint16
	Immutable   bool
	Description string
	Image       string
	EnvFile     string
}

var opts metadataOptions

var rootCmd = &cobra.Command{
	Use:           "metadata",
	Short:         "Create or update the Metaplex metadata record of a token mint",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context(), opts, os.Stdout)
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&opts.Mint, "mint", "", "token mint address (default $"+appcfg.MintEnvName+")")
	f.StringVar(&opts.Name, "name", "Chinaza Solana Token", "token name (max 32 bytes)")
	f.StringVar(&opts.Symbol, "symbol", "chinaza", "token symbol (max 10 bytes)")
	f.StringVar(&opts.URI, "uri", "https://arweave.net/1234", "off-chain metadata URI (max 200 bytes)")
	f.Uint16Var(&opts.SellerFee, "seller-fee", 0, "seller fee in basis points")
	f.BoolVar(&opts.Immutable, "immutable", false, "write the record as immutable")
	f.StringVar(&opts.Description, "description", "", "publish off-chain JSON with this description (needs an uploader)")
	f.StringVar(&opts.Image, "image", "", "publish off-chain JSON with this image URL (needs an uploader)")
	f.StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file loaded before the environment is read")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "metadata failed: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, o metadataOptions, out io.Writer) error {
	cfg, err := appcfg.Load(o.EnvFile)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	authority, err := di.LoadSigner(ctx, cfg, log)
	if err != nil {
		return err
	}
	log.Info("signer loaded", zap.String("public_key", authority.PublicKey.ToBase58()))

	in, err := buildMetadataInput(authority, o, cfg)
	if err != nil {
		return err
	}

	c, err := di.NewContainer(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			log.Warn("close container failed", zap.Error(err))
		}
	}()

	return executeMetadata(ctx, c.MetadataUC, in, cfg.Network, out, log)
}

// metadataApplier is satisfied by *usecase.TokenMetadataUsecase.
type metadataApplier interface {
	Apply(ctx context.Context, in uc.ApplyMetadataInput) (tmdom.Result, error)
}

// buildMetadataInput validates the flags against cfg. The mint falls back to cfg.MintAddress.
func buildMetadataInput(authority types.Account, o metadataOptions, cfg *appcfg.Config) (uc.ApplyMetadataInput, error) {
	mintAddr := o.Mint
	if mintAddr == "" {
		mintAddr = cfg.MintAddress
	}
	mint, err := solanainfra.ParsePublicKey("mint", mintAddr)
	if err != nil {
		return uc.ApplyMetadataInput{}, err
	}

	in := uc.ApplyMetadataInput{
		Authority: authority,
		Mint:      mint,
		Payload: tmdom.Payload{
			Name:                 o.Name,
			Symbol:               o.Symbol,
			URI:                  o.URI,
			SellerFeeBasisPoints: o.SellerFee,
			IsMutable:            !o.Immutable,
		},
	}
	if o.Description != "" || o.Image != "" {
		if !cfg.HasOffchainUploader() {
			return uc.ApplyMetadataInput{}, chainerr.Config("metadata_flags", errOffchainUploaderMissing)
		}
		in.Offchain = &uc.OffchainMetadata{Description: o.Description, Image: o.Image}
	}
	return in, nil
}

// executeMetadata applies the metadata and prints the outcome.
// A failed submission is reported and returns nil; every other error is returned.
func executeMetadata(
	ctx context.Context,
	a metadataApplier,
	in uc.ApplyMetadataInput,
	network string,
	out io.Writer,
	log *zap.Logger,
) error {
	fmt.Fprintf(out, "Signer: %s\n", in.Authority.PublicKey.ToBase58())

	res, err := a.Apply(ctx, in)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Metadata account: %s (%s -> %s)\n", res.MetadataAddress, res.State, res.Action)
	if res.OK() {
		fmt.Fprintf(out, "Metadata %sd: %s\n", res.Action, res.ExplorerLink)
	} else {
		log.Error("metadata submission failed",
			zap.String("action", string(res.Action)),
			zap.String("signature", res.Signature),
			zap.Error(res.Err),
		)
		fmt.Fprintf(out, "Metadata %s failed: %v\n", res.Action, res.Err)
	}
	fmt.Fprintf(out, "Mint: %s\n", explorer.MustLink(explorer.KindAddress, in.Mint.ToBase58(), network))
	return nil
}
