// cmd/transfer/main.go
//
// SPL token を 1 回だけ送付するコマンド。
// - 署名鍵・mint・recipient・amount はネットワークに触れる前に検証
// - 送付元 / 送付先の Associated Token Account を解決（無ければ作成）
// - amount（整数トークン数 × 10^2）を transfer し、確定後に explorer link と残高を表示
// - どの失敗も exit 1
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	uc "tokenflows/internal/application/usecase"
	"tokenflows/internal/domain/explorer"
	appcfg "tokenflows/internal/infra/config"
	solanainfra "tokenflows/internal/infra/solana"
	"tokenflows/internal/platform/di"
	"tokenflows/internal/platform/logger"
)

// defaultRecipient is the wallet that receives the token when --recipient is not given.
const defaultRecipient = "GPgkJv33mptgSzCaBRU1wvg66u3nPhSU2AQNnrxN4Fz9"

type transferOptions struct {
	Mint      string
	Recipient string
	Amount    uint64 // whole tokens
	EnvFile   string
}

var opts transferOptions

var rootCmd = &cobra.Command{
	Use:           "transfer",
	Short:         "Transfer SPL tokens to a recipient, creating token accounts as needed",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context(), opts, os.Stdout)
	},
}

func init() {
	rootCmd.Flags().StringVar(&opts.Mint, "mint", "", "token mint address (default $"+appcfg.MintEnvName+")")
	rootCmd.Flags().StringVar(&opts.Recipient, "recipient", defaultRecipient, "recipient wallet address")
	rootCmd.Flags().Uint64Var(&opts.Amount, "amount", 1, "whole tokens to transfer")
	rootCmd.Flags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file loaded before the environment is read")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "transfer failed: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, o transferOptions, out io.Writer) error {
	cfg, err := appcfg.Load(o.EnvFile)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	signer, err := di.LoadSigner(ctx, cfg, log)
	if err != nil {
		return err
	}
	log.Info("signer loaded", zap.String("public_key", signer.PublicKey.ToBase58()))

	in, err := buildTransferInput(signer, o, cfg.MintAddress)
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

	return executeTransfer(ctx, c.TransferUC, c.Transfers, in, cfg.Network, out, log)
}

// transferer is satisfied by *usecase.TransferUsecase.
type transferer interface {
	Transfer(ctx context.Context, in uc.TransferInput) (uc.TransferResult, error)
}

// balanceReader is satisfied by *solana.TokenTransferExecutorSolana.
type balanceReader interface {
	TokenBalance(ctx context.Context, account common.PublicKey) (uint64, error)
}

// buildTransferInput validates the flags. mint falls back to defaultMint.
func buildTransferInput(signer types.Account, o transferOptions, defaultMint string) (uc.TransferInput, error) {
	mintAddr := o.Mint
	if mintAddr == "" {
		mintAddr = defaultMint
	}
	mint, err := solanainfra.ParsePublicKey("mint", mintAddr)
	if err != nil {
		return uc.TransferInput{}, err
	}
	recipient, err := solanainfra.ParsePublicKey("recipient", o.Recipient)
	if err != nil {
		return uc.TransferInput{}, err
	}
	amount, err := uc.MinorUnits(o.Amount)
	if err != nil {
		return uc.TransferInput{}, err
	}
	return uc.TransferInput{
		Sender:    signer,
		Mint:      mint,
		Recipient: recipient,
		Amount:    amount,
	}, nil
}

// executeTransfer runs the transfer and prints its outcome. Any error means exit 1.
func executeTransfer(
	ctx context.Context,
	t transferer,
	balances balanceReader,
	in uc.TransferInput,
	network string,
	out io.Writer,
	log *zap.Logger,
) error {
	fmt.Fprintf(out, "Signer: %s\n", in.Sender.PublicKey.ToBase58())

	res, err := t.Transfer(ctx, in)
	if err != nil {
		return err
	}

	log.Info("transfer confirmed",
		zap.String("signature", res.Signature),
		zap.Bool("destination_created", res.Destination.Created),
	)
	fmt.Fprintf(out, "Source token account:      %s\n", res.Source.Address.ToBase58())
	fmt.Fprintf(out, "Destination token account: %s\n", res.Destination.Address.ToBase58())
	fmt.Fprintf(out, "Transferred %d minor units (%d decimals)\n", res.Amount, uc.TokenDecimals)
	fmt.Fprintf(out, "Transaction: %s\n", res.ExplorerLink)
	fmt.Fprintf(out, "Recipient:   %s\n", explorer.MustLink(explorer.KindAddress, in.Recipient.ToBase58(), network))

	if balances == nil {
		return nil
	}
	for _, acc := range []struct {
		label string
		addr  common.PublicKey
	}{
		{"Source balance:     ", res.Source.Address},
		{"Destination balance:", res.Destination.Address},
	} {
		bal, err := balances.TokenBalance(ctx, acc.addr)
		if err != nil {
			// the transfer is already confirmed
			log.Warn("read balance failed", zap.String("account", acc.addr.ToBase58()), zap.Error(err))
			continue
		}
		fmt.Fprintf(out, "%s %d\n", acc.label, bal)
	}
	return nil
}
