// cmd/keygen/main.go
//
// 署名用の Solana keypair を生成する小さなツールです。
// - ed25519 keypair を生成し、公開鍵を base58 で表示
// - 秘密鍵を Solana CLI 互換の JSON 配列としてファイルに保存（0600）
// - .env にそのまま貼れる SECRET_KEY= 行を表示
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"
	"github.com/spf13/cobra"

	appcfg "tokenflows/internal/infra/config"
	solanainfra "tokenflows/internal/infra/solana"
)

var (
	flagOut   string
	flagForce bool
)

var rootCmd = &cobra.Command{
	Use:           "keygen",
	Short:         "Generate a signer keypair in solana-keygen JSON format",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(_ *cobra.Command, _ []string) error {
		return run()
	},
}

func init() {
	rootCmd.Flags().StringVar(&flagOut, "out", "signer-keypair.json", "keypair file to write")
	rootCmd.Flags().BoolVar(&flagForce, "force", false, "overwrite an existing keypair file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "keygen failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if !flagForce {
		if _, err := os.Stat(flagOut); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", flagOut)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	acc := types.NewAccount()
	data, err := solanainfra.EncodeKeypairJSON(acc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(flagOut, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", flagOut, err)
	}

	fmt.Println("============================================")
	fmt.Println("Signer keypair generated")
	fmt.Println("============================================")
	fmt.Printf("Public key:\n  %s\n\n", acc.PublicKey.ToBase58())
	fmt.Printf("Secret key file (Solana-compatible JSON):\n  %s\n\n", flagOut)
	fmt.Printf("Secret key (base58):\n  %s\n\n", base58.Encode(acc.PrivateKey))
	fmt.Printf("For .env:\n%s=%s\n\n", appcfg.SecretKeyEnvName, string(data))
	fmt.Println("IMPORTANT:")
	fmt.Println("  - Never commit the keypair file or .env.")
	fmt.Println("  - Fund the public key on devnet (solana airdrop) before running transfer or metadata.")
	return nil
}
