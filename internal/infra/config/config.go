// internal/infra/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"tokenflows/internal/domain/chainerr"
	"tokenflows/internal/domain/explorer"
)

// Ledger backends.
const (
	LedgerNone      = "none"
	LedgerMemory    = "memory"
	LedgerFirestore = "firestore"
	LedgerPostgres  = "postgres"
)

const (
	defaultRPCURL           = "https://api.devnet.solana.com"
	defaultNetwork          = explorer.NetworkDevnet
	defaultCommitment       = "confirmed"
	defaultConfirmTimeout   = 60 * time.Second
	defaultLedgerCollection = "submissions"
)

var (
	ErrInvalidCommitment     = errors.New("config: invalid SOLANA_COMMITMENT")
	ErrInvalidConfirmTimeout = errors.New("config: invalid SOLANA_CONFIRM_TIMEOUT")
	ErrInvalidLedgerBackend  = errors.New("config: invalid LEDGER_BACKEND")
	ErrLedgerDSNMissing      = errors.New("config: DATABASE_URL is required for the postgres ledger")
	ErrLedgerProjectMissing  = errors.New("config: FIRESTORE_PROJECT_ID is required for the firestore ledger")
)

// Config はコマンド全体の環境変数設定を保持します。
type Config struct {
	// Solana
	RPCURL         string
	Network        string // explorer cluster: devnet | testnet | mainnet-beta | localnet
	Commitment     string // processed | confirmed | finalized
	ConfirmTimeout time.Duration

	// 署名鍵: SECRET_KEY（JSON 配列 or base58）または Secret Manager のバージョン名
	SecretKeyEnv    string
	SecretKeySecret string

	// 対象 mint（YOUR_TOKEN_MINT_ADDRESS_HERE）
	MintAddress string

	// off-chain metadata のアップロード先（どちらも空ならアップロードしない）
	ArweaveBaseURL    string
	ArweaveAPIKey     string
	MetadataGCSBucket string
	GCPCreds          string

	// 送信台帳
	LedgerBackend      string
	FirestoreProjectID string
	LedgerCollection   string
	DatabaseURL        string

	LogLevel  string
	LogFormat string
}

// SecretKeyEnvName is the environment variable holding the signer keypair.
const SecretKeyEnvName = "SECRET_KEY"

// MintEnvName is the environment variable holding the token mint address.
const MintEnvName = "YOUR_TOKEN_MINT_ADDRESS_HERE"

// Load は .env（存在すれば）を読み込んだ後、環境変数から Config を返します。
// 既に設定済みの環境変数は .env で上書きされません。
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, chainerr.Config("load_env", fmt.Errorf("%s: %w", f, err))
		}
	}

	cfg := &Config{
		RPCURL:     getenvDefault("SOLANA_RPC_URL", defaultRPCURL),
		Network:    getenvDefault("SOLANA_NETWORK", defaultNetwork),
		Commitment: strings.ToLower(getenvDefault("SOLANA_COMMITMENT", defaultCommitment)),

		SecretKeyEnv:    SecretKeyEnvName,
		SecretKeySecret: strings.TrimSpace(os.Getenv("SECRET_KEY_SECRET")),

		MintAddress: strings.TrimSpace(os.Getenv(MintEnvName)),

		ArweaveBaseURL:    strings.TrimSpace(os.Getenv("ARWEAVE_BASE_URL")),
		ArweaveAPIKey:     os.Getenv("ARWEAVE_API_KEY"),
		MetadataGCSBucket: strings.TrimSpace(os.Getenv("METADATA_GCS_BUCKET")),
		GCPCreds:          os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),

		LedgerBackend:      strings.ToLower(getenvDefault("LEDGER_BACKEND", LedgerNone)),
		FirestoreProjectID: strings.TrimSpace(os.Getenv("FIRESTORE_PROJECT_ID")),
		LedgerCollection:   getenvDefault("LEDGER_COLLECTION", defaultLedgerCollection),
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),

		LogLevel:  getenvDefault("LOG_LEVEL", "info"),
		LogFormat: getenvDefault("LOG_FORMAT", "console"),
	}

	timeout, err := time.ParseDuration(getenvDefault("SOLANA_CONFIRM_TIMEOUT", defaultConfirmTimeout.String()))
	if err != nil || timeout <= 0 {
		return nil, chainerr.Config("load_config", fmt.Errorf("%w: %v", ErrInvalidConfirmTimeout, err))
	}
	cfg.ConfirmTimeout = timeout

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Commitment {
	case "processed", "confirmed", "finalized":
	default:
		return chainerr.Config("load_config", fmt.Errorf("%w: %q", ErrInvalidCommitment, c.Commitment))
	}

	switch c.LedgerBackend {
	case LedgerNone, LedgerMemory:
	case LedgerFirestore:
		if c.FirestoreProjectID == "" {
			return chainerr.Config("load_config", ErrLedgerProjectMissing)
		}
	case LedgerPostgres:
		if c.DatabaseURL == "" {
			return chainerr.Config("load_config", ErrLedgerDSNMissing)
		}
	default:
		return chainerr.Config("load_config", fmt.Errorf("%w: %q", ErrInvalidLedgerBackend, c.LedgerBackend))
	}
	return nil
}

// HasOffchainUploader reports whether an off-chain metadata uploader is configured.
func (c *Config) HasOffchainUploader() bool {
	return c.ArweaveBaseURL != "" || c.MetadataGCSBucket != ""
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
