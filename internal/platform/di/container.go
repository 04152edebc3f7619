// internal/platform/di/container.go
package di

/*
責任と機能:
- Config から外部クライアント（Solana RPC / Secret Manager / GCS / Firestore / PostgreSQL）を生成し、
  infra adapter と usecase を組み立てる。
- 署名鍵の読み込み（LoadSigner）はネットワークを使う処理より前に呼ぶ。
- 生成したクライアントは Close でまとめて閉じる。
*/

import (
	"context"
	"errors"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/storage"
	"github.com/blocto/solana-go-sdk/types"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	pgadapter "tokenflows/internal/adapters/out/db"
	fsadapter "tokenflows/internal/adapters/out/firestore"
	"tokenflows/internal/adapters/out/memory"
	uc "tokenflows/internal/application/usecase"
	"tokenflows/internal/domain/chainerr"
	"tokenflows/internal/domain/submission"
	arweaveinfra "tokenflows/internal/infra/arweave"
	appcfg "tokenflows/internal/infra/config"
	"tokenflows/internal/infra/database"
	firestoreinfra "tokenflows/internal/infra/firestore"
	gcsinfra "tokenflows/internal/infra/gcs"
	solanainfra "tokenflows/internal/infra/solana"
)

var ErrConfigNil = errors.New("di: config is nil")

// Container holds the wired components of one command run.
type Container struct {
	Config *appcfg.Config
	Logger *zap.Logger

	// Solana
	RPC       solanainfra.RPC
	Submitter *solanainfra.Submitter
	Accounts  *solanainfra.TokenAccountResolverSolana
	Transfers *solanainfra.TokenTransferExecutorSolana
	Metadata  *solanainfra.MetadataExecutorSolana

	// Optional
	Uploader uc.MetadataUploader
	Ledger   submission.RepositoryPort

	// Usecases
	TransferUC *uc.TransferUsecase
	MetadataUC *uc.TokenMetadataUsecase

	closers []func() error
}

// clientOpts returns GCP client options: a credentials file when configured, else ADC.
func clientOpts(cfg *appcfg.Config) []option.ClientOption {
	if f := strings.TrimSpace(cfg.GCPCreds); f != "" {
		return []option.ClientOption{option.WithCredentialsFile(f)}
	}
	return nil
}

// LoadSigner restores the fee payer / authority keypair.
// SECRET_KEY_SECRET (Secret Manager version name) takes precedence over SECRET_KEY.
func LoadSigner(ctx context.Context, cfg *appcfg.Config, logger *zap.Logger) (types.Account, error) {
	if cfg == nil {
		return types.Account{}, chainerr.Config("load_signer", ErrConfigNil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.SecretKeySecret == "" {
		return solanainfra.LoadKeypairFromEnv(cfg.SecretKeyEnv)
	}

	sm, err := secretmanager.NewClient(ctx, clientOpts(cfg)...)
	if err != nil {
		return types.Account{}, chainerr.Config("load_signer", fmt.Errorf("secretmanager.NewClient: %w", err))
	}
	defer sm.Close()

	acc, err := solanainfra.LoadKeypairFromSecretManager(ctx, sm, cfg.SecretKeySecret)
	if err != nil {
		return types.Account{}, err
	}
	logger.Info("signer loaded from secret manager", zap.String("pubkey", acc.PublicKey.ToBase58()))
	return acc, nil
}

// NewContainer wires every component from cfg.
// The ledger backend and the uploader are strict: a configured backend that fails to
// initialize is an error.
func NewContainer(ctx context.Context, cfg *appcfg.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Container{Config: cfg, Logger: logger}

	// 1) Solana
	rpc := solanainfra.NewClientRPC(cfg.RPCURL)
	c.RPC = rpc
	c.Submitter = solanainfra.NewSubmitter(rpc, cfg.Commitment, cfg.ConfirmTimeout, logger)
	c.Accounts = solanainfra.NewTokenAccountResolverSolana(rpc, c.Submitter, logger)
	c.Transfers = solanainfra.NewTokenTransferExecutorSolana(rpc, c.Submitter, logger)
	c.Metadata = solanainfra.NewMetadataExecutorSolana(rpc, c.Submitter, logger)
	logger.Debug("solana rpc configured",
		zap.String("endpoint", rpc.Endpoint),
		zap.String("commitment", cfg.Commitment),
		zap.Duration("confirm_timeout", cfg.ConfirmTimeout),
	)

	// 2) Ledger
	if err := c.initLedger(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}

	// 3) Off-chain metadata uploader
	if err := c.initUploader(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}

	// 4) Usecases
	recorder := uc.NewSubmissionRecorder(c.Ledger, logger)
	var publisher *uc.OffchainMetadataPublisher
	if c.Uploader != nil {
		publisher = uc.NewOffchainMetadataPublisher(c.Uploader, logger)
	}
	c.TransferUC = uc.NewTransferUsecase(c.Accounts, c.Transfers, recorder, cfg.Network, logger)
	c.MetadataUC = uc.NewTokenMetadataUsecase(c.Metadata, publisher, recorder, cfg.Network, logger)

	return c, nil
}

func (c *Container) initLedger(ctx context.Context) error {
	cfg := c.Config
	switch cfg.LedgerBackend {
	case appcfg.LedgerNone, "":
		c.Logger.Debug("submission ledger disabled")
		return nil

	case appcfg.LedgerMemory:
		c.Ledger = memory.NewSubmissionRepositoryMem()
		return nil

	case appcfg.LedgerFirestore:
		fs, err := firestoreinfra.NewClient(ctx, cfg.FirestoreProjectID, cfg.GCPCreds, c.Logger)
		if err != nil {
			return fmt.Errorf("di: firestore ledger: %w", err)
		}
		c.closers = append(c.closers, fs.Close)
		c.Ledger = fsadapter.NewSubmissionRepositoryFS(fs.Client, cfg.LedgerCollection)
		return nil

	case appcfg.LedgerPostgres:
		conn, err := database.NewConnection(ctx, cfg.DatabaseURL, c.Logger)
		if err != nil {
			return fmt.Errorf("di: postgres ledger: %w", err)
		}
		c.closers = append(c.closers, conn.Close)
		repo := pgadapter.NewSubmissionRepositoryPG(conn.Client)
		if err := repo.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("di: postgres ledger schema: %w", err)
		}
		c.Ledger = repo
		return nil

	default:
		return chainerr.Config("init_ledger", fmt.Errorf("%w: %q", appcfg.ErrInvalidLedgerBackend, cfg.LedgerBackend))
	}
}

func (c *Container) initUploader(ctx context.Context) error {
	cfg := c.Config
	switch {
	case cfg.ArweaveBaseURL != "":
		c.Uploader = arweaveinfra.NewHTTPUploader(cfg.ArweaveBaseURL, cfg.ArweaveAPIKey, c.Logger)
		c.Logger.Debug("arweave uploader initialized", zap.String("base_url", cfg.ArweaveBaseURL))

	case cfg.MetadataGCSBucket != "":
		gcs, err := storage.NewClient(ctx, clientOpts(cfg)...)
		if err != nil {
			return fmt.Errorf("di: storage.NewClient: %w", err)
		}
		c.closers = append(c.closers, gcs.Close)
		c.Uploader = gcsinfra.NewMetadataUploader(gcs, cfg.MetadataGCSBucket, c.Logger)
		c.Logger.Debug("gcs metadata uploader initialized", zap.String("bucket", cfg.MetadataGCSBucket))
	}
	return nil
}

// Close releases every client the container opened, newest first.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
