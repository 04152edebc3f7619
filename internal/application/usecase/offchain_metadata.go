// internal/application/usecase/offchain_metadata.go
package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	tmdom "tokenflows/internal/domain/tokenMetadata"
)

// MetadataUploader stores an off-chain metadata JSON document and returns its public URI.
// Implemented by infra/arweave.HTTPUploader and infra/gcs.MetadataUploader.
type MetadataUploader interface {
	UploadMetadata(ctx context.Context, data []byte) (string, error)
}

// OffchainMetadata holds the fields of the Metaplex token standard JSON that are not on-chain.
type OffchainMetadata struct {
	Description string
	Image       string
}

var (
	ErrOffchainUploaderNotConfigured = errors.New("offchain_metadata: uploader not configured")
	ErrOffchainEmptyURI              = errors.New("offchain_metadata: uploader returned empty uri")
)

// OffchainMetadataPublisher builds the off-chain JSON and uploads it.
type OffchainMetadataPublisher struct {
	uploader MetadataUploader
	logger   *zap.Logger
}

func NewOffchainMetadataPublisher(uploader MetadataUploader, logger *zap.Logger) *OffchainMetadataPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OffchainMetadataPublisher{
		uploader: uploader,
		logger:   logger.Named("offchain_metadata"),
	}
}

// BuildOffchainMetadataJSON renders the fungible token standard document.
func BuildOffchainMetadataJSON(p tmdom.Payload, extra OffchainMetadata) ([]byte, error) {
	name := strings.TrimSpace(p.Name)
	symbol := strings.TrimSpace(p.Symbol)
	if name == "" {
		return nil, fmt.Errorf("offchain_metadata: name is empty")
	}

	metadata := map[string]interface{}{
		"name":   name,
		"symbol": symbol,
	}
	if desc := strings.TrimSpace(extra.Description); desc != "" {
		metadata["description"] = desc
	}
	if img := strings.TrimSpace(extra.Image); img != "" {
		metadata["image"] = img
	}

	return json.Marshal(metadata)
}

// Publish uploads the document and returns its URI.
func (p *OffchainMetadataPublisher) Publish(ctx context.Context, payload tmdom.Payload, extra OffchainMetadata) (string, error) {
	if p == nil || p.uploader == nil {
		return "", ErrOffchainUploaderNotConfigured
	}

	data, err := BuildOffchainMetadataJSON(payload, extra)
	if err != nil {
		return "", err
	}

	uri, err := p.uploader.UploadMetadata(ctx, data)
	if err != nil {
		return "", err
	}
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return "", ErrOffchainEmptyURI
	}

	p.logger.Info("off-chain metadata uploaded", zap.String("uri", uri), zap.Int("bytes", len(data)))
	return uri, nil
}
