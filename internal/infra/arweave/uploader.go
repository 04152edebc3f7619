// internal/infra/arweave/uploader.go
package arweave

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	ErrEmptyDocument  = errors.New("arweave: metadata document is empty")
	ErrNotConfigured  = errors.New("arweave: base url is empty")
	ErrEmptyUploadURI = errors.New("arweave: upload response has empty uri")
)

// Irys uploader などの HTTP API を叩く実装。
// POST {baseURL}/upload/json に JSON を送り、{"uri": "..."} を受け取る。
type HTTPUploader struct {
	client  *http.Client
	baseURL string // 例: "https://irys-uploader.example.run.app"
	apiKey  string // 認証が必要な場合に Bearer で付与
	logger  *zap.Logger
}

// NewHTTPUploader は Arweave/Irys 用の HTTP uploader を生成します。
func NewHTTPUploader(baseURL, apiKey string, logger *zap.Logger) *HTTPUploader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPUploader{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		logger:  logger.Named("arweave"),
	}
}

// UploadMetadata は usecase.MetadataUploader の実装。UploadJSON に委譲します。
func (u *HTTPUploader) UploadMetadata(ctx context.Context, data []byte) (string, error) {
	return u.UploadJSON(ctx, data)
}

// UploadJSON は metadata JSON をアップロードし、その URI を返します。
func (u *HTTPUploader) UploadJSON(ctx context.Context, metadataJSON []byte) (string, error) {
	if len(metadataJSON) == 0 {
		return "", ErrEmptyDocument
	}
	if u.baseURL == "" {
		return "", ErrNotConfigured
	}

	u.logger.Debug("upload start", zap.String("base_url", u.baseURL), zap.Int("bytes", len(metadataJSON)))

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		u.baseURL+"/upload/json",
		bytes.NewReader(metadataJSON),
	)
	if err != nil {
		return "", fmt.Errorf("arweave: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if u.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+u.apiKey)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("arweave: upload metadata: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		u.logger.Warn("upload failed",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", bodyBytes),
		)
		return "", fmt.Errorf("arweave: upload metadata failed: status=%d body=%s", resp.StatusCode, string(bodyBytes))
	}

	var res struct {
		URI string `json:"uri"` // 例: "https://gateway.irys.xyz/xxxx"
	}
	if err := json.Unmarshal(bodyBytes, &res); err != nil {
		return "", fmt.Errorf("arweave: decode upload response: %w", err)
	}
	if strings.TrimSpace(res.URI) == "" {
		return "", ErrEmptyUploadURI
	}

	u.logger.Info("upload ok", zap.String("uri", res.URI))
	return res.URI, nil
}
