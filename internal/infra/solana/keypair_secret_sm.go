// internal/infra/solana/keypair_secret_sm.go
package solana

import (
	"context"
	"errors"
	"fmt"
	"strings"

	smpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"tokenflows/internal/domain/chainerr"
)

var (
	ErrKeypairSecretNotConfigured = errors.New("keypair_secret: not configured")
	ErrKeypairSecretNotFound      = errors.New("keypair_secret: secret not found")
	ErrKeypairSecretEmpty         = errors.New("keypair_secret: secret payload is empty")
)

// SecretVersionAccessor is satisfied by *secretmanager.Client.
type SecretVersionAccessor interface {
	AccessSecretVersion(ctx context.Context, req *smpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*smpb.AccessSecretVersionResponse, error)
}

// LoadKeypairFromSecretManager restores the signer stored in a Secret Manager secret version.
//
// name には
//
//	"projects/<PROJECT_ID>/secrets/<SECRET_ID>/versions/latest"
//
// のような Secret Version のフルパスを指定する。中身は SECRET_KEY と同じ形式。
func LoadKeypairFromSecretManager(ctx context.Context, sm SecretVersionAccessor, name string) (types.Account, error) {
	const op = "load_keypair_secret"

	if sm == nil {
		return types.Account{}, chainerr.Config(op, ErrKeypairSecretNotConfigured)
	}
	n := strings.TrimSpace(name)
	if n == "" || !strings.HasPrefix(n, "projects/") || !strings.Contains(n, "/secrets/") {
		return types.Account{}, chainerr.Config(op, fmt.Errorf("%w: invalid secret version name %q", ErrKeypairSecretNotConfigured, n))
	}

	res, err := sm.AccessSecretVersion(ctx, &smpb.AccessSecretVersionRequest{Name: n})
	if err != nil {
		switch status.Code(err) {
		case codes.NotFound:
			return types.Account{}, chainerr.Config(op, fmt.Errorf("%w: %s", ErrKeypairSecretNotFound, n))
		case codes.PermissionDenied, codes.InvalidArgument:
			return types.Account{}, chainerr.Config(op, fmt.Errorf("access %s: %w", n, err))
		}
		return types.Account{}, fmt.Errorf("%s: AccessSecretVersion %s: %w", op, n, err)
	}
	if res == nil || res.GetPayload() == nil || len(res.GetPayload().GetData()) == 0 {
		return types.Account{}, chainerr.Config(op, ErrKeypairSecretEmpty)
	}

	acc, err := DecodeKeypair(res.GetPayload().GetData())
	if err != nil {
		return types.Account{}, chainerr.Config(op, err)
	}
	return acc, nil
}
