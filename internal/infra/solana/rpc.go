// internal/infra/solana/rpc.go
package solana

import (
	"context"
	"errors"
	"strings"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/rpc"
	"github.com/blocto/solana-go-sdk/types"
)

// Solana Devnet RPC endpoint (default)
const DevnetEndpoint = rpc.DevnetRPCEndpoint

// AccountInfo is the subset of getAccountInfo this module reads.
type AccountInfo struct {
	Lamports uint64
	Data     []byte
}

// SignatureStatus is the subset of getSignatureStatuses this module reads.
type SignatureStatus struct {
	Found              bool
	ConfirmationStatus string // processed | confirmed | finalized
	Err                any
}

// RPC defines the Solana RPC methods the flows need.
// ClientRPC is the production implementation; tests provide in-memory fakes.
type RPC interface {
	// GetAccount returns ok=false when the account does not exist.
	GetAccount(ctx context.Context, address common.PublicKey) (info AccountInfo, ok bool, err error)
	LatestBlockhash(ctx context.Context) (string, error)
	SendTransaction(ctx context.Context, tx types.Transaction) (string, error)
	SignatureStatus(ctx context.Context, signature string) (SignatureStatus, error)
}

var ErrRPCNotConfigured = errors.New("solana rpc: client not configured")

// ClientRPC adapts blocto's client.Client to RPC.
type ClientRPC struct {
	Client   *client.Client
	Endpoint string
}

var _ RPC = (*ClientRPC)(nil)

// NewClientRPC connects to endpoint, defaulting to devnet.
func NewClientRPC(endpoint string) *ClientRPC {
	ep := strings.TrimSpace(endpoint)
	if ep == "" {
		ep = DevnetEndpoint
	}
	return &ClientRPC{
		Client:   client.NewClient(ep),
		Endpoint: ep,
	}
}

func (c *ClientRPC) GetAccount(ctx context.Context, address common.PublicKey) (AccountInfo, bool, error) {
	if c == nil || c.Client == nil {
		return AccountInfo{}, false, ErrRPCNotConfigured
	}

	info, err := c.Client.GetAccountInfo(ctx, address.ToBase58())
	if err != nil {
		return AccountInfo{}, false, err
	}

	// client.GetAccountInfo returns a zero value for a null result.
	if info.Lamports == 0 && len(info.Data) == 0 {
		return AccountInfo{}, false, nil
	}
	return AccountInfo{Lamports: info.Lamports, Data: info.Data}, true, nil
}

func (c *ClientRPC) LatestBlockhash(ctx context.Context) (string, error) {
	if c == nil || c.Client == nil {
		return "", ErrRPCNotConfigured
	}
	latest, err := c.Client.GetLatestBlockhash(ctx)
	if err != nil {
		return "", err
	}
	return latest.Blockhash, nil
}

func (c *ClientRPC) SendTransaction(ctx context.Context, tx types.Transaction) (string, error) {
	if c == nil || c.Client == nil {
		return "", ErrRPCNotConfigured
	}
	return c.Client.SendTransaction(ctx, tx)
}

func (c *ClientRPC) SignatureStatus(ctx context.Context, signature string) (SignatureStatus, error) {
	if c == nil || c.Client == nil {
		return SignatureStatus{}, ErrRPCNotConfigured
	}
	st, err := c.Client.GetSignatureStatus(ctx, signature)
	if err != nil {
		return SignatureStatus{}, err
	}
	if st == nil {
		return SignatureStatus{}, nil
	}

	out := SignatureStatus{Found: true, Err: st.Err}
	if st.ConfirmationStatus != nil {
		out.ConfirmationStatus = string(*st.ConfirmationStatus)
	}
	return out, nil
}
