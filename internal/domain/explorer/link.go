// internal/domain/explorer/link.go
package explorer

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Kind is the entity a link points at.
type Kind string

const (
	KindTransaction Kind = "transaction"
	KindAddress     Kind = "address"
	KindBlock       Kind = "block"
)

const (
	baseURL = "https://explorer.solana.com"

	NetworkMainnet = "mainnet-beta"
	NetworkDevnet  = "devnet"
	NetworkTestnet = "testnet"
	NetworkLocal   = "localnet"

	localValidatorURL = "http://localhost:8899"
)

var (
	ErrInvalidKind  = errors.New("explorer: invalid link kind")
	ErrEmptyValue   = errors.New("explorer: value is empty")
	ErrEmptyNetwork = errors.New("explorer: network is empty")
)

// Link formats a block-explorer URL for a transaction signature, address or block.
// The mainnet cluster carries no query; localnet points the explorer at a local validator.
func Link(kind Kind, value, network string) (string, error) {
	var path string
	switch kind {
	case KindTransaction:
		path = "tx"
	case KindAddress:
		path = "address"
	case KindBlock:
		path = "block"
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}

	v := strings.TrimSpace(value)
	if v == "" {
		return "", ErrEmptyValue
	}
	n := strings.TrimSpace(network)
	if n == "" {
		return "", ErrEmptyNetwork
	}

	u := baseURL + "/" + path + "/" + url.PathEscape(v)

	q := url.Values{}
	switch n {
	case NetworkMainnet:
	case NetworkLocal:
		q.Set("cluster", "custom")
		q.Set("customUrl", localValidatorURL)
	default:
		q.Set("cluster", n)
	}
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u, nil
}

// MustLink is Link for callers that pass a known kind; on error it returns the bare value.
func MustLink(kind Kind, value, network string) string {
	l, err := Link(kind, value, network)
	if err != nil {
		return value
	}
	return l
}
