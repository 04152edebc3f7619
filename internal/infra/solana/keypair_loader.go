// internal/infra/solana/keypair_loader.go
package solana

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"

	"tokenflows/internal/domain/chainerr"
)

var (
	ErrKeypairEnvMissing = errors.New("keypair: environment variable is not set")
	ErrKeypairInvalid    = errors.New("keypair: invalid secret key")
)

// LoadKeypairFromEnv restores the signer stored in the environment variable name.
// Accepted forms:
//   - solana-keygen JSON array "[12,34,...]" (64 bytes)
//   - base58 string of the 64-byte secret key
//
// It only reads the environment.
func LoadKeypairFromEnv(name string) (types.Account, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return types.Account{}, chainerr.Config("load_keypair", fmt.Errorf("%w: %s", ErrKeypairEnvMissing, name))
	}
	acc, err := DecodeKeypair([]byte(raw))
	if err != nil {
		return types.Account{}, chainerr.Config("load_keypair", fmt.Errorf("%s: %w", name, err))
	}
	return acc, nil
}

// DecodeKeypair decodes secret key material in either accepted form and checks that
// the embedded public key belongs to the seed.
func DecodeKeypair(data []byte) (types.Account, error) {
	s := bytes.TrimSpace(data)
	if len(s) == 0 {
		return types.Account{}, fmt.Errorf("%w: empty", ErrKeypairInvalid)
	}

	var keyBytes []byte
	var err error
	if s[0] == '[' {
		keyBytes, err = decodeKeypairJSON(s)
	} else {
		keyBytes, err = base58.Decode(string(s))
		if err != nil {
			err = fmt.Errorf("%w: not base58: %v", ErrKeypairInvalid, err)
		}
	}
	if err != nil {
		return types.Account{}, err
	}

	if len(keyBytes) != ed25519.PrivateKeySize {
		return types.Account{}, fmt.Errorf("%w: got %d bytes, want %d", ErrKeypairInvalid, len(keyBytes), ed25519.PrivateKeySize)
	}

	// ed25519.PrivateKey.Public() trusts the trailing 32 bytes; rebuild from the seed instead.
	expected := ed25519.NewKeyFromSeed(keyBytes[:ed25519.SeedSize])
	if !bytes.Equal(expected, keyBytes) {
		return types.Account{}, fmt.Errorf("%w: public key does not match seed", ErrKeypairInvalid)
	}

	acc, err := types.AccountFromBytes(keyBytes)
	if err != nil {
		return types.Account{}, fmt.Errorf("%w: %v", ErrKeypairInvalid, err)
	}
	return acc, nil
}

// decodeKeypairJSON restores the 64-byte key from a solana-keygen JSON array.
func decodeKeypairJSON(data []byte) ([]byte, error) {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return nil, fmt.Errorf("%w: unmarshal keypair json: %v", ErrKeypairInvalid, err)
	}
	if len(ints) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrKeypairInvalid, len(ints), ed25519.PrivateKeySize)
	}

	keyBytes := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("%w: byte out of range at %d: %d", ErrKeypairInvalid, i, v)
		}
		keyBytes[i] = byte(v)
	}
	return keyBytes, nil
}

// EncodeKeypairJSON renders the secret key in the solana-keygen JSON array format.
func EncodeKeypairJSON(acc types.Account) ([]byte, error) {
	ints := make([]int, len(acc.PrivateKey))
	for i, b := range acc.PrivateKey {
		ints[i] = int(b)
	}
	return json.Marshal(ints)
}
