// internal/domain/tokenMetadata/entity.go
package tokenMetadata

import (
	"errors"
	"fmt"
	"strings"
)

/*
責任と機能:
- mint に紐づく Metaplex metadata record の内容（Payload）と、
  create / update の分岐状態（State）、1 回の実行結果（Result）を表す。
- on-chain の文字数上限をここで検証し、RPC 前に失敗させる。
*/

// Metaplex token-metadata program limits.
const (
	MaxNameLength           = 32
	MaxSymbolLength         = 10
	MaxURILength            = 200
	MaxSellerFeeBasisPoints = 10000
)

var (
	ErrInvalidName      = errors.New("tokenMetadata: invalid name")
	ErrInvalidSymbol    = errors.New("tokenMetadata: invalid symbol")
	ErrInvalidURI       = errors.New("tokenMetadata: invalid uri")
	ErrInvalidSellerFee = errors.New("tokenMetadata: invalid sellerFeeBasisPoints")
)

// Payload is the descriptive data written to the metadata record.
// Creators, collection and uses are always written as null by this flow.
type Payload struct {
	Name                 string `json:"name"`
	Symbol               string `json:"symbol"`
	URI                  string `json:"uri"`
	SellerFeeBasisPoints uint16 `json:"sellerFeeBasisPoints"`
	IsMutable            bool   `json:"isMutable"`
}

// Normalized returns a copy with surrounding whitespace removed.
func (p Payload) Normalized() Payload {
	p.Name = strings.TrimSpace(p.Name)
	p.Symbol = strings.TrimSpace(p.Symbol)
	p.URI = strings.TrimSpace(p.URI)
	return p
}

// Validate enforces the on-chain field limits (lengths are in bytes).
func (p Payload) Validate() error {
	if p.Name == "" || len(p.Name) > MaxNameLength {
		return fmt.Errorf("%w: len=%d max=%d", ErrInvalidName, len(p.Name), MaxNameLength)
	}
	if len(p.Symbol) > MaxSymbolLength {
		return fmt.Errorf("%w: len=%d max=%d", ErrInvalidSymbol, len(p.Symbol), MaxSymbolLength)
	}
	if p.URI == "" || len(p.URI) > MaxURILength {
		return fmt.Errorf("%w: len=%d max=%d", ErrInvalidURI, len(p.URI), MaxURILength)
	}
	if p.SellerFeeBasisPoints > MaxSellerFeeBasisPoints {
		return fmt.Errorf("%w: %d", ErrInvalidSellerFee, p.SellerFeeBasisPoints)
	}
	return nil
}

// Record is a decoded on-chain metadata account.
type Record struct {
	Address         string
	Mint            string
	UpdateAuthority string
	Payload         Payload
}

// State is the existence state of the metadata record observed by one read.
type State string

const (
	StateNoMetadata     State = "NO_METADATA"
	StateMetadataExists State = "METADATA_EXISTS"
)

// Action is the instruction chosen for a state.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
)

// ActionFor maps the observed state to the instruction to submit.
func ActionFor(s State) Action {
	if s == StateMetadataExists {
		return ActionUpdate
	}
	return ActionCreate
}

// Result is the outcome of one metadata flow run.
// Err is set when the submission failed; Signature may still be set if the
// transaction reached the network but was not confirmed.
type Result struct {
	Mint            string
	MetadataAddress string
	State           State
	Action          Action
	Payload         Payload
	Signature       string
	ExplorerLink    string
	Err             error
}

// OK reports whether the submission was confirmed.
func (r Result) OK() bool {
	return r.Err == nil && r.Signature != ""
}
