// internal/domain/submission/entity.go
package submission

import (
	"errors"
	"strings"
	"time"
)

/*
責任と機能:
- 1 回のトランザクション送信（transfer / metadata create / metadata update）の記録。
- 成功/失敗・エラー種別・tx 署名を保持し、後から台帳として参照できるようにする。
- チェーン上の結果を変えるものではない（記録に失敗してもフローは継続する）。
*/

type Flow string

const (
	FlowTransfer       Flow = "transfer"
	FlowCreateATA      Flow = "create_ata"
	FlowMetadataCreate Flow = "metadata_create"
	FlowMetadataUpdate Flow = "metadata_update"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// ErrorType mirrors chainerr.Kind so the ledger stays free of infra imports.
type ErrorType string

const (
	ErrorTypeUnknown             ErrorType = "unknown"
	ErrorTypeConfiguration       ErrorType = "configuration"
	ErrorTypeAddressResolution   ErrorType = "address_resolution"
	ErrorTypeAccountLookup       ErrorType = "account_lookup"
	ErrorTypeSubmission          ErrorType = "submission"
	ErrorTypeConfirmationTimeout ErrorType = "confirmation_timeout"
)

var (
	ErrNotFound         = errors.New("submission: not found")
	ErrAlreadyExists    = errors.New("submission: already exists")
	ErrInvalidID        = errors.New("submission: invalid id")
	ErrInvalidFlow      = errors.New("submission: invalid flow")
	ErrInvalidMint      = errors.New("submission: invalid mint")
	ErrInvalidStatus    = errors.New("submission: invalid status")
	ErrInvalidCreatedAt = errors.New("submission: invalid createdAt")
	ErrEmptySignature   = errors.New("submission: signature is empty")
)

// Submission is one attempted transaction.
type Submission struct {
	ID   string `json:"id"`
	Flow Flow   `json:"flow"`

	Mint   string `json:"mint"`
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`

	Signature *string    `json:"signature,omitempty"`
	Status    Status     `json:"status"`
	ErrorType *ErrorType `json:"errorType,omitempty"`
	ErrorMsg  *string    `json:"errorMsg,omitempty"`

	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// NewPending creates a Submission in pending status.
func NewPending(id string, flow Flow, mint, from, to string, amount uint64, createdAt time.Time) (Submission, error) {
	s := Submission{
		ID:        strings.TrimSpace(id),
		Flow:      flow,
		Mint:      strings.TrimSpace(mint),
		From:      strings.TrimSpace(from),
		To:        strings.TrimSpace(to),
		Amount:    amount,
		Status:    StatusPending,
		CreatedAt: createdAt.UTC(),
	}
	if err := s.validate(); err != nil {
		return Submission{}, err
	}
	return s, nil
}

// MarkSucceeded stores the confirmed signature.
func (s *Submission) MarkSucceeded(sig string, at time.Time) error {
	if s == nil {
		return nil
	}
	sig = strings.TrimSpace(sig)
	if sig == "" {
		return ErrEmptySignature
	}
	s.Status = StatusSucceeded
	s.Signature = &sig
	s.ErrorType = nil
	s.ErrorMsg = nil

	u := at.UTC()
	s.UpdatedAt = &u
	return nil
}

// MarkFailed stores the failure; sig may be empty when nothing reached the network.
func (s *Submission) MarkFailed(errType ErrorType, msg, sig string, at time.Time) {
	if s == nil {
		return
	}
	et := errType
	if strings.TrimSpace(string(et)) == "" {
		et = ErrorTypeUnknown
	}
	s.Status = StatusFailed
	s.ErrorType = &et

	if m := strings.TrimSpace(msg); m != "" {
		s.ErrorMsg = &m
	} else {
		s.ErrorMsg = nil
	}
	if v := strings.TrimSpace(sig); v != "" {
		s.Signature = &v
	}

	u := at.UTC()
	s.UpdatedAt = &u
}

func (s Submission) validate() error {
	if s.ID == "" {
		return ErrInvalidID
	}
	switch s.Flow {
	case FlowTransfer, FlowCreateATA, FlowMetadataCreate, FlowMetadataUpdate:
	default:
		return ErrInvalidFlow
	}
	if s.Mint == "" {
		return ErrInvalidMint
	}
	switch s.Status {
	case StatusPending, StatusSucceeded, StatusFailed:
	default:
		return ErrInvalidStatus
	}
	if s.CreatedAt.IsZero() {
		return ErrInvalidCreatedAt
	}
	return nil
}
