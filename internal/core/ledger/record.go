package ledger

import (
	"encoding/json"

	"github.com/mintworks/nftregistry-go/internal/core/domain"
	"github.com/mintworks/nftregistry-go/pkg/digest"
)

// Op identifies a ledger mutation kind.
type Op string

const (
	OpMint         Op = "mint"
	OpTransfer     Op = "transfer"
	OpApprove      Op = "approve"
	OpSetOperator  Op = "set_operator"
	OpBurn         Op = "burn"
	OpSetName      Op = "set_name"
	OpSetSymbol    Op = "set_symbol"
	OpSetLogo      Op = "set_logo"
	OpSetCustodian Op = "set_custodian"
)

// opCodes maps ops to the single-byte codes used in WAL frames.
var opCodes = map[Op]byte{
	OpMint:         0x01,
	OpTransfer:     0x02,
	OpApprove:      0x03,
	OpSetOperator:  0x04,
	OpBurn:         0x05,
	OpSetName:      0x10,
	OpSetSymbol:    0x11,
	OpSetLogo:      0x12,
	OpSetCustodian: 0x13,
}

// Code returns the WAL frame byte for the op, or 0 if unknown.
func (o Op) Code() byte {
	return opCodes[o]
}

// Sequenced reports whether the op consumes a transaction id.
// Administrative setters succeed without one.
func (o Op) Sequenced() bool {
	switch o {
	case OpMint, OpTransfer, OpApprove, OpSetOperator, OpBurn:
		return true
	default:
		return false
	}
}

// Record is the committed effect of one ledger mutation. Records are
// emitted by Prepare methods after all checks have passed, persisted
// to the WAL, and consumed by Apply; they carry everything Apply
// needs so that replay never re-runs authorization.
type Record struct {
	Op     Op              `json:"op"`
	Txid   uint64          `json:"txid"`
	Caller domain.Identity `json:"caller,omitempty"`

	// Transfer / approve / burn.
	TokenID  uint64          `json:"token_id,omitempty"`
	From     domain.Identity `json:"from,omitempty"`
	To       domain.Identity `json:"to,omitempty"`
	Delegate domain.Identity `json:"delegate,omitempty"`

	// Operator grants.
	Operator domain.Identity `json:"operator,omitempty"`
	Enabled  bool            `json:"enabled,omitempty"`

	// Mint.
	Metadata      domain.MetadataDesc `json:"metadata,omitempty"`
	ContentSize   int64               `json:"content_size,omitempty"`
	ContentDigest digest.Digest       `json:"content_digest,omitempty"`
	MintedAt      int64               `json:"minted_at,omitempty"`

	// Administrative setters.
	Name      string          `json:"name,omitempty"`
	Symbol    string          `json:"symbol,omitempty"`
	Logo      *domain.Logo    `json:"logo,omitempty"`
	Custodian domain.Identity `json:"custodian,omitempty"`
	Grant     bool            `json:"grant,omitempty"`
}

// Encode serializes the record for WAL framing.
func (r *Record) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// DecodeRecord deserializes a WAL record payload.
func DecodeRecord(data []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, domain.ErrStorageError.WithDetails("corrupt ledger record").WithCause(err)
	}
	if rec.Op.Code() == 0 {
		return nil, domain.ErrStorageError.WithDetails("unknown ledger record op: " + string(rec.Op))
	}
	return &rec, nil
}
