package ledger

import (
	"time"

	"github.com/mintworks/nftregistry-go/internal/core/domain"
)

// WindowDateLayout is the accepted form of the mint window bounds,
// interpreted as UTC.
const WindowDateLayout = "2006-01-02 15:04:05"

// MintWindow is the inclusive time span during which public
// self-minting is allowed. The original date strings are kept for
// surfacing in the registry info endpoint.
type MintWindow struct {
	BeginDate string `json:"begin_date"`
	EndDate   string `json:"end_date"`

	beginMilli int64
	endMilli   int64
}

// ParseMintWindow validates and parses the window bounds. Invalid
// dates are a startup-fatal condition for callers.
func ParseMintWindow(beginDate, endDate string) (MintWindow, error) {
	begin, err := time.ParseInLocation(WindowDateLayout, beginDate, time.UTC)
	if err != nil {
		return MintWindow{}, domain.ErrInvalidArgument.WithDetails("begin date: " + beginDate).WithCause(err)
	}
	end, err := time.ParseInLocation(WindowDateLayout, endDate, time.UTC)
	if err != nil {
		return MintWindow{}, domain.ErrInvalidArgument.WithDetails("end date: " + endDate).WithCause(err)
	}
	return MintWindow{
		BeginDate:  beginDate,
		EndDate:    endDate,
		beginMilli: begin.UnixMilli(),
		endMilli:   end.UnixMilli(),
	}, nil
}

// Contains reports whether now (Unix milliseconds) falls inside the
// window. Both bounds are inclusive.
func (w MintWindow) Contains(nowMilli int64) bool {
	return nowMilli >= w.beginMilli && nowMilli <= w.endMilli
}
