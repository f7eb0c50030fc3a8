package domain

// MetadataPurpose classifies a metadata part.
type MetadataPurpose string

const (
	// PurposeRendered marks the part describing the displayable asset.
	PurposeRendered MetadataPurpose = "rendered"
	// PurposePreview marks a reduced preview part.
	PurposePreview MetadataPurpose = "preview"
)

// ValueKind discriminates metadata value variants.
type ValueKind string

const (
	ValueText  ValueKind = "text"
	ValueBlob  ValueKind = "blob"
	ValueNat   ValueKind = "nat"
	ValueNat8  ValueKind = "nat8"
	ValueNat16 ValueKind = "nat16"
	ValueNat32 ValueKind = "nat32"
	ValueNat64 ValueKind = "nat64"
)

// MetadataValue is a tagged metadata value. Exactly one of Text,
// Blob, or Nat is meaningful, selected by Kind.
type MetadataValue struct {
	Kind ValueKind `json:"kind"`
	Text string    `json:"text,omitempty"`
	Blob []byte    `json:"blob,omitempty"`
	Nat  uint64    `json:"nat,omitempty"`
}

// TextValue builds a text metadata value.
func TextValue(s string) MetadataValue {
	return MetadataValue{Kind: ValueText, Text: s}
}

// BlobValue builds a blob metadata value.
func BlobValue(b []byte) MetadataValue {
	return MetadataValue{Kind: ValueBlob, Blob: b}
}

// NatValue builds a natural-number metadata value of the given width.
func NatValue(kind ValueKind, n uint64) MetadataValue {
	return MetadataValue{Kind: kind, Nat: n}
}

// MetadataKeyVal is one key-value entry of a metadata part.
type MetadataKeyVal struct {
	Key string        `json:"key"`
	Val MetadataValue `json:"val"`
}

// MetadataPart groups key-value entries under a purpose. Data is an
// optional inline payload distinct from the token content blob.
type MetadataPart struct {
	Purpose MetadataPurpose  `json:"purpose"`
	KeyVal  []MetadataKeyVal `json:"key_val_data"`
	Data    []byte           `json:"data,omitempty"`
}

// MetadataDesc is the full metadata descriptor of a token.
type MetadataDesc []MetadataPart

// Clone returns a deep copy of the descriptor.
func (d MetadataDesc) Clone() MetadataDesc {
	if d == nil {
		return nil
	}
	out := make(MetadataDesc, len(d))
	for i, part := range d {
		cp := part
		if part.KeyVal != nil {
			cp.KeyVal = make([]MetadataKeyVal, len(part.KeyVal))
			for j, kv := range part.KeyVal {
				cpv := kv
				if kv.Val.Blob != nil {
					cpv.Val.Blob = append([]byte(nil), kv.Val.Blob...)
				}
				cp.KeyVal[j] = cpv
			}
		}
		if part.Data != nil {
			cp.Data = append([]byte(nil), part.Data...)
		}
		out[i] = cp
	}
	return out
}

// Lookup returns the first value stored under key across all parts.
func (d MetadataDesc) Lookup(key string) (MetadataValue, bool) {
	for _, part := range d {
		for _, kv := range part.KeyVal {
			if kv.Key == key {
				return kv.Val, true
			}
		}
	}
	return MetadataValue{}, false
}

// Validate checks descriptor shape constraints.
func (d MetadataDesc) Validate() error {
	if len(d) > MaxMetadataParts {
		return ErrInvalidArgument.WithDetails("too many metadata parts")
	}
	for _, part := range d {
		switch part.Purpose {
		case PurposeRendered, PurposePreview:
		default:
			return ErrInvalidArgument.WithDetails("unknown metadata purpose: " + string(part.Purpose))
		}
		for _, kv := range part.KeyVal {
			if kv.Key == "" {
				return ErrInvalidArgument.WithDetails("empty metadata key")
			}
			if len(kv.Key) > MaxMetadataKeyLength {
				return ErrInvalidArgument.WithDetails("metadata key too long: " + kv.Key)
			}
		}
	}
	return nil
}
