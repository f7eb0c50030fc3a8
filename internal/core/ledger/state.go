package ledger

import (
	"github.com/mintworks/nftregistry-go/internal/core/domain"
	"github.com/mintworks/nftregistry-go/pkg/digest"
)

// State is the serializable form of the ledger used by snapshots. It
// carries the full registry state and the content-hash index in one
// payload so the two are always captured atomically.
type State struct {
	Tokens     []*domain.Token                      `json:"tokens"`
	Custodians []domain.Identity                    `json:"custodians"`
	Operators  map[domain.Identity][]domain.Identity `json:"operators"`
	Whitelist  []domain.Identity                    `json:"whitelist"`
	Name       string                               `json:"name"`
	Symbol     string                               `json:"symbol"`
	Logo       domain.Logo                          `json:"logo"`
	BeginDate  string                               `json:"begin_date"`
	EndDate    string                               `json:"end_date"`
	TotalLimit string                               `json:"total_limit"`
	Txid       uint64                               `json:"txid"`
	HashIndex  map[uint64]digest.Digest             `json:"hash_index"`
}

// Export captures a deep copy of the current state.
func (l *Ledger) Export() *State {
	st := &State{
		Tokens:     make([]*domain.Token, len(l.tokens)),
		Custodians: make([]domain.Identity, 0, len(l.custodians)),
		Operators:  make(map[domain.Identity][]domain.Identity, len(l.operators)),
		Whitelist:  l.Whitelist(),
		Name:       l.name,
		Symbol:     l.symbol,
		Logo:       l.logo,
		BeginDate:  l.window.BeginDate,
		EndDate:    l.window.EndDate,
		TotalLimit: l.totalLimit,
		Txid:       l.txid,
		HashIndex:  make(map[uint64]digest.Digest, l.hashIndex.Count()),
	}
	for i, tok := range l.tokens {
		st.Tokens[i] = tok.Clone()
	}
	for c := range l.custodians {
		st.Custodians = append(st.Custodians, c)
	}
	for owner, set := range l.operators {
		ops := make([]domain.Identity, 0, len(set))
		for op := range set {
			ops = append(ops, op)
		}
		st.Operators[owner] = ops
	}
	l.hashIndex.Range(func(id uint64, d digest.Digest) bool {
		st.HashIndex[id] = d
		return true
	})
	return st
}

// Restore replaces the full registry state from a snapshot, the
// whitelist, mint window, and total limit included: those fields are
// fixed at init, and the snapshot is the authoritative record of what
// init saw.
func (l *Ledger) Restore(st *State) error {
	window, err := ParseMintWindow(st.BeginDate, st.EndDate)
	if err != nil {
		return err
	}

	l.tokens = make([]*domain.Token, len(st.Tokens))
	for i, tok := range st.Tokens {
		l.tokens[i] = tok.Clone()
	}

	l.custodians = make(map[domain.Identity]struct{}, len(st.Custodians))
	for _, c := range st.Custodians {
		l.custodians[c] = struct{}{}
	}

	l.operators = make(map[domain.Identity]map[domain.Identity]struct{}, len(st.Operators))
	for owner, ops := range st.Operators {
		set := make(map[domain.Identity]struct{}, len(ops))
		for _, op := range ops {
			set[op] = struct{}{}
		}
		l.operators[owner] = set
	}

	l.whitelist = make(map[domain.Identity]struct{}, len(st.Whitelist))
	for _, w := range st.Whitelist {
		if !w.IsZero() {
			l.whitelist[w] = struct{}{}
		}
	}

	l.name = st.Name
	l.symbol = st.Symbol
	l.logo = st.Logo
	l.window = window
	l.totalLimit = st.TotalLimit
	l.txid = st.Txid

	l.hashIndex.Clear()
	for id, d := range st.HashIndex {
		l.hashIndex.Set(id, d)
	}
	return nil
}
