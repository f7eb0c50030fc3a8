package ledger

import (
	"testing"

	"github.com/mintworks/nftregistry-go/internal/core/domain"
	"github.com/mintworks/nftregistry-go/pkg/digest"
)

const (
	alice     = domain.Identity("alice")
	bob       = domain.Identity("bob")
	carol     = domain.Identity("carol")
	custodian = domain.Identity("root")
)

func testWindow(t *testing.T) MintWindow {
	t.Helper()
	w, err := ParseMintWindow("2024-01-01 00:00:00", "2030-12-31 23:59:59")
	if err != nil {
		t.Fatalf("ParseMintWindow: %v", err)
	}
	return w
}

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	return New(Genesis{
		Name:       "activity",
		Symbol:     "ACT",
		Custodians: []domain.Identity{custodian},
		Whitelist:  []domain.Identity{alice, bob},
		Window:     testWindow(t),
		TotalLimit: "10000",
	})
}

// committer returns a helper that runs a prepare result through Apply,
// failing the test on a prepare error.
func committer(t *testing.T, l *Ledger) func(*Record, error) *Record {
	t.Helper()
	return func(rec *Record, err error) *Record {
		t.Helper()
		if err != nil {
			t.Fatalf("prepare: %v", err)
		}
		l.Apply(rec)
		return rec
	}
}

func mintTo(t *testing.T, l *Ledger, owner domain.Identity, content []byte) uint64 {
	t.Helper()
	rec := committer(t, l)(l.PrepareMint(owner, owner, nil, content, 1000))
	return rec.TokenID
}

func TestMintAllocatesSequentialIDs(t *testing.T) {
	l := newTestLedger(t)
	commit := committer(t, l)

	for want := uint64(0); want < 3; want++ {
		rec := commit(l.PrepareMint(alice, alice, nil, []byte("c"), 1000))
		if rec.TokenID != want {
			t.Fatalf("token id = %d, want %d", rec.TokenID, want)
		}
	}
	if got := l.TotalSupply(); got != 3 {
		t.Fatalf("TotalSupply = %d, want 3", got)
	}
}

func TestTxidIsPreAdvanceAndGapless(t *testing.T) {
	l := newTestLedger(t)
	commit := committer(t, l)

	rec := commit(l.PrepareMint(alice, alice, nil, nil, 1000))
	if rec.Txid != 0 {
		t.Fatalf("first txid = %d, want 0", rec.Txid)
	}
	if l.Txid() != 1 {
		t.Fatalf("counter after commit = %d, want 1", l.Txid())
	}

	// A failed operation must not consume a txid.
	if _, err := l.PrepareTransfer(bob, alice, carol, 0, false); err == nil {
		t.Fatal("unauthorized transfer prepared without error")
	}
	rec = commit(l.PrepareTransfer(alice, alice, bob, 0, false))
	if rec.Txid != 1 {
		t.Fatalf("txid after failed attempt = %d, want 1", rec.Txid)
	}
}

func TestTransferClearsApproved(t *testing.T) {
	l := newTestLedger(t)
	commit := committer(t, l)
	id := mintTo(t, l, alice, nil)

	commit(l.PrepareApprove(alice, carol, id))
	commit(l.PrepareTransfer(alice, alice, bob, id, false))

	tok, err := l.Token(id)
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok.Owner != bob {
		t.Fatalf("owner = %q, want %q", tok.Owner, bob)
	}
	if !tok.Approved.IsZero() {
		t.Fatalf("approved after transfer = %q, want cleared", tok.Approved)
	}
}

func TestTransferAuthorization(t *testing.T) {
	l := newTestLedger(t)
	commit := committer(t, l)
	id := mintTo(t, l, alice, nil)

	// Stranger: unauthorized.
	if _, err := l.PrepareTransfer(carol, alice, bob, id, false); !domain.IsDomainError(err, "NR-LEDG-4030") {
		t.Fatalf("stranger transfer = %v, want NR-LEDG-4030", err)
	}

	// Approved delegate may move the token.
	commit(l.PrepareApprove(alice, carol, id))
	commit(l.PrepareTransfer(carol, alice, bob, id, false))
	if owner, _ := l.OwnerOf(id); owner != bob {
		t.Fatalf("owner after delegate transfer = %q, want %q", owner, bob)
	}

	// Custodian may move anyone's token.
	commit(l.PrepareTransfer(custodian, bob, alice, id, false))
	if owner, _ := l.OwnerOf(id); owner != alice {
		t.Fatalf("owner after custodian transfer = %q, want %q", owner, alice)
	}
}

func TestTransferOwnershipMismatchAfterAuthorization(t *testing.T) {
	l := newTestLedger(t)
	id := mintTo(t, l, alice, nil)

	// Owner is authorized, but the stated source is wrong: distinct error.
	if _, err := l.PrepareTransfer(alice, bob, carol, id, false); !domain.IsDomainError(err, "NR-LEDG-4002") {
		t.Fatalf("mismatched source = %v, want NR-LEDG-4002", err)
	}

	// An unauthorized caller with a wrong source still gets the
	// authorization error first.
	if _, err := l.PrepareTransfer(carol, bob, carol, id, false); !domain.IsDomainError(err, "NR-LEDG-4030") {
		t.Fatalf("unauthorized + mismatched = %v, want NR-LEDG-4030", err)
	}
}

func TestOperatorAuthorizationKeyedByStatedSource(t *testing.T) {
	l := newTestLedger(t)
	commit := committer(t, l)
	id := mintTo(t, l, alice, nil)

	// Alice grants carol operator status over her holdings.
	commit(l.PrepareSetOperator(alice, carol, true))

	// Carol qualifies when the stated source is alice.
	commit(l.PrepareTransfer(carol, alice, bob, id, false))
	if owner, _ := l.OwnerOf(id); owner != bob {
		t.Fatalf("owner = %q, want %q", owner, bob)
	}

	// The lookup follows the stated source, not the actual owner: with
	// the token at bob, carol naming alice as source passes the
	// authorization leg and then fails the ownership check.
	if _, err := l.PrepareTransfer(carol, alice, carol, id, false); !domain.IsDomainError(err, "NR-LEDG-4002") {
		t.Fatalf("stale source = %v, want NR-LEDG-4002", err)
	}
}

func TestSafeTransferRejectsSentinelDestination(t *testing.T) {
	l := newTestLedger(t)
	commit := committer(t, l)
	id := mintTo(t, l, alice, nil)

	// The sentinel check precedes even token lookup.
	if _, err := l.PrepareTransfer(alice, alice, domain.Sentinel, 999, true); !domain.IsDomainError(err, "NR-LEDG-4001") {
		t.Fatalf("safe transfer to sentinel = %v, want NR-LEDG-4001", err)
	}

	// The plain variant allows it.
	commit(l.PrepareTransfer(alice, alice, domain.Sentinel, id, false))
	if owner, _ := l.OwnerOf(id); !owner.IsZero() {
		t.Fatalf("owner = %q, want sentinel", owner)
	}
}

func TestApproveReplacesDelegate(t *testing.T) {
	l := newTestLedger(t)
	commit := committer(t, l)
	id := mintTo(t, l, alice, nil)

	commit(l.PrepareApprove(alice, bob, id))
	commit(l.PrepareApprove(alice, carol, id))

	tok, _ := l.Token(id)
	if tok.Approved != carol {
		t.Fatalf("approved = %q, want %q", tok.Approved, carol)
	}
}

func TestApproveOperatorLegKeyedByDelegate(t *testing.T) {
	l := newTestLedger(t)
	commit := committer(t, l)
	id := mintTo(t, l, alice, nil)

	// Bob makes carol his operator. Carol can then approve with bob as
	// the named delegate even though bob owns nothing.
	commit(l.PrepareSetOperator(bob, carol, true))
	commit(l.PrepareApprove(carol, bob, id))

	tok, _ := l.Token(id)
	if tok.Approved != bob {
		t.Fatalf("approved = %q, want %q", tok.Approved, bob)
	}

	// Naming a delegate whose operator set lacks carol is refused.
	commit(l.PrepareTransfer(alice, alice, alice, id, false)) // clears approval
	if _, err := l.PrepareApprove(carol, carol, id); !domain.IsDomainError(err, "NR-LEDG-4030") {
		t.Fatalf("approve without standing = %v, want NR-LEDG-4030", err)
	}
}

func TestSetOperatorVariants(t *testing.T) {
	l := newTestLedger(t)
	commit := committer(t, l)

	// Self-targeted change is a no-op but still consumes a txid.
	rec := commit(l.PrepareSetOperator(alice, alice, true))
	if rec.Txid != 0 {
		t.Fatalf("self no-op txid = %d, want 0", rec.Txid)
	}
	if l.IsApprovedForAll(alice, alice) {
		t.Fatal("self grant took effect")
	}
	if l.Txid() != 1 {
		t.Fatalf("counter after self no-op = %d, want 1", l.Txid())
	}

	// Sentinel + enabled: refused mass grant, txid still consumed.
	commit(l.PrepareSetOperator(alice, domain.Sentinel, true))
	if l.IsApprovedForAll(alice, domain.Sentinel) {
		t.Fatal("sentinel operator was granted")
	}

	// Normal grant and revoke.
	commit(l.PrepareSetOperator(alice, bob, true))
	commit(l.PrepareSetOperator(alice, carol, true))
	if !l.IsApprovedForAll(alice, bob) || !l.IsApprovedForAll(alice, carol) {
		t.Fatal("grants not visible")
	}
	commit(l.PrepareSetOperator(alice, bob, false))
	if l.IsApprovedForAll(alice, bob) {
		t.Fatal("revoked operator still visible")
	}

	// Sentinel + disabled clears the whole set.
	commit(l.PrepareSetOperator(alice, domain.Sentinel, false))
	if l.IsApprovedForAll(alice, carol) {
		t.Fatal("mass clear left an operator behind")
	}

	if l.Txid() != 6 {
		t.Fatalf("counter = %d, want 6", l.Txid())
	}
}

func TestBurnIsStrictlyOwnerOnly(t *testing.T) {
	l := newTestLedger(t)
	commit := committer(t, l)
	id := mintTo(t, l, alice, nil)
	commit(l.PrepareApprove(alice, bob, id))
	commit(l.PrepareSetOperator(alice, carol, true))

	for _, caller := range []domain.Identity{bob, carol, custodian} {
		if _, err := l.PrepareBurn(caller, id); !domain.IsDomainError(err, "NR-LEDG-4030") {
			t.Fatalf("burn by %q = %v, want NR-LEDG-4030", caller, err)
		}
	}

	commit(l.PrepareBurn(alice, id))

	tok, err := l.Token(id)
	if err != nil {
		t.Fatalf("Token after burn: %v", err)
	}
	if !tok.IsBurned() {
		t.Fatal("token not burned")
	}
	// Burn does not clear the delegate.
	if tok.Approved != bob {
		t.Fatalf("approved after burn = %q, want %q", tok.Approved, bob)
	}
	// Burned tokens stay in the supply and the metadata remains.
	if got := l.TotalSupply(); got != 1 {
		t.Fatalf("TotalSupply after burn = %d, want 1", got)
	}
	if got := l.BalanceOf(alice); got != 0 {
		t.Fatalf("BalanceOf(alice) after burn = %d, want 0", got)
	}
}

func TestBurnMissingToken(t *testing.T) {
	l := newTestLedger(t)
	if _, err := l.PrepareBurn(alice, 0); !domain.IsDomainError(err, "NR-LEDG-4040") {
		t.Fatalf("burn missing token = %v, want NR-LEDG-4040", err)
	}
}

func TestSimpleMintChecksInOrder(t *testing.T) {
	l := newTestLedger(t)
	commit := committer(t, l)
	inWindow := int64(1_720_000_000_000) // 2024-07-03, inside the window

	// Empty URI first, even outside the window.
	if _, err := l.PrepareSimpleMint(alice, alice, "", "image/png", "n", "o", 0); !domain.IsDomainError(err, "NR-MINT-4030") {
		t.Fatalf("empty uri = %v, want NR-MINT-4030", err)
	}
	// Relative URI rejected the same way.
	if _, err := l.PrepareSimpleMint(alice, alice, "not a uri", "image/png", "n", "o", inWindow); !domain.IsDomainError(err, "NR-MINT-4030") {
		t.Fatalf("relative uri = %v, want NR-MINT-4030", err)
	}
	// Window check comes before the whitelist: carol outside the
	// window sees the window error, not the whitelist one.
	if _, err := l.PrepareSimpleMint(carol, carol, "https://example.com/x.png", "image/png", "n", "o", 0); !domain.IsDomainError(err, "NR-MINT-4003") {
		t.Fatalf("outside window = %v, want NR-MINT-4003", err)
	}
	// Inside the window, missing whitelist entry.
	if _, err := l.PrepareSimpleMint(carol, carol, "https://example.com/x.png", "image/png", "n", "o", inWindow); !domain.IsDomainError(err, "NR-MINT-4030") {
		t.Fatalf("not whitelisted = %v, want NR-MINT-4030", err)
	}

	rec := commit(l.PrepareSimpleMint(alice, alice, "https://example.com/x.png", "image/png", "first", "origin-app", inWindow))
	if rec.ContentSize != 0 {
		t.Fatalf("simple mint content size = %d, want 0", rec.ContentSize)
	}

	tok, _ := l.Token(rec.TokenID)
	if len(tok.Metadata) != 1 || tok.Metadata[0].Purpose != domain.PurposeRendered {
		t.Fatalf("metadata shape = %+v", tok.Metadata)
	}

	locType, ok := tok.Metadata.Lookup("locationType")
	if !ok || locType.Kind != domain.ValueNat8 || locType.Nat != 3 {
		t.Fatalf("locationType = %+v, %v", locType, ok)
	}
	loc, _ := tok.Metadata.Lookup("location")
	if loc.Text != "https://example.com/x.png" {
		t.Fatalf("location = %q", loc.Text)
	}
	hash, ok := tok.Metadata.Lookup("contentHash")
	if !ok || hash.Kind != domain.ValueBlob {
		t.Fatalf("contentHash = %+v, %v", hash, ok)
	}
	want := digest.SumString("https://example.com/x.png")
	if string(hash.Blob) != string(want.Bytes()) {
		t.Fatal("contentHash is not the SHA-256 of the URI string")
	}
}

func TestSimpleMintAnchorsURIInHashIndex(t *testing.T) {
	l := newTestLedger(t)
	commit := committer(t, l)
	inWindow := int64(1_720_000_000_000)

	const uri = "https://example.com/y.png"
	rec := commit(l.PrepareSimpleMint(alice, alice, uri, "image/png", "y", "o", inWindow))

	// Despite the empty content blob, the index entry is the digest of
	// the URI string, not of the empty blob.
	d, ok := l.DigestOf(rec.TokenID)
	if !ok {
		t.Fatal("hash index entry missing after simple mint")
	}
	if d != digest.SumString(uri) {
		t.Fatalf("digest = %s, want SHA-256 of the uri string", d)
	}
	if d == digest.Sum(nil) {
		t.Fatal("hash index recorded the empty-blob digest")
	}
}

func TestSimpleMintWindowBoundsInclusive(t *testing.T) {
	w, err := ParseMintWindow("2024-01-01 00:00:00", "2024-01-02 00:00:00")
	if err != nil {
		t.Fatalf("ParseMintWindow: %v", err)
	}
	begin := w.beginMilli
	end := w.endMilli

	cases := []struct {
		now  int64
		want bool
	}{
		{begin - 1, false},
		{begin, true},
		{begin + 1, true},
		{end - 1, true},
		{end, true},
		{end + 1, false},
	}
	for _, c := range cases {
		if got := w.Contains(c.now); got != c.want {
			t.Fatalf("Contains(%d) = %v, want %v", c.now, got, c.want)
		}
	}
}

func TestParseMintWindowRejectsBadDates(t *testing.T) {
	if _, err := ParseMintWindow("2024/01/01", "2024-01-02 00:00:00"); err == nil {
		t.Fatal("bad begin date accepted")
	}
	if _, err := ParseMintWindow("2024-01-01 00:00:00", "soon"); err == nil {
		t.Fatal("bad end date accepted")
	}
}

func TestHashIndexWriteOnce(t *testing.T) {
	l := newTestLedger(t)
	id := mintTo(t, l, alice, []byte("blob"))

	d, ok := l.DigestOf(id)
	if !ok {
		t.Fatal("digest missing after mint")
	}
	if d != digest.Sum([]byte("blob")) {
		t.Fatalf("digest = %s, want content digest", d)
	}
	if _, ok := l.DigestOf(id + 1); ok {
		t.Fatal("digest present for unminted id")
	}
}

func TestAdminSettersCustodianOnly(t *testing.T) {
	l := newTestLedger(t)
	commit := committer(t, l)

	if _, err := l.PrepareSetName(alice, "x"); !domain.IsDomainError(err, "NR-LEDG-4030") {
		t.Fatalf("set name by non-custodian = %v, want NR-LEDG-4030", err)
	}

	commit(l.PrepareSetName(custodian, "renamed"))
	commit(l.PrepareSetSymbol(custodian, "RN"))
	commit(l.PrepareSetLogo(custodian, &domain.Logo{ContentType: "image/svg+xml", Data: []byte("<svg/>")}))
	commit(l.PrepareSetCustodian(custodian, alice, true))

	if l.Name() != "renamed" || l.Symbol() != "RN" {
		t.Fatalf("name/symbol = %q/%q", l.Name(), l.Symbol())
	}
	if logo, ok := l.Logo(); !ok || logo.ContentType != "image/svg+xml" {
		t.Fatalf("logo = %+v, %v", logo, ok)
	}
	if !l.IsCustodian(alice) {
		t.Fatal("granted custodian not visible")
	}

	// Setters do not consume transaction ids.
	if l.Txid() != 0 {
		t.Fatalf("txid after admin setters = %d, want 0", l.Txid())
	}

	// Newly granted custodian can act; revocation works.
	commit(l.PrepareSetCustodian(alice, alice, false))
	if l.IsCustodian(alice) {
		t.Fatal("revoked custodian still visible")
	}
}

func TestSetCustodianRejectsSentinel(t *testing.T) {
	l := newTestLedger(t)
	if _, err := l.PrepareSetCustodian(custodian, domain.Sentinel, true); !domain.IsDomainError(err, "NR-LEDG-4001") {
		t.Fatalf("sentinel custodian = %v, want NR-LEDG-4001", err)
	}
}

func TestExportRestoreRoundTrip(t *testing.T) {
	l := newTestLedger(t)
	commit := committer(t, l)
	id := mintTo(t, l, alice, []byte("content"))
	commit(l.PrepareApprove(alice, bob, id))
	commit(l.PrepareSetOperator(alice, carol, true))
	commit(l.PrepareSetName(custodian, "after"))
	mintTo(t, l, bob, nil)

	st := l.Export()

	restored := newTestLedger(t)
	if err := restored.Restore(st); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if restored.Txid() != l.Txid() {
		t.Fatalf("txid = %d, want %d", restored.Txid(), l.Txid())
	}
	if restored.TotalSupply() != l.TotalSupply() {
		t.Fatalf("supply = %d, want %d", restored.TotalSupply(), l.TotalSupply())
	}
	if owner, _ := restored.OwnerOf(id); owner != alice {
		t.Fatalf("owner = %q, want %q", owner, alice)
	}
	tok, _ := restored.Token(id)
	if tok.Approved != bob {
		t.Fatalf("approved = %q, want %q", tok.Approved, bob)
	}
	if !restored.IsApprovedForAll(alice, carol) {
		t.Fatal("operator grant lost")
	}
	if restored.Name() != "after" {
		t.Fatalf("name = %q, want %q", restored.Name(), "after")
	}
	d, ok := restored.DigestOf(id)
	if !ok || d != digest.Sum([]byte("content")) {
		t.Fatalf("hash index entry = %s, %v", d, ok)
	}

	// Export must be a deep copy: mutating it cannot touch the ledger.
	st.Tokens[0].Owner = carol
	if owner, _ := l.OwnerOf(id); owner != alice {
		t.Fatal("Export shares token state with the ledger")
	}
}

func TestRestoreSnapshotStateWinsOverGenesis(t *testing.T) {
	st := newTestLedger(t).Export()

	// A ledger booted with a different whitelist, window, and limit
	// takes all three from the snapshot.
	w, err := ParseMintWindow("2026-06-01 00:00:00", "2026-06-02 00:00:00")
	if err != nil {
		t.Fatalf("ParseMintWindow: %v", err)
	}
	l := New(Genesis{
		Name:       "other",
		Symbol:     "OTH",
		Custodians: []domain.Identity{carol},
		Whitelist:  []domain.Identity{carol},
		Window:     w,
		TotalLimit: "7",
	})
	if err := l.Restore(st); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	wl := l.Whitelist()
	if len(wl) != 2 || wl[0] != alice || wl[1] != bob {
		t.Fatalf("whitelist = %v, want [alice bob]", wl)
	}
	if got := l.Window().BeginDate; got != "2024-01-01 00:00:00" {
		t.Fatalf("begin date = %q, want snapshot value", got)
	}
	if got := l.TotalLimit(); got != "10000" {
		t.Fatalf("total limit = %q, want 10000", got)
	}
	if l.IsCustodian(carol) || !l.IsCustodian(custodian) {
		t.Fatal("custodian set not taken from the snapshot")
	}

	if err := l.Restore(&State{BeginDate: "bad", EndDate: "dates"}); err == nil {
		t.Fatal("Restore accepted unparseable window dates")
	}
}

func TestRecordEncodeDecode(t *testing.T) {
	rec := &Record{
		Op:            OpMint,
		Txid:          7,
		Caller:        alice,
		TokenID:       3,
		To:            bob,
		ContentSize:   4,
		ContentDigest: digest.SumString("x"),
		MintedAt:      123,
	}

	raw, err := rec.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	back, err := DecodeRecord(raw)
	if err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}
	if back.Op != rec.Op || back.Txid != rec.Txid || back.TokenID != rec.TokenID || back.ContentDigest != rec.ContentDigest {
		t.Fatalf("round trip = %+v", back)
	}

	if _, err := DecodeRecord([]byte(`{"op":"defragment"}`)); !domain.IsDomainError(err, "NR-SYS-5001") {
		t.Fatalf("unknown op = %v, want NR-SYS-5001", err)
	}
	if _, err := DecodeRecord([]byte("{")); !domain.IsDomainError(err, "NR-SYS-5001") {
		t.Fatalf("corrupt payload = %v, want NR-SYS-5001", err)
	}
}

func TestReplayEquivalence(t *testing.T) {
	l := newTestLedger(t)
	var records []*Record

	record := func(rec *Record, err error) {
		if err != nil {
			t.Fatalf("prepare: %v", err)
		}
		l.Apply(rec)
		records = append(records, rec)
	}

	record(l.PrepareMint(alice, alice, nil, []byte("a"), 1))
	record(l.PrepareApprove(alice, bob, 0))
	record(l.PrepareTransfer(bob, alice, carol, 0, true))
	record(l.PrepareSetOperator(carol, alice, true))
	record(l.PrepareMint(bob, bob, nil, []byte("b"), 2))
	record(l.PrepareBurn(bob, 1))

	replayed := newTestLedger(t)
	for _, rec := range records {
		replayed.Apply(rec)
	}

	if replayed.Txid() != l.Txid() {
		t.Fatalf("replayed txid = %d, want %d", replayed.Txid(), l.Txid())
	}
	for id := uint64(0); id < l.TotalSupply(); id++ {
		want, _ := l.Token(id)
		got, _ := replayed.Token(id)
		if got.Owner != want.Owner || got.Approved != want.Approved {
			t.Fatalf("token %d = %+v, want %+v", id, got, want)
		}
	}
	if !replayed.IsApprovedForAll(carol, alice) {
		t.Fatal("operator grant lost in replay")
	}
}
