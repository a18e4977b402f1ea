package model

import (
	"encoding/json"
	"testing"
)

func TestAmountDecodeDrops(t *testing.T) {
	var a Amount
	if err := json.Unmarshal([]byte(`"150000000"`), &a); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if !a.IsNative() {
		t.Fatalf("expected native amount: %+v", a)
	}
	if a.Drops != 150000000 {
		t.Fatalf("drops mismatch: %d", a.Drops)
	}
	if a.XRP() != 150 {
		t.Fatalf("xrp mismatch: %f", a.XRP())
	}
}

func TestAmountDecodeIssued(t *testing.T) {
	payload := `{"currency":"5850554E4B000000000000000000000000000000","issuer":"rHEL3bM4RFsvF8kbQj3cya8YiDvjoEmxLq","value":"42.5"}`

	var a Amount
	if err := json.Unmarshal([]byte(payload), &a); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if a.IsNative() {
		t.Fatalf("expected issued amount: %+v", a)
	}
	if a.Value != "42.5" {
		t.Fatalf("value mismatch: %q", a.Value)
	}
	if a.Issuer != "rHEL3bM4RFsvF8kbQj3cya8YiDvjoEmxLq" {
		t.Fatalf("issuer mismatch: %q", a.Issuer)
	}
}

func TestAmountRejectsNegativeDrops(t *testing.T) {
	var a Amount
	if err := json.Unmarshal([]byte(`"-5"`), &a); err == nil {
		t.Fatalf("expected error for negative drops")
	}
}

func TestAmountMarshalMatchesKind(t *testing.T) {
	native, err := json.Marshal(NativeAmount(1000))
	if err != nil {
		t.Fatalf("marshal native: %v", err)
	}
	if string(native) != `"1000"` {
		t.Fatalf("native encoding mismatch: %s", native)
	}

	issued, err := json.Marshal(IssuedAmount("1", "USD", "rissuer"))
	if err != nil {
		t.Fatalf("marshal issued: %v", err)
	}
	if string(issued) != `{"value":"1","currency":"USD","issuer":"rissuer"}` {
		t.Fatalf("issued encoding mismatch: %s", issued)
	}
}

func TestAffectedNodeNormalize(t *testing.T) {
	raw := `{"ModifiedNode":{"LedgerEntryType":"NFTokenPage","FinalFields":{"NFTokens":[]},"PreviousFields":{"NFTokens":[]}}}`

	var node AffectedNode
	if err := json.Unmarshal([]byte(raw), &node); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	entry, ok := node.Normalize()
	if !ok {
		t.Fatalf("expected a normalized entry")
	}
	if entry.Kind != ChangeModified {
		t.Fatalf("kind mismatch: %s", entry.Kind)
	}
	if entry.LedgerEntryType != "NFTokenPage" {
		t.Fatalf("entry type mismatch: %s", entry.LedgerEntryType)
	}
	if len(entry.NewFields) != 0 {
		t.Fatalf("modified entry must not carry NewFields")
	}

	if _, ok := (AffectedNode{}).Normalize(); ok {
		t.Fatalf("empty node must not normalize")
	}
}
