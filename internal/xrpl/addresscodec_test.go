package xrpl

import (
	"encoding/binary"
	"encoding/hex"
	"strings"
	"testing"
)

func TestEncodeAccountIDZero(t *testing.T) {
	// ACCOUNT_ZERO is a protocol constant, a handy known vector.
	var zero [20]byte
	if got := EncodeAccountID(zero); got != "rrrrrrrrrrrrrrrrrrrrrhoLvTp" {
		t.Fatalf("account zero mismatch: %s", got)
	}
}

func TestAddressRoundTrip(t *testing.T) {
	address := "rHEL3bM4RFsvF8kbQj3cya8YiDvjoEmxLq"

	accountID, err := DecodeClassicAddress(address)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got := EncodeAccountID(accountID); got != address {
		t.Fatalf("round-trip mismatch: %s", got)
	}
}

func TestDecodeClassicAddressRejectsBadChecksum(t *testing.T) {
	if _, err := DecodeClassicAddress("rHEL3bM4RFsvF8kbQj3cya8YiDvjoEmxLr"); err == nil {
		t.Fatalf("expected checksum rejection")
	}
}

func TestParseNFTokenID(t *testing.T) {
	issuer := "rHEL3bM4RFsvF8kbQj3cya8YiDvjoEmxLq"
	accountID, err := DecodeClassicAddress(issuer)
	if err != nil {
		t.Fatalf("decode issuer: %v", err)
	}

	var (
		taxon    = uint32(7)
		sequence = uint32(1234)
	)

	raw := make([]byte, 32)
	binary.BigEndian.PutUint16(raw[0:2], 8)
	binary.BigEndian.PutUint16(raw[2:4], 314)
	copy(raw[4:24], accountID[:])
	binary.BigEndian.PutUint32(raw[24:28], taxon^((sequence^384160001)*2357503715))
	binary.BigEndian.PutUint32(raw[28:32], sequence)

	parts, err := ParseNFTokenID(strings.ToUpper(hex.EncodeToString(raw)))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if parts.Issuer != issuer {
		t.Fatalf("issuer mismatch: %s", parts.Issuer)
	}
	if parts.Taxon != taxon {
		t.Fatalf("taxon mismatch: %d", parts.Taxon)
	}
	if parts.Sequence != sequence {
		t.Fatalf("sequence mismatch: %d", parts.Sequence)
	}
	if parts.Flags != 8 || parts.TransferFee != 314 {
		t.Fatalf("header mismatch: %+v", parts)
	}
}

func TestParseNFTokenIDRejectsBadLength(t *testing.T) {
	if _, err := ParseNFTokenID("00FF"); err == nil {
		t.Fatalf("expected length rejection")
	}
	if _, err := ParseNFTokenID("zz"); err == nil {
		t.Fatalf("expected hex rejection")
	}
}

func TestDecodeHexString(t *testing.T) {
	encoded := hex.EncodeToString([]byte("ipfs://QmExample")) + "0000"
	if got := DecodeHexString(encoded); got != "ipfs://QmExample" {
		t.Fatalf("decode mismatch: %q", got)
	}

	// Not hex: passes through untouched.
	if got := DecodeHexString("not-hex"); got != "not-hex" {
		t.Fatalf("passthrough mismatch: %q", got)
	}
}
