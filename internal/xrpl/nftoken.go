package xrpl

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

// TokenParts is the information packed into a 32-byte NFTokenID:
// flags(2) + transfer fee(2) + issuer account id(20) + ciphered taxon(4) +
// mint sequence(4). The issuer is therefore decodable without any lookup.
type TokenParts struct {
	Flags       uint16
	TransferFee uint16
	Issuer      string
	Taxon       uint32
	Sequence    uint32
}

// ParseNFTokenID unpacks an NFTokenID hex string.
func ParseNFTokenID(id string) (TokenParts, error) {
	raw, err := hex.DecodeString(id)
	if err != nil {
		return TokenParts{}, fmt.Errorf("token id %q: %w", id, err)
	}
	if len(raw) != 32 {
		return TokenParts{}, fmt.Errorf("token id %q: length %d, want 32 bytes", id, len(raw))
	}

	var accountID [20]byte
	copy(accountID[:], raw[4:24])

	sequence := binary.BigEndian.Uint32(raw[28:32])
	ciphered := binary.BigEndian.Uint32(raw[24:28])

	return TokenParts{
		Flags:       binary.BigEndian.Uint16(raw[0:2]),
		TransferFee: binary.BigEndian.Uint16(raw[2:4]),
		Issuer:      EncodeAccountID(accountID),
		Taxon:       decipherTaxon(ciphered, sequence),
		Sequence:    sequence,
	}, nil
}

// TokenIssuer is a shortcut for the common case of issuer scoping.
func TokenIssuer(id string) (string, error) {
	parts, err := ParseNFTokenID(id)
	if err != nil {
		return "", err
	}
	return parts.Issuer, nil
}

// The taxon is scrambled on-ledger to prevent enumeration. The cipher is its
// own inverse, matching rippled's nft::cipheredTaxon.
func decipherTaxon(ciphered, sequence uint32) uint32 {
	return ciphered ^ ((sequence ^ 384160001) * 2357503715)
}

// DecodeHexString converts a hex-encoded ledger string (URIs, 160-bit
// currency codes) to UTF-8, trimming NUL padding. Returns the input unchanged
// when it is not valid hex.
func DecodeHexString(s string) string {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return s
	}
	return strings.TrimRight(string(raw), "\x00")
}
