package xrpl

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"math/big"
	"strings"
)

// The XRP Ledger's base58 dialect. Note the alphabet starts with 'r', which is
// why classic addresses do.
const rippleAlphabet = "rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz"

// accountIDPrefix is the version byte for classic account addresses.
const accountIDPrefix = 0x00

// EncodeAccountID renders a 20-byte account id as a classic r-address.
func EncodeAccountID(accountID [20]byte) string {
	payload := make([]byte, 0, 25)
	payload = append(payload, accountIDPrefix)
	payload = append(payload, accountID[:]...)
	check := checksum(payload)
	payload = append(payload, check[:]...)
	return base58Encode(payload)
}

// DecodeClassicAddress recovers the 20-byte account id from an r-address.
func DecodeClassicAddress(address string) ([20]byte, error) {
	var accountID [20]byte

	payload, err := base58Decode(address)
	if err != nil {
		return accountID, fmt.Errorf("decode address %q: %w", address, err)
	}
	if len(payload) != 25 {
		return accountID, fmt.Errorf("address %q: unexpected payload length %d", address, len(payload))
	}
	if payload[0] != accountIDPrefix {
		return accountID, fmt.Errorf("address %q: unexpected version byte %#x", address, payload[0])
	}

	body := payload[:21]
	check := checksum(body)
	if !bytes.Equal(check[:], payload[21:]) {
		return accountID, fmt.Errorf("address %q: checksum mismatch", address)
	}

	copy(accountID[:], payload[1:21])
	return accountID, nil
}

func checksum(payload []byte) [4]byte {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	var out [4]byte
	copy(out[:], second[:4])
	return out
}

func base58Encode(input []byte) string {
	num := new(big.Int).SetBytes(input)
	radix := big.NewInt(58)
	mod := new(big.Int)

	var out []byte
	for num.Sign() > 0 {
		num.DivMod(num, radix, mod)
		out = append(out, rippleAlphabet[mod.Int64()])
	}
	for _, b := range input {
		if b != 0 {
			break
		}
		out = append(out, rippleAlphabet[0])
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}

func base58Decode(input string) ([]byte, error) {
	num := big.NewInt(0)
	radix := big.NewInt(58)

	for _, r := range input {
		idx := strings.IndexRune(rippleAlphabet, r)
		if idx < 0 {
			return nil, fmt.Errorf("invalid base58 character %q", r)
		}
		num.Mul(num, radix)
		num.Add(num, big.NewInt(int64(idx)))
	}

	decoded := num.Bytes()

	leading := 0
	for _, r := range input {
		if byte(r) != rippleAlphabet[0] {
			break
		}
		leading++
	}

	out := make([]byte, leading+len(decoded))
	copy(out[leading:], decoded)
	return out, nil
}
