// Package txparse reconstructs domain facts from a transaction's metadata:
// which token a mint created, and who sold what to whom for how much when an
// offer was accepted. Everything here works without a network call.
package txparse

import (
	mapset "github.com/deckarep/golang-set/v2"

	"nftwatch/internal/model"
)

// Ledger entry types the parser cares about.
const (
	EntryNFTokenOffer = "NFTokenOffer"
	EntryNFTokenPage  = "NFTokenPage"
)

// ParseTxMeta normalizes a transaction's affected nodes and filters them by
// ledger entry type. With include=true only the listed types are kept, with
// include=false they are dropped. A nil entryTypes list keeps everything.
func ParseTxMeta(meta *model.TransactionMeta, entryTypes []string, include bool) []model.MetadataEntry {
	if meta == nil {
		return nil
	}

	types := mapset.NewThreadUnsafeSet(entryTypes...)

	entries := make([]model.MetadataEntry, 0, len(meta.AffectedNodes))
	for _, node := range meta.AffectedNodes {
		entry, ok := node.Normalize()
		if !ok {
			continue
		}
		if entryTypes != nil && types.Contains(entry.LedgerEntryType) != include {
			continue
		}
		entries = append(entries, entry)
	}

	return entries
}

// ExtractMintedTokenID recovers the id assigned by a mint. The mint
// transaction itself does not carry the id; the only reliable source is the
// before/after diff of the owner's NFTokenPage directory. Returns false when
// the diff is ambiguous (zero or more than one added token).
func ExtractMintedTokenID(meta *model.TransactionMeta) (string, bool) {
	pages := ParseTxMeta(meta, []string{EntryNFTokenPage}, true)

	added := mapset.NewThreadUnsafeSet[string]()
	for _, page := range pages {
		if page.Kind != model.ChangeModified {
			continue
		}

		final, err := model.PageFields(page.FinalFields)
		if err != nil || len(final.NFTokens) == 0 {
			continue
		}
		previous, err := model.PageFields(page.PreviousFields)
		if err != nil || len(previous.NFTokens) == 0 {
			continue
		}

		before := mapset.NewThreadUnsafeSet[string]()
		for _, t := range previous.NFTokens {
			before.Add(t.NFToken.NFTokenID)
		}
		for _, t := range final.NFTokens {
			if !before.Contains(t.NFToken.NFTokenID) {
				added.Add(t.NFToken.NFTokenID)
			}
		}
	}

	if added.Cardinality() != 1 {
		return "", false
	}
	id, _ := added.Pop()
	return id, true
}

// ExtractOfferDeletion finds the consumed offer object of a direct
// (non-brokered) accept-offer transaction.
func ExtractOfferDeletion(meta *model.TransactionMeta) (model.MetadataEntry, bool) {
	for _, entry := range ParseTxMeta(meta, []string{EntryNFTokenOffer}, true) {
		if entry.Kind == model.ChangeDeleted {
			return entry, true
		}
	}
	return model.MetadataEntry{}, false
}

// ExtractAcceptOfferFacts resolves the parties and settlement amount of an
// accept-offer transaction from its consumed offer entries. Flag bit 1 marks
// the sell offer (Owner is the seller, Destination an optional pre-approved
// buyer), flag bit 0 the buy offer (Owner is the buyer).
//
// Three shapes are tolerated: brokered (both offers), direct sale to any
// buyer (sell offer only), and direct sale to a specific destination. The
// buy offer's amount wins over the sell offer's because brokered sales
// settle at the buyer's bid. All-zero facts mean neither offer was present
// and the caller must abort.
func ExtractAcceptOfferFacts(tx model.Transaction) model.AcceptOfferFacts {
	var sell, buy *model.NFTokenOfferFields

	for _, entry := range ParseTxMeta(tx.Meta, []string{EntryNFTokenOffer}, true) {
		if len(entry.FinalFields) == 0 {
			continue
		}
		fields, err := entry.OfferFields()
		if err != nil {
			continue
		}
		if fields.IsSellOffer() {
			if sell == nil {
				f := fields
				sell = &f
			}
		} else if buy == nil {
			f := fields
			buy = &f
		}
	}

	var facts model.AcceptOfferFacts
	if sell != nil {
		facts.NFTokenID = sell.NFTokenID
		facts.Amount = sell.Amount
		facts.PreviousOwner = sell.Owner
		facts.NewOwner = sell.Destination
	}
	if buy != nil {
		if facts.NFTokenID == "" {
			facts.NFTokenID = buy.NFTokenID
		}
		if buy.Amount != nil {
			facts.Amount = buy.Amount
		}
		if buy.Owner != "" {
			facts.NewOwner = buy.Owner
		}
	}

	return facts
}
