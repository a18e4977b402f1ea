package model

import "encoding/json"

// ChangeKind tells how a transaction touched a ledger entry.
type ChangeKind string

const (
	ChangeCreated  ChangeKind = "CreatedNode"
	ChangeModified ChangeKind = "ModifiedNode"
	ChangeDeleted  ChangeKind = "DeletedNode"
)

// AffectedNode is one element of a transaction's AffectedNodes list as it
// appears on the wire: exactly one of the three wrappers is set.
type AffectedNode struct {
	CreatedNode  *NodeFields `json:"CreatedNode,omitempty"`
	ModifiedNode *NodeFields `json:"ModifiedNode,omitempty"`
	DeletedNode  *NodeFields `json:"DeletedNode,omitempty"`
}

// NodeFields carries the before/after state of one affected ledger entry.
type NodeFields struct {
	LedgerEntryType string          `json:"LedgerEntryType"`
	LedgerIndex     string          `json:"LedgerIndex,omitempty"`
	FinalFields     json.RawMessage `json:"FinalFields,omitempty"`
	NewFields       json.RawMessage `json:"NewFields,omitempty"`
	PreviousFields  json.RawMessage `json:"PreviousFields,omitempty"`
}

// MetadataEntry is the normalized form of an AffectedNode.
// NewFields is set only for Created entries, PreviousFields only for Modified.
type MetadataEntry struct {
	Kind            ChangeKind
	LedgerEntryType string
	FinalFields     json.RawMessage
	NewFields       json.RawMessage
	PreviousFields  json.RawMessage
}

// Normalize flattens the one-of wrapper into a MetadataEntry.
// Returns false when none of the wrappers is set.
func (n AffectedNode) Normalize() (MetadataEntry, bool) {
	switch {
	case n.CreatedNode != nil:
		return MetadataEntry{
			Kind:            ChangeCreated,
			LedgerEntryType: n.CreatedNode.LedgerEntryType,
			FinalFields:     n.CreatedNode.FinalFields,
			NewFields:       n.CreatedNode.NewFields,
		}, true
	case n.ModifiedNode != nil:
		return MetadataEntry{
			Kind:            ChangeModified,
			LedgerEntryType: n.ModifiedNode.LedgerEntryType,
			FinalFields:     n.ModifiedNode.FinalFields,
			PreviousFields:  n.ModifiedNode.PreviousFields,
		}, true
	case n.DeletedNode != nil:
		return MetadataEntry{
			Kind:            ChangeDeleted,
			LedgerEntryType: n.DeletedNode.LedgerEntryType,
			FinalFields:     n.DeletedNode.FinalFields,
		}, true
	default:
		return MetadataEntry{}, false
	}
}

// NFTokenOfferFields is the typed view of an NFTokenOffer ledger entry.
// Flag bit 1 marks a sell offer.
type NFTokenOfferFields struct {
	Owner       string  `json:"Owner"`
	NFTokenID   string  `json:"NFTokenID"`
	Amount      *Amount `json:"Amount,omitempty"`
	Flags       uint32  `json:"Flags"`
	Destination string  `json:"Destination,omitempty"`
}

// IsSellOffer reports whether the lsfSellNFToken flag is set.
func (f NFTokenOfferFields) IsSellOffer() bool {
	return f.Flags&1 == 1
}

// NFTokenPageFields is the typed view of an NFTokenPage ledger entry.
type NFTokenPageFields struct {
	NFTokens []NFTokenWrapper `json:"NFTokens"`
}

// NFTokenWrapper mirrors the ledger's nesting of page entries.
type NFTokenWrapper struct {
	NFToken NFToken `json:"NFToken"`
}

// NFToken is one token slot inside an NFTokenPage.
type NFToken struct {
	NFTokenID string `json:"NFTokenID"`
	URI       string `json:"URI,omitempty"`
}

// OfferFields decodes the entry's final state as an NFTokenOffer.
func (e MetadataEntry) OfferFields() (NFTokenOfferFields, error) {
	var f NFTokenOfferFields
	if len(e.FinalFields) == 0 {
		return f, nil
	}
	err := json.Unmarshal(e.FinalFields, &f)
	return f, err
}

// PageFields decodes a raw field set as an NFTokenPage.
func PageFields(raw json.RawMessage) (NFTokenPageFields, error) {
	var f NFTokenPageFields
	if len(raw) == 0 {
		return f, nil
	}
	err := json.Unmarshal(raw, &f)
	return f, err
}
