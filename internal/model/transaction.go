package model

// Transaction is the subset of an XRP Ledger transaction the watcher consumes.
// Field names follow the ledger's JSON casing.
type Transaction struct {
	TransactionType string  `json:"TransactionType"`
	Account         string  `json:"Account"`
	NFTokenID       string  `json:"NFTokenID,omitempty"`
	URI             string  `json:"URI,omitempty"`
	Amount          *Amount `json:"Amount,omitempty"`
	Hash            string  `json:"hash,omitempty"`

	// Meta carries the ledger-side effects of applying the transaction.
	// It arrives as a sibling of the transaction in the stream envelope.
	Meta *TransactionMeta `json:"-"`
}

// TransactionMeta describes the ledger entries touched by a transaction.
type TransactionMeta struct {
	AffectedNodes     []AffectedNode `json:"AffectedNodes"`
	TransactionResult string         `json:"TransactionResult"`
}
