package model

// EventKind is the classification of an incoming transaction.
type EventKind int

const (
	EventIgnore EventKind = iota
	EventMint
	EventCreateOffer
	EventAcceptOffer
)

// Transaction type tags the watcher reacts to.
const (
	TxNFTokenMint        = "NFTokenMint"
	TxNFTokenCreateOffer = "NFTokenCreateOffer"
	TxNFTokenAcceptOffer = "NFTokenAcceptOffer"
)

func (k EventKind) String() string {
	switch k {
	case EventMint:
		return "mint"
	case EventCreateOffer:
		return "create_offer"
	case EventAcceptOffer:
		return "accept_offer"
	default:
		return "ignore"
	}
}

// AcceptOfferFacts is what settled: who sold which token to whom for how much.
// Derived from the consumed offer entries of one accept-offer transaction and
// never persisted.
type AcceptOfferFacts struct {
	NFTokenID     string
	Amount        *Amount
	PreviousOwner string
	NewOwner      string
}

// NFTInfo is the off-chain metadata attached to a token before announcing.
type NFTInfo struct {
	Image string
	Name  string
	Rank  string
}
