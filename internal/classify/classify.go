// Package classify decides whether an incoming transaction is worth
// processing and as what.
package classify

import (
	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/zap"

	"nftwatch/internal/amount"
	"nftwatch/internal/model"
	"nftwatch/internal/txparse"
	"nftwatch/internal/xrpl"
)

// Classifier filters the raw stream down to announceable NFT lifecycle
// events for the tracked issuers. It is stateless after construction.
type Classifier struct {
	issuers mapset.Set[string]
	amounts amount.Model
	logger  *zap.Logger
}

// New builds a Classifier scoped to the given issuer addresses.
func New(issuers []string, amounts amount.Model, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{
		issuers: mapset.NewSet(issuers...),
		amounts: amounts,
		logger:  logger,
	}
}

// Tracks reports whether the issuer is in the configured allow-list.
func (c *Classifier) Tracks(issuer string) bool {
	return c.issuers.Contains(issuer)
}

// Classify maps a transaction to its event kind. Anything outside the
// three-tag allow-list, outside the tracked issuers, or failing the
// announcement policy comes back as EventIgnore.
func (c *Classifier) Classify(tx model.Transaction) model.EventKind {
	switch tx.TransactionType {
	case model.TxNFTokenMint:
		// A mint carries no token id; issuer scoping happens after the
		// page diff recovers it.
		return model.EventMint

	case model.TxNFTokenCreateOffer:
		return c.classifyCreateOffer(tx)

	case model.TxNFTokenAcceptOffer:
		return c.classifyAcceptOffer(tx)

	default:
		return model.EventIgnore
	}
}

func (c *Classifier) classifyCreateOffer(tx model.Transaction) model.EventKind {
	issuer, err := xrpl.TokenIssuer(tx.NFTokenID)
	if err != nil {
		c.logger.Debug("unparseable token id on create offer", zap.String("nft_id", tx.NFTokenID), zap.Error(err))
		return model.EventIgnore
	}
	if !c.Tracks(issuer) {
		return model.EventIgnore
	}
	// The issuer listing its own freshly minted token is inventory
	// management, not a sale signal.
	if tx.Account == issuer {
		c.logger.Debug("issuer listing own token", zap.String("issuer", issuer))
		return model.EventIgnore
	}
	return model.EventCreateOffer
}

func (c *Classifier) classifyAcceptOffer(tx model.Transaction) model.EventKind {
	facts := txparse.ExtractAcceptOfferFacts(tx)
	if facts.NFTokenID == "" {
		c.logger.Debug("accept offer without consumed offer entries", zap.String("hash", tx.Hash))
		return model.EventIgnore
	}

	issuer, err := xrpl.TokenIssuer(facts.NFTokenID)
	if err != nil {
		c.logger.Debug("unparseable token id on accept offer", zap.String("nft_id", facts.NFTokenID), zap.Error(err))
		return model.EventIgnore
	}
	if !c.Tracks(issuer) {
		return model.EventIgnore
	}

	if facts.Amount == nil || !c.amounts.IsValidForAnnouncement(*facts.Amount) {
		c.logger.Debug("amount below announcement policy", zap.String("nft_id", facts.NFTokenID))
		return model.EventIgnore
	}

	return model.EventAcceptOffer
}
