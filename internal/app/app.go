// Package app wires the stream, parsers, enrichment and senders into the
// per-transaction pipeline.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"nftwatch/internal/amount"
	"nftwatch/internal/classify"
	"nftwatch/internal/config"
	"nftwatch/internal/enrich"
	"nftwatch/internal/model"
	"nftwatch/internal/notify"
	"nftwatch/internal/route"
	"nftwatch/internal/subscription"
	"nftwatch/internal/txparse"
	"nftwatch/internal/xrpl"
)

// NFTInfoLookup resolves off-chain token metadata.
type NFTInfoLookup interface {
	GetNFTInfo(ctx context.Context, nftID string) (model.NFTInfo, error)
}

// PriceLookup converts an amount to USD.
type PriceLookup interface {
	GetCoinPrice(ctx context.Context, q amount.ConversionQuery) (float64, error)
}

// Senders are the outbound clients of one session generation. They are
// rebuilt on every restart.
type Senders struct {
	Social []notify.SocialPoster
	Chat   notify.ChatPoster
}

// App owns the read-only pipeline state shared across sessions.
type App struct {
	cfg        config.Config
	logger     *zap.Logger
	routes     *route.Table
	classifier *classify.Classifier
	amounts    amount.Model
	formatter  notify.Formatter
	nftInfo    NFTInfoLookup
	prices     PriceLookup
}

// New validates the configuration and builds the pipeline.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	entries := make([]route.Entry, 0, len(cfg.Collections))
	for _, col := range cfg.Collections {
		entries = append(entries, route.Entry{
			Issuer: col.Issuer,
			Route: route.Route{
				Collection:     col.Name,
				TwitterAccount: col.TwitterAccount,
				DiscordChannel: col.DiscordChannelID,
				DiscordRole:    col.DiscordRoleID,
			},
		})
	}
	routes, err := route.NewTable(entries)
	if err != nil {
		return nil, err
	}

	amounts := amount.Model{MinXRP: cfg.MinXRP, SkipCurrency: cfg.SkipCurrency}

	return &App{
		cfg:        cfg,
		logger:     logger,
		routes:     routes,
		classifier: classify.New(routes.Issuers(), amounts, logger),
		amounts:    amounts,
		formatter:  notify.Formatter{MarketplaceURL: cfg.MarketplaceURL},
		nftInfo: &enrich.NFTInfoClient{
			ClioURL:     cfg.ClioURL,
			IPFSGateway: cfg.IPFSGateway,
			MetadataURL: cfg.MetadataURL,
			Logger:      logger,
		},
		prices: &enrich.PriceClient{
			APIKey:        cfg.CMCAPIKey,
			ConversionURL: cfg.CMCConversionURL,
		},
	}, nil
}

// boundSession couples the stream connection with the chat session built for
// the same generation, so a restart tears both down.
type boundSession struct {
	*xrpl.Client
	chat *notify.DiscordPoster
}

func (s boundSession) Close() {
	s.Client.Close()
	if s.chat != nil {
		s.chat.Close()
	}
}

// SessionFactory builds the stream session and outbound clients for one
// generation of the subscription loop.
func (a *App) SessionFactory(ctx context.Context) (subscription.Session, subscription.Handler, error) {
	client, err := xrpl.Dial(ctx, a.cfg.ServerURL, a.logger)
	if err != nil {
		return nil, nil, err
	}

	senders := Senders{Social: make([]notify.SocialPoster, 0, len(a.cfg.TwitterAccounts))}
	for _, account := range a.cfg.TwitterAccounts {
		senders.Social = append(senders.Social, notify.NewTwitterClient(account, a.logger))
	}

	var chat *notify.DiscordPoster
	if a.cfg.DiscordToken != "" {
		chat, err = notify.NewDiscordPoster(a.cfg.DiscordToken, a.logger)
		if err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("discord: %w", err)
		}
		senders.Chat = chat
	}

	a.logger.Info("session established",
		zap.String("server", a.cfg.ServerURL),
		zap.Int("twitter_accounts", len(senders.Social)),
		zap.Bool("discord", chat != nil),
	)

	return boundSession{Client: client, chat: chat}, a.Handler(senders), nil
}

// Handler returns the per-transaction dispatch bound to one generation of
// senders. Expected conditions resolve to a logged skip; only a cancelled
// context propagates.
func (a *App) Handler(senders Senders) subscription.Handler {
	return func(ctx context.Context, tx model.Transaction) error {
		kind := a.classifier.Classify(tx)
		if kind == model.EventIgnore {
			return nil
		}

		a.logger.Info("processing transaction",
			zap.String("kind", kind.String()),
			zap.String("type", tx.TransactionType),
			zap.String("hash", tx.Hash),
		)

		switch kind {
		case model.EventMint:
			a.handleMint(ctx, tx, senders)
		case model.EventCreateOffer:
			a.handleCreateOffer(ctx, tx, senders)
		case model.EventAcceptOffer:
			a.handleAcceptOffer(ctx, tx, senders)
		}

		return ctx.Err()
	}
}

func (a *App) handleMint(ctx context.Context, tx model.Transaction, senders Senders) {
	nftID, ok := txparse.ExtractMintedTokenID(tx.Meta)
	if !ok {
		a.logger.Info("skip mint: ambiguous token page diff", zap.String("hash", tx.Hash))
		return
	}

	r, ok := a.lookupRoute(nftID)
	if !ok {
		return
	}

	image := enrich.ConvertURIToGatewayURL(tx.URI, a.cfg.IPFSGateway)
	message := a.formatter.MintMessage(tx.Account, nftID)

	a.post(ctx, senders, r, message, image)
}

func (a *App) handleCreateOffer(ctx context.Context, tx model.Transaction, senders Senders) {
	if tx.Amount == nil {
		a.logger.Info("skip create offer: no amount", zap.String("hash", tx.Hash))
		return
	}

	r, ok := a.lookupRoute(tx.NFTokenID)
	if !ok {
		return
	}

	info, err := a.nftInfo.GetNFTInfo(ctx, tx.NFTokenID)
	if err != nil {
		a.logger.Info("skip create offer: no metadata", zap.String("nft_id", tx.NFTokenID), zap.Error(err))
		return
	}

	message := a.formatter.CreateOfferMessage(tx.Account, amount.Format(*tx.Amount), tx.NFTokenID)

	a.post(ctx, senders, r, message, info.Image)
}

func (a *App) handleAcceptOffer(ctx context.Context, tx model.Transaction, senders Senders) {
	facts := txparse.ExtractAcceptOfferFacts(tx)
	if facts.NFTokenID == "" || facts.Amount == nil {
		a.logger.Info("skip accept offer: missing facts", zap.String("hash", tx.Hash))
		return
	}

	r, ok := a.lookupRoute(facts.NFTokenID)
	if !ok {
		return
	}

	info, err := a.nftInfo.GetNFTInfo(ctx, facts.NFTokenID)
	if err != nil {
		a.logger.Info("skip accept offer: no metadata", zap.String("nft_id", facts.NFTokenID), zap.Error(err))
		return
	}

	formatted := amount.Format(*facts.Amount)
	usd := a.usdFigure(ctx, *facts.Amount)

	message := a.formatter.AcceptOfferMessage(facts, formatted, usd)
	if sender, ok := a.socialSender(senders, r); ok {
		if err := sender.Tweet(ctx, message, info.Image); err != nil {
			a.logger.Error("tweet failed", zap.String("collection", r.Collection), zap.Error(err))
		}
	}

	if senders.Chat != nil && r.DiscordChannel != "" {
		embed := a.formatter.AcceptOfferEmbed(r.Collection, info, facts, formatted, usd, r.DiscordRole)
		if err := senders.Chat.SendEmbed(ctx, r.DiscordChannel, embed); err != nil {
			a.logger.Error("chat embed failed", zap.String("collection", r.Collection), zap.Error(err))
		}
	}
}

// lookupRoute scopes a token to a configured collection. A miss is the
// terminal filter: logged, then dropped.
func (a *App) lookupRoute(nftID string) (route.Route, bool) {
	issuer, err := xrpl.TokenIssuer(nftID)
	if err != nil {
		a.logger.Info("skip: unparseable token id", zap.String("nft_id", nftID), zap.Error(err))
		return route.Route{}, false
	}

	r, ok := a.routes.Lookup(issuer)
	if !ok {
		a.logger.Debug("skip: issuer not routed", zap.String("issuer", issuer))
		return route.Route{}, false
	}
	return r, true
}

// post delivers a plain message to the route's destinations, swallowing
// sender failures: delivery is at-most-once, best-effort.
func (a *App) post(ctx context.Context, senders Senders, r route.Route, message, image string) {
	if sender, ok := a.socialSender(senders, r); ok {
		if err := sender.Tweet(ctx, message, image); err != nil {
			a.logger.Error("tweet failed", zap.String("collection", r.Collection), zap.Error(err))
		}
	}

	if senders.Chat != nil && r.DiscordChannel != "" {
		if err := senders.Chat.SendMessage(ctx, r.DiscordChannel, message, image); err != nil {
			a.logger.Error("chat message failed", zap.String("collection", r.Collection), zap.Error(err))
		}
	}
}

func (a *App) socialSender(senders Senders, r route.Route) (notify.SocialPoster, bool) {
	if r.TwitterAccount < 0 || r.TwitterAccount >= len(senders.Social) {
		return nil, false
	}
	return senders.Social[r.TwitterAccount], true
}

// usdFigure is best-effort: an unpriceable amount or oracle failure just
// drops the USD suffix.
func (a *App) usdFigure(ctx context.Context, amt model.Amount) string {
	query, ok := amount.ToReferenceUnits(amt)
	if !ok {
		return ""
	}

	usd, err := a.prices.GetCoinPrice(ctx, query)
	if err != nil {
		a.logger.Warn("price conversion failed", zap.String("symbol", query.Symbol), zap.Error(err))
		return ""
	}
	return notify.FormatUSD(usd)
}
