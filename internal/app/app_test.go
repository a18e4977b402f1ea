package app

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"nftwatch/internal/amount"
	"nftwatch/internal/config"
	"nftwatch/internal/model"
	"nftwatch/internal/notify"
	"nftwatch/internal/xrpl"
)

const (
	trackedIssuer   = "rHEL3bM4RFsvF8kbQj3cya8YiDvjoEmxLq"
	untrackedIssuer = "rMgcSs3HQjvy3ZM2FVsxqgUrudVPM7HP5m"
)

type fakeSocial struct {
	mu     sync.Mutex
	tweets []string
	images []string
}

func (f *fakeSocial) Tweet(_ context.Context, message, imageURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tweets = append(f.tweets, message)
	f.images = append(f.images, imageURL)
	return nil
}

func (f *fakeSocial) PostMedia(context.Context, string) (string, error) {
	return "media-1", nil
}

type fakeChat struct {
	mu       sync.Mutex
	messages []string
	embeds   []notify.Embed
}

func (f *fakeChat) SendMessage(_ context.Context, _, message, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeChat) SendEmbed(_ context.Context, _ string, embed notify.Embed) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embeds = append(f.embeds, embed)
	return nil
}

type fakeInfo struct{ info model.NFTInfo }

func (f fakeInfo) GetNFTInfo(context.Context, string) (model.NFTInfo, error) {
	return f.info, nil
}

type fakePrice struct{ usd float64 }

func (f fakePrice) GetCoinPrice(context.Context, amount.ConversionQuery) (float64, error) {
	return f.usd, nil
}

func testConfig() config.Config {
	return config.Config{
		ServerURL:      "wss://xrplcluster.com",
		MarketplaceURL: "https://nft.onxrp.com",
		IPFSGateway:    "https://ipfs.io/ipfs",
		MinXRP:         100,
		SkipCurrency:   "XPUNK",
		TwitterAccounts: []config.TwitterAccount{{
			Name: "main", ConsumerKey: "ck", ConsumerSecret: "cs", AccessToken: "at", AccessSecret: "as",
		}},
		Collections: []config.Collection{{
			Name:             "Xpunks",
			Issuer:           trackedIssuer,
			TwitterAccount:   0,
			DiscordChannelID: "111",
			DiscordRoleID:    "211",
		}},
	}
}

func newTestApp(t *testing.T) (*App, *fakeSocial, *fakeChat, Senders) {
	t.Helper()

	a, err := New(testConfig(), nil)
	if err != nil {
		t.Fatalf("build app: %v", err)
	}
	a.nftInfo = fakeInfo{info: model.NFTInfo{Image: "https://ipfs.io/ipfs/Qm", Name: "XPUNK #42", Rank: "17"}}
	a.prices = fakePrice{usd: 125.50}

	social := &fakeSocial{}
	chat := &fakeChat{}
	senders := Senders{Social: []notify.SocialPoster{social}, Chat: chat}
	return a, social, chat, senders
}

func makeTokenID(t *testing.T, issuer string, sequence uint32) string {
	t.Helper()

	accountID, err := xrpl.DecodeClassicAddress(issuer)
	if err != nil {
		t.Fatalf("decode issuer %s: %v", issuer, err)
	}

	raw := make([]byte, 32)
	copy(raw[4:24], accountID[:])
	binary.BigEndian.PutUint32(raw[28:32], sequence)
	return strings.ToUpper(hex.EncodeToString(raw))
}

func offerNode(t *testing.T, fields map[string]any) model.AffectedNode {
	t.Helper()

	raw, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("marshal offer fields: %v", err)
	}
	return model.AffectedNode{DeletedNode: &model.NodeFields{
		LedgerEntryType: "NFTokenOffer",
		FinalFields:     raw,
	}}
}

func brokeredAcceptOffer(t *testing.T, nftID string) model.Transaction {
	t.Helper()

	return model.Transaction{
		TransactionType: model.TxNFTokenAcceptOffer,
		Account:         "rBroker",
		Hash:            "ABC123",
		Meta: &model.TransactionMeta{AffectedNodes: []model.AffectedNode{
			offerNode(t, map[string]any{
				"Flags": 1, "Owner": "rSeller", "NFTokenID": nftID, "Amount": "200000000",
			}),
			offerNode(t, map[string]any{
				"Flags": 0, "Owner": "rBuyer", "NFTokenID": nftID, "Amount": "250000000",
			}),
		}},
	}
}

func TestBrokeredSaleProducesOnePostPerDestination(t *testing.T) {
	a, social, chat, senders := newTestApp(t)
	nftID := makeTokenID(t, trackedIssuer, 7)

	handler := a.Handler(senders)
	if err := handler(context.Background(), brokeredAcceptOffer(t, nftID)); err != nil {
		t.Fatalf("handler: %v", err)
	}

	if len(social.tweets) != 1 {
		t.Fatalf("want exactly one tweet, got %d", len(social.tweets))
	}
	tweet := social.tweets[0]
	if !strings.Contains(tweet, "250 XRP") {
		t.Fatalf("tweet missing settlement amount: %s", tweet)
	}
	if !strings.Contains(tweet, nftID) {
		t.Fatalf("tweet missing token link: %s", tweet)
	}
	if !strings.Contains(tweet, "$125.50") {
		t.Fatalf("tweet missing usd figure: %s", tweet)
	}

	if len(chat.embeds) != 1 {
		t.Fatalf("want exactly one chat embed, got %d", len(chat.embeds))
	}
	embed := chat.embeds[0]
	if !strings.Contains(embed.Description, "250 XRP") {
		t.Fatalf("embed missing settlement amount: %s", embed.Description)
	}
	if !strings.Contains(embed.URL, nftID) {
		t.Fatalf("embed missing token link: %s", embed.URL)
	}
	if embed.MentionRole != "211" {
		t.Fatalf("embed role mismatch: %s", embed.MentionRole)
	}
}

func TestUntrackedIssuerProducesNoOutboundCalls(t *testing.T) {
	a, social, chat, senders := newTestApp(t)
	nftID := makeTokenID(t, untrackedIssuer, 7)

	handler := a.Handler(senders)
	if err := handler(context.Background(), brokeredAcceptOffer(t, nftID)); err != nil {
		t.Fatalf("handler: %v", err)
	}

	if len(social.tweets) != 0 || len(chat.embeds) != 0 || len(chat.messages) != 0 {
		t.Fatalf("untracked issuer must produce zero outbound calls: %d tweets, %d embeds",
			len(social.tweets), len(chat.embeds))
	}
}

func TestMintAnnouncement(t *testing.T) {
	a, social, chat, senders := newTestApp(t)
	nftID := makeTokenID(t, trackedIssuer, 9)

	pageFields := func(ids []string) json.RawMessage {
		tokens := make([]model.NFTokenWrapper, 0, len(ids))
		for _, id := range ids {
			tokens = append(tokens, model.NFTokenWrapper{NFToken: model.NFToken{NFTokenID: id}})
		}
		raw, _ := json.Marshal(model.NFTokenPageFields{NFTokens: tokens})
		return raw
	}

	other := makeTokenID(t, trackedIssuer, 8)
	tx := model.Transaction{
		TransactionType: model.TxNFTokenMint,
		Account:         trackedIssuer,
		URI:             hex.EncodeToString([]byte("ipfs://QmMintImage")),
		Meta: &model.TransactionMeta{AffectedNodes: []model.AffectedNode{
			{ModifiedNode: &model.NodeFields{
				LedgerEntryType: "NFTokenPage",
				FinalFields:     pageFields([]string{other, nftID}),
				PreviousFields:  pageFields([]string{other}),
			}},
		}},
	}

	handler := a.Handler(senders)
	if err := handler(context.Background(), tx); err != nil {
		t.Fatalf("handler: %v", err)
	}

	if len(social.tweets) != 1 {
		t.Fatalf("want one mint tweet, got %d", len(social.tweets))
	}
	if !strings.Contains(social.tweets[0], nftID) {
		t.Fatalf("mint tweet missing token link: %s", social.tweets[0])
	}
	if !strings.Contains(social.images[0], "QmMintImage") {
		t.Fatalf("mint image not resolved through gateway: %s", social.images[0])
	}
	if len(chat.messages) != 1 {
		t.Fatalf("want one chat message, got %d", len(chat.messages))
	}
}

func TestAmbiguousMintDiffIsSkipped(t *testing.T) {
	a, social, chat, senders := newTestApp(t)

	tx := model.Transaction{
		TransactionType: model.TxNFTokenMint,
		Account:         trackedIssuer,
		Meta:            &model.TransactionMeta{},
	}

	handler := a.Handler(senders)
	if err := handler(context.Background(), tx); err != nil {
		t.Fatalf("handler: %v", err)
	}

	if len(social.tweets) != 0 || len(chat.messages) != 0 {
		t.Fatalf("ambiguous mint must produce no posts")
	}
}

func TestCreateOfferAnnouncement(t *testing.T) {
	a, social, _, senders := newTestApp(t)
	nftID := makeTokenID(t, trackedIssuer, 3)

	price := model.NativeAmount(180 * model.DropsPerXRP)
	tx := model.Transaction{
		TransactionType: model.TxNFTokenCreateOffer,
		Account:         "rCollector",
		NFTokenID:       nftID,
		Amount:          &price,
	}

	handler := a.Handler(senders)
	if err := handler(context.Background(), tx); err != nil {
		t.Fatalf("handler: %v", err)
	}

	if len(social.tweets) != 1 {
		t.Fatalf("want one create-offer tweet, got %d", len(social.tweets))
	}
	if !strings.Contains(social.tweets[0], "180 XRP") {
		t.Fatalf("tweet missing offer amount: %s", social.tweets[0])
	}
}
