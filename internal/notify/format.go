package notify

import (
	"fmt"
	"strings"

	"nftwatch/internal/model"
)

// Formatter renders announcement text. One instance per process, seeded
// with the marketplace base URL.
type Formatter struct {
	MarketplaceURL string
}

// TokenLink is the marketplace page for a token.
func (f Formatter) TokenLink(nftID string) string {
	return strings.TrimRight(f.MarketplaceURL, "/") + "/nft/" + nftID
}

// MintMessage announces a fresh mint.
func (f Formatter) MintMessage(account, nftID string) string {
	return fmt.Sprintf("%s minted a new NFT!\n\n%s", account, f.TokenLink(nftID))
}

// CreateOfferMessage announces a new offer on a tracked token.
func (f Formatter) CreateOfferMessage(account, formattedAmount, nftID string) string {
	return fmt.Sprintf("%s wants to buy this NFT for %s!\n\n%s", account, formattedAmount, f.TokenLink(nftID))
}

// AcceptOfferMessage announces a settled sale. usd may be empty.
func (f Formatter) AcceptOfferMessage(facts model.AcceptOfferFacts, formattedAmount, usd string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sold for %s", formattedAmount)
	if usd != "" {
		fmt.Fprintf(&b, " (%s)", usd)
	}
	fmt.Fprintf(&b, "!\n\nSeller: %s\nBuyer: %s\n\n%s", facts.PreviousOwner, facts.NewOwner, f.TokenLink(facts.NFTokenID))
	return b.String()
}

// AcceptOfferEmbed builds the structured sale announcement for chat.
func (f Formatter) AcceptOfferEmbed(collection string, info model.NFTInfo, facts model.AcceptOfferFacts, formattedAmount, usd, roleID string) Embed {
	title := info.Name
	if title == "" {
		title = "NFT Transaction"
	}

	var desc strings.Builder
	fmt.Fprintf(&desc, "**%s** sold for **%s**", title, formattedAmount)
	if usd != "" {
		fmt.Fprintf(&desc, " (%s)", usd)
	}
	fmt.Fprintf(&desc, "\n\nSeller: `%s`\nBuyer: `%s`", facts.PreviousOwner, facts.NewOwner)

	embed := Embed{
		Title:       title,
		URL:         f.TokenLink(facts.NFTokenID),
		Description: desc.String(),
		ImageURL:    info.Image,
		FooterText:  "Powered by " + collection,
		MentionRole: roleID,
	}
	if info.Rank != "" {
		embed.Fields = append(embed.Fields, EmbedField{Name: "Rank", Value: info.Rank})
	}
	return embed
}

// FormatUSD renders a USD figure for message embedding.
func FormatUSD(usd float64) string {
	if usd <= 0 {
		return ""
	}
	return fmt.Sprintf("$%.2f", usd)
}
