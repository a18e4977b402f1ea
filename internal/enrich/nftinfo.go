// Package enrich resolves off-chain facts about a token right before it is
// announced: image location, display name, and USD price. Every lookup here
// is best-effort; a miss degrades the announcement, never the pipeline.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"nftwatch/internal/model"
	"nftwatch/internal/xrpl"
)

// NFTInfoClient looks up token metadata through a Clio server, with an
// optional collection metadata API for name and rarity rank.
type NFTInfoClient struct {
	ClioURL     string
	IPFSGateway string
	MetadataURL string
	HTTPClient  *http.Client
	Logger      *zap.Logger
}

type nftInfoResult struct {
	URI string `json:"uri"`
}

type metadataResult struct {
	Name string          `json:"name"`
	Rank json.RawMessage `json:"rarity_rank"`
}

// GetNFTInfo resolves the token's image URL and, when a metadata API is
// configured, its name and rank. Returns an error only when nothing useful
// could be resolved.
func (c *NFTInfoClient) GetNFTInfo(ctx context.Context, nftID string) (model.NFTInfo, error) {
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var info model.NFTInfo

	uri, err := c.fetchURI(ctx, nftID, logger)
	if err != nil {
		return info, fmt.Errorf("nft_info %s: %w", nftID, err)
	}
	info.Image = ConvertURIToGatewayURL(uri, c.IPFSGateway)

	if c.MetadataURL != "" {
		if name, rank, err := c.fetchMetadata(ctx, nftID); err != nil {
			logger.Warn("metadata lookup failed", zap.String("nft_id", nftID), zap.Error(err))
		} else {
			info.Name = name
			info.Rank = rank
		}
	}

	if info.Image == "" && info.Name == "" {
		return info, fmt.Errorf("no metadata resolved for %s", nftID)
	}
	return info, nil
}

func (c *NFTInfoClient) fetchURI(ctx context.Context, nftID string, logger *zap.Logger) (string, error) {
	client, err := xrpl.Dial(ctx, c.ClioURL, logger)
	if err != nil {
		return "", err
	}
	defer client.Close()

	raw, err := client.Request(ctx, "nft-info-"+nftID, map[string]any{
		"command": "nft_info",
		"nft_id":  nftID,
	})
	if err != nil {
		return "", err
	}

	var result nftInfoResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("decode nft_info result: %w", err)
	}
	return result.URI, nil
}

func (c *NFTInfoClient) fetchMetadata(ctx context.Context, nftID string) (name, rank string, err error) {
	url := strings.TrimRight(c.MetadataURL, "/") + "/" + nftID

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", err
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("metadata api status %d", resp.StatusCode)
	}

	var result metadataResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", "", err
	}
	return result.Name, strings.Trim(string(result.Rank), `"`), nil
}

func (c *NFTInfoClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 15 * time.Second}
}

// ConvertURIToGatewayURL turns an on-ledger token URI (usually hex-encoded,
// usually an ipfs:// link) into a fetchable gateway URL. Non-IPFS URIs pass
// through decoded.
func ConvertURIToGatewayURL(uri, gateway string) string {
	if uri == "" {
		return ""
	}

	decoded := xrpl.DecodeHexString(uri)
	if strings.HasPrefix(decoded, "ipfs://") {
		return strings.TrimRight(gateway, "/") + "/" + strings.TrimPrefix(decoded, "ipfs://")
	}
	return decoded
}
