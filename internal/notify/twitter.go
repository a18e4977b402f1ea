package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/dghubble/oauth1"
	"go.uber.org/zap"

	"nftwatch/internal/config"
)

const (
	mediaUploadURL = "https://upload.twitter.com/1.1/media/upload.json"
	tweetURL       = "https://api.twitter.com/2/tweets"

	maxImageBytes = 5 << 20
)

// TwitterClient posts tweets with the v2 API, signing requests with the
// account's OAuth1 user credentials. Media still goes through the v1.1
// upload endpoint, which v2 has no replacement for.
type TwitterClient struct {
	httpClient *http.Client
	logger     *zap.Logger
	name       string
}

// NewTwitterClient builds a client for one configured account.
func NewTwitterClient(account config.TwitterAccount, logger *zap.Logger) *TwitterClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	oauthConfig := oauth1.NewConfig(account.ConsumerKey, account.ConsumerSecret)
	token := oauth1.NewToken(account.AccessToken, account.AccessSecret)

	httpClient := oauthConfig.Client(oauth1.NoContext, token)
	httpClient.Timeout = 30 * time.Second

	return &TwitterClient{
		httpClient: httpClient,
		logger:     logger,
		name:       account.Name,
	}
}

type tweetRequest struct {
	Text  string      `json:"text"`
	Media *tweetMedia `json:"media,omitempty"`
}

type tweetMedia struct {
	MediaIDs []string `json:"media_ids"`
}

type mediaUploadResponse struct {
	MediaIDString string `json:"media_id_string"`
}

// Tweet posts the message, attaching the image when it can be uploaded.
func (c *TwitterClient) Tweet(ctx context.Context, message, imageURL string) error {
	body := tweetRequest{Text: message}

	if imageURL != "" {
		mediaID, err := c.PostMedia(ctx, imageURL)
		if err != nil {
			c.logger.Warn("media upload failed, tweeting without image",
				zap.String("account", c.name), zap.String("image", imageURL), zap.Error(err))
		} else {
			body.Media = &tweetMedia{MediaIDs: []string{mediaID}}
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tweetURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post tweet: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("tweet rejected: status %d: %s", resp.StatusCode, detail)
	}

	return nil
}

// PostMedia downloads the image and uploads it to the media endpoint.
func (c *TwitterClient) PostMedia(ctx context.Context, imageURL string) (string, error) {
	image, err := downloadImage(ctx, imageURL)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", imageURL, err)
	}

	var form bytes.Buffer
	writer := multipart.NewWriter(&form)
	part, err := writer.CreateFormFile("media", "media")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(image); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, mediaUploadURL, &form)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("media upload rejected: status %d: %s", resp.StatusCode, detail)
	}

	var uploaded mediaUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return "", err
	}
	if uploaded.MediaIDString == "" {
		return "", fmt.Errorf("media upload returned no id")
	}
	return uploaded.MediaIDString, nil
}

func downloadImage(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
}
