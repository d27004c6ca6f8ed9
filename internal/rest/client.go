package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/tailtalk/roomsync/internal/domain"
)

// Client consumes the snapshot REST collaborators: room history and per-post
// reaction aggregates. Responses use the standard {success, data, error}
// envelope.
type Client struct {
	baseURL    string
	credential string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient builds a REST client for the given API base URL. A nil
// httpClient gets a sane default timeout.
func NewClient(baseURL, credential string, httpClient *http.Client, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:    baseURL,
		credential: credential,
		httpClient: httpClient,
		logger:     logger,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *errorInfo      `json:"error"`
}

type errorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// History fetches the bounded recent window of posts for a room, oldest
// first.
func (c *Client) History(ctx context.Context, roomID, kind string, limit int) ([]domain.Post, error) {
	u := fmt.Sprintf("%s/api/v1/rooms/%s/posts?kind=%s&limit=%s",
		c.baseURL, url.PathEscape(roomID), url.QueryEscape(kind), strconv.Itoa(limit))

	var data struct {
		Posts []domain.Post `json:"posts"`
	}
	if err := c.get(ctx, u, &data); err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	return data.Posts, nil
}

// Reactions fetches the current reaction aggregate for one post.
func (c *Client) Reactions(ctx context.Context, postID string) (domain.ReactionSet, error) {
	u := fmt.Sprintf("%s/api/v1/posts/%s/reactions", c.baseURL, url.PathEscape(postID))

	var data struct {
		Reactions domain.ReactionSet `json:"reactions"`
	}
	if err := c.get(ctx, u, &data); err != nil {
		return nil, fmt.Errorf("fetch reactions: %w", err)
	}
	if data.Reactions == nil {
		data.Reactions = domain.ReactionSet{}
	}
	return data.Reactions, nil
}

func (c *Client) get(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if c.credential != "" {
		req.Header.Set("Authorization", "Bearer "+c.credential)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || !env.Success {
		if env.Error != nil {
			return fmt.Errorf("api error %s: %s", env.Error.Code, env.Error.Message)
		}
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return json.Unmarshal(env.Data, out)
}
