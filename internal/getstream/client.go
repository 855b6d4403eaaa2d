package getstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goil-app/notifications-api/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// oneToOneChannelType marks direct-message channels, whose notification
// title is the sender's name instead of the channel name.
const oneToOneChannelType = "messaging-oneToOne"

// defaultTokenTTL bounds the lifetime of short-lived provider tokens.
const defaultTokenTTL = 60 * time.Second

// Client talks to the external chat provider's REST API with short-lived
// server-side tokens.
type Client struct {
	baseURL    string
	apiKey     string
	secret     []byte
	tokenTTL   time.Duration
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time
}

// NewClient creates a chat provider client. A zero tokenTTL falls back to 60
// seconds.
func NewClient(baseURL, apiKey, secret string, tokenTTL time.Duration, httpClient *http.Client, logger *zap.Logger) *Client {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		secret:     []byte(secret),
		tokenTTL:   tokenTTL,
		httpClient: httpClient,
		logger:     logger,
		now:        time.Now,
	}
}

// generateToken signs a short-lived HS256 token for the given provider user.
func (c *Client) generateToken(userID string) (string, error) {
	now := c.now()
	claims := jwt.MapClaims{
		"iat": now.Unix(),
		"exp": now.Add(c.tokenTTL).Unix(),
	}
	if userID != "" {
		claims["user_id"] = userID
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign provider token: %w", err)
	}
	return signed, nil
}

func (c *Client) do(ctx context.Context, path, userID string) (int, []byte, error) {
	token, err := c.generateToken(userID)
	if err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build provider request: %w", err)
	}
	req.Header.Set("Stream-Auth-Type", "jwt")
	req.Header.Set("Authorization", token)
	req.Header.Set("api_key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read provider response: %w", err)
	}
	return resp.StatusCode, body, nil
}

type messageResponse struct {
	Message *struct {
		Text    string `json:"text"`
		Channel struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"channel"`
		User struct {
			Name string `json:"name"`
		} `json:"user"`
	} `json:"message"`
}

// FindMessageByID fetches one chat message and shapes it as a notification.
// A response without a message yields an empty notification rather than an
// error.
func (c *Client) FindMessageByID(ctx context.Context, id, userID string) (*domain.Notification, error) {
	status, body, err := c.do(ctx, "/messages/"+id, userID)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("provider message response",
		zap.Int("status", status),
		zap.String("message_id", id),
	)
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("provider returned status %d: %s", status, body)
	}

	var parsed messageResponse
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Message == nil {
		return &domain.Notification{ID: id}, nil
	}

	m := parsed.Message
	title := m.Channel.Name
	if m.Channel.Type == oneToOneChannelType {
		title = m.User.Name
	}

	return &domain.Notification{
		ID:    id,
		Title: title,
		Body:  fmt.Sprintf("%s: %s", m.User.Name, m.Text),
	}, nil
}

// UnreadCount fetches the caller's unread chat count. Provider failures
// degrade to zero so they cannot break notification reads.
func (c *Client) UnreadCount(ctx context.Context, userID string) (int, error) {
	status, body, err := c.do(ctx, "/unread", userID)
	if err != nil {
		return 0, err
	}
	c.logger.Debug("provider unread response", zap.Int("status", status))
	if status < 200 || status >= 300 {
		return 0, nil
	}

	var counts struct {
		TotalUnreadCount *int `json:"total_unread_count"`
		UnreadCount      *int `json:"unread_count"`
	}
	if err := json.Unmarshal(body, &counts); err != nil {
		return 0, nil
	}
	if counts.TotalUnreadCount != nil {
		return *counts.TotalUnreadCount, nil
	}
	if counts.UnreadCount != nil {
		return *counts.UnreadCount, nil
	}
	return 0, nil
}
