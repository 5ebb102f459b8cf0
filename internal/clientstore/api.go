package clientstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/saathichat/saathi-backend/internal/logger"
)

// MessageRecord mirrors the server's persisted message shape.
type MessageRecord struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type ThreadRecord struct {
	ID        string    `json:"id"`
	Phone     string    `json:"phone"`
	PersonaID string    `json:"persona_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TurnResponse struct {
	ThreadID string          `json:"threadId"`
	Replies  []string        `json:"replies"`
	Messages []MessageRecord `json:"messages"`
	NewToken string          `json:"new_token,omitempty"`
}

type HistoryResponse struct {
	Thread   *ThreadRecord   `json:"thread"`
	Messages []MessageRecord `json:"messages"`
	Total    int64           `json:"total"`
	NewToken string          `json:"new_token,omitempty"`
}

// API is the slice of the server surface the reconciliation store consumes.
type API interface {
	SendTurn(ctx context.Context, personaID, text string) (*TurnResponse, error)
	GetMessages(ctx context.Context, personaID string, page, pageSize int) (*HistoryResponse, error)
}

// TokenStorage persists the bearer credential across calls. The server rotates
// tokens inline, so every response may carry a replacement.
type TokenStorage interface {
	Token() string
	SetToken(token string)
}

type MemoryTokenStorage struct {
	mu    sync.Mutex
	token string
}

func NewMemoryTokenStorage(token string) *MemoryTokenStorage {
	return &MemoryTokenStorage{token: token}
}

func (m *MemoryTokenStorage) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *MemoryTokenStorage) SetToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
}

// Client is the HTTP implementation of API.
type Client struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
	tokens     TokenStorage
	fcmToken   string
}

func NewClient(log *logger.Logger, baseURL string, tokens TokenStorage, fcmToken string) *Client {
	return &Client{
		log:        log.With("client", "ChatAPI"),
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		tokens:     tokens,
		fcmToken:   fcmToken,
	}
}

func (c *Client) SendTurn(ctx context.Context, personaID, text string) (*TurnResponse, error) {
	var out TurnResponse
	err := c.post(ctx, "/chat", map[string]interface{}{
		"personaId": personaID,
		"text":      text,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.NewToken != "" {
		c.tokens.SetToken(out.NewToken)
	}
	return &out, nil
}

func (c *Client) GetMessages(ctx context.Context, personaID string, page, pageSize int) (*HistoryResponse, error) {
	var out HistoryResponse
	err := c.post(ctx, "/messages", map[string]interface{}{
		"personaId": personaID,
		"page":      page,
		"pageSize":  pageSize,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.NewToken != "" {
		c.tokens.SetToken(out.NewToken)
	}
	return &out, nil
}

// Register exchanges device details for the initial app key.
func (c *Client) Register(ctx context.Context, phone string) error {
	var out struct {
		Success bool   `json:"success"`
		AppKey  string `json:"app_key"`
	}
	if err := c.post(ctx, "/register", map[string]interface{}{
		"phone":     phone,
		"fcm_token": c.fcmToken,
	}, &out); err != nil {
		return err
	}
	if !out.Success || out.AppKey == "" {
		return fmt.Errorf("registration did not return an app key")
	}
	c.tokens.SetToken(out.AppKey)
	return nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.fcmToken != "" {
		req.Header.Set("X-FCM-Token", c.fcmToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		c.log.Warn("Request rejected", "path", path, "status", resp.StatusCode)
		return fmt.Errorf("backend error %d from %s", resp.StatusCode, path)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", path, err)
		}
	}
	return nil
}
