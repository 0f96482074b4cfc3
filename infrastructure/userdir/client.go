package userdir

import (
	"chat-relay/domain/chat"
	"chat-relay/errors"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client resolves user profiles from the user service.
type Client struct {
	baseURL    string
	httpClient *resty.Client
}

// userResponse accepts both {"user": {...}} and a bare user object.
type userResponse struct {
	User  *chat.User `json:"user"`
	ID    string     `json:"_id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		return &Client{}
	}
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetHeader("User-Agent", "chat-relay/1.0").
		SetTimeout(timeout)
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

func (c *Client) IsEnabled() bool {
	return c != nil && c.baseURL != ""
}

func (c *Client) GetUser(ctx context.Context, userID string) (chat.User, error) {
	if !c.IsEnabled() {
		return chat.User{}, fmt.Errorf("user service is not configured: user %w", errors.ErrNotFound)
	}

	var resp userResponse
	httpResp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&resp).
		Get("/api/v1/user/" + url.PathEscape(userID))
	if err != nil {
		return chat.User{}, fmt.Errorf("user service request failed: %w", err)
	}
	if httpResp.IsError() {
		return chat.User{}, fmt.Errorf("user service error (%d): %s", httpResp.StatusCode(), httpResp.String())
	}
	if resp.User != nil {
		return *resp.User, nil
	}
	if resp.ID == "" {
		return chat.User{}, fmt.Errorf("user %s: %w", userID, errors.ErrNotFound)
	}
	return chat.User{ID: resp.ID, Name: resp.Name, Email: resp.Email}, nil
}
