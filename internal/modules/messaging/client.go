package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

// Client talks to the chat gateway sidecar over JSON/HTTP.
type Client struct {
	host   *url.URL
	token  string
	client *http.Client
}

func NewClient(host *url.URL, token string) *Client {
	return &Client{
		host:   host,
		token:  token,
		client: &http.Client{},
	}
}

var _ Gateway = (*Client)(nil)

func (c *Client) SendMessage(ctx context.Context, channelRef string, message Message) error {
	path := fmt.Sprintf("channels/%s/messages", url.PathEscape(channelRef))
	return c.post(ctx, path, message, nil)
}

func (c *Client) CreateChannel(
	ctx context.Context,
	communityRef string,
	name string,
	visibility Visibility,
) (string, error) {
	request := struct {
		CommunityRef string     `json:"community_ref"`
		Name         string     `json:"name"`
		Visibility   Visibility `json:"visibility"`
	}{communityRef, name, visibility}

	var response struct {
		ChannelRef string `json:"channel_ref"`
	}

	if err := c.post(ctx, "channels", request, &response); err != nil {
		return "", err
	}

	return response.ChannelRef, nil
}

func (c *Client) DeleteChannel(ctx context.Context, channelRef string) error {
	path := fmt.Sprintf("channels/%s", url.PathEscape(channelRef))

	req, err := c.newRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}

	return c.do(req)
}

func (c *Client) SetPermissions(
	ctx context.Context,
	channelRef string,
	subjectRef string,
	policy PermissionPolicy,
) error {
	request := struct {
		SubjectRef string           `json:"subject_ref"`
		Policy     PermissionPolicy `json:"policy"`
	}{subjectRef, policy}

	path := fmt.Sprintf("channels/%s/permissions", url.PathEscape(channelRef))
	return c.post(ctx, path, request, nil)
}

func (c *Client) post(ctx context.Context, path string, body interface{}, response interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "failed to serialize gateway request")
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	if response == nil {
		return c.do(req)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "chat gateway request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return errors.Errorf("chat gateway returned status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(response)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body *bytes.Reader) (*http.Request, error) {
	target := c.host.JoinPath(path).String()

	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, target, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, target, nil)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to build gateway request")
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return req, nil
}

func (c *Client) do(req *http.Request) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "chat gateway request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return errors.Errorf("chat gateway returned status %d", resp.StatusCode)
	}

	return nil
}
