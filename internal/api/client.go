package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vijaynimmakayala9/techsterker-mentor-sub000/pkg/errors"
	"github.com/vijaynimmakayala9/techsterker-mentor-sub000/pkg/logger"
)

// Client talks to the platform chat API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
}

// Upload is one file attached to an outgoing message.
type Upload struct {
	Name    string
	Content io.Reader
}

type envelope struct {
	Success bool `json:"success"`
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.FromStatus(resp.StatusCode, "GET "+path)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	logger.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("chat api post")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.FromStatus(resp.StatusCode, "POST "+path)
	}
	return io.ReadAll(resp.Body)
}

// ListGroupChats returns the mentor's group conversations.
func (c *Client) ListGroupChats(ctx context.Context, actorID string) ([]GroupChat, error) {
	body, err := c.get(ctx, "/api/group-chats/"+url.PathEscape(actorID))
	if err != nil {
		return nil, err
	}

	var resp struct {
		envelope
		Data []GroupChat `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, errors.Rejected("group chat listing")
	}
	return resp.Data, nil
}

// ListIndividualChats returns the mentor's 1:1 conversations.
func (c *Client) ListIndividualChats(ctx context.Context, actorID string) ([]IndividualChat, error) {
	body, err := c.get(ctx, "/api/individual-chats/"+url.PathEscape(actorID))
	if err != nil {
		return nil, err
	}

	var resp struct {
		envelope
		Data []IndividualChat `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, errors.Rejected("individual chat listing")
	}
	return resp.Data, nil
}

// FetchGroupMessages returns the message snapshot for a group, plus the
// roster details the endpoint piggybacks when it has them.
func (c *Client) FetchGroupMessages(ctx context.Context, groupID, actorID string) ([]Message, *GroupDetails, error) {
	body, err := c.get(ctx, "/api/group-messages/"+url.PathEscape(groupID)+"/"+url.PathEscape(actorID))
	if err != nil {
		return nil, nil, err
	}

	var details struct {
		GroupDetails *GroupDetails `json:"groupDetails"`
	}
	// Best effort: a bare-array response has no details to offer.
	_ = json.Unmarshal(body, &details)

	return normalizeMessages(body), details.GroupDetails, nil
}

// FetchIndividualMessages returns the message snapshot for a 1:1 thread.
func (c *Client) FetchIndividualMessages(ctx context.Context, otherUserID, actorID string) ([]Message, error) {
	body, err := c.get(ctx, "/api/individual-messages/"+url.PathEscape(otherUserID)+"/"+url.PathEscape(actorID))
	if err != nil {
		return nil, err
	}
	return normalizeMessages(body), nil
}

// SendGroupMessage posts a multipart message to a group thread.
func (c *Client) SendGroupMessage(ctx context.Context, groupID, senderID, text string, files []Upload) error {
	fields := map[string]string{
		"chatGroupId": groupID,
		"senderId":    senderID,
	}
	return c.sendMultipart(ctx, "/api/group-messages", fields, text, files)
}

// SendIndividualMessage posts a multipart message to a 1:1 thread.
// The backend wants the mentor id both as mentorId and senderId.
func (c *Client) SendIndividualMessage(ctx context.Context, userID, mentorID, senderID, text string, files []Upload) error {
	fields := map[string]string{
		"userId":   userID,
		"mentorId": mentorID,
		"senderId": senderID,
	}
	return c.sendMultipart(ctx, "/api/individual-messages", fields, text, files)
}

func (c *Client) sendMultipart(ctx context.Context, path string, fields map[string]string, text string, files []Upload) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return err
		}
	}
	if text != "" {
		if err := w.WriteField("text", text); err != nil {
			return err
		}
	}
	for _, f := range files {
		part, err := w.CreateFormFile("files", f.Name)
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return fmt.Errorf("reading attachment %s: %w", f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return err
	}

	body, err := c.post(ctx, path, w.FormDataContentType(), &buf)
	if err != nil {
		return err
	}

	var resp envelope
	if err := json.Unmarshal(body, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return errors.Rejected("message send")
	}
	return nil
}

// CreateIndividualChat opens a new 1:1 thread between a student and the mentor.
func (c *Client) CreateIndividualChat(ctx context.Context, userID, mentorID string) (IndividualChat, error) {
	payload, err := json.Marshal(map[string]string{
		"userId":   userID,
		"mentorId": mentorID,
	})
	if err != nil {
		return IndividualChat{}, err
	}

	body, err := c.post(ctx, "/api/individual-chats", "application/json", bytes.NewReader(payload))
	if err != nil {
		return IndividualChat{}, err
	}

	var resp struct {
		envelope
		Data IndividualChat `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return IndividualChat{}, err
	}
	if !resp.Success {
		return IndividualChat{}, errors.Rejected("chat creation")
	}
	return resp.Data, nil
}

// Download streams an attachment. Relative URLs resolve against the API base.
func (c *Client) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	target := rawURL
	if u, err := url.Parse(rawURL); err == nil && !u.IsAbs() {
		target = c.baseURL + "/" + strings.TrimLeft(rawURL, "/")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.FromStatus(resp.StatusCode, "attachment download")
	}
	return resp.Body, nil
}
