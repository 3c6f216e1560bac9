package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"signet/internal/domain"
)

// maxErrorBody bounds how much of a failed response is kept for diagnostics.
const maxErrorBody = 512

// HTTP is a RelayClient speaking JSON over HTTP.
type HTTP struct {
	Base string
	HTTP *http.Client
}

// NewHTTP returns a client for the API at base using hc, or
// http.DefaultClient when hc is nil.
func NewHTTP(base string, hc *http.Client) *HTTP {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &HTTP{Base: strings.TrimRight(base, "/"), HTTP: hc}
}

// FindUser returns the user record unchanged, or nil if the server has no
// such user.
func (c *HTTP) FindUser(ctx context.Context, username domain.Username) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.do(ctx, http.MethodGet, "/users/name/"+url.PathEscape(username.String()), nil, &out)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RegisterUser creates a user record and returns the server's response unchanged.
func (c *HTTP) RegisterUser(ctx context.Context, reg domain.Registration) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/users", reg, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchChallenge asks the server for a fresh session token for username.
func (c *HTTP) FetchChallenge(ctx context.Context, username domain.Username) (domain.Challenge, error) {
	var out domain.Challenge
	if err := c.do(ctx, http.MethodGet, "/token/"+url.PathEscape(username.String()), nil, &out); err != nil {
		return domain.Challenge{}, err
	}
	return out, nil
}

// SubmitAuth posts the signed challenge. A verdict with Success=false is a
// normal answer, not an error.
func (c *HTTP) SubmitAuth(ctx context.Context, sub domain.AuthSubmission) (domain.AuthVerdict, error) {
	var out domain.AuthVerdict
	if err := c.do(ctx, http.MethodPost, "/auth", sub, &out); err != nil {
		return domain.AuthVerdict{}, err
	}
	return out, nil
}

func (c *HTTP) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return err
		}
		body = buf
	}
	req, err := http.NewRequestWithContext(ctx, method, c.Base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("relay %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method: method,
			Path:   path,
			Code:   resp.StatusCode,
			Status: resp.Status,
			Body:   strings.TrimSpace(string(snippet)),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("relay %s %s: decoding response: %w", method, path, err)
	}
	return nil
}

var _ domain.RelayClient = (*HTTP)(nil)
