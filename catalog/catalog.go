/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package catalog talks to the list/game catalog service.
package catalog

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
	"time"
)

// ListID is the server-side identifier of a list. The catalog sends it as a
// JSON number, but strings are accepted too.
type ListID string

func (id *ListID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}

	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ListID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("list id: %w", err)
	}
	*id = ListID(n.String())
	return nil
}

func (id ListID) String() string {
	return string(id)
}

type List struct {
	ID   ListID `json:"id"`
	Name string `json:"name"`
}

type Game struct {
	Title            string `json:"title"`
	Year             int    `json:"year"`
	ShortDescription string `json:"shortDescription"`
	ImgURL           string `json:"imgUrl"`
}

// Replacement is the body of a reorder request. The destination key is
// spelled the way the catalog service expects it.
type Replacement struct {
	SourceIndex      int `json:"sourceIndex"`
	DestinationIndex int `json:"destinantionIndex"`
}

// StatusError is returned for any non-2xx catalog response.
type StatusError struct {
	Method string
	Path   string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d %s", e.Method, e.Path, e.Code, http.StatusText(e.Code))
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

type Client struct {
	base *url.URL
	http *http.Client
}

// New returns a Client for the catalog at baseURL. A zero timeout means
// requests wait for as long as the server takes.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid catalog url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid catalog url %q: scheme must be http or https", baseURL)
	}

	return &Client{
		base: u,
		http: &http.Client{Timeout: timeout},
	}, nil
}

// BaseURL returns the catalog root the client was created with.
func (c *Client) BaseURL() string {
	return c.base.String()
}

func (c *Client) endpoint(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}

	return c.base.String() + "/" + strings.Join(escaped, "/")
}

// Lists fetches every list, in server order.
func (c *Client) Lists(ctx context.Context) ([]List, error) {
	var lists []List
	if err := c.getJSON(ctx, c.endpoint("lists"), &lists); err != nil {
		return nil, fmt.Errorf("fetch lists: %w", err)
	}

	return lists, nil
}

// Games fetches the games of a list. The slice order is the list order.
func (c *Client) Games(ctx context.Context, id ListID) ([]Game, error) {
	var games []Game
	if err := c.getJSON(ctx, c.endpoint("lists", id.String(), "games"), &games); err != nil {
		return nil, fmt.Errorf("fetch games of list %s: %w", id, err)
	}

	return games, nil
}

// Move asks the catalog to move the game at source to destination within a
// list. The response body is discarded.
func (c *Client) Move(ctx context.Context, id ListID, source, destination int) error {
	body, err := json.Marshal(Replacement{
		SourceIndex:      source,
		DestinationIndex: destination,
	})
	if err != nil {
		return err
	}

	resp, err := c.do(ctx, http.MethodPost, c.endpoint("lists", id.String(), "replacement"), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("move %d to %d in list %s: %w", source, destination, id, err)
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}

// Forward sends an arbitrary request to the catalog and hands back the raw
// response, whatever its status. The caller closes the body.
func (c *Client) Forward(ctx context.Context, method string, body io.Reader, segments ...string) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, c.endpoint(segments...), body)
	if err != nil {
		return nil, err
	}

	return c.http.Do(req)
}

func (c *Client) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

func (c *Client) do(ctx context.Context, method, target string, body io.Reader) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, target, body)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		return nil, &StatusError{Method: method, Path: req.URL.Path, Code: resp.StatusCode}
	}

	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, target string, v any) error {
	resp, err := c.do(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
