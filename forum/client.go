package forum

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"
)

const (
	tokenPath   = "/api/v1/access_token"
	infoPath    = "/api/info.json"
	maxPageSize = 100

	// Refresh the token slightly before the server-side expiry.
	tokenExpiryMargin = time.Minute
)

type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Client talks to the forum's JSON API using app-only authentication.
// It is safe for use from concurrent passes.
type Client struct {
	baseURL    string
	authURL    string
	creds      Credentials
	userAgent  string
	pageSize   int
	HTTPClient *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewClient(creds Credentials, baseURL url.URL, authURL url.URL, userAgent string, pageSize int) *Client {
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return &Client{
		creds:      creds,
		baseURL:    strings.TrimSuffix(baseURL.String(), "/"),
		authURL:    strings.TrimSuffix(authURL.String(), "/"),
		userAgent:  userAgent,
		pageSize:   pageSize,
		HTTPClient: http.DefaultClient,
	}
}

/*
Fetches up to limit of the newest replies in a channel. The listing endpoint
caps pages at 100 items, so larger limits are gathered over multiple requests
using the listing's After cursor. Pages can shift between requests, so
results are deduped by id and re-sorted newest-first before returning.
The returned slice may be shorter than limit if the channel has fewer
recent replies.
*/
func (c *Client) FetchRecent(ctx context.Context, channel string, limit int) ([]RawReply, error) {
	replies := map[string]RawReply{}
	after := ""
	for len(replies) < limit {
		pageLimit := c.pageSize
		if remaining := limit - len(replies); remaining < pageLimit {
			pageLimit = remaining
		}

		reqURL := fmt.Sprintf("%s/r/%s/comments.json", c.baseURL, url.PathEscape(channel))
		q := url.Values{}
		q.Set("limit", strconv.Itoa(pageLimit))
		if after != "" {
			q.Set("after", after)
		}

		log.WithField("channel", channel).WithField("after", after).Debug("requesting reply listing")
		var page thing
		if err := c.getJSON(ctx, reqURL+"?"+q.Encode(), "listing fetch", &page); err != nil {
			return nil, err
		}

		added := 0
		for _, child := range page.Data.Children {
			if child.Kind != KindReply {
				continue
			}
			raw := child.Data.toRawReply()
			if _, ok := replies[raw.ID]; ok {
				log.Warnf("duplicate reply found while paging listing: %v", raw.ID)
			} else {
				added++
			}
			replies[raw.ID] = raw
		}

		after = page.Data.After
		// A page of pure duplicates means the cursor has stalled
		if after == "" || added == 0 {
			break
		}
	}

	// Sort the replies from newest to oldest
	all := maps.Values(replies)
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return all, nil
}

// FetchReply looks up a single reply by its bare id. Returns ErrNotFound if
// the id no longer resolves and a TransientError on transport failure.
func (c *Client) FetchReply(ctx context.Context, id string) (*RawReply, error) {
	fullname, err := ReplyFullname(id)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("id", fullname)

	var listing thing
	if err := c.getJSON(ctx, c.baseURL+infoPath+"?"+q.Encode(), "reply fetch", &listing); err != nil {
		return nil, err
	}
	for _, child := range listing.Data.Children {
		if child.Kind != KindReply || child.Data.ID != id {
			continue
		}
		raw := child.Data.toRawReply()
		return &raw, nil
	}
	return nil, ErrNotFound
}

func (c *Client) getJSON(ctx context.Context, rawURL string, op string, out any) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", token))
	req.Header.Add("User-Agent", c.userAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &TransientError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return &TransientError{Op: op, Err: fmt.Errorf("status %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("forum: %s failed with status %d", op, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransientError{Op: op, Err: err}
	}
	if err = json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("forum: decoding %s response: %w", op, err)
	}
	return nil
}

// token returns a cached app-only bearer token, fetching a fresh one from
// the auth endpoint when the cached token is missing or near expiry.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.creds.ClientID, c.creds.ClientSecret)
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Add("User-Agent", c.userAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", &TransientError{Op: "token fetch", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("forum: token fetch failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransientError{Op: "token fetch", Err: err}
	}
	var tr tokenResponse
	if err = json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("forum: decoding token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("forum: token response missing access token")
	}

	c.accessToken = tr.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tr.ExpiresIn)*time.Second - tokenExpiryMargin)
	log.Debug("refreshed forum access token")
	return c.accessToken, nil
}
