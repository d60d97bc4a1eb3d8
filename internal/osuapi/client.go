// Package osuapi is the REST client for the upstream rhythm-game platform:
// OAuth2 client-credentials token management, the single-set fetch, the
// per-set and global event endpoints, and the unresolved-discussions
// listing.
package osuapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Config holds the authentication and connection settings for the upstream
// platform.
type Config struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string

	// RequestDelay throttles successive requests the same way the teacher's
	// Jira client does, independent of the page-walker's burst pause.
	RequestDelay time.Duration
}

// ErrAuthFailure wraps a non-2xx or malformed token response. Fatal to a
// cycle.
type ErrAuthFailure struct{ Cause error }

func (e *ErrAuthFailure) Error() string { return fmt.Sprintf("osuapi: auth failure: %v", e.Cause) }
func (e *ErrAuthFailure) Unwrap() error { return e.Cause }

// Client is the interface the rest of the module depends on, so tests can
// substitute a fake.
type Client interface {
	FetchBeatmapSet(beatmapSetID int64) (*BeatmapSetDTO, error)
	FetchSetEvents(beatmapSetID int64) ([]EventDTO, error)
	FetchGlobalEventsPage(page, limit int) ([]EventDTO, error)
	FetchUnresolvedDiscussionSetIDs() ([]int64, error)
}

type client struct {
	cfg         Config
	httpClient  *http.Client
	lastRequest time.Time
}

// NewClient builds a Client wired to an oauth2.TokenSource configured with
// a one-hour early-expiry margin, mirroring the teacher's dcClient shape
// but swapping cookie auth for a bearer token.
func NewClient(cfg Config) Client {
	if cfg.RequestDelay == 0 {
		cfg.RequestDelay = 1 * time.Second
	}

	ccCfg := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		EndpointParams: url.Values{
			"scope": {"public"},
		},
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: 30 * time.Second})
	source := oauth2.ReuseTokenSourceWithExpiry(nil, ccCfg.TokenSource(ctx), 1*time.Hour)

	return &client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout:   90 * time.Second,
			Transport: &oauth2.Transport{Base: http.DefaultTransport, Source: source},
		},
	}
}

func (c *client) throttle() {
	elapsed := time.Since(c.lastRequest)
	if elapsed < c.cfg.RequestDelay {
		time.Sleep(c.cfg.RequestDelay - elapsed)
	}
	c.lastRequest = time.Now()
}

func (c *client) get(path string, query url.Values, out any) error {
	c.throttle()

	reqURL := fmt.Sprintf("%s/%s", c.cfg.BaseURL, path)
	if query != nil {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var tErr *oauth2.RetrieveError
		if ok := asRetrieveError(err, &tErr); ok {
			return &ErrAuthFailure{Cause: err}
		}
		return fmt.Errorf("osuapi: request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return &ErrAuthFailure{Cause: fmt.Errorf("status %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("osuapi: %s returned status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("osuapi: decode %s: %w", path, err)
	}
	return nil
}

func asRetrieveError(err error, target **oauth2.RetrieveError) bool {
	for err != nil {
		if re, ok := err.(*oauth2.RetrieveError); ok {
			*target = re
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// FetchBeatmapSet implements `beatmapsets/{id}`.
func (c *client) FetchBeatmapSet(beatmapSetID int64) (*BeatmapSetDTO, error) {
	var dto BeatmapSetDTO
	if err := c.get(fmt.Sprintf("beatmapsets/%d", beatmapSetID), nil, &dto); err != nil {
		return nil, err
	}
	return &dto, nil
}

// FetchSetEvents implements the per-set event endpoint.
func (c *client) FetchSetEvents(beatmapSetID int64) ([]EventDTO, error) {
	q := url.Values{}
	q["types[]"] = []string{"qualify", "disqualify", "rank", "nominate", "nomination_reset"}
	q.Set("beatmapset_id", fmt.Sprintf("%d", beatmapSetID))
	q.Set("limit", "50")

	var result struct {
		Events []EventDTO `json:"events"`
	}
	if err := c.get("beatmapsets/events", q, &result); err != nil {
		return nil, err
	}
	return result.Events, nil
}

// FetchGlobalEventsPage implements the paged global event stream.
func (c *client) FetchGlobalEventsPage(page, limit int) ([]EventDTO, error) {
	q := url.Values{}
	q["types[]"] = []string{"qualify", "rank", "disqualify"}
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("page", fmt.Sprintf("%d", page))

	var result struct {
		Events []EventDTO `json:"events"`
	}
	if err := c.get("beatmapsets/events", q, &result); err != nil {
		return nil, err
	}
	return result.Events, nil
}

// FetchUnresolvedDiscussionSetIDs implements the unresolved-discussions
// listing.
func (c *client) FetchUnresolvedDiscussionSetIDs() ([]int64, error) {
	q := url.Values{}
	q.Set("beatmapset_status", "qualified")
	q["message_types[]"] = []string{"suggestion", "problem"}
	q.Set("only_unresolved", "true")
	q.Set("limit", "50")

	var result struct {
		Beatmapsets []struct {
			ID int64 `json:"id"`
		} `json:"beatmapsets"`
	}
	if err := c.get("beatmapsets/discussions", q, &result); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(result.Beatmapsets))
	for _, b := range result.Beatmapsets {
		ids = append(ids, b.ID)
	}
	return ids, nil
}
