package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"unostat-app/internal/config"
)

var ErrNotConfigured = errors.New("scoring api base url is not configured")

// APIError is a non-2xx answer from the scoring API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("scoring api: status %d: %s", e.StatusCode, e.Message)
}

// Client talks to the remote scoring API that owns seasons and games.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	cache      Cache
	cacheTTL   time.Duration
	logger     *slog.Logger
}

func NewClient(cfg config.ScoringConfig, logger *slog.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, ErrNotConfigured
	}
	return &Client{
		baseURL:    base,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}, nil
}

// SetCache enables caching of game lists for ttl.
func (c *Client) SetCache(cache Cache, ttl time.Duration) {
	c.cache = cache
	c.cacheTTL = ttl
}

func (c *Client) ListSeasons(ctx context.Context) ([]Season, error) {
	var seasons []Season
	if err := c.do(ctx, http.MethodGet, "/api/seasons/get-seasons", nil, nil, &seasons); err != nil {
		return nil, err
	}
	return seasons, nil
}

// CreateSeason registers a season and returns the updated season list.
func (c *Client) CreateSeason(ctx context.Context, name string) ([]Season, error) {
	var seasons []Season
	query := url.Values{"season": {name}}
	if err := c.do(ctx, http.MethodPost, "/api/seasons/set-season", query, struct{}{}, &seasons); err != nil {
		return nil, err
	}
	return seasons, nil
}

func (c *Client) RenameSeason(ctx context.Context, current, next string) error {
	query := url.Values{"current-season": {current}, "new-season": {next}}
	if err := c.do(ctx, http.MethodPut, "/api/seasons/update-season", query, nil, nil); err != nil {
		return err
	}
	c.invalidate(ctx, current)
	return nil
}

func (c *Client) DeleteSeason(ctx context.Context, name string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/seasons/delete-season", url.Values{"season": {name}}, nil, nil); err != nil {
		return err
	}
	c.invalidate(ctx, name)
	return nil
}

// ListGames returns the games of a season, from the cache when one is set.
func (c *Client) ListGames(ctx context.Context, season string) ([]Game, error) {
	key := gamesCacheKey(season)
	if c.cache != nil {
		if data, ok, err := c.cache.Get(ctx, key); err != nil {
			c.logger.Warn("games cache read failed", "season", season, "error", err)
		} else if ok {
			var games []Game
			if err := json.Unmarshal(data, &games); err == nil {
				return games, nil
			}
		}
	}

	var games []Game
	if err := c.do(ctx, http.MethodGet, "/api/season/games/get-games", url.Values{"season": {season}}, nil, &games); err != nil {
		return nil, err
	}
	if games == nil {
		games = []Game{}
	}

	if c.cache != nil {
		if data, err := json.Marshal(games); err == nil {
			if err := c.cache.Set(ctx, key, data, c.cacheTTL); err != nil {
				c.logger.Warn("games cache write failed", "season", season, "error", err)
			}
		}
	}
	return games, nil
}

func (c *Client) AddGame(ctx context.Context, season string, game Game) error {
	if err := c.do(ctx, http.MethodPost, "/api/season/games/set-game", url.Values{"season": {season}}, game, nil); err != nil {
		return err
	}
	c.invalidate(ctx, season)
	return nil
}

func (c *Client) DeleteGame(ctx context.Context, season, gameName string) error {
	query := url.Values{"season": {season}, "game": {gameName}}
	if err := c.do(ctx, http.MethodDelete, "/api/season/games/delete-game", query, nil, nil); err != nil {
		return err
	}
	c.invalidate(ctx, season)
	return nil
}

func (c *Client) invalidate(ctx context.Context, season string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Delete(ctx, gamesCacheKey(season)); err != nil {
		c.logger.Warn("games cache invalidation failed", "season", season, "error", err)
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Message != "" {
		apiErr.Message = payload.Message
	}
	return apiErr
}
