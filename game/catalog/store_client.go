package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// StoreClient looks games up in a remote game store over its REST API
type StoreClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewStoreClient creates a client for the store at baseURL
func NewStoreClient(baseURL string) *StoreClient {
	return &StoreClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// GetGame fetches GET {baseURL}/api/games/{id}. Any transport or decoding
// failure is reported as ErrGameNotFound; the store is best effort.
func (c *StoreClient) GetGame(ctx context.Context, id int64) (*GameInfo, error) {
	url := fmt.Sprintf("%s/api/games/%d", c.baseURL, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGameNotFound, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Debug("game store unreachable", "url", url, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrGameNotFound, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: store returned %d", ErrGameNotFound, resp.StatusCode)
	}

	var game GameInfo
	if err := json.NewDecoder(resp.Body).Decode(&game); err != nil {
		slog.Debug("game store returned malformed body", "url", url, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrGameNotFound, err)
	}
	if game.ID == 0 {
		game.ID = id
	}

	return &game, nil
}
