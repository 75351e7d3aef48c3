// Package source fetches the game server status from an upstream endpoint.
//
// A source never reports an error to its caller: an unreachable, slow or
// misbehaving upstream is the expected "server down" signal and degrades to
// an offline status.
package source

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/vsrelay/internal/config"
	"github.com/woozymasta/vsrelay/internal/models"
	"github.com/woozymasta/vsrelay/internal/vars"
)

// maxStatusBody caps the upstream response read into memory.
const maxStatusBody = 1 << 20

// Source returns the current upstream status.
type Source interface {
	Fetch(ctx context.Context) models.UpstreamStatus
}

// New builds the source selected in the configuration.
func New(cfg config.Source) Source {
	if cfg.Kind == config.SourceA2S {
		return NewA2S(cfg.Address, cfg.Timeout)
	}

	return NewHTTP(cfg.URL, cfg.Timeout)
}

// HTTP polls a JSON status endpoint.
type HTTP struct {
	client *http.Client
	url    string
}

// NewHTTP creates an HTTP source with a bounded request timeout.
func NewHTTP(url string, timeout time.Duration) *HTTP {
	return &HTTP{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch performs a GET against the status URL.
func (h *HTTP) Fetch(ctx context.Context) models.UpstreamStatus {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		log.Error().Err(err).Str("url", h.url).Msg("Invalid status URL")
		return models.Offline()
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", vars.UserAgent())

	resp, err := h.client.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("url", h.url).Msg("Status endpoint unreachable")
		return models.Offline()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		log.Debug().Int("status", resp.StatusCode).Str("url", h.url).Msg("Status endpoint returned non-OK")
		return models.Offline()
	}

	// The game mod does not always send a JSON content type, so decode regardless
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxStatusBody))
	if err != nil {
		log.Debug().Err(err).Msg("Failed to read status response")
		return models.Offline()
	}

	var status models.UpstreamStatus
	if err := json.Unmarshal(body, &status); err != nil {
		log.Warn().
			Err(err).
			Str("content_type", resp.Header.Get("Content-Type")).
			Msg("Status response is not valid JSON")
		return models.Offline()
	}

	// A reachable endpoint that omits "online" is still up
	if !hasOnlineField(body) {
		status.Online = true
	}

	return status
}

func hasOnlineField(body []byte) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return false
	}
	_, ok := fields["online"]

	return ok
}
