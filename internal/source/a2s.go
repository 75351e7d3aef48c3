package source

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/a2s/pkg/a2s"
	"github.com/woozymasta/vsrelay/internal/models"
)

// A2S queries a server over the Source Engine Query protocol (A2S_INFO).
// The protocol reports counts only, so the player list stays empty.
type A2S struct {
	host       string
	port       int
	timeout    time.Duration
	bufferSize uint16
}

// NewA2S creates an A2S source for a host:port address.
func NewA2S(address string, timeout time.Duration) *A2S {
	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		log.Error().Err(err).Str("address", address).Msg("Invalid A2S address")
	}
	port, _ := strconv.Atoi(portStr)

	return &A2S{
		host:       host,
		port:       port,
		timeout:    timeout,
		bufferSize: 1400,
	}
}

// Fetch connects via UDP and requests A2S_INFO.
func (q *A2S) Fetch(ctx context.Context) models.UpstreamStatus {
	if q.host == "" || q.port <= 0 {
		return models.Offline()
	}

	type result struct {
		info *a2s.Info
		err  error
	}
	done := make(chan result, 1)

	go func() {
		client, err := a2s.New(q.host, q.port)
		if err != nil {
			done <- result{err: err}
			return
		}
		defer func() { _ = client.Close() }()

		client.BufferSize = q.bufferSize
		client.Timeout = q.timeout

		info, err := client.GetInfo()
		done <- result{info: info, err: err}
	}()

	select {
	case <-ctx.Done():
		return models.Offline()
	case res := <-done:
		if res.err != nil {
			log.Debug().Err(res.err).Str("host", q.host).Int("port", q.port).Msg("A2S query failed")
			return models.Offline()
		}

		return models.UpstreamStatus{
			Online:      true,
			PlayerCount: int(res.info.Players),
			MaxPlayers:  int(res.info.MaxPlayers),
			Players:     []string{},
		}
	}
}
