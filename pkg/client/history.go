package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/a-essam23/syncboard/pkg/protocol"
	"github.com/a-essam23/syncboard/pkg/shape"
)

// HTTPLoader reads room history from GET {BaseURL}/canvas/{roomId}.
type HTTPLoader struct {
	BaseURL string
	Token   string
	Client  *http.Client
	Logger  *slog.Logger
}

var _ Loader = (*HTTPLoader)(nil)

// Load returns the room's shapes newest first. Entries that do not decode
// are skipped.
func (l *HTTPLoader) Load(ctx context.Context, roomID string) ([]shape.Shape, error) {
	endpoint := strings.TrimRight(l.BaseURL, "/") + "/canvas/" + url.PathEscape(roomID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if l.Token != "" {
		req.Header.Set("Authorization", "Bearer "+l.Token)
	}

	hc := l.Client
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("history request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history request failed: %s", resp.Status)
	}

	var body protocol.HistoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("bad history response: %w", err)
	}
	shapes := make([]shape.Shape, 0, len(body.Messages))
	for i, m := range body.Messages {
		s, err := shape.DecodeEnvelope(m.Message)
		if err != nil {
			if l.Logger != nil {
				l.Logger.Warn("Skipping undecodable history entry", slog.Int("index", i), slog.Any("error", err))
			}
			continue
		}
		shapes = append(shapes, s)
	}
	return shapes, nil
}
