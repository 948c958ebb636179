package restapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/lorrc/ops-console-engine/internal/core/domain"
	"github.com/lorrc/ops-console-engine/internal/core/ports"
)

// threadReplies is the data shape of the thread-replies endpoint.
type threadReplies struct {
	Replies []domain.Reply `json:"replies"`
}

// ThreadGateway is the HTTP implementation of ports.ThreadGateway.
type ThreadGateway struct {
	client *Client
}

var _ ports.ThreadGateway = (*ThreadGateway)(nil)

// NewThreadGateway creates the gateway over the shared API client.
func NewThreadGateway(client *Client) *ThreadGateway {
	return &ThreadGateway{client: client}
}

// Replies fetches all replies currently on the thread.
func (g *ThreadGateway) Replies(ctx context.Context, threadTS string) ([]domain.Reply, error) {
	path := "/slack/thread-replies/" + url.PathEscape(threadTS)
	data, err := doJSON[threadReplies](ctx, g.client, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return data.Replies, nil
}

// SendReply posts a user-authored follow-up into the thread.
func (g *ThreadGateway) SendReply(ctx context.Context, threadTS, text string) error {
	body := map[string]string{"thread_ts": threadTS, "text": text}
	_, err := doJSON[struct{}](ctx, g.client, http.MethodPost, "/slack/reply", nil, body)
	return err
}
