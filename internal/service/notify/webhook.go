package notify

import (
	"context"
	"net/http"
	"time"

	xhttp "TradePulse/pkg/http"
)

// WebhookNotifier forwards notifications as JSON to an arbitrary HTTP
// endpoint.
type WebhookNotifier struct {
	client *xhttp.Client
	url    string
}

func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	return &WebhookNotifier{
		client: xhttp.NewClient(xhttp.WithTimeout(timeout)),
		url:    url,
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, kind string, payload any) error {
	return n.client.Send(ctx, &xhttp.RequestOptions{
		Method: http.MethodPost,
		URL:    n.url,
		Body: map[string]any{
			"kind":    kind,
			"payload": payload,
		},
	})
}
