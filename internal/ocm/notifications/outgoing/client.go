// Package outgoing sends share lifecycle notifications to federated peers.
package outgoing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/MahdiBaghbani/ocmgate/internal/httpclient"
	"github.com/MahdiBaghbani/ocmgate/internal/ocm/discovery"
	"github.com/MahdiBaghbani/ocmgate/internal/ocm/notifications"
	"github.com/MahdiBaghbani/ocmgate/internal/ocm/spec"
	"github.com/MahdiBaghbani/ocmgate/internal/store"
)

// Notifier delivers notifications to a peer's discovered OCM endpoint.
type Notifier struct {
	httpClient      *httpclient.Client
	discoveryClient *discovery.Client
}

// NewNotifier creates a notifier.
func NewNotifier(hc *httpclient.Client, dc *discovery.Client) *Notifier {
	return &Notifier{
		httpClient:      hc,
		discoveryClient: dc,
	}
}

// Send discovers the peer's endpoint and POSTs the notification to it.
// Both 200 and 201 count as delivered.
func (n *Notifier) Send(ctx context.Context, targetHost string, notification *spec.NewNotification) error {
	if n.discoveryClient == nil {
		return fmt.Errorf("discovery client not configured, cannot notify %s", targetHost)
	}

	disc, err := n.discoveryClient.Discover(ctx, "https://"+targetHost)
	if err != nil {
		return fmt.Errorf("discovery failed for %s: %w", targetHost, err)
	}

	notificationsURL, err := url.JoinPath(disc.EndPoint, "notifications")
	if err != nil {
		return fmt.Errorf("failed to build notifications URL: %w", err)
	}

	body, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	resp, err := n.httpClient.PostJSON(ctx, notificationsURL, body)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("notification rejected with status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// SendShareAccepted tells the sender that its share was accepted.
func (n *Notifier) SendShareAccepted(ctx context.Context, sh *store.RemoteShare) error {
	return n.Send(ctx, sh.SenderHost, &spec.NewNotification{
		NotificationType: notifications.TypeShareAccepted,
		ResourceType:     sh.ResourceType,
		ProviderID:       sh.ProviderID,
		Notification: &spec.NotificationPayload{
			SharedSecret: sh.Token,
		},
	})
}

// SendShareDeclined tells the sender that its share was declined.
func (n *Notifier) SendShareDeclined(ctx context.Context, sh *store.RemoteShare) error {
	return n.Send(ctx, sh.SenderHost, &spec.NewNotification{
		NotificationType: notifications.TypeShareDeclined,
		ResourceType:     sh.ResourceType,
		ProviderID:       sh.ProviderID,
		Notification: &spec.NotificationPayload{
			SharedSecret: sh.Token,
		},
	})
}
