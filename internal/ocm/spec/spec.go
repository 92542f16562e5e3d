// Package spec defines OCM wire-format types for the 1.0-proposal1 dialect:
// discovery, share creation, and notifications, plus the error envelope.
package spec

// APIVersion is the protocol dialect this endpoint speaks.
const APIVersion = "1.0-proposal1"

// Supported share and resource types. Everything else maps to 501.
const (
	ShareTypeUser    = "user"
	ResourceTypeFile = "file"
)

// NewShareRequest is the POST /ocm/shares request body.
type NewShareRequest struct {
	ShareWith         string    `json:"shareWith"`
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	ProviderID        string    `json:"providerId"`
	Owner             string    `json:"owner"`
	Sender            string    `json:"sender,omitempty"`
	OwnerDisplayName  string    `json:"ownerDisplayName,omitempty"`
	SenderDisplayName string    `json:"senderDisplayName,omitempty"`
	ShareType         string    `json:"shareType"`
	ResourceType      string    `json:"resourceType"`
	Protocol          *Protocol `json:"protocol,omitempty"`
}

// Protocol names the access protocol and carries its options.
type Protocol struct {
	Name    string           `json:"name"`
	Options *ProtocolOptions `json:"options,omitempty"`
}

// ProtocolOptions carries the per-share credentials.
type ProtocolOptions struct {
	SharedSecret string `json:"sharedSecret"`
}

// NewNotification is the POST /ocm/notifications request body.
type NewNotification struct {
	NotificationType string               `json:"notificationType"`
	ResourceType     string               `json:"resourceType"`
	ProviderID       string               `json:"providerId"`
	Notification     *NotificationPayload `json:"notification,omitempty"`
}

// NotificationPayload is the typed inner payload. Which fields are required
// depends on the notification type; the dispatcher enforces that per type.
type NotificationPayload struct {
	SharedSecret string `json:"sharedSecret,omitempty"`
	ShareWith    string `json:"shareWith,omitempty"`
	Permission   string `json:"permission,omitempty"`
	Message      string `json:"message,omitempty"`
}

// Discovery is the document served at /ocm-provider and /.well-known/ocm.
type Discovery struct {
	Enabled    bool        `json:"enabled"`
	APIVersion string      `json:"apiVersion"`
	EndPoint   string      `json:"endPoint"`
	Provider   string      `json:"provider,omitempty"`
	ShareTypes []ShareType `json:"shareTypes"`
}

// ShareType describes a shareable resource class and its access protocols.
type ShareType struct {
	Name      string            `json:"name"`
	Protocols map[string]string `json:"protocols"`
}

// WebDAVPath returns the advertised webdav path for file shares, or "".
func (d *Discovery) WebDAVPath() string {
	for _, st := range d.ShareTypes {
		if st.Name == ResourceTypeFile {
			if p, ok := st.Protocols["webdav"]; ok {
				return p
			}
		}
	}
	return ""
}
