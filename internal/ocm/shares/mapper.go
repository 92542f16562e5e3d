package shares

import "context"

// RecipientMapper maps the userId extracted from shareWith to the effective
// local user id. Integrators can plug in a mapper that resolves login-name
// style identifiers; the handler logs the value before and after mapping.
type RecipientMapper interface {
	MapRecipient(ctx context.Context, userID string) string
}

// PassthroughMapper returns the recipient unchanged. It is the default
// mapping used when no integrator hook is installed.
type PassthroughMapper struct{}

func (PassthroughMapper) MapRecipient(_ context.Context, userID string) string {
	return userID
}
