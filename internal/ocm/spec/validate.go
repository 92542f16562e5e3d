package spec

// MissingShareFields returns the names of required NewShare fields that are
// absent, in a fixed order. A structured protocol section with a name and a
// shared secret counts as one required field.
func MissingShareFields(req *NewShareRequest) []string {
	var missing []string

	if req.ShareWith == "" {
		missing = append(missing, "shareWith")
	}
	if req.Name == "" {
		missing = append(missing, "name")
	}
	if req.ProviderID == "" {
		missing = append(missing, "providerId")
	}
	if req.Owner == "" {
		missing = append(missing, "owner")
	}
	if req.ShareType == "" {
		missing = append(missing, "shareType")
	}
	if req.ResourceType == "" {
		missing = append(missing, "resourceType")
	}
	if req.Protocol == nil || req.Protocol.Name == "" ||
		req.Protocol.Options == nil || req.Protocol.Options.SharedSecret == "" {
		missing = append(missing, "protocol")
	}

	return missing
}

// IsSupportedShareType reports whether the share type can be served.
// Only user shares are supported; group shares map to 501.
func IsSupportedShareType(shareType string) bool {
	return shareType == ShareTypeUser
}

// IsSupportedResourceType reports whether the resource type can be served.
func IsSupportedResourceType(resourceType string) bool {
	return resourceType == ResourceTypeFile
}

// MissingNotificationFields returns the names of absent top-level
// notification fields, in a fixed order.
func MissingNotificationFields(req *NewNotification) []string {
	var missing []string

	if req.NotificationType == "" {
		missing = append(missing, "notificationType")
	}
	if req.ResourceType == "" {
		missing = append(missing, "resourceType")
	}
	if req.ProviderID == "" {
		missing = append(missing, "providerId")
	}
	if req.Notification == nil {
		missing = append(missing, "notification")
	}

	return missing
}
