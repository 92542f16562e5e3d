// Package address parses federated cloud identifiers of the form
// user@host. Identifiers are split on the last '@' so user IDs that
// themselves contain '@' (email-style IDs) survive the round trip.
package address

import "strings"

// Address identifies a party on a federated cloud instance.
// The zero value is usable; fields are never mutated after construction.
type Address struct {
	UserID      string
	Host        string
	DisplayName string
}

// Parse builds an Address from a federated identifier. Parsing is total:
// malformed input never fails. An identifier without '@' yields the whole
// string as UserID and an empty Host; whether that is acceptable is the
// caller's decision.
func Parse(identity string) Address {
	at := strings.LastIndex(identity, "@")
	if at < 0 {
		return Address{UserID: identity}
	}
	return Address{
		UserID: identity[:at],
		Host:   identity[at+1:],
	}
}

// ParseWithDisplayName parses identity and attaches a display name.
func ParseWithDisplayName(identity, displayName string) Address {
	a := Parse(identity)
	a.DisplayName = displayName
	return a
}

// String re-assembles the federated identifier. An Address without a host
// renders as the bare user ID.
func (a Address) String() string {
	if a.Host == "" {
		return a.UserID
	}
	return a.UserID + "@" + a.Host
}
