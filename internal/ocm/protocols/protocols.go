// Package protocols holds the registry of share access protocols this
// instance supports and the endpoint path advertised for each.
package protocols

// Protocol name constants.
const (
	WebDAV = "webdav"
)

// registry maps protocol names to the relative endpoint path advertised in
// the discovery document. The table is fixed at compile time.
var registry = map[string]string{
	WebDAV: "/public.php/webdav/",
}

// order keeps listing deterministic.
var order = []string{WebDAV}

// IsSupported reports whether the named protocol can be served.
func IsSupported(name string) bool {
	_, ok := registry[name]
	return ok
}

// Endpoint returns the advertised endpoint path for a protocol, or "" when
// the protocol is not supported.
func Endpoint(name string) string {
	return registry[name]
}

// List returns a fresh name-to-endpoint mapping of all supported protocols.
// Callers may mutate the returned map.
func List() map[string]string {
	out := make(map[string]string, len(registry))
	for _, name := range order {
		out[name] = registry[name]
	}
	return out
}
