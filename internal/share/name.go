package share

import "strings"

// IsValidMountName reports whether name is safe to use as a mount-point
// file name. Path separators, control characters, and the reserved names
// "." and ".." are rejected. The name is used verbatim on the recipient's
// storage, so anything that could escape a directory is refused.
func IsValidMountName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if len(name) > 255 {
		return false
	}
	if strings.ContainsAny(name, "/\\") {
		return false
	}
	if strings.ContainsRune(name, 0) {
		return false
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}
	return true
}
