// Package naming implements the sibling name collision policy shared by the
// server services and the client-side explorer: a candidate name is kept as-is
// when it is free, otherwise a parenthesized counter is appended until a free
// name is found. Comparison is case-insensitive throughout.
package naming

import (
	"fmt"
	"strings"
)

// DefaultFolderName substitutes an empty candidate on create.
const DefaultFolderName = "New Folder"

// Resolve returns a name guaranteed not to collide case-insensitively with
// any name in siblings. An empty or all-whitespace base becomes
// DefaultFolderName before resolution. Terminates in at most len(siblings)+1
// probes: with n siblings, at least one of "base", "base (1)" … "base (n)"
// is free.
func Resolve(base string, siblings []string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		base = DefaultFolderName
	}

	taken := make(map[string]struct{}, len(siblings))
	for _, s := range siblings {
		taken[strings.ToLower(s)] = struct{}{}
	}

	if _, clash := taken[strings.ToLower(base)]; !clash {
		return base
	}

	for counter := 1; ; counter++ {
		candidate := fmt.Sprintf("%s (%d)", base, counter)
		if _, clash := taken[strings.ToLower(candidate)]; !clash {
			return candidate
		}
	}
}

// ResolveRename decides the final name for a rename. It returns ok=false when
// the request is a no-op: the trimmed input is empty, or it equals the current
// name exactly. Otherwise the name is resolved against siblings, which must
// already exclude the entity being renamed. An empty rename is rejected rather
// than defaulted; only creation substitutes DefaultFolderName.
func ResolveRename(current, requested string, siblings []string) (string, bool) {
	requested = strings.TrimSpace(requested)
	if requested == "" || requested == current {
		return current, false
	}
	return Resolve(requested, siblings), true
}
