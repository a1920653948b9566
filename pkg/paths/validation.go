package paths

import (
	"regexp"
	"strings"

	"github.com/plugfs/plugfs/pkg/errors"
)

// storageNameRule is the naming rule for storage areas: 3 to 24 ASCII
// letters, no digits, symbols or whitespace.
var storageNameRule = regexp.MustCompile(`^[A-Za-z]{3,24}$`)

// ValidateStorageName ensures a name is valid for a per-client storage area.
// Names must:
// - Match the naming rule (3-24 ASCII letters)
// - Not be the reserved shared-storage name, in any casing
func ValidateStorageName(name string) error {
	if !storageNameRule.MatchString(name) {
		return errors.Newf(errors.ErrInvalidName,
			"name of storage %q is not allowed, must match %s", name, storageNameRule.String())
	}
	if strings.EqualFold(name, SharedName) {
		return errors.Newf(errors.ErrInvalidName,
			"name of storage %q is reserved", name)
	}
	return nil
}
