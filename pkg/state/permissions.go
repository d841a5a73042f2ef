package state

import "fmt"

// a bitmap representing a set of capabilities
type Permission uint64

const (
	PermCanRead  Permission = 1 << iota
	PermCanWrite            // 2
)

// PermDefault applies to credentials that carry no permission claim.
const PermDefault = PermCanRead | PermCanWrite

var BuiltInPerms = map[string]Permission{
	"read":  PermCanRead,
	"write": PermCanWrite,
}

func (p Permission) Has(flag Permission) bool {
	return p&flag == flag
}

// CompilePermissions takes a slice of permission names and returns a combined bitmap.
func CompilePermissions(names []string) (Permission, error) {
	var bitmap Permission
	for _, name := range names {
		value, ok := BuiltInPerms[name]
		if !ok {
			return 0, fmt.Errorf("permission '%s' not found", name)
		}
		bitmap |= value
	}
	return bitmap, nil
}
