package config

import (
	"fmt"

	"github.com/a-essam23/syncboard/pkg/state"
)

// DefaultPermissionSet compiles DefaultPermissions into a bitmap. An empty
// list grants read and write.
func (a AuthConfig) DefaultPermissionSet() (state.Permission, error) {
	if len(a.DefaultPermissions) == 0 {
		return state.PermDefault, nil
	}
	perms, err := state.CompilePermissions(a.DefaultPermissions)
	if err != nil {
		return 0, fmt.Errorf("server.auth.defaultPermissions: %w", err)
	}
	return perms, nil
}
