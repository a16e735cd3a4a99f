// Package host detects the platform the process is running on.
package host

import (
	"runtime"
	"sync"

	"github.com/ericfisherdev/keychainquery/internal/domain/model"
)

var detect = sync.OnceValue(func() model.Platform {
	return model.Platform{
		Family:  model.ParseOSFamily(runtime.GOOS),
		Version: osVersion(),
	}
})

// Detect returns the running platform. The result is computed once per
// process.
func Detect() model.Platform {
	return detect()
}
