package host

import "golang.org/x/sys/unix"

// osVersion reads the product version ("14.4.1"), not the Darwin kernel
// release.
func osVersion() string {
	v, err := unix.Sysctl("kern.osproductversion")
	if err != nil {
		return ""
	}
	return v
}
