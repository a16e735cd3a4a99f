//go:build !darwin && !linux && !windows

package host

func osVersion() string { return "" }
