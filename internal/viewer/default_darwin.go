//go:build darwin

package viewer

// Default returns the opener for the platform this binary was built for.
func Default() Opener {
	return Darwin()
}
