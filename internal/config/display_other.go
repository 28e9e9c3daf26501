//go:build !windows

package config

func DisplayScale() float64 {
	return 1.0
}

func SetDPIAware() error {
	return nil
}
