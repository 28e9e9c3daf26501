//go:build windows

package config

import (
	"github.com/lxn/win"
	"golang.org/x/sys/windows"
)

var procSetProcessDPIAware = windows.NewLazySystemDLL("user32.dll").NewProc("SetProcessDPIAware")

// DisplayScale returns the primary display scaling factor, 1.0 means 100%.
func DisplayScale() float64 {
	hDC := win.GetDC(0)
	defer win.ReleaseDC(0, hDC)
	dpiX := win.GetDeviceCaps(hDC, win.LOGPIXELSX)

	return float64(dpiX) / 96.0
}

// SetDPIAware makes capture and cursor coordinates physical pixels.
func SetDPIAware() error {
	if err := procSetProcessDPIAware.Find(); err != nil {
		return err
	}
	r, _, err := procSetProcessDPIAware.Call()
	if r == 0 {
		return err
	}

	return nil
}
