//go:build windows

package main

import (
	"context"
	"time"

	"github.com/lxn/win"
)

// listenHotkey sends a trigger every time F11 is pressed.
func listenHotkey(ctx context.Context, triggers chan<- struct{}) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	pressed := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			down := uint16(win.GetAsyncKeyState(win.VK_F11))&0x8000 != 0
			if down && !pressed {
				select {
				case triggers <- struct{}{}:
				default:
				}
			}
			pressed = down
		}
	}
}

const hotkeyName = "F11"
