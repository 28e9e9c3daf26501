//go:build !windows

package main

import (
	"bufio"
	"context"
	"os"
)

// listenHotkey sends a trigger every time Enter is pressed on stdin.
func listenHotkey(ctx context.Context, triggers chan<- struct{}) error {
	lines := make(chan struct{})
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- struct{}{}
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-lines:
			if !ok {
				return nil
			}
			select {
			case triggers <- struct{}{}:
			default:
			}
		}
	}
}

const hotkeyName = "Enter"
