package browser

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const (
	// xvfbScreen is wide enough for the board and the palette bar to be
	// laid out without scrolling.
	xvfbScreen = "1920x1080x24"
	// xvfbReadyTimeout bounds the wait for the display socket.
	xvfbReadyTimeout = 5 * time.Second
)

// displaySocket returns the X11 socket path for a display such as ":99".
func displaySocket(display string) (string, error) {
	num, _, _ := strings.Cut(strings.TrimPrefix(display, ":"), ".")
	if _, err := strconv.Atoi(num); err != nil || !strings.HasPrefix(display, ":") {
		return "", fmt.Errorf("invalid display %q", display)
	}
	return "/tmp/.X11-unix/X" + num, nil
}

// startXvfb brings up the virtual display headful Chrome renders to. A
// display whose socket already exists is reused as is.
func (m *Manager) startXvfb() error {
	if m.xvfb != nil {
		return nil
	}
	display := m.cfg.XvfbDisplay
	sock, err := displaySocket(display)
	if err != nil {
		return err
	}
	if _, err := os.Stat(sock); err == nil {
		m.cfg.Logger.Info("browser: reusing display", "display", display)
		return nil
	}

	cmd := exec.Command("Xvfb", display, "-screen", "0", xvfbScreen, "-ac", "-nolisten", "tcp")
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start xvfb: %w", err)
	}
	m.xvfb = cmd

	deadline := time.Now().Add(xvfbReadyTimeout)
	for {
		if _, err := os.Stat(sock); err == nil {
			break
		}
		if time.Now().After(deadline) {
			m.stopXvfb()
			return fmt.Errorf("xvfb: display %s not ready after %s", display, xvfbReadyTimeout)
		}
		time.Sleep(50 * time.Millisecond)
	}

	m.cfg.Logger.Info("browser: xvfb started", "display", display, "screen", xvfbScreen, "pid", cmd.Process.Pid)
	return nil
}

// stopXvfb kills the Xvfb process this manager started.
func (m *Manager) stopXvfb() {
	if m.xvfb == nil {
		return
	}
	if m.xvfb.Process != nil {
		m.xvfb.Process.Kill()
		m.xvfb.Wait()
	}
	m.cfg.Logger.Info("browser: xvfb stopped")
	m.xvfb = nil
}
