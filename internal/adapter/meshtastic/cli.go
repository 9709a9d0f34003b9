// Package meshtastic drives a Meshtastic node through the official
// command-line client.
//
// The relay deliberately shells out instead of speaking the radio's
// serial or TCP protocol itself: the CLI owns device discovery, framing,
// and firmware quirks, and is what operators already use to provision
// the node. One invocation per message keeps the failure surface small.
package meshtastic

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const (
	cliName = "meshtastic"

	// probeOK is the first output line of a healthy `meshtastic --info`.
	probeOK = "Connected to radio"
)

// runCommand abstracts process execution so tests can stub the CLI.
type runCommand func(ctx context.Context, name string, args ...string) ([]byte, error)

func runReal(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return out, fmt.Errorf("%v: %s", err, bytes.TrimSpace(exitErr.Stderr))
		}
	}
	return out, err
}

// CLI sends text messages over the mesh. It implements dispatch.Transport.
type CLI struct {
	host    string
	timeout time.Duration
	run     runCommand
	logger  *slog.Logger
}

// NewCLI creates a CLI transport. An empty host targets the node attached
// over serial; otherwise the CLI connects to the node's TCP interface at
// host.
func NewCLI(host string, timeout time.Duration, logger *slog.Logger) *CLI {
	return &CLI{
		host:    host,
		timeout: timeout,
		run:     runReal,
		logger:  logger,
	}
}

// Probe verifies the node is reachable before the relay starts serving.
// The CLI prints "Connected to radio" as its first line on success; any
// "Error" in the output or an empty response means the node is absent or
// wedged.
func (c *CLI) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var args []string
	if c.host != "" {
		args = append(args, "--host", c.host)
	}
	args = append(args, "--info")

	out, err := c.run(ctx, cliName, args...)
	if err != nil {
		return fmt.Errorf("run %s --info: %w", cliName, err)
	}

	text := strings.TrimSpace(string(out))
	if text == "" {
		return errors.New("radio probe produced no output")
	}
	if strings.Contains(text, "Error") {
		return fmt.Errorf("radio probe reported an error: %s", firstLine(text))
	}
	if first := firstLine(text); first != probeOK {
		return fmt.Errorf("unexpected radio probe output: %q", first)
	}

	c.logger.Info("radio node reachable", "host", c.hostLabel())
	return nil
}

// Send broadcasts text on the given channel index.
func (c *CLI) Send(ctx context.Context, channel int, text string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := []string{"--ch-index", strconv.Itoa(channel), "--sendtext", text}
	if c.host != "" {
		args = append(args, "--host", c.host)
	}

	if _, err := c.run(ctx, cliName, args...); err != nil {
		return fmt.Errorf("send on channel %d: %w", channel, err)
	}

	c.logger.Debug("message sent", "channel", channel, "bytes", len(text))
	return nil
}

func (c *CLI) hostLabel() string {
	if c.host == "" {
		return "serial"
	}
	return c.host
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
