package meshtastic

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner records CLI invocations and plays back canned output.
type fakeRunner struct {
	calls [][]string
	out   []byte
	err   error
}

func (f *fakeRunner) run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.out, f.err
}

func testCLI(host string, runner *fakeRunner) *CLI {
	return &CLI{
		host:    host,
		timeout: time.Second,
		run:     runner.run,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestCLI_Probe_Connected(t *testing.T) {
	runner := &fakeRunner{out: []byte("Connected to radio\nOwner: relay node\nNodes in mesh: 12\n")}
	c := testCLI("", runner)

	require.NoError(t, c.Probe(context.Background()))
	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"meshtastic", "--info"}, runner.calls[0])
}

func TestCLI_Probe_WithHost(t *testing.T) {
	runner := &fakeRunner{out: []byte("Connected to radio\n")}
	c := testCLI("192.168.1.20", runner)

	require.NoError(t, c.Probe(context.Background()))
	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"meshtastic", "--host", "192.168.1.20", "--info"}, runner.calls[0])
}

func TestCLI_Probe_Failures(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		err     error
		wantMsg string
	}{
		{
			name:    "cli not installed",
			err:     errors.New(`exec: "meshtastic": executable file not found in $PATH`),
			wantMsg: "run meshtastic --info",
		},
		{
			name:    "empty output",
			out:     "",
			wantMsg: "no output",
		},
		{
			name:    "whitespace output",
			out:     "  \n\n",
			wantMsg: "no output",
		},
		{
			name:    "error in output",
			out:     "Connected to radio\nError connecting to node\n",
			wantMsg: "reported an error",
		},
		{
			name:    "unexpected first line",
			out:     "Welcome to Meshtastic\nConnected to radio\n",
			wantMsg: "unexpected radio probe output",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{out: []byte(tt.out), err: tt.err}
			err := testCLI("", runner).Probe(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestCLI_Send(t *testing.T) {
	runner := &fakeRunner{}
	c := testCLI("", runner)

	require.NoError(t, c.Send(context.Background(), 4, "🚨missiles"))
	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"meshtastic", "--ch-index", "4", "--sendtext", "🚨missiles"}, runner.calls[0])
}

func TestCLI_Send_WithHost(t *testing.T) {
	runner := &fakeRunner{}
	c := testCLI("10.0.0.5", runner)

	require.NoError(t, c.Send(context.Background(), 0, "🚨general"))
	require.Len(t, runner.calls, 1)
	assert.Equal(t,
		[]string{"meshtastic", "--ch-index", "0", "--sendtext", "🚨general", "--host", "10.0.0.5"},
		runner.calls[0])
}

func TestCLI_Send_Failure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("exit status 1: Timed out waiting for connection")}
	err := testCLI("", runner).Send(context.Background(), 2, "🚨missiles")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "send on channel 2")
	assert.Contains(t, err.Error(), "Timed out")
}
