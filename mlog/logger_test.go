package mlog

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf, InfoLevel)
	l.Infof("udp listen at %s:%d", "0.0.0.0", 8000)
	l.Debugf("filtered %d", 1)
	l.Warn("buffer", " full")

	out := buf.String()
	require.Contains(t, out, "[info] udp listen at 0.0.0.0:8000")
	require.Contains(t, out, "[warn] buffer full")
	require.NotContains(t, out, "filtered")
}

func TestWriterLoggerLevelAndFatal(t *testing.T) {
	var buf bytes.Buffer
	l := newWriterLogger(&buf, ErrorLevel)
	exitCode := -1
	l.exit = func(code int) { exitCode = code }

	l.Info("hidden")
	l.SetLevel(DebugLevel)
	l.Debugf("resolution=%dms", 10)
	l.Fatalf("udp listener: %s", "SOCKET_READ")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "[debug] resolution=10ms")
	require.Contains(t, out, "[fatal] udp listener: SOCKET_READ")
	require.Equal(t, 1, exitCode)
}

func TestDefaultForwarder(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewWriterLogger(&buf, TraceLevel))
	defer SetLogger(nil)

	Default().Tracef("tick %d", 3)
	Default().Error("quit")
	require.Contains(t, buf.String(), "[trace] tick 3")
	require.Contains(t, buf.String(), "[error] quit")

	SetLogger(nil)
	Default().Info("dropped") // 没有logger时不panic
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, DebugLevel, ParseLevel("DEBUG"))
	require.Equal(t, TraceLevel, ParseLevel("trace"))
	require.Equal(t, InfoLevel, ParseLevel("unknown"))
}

func TestFileLogger(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	l, err := newDefaultLogger(dir, "evcore", DebugLevel, false)
	require.NoError(t, err)
	l.Start(ctx, wg)

	l.Infof("hourglass %s started", "stats")
	l.Tracef("never written")
	cancel()
	wg.Wait()

	data, err := os.ReadFile(filepath.Join(dir, "evcore.log"))
	require.NoError(t, err)
	require.True(t, strings.Contains(string(data), "[info] hourglass stats started"))
	require.False(t, strings.Contains(string(data), "never written"))
}
