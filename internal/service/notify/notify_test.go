package notify

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"changewatch/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

type fakePort struct {
	mu          sync.Mutex
	buf         bytes.Buffer
	closed      bool
	readTimeout time.Duration
	block       chan struct{}
}

func (p *fakePort) Write(b []byte) (int, error) {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.Write(b)
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePort) SetReadTimeout(t time.Duration) error {
	p.readTimeout = t
	return nil
}

func testSerial(t *testing.T, port *fakePort, mode **serial.Mode) *Serial {
	t.Helper()
	cfg := &config.Config{
		SerialPort:      "/dev/test-" + t.Name(),
		SerialBaud:      config.DefaultSerialBaud,
		SerialTimeoutMs: 200,
	}
	return NewSerial(cfg, nil).WithOpener(func(name string, m *serial.Mode) (Port, error) {
		if mode != nil {
			*mode = m
		}
		return port, nil
	})
}

func TestToken(t *testing.T) {
	assert.Equal(t, "LED_ON", Token(true))
	assert.Equal(t, "LED_OFF", Token(false))
}

func TestNew_NoPortIsNoop(t *testing.T) {
	n := New(&config.Config{}, nil)
	assert.IsType(t, Noop{}, n)
	assert.NoError(t, n.Notify(context.Background(), true))
}

func TestSerial_WritesTokenAndCloses(t *testing.T) {
	tests := []struct {
		on       bool
		expected string
	}{
		{true, "LED_ON\n"},
		{false, "LED_OFF\n"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			port := &fakePort{}
			var mode *serial.Mode
			s := testSerial(t, port, &mode)

			require.NoError(t, s.Notify(context.Background(), tt.on))

			assert.Equal(t, tt.expected, port.buf.String())
			assert.True(t, port.closed)
			require.NotNil(t, mode)
			assert.Equal(t, 115200, mode.BaudRate)
			assert.Equal(t, 200*time.Millisecond, port.readTimeout)
		})
	}
}

func TestSerial_OpenFailure(t *testing.T) {
	cfg := &config.Config{SerialPort: "/dev/absent", SerialBaud: 115200, SerialTimeoutMs: 100}
	s := NewSerial(cfg, nil).WithOpener(func(string, *serial.Mode) (Port, error) {
		return nil, errors.New("no such device")
	})

	err := s.Notify(context.Background(), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/dev/absent")
}

func TestSerial_WriteTimeout(t *testing.T) {
	port := &fakePort{block: make(chan struct{})}
	defer close(port.block)
	s := testSerial(t, port, nil)

	start := time.Now()
	err := s.Notify(context.Background(), true)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.True(t, port.closed)
}

func TestSerial_SequentialCallsReuseLock(t *testing.T) {
	port := &fakePort{}
	s := testSerial(t, port, nil)

	require.NoError(t, s.Notify(context.Background(), true))
	require.NoError(t, s.Notify(context.Background(), false))
	assert.Equal(t, "LED_ON\nLED_OFF\n", port.buf.String())
}

func TestLockPath(t *testing.T) {
	assert.Equal(t, "changewatch_dev_ttyUSB0.lock", filepath.Base(lockPath("/dev/ttyUSB0")))
	assert.Equal(t, "changewatchCOM3.lock", filepath.Base(lockPath("COM3")))
}
