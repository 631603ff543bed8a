package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"changewatch/internal/config"
	"changewatch/internal/logger"

	"github.com/gofrs/flock"
	"go.bug.st/serial"
)

// ErrDeviceBusy is returned when another process holds the device lock past the timeout.
var ErrDeviceBusy = errors.New("serial device busy")

// Port is the subset of serial.Port the notifier needs.
type Port interface {
	io.WriteCloser
	SetReadTimeout(t time.Duration) error
}

// OpenFunc opens a serial port.
type OpenFunc func(name string, mode *serial.Mode) (Port, error)

func openSerial(name string, mode *serial.Mode) (Port, error) {
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, err
	}
	return port, nil
}

// Serial writes one newline-terminated token per verdict. The port is opened and
// closed on every call; an advisory lock keeps concurrent runs from interleaving.
type Serial struct {
	portName string
	baud     int
	timeout  time.Duration
	lock     *flock.Flock
	open     OpenFunc
	logger   *logger.Logger
}

func NewSerial(cfg *config.Config, logger *logger.Logger) *Serial {
	timeout := time.Duration(cfg.SerialTimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = time.Second
	}

	return &Serial{
		portName: cfg.SerialPort,
		baud:     cfg.SerialBaud,
		timeout:  timeout,
		lock:     flock.New(lockPath(cfg.SerialPort)),
		open:     openSerial,
		logger:   logger,
	}
}

// WithOpener replaces the function used to open the port.
func (s *Serial) WithOpener(open OpenFunc) *Serial {
	s.open = open
	return s
}

// lockPath maps a device path to a lock file in the temp directory.
func lockPath(portName string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(portName)
	return filepath.Join(os.TempDir(), "changewatch"+name+".lock")
}

func (s *Serial) Notify(ctx context.Context, on bool) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	locked, err := s.lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil || !locked {
		return fmt.Errorf("%s: %w", s.portName, ErrDeviceBusy)
	}
	defer s.lock.Unlock()

	port, err := s.open(s.portName, &serial.Mode{BaudRate: s.baud})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", s.portName, err)
	}
	defer port.Close()

	if err := port.SetReadTimeout(s.timeout); err != nil {
		return fmt.Errorf("failed to set read timeout on %s: %w", s.portName, err)
	}

	token := Token(on)
	done := make(chan error, 1)
	go func() {
		_, err := port.Write([]byte(token + "\n"))
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to write to %s: %w", s.portName, err)
		}
	case <-ctx.Done():
		return fmt.Errorf("write to %s: %w", s.portName, ctx.Err())
	}

	if s.logger != nil {
		s.logger.Info("Sent %s to %s", token, s.portName)
	}
	return nil
}
