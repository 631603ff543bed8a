package handler

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strconv"

	"changewatch/internal/config"
	"changewatch/internal/logger"
	"changewatch/internal/service"
)

var (
	jpegHeader = []byte{0xFF, 0xD8}
	jpegFooter = []byte{0xFF, 0xD9}
)

const maxDatagramSize = 2048

// frameAssembler rebuilds JPEG frames from datagrams, one buffer per sender.
// A datagram starting with the JPEG header starts a new frame; one ending with
// the footer completes it.
type frameAssembler struct {
	buffers  map[string]*bytes.Buffer
	maxBytes int64
}

func newFrameAssembler(maxBytes int64) *frameAssembler {
	return &frameAssembler{
		buffers:  make(map[string]*bytes.Buffer),
		maxBytes: maxBytes,
	}
}

// add appends a datagram from source and returns a complete frame, if any.
func (a *frameAssembler) add(source string, data []byte) []byte {
	buf, ok := a.buffers[source]
	if !ok {
		buf = new(bytes.Buffer)
		a.buffers[source] = buf
	}

	if bytes.HasPrefix(data, jpegHeader) {
		buf.Reset()
	} else if buf.Len() == 0 {
		// Middle of a frame whose start was lost.
		return nil
	}
	buf.Write(data)

	if a.maxBytes > 0 && int64(buf.Len()) > a.maxBytes {
		buf.Reset()
		return nil
	}

	if !bytes.HasSuffix(data, jpegFooter) {
		return nil
	}

	frame := make([]byte, buf.Len())
	copy(frame, buf.Bytes())
	buf.Reset()
	return frame
}

// UDPCameraHandler listens for JPEG frames split over UDP datagrams and hands
// every complete frame to the manager like an HTTP upload. It returns when ctx
// is done.
func UDPCameraHandler(ctx context.Context, manager *service.Manager, logger *logger.Logger, config *config.Config) {
	port := strconv.Itoa(config.UDPPort)

	addr, err := net.ResolveUDPAddr("udp", ":"+port)
	if err != nil {
		logger.Error("Failed to resolve UDP address: %v", err)
		return
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		logger.Error("Failed to listen on UDP port %s: %v", port, err)
		return
	}
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	logger.Info("UDP camera handler started on port %s", port)
	buffer := make([]byte, maxDatagramSize)
	assembler := newFrameAssembler(config.MaxUploadBytes)

	for {
		n, remoteAddr, err := conn.ReadFromUDP(buffer)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				logger.Info("UDP camera handler stopped")
				return
			}
			logger.Error("Error reading UDP packet: %v", err)
			continue
		}

		frame := assembler.add(remoteAddr.IP.String(), buffer[:n])
		if frame == nil {
			continue
		}

		if _, err := manager.HandleUpload(frame); err != nil {
			logger.Error("Error saving frame from %s: %v", remoteAddr.IP, err)
		}
	}
}
