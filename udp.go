/*
Copyright 2023 Alexander Bartolomey (github@alexanderbartolomey.de)

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package netflow

import (
	"context"
	"errors"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

var (
	// UDPPacketBufferSize bounds how much of each datagram is read. NetFlow
	// v9/IPFIX packets are bounded by the 16-bit flowset length fields, but
	// real exporters virtually never approach that; 1500 covers a
	// unfragmented Ethernet MTU, which is what well-behaved exporters target
	// to avoid IP fragmentation loss.
	UDPPacketBufferSize int = 1500

	// UDPChannelBufferSize bounds how many received-but-undecoded packets
	// are queued in-process, trading memory for resilience to bursts.
	UDPChannelBufferSize int = 64
)

// UDPListener receives NetFlow/IPFIX datagrams on a UDP socket and hands
// each one, copied out of the read buffer, to a channel for a consumer to
// decode at its own pace.
type UDPListener struct {
	bindAddr string
	packetCh chan UDPPacket

	addr     *net.UDPAddr
	listener net.PacketConn
}

// UDPPacket pairs a received datagram with the address it arrived from, so
// a consumer can build the right ScopeKey for v9/IPFIX decoding.
type UDPPacket struct {
	Data []byte
	From net.Addr
}

func NewUDPListener(bindAddr string) *UDPListener {
	return &UDPListener{
		bindAddr: bindAddr,
		packetCh: make(chan UDPPacket, UDPChannelBufferSize),
	}
}

// Listen binds the socket (with SO_REUSEADDR/SO_REUSEPORT so a replacement
// process can rebind without waiting out TIME_WAIT) and reads until ctx is
// canceled.
func (l *UDPListener) Listen(ctx context.Context) (err error) {
	logger := FromContext(ctx)
	defer close(l.packetCh)

	l.addr, err = net.ResolveUDPAddr("udp", l.bindAddr)
	if err != nil {
		logger.Error(err, "failed to resolve UDP address", "addr", l.bindAddr)
		return err
	}
	listenConfig := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var sockErr error
			controlErr := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
				if sockErr != nil {
					return
				}
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
			})
			if controlErr != nil {
				return controlErr
			}
			return sockErr
		},
	}
	l.listener, err = listenConfig.ListenPacket(ctx, "udp", l.bindAddr)
	if err != nil {
		logger.Error(err, "failed to bind udp listener", "addr", l.bindAddr)
		return err
	}
	defer l.listener.Close()

	var readErr error
	go func() {
		buffer := make([]byte, UDPPacketBufferSize)
		for {
			n, from, err := l.listener.ReadFrom(buffer)
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				UDPErrorsTotal.Inc()
				readErr = err
				logger.Error(err, "failed to read from UDP socket")
				return
			}
			UDPPacketsTotal.Inc()
			UDPPacketBytes.Add(float64(n))

			packet := make([]byte, n)
			copy(packet, buffer[:n])
			l.packetCh <- UDPPacket{Data: packet, From: from}
		}
	}()

	logger.Info("started UDP listener", "addr", l.bindAddr)
	<-ctx.Done()
	logger.Info("shutting down UDP listener", "addr", l.bindAddr)

	return readErr
}

// Messages exposes the channel of received datagrams.
func (l *UDPListener) Messages() <-chan UDPPacket {
	return l.packetCh
}
