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

// Command collector is a minimal demonstration of wiring netflow.Decoder up
// to a live UDP listener: bind a socket, decode every datagram that
// arrives, and log the result. It is not meant to be a production
// collector; see SPEC_FULL.md for the scope this package actually covers.
package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/netip"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	netflow "github.com/mikemiles-dev/netflow-parser"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	bindAddr := ":2055"
	if len(os.Args) > 1 {
		bindAddr = os.Args[1]
	}

	netflow.SetLogger(logr.New(stderrLogSink{}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 2)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Println("received shutdown signal, stopping collector")
		cancel()
	}()

	go func() {
		log.Println("serving /metrics on :9090")
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(":9090", nil); err != nil {
			log.Println("metrics server stopped:", err)
		}
	}()

	listener := netflow.NewUDPListener(bindAddr)
	decoder := netflow.NewDecoder(netflow.DecoderOptions{
		OnTemplateEvent: func(info netflow.TemplateEventInfo) {
			log.Printf("template event: %s scope=%s id=%d", info.Event, info.Scope, info.TemplateID)
		},
	})

	go func() {
		if err := listener.Listen(ctx); err != nil {
			log.Println("listener stopped:", err)
		}
	}()

	log.Printf("listening for NetFlow/IPFIX on %s", bindAddr)
	for {
		select {
		case pkt, ok := <-listener.Messages():
			if !ok {
				return
			}
			source := addrToNetip(pkt.From)
			decoded, err := decoder.Parse(pkt.Data, source)
			if err != nil {
				log.Println(fmt.Errorf("failed to decode packet from %s: %w", source, err))
				continue
			}
			log.Printf("decoded %s packet from %s with %d records", decoded.Version, source, len(decoded.AllRecords()))
		case <-ctx.Done():
			return
		}
	}
}

func addrToNetip(addr net.Addr) netip.Addr {
	udpAddr, ok := addr.(*net.UDPAddr)
	if !ok {
		return netip.Addr{}
	}
	a, ok := netip.AddrFromSlice(udpAddr.IP)
	if !ok {
		return netip.Addr{}
	}
	return a.Unmap()
}

// stderrLogSink is the smallest possible logr.LogSink: format and print,
// no level filtering, no structured fields beyond what fmt.Sprint gives us.
type stderrLogSink struct {
	name string
}

var _ logr.LogSink = stderrLogSink{}

func (stderrLogSink) Init(logr.RuntimeInfo) {}

func (s stderrLogSink) Enabled(int) bool { return true }

func (s stderrLogSink) Info(_ int, msg string, keysAndValues ...interface{}) {
	log.Println(append([]interface{}{s.name, msg}, keysAndValues...)...)
}

func (s stderrLogSink) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Println(append([]interface{}{s.name, msg, "error", err}, keysAndValues...)...)
}

func (s stderrLogSink) WithName(name string) logr.LogSink {
	s.name = s.name + "." + name
	return s
}

func (s stderrLogSink) WithValues(keysAndValues ...interface{}) logr.LogSink {
	return s
}
