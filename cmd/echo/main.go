// File: cmd/echo/main.go
// A minimal embedder: serves a static client-root directory and echoes
// every WebSocket text/binary message back to its sender.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/momentics/hioreactor/reactor"
	"github.com/momentics/hioreactor/server"
	"github.com/momentics/hioreactor/wscodec"
)

func main() {
	srv, err := server.New(
		server.WithListenAddr(":9001"),
		server.WithTLSFiles("cert.pem", "key.pem"),
		server.WithClientRoot("./public"),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, "echo: ", err)
		os.Exit(1)
	}

	srv.OnMessage(func(id reactor.StreamID, msg *wscodec.Message) {
		switch msg.Kind {
		case wscodec.KindText:
			_ = srv.Send(id, msg.Text)
		case wscodec.KindBinary:
			_ = srv.SendBinary(id, msg.Data)
		}
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	go func() {
		<-ctx.Done()
		srv.Shutdown()
	}()

	fmt.Println("echo WebSocket server started on", srv.Addr())
	if err := srv.Serve(); err != nil {
		fmt.Fprintln(os.Stderr, "echo: ", err)
		os.Exit(1)
	}
}
