// touch-listen connects to a touchpiped sample stream and prints every frame.
// Useful for eyeballing what the pipeline actually emits.
package main

import (
	"flag"
	"log"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	var (
		wsURL = flag.String("ws", "ws://127.0.0.1:3080/v1/samples", "touchpiped sample stream URL")
		raw   = flag.Bool("raw", false, "print raw JSON frames without a timestamp prefix")
	)
	flag.Parse()

	u, err := url.Parse(*wsURL)
	if err != nil {
		log.Fatalf("invalid websocket URL: %v", err)
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	d := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	log.Printf("connecting to %s...", u.String())
	conn, _, err := d.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	log.Printf("connected! (press Ctrl+C to exit)")

	// The server pings; answering pongs is handled by the library. Reset the
	// read deadline on every frame so an idle-but-alive stream stays open.
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(5*time.Second))
	})

	frames := make(chan []byte, 16)
	readErr := make(chan error, 1)

	go func() {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			frames <- msg
		}
	}()

	for {
		select {
		case <-sigc:
			log.Printf("shutting down")
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case err := <-readErr:
			log.Fatalf("read error: %v", err)

		case msg := <-frames:
			if *raw {
				os.Stdout.Write(append(msg, '\n'))
			} else {
				log.Printf("%s", msg)
			}
		}
	}
}
