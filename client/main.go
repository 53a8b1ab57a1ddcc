// A small interactive client for poking at the server by hand.
//
// Commands are "event {json payload}", e.g.:
//
//	try_create_room {"room":"trivia","code":""}
//	search_pages {"element":"start_article","query":"Go (programming language)"}
//	try_start_game {}
//	game_mode_event {"event":"navpage","page_id":"Gopher"}
package main

import (
	"bufio"
	"encoding/json"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

type packet struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func send(c *websocket.Conn, event, payload string) error {
	if payload == "" {
		payload = "{}"
	}
	return c.WriteJSON(packet{Event: event, Data: json.RawMessage(payload)})
}

func main() {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: "localhost:8080", Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			var p packet
			if err := c.ReadJSON(&p); err != nil {
				log.Println("Read error:", err)
				return
			}
			log.Printf("<- RECV %s: %s", p.Event, string(p.Data))
		}
	}()

	go func() {
		<-interrupt
		log.Println("Interrupt received, closing connection.")
		err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		if err != nil {
			log.Println("Write close error:", err)
		}
		select {
		case <-done:
		case <-time.After(time.Second):
		}
		os.Exit(0)
	}()

	log.Println("Client started. Enter: <event> <json payload>")

	reader := bufio.NewReader(os.Stdin)
	for {
		text, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		event, payload, _ := strings.Cut(text, " ")
		if err := send(c, event, payload); err != nil {
			log.Println("Write error:", err)
			return
		}
		log.Printf("-> SENT %s", event)
	}
}
