package main

import (
	"bufio"
	"encoding/json"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Demo client for poking at the gateway by hand. Commands:
//
//	create <repetitions> <phrase...>
//	join <roomId>
//	type <roomId> <text...>
//	submit <roomId> <phrase...>
//	msg <roomId> <text...>

type envelope struct {
	Type    string          `json:"type"`
	Seq     uint64          `json:"seq,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

var seq uint64

func send(c *websocket.Conn, eventType string, withSeq bool, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	ev := envelope{Type: eventType, Payload: data}
	if withSeq {
		ev.Seq = atomic.AddUint64(&seq, 1)
	}
	return c.WriteJSON(&ev)
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
			var ev envelope
			if err := c.ReadJSON(&ev); err != nil {
				log.Println("Read error:", err)
				return
			}
			log.Printf("<- RECV %s: %s", ev.Type, string(ev.Payload))
		}
	}()

	log.Println("Client started. Commands: create, join, type, submit, msg.")

	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		default:
			line, _ := reader.ReadString('\n')
			fields := strings.Fields(strings.TrimSpace(line))
			if len(fields) == 0 {
				continue
			}

			var err error
			switch fields[0] {
			case "create":
				if len(fields) < 3 {
					log.Println("usage: create <repetitions> <phrase...>")
					continue
				}
				err = send(c, "create-room", true, map[string]string{
					"repetitions": fields[1],
					"phrase":      strings.Join(fields[2:], " "),
					"ownerName":   "demo-owner",
					"partnerName": "demo-partner",
				})
			case "join":
				if len(fields) != 2 {
					log.Println("usage: join <roomId>")
					continue
				}
				err = send(c, "join-room", true, map[string]string{"roomId": fields[1]})
			case "type":
				if len(fields) < 3 {
					log.Println("usage: type <roomId> <text...>")
					continue
				}
				err = send(c, "typing", false, map[string]string{
					"roomId": fields[1],
					"text":   strings.Join(fields[2:], " "),
				})
			case "submit":
				if len(fields) < 3 {
					log.Println("usage: submit <roomId> <phrase...>")
					continue
				}
				err = send(c, "submit-phrase", false, map[string]string{
					"roomId": fields[1],
					"phrase": strings.Join(fields[2:], " "),
					"date":   time.Now().Format(time.RFC3339),
				})
			case "msg":
				if len(fields) < 3 {
					log.Println("usage: msg <roomId> <text...>")
					continue
				}
				err = send(c, "punishment-message", false, map[string]string{
					"roomId":  fields[1],
					"message": strings.Join(fields[2:], " "),
				})
			default:
				log.Printf("Unknown command %q", fields[0])
				continue
			}

			if err != nil {
				log.Println("Write error:", err)
				return
			}
			log.Printf("-> SENT: %s", fields[0])
		}
	}
}
