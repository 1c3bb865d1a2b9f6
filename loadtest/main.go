package main

import (
	"flag"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sourcegraph/conc"
)

var (
	wsURL     = flag.String("url", "ws://localhost:10000/ws", "relay websocket url")
	pairCount = flag.Int("pairs", 50, "number of participant pairs")
	msgCount  = flag.Int("messages", 20, "messages per participant")
	settle    = flag.Duration("settle", 2*time.Second, "time to wait for deliveries after the last send")
)

func main() {
	flag.Parse()
	log.Printf("🔥 STARTING STRESS TEST: %d Users, %d Messages each...", *pairCount*2, *msgCount)

	var sent, received atomic.Int64
	var wg conc.WaitGroup

	// Pairs: u_0_a talks to u_0_b, u_1_a to u_1_b, ... every client also sees
	// everyone else's traffic since the relay mirrors to all online peers.
	for i := 0; i < *pairCount; i++ {
		for _, side := range []string{"a", "b"} {
			name := fmt.Sprintf("u_%d_%s", i, side)
			wg.Go(func() {
				spamChat(name, &sent, &received)
			})
		}
	}

	wg.Wait()
	log.Printf("✅ LOAD TEST COMPLETE: sent=%d received=%d", sent.Load(), received.Load())
}

func spamChat(name string, sent, received *atomic.Int64) {
	conn, _, err := websocket.DefaultDialer.Dial(*wsURL, nil)
	if err != nil {
		log.Printf("❌ WS Connect Fail [%s]: %v", name, err)
		return
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(name)); err != nil {
		log.Printf("❌ Name Declaration Fail [%s]: %v", name, err)
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			received.Add(1)
		}
	}()

	for i := 0; i < *msgCount; i++ {
		msg := fmt.Sprintf("LoadTest Msg %d from %s", i, name)
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			log.Printf("❌ Send Fail [%s]: %v", name, err)
			break
		}
		sent.Add(1)
		// Small sleep to prevent instant localhost bottleneck (simulate real network)
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(*settle)
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()
	<-done
	log.Printf("✅ %s finished sending %d msgs", name, *msgCount)
}
