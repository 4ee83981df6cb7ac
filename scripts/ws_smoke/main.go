package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/wirepush/internal/core"
	"github.com/vovakirdan/wirepush/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:2120/ws/demo", "WebSocket address including app id")
	secret := flag.String("secret", "", "app secret used to sign the subscription")
	channel := flag.String("channel", "presence-lobby", "channel to subscribe to")
	user := flag.String("user", "tester", "userId announced on presence channels")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	read := func() (proto.Inbound, error) {
		var frame proto.Inbound
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			return frame, fmt.Errorf("read: %w", err)
		}
		fmt.Printf("<- %s", frame.Event)
		for _, a := range frame.Args {
			fmt.Printf(" %s", a)
		}
		fmt.Println()
		return frame, nil
	}

	hello, err := read()
	if err != nil {
		return err
	}
	if hello.Event != core.EventConnectionEstablished {
		return fmt.Errorf("unexpected first frame %q", hello.Event)
	}
	connID := hello.String(0)

	typ, err := core.Classify(*channel)
	if err != nil {
		return err
	}
	var data, authKey string
	if typ == core.ChannelPresence {
		payload, marshalErr := json.Marshal(map[string]string{"userId": *user})
		if marshalErr != nil {
			return fmt.Errorf("marshal presence payload: %w", marshalErr)
		}
		data = string(payload)
	}
	if typ.Authenticated() {
		authKey = core.Sign(*secret, connID, *channel, typ, data)
	}

	if err := wsjson.Write(ctx, conn, proto.Outbound{
		Event: core.EventSubscribe,
		Args:  []any{*channel, authKey, data},
	}); err != nil {
		return fmt.Errorf("send subscribe: %w", err)
	}

	if typ != core.ChannelPresence {
		// public and private subscriptions are silent; a failed private one closes the socket
		return nil
	}

	for {
		frame, err := read()
		if err != nil {
			return err
		}
		switch frame.Event {
		case core.EventPresenceSubscribed:
			var members []core.Member
			if err := json.Unmarshal(frame.Raw(1), &members); err != nil {
				return fmt.Errorf("decode roster: %w", err)
			}
			for _, m := range members {
				fmt.Printf("member: %s (%s)\n", m.UserID, m.ConnectionID)
			}
			return nil
		case core.EventSubscriptionError:
			return fmt.Errorf("subscription refused: %s", frame.Raw(1))
		default:
			// keep reading until the roster arrives
		}
	}
}
