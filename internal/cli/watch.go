package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var token string

	watchCmd := &cobra.Command{
		Use:   "watch <room-id>",
		Short: "Stream a room's events",
		Long: `watch connects to the server's WebSocket endpoint, rejoins the room
with the given reconnection token and prints every event as it arrives.
Interrupt with Ctrl-C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				return fmt.Errorf("--token is required to rejoin the room")
			}
			return runWatch(args[0], token)
		},
	}

	watchCmd.Flags().StringVar(&token, "token", "", "Reconnection token for a slot in the room")
	return watchCmd
}

func runWatch(roomID, token string) error {
	wsURL, err := websocketURL(cfg.ServerURL)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	join := map[string]any{
		"event": "join_room",
		"data":  map[string]any{"room_id": roomID, "token": token},
	}
	if err := conn.WriteJSON(join); err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		conn.Close()
	}()

	out := NewOutput(cfg.Output)
	for {
		var env struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := conn.ReadJSON(&env); err != nil {
			// Normal exit path after Ctrl-C or server shutdown
			return nil
		}

		if cfg.Output == "json" {
			out.Print(env)
			continue
		}
		fmt.Printf("[%s] %s\n", env.Event, string(env.Data))
	}
}

// websocketURL converts the configured HTTP server URL to the ws endpoint
func websocketURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String(), nil
}
