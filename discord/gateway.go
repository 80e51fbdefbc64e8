package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/grafeasgroup/buttercup/telemetry"
)

// DefaultGatewayURL is the Discord gateway websocket endpoint.
const DefaultGatewayURL = "wss://gateway.discord.gg/?v=10&encoding=json"

// Gateway intents. Interactions are always delivered; reactions require the
// guild and DM reaction intents.
const (
	IntentGuildMessageReactions  = 1 << 10
	IntentDirectMessageReactions = 1 << 13
)

// Gateway opcodes.
const (
	opDispatch       = 0
	opHeartbeat      = 1
	opIdentify       = 2
	opReconnect      = 7
	opInvalidSession = 9
	opHello          = 10
	opHeartbeatACK   = 11
)

// User is a Discord user.
type User struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
}

// Member is a guild member wrapping a user with an optional nickname.
type Member struct {
	Nick string `json:"nick"`
	User User   `json:"user"`
}

// InteractionOption is one option value of an invoked slash command.
type InteractionOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// InteractionData is the command payload of an interaction.
type InteractionData struct {
	Name    string              `json:"name"`
	Options []InteractionOption `json:"options"`
}

// Interaction is an INTERACTION_CREATE event (slash command invocation).
type Interaction struct {
	ID        string          `json:"id"`
	Token     string          `json:"token"`
	Type      int             `json:"type"`
	ChannelID string          `json:"channel_id"`
	Data      InteractionData `json:"data"`
	Member    *Member         `json:"member"`
	User      *User           `json:"user"`
}

// AuthorID returns the invoking user's id, whether the command came from a
// guild (member) or a DM (user).
func (i *Interaction) AuthorID() string {
	if i.Member != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// AuthorDisplayName returns the name shown in chat for the invoking user:
// guild nickname, then global name, then username.
func (i *Interaction) AuthorDisplayName() string {
	if i.Member != nil {
		if i.Member.Nick != "" {
			return i.Member.Nick
		}
		if i.Member.User.GlobalName != "" {
			return i.Member.User.GlobalName
		}
		return i.Member.User.Username
	}
	if i.User != nil {
		if i.User.GlobalName != "" {
			return i.User.GlobalName
		}
		return i.User.Username
	}
	return ""
}

// Option returns the string value of the named command option.
func (i *Interaction) Option(name string) string {
	for _, opt := range i.Data.Options {
		if opt.Name == name {
			return opt.Value
		}
	}
	return ""
}

// ReactionAdd is a MESSAGE_REACTION_ADD event.
type ReactionAdd struct {
	UserID    string `json:"user_id"`
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
	Emoji     struct {
		Name string `json:"name"`
	} `json:"emoji"`
}

// Gateway maintains a websocket connection to Discord and dispatches the
// events the bot cares about. Handlers run on their own goroutines so a slow
// command cannot stall heartbeats.
type Gateway struct {
	Token   string
	Intents int
	URL     string

	OnReady       func()
	OnInteraction func(Interaction)
	OnReactionAdd func(ReactionAdd)

	connected atomic.Bool

	writeMu sync.Mutex
	conn    *websocket.Conn
}

type gatewayPayload struct {
	Op int             `json:"op"`
	D  json.RawMessage `json:"d,omitempty"`
	S  int64           `json:"s,omitempty"`
	T  string          `json:"t,omitempty"`
}

// Connected reports whether a gateway session is currently established.
func (g *Gateway) Connected() bool {
	return g.connected.Load()
}

// Run connects to the gateway and keeps the session alive until the context
// is cancelled, reconnecting with a short backoff after any failure.
func (g *Gateway) Run(ctx context.Context) error {
	backoff := 2 * time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		sessionStart := time.Now()
		err := g.runSession(ctx)
		g.connected.Store(false)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if time.Since(sessionStart) > time.Minute {
			// The session was healthy for a while; start backoff over.
			backoff = 2 * time.Second
		}
		slog.Warn("gateway session ended; reconnecting", slog.Any("err", err), slog.Duration("backoff", backoff))
		if telemetry.GatewayReconnects != nil {
			telemetry.GatewayReconnects.Inc()
		}
		telemetry.UpdateGatewayGauge(false)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

// runSession performs one full gateway session: hello, identify, heartbeat
// loop and event dispatch. It returns when the connection drops or Discord
// asks for a reconnect.
func (g *Gateway) runSession(ctx context.Context) error {
	gwURL := g.URL
	if gwURL == "" {
		gwURL = DefaultGatewayURL
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, gwURL, nil)
	if err != nil {
		return fmt.Errorf("gateway dial: %w", err)
	}
	g.conn = conn
	defer func() {
		if err := conn.Close(); err != nil {
			slog.Debug("gateway close", slog.Any("err", err))
		}
	}()

	// Hello carries the heartbeat interval.
	var hello gatewayPayload
	if err := conn.ReadJSON(&hello); err != nil {
		return fmt.Errorf("gateway hello: %w", err)
	}
	if hello.Op != opHello {
		return fmt.Errorf("gateway: expected hello, got op %d", hello.Op)
	}
	var helloData struct {
		HeartbeatInterval int `json:"heartbeat_interval"`
	}
	if err := json.Unmarshal(hello.D, &helloData); err != nil {
		return fmt.Errorf("gateway hello decode: %w", err)
	}

	if err := g.identify(); err != nil {
		return err
	}

	var lastSeq atomic.Int64
	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	heartbeatErr := make(chan error, 1)
	go func() {
		ticker := time.NewTicker(time.Duration(helloData.HeartbeatInterval) * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-sessionCtx.Done():
				return
			case <-ticker.C:
				if err := g.writeHeartbeat(lastSeq.Load()); err != nil {
					heartbeatErr <- err
					return
				}
			}
		}
	}()

	for {
		select {
		case err := <-heartbeatErr:
			return fmt.Errorf("gateway heartbeat: %w", err)
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		var payload gatewayPayload
		if err := conn.ReadJSON(&payload); err != nil {
			return fmt.Errorf("gateway read: %w", err)
		}
		if payload.S != 0 {
			lastSeq.Store(payload.S)
		}

		switch payload.Op {
		case opDispatch:
			g.dispatch(payload)
		case opHeartbeat:
			if err := g.writeHeartbeat(lastSeq.Load()); err != nil {
				return fmt.Errorf("gateway heartbeat: %w", err)
			}
		case opReconnect, opInvalidSession:
			return fmt.Errorf("gateway: server requested reconnect (op %d)", payload.Op)
		case opHeartbeatACK:
			// nothing to do
		}
	}
}

func (g *Gateway) dispatch(payload gatewayPayload) {
	switch payload.T {
	case "READY":
		g.connected.Store(true)
		slog.Info("gateway ready")
		if g.OnReady != nil {
			go g.OnReady()
		}
	case "INTERACTION_CREATE":
		var interaction Interaction
		if err := json.Unmarshal(payload.D, &interaction); err != nil {
			slog.Error("failed to decode interaction", slog.Any("err", err))
			return
		}
		if g.OnInteraction != nil {
			go g.OnInteraction(interaction)
		}
	case "MESSAGE_REACTION_ADD":
		var reaction ReactionAdd
		if err := json.Unmarshal(payload.D, &reaction); err != nil {
			slog.Error("failed to decode reaction", slog.Any("err", err))
			return
		}
		if g.OnReactionAdd != nil {
			go g.OnReactionAdd(reaction)
		}
	}
}

func (g *Gateway) identify() error {
	identify := map[string]any{
		"op": opIdentify,
		"d": map[string]any{
			"token":   g.Token,
			"intents": g.Intents,
			"properties": map[string]string{
				"os":      "linux",
				"browser": "buttercup",
				"device":  "buttercup",
			},
		},
	}
	return g.writeJSON(identify)
}

func (g *Gateway) writeHeartbeat(seq int64) error {
	return g.writeJSON(map[string]any{"op": opHeartbeat, "d": seq})
}

// writeJSON serializes concurrent writers (heartbeat vs. protocol replies);
// gorilla/websocket allows only one writer at a time.
func (g *Gateway) writeJSON(v any) error {
	g.writeMu.Lock()
	defer g.writeMu.Unlock()
	return g.conn.WriteJSON(v)
}
