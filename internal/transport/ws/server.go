package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"hexfront.gg/internal/protocol"
	"hexfront.gg/internal/sim/game"
	"hexfront.gg/internal/sim/multigame"
)

// Server upgrades player connections and bridges them onto a game's
// channels: HELLO resolves a seat, INTENTs flow to the game inbox, and the
// per-tick VIEWs come back on a buffered out channel. A missed read deadline
// counts as a lost heartbeat and detaches the player, which may auto-pause
// the game on their budget.
type Server struct {
	games *multigame.Manager
	log   *log.Logger

	heartbeatTimeout time.Duration

	upgrader websocket.Upgrader
}

func NewServer(games *multigame.Manager, logger *log.Logger, heartbeatTimeout time.Duration) *Server {
	if heartbeatTimeout <= 0 {
		heartbeatTimeout = 15 * time.Second
	}
	return &Server{
		games:            games,
		log:              logger,
		heartbeatTimeout: heartbeatTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		g, playerID, out := s.handshake(conn)
		if playerID == "" {
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop. Any inbound frame, intent or not, counts as a
		// heartbeat. Once the game's scheduler exits nothing drains the
		// inbox, so every send races against Done.
	reader:
		for {
			_ = conn.SetReadDeadline(time.Now().Add(s.heartbeatTimeout))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil || base.Type != protocol.TypeIntent {
				continue
			}
			var intent protocol.IntentMsg
			if err := json.Unmarshal(msg, &intent); err != nil {
				continue
			}
			if intent.ProtocolVersion != protocol.Version {
				continue
			}
			select {
			case g.Inbox() <- game.IntentEnvelope{PlayerID: playerID, Intent: intent}:
			case <-g.Done():
				cancel()
				break reader
			}
		}

		select {
		case g.Leave() <- playerID:
		case <-g.Done():
		}
	}
}

// handshake expects a HELLO, resolves the target game, and attaches the
// connection to a player seat by resume token or name.
func (s *Server) handshake(conn *websocket.Conn) (*game.Game, string, chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closePolicy(conn, "expected HELLO")
		return nil, "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return nil, "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		closePolicy(conn, "bad protocol_version")
		return nil, "", nil
	}

	g, err := s.games.Resolve(hello.GameID)
	if err != nil {
		closePolicy(conn, err.Error())
		return nil, "", nil
	}

	token := ""
	if hello.Auth != nil {
		token = strings.TrimSpace(hello.Auth.Token)
	}
	if token == "" && hello.PlayerName == "" {
		closePolicy(conn, "player_name or resume token required")
		return nil, "", nil
	}

	out := make(chan []byte, 8)
	respCh := make(chan game.AttachResponse, 1)
	select {
	case g.Attach() <- game.AttachRequest{
		Token:      token,
		PlayerName: hello.PlayerName,
		Out:        out,
		Resp:       respCh,
	}:
	case <-g.Done():
		closePolicy(conn, "game is over")
		return nil, "", nil
	}
	var resp game.AttachResponse
	select {
	case resp = <-respCh:
	case <-g.Done():
		closePolicy(conn, "game is over")
		return nil, "", nil
	}
	if resp.Err != "" {
		closePolicy(conn, resp.Err)
		return nil, "", nil
	}

	if err := writeJSON(conn, resp.Welcome); err != nil {
		return nil, "", nil
	}
	return g, resp.Welcome.PlayerID, out
}

func closePolicy(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason),
		time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
