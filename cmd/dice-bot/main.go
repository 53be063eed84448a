package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"sandlot/internal/config"
	"sandlot/internal/game"
	"sandlot/internal/logging"
	"sandlot/internal/session"
)

// A minimal opponent: joins the configured game and rolls whenever its
// side is at bat, with a small delay so spectators can follow along.
func main() {
	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	closeLogs, err := logging.Init(logCfg)
	if err != nil {
		panic(err)
	}
	defer closeLogs()

	cfg, err := config.LoadBot()
	if err != nil {
		log.Fatal().Err(err).Msg("load bot config failed")
	}

	userID, err := whoAmI(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("identity lookup failed")
	}
	log.Info().Str("user_id", userID).Str("game_id", cfg.GameID).Msg("bot starting")

	header := http.Header{"Authorization": []string{"Bearer " + cfg.APIToken}}
	conn, _, err := websocket.DefaultDialer.Dial(cfg.WSURL, header)
	if err != nil {
		log.Fatal().Err(err).Msg("websocket dial failed")
	}
	defer conn.Close()

	b := &bot{conn: conn, cfg: cfg, userID: userID}
	if err := b.send(map[string]any{"type": "join-room", "game_id": cfg.GameID}); err != nil {
		log.Fatal().Err(err).Msg("join failed")
	}
	b.run()
}

type bot struct {
	conn      *websocket.Conn
	cfg       config.BotConfig
	userID    string
	side      game.Side
	sideKnown bool
}

func (b *bot) run() {
	for {
		_, data, err := b.conn.ReadMessage()
		if err != nil {
			log.Error().Err(err).Msg("connection lost")
			return
		}
		var env struct {
			Type string          `json:"type"`
			Code string          `json:"code"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		switch session.EventType(env.Type) {
		case session.EventState:
			var snap session.Snapshot
			if err := json.Unmarshal(env.Data, &snap); err != nil {
				continue
			}
			b.learnSide(snap)
			if snap.State != nil {
				b.maybeRoll(*snap.State)
			}
		case session.EventRollResult:
			var play session.PlayOutcome
			if err := json.Unmarshal(env.Data, &play); err != nil {
				continue
			}
			log.Info().
				Ints("dice", play.Dice[:]).
				Str("outcome", string(play.Outcome)).
				Msg(play.Description)
			b.maybeRoll(play.State)
		case session.EventEnded:
			var end session.GameEnd
			if err := json.Unmarshal(env.Data, &end); err == nil {
				won := end.Result.WinnerUserID == b.userID
				log.Info().Bool("won", won).Str("reason", end.Result.Reason).Msg("game over")
			}
			return
		default:
			if env.Type == "error" {
				switch env.Code {
				case "validation", "forbidden", "not_found":
					log.Fatal().Str("code", env.Code).Msg("server rejected the bot")
				default:
					log.Warn().Str("code", env.Code).Msg("command rejected")
				}
			}
		}
	}
}

func (b *bot) learnSide(snap session.Snapshot) {
	if snap.Home != nil && snap.Home.UserID == b.userID {
		b.side, b.sideKnown = game.Home, true
	} else if snap.Visitor != nil && snap.Visitor.UserID == b.userID {
		b.side, b.sideKnown = game.Visitor, true
	}
}

func (b *bot) maybeRoll(st game.State) {
	if !b.sideKnown || st.Over || st.BattingSide() != b.side {
		return
	}
	time.Sleep(b.cfg.RollDelay)
	if err := b.send(map[string]any{"type": "roll", "game_id": b.cfg.GameID}); err != nil {
		log.Error().Err(err).Msg("roll send failed")
	}
}

func (b *bot) send(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.conn.WriteMessage(websocket.TextMessage, payload)
}

// whoAmI resolves the token to a user id so the bot can tell which side
// of the snapshot it is playing.
func whoAmI(cfg config.BotConfig) (string, error) {
	req, err := http.NewRequest(http.MethodGet, strings.TrimRight(cfg.ServerURL, "/")+"/api/users/me", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+cfg.APIToken)
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("users/me returned %d", resp.StatusCode)
	}
	var body struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	return body.UserID, nil
}
