package gateway

// ClientMessage is everything a player may send over the socket. GameID
// may be omitted on roll and forfeit once the connection is bound.
// AfterSeq asks join-room to replay buffered events newer than that
// sequence number, for reconnects that missed some.
type ClientMessage struct {
	Type     string `json:"type"`
	GameID   string `json:"game_id,omitempty"`
	AfterSeq int64  `json:"after_seq,omitempty"`
}

const (
	MsgJoinRoom = "join-room"
	MsgRoll     = "roll"
	MsgForfeit  = "forfeit"
)

// ErrorFrame goes only to the connection whose message caused it; other
// subscribers of the game never see it.
type ErrorFrame struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
	GameID  string `json:"game_id,omitempty"`
}
