package chat

import "time"

// Sender 标识消息的发送方。
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one immutable transcript entry.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// View is what the display layer consumes: the ordered transcript and whether a reply is pending.
type View struct {
	SessionID        string    `json:"sessionId"`
	Messages         []Message `json:"messages"`
	AwaitingResponse bool      `json:"awaitingResponse"`
}
