package models

import "time"

// Journal event type constants
const (
	EventTradeOpened = "TRADE_OPENED"
	EventTradeClosed = "TRADE_CLOSED"
	EventMarkUpdated = "MARK_UPDATED"
)

// JournalEvent is published to Kafka whenever a trade changes
type JournalEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	TradeID   string    `json:"trade_id"`
	Account   string    `json:"account"`
	Trade     *Trade    `json:"trade,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Journal command type constants
const (
	CommandCreateTrade = "CREATE_TRADE"
	CommandCloseTrade  = "CLOSE_TRADE"
	CommandUpdateMark  = "UPDATE_MARK"
)

// JournalCommand is consumed from Kafka so other tools can log trades
type JournalCommand struct {
	CommandID string       `json:"command_id"`
	Type      string       `json:"type"`
	Source    string       `json:"source"`
	TradeID   string       `json:"trade_id,omitempty"`
	Trade     *TradeInput  `json:"trade,omitempty"`
	Exit      *ExitInput   `json:"exit,omitempty"`
	Price     LooseDecimal `json:"price"`
	Timestamp string       `json:"timestamp,omitempty"`
}
