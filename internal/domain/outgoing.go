package domain

// Button is an inline keyboard button carrying callback data.
type Button struct {
	Text string
	Data string
}

// OutgoingMessage describes a text message the bot sends.
type OutgoingMessage struct {
	ChatID  int64
	Text    string
	HTML    bool
	ReplyTo int
	Buttons [][]Button
}
