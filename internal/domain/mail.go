package domain

// MailEvent is one message pulled from the monitored mailbox. Absent headers
// are empty strings.
type MailEvent struct {
	MessageID string `json:"message_id"`
	InReplyTo string `json:"in_reply_to"`
	Subject   string `json:"subject"`
	Date      string `json:"date"`
	Sender    string `json:"sender"`
	Body      string `json:"body"`

	// Seq is the source-specific handle used to acknowledge the message.
	Seq int `json:"-"`
	// Ref is an optional source-specific handle (e.g. a file path).
	Ref string `json:"-"`
}
