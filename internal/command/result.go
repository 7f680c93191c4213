package command

// Request is one inbound chat message.
type Request struct {
	UserID string
	Text   string
}

// Attachment is a file the reply carries alongside its text, such as a CSV
// export.
type Attachment struct {
	Filename string
	MIMEType string
	Data     []byte
}

// Result is the router's answer to one message.
type Result struct {
	OK   bool
	Text string
	// Attachment is set when the reply carries a file.
	Attachment *Attachment
	// NeedsConfirmation is set when the message parked a destructive
	// action and Text asks the user to confirm it.
	NeedsConfirmation bool
}

func textResult(text string) *Result {
	return &Result{OK: true, Text: text}
}

func errorResult(text string) *Result {
	return &Result{OK: false, Text: text}
}

func confirmResult(text string) *Result {
	return &Result{OK: true, Text: text, NeedsConfirmation: true}
}
