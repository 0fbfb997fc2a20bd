// Package outbound describes what the bot wants delivered, independent of the transport.
package outbound

// Kind selects the delivery call.
type Kind int

const (
	KindText Kind = iota
	KindPhoto
	KindDocument
	KindAnswerCallback
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindPhoto:
		return "photo"
	case KindDocument:
		return "document"
	case KindAnswerCallback:
		return "answer_callback"
	}
	return "unknown"
}

// ReplyButton is a persistent keyboard key. RequestContact asks the client to share the phone number.
type ReplyButton struct {
	Text           string
	RequestContact bool
}

// InlineButton is attached to a message. Exactly one of Data or URL is set.
type InlineButton struct {
	Text string
	Data string
	URL  string
}

// Keyboard is optional markup. At most one of Reply, Inline or Remove applies.
type Keyboard struct {
	Reply  [][]ReplyButton
	Inline [][]InlineButton
	Remove bool
}

// Intent is one outbound action.
type Intent struct {
	Kind     Kind
	ChatID   int64
	Text     string // message text, caption, or callback toast
	Markdown bool
	Keyboard *Keyboard

	// Photo and document payload: FileID re-sends a stored file, otherwise Bytes are uploaded as FileName.
	FileID   string
	FileName string
	Bytes    []byte

	CallbackID string
	Alert      bool
}

// SendText builds a plain text message.
func SendText(chatID int64, text string) Intent {
	return Intent{Kind: KindText, ChatID: chatID, Text: text}
}

// SendMarkdown builds a legacy-Markdown message.
func SendMarkdown(chatID int64, text string) Intent {
	return Intent{Kind: KindText, ChatID: chatID, Text: text, Markdown: true}
}

// SendPhotoID re-sends an already uploaded photo.
func SendPhotoID(chatID int64, fileID, caption string) Intent {
	return Intent{Kind: KindPhoto, ChatID: chatID, FileID: fileID, Text: caption}
}

// SendPhotoBytes uploads a new photo.
func SendPhotoBytes(chatID int64, name string, data []byte, caption string) Intent {
	return Intent{Kind: KindPhoto, ChatID: chatID, FileName: name, Bytes: data, Text: caption}
}

// SendDocumentID re-sends an already uploaded document.
func SendDocumentID(chatID int64, fileID, caption string) Intent {
	return Intent{Kind: KindDocument, ChatID: chatID, FileID: fileID, Text: caption}
}

// SendDocumentBytes uploads a new document.
func SendDocumentBytes(chatID int64, name string, data []byte, caption string) Intent {
	return Intent{Kind: KindDocument, ChatID: chatID, FileName: name, Bytes: data, Text: caption}
}

// AnswerCallback stops the client's spinner, optionally with a toast.
func AnswerCallback(callbackID, text string) Intent {
	return Intent{Kind: KindAnswerCallback, CallbackID: callbackID, Text: text}
}

// WithKeyboard returns a copy of i carrying kb.
func (i Intent) WithKeyboard(kb *Keyboard) Intent {
	i.Keyboard = kb
	return i
}

// AsMarkdown returns a copy of i rendered as Markdown.
func (i Intent) AsMarkdown() Intent {
	i.Markdown = true
	return i
}

// ReplyKeyboard builds a reply keyboard from rows of labels.
func ReplyKeyboard(rows ...[]string) *Keyboard {
	kb := &Keyboard{}
	for _, row := range rows {
		buttons := make([]ReplyButton, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, ReplyButton{Text: label})
		}
		kb.Reply = append(kb.Reply, buttons)
	}
	return kb
}

// InlineKeyboard builds an inline keyboard.
func InlineKeyboard(rows ...[]InlineButton) *Keyboard {
	return &Keyboard{Inline: rows}
}

// Data is a callback button.
func Data(text, data string) InlineButton {
	return InlineButton{Text: text, Data: data}
}

// Link is a URL button.
func Link(text, url string) InlineButton {
	return InlineButton{Text: text, URL: url}
}

// RemoveKeyboard hides the reply keyboard.
func RemoveKeyboard() *Keyboard {
	return &Keyboard{Remove: true}
}
