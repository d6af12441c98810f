package entity

// Reply исходящий ответ в чат
type Reply struct {
	ChatID    int64
	Text      string
	ReplyTo   int    // ID цитируемого сообщения, 0 без цитаты
	Photo     []byte // если задано, Text уходит подписью к фото
	PhotoName string
}

// NewTextReply создаёт обычный текстовый ответ.
func NewTextReply(chatID int64, text string) Reply {
	return Reply{ChatID: chatID, Text: text}
}

// Quoting делает ответ цитатой на сообщение messageID.
func (r Reply) Quoting(messageID int) Reply {
	r.ReplyTo = messageID
	return r
}

// IsThreaded сообщает, отправляется ли ответ цитатой.
func (r Reply) IsThreaded() bool {
	return r.ReplyTo != 0
}

// HasPhoto сообщает, нужно ли отправлять фото.
func (r Reply) HasPhoto() bool {
	return len(r.Photo) > 0
}
