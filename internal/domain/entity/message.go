package entity

// MessageKind вид входящего сообщения
type MessageKind string

const (
	KindPhoto MessageKind = "photo" // сообщение с фото (текст-подпись не важна)
	KindText  MessageKind = "text"  // непустой текст без фото
	KindOther MessageKind = "other" // всё остальное: стикеры, голосовые и т.п.
)

// PhotoRef один вариант разрешения присланного фото
type PhotoRef struct {
	FileID   string
	Width    int
	Height   int
	FileSize int
}

// InboundMessage входящее сообщение чата, живёт в пределах одной обработки
type InboundMessage struct {
	ChatID    int64
	MessageID int
	Text      string
	Photos    []PhotoRef // по возрастанию разрешения, последний самый крупный
}

// Kind классифицирует сообщение. Фото важнее текста.
func (m InboundMessage) Kind() MessageKind {
	if len(m.Photos) > 0 {
		return KindPhoto
	}
	if m.Text != "" {
		return KindText
	}
	return KindOther
}

// LargestPhoto возвращает вариант фото с максимальным разрешением.
func (m InboundMessage) LargestPhoto() (PhotoRef, bool) {
	if len(m.Photos) == 0 {
		return PhotoRef{}, false
	}
	return m.Photos[len(m.Photos)-1], true
}
