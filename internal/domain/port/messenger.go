package port

import (
	"context"

	"yolo-bot/internal/domain/entity"
)

// Messenger отправляет ответы в чат
type Messenger interface {
	Send(ctx context.Context, reply entity.Reply) error
}

// PhotoDownloader скачивает присланные в чат файлы
type PhotoDownloader interface {
	// DownloadPhoto возвращает содержимое файла и его имя на стороне мессенджера
	DownloadPhoto(ctx context.Context, fileID string) (*entity.SourceImage, error)
}
