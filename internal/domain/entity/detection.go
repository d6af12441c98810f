package entity

// SourceImage изображение, передаваемое детектору
type SourceImage struct {
	Name string
	Data []byte
}

// DetectionArtifacts результат работы детектора.
// HasLabels == false означает, что файл меток не создан: это «нет результата»,
// а не «ничего не найдено».
type DetectionArtifacts struct {
	Labels    []byte // содержимое файла меток в формате YOLO
	HasLabels bool
	Annotated []byte // изображение с рамками
}
