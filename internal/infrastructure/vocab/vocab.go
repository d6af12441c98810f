// Package vocab загружает таблицу названий классов детектора.
package vocab

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"yolo-bot/internal/domain/entity"
)

//go:embed coco128.yaml
var defaultDataset []byte

type dataset struct {
	Names yaml.Node `yaml:"names"`
}

// Default возвращает встроенный словарь COCO.
func Default() (entity.Vocabulary, error) {
	return Parse(defaultDataset)
}

// Load читает словарь из YAML-файла датасета. Для пустого пути берётся встроенный словарь.
func Load(path string) (entity.Vocabulary, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	return Parse(data)
}

// Parse разбирает ключ names: списком (старый формат) или словарём индекс → название.
func Parse(data []byte) (entity.Vocabulary, error) {
	var ds dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parse vocabulary: %w", err)
	}

	vocab := make(entity.Vocabulary)
	switch ds.Names.Kind {
	case yaml.SequenceNode:
		var names []string
		if err := ds.Names.Decode(&names); err != nil {
			return nil, fmt.Errorf("decode names list: %w", err)
		}
		for i, n := range names {
			vocab[i] = n
		}
	case yaml.MappingNode:
		var names map[int]string
		if err := ds.Names.Decode(&names); err != nil {
			return nil, fmt.Errorf("decode names map: %w", err)
		}
		for i, n := range names {
			if i < 0 {
				return nil, fmt.Errorf("negative class index %d", i)
			}
			vocab[i] = n
		}
	default:
		return nil, fmt.Errorf("vocabulary has no names")
	}

	if len(vocab) == 0 {
		return nil, fmt.Errorf("vocabulary is empty")
	}
	return vocab, nil
}
