package entity

// Vocabulary таблица «индекс класса → название», загружается один раз при старте
type Vocabulary map[int]string

// Name возвращает название класса.
func (v Vocabulary) Name(index int) (string, bool) {
	name, ok := v[index]
	return name, ok
}

// Classes число классов модели: наибольший индекс плюс один
func (v Vocabulary) Classes() int {
	n := 0
	for idx := range v {
		if idx+1 > n {
			n = idx + 1
		}
	}
	return n
}
