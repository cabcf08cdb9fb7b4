package selection

import "slices"

// Set множество выбранных идентификаторов задач и флаг режима выбора.
// Режим активен, пока множество не пусто или включён явно.
// Set не потокобезопасен: владелец сериализует доступ сам.
type Set struct {
	ids    []int64
	index  map[int64]struct{}
	sticky bool
}

func New() *Set {
	return &Set{index: make(map[int64]struct{})}
}

// Toggle добавляет отсутствующий id или убирает присутствующий.
// Возвращает true, если после вызова id выбран.
func (s *Set) Toggle(id int64) bool {
	if _, ok := s.index[id]; ok {
		s.remove(id)
		return false
	}
	s.index[id] = struct{}{}
	s.ids = append(s.ids, id)
	return true
}

// SelectAll заменяет множество переданными id и принудительно включает режим.
func (s *Set) SelectAll(ids []int64) {
	s.ids = s.ids[:0]
	clear(s.index)
	for _, id := range ids {
		if _, ok := s.index[id]; ok {
			continue
		}
		s.index[id] = struct{}{}
		s.ids = append(s.ids, id)
	}
	s.sticky = true
}

// Enter включает режим выбора без выбранных задач.
func (s *Set) Enter() {
	s.sticky = true
}

// Clear очищает множество и выключает режим.
func (s *Set) Clear() {
	s.ids = s.ids[:0]
	clear(s.index)
	s.sticky = false
}

// Remove убирает id, не трогая флаг режима.
func (s *Set) Remove(ids ...int64) {
	for _, id := range ids {
		if _, ok := s.index[id]; ok {
			s.remove(id)
		}
	}
}

func (s *Set) remove(id int64) {
	delete(s.index, id)
	if i := slices.Index(s.ids, id); i >= 0 {
		s.ids = slices.Delete(s.ids, i, i+1)
	}
}

func (s *Set) Contains(id int64) bool {
	_, ok := s.index[id]
	return ok
}

// IDs возвращает копию выбранных id в порядке выбора.
func (s *Set) IDs() []int64 {
	out := make([]int64, len(s.ids))
	copy(out, s.ids)
	return out
}

func (s *Set) Len() int {
	return len(s.ids)
}

func (s *Set) Active() bool {
	return len(s.ids) > 0 || s.sticky
}
