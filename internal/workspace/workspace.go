// Package workspace хранит локальное зеркало задач и выбор для групповых операций.
//
// Workspace единственный владелец обоих: любые изменения кэша и выбора идут через
// его методы под одним мьютексом, поэтому выбор никогда не ссылается на задачу,
// которой уже нет в кэше.
package workspace

import (
	"slices"
	"sync"

	"taskDeck/internal/models/task"
	"taskDeck/internal/selection"
)

type Workspace struct {
	mtx       sync.RWMutex
	tasks     []task.Task
	selection *selection.Set
	version   uint64 // растёт при каждом изменении кэша
}

// SelectionState снимок выбора для отдачи наружу.
type SelectionState struct {
	IDs    []int64 `json:"ids"`
	Active bool    `json:"active"`
}

func New() *Workspace {
	return &Workspace{selection: selection.New()}
}

// Replace заменяет кэш целиком. Выбранные id, которых больше нет, выбрасываются.
func (w *Workspace) Replace(tasks []task.Task) {
	w.mtx.Lock()
	defer w.mtx.Unlock()

	w.replace(tasks)
}

// Version номер текущего состояния кэша. Его читают перед загрузкой из хранилища.
func (w *Workspace) Version() uint64 {
	w.mtx.RLock()
	defer w.mtx.RUnlock()

	return w.version
}

// ReplaceIfUnchanged заменяет кэш, только если после чтения version его никто не менял.
// Иначе список из хранилища уже устарел и отбрасывается.
func (w *Workspace) ReplaceIfUnchanged(version uint64, tasks []task.Task) bool {
	w.mtx.Lock()
	defer w.mtx.Unlock()

	if w.version != version {
		return false
	}
	w.replace(tasks)
	return true
}

func (w *Workspace) replace(tasks []task.Task) {
	w.tasks = cloneAll(tasks)
	w.version++

	var gone []int64
	for _, id := range w.selection.IDs() {
		if w.indexOf(id) < 0 {
			gone = append(gone, id)
		}
	}
	w.selection.Remove(gone...)
}

func (w *Workspace) Snapshot() []task.Task {
	w.mtx.RLock()
	defer w.mtx.RUnlock()

	return cloneAll(w.tasks)
}

func (w *Workspace) Len() int {
	w.mtx.RLock()
	defer w.mtx.RUnlock()

	return len(w.tasks)
}

func (w *Workspace) Get(id int64) (task.Task, bool) {
	w.mtx.RLock()
	defer w.mtx.RUnlock()

	if i := w.indexOf(id); i >= 0 {
		return w.tasks[i].Clone(), true
	}
	return task.Task{}, false
}

// Prepend добавляет новую задачу в начало списка.
func (w *Workspace) Prepend(t task.Task) {
	w.mtx.Lock()
	defer w.mtx.Unlock()

	if i := w.indexOf(t.ID); i >= 0 {
		w.tasks = slices.Delete(w.tasks, i, i+1)
	}
	w.tasks = slices.Insert(w.tasks, 0, t.Clone())
	w.version++
}

// Merge заменяет в кэше задачи с теми же id. Неизвестные id пропускаются.
// Возвращает число заменённых задач.
func (w *Workspace) Merge(updated ...task.Task) int {
	w.mtx.Lock()
	defer w.mtx.Unlock()

	merged := 0
	for _, t := range updated {
		if i := w.indexOf(t.ID); i >= 0 {
			w.tasks[i] = t.Clone()
			merged++
		}
	}
	w.version++
	return merged
}

// Remove удаляет задачи из кэша и из выбора в одной критической секции.
func (w *Workspace) Remove(ids ...int64) int {
	w.mtx.Lock()
	defer w.mtx.Unlock()

	removed := 0
	for _, id := range ids {
		if i := w.indexOf(id); i >= 0 {
			w.tasks = slices.Delete(w.tasks, i, i+1)
			removed++
		}
	}
	w.selection.Remove(ids...)
	w.version++
	return removed
}

// Toggle переключает выбор задачи. ok=false, если такой задачи в кэше нет.
func (w *Workspace) Toggle(id int64) (selected bool, ok bool) {
	w.mtx.Lock()
	defer w.mtx.Unlock()

	if w.indexOf(id) < 0 {
		return false, false
	}
	return w.selection.Toggle(id), true
}

// SelectAll выбирает все задачи кэша.
func (w *Workspace) SelectAll() []int64 {
	w.mtx.Lock()
	defer w.mtx.Unlock()

	ids := make([]int64, 0, len(w.tasks))
	for _, t := range w.tasks {
		ids = append(ids, t.ID)
	}
	w.selection.SelectAll(ids)
	return w.selection.IDs()
}

func (w *Workspace) EnterSelectMode() {
	w.mtx.Lock()
	defer w.mtx.Unlock()

	w.selection.Enter()
}

func (w *Workspace) ClearSelection() {
	w.mtx.Lock()
	defer w.mtx.Unlock()

	w.selection.Clear()
}

func (w *Workspace) SelectedIDs() []int64 {
	w.mtx.RLock()
	defer w.mtx.RUnlock()

	return w.selection.IDs()
}

func (w *Workspace) Selection() SelectionState {
	w.mtx.RLock()
	defer w.mtx.RUnlock()

	return SelectionState{IDs: w.selection.IDs(), Active: w.selection.Active()}
}

func (w *Workspace) indexOf(id int64) int {
	return slices.IndexFunc(w.tasks, func(t task.Task) bool { return t.ID == id })
}

func cloneAll(tasks []task.Task) []task.Task {
	out := make([]task.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
