package inmemory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"taskDeck/internal/logger"
	repo "taskDeck/internal/repository"
)

// TaskStorage хранилище записей в памяти. Id выдаются счётчиком и не переиспользуются.
type TaskStorage struct {
	storage map[int64]*repo.Record
	mtx     *sync.RWMutex
	ids     []int64
	lastID  int64

	categories    []repo.CategoryRecord
	subcategories []repo.SubcategoryRecord
	lastCatID     int64
	lastSubID     int64
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage: make(map[int64]*repo.Record),
		mtx:     &sync.RWMutex{},
		ids:     []int64{},
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	logger.Debug("Repository: Соединение стабильно")
	return nil
}

// ListRecords отдаёт записи от новых к старым.
func (s *TaskStorage) ListRecords(ctx context.Context) ([]repo.Record, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := make([]repo.Record, 0, len(s.ids))
	for i := len(s.ids) - 1; i >= 0; i-- {
		res = append(res, copyRecord(*s.storage[s.ids[i]]))
	}
	return res, nil
}

func (s *TaskStorage) GetRecord(ctx context.Context, id int64) (repo.Record, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	rec, ok := s.storage[id]
	if !ok {
		return repo.Record{}, repo.ErrNotFound
	}
	return copyRecord(*rec), nil
}

func (s *TaskStorage) CreateRecord(ctx context.Context, rec repo.Record) (repo.Record, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.lastID++
	rec.ID = s.lastID
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.Completed = false
	rec.CompletedAt = nil
	rec.Archived = false
	rec.ArchivedAt = nil

	stored := copyRecord(rec)
	s.storage[rec.ID] = &stored
	s.ids = append(s.ids, rec.ID)
	return copyRecord(rec), nil
}

// UpdateRecords применяет поля к каждой найденной записи; отсутствующие id получают ErrNotFound.
func (s *TaskStorage) UpdateRecords(ctx context.Context, ids []int64, fields repo.Fields) ([]repo.Result, error) {
	if err := repo.CheckFields(fields); err != nil {
		return nil, err
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	results := make([]repo.Result, 0, len(ids))
	for _, id := range ids {
		rec, ok := s.storage[id]
		if !ok {
			results = append(results, repo.Result{ID: id, Err: repo.ErrNotFound})
			continue
		}
		repo.ApplyFields(rec, fields)
		results = append(results, repo.Result{ID: id, Record: copyRecord(*rec)})
	}
	return results, nil
}

func (s *TaskStorage) DeleteRecords(ctx context.Context, ids []int64) ([]repo.Result, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	results := make([]repo.Result, 0, len(ids))
	for _, id := range ids {
		if _, ok := s.storage[id]; !ok {
			results = append(results, repo.Result{ID: id, Err: repo.ErrNotFound})
			continue
		}
		delete(s.storage, id)
		if i := slices.Index(s.ids, id); i >= 0 {
			s.ids = slices.Delete(s.ids, i, i+1)
		}
		results = append(results, repo.Result{ID: id})
	}
	return results, nil
}

func (s *TaskStorage) ListCategories(ctx context.Context) ([]repo.CategoryRecord, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return slices.Clone(s.categories), nil
}

func (s *TaskStorage) CreateCategory(ctx context.Context, rec repo.CategoryRecord) (repo.CategoryRecord, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.lastCatID++
	rec.ID = s.lastCatID
	s.categories = append(s.categories, rec)
	return rec, nil
}

func (s *TaskStorage) ListSubcategories(ctx context.Context, categoryID int64) ([]repo.SubcategoryRecord, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []repo.SubcategoryRecord{}
	for _, sub := range s.subcategories {
		if id := repo.ParseRef(sub.CategoryID); id != nil && *id == categoryID {
			res = append(res, sub)
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res, nil
}

func (s *TaskStorage) CreateSubcategory(ctx context.Context, name string, categoryID int64) (repo.SubcategoryRecord, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !slices.ContainsFunc(s.categories, func(c repo.CategoryRecord) bool { return c.ID == categoryID }) {
		return repo.SubcategoryRecord{}, fmt.Errorf("%w: категория %d", repo.ErrInvalidReference, categoryID)
	}

	s.lastSubID++
	rec := repo.SubcategoryRecord{
		ID:         s.lastSubID,
		Name:       name,
		CategoryID: repo.RefJSON(&categoryID),
	}
	s.subcategories = append(s.subcategories, rec)
	return rec, nil
}

func copyRecord(r repo.Record) repo.Record {
	c := r
	c.DueDate = copyTime(r.DueDate)
	c.CompletedAt = copyTime(r.CompletedAt)
	c.ArchivedAt = copyTime(r.ArchivedAt)
	c.CategoryID = slices.Clone(r.CategoryID)
	c.SubcategoryID = slices.Clone(r.SubcategoryID)
	if r.SelectedDays != nil {
		days := *r.SelectedDays
		c.SelectedDays = &days
	}
	return c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

var _ repo.RecordStore = (*TaskStorage)(nil)
