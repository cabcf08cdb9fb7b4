package inmemory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"taskDeck/internal/repository"
	"taskDeck/internal/repository/task/inmemory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func days(s string) *string { return &s }

// TestTaskStorage_HealthCheck тестирует проверку здоровья
func TestTaskStorage_HealthCheck(t *testing.T) {
	storage := inmemory.NewTaskStorage()

	assert.NoError(t, storage.HealthCheck(context.Background()))
}

// TestTaskStorage_CreateRecord тестирует выдачу id и сохранение записи
func TestTaskStorage_CreateRecord(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	first, err := storage.CreateRecord(ctx, repository.Record{Title: "first", SelectedDays: days("1,3")})
	require.NoError(t, err)
	second, err := storage.CreateRecord(ctx, repository.Record{Title: "second", Completed: true})
	require.NoError(t, err)

	// Проверяем, что id растут и служебные поля заполнены
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.False(t, first.CreatedAt.IsZero())
	assert.False(t, second.Completed, "новая запись всегда невыполнена")

	got, err := storage.GetRecord(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Title)
	require.NotNil(t, got.SelectedDays)
	assert.Equal(t, "1,3", *got.SelectedDays)
}

// TestTaskStorage_IDsNeverReused тестирует, что id удалённой записи не выдаётся снова
func TestTaskStorage_IDsNeverReused(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	a, _ := storage.CreateRecord(ctx, repository.Record{Title: "a"})
	b, _ := storage.CreateRecord(ctx, repository.Record{Title: "b"})
	_, err := storage.DeleteRecords(ctx, []int64{b.ID})
	require.NoError(t, err)

	c, err := storage.CreateRecord(ctx, repository.Record{Title: "c"})
	require.NoError(t, err)

	assert.Greater(t, c.ID, b.ID)
	assert.NotEqual(t, a.ID, c.ID)
}

func TestTaskStorage_ListRecordsNewestFirst(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	for i := 1; i <= 3; i++ {
		_, err := storage.CreateRecord(ctx, repository.Record{Title: fmt.Sprintf("task %d", i)})
		require.NoError(t, err)
	}

	records, err := storage.ListRecords(ctx)
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, []int64{3, 2, 1}, []int64{records[0].ID, records[1].ID, records[2].ID})
}

func TestTaskStorage_GetRecordNotFound(t *testing.T) {
	_, err := inmemory.NewTaskStorage().GetRecord(context.Background(), 42)

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// TestTaskStorage_UpdateRecords тестирует групповое обновление с частичным успехом
func TestTaskStorage_UpdateRecords(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	a, _ := storage.CreateRecord(ctx, repository.Record{Title: "a"})
	b, _ := storage.CreateRecord(ctx, repository.Record{Title: "b"})
	now := time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)

	results, err := storage.UpdateRecords(ctx, []int64{a.ID, 99, b.ID}, repository.Fields{
		repository.ColCompleted:   true,
		repository.ColCompletedAt: &now,
	})
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.True(t, results[0].OK())
	assert.ErrorIs(t, results[1].Err, repository.ErrNotFound)
	assert.Equal(t, int64(99), results[1].ID)
	assert.True(t, results[2].OK())
	assert.True(t, results[2].Record.Completed)
	require.NotNil(t, results[2].Record.CompletedAt)
	assert.Equal(t, now, *results[2].Record.CompletedAt)
}

func TestTaskStorage_UpdateRecordsRejectsUnknownField(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	a, _ := storage.CreateRecord(ctx, repository.Record{Title: "a"})

	_, err := storage.UpdateRecords(ctx, []int64{a.ID}, repository.Fields{"owner_c": "me"})

	assert.ErrorIs(t, err, repository.ErrUnknownField)
}

func TestTaskStorage_DeleteRecords(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	a, _ := storage.CreateRecord(ctx, repository.Record{Title: "a"})

	results, err := storage.DeleteRecords(ctx, []int64{a.ID, a.ID})
	require.NoError(t, err)

	assert.True(t, results[0].OK())
	assert.ErrorIs(t, results[1].Err, repository.ErrNotFound)
	_, err = storage.GetRecord(ctx, a.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTaskStorage_Subcategories(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	work, err := storage.CreateCategory(ctx, repository.CategoryRecord{Name: "Work", Color: "blue", Icon: "Briefcase"})
	require.NoError(t, err)
	home, _ := storage.CreateCategory(ctx, repository.CategoryRecord{Name: "Home"})

	_, err = storage.CreateSubcategory(ctx, "Meetings", work.ID)
	require.NoError(t, err)
	_, err = storage.CreateSubcategory(ctx, "Email", work.ID)
	require.NoError(t, err)
	_, err = storage.CreateSubcategory(ctx, "Garden", home.ID)
	require.NoError(t, err)

	subs, err := storage.ListSubcategories(ctx, work.ID)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "Email", subs[0].Name)
	assert.Equal(t, "Meetings", subs[1].Name)
	assert.JSONEq(t, fmt.Sprint(work.ID), string(subs[0].CategoryID))

	_, err = storage.CreateSubcategory(ctx, "Orphan", 404)
	assert.ErrorIs(t, err, repository.ErrInvalidReference)

	categories, err := storage.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 2)
}

// TestTaskStorage_ConcurrentAccess тестирует конкурентный доступ
func TestTaskStorage_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			rec, err := storage.CreateRecord(ctx, repository.Record{Title: fmt.Sprintf("task %d", n)})
			assert.NoError(t, err)
			_, err = storage.UpdateRecords(ctx, []int64{rec.ID}, repository.Fields{repository.ColTitle: "renamed"})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	records, err := storage.ListRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 20)
	for _, rec := range records {
		assert.Equal(t, "renamed", rec.Title)
	}
}
