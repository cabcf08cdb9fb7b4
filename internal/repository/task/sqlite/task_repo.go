// Package sqlite хранилище записей в одном файле SQLite для локальной работы без сервера.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskDeck/internal/logger"
	repo "taskDeck/internal/repository"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed schema.sql
var schema string

// selectTasks отдаёт категорию голым id, а подкатегорию развёрнутым объектом.
const selectTasks = `SELECT
	t.id, t.title_c, t.description_c, t.due_date_c, t.priority_c,
	t.category_id_c,
	CASE WHEN s.id IS NULL THEN NULL
		ELSE json_object('Id', s.id, 'Name', s.name_c) END AS subcategory_id_c,
	t.completed_c, t.created_at_c, t.completed_at_c, t.archived_c, t.archived_at_c,
	t.is_recurring_c, t.frequency_c, t.selected_days_c, t.recurring_time_c
FROM tasks t
LEFT JOIN subcategories s ON s.id = t.subcategory_id_c`

type taskRow struct {
	ID            int64          `db:"id"`
	Title         string         `db:"title_c"`
	Description   string         `db:"description_c"`
	DueDate       sql.NullTime   `db:"due_date_c"`
	Priority      string         `db:"priority_c"`
	Category      sql.NullInt64  `db:"category_id_c"`
	Subcategory   sql.NullString `db:"subcategory_id_c"`
	Completed     bool           `db:"completed_c"`
	CreatedAt     time.Time      `db:"created_at_c"`
	CompletedAt   sql.NullTime   `db:"completed_at_c"`
	Archived      bool           `db:"archived_c"`
	ArchivedAt    sql.NullTime   `db:"archived_at_c"`
	IsRecurring   bool           `db:"is_recurring_c"`
	Frequency     string         `db:"frequency_c"`
	SelectedDays  sql.NullString `db:"selected_days_c"`
	RecurringTime string         `db:"recurring_time_c"`
}

type Storage struct {
	db *sqlx.DB
}

// New открывает файл базы (или ":memory:") и применяет схему.
func New(ctx context.Context, path string) (*Storage, error) {
	if path == "" {
		return nil, fmt.Errorf("путь к базе SQLite не задан")
	}

	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		logger.Error("Repository: Ошибка открытия SQLite", err)
		return nil, fmt.Errorf("открытие базы: %w", err)
	}
	// одна запись за раз; для :memory: это ещё и одна общая база
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		logger.Error("Repository: Ошибка применения схемы SQLite", err)
		return nil, fmt.Errorf("применение схемы: %w", err)
	}

	logger.Info("Repository: База SQLite открыта", zap.String("path", path))
	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	logger.Info("Repository: Закрытие базы SQLite")
	return s.db.Close()
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) ListRecords(ctx context.Context) ([]repo.Record, error) {
	var rows []taskRow
	if err := s.db.SelectContext(ctx, &rows, selectTasks+" ORDER BY t.id DESC"); err != nil {
		return nil, fmt.Errorf("список задач: %w", mapError(err))
	}
	return toRecords(rows), nil
}

func (s *Storage) GetRecord(ctx context.Context, id int64) (repo.Record, error) {
	var row taskRow
	if err := s.db.GetContext(ctx, &row, selectTasks+" WHERE t.id = ?", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repo.Record{}, repo.ErrNotFound
		}
		return repo.Record{}, fmt.Errorf("получение задачи: %w", mapError(err))
	}
	return row.record(), nil
}

func (s *Storage) CreateRecord(ctx context.Context, rec repo.Record) (repo.Record, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO tasks
			(title_c, description_c, due_date_c, priority_c, category_id_c, subcategory_id_c,
			 created_at_c, is_recurring_c, frequency_c, selected_days_c, recurring_time_c)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Title,
		rec.Description,
		rec.DueDate,
		rec.Priority,
		repo.ParseRef(rec.CategoryID),
		repo.ParseRef(rec.SubcategoryID),
		rec.CreatedAt,
		rec.IsRecurring,
		rec.Frequency,
		rec.SelectedDays,
		rec.RecurringTime,
	)
	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err)
		return repo.Record{}, fmt.Errorf("добавление задачи: %w", mapError(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return repo.Record{}, fmt.Errorf("добавление задачи: %w", mapError(err))
	}
	return s.GetRecord(ctx, id)
}

// UpdateRecords обновляет группу задач в одной транзакции.
func (s *Storage) UpdateRecords(ctx context.Context, ids []int64, fields repo.Fields) ([]repo.Result, error) {
	if err := repo.CheckFields(fields); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []repo.Result{}, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("групповое обновление: %w", mapError(err))
	}
	defer tx.Rollback()

	if keys := fields.SortedKeys(); len(keys) > 0 {
		set := make([]string, 0, len(keys))
		args := make([]any, 0, len(keys)+1)
		for _, col := range keys {
			set = append(set, col+" = ?")
			args = append(args, fields[col])
		}
		args = append(args, ids)

		query, inArgs, err := sqlx.In("UPDATE tasks SET "+strings.Join(set, ", ")+" WHERE id IN (?)", args...)
		if err != nil {
			return nil, fmt.Errorf("групповое обновление: %w", err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(query), inArgs...); err != nil {
			logger.Error("Repository: Ошибка группового обновления", err, zap.Int64s("task_ids", ids))
			return nil, fmt.Errorf("групповое обновление: %w", mapError(err))
		}
	}

	query, inArgs, err := sqlx.In(selectTasks+" WHERE t.id IN (?)", ids)
	if err != nil {
		return nil, fmt.Errorf("групповое обновление: %w", err)
	}
	var rows []taskRow
	if err := tx.SelectContext(ctx, &rows, tx.Rebind(query), inArgs...); err != nil {
		return nil, fmt.Errorf("групповое обновление: %w", mapError(err))
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("групповое обновление: %w", mapError(err))
	}

	byID := make(map[int64]repo.Record, len(rows))
	for _, row := range rows {
		byID[row.ID] = row.record()
	}
	results := make([]repo.Result, 0, len(ids))
	for _, id := range ids {
		if rec, ok := byID[id]; ok {
			results = append(results, repo.Result{ID: id, Record: rec})
		} else {
			results = append(results, repo.Result{ID: id, Err: repo.ErrNotFound})
		}
	}
	return results, nil
}

func (s *Storage) DeleteRecords(ctx context.Context, ids []int64) ([]repo.Result, error) {
	if len(ids) == 0 {
		return []repo.Result{}, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("групповое удаление: %w", mapError(err))
	}
	defer tx.Rollback()

	query, inArgs, err := sqlx.In("SELECT id FROM tasks WHERE id IN (?)", ids)
	if err != nil {
		return nil, fmt.Errorf("групповое удаление: %w", err)
	}
	var existing []int64
	if err := tx.SelectContext(ctx, &existing, tx.Rebind(query), inArgs...); err != nil {
		return nil, fmt.Errorf("групповое удаление: %w", mapError(err))
	}

	query, inArgs, err = sqlx.In("DELETE FROM tasks WHERE id IN (?)", ids)
	if err != nil {
		return nil, fmt.Errorf("групповое удаление: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(query), inArgs...); err != nil {
		logger.Error("Repository: Ошибка группового удаления", err, zap.Int64s("task_ids", ids))
		return nil, fmt.Errorf("групповое удаление: %w", mapError(err))
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("групповое удаление: %w", mapError(err))
	}

	gone := make(map[int64]bool, len(existing))
	for _, id := range existing {
		gone[id] = true
	}
	results := make([]repo.Result, 0, len(ids))
	for _, id := range ids {
		if gone[id] {
			results = append(results, repo.Result{ID: id})
			gone[id] = false
			continue
		}
		results = append(results, repo.Result{ID: id, Err: repo.ErrNotFound})
	}
	return results, nil
}

func (s *Storage) ListCategories(ctx context.Context) ([]repo.CategoryRecord, error) {
	categories := []repo.CategoryRecord{}
	if err := s.db.SelectContext(ctx, &categories, `SELECT id, name_c, color_c, icon_c FROM categories ORDER BY id`); err != nil {
		return nil, fmt.Errorf("список категорий: %w", mapError(err))
	}
	return categories, nil
}

func (s *Storage) CreateCategory(ctx context.Context, rec repo.CategoryRecord) (repo.CategoryRecord, error) {
	res, err := s.db.NamedExecContext(ctx,
		`INSERT INTO categories (name_c, color_c, icon_c) VALUES (:name_c, :color_c, :icon_c)`, rec)
	if err != nil {
		logger.Error("Repository: Не удалось добавить категорию", err)
		return repo.CategoryRecord{}, fmt.Errorf("добавление категории: %w", mapError(err))
	}
	if rec.ID, err = res.LastInsertId(); err != nil {
		return repo.CategoryRecord{}, fmt.Errorf("добавление категории: %w", mapError(err))
	}
	return rec, nil
}

func (s *Storage) ListSubcategories(ctx context.Context, categoryID int64) ([]repo.SubcategoryRecord, error) {
	var rows []struct {
		ID         int64  `db:"id"`
		Name       string `db:"name_c"`
		CategoryID int64  `db:"category_id_c"`
	}
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, name_c, category_id_c FROM subcategories WHERE category_id_c = ? ORDER BY name_c`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("список подкатегорий: %w", mapError(err))
	}

	subs := make([]repo.SubcategoryRecord, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, repo.SubcategoryRecord{ID: row.ID, Name: row.Name, CategoryID: repo.RefJSON(&row.CategoryID)})
	}
	return subs, nil
}

func (s *Storage) CreateSubcategory(ctx context.Context, name string, categoryID int64) (repo.SubcategoryRecord, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO subcategories (name_c, category_id_c) VALUES (?, ?)`, name, categoryID)
	if err != nil {
		logger.Error("Repository: Не удалось добавить подкатегорию", err, zap.Int64("category_id", categoryID))
		return repo.SubcategoryRecord{}, fmt.Errorf("добавление подкатегории: %w", mapError(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return repo.SubcategoryRecord{}, fmt.Errorf("добавление подкатегории: %w", mapError(err))
	}
	return repo.SubcategoryRecord{ID: id, Name: name, CategoryID: repo.RefJSON(&categoryID)}, nil
}

func (r taskRow) record() repo.Record {
	rec := repo.Record{
		ID:            r.ID,
		Title:         r.Title,
		Description:   r.Description,
		Priority:      r.Priority,
		Completed:     r.Completed,
		CreatedAt:     r.CreatedAt,
		Archived:      r.Archived,
		IsRecurring:   r.IsRecurring,
		Frequency:     r.Frequency,
		RecurringTime: r.RecurringTime,
		DueDate:       nullTime(r.DueDate),
		CompletedAt:   nullTime(r.CompletedAt),
		ArchivedAt:    nullTime(r.ArchivedAt),
	}
	if r.Category.Valid {
		rec.CategoryID = repo.RefJSON(&r.Category.Int64)
	}
	if r.Subcategory.Valid {
		rec.SubcategoryID = json.RawMessage(r.Subcategory.String)
	}
	if r.SelectedDays.Valid {
		days := r.SelectedDays.String
		rec.SelectedDays = &days
	}
	return rec
}

func toRecords(rows []taskRow) []repo.Record {
	records := make([]repo.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.record())
	}
	return records
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func mapError(err error) error {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY {
		return fmt.Errorf("%w: %v", repo.ErrInvalidReference, err)
	}
	return fmt.Errorf("%w: %v", repo.ErrTransport, err)
}

var _ repo.RecordStore = (*Storage)(nil)
