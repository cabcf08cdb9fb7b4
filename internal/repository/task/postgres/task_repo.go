package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskDeck/internal/logger"
	repo "taskDeck/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const slowQuery = 100 * time.Millisecond

// Коды ошибок PostgreSQL, которые различает хранилище.
const (
	foreignKeyViolation = "23503"
)

// selectTasks читает задачи вместе с развёрнутой категорией {"Id":..,"Name":..};
// подкатегория отдаётся голым id. %s источник строк: таблица или CTE.
const selectTasks = `SELECT
	t.id, t.title_c, t.description_c, t.due_date_c, t.priority_c,
	CASE WHEN c.id IS NULL THEN t.category_id_c::text
		ELSE json_build_object('Id', c.id, 'Name', c.name_c)::text END,
	t.subcategory_id_c::text,
	t.completed_c, t.created_at_c, t.completed_at_c, t.archived_c, t.archived_at_c,
	t.is_recurring_c, t.frequency_c, t.selected_days_c, t.recurring_time_c
FROM %s t
LEFT JOIN categories c ON c.id = t.category_id_c`

type Options struct {
	MaxConns        int32
	MinConns        int32
	MaxConnIdleTime time.Duration
}

type Storage struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, connString string, opts Options) (*Storage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnIdleTime = time.Minute * 5
	if opts.MaxConns > 0 {
		config.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		config.MinConns = opts.MinConns
	}
	if opts.MaxConnIdleTime > 0 {
		config.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return &Storage{pool: pool}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	logger.Debug("Repository: Соединение стабильно")
	return nil
}

func (s *Storage) ListRecords(ctx context.Context) ([]repo.Record, error) {
	start := time.Now()
	defer observe("список задач", start)

	rows, err := s.pool.Query(ctx, fmt.Sprintf(selectTasks, "tasks")+" ORDER BY t.id DESC")
	if err != nil {
		return nil, fmt.Errorf("список задач: %w", mapError(err))
	}
	records, err := collectRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("список задач: %w", mapError(err))
	}
	return records, nil
}

func (s *Storage) GetRecord(ctx context.Context, id int64) (repo.Record, error) {
	start := time.Now()
	defer observe("получение задачи", start)

	rec, err := scanRecord(s.pool.QueryRow(ctx, fmt.Sprintf(selectTasks, "tasks")+" WHERE t.id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repo.Record{}, repo.ErrNotFound
		}
		return repo.Record{}, fmt.Errorf("получение задачи: %w", mapError(err))
	}
	return rec, nil
}

func (s *Storage) CreateRecord(ctx context.Context, rec repo.Record) (repo.Record, error) {
	start := time.Now()
	defer observe("добавление задачи", start)

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	query := `WITH inserted AS (
		INSERT INTO tasks (title_c, description_c, due_date_c, priority_c, category_id_c, subcategory_id_c,
			created_at_c, is_recurring_c, frequency_c, selected_days_c, recurring_time_c)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING *
	) ` + fmt.Sprintf(selectTasks, "inserted")

	created, err := scanRecord(s.pool.QueryRow(ctx, query,
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
	))
	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return repo.Record{}, fmt.Errorf("добавление задачи: %w", mapError(err))
	}
	return created, nil
}

// UpdateRecords обновляет группу задач одним запросом. Id, которых нет в таблице,
// возвращаются с ErrNotFound.
func (s *Storage) UpdateRecords(ctx context.Context, ids []int64, fields repo.Fields) ([]repo.Result, error) {
	if err := repo.CheckFields(fields); err != nil {
		return nil, err
	}

	start := time.Now()
	defer observe("групповое обновление", start)

	keys := fields.SortedKeys()
	var query string
	args := []any{ids}
	if len(keys) == 0 {
		query = fmt.Sprintf(selectTasks, "tasks") + " WHERE t.id = ANY($1)"
	} else {
		set := make([]string, 0, len(keys))
		for i, col := range keys {
			set = append(set, fmt.Sprintf("%s = $%d", col, i+2))
			args = append(args, fields[col])
		}
		query = fmt.Sprintf(`WITH updated AS (
			UPDATE tasks SET %s WHERE id = ANY($1) RETURNING *
		) `, strings.Join(set, ", ")) + fmt.Sprintf(selectTasks, "updated")
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Ошибка группового обновления", err, zap.Int64s("task_ids", ids))
		return nil, fmt.Errorf("групповое обновление: %w", mapError(err))
	}
	records, err := collectRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("групповое обновление: %w", mapError(err))
	}

	byID := make(map[int64]repo.Record, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
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
	start := time.Now()
	defer observe("групповое удаление", start)

	rows, err := s.pool.Query(ctx, `DELETE FROM tasks WHERE id = ANY($1) RETURNING id`, ids)
	if err != nil {
		logger.Error("Repository: Ошибка группового удаления", err, zap.Int64s("task_ids", ids))
		return nil, fmt.Errorf("групповое удаление: %w", mapError(err))
	}
	deleted, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("групповое удаление: %w", mapError(err))
	}

	gone := make(map[int64]bool, len(deleted))
	for _, id := range deleted {
		gone[id] = true
	}
	results := make([]repo.Result, 0, len(ids))
	for _, id := range ids {
		if gone[id] {
			results = append(results, repo.Result{ID: id})
			// повторный id в запросе уже удалён
			gone[id] = false
			continue
		}
		results = append(results, repo.Result{ID: id, Err: repo.ErrNotFound})
	}
	return results, nil
}

func (s *Storage) ListCategories(ctx context.Context) ([]repo.CategoryRecord, error) {
	start := time.Now()
	defer observe("список категорий", start)

	rows, err := s.pool.Query(ctx, `SELECT id, name_c, color_c, icon_c FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("список категорий: %w", mapError(err))
	}
	categories, err := pgx.CollectRows(rows, pgx.RowToStructByName[repo.CategoryRecord])
	if err != nil {
		return nil, fmt.Errorf("список категорий: %w", mapError(err))
	}
	return categories, nil
}

func (s *Storage) CreateCategory(ctx context.Context, rec repo.CategoryRecord) (repo.CategoryRecord, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO categories (name_c, color_c, icon_c) VALUES ($1, $2, $3) RETURNING id`,
		rec.Name, rec.Color, rec.Icon,
	).Scan(&rec.ID)
	if err != nil {
		logger.Error("Repository: Не удалось добавить категорию", err)
		return repo.CategoryRecord{}, fmt.Errorf("добавление категории: %w", mapError(err))
	}
	return rec, nil
}

// ListSubcategories отдаёт подкатегории с развёрнутой ссылкой на категорию.
func (s *Storage) ListSubcategories(ctx context.Context, categoryID int64) ([]repo.SubcategoryRecord, error) {
	start := time.Now()
	defer observe("список подкатегорий", start)

	rows, err := s.pool.Query(ctx, `SELECT s.id, s.name_c,
			json_build_object('Id', c.id, 'Name', c.name_c)::text
		FROM subcategories s
		JOIN categories c ON c.id = s.category_id_c
		WHERE s.category_id_c = $1
		ORDER BY s.name_c`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("список подкатегорий: %w", mapError(err))
	}

	subs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (repo.SubcategoryRecord, error) {
		var sub repo.SubcategoryRecord
		var category string
		if err := row.Scan(&sub.ID, &sub.Name, &category); err != nil {
			return sub, err
		}
		sub.CategoryID = json.RawMessage(category)
		return sub, nil
	})
	if err != nil {
		return nil, fmt.Errorf("список подкатегорий: %w", mapError(err))
	}
	return subs, nil
}

func (s *Storage) CreateSubcategory(ctx context.Context, name string, categoryID int64) (repo.SubcategoryRecord, error) {
	sub := repo.SubcategoryRecord{Name: name, CategoryID: repo.RefJSON(&categoryID)}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO subcategories (name_c, category_id_c) VALUES ($1, $2) RETURNING id`,
		name, categoryID,
	).Scan(&sub.ID)
	if err != nil {
		logger.Error("Repository: Не удалось добавить подкатегорию", err, zap.Int64("category_id", categoryID))
		return repo.SubcategoryRecord{}, fmt.Errorf("добавление подкатегории: %w", mapError(err))
	}
	return sub, nil
}

func scanRecord(row pgx.Row) (repo.Record, error) {
	var rec repo.Record
	var category, subcategory *string
	err := row.Scan(
		&rec.ID,
		&rec.Title,
		&rec.Description,
		&rec.DueDate,
		&rec.Priority,
		&category,
		&subcategory,
		&rec.Completed,
		&rec.CreatedAt,
		&rec.CompletedAt,
		&rec.Archived,
		&rec.ArchivedAt,
		&rec.IsRecurring,
		&rec.Frequency,
		&rec.SelectedDays,
		&rec.RecurringTime,
	)
	if err != nil {
		return repo.Record{}, err
	}
	if category != nil {
		rec.CategoryID = json.RawMessage(*category)
	}
	if subcategory != nil {
		rec.SubcategoryID = json.RawMessage(*subcategory)
	}
	return rec, nil
}

func collectRecords(rows pgx.Rows) ([]repo.Record, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (repo.Record, error) {
		return scanRecord(row)
	})
}

// mapError сводит ошибки PostgreSQL к ошибкам репозитория.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return fmt.Errorf("%w: %s", repo.ErrInvalidReference, pgErr.ConstraintName)
	}
	return fmt.Errorf("%w: %v", repo.ErrTransport, err)
}

func observe(op string, start time.Time) {
	if elapsed := time.Since(start); elapsed > slowQuery {
		logger.Warn("Repository: Медленный запрос",
			zap.String("operation", op),
			zap.Duration("ms", elapsed))
	}
}

var _ repo.RecordStore = (*Storage)(nil)
