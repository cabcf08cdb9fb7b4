package repository

import (
	"context"
	"encoding/json"
	"time"
)

// Имена полей хранилища. Обновления передаются картой по этим именам.
const (
	ColTitle         = "title_c"
	ColDescription   = "description_c"
	ColDueDate       = "due_date_c"
	ColPriority      = "priority_c"
	ColCategory      = "category_id_c"
	ColSubcategory   = "subcategory_id_c"
	ColCompleted     = "completed_c"
	ColCreatedAt     = "created_at_c"
	ColCompletedAt   = "completed_at_c"
	ColArchived      = "archived_c"
	ColArchivedAt    = "archived_at_c"
	ColIsRecurring   = "is_recurring_c"
	ColFrequency     = "frequency_c"
	ColSelectedDays  = "selected_days_c"
	ColRecurringTime = "recurring_time_c"
)

// Columns изменяемые поля задачи в порядке схемы.
var Columns = []string{
	ColTitle, ColDescription, ColDueDate, ColPriority, ColCategory, ColSubcategory,
	ColCompleted, ColCreatedAt, ColCompletedAt, ColArchived, ColArchivedAt,
	ColIsRecurring, ColFrequency, ColSelectedDays, ColRecurringTime,
}

// Record задача в форме хранилища. Ссылки на категорию и подкатегорию приходят
// либо голым id, либо развёрнутым объектом {"Id": n, ...}, поэтому лежат сырым JSON.
type Record struct {
	ID            int64           `json:"Id"`
	Title         string          `json:"title_c"`
	Description   string          `json:"description_c"`
	DueDate       *time.Time      `json:"due_date_c"`
	Priority      string          `json:"priority_c"`
	CategoryID    json.RawMessage `json:"category_id_c"`
	SubcategoryID json.RawMessage `json:"subcategory_id_c"`
	Completed     bool            `json:"completed_c"`
	CreatedAt     time.Time       `json:"created_at_c"`
	CompletedAt   *time.Time      `json:"completed_at_c"`
	Archived      bool            `json:"archived_c"`
	ArchivedAt    *time.Time      `json:"archived_at_c"`
	IsRecurring   bool            `json:"is_recurring_c"`
	Frequency     string          `json:"frequency_c"`
	SelectedDays  *string         `json:"selected_days_c"`
	RecurringTime string          `json:"recurring_time_c"`
}

// Fields частичное обновление: имя поля хранилища -> новое значение.
// Ссылки передаются как *int64, даты как *time.Time, дни как *string; nil очищает поле.
type Fields map[string]any

// Result итог операции над одной записью группового запроса.
type Result struct {
	ID     int64
	Record Record
	Err    error
}

func (r Result) OK() bool {
	return r.Err == nil
}

type CategoryRecord struct {
	ID    int64  `json:"Id" db:"id"`
	Name  string `json:"name_c" db:"name_c"`
	Color string `json:"color_c" db:"color_c"`
	Icon  string `json:"icon_c" db:"icon_c"`
}

type SubcategoryRecord struct {
	ID         int64           `json:"Id" db:"id"`
	Name       string          `json:"name_c" db:"name_c"`
	CategoryID json.RawMessage `json:"category_id_c" db:"category_id_c"`
}

// RecordStore внешнее хранилище записей. Групповые операции отвечают по каждому id:
// неуспешные id приходят с ошибкой, порядок результатов совпадает с порядком ids.
type RecordStore interface {
	HealthCheck(ctx context.Context) error

	ListRecords(ctx context.Context) ([]Record, error)
	GetRecord(ctx context.Context, id int64) (Record, error)
	CreateRecord(ctx context.Context, rec Record) (Record, error)
	UpdateRecords(ctx context.Context, ids []int64, fields Fields) ([]Result, error)
	DeleteRecords(ctx context.Context, ids []int64) ([]Result, error)

	ListCategories(ctx context.Context) ([]CategoryRecord, error)
	CreateCategory(ctx context.Context, rec CategoryRecord) (CategoryRecord, error)
	ListSubcategories(ctx context.Context, categoryID int64) ([]SubcategoryRecord, error)
	CreateSubcategory(ctx context.Context, name string, categoryID int64) (SubcategoryRecord, error)
}
