package task

type Category struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

type Subcategory struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	CategoryID int64  `json:"category_id"`
}

// Template запись каталога шаблонов. Только для чтения.
type Template struct {
	ID            int       `json:"id" yaml:"id"`
	Title         string    `json:"title" yaml:"title"`
	Description   string    `json:"description" yaml:"description"`
	Category      string    `json:"category" yaml:"category"`
	CategoryID    *int64    `json:"category_id,omitempty" yaml:"category_id"`
	Priority      Priority  `json:"priority" yaml:"priority"`
	IsRecurring   bool      `json:"is_recurring" yaml:"is_recurring"`
	Frequency     Frequency `json:"frequency" yaml:"frequency"`
	SelectedDays  []int     `json:"selected_days" yaml:"selected_days"`
	RecurringTime string    `json:"recurring_time" yaml:"recurring_time"`
	EstimatedTime string    `json:"estimated_time" yaml:"estimated_time"`
}
