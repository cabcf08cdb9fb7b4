package templates

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"taskDeck/internal/models/task"
	"taskDeck/internal/recurrence"

	"gopkg.in/yaml.v3"
)

// AllCategories метка, которая в ByCategory означает "без фильтра".
const AllCategories = "All"

//go:embed templates.yml
var builtin []byte

// probeDate опорная дата для проверки правил при загрузке.
var probeDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

var ErrInvalidCatalog = errors.New("некорректный каталог шаблонов")

type document struct {
	Templates []task.Template `yaml:"templates"`
}

// Catalog неизменяемый набор шаблонов. Наружу отдаются только копии.
type Catalog struct {
	items []task.Template
}

// Default каталог, встроенный в бинарник.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(builtin))
}

func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("открытие каталога шаблонов: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Load читает каталог из YAML и проверяет каждую запись.
func Load(r io.Reader) (*Catalog, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	seen := make(map[int]struct{}, len(doc.Templates))
	for i, tmpl := range doc.Templates {
		if _, dup := seen[tmpl.ID]; dup {
			return nil, fmt.Errorf("%w: повторяется id %d", ErrInvalidCatalog, tmpl.ID)
		}
		seen[tmpl.ID] = struct{}{}

		if strings.TrimSpace(tmpl.Title) == "" {
			return nil, fmt.Errorf("%w: шаблон %d без названия", ErrInvalidCatalog, tmpl.ID)
		}
		if tmpl.SelectedDays == nil {
			doc.Templates[i].SelectedDays = []int{}
		}
		if tmpl.IsRecurring {
			if _, err := recurrence.NextOccurrence(recurrence.RuleOfTemplate(tmpl), probeDate); err != nil {
				return nil, fmt.Errorf("%w: шаблон %d: %v", ErrInvalidCatalog, tmpl.ID, err)
			}
		}
	}

	return &Catalog{items: doc.Templates}, nil
}

func (c *Catalog) All() []task.Template {
	out := make([]task.Template, 0, len(c.items))
	for _, t := range c.items {
		out = append(out, clone(t))
	}
	return out
}

// ByCategory шаблоны с данной меткой категории; "" и "All" возвращают все.
func (c *Catalog) ByCategory(label string) []task.Template {
	if label == "" || label == AllCategories {
		return c.All()
	}
	out := []task.Template{}
	for _, t := range c.items {
		if t.Category == label {
			out = append(out, clone(t))
		}
	}
	return out
}

func (c *Catalog) ByID(id int) (task.Template, bool) {
	for _, t := range c.items {
		if t.ID == id {
			return clone(t), true
		}
	}
	return task.Template{}, false
}

// Categories метки категорий в порядке первого появления.
func (c *Catalog) Categories() []string {
	var labels []string
	for _, t := range c.items {
		if !slices.Contains(labels, t.Category) {
			labels = append(labels, t.Category)
		}
	}
	return labels
}

func clone(t task.Template) task.Template {
	t.SelectedDays = slices.Clone(t.SelectedDays)
	if t.CategoryID != nil {
		id := *t.CategoryID
		t.CategoryID = &id
	}
	return t
}
