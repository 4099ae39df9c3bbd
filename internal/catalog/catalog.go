package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Question is one multiple-choice item.
type Question struct {
	ID            string   `yaml:"id" json:"id"`
	Text          string   `yaml:"text" json:"text"`
	Options       []string `yaml:"options" json:"options"`
	CorrectOption int      `yaml:"correct_option" json:"correctOption"`
	Explanation   string   `yaml:"explanation" json:"explanation"`
}

// IsCorrect reports whether option is the right answer.
func (q Question) IsCorrect(option int) bool {
	return option == q.CorrectOption
}

// Category is an ordered, immutable set of questions.
type Category struct {
	ID          string     `yaml:"id" json:"id"`
	Title       string     `yaml:"title" json:"title"`
	Description string     `yaml:"description" json:"description"`
	Icon        string     `yaml:"icon" json:"icon"`
	Questions   []Question `yaml:"questions" json:"questions"`
}

// Summary is the public listing view of a category; it never carries answers.
type Summary struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Icon          string `json:"icon"`
	QuestionCount int    `json:"questionCount"`
}

// Catalog is the read-only set of categories loaded at process start.
type Catalog struct {
	categories []Category
	byID       map[string]int
}

type document struct {
	Categories []Category `yaml:"categories"`
}

// Default returns the embedded catalog. It panics if the embedded file is
// malformed, which can only happen at build time.
func Default() *Catalog {
	c, err := Load(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// Load decodes and validates a YAML catalog.
func Load(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(doc.Categories)
}

// New validates categories and builds a catalog. Every defect is reported.
func New(categories []Category) (*Catalog, error) {
	if err := validate(categories); err != nil {
		return nil, err
	}
	c := &Catalog{
		categories: categories,
		byID:       make(map[string]int, len(categories)),
	}
	for i, cat := range categories {
		c.byID[cat.ID] = i
	}
	return c, nil
}

func validate(categories []Category) error {
	var result *multierror.Error
	if len(categories) == 0 {
		result = multierror.Append(result, fmt.Errorf("catalog has no categories"))
	}

	seen := make(map[string]struct{}, len(categories))
	for _, cat := range categories {
		if strings.TrimSpace(cat.ID) == "" {
			result = multierror.Append(result, fmt.Errorf("category %q: empty id", cat.Title))
		}
		if _, dup := seen[cat.ID]; dup {
			result = multierror.Append(result, fmt.Errorf("category %s: duplicate id", cat.ID))
		}
		seen[cat.ID] = struct{}{}

		if len(cat.Questions) == 0 {
			result = multierror.Append(result, fmt.Errorf("category %s: no questions", cat.ID))
		}
		for i, q := range cat.Questions {
			if strings.TrimSpace(q.Text) == "" {
				result = multierror.Append(result, fmt.Errorf("category %s question %d: empty text", cat.ID, i))
			}
			if len(q.Options) < 2 {
				result = multierror.Append(result, fmt.Errorf("category %s question %d: needs at least 2 options, has %d", cat.ID, i, len(q.Options)))
				continue
			}
			if q.CorrectOption < 0 || q.CorrectOption >= len(q.Options) {
				result = multierror.Append(result, fmt.Errorf("category %s question %d: correct option %d out of range", cat.ID, i, q.CorrectOption))
			}
		}
	}
	return result.ErrorOrNil()
}

// ListCategories returns every category in catalog order.
func (c *Catalog) ListCategories() []Category {
	out := make([]Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// Category looks a category up by id.
func (c *Catalog) Category(id string) (Category, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Category{}, false
	}
	return c.categories[i], true
}

// Summaries lists categories without their questions.
func (c *Catalog) Summaries() []Summary {
	out := make([]Summary, 0, len(c.categories))
	for _, cat := range c.categories {
		out = append(out, Summary{
			ID:            cat.ID,
			Title:         cat.Title,
			Description:   cat.Description,
			Icon:          cat.Icon,
			QuestionCount: len(cat.Questions),
		})
	}
	return out
}
