package schedule

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/sololeveling-irl/irl/internal/domain"
)

//go:embed templates.yaml
var templatesYAML []byte

type templateFile struct {
	Templates []domain.TaskTemplate `yaml:"templates"`
}

var (
	recommendedOnce sync.Once
	recommended     []domain.TaskTemplate
	recommendedErr  error
)

// ParseTemplates decodes a YAML template catalog. Entries without a category
// are recommended. Every entry must name a known stat and task type.
func ParseTemplates(data []byte) ([]domain.TaskTemplate, error) {
	var f templateFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	seen := make(map[string]bool, len(f.Templates))
	for i := range f.Templates {
		t := &f.Templates[i]
		if t.Category == "" {
			t.Category = domain.TemplateRecommended
		}
		if err := validateTemplate(*t); err != nil {
			return nil, fmt.Errorf("template %d: %w", i, err)
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("template %q: duplicate id", t.ID)
		}
		seen[t.ID] = true
	}
	return f.Templates, nil
}

// Recommended returns the embedded catalog.
func Recommended() ([]domain.TaskTemplate, error) {
	recommendedOnce.Do(func() {
		recommended, recommendedErr = ParseTemplates(templatesYAML)
	})
	if recommendedErr != nil {
		return nil, recommendedErr
	}
	return append([]domain.TaskTemplate(nil), recommended...), nil
}

func validateTemplate(t domain.TaskTemplate) error {
	switch {
	case t.ID == "":
		return &domain.ValidationError{Field: "id", Reason: "required"}
	case t.Name == "":
		return &domain.ValidationError{Field: "name", Reason: "required"}
	case !t.Stat.IsValid():
		return &domain.ValidationError{Field: "stat", Reason: fmt.Sprintf("unknown stat %q", t.Stat)}
	case !t.Type.IsValid():
		return &domain.ValidationError{Field: "type", Reason: fmt.Sprintf("unknown task type %q", t.Type)}
	case !t.Category.IsValid():
		return &domain.ValidationError{Field: "category", Reason: fmt.Sprintf("unknown category %q", t.Category)}
	}
	return nil
}
