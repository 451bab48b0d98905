package checklist

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/Jubii100/Growbal-sub000/pkg/models"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed templates/*.yaml
var templateFS embed.FS

// itemTemplate is the YAML blueprint for one checklist item. Templates
// are compiled into the binary; a session never sees a template
// directly, only the PENDING items it seeds.
type itemTemplate struct {
	Key              string   `yaml:"key"`
	Prompt           string   `yaml:"prompt"`
	Category         string   `yaml:"category"`
	Required         bool     `yaml:"required"`
	Priority         string   `yaml:"priority"`
	Dependencies     []string `yaml:"dependencies"`
	RequiresResearch bool     `yaml:"requires_research"`
	ValueKind        string   `yaml:"value_kind"`
	Choices          []string `yaml:"choices"`

	// When/Unless are applicability conditions evaluated against the
	// seed profile: every When pair must match, no Unless pair may.
	When   map[string]string `yaml:"when"`
	Unless map[string]string `yaml:"unless"`
}

type serviceTemplate struct {
	ServiceType string         `yaml:"service_type"`
	Items       []itemTemplate `yaml:"items"`
}

func (t itemTemplate) toItem() models.ChecklistItem {
	return models.ChecklistItem{
		Key:              t.Key,
		Prompt:           t.Prompt,
		Category:         t.Category,
		Required:         t.Required,
		Priority:         models.Priority(t.Priority),
		Dependencies:     append([]string(nil), t.Dependencies...),
		RequiresResearch: t.RequiresResearch,
		ValueKind:        t.ValueKind,
		Choices:          append([]string(nil), t.Choices...),
		Status:           models.PendingItemStatus,
	}
}

func (t itemTemplate) applies(profile map[string]string) bool {
	for k, v := range t.When {
		if profile[k] != v {
			return false
		}
	}
	for k, v := range t.Unless {
		if profile[k] == v {
			return false
		}
	}
	return true
}

var templates = mustLoadTemplates()

// mustLoadTemplates parses and validates every embedded template at
// process start. A malformed template (bad YAML, duplicate keys,
// unknown or cyclic dependencies) is a packaging defect, so it panics
// rather than surfacing mid-session.
func mustLoadTemplates() map[string]serviceTemplate {
	out := make(map[string]serviceTemplate)
	err := fs.WalkDir(templateFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		raw, err := templateFS.ReadFile(path)
		if err != nil {
			return err
		}
		var tpl serviceTemplate
		if err := yaml.Unmarshal(raw, &tpl); err != nil {
			return errors.Wrapf(err, "parse template %s", path)
		}
		if tpl.ServiceType == "" {
			return fmt.Errorf("template %s has no service_type", path)
		}
		if err := validateTemplate(tpl); err != nil {
			return errors.Wrapf(err, "template %s", path)
		}
		out[tpl.ServiceType] = tpl
		return nil
	})
	if err != nil {
		panic(fmt.Sprintf("checklist templates invalid: %v", err))
	}
	return out
}

// validateTemplate checks key uniqueness and the dependency graph.
// Cycles and unknown dependencies must fail at load time, never
// mid-session.
func validateTemplate(tpl serviceTemplate) error {
	seen := make(map[string]struct{}, len(tpl.Items))
	for _, it := range tpl.Items {
		if it.Key == "" {
			return errors.New("item with empty key")
		}
		if _, dup := seen[it.Key]; dup {
			return fmt.Errorf("duplicate item key %q", it.Key)
		}
		seen[it.Key] = struct{}{}
	}

	items := make([]models.ChecklistItem, 0, len(tpl.Items))
	for _, it := range tpl.Items {
		for _, dep := range it.Dependencies {
			if _, ok := seen[dep]; !ok {
				return errors.Wrapf(ErrUnknownDependency, "item %q depends on %q", it.Key, dep)
			}
		}
		items = append(items, it.toItem())
	}
	if _, err := Reorder(items); err != nil {
		return err
	}
	return nil
}

// ServiceTypes lists the service types with a registered template.
func ServiceTypes() []string {
	out := make([]string, 0, len(templates))
	for st := range templates {
		out = append(out, st)
	}
	return out
}

// Initialize builds the starting checklist for a service type,
// filtering out template items whose applicability conditions fail
// against the seed profile. All returned items are PENDING.
func Initialize(serviceType string, profile map[string]string) ([]models.ChecklistItem, error) {
	tpl, ok := templates[serviceType]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownServiceType, "%q", serviceType)
	}
	var items []models.ChecklistItem
	skipped := make(map[string]struct{})
	for _, it := range tpl.Items {
		if !it.applies(profile) {
			skipped[it.Key] = struct{}{}
			continue
		}
		items = append(items, it.toItem())
	}
	// An applicable item may depend on a filtered-out one; drop the
	// dangling edge so the dependency can never block the session.
	for i := range items {
		deps := items[i].Dependencies[:0]
		for _, dep := range items[i].Dependencies {
			if _, gone := skipped[dep]; !gone {
				deps = append(deps, dep)
			}
		}
		items[i].Dependencies = deps
	}
	return items, nil
}
