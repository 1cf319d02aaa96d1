package dashboard

import "github.com/yanqian/flowdash/internal/domain/payload"

// Widget types emitted by the generator.
const (
	WidgetStatCard  = "stat-card"
	WidgetText      = "text"
	WidgetBadge     = "badge"
	WidgetDate      = "date"
	WidgetTable     = "table"
	WidgetKeyValue  = "key-value"
	WidgetLineChart = "line-chart"
)

// Section types emitted by the generator.
const (
	SectionGrid  = "grid"
	SectionChart = "chart"
	SectionTable = "table"
)

// Specification is the declarative dashboard description that gets persisted and rendered.
type Specification struct {
	TemplateID    string            `json:"templateId"`
	TemplateName  string            `json:"templateName"`
	Structure     Structure         `json:"structure"`
	FieldMappings map[string]string `json:"fieldMappings"`
	Theme         Theme             `json:"theme"`
	Widgets       []Widget          `json:"widgets,omitempty"`
	SampleData    *payload.Value    `json:"sampleData,omitempty"`
	CreatedAt     int64             `json:"createdAt,omitempty"`
}

// Structure holds the ordered sections of a dashboard.
type Structure struct {
	Sections []Section `json:"sections"`
	Widgets  []Widget  `json:"widgets,omitempty"`
}

// Theme carries the dashboard colors.
type Theme struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

// Section groups widgets into one layout region.
type Section struct {
	Type       string      `json:"type"`
	Title      string      `json:"title,omitempty"`
	Widgets    []Widget    `json:"widgets"`
	DataPath   string      `json:"dataPath,omitempty"`
	Columns    int         `json:"columns,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Responsive *Responsive `json:"responsive,omitempty"`
}

// Widget is one visual element bound to one or more fields.
type Widget struct {
	Type       string      `json:"type"`
	Label      string      `json:"label,omitempty"`
	Title      string      `json:"title,omitempty"`
	DataPath   string      `json:"dataPath,omitempty"`
	Field      string      `json:"field,omitempty"`
	Fields     []string    `json:"fields,omitempty"`
	Icon       string      `json:"icon,omitempty"`
	Format     string      `json:"format,omitempty"`
	Columns    []string    `json:"columns,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Height     int         `json:"height,omitempty"`
	XAxis      string      `json:"xAxis,omitempty"`
	YAxis      string      `json:"yAxis,omitempty"`
}

// Pagination configures paged tables.
type Pagination struct {
	Enabled  bool `json:"enabled"`
	PageSize int  `json:"pageSize"`
}

// Responsive lists grid column counts per viewport.
type Responsive struct {
	Mobile  int `json:"mobile"`
	Tablet  int `json:"tablet"`
	Desktop int `json:"desktop"`
}

// AllWidgets flattens the widgets of every section in order.
func (s Specification) AllWidgets() []Widget {
	var out []Widget
	for _, section := range s.Structure.Sections {
		out = append(out, section.Widgets...)
	}
	return out
}

// ReferencedFields lists every field name bound by a widget, in widget order, without duplicates.
func (s Specification) ReferencedFields() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(name string) {
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	for _, w := range s.AllWidgets() {
		add(w.Field)
		for _, f := range w.Fields {
			add(f)
		}
	}
	return out
}
