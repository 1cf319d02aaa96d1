package dashboard

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/yanqian/flowdash/internal/domain/payload"
)

// Defaults applied when no customization is supplied.
const (
	DefaultTemplateName   = "Webhook Dashboard"
	DefaultPrimaryColor   = "#6366f1"
	DefaultSecondaryColor = "#8b5cf6"

	defaultPageSize  = 10
	chartHeight      = 300
	overviewTitle    = "Overview"
	metricsTitle     = "Key Metrics"
	detailsTitle     = "Details"
	templateIDPrefix = "flowdash:template:"
)

// FieldInput is one schema field as accepted by the generator.
type FieldInput struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Format string `json:"format,omitempty"`
}

// SchemaInput is the generator's schema argument.
type SchemaInput struct {
	Fields []FieldInput `json:"fields"`
}

// Customizations override the template name and theme.
type Customizations struct {
	Title  string `json:"title,omitempty"`
	Colors *Theme `json:"colors,omitempty"`
}

// GenerateRequest is the generator input.
type GenerateRequest struct {
	Schema         SchemaInput    `json:"schema"`
	Customizations Customizations `json:"customizations"`
}

// GenerateResult is the tagged generator output.
type GenerateResult struct {
	Success       bool           `json:"success"`
	Specification *Specification `json:"specification,omitempty"`
	Error         string         `json:"error,omitempty"`
}

type placement int

const (
	placeMetrics placement = iota
	placeDetails
	placeTable
)

type nameRule struct {
	needles []string
	value   string
}

func matchName(rules []nameRule, name string) (string, bool) {
	lower := strings.ToLower(name)
	for _, rule := range rules {
		for _, needle := range rule.needles {
			if strings.Contains(lower, needle) {
				return rule.value, true
			}
		}
	}
	return "", false
}

var numberFormatRules = []nameRule{
	{needles: []string{"duration", "seconds", "elapsed", "latency"}, value: "duration"},
	{needles: []string{"percent", "pct", "rate"}, value: "percent"},
	{needles: []string{"amount", "price", "cost", "revenue", "fee", "balance"}, value: "currency"},
}

var numberIcons = map[string]string{
	"duration": "clock",
	"percent":  "percent",
	"currency": "dollar-sign",
	"number":   "hash",
}

var badgeNameRules = []nameRule{
	{needles: []string{"status", "state", "type", "level", "category", "priority", "outcome", "result", "role"}, value: "badge"},
}

// Generate derives a deterministic dashboard specification from a field schema.
// It does not stamp CreatedAt or SampleData.
func Generate(req GenerateRequest) GenerateResult {
	plans := make([]widgetPlan, 0, len(req.Schema.Fields))
	for i, field := range req.Schema.Fields {
		plan, err := planField(field)
		if err != nil {
			return GenerateResult{Error: fmt.Sprintf("field %d: %v", i, err)}
		}
		plans = append(plans, plan)
	}

	spec := Specification{
		TemplateID:    templateID(req.Schema),
		TemplateName:  templateName(req.Customizations),
		Structure:     Structure{Sections: assembleSections(plans)},
		FieldMappings: make(map[string]string, len(plans)),
		Theme:         resolveTheme(req.Customizations.Colors),
	}
	for _, p := range plans {
		spec.FieldMappings[p.field.Name] = p.field.Name
	}
	return GenerateResult{Success: true, Specification: &spec}
}

type widgetPlan struct {
	field     FieldInput
	fieldType payload.FieldType
	widget    Widget
	placement placement
}

// planField binds widgets to the exact source key; the trimmed name only drives
// the blank check, labels and name heuristics.
func planField(field FieldInput) (widgetPlan, error) {
	key := field.Name
	name := strings.TrimSpace(key)
	if name == "" {
		return widgetPlan{}, fmt.Errorf("field name cannot be empty")
	}
	fieldType := payload.FieldType(field.Type)
	if !fieldType.Valid() {
		return widgetPlan{}, fmt.Errorf("unsupported field type %q for %q", field.Type, name)
	}
	format := payload.FormatHint(field.Format)
	if !format.Valid() {
		return widgetPlan{}, fmt.Errorf("unsupported format %q for %q", field.Format, name)
	}

	label := humanize(name)
	plan := widgetPlan{field: field, fieldType: fieldType, placement: placeDetails}
	w := Widget{Label: label, Field: key, DataPath: key}

	switch fieldType {
	case payload.TypeNumber:
		numberFormat, ok := matchName(numberFormatRules, name)
		if !ok {
			numberFormat = "number"
		}
		w.Type = WidgetStatCard
		w.Format = numberFormat
		w.Icon = numberIcons[numberFormat]
		plan.placement = placeMetrics
	case payload.TypeString:
		w.Type = WidgetText
		if _, ok := matchName(badgeNameRules, name); ok {
			w.Type = WidgetBadge
			w.Icon = "activity"
		}
		switch format {
		case payload.FormatEmail:
			w.Format, w.Icon = "email", "mail"
		case payload.FormatURL:
			w.Format, w.Icon = "link", "link"
		}
	case payload.TypeBoolean:
		w.Type = WidgetBadge
		w.Format = "boolean"
		w.Icon = "check-circle"
	case payload.TypeDate:
		w.Type = WidgetDate
		w.Format = "datetime"
		w.Icon = "calendar"
	case payload.TypeArray:
		w.Type = WidgetTable
		w.Title = label
		w.Label = ""
		w.Icon = "list"
		w.Pagination = &Pagination{Enabled: true, PageSize: defaultPageSize}
		plan.placement = placeTable
	case payload.TypeObject:
		w.Type = WidgetKeyValue
		w.Icon = "braces"
	}
	plan.widget = w
	return plan, nil
}

func assembleSections(plans []widgetPlan) []Section {
	var metrics, details []Widget
	var tables []Section
	var dateField, numberField string

	for _, p := range plans {
		switch p.placement {
		case placeMetrics:
			metrics = append(metrics, p.widget)
		case placeDetails:
			details = append(details, p.widget)
		case placeTable:
			tables = append(tables, Section{
				Type:       SectionTable,
				Title:      p.widget.Title,
				DataPath:   p.field.Name,
				Widgets:    []Widget{p.widget},
				Pagination: &Pagination{Enabled: true, PageSize: defaultPageSize},
				Responsive: &Responsive{Mobile: 1, Tablet: 1, Desktop: 1},
			})
		}
		if p.fieldType == payload.TypeDate && dateField == "" {
			dateField = p.field.Name
		}
		if p.fieldType == payload.TypeNumber && numberField == "" {
			numberField = p.field.Name
		}
	}

	if len(plans) == 0 {
		return []Section{{
			Type:       SectionGrid,
			Title:      overviewTitle,
			Widgets:    []Widget{},
			Columns:    1,
			Responsive: &Responsive{Mobile: 1, Tablet: 1, Desktop: 1},
		}}
	}

	sections := make([]Section, 0, 3+len(tables))
	if len(metrics) > 0 {
		sections = append(sections, Section{
			Type:       SectionGrid,
			Title:      metricsTitle,
			Widgets:    metrics,
			Columns:    min(len(metrics), 4),
			Responsive: &Responsive{Mobile: 1, Tablet: 2, Desktop: 4},
		})
	}
	if dateField != "" && numberField != "" {
		sections = append(sections, Section{
			Type:  SectionChart,
			Title: "Trend",
			Widgets: []Widget{{
				Type:   WidgetLineChart,
				Title:  humanize(numberField) + " over time",
				Fields: []string{dateField, numberField},
				XAxis:  dateField,
				YAxis:  numberField,
				Height: chartHeight,
				Icon:   "trending-up",
			}},
			Columns:    1,
			Responsive: &Responsive{Mobile: 1, Tablet: 1, Desktop: 1},
		})
	}
	if len(details) > 0 {
		sections = append(sections, Section{
			Type:       SectionGrid,
			Title:      detailsTitle,
			Widgets:    details,
			Columns:    2,
			Responsive: &Responsive{Mobile: 1, Tablet: 2, Desktop: 2},
		})
	}
	return append(sections, tables...)
}

func templateName(c Customizations) string {
	if title := strings.TrimSpace(c.Title); title != "" {
		return title
	}
	return DefaultTemplateName
}

func resolveTheme(colors *Theme) Theme {
	theme := Theme{Primary: DefaultPrimaryColor, Secondary: DefaultSecondaryColor}
	if colors == nil {
		return theme
	}
	if c := strings.TrimSpace(colors.Primary); c != "" {
		theme.Primary = c
	}
	if c := strings.TrimSpace(colors.Secondary); c != "" {
		theme.Secondary = c
	}
	return theme
}

// templateID is a name based UUID over the field list so equal schemas share an id.
func templateID(schema SchemaInput) string {
	var b strings.Builder
	b.WriteString(templateIDPrefix)
	for _, f := range schema.Fields {
		b.WriteString(f.Name)
		b.WriteByte(':')
		b.WriteString(f.Type)
		b.WriteByte(':')
		b.WriteString(f.Format)
		b.WriteByte(';')
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(b.String())).String()
}

// humanize turns callId, call_id and call-id into "Call Id".
func humanize(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == '.' || unicode.IsSpace(r):
			b.WriteByte(' ')
			continue
		case unicode.IsUpper(r) && i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])):
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	words := strings.Fields(strings.ToLower(b.String()))
	if len(words) == 0 {
		return name
	}
	return cases.Title(language.English).String(strings.Join(words, " "))
}
