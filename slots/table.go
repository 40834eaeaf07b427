// Package slots defines the editable-slot taxonomy: which settings
// fields of which widget types hold text, links, and images, and how
// repeater widgets nest per-item fields. The table is the single
// source of truth consulted by the dictionary builder, the
// find/replace engine, and the edit applicator — read and write paths
// never diverge on what a widget exposes.
package slots

// Kind classifies an editable slot.
type Kind string

const (
	KindText            Kind = "text"
	KindLink            Kind = "link"
	KindImage           Kind = "image"
	KindBackgroundImage Kind = "background_image"
)

// Repeater describes a repeater-shaped widget: an array-valued
// settings field whose items each carry their own text (and optional
// link) fields.
type Repeater struct {
	Field      string
	TextFields []string
	LinkField  string
}

// Widget declares the editable slots of one widget type.
type Widget struct {
	TextFields []string
	LinkField  string
	ImageField string
	Repeater   *Repeater
}

// Table is an immutable widget-type lookup. Construct one with
// DefaultTable or NewTable and inject it; there is no package-level
// mutable registry. Unknown widget types are simply absent, which
// excludes them from traversal.
type Table struct {
	widgets    map[string]Widget
	background map[string]string
}

// NewTable builds a table from explicit widget and background-image
// mappings. background maps a layout element kind (section, column,
// container) to the settings field holding its background image.
func NewTable(widgets map[string]Widget, background map[string]string) *Table {
	w := make(map[string]Widget, len(widgets))
	for k, v := range widgets {
		w[k] = v
	}
	b := make(map[string]string, len(background))
	for k, v := range background {
		b[k] = v
	}
	return &Table{widgets: w, background: b}
}

// DefaultTable covers the stock widget set.
func DefaultTable() *Table {
	return NewTable(map[string]Widget{
		"heading": {TextFields: []string{"title"}, LinkField: "link"},
		"text-editor": {TextFields: []string{"editor"}},
		"button": {TextFields: []string{"text"}, LinkField: "link"},
		"image": {TextFields: []string{"caption"}, LinkField: "link", ImageField: "image"},
		"image-box": {TextFields: []string{"title_text", "description_text"}, LinkField: "link", ImageField: "image"},
		"icon-box": {TextFields: []string{"title_text", "description_text"}, LinkField: "link"},
		"testimonial": {TextFields: []string{"testimonial_content", "testimonial_name", "testimonial_job"}, ImageField: "testimonial_image"},
		"call-to-action": {TextFields: []string{"title", "description", "button"}, LinkField: "link", ImageField: "bg_image"},
		"accordion": {Repeater: &Repeater{Field: "tabs", TextFields: []string{"tab_title", "tab_content"}}},
		"tabs": {Repeater: &Repeater{Field: "tabs", TextFields: []string{"tab_title", "tab_content"}}},
		"toggle": {Repeater: &Repeater{Field: "tabs", TextFields: []string{"tab_title", "tab_content"}}},
		"icon-list": {Repeater: &Repeater{Field: "icon_list", TextFields: []string{"text"}, LinkField: "link"}},
	}, map[string]string{
		"section":   "background_image",
		"column":    "background_image",
		"container": "background_image",
	})
}

// Widget returns the slot declaration for a widget type.
func (t *Table) Widget(widgetType string) (Widget, bool) {
	w, ok := t.widgets[widgetType]
	return w, ok
}

// BackgroundField returns the background-image settings field for a
// layout element kind, if that kind supports one.
func (t *Table) BackgroundField(kind string) (string, bool) {
	f, ok := t.background[kind]
	return f, ok
}

// WidgetTypes lists every known widget type. Used as the default
// traversal allow-list.
func (t *Table) WidgetTypes() []string {
	out := make([]string, 0, len(t.widgets))
	for k := range t.widgets {
		out = append(out, k)
	}
	return out
}
