// Package content discovers and parses page descriptors.
package content

// MissingSaveAs is the output path used for pages that do not declare meta.save_as.
const MissingSaveAs = "missing_save_as.html"

// Page is one parsed page descriptor.
type Page struct {
	// Source is the descriptor path relative to the content root, slash-separated.
	Source  string
	Meta    map[string]any
	Context map[string]any
}

// Template returns meta.template, or def when the page omits it.
func (p Page) Template(def string) string {
	if s, ok := p.Meta["template"].(string); ok && s != "" {
		return s
	}
	return def
}

// SaveAs returns meta.save_as, or MissingSaveAs when absent.
func (p Page) SaveAs() (string, bool) {
	if s, ok := p.Meta["save_as"].(string); ok && s != "" {
		return s, true
	}
	return MissingSaveAs, false
}

// Metas returns the meta mapping of every page, in order.
func Metas(pages []Page) []map[string]any {
	metas := make([]map[string]any, len(pages))
	for i, p := range pages {
		metas[i] = p.Meta
	}
	return metas
}
