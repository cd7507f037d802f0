package rendering

import "sort"

// Theme is a slide deck color scheme. Colors are RRGGBB hex.
type Theme struct {
	Name       string
	Label      string
	Background string
	Title      string
	Text       string
	Accent     string
	// Shape is the DrawingML preset of the title slide decoration.
	Shape string
}

var themes = map[string]Theme{
	"blue":   {Name: "blue", Label: "🔵 Ko'k", Background: "FFFFFF", Title: "003399", Text: "3C3C3C", Accent: "0078D7", Shape: "rect"},
	"dark":   {Name: "dark", Label: "⚫ Tungi", Background: "1E1E28", Title: "FFD700", Text: "F0F0F0", Accent: "3C3C50", Shape: "roundRect"},
	"green":  {Name: "green", Label: "🟢 Yashil", Background: "F0FFF0", Title: "006400", Text: "141414", Accent: "32CD32", Shape: "ellipse"},
	"orange": {Name: "orange", Label: "🟠 To'q sariq", Background: "FFFAF5", Title: "C84600", Text: "321400", Accent: "FF8C00", Shape: "triangle"},
}

// DefaultTheme is used for unknown theme names
const DefaultTheme = "blue"

// LookupTheme returns the named theme, or the default one
func LookupTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes[DefaultTheme]
}

// Themes returns all themes sorted by name
func Themes() []Theme {
	out := make([]Theme, 0, len(themes))
	for _, t := range themes {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
