package models

import "time"

// Teacher represents an instructor who owns subjects.
type Teacher struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         string    `db:"name" json:"name"`
	Theme        *string   `db:"theme" json:"theme,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Theme is a named dashboard palette.
type Theme struct {
	Key        string `json:"key"`
	Color      string `json:"color"`
	LightColor string `json:"light_color"`
	Background string `json:"background"`
}

// Themes lists the available palettes in their stable assignment order.
var Themes = []Theme{
	{Key: "black", Color: "#09090b", LightColor: "#52525b", Background: "#f4f4f5"},
	{Key: "midnight", Color: "#020617", LightColor: "#64748b", Background: "#f8fafc"},
	{Key: "navy", Color: "#0f172a", LightColor: "#3b82f6", Background: "#eff6ff"},
	{Key: "ocean", Color: "#083344", LightColor: "#06b6d4", Background: "#ecfeff"},
	{Key: "denim", Color: "#1e3a8a", LightColor: "#60a5fa", Background: "#eff6ff"},
	{Key: "sky", Color: "#0369a1", LightColor: "#38bdf8", Background: "#f0f9ff"},
	{Key: "emerald", Color: "#064e3b", LightColor: "#10b981", Background: "#f0fdf4"},
	{Key: "forest", Color: "#14532d", LightColor: "#4ade80", Background: "#f0fdf4"},
	{Key: "teal", Color: "#0f766e", LightColor: "#14b8a6", Background: "#f0fdfa"},
	{Key: "rust", Color: "#78350f", LightColor: "#f97316", Background: "#fff7ed"},
	{Key: "coffee", Color: "#451a03", LightColor: "#d97706", Background: "#fef3c7"},
	{Key: "gold", Color: "#713f12", LightColor: "#eab308", Background: "#fefce8"},
	{Key: "steel", Color: "#334155", LightColor: "#94a3b8", Background: "#f8fafc"},
	{Key: "stone", Color: "#57534e", LightColor: "#a8a29e", Background: "#fafaf9"},
	{Key: "crimson", Color: "#831843", LightColor: "#f43f5e", Background: "#fff1f2"},
	{Key: "indigo", Color: "#312e81", LightColor: "#818cf8", Background: "#e0e7ff"},
}

// DefaultThemeKey is used when no other theme can be resolved.
const DefaultThemeKey = "emerald"

// LookupTheme returns the theme for key, falling back to the default palette.
func LookupTheme(key string) (Theme, bool) {
	for _, theme := range Themes {
		if theme.Key == key {
			return theme, true
		}
	}
	for _, theme := range Themes {
		if theme.Key == DefaultThemeKey {
			return theme, false
		}
	}
	return Themes[0], false
}

// ThemeForEmail derives a stable palette from the sum of the email's code points.
func ThemeForEmail(email string) Theme {
	if email == "" {
		theme, _ := LookupTheme(DefaultThemeKey)
		return theme
	}
	hash := 0
	for _, r := range email {
		hash += int(r)
	}
	return Themes[hash%len(Themes)]
}

// ResolvedTheme returns the teacher's stored theme or the email-derived one.
func (t Teacher) ResolvedTheme() Theme {
	if t.Theme != nil && *t.Theme != "" {
		if theme, ok := LookupTheme(*t.Theme); ok {
			return theme
		}
	}
	return ThemeForEmail(t.Email)
}

// TeacherInfo is the public teacher profile returned to clients.
type TeacherInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Theme Theme  `json:"theme"`
}

// Info builds the public profile for the teacher.
func (t Teacher) Info() TeacherInfo {
	return TeacherInfo{ID: t.ID, Email: t.Email, Name: t.Name, Theme: t.ResolvedTheme()}
}
