package models

import "time"

// UnknownClassName labels students whose class id cannot be resolved.
const UnknownClassName = "Unknown"

// AllSections selects every class of a subject.
const AllSections = "All Sections"

// Class represents a named class or section.
type Class struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ClassNameIndex maps class ids to names.
func ClassNameIndex(classes []Class) map[string]string {
	index := make(map[string]string, len(classes))
	for _, class := range classes {
		index[class.ID] = class.Name
	}
	return index
}

// IsAllSections reports whether the class filter selects every class.
func IsAllSections(className string) bool {
	return className == "" || className == AllSections
}
