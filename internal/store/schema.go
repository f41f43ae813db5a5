package store

import "github.com/starford/ansuz/internal/models"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS tasks (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT,
	category    TEXT NOT NULL,
	priority    TEXT NOT NULL,
	status      TEXT NOT NULL,
	dueDate     TEXT,
	tagIds      TEXT,
	createdAt   TEXT NOT NULL,
	updatedAt   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS notes (
	id        TEXT PRIMARY KEY,
	title     TEXT NOT NULL,
	content   TEXT,
	category  TEXT NOT NULL,
	tagIds    TEXT,
	createdAt TEXT NOT NULL,
	updatedAt TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS documents (
	id        TEXT PRIMARY KEY,
	title     TEXT NOT NULL,
	fileName  TEXT,
	fileType  TEXT,
	fileSize  INTEGER,
	fileUrl   TEXT,
	tagIds    TEXT,
	createdAt TEXT NOT NULL,
	updatedAt TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS reminders (
	id              TEXT PRIMARY KEY,
	title           TEXT NOT NULL,
	description     TEXT,
	dateTime        TEXT NOT NULL,
	repeat          TEXT,
	completed       INTEGER DEFAULT 0,
	tagIds          TEXT,
	calendarEventId TEXT,
	createdAt       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tags (
	id    TEXT PRIMARY KEY,
	name  TEXT NOT NULL,
	color TEXT NOT NULL
);
`

// colType describes how a column value is represented in storage.
type colType int

const (
	// colText is stored as-is.
	colText colType = iota
	// colInt is stored as an INTEGER.
	colInt
	// colBool is stored as INTEGER 0/1.
	colBool
	// colList is a list of strings stored as JSON text.
	colList
)

type column struct {
	name string
	typ  colType
}

// tableSchema is the closed column set for one entity kind. Column
// order matches the CREATE TABLE statements above.
type tableSchema struct {
	cols []column
}

func (s tableSchema) col(name string) (column, bool) {
	for _, c := range s.cols {
		if c.name == name {
			return c, true
		}
	}
	return column{}, false
}

// schemaFor returns the column schema for a kind. The switch is
// exhaustive over models.Kinds.
func schemaFor(k models.Kind) tableSchema {
	switch k {
	case models.KindTask:
		return tableSchema{cols: []column{
			{"id", colText}, {"title", colText}, {"description", colText},
			{"category", colText}, {"priority", colText}, {"status", colText},
			{"dueDate", colText}, {"tagIds", colList},
			{"createdAt", colText}, {"updatedAt", colText},
		}}
	case models.KindNote:
		return tableSchema{cols: []column{
			{"id", colText}, {"title", colText}, {"content", colText},
			{"category", colText}, {"tagIds", colList},
			{"createdAt", colText}, {"updatedAt", colText},
		}}
	case models.KindDocument:
		return tableSchema{cols: []column{
			{"id", colText}, {"title", colText}, {"fileName", colText},
			{"fileType", colText}, {"fileSize", colInt}, {"fileUrl", colText},
			{"tagIds", colList}, {"createdAt", colText}, {"updatedAt", colText},
		}}
	case models.KindReminder:
		return tableSchema{cols: []column{
			{"id", colText}, {"title", colText}, {"description", colText},
			{"dateTime", colText}, {"repeat", colText}, {"completed", colBool},
			{"tagIds", colList}, {"calendarEventId", colText},
			{"createdAt", colText},
		}}
	case models.KindTag:
		return tableSchema{cols: []column{
			{"id", colText}, {"name", colText}, {"color", colText},
		}}
	}
	return tableSchema{}
}
