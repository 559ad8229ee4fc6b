package models

// Journal is a container grouping entries, with a display name and an
// optional color. Journals flow through the same sync protocol as entries
// and attachment metadata.
type Journal struct {
	SyncMeta
	Name  string
	Color *string
}
