package domain

type JunkEntry struct {
	Name      string `json:"name"`
	Dir       bool   `json:"dir"`
	SizeBytes uint64 `json:"size_bytes"`
}

// JunkCategory is one cleanup location with its top-level entries and their
// combined size. Path is absolute on the scanned host.
type JunkCategory struct {
	Name      string      `json:"name"`
	Path      string      `json:"path"`
	Entries   []JunkEntry `json:"entries"`
	SizeBytes uint64      `json:"size_bytes"`
	Formatted string      `json:"formatted"`
}
