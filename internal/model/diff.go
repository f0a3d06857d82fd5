package model

// ChangedFile is one file section of a unified diff.
type ChangedFile struct {
	Path     Path
	HunkText string
}

// DiffStat counts the lines a changed file adds and removes.
type DiffStat struct {
	Added   int32
	Changed int32
	Deleted int32
}
