package models

// EntityType identifies which code counter a sequence row belongs to.
type EntityType string

// Entity types with their own code counters.
const (
	EntityStudent EntityType = "student"
	EntityFaculty EntityType = "faculty"
)

// CodeSequence is one per-(entity type, year) counter row. Rows are created
// on first allocation and only ever incremented, never reset or deleted.
type CodeSequence struct {
	EntityType EntityType `db:"entity_type" json:"entity_type"`
	Year       int        `db:"year" json:"year"`
	LastSeq    int        `db:"last_seq" json:"last_seq"`
}
