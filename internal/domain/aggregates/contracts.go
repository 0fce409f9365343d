package aggregates

// Contract names the tables an aggregate writes and the row it locks to
// serialize those writes. Services and repos must not write an owned table
// outside the aggregate.
type Contract struct {
	Name string
	// LockTable holds the row every write locks first.
	LockTable   string
	OwnedTables []string
}

// Aggregate is implemented by every aggregate root.
type Aggregate interface {
	Contract() Contract
}

// Owns reports whether table is written only through this aggregate.
func (c Contract) Owns(table string) bool {
	for _, t := range c.OwnedTables {
		if t == table {
			return true
		}
	}
	return false
}
