package core

// DBOrdering is a single ORDER BY term built by the API layer from an
// `ordering` query param and passed down to repositories.
type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}
