package core

import "strings"

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

// ParseOrderings parses a comma separated list of fields ("-createdAt,name") into orderings.
// A leading "-" means descending. Fields missing from `allowed` are dropped; `allowed` maps the
// public field name to its column name.
func ParseOrderings(raw string, allowed map[string]string) []DBOrdering {
	if raw == "" {
		return nil
	}
	var ords []DBOrdering
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		col, ok := allowed[field]
		if !ok {
			continue
		}
		ords = append(ords, DBOrdering{Field: col, Ascending: !descending})
	}
	return ords
}
