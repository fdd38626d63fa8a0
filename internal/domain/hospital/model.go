package hospital

// Hospital maps to the read-only hospitals master table. SourceNo is the
// identifier carried by the upstream prefectural dataset; clients reference
// hospitals by it (or by name), never by the internal primary key.
type Hospital struct {
	ID       int     `db:"id" json:"id"`
	SourceNo int     `db:"source_no" json:"source_no"`
	Name     string  `db:"name" json:"name"`
	Address  *string `db:"address" json:"address,omitempty"`
	Phone    *string `db:"phone" json:"phone,omitempty"`
}

// Department maps to the medical_departments master table.
type Department struct {
	ID        int    `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	ShortName string `db:"short_name" json:"short_name"`
}

// Team maps to the emergency_teams master table.
type Team struct {
	ID       int    `db:"id" json:"id"`
	TeamCode string `db:"team_code" json:"team_code"`
	TeamName string `db:"team_name" json:"team_name"`
}
