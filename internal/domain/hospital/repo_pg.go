package hospital

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ems/transport/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns the PostgreSQL-backed master-data repository.
func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const hospitalCols = `id, source_no, name, address, phone`

func scanHospitals(rows pgx.Rows) ([]*Hospital, error) {
	defer rows.Close()
	var items []*Hospital
	for rows.Next() {
		var h Hospital
		if err := rows.Scan(&h.ID, &h.SourceNo, &h.Name, &h.Address, &h.Phone); err != nil {
			return nil, err
		}
		items = append(items, &h)
	}
	return items, rows.Err()
}

func (r *repoPG) ListBySourceNosOrNames(ctx context.Context, sourceNos []int, names []string) ([]*Hospital, error) {
	if sourceNos == nil {
		sourceNos = []int{}
	}
	if names == nil {
		names = []string{}
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+hospitalCols+`
		FROM hospitals
		WHERE source_no = ANY($1::int[]) OR name = ANY($2::text[])`,
		sourceNos, names)
	if err != nil {
		return nil, err
	}
	return scanHospitals(rows)
}

func (r *repoPG) FindTeam(ctx context.Context, code, name string) (*Team, error) {
	var t Team
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, team_code, team_name
		FROM emergency_teams
		WHERE team_code = $1 OR team_name = $2
		ORDER BY CASE WHEN team_code = $1 THEN 0 ELSE 1 END
		LIMIT 1`, code, name).Scan(&t.ID, &t.TeamCode, &t.TeamName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repoPG) ListDepartmentsByValue(ctx context.Context, values []string) ([]*Department, error) {
	if len(values) == 0 {
		return nil, nil
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, name, short_name
		FROM medical_departments
		WHERE short_name = ANY($1::text[]) OR name = ANY($1::text[])
		ORDER BY id`, values)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Department
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.Name, &d.ShortName); err != nil {
			return nil, err
		}
		items = append(items, &d)
	}
	return items, rows.Err()
}

func (r *repoPG) SuggestByName(ctx context.Context, q string, limit int) ([]*Hospital, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+hospitalCols+`
		FROM hospitals
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY
			CASE
				WHEN name = $1 THEN 0
				WHEN name ILIKE ($1 || '%') THEN 1
				ELSE 2
			END,
			LENGTH(name) ASC,
			source_no ASC
		LIMIT $2`, q, limit)
	if err != nil {
		return nil, err
	}
	return scanHospitals(rows)
}
