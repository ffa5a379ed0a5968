package codec

import (
	"database/sql"
	"fmt"

	"github.com/mentneo/mentmine/pkg/query"
)

// ScanRows decodes (id, data) rows where data holds a JSON document.
// It does not close rows.
func ScanRows(rows *sql.Rows, table string) ([]query.Record, error) {
	var records []query.Record
	for rows.Next() {
		var (
			id   string
			data []byte
		)
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		rec, err := DecodeJSON(id, data)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return records, nil
}
