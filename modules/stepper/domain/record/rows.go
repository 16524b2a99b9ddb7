package record

import "github.com/google/uuid"

// EnsureRowKeys gives every row without one a stable client key.
func EnsureRowKeys(rows []Record) {
	for _, row := range rows {
		if row.Text(RowKeyField) == "" {
			row[RowKeyField] = uuid.NewString()
		}
	}
}

func RowID(row Record) (int64, bool) {
	return row.Int64(IDField)
}

func IsDeleted(row Record) bool {
	return row.Bool(DeletedField)
}

// LiveRows drops rows the user removed.
func LiveRows(rows []Record) []Record {
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		if !IsDeleted(row) {
			out = append(out, row)
		}
	}
	return out
}
