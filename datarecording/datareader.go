package datarecording

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
)

// QueryParams shapes a query over a whole table.
type QueryParams struct {
	// OrderBy is an ORDER BY clause without the keywords, e.g. "Time DESC".
	OrderBy string

	// Limit caps the returned rows. Zero returns every row.
	Limit int
}

// DataReader reads back the tables of a recording.
type DataReader interface {
	// MapTable binds a table to the row struct its entries decode into.
	MapTable(tableName string, sampleEntry any)

	// Query returns pointers to decoded rows together with the number of rows
	// the table holds, which ignores Limit.
	Query(ctx context.Context, tableName string, params QueryParams) (
		rows []any,
		rowCount int,
		err error,
	)

	Close() error
}

type sqliteReader struct {
	db       *sql.DB
	rowTypes map[string]reflect.Type
}

// NewReader opens a recording file for reading.
func NewReader(filename string) DataReader {
	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	return &sqliteReader{
		db:       db,
		rowTypes: make(map[string]reflect.Type),
	}
}

func (r *sqliteReader) MapTable(tableName string, sampleEntry any) {
	r.rowTypes[tableName] = reflect.TypeOf(sampleEntry)
}

func (r *sqliteReader) Query(
	ctx context.Context,
	tableName string,
	params QueryParams,
) ([]any, int, error) {
	rowType, ok := r.rowTypes[tableName]
	if !ok {
		return nil, 0, fmt.Errorf("table %s is not mapped", tableName)
	}

	var rowCount int

	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+tableName).Scan(&rowCount)
	if err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", tableName, err)
	}

	query := "SELECT * FROM " + tableName
	if params.OrderBy != "" {
		query += " ORDER BY " + params.OrderBy
	}

	if params.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", params.Limit)
	}

	sqlRows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("query %s: %w", tableName, err)
	}
	defer sqlRows.Close()

	rows, err := decodeRows(sqlRows, rowType)
	if err != nil {
		return nil, 0, err
	}

	return rows, rowCount, nil
}

// decodeRows fills one rowType value per row. Columns without a field of the
// same name are read and dropped.
func decodeRows(sqlRows *sql.Rows, rowType reflect.Type) ([]any, error) {
	columns, err := sqlRows.Columns()
	if err != nil {
		return nil, err
	}

	fieldIndex := make([]int, len(columns))
	for i, column := range columns {
		fieldIndex[i] = -1
		if f, ok := rowType.FieldByName(column); ok && len(f.Index) == 1 {
			fieldIndex[i] = f.Index[0]
		}
	}

	var rows []any

	for sqlRows.Next() {
		row := reflect.New(rowType)
		targets := make([]any, len(columns))

		for i, idx := range fieldIndex {
			if idx < 0 {
				targets[i] = new(any)
				continue
			}

			targets[i] = row.Elem().Field(idx).Addr().Interface()
		}

		if err := sqlRows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("decode %s: %w", rowType.Name(), err)
		}

		rows = append(rows, row.Interface())
	}

	return rows, sqlRows.Err()
}

func (r *sqliteReader) Close() error {
	return r.db.Close()
}
