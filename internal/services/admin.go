package services

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// PageSize is the fixed number of rows per admin listing page.
const PageSize = 50

// tableSpec pins the columns the editor may touch for one table. Keeping
// the schema in an explicit registry (rather than introspecting at call
// time) means every identifier interpolated into SQL is validated against
// this closed set first. The registry is the authorization boundary for
// table names; membership is checked before any query is built.
type tableSpec struct {
	// columns in display order; the first is the default search column.
	columns []string
}

// editable returns the columns an update may set: everything except the
// auto-incrementing primary key.
func (t tableSpec) editable() []string {
	out := make([]string, 0, len(t.columns)-1)
	for _, c := range t.columns {
		if c != "id" {
			out = append(out, c)
		}
	}
	return out
}

func (t tableSpec) hasColumn(name string) bool {
	for _, c := range t.columns {
		if c == name {
			return true
		}
	}
	return false
}

// allowedTables is the closed set of tables the editor operates on, in
// display order. Any name outside this set fails with ErrForbiddenTable
// regardless of whether the table exists in the store.
var allowedTableOrder = []string{"users", "uploads", "predictions", "logs", "user_settings"}

var allowedTables = map[string]tableSpec{
	"users":         {columns: []string{"id", "username", "email", "password_hash", "failed_attempts", "locked_until", "created_at", "is_admin"}},
	"uploads":       {columns: []string{"id", "user_id", "filename", "original_filename", "upload_date", "processed", "num_rows"}},
	"predictions":   {columns: []string{"id", "upload_id", "passenger_id", "prediction", "probability", "created_at"}},
	"logs":          {columns: []string{"id", "user_id", "action", "details", "timestamp"}},
	"user_settings": {columns: []string{"id", "user_id", "preference_name", "preference_value"}},
}

// AdminService is the generic table editor: one code path serving the five
// registered tables through raw SQL built from registry-validated
// identifiers and bound parameter values.
type AdminService struct {
	DB *gorm.DB
}

func NewAdminService(conn *gorm.DB) *AdminService { return &AdminService{DB: conn} }

// Tables returns the allow-listed table names in display order.
func (s *AdminService) Tables() []string {
	out := make([]string, len(allowedTableOrder))
	copy(out, allowedTableOrder)
	return out
}

// Columns returns the column names of an allow-listed table.
func (s *AdminService) Columns(table string) ([]string, error) {
	spec, ok := allowedTables[table]
	if !ok {
		return nil, ErrForbiddenTable
	}
	cols := make([]string, len(spec.columns))
	copy(cols, spec.columns)
	return cols, nil
}

// TableListing is one page of an admin table view.
type TableListing struct {
	Table      string
	Columns    []string
	Rows       []map[string]any
	Page       int
	TotalPages int
	Total      int64
	Search     string
	Column     string
}

// ListRecords returns one page of rows, optionally filtered by a substring
// match on a single column. Pages below 1 are clamped to 1; the page count
// is at least 1 even for an empty table.
func (s *AdminService) ListRecords(table, search, column string, page int) (*TableListing, error) {
	spec, ok := allowedTables[table]
	if !ok {
		return nil, ErrForbiddenTable
	}
	if column == "" || !spec.hasColumn(column) {
		column = spec.columns[0]
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * PageSize

	var rows []map[string]any
	var total int64
	search = strings.TrimSpace(search)
	if search != "" {
		like := "%" + search + "%"
		q := fmt.Sprintf("SELECT * FROM %s WHERE %s LIKE ? LIMIT ? OFFSET ?", table, column)
		if err := s.DB.Raw(q, like, PageSize, offset).Scan(&rows).Error; err != nil {
			return nil, err
		}
		cq := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s LIKE ?", table, column)
		if err := s.DB.Raw(cq, like).Scan(&total).Error; err != nil {
			return nil, err
		}
	} else {
		q := fmt.Sprintf("SELECT * FROM %s LIMIT ? OFFSET ?", table)
		if err := s.DB.Raw(q, PageSize, offset).Scan(&rows).Error; err != nil {
			return nil, err
		}
		cq := fmt.Sprintf("SELECT COUNT(*) FROM %s", table)
		if err := s.DB.Raw(cq).Scan(&total).Error; err != nil {
			return nil, err
		}
	}

	totalPages := int((total + PageSize - 1) / PageSize)
	if totalPages < 1 {
		totalPages = 1
	}
	cols, _ := s.Columns(table)
	return &TableListing{
		Table:      table,
		Columns:    cols,
		Rows:       rows,
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
		Search:     search,
		Column:     column,
	}, nil
}

// GetRecord loads a single row by id.
func (s *AdminService) GetRecord(table string, id int64) (map[string]any, error) {
	if _, ok := allowedTables[table]; !ok {
		return nil, ErrForbiddenTable
	}
	var rows []map[string]any
	q := fmt.Sprintf("SELECT * FROM %s WHERE id = ?", table)
	if err := s.DB.Raw(q, id).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

// UpdateRecord applies the submitted values to one row. Only keys present
// in both the payload and the table's editable column set are applied;
// unknown keys are silently dropped. The lookup precedes the mutation so a
// missing record fails with ErrNotFound before anything is written.
func (s *AdminService) UpdateRecord(table string, id int64, values map[string]string) error {
	spec, ok := allowedTables[table]
	if !ok {
		return ErrForbiddenTable
	}
	if _, err := s.GetRecord(table, id); err != nil {
		return err
	}
	var sets []string
	var args []any
	for _, col := range spec.editable() {
		if v, present := values[col]; present {
			sets = append(sets, col+" = ?")
			args = append(args, v)
		}
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	q := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", table, strings.Join(sets, ", "))
	return s.DB.Exec(q, args...).Error
}

// DeleteRecord removes one row. Foreign-key children are left dangling; the
// editor does not cascade.
func (s *AdminService) DeleteRecord(table string, id int64) error {
	if _, ok := allowedTables[table]; !ok {
		return ErrForbiddenTable
	}
	if _, err := s.GetRecord(table, id); err != nil {
		return err
	}
	q := fmt.Sprintf("DELETE FROM %s WHERE id = ?", table)
	return s.DB.Exec(q, id).Error
}
