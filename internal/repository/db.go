package repository

// scanner covers both *sql.Row and *sql.Rows so the scan helpers can be
// shared by single-row and multi-row queries.
type scanner interface {
	Scan(dest ...any) error
}
