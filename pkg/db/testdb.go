package db

import (
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// NewTest opens an in-memory sqlite database for tests. Row locking
// clauses are stripped because sqlite has no FOR UPDATE syntax.
func NewTest() (*gorm.DB, error) {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	stripLocking := func(d *gorm.DB) {
		sql := d.Statement.SQL.String()
		if strings.Contains(sql, "FOR UPDATE") {
			sql = strings.ReplaceAll(sql, "FOR UPDATE SKIP LOCKED", "")
			sql = strings.ReplaceAll(sql, "FOR UPDATE", "")
			d.Statement.SQL.Reset()
			d.Statement.SQL.WriteString(sql)
		}
	}
	if err := gdb.Callback().Query().Before("gorm:query").Register("sqlite_strip_locking", stripLocking); err != nil {
		return nil, err
	}
	if err := gdb.Callback().Row().Before("gorm:row").Register("sqlite_strip_locking_row", stripLocking); err != nil {
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	return gdb, nil
}
