package database

import "github.com/cuemby/relstore/pkg/sqltable"

// RegisterTable allocates a Handle for tbl and enrolls its underlying
// DataTable with the database's GC manager, so the version chains it
// accumulates get walked and trimmed on every PerformGC cycle instead
// of growing for the life of the process. Every caller that publishes
// a table pointer into the catalog (catalog.SetTablePointer) should
// register the same tbl here first.
func (db *Database) RegisterTable(tbl *sqltable.Table) Handle {
	h := db.Handles.Register(tbl)
	db.GC.RegisterTable(tbl.DataTable())
	return h
}
