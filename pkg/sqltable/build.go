package sqltable

import (
	"github.com/cuemby/relstore/pkg/catalog"
	"github.com/cuemby/relstore/pkg/storage/block"
	"github.com/cuemby/relstore/pkg/storage/table"
)

// NewFromSchema builds the physical backing store for a table the
// catalog already described via CreateTable: one block.Column per
// ColumnSchema, numbered the same way CreateTable numbered
// pg_attribute.Colnum (1-based, in cols order), wrapped in a Table. The
// caller is still responsible for publishing the result's storage
// object through catalog.SetTablePointer before committing the DDL
// transaction that created it.
func NewFromSchema(relid catalog.OID, cols []catalog.ColumnSchema, blockSize uint32, reuseLimit int) *Table {
	blockCols := make([]block.Column, len(cols))
	oids := make([]catalog.ColumnOID, len(cols))
	for i, c := range cols {
		size, varlen := catalog.TypeWidth(c.Typeid)
		blockCols[i] = block.Column{ID: block.ColumnID(i + 1), Size: size, Varlen: varlen}
		oids[i] = catalog.ColumnOID(i + 1)
	}
	layout := block.NewLayout(blockCols)
	dt := table.New(relid, layout, blockSize, reuseLimit)
	return New(relid, dt, oids)
}
