package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cuemby/relstore/pkg/catalog"
	"github.com/cuemby/relstore/pkg/database"
	"github.com/cuemby/relstore/pkg/sqltable"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run a tiny insert/scan smoke test against an in-memory database",
	Long: `bench opens an in-memory database, creates one table through
the catalog's DDL surface, inserts a batch of rows, scans them back,
and reports elapsed time for each phase. It exists to exercise the
full insert -> commit -> scan path from the command line without a SQL
front end.`,
	RunE: runBench,
}

func init() {
	benchCmd.Flags().Int("rows", 10000, "Number of rows to insert")
}

func runBench(cmd *cobra.Command, args []string) error {
	rows, _ := cmd.Flags().GetInt("rows")
	ctx := context.Background()

	db, err := database.Open(ctx, "bench", database.Config{})
	if err != nil {
		return fmt.Errorf("bench: open database: %w", err)
	}

	t := db.TxnManager.Begin()

	ns, err := db.Catalog.GetNamespaceByName(t, "public")
	if err != nil {
		return fmt.Errorf("bench: lookup public namespace: %w", err)
	}

	cols := []catalog.ColumnSchema{
		{Name: "id", Typeid: catalog.TypeIntegerOID, NotNull: true},
		{Name: "balance", Typeid: catalog.TypeBigintOID, NotNull: true},
	}
	relid, err := db.Catalog.CreateTable(t, ns.OID, "accounts", cols)
	if err != nil {
		return fmt.Errorf("bench: create table: %w", err)
	}

	blockSize := db.Config.BlockSize
	if blockSize == 0 {
		blockSize = database.DefaultBlockSize
	}
	tbl := sqltable.NewFromSchema(relid, cols, blockSize, 8)
	handle := db.RegisterTable(tbl)
	if err := db.Catalog.SetTablePointer(t, relid, uint64(handle)); err != nil {
		return fmt.Errorf("bench: publish table pointer: %w", err)
	}

	future := db.TxnManager.Commit(ctx, t, nil, nil)
	if err := future.Wait(ctx); err != nil {
		return fmt.Errorf("bench: commit ddl: %w", err)
	}

	oids := []int32{1, 2}
	init, err := tbl.InitializerForProjectedRow(oids)
	if err != nil {
		return err
	}
	idCol, _ := tbl.ColIDForOID(1)
	balCol, _ := tbl.ColIDForOID(2)

	insertStart := time.Now()
	writer := db.TxnManager.Begin()
	for i := 0; i < rows; i++ {
		redo := init.NewRow()
		binary.LittleEndian.PutUint32(redo.Access(idCol), uint32(i))
		binary.LittleEndian.PutUint64(redo.Access(balCol), uint64(i)*100)
		tbl.Insert(writer, redo)
	}
	wf := db.TxnManager.Commit(ctx, writer, nil, nil)
	if err := wf.Wait(ctx); err != nil {
		return fmt.Errorf("bench: commit inserts: %w", err)
	}
	insertElapsed := time.Since(insertStart)

	scanStart := time.Now()
	reader := db.TxnManager.Begin()
	batch := init.NewColumns(256)
	it := tbl.Begin()
	count := 0
	for {
		n := tbl.Scan(reader, it, batch)
		count += n
		if n < 256 {
			break
		}
	}
	scanElapsed := time.Since(scanStart)

	// Run the GC manager once the reader that pinned the insert's epoch
	// has finished, so the one-shot bench path also exercises vacuuming
	// rather than leaving pkg/gc dead outside serve's ticker.
	db.TxnManager.Commit(ctx, reader, nil, nil)
	db.GC.PerformGC()

	fmt.Printf("inserted %d rows in %s (%.0f rows/sec)\n", rows, insertElapsed, float64(rows)/insertElapsed.Seconds())
	fmt.Printf("scanned %d rows in %s (%.0f rows/sec)\n", count, scanElapsed, float64(count)/scanElapsed.Seconds())
	if count != rows {
		return fmt.Errorf("bench: scanned %d rows, expected %d", count, rows)
	}
	return nil
}
