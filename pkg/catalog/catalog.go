package catalog

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/cuemby/relstore/pkg/gc"
	"github.com/cuemby/relstore/pkg/index"
	"github.com/cuemby/relstore/pkg/storage/block"
	"github.com/cuemby/relstore/pkg/storage/row"
	"github.com/cuemby/relstore/pkg/storage/table"
	"github.com/cuemby/relstore/pkg/txn"
)

// reuseLimit bounds the free-block list each catalog table's store
// keeps; the catalog itself never grows large enough for this to
// matter, but table.New requires a value.
const reuseLimit = 4

// Catalog owns the pg_namespace, pg_class, pg_attribute, pg_index,
// pg_type, and pg_constraint tables and their indexes, each backed by
// the same table.DataTable and index primitives a user table would
// use. Its DDL surface runs transactionally against its own tables,
// serialized by a single per-database write-lock timestamp.
type Catalog struct {
	tm *txn.Manager
	gc *gc.Manager

	nsTable  *table.DataTable
	nsByOID  *index.Unordered
	nsByName *index.Unordered

	clsTable    *table.DataTable
	clsByOID    *index.Unordered
	clsByNsName *index.Unordered
	clsByNs     *index.Unordered

	idxTable   *table.DataTable
	idxByOID   *index.Unordered
	idxByRelid *index.Unordered

	attTable         *table.DataTable
	attByRelidColnum *index.Unordered
	attByRelidName   *index.Unordered
	attByRelid       *index.Unordered

	typTable *table.DataTable
	typByOID *index.Unordered
	typByName *index.Unordered

	conTable           *table.DataTable
	conByOID           *index.Unordered
	conByName          *index.Unordered
	conByNamespace     *index.Unordered
	conByRelid         *index.Unordered
	conByIndexid       *index.Unordered
	conByForeignRelid  *index.Unordered

	oidCounter atomic.Uint32
	// ddlLock is the begin-or-commit timestamp of the last successful
	// DDL commit; a txn may install a DDL change only if its begin is
	// at or after this value.
	ddlLock atomic.Uint64
}

// New builds an empty Catalog: every pg_* table and index exists, but
// none of the bootstrap rows have been inserted yet. Call Bootstrap
// before handing the Catalog to any other component.
func New(tm *txn.Manager, g *gc.Manager, blockSize uint32) *Catalog {
	c := &Catalog{tm: tm, gc: g}

	c.nsTable = table.New(NamespacePgCatalogOID, namespaceLayout(), blockSize, reuseLimit)
	c.nsByOID = index.NewUnordered(c.nsTable)
	c.nsByName = index.NewUnordered(c.nsTable)

	c.clsTable = table.New(ClassPgClassOID, classLayout(), blockSize, reuseLimit)
	c.clsByOID = index.NewUnordered(c.clsTable)
	c.clsByNsName = index.NewUnordered(c.clsTable)
	c.clsByNs = index.NewUnordered(c.clsTable)

	c.idxTable = table.New(ClassPgIndexOID, pgIndexLayout(), blockSize, reuseLimit)
	c.idxByOID = index.NewUnordered(c.idxTable)
	c.idxByRelid = index.NewUnordered(c.idxTable)

	c.attTable = table.New(ClassPgAttributeOID, attributeLayout(), blockSize, reuseLimit)
	c.attByRelidColnum = index.NewUnordered(c.attTable)
	c.attByRelidName = index.NewUnordered(c.attTable)
	c.attByRelid = index.NewUnordered(c.attTable)

	c.typTable = table.New(ClassPgTypeOID, typeLayout(), blockSize, reuseLimit)
	c.typByOID = index.NewUnordered(c.typTable)
	c.typByName = index.NewUnordered(c.typTable)

	c.conTable = table.New(ClassPgConstraintOID, constraintLayout(), blockSize, reuseLimit)
	c.conByOID = index.NewUnordered(c.conTable)
	c.conByName = index.NewUnordered(c.conTable)
	c.conByNamespace = index.NewUnordered(c.conTable)
	c.conByRelid = index.NewUnordered(c.conTable)
	c.conByIndexid = index.NewUnordered(c.conTable)
	c.conByForeignRelid = index.NewUnordered(c.conTable)

	c.oidCounter.Store(FirstUserOID)
	return c
}

func u32Key(v uint32) index.Key { return index.NewCompactIntsKey(int64(v)) }

func u32StringKey(a uint32, s string) index.Key {
	buf := make([]byte, 4+len(s))
	binary.BigEndian.PutUint32(buf, a)
	copy(buf[4:], s)
	return index.NewGenericKey(buf)
}

func u32u32Key(a, b uint32) index.Key {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint32(buf[:4], a)
	binary.BigEndian.PutUint32(buf[4:], b)
	return index.NewGenericKey(buf)
}

func stringKey(s string) index.Key { return index.NewGenericKey([]byte(s)) }

// nextOID allocates the next user OID. Built-in OIDs below FirstUserOID
// are never reissued.
func (c *Catalog) nextOID() OID {
	return c.oidCounter.Add(1)
}

// rowInit returns a fresh initializer for a table's full column set.
// Catalog tables are small and read/written whole-row, so every call
// simply builds a new initializer over the full column set.
func rowInit(layout *block.Layout, cols []block.ColumnID) *row.Initializer {
	return row.NewInitializer(layout, cols)
}
