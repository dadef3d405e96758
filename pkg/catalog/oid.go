// Package catalog implements the self-describing system catalog:
// pg_namespace, pg_class, pg_attribute, pg_index, pg_type, and
// pg_constraint, each backed by the same table.DataTable and index
// primitives that user tables use, bootstrapped in a single
// transaction before any accessor is handed out.
package catalog

// OID is a stable, process-lifetime-unique numeric identifier for a
// catalog object: a namespace, a class (table or index), a column, a
// type, or a constraint.
type OID = uint32

// InvalidOID never names a real catalog object.
const InvalidOID OID = 0

// ColumnOID is the stable per-table column identifier pg_attribute
// assigns (AttributeRow.Colnum): unlike a block.ColumnID, which is a
// physical slot in one table's row layout, a ColumnOID never changes
// for the lifetime of the column, even if the table is rewritten.
type ColumnOID = int32

// Reserved OIDs for objects materialized at bootstrap. User-created
// objects receive OIDs above FirstUserOID; recovery restores the
// counter by scanning for the maximum observed OID, so these values
// must never change across releases.
const (
	NamespacePgCatalogOID OID = 1
	NamespacePublicOID    OID = 2

	ClassPgNamespaceOID   OID = 10
	ClassPgClassOID       OID = 11
	ClassPgIndexOID       OID = 12
	ClassPgAttributeOID   OID = 13
	ClassPgTypeOID        OID = 14
	ClassPgConstraintOID  OID = 15

	IndexPgNamespaceOidOID  OID = 20
	IndexPgNamespaceNameOID OID = 21
	IndexPgClassOidOID      OID = 22
	IndexPgClassNameOID     OID = 23
	IndexPgClassNsOID       OID = 24
	IndexPgIndexOidOID      OID = 25
	IndexPgIndexRelidOID    OID = 26
	IndexPgAttributeColOID  OID = 27
	IndexPgAttributeNameOID OID = 28
	IndexPgAttributeRelOID  OID = 29
	IndexPgTypeOidOID       OID = 30
	IndexPgTypeNameOID      OID = 31
	IndexPgConstraintOidOID     OID = 32
	IndexPgConstraintNameOID    OID = 33
	IndexPgConstraintNsOID      OID = 34
	IndexPgConstraintRelOID     OID = 35
	IndexPgConstraintIdxOID     OID = 36
	IndexPgConstraintFRelOID    OID = 37

	// TypeBooleanOID through TypeVarbinaryOID are the built-in type
	// tags inserted into pg_type at bootstrap.
	TypeBooleanOID   OID = 40
	TypeTinyintOID   OID = 41
	TypeSmallintOID  OID = 42
	TypeIntegerOID   OID = 43
	TypeBigintOID    OID = 44
	TypeDecimalOID   OID = 45
	TypeTimestampOID OID = 46
	TypeDateOID      OID = 47
	TypeVarcharOID   OID = 48
	TypeVarbinaryOID OID = 49

	// FirstUserOID is the sentinel the OID counter starts from: the
	// first user-created namespace, table, index, or constraint receives
	// FirstUserOID+1. Every built-in OID above is below this sentinel.
	FirstUserOID OID = 1000
)

// ClassKind distinguishes the two kinds of pg_class entry.
type ClassKind byte

const (
	RegularTable ClassKind = iota
	Index
)
