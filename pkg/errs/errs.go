// Package errs defines the error-kind taxonomy shared by the storage
// and catalog layers. Callers compare with errors.Is; most kinds carry
// no dynamic payload, so wrapping with fmt.Errorf("...: %w", ...) is
// the way to attach context.
package errs

import "errors"

var (
	// ErrWriteWriteConflict is returned by DataTable.Update/Delete when
	// the version chain head belongs to a transaction the caller cannot
	// write over. The caller's txn has already been marked must-abort.
	ErrWriteWriteConflict = errors.New("write-write conflict")

	// ErrDuplicateKey names a unique-key violation. Index.InsertUnique
	// and Index.ConditionalInsert do not return it: they report a
	// rejected insert through their boolean results.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrOidConflict is returned by catalog DDL when a name or OID
	// already exists in the relevant index.
	ErrOidConflict = errors.New("oid or name already exists")

	// ErrInvalidReference is returned by catalog accessors when an OID
	// is absent or refers to the wrong kind of object.
	ErrInvalidReference = errors.New("invalid catalog reference")

	// ErrDdlLockRejection is returned when a transaction attempts DDL
	// after a newer transaction has already committed DDL against the
	// same database.
	ErrDdlLockRejection = errors.New("ddl write lock held by a newer transaction")

	// ErrBootstrapAssertionFailure indicates a bug in catalog bootstrap.
	// It is fatal: callers should not attempt to recover from it.
	ErrBootstrapAssertionFailure = errors.New("bootstrap assertion failure")

	// ErrMustAbort is returned by Commit when the transaction's
	// must-abort flag was already set; the manager diverts to Abort.
	ErrMustAbort = errors.New("transaction must abort")

	// ErrTxnFinished names an operation attempted against a transaction
	// that has already committed or aborted. No function in this module
	// returns it; Txn methods do not check whether the transaction has
	// finished.
	ErrTxnFinished = errors.New("transaction already finished")

	// ErrAlreadyBootstrapped is returned by catalog.Bootstrap when a
	// database has already been bootstrapped.
	ErrAlreadyBootstrapped = errors.New("database already bootstrapped")

	// ErrConstraintsRemain is returned by DeleteTable when pg_constraint
	// still has live rows referencing the table being dropped.
	ErrConstraintsRemain = errors.New("table has live constraints")
)
