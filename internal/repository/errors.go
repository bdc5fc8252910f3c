// Package repository defines the persistence contracts (UserStore,
// CategoryStore, TransactionStore) and their MySQL implementations.
// Each entity keeps its sentinel errors next to its repository so
// handlers can translate failures without inspecting driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// MySQL error number for a duplicate key violation.
const dupEntry = 1062

// isDuplicateKey reports whether err is a unique-constraint violation.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == dupEntry
}
