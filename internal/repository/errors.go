// Package repository holds the MySQL side of the service: login
// credentials, refresh tokens, the payout rail and the event journal.
// Engine state itself lives in memory and in the snapshot store.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrAccountExists is returned by AccountRepo.Create when the account
// already has credentials.  Handlers translate it into HTTP 409.
var ErrAccountExists = errors.New("account already exists")

// isDuplicate reports a MySQL unique-key violation (error 1062).
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return strings.Contains(err.Error(), "1062")
}
