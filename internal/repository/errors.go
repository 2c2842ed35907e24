// Package repository holds the MySQL data access layer.  This file
// defines error values reused across repositories.  These sentinel
// values allow higher layers such as handlers to distinguish between
// different failure scenarios without looking at driver errors.
package repository

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a catalog row does not exist.  Handlers
// translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write violates a unique key, such as
// creating a second theme with the same name.  Handlers translate this
// into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned when registering an email that is taken.
var ErrEmailExists = errors.New("email already exists")

// ErrInvalidReference is returned when a write points at a row that
// does not exist (foreign key failure).
var ErrInvalidReference = errors.New("referenced row does not exist")

// MySQL server error numbers the repositories react to.
const (
	errDupEntry        = 1062
	errNoReferencedRow = 1452
)

func mysqlErrNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

func isDuplicate(err error) bool { return mysqlErrNumber(err) == errDupEntry }

func isMissingReference(err error) bool { return mysqlErrNumber(err) == errNoReferencedRow }

// duplicateEntry extracts the quoted key value from a 1062 message such
// as "Duplicate entry '7-2-3' for key 'tickets.uq_tickets_seat'".
func duplicateEntry(err error) (string, bool) {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != errDupEntry {
		return "", false
	}
	msg := me.Message
	start := strings.Index(msg, "'")
	if start < 0 {
		return "", false
	}
	end := strings.Index(msg[start+1:], "'")
	if end < 0 {
		return "", false
	}
	return msg[start+1 : start+1+end], true
}

// splitUints parses "a-b-c" into its unsigned components.
func splitUints(s string, n int) ([]uint64, bool) {
	parts := strings.Split(s, "-")
	if len(parts) != n {
		return nil, false
	}
	out := make([]uint64, n)
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}
