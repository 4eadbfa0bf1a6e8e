package storage

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const pgUniqueViolation = "23505"

// uniqueViolation reports whether err is a unique-constraint failure and, if
// so, a description naming the constraint or columns involved.
func uniqueViolation(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == pgUniqueViolation {
			return pqErr.Constraint + " " + pqErr.Detail, true
		}
		return "", false
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch code := liteErr.Code(); {
		case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE, code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return liteErr.Error(), true
		case code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "UNIQUE constraint failed"):
			return liteErr.Error(), true
		}
	}
	return "", false
}

// violates reports whether a unique violation mentions column (e.g. "slug"
// matches "articles_slug_key" and "UNIQUE constraint failed: articles.slug").
func violates(err error, table, column string) bool {
	desc, ok := uniqueViolation(err)
	if !ok {
		return false
	}
	return strings.Contains(desc, table+"_"+column+"_key") || strings.Contains(desc, table+"."+column)
}
