package org

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

func pgconnTag(rows int) pgconn.CommandTag {
	return pgconn.NewCommandTag(fmt.Sprintf("UPDATE %d", rows))
}
