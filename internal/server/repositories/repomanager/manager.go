package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gridconsole/internal/dbx"
	"github.com/dmitrijs2005/gridconsole/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/gridconsole/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to either a *sql.DB or a
// transaction, so services can run several repositories in one tx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
