package postgres

import "github.com/jackc/pgx/v5/pgxpool"

// Repositories groups concrete PostgreSQL repository implementations.
type Repositories struct {
	Users     *UserRepository
	Folders   *FolderRepository
	Documents *DocumentRepository
	Versions  *VersionRepository
	Comments  *CommentRepository
	Grants    *GrantRepository
	Activity  *ActivityRepository
}

// NewRepositories wires all repositories backed by the provided pool.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Users:     NewUserRepository(pool),
		Folders:   NewFolderRepository(pool),
		Documents: NewDocumentRepository(pool),
		Versions:  NewVersionRepository(pool),
		Comments:  NewCommentRepository(pool),
		Grants:    NewGrantRepository(pool),
		Activity:  NewActivityRepository(pool),
	}
}
