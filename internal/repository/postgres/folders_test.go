package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/pwysocki/docvault/internal/core/domain"
	"github.com/pwysocki/docvault/internal/repository"
)

func TestFolderRepository_DeleteMoveToParent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewFolderRepository(mock)

	parentID := "parent-1"
	folder := &domain.Folder{ID: "folder-1", Name: "doomed", OwnerID: "owner", ParentID: &parentID}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE docvault\.folders SET parent_id = \$1 WHERE parent_id = \$2`).
		WithArgs(&parentID, folder.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))
	mock.ExpectExec(`UPDATE docvault\.documents SET folder_id = \$1 WHERE folder_id = \$2 AND deleted = FALSE`).
		WithArgs(&parentID, folder.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))
	mock.ExpectExec(`UPDATE docvault\.documents SET folder_id = \$1 WHERE folder_id = \$2 AND deleted = TRUE`).
		WithArgs(&parentID, folder.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`DELETE FROM docvault\.folders WHERE id = \$1`).
		WithArgs(folder.ID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	result, err := repo.DeleteWithDisposition(context.Background(), folder, domain.DeletionMoveToParent, nil)
	if err != nil {
		t.Fatalf("DeleteWithDisposition returned error: %v", err)
	}
	// Soft-deleted rows are reassigned by the second update but never counted.
	if result.MovedFolders != 2 || result.MovedDocuments != 3 {
		t.Fatalf("unexpected disposition: %+v", result)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFolderRepository_DeleteAll(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewFolderRepository(mock)

	folder := &domain.Folder{ID: "folder-1", Name: "doomed", OwnerID: "owner"}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE docvault\.documents SET deleted = TRUE WHERE folder_id = \$1`).
		WithArgs(folder.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))
	mock.ExpectExec(`DELETE FROM docvault\.documents WHERE folder_id IN`).
		WithArgs(folder.ID).
		WillReturnResult(pgxmock.NewResult("DELETE", 4))
	mock.ExpectExec(`DELETE FROM docvault\.folders WHERE id IN`).
		WithArgs(folder.ID).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectExec(`DELETE FROM docvault\.folders WHERE id = \$1`).
		WithArgs(folder.ID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	result, err := repo.DeleteWithDisposition(context.Background(), folder, domain.DeletionDeleteAll, nil)
	if err != nil {
		t.Fatalf("DeleteWithDisposition returned error: %v", err)
	}
	if result.MovedDocuments != 2 {
		t.Fatalf("expected 2 soft-deleted documents, got %d", result.MovedDocuments)
	}
	if result.MovedFolders != 3 {
		t.Fatalf("expected 3 removed subtree folders, got %d", result.MovedFolders)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFolderRepository_DeleteRollsBackOnReassignFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewFolderRepository(mock)

	folder := &domain.Folder{ID: "folder-1", Name: "doomed", OwnerID: "owner"}
	targetID := "dest-1"

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE docvault\.folders SET parent_id = \$1 WHERE parent_id = \$2`).
		WithArgs(&targetID, folder.ID).
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	_, err = repo.DeleteWithDisposition(context.Background(), folder, domain.DeletionMoveToTarget, &targetID)
	if err == nil {
		t.Fatal("expected error from failed reassignment")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFolderRepository_DeleteMapsUniqueViolationToConflict(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewFolderRepository(mock)

	folder := &domain.Folder{ID: "folder-1", Name: "doomed", OwnerID: "owner"}
	targetID := "dest-1"

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE docvault\.folders SET parent_id = \$1 WHERE parent_id = \$2`).
		WithArgs(&targetID, folder.ID).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	_, err = repo.DeleteWithDisposition(context.Background(), folder, domain.DeletionMoveToTarget, &targetID)
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("expected ErrConflict on unique violation, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFolderRepository_DeleteMapsDocumentConflict(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewFolderRepository(mock)

	parentID := "parent-1"
	folder := &domain.Folder{ID: "folder-1", Name: "doomed", OwnerID: "owner", ParentID: &parentID}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE docvault\.folders SET parent_id = \$1 WHERE parent_id = \$2`).
		WithArgs(&parentID, folder.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE docvault\.documents SET folder_id = \$1 WHERE folder_id = \$2 AND deleted = FALSE`).
		WithArgs(&parentID, folder.ID).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	_, err = repo.DeleteWithDisposition(context.Background(), folder, domain.DeletionMoveToParent, nil)
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("expected ErrConflict on unique violation, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFolderRepository_GetByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewFolderRepository(mock)

	mock.ExpectQuery(`SELECT .*FROM docvault\.folders`).
		WithArgs("ghost").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "description", "owner_id", "parent_id", "created_at"}))

	_, err = repo.GetByID(context.Background(), "ghost")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFolderRepository_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewFolderRepository(mock)

	createdAt := time.Now().UTC()
	rows := pgxmock.NewRows([]string{"id", "name", "description", "owner_id", "parent_id", "created_at"}).
		AddRow("folder-1", "reports", "quarterly reports", "owner", nil, createdAt)

	mock.ExpectQuery(`SELECT .*FROM docvault\.folders`).
		WithArgs("folder-1").
		WillReturnRows(rows)

	folder, err := repo.GetByID(context.Background(), "folder-1")
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if folder.Name != "reports" || folder.ParentID != nil {
		t.Fatalf("unexpected folder: %+v", folder)
	}
}
