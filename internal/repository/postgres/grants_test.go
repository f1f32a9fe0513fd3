package postgres

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/pwysocki/docvault/internal/core/domain"
)

func TestGrantRepository_UpsertDeactivatesThenInserts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewGrantRepository(mock)

	grantedAt := time.Now().UTC()
	grant := domain.PermissionGrant{
		ID:           "grant-1",
		SubjectID:    "user-2",
		ResourceType: domain.ResourceDocument,
		ResourceID:   "doc-1",
		Kind:         domain.PermBrowse,
		GrantedBy:    "user-1",
		GrantedAt:    grantedAt,
		Active:       true,
	}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE docvault\.permission_grants SET active = FALSE`).
		WithArgs(grant.SubjectID, grant.ResourceType, grant.ResourceID, grant.Kind).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`INSERT INTO docvault\.permission_grants`).
		WithArgs(grant.ID, grant.SubjectID, grant.ResourceType, grant.ResourceID, grant.Kind,
			grant.GrantedBy, grant.GrantedAt, grant.ExpiresAt, grant.Active).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	if err := repo.Upsert(context.Background(), grant); err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGrantRepository_UpsertRollsBackOnInsertFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewGrantRepository(mock)

	grant := domain.PermissionGrant{
		ID:           "grant-1",
		SubjectID:    "user-2",
		ResourceType: domain.ResourceDocument,
		ResourceID:   "doc-1",
		Kind:         domain.PermBrowse,
		GrantedBy:    "user-1",
		GrantedAt:    time.Now().UTC(),
		Active:       true,
	}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE docvault\.permission_grants SET active = FALSE`).
		WithArgs(grant.SubjectID, grant.ResourceType, grant.ResourceID, grant.Kind).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectExec(`INSERT INTO docvault\.permission_grants`).
		WithArgs(grant.ID, grant.SubjectID, grant.ResourceType, grant.ResourceID, grant.Kind,
			grant.GrantedBy, grant.GrantedAt, grant.ExpiresAt, grant.Active).
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	if err := repo.Upsert(context.Background(), grant); err == nil {
		t.Fatal("expected error from failed insert")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGrantRepository_RevokeAllReportsCount(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewGrantRepository(mock)

	mock.ExpectExec(`UPDATE docvault\.permission_grants SET active = \$1`).
		WithArgs(false, true, "doc-1", domain.ResourceDocument, "user-2").
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	revoked, err := repo.RevokeAll(context.Background(), "user-2", domain.DocumentRef("doc-1"))
	if err != nil {
		t.Fatalf("RevokeAll returned error: %v", err)
	}
	if revoked != 3 {
		t.Fatalf("expected 3 revoked grants, got %d", revoked)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGrantRepository_ActiveKindsFiltersExpired(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewGrantRepository(mock)

	rows := pgxmock.NewRows([]string{"kind"}).
		AddRow(domain.PermBrowse).
		AddRow(domain.PermComment)

	mock.ExpectQuery(`SELECT kind FROM docvault\.permission_grants`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(rows)

	set, err := repo.ActiveKinds(context.Background(), "user-2", domain.DocumentRef("doc-1"), time.Now().UTC())
	if err != nil {
		t.Fatalf("ActiveKinds returned error: %v", err)
	}
	if !set.Has(domain.PermBrowse) || !set.Has(domain.PermComment) {
		t.Fatalf("unexpected grant set: %v", set.Kinds())
	}
	if set.Has(domain.PermChange) {
		t.Fatal("change must not be present")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
