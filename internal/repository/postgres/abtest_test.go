package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/marketpulse/campaignhub/internal/domain"
	"github.com/marketpulse/campaignhub/internal/service/abtest"
)

func assignmentRun() *abtest.AssignmentRun {
	now := time.Now()
	winner := "v1"
	conf := 72.5
	return &abtest.AssignmentRun{
		Test: &domain.ABTest{
			ID: "t1", UserID: "user-1", CampaignID: "camp-1",
			Status:            domain.ABTestRunning,
			WinnerVariationID: &winner,
			ConfidenceLevel:   &conf,
			StartedAt:         &now,
		},
		Variations: []domain.ABVariation{
			{ID: "v1", TestID: "t1", Name: "A", AudienceCount: 5, SentCount: 4, ClickedCount: 2, CTR: 50},
			{ID: "v2", TestID: "t1", Name: "B", AudienceCount: 5, SentCount: 4, ClickedCount: 1, CTR: 25},
		},
		Results: []domain.ABResult{
			{ID: "r1", TestID: "t1", VariationID: "v1", CustomerID: "c1", MessageSent: true, SentAt: &now, CreatedAt: now},
			{ID: "r2", TestID: "t1", VariationID: "v2", CustomerID: "c2", CreatedAt: now},
		},
	}
}

func TestSaveAssignmentCommitsAtomically(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewABTestRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE ab_tests`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE ab_test_variations`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE ab_test_variations`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO ab_test_results`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO ab_test_results`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.SaveAssignment(context.Background(), "user-1", assignmentRun()); err != nil {
		t.Fatalf("save assignment: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSaveAssignmentRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewABTestRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE ab_tests`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE ab_test_variations`).WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	if err := repo.SaveAssignment(context.Background(), "user-1", assignmentRun()); err == nil {
		t.Fatal("expected error from failed variation update")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("rollback not issued: %v", err)
	}
}

func TestSaveAssignmentUnknownTest(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewABTestRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE ab_tests`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	if err := repo.SaveAssignment(context.Background(), "user-1", assignmentRun()); err != abtest.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestABTestGetNotFound(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewABTestRepo(db)

	mock.ExpectQuery(`SELECT .+ FROM ab_tests`).
		WithArgs("missing", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if _, _, err := repo.Get(context.Background(), "user-1", "missing"); err != abtest.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
