package attempt

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("opening sqlmock: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("opening gorm: %v", err)
	}
	return db, mock
}

func attemptColumns() []string {
	return []string{"id", "created_at", "updated_at", "quiz_id", "participant_email", "started_at", "submitted", "taken_at"}
}

func TestCreateOrGetAttemptInsertsWithConflictGuard(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)
	startedAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "quiz_attempts" .*ON CONFLICT \("quiz_id","participant_email"\) DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectCommit()

	att, isNew, err := repo.CreateOrGetAttempt(3, "a@b.com", startedAt)
	if err != nil {
		t.Fatalf("CreateOrGetAttempt() error = %v", err)
	}
	if !isNew {
		t.Error("fresh insert not reported as new")
	}
	if att.ID != 7 {
		t.Errorf("attempt id = %d, want 7", att.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCreateOrGetAttemptFallsBackToSelectOnConflict(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)
	startedAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	earlier := startedAt.Add(-5 * time.Minute)

	// The losing insert affects zero rows; the existing attempt is selected
	// and its original StartedAt survives.
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "quiz_attempts" .*DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT \* FROM "quiz_attempts" WHERE quiz_id = \$1 AND participant_email = \$2`).
		WillReturnRows(sqlmock.NewRows(attemptColumns()).
			AddRow(7, earlier, earlier, 3, "a@b.com", earlier, false, nil))

	att, isNew, err := repo.CreateOrGetAttempt(3, "a@b.com", startedAt)
	if err != nil {
		t.Fatalf("CreateOrGetAttempt() error = %v", err)
	}
	if isNew {
		t.Error("conflicting insert reported as new")
	}
	if !att.StartedAt.Equal(earlier) {
		t.Errorf("StartedAt = %v, want original %v", att.StartedAt, earlier)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGetAttemptNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "quiz_attempts"`).
		WillReturnRows(sqlmock.NewRows(attemptColumns()))

	_, err := repo.GetAttempt(99)
	if !errors.Is(err, ErrAttemptNotFound) {
		t.Errorf("err = %v, want ErrAttemptNotFound", err)
	}
}

func TestMarkSubmittedConditionalUpdate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)
	takenAt := time.Date(2025, 3, 1, 10, 5, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "quiz_attempts" SET .* WHERE id = \$\d+ AND submitted = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	won, err := repo.MarkSubmitted(7, takenAt)
	if err != nil {
		t.Fatalf("MarkSubmitted() error = %v", err)
	}
	if !won {
		t.Error("winning transition reported as lost")
	}

	// Second caller: the guard matches no row.
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "quiz_attempts" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	won, err = repo.MarkSubmitted(7, takenAt)
	if err != nil {
		t.Fatalf("MarkSubmitted() error = %v", err)
	}
	if won {
		t.Error("already-submitted transition reported as won")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpsertAnswerUsesOnConflictUpdate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "attempt_answers" .*ON CONFLICT \("attempt_id","question_id"\) DO UPDATE SET`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	if err := repo.UpsertAnswer(7, 13, "y"); err != nil {
		t.Fatalf("UpsertAnswer() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestListAnswersReturnsSnapshot(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	now := time.Now()
	mock.ExpectQuery(`SELECT \* FROM "attempt_answers" WHERE attempt_id = \$1`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at", "attempt_id", "question_id", "answer"}).
			AddRow(1, now, now, 7, 13, "y").
			AddRow(2, now, now, 7, 14, ""))

	rows, err := repo.ListAnswers(7)
	if err != nil {
		t.Fatalf("ListAnswers() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("%d rows, want 2", len(rows))
	}
	if rows[0].Answer != "y" || rows[1].Answer != "" {
		t.Error("snapshot values wrong")
	}
}
