package service

import (
	"errors"
	"testing"
	"time"

	"github.com/Mohmk10/sencours-back-sub000/internal/authorization"
	"github.com/Mohmk10/sencours-back-sub000/internal/models"
)

const learnerID = 42

func newProgressWorld(lessonCount int) (*fakeStore, *ProgressService, *models.Enrollment, []*models.Lesson) {
	store := newFakeStore()
	course := store.addCourse(7, models.CourseStatusPublished, 0)
	section := store.addSection(course.ID, "Basics")

	lessons := make([]*models.Lesson, 0, lessonCount)
	for i := 0; i < lessonCount; i++ {
		lessons = append(lessons, store.addLesson(section.ID, "Lesson"))
	}

	enrollment := store.addEnrollment(learnerID, course.ID)

	svc := NewProgressService(&fakeEnrollmentRepo{store: store}, &fakeProgressRepo{store: store})
	return store, svc, enrollment, lessons
}

func TestMarkCompletedProgression(t *testing.T) {
	store, svc, enrollment, lessons := newProgressWorld(3)

	for _, lesson := range lessons[:2] {
		if _, err := svc.MarkCompleted(learnerID, authorization.RoleStudent, enrollment.ID, lesson.ID); err != nil {
			t.Fatalf("MarkCompleted: %v", err)
		}
	}

	stored := store.enrollments[enrollment.ID]
	if stored.ProgressPercentage != 66 {
		t.Fatalf("expected 66%% after 2 of 3, got %d", stored.ProgressPercentage)
	}
	if stored.CompletedAt != nil {
		t.Fatal("enrollment must not be complete at 2 of 3")
	}

	if _, err := svc.MarkCompleted(learnerID, authorization.RoleStudent, enrollment.ID, lessons[2].ID); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	stored = store.enrollments[enrollment.ID]
	if stored.ProgressPercentage != 100 {
		t.Fatalf("expected 100%%, got %d", stored.ProgressPercentage)
	}
	if stored.CompletedAt == nil {
		t.Fatal("enrollment must be complete at 3 of 3")
	}
}

func TestMarkCompletedIsIdempotent(t *testing.T) {
	store, svc, enrollment, lessons := newProgressWorld(1)

	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return first }

	row, err := svc.MarkCompleted(learnerID, authorization.RoleStudent, enrollment.ID, lessons[0].ID)
	if err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	if row.CompletedAt == nil || !row.CompletedAt.Equal(first) {
		t.Fatalf("expected completion at %v, got %v", first, row.CompletedAt)
	}

	completedAt := *store.enrollments[enrollment.ID].CompletedAt

	svc.now = func() time.Time { return first.Add(time.Hour) }
	again, err := svc.MarkCompleted(learnerID, authorization.RoleStudent, enrollment.ID, lessons[0].ID)
	if err != nil {
		t.Fatalf("repeat MarkCompleted: %v", err)
	}
	if !again.CompletedAt.Equal(first) {
		t.Fatalf("repeat completion moved the row timestamp to %v", again.CompletedAt)
	}
	if !store.enrollments[enrollment.ID].CompletedAt.Equal(completedAt) {
		t.Fatal("repeat completion moved the enrollment timestamp")
	}
}

func TestMarkIncompleteIsIdempotent(t *testing.T) {
	store, svc, enrollment, lessons := newProgressWorld(2)

	row, err := svc.MarkIncomplete(learnerID, authorization.RoleStudent, enrollment.ID, lessons[0].ID)
	if err != nil {
		t.Fatalf("MarkIncomplete: %v", err)
	}
	if row.Completed || row.CompletedAt != nil {
		t.Fatal("row must stay incomplete")
	}
	if store.enrollments[enrollment.ID].ProgressPercentage != 0 {
		t.Fatal("percentage must stay at zero")
	}
}

func TestMarkIncompleteResetsCompletion(t *testing.T) {
	store, svc, enrollment, lessons := newProgressWorld(3)

	firstRun := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return firstRun }

	for _, lesson := range lessons {
		if _, err := svc.MarkCompleted(learnerID, authorization.RoleStudent, enrollment.ID, lesson.ID); err != nil {
			t.Fatalf("MarkCompleted: %v", err)
		}
	}
	if store.enrollments[enrollment.ID].CompletedAt == nil {
		t.Fatal("enrollment should be complete")
	}

	if _, err := svc.MarkIncomplete(learnerID, authorization.RoleStudent, enrollment.ID, lessons[1].ID); err != nil {
		t.Fatalf("MarkIncomplete: %v", err)
	}

	stored := store.enrollments[enrollment.ID]
	if stored.CompletedAt != nil {
		t.Fatal("completion stamp must be cleared when a lesson goes incomplete")
	}
	if stored.ProgressPercentage != 66 {
		t.Fatalf("expected 66%% after reset, got %d", stored.ProgressPercentage)
	}

	secondRun := firstRun.Add(48 * time.Hour)
	svc.now = func() time.Time { return secondRun }
	if _, err := svc.MarkCompleted(learnerID, authorization.RoleStudent, enrollment.ID, lessons[1].ID); err != nil {
		t.Fatalf("re-complete: %v", err)
	}

	stored = store.enrollments[enrollment.ID]
	if stored.CompletedAt == nil || !stored.CompletedAt.Equal(secondRun) {
		t.Fatalf("re-completion must stamp a fresh time, got %v", stored.CompletedAt)
	}
}

func TestEmptyEnrollmentNeverCompletes(t *testing.T) {
	store, svc, enrollment, _ := newProgressWorld(0)

	if err := svc.RecomputeCompletion(enrollment.ID); err != nil {
		t.Fatalf("RecomputeCompletion: %v", err)
	}

	stored := store.enrollments[enrollment.ID]
	if stored.CompletedAt != nil {
		t.Fatal("an enrollment with no lessons must not be complete")
	}
	if stored.ProgressPercentage != 0 {
		t.Fatalf("expected 0%%, got %d", stored.ProgressPercentage)
	}
}

func TestProgressRequiresOwnership(t *testing.T) {
	_, svc, enrollment, lessons := newProgressWorld(1)

	if _, err := svc.MarkCompleted(99, authorization.RoleStudent, enrollment.ID, lessons[0].ID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner for a stranger, got %v", err)
	}
	if _, err := svc.MarkCompleted(99, authorization.RoleAdmin, enrollment.ID, lessons[0].ID); err != nil {
		t.Fatalf("admin must be allowed, got %v", err)
	}
}

func TestGetReportOrdersItems(t *testing.T) {
	store := newFakeStore()
	course := store.addCourse(7, models.CourseStatusPublished, 0)
	intro := store.addSection(course.ID, "Intro")
	advanced := store.addSection(course.ID, "Advanced")
	first := store.addLesson(intro.ID, "First")
	second := store.addLesson(intro.ID, "Second")
	third := store.addLesson(advanced.ID, "Third")
	enrollment := store.addEnrollment(learnerID, course.ID)

	svc := NewProgressService(&fakeEnrollmentRepo{store: store}, &fakeProgressRepo{store: store})

	if _, err := svc.MarkCompleted(learnerID, authorization.RoleStudent, enrollment.ID, second.ID); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	report, err := svc.GetReport(learnerID, authorization.RoleStudent, enrollment.ID)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}

	if report.Summary.TotalLessons != 3 || report.Summary.Completed != 1 {
		t.Fatalf("unexpected summary: %+v", report.Summary)
	}
	if report.Summary.Percentage != 33 {
		t.Fatalf("expected 33%%, got %d", report.Summary.Percentage)
	}

	wantOrder := []uint{first.ID, second.ID, third.ID}
	if len(report.Items) != len(wantOrder) {
		t.Fatalf("expected %d items, got %d", len(wantOrder), len(report.Items))
	}
	for i, item := range report.Items {
		if item.LessonID != wantOrder[i] {
			t.Fatalf("item %d: expected lesson %d, got %d", i, wantOrder[i], item.LessonID)
		}
	}
}
