package service

import (
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/Mohmk10/sencours-back-sub000/internal/authorization"
	"github.com/Mohmk10/sencours-back-sub000/internal/models"
	"github.com/Mohmk10/sencours-back-sub000/internal/repository"
)

const instructorID = 7

func newSectionService(store *fakeStore) *SectionService {
	progress := NewProgressService(&fakeEnrollmentRepo{store: store}, &fakeProgressRepo{store: store})
	return NewSectionService(
		&fakeCourseRepo{store: store},
		&fakeSectionRepo{store: store},
		&fakeEnrollmentRepo{store: store},
		progress,
		3,
	)
}

func TestCreateSectionAppendsAtEnd(t *testing.T) {
	store := newFakeStore()
	course := store.addCourse(instructorID, models.CourseStatusDraft, 0)
	svc := newSectionService(store)

	titles := []string{"Intro", "Middle", "Outro"}
	for i, title := range titles {
		section, err := svc.Create(instructorID, authorization.RoleInstructor, course.ID, models.CreateSectionRequest{Title: title})
		if err != nil {
			t.Fatalf("Create(%q): %v", title, err)
		}
		if section.OrderIndex != i+1 {
			t.Fatalf("section %q: expected index %d, got %d", title, i+1, section.OrderIndex)
		}
	}
}

func TestReorderSectionsAppliesPermutation(t *testing.T) {
	store := newFakeStore()
	course := store.addCourse(instructorID, models.CourseStatusDraft, 0)
	a := store.addSection(course.ID, "A")
	b := store.addSection(course.ID, "B")
	c := store.addSection(course.ID, "C")
	svc := newSectionService(store)

	sections, err := svc.Reorder(instructorID, authorization.RoleInstructor, course.ID, []uint{c.ID, a.ID, b.ID})
	if err != nil {
		t.Fatalf("Reorder: %v", err)
	}

	wantOrder := []uint{c.ID, a.ID, b.ID}
	for i, section := range sections {
		if section.ID != wantOrder[i] {
			t.Fatalf("position %d: expected section %d, got %d", i+1, wantOrder[i], section.ID)
		}
		if section.OrderIndex != i+1 {
			t.Fatalf("section %d: expected index %d, got %d", section.ID, i+1, section.OrderIndex)
		}
	}
}

func TestReorderSectionsRejectsPartialList(t *testing.T) {
	store := newFakeStore()
	course := store.addCourse(instructorID, models.CourseStatusDraft, 0)
	a := store.addSection(course.ID, "A")
	store.addSection(course.ID, "B")
	svc := newSectionService(store)

	_, err := svc.Reorder(instructorID, authorization.RoleInstructor, course.ID, []uint{a.ID})
	if !IsValidationError(err) {
		t.Fatalf("expected validation error for partial list, got %v", err)
	}

	if got := store.sections[a.ID].OrderIndex; got != 1 {
		t.Fatalf("rejected reorder must not touch indexes, got %d", got)
	}
}

func TestReorderSectionsRejectsForeignSection(t *testing.T) {
	store := newFakeStore()
	course := store.addCourse(instructorID, models.CourseStatusDraft, 0)
	other := store.addCourse(instructorID, models.CourseStatusDraft, 0)
	store.addSection(course.ID, "Mine")
	foreign := store.addSection(other.ID, "Foreign")
	svc := newSectionService(store)

	_, err := svc.Reorder(instructorID, authorization.RoleInstructor, course.ID, []uint{foreign.ID})
	if !errors.Is(err, ErrSectionNotInCourse) {
		t.Fatalf("expected ErrSectionNotInCourse, got %v", err)
	}
}

func TestReorderSectionsUnknownID(t *testing.T) {
	store := newFakeStore()
	course := store.addCourse(instructorID, models.CourseStatusDraft, 0)
	store.addSection(course.ID, "A")
	svc := newSectionService(store)

	_, err := svc.Reorder(instructorID, authorization.RoleInstructor, course.ID, []uint{9999})
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found, got %v", err)
	}
}

func TestDeleteSectionClosesGapAndRecomputes(t *testing.T) {
	store := newFakeStore()
	course := store.addCourse(instructorID, models.CourseStatusPublished, 0)
	intro := store.addSection(course.ID, "Intro")
	extras := store.addSection(course.ID, "Extras")
	outro := store.addSection(course.ID, "Outro")
	introLesson := store.addLesson(intro.ID, "Welcome")
	extraLesson := store.addLesson(extras.ID, "Bonus")
	outroLesson := store.addLesson(outro.ID, "Goodbye")
	enrollment := store.addEnrollment(learnerID, course.ID)

	progress := NewProgressService(&fakeEnrollmentRepo{store: store}, &fakeProgressRepo{store: store})
	svc := NewSectionService(
		&fakeCourseRepo{store: store},
		&fakeSectionRepo{store: store},
		&fakeEnrollmentRepo{store: store},
		progress,
		3,
	)

	// The learner finished everything except the bonus section.
	for _, lessonID := range []uint{introLesson.ID, outroLesson.ID} {
		if _, err := progress.MarkCompleted(learnerID, authorization.RoleStudent, enrollment.ID, lessonID); err != nil {
			t.Fatalf("MarkCompleted: %v", err)
		}
	}
	if store.enrollments[enrollment.ID].CompletedAt != nil {
		t.Fatal("enrollment must not be complete before the delete")
	}

	if err := svc.Delete(instructorID, authorization.RoleInstructor, extras.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if store.sections[intro.ID].OrderIndex != 1 || store.sections[outro.ID].OrderIndex != 2 {
		t.Fatalf("expected dense indexes 1,2 after delete, got %d,%d",
			store.sections[intro.ID].OrderIndex, store.sections[outro.ID].OrderIndex)
	}
	for _, row := range store.progresses {
		if row.LessonID == extraLesson.ID {
			t.Fatal("progress rows of the deleted section must be gone")
		}
	}

	stored := store.enrollments[enrollment.ID]
	if stored.CompletedAt == nil || stored.ProgressPercentage != 100 {
		t.Fatalf("deleting the only unfinished lessons must complete the enrollment, got %d%% complete_at=%v",
			stored.ProgressPercentage, stored.CompletedAt)
	}
}

// conflictingSectionRepo fails the first renumbering attempt the way a
// concurrent writer would, then lets the retry through.
type conflictingSectionRepo struct {
	repository.SectionRepository
	remaining int
}

func (r *conflictingSectionRepo) Reorder(courseID, expectedVersion uint, sections []models.Section) error {
	if r.remaining > 0 {
		r.remaining--
		return repository.ErrOrderingConflict
	}
	return r.SectionRepository.Reorder(courseID, expectedVersion, sections)
}

func TestReorderSectionsRetriesAfterConflict(t *testing.T) {
	store := newFakeStore()
	course := store.addCourse(instructorID, models.CourseStatusDraft, 0)
	a := store.addSection(course.ID, "A")
	b := store.addSection(course.ID, "B")

	progress := NewProgressService(&fakeEnrollmentRepo{store: store}, &fakeProgressRepo{store: store})
	svc := NewSectionService(
		&fakeCourseRepo{store: store},
		&conflictingSectionRepo{SectionRepository: &fakeSectionRepo{store: store}, remaining: 1},
		&fakeEnrollmentRepo{store: store},
		progress,
		3,
	)

	sections, err := svc.Reorder(instructorID, authorization.RoleInstructor, course.ID, []uint{b.ID, a.ID})
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if sections[0].ID != b.ID {
		t.Fatal("retry must apply the requested order")
	}
}

func TestReorderSectionsGivesUpUnderContention(t *testing.T) {
	store := newFakeStore()
	course := store.addCourse(instructorID, models.CourseStatusDraft, 0)
	a := store.addSection(course.ID, "A")
	b := store.addSection(course.ID, "B")

	progress := NewProgressService(&fakeEnrollmentRepo{store: store}, &fakeProgressRepo{store: store})
	svc := NewSectionService(
		&fakeCourseRepo{store: store},
		&conflictingSectionRepo{SectionRepository: &fakeSectionRepo{store: store}, remaining: 100},
		&fakeEnrollmentRepo{store: store},
		progress,
		3,
	)

	_, err := svc.Reorder(instructorID, authorization.RoleInstructor, course.ID, []uint{b.ID, a.ID})
	if !errors.Is(err, ErrOrderingContended) {
		t.Fatalf("expected ErrOrderingContended, got %v", err)
	}
}

// racingSectionRepo lands a reorder between the service's read and its
// Remove: the stored order changes, the version bumps, and the first attempt
// reports the conflict. The retry goes through to the real repository.
type racingSectionRepo struct {
	repository.SectionRepository
	store  *fakeStore
	moveID uint
	raced  bool
}

func (r *racingSectionRepo) Remove(section *models.Section, expectedVersion uint, renumbered []models.Section) error {
	if !r.raced {
		r.raced = true
		index := 1
		for _, stored := range r.store.sectionsOf(section.CourseID) {
			if stored.ID == r.moveID {
				stored.OrderIndex = 1
				continue
			}
			index++
			stored.OrderIndex = index
		}
		r.store.courses[section.CourseID].OrderingVersion++
		return repository.ErrOrderingConflict
	}
	return r.SectionRepository.Remove(section, expectedVersion, renumbered)
}

func TestDeleteSectionStaysDenseAfterRacingReorder(t *testing.T) {
	store := newFakeStore()
	course := store.addCourse(instructorID, models.CourseStatusDraft, 0)
	a := store.addSection(course.ID, "A")
	b := store.addSection(course.ID, "B")
	c := store.addSection(course.ID, "C")

	progress := NewProgressService(&fakeEnrollmentRepo{store: store}, &fakeProgressRepo{store: store})
	svc := NewSectionService(
		&fakeCourseRepo{store: store},
		&racingSectionRepo{SectionRepository: &fakeSectionRepo{store: store}, store: store, moveID: c.ID},
		&fakeEnrollmentRepo{store: store},
		progress,
		3,
	)

	// The racing reorder moves C from the tail to the front before the
	// delete lands, so the retry must renumber from C's new position.
	if err := svc.Delete(instructorID, authorization.RoleInstructor, c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if got := store.sections[a.ID].OrderIndex; got != 1 {
		t.Fatalf("expected section A at index 1, got %d", got)
	}
	if got := store.sections[b.ID].OrderIndex; got != 2 {
		t.Fatalf("expected section B at index 2, got %d", got)
	}
	if _, ok := store.sections[c.ID]; ok {
		t.Fatal("section C must be deleted")
	}
}

func TestSectionMutationsRequireOwnership(t *testing.T) {
	store := newFakeStore()
	course := store.addCourse(instructorID, models.CourseStatusDraft, 0)
	section := store.addSection(course.ID, "A")
	svc := newSectionService(store)

	otherInstructor := uint(55)
	if _, err := svc.Create(otherInstructor, authorization.RoleInstructor, course.ID, models.CreateSectionRequest{Title: "X"}); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner on create, got %v", err)
	}
	if err := svc.Delete(otherInstructor, authorization.RoleInstructor, section.ID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner on delete, got %v", err)
	}
	if _, err := svc.Create(otherInstructor, authorization.RoleAdmin, course.ID, models.CreateSectionRequest{Title: "X"}); err != nil {
		t.Fatalf("admin must be allowed, got %v", err)
	}
}
