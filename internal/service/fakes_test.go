package service

import (
	"sort"

	"gorm.io/gorm"

	"github.com/Mohmk10/sencours-back-sub000/internal/models"
	"github.com/Mohmk10/sencours-back-sub000/internal/ordering"
	"github.com/Mohmk10/sencours-back-sub000/internal/repository"
)

// fakeStore backs the in-memory repositories used by the service tests. It
// mirrors the database semantics the real repositories rely on: dense
// ordering per parent, version-checked renumbering and cascading deletes.
type fakeStore struct {
	nextID      uint
	courses     map[uint]*models.Course
	sections    map[uint]*models.Section
	lessons     map[uint]*models.Lesson
	enrollments map[uint]*models.Enrollment
	progresses  map[uint]*models.Progress
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		courses:     map[uint]*models.Course{},
		sections:    map[uint]*models.Section{},
		lessons:     map[uint]*models.Lesson{},
		enrollments: map[uint]*models.Enrollment{},
		progresses:  map[uint]*models.Progress{},
	}
}

func (s *fakeStore) id() uint {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) addCourse(instructorID uint, status models.CourseStatus, priceCents int64) *models.Course {
	course := &models.Course{
		ID:           s.id(),
		Title:        "Course",
		Status:       status,
		PriceCents:   priceCents,
		InstructorID: instructorID,
	}
	s.courses[course.ID] = course
	return course
}

func (s *fakeStore) addSection(courseID uint, title string) *models.Section {
	section := &models.Section{
		ID:         s.id(),
		CourseID:   courseID,
		Title:      title,
		OrderIndex: len(s.sectionsOf(courseID)) + 1,
	}
	s.sections[section.ID] = section
	return section
}

func (s *fakeStore) addLesson(sectionID uint, title string) *models.Lesson {
	lesson := &models.Lesson{
		ID:         s.id(),
		SectionID:  sectionID,
		Title:      title,
		Type:       models.LessonTypeVideo,
		OrderIndex: len(s.lessonsOf(sectionID)) + 1,
	}
	s.lessons[lesson.ID] = lesson
	return lesson
}

// addEnrollment creates the enrollment plus one incomplete progress row per
// lesson of the course, the way the real enrollment transaction does.
func (s *fakeStore) addEnrollment(userID, courseID uint) *models.Enrollment {
	enrollment := &models.Enrollment{ID: s.id(), UserID: userID, CourseID: courseID}
	s.enrollments[enrollment.ID] = enrollment
	for _, lesson := range s.lessonsOfCourse(courseID) {
		row := &models.Progress{ID: s.id(), EnrollmentID: enrollment.ID, LessonID: lesson.ID}
		s.progresses[row.ID] = row
	}
	return enrollment
}

func (s *fakeStore) sectionsOf(courseID uint) []*models.Section {
	var out []*models.Section
	for _, section := range s.sections {
		if section.CourseID == courseID {
			out = append(out, section)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out
}

func (s *fakeStore) lessonsOf(sectionID uint) []*models.Lesson {
	var out []*models.Lesson
	for _, lesson := range s.lessons {
		if lesson.SectionID == sectionID {
			out = append(out, lesson)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out
}

func (s *fakeStore) lessonsOfCourse(courseID uint) []*models.Lesson {
	var out []*models.Lesson
	for _, section := range s.sectionsOf(courseID) {
		out = append(out, s.lessonsOf(section.ID)...)
	}
	return out
}

func (s *fakeStore) progressOf(enrollmentID uint) []*models.Progress {
	var out []*models.Progress
	for _, row := range s.progresses {
		if row.EnrollmentID == enrollmentID {
			out = append(out, row)
		}
	}
	return out
}

// fakeCourseRepo and friends hand out copies so a service mutation only
// sticks when it goes back through Update, as with a real database.

type fakeCourseRepo struct{ store *fakeStore }

func (r *fakeCourseRepo) Create(course *models.Course) error {
	course.ID = r.store.id()
	clone := *course
	r.store.courses[course.ID] = &clone
	return nil
}

func (r *fakeCourseRepo) Update(course *models.Course) error {
	if _, ok := r.store.courses[course.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *course
	r.store.courses[course.ID] = &clone
	return nil
}

func (r *fakeCourseRepo) Delete(id uint) error {
	for _, section := range r.store.sectionsOf(id) {
		for _, lesson := range r.store.lessonsOf(section.ID) {
			for _, row := range r.store.progresses {
				if row.LessonID == lesson.ID {
					delete(r.store.progresses, row.ID)
				}
			}
			delete(r.store.lessons, lesson.ID)
		}
		delete(r.store.sections, section.ID)
	}
	for _, enrollment := range r.store.enrollments {
		if enrollment.CourseID == id {
			delete(r.store.enrollments, enrollment.ID)
		}
	}
	delete(r.store.courses, id)
	return nil
}

func (r *fakeCourseRepo) GetByID(id uint) (*models.Course, error) {
	course, ok := r.store.courses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *course
	return &clone, nil
}

func (r *fakeCourseRepo) GetBySlug(slug string) (*models.Course, error) {
	for _, course := range r.store.courses {
		if course.Slug == slug {
			clone := *course
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCourseRepo) ListPublished() ([]models.Course, error) {
	var out []models.Course
	for _, course := range r.store.courses {
		if course.Status == models.CourseStatusPublished {
			out = append(out, *course)
		}
	}
	return out, nil
}

func (r *fakeCourseRepo) ListByInstructor(instructorID uint) ([]models.Course, error) {
	var out []models.Course
	for _, course := range r.store.courses {
		if course.InstructorID == instructorID {
			out = append(out, *course)
		}
	}
	return out, nil
}

func (r *fakeCourseRepo) Exists(id uint) (bool, error) {
	_, ok := r.store.courses[id]
	return ok, nil
}

type fakeSectionRepo struct{ store *fakeStore }

func (r *fakeSectionRepo) Append(section *models.Section) error {
	course, ok := r.store.courses[section.CourseID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	section.ID = r.store.id()
	section.OrderIndex = ordering.Next(int64(len(r.store.sectionsOf(section.CourseID))))
	clone := *section
	r.store.sections[section.ID] = &clone
	course.OrderingVersion++
	return nil
}

func (r *fakeSectionRepo) Update(section *models.Section) error {
	if _, ok := r.store.sections[section.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *section
	r.store.sections[section.ID] = &clone
	return nil
}

func (r *fakeSectionRepo) GetByID(id uint) (*models.Section, error) {
	section, ok := r.store.sections[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *section
	return &clone, nil
}

func (r *fakeSectionRepo) GetByIDs(ids []uint) ([]models.Section, error) {
	var out []models.Section
	for _, id := range ids {
		if section, ok := r.store.sections[id]; ok {
			out = append(out, *section)
		}
	}
	return out, nil
}

func (r *fakeSectionRepo) ListByCourse(courseID uint) ([]models.Section, error) {
	var out []models.Section
	for _, section := range r.store.sectionsOf(courseID) {
		out = append(out, *section)
	}
	return out, nil
}

func (r *fakeSectionRepo) CountByCourse(courseID uint) (int64, error) {
	return int64(len(r.store.sectionsOf(courseID))), nil
}

func (r *fakeSectionRepo) Reorder(courseID, expectedVersion uint, sections []models.Section) error {
	course, ok := r.store.courses[courseID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if course.OrderingVersion != expectedVersion {
		return repository.ErrOrderingConflict
	}
	for i := range sections {
		if stored, ok := r.store.sections[sections[i].ID]; ok {
			stored.OrderIndex = sections[i].OrderIndex
		}
	}
	course.OrderingVersion++
	return nil
}

func (r *fakeSectionRepo) Remove(section *models.Section, expectedVersion uint, renumbered []models.Section) error {
	course, ok := r.store.courses[section.CourseID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if course.OrderingVersion != expectedVersion {
		return repository.ErrOrderingConflict
	}
	for _, lesson := range r.store.lessonsOf(section.ID) {
		for _, row := range r.store.progresses {
			if row.LessonID == lesson.ID {
				delete(r.store.progresses, row.ID)
			}
		}
		delete(r.store.lessons, lesson.ID)
	}
	delete(r.store.sections, section.ID)
	for i := range renumbered {
		if stored, ok := r.store.sections[renumbered[i].ID]; ok {
			stored.OrderIndex = renumbered[i].OrderIndex
		}
	}
	course.OrderingVersion++
	return nil
}

type fakeLessonRepo struct{ store *fakeStore }

func (r *fakeLessonRepo) Append(lesson *models.Lesson, enrollmentIDs []uint) error {
	section, ok := r.store.sections[lesson.SectionID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	lesson.ID = r.store.id()
	lesson.OrderIndex = ordering.Next(int64(len(r.store.lessonsOf(lesson.SectionID))))
	clone := *lesson
	r.store.lessons[lesson.ID] = &clone
	for _, enrollmentID := range enrollmentIDs {
		row := &models.Progress{ID: r.store.id(), EnrollmentID: enrollmentID, LessonID: lesson.ID}
		r.store.progresses[row.ID] = row
	}
	section.OrderingVersion++
	return nil
}

func (r *fakeLessonRepo) Update(lesson *models.Lesson) error {
	if _, ok := r.store.lessons[lesson.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *lesson
	r.store.lessons[lesson.ID] = &clone
	return nil
}

func (r *fakeLessonRepo) GetByID(id uint) (*models.Lesson, error) {
	lesson, ok := r.store.lessons[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *lesson
	return &clone, nil
}

func (r *fakeLessonRepo) GetByIDs(ids []uint) ([]models.Lesson, error) {
	var out []models.Lesson
	for _, id := range ids {
		if lesson, ok := r.store.lessons[id]; ok {
			out = append(out, *lesson)
		}
	}
	return out, nil
}

func (r *fakeLessonRepo) ListBySection(sectionID uint) ([]models.Lesson, error) {
	var out []models.Lesson
	for _, lesson := range r.store.lessonsOf(sectionID) {
		out = append(out, *lesson)
	}
	return out, nil
}

func (r *fakeLessonRepo) ListByCourse(courseID uint) ([]models.Lesson, error) {
	var out []models.Lesson
	for _, lesson := range r.store.lessonsOfCourse(courseID) {
		out = append(out, *lesson)
	}
	return out, nil
}

func (r *fakeLessonRepo) CountBySection(sectionID uint) (int64, error) {
	return int64(len(r.store.lessonsOf(sectionID))), nil
}

func (r *fakeLessonRepo) Reorder(sectionID, expectedVersion uint, lessons []models.Lesson) error {
	section, ok := r.store.sections[sectionID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if section.OrderingVersion != expectedVersion {
		return repository.ErrOrderingConflict
	}
	for i := range lessons {
		if stored, ok := r.store.lessons[lessons[i].ID]; ok {
			stored.OrderIndex = lessons[i].OrderIndex
		}
	}
	section.OrderingVersion++
	return nil
}

func (r *fakeLessonRepo) Remove(lesson *models.Lesson, expectedVersion uint, renumbered []models.Lesson) error {
	section, ok := r.store.sections[lesson.SectionID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if section.OrderingVersion != expectedVersion {
		return repository.ErrOrderingConflict
	}
	for _, row := range r.store.progresses {
		if row.LessonID == lesson.ID {
			delete(r.store.progresses, row.ID)
		}
	}
	delete(r.store.lessons, lesson.ID)
	for i := range renumbered {
		if stored, ok := r.store.lessons[renumbered[i].ID]; ok {
			stored.OrderIndex = renumbered[i].OrderIndex
		}
	}
	section.OrderingVersion++
	return nil
}

type fakeEnrollmentRepo struct{ store *fakeStore }

func (r *fakeEnrollmentRepo) Create(enrollment *models.Enrollment, lessonIDs []uint) error {
	for _, existing := range r.store.enrollments {
		if existing.UserID == enrollment.UserID && existing.CourseID == enrollment.CourseID {
			return gorm.ErrDuplicatedKey
		}
	}
	enrollment.ID = r.store.id()
	clone := *enrollment
	r.store.enrollments[enrollment.ID] = &clone
	for _, lessonID := range lessonIDs {
		row := &models.Progress{ID: r.store.id(), EnrollmentID: enrollment.ID, LessonID: lessonID}
		r.store.progresses[row.ID] = row
	}
	return nil
}

func (r *fakeEnrollmentRepo) Update(enrollment *models.Enrollment) error {
	if _, ok := r.store.enrollments[enrollment.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *enrollment
	r.store.enrollments[enrollment.ID] = &clone
	return nil
}

func (r *fakeEnrollmentRepo) GetByID(id uint) (*models.Enrollment, error) {
	enrollment, ok := r.store.enrollments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *enrollment
	return &clone, nil
}

func (r *fakeEnrollmentRepo) GetByUserAndCourse(userID, courseID uint) (*models.Enrollment, error) {
	for _, enrollment := range r.store.enrollments {
		if enrollment.UserID == userID && enrollment.CourseID == courseID {
			clone := *enrollment
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeEnrollmentRepo) ListByUser(userID uint) ([]models.Enrollment, error) {
	var out []models.Enrollment
	for _, enrollment := range r.store.enrollments {
		if enrollment.UserID == userID {
			out = append(out, *enrollment)
		}
	}
	return out, nil
}

func (r *fakeEnrollmentRepo) ListIDsByCourse(courseID uint) ([]uint, error) {
	var out []uint
	for _, enrollment := range r.store.enrollments {
		if enrollment.CourseID == courseID {
			out = append(out, enrollment.ID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (r *fakeEnrollmentRepo) Exists(id uint) (bool, error) {
	_, ok := r.store.enrollments[id]
	return ok, nil
}

type fakeProgressRepo struct{ store *fakeStore }

func (r *fakeProgressRepo) GetByEnrollmentAndLesson(enrollmentID, lessonID uint) (*models.Progress, error) {
	for _, row := range r.store.progresses {
		if row.EnrollmentID == enrollmentID && row.LessonID == lessonID {
			clone := *row
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeProgressRepo) Update(progress *models.Progress) error {
	if _, ok := r.store.progresses[progress.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *progress
	r.store.progresses[progress.ID] = &clone
	return nil
}

func (r *fakeProgressRepo) ListByEnrollment(enrollmentID uint) ([]models.Progress, error) {
	rows := r.store.progressOf(enrollmentID)
	sort.Slice(rows, func(i, j int) bool {
		return r.displayOrder(rows[i].LessonID) < r.displayOrder(rows[j].LessonID)
	})
	var out []models.Progress
	for _, row := range rows {
		out = append(out, *row)
	}
	return out, nil
}

func (r *fakeProgressRepo) Counts(enrollmentID uint) (int64, int64, error) {
	var total, done int64
	for _, row := range r.store.progresses {
		if row.EnrollmentID != enrollmentID {
			continue
		}
		total++
		if row.Completed {
			done++
		}
	}
	return total, done, nil
}

func (r *fakeProgressRepo) displayOrder(lessonID uint) int {
	lesson, ok := r.store.lessons[lessonID]
	if !ok {
		return 1 << 30
	}
	section, ok := r.store.sections[lesson.SectionID]
	if !ok {
		return 1 << 30
	}
	return section.OrderIndex*1000 + lesson.OrderIndex
}
