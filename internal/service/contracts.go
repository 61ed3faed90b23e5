package service

// CompletionRecomputer re-derives an enrollment's completion state from its
// progress rows. Structural services call it after any mutation that changes
// the lesson denominator of a course.
type CompletionRecomputer interface {
	RecomputeCompletion(enrollmentID uint) error
}
