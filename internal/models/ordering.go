package models

// Sections and lessons both satisfy ordering.Item so the same renumbering
// code serves course-level and section-level lists.

func (s *Section) ItemID() uint        { return s.ID }
func (s *Section) Position() int       { return s.OrderIndex }
func (s *Section) SetPosition(pos int) { s.OrderIndex = pos }

func (l *Lesson) ItemID() uint        { return l.ID }
func (l *Lesson) Position() int       { return l.OrderIndex }
func (l *Lesson) SetPosition(pos int) { l.OrderIndex = pos }
