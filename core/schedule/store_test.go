package schedule

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStore_addGroupDefaults(t *testing.T) {
	s := NewStore()

	for i := 1; i <= 3; i++ {
		g := s.AddGroup()
		assert.Equal(t, i, g.ID)
		assert.Equal(t, fmt.Sprintf("Группа %d", i), g.Name)
		assert.Equal(t, DefaultGroupSize, g.Size)
	}
	assert.Len(t, s.Config().Groups, 3)
}

func TestStore_addDefaults(t *testing.T) {
	s := NewStore()

	tchr := s.AddTeacher()
	assert.Equal(t, 1, tchr.ID)
	assert.Equal(t, "Преподаватель 1", tchr.Name)
	assert.Empty(t, tchr.Subjects)

	sub := s.AddSubject()
	assert.Equal(t, "Предмет 1", sub.Name)
	assert.Equal(t, MinDifficulty, sub.Difficulty)

	room := s.AddRoom()
	assert.Equal(t, "Аудитория 1", room.Name)
	assert.Equal(t, DefaultRoomCapacity, room.Capacity)

	exam := s.AddExam()
	assert.Equal(t, 1, exam.ID)
	assert.Nil(t, exam.GroupID)
	assert.Nil(t, exam.TeacherID)
	assert.Nil(t, exam.SubjectID)
	assert.Equal(t, DefaultDurationMinutes, exam.DurationMinutes)
}

func TestStore_idAllocation(t *testing.T) {
	s := NewStore()

	s.AddGroup() // 1
	s.AddGroup() // 2
	s.AddGroup() // 3
	s.DeleteItem(CollectionGroups, 3)

	// max(ids)+1 over the remaining ids
	g := s.AddGroup()
	assert.Equal(t, 3, g.ID)

	s.DeleteItem(CollectionGroups, 1)
	g = s.AddGroup()
	assert.Equal(t, 4, g.ID)
}

func TestStore_updateField(t *testing.T) {
	s := NewStore()
	g := s.AddGroup()

	s.UpdateField(CollectionGroups, g.ID, "name", "ИВТ-21")
	s.UpdateField(CollectionGroups, g.ID, "size", 30)
	got := s.Config().Groups[0]
	assert.Equal(t, "ИВТ-21", got.Name)
	assert.Equal(t, 30, got.Size)

	// unknown id, unknown field and mismatched type are all no-ops
	s.UpdateField(CollectionGroups, 999, "name", "nope")
	s.UpdateField(CollectionGroups, g.ID, "bogus", "nope")
	s.UpdateField(CollectionGroups, g.ID, "size", "not a number")
	assert.Equal(t, got, s.Config().Groups[0])
}

func TestStore_updateExamRefs(t *testing.T) {
	s := NewStore()
	e := s.AddExam()

	s.UpdateField(CollectionExams, e.ID, "groupId", 7)
	s.UpdateField(CollectionExams, e.ID, "teacherId", 8)
	s.UpdateField(CollectionExams, e.ID, "subjectId", 9)
	s.UpdateField(CollectionExams, e.ID, "durationMinutes", 90)

	got := s.Config().Exams[0]
	assert.Equal(t, 7, *got.GroupID)
	assert.Equal(t, 8, *got.TeacherID)
	assert.Equal(t, 9, *got.SubjectID)
	assert.Equal(t, 90, got.DurationMinutes)

	s.UpdateField(CollectionExams, e.ID, "groupId", nil)
	assert.Nil(t, s.Config().Exams[0].GroupID)
}

func TestStore_deleteItem(t *testing.T) {
	s := NewStore()
	g := s.AddGroup()
	e := s.AddExam()
	s.UpdateField(CollectionExams, e.ID, "groupId", g.ID)

	s.DeleteItem(CollectionGroups, g.ID)
	assert.Empty(t, s.Config().Groups)

	// deleting twice is a no-op; deletes never cascade: the exam keeps its
	// dangling group reference
	s.DeleteItem(CollectionGroups, g.ID)
	assert.Equal(t, g.ID, *s.Config().Exams[0].GroupID)

	s.DeleteItem("bogus", g.ID)
	assert.Len(t, s.Config().Exams, 1)
}

func TestStore_teacherSubjects(t *testing.T) {
	s := NewStore()
	tchr := s.AddTeacher()
	sub := s.AddSubject()

	s.AddTeacherSubject(tchr.ID, sub.ID)
	s.AddTeacherSubject(tchr.ID, sub.ID) // idempotent
	assert.Equal(t, []int{sub.ID}, s.Config().Teachers[0].Subjects)

	s.RemoveTeacherSubject(tchr.ID, sub.ID)
	assert.Empty(t, s.Config().Teachers[0].Subjects)
	s.RemoveTeacherSubject(tchr.ID, sub.ID) // absent: no-op

	s.AddTeacherSubject(tchr.ID, sub.ID)
	assert.Equal(t, []int{sub.ID}, s.Config().Teachers[0].Subjects)

	// unknown teacher: no-op
	s.AddTeacherSubject(999, sub.ID)
	assert.Len(t, s.Config().Teachers, 1)
}

func TestStore_copyOnWrite(t *testing.T) {
	s := NewStore()
	s.AddGroup()

	before := s.Config()
	s.UpdateField(CollectionGroups, 1, "name", "changed")

	assert.Equal(t, "Группа 1", before.Groups[0].Name)
	assert.Equal(t, "changed", s.Config().Groups[0].Name)
}

func TestStore_subscribe(t *testing.T) {
	s := NewStore()

	var notified []Config
	s.Subscribe(func(c Config) { notified = append(notified, c) })

	s.AddGroup()
	s.UpdateField(CollectionGroups, 1, "size", 20)
	s.DeleteItem(CollectionGroups, 1)

	assert.Len(t, notified, 3)
	assert.Len(t, notified[0].Groups, 1)
	assert.Empty(t, notified[2].Groups)
}

func TestStore_replace(t *testing.T) {
	s := NewStore()
	s.AddGroup()

	nc := DefaultConfig()
	nc.Version = 2
	nc.Subjects = append(nc.Subjects, Subject{ID: 5, Name: "Матанализ", Difficulty: 5})
	s.Replace(nc)

	got := s.Config()
	assert.Equal(t, 2, got.Version)
	assert.Empty(t, got.Groups)
	assert.Equal(t, "Матанализ", got.Subjects[0].Name)
}

func TestStore_sessionWindow(t *testing.T) {
	s := NewStore()

	sw := SessionWindow{Start: "2025-06-01", End: "2025-06-20", MaxExamsPerDayForGroup: 3}
	s.SetSessionWindow(sw)
	assert.Equal(t, sw, s.Config().Session)
}
