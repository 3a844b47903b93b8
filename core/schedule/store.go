package schedule

import (
	"fmt"
	"sync"
)

// Collection names understood by UpdateField/DeleteItem.
const (
	CollectionGroups   = "groups"
	CollectionTeachers = "teachers"
	CollectionSubjects = "subjects"
	CollectionRooms    = "rooms"
	CollectionExams    = "exams"
)

// Store is the sole owner of the scheduling Config. Every mutation is a
// copy-on-write update over the previous snapshot: the held Config value is never
// modified in place, so subscribers may rely on value identity for change
// detection. Mutations never fail; input normalization (blank/non-numeric form
// fields) is the calling edit-handler's job, not the store's.
type Store struct {
	mu   sync.RWMutex
	conf Config
	subs []func(Config)
}

func NewStore() *Store {
	return &Store{conf: DefaultConfig()}
}

// Subscribe registers fn to be called with the new snapshot after every mutation.
func (s *Store) Subscribe(fn func(Config)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Config returns the current snapshot. Callers must treat it as read-only.
func (s *Store) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conf
}

func (s *Store) commit(nc Config) {
	s.conf = nc
	subs := append(([]func(Config))(nil), s.subs...)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(nc)
	}
	s.mu.Lock()
}

func nextID(ids []int) int {
	max := 0
	for _, id := range ids {
		if id > max {
			max = id
		}
	}
	return max + 1
}

func (s *Store) AddGroup() Group {
	s.mu.Lock()
	defer s.mu.Unlock()

	nc := s.conf.clone()
	ids := make([]int, len(nc.Groups))
	for i, g := range nc.Groups {
		ids[i] = g.ID
	}
	g := Group{
		ID:      nextID(ids),
		Size:    DefaultGroupSize,
		ExamIDs: []int{},
	}
	g.Name = fmt.Sprintf("Группа %d", g.ID)
	nc.Groups = append(nc.Groups, g)
	s.commit(nc)
	return g
}

func (s *Store) AddTeacher() Teacher {
	s.mu.Lock()
	defer s.mu.Unlock()

	nc := s.conf.clone()
	ids := make([]int, len(nc.Teachers))
	for i, t := range nc.Teachers {
		ids[i] = t.ID
	}
	t := Teacher{
		ID:       nextID(ids),
		Subjects: []int{},
	}
	t.Name = fmt.Sprintf("Преподаватель %d", t.ID)
	nc.Teachers = append(nc.Teachers, t)
	s.commit(nc)
	return t
}

func (s *Store) AddSubject() Subject {
	s.mu.Lock()
	defer s.mu.Unlock()

	nc := s.conf.clone()
	ids := make([]int, len(nc.Subjects))
	for i, sub := range nc.Subjects {
		ids[i] = sub.ID
	}
	sub := Subject{
		ID:         nextID(ids),
		Difficulty: MinDifficulty,
	}
	sub.Name = fmt.Sprintf("Предмет %d", sub.ID)
	nc.Subjects = append(nc.Subjects, sub)
	s.commit(nc)
	return sub
}

func (s *Store) AddRoom() Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	nc := s.conf.clone()
	ids := make([]int, len(nc.Rooms))
	for i, r := range nc.Rooms {
		ids[i] = r.ID
	}
	r := Room{
		ID:       nextID(ids),
		Capacity: DefaultRoomCapacity,
	}
	r.Name = fmt.Sprintf("Аудитория %d", r.ID)
	nc.Rooms = append(nc.Rooms, r)
	s.commit(nc)
	return r
}

func (s *Store) AddExam() Exam {
	s.mu.Lock()
	defer s.mu.Unlock()

	nc := s.conf.clone()
	ids := make([]int, len(nc.Exams))
	for i, e := range nc.Exams {
		ids[i] = e.ID
	}
	e := Exam{
		ID:              nextID(ids),
		DurationMinutes: DefaultDurationMinutes,
	}
	nc.Exams = append(nc.Exams, e)
	s.commit(nc)
	return e
}

// UpdateField replaces the named field on the matching record. Unknown ids,
// collections or fields are a no-op; no cross-field consistency is enforced here
// (difficulty clamping etc. happens in the dedicated edit handlers before the
// value reaches the store).
func (s *Store) UpdateField(collection string, id int, field string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nc := s.conf.clone()
	switch collection {
	case CollectionGroups:
		for i, g := range nc.Groups {
			if g.ID != id {
				continue
			}
			switch field {
			case "name":
				if v, ok := value.(string); ok {
					nc.Groups[i].Name = v
				}
			case "size":
				if v, ok := value.(int); ok {
					nc.Groups[i].Size = v
				}
			}
		}
	case CollectionTeachers:
		for i, t := range nc.Teachers {
			if t.ID != id {
				continue
			}
			if field == "name" {
				if v, ok := value.(string); ok {
					nc.Teachers[i].Name = v
				}
			}
		}
	case CollectionSubjects:
		for i, sub := range nc.Subjects {
			if sub.ID != id {
				continue
			}
			switch field {
			case "name":
				if v, ok := value.(string); ok {
					nc.Subjects[i].Name = v
				}
			case "difficulty":
				if v, ok := value.(int); ok {
					nc.Subjects[i].Difficulty = v
				}
			}
		}
	case CollectionRooms:
		for i, r := range nc.Rooms {
			if r.ID != id {
				continue
			}
			switch field {
			case "name":
				if v, ok := value.(string); ok {
					nc.Rooms[i].Name = v
				}
			case "capacity":
				if v, ok := value.(int); ok {
					nc.Rooms[i].Capacity = v
				}
			}
		}
	case CollectionExams:
		for i, e := range nc.Exams {
			if e.ID != id {
				continue
			}
			switch field {
			case "groupId":
				switch v := value.(type) {
				case nil:
					nc.Exams[i].GroupID = nil
				case int:
					nc.Exams[i].GroupID = intRef(v)
				}
			case "teacherId":
				switch v := value.(type) {
				case nil:
					nc.Exams[i].TeacherID = nil
				case int:
					nc.Exams[i].TeacherID = intRef(v)
				}
			case "subjectId":
				switch v := value.(type) {
				case nil:
					nc.Exams[i].SubjectID = nil
				case int:
					nc.Exams[i].SubjectID = intRef(v)
				}
			case "durationMinutes":
				if v, ok := value.(int); ok {
					nc.Exams[i].DurationMinutes = v
				}
			}
		}
	default:
		return
	}
	s.commit(nc)
}

// DeleteItem removes the record with the given id. It never fails and is
// idempotent. Exams referencing the deleted id keep their dangling reference.
func (s *Store) DeleteItem(collection string, id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nc := s.conf.clone()
	switch collection {
	case CollectionGroups:
		nc.Groups = deleteGroup(nc.Groups, id)
	case CollectionTeachers:
		nc.Teachers = deleteTeacher(nc.Teachers, id)
	case CollectionSubjects:
		nc.Subjects = deleteSubject(nc.Subjects, id)
	case CollectionRooms:
		nc.Rooms = deleteRoom(nc.Rooms, id)
	case CollectionExams:
		nc.Exams = deleteExam(nc.Exams, id)
	default:
		return
	}
	s.commit(nc)
}

func deleteGroup(gs []Group, id int) []Group {
	res := gs[:0]
	for _, g := range gs {
		if g.ID != id {
			res = append(res, g)
		}
	}
	return res
}

func deleteTeacher(ts []Teacher, id int) []Teacher {
	res := ts[:0]
	for _, t := range ts {
		if t.ID != id {
			res = append(res, t)
		}
	}
	return res
}

func deleteSubject(subs []Subject, id int) []Subject {
	res := subs[:0]
	for _, sub := range subs {
		if sub.ID != id {
			res = append(res, sub)
		}
	}
	return res
}

func deleteRoom(rs []Room, id int) []Room {
	res := rs[:0]
	for _, r := range rs {
		if r.ID != id {
			res = append(res, r)
		}
	}
	return res
}

func deleteExam(es []Exam, id int) []Exam {
	res := es[:0]
	for _, e := range es {
		if e.ID != id {
			res = append(res, e)
		}
	}
	return res
}

// AddTeacherSubject adds subjectID to the teacher's qualification set; no-op when
// already present or when the teacher does not exist.
func (s *Store) AddTeacherSubject(teacherID, subjectID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nc := s.conf.clone()
	for i, t := range nc.Teachers {
		if t.ID != teacherID {
			continue
		}
		for _, sid := range t.Subjects {
			if sid == subjectID {
				return
			}
		}
		nc.Teachers[i].Subjects = append(nc.Teachers[i].Subjects, subjectID)
		s.commit(nc)
		return
	}
}

// RemoveTeacherSubject removes subjectID from the teacher's qualification set;
// no-op when absent.
func (s *Store) RemoveTeacherSubject(teacherID, subjectID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nc := s.conf.clone()
	for i, t := range nc.Teachers {
		if t.ID != teacherID {
			continue
		}
		subs := t.Subjects[:0]
		var found bool
		for _, sid := range t.Subjects {
			if sid == subjectID {
				found = true
				continue
			}
			subs = append(subs, sid)
		}
		if !found {
			return
		}
		nc.Teachers[i].Subjects = subs
		s.commit(nc)
		return
	}
}

// SetSessionWindow replaces the session window. Range checks on
// MaxExamsPerDayForGroup belong to the edit handler, not here.
func (s *Store) SetSessionWindow(sw SessionWindow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nc := s.conf.clone()
	nc.Session = sw
	s.commit(nc)
}

// Replace substitutes the whole config atomically; used by the codec on import
// and by reset-on-logout flows.
func (s *Store) Replace(nc Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commit(nc.clone())
}
