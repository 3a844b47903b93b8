package schedule

// Difficulty and session-window bounds; durations are conventionally multiples of 30min.
const (
	MinDifficulty = 1
	MaxDifficulty = 5

	MinExamsPerDay = 1
	MaxExamsPerDay = 10

	DurationStep           = 30
	DefaultDurationMinutes = 120

	DefaultGroupSize    = 25
	DefaultRoomCapacity = 30
)

type (
	Group struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
		Size int    `json:"size"` // student head count
		// reverse link to exams; reserved, not maintained yet
		ExamIDs []int `json:"examIds"`
	}

	Teacher struct {
		ID       int    `json:"id"`
		Name     string `json:"name"`
		Subjects []int  `json:"subjects"` // subject ids the teacher may examine; no duplicates
	}

	Subject struct {
		ID         int    `json:"id"`
		Name       string `json:"name"`
		Difficulty int    `json:"difficulty"` // [MinDifficulty, MaxDifficulty]
	}

	Room struct {
		ID       int    `json:"id"`
		Name     string `json:"name"`
		Capacity int    `json:"capacity"`
	}

	// Exam references are nullable and deliberately un-cascaded: deleting a Group,
	// Teacher or Subject leaves any referencing Exam pointing at a dead id, which
	// consumers must render as "unassigned".
	Exam struct {
		ID              int  `json:"id"`
		GroupID         *int `json:"groupId"`
		TeacherID       *int `json:"teacherId"`
		SubjectID       *int `json:"subjectId"`
		DurationMinutes int  `json:"durationMinutes"`
	}

	SessionWindow struct {
		Start                  string `json:"start"` // "2006-01-02"
		End                    string `json:"end"`
		MaxExamsPerDayForGroup int    `json:"maxExamsPerDayForGroup"`
	}

	// Config is the whole scheduling input: the unit sent to the solver and the
	// unit serialized by the codec.
	Config struct {
		Version  int           `json:"version"`
		Session  SessionWindow `json:"session"`
		Groups   []Group       `json:"groups"`
		Teachers []Teacher     `json:"teachers"`
		Subjects []Subject     `json:"subjects"`
		Rooms    []Room        `json:"rooms"`
		Exams    []Exam        `json:"exams"`
	}

	// ScheduledExam is a denormalized display record produced by the solver;
	// it is never cross-referenced back into Config.
	ScheduledExam struct {
		ExamID      int    `json:"examId"`
		Date        string `json:"date"`      // "2025-01-20"
		StartTime   string `json:"startTime"` // "09:00"
		EndTime     string `json:"endTime"`
		GroupName   string `json:"groupName"`
		SubjectName string `json:"subjectName"`
		TeacherName string `json:"teacherName"`
		RoomName    string `json:"roomName"`
	}

	ValidationReport struct {
		OK     bool     `json:"ok"`
		Errors []string `json:"errors"`
	}

	// Result is the solver's reply. ScheduleID/ScheduleName are only present after
	// a generation call that persisted the schedule; publishing requires them.
	Result struct {
		Algorithm    string           `json:"algorithm"`
		Validation   ValidationReport `json:"validation"`
		Schedule     []ScheduledExam  `json:"schedule"`
		ScheduleID   *int64           `json:"scheduleId,omitempty"`
		ScheduleName string           `json:"scheduleName,omitempty"`
	}
)

// DefaultConfig returns an empty version-1 config with the default session window.
func DefaultConfig() Config {
	return Config{
		Version: 1,
		Session: SessionWindow{
			Start:                  "2025-01-20",
			End:                    "2025-01-31",
			MaxExamsPerDayForGroup: 2,
		},
		Groups:   []Group{},
		Teachers: []Teacher{},
		Subjects: []Subject{},
		Rooms:    []Room{},
		Exams:    []Exam{},
	}
}

func (c Config) clone() Config {
	nc := c
	nc.Groups = make([]Group, len(c.Groups))
	for i, g := range c.Groups {
		g.ExamIDs = append(make([]int, 0, len(g.ExamIDs)), g.ExamIDs...)
		nc.Groups[i] = g
	}
	nc.Teachers = make([]Teacher, len(c.Teachers))
	for i, t := range c.Teachers {
		t.Subjects = append(make([]int, 0, len(t.Subjects)), t.Subjects...)
		nc.Teachers[i] = t
	}
	nc.Subjects = make([]Subject, len(c.Subjects))
	copy(nc.Subjects, c.Subjects)
	nc.Rooms = make([]Room, len(c.Rooms))
	copy(nc.Rooms, c.Rooms)
	nc.Exams = make([]Exam, len(c.Exams))
	copy(nc.Exams, c.Exams)
	return nc
}

// intRef makes a copy of v usable as a nullable reference.
func intRef(v int) *int { return &v }
