package main

import (
	"fmt"
	"time"

	"github.com/trezcool/examplan/core/schedule"
)

// slot start times within a session day, in minutes since midnight
var slotStarts = []int{9 * 60, 12 * 60, 15 * 60}

const dateLayout = "2006-01-02"

// generateResult computes a deterministic placeholder schedule for the posted
// config: exams are laid out sequentially over the session window and checked
// for the obvious problems (missing references, room capacity, window
// overflow). It stands in for the real graph solver during development.
func generateResult(algo string, cfg schedule.Config) schedule.Result {
	res := schedule.Result{
		Algorithm:  algo,
		Validation: schedule.ValidationReport{OK: true, Errors: []string{}},
		Schedule:   []schedule.ScheduledExam{},
	}

	start, err := time.Parse(dateLayout, cfg.Session.Start)
	if err != nil {
		start = time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	}
	end, err := time.Parse(dateLayout, cfg.Session.End)
	if err != nil {
		end = start.AddDate(0, 0, 10)
	}

	addErr := func(msg string) {
		res.Validation.OK = false
		res.Validation.Errors = append(res.Validation.Errors, msg)
	}

	perDay := cfg.Session.MaxExamsPerDayForGroup
	if perDay < schedule.MinExamsPerDay || perDay > schedule.MaxExamsPerDay {
		perDay = schedule.MinExamsPerDay
	}
	if perDay > len(slotStarts) {
		perDay = len(slotStarts)
	}

	for i, exam := range cfg.Exams {
		day := start.AddDate(0, 0, i/perDay)
		if day.After(end) {
			addErr(fmt.Sprintf("Экзамен %d не помещается в сессию: окно %s – %s исчерпано.",
				exam.ID, cfg.Session.Start, cfg.Session.End))
			day = end
		}
		startMin := slotStarts[i%perDay]

		duration := exam.DurationMinutes
		if duration <= 0 {
			duration = schedule.DefaultDurationMinutes
		}

		group := findGroup(cfg.Groups, exam.GroupID)
		subject := findSubject(cfg.Subjects, exam.SubjectID)
		teacher := findTeacher(cfg.Teachers, exam.TeacherID)
		if group == nil {
			addErr(fmt.Sprintf("Экзамен %d: группа не назначена или не найдена.", exam.ID))
		}
		if subject == nil {
			addErr(fmt.Sprintf("Экзамен %d: предмет не назначен или не найден.", exam.ID))
		}
		if teacher == nil {
			addErr(fmt.Sprintf("Экзамен %d: преподаватель не назначен или не найден.", exam.ID))
		}

		room := pickRoom(cfg.Rooms, group)
		if room == nil {
			addErr(fmt.Sprintf("Экзамен %d: нет ни одной аудитории.", exam.ID))
		} else if group != nil && group.Size > room.Capacity {
			addErr(fmt.Sprintf("Аудитория %s слишком мала для группы %s: capacity=%d, peopleCount=%d.",
				room.Name, group.Name, room.Capacity, group.Size))
		}

		res.Schedule = append(res.Schedule, schedule.ScheduledExam{
			ExamID:      exam.ID,
			Date:        day.Format(dateLayout),
			StartTime:   formatMinutes(startMin),
			EndTime:     formatMinutes(startMin + duration),
			GroupName:   groupName(group),
			SubjectName: subjectName(subject),
			TeacherName: teacherName(teacher),
			RoomName:    roomName(room),
		})
	}

	return res
}

func formatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

const nameFallback = "Ошибка"

func groupName(g *schedule.Group) string {
	if g == nil {
		return nameFallback
	}
	return g.Name
}

func subjectName(s *schedule.Subject) string {
	if s == nil {
		return nameFallback
	}
	return s.Name
}

func teacherName(t *schedule.Teacher) string {
	if t == nil {
		return nameFallback
	}
	return t.Name
}

func roomName(r *schedule.Room) string {
	if r == nil {
		return nameFallback
	}
	return r.Name
}

func findGroup(groups []schedule.Group, id *int) *schedule.Group {
	if id == nil {
		return nil
	}
	for i := range groups {
		if groups[i].ID == *id {
			return &groups[i]
		}
	}
	return nil
}

func findSubject(subjects []schedule.Subject, id *int) *schedule.Subject {
	if id == nil {
		return nil
	}
	for i := range subjects {
		if subjects[i].ID == *id {
			return &subjects[i]
		}
	}
	return nil
}

func findTeacher(teachers []schedule.Teacher, id *int) *schedule.Teacher {
	if id == nil {
		return nil
	}
	for i := range teachers {
		if teachers[i].ID == *id {
			return &teachers[i]
		}
	}
	return nil
}

// pickRoom prefers the smallest room still fitting the group; falls back to the
// largest room when none fits.
func pickRoom(rooms []schedule.Room, group *schedule.Group) *schedule.Room {
	if len(rooms) == 0 {
		return nil
	}
	var best *schedule.Room
	var largest *schedule.Room
	for i := range rooms {
		r := &rooms[i]
		if largest == nil || r.Capacity > largest.Capacity {
			largest = r
		}
		if group != nil && r.Capacity >= group.Size {
			if best == nil || r.Capacity < best.Capacity {
				best = r
			}
		}
	}
	if best != nil {
		return best
	}
	return largest
}
