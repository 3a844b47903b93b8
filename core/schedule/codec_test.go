package schedule

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func seededCodec(t *testing.T) (*Codec, *Store, *View) {
	t.Helper()

	store := NewStore()
	view := NewView()

	g := store.AddGroup()
	s := store.AddSubject()
	tc := store.AddTeacher()
	r := store.AddRoom()
	e := store.AddExam()
	store.UpdateField(CollectionGroups, g.ID, "name", "ИВТ-21")
	store.UpdateField(CollectionGroups, g.ID, "size", 27)
	store.UpdateField(CollectionSubjects, s.ID, "difficulty", 4)
	store.AddTeacherSubject(tc.ID, s.ID)
	store.UpdateField(CollectionRooms, r.ID, "capacity", 40)
	store.UpdateField(CollectionExams, e.ID, "groupId", g.ID)
	store.UpdateField(CollectionExams, e.ID, "teacherId", tc.ID)
	store.UpdateField(CollectionExams, e.ID, "subjectId", s.ID)
	store.SetSessionWindow(SessionWindow{Start: "2025-06-02", End: "2025-06-13", MaxExamsPerDayForGroup: 3})

	view.SetResult(Result{
		Algorithm:  "graph",
		Validation: ValidationReport{OK: true, Errors: []string{}},
		Schedule: []ScheduledExam{{
			ExamID:      e.ID,
			Date:        "2025-06-02",
			StartTime:   "09:00",
			EndTime:     "11:00",
			GroupName:   "ИВТ-21",
			SubjectName: s.Name,
			TeacherName: tc.Name,
			RoomName:    r.Name,
		}},
	})
	return NewCodec(store, view), store, view
}

func TestCodec_roundTrip(t *testing.T) {
	codec, store, view := seededCodec(t)

	data, err := codec.Export()
	assert.NoError(t, err)

	freshStore := NewStore()
	freshView := NewView()
	fresh := NewCodec(freshStore, freshView)
	assert.NoError(t, fresh.Import(data))

	assert.Equal(t, store.Config(), freshStore.Config())
	assert.Equal(t, view.Result(), freshView.Result())

	// identical state yields identical bytes
	data2, err := fresh.Export()
	assert.NoError(t, err)
	assert.Equal(t, data, data2)
}

func TestCodec_exportShape(t *testing.T) {
	codec, _, _ := seededCodec(t)

	data, err := codec.Export()
	assert.NoError(t, err)

	var doc map[string]json.RawMessage
	assert.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "version")
	assert.Contains(t, doc, "config")
	assert.Contains(t, doc, "result")
}

func TestCodec_importBareConfig(t *testing.T) {
	_, store, _ := seededCodec(t)
	raw, err := json.Marshal(store.Config())
	assert.NoError(t, err)

	freshStore := NewStore()
	freshView := NewView()
	codec := NewCodec(freshStore, freshView)
	before := freshView.Result()

	assert.NoError(t, codec.Import(raw))
	assert.Equal(t, store.Config(), freshStore.Config())
	// a bare config carries no result; the view is untouched
	assert.Equal(t, before, freshView.Result())
}

func TestCodec_importMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "not json at all"},
		{"bad config", `{"version": 1, "config": 42}`},
		{"bad result", `{"version": 1, "config": {}, "result": "nope"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec, _, _ := seededCodec(t)
			before, err := codec.Export()
			assert.NoError(t, err)

			err = codec.Import([]byte(tt.data))
			assert.Equal(t, ErrMalformedDocument, err)

			// atomic: failed imports leave the state byte-identical
			after, err := codec.Export()
			assert.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

func TestCodec_importWithoutResultKeepsView(t *testing.T) {
	codec, _, view := seededCodec(t)
	before := view.Result()

	assert.NoError(t, codec.Import([]byte(`{"version": 1, "config": {"version": 1}}`)))
	assert.Equal(t, before, view.Result())
}
