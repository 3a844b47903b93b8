package main

import (
	"context"
	"flag"
	"fmt"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/examplan/core"
	"github.com/trezcool/examplan/core/schedule"
	"github.com/trezcool/examplan/core/session"
	"github.com/trezcool/examplan/storage/document"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf  *core.Config
	log   core.Logger
	store *schedule.Store
	view  *schedule.View
	codec *schedule.Codec
	ctrl  *session.Controller
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  seed     -out FILE [-groups N -teachers N -subjects N -rooms N -exams N] - create a sample config document")
	fmt.Println("  show     -in FILE [-group NAME -teacher NAME -subject NAME]             - print the (filtered) schedule of a document")
	fmt.Println("  edit     -in FILE -collection NAME -id N -field NAME -value V [-out FILE] - set one field of a config record (or of the session window)")
	fmt.Println("  public   -out FILE                                                      - fetch the published schedule into a document")
	fmt.Println("  generate -in FILE -out FILE -username USERNAME [-publish]               - sign in, generate and save; password is prompted")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "seed":
		cmd := flag.NewFlagSet("seed", flag.ExitOnError)
		out := cmd.String("out", "", "Output document path.")
		groups := cmd.Int("groups", 3, "Number of groups to create.")
		teachers := cmd.Int("teachers", 2, "Number of teachers to create.")
		subjects := cmd.Int("subjects", 2, "Number of subjects to create.")
		rooms := cmd.Int("rooms", 2, "Number of rooms to create.")
		exams := cmd.Int("exams", 4, "Number of exams to create.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *out == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.seed(*out, *groups, *teachers, *subjects, *rooms, *exams)

	case "show":
		cmd := flag.NewFlagSet("show", flag.ExitOnError)
		in := cmd.String("in", "", "Input document path.")
		group := cmd.String("group", schedule.FilterAll, "Group name filter.")
		teacher := cmd.String("teacher", schedule.FilterAll, "Teacher name filter.")
		subject := cmd.String("subject", schedule.FilterAll, "Subject name filter.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *in == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.show(*in, *group, *teacher, *subject)

	case "edit":
		cmd := flag.NewFlagSet("edit", flag.ExitOnError)
		in := cmd.String("in", "", "Input document path.")
		out := cmd.String("out", "", "Output document path. Defaults to -in.")
		collection := cmd.String("collection", "", "One of: groups, teachers, subjects, rooms, exams, session.")
		id := cmd.Int("id", 0, "Record id. Not needed for session.")
		field := cmd.String("field", "", "Field to set.")
		value := cmd.String("value", "", "New value; blank or malformed numeric input falls back to the field default.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *in == "" || *collection == "" || *field == "" || (*id == 0 && *collection != collectionSession) {
			cmd.Usage()
			return errHelp
		}
		if *out == "" {
			*out = *in
		}
		return cli.edit(*in, *out, *collection, *id, *field, *value)

	case "public":
		cmd := flag.NewFlagSet("public", flag.ExitOnError)
		out := cmd.String("out", "", "Output document path.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *out == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.public(*out)

	case "generate":
		cmd := flag.NewFlagSet("generate", flag.ExitOnError)
		in := cmd.String("in", "", "Input document path.")
		out := cmd.String("out", "", "Output document path.")
		uname := cmd.String("username", "", "The operator's username. The password will be prompted next.")
		publish := cmd.Bool("publish", false, "Publish the generated schedule for general viewing.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *in == "" || *out == "" || *uname == "" {
			cmd.Usage()
			return errHelp
		}
		fmt.Print("Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			cmd.Usage()
			return errHelp
		}
		return cli.generate(*in, *out, core.CleanString(*uname, true /* lower */), string(pwd), *publish)

	default:
		cli.printUsage()
		return errHelp
	}
}

// seed builds a small linked config through the regular store mutations and
// saves it as a document.
func (cli *commandLine) seed(out string, groups, teachers, subjects, rooms, exams int) error {
	var groupIDs, teacherIDs, subjectIDs []int
	for i := 0; i < groups; i++ {
		groupIDs = append(groupIDs, cli.store.AddGroup().ID)
	}
	for i := 0; i < subjects; i++ {
		subjectIDs = append(subjectIDs, cli.store.AddSubject().ID)
	}
	for i := 0; i < teachers; i++ {
		t := cli.store.AddTeacher()
		teacherIDs = append(teacherIDs, t.ID)
		if len(subjectIDs) > 0 {
			cli.store.AddTeacherSubject(t.ID, subjectIDs[i%len(subjectIDs)])
		}
	}
	for i := 0; i < rooms; i++ {
		cli.store.AddRoom()
	}
	for i := 0; i < exams; i++ {
		e := cli.store.AddExam()
		if len(groupIDs) > 0 {
			cli.store.UpdateField(schedule.CollectionExams, e.ID, "groupId", groupIDs[i%len(groupIDs)])
		}
		if len(subjectIDs) > 0 {
			cli.store.UpdateField(schedule.CollectionExams, e.ID, "subjectId", subjectIDs[i%len(subjectIDs)])
		}
		if len(teacherIDs) > 0 {
			cli.store.UpdateField(schedule.CollectionExams, e.ID, "teacherId", teacherIDs[i%len(teacherIDs)])
		}
	}

	return cli.save(out)
}

func (cli *commandLine) show(in, group, teacher, subject string) error {
	if err := cli.load(in); err != nil {
		return err
	}

	res := cli.view.Result()
	if res.Validation.OK {
		fmt.Println("validation: ok")
	} else {
		fmt.Println("validation: problems found")
		for _, e := range res.Validation.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
	fmt.Printf("algorithm: %s\n\n", res.Algorithm)

	items := cli.view.Filtered(group, teacher, subject)
	if len(items) == 0 {
		fmt.Println("no entries for the selected filter")
		return nil
	}
	fmt.Printf("%-12s %-13s %-16s %-16s %-16s %s\n", "DATE", "TIME", "GROUP", "SUBJECT", "TEACHER", "ROOM")
	for _, item := range items {
		fmt.Printf("%-12s %5s–%-6s %-16s %-16s %-16s %s\n",
			item.Date, item.StartTime, item.EndTime,
			item.GroupName, item.SubjectName, item.TeacherName, item.RoomName)
	}
	return nil
}

// collectionSession is a pseudo-collection for the session window; the window
// is a singleton, so edits to it take no -id.
const collectionSession = "session"

func (cli *commandLine) edit(in, out, collection string, id int, field, value string) error {
	if err := cli.load(in); err != nil {
		return err
	}
	if collection == collectionSession {
		cli.editSession(field, value)
	} else {
		cli.store.UpdateField(collection, id, field, coerceFieldValue(field, value))
	}
	return cli.save(out)
}

// editSession applies a session-window edit, clamping the per-day limit to its
// bounds the way record edits clamp difficulty.
func (cli *commandLine) editSession(field, value string) {
	sw := cli.store.Config().Session
	switch field {
	case "start":
		sw.Start = core.CleanString(value)
	case "end":
		sw.End = core.CleanString(value)
	case "maxExamsPerDayForGroup":
		sw.MaxExamsPerDayForGroup = core.ClampInt(
			core.ParseIntOr(value, schedule.MinExamsPerDay),
			schedule.MinExamsPerDay, schedule.MaxExamsPerDay,
		)
	}
	cli.store.SetSessionWindow(sw)
}

// coerceFieldValue normalizes raw input before it reaches the store, the way the
// edit handlers do: blank or non-numeric numeric input falls back to the field
// default, difficulty is clamped to its bounds, a blank reference means
// "unassigned".
func coerceFieldValue(field, value string) interface{} {
	switch field {
	case "name":
		return core.CleanString(value)
	case "size":
		return core.ParseIntOr(value, schedule.DefaultGroupSize)
	case "capacity":
		return core.ParseIntOr(value, schedule.DefaultRoomCapacity)
	case "difficulty":
		return core.ClampInt(
			core.ParseIntOr(value, schedule.MinDifficulty),
			schedule.MinDifficulty, schedule.MaxDifficulty,
		)
	case "durationMinutes":
		return core.ParseIntOr(value, schedule.DefaultDurationMinutes)
	case "groupId", "teacherId", "subjectId":
		if core.CleanString(value) == "" {
			return nil
		}
		return core.ParseIntOr(value, 0)
	}
	return value
}

func (cli *commandLine) public(out string) error {
	cli.ctrl.Bootstrap(context.Background())
	return cli.save(out)
}

func (cli *commandLine) generate(in, out, uname, pwd string, publish bool) error {
	ctx := context.Background()

	if err := cli.load(in); err != nil {
		return err
	}
	if err := cli.ctrl.Login(ctx, uname, pwd); err != nil {
		return err
	}
	defer cli.ctrl.Logout(ctx)

	if err := cli.ctrl.Generate(ctx); err != nil {
		return err
	}
	if name := cli.ctrl.ScheduleName(); name != "" {
		fmt.Printf("generated: %s\n", name)
	}

	if publish {
		if err := cli.ctrl.Publish(ctx); err != nil {
			return err
		}
		fmt.Println("published")
	}
	return cli.save(out)
}

func (cli *commandLine) load(path string) error {
	data, err := document.Load(path)
	if err != nil {
		return err
	}
	return cli.codec.Import(data)
}

func (cli *commandLine) save(path string) error {
	data, err := cli.codec.Export()
	if err != nil {
		return err
	}
	if err = document.Save(path, data); err != nil {
		return err
	}
	fmt.Printf("saved %s\n", path)
	return nil
}
