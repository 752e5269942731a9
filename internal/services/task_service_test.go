package services

import (
	"context"
	"errors"

	"github.com/yukikurage/taskboard-api/internal/apperr"
	"github.com/yukikurage/taskboard-api/internal/constants"
	"github.com/yukikurage/taskboard-api/internal/fields"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/repository"
)

type TaskServiceTestSuite struct {
	serviceSuite
}

func valueOf(s *TaskServiceTestSuite, task *models.Task, fieldID uint64) (fields.Value, bool) {
	for _, fv := range task.FieldValues {
		if fv.FieldID == fieldID {
			v, err := fv.Decode()
			s.Require().NoError(err)
			return v, true
		}
	}
	return nil, false
}

func (s *TaskServiceTestSuite) TestCreateTask_AppendsAndStoresValues() {
	p := s.newProject("Board",
		repository.FieldSpec{Type: fields.KindString, Title: "Owner"},
		repository.FieldSpec{Type: fields.KindEnum, Title: "Priority", Options: []string{"low", "high"}},
	)
	board, err := s.projects.GetBoard(s.ctx, p.ID)
	s.Require().NoError(err)
	owner, priority := board.Fields[0], board.Fields[1]
	l := s.newList(p.ID, "Todo")

	first := s.newTask(p.ID, l.ID, "first")
	second, err := s.tasks.CreateTask(s.ctx, CreateTaskInput{
		ProjectID: p.ID,
		ListID:    l.ID,
		AuthorID:  9,
		Title:     "second",
		Fields: []fields.Edit{
			{FieldID: priority.ID, Raw: 1.0},
			{FieldID: owner.ID, Raw: "ann"},
		},
	})
	s.Require().NoError(err)

	s.Equal(1, first.Position)
	s.Equal(2, second.Position)
	s.Equal(uint64(9), second.AuthorID)
	s.Require().Len(second.FieldValues, 2)
	s.Less(second.FieldValues[0].FieldID, second.FieldValues[1].FieldID)

	v, ok := valueOf(s, second, priority.ID)
	s.True(ok)
	s.Equal(fields.EnumValue(1), v)
}

func (s *TaskServiceTestSuite) TestCreateTask_ValidationLeavesNoRows() {
	p := s.newProject("Board", repository.FieldSpec{Type: fields.KindEnum, Title: "P", Options: []string{"a", "b", "c"}})
	board, err := s.projects.GetBoard(s.ctx, p.ID)
	s.Require().NoError(err)
	enum := board.Fields[0]
	l := s.newList(p.ID, "Todo")

	cases := []struct {
		name   string
		edit   fields.Edit
		reason string
	}{
		{"out of range", fields.Edit{FieldID: enum.ID, Raw: 3.0}, fields.ReasonEnumRange},
		{"not numeric", fields.Edit{FieldID: enum.ID, Raw: "a"}, fields.ReasonExpectedNumber},
		{"unknown field", fields.Edit{FieldID: 777, Raw: "a"}, fields.ReasonUnknownField},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.tasks.CreateTask(s.ctx, CreateTaskInput{
				ProjectID: p.ID, ListID: l.ID, AuthorID: 1, Title: "t",
				Fields: []fields.Edit{tc.edit},
			})
			var appErr *apperr.Error
			s.Require().True(errors.As(err, &appErr))
			s.Equal(apperr.KindValidation, appErr.Kind)
			s.Equal(tc.reason, appErr.Reason)
		})
	}

	s.Empty(s.taskTitles(p.ID, l.ID))
}

func (s *TaskServiceTestSuite) TestCreateTask_ListFromOtherProject() {
	p := s.newProject("Board")
	other := s.newProject("Other")
	l := s.newList(other.ID, "Theirs")

	_, err := s.tasks.CreateTask(s.ctx, CreateTaskInput{ProjectID: p.ID, ListID: l.ID, AuthorID: 1, Title: "t"})
	s.ErrorIs(err, apperr.ErrNotFound)
}

func (s *TaskServiceTestSuite) TestScenarioB() {
	p := s.newProject("Board")
	l := s.newList(p.ID, "Todo")
	s.newTask(p.ID, l.ID, "a")
	b := s.newTask(p.ID, l.ID, "b")
	s.newTask(p.ID, l.ID, "c")

	s.Require().NoError(s.tasks.DeleteTask(s.ctx, p.ID, b.ID))

	s.Equal([]string{"a", "c"}, s.taskTitles(p.ID, l.ID))
	_, err := s.tasks.GetTask(s.ctx, p.ID, b.ID)
	s.ErrorIs(err, apperr.ErrNotFound)
}

func (s *TaskServiceTestSuite) TestScenarioC() {
	p := s.newProject("Board", repository.FieldSpec{Type: fields.KindNumber, Title: "Size"})
	board, err := s.projects.GetBoard(s.ctx, p.ID)
	s.Require().NoError(err)
	size := board.Fields[0]
	l := s.newList(p.ID, "Todo")

	task, err := s.tasks.CreateTask(s.ctx, CreateTaskInput{
		ProjectID: p.ID, ListID: l.ID, AuthorID: 1, Title: "t",
		Fields: []fields.Edit{{FieldID: size.ID, Raw: 5.0}},
	})
	s.Require().NoError(err)
	v, ok := valueOf(s, task, size.ID)
	s.Require().True(ok)
	s.Equal(fields.NumberValue(5), v)

	enum := fields.KindEnum
	_, err = s.fields.UpdateFields(s.ctx, p.ID, []repository.FieldEdit{{ID: size.ID, Type: &enum, Options: []string{"S", "M"}}})
	s.Require().NoError(err)

	task, err = s.tasks.GetTask(s.ctx, p.ID, task.ID)
	s.Require().NoError(err)
	_, ok = valueOf(s, task, size.ID)
	s.False(ok)

	task, err = s.tasks.UpdateTask(s.ctx, p.ID, task.ID, UpdateTaskInput{Fields: []fields.Edit{{FieldID: size.ID, Raw: 1}}})
	s.Require().NoError(err)
	v, ok = valueOf(s, task, size.ID)
	s.Require().True(ok)
	s.Equal(fields.EnumValue(1), v)

	_, err = s.tasks.UpdateTask(s.ctx, p.ID, task.ID, UpdateTaskInput{Fields: []fields.Edit{{FieldID: size.ID, Raw: 5}}})
	s.ErrorIs(err, apperr.ErrValidation)
}

func (s *TaskServiceTestSuite) TestScenarioD() {
	p := s.newProject("Board")
	l1 := s.newList(p.ID, "L1")
	l2 := s.newList(p.ID, "L2")
	a := s.newTask(p.ID, l1.ID, "a")
	s.newTask(p.ID, l1.ID, "a2")
	s.newTask(p.ID, l1.ID, "a3")
	s.newTask(p.ID, l2.ID, "b1")
	s.newTask(p.ID, l2.ID, "b2")

	moved, err := s.tasks.MoveTask(s.ctx, p.ID, a.ID, MoveTaskInput{TargetListID: &l2.ID, Position: 1})
	s.Require().NoError(err)
	s.Equal(l2.ID, moved.ListID)
	s.Equal(1, moved.Position)
	s.Equal(p.ID, moved.ProjectID)

	s.Equal([]string{"a2", "a3"}, s.taskTitles(p.ID, l1.ID))
	s.Equal([]string{"a", "b1", "b2"}, s.taskTitles(p.ID, l2.ID))
}

func (s *TaskServiceTestSuite) TestMoveTask_WithinList() {
	p := s.newProject("Board")
	l := s.newList(p.ID, "L")
	s.newTask(p.ID, l.ID, "a")
	s.newTask(p.ID, l.ID, "b")
	c := s.newTask(p.ID, l.ID, "c")

	moved, err := s.tasks.MoveTask(s.ctx, p.ID, c.ID, MoveTaskInput{Position: 1})
	s.Require().NoError(err)
	s.Equal(1, moved.Position)
	s.Equal([]string{"c", "a", "b"}, s.taskTitles(p.ID, l.ID))

	moved, err = s.tasks.MoveTask(s.ctx, p.ID, c.ID, MoveTaskInput{TargetListID: &l.ID, Position: 10})
	s.Require().NoError(err)
	s.Equal(3, moved.Position)
	s.Equal([]string{"a", "b", "c"}, s.taskTitles(p.ID, l.ID))
}

func (s *TaskServiceTestSuite) TestMoveTask_Errors() {
	p := s.newProject("Board")
	l := s.newList(p.ID, "L")
	t := s.newTask(p.ID, l.ID, "a")
	other := s.newProject("Other")
	foreign := s.newList(other.ID, "X")

	_, err := s.tasks.MoveTask(s.ctx, p.ID, 999, MoveTaskInput{Position: 1})
	s.ErrorIs(err, apperr.ErrNotFound)

	_, err = s.tasks.MoveTask(s.ctx, p.ID, t.ID, MoveTaskInput{Position: 0})
	s.ErrorIs(err, apperr.ErrInvalidArgument)

	_, err = s.tasks.MoveTask(s.ctx, p.ID, t.ID, MoveTaskInput{TargetListID: &foreign.ID, Position: 1})
	s.ErrorIs(err, apperr.ErrNotFound)

	s.Equal([]string{"a"}, s.taskTitles(p.ID, l.ID))
}

func (s *TaskServiceTestSuite) TestUpdateTask_KeepsUnmentionedValues() {
	p := s.newProject("Board",
		repository.FieldSpec{Type: fields.KindString, Title: "Owner"},
		repository.FieldSpec{Type: fields.KindNumber, Title: "Size"},
	)
	board, err := s.projects.GetBoard(s.ctx, p.ID)
	s.Require().NoError(err)
	owner, size := board.Fields[0], board.Fields[1]
	l := s.newList(p.ID, "L")

	task, err := s.tasks.CreateTask(s.ctx, CreateTaskInput{
		ProjectID: p.ID, ListID: l.ID, AuthorID: 1, Title: "t",
		Fields: []fields.Edit{{FieldID: owner.ID, Raw: "ann"}},
	})
	s.Require().NoError(err)

	title := "renamed"
	task, err = s.tasks.UpdateTask(s.ctx, p.ID, task.ID, UpdateTaskInput{
		Title:  &title,
		Fields: []fields.Edit{{FieldID: size.ID, Raw: 2.5}},
	})
	s.Require().NoError(err)

	s.Equal("renamed", task.Title)
	s.Len(task.FieldValues, 2)
	v, _ := valueOf(s, task, owner.ID)
	s.Equal(fields.StringValue("ann"), v)
	v, _ = valueOf(s, task, size.ID)
	s.Equal(fields.NumberValue(2.5), v)

	task, err = s.tasks.UpdateTask(s.ctx, p.ID, task.ID, UpdateTaskInput{
		Fields: []fields.Edit{{FieldID: owner.ID, Raw: "bob"}},
	})
	s.Require().NoError(err)
	v, _ = valueOf(s, task, owner.ID)
	s.Equal(fields.StringValue("bob"), v)
}

func (s *TaskServiceTestSuite) TestUpdateTask_FailedValidationChangesNothing() {
	p := s.newProject("Board", repository.FieldSpec{Type: fields.KindNumber, Title: "Size"})
	board, err := s.projects.GetBoard(s.ctx, p.ID)
	s.Require().NoError(err)
	l := s.newList(p.ID, "L")
	task := s.newTask(p.ID, l.ID, "t")

	title := "changed"
	_, err = s.tasks.UpdateTask(s.ctx, p.ID, task.ID, UpdateTaskInput{
		Title:  &title,
		Fields: []fields.Edit{{FieldID: board.Fields[0].ID, Raw: "big"}},
	})
	s.ErrorIs(err, apperr.ErrValidation)

	stored, err := s.tasks.GetTask(s.ctx, p.ID, task.ID)
	s.Require().NoError(err)
	s.Equal("t", stored.Title)
}

// stubDrafter returns canned drafts.
type stubDrafter struct {
	drafts []GeneratedTask
	err    error
}

func (d stubDrafter) GenerateTasksFromText(context.Context, string) ([]GeneratedTask, error) {
	return d.drafts, d.err
}

func (s *TaskServiceTestSuite) TestGenerateTasks() {
	_, err := s.tasks.GenerateTasks(s.ctx, "write docs")
	s.ErrorIs(err, ErrAIServiceNotConfigured)

	many := make([]GeneratedTask, constants.MaxAIGeneratedTasks+5)
	for i := range many {
		many[i] = GeneratedTask{Title: "t"}
	}
	many[0].Title = "  "

	s.tasks.aiService = stubDrafter{drafts: many}
	drafts, err := s.tasks.GenerateTasks(s.ctx, "lots of work")
	s.Require().NoError(err)
	s.Len(drafts, constants.MaxAIGeneratedTasks-1)

	_, err = s.tasks.GenerateTasks(s.ctx, "  ")
	s.ErrorIs(err, apperr.ErrInvalidArgument)

	s.tasks.aiService = stubDrafter{}
	_, err = s.tasks.GenerateTasks(s.ctx, "nothing here")
	s.ErrorIs(err, ErrAINoTasksGenerated)

	s.tasks.aiService = stubDrafter{drafts: []GeneratedTask{{Title: ""}}}
	_, err = s.tasks.GenerateTasks(s.ctx, "blank")
	s.ErrorIs(err, ErrAINoValidTasks)
}
