package services

import (
	"github.com/yukikurage/taskboard-api/internal/apperr"
	"github.com/yukikurage/taskboard-api/internal/fields"
	"github.com/yukikurage/taskboard-api/internal/repository"
)

type FieldServiceTestSuite struct {
	serviceSuite
}

func (s *FieldServiceTestSuite) TestLifecycle() {
	p := s.newProject("Board")

	_, err := s.fields.CreateFields(s.ctx, p.ID, nil)
	s.ErrorIs(err, apperr.ErrInvalidArgument)

	created, err := s.fields.CreateFields(s.ctx, p.ID, []repository.FieldSpec{
		{Type: fields.KindEnum, Title: "Priority", Options: []string{"low", "high"}},
	})
	s.Require().NoError(err)
	s.Require().Len(created, 1)

	got, err := s.fields.GetField(s.ctx, p.ID, created[0].ID)
	s.Require().NoError(err)
	s.Equal("Priority", got.Title)
	s.Len(got.Options, 2)

	title := "Urgency"
	updated, err := s.fields.UpdateFields(s.ctx, p.ID, []repository.FieldEdit{{ID: got.ID, Title: &title}})
	s.Require().NoError(err)
	s.Equal("Urgency", updated[0].Title)
	s.Len(updated[0].Options, 2)

	all, err := s.fields.ListFields(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Len(all, 1)

	deleted, err := s.fields.DeleteFields(s.ctx, p.ID, []uint64{got.ID})
	s.Require().NoError(err)
	s.True(deleted)

	_, err = s.fields.GetField(s.ctx, p.ID, got.ID)
	s.ErrorIs(err, apperr.ErrNotFound)

	deleted, err = s.fields.DeleteFields(s.ctx, p.ID, []uint64{got.ID})
	s.Require().NoError(err)
	s.False(deleted)
}

func (s *FieldServiceTestSuite) TestDeleteField_RemovesTaskValues() {
	p := s.newProject("Board", repository.FieldSpec{Type: fields.KindString, Title: "Owner"})
	board, err := s.projects.GetBoard(s.ctx, p.ID)
	s.Require().NoError(err)
	owner := board.Fields[0]
	l := s.newList(p.ID, "L")

	task, err := s.tasks.CreateTask(s.ctx, CreateTaskInput{
		ProjectID: p.ID, ListID: l.ID, AuthorID: 1, Title: "t",
		Fields: []fields.Edit{{FieldID: owner.ID, Raw: "ann"}},
	})
	s.Require().NoError(err)
	s.Len(task.FieldValues, 1)

	_, err = s.fields.DeleteFields(s.ctx, p.ID, []uint64{owner.ID})
	s.Require().NoError(err)

	task, err = s.tasks.GetTask(s.ctx, p.ID, task.ID)
	s.Require().NoError(err)
	s.Empty(task.FieldValues)

	_, err = s.tasks.UpdateTask(s.ctx, p.ID, task.ID, UpdateTaskInput{Fields: []fields.Edit{{FieldID: owner.ID, Raw: "bob"}}})
	s.ErrorIs(err, apperr.ErrValidation)
}

func (s *FieldServiceTestSuite) TestFieldsAreScopedToProject() {
	p := s.newProject("Board", repository.FieldSpec{Type: fields.KindString, Title: "Owner"})
	other := s.newProject("Other")
	board, err := s.projects.GetBoard(s.ctx, p.ID)
	s.Require().NoError(err)

	_, err = s.fields.GetField(s.ctx, other.ID, board.Fields[0].ID)
	s.ErrorIs(err, apperr.ErrNotFound)

	deleted, err := s.fields.DeleteFields(s.ctx, other.ID, []uint64{board.Fields[0].ID})
	s.Require().NoError(err)
	s.False(deleted)
}
