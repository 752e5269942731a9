package services

import (
	"github.com/yukikurage/taskboard-api/internal/apperr"
)

type ListServiceTestSuite struct {
	serviceSuite
}

func (s *ListServiceTestSuite) listTitles(projectID uint64) []string {
	board, err := s.projects.GetBoard(s.ctx, projectID)
	s.Require().NoError(err)

	titles := make([]string, len(board.Lists))
	for i, l := range board.Lists {
		s.Equal(i+1, l.Position, "list %q", l.Title)
		titles[i] = l.Title
	}
	return titles
}

func (s *ListServiceTestSuite) TestScenarioA() {
	p := s.newProject("Board")

	backlog := s.newList(p.ID, "Backlog")
	doing := s.newList(p.ID, "Doing")
	s.Equal(1, backlog.Position)
	s.Equal(2, doing.Position)

	moved, err := s.lists.MoveList(s.ctx, p.ID, backlog.ID, 2)
	s.Require().NoError(err)
	s.Equal(2, moved.Position)

	s.Equal([]string{"Doing", "Backlog"}, s.listTitles(p.ID))
}

func (s *ListServiceTestSuite) TestDeleteMiddleList() {
	p := s.newProject("Board")
	s.newList(p.ID, "A")
	b := s.newList(p.ID, "B")
	s.newList(p.ID, "C")
	s.newTask(p.ID, b.ID, "inside")

	s.Require().NoError(s.lists.DeleteList(s.ctx, p.ID, b.ID))

	s.Equal([]string{"A", "C"}, s.listTitles(p.ID))

	_, err := s.lists.GetList(s.ctx, p.ID, b.ID)
	s.ErrorIs(err, apperr.ErrNotFound)
}

func (s *ListServiceTestSuite) TestMoveList_Errors() {
	p := s.newProject("Board")
	l := s.newList(p.ID, "A")

	_, err := s.lists.MoveList(s.ctx, p.ID, 999, 1)
	s.ErrorIs(err, apperr.ErrNotFound)

	_, err = s.lists.MoveList(s.ctx, p.ID, l.ID, 0)
	s.ErrorIs(err, apperr.ErrInvalidArgument)

	other := s.newProject("Other")
	_, err = s.lists.MoveList(s.ctx, other.ID, l.ID, 1)
	s.ErrorIs(err, apperr.ErrNotFound)
}

func (s *ListServiceTestSuite) TestUpdateList() {
	p := s.newProject("Board")
	l := s.newList(p.ID, "A")

	title := "Renamed"
	desc := "now with a description"
	updated, err := s.lists.UpdateList(s.ctx, p.ID, l.ID, UpdateListInput{Title: &title, Description: &desc})
	s.Require().NoError(err)
	s.Equal("Renamed", updated.Title)
	s.Equal(desc, updated.Description)
	s.Equal(1, updated.Position)

	blank := " "
	_, err = s.lists.UpdateList(s.ctx, p.ID, l.ID, UpdateListInput{Title: &blank})
	s.ErrorIs(err, apperr.ErrInvalidArgument)
}

func (s *ListServiceTestSuite) TestCreateList_InvalidatesBoard() {
	p := s.newProject("Board")
	s.listTitles(p.ID)
	_, _, cached := s.cache.Get(s.ctx, p.ID)
	s.True(cached)

	s.newList(p.ID, "A")

	_, _, cached = s.cache.Get(s.ctx, p.ID)
	s.False(cached)
	s.Contains(s.cache.invalidated, p.ID)
}

func (s *ListServiceTestSuite) TestCreateList_RequiresTitle() {
	p := s.newProject("Board")

	_, err := s.lists.CreateList(s.ctx, CreateListInput{ProjectID: p.ID, Title: ""})
	s.ErrorIs(err, apperr.ErrInvalidArgument)

	_, err = s.lists.CreateList(s.ctx, CreateListInput{ProjectID: 999, Title: "x"})
	s.ErrorIs(err, apperr.ErrNotFound)
}
