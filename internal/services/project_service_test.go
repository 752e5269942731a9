package services

import (
	"time"

	"github.com/yukikurage/taskboard-api/internal/apperr"
	"github.com/yukikurage/taskboard-api/internal/fields"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/repository"
	"github.com/yukikurage/taskboard-api/internal/utils"
)

type ProjectServiceTestSuite struct {
	serviceSuite
}

func (s *ProjectServiceTestSuite) role(projectID, userID uint64) models.ProjectRole {
	role, err := repository.NewAccessFacts(s.db).ProjectRole(s.ctx, projectID, userID)
	s.Require().NoError(err)
	return role
}

func (s *ProjectServiceTestSuite) TestCreateProject() {
	project, invite, err := s.projects.CreateProject(s.ctx, CreateProjectInput{
		CreatorID: 5,
		Title:     " Roadmap ",
		Fields:    []repository.FieldSpec{{Type: fields.KindNumber, Title: "Size"}},
	})
	s.Require().NoError(err)

	s.Equal("Roadmap", project.Title)
	s.Len(project.Fields, 1)
	s.Equal(models.RoleCreator, s.role(project.ID, 5))
	s.Regexp(`^[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}$`, invite.Code)
	s.NotEqual(invite.Code, project.InviteCodeHash)
	s.WithinDuration(time.Now().Add(24*time.Hour), invite.ExpiresAt, time.Minute)

	_, _, err = s.projects.CreateProject(s.ctx, CreateProjectInput{CreatorID: 5, Title: ""})
	s.ErrorIs(err, apperr.ErrInvalidArgument)
}

func (s *ProjectServiceTestSuite) TestCreateProject_BadFieldRollsBack() {
	_, _, err := s.projects.CreateProject(s.ctx, CreateProjectInput{
		CreatorID: 5,
		Title:     "Roadmap",
		Fields:    []repository.FieldSpec{{Type: fields.KindEnum, Title: "P"}},
	})
	s.ErrorIs(err, apperr.ErrValidation)

	var n int64
	s.Require().NoError(s.db.Model(&models.Project{}).Count(&n).Error)
	s.Zero(n)
}

func (s *ProjectServiceTestSuite) TestGetBoard_OrdersEverything() {
	p := s.newProject("Board")
	a := s.newList(p.ID, "A")
	b := s.newList(p.ID, "B")
	s.newTask(p.ID, b.ID, "b1")
	s.newTask(p.ID, b.ID, "b2")
	_, err := s.lists.MoveList(s.ctx, p.ID, b.ID, 1)
	s.Require().NoError(err)

	board, err := s.projects.GetBoard(s.ctx, p.ID)
	s.Require().NoError(err)

	s.Require().Len(board.Lists, 2)
	s.Equal(b.ID, board.Lists[0].ID)
	s.Equal(a.ID, board.Lists[1].ID)
	s.Require().Len(board.Lists[0].Tasks, 2)
	s.Equal("b1", board.Lists[0].Tasks[0].Title)
	s.Equal("b2", board.Lists[0].Tasks[1].Title)

	cached, _, ok := s.cache.Get(s.ctx, p.ID)
	s.True(ok)
	s.Same(board, cached)

	again, err := s.projects.GetBoard(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Same(board, again)

	_, err = s.projects.GetBoard(s.ctx, 999)
	s.ErrorIs(err, apperr.ErrNotFound)
}

func (s *ProjectServiceTestSuite) TestGetBoard_WriteDuringLoadIsNotCached() {
	p := s.newProject("Board")
	s.cache.beforeSet = func() {
		s.newList(p.ID, "late")
	}

	board, err := s.projects.GetBoard(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Empty(board.Lists)

	_, _, cached := s.cache.Get(s.ctx, p.ID)
	s.False(cached)

	board, err = s.projects.GetBoard(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Require().Len(board.Lists, 1)
	s.Equal("late", board.Lists[0].Title)
}

func (s *ProjectServiceTestSuite) TestJoinByCode() {
	project, invite, err := s.projects.CreateProject(s.ctx, CreateProjectInput{CreatorID: 1, Title: "Board"})
	s.Require().NoError(err)

	_, err = s.projects.JoinByCode(s.ctx, project.ID, 2, "wrong-code-0000")
	s.ErrorIs(err, apperr.ErrForbidden)

	joined, err := s.projects.JoinByCode(s.ctx, project.ID, 2, invite.Code)
	s.Require().NoError(err)
	s.Equal(project.ID, joined.ID)
	s.Equal(models.RoleMember, s.role(project.ID, 2))

	_, err = s.projects.JoinByCode(s.ctx, project.ID, 2, "anything")
	s.NoError(err)

	renewed, err := s.projects.RegenerateInvite(s.ctx, project.ID)
	s.Require().NoError(err)
	_, err = s.projects.JoinByCode(s.ctx, project.ID, 3, invite.Code)
	s.ErrorIs(err, apperr.ErrForbidden)
	_, err = s.projects.JoinByCode(s.ctx, project.ID, 3, renewed.Code)
	s.NoError(err)
}

func (s *ProjectServiceTestSuite) TestJoinByCode_Expired() {
	project, invite, err := s.projects.CreateProject(s.ctx, CreateProjectInput{CreatorID: 1, Title: "Board"})
	s.Require().NoError(err)

	s.projects.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	defer func() { s.projects.now = time.Now }()

	_, err = s.projects.JoinByCode(s.ctx, project.ID, 2, invite.Code)
	s.ErrorIs(err, apperr.ErrForbidden)
}

func (s *ProjectServiceTestSuite) TestKickAndBan() {
	project, invite, err := s.projects.CreateProject(s.ctx, CreateProjectInput{CreatorID: 1, Title: "Board"})
	s.Require().NoError(err)
	for _, uid := range []uint64{2, 3} {
		_, err := s.projects.JoinByCode(s.ctx, project.ID, uid, invite.Code)
		s.Require().NoError(err)
	}

	s.ErrorIs(s.projects.KickMember(s.ctx, project.ID, 1, 1, false), apperr.ErrInvalidArgument)
	s.ErrorIs(s.projects.KickMember(s.ctx, project.ID, 2, 1, false), apperr.ErrForbidden)
	s.ErrorIs(s.projects.KickMember(s.ctx, project.ID, 1, 99, false), apperr.ErrNotFound)

	s.Require().NoError(s.projects.KickMember(s.ctx, project.ID, 1, 2, false))
	s.Equal(models.ProjectRole(""), s.role(project.ID, 2))

	s.Require().NoError(s.projects.KickMember(s.ctx, project.ID, 1, 3, true))
	s.Equal(models.RoleBanned, s.role(project.ID, 3))

	_, err = s.projects.JoinByCode(s.ctx, project.ID, 3, invite.Code)
	s.ErrorIs(err, apperr.ErrForbidden)

	projects, total, err := s.projects.ListProjects(s.ctx, 3, utils.PaginationParams{Page: 1, Limit: 10})
	s.Require().NoError(err)
	s.Zero(total)
	s.Empty(projects)

	members, err := s.projects.ListMembers(s.ctx, project.ID)
	s.Require().NoError(err)
	s.Len(members, 2)
}

func (s *ProjectServiceTestSuite) TestLeaveProject_LastMemberDeletes() {
	project, invite, err := s.projects.CreateProject(s.ctx, CreateProjectInput{
		CreatorID: 1,
		Title:     "Board",
		Fields:    []repository.FieldSpec{{Type: fields.KindString, Title: "Owner"}},
	})
	s.Require().NoError(err)
	l := s.newList(project.ID, "L")
	s.newTask(project.ID, l.ID, "t")
	_, err = s.projects.JoinByCode(s.ctx, project.ID, 2, invite.Code)
	s.Require().NoError(err)

	s.Require().NoError(s.projects.LeaveProject(s.ctx, project.ID, 1))
	_, err = s.projects.GetBoard(s.ctx, project.ID)
	s.Require().NoError(err)

	s.Require().NoError(s.projects.LeaveProject(s.ctx, project.ID, 2))
	_, err = s.projects.GetBoard(s.ctx, project.ID)
	s.ErrorIs(err, apperr.ErrNotFound)

	for _, model := range []any{&models.List{}, &models.Task{}, &models.Field{}, &models.ProjectMember{}} {
		var n int64
		s.Require().NoError(s.db.Model(model).Count(&n).Error)
		s.Zero(n, "%T", model)
	}

	s.ErrorIs(s.projects.LeaveProject(s.ctx, project.ID, 2), apperr.ErrNotFound)
}

func (s *ProjectServiceTestSuite) TestUpdateAndDeleteProject() {
	p := s.newProject("Board", repository.FieldSpec{Type: fields.KindString, Title: "Owner"})
	board, err := s.projects.GetBoard(s.ctx, p.ID)
	s.Require().NoError(err)

	title := "Renamed"
	fieldTitle := "Assignee"
	updated, err := s.projects.UpdateProject(s.ctx, p.ID, UpdateProjectInput{
		Title:  &title,
		Fields: []repository.FieldEdit{{ID: board.Fields[0].ID, Title: &fieldTitle}},
	})
	s.Require().NoError(err)
	s.Equal("Renamed", updated.Title)
	s.Equal("Assignee", updated.Fields[0].Title)

	projects, total, err := s.projects.ListProjects(s.ctx, 1, utils.PaginationParams{Page: 1, Limit: 10})
	s.Require().NoError(err)
	s.EqualValues(1, total)
	s.Len(projects, 1)

	s.Require().NoError(s.projects.DeleteProject(s.ctx, p.ID))
	s.ErrorIs(s.projects.DeleteProject(s.ctx, p.ID), apperr.ErrNotFound)
}
