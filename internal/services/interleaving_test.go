package services

import (
	"fmt"
	"sync"

	"github.com/yukikurage/taskboard-api/internal/fields"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/repository"
	"github.com/yukikurage/taskboard-api/internal/testutil"
)

// afterFirstTaskRead runs hook in the caller's transaction right after the
// first task read. The hook stands in for a write that commits between that
// read and the caller taking its locks.
type afterFirstTaskRead struct {
	repository.TaskRepository
	hook func(tx *repository.Tx)
}

func (r *afterFirstTaskRead) FindByID(tx *repository.Tx, projectID, taskID uint64) (*models.Task, error) {
	task, err := r.TaskRepository.FindByID(tx, projectID, taskID)
	if hook := r.hook; hook != nil {
		r.hook = nil
		hook(tx)
	}
	return task, err
}

// afterSchemaRead runs hook right after the locked schema read.
type afterSchemaRead struct {
	repository.FieldRepository
	hook func(tx *repository.Tx)
}

func (r *afterSchemaRead) ShareFields(tx *repository.Tx, projectID uint64) ([]models.Field, error) {
	schema, err := r.FieldRepository.ShareFields(tx, projectID)
	if hook := r.hook; hook != nil {
		r.hook = nil
		hook(tx)
	}
	return schema, err
}

// InterleavingTestSuite replays writes that land between a service's first
// read and its locks, on a database that enforces foreign keys.
type InterleavingTestSuite struct {
	serviceSuite
}

func (s *InterleavingTestSuite) SetupTest() {
	s.setup(testutil.NewDB(s.T(), testutil.WithForeignKeys()))
}

func (s *InterleavingTestSuite) tasksWith(tasks repository.TaskRepository, schema repository.FieldRepository) *TaskService {
	return NewTaskService(s.txr, tasks, s.listRepo, schema, s.values, s.seq, s.cache, nil)
}

func (s *InterleavingTestSuite) seedTasks(projectID, listID uint64, titles ...string) []*models.Task {
	tasks := make([]*models.Task, len(titles))
	for i, title := range titles {
		tasks[i] = s.newTask(projectID, listID, title)
	}
	return tasks
}

func (s *InterleavingTestSuite) moveFirstToEnd(listID uint64) func(tx *repository.Tx) {
	return func(tx *repository.Tx) {
		s.Require().NoError(s.seq.Move(tx, repository.TaskScope(listID), 1, 4))
	}
}

func (s *InterleavingTestSuite) TestMoveTask_SiblingMovedAfterRead() {
	p := s.newProject("Board")
	l := s.newList(p.ID, "L")
	seeded := s.seedTasks(p.ID, l.ID, "a", "b", "c", "d")
	c := seeded[2]

	svc := s.tasksWith(&afterFirstTaskRead{TaskRepository: s.taskRepo, hook: s.moveFirstToEnd(l.ID)}, s.schema)
	moved, err := svc.MoveTask(s.ctx, p.ID, c.ID, MoveTaskInput{Position: 1})

	s.Require().NoError(err)
	s.Equal(c.ID, moved.ID)
	s.Equal(1, moved.Position)
	s.Equal([]string{"c", "b", "d", "a"}, s.taskTitles(p.ID, l.ID))
}

func (s *InterleavingTestSuite) TestDeleteTask_SiblingMovedAfterRead() {
	p := s.newProject("Board")
	l := s.newList(p.ID, "L")
	seeded := s.seedTasks(p.ID, l.ID, "a", "b", "c", "d")

	svc := s.tasksWith(&afterFirstTaskRead{TaskRepository: s.taskRepo, hook: s.moveFirstToEnd(l.ID)}, s.schema)
	s.Require().NoError(svc.DeleteTask(s.ctx, p.ID, seeded[2].ID))

	s.Equal([]string{"b", "d", "a"}, s.taskTitles(p.ID, l.ID))
}

func (s *InterleavingTestSuite) TestMoveTask_TaskChangedListAfterRead() {
	p := s.newProject("Board")
	l1 := s.newList(p.ID, "L1")
	l2 := s.newList(p.ID, "L2")
	c := s.seedTasks(p.ID, l1.ID, "a", "b", "c")[2]
	s.seedTasks(p.ID, l2.ID, "x", "y")

	hook := func(tx *repository.Tx) {
		s.Require().NoError(s.seq.MoveAcrossScope(tx, repository.TaskScope(l1.ID).Of(c.ID), 3, repository.TaskScope(l2.ID), 1))
	}
	svc := s.tasksWith(&afterFirstTaskRead{TaskRepository: s.taskRepo, hook: hook}, s.schema)
	moved, err := svc.MoveTask(s.ctx, p.ID, c.ID, MoveTaskInput{Position: 2})

	s.Require().NoError(err)
	s.Equal(l2.ID, moved.ListID)
	s.Equal(2, moved.Position)
	s.Equal([]string{"a", "b"}, s.taskTitles(p.ID, l1.ID))
	s.Equal([]string{"x", "c", "y"}, s.taskTitles(p.ID, l2.ID))
}

func (s *InterleavingTestSuite) TestMoveTask_AcrossListsAfterSiblingMoved() {
	p := s.newProject("Board")
	l1 := s.newList(p.ID, "L1")
	l2 := s.newList(p.ID, "L2")
	c := s.seedTasks(p.ID, l1.ID, "a", "b", "c")[2]
	s.seedTasks(p.ID, l2.ID, "x")

	hook := func(tx *repository.Tx) {
		s.Require().NoError(s.seq.Move(tx, repository.TaskScope(l1.ID), 1, 3))
	}
	svc := s.tasksWith(&afterFirstTaskRead{TaskRepository: s.taskRepo, hook: hook}, s.schema)
	moved, err := svc.MoveTask(s.ctx, p.ID, c.ID, MoveTaskInput{TargetListID: &l2.ID, Position: 1})

	s.Require().NoError(err)
	s.Equal(l2.ID, moved.ListID)
	s.Equal([]string{"b", "a"}, s.taskTitles(p.ID, l1.ID))
	s.Equal([]string{"c", "x"}, s.taskTitles(p.ID, l2.ID))
}

func (s *InterleavingTestSuite) TestCreateTask_FieldDeletedAfterValidation() {
	p := s.newProject("Board", repository.FieldSpec{Type: fields.KindNumber, Title: "Size"})
	board, err := s.projects.GetBoard(s.ctx, p.ID)
	s.Require().NoError(err)
	size := board.Fields[0]
	l := s.newList(p.ID, "L")

	hook := func(tx *repository.Tx) {
		_, err := s.schema.DeleteFields(tx, p.ID, []uint64{size.ID})
		s.Require().NoError(err)
	}
	svc := s.tasksWith(s.taskRepo, &afterSchemaRead{FieldRepository: s.schema, hook: hook})
	_, err = svc.CreateTask(s.ctx, CreateTaskInput{
		ProjectID: p.ID,
		ListID:    l.ID,
		AuthorID:  1,
		Title:     "t",
		Fields:    []fields.Edit{{FieldID: size.ID, Raw: 5.0}},
	})
	s.Error(err)

	var tasks, values int64
	s.Require().NoError(s.db.Model(&models.Task{}).Count(&tasks).Error)
	s.Require().NoError(s.db.Model(&models.FieldValue{}).Count(&values).Error)
	s.Zero(tasks)
	s.Zero(values)
}

func (s *InterleavingTestSuite) TestConcurrentWrites_KeepPositionsDense() {
	p := s.newProject("Board")
	l := s.newList(p.ID, "L")
	for i := 0; i < 3; i++ {
		s.newList(p.ID, fmt.Sprintf("extra%d", i))
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	record := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			errs = append(errs, err)
		}
	}

	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, err := s.tasks.CreateTask(s.ctx, CreateTaskInput{
				ProjectID: p.ID,
				ListID:    l.ID,
				AuthorID:  1,
				Title:     fmt.Sprintf("t%d", i),
			})
			record(err)
		}(i)
		go func(i int) {
			defer wg.Done()
			_, err := s.lists.MoveList(s.ctx, p.ID, l.ID, i%4+1)
			record(err)
		}(i)
	}
	wg.Wait()

	s.Empty(errs)
	s.Len(s.taskTitles(p.ID, l.ID), 8)

	board, err := s.projects.GetBoard(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Require().Len(board.Lists, 4)
	for i, list := range board.Lists {
		s.Equal(i+1, list.Position)
	}
}
