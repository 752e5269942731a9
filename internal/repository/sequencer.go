package repository

import (
	"fmt"
	"sort"

	"github.com/yukikurage/taskboard-api/internal/apperr"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SentinelPosition parks the moving row while its siblings shift.
const SentinelPosition = -1

// Scope is a sibling set whose positions form 1..N. A scope narrowed with Of
// names one member: park then matches the member's id as well as its position.
type Scope struct {
	ParentID uint64
	MemberID uint64

	entity       string
	table        string
	parentEntity string
	parentTable  string
	parentColumn string
}

// ListScope is the set of lists in a project.
func ListScope(projectID uint64) Scope {
	return Scope{
		ParentID:     projectID,
		entity:       "list",
		table:        "lists",
		parentEntity: "project",
		parentTable:  "projects",
		parentColumn: "project_id",
	}
}

// TaskScope is the set of tasks in a list.
func TaskScope(listID uint64) Scope {
	return Scope{
		ParentID:     listID,
		entity:       "task",
		table:        "tasks",
		parentEntity: "list",
		parentTable:  "lists",
		parentColumn: "list_id",
	}
}

// Of narrows scope to the member with the given id.
func (s Scope) Of(id uint64) Scope {
	s.MemberID = id
	return s
}

func (s Scope) String() string {
	return fmt.Sprintf("%s(%d).%s", s.parentEntity, s.ParentID, s.table)
}

func (s Scope) siblings(db *gorm.DB) *gorm.DB {
	return db.Table(s.table).Where(s.parentColumn+" = ?", s.ParentID)
}

// Sequencer keeps sibling positions dense and gap-free. It holds no state;
// all isolation comes from the transaction passed to each call.
type Sequencer struct{}

// NewSequencer creates a new Sequencer
func NewSequencer() *Sequencer {
	return &Sequencer{}
}

// Lock takes a row lock on each scope's parent so concurrent writers to the
// same scope are serialized. Parents are locked in table then id order so two
// callers locking the same pair cannot deadlock. Returns NotFound when a
// parent is missing.
func (s *Sequencer) Lock(tx *Tx, scopes ...Scope) error {
	db, err := requireTx(tx)
	if err != nil {
		return err
	}
	return lockParents(db, scopes...)
}

func lockParents(db *gorm.DB, scopes ...Scope) error {
	ordered := append([]Scope(nil), scopes...)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].parentTable != ordered[j].parentTable {
			return ordered[i].parentTable < ordered[j].parentTable
		}
		return ordered[i].ParentID < ordered[j].ParentID
	})
	for _, scope := range ordered {
		if err := lockParent(db, scope); err != nil {
			return err
		}
	}
	return nil
}

func lockParent(db *gorm.DB, scope Scope) error {
	var ids []uint64
	err := db.Table(scope.parentTable).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", scope.ParentID).
		Pluck("id", &ids).Error
	if err != nil {
		return fmt.Errorf("failed to lock %s: %w", scope, err)
	}
	if len(ids) == 0 {
		return apperr.NotFound(scope.parentEntity, scope.ParentID)
	}
	return nil
}

// Position reads the parent and position of scope's member with a locking
// read, so the answer is the latest committed one even when the transaction
// already read an older version of the row. The parent differs from
// scope.ParentID when the member was re-parented since the caller looked.
func (s *Sequencer) Position(tx *Tx, scope Scope) (uint64, int, error) {
	db, err := requireTx(tx)
	if err != nil {
		return 0, 0, err
	}
	if scope.MemberID == 0 {
		return 0, 0, apperr.InvalidArgument(scope.entity, 0, "id", "scope has no member")
	}

	var rows []struct {
		Parent   uint64
		Position int
	}
	err = db.Table(scope.table).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select(scope.parentColumn+" AS parent, position").
		Where("id = ?", scope.MemberID).
		Scan(&rows).Error
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read position of %s %d: %w", scope.entity, scope.MemberID, err)
	}
	if len(rows) == 0 {
		return 0, 0, apperr.NotFound(scope.entity, scope.MemberID)
	}
	return rows[0].Parent, rows[0].Position, nil
}

// Count returns the number of positioned members in scope.
func (s *Sequencer) Count(tx *Tx, scope Scope) (int, error) {
	db, err := requireTx(tx)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := scope.siblings(db).Where("position > 0").Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", scope, err)
	}
	return int(n), nil
}

// Append returns the position a new member of scope must take: max+1, or 1
// for an empty scope. The caller inserts the row in the same transaction.
func (s *Sequencer) Append(tx *Tx, scope Scope) (int, error) {
	db, err := requireTx(tx)
	if err != nil {
		return 0, err
	}
	if err := lockParent(db, scope); err != nil {
		return 0, err
	}

	var max int
	err = scope.siblings(db).
		Where("position > 0").
		Select("COALESCE(MAX(position), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, fmt.Errorf("failed to read max position of %s: %w", scope, err)
	}
	return max + 1, nil
}

// Remove closes the gap left at removed by shifting every later sibling down by one.
func (s *Sequencer) Remove(tx *Tx, scope Scope, removed int) error {
	db, err := requireTx(tx)
	if err != nil {
		return err
	}
	if removed < 1 {
		return apperr.InvalidArgument(scope.entity, scope.MemberID, "position", "must be >= 1")
	}
	if err := lockParent(db, scope); err != nil {
		return err
	}
	return shift(db, scope, -1, "position > ?", removed)
}

// Move relocates the member at from to to within scope. A target past the
// end is clamped to the last position.
func (s *Sequencer) Move(tx *Tx, scope Scope, from, to int) error {
	db, err := requireTx(tx)
	if err != nil {
		return err
	}
	if from < 1 {
		return apperr.InvalidArgument(scope.entity, scope.MemberID, "position", "current position must be >= 1")
	}
	if to < 1 {
		return apperr.InvalidArgument(scope.entity, scope.MemberID, "position", "target position must be >= 1")
	}
	if err := lockParent(db, scope); err != nil {
		return err
	}

	count, err := s.Count(tx, scope)
	if err != nil {
		return err
	}
	if from > count {
		return apperr.NotFound(scope.entity, scope.MemberID)
	}
	if to > count {
		to = count
	}
	if from == to {
		return nil
	}

	if err := park(db, scope, from, nil); err != nil {
		return err
	}
	if from < to {
		err = shift(db, scope, -1, "position > ? AND position <= ?", from, to)
	} else {
		err = shift(db, scope, 1, "position >= ? AND position < ?", to, from)
	}
	if err != nil {
		return err
	}
	return unpark(db, scope, to)
}

// MoveAcrossScope detaches the member at fromPos in from and inserts it into
// to at toPos, re-parenting it. toPos past count(to)+1 is clamped. The member
// is the one from is narrowed to, if any.
func (s *Sequencer) MoveAcrossScope(tx *Tx, from Scope, fromPos int, to Scope, toPos int) error {
	if from.table != to.table {
		return apperr.InvalidArgument(from.entity, from.MemberID, "scope", "cannot move between "+from.table+" and "+to.table)
	}
	if from.ParentID == to.ParentID {
		return s.Move(tx, from, fromPos, toPos)
	}

	db, err := requireTx(tx)
	if err != nil {
		return err
	}
	if fromPos < 1 {
		return apperr.InvalidArgument(from.entity, from.MemberID, "position", "current position must be >= 1")
	}
	if toPos < 1 {
		return apperr.InvalidArgument(to.entity, from.MemberID, "position", "target position must be >= 1")
	}
	if err := lockParents(db, from, to); err != nil {
		return err
	}

	fromCount, err := s.Count(tx, from)
	if err != nil {
		return err
	}
	if fromPos > fromCount {
		return apperr.NotFound(from.entity, from.MemberID)
	}
	toCount, err := s.Count(tx, to)
	if err != nil {
		return err
	}
	if toPos > toCount+1 {
		toPos = toCount + 1
	}

	if err := park(db, from, fromPos, map[string]any{to.parentColumn: to.ParentID}); err != nil {
		return err
	}
	if err := shift(db, from, -1, "position > ?", fromPos); err != nil {
		return err
	}
	if err := shift(db, to, 1, "position >= ?", toPos); err != nil {
		return err
	}
	return unpark(db, to.Of(from.MemberID), toPos)
}

// park moves the row at pos to the sentinel slot, applying extra column
// changes in the same statement. A scope narrowed to a member only parks that
// member, so a stale pos fails instead of moving a sibling.
func park(db *gorm.DB, scope Scope, pos int, extra map[string]any) error {
	updates := map[string]any{"position": SentinelPosition}
	for k, v := range extra {
		updates[k] = v
	}
	q := scope.siblings(db).Where("position = ?", pos)
	if scope.MemberID != 0 {
		q = q.Where("id = ?", scope.MemberID)
	}
	res := q.Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to park %s at %d: %w", scope, pos, res.Error)
	}
	if res.RowsAffected != 1 {
		return apperr.Internal(scope.entity, scope.MemberID, fmt.Sprintf("expected 1 row at position %d of %s, got %d", pos, scope, res.RowsAffected), nil)
	}
	return nil
}

func unpark(db *gorm.DB, scope Scope, to int) error {
	res := scope.siblings(db).Where("position = ?", SentinelPosition).Update("position", to)
	if res.Error != nil {
		return fmt.Errorf("failed to place %s at %d: %w", scope, to, res.Error)
	}
	if res.RowsAffected != 1 {
		return apperr.Internal(scope.entity, scope.MemberID, fmt.Sprintf("expected 1 parked row in %s, got %d", scope, res.RowsAffected), nil)
	}
	return nil
}

// shift adds delta to the position of every sibling matching cond. It runs in
// two statements so a unique (parent, position) index checked row by row never
// sees a transient duplicate: matching rows first flip to -(p+1), which is
// below the sentinel, then flip back with delta applied.
func shift(db *gorm.DB, scope Scope, delta int, cond string, args ...any) error {
	flipped := scope.siblings(db).Where(cond, args...).
		Update("position", gorm.Expr("-position - 1"))
	if flipped.Error != nil {
		return fmt.Errorf("failed to shift %s: %w", scope, flipped.Error)
	}
	if flipped.RowsAffected == 0 {
		return nil
	}

	restored := scope.siblings(db).Where("position < ?", SentinelPosition).
		Update("position", gorm.Expr("-position - 1 + ?", delta))
	if restored.Error != nil {
		return fmt.Errorf("failed to shift %s: %w", scope, restored.Error)
	}
	if restored.RowsAffected != flipped.RowsAffected {
		return apperr.Internal(scope.entity, scope.MemberID, fmt.Sprintf("shift of %s touched %d rows, restored %d", scope, flipped.RowsAffected, restored.RowsAffected), nil)
	}
	return nil
}
