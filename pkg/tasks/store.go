// Package tasks is the durable task store: a CSV file of task records,
// loaded whole, mutated in memory, and rewritten whole. A timestamped
// backup is taken before every rewrite and the rewrite itself is a
// temp-file-plus-rename so an interrupted write never truncates the store.
package tasks

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"pwkm/pkg/clock"
	applog "pwkm/pkg/log"
	"pwkm/pkg/recur"
)

var (
	// ErrStoreCorrupt means the backing file failed to parse. Partial data
	// is never silently treated as complete data.
	ErrStoreCorrupt = errors.New("task store corrupt")

	// ErrTaskNotFound means no active task matched the given name exactly.
	ErrTaskNotFound = errors.New("task not found")

	// ErrAmbiguousMatch means a name-embedded recurrence pattern could not
	// be resolved to a single schedule.
	ErrAmbiguousMatch = errors.New("ambiguous match")
)

// Column headers of the task file. Name and Due Date are required;
// the rest may be absent in older exports and load as empty.
const (
	colName       = "Task Name"
	colDue        = "Due Date"
	colCategory   = "Category"
	colRecurrence = "Recurrence"
	colPriority   = "Priority"
	colStatus     = "Status"
	colRef        = "URL"
)

var fileColumns = []string{colName, colDue, colCategory, colRecurrence, colPriority, colStatus, colRef}

// Store owns the on-disk task data for the lifetime of one invocation.
type Store struct {
	path  string
	tasks []Task
}

// Load reads the whole task file. A missing header, a row with an empty or
// unparseable due date, or any other parse failure yields ErrStoreCorrupt.
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open task store: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // column count validated against the header below

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading header from %s: %v", ErrStoreCorrupt, path, err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[h] = i
	}
	if _, ok := col[colName]; !ok {
		return nil, fmt.Errorf("%w: %s: missing %q column", ErrStoreCorrupt, path, colName)
	}
	if _, ok := col[colDue]; !ok {
		return nil, fmt.Errorf("%w: %s: missing %q column", ErrStoreCorrupt, path, colDue)
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	s := &Store{path: path}
	line := 1
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", ErrStoreCorrupt, path, line, err)
		}

		due, err := clock.ParseDate(field(row, colDue))
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", ErrStoreCorrupt, path, line, err)
		}
		rule, err := recur.Parse(field(row, colRecurrence))
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", ErrStoreCorrupt, path, line, err)
		}
		prio, err := parsePriority(field(row, colPriority))
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", ErrStoreCorrupt, path, line, err)
		}
		status, err := parseStatus(field(row, colStatus))
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", ErrStoreCorrupt, path, line, err)
		}

		s.tasks = append(s.tasks, Task{
			Name:       field(row, colName),
			Due:        due,
			Category:   field(row, colCategory),
			Recurrence: rule,
			Priority:   prio,
			Status:     status,
			Ref:        field(row, colRef),
		})
	}
	return s, nil
}

// Save rewrites the whole file: backup copy of the current file first,
// then write to a temp file in the same directory and rename over the
// target.
func (s *Store) Save() error {
	if err := s.backup(); err != nil {
		// A failed backup should not block the save itself.
		applog.Error("task store backup failed", err, "path", s.path)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".tasks-*.csv")
	if err != nil {
		return fmt.Errorf("save task store: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := csv.NewWriter(tmp)
	if err := w.Write(fileColumns); err != nil {
		tmp.Close()
		return fmt.Errorf("save task store: %w", err)
	}
	for _, t := range s.tasks {
		row := []string{
			t.Name,
			t.Due.String(),
			t.Category,
			t.Recurrence.String(),
			string(t.Priority),
			string(t.Status),
			t.Ref,
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("save task store: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("save task store: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("save task store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save task store: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("save task store: %w", err)
	}
	return nil
}

// backup copies the current file into a backups/ directory next to it.
func (s *Store) backup() error {
	src, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer src.Close()

	dir := filepath.Join(filepath.Dir(s.path), "backups")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	name := fmt.Sprintf("tasks_backup_%s.csv", time.Now().Format("20060102_150405"))
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	defer dst.Close()
	_, err = io.Copy(dst, src)
	return err
}

// Tasks returns all loaded tasks in file order.
func (s *Store) Tasks() []Task { return s.tasks }

// List returns all tasks, any status, ascending by due date then name.
func (s *Store) List() []Task {
	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	sortTasks(out)
	return out
}

// OverdueTask pairs a task with how many days past due it is.
type OverdueTask struct {
	Task
	DaysOverdue int
}

// StatusReport partitions the active tasks against a reference date.
type StatusReport struct {
	Today    clock.Date
	Overdue  []OverdueTask // due before today
	DueToday []Task
	Upcoming []Task // due within the next 7 days, excluding today
}

// Status partitions active tasks into overdue / due today / due within
// the next 7 days. Each partition is ordered by due date, ties broken
// by name.
func (s *Store) Status(today clock.Date) StatusReport {
	rep := StatusReport{Today: today}
	horizon := today.AddDays(7)
	for _, t := range s.tasks {
		if t.IsDone() {
			continue
		}
		switch {
		case t.Due.Before(today):
			rep.Overdue = append(rep.Overdue, OverdueTask{Task: t, DaysOverdue: t.Due.DaysUntil(today)})
		case t.Due.Equal(today):
			rep.DueToday = append(rep.DueToday, t)
		case !t.Due.After(horizon):
			rep.Upcoming = append(rep.Upcoming, t)
		}
	}
	sort.SliceStable(rep.Overdue, func(i, j int) bool {
		return taskLess(rep.Overdue[i].Task, rep.Overdue[j].Task)
	})
	sortTasks(rep.DueToday)
	sortTasks(rep.Upcoming)
	return rep
}

// Upcoming returns active tasks with today <= due <= today+horizonDays.
func (s *Store) Upcoming(today clock.Date, horizonDays int) []Task {
	end := today.AddDays(horizonDays)
	var out []Task
	for _, t := range s.tasks {
		if t.IsDone() {
			continue
		}
		if !t.Due.Before(today) && !t.Due.After(end) {
			out = append(out, t)
		}
	}
	sortTasks(out)
	return out
}

// CompleteResult reports the effect of completing a task: either a new
// due date (recurring) or a terminal done mark. Ref is relayed so the
// caller can mirror the change into the external note service.
type CompleteResult struct {
	Name        string
	Ref         string
	Rescheduled bool
	Rule        recur.Rule
	NextDue     clock.Date
}

// Complete finishes the active task named exactly name. Recurring tasks
// get their due date advanced in place; one-time tasks flip to Done.
// The store file is rewritten only on success.
func (s *Store) Complete(name string) (CompleteResult, error) {
	idx := s.findActive(name)
	if idx < 0 {
		return CompleteResult{}, fmt.Errorf("%w: %q", ErrTaskNotFound, name)
	}
	t := &s.tasks[idx]

	rule, err := t.EffectiveRule()
	if err != nil {
		return CompleteResult{}, fmt.Errorf("%w: %v", ErrAmbiguousMatch, err)
	}

	res := CompleteResult{Name: t.Name, Ref: t.Ref, Rule: rule}
	if rule.IsNone() {
		t.Status = StatusDone
	} else {
		next, err := rule.Next(t.Due)
		if err != nil {
			return CompleteResult{}, err
		}
		t.Due = next
		res.Rescheduled = true
		res.NextDue = next
	}

	if err := s.Save(); err != nil {
		return CompleteResult{}, err
	}
	return res, nil
}

// Reschedule overwrites the task's due date unconditionally, ignoring
// recurrence. An explicit manual override.
func (s *Store) Reschedule(name string, newDue clock.Date) (Task, error) {
	idx := s.find(name)
	if idx < 0 {
		return Task{}, fmt.Errorf("%w: %q", ErrTaskNotFound, name)
	}
	s.tasks[idx].Due = newDue
	if err := s.Save(); err != nil {
		return Task{}, err
	}
	return s.tasks[idx], nil
}

func (s *Store) find(name string) int {
	for i := range s.tasks {
		if s.tasks[i].Name == name {
			return i
		}
	}
	return -1
}

func (s *Store) findActive(name string) int {
	for i := range s.tasks {
		if s.tasks[i].Name == name && !s.tasks[i].IsDone() {
			return i
		}
	}
	return -1
}

func taskLess(a, b Task) bool {
	if !a.Due.Equal(b.Due) {
		return a.Due.Before(b.Due)
	}
	return a.Name < b.Name
}

func sortTasks(ts []Task) {
	sort.SliceStable(ts, func(i, j int) bool { return taskLess(ts[i], ts[j]) })
}
