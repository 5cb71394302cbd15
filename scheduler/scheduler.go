package scheduler

import (
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// TaskFn is the function signature for scheduled tasks.
type TaskFn func()

// TaskStatus describes one registered task.
type TaskStatus struct {
	Name     string        `json:"name"`
	Interval time.Duration `json:"interval,omitempty"`
	Cron     string        `json:"cron,omitempty"`
	Runs     int64         `json:"runs"`
	LastRun  *time.Time    `json:"lastRun,omitempty"`
	Running  bool          `json:"running"`
}

// Scheduler runs named tasks on a fixed interval or on a cron expression.
// A task never overlaps with itself; a tick that arrives while the previous
// run is still going is skipped.
type Scheduler struct {
	mu     sync.Mutex
	tasks  map[string]*task
	cron   *cron.Cron
	logger *zap.Logger
	stopCh chan struct{}
}

type task struct {
	status  TaskStatus
	fn      TaskFn
	stopCh  chan struct{} // interval tasks only
	entryID cron.EntryID  // cron tasks only
}

// New creates a new Scheduler.
func New(logger *zap.Logger) *Scheduler {
	c := cron.New()
	c.Start()
	return &Scheduler{
		tasks:  make(map[string]*task),
		cron:   c,
		stopCh: make(chan struct{}),
		logger: logger,
	}
}

// AddTicker registers a task to run on a fixed interval.
// If a task with the same name exists, it is replaced.
func (s *Scheduler) AddTicker(name string, interval time.Duration, fn TaskFn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(name)

	t := &task{
		status: TaskStatus{Name: name, Interval: interval},
		fn:     fn,
		stopCh: make(chan struct{}),
	}
	s.tasks[name] = t

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.run(t)
			case <-t.stopCh:
				return
			case <-s.stopCh:
				return
			}
		}
	}()
	s.logger.Info("scheduler task registered", zap.String("name", name), zap.Duration("interval", interval))
}

// AddCron registers a task on a standard five-field cron expression.
// If a task with the same name exists, it is replaced.
func (s *Scheduler) AddCron(name, spec string, fn TaskFn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &task{status: TaskStatus{Name: name, Cron: spec}, fn: fn}
	id, err := s.cron.AddFunc(spec, func() { s.run(t) })
	if err != nil {
		return err
	}
	s.removeLocked(name)
	t.entryID = id
	s.tasks[name] = t
	s.logger.Info("scheduler task registered", zap.String("name", name), zap.String("cron", spec))
	return nil
}

// RunNow triggers a registered task once, outside its schedule. It reports
// false when no such task exists.
func (s *Scheduler) RunNow(name string) bool {
	s.mu.Lock()
	t, ok := s.tasks[name]
	s.mu.Unlock()
	if !ok {
		return false
	}
	go s.run(t)
	return true
}

func (s *Scheduler) run(t *task) {
	s.mu.Lock()
	if t.status.Running {
		s.mu.Unlock()
		s.logger.Warn("scheduler task still running, tick skipped", zap.String("task", t.status.Name))
		return
	}
	t.status.Running = true
	s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduler task panicked",
				zap.String("task", t.status.Name),
				zap.Any("recover", r))
		}
		now := time.Now()
		s.mu.Lock()
		t.status.Running = false
		t.status.Runs++
		t.status.LastRun = &now
		s.mu.Unlock()
	}()
	t.fn()
}

// Remove stops and removes a task by name.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(name)
}

func (s *Scheduler) removeLocked(name string) {
	t, ok := s.tasks[name]
	if !ok {
		return
	}
	if t.stopCh != nil {
		close(t.stopCh)
	} else {
		s.cron.Remove(t.entryID)
	}
	delete(s.tasks, name)
}

// Stop stops all tasks. It does not wait for a running task to finish.
func (s *Scheduler) Stop() {
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
		s.cron.Stop()
	}
}

// List returns a snapshot of every registered task sorted by name.
func (s *Scheduler) List() []TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TaskStatus, 0, len(s.tasks))
	for _, t := range s.tasks {
		st := t.status
		if st.LastRun != nil {
			last := *st.LastRun
			st.LastRun = &last
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
