package flags

// Logger is the scheduler's logging dependency.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Scheduler collects flagged objects into per-priority pending sets and
// drains them in priority order on each tick. A panicking apply is contained
// at the drain boundary so one bad object cannot tear down the frame.
type Scheduler struct {
	pending [priorityCount][]*Object
	nextSeq int
	logger  Logger
}

func NewScheduler(logger Logger) *Scheduler {
	return &Scheduler{logger: logger}
}

// Register declares an object's flag table and drain priority and returns
// its flag holder. Registration order breaks ties within a priority so
// drains are deterministic.
func (s *Scheduler) Register(target Target, table Table, priority Priority) *Object {
	o := &Object{
		table:    table,
		set:      make(map[string]bool),
		target:   target,
		priority: priority,
		sched:    s,
		seq:      s.nextSeq,
	}
	s.nextSeq++
	return o
}

func (s *Scheduler) enqueue(o *Object) {
	s.pending[o.priority] = append(s.pending[o.priority], o)
}

// HasPending reports whether any object awaits a drain.
func (s *Scheduler) HasPending() bool {
	for _, batch := range s.pending {
		if len(batch) > 0 {
			return true
		}
	}
	return false
}

// Tick drains priorities in order (objects, perception, presentation). Each
// object's flag set is cleared before its apply callback runs with the
// snapshot, so flags raised during apply land in the next tick.
func (s *Scheduler) Tick() {
	for p := Priority(0); p < priorityCount; p++ {
		batch := s.pending[p]
		s.pending[p] = nil
		for _, o := range batch {
			if !o.pending {
				continue
			}
			snapshot := o.set
			o.set = make(map[string]bool)
			o.pending = false
			s.apply(o, snapshot)
		}
	}
}

func (s *Scheduler) apply(o *Object, snapshot map[string]bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Printf("render flag apply panicked (seq %d): %v", o.seq, r)
		}
	}()
	o.target.ApplyRenderFlags(snapshot)
}
