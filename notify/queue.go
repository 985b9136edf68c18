package notify

import (
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"aichef/models"
)

const (
	DefaultDisplay = 5000 * time.Millisecond
	DefaultExit    = 300 * time.Millisecond
)

var ErrEmptyMessage = errors.New("notify: empty message")

// negativeKeywords turn a success notice into an error notice.
var negativeKeywords = []string{"deleted", "removed", "failed"}

// Options configures a Queue. Zero values take the defaults.
type Options struct {
	Display time.Duration
	Exit    time.Duration
	Clock   Clock
	Logger  *zap.Logger
}

type timers struct {
	display Timer
	exit    Timer
}

// Queue holds transient notifications. Entries are kept in insertion order,
// oldest first. Each entry goes visible -> exiting -> removed, driven by its
// own pair of timers.
type Queue struct {
	mu       sync.Mutex
	display  time.Duration
	exit     time.Duration
	clock    Clock
	log      *zap.Logger
	items    []models.Notification
	timers   map[int64]*timers
	lastID   int64
	closed   bool
	listener func([]models.Notification)
}

func NewQueue(opts Options) *Queue {
	if opts.Display <= 0 {
		opts.Display = DefaultDisplay
	}
	if opts.Exit <= 0 {
		opts.Exit = DefaultExit
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Queue{
		display: opts.Display,
		exit:    opts.Exit,
		clock:   opts.Clock,
		log:     opts.Logger,
		timers:  make(map[int64]*timers),
	}
}

// OnChange registers fn to receive a snapshot after every change. fn runs
// with the queue locked and must not call back into the queue.
func (q *Queue) OnChange(fn func([]models.Notification)) {
	q.mu.Lock()
	q.listener = fn
	q.mu.Unlock()
}

// ResolveSeverity applies the negative-keyword override to a hint. An empty
// hint means success.
func ResolveSeverity(message string, hint models.Severity) models.Severity {
	if hint == "" {
		hint = models.SeveritySuccess
	}
	if hint != models.SeveritySuccess {
		return hint
	}
	lower := strings.ToLower(message)
	for _, kw := range negativeKeywords {
		if strings.Contains(lower, kw) {
			return models.SeverityError
		}
	}
	return hint
}

// Enqueue appends a notification and schedules its expiry.
func (q *Queue) Enqueue(message string, hint models.Severity) (models.Notification, error) {
	if strings.TrimSpace(message) == "" {
		return models.Notification{}, ErrEmptyMessage
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return models.Notification{}, nil
	}

	id := q.clock.Now().UnixMilli()
	if id <= q.lastID {
		id = q.lastID + 1
	}
	q.lastID = id

	n := models.Notification{
		ID:       id,
		Message:  message,
		Severity: ResolveSeverity(message, hint),
	}
	q.items = append(q.items, n)
	q.timers[id] = &timers{
		display: q.clock.AfterFunc(q.display, func() { q.beginExit(id) }),
	}
	q.log.Debug("notification queued",
		zap.Int64("id", id),
		zap.String("severity", string(n.Severity)))
	q.emitLocked()
	return n, nil
}

// Dismiss starts the exit phase early. Unknown ids are ignored.
func (q *Queue) Dismiss(id int64) {
	q.beginExit(id)
}

func (q *Queue) beginExit(id int64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := q.indexLocked(id)
	if i < 0 || q.items[i].IsExiting {
		return
	}
	q.items[i].IsExiting = true

	t := q.timers[id]
	if t == nil {
		t = &timers{}
		q.timers[id] = t
	}
	if t.display != nil {
		t.display.Stop()
		t.display = nil
	}
	t.exit = q.clock.AfterFunc(q.exit, func() { q.remove(id) })
	q.emitLocked()
}

func (q *Queue) remove(id int64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	delete(q.timers, id)
	i := q.indexLocked(id)
	if i < 0 {
		return
	}
	q.items = append(q.items[:i], q.items[i+1:]...)
	q.emitLocked()
}

// Snapshot returns a copy of the current notifications.
func (q *Queue) Snapshot() []models.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snapshotLocked()
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close cancels every pending timer and drops all notifications. The queue
// ignores further Enqueue calls.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	for id, t := range q.timers {
		if t.display != nil {
			t.display.Stop()
		}
		if t.exit != nil {
			t.exit.Stop()
		}
		delete(q.timers, id)
	}
	q.items = nil
	q.listener = nil
}

func (q *Queue) indexLocked(id int64) int {
	for i := range q.items {
		if q.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (q *Queue) snapshotLocked() []models.Notification {
	out := make([]models.Notification, len(q.items))
	copy(out, q.items)
	return out
}

func (q *Queue) emitLocked() {
	if q.listener != nil {
		q.listener(q.snapshotLocked())
	}
}
