// Package demo is a terminal host for the virtual list engine: generated
// cards of varying height rendered with Lip Gloss inside a fixed pane, with
// the rendered height of each card fed back to the engine as a measurement.
package demo

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zjrosen/vscroll/internal/datastore"
)

// Kind controls how much content an item carries.
type Kind string

const (
	KindSimple  Kind = "simple"
	KindComplex Kind = "complex"
	KindMega    Kind = "mega"
)

// TaskStatus is the state of a sub-task.
type TaskStatus string

const (
	TaskActive    TaskStatus = "active"
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
	TaskError     TaskStatus = "error"
)

// Next cycles pending -> active -> completed -> error -> pending.
func (s TaskStatus) Next() TaskStatus {
	switch s {
	case TaskPending:
		return TaskActive
	case TaskActive:
		return TaskCompleted
	case TaskCompleted:
		return TaskError
	default:
		return TaskPending
	}
}

// Task is a sub-item shown when its parent is expanded.
type Task struct {
	ID       string
	Title    string
	Status   TaskStatus
	Progress int
	Assignee string
}

// Item is one card in the list.
type Item struct {
	ID       string
	Title    string
	Category string
	Kind     Kind
	Body     string
	Tasks    []Task
	Expanded bool
}

// ItemKey is the store key function for items.
func ItemKey(it Item) datastore.Key {
	return datastore.Key(it.ID)
}

// Completed counts finished tasks.
func (it Item) Completed() int {
	n := 0
	for _, t := range it.Tasks {
		if t.Status == TaskCompleted {
			n++
		}
	}
	return n
}

// Pending counts tasks not started.
func (it Item) Pending() int {
	n := 0
	for _, t := range it.Tasks {
		if t.Status == TaskPending {
			n++
		}
	}
	return n
}

// ToggleExpanded returns a copy with Expanded flipped.
func (it Item) ToggleExpanded() Item {
	it.Expanded = !it.Expanded
	return it
}

// CycleFirstTask advances the status of the first unfinished task, or the
// first task when all are completed.
func (it Item) CycleFirstTask() Item {
	if len(it.Tasks) == 0 {
		return it
	}
	tasks := append([]Task(nil), it.Tasks...)
	i := 0
	for j, t := range tasks {
		if t.Status != TaskCompleted {
			i = j
			break
		}
	}
	tasks[i].Status = tasks[i].Status.Next()
	if tasks[i].Status == TaskCompleted {
		tasks[i].Progress = 100
	}
	it.Tasks = tasks
	return it
}

// DropLastTask returns a copy without its last task.
func (it Item) DropLastTask() Item {
	if len(it.Tasks) == 0 {
		return it
	}
	it.Tasks = append([]Task(nil), it.Tasks[:len(it.Tasks)-1]...)
	return it
}

var (
	sentences = []string{
		"This is a short descriptive sentence.",
		"Virtual scrolling keeps very large lists responsive by rendering only what is visible.",
		"Dynamic heights let every card size itself to its content.",
		"Measured heights replace the estimate once a card has been drawn.",
		"The position index is rebuilt whenever the collection or a height changes.",
		"Overscan renders a few extra cards above and below the viewport.",
	}
	taskTypes  = []string{"Design", "Build", "Test", "Deploy", "Tune", "Document", "Review", "Fix"}
	assignees  = []string{"ana", "bo", "cy", "dee", "eli"}
	categories = []string{"Category A", "Category B", "Category C", "Category D"}
	statuses   = []TaskStatus{TaskActive, TaskPending, TaskCompleted, TaskError}
)

// Generator produces demo items. It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator returns a generator seeded with seed, or from the clock when
// seed is 0.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rng: rand.New(rand.NewSource(seed))} //nolint:gosec // G404: demo content, not security sensitive
}

// KindFor returns the kind of the i-th generated item.
func KindFor(i int) Kind {
	switch i % 3 {
	case 0:
		return KindSimple
	case 1:
		return KindComplex
	default:
		return KindMega
	}
}

// Item generates the i-th item of a batch. Its signature matches the store's
// batch generator.
func (g *Generator) Item(i int) (Item, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	kind := KindFor(i)
	var tasks int
	switch kind {
	case KindSimple:
		tasks = 1
	case KindComplex:
		tasks = 2 + g.rng.Intn(3)
	default:
		tasks = 3 + g.rng.Intn(4)
	}
	id := fmt.Sprintf("item-%d", i)
	return Item{
		ID:       id,
		Title:    fmt.Sprintf("Item %d", i+1),
		Category: categories[i%len(categories)],
		Kind:     kind,
		Body:     g.body(kind),
		Tasks:    g.tasks(id, tasks),
		Expanded: g.rng.Float64() > 0.7,
	}, nil
}

// NewItem generates an expanded complex item with a fresh id, for adding to
// the top of the list.
func (g *Generator) NewItem() Item {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := uuid.NewString()
	return Item{
		ID:       id,
		Title:    "New item " + id[:8],
		Category: "New",
		Kind:     KindComplex,
		Body:     g.body(KindComplex),
		Tasks:    g.tasks(id, 2),
		Expanded: true,
	}
}

func (g *Generator) body(kind Kind) string {
	n := 1
	switch kind {
	case KindComplex:
		n = 3
	case KindMega:
		n = 6
	}
	parts := make([]string, n)
	for i := range parts {
		parts[i] = sentences[g.rng.Intn(len(sentences))]
	}
	return strings.Join(parts, " ")
}

func (g *Generator) tasks(parent string, n int) []Task {
	tasks := make([]Task, n)
	for i := range tasks {
		status := statuses[g.rng.Intn(len(statuses))]
		var progress int
		switch status {
		case TaskCompleted:
			progress = 100
		case TaskActive:
			progress = 20 + g.rng.Intn(80)
		default:
			progress = g.rng.Intn(30)
		}
		kind := taskTypes[g.rng.Intn(len(taskTypes))]
		tasks[i] = Task{
			ID:       fmt.Sprintf("%s-task-%d", parent, i),
			Title:    fmt.Sprintf("%s task %d", kind, i+1),
			Status:   status,
			Progress: progress,
			Assignee: assignees[g.rng.Intn(len(assignees))],
		}
	}
	return tasks
}
