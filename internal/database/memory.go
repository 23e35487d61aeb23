package database

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/benvon/daily-journal/internal/models"
)

// MemoryStore is an in-process implementation of every repository interface.
// It backs STORE_DRIVER=memory and the tests of the packages above this one.
type MemoryStore struct {
	mu sync.Mutex

	users    map[models.UserKey]*models.UserProfile
	buckets  map[bucketKey]*models.CounterBucket
	habitIDs map[models.UserKey]int
	tasks    map[bucketKey][]*models.Task
	notes    map[bucketKey][]*models.Note
	habits   map[models.UserKey][]*models.Habit
	quotes   map[bucketKey]*models.Quote
	moods    map[bucketKey]*models.Mood
	ratings  map[bucketKey]*models.Rating
	graphs   map[models.UserKey][]*models.GraphLink
	journals map[journalKey]*models.Journal

	now func() time.Time
}

type bucketKey struct {
	key models.UserKey
	day models.Day
}

type journalKey struct {
	key  models.UserKey
	name string
	day  models.Day
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[models.UserKey]*models.UserProfile),
		buckets:  make(map[bucketKey]*models.CounterBucket),
		habitIDs: make(map[models.UserKey]int),
		tasks:    make(map[bucketKey][]*models.Task),
		notes:    make(map[bucketKey][]*models.Note),
		habits:   make(map[models.UserKey][]*models.Habit),
		quotes:   make(map[bucketKey]*models.Quote),
		moods:    make(map[bucketKey]*models.Mood),
		ratings:  make(map[bucketKey]*models.Rating),
		graphs:   make(map[models.UserKey][]*models.GraphLink),
		journals: make(map[journalKey]*models.Journal),
		now:      time.Now,
	}
}

// Repositories exposes the store through the repository interfaces
func (s *MemoryStore) Repositories() *Repositories {
	return &Repositories{
		Users:    memUsers{s},
		Counters: memCounters{s},
		Tasks:    memTasks{s},
		Notes:    memNotes{s},
		Habits:   memHabits{s},
		Entries:  memEntries{s},
		Graphs:   memGraphs{s},
		Journals: memJournals{s},
	}
}

// bucket returns the (key, day) bucket, creating it; callers hold s.mu
func (s *MemoryStore) bucket(key models.UserKey, day models.Day) *models.CounterBucket {
	k := bucketKey{key, day}
	b, ok := s.buckets[k]
	if !ok {
		b = &models.CounterBucket{Key: key, Day: day}
		s.buckets[k] = b
	}
	return b
}

func (s *MemoryStore) applyDelta(key models.UserKey, day models.Day, delta models.CounterDelta) (*models.CounterBucket, error) {
	b := s.bucket(key, day)
	if !delta.Apply(b) {
		return nil, fmt.Errorf("unknown counter delta %q", delta)
	}
	return copyBucket(b), nil
}

func copyBucket(b *models.CounterBucket) *models.CounterBucket {
	out := *b
	if b.MoodScore != nil {
		score := *b.MoodScore
		out.MoodScore = &score
	}
	return &out
}

func copyTask(t *models.Task) *models.Task {
	out := *t
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		out.CompletedAt = &at
	}
	return &out
}

func copyHabit(h *models.Habit) *models.Habit {
	out := *h
	if h.CompletedAt != nil {
		at := *h.CompletedAt
		out.CompletedAt = &at
	}
	return &out
}

func copyUser(u *models.UserProfile) *models.UserProfile {
	out := *u
	if u.GraphURL != nil {
		v := *u.GraphURL
		out.GraphURL = &v
	}
	if u.FreeTextStatus != nil {
		v := *u.FreeTextStatus
		out.FreeTextStatus = &v
	}
	return &out
}

func inRange(day, from, to models.Day) bool {
	return !day.Before(from) && !to.Before(day)
}

func (s *MemoryStore) user(key models.UserKey) *models.UserProfile {
	u, ok := s.users[key]
	if !ok {
		now := s.now()
		u = &models.UserProfile{Key: key, CreatedAt: now, UpdatedAt: now}
		s.users[key] = u
	}
	return u
}

type memCounters struct{ s *MemoryStore }

func (m memCounters) ApplyDelta(_ context.Context, key models.UserKey, day models.Day, delta models.CounterDelta) (*models.CounterBucket, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return m.s.applyDelta(key, day, delta)
}

func (m memCounters) NextHabitID(_ context.Context, key models.UserKey) (int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.habitIDs[key]++
	return m.s.habitIDs[key], nil
}

func (m memCounters) ListRange(_ context.Context, key models.UserKey, from, to models.Day) ([]*models.CounterBucket, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*models.CounterBucket
	for k, b := range m.s.buckets {
		if k.key == key && inRange(k.day, from, to) {
			out = append(out, copyBucket(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}

type memTasks struct{ s *MemoryStore }

func (m memTasks) Create(_ context.Context, key models.UserKey, description string, at time.Time) (*models.Task, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	day := models.DayOf(at)
	b, err := m.s.applyDelta(key, day, models.DeltaTaskCreated)
	if err != nil {
		return nil, err
	}
	task := &models.Task{ID: b.TaskCounter, Key: key, Description: description, Day: day}
	k := bucketKey{key, day}
	m.s.tasks[k] = append(m.s.tasks[k], task)
	return copyTask(task), nil
}

func (m memTasks) ListByDay(_ context.Context, key models.UserKey, day models.Day) ([]*models.Task, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*models.Task
	for _, t := range m.s.tasks[bucketKey{key, day}] {
		out = append(out, copyTask(t))
	}
	return out, nil
}

func (m memTasks) find(key models.UserKey, day models.Day, id int) (int, *models.Task) {
	for i, t := range m.s.tasks[bucketKey{key, day}] {
		if t.ID == id {
			return i, t
		}
	}
	return -1, nil
}

func (m memTasks) Exists(_ context.Context, key models.UserKey, day models.Day, id int) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	_, t := m.find(key, day, id)
	return t != nil, nil
}

func (m memTasks) Complete(_ context.Context, key models.UserKey, id int, at time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	day := models.DayOf(at)
	_, t := m.find(key, day, id)
	if t == nil {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	if t.Completed {
		return nil
	}
	clock := models.ClockTime(at)
	t.Completed = true
	t.CompletedAt = &clock
	_, err := m.s.applyDelta(key, day, models.DeltaTaskCompleted)
	return err
}

func (m memTasks) Delete(_ context.Context, key models.UserKey, day models.Day, id int) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	i, t := m.find(key, day, id)
	if t == nil {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	k := bucketKey{key, day}
	m.s.tasks[k] = append(m.s.tasks[k][:i], m.s.tasks[k][i+1:]...)
	return nil
}

type memNotes struct{ s *MemoryStore }

func (m memNotes) Create(_ context.Context, key models.UserKey, content string, at time.Time) (*models.Note, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	day := models.DayOf(at)
	b, err := m.s.applyDelta(key, day, models.DeltaNoteCreated)
	if err != nil {
		return nil, err
	}
	note := &models.Note{ID: b.NoteCounter, Key: key, Content: content, CreatedAt: models.ClockTime(at), Day: day}
	k := bucketKey{key, day}
	m.s.notes[k] = append(m.s.notes[k], note)
	out := *note
	return &out, nil
}

func (m memNotes) ListByDay(_ context.Context, key models.UserKey, day models.Day) ([]*models.Note, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*models.Note
	for _, n := range m.s.notes[bucketKey{key, day}] {
		c := *n
		out = append(out, &c)
	}
	return out, nil
}

func (m memNotes) index(key models.UserKey, day models.Day, id int) int {
	for i, n := range m.s.notes[bucketKey{key, day}] {
		if n.ID == id {
			return i
		}
	}
	return -1
}

func (m memNotes) Exists(_ context.Context, key models.UserKey, day models.Day, id int) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return m.index(key, day, id) >= 0, nil
}

func (m memNotes) Delete(_ context.Context, key models.UserKey, day models.Day, id int) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	i := m.index(key, day, id)
	if i < 0 {
		return fmt.Errorf("note %d: %w", id, ErrNotFound)
	}
	k := bucketKey{key, day}
	m.s.notes[k] = append(m.s.notes[k][:i], m.s.notes[k][i+1:]...)
	return nil
}

type memHabits struct{ s *MemoryStore }

func (m memHabits) Create(_ context.Context, key models.UserKey, description string, at time.Time) (*models.Habit, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.habitIDs[key]++
	habit := &models.Habit{ID: m.s.habitIDs[key], Key: key, Description: description, Day: models.DayOf(at)}
	m.s.habits[key] = append(m.s.habits[key], habit)
	return copyHabit(habit), nil
}

func (m memHabits) List(_ context.Context, key models.UserKey) ([]*models.Habit, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*models.Habit
	for _, h := range m.s.habits[key] {
		out = append(out, copyHabit(h))
	}
	return out, nil
}

func (m memHabits) Count(_ context.Context, key models.UserKey) (int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return len(m.s.habits[key]), nil
}

func (m memHabits) find(key models.UserKey, id int) (int, *models.Habit) {
	for i, h := range m.s.habits[key] {
		if h.ID == id {
			return i, h
		}
	}
	return -1, nil
}

func (m memHabits) Exists(_ context.Context, key models.UserKey, id int) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	_, h := m.find(key, id)
	return h != nil, nil
}

func (m memHabits) Complete(_ context.Context, key models.UserKey, id int, at time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	_, h := m.find(key, id)
	if h == nil {
		return fmt.Errorf("habit %d: %w", id, ErrNotFound)
	}
	if h.Completed {
		return nil
	}
	clock := models.ClockTime(at)
	h.Completed = true
	h.CompletedAt = &clock
	_, err := m.s.applyDelta(key, models.DayOf(at), models.DeltaHabitCompleted)
	return err
}

func (m memHabits) ResetAll(_ context.Context, key models.UserKey) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, h := range m.s.habits[key] {
		h.Completed = false
		h.CompletedAt = nil
	}
	return nil
}

func (m memHabits) Delete(_ context.Context, key models.UserKey, id int) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	i, h := m.find(key, id)
	if h == nil {
		return fmt.Errorf("habit %d: %w", id, ErrNotFound)
	}
	m.s.habits[key] = append(m.s.habits[key][:i], m.s.habits[key][i+1:]...)
	return nil
}

type memEntries struct{ s *MemoryStore }

func (m memEntries) SaveQuote(_ context.Context, quote *models.Quote) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c := *quote
	m.s.quotes[bucketKey{quote.Key, quote.Day}] = &c
	return nil
}

func (m memEntries) GetQuote(_ context.Context, key models.UserKey, day models.Day) (*models.Quote, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	q, ok := m.s.quotes[bucketKey{key, day}]
	if !ok {
		return nil, fmt.Errorf("quote not found: %w", ErrNotFound)
	}
	c := *q
	return &c, nil
}

func (m memEntries) SaveMood(_ context.Context, mood *models.Mood) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c := *mood
	m.s.moods[bucketKey{mood.Key, mood.Day}] = &c
	score := mood.Score
	m.s.bucket(mood.Key, mood.Day).MoodScore = &score
	return nil
}

func (m memEntries) GetMood(_ context.Context, key models.UserKey, day models.Day) (*models.Mood, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	mood, ok := m.s.moods[bucketKey{key, day}]
	if !ok {
		return nil, fmt.Errorf("mood not found: %w", ErrNotFound)
	}
	c := *mood
	return &c, nil
}

func (m memEntries) SaveRating(_ context.Context, rating *models.Rating) error {
	if rating.Score < 1 || rating.Score > 10 {
		return fmt.Errorf("rating %d out of range", rating.Score)
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c := *rating
	m.s.ratings[bucketKey{rating.Key, rating.Day}] = &c
	return nil
}

func (m memEntries) GetRating(_ context.Context, key models.UserKey, day models.Day) (*models.Rating, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	r, ok := m.s.ratings[bucketKey{key, day}]
	if !ok {
		return nil, fmt.Errorf("rating not found: %w", ErrNotFound)
	}
	c := *r
	return &c, nil
}

func (m memEntries) ListRatings(_ context.Context, key models.UserKey, from, to models.Day) ([]*models.Rating, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*models.Rating
	for k, r := range m.s.ratings {
		if k.key == key && inRange(k.day, from, to) {
			c := *r
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}

type memUsers struct{ s *MemoryStore }

func (m memUsers) Upsert(_ context.Context, key models.UserKey, displayName string) (*models.UserProfile, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u := m.s.user(key)
	u.DisplayName = displayName
	u.UpdatedAt = m.s.now()
	return copyUser(u), nil
}

func (m memUsers) Get(_ context.Context, key models.UserKey) (*models.UserProfile, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[key]
	if !ok {
		return nil, fmt.Errorf("user not found: %w", ErrNotFound)
	}
	return copyUser(u), nil
}

func (m memUsers) List(_ context.Context) ([]*models.UserProfile, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := make([]*models.UserProfile, 0, len(m.s.users))
	for _, u := range m.s.users {
		out = append(out, copyUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m memUsers) GetPendingState(_ context.Context, key models.UserKey) (string, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if u, ok := m.s.users[key]; ok {
		return u.PendingState, nil
	}
	return "", nil
}

func (m memUsers) SetPendingState(_ context.Context, key models.UserKey, state string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u := m.s.user(key)
	u.PendingState = state
	u.UpdatedAt = m.s.now()
	return nil
}

func (m memUsers) SetFreeTextStatus(_ context.Context, key models.UserKey, status string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u := m.s.user(key)
	u.FreeTextStatus = &status
	u.UpdatedAt = m.s.now()
	return nil
}

type memGraphs struct{ s *MemoryStore }

func (m memGraphs) Save(_ context.Context, link *models.GraphLink) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	link.CreatedAt = m.s.now()
	c := *link
	m.s.graphs[link.Key] = append(m.s.graphs[link.Key], &c)
	u := m.s.user(link.Key)
	if u.DisplayName == "" {
		u.DisplayName = link.DisplayName
	}
	url := link.GraphURL
	u.GraphURL = &url
	return nil
}

func (m memGraphs) Get(_ context.Context, key models.UserKey) (*models.GraphLink, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	links := m.s.graphs[key]
	if len(links) == 0 {
		return nil, fmt.Errorf("graph link not found: %w", ErrNotFound)
	}
	c := *links[len(links)-1]
	return &c, nil
}

type memJournals struct{ s *MemoryStore }

func (m memJournals) Save(_ context.Context, journal *models.Journal) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	journal.CreatedAt = m.s.now()
	c := *journal
	c.Data = append([]byte(nil), journal.Data...)
	m.s.journals[journalKey{journal.Key, journal.DisplayName, journal.Day}] = &c
	return nil
}

func (m memJournals) Get(_ context.Context, key models.UserKey, day models.Day) (*models.Journal, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var latest *models.Journal
	for k, j := range m.s.journals {
		if k.key == key && k.day == day && (latest == nil || j.CreatedAt.After(latest.CreatedAt)) {
			latest = j
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("journal not found: %w", ErrNotFound)
	}
	c := *latest
	return &c, nil
}

var (
	_ UserRepositoryInterface       = memUsers{}
	_ CounterRepositoryInterface    = memCounters{}
	_ TaskRepositoryInterface       = memTasks{}
	_ NoteRepositoryInterface       = memNotes{}
	_ HabitRepositoryInterface      = memHabits{}
	_ DailyEntryRepositoryInterface = memEntries{}
	_ GraphRepositoryInterface      = memGraphs{}
	_ JournalRepositoryInterface    = memJournals{}
)
