package services

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tasklist/core/internal/domain/entities"
	"github.com/tasklist/core/internal/ports"
)

var testNow = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type memUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entities.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[uuid.UUID]*entities.User{}}
}

func (r *memUsers) Create(_ context.Context, user *entities.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return entities.ErrDuplicateEmail
		}
	}
	user.CreatedAt, user.UpdatedAt = testNow, testNow
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memUsers) GetByID(_ context.Context, id uuid.UUID) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, entities.ErrUserNotFound
}

func (r *memUsers) UpdateProfilePhoto(_ context.Context, id uuid.UUID, photo *string) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	u.ProfilePhoto = photo
	cp := *u
	return &cp, nil
}

type memTodos struct {
	mu         sync.Mutex
	todos      map[uuid.UUID]*entities.Todo
	categories *memCategories
	listCalls  int
}

func newMemTodos(categories *memCategories) *memTodos {
	return &memTodos{todos: map[uuid.UUID]*entities.Todo{}, categories: categories}
}

// put stores a todo as-is, keeping its timestamps
func (r *memTodos) put(todo *entities.Todo) *entities.Todo {
	r.mu.Lock()
	defer r.mu.Unlock()
	if todo.ID == uuid.Nil {
		todo.ID = uuid.New()
	}
	cp := *todo
	r.todos[todo.ID] = &cp
	return todo
}

func (r *memTodos) withCategory(t *entities.Todo) *entities.Todo {
	cp := *t
	cp.Category = nil
	if cp.CategoryID != nil && r.categories != nil {
		if c, ok := r.categories.byID[*cp.CategoryID]; ok {
			cc := *c
			cp.Category = &cc
		}
	}
	return &cp
}

func (r *memTodos) Create(_ context.Context, todo *entities.Todo) error {
	todo.CreatedAt, todo.UpdatedAt = testNow, testNow
	r.put(todo)
	return nil
}

func (r *memTodos) GetByID(_ context.Context, id uuid.UUID) (*entities.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.todos[id]
	if !ok {
		return nil, entities.ErrTodoNotFound
	}
	return r.withCategory(t), nil
}

func (r *memTodos) Update(_ context.Context, todo *entities.Todo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.todos[todo.ID]; !ok {
		return entities.ErrTodoNotFound
	}
	todo.UpdatedAt = testNow
	cp := *todo
	cp.Category = nil
	r.todos[todo.ID] = &cp
	return nil
}

func (r *memTodos) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.todos[id]; !ok {
		return entities.ErrTodoNotFound
	}
	delete(r.todos, id)
	return nil
}

func inWindow(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && !t.Before(*to) {
		return false
	}
	return true
}

func (r *memTodos) List(_ context.Context, f ports.TodoFilter) ([]*entities.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++

	out := []*entities.Todo{}
	for _, t := range r.todos {
		if t.UserID != f.UserID {
			continue
		}
		if f.Completed != nil && t.Completed != *f.Completed {
			continue
		}
		if f.Priority != nil && t.Priority != *f.Priority {
			continue
		}
		if f.TitleContains != nil && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(*f.TitleContains)) {
			continue
		}
		if f.DueBefore != nil && (t.DueDate == nil || !t.DueDate.Before(*f.DueBefore)) {
			continue
		}
		if !inWindow(t.CreatedAt, f.CreatedFrom, f.CreatedTo) || !inWindow(t.UpdatedAt, f.UpdatedFrom, f.UpdatedTo) {
			continue
		}
		out = append(out, r.withCategory(t))
	}

	sort.Slice(out, func(i, j int) bool {
		if f.SortBy == "due_date" {
			return out[i].DueDate.Before(*out[j].DueDate)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memTodos) Statistics(_ context.Context, userID uuid.UUID, now time.Time) (*entities.TodoStatistics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &entities.TodoStatistics{}
	for _, t := range r.todos {
		if t.UserID != userID {
			continue
		}
		stats.Total++
		if t.Completed {
			stats.Completed++
		} else {
			stats.Active++
		}
		if t.Priority == entities.PriorityUrgent {
			stats.Urgent++
		}
		if t.IsOverdue(now) {
			stats.Overdue++
		}
		if !t.Completed && t.DueDate != nil && !t.DueDate.Before(now) {
			if stats.NextDue == nil || t.DueDate.Before(*stats.NextDue) {
				due := *t.DueDate
				stats.NextDue = &due
			}
		}
	}
	return stats, nil
}

func (r *memTodos) CountUncategorized(_ context.Context, userID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.todos {
		if t.UserID == userID && t.CategoryID == nil {
			n++
		}
	}
	return n, nil
}

type memCategories struct {
	byID      map[uuid.UUID]*entities.Category
	todos     *memTodos
	listCalls int
}

func newMemCategories() *memCategories {
	return &memCategories{byID: map[uuid.UUID]*entities.Category{}}
}

func (r *memCategories) add(name, color string) *entities.Category {
	c := &entities.Category{ID: uuid.New(), Name: name, Color: color}
	r.byID[c.ID] = c
	return c
}

func (r *memCategories) sorted() []*entities.Category {
	out := make([]*entities.Category, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *memCategories) List(context.Context) ([]*entities.Category, error) {
	r.listCalls++
	return r.sorted(), nil
}

func (r *memCategories) GetByID(_ context.Context, id uuid.UUID) (*entities.Category, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, entities.ErrCategoryNotFound
	}
	return c, nil
}

func (r *memCategories) ListWithTodoCounts(_ context.Context, userID uuid.UUID) ([]entities.CategoryTodoCount, error) {
	out := []entities.CategoryTodoCount{}
	for _, c := range r.sorted() {
		n := 0
		for _, t := range r.todos.todos {
			if t.UserID == userID && t.CategoryID != nil && *t.CategoryID == c.ID {
				n++
			}
		}
		out = append(out, entities.CategoryTodoCount{
			CategoryID: c.ID.String(), CategoryName: c.Name, CategoryColor: c.Color, CategoryIcon: c.Icon, TodoCount: n,
		})
	}
	return out, nil
}

func (r *memCategories) Upsert(_ context.Context, category *entities.Category) error {
	for _, c := range r.byID {
		if c.Name == category.Name {
			c.Color, c.Icon = category.Color, category.Icon
			category.ID = c.ID
			return nil
		}
	}
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	r.byID[category.ID] = category
	return nil
}

type memTags struct {
	tags  map[uuid.UUID]*entities.Tag
	links map[[2]uuid.UUID]bool
}

func newMemTags() *memTags {
	return &memTags{tags: map[uuid.UUID]*entities.Tag{}, links: map[[2]uuid.UUID]bool{}}
}

func (r *memTags) Create(_ context.Context, tag *entities.Tag) error {
	for _, t := range r.tags {
		if t.UserID == tag.UserID && t.Name == tag.Name {
			return entities.ErrDuplicateTag
		}
	}
	tag.CreatedAt = testNow
	cp := *tag
	r.tags[tag.ID] = &cp
	return nil
}

func (r *memTags) GetByID(_ context.Context, id uuid.UUID) (*entities.Tag, error) {
	t, ok := r.tags[id]
	if !ok {
		return nil, entities.ErrTagNotFound
	}
	return t, nil
}

func (r *memTags) GetByName(_ context.Context, userID uuid.UUID, name string) (*entities.Tag, error) {
	for _, t := range r.tags {
		if t.UserID == userID && t.Name == name {
			return t, nil
		}
	}
	return nil, entities.ErrTagNotFound
}

func (r *memTags) ListWithCounts(_ context.Context, userID uuid.UUID) ([]*entities.TagWithCount, error) {
	out := []*entities.TagWithCount{}
	for _, t := range r.tags {
		if t.UserID != userID {
			continue
		}
		n := 0
		for link := range r.links {
			if link[1] == t.ID {
				n++
			}
		}
		out = append(out, &entities.TagWithCount{ID: t.ID, Name: t.Name, Color: t.Color, TodoCount: n, CreatedAt: t.CreatedAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memTags) Attach(_ context.Context, todoID, tagID uuid.UUID) error {
	r.links[[2]uuid.UUID{todoID, tagID}] = true
	return nil
}

func (r *memTags) Detach(_ context.Context, todoID, tagID uuid.UUID) error {
	delete(r.links, [2]uuid.UUID{todoID, tagID})
	return nil
}

type memComments struct {
	comments []*entities.Comment
}

func (r *memComments) Create(_ context.Context, c *entities.Comment) error {
	c.CreatedAt = testNow.Add(time.Duration(len(r.comments)) * time.Second)
	c.UpdatedAt = c.CreatedAt
	c.User = &entities.CommentAuthor{ID: c.UserID, Name: "Ana", Email: "ana@example.com"}
	r.comments = append(r.comments, c)
	return nil
}

func (r *memComments) ListByTodo(_ context.Context, todoID uuid.UUID) ([]*entities.Comment, error) {
	out := []*entities.Comment{}
	for i := len(r.comments) - 1; i >= 0; i-- {
		if r.comments[i].TodoID == todoID {
			out = append(out, r.comments[i])
		}
	}
	return out, nil
}

type memAttachments struct {
	items map[uuid.UUID]*entities.Attachment
	order []uuid.UUID
}

func newMemAttachments() *memAttachments {
	return &memAttachments{items: map[uuid.UUID]*entities.Attachment{}}
}

func (r *memAttachments) Create(_ context.Context, a *entities.Attachment) error {
	a.CreatedAt = testNow
	r.items[a.ID] = a
	r.order = append(r.order, a.ID)
	return nil
}

func (r *memAttachments) GetByID(_ context.Context, id uuid.UUID) (*entities.Attachment, error) {
	a, ok := r.items[id]
	if !ok {
		return nil, entities.ErrAttachmentNotFound
	}
	return a, nil
}

func (r *memAttachments) ListByTodo(_ context.Context, todoID uuid.UUID) ([]*entities.Attachment, error) {
	out := []*entities.Attachment{}
	for i := len(r.order) - 1; i >= 0; i-- {
		if a, ok := r.items[r.order[i]]; ok && a.TodoID == todoID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memAttachments) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.items[id]; !ok {
		return entities.ErrAttachmentNotFound
	}
	delete(r.items, id)
	return nil
}

// memCache stores JSON like the Redis adapter does and expires entries on its clock
type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	expires map[string]time.Time
	ttls    map[string]time.Duration
	hits    int
	now     func() time.Time
}

func newMemCache() *memCache {
	return &memCache{
		data:    map[string][]byte{},
		expires: map[string]time.Time{},
		ttls:    map[string]time.Duration{},
		now:     fixedClock,
	}
}

func (c *memCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = b
	c.ttls[key] = expiration
	delete(c.expires, key)
	if expiration > 0 {
		c.expires[key] = c.now().Add(expiration)
	}
	return nil
}

func (c *memCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if at, ok := c.expires[key]; ok && !c.now().Before(at) {
		delete(c.data, key)
		delete(c.expires, key)
	}
	b, ok := c.data[key]
	if !ok {
		return ports.ErrCacheMiss
	}
	c.hits++
	return json.Unmarshal(b, dest)
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *memCache) DeletePattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	return nil
}

type schedulerCall struct {
	op     string
	todoID uuid.UUID
	dueAt  time.Time
}

// recordingScheduler captures reminder commands; fail makes every call error
type recordingScheduler struct {
	mu    sync.Mutex
	calls []schedulerCall
	fail  error
}

func (s *recordingScheduler) Schedule(_ context.Context, r ports.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, schedulerCall{op: "schedule", todoID: r.TodoID, dueAt: r.DueAt})
	return s.fail
}

func (s *recordingScheduler) Cancel(_ context.Context, todoID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, schedulerCall{op: "cancel", todoID: todoID})
	return s.fail
}

func (s *recordingScheduler) ops() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	for i, c := range s.calls {
		out[i] = c.op
	}
	return out
}
