package store

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is an in-memory Store used for tests and ephemeral runs. It
// counts calls per method so tests can assert that an operation performed
// no mutations.
type MemStore struct {
	mu    sync.Mutex
	calls map[string]int

	tasks     []*Task
	users     []*User
	projects  []*Project
	incidents []*Incident
	emails    []*Email
	comments  []*Comment
	activity  []*Activity
	links     []*Link
	reminders []*Reminder
	meetings  []*Meeting

	sessions   []*Session
	messages   map[string][]*Message
	actions    []*ActionEntry
	nextAction int64
	nextMsg    int64
	nextAct    int64
}

// NewMemStore creates an empty in-memory store with a default current user
func NewMemStore() *MemStore {
	return &MemStore{
		calls: make(map[string]int),
		users: []*User{
			{ID: uuid.New().String(), Name: "operator", IsMe: true},
		},
		messages: make(map[string][]*Message),
	}
}

func (s *MemStore) count(method string) {
	s.calls[method]++
}

// Calls returns how many times a method has been invoked
func (s *MemStore) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

// MutationCount returns the total number of mutating store calls
func (s *MemStore) MutationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	mutators := []string{
		"CreateTask", "UpdateTask", "DeleteTask", "ArchiveTask",
		"CreateProject", "CreateIncident", "UpdateIncident",
		"CreateEmail", "UpdateEmail", "AddComment", "LogActivity",
		"LinkEntities", "Unlink", "CreateReminder", "CreateMeeting",
	}
	total := 0
	for _, m := range mutators {
		total += s.calls[m]
	}
	return total
}

// Snapshot returns a read-only view of resolvable entities
func (s *MemStore) Snapshot() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("Snapshot")

	snap := &Snapshot{
		Tasks:    append([]*Task(nil), activeTasks(s.tasks)...),
		Users:    append([]*User(nil), s.users...),
		Projects: append([]*Project(nil), s.projects...),
	}
	for _, u := range s.users {
		if u.IsMe {
			snap.Me = u
			break
		}
	}
	return snap, nil
}

func activeTasks(tasks []*Task) []*Task {
	var out []*Task
	for _, t := range tasks {
		if !t.Archived {
			out = append(out, t)
		}
	}
	return out
}

// ListTasks lists all non-archived tasks in creation order
func (s *MemStore) ListTasks() ([]*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("ListTasks")
	return append([]*Task(nil), activeTasks(s.tasks)...), nil
}

// GetTask returns the task with the given id, or nil when absent
func (s *MemStore) GetTask(id string) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("GetTask")
	for _, t := range s.tasks {
		if t.ID == id {
			copied := *t
			return &copied, nil
		}
	}
	return nil, nil
}

// CreateTask inserts a task
func (s *MemStore) CreateTask(t *Task) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("CreateTask")

	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	copied := *t
	s.tasks = append(s.tasks, &copied)
	return t, nil
}

// UpdateTask writes all mutable fields of a task
func (s *MemStore) UpdateTask(t *Task) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("UpdateTask")

	for i, existing := range s.tasks {
		if existing.ID == t.ID {
			t.UpdatedAt = time.Now()
			copied := *t
			s.tasks[i] = &copied
			return t, nil
		}
	}
	return nil, nil
}

// DeleteTask removes a task, reporting whether it existed
func (s *MemStore) DeleteTask(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("DeleteTask")

	for i, t := range s.tasks {
		if t.ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// ArchiveTask marks a task archived, reporting whether it existed
func (s *MemStore) ArchiveTask(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("ArchiveTask")

	for _, t := range s.tasks {
		if t.ID == id {
			t.Archived = true
			t.UpdatedAt = time.Now()
			return true, nil
		}
	}
	return false, nil
}

// ListUsers lists all users
func (s *MemStore) ListUsers() ([]*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("ListUsers")
	return append([]*User(nil), s.users...), nil
}

// AddUser registers a user; test fixtures use this
func (s *MemStore) AddUser(u *User) *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	s.users = append(s.users, u)
	return u
}

// CurrentUser returns the user marked as the operator
func (s *MemStore) CurrentUser() (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("CurrentUser")
	for _, u := range s.users {
		if u.IsMe {
			return u, nil
		}
	}
	return nil, nil
}

// ListProjects lists all projects
func (s *MemStore) ListProjects() ([]*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("ListProjects")
	return append([]*Project(nil), s.projects...), nil
}

// GetProject returns the project with the given id, or nil when absent
func (s *MemStore) GetProject(id string) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("GetProject")
	for _, p := range s.projects {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

// CreateProject inserts a project
func (s *MemStore) CreateProject(p *Project) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("CreateProject")

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.CreatedAt = time.Now()
	s.projects = append(s.projects, p)
	return p, nil
}

// ListIncidents lists all incidents, newest first
func (s *MemStore) ListIncidents() ([]*Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("ListIncidents")

	out := make([]*Incident, len(s.incidents))
	for i, in := range s.incidents {
		out[len(s.incidents)-1-i] = in
	}
	return out, nil
}

// GetIncident returns the incident with the given id, or nil when absent
func (s *MemStore) GetIncident(id string) (*Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("GetIncident")
	for _, in := range s.incidents {
		if in.ID == id {
			copied := *in
			return &copied, nil
		}
	}
	return nil, nil
}

// CreateIncident inserts an incident
func (s *MemStore) CreateIncident(in *Incident) (*Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("CreateIncident")

	if in.ID == "" {
		in.ID = uuid.New().String()
	}
	in.CreatedAt = time.Now()
	copied := *in
	s.incidents = append(s.incidents, &copied)
	return in, nil
}

// UpdateIncident writes all mutable fields of an incident
func (s *MemStore) UpdateIncident(in *Incident) (*Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("UpdateIncident")

	for i, existing := range s.incidents {
		if existing.ID == in.ID {
			copied := *in
			s.incidents[i] = &copied
			return in, nil
		}
	}
	return nil, nil
}

// ListEmails lists non-archived emails, newest first
func (s *MemStore) ListEmails() ([]*Email, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("ListEmails")

	var out []*Email
	for i := len(s.emails) - 1; i >= 0; i-- {
		if !s.emails[i].Archived {
			out = append(out, s.emails[i])
		}
	}
	return out, nil
}

// GetEmail returns the email with the given id, or nil when absent
func (s *MemStore) GetEmail(id string) (*Email, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("GetEmail")
	for _, e := range s.emails {
		if e.ID == id {
			copied := *e
			return &copied, nil
		}
	}
	return nil, nil
}

// CreateEmail inserts an email
func (s *MemStore) CreateEmail(e *Email) (*Email, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("CreateEmail")

	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.ReceivedAt.IsZero() {
		e.ReceivedAt = time.Now()
	}
	copied := *e
	s.emails = append(s.emails, &copied)
	return e, nil
}

// UpdateEmail writes the mutable fields of an email
func (s *MemStore) UpdateEmail(e *Email) (*Email, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("UpdateEmail")

	for i, existing := range s.emails {
		if existing.ID == e.ID {
			copied := *e
			s.emails[i] = &copied
			return e, nil
		}
	}
	return nil, nil
}

// AddComment attaches a comment to an entity
func (s *MemStore) AddComment(c *Comment) (*Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("AddComment")

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = time.Now()
	s.comments = append(s.comments, c)
	return c, nil
}

// ListComments returns an entity's comments in creation order
func (s *MemStore) ListComments(entityID string) ([]*Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("ListComments")

	var out []*Comment
	for _, c := range s.comments {
		if c.EntityID == entityID {
			out = append(out, c)
		}
	}
	return out, nil
}

// LogActivity appends an audit-feed entry
func (s *MemStore) LogActivity(a *Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("LogActivity")

	s.nextAct++
	a.ID = s.nextAct
	a.CreatedAt = time.Now()
	s.activity = append(s.activity, a)
	return nil
}

// ListActivity returns an entity's most recent activity entries
func (s *MemStore) ListActivity(entityID string, limit int) ([]*Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("ListActivity")

	var out []*Activity
	for i := len(s.activity) - 1; i >= 0 && len(out) < limit; i-- {
		if s.activity[i].EntityID == entityID {
			out = append(out, s.activity[i])
		}
	}
	return out, nil
}

// LinkEntities records a relationship between two entities
func (s *MemStore) LinkEntities(l *Link) (*Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("LinkEntities")

	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	l.CreatedAt = time.Now()
	s.links = append(s.links, l)
	return l, nil
}

// Unlink removes a link, reporting whether it existed
func (s *MemStore) Unlink(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("Unlink")

	for i, l := range s.links {
		if l.ID == id {
			s.links = append(s.links[:i], s.links[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// ListLinks returns every link where the entity appears on either side
func (s *MemStore) ListLinks(entityID string) ([]*Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("ListLinks")

	var out []*Link
	for _, l := range s.links {
		if l.SourceID == entityID || l.TargetID == entityID {
			out = append(out, l)
		}
	}
	return out, nil
}

// CreateReminder inserts a reminder
func (s *MemStore) CreateReminder(r *Reminder) (*Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("CreateReminder")

	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	r.CreatedAt = time.Now()
	s.reminders = append(s.reminders, r)
	return r, nil
}

// CreateMeeting inserts a meeting
func (s *MemStore) CreateMeeting(m *Meeting) (*Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("CreateMeeting")

	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	m.CreatedAt = time.Now()
	s.meetings = append(s.meetings, m)
	return m, nil
}

// CreateSession creates a new conversation session
func (s *MemStore) CreateSession() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("CreateSession")

	id := uuid.New().String()
	now := time.Now()
	s.sessions = append(s.sessions, &Session{ID: id, CreatedAt: now, UpdatedAt: now})
	return id, nil
}

// GetLatestSession returns the most recently updated session, or nil
func (s *MemStore) GetLatestSession() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("GetLatestSession")

	var latest *Session
	for _, sess := range s.sessions {
		if latest == nil || sess.UpdatedAt.After(latest.UpdatedAt) {
			latest = sess
		}
	}
	return latest, nil
}

// ClearSession removes a session's messages and action log
func (s *MemStore) ClearSession(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("ClearSession")

	delete(s.messages, sessionID)
	var kept []*ActionEntry
	for _, e := range s.actions {
		if e.SessionID != sessionID {
			kept = append(kept, e)
		}
	}
	s.actions = kept
	for i, sess := range s.sessions {
		if sess.ID == sessionID {
			s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
			break
		}
	}
	return nil
}

// SaveMessage appends a conversation message
func (s *MemStore) SaveMessage(sessionID string, msg *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("SaveMessage")

	s.nextMsg++
	msg.ID = s.nextMsg
	msg.SessionID = sessionID
	msg.CreatedAt = time.Now()
	s.messages[sessionID] = append(s.messages[sessionID], msg)

	for _, sess := range s.sessions {
		if sess.ID == sessionID {
			sess.UpdatedAt = time.Now()
		}
	}
	return nil
}

// GetMessages returns the last limit messages of a session in order
func (s *MemStore) GetMessages(sessionID string, limit int) ([]*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("GetMessages")

	msgs := s.messages[sessionID]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]*Message(nil), msgs...), nil
}

// AppendAction appends an action log entry
func (s *MemStore) AppendAction(e *ActionEntry) (*ActionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("AppendAction")

	s.nextAction++
	e.ID = s.nextAction
	e.CreatedAt = time.Now()
	s.actions = append(s.actions, e)
	return e, nil
}

// LastAction returns the newest action log entry for a session, or nil
func (s *MemStore) LastAction(sessionID string) (*ActionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("LastAction")

	for i := len(s.actions) - 1; i >= 0; i-- {
		if s.actions[i].SessionID == sessionID {
			return s.actions[i], nil
		}
	}
	return nil, nil
}

// DeleteAction removes one action log entry by id
func (s *MemStore) DeleteAction(id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("DeleteAction")

	for i, e := range s.actions {
		if e.ID == id {
			s.actions = append(s.actions[:i], s.actions[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// CountActions returns the number of logged actions for a session
func (s *MemStore) CountActions(sessionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("CountActions")

	count := 0
	for _, e := range s.actions {
		if e.SessionID == sessionID {
			count++
		}
	}
	return count, nil
}

// TrimActions evicts the oldest entries beyond max
func (s *MemStore) TrimActions(sessionID string, max int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("TrimActions")

	var mine []int
	for i, e := range s.actions {
		if e.SessionID == sessionID {
			mine = append(mine, i)
		}
	}
	if len(mine) <= max {
		return nil
	}

	drop := make(map[int]bool)
	for _, i := range mine[:len(mine)-max] {
		drop[i] = true
	}
	var kept []*ActionEntry
	for i, e := range s.actions {
		if !drop[i] {
			kept = append(kept, e)
		}
	}
	s.actions = kept
	return nil
}

// Close is a no-op for the in-memory store
func (s *MemStore) Close() error {
	return nil
}
