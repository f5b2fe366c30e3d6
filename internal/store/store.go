package store

import (
	"time"
)

// Store is the persistence boundary for tracker state. Tool bodies mutate
// state only through this interface; implementations return nil (or false)
// for lookups that find nothing rather than erroring.
type Store interface {
	// Snapshot returns a read-only view of current state for entity resolution
	Snapshot() (*Snapshot, error)

	// Tasks
	ListTasks() ([]*Task, error)
	GetTask(id string) (*Task, error)
	CreateTask(t *Task) (*Task, error)
	UpdateTask(t *Task) (*Task, error)
	DeleteTask(id string) (bool, error)
	ArchiveTask(id string) (bool, error)

	// Users and projects
	ListUsers() ([]*User, error)
	CurrentUser() (*User, error)
	ListProjects() ([]*Project, error)
	GetProject(id string) (*Project, error)
	CreateProject(p *Project) (*Project, error)

	// Incidents
	ListIncidents() ([]*Incident, error)
	GetIncident(id string) (*Incident, error)
	CreateIncident(in *Incident) (*Incident, error)
	UpdateIncident(in *Incident) (*Incident, error)

	// Emails
	ListEmails() ([]*Email, error)
	GetEmail(id string) (*Email, error)
	CreateEmail(e *Email) (*Email, error)
	UpdateEmail(e *Email) (*Email, error)

	// Collaboration
	AddComment(c *Comment) (*Comment, error)
	ListComments(entityID string) ([]*Comment, error)
	LogActivity(a *Activity) error
	ListActivity(entityID string, limit int) ([]*Activity, error)

	// Entity links
	LinkEntities(l *Link) (*Link, error)
	Unlink(id string) (bool, error)
	ListLinks(entityID string) ([]*Link, error)

	// Scheduling
	CreateReminder(r *Reminder) (*Reminder, error)
	CreateMeeting(m *Meeting) (*Meeting, error)

	// Conversation sessions
	CreateSession() (string, error)
	GetLatestSession() (*Session, error)
	ClearSession(sessionID string) error
	SaveMessage(sessionID string, msg *Message) error
	GetMessages(sessionID string, limit int) ([]*Message, error)

	// Action log, keyed by session, append-only with tail removal
	AppendAction(e *ActionEntry) (*ActionEntry, error)
	LastAction(sessionID string) (*ActionEntry, error)
	DeleteAction(id int64) (bool, error)
	CountActions(sessionID string) (int, error)
	TrimActions(sessionID string, max int) error

	Close() error
}

// Snapshot is an in-memory view of resolvable entities. Term resolution
// operates on this without touching the store again.
type Snapshot struct {
	Tasks    []*Task
	Users    []*User
	Projects []*Project
	Me       *User
}

// Task is a unit of work on the board. Status always holds a canonical
// workflow column id, never free text.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	Assignee    string     `json:"assignee,omitempty"` // user id
	ProjectID   string     `json:"projectId,omitempty"`
	ParentID    string     `json:"parentId,omitempty"` // set for subtasks
	Tags        []string   `json:"tags,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Archived    bool       `json:"archived,omitempty"`
}

// User is a tracker member
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	IsMe  bool   `json:"isMe,omitempty"`
}

// Project groups tasks
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Incident statuses
const (
	IncidentOpen     = "open"
	IncidentResolved = "resolved"
)

// Incident is an operational issue tracked outside the task board
type Incident struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Severity    string     `json:"severity"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	ResolvedAt  *time.Time `json:"resolvedAt,omitempty"`
}

// Email is a message in the operator's inbox
type Email struct {
	ID         string    `json:"id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body,omitempty"`
	Read       bool      `json:"read"`
	Archived   bool      `json:"archived"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// Comment is attached to any entity by id
type Comment struct {
	ID        string    `json:"id"`
	EntityID  string    `json:"entityId"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// Activity is one audit-feed entry for an entity
type Activity struct {
	ID        int64     `json:"id"`
	EntityID  string    `json:"entityId"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Link kinds
const (
	LinkRelates     = "relates"
	LinkBlocks      = "blocks"
	LinkParent      = "parent"
	LinkDerivedFrom = "derived-from"
)

// Link records a relationship between two entities, including the
// source-record mapping for cross-entity conversions
type Link struct {
	ID         string    `json:"id"`
	SourceType string    `json:"sourceType"`
	SourceID   string    `json:"sourceId"`
	TargetType string    `json:"targetType"`
	TargetID   string    `json:"targetId"`
	Kind       string    `json:"kind"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Reminder is a scheduled nudge for a task
type Reminder struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"taskId"`
	At        time.Time `json:"at"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Meeting is a scheduled calendar entry
type Meeting struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	StartsAt  time.Time     `json:"startsAt"`
	Duration  time.Duration `json:"duration"`
	Attendees []string      `json:"attendees,omitempty"` // user ids
	CreatedAt time.Time     `json:"createdAt"`
}

// Session is one conversation with the assistant
type Session struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is one conversation turn
type Message struct {
	ID         int64
	SessionID  string
	Role       string // "user" | "assistant" | "system" | "tool"
	Content    string
	ToolCalls  string // JSON, set on assistant messages that called tools
	ToolCallID string // set on tool messages
	CreatedAt  time.Time
}

// ActionEntry is one append-only audit record of an executed tool call.
// InputParams, Result and Inverse hold JSON produced by the orchestrator.
type ActionEntry struct {
	ID          int64
	SessionID   string
	ActionType  string
	InputParams string
	Result      string
	Inverse     string // inverse-command descriptor, empty when irreversible
	CreatedAt   time.Time
}
