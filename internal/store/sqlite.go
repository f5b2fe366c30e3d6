package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists tracker state in a local SQLite database
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteStore{db: db}

	if err := s.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database tables: %w", err)
	}

	if err := s.seedCurrentUser(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// initTables initializes database tables
func (s *SQLiteStore) initTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			status TEXT NOT NULL,
			priority TEXT NOT NULL,
			assignee TEXT,
			project_id TEXT,
			parent_id TEXT,
			tags TEXT,
			due_date DATETIME,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			completed_at DATETIME,
			archived INTEGER DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT,
			is_me INTEGER DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS incidents (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			severity TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			resolved_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS emails (
			id TEXT PRIMARY KEY,
			from_addr TEXT NOT NULL,
			to_addr TEXT NOT NULL,
			subject TEXT NOT NULL,
			body TEXT,
			read INTEGER DEFAULT 0,
			archived INTEGER DEFAULT 0,
			received_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS comments (
			id TEXT PRIMARY KEY,
			entity_id TEXT NOT NULL,
			author TEXT NOT NULL,
			body TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS activity (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			entity_id TEXT NOT NULL,
			action TEXT NOT NULL,
			detail TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS links (
			id TEXT PRIMARY KEY,
			source_type TEXT NOT NULL,
			source_id TEXT NOT NULL,
			target_type TEXT NOT NULL,
			target_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS reminders (
			id TEXT PRIMARY KEY,
			task_id TEXT NOT NULL,
			at DATETIME NOT NULL,
			note TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS meetings (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			starts_at DATETIME NOT NULL,
			duration_minutes INTEGER NOT NULL,
			attendees TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			tool_calls TEXT,
			tool_call_id TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (session_id) REFERENCES sessions(id)
		)`,
		`CREATE TABLE IF NOT EXISTS action_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			action_type TEXT NOT NULL,
			input_params TEXT,
			result TEXT,
			inverse TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_comments_entity ON comments(entity_id)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_entity ON activity(entity_id)`,
		`CREATE INDEX IF NOT EXISTS idx_links_source ON links(source_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session_id ON messages(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_action_log_session ON action_log(session_id)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute SQL: %s, error: %w", query, err)
		}
	}

	return nil
}

// seedCurrentUser ensures one user is marked as the operator
func (s *SQLiteStore) seedCurrentUser() error {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM users WHERE is_me = 1").Scan(&count); err != nil {
		return fmt.Errorf("failed to check current user: %w", err)
	}
	if count > 0 {
		return nil
	}

	name := os.Getenv("USER")
	if name == "" {
		name = "operator"
	}

	_, err := s.db.Exec(
		"INSERT INTO users (id, name, email, is_me) VALUES (?, ?, ?, 1)",
		uuid.New().String(), name, "",
	)
	if err != nil {
		return fmt.Errorf("failed to seed current user: %w", err)
	}
	return nil
}

// Snapshot returns a read-only view of resolvable entities
func (s *SQLiteStore) Snapshot() (*Snapshot, error) {
	tasks, err := s.ListTasks()
	if err != nil {
		return nil, err
	}
	users, err := s.ListUsers()
	if err != nil {
		return nil, err
	}
	projects, err := s.ListProjects()
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{Tasks: tasks, Users: users, Projects: projects}
	for _, u := range users {
		if u.IsMe {
			snap.Me = u
			break
		}
	}
	return snap, nil
}

func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

const taskColumns = `id, title, description, status, priority, assignee, project_id,
	parent_id, tags, due_date, created_at, updated_at, completed_at, archived`

func scanTask(row interface{ Scan(...any) error }) (*Task, error) {
	var t Task
	var description, assignee, projectID, parentID, tags sql.NullString
	var dueDate, completedAt sql.NullTime

	err := row.Scan(&t.ID, &t.Title, &description, &t.Status, &t.Priority,
		&assignee, &projectID, &parentID, &tags, &dueDate,
		&t.CreatedAt, &t.UpdatedAt, &completedAt, &t.Archived)
	if err != nil {
		return nil, err
	}

	t.Description = description.String
	t.Assignee = assignee.String
	t.ProjectID = projectID.String
	t.ParentID = parentID.String
	t.Tags = splitTags(tags.String)
	t.DueDate = timePtr(dueDate)
	t.CompletedAt = timePtr(completedAt)
	return &t, nil
}

// ListTasks lists all non-archived tasks in creation order
func (s *SQLiteStore) ListTasks() ([]*Task, error) {
	rows, err := s.db.Query(
		"SELECT " + taskColumns + " FROM tasks WHERE archived = 0 ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// GetTask returns the task with the given id, or nil when absent
func (s *SQLiteStore) GetTask(id string) (*Task, error) {
	row := s.db.QueryRow("SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// CreateTask inserts a task, generating its id and timestamps
func (s *SQLiteStore) CreateTask(t *Task) (*Task, error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := s.db.Exec(`INSERT INTO tasks
		(id, title, description, status, priority, assignee, project_id, parent_id,
		 tags, due_date, created_at, updated_at, completed_at, archived)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, t.Status, t.Priority, t.Assignee, t.ProjectID,
		t.ParentID, joinTags(t.Tags), nullTime(t.DueDate), t.CreatedAt, t.UpdatedAt,
		nullTime(t.CompletedAt), t.Archived)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return t, nil
}

// UpdateTask writes all mutable fields of a task
func (s *SQLiteStore) UpdateTask(t *Task) (*Task, error) {
	t.UpdatedAt = time.Now()

	res, err := s.db.Exec(`UPDATE tasks SET
		title = ?, description = ?, status = ?, priority = ?, assignee = ?,
		project_id = ?, parent_id = ?, tags = ?, due_date = ?, updated_at = ?,
		completed_at = ?, archived = ?
		WHERE id = ?`,
		t.Title, t.Description, t.Status, t.Priority, t.Assignee,
		t.ProjectID, t.ParentID, joinTags(t.Tags), nullTime(t.DueDate), t.UpdatedAt,
		nullTime(t.CompletedAt), t.Archived, t.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return t, nil
}

// DeleteTask removes a task, reporting whether it existed
func (s *SQLiteStore) DeleteTask(id string) (bool, error) {
	res, err := s.db.Exec("DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ArchiveTask marks a task archived, reporting whether it existed
func (s *SQLiteStore) ArchiveTask(id string) (bool, error) {
	res, err := s.db.Exec(
		"UPDATE tasks SET archived = 1, updated_at = ? WHERE id = ?", time.Now(), id)
	if err != nil {
		return false, fmt.Errorf("failed to archive task: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ListUsers lists all users
func (s *SQLiteStore) ListUsers() ([]*User, error) {
	rows, err := s.db.Query("SELECT id, name, email, is_me FROM users ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		var u User
		var email sql.NullString
		if err := rows.Scan(&u.ID, &u.Name, &email, &u.IsMe); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.Email = email.String
		users = append(users, &u)
	}
	return users, rows.Err()
}

// CurrentUser returns the user marked as the operator
func (s *SQLiteStore) CurrentUser() (*User, error) {
	var u User
	var email sql.NullString
	err := s.db.QueryRow(
		"SELECT id, name, email, is_me FROM users WHERE is_me = 1 LIMIT 1").
		Scan(&u.ID, &u.Name, &email, &u.IsMe)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	u.Email = email.String
	return &u, nil
}

// ListProjects lists all projects
func (s *SQLiteStore) ListProjects() ([]*Project, error) {
	rows, err := s.db.Query(
		"SELECT id, name, description, created_at FROM projects ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		var p Project
		var description sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &description, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		p.Description = description.String
		projects = append(projects, &p)
	}
	return projects, rows.Err()
}

// GetProject returns the project with the given id, or nil when absent
func (s *SQLiteStore) GetProject(id string) (*Project, error) {
	var p Project
	var description sql.NullString
	err := s.db.QueryRow(
		"SELECT id, name, description, created_at FROM projects WHERE id = ?", id).
		Scan(&p.ID, &p.Name, &description, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	p.Description = description.String
	return &p, nil
}

// CreateProject inserts a project
func (s *SQLiteStore) CreateProject(p *Project) (*Project, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.CreatedAt = time.Now()

	_, err := s.db.Exec(
		"INSERT INTO projects (id, name, description, created_at) VALUES (?, ?, ?, ?)",
		p.ID, p.Name, p.Description, p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return p, nil
}

// ListIncidents lists all incidents, newest first
func (s *SQLiteStore) ListIncidents() ([]*Incident, error) {
	rows, err := s.db.Query(`SELECT id, title, description, severity, status,
		created_at, resolved_at FROM incidents ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	defer rows.Close()

	var incidents []*Incident
	for rows.Next() {
		var in Incident
		var description sql.NullString
		var resolvedAt sql.NullTime
		if err := rows.Scan(&in.ID, &in.Title, &description, &in.Severity,
			&in.Status, &in.CreatedAt, &resolvedAt); err != nil {
			return nil, fmt.Errorf("failed to scan incident: %w", err)
		}
		in.Description = description.String
		in.ResolvedAt = timePtr(resolvedAt)
		incidents = append(incidents, &in)
	}
	return incidents, rows.Err()
}

// GetIncident returns the incident with the given id, or nil when absent
func (s *SQLiteStore) GetIncident(id string) (*Incident, error) {
	var in Incident
	var description sql.NullString
	var resolvedAt sql.NullTime
	err := s.db.QueryRow(`SELECT id, title, description, severity, status,
		created_at, resolved_at FROM incidents WHERE id = ?`, id).
		Scan(&in.ID, &in.Title, &description, &in.Severity, &in.Status,
			&in.CreatedAt, &resolvedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get incident: %w", err)
	}
	in.Description = description.String
	in.ResolvedAt = timePtr(resolvedAt)
	return &in, nil
}

// CreateIncident inserts an incident
func (s *SQLiteStore) CreateIncident(in *Incident) (*Incident, error) {
	if in.ID == "" {
		in.ID = uuid.New().String()
	}
	in.CreatedAt = time.Now()

	_, err := s.db.Exec(`INSERT INTO incidents
		(id, title, description, severity, status, created_at, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.Title, in.Description, in.Severity, in.Status,
		in.CreatedAt, nullTime(in.ResolvedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create incident: %w", err)
	}
	return in, nil
}

// UpdateIncident writes all mutable fields of an incident
func (s *SQLiteStore) UpdateIncident(in *Incident) (*Incident, error) {
	res, err := s.db.Exec(`UPDATE incidents SET
		title = ?, description = ?, severity = ?, status = ?, resolved_at = ?
		WHERE id = ?`,
		in.Title, in.Description, in.Severity, in.Status,
		nullTime(in.ResolvedAt), in.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update incident: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return in, nil
}

// ListEmails lists non-archived emails, newest first
func (s *SQLiteStore) ListEmails() ([]*Email, error) {
	rows, err := s.db.Query(`SELECT id, from_addr, to_addr, subject, body, read,
		archived, received_at FROM emails WHERE archived = 0
		ORDER BY received_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list emails: %w", err)
	}
	defer rows.Close()

	var emails []*Email
	for rows.Next() {
		var e Email
		var body sql.NullString
		if err := rows.Scan(&e.ID, &e.From, &e.To, &e.Subject, &body,
			&e.Read, &e.Archived, &e.ReceivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan email: %w", err)
		}
		e.Body = body.String
		emails = append(emails, &e)
	}
	return emails, rows.Err()
}

// GetEmail returns the email with the given id, or nil when absent
func (s *SQLiteStore) GetEmail(id string) (*Email, error) {
	var e Email
	var body sql.NullString
	err := s.db.QueryRow(`SELECT id, from_addr, to_addr, subject, body, read,
		archived, received_at FROM emails WHERE id = ?`, id).
		Scan(&e.ID, &e.From, &e.To, &e.Subject, &body, &e.Read, &e.Archived, &e.ReceivedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get email: %w", err)
	}
	e.Body = body.String
	return &e, nil
}

// CreateEmail inserts an email
func (s *SQLiteStore) CreateEmail(e *Email) (*Email, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.ReceivedAt.IsZero() {
		e.ReceivedAt = time.Now()
	}

	_, err := s.db.Exec(`INSERT INTO emails
		(id, from_addr, to_addr, subject, body, read, archived, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.From, e.To, e.Subject, e.Body, e.Read, e.Archived, e.ReceivedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create email: %w", err)
	}
	return e, nil
}

// UpdateEmail writes the mutable fields of an email
func (s *SQLiteStore) UpdateEmail(e *Email) (*Email, error) {
	res, err := s.db.Exec(
		"UPDATE emails SET subject = ?, body = ?, read = ?, archived = ? WHERE id = ?",
		e.Subject, e.Body, e.Read, e.Archived, e.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update email: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return e, nil
}

// AddComment attaches a comment to an entity
func (s *SQLiteStore) AddComment(c *Comment) (*Comment, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = time.Now()

	_, err := s.db.Exec(
		"INSERT INTO comments (id, entity_id, author, body, created_at) VALUES (?, ?, ?, ?, ?)",
		c.ID, c.EntityID, c.Author, c.Body, c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	return c, nil
}

// ListComments returns an entity's comments in creation order
func (s *SQLiteStore) ListComments(entityID string) ([]*Comment, error) {
	rows, err := s.db.Query(
		"SELECT id, entity_id, author, body, created_at FROM comments WHERE entity_id = ? ORDER BY created_at, id",
		entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []*Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.EntityID, &c.Author, &c.Body, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, &c)
	}
	return comments, rows.Err()
}

// LogActivity appends an audit-feed entry
func (s *SQLiteStore) LogActivity(a *Activity) error {
	a.CreatedAt = time.Now()
	_, err := s.db.Exec(
		"INSERT INTO activity (entity_id, action, detail, created_at) VALUES (?, ?, ?, ?)",
		a.EntityID, a.Action, a.Detail, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}
	return nil
}

// ListActivity returns an entity's most recent activity entries
func (s *SQLiteStore) ListActivity(entityID string, limit int) ([]*Activity, error) {
	rows, err := s.db.Query(
		"SELECT id, entity_id, action, detail, created_at FROM activity WHERE entity_id = ? ORDER BY id DESC LIMIT ?",
		entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var entries []*Activity
	for rows.Next() {
		var a Activity
		var detail sql.NullString
		if err := rows.Scan(&a.ID, &a.EntityID, &a.Action, &detail, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		a.Detail = detail.String
		entries = append(entries, &a)
	}
	return entries, rows.Err()
}

// LinkEntities records a relationship between two entities
func (s *SQLiteStore) LinkEntities(l *Link) (*Link, error) {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	l.CreatedAt = time.Now()

	_, err := s.db.Exec(`INSERT INTO links
		(id, source_type, source_id, target_type, target_id, kind, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.SourceType, l.SourceID, l.TargetType, l.TargetID, l.Kind, l.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to link entities: %w", err)
	}
	return l, nil
}

// Unlink removes a link, reporting whether it existed
func (s *SQLiteStore) Unlink(id string) (bool, error) {
	res, err := s.db.Exec("DELETE FROM links WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to unlink: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ListLinks returns every link where the entity appears on either side
func (s *SQLiteStore) ListLinks(entityID string) ([]*Link, error) {
	rows, err := s.db.Query(`SELECT id, source_type, source_id, target_type,
		target_id, kind, created_at FROM links
		WHERE source_id = ? OR target_id = ? ORDER BY created_at, id`,
		entityID, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	var links []*Link
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.ID, &l.SourceType, &l.SourceID, &l.TargetType,
			&l.TargetID, &l.Kind, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, &l)
	}
	return links, rows.Err()
}

// CreateReminder inserts a reminder
func (s *SQLiteStore) CreateReminder(r *Reminder) (*Reminder, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	r.CreatedAt = time.Now()

	_, err := s.db.Exec(
		"INSERT INTO reminders (id, task_id, at, note, created_at) VALUES (?, ?, ?, ?, ?)",
		r.ID, r.TaskID, r.At, r.Note, r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}
	return r, nil
}

// CreateMeeting inserts a meeting
func (s *SQLiteStore) CreateMeeting(m *Meeting) (*Meeting, error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	m.CreatedAt = time.Now()

	_, err := s.db.Exec(`INSERT INTO meetings
		(id, title, starts_at, duration_minutes, attendees, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.Title, m.StartsAt, int(m.Duration.Minutes()),
		strings.Join(m.Attendees, ","), m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create meeting: %w", err)
	}
	return m, nil
}

// CreateSession creates a new conversation session
func (s *SQLiteStore) CreateSession() (string, error) {
	id := uuid.New().String()
	now := time.Now()

	_, err := s.db.Exec(
		"INSERT INTO sessions (id, created_at, updated_at) VALUES (?, ?, ?)",
		id, now, now)
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return id, nil
}

// GetLatestSession returns the most recently updated session, or nil
func (s *SQLiteStore) GetLatestSession() (*Session, error) {
	var session Session
	err := s.db.QueryRow(
		"SELECT id, created_at, updated_at FROM sessions ORDER BY updated_at DESC LIMIT 1").
		Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest session: %w", err)
	}
	return &session, nil
}

// ClearSession removes a session's messages and action log
func (s *SQLiteStore) ClearSession(sessionID string) error {
	if _, err := s.db.Exec("DELETE FROM messages WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to clear session messages: %w", err)
	}
	if _, err := s.db.Exec("DELETE FROM action_log WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to clear session action log: %w", err)
	}
	if _, err := s.db.Exec("DELETE FROM sessions WHERE id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// SaveMessage appends a conversation message
func (s *SQLiteStore) SaveMessage(sessionID string, msg *Message) error {
	_, err := s.db.Exec(`INSERT INTO messages
		(session_id, role, content, tool_calls, tool_call_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, msg.Role, msg.Content, msg.ToolCalls, msg.ToolCallID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}

	_, err = s.db.Exec("UPDATE sessions SET updated_at = ? WHERE id = ?", time.Now(), sessionID)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

// GetMessages returns the last limit messages of a session in order
func (s *SQLiteStore) GetMessages(sessionID string, limit int) ([]*Message, error) {
	rows, err := s.db.Query(`SELECT id, session_id, role, content, tool_calls,
		tool_call_id, created_at FROM
		(SELECT * FROM messages WHERE session_id = ? ORDER BY id DESC LIMIT ?)
		ORDER BY id ASC`,
		sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		var m Message
		var toolCalls, toolCallID sql.NullString
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content,
			&toolCalls, &toolCallID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.ToolCalls = toolCalls.String
		m.ToolCallID = toolCallID.String
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

// AppendAction appends an action log entry
func (s *SQLiteStore) AppendAction(e *ActionEntry) (*ActionEntry, error) {
	e.CreatedAt = time.Now()
	res, err := s.db.Exec(`INSERT INTO action_log
		(session_id, action_type, input_params, result, inverse, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.ActionType, e.InputParams, e.Result, e.Inverse, e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to append action: %w", err)
	}
	e.ID, _ = res.LastInsertId()
	return e, nil
}

// LastAction returns the newest action log entry for a session, or nil
func (s *SQLiteStore) LastAction(sessionID string) (*ActionEntry, error) {
	var e ActionEntry
	var inputParams, result, inverse sql.NullString
	err := s.db.QueryRow(`SELECT id, session_id, action_type, input_params,
		result, inverse, created_at FROM action_log
		WHERE session_id = ? ORDER BY id DESC LIMIT 1`, sessionID).
		Scan(&e.ID, &e.SessionID, &e.ActionType, &inputParams, &result, &inverse, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last action: %w", err)
	}
	e.InputParams = inputParams.String
	e.Result = result.String
	e.Inverse = inverse.String
	return &e, nil
}

// DeleteAction removes one action log entry by id
func (s *SQLiteStore) DeleteAction(id int64) (bool, error) {
	res, err := s.db.Exec("DELETE FROM action_log WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete action: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// CountActions returns the number of logged actions for a session
func (s *SQLiteStore) CountActions(sessionID string) (int, error) {
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM action_log WHERE session_id = ?", sessionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count actions: %w", err)
	}
	return count, nil
}

// TrimActions evicts the oldest entries beyond max
func (s *SQLiteStore) TrimActions(sessionID string, max int) error {
	_, err := s.db.Exec(`DELETE FROM action_log WHERE session_id = ? AND id NOT IN
		(SELECT id FROM action_log WHERE session_id = ? ORDER BY id DESC LIMIT ?)`,
		sessionID, sessionID, max)
	if err != nil {
		return fmt.Errorf("failed to trim actions: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
