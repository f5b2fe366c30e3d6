package store

import "time"

// SeedDemo loads a small fixture set so an ephemeral run has something to
// resolve against. Errors are ignored; demo data is best-effort.
func SeedDemo(s Store) {
	if ms, ok := s.(*MemStore); ok {
		ms.AddUser(&User{Name: "Sarah Chen", Email: "sarah@example.com"})
		ms.AddUser(&User{Name: "Mike Johnson", Email: "mike@example.com"})
	}

	proj, _ := s.CreateProject(&Project{Name: "Website Redesign"})
	projID := ""
	if proj != nil {
		projID = proj.ID
	}

	s.CreateTask(&Task{Title: "Fix login bug", Status: "todo", Priority: "high", ProjectID: projID})
	s.CreateTask(&Task{Title: "Bug triage meeting notes", Status: "backlog", Priority: "low"})
	s.CreateTask(&Task{Title: "Update landing page copy", Status: "in-progress", Priority: "medium", ProjectID: projID})

	s.CreateIncident(&Incident{
		Title:    "Checkout latency spike",
		Severity: "sev2",
		Status:   IncidentOpen,
	})

	s.CreateEmail(&Email{
		From:       "customer@example.com",
		To:         "support@example.com",
		Subject:    "Cannot reset my password",
		Body:       "The reset link in the email returns a 404.",
		ReceivedAt: time.Now().Add(-2 * time.Hour),
	})
}
