package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/dkeegan/taskpilot/internal/store"
)

func emailTools() []*Definition {
	return []*Definition{
		listEmailsTool(),
		sendEmailTool(),
		archiveEmailTool(),
	}
}

// findEmail resolves an email by exact id first, then by case-insensitive
// subject substring, first match wins
func findEmail(env *Env, fragment string) (*store.Email, *Result, error) {
	emails, err := env.Store.ListEmails()
	if err != nil {
		return nil, nil, err
	}
	for _, e := range emails {
		if e.ID == fragment {
			return e, nil, nil
		}
	}
	needle := strings.ToLower(fragment)
	for _, e := range emails {
		if strings.Contains(strings.ToLower(e.Subject), needle) {
			return e, nil, nil
		}
	}
	return nil, Fail("No email found matching %q", fragment), nil
}

func emailBrief(e *store.Email) map[string]any {
	return map[string]any{
		"id":      e.ID,
		"from":    e.From,
		"subject": e.Subject,
		"read":    e.Read,
	}
}

func listEmailsTool() *Definition {
	return &Definition{
		Name:        "list_emails",
		Description: "List inbox emails. Archived messages are hidden unless requested.",
		Params: []Param{
			{Name: "unread", Type: TypeBoolean, Description: "Only unread messages"},
			{Name: "archived", Type: TypeBoolean, Description: "Include archived messages"},
		},
		Run: func(ctx context.Context, env *Env, args Args) (*Result, error) {
			emails, err := env.Store.ListEmails()
			if err != nil {
				return nil, err
			}

			unreadOnly, _ := args.Bool("unread")
			includeArchived, _ := args.Bool("archived")

			var briefs []map[string]any
			var lines []string
			for _, e := range emails {
				if e.Archived && !includeArchived {
					continue
				}
				if unreadOnly && e.Read {
					continue
				}
				briefs = append(briefs, emailBrief(e))
				marker := " "
				if !e.Read {
					marker = "*"
				}
				lines = append(lines, fmt.Sprintf("%s %s — %s", marker, e.From, e.Subject))
			}

			if len(briefs) == 0 {
				return Ok("Inbox is empty").With("emails", []map[string]any{}), nil
			}
			return Ok("%d email(s):\n%s", len(briefs), strings.Join(lines, "\n")).
				With("emails", briefs), nil
		},
	}
}

func sendEmailTool() *Definition {
	return &Definition{
		Name:        "send_email",
		Description: "Send an email from the current user.",
		Params: []Param{
			{Name: "to", Type: TypeString, Description: "Recipient address or user name", Required: true},
			{Name: "subject", Type: TypeString, Description: "Subject line", Required: true},
			{Name: "body", Type: TypeString, Description: "Message body"},
		},
		Run: func(ctx context.Context, env *Env, args Args) (*Result, error) {
			to, err := args.RequiredString("to")
			if err != nil {
				return Fail("%v", err), nil
			}
			subject, err := args.RequiredString("subject")
			if err != nil {
				return Fail("%v", err), nil
			}

			snap, snapErr := snapshot(env)
			if snapErr != nil {
				return nil, snapErr
			}
			// a bare name is resolved to the user's address when possible
			if !strings.Contains(to, "@") {
				if user, failed := findUser(snap, to); failed == nil && user.Email != "" {
					to = user.Email
				}
			}

			from := "me"
			if snap.Me != nil {
				if snap.Me.Email != "" {
					from = snap.Me.Email
				} else {
					from = snap.Me.Name
				}
			}

			body, _ := args.String("body")
			sent, sendErr := env.Store.CreateEmail(&store.Email{
				From:    from,
				To:      to,
				Subject: subject,
				Body:    body,
				Read:    true,
			})
			if sendErr != nil {
				return nil, sendErr
			}
			audit(env, sent.ID, "email_sent", to)

			return Ok("Sent email %q to %s", subject, to).With("email", emailBrief(sent)), nil
		},
	}
}

func archiveEmailTool() *Definition {
	return &Definition{
		Name:        "archive_email",
		Description: "Archive an email out of the inbox.",
		Params: []Param{
			{Name: "email", Type: TypeString, Description: "Email subject fragment or id", Required: true},
		},
		Run: func(ctx context.Context, env *Env, args Args) (*Result, error) {
			fragment, err := args.RequiredString("email")
			if err != nil {
				return Fail("%v", err), nil
			}

			email, failed, findErr := findEmail(env, fragment)
			if findErr != nil {
				return nil, findErr
			}
			if failed != nil {
				return failed, nil
			}
			if email.Archived {
				return Ok("Email %q is already archived", email.Subject), nil
			}

			email.Archived = true
			email.Read = true
			updated, updateErr := env.Store.UpdateEmail(email)
			if updateErr != nil {
				return nil, updateErr
			}
			if updated == nil {
				return Fail("Email %q no longer exists", email.Subject), nil
			}
			audit(env, email.ID, "email_archived", "")

			return Ok("Archived email %q", email.Subject).With("email", emailBrief(updated)), nil
		},
	}
}
