package tools

import (
	"context"
	"strings"
	"time"

	"github.com/dkeegan/taskpilot/internal/normalize"
	"github.com/dkeegan/taskpilot/internal/store"
)

func scheduleTools() []*Definition {
	return []*Definition{
		setReminderTool(),
		scheduleMeetingTool(),
	}
}

func setReminderTool() *Definition {
	return &Definition{
		Name:        "set_reminder",
		Description: "Set a reminder on a task for a given date and optional time.",
		Params: []Param{
			{Name: "task", Type: TypeString, Description: "Task title fragment or id", Required: true},
			{Name: "when", Type: TypeString, Description: "Reminder date, e.g. 'tomorrow' or 'next monday'", Required: true},
			{Name: "time", Type: TypeString, Description: "Time of day, e.g. '9:00' or '2pm'; defaults to 09:00"},
			{Name: "note", Type: TypeString, Description: "Optional note shown with the reminder"},
		},
		Run: func(ctx context.Context, env *Env, args Args) (*Result, error) {
			fragment, err := args.RequiredString("task")
			if err != nil {
				return Fail("%v", err), nil
			}
			rawWhen, err := args.RequiredString("when")
			if err != nil {
				return Fail("%v", err), nil
			}

			snap, snapErr := snapshot(env)
			if snapErr != nil {
				return nil, snapErr
			}
			task, notFound := findTask(snap, fragment)
			if notFound != nil {
				return notFound, nil
			}

			day, parsed := normalize.Date(rawWhen, env.Now())
			if !parsed {
				return Fail("Could not understand date %q; %s", rawWhen, normalize.DateFormatsHint), nil
			}

			at := day.Add(9 * time.Hour)
			if rawTime, ok := args.String("time"); ok {
				parsedAt, timeOK := normalize.TimeOfDay(rawTime, day)
				if !timeOK {
					return Fail("Could not understand time %q; accepted formats: HH:MM, H:MM am/pm, or 5pm", rawTime), nil
				}
				at = parsedAt
			}
			if at.Before(env.Now()) {
				return Fail("Reminder time %s is in the past", normalize.FormatDateTime(at)), nil
			}

			note, _ := args.String("note")
			reminder, createErr := env.Store.CreateReminder(&store.Reminder{
				TaskID: task.ID,
				At:     at,
				Note:   note,
			})
			if createErr != nil {
				return nil, createErr
			}
			audit(env, task.ID, "reminder_set", normalize.FormatDateTime(at))

			return Ok("Reminder set on %q for %s", task.Title, normalize.FormatDateTime(at)).
				With("reminderId", reminder.ID), nil
		},
	}
}

func scheduleMeetingTool() *Definition {
	return &Definition{
		Name:        "schedule_meeting",
		Description: "Schedule a meeting with a title, date, time, duration and attendees.",
		Params: []Param{
			{Name: "title", Type: TypeString, Description: "Meeting title", Required: true},
			{Name: "when", Type: TypeString, Description: "Meeting date, e.g. 'tomorrow' or 'next friday'", Required: true},
			{Name: "time", Type: TypeString, Description: "Start time, e.g. '14:00' or '2pm'", Required: true},
			{Name: "duration", Type: TypeString, Description: "Length, e.g. '30m' or '1h'; defaults to 30m"},
			{Name: "attendees", Type: TypeString, Description: "Comma-separated user names; 'me' is always included"},
		},
		Run: func(ctx context.Context, env *Env, args Args) (*Result, error) {
			title, err := args.RequiredString("title")
			if err != nil {
				return Fail("%v", err), nil
			}
			rawWhen, err := args.RequiredString("when")
			if err != nil {
				return Fail("%v", err), nil
			}
			rawTime, err := args.RequiredString("time")
			if err != nil {
				return Fail("%v", err), nil
			}

			day, parsed := normalize.Date(rawWhen, env.Now())
			if !parsed {
				return Fail("Could not understand date %q; %s", rawWhen, normalize.DateFormatsHint), nil
			}
			startsAt, timeOK := normalize.TimeOfDay(rawTime, day)
			if !timeOK {
				return Fail("Could not understand time %q; accepted formats: HH:MM, H:MM am/pm, or 5pm", rawTime), nil
			}

			duration := 30 * time.Minute
			if rawDuration, ok := args.String("duration"); ok {
				d, durationOK := normalize.Duration(rawDuration)
				if !durationOK {
					return Fail("Could not understand duration %q; accepted formats: 30m, 2h, 1d", rawDuration), nil
				}
				duration = d
			}

			snap, snapErr := snapshot(env)
			if snapErr != nil {
				return nil, snapErr
			}

			var attendeeIDs []string
			var attendeeNames []string
			if snap.Me != nil {
				attendeeIDs = append(attendeeIDs, snap.Me.ID)
				attendeeNames = append(attendeeNames, snap.Me.Name)
			}
			names, listErr := args.StringList("attendees")
			if listErr != nil {
				return Fail("%v", listErr), nil
			}
			for _, name := range names {
				user, failed := findUser(snap, name)
				if failed != nil {
					return failed, nil
				}
				already := false
				for _, id := range attendeeIDs {
					if id == user.ID {
						already = true
						break
					}
				}
				if !already {
					attendeeIDs = append(attendeeIDs, user.ID)
					attendeeNames = append(attendeeNames, user.Name)
				}
			}

			meeting, createErr := env.Store.CreateMeeting(&store.Meeting{
				Title:     title,
				StartsAt:  startsAt,
				Duration:  duration,
				Attendees: attendeeIDs,
			})
			if createErr != nil {
				return nil, createErr
			}
			audit(env, meeting.ID, "meeting_scheduled", normalize.FormatDateTime(startsAt))

			return Ok("Scheduled %q for %s (%s) with %s",
				title, normalize.FormatDateTime(startsAt), normalize.FormatDuration(duration),
				strings.Join(attendeeNames, ", ")).
				With("meetingId", meeting.ID), nil
		},
	}
}
