package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/events"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCompleteGroupSessionDeductsOncePerClient(t *testing.T) {
	f := newFixture()
	alice := f.addTrainer("Alice")
	coach := f.addTrainer("Coach")
	counted := f.addPlan(10, "1000")
	unlimited := f.addPlan(0, "300")
	a := f.addClient("Ann")
	b := f.addClient("Ben")
	c := f.addClient("Cid")
	subA := f.addSubscription(a.ID, &counted, idPtr(alice.ID), true)
	subB := f.addSubscription(b.ID, &unlimited, nil, true)
	stranger := primitive.NewObjectID()

	entry, err := f.groupService().CompleteSession(context.Background(), trainerActor(coach), CompleteGroupInput{
		DayName: "Monday",
		Exercises: []domain.GroupExercise{{
			Name: "Burpees", Type: domain.GroupExerciseReps, Target: "20",
			Results: []domain.GroupResult{{ClientID: a.ID, Reps: "18"}, {ClientID: stranger, Reps: "5"}},
		}},
		Participants: []ParticipantInput{{ClientID: a.ID}, {ClientID: a.ID, Note: "dup"}, {ClientID: b.ID}, {ClientID: c.ID}},
	})
	if err != nil {
		t.Fatalf("CompleteSession() error = %v", err)
	}

	if entry.CoachID != coach.ID || len(entry.Participants) != 3 {
		t.Fatalf("entry coach=%v participants=%d, want coach and 3 participants", entry.CoachID, len(entry.Participants))
	}
	byClient := map[primitive.ObjectID]domain.GroupParticipant{}
	for _, p := range entry.Participants {
		byClient[p.ClientID] = p
	}
	if p := byClient[a.ID]; !p.Deducted || p.SubscriptionID == nil || *p.SubscriptionID != subA.ID {
		t.Errorf("Ann = %+v, want deducted from her subscription", p)
	}
	if byClient[b.ID].Deducted {
		t.Error("plan without units must not be deducted")
	}
	if byClient[c.ID].Deducted {
		t.Error("client without subscription must not be deducted")
	}

	if got := f.subs.subs[subA.ID].SessionsUsed; got != 1 {
		t.Errorf("Ann sessions_used = %d, want 1", got)
	}
	if got := f.subs.subs[subB.ID].SessionsUsed; got != 0 {
		t.Errorf("Ben sessions_used = %d, want 0", got)
	}

	results := entry.Exercises[0].Results
	if len(results) != 1 || results[0].ClientName != "Ann" {
		t.Errorf("results = %+v, want only Ann with her name filled", results)
	}
	if f.tx.calls != 1 || len(f.groups.logs) != 1 {
		t.Errorf("tx calls=%d logs=%d, want 1 and 1", f.tx.calls, len(f.groups.logs))
	}
	if !entry.Date.Equal(domain.DateOnly(time.Now().UTC())) {
		t.Errorf("date = %v, want today", entry.Date)
	}
}

func TestCompleteGroupSessionUnknownClient(t *testing.T) {
	f := newFixture()
	coach := f.addTrainer("Coach")
	a := f.addClient("Ann")

	_, err := f.groupService().CompleteSession(context.Background(), trainerActor(coach), CompleteGroupInput{
		DayName:      "Monday",
		Participants: []ParticipantInput{{ClientID: a.ID}, {ClientID: primitive.NewObjectID()}},
	})
	if !errors.Is(err, ErrClientNotFound) {
		t.Fatalf("err = %v, want ErrClientNotFound", err)
	}
	if len(f.groups.logs) != 0 || f.tx.calls != 0 {
		t.Error("nothing may be written when a participant is unknown")
	}
}

func TestCompleteGroupSessionValidation(t *testing.T) {
	f := newFixture()
	coach := f.addTrainer("Coach")
	a := f.addClient("Ann")
	svc := f.groupService()

	tests := []struct {
		name  string
		in    CompleteGroupInput
		field string
	}{
		{name: "no day", in: CompleteGroupInput{Participants: []ParticipantInput{{ClientID: a.ID}}}, field: "day_name"},
		{name: "no participants", in: CompleteGroupInput{DayName: "Mon"}, field: "participants"},
		{name: "bad type", in: CompleteGroupInput{DayName: "Mon", Exercises: []domain.GroupExercise{{Name: "Run", Type: "distance"}}, Participants: []ParticipantInput{{ClientID: a.ID}}}, field: "exercises"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CompleteSession(context.Background(), trainerActor(coach), tt.in)
			var vErr *ValidationError
			if !errors.As(err, &vErr) || vErr.Field != tt.field {
				t.Fatalf("err = %v, want ValidationError on %s", err, tt.field)
			}
		})
	}
}

func TestCompleteGroupSessionExhaustsSubscription(t *testing.T) {
	f := newFixture()
	coach := f.addTrainer("Coach")
	plan := f.addPlan(1, "100")
	a := f.addClient("Ann")
	sub := f.addSubscription(a.ID, &plan, nil, true)

	_, err := f.groupService().CompleteSession(context.Background(), trainerActor(coach), CompleteGroupInput{
		DayName:      "Friday",
		Participants: []ParticipantInput{{ClientID: a.ID}},
	})
	if err != nil {
		t.Fatalf("CompleteSession() error = %v", err)
	}
	if f.subs.subs[sub.ID].IsActive {
		t.Error("subscription should be inactive after its last unit")
	}
	if n := f.publisher.count(events.SubscriptionDeactivated); n != 1 {
		t.Errorf("deactivation events = %d, want 1", n)
	}
}

func TestClientHistoryNarrowsToClient(t *testing.T) {
	f := newFixture()
	coach := f.addTrainer("Coach")
	a := f.addClient("Ann")
	b := f.addClient("Ben")
	svc := f.groupService()
	ctx := context.Background()

	_, err := svc.CompleteSession(ctx, trainerActor(coach), CompleteGroupInput{
		DayName: "Monday",
		Exercises: []domain.GroupExercise{{
			Name: "Plank", Type: domain.GroupExerciseTime,
			Results: []domain.GroupResult{{ClientID: a.ID, Time: "60s"}, {ClientID: b.ID, Time: "45s"}},
		}},
		Participants: []ParticipantInput{{ClientID: a.ID}, {ClientID: b.ID}},
	})
	if err != nil {
		t.Fatalf("CompleteSession() error = %v", err)
	}

	logs, err := svc.ClientHistory(ctx, b.ID)
	if err != nil || len(logs) != 1 {
		t.Fatalf("ClientHistory() = %d logs, %v", len(logs), err)
	}
	if len(logs[0].Participants) != 1 || logs[0].Participants[0].ClientID != b.ID {
		t.Errorf("participants = %+v, want only Ben", logs[0].Participants)
	}
	if r := logs[0].Exercises[0].Results; len(r) != 1 || r[0].Time != "45s" {
		t.Errorf("results = %+v, want only Ben's", r)
	}

	full, _ := svc.Get(ctx, logs[0].ID)
	if len(full.Exercises[0].Results) != 2 {
		t.Error("client history must not modify the stored log")
	}
}

func TestAddToSchedule(t *testing.T) {
	f := newFixture()
	coach := f.addTrainer("Coach")
	other := f.addTrainer("Other")
	a := f.addClient("Ann")
	svc := f.groupService()
	ctx := context.Background()

	entry, err := svc.AddToSchedule(ctx, trainerActor(coach), ScheduleInput{CoachID: other.ID, ClientID: a.ID, DayOfWeek: time.Monday, Time: "18:00"})
	if err != nil {
		t.Fatalf("AddToSchedule() error = %v", err)
	}
	if entry.CoachID != coach.ID {
		t.Error("a trainer always schedules into their own roster")
	}

	_, err = svc.AddToSchedule(ctx, trainerActor(coach), ScheduleInput{ClientID: a.ID, DayOfWeek: time.Monday, Time: "18:00"})
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "client" {
		t.Errorf("duplicate slot: err = %v, want ValidationError on client", err)
	}
	_, err = svc.AddToSchedule(ctx, trainerActor(coach), ScheduleInput{ClientID: a.ID, DayOfWeek: time.Monday, Time: "6pm"})
	if !errors.As(err, &vErr) || vErr.Field != "time" {
		t.Errorf("bad time: err = %v, want ValidationError on time", err)
	}

	views, err := svc.Schedule(ctx, idPtr(coach.ID))
	if err != nil || len(views) != 1 {
		t.Fatalf("Schedule() = %d, %v", len(views), err)
	}
	if views[0].CoachName != "Coach" || views[0].ClientName != "Ann" || views[0].NextOccurrence.Weekday() != time.Monday {
		t.Errorf("view = %+v", views[0])
	}
}

func TestNextOccurrence(t *testing.T) {
	now := time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC) // Wednesday
	tests := []struct {
		name string
		day  time.Weekday
		hhmm string
		want time.Time
	}{
		{name: "later this week", day: time.Friday, hhmm: "07:30", want: time.Date(2024, 3, 8, 7, 30, 0, 0, time.UTC)},
		{name: "next week", day: time.Monday, hhmm: "18:00", want: time.Date(2024, 3, 11, 18, 0, 0, 0, time.UTC)},
		{name: "today later", day: time.Wednesday, hhmm: "19:00", want: time.Date(2024, 3, 6, 19, 0, 0, 0, time.UTC)},
		{name: "today passed", day: time.Wednesday, hhmm: "09:00", want: time.Date(2024, 3, 13, 9, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nextOccurrence(tt.day, tt.hhmm, now)
			if !got.Equal(tt.want) {
				t.Fatalf("nextOccurrence() = %v, want %v", got, tt.want)
			}
		})
	}
	if got := nextOccurrence(time.Monday, "bad", now); !got.IsZero() {
		t.Errorf("bad time gave %v, want zero", got)
	}
}

func TestGroupHistoryPaging(t *testing.T) {
	f := newFixture()
	for i := 0; i < 3; i++ {
		f.groups.logs = append(f.groups.logs, domain.GroupSessionLog{ID: primitive.NewObjectID()})
	}
	logs, total, err := f.groupService().History(context.Background(), 2, 2)
	if err != nil || total != 3 || len(logs) != 1 {
		t.Fatalf("History(2,2) = %d logs, total %d, err %v", len(logs), total, err)
	}
}
