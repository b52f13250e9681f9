package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/events"
	"alcyxob/gym-manager/internal/repository"

	"github.com/teambition/rrule-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScheduleInput places a client into a coach's weekly slot.
type ScheduleInput struct {
	CoachID   primitive.ObjectID
	ClientID  primitive.ObjectID
	DayOfWeek time.Weekday
	Time      string // "HH:MM"
}

// ScheduleEntryView is a roster entry with names and its next occurrence.
type ScheduleEntryView struct {
	Entry          domain.CoachSchedule
	CoachName      string
	ClientName     string
	NextOccurrence time.Time
}

// ParticipantInput is one attendee of a completed group session.
type ParticipantInput struct {
	ClientID primitive.ObjectID
	Note     string
}

// CompleteGroupInput is the payload of a finished group session.
type CompleteGroupInput struct {
	Date         *time.Time
	DayName      string
	Exercises    []domain.GroupExercise
	Participants []ParticipantInput
}

// GroupService manages group training.
type GroupService interface {
	AddToSchedule(ctx context.Context, actor Actor, in ScheduleInput) (*domain.CoachSchedule, error)
	RemoveFromSchedule(ctx context.Context, id primitive.ObjectID) error
	Schedule(ctx context.Context, coachID *primitive.ObjectID) ([]ScheduleEntryView, error)

	CreateTemplate(ctx context.Context, actor Actor, name string, exercises []domain.GroupTemplateExercise) (*domain.GroupTemplate, error)
	ListTemplates(ctx context.Context) ([]domain.GroupTemplate, error)
	DeleteTemplate(ctx context.Context, id primitive.ObjectID) error

	CompleteSession(ctx context.Context, actor Actor, in CompleteGroupInput) (*domain.GroupSessionLog, error)
	History(ctx context.Context, page, pageSize int64) ([]domain.GroupSessionLog, int64, error)
	Get(ctx context.Context, id primitive.ObjectID) (*domain.GroupSessionLog, error)
	ClientHistory(ctx context.Context, clientID primitive.ObjectID) ([]domain.GroupSessionLog, error)
}

type groupService struct {
	tx           repository.Transactor
	groupRepo    repository.GroupSessionRepository
	scheduleRepo repository.CoachScheduleRepository
	templateRepo repository.GroupTemplateRepository
	clientRepo   repository.ClientRepository
	userRepo     repository.UserRepository
	subRepo      repository.SubscriptionRepository
	planRepo     repository.PlanRepository
	usage        *usageRecorder
	now          func() time.Time
}

// NewGroupService creates the group training service.
func NewGroupService(
	tx repository.Transactor,
	groupRepo repository.GroupSessionRepository,
	scheduleRepo repository.CoachScheduleRepository,
	templateRepo repository.GroupTemplateRepository,
	clientRepo repository.ClientRepository,
	userRepo repository.UserRepository,
	subRepo repository.SubscriptionRepository,
	planRepo repository.PlanRepository,
	sessionRepo repository.TrainingSessionRepository,
	logRepo repository.SessionLogRepository,
	publisher events.Publisher,
	loc *time.Location,
) GroupService {
	now := clockIn(loc)
	return &groupService{
		tx:           tx,
		groupRepo:    groupRepo,
		scheduleRepo: scheduleRepo,
		templateRepo: templateRepo,
		clientRepo:   clientRepo,
		userRepo:     userRepo,
		subRepo:      subRepo,
		planRepo:     planRepo,
		usage: &usageRecorder{
			subRepo:     subRepo,
			planRepo:    planRepo,
			sessionRepo: sessionRepo,
			logRepo:     logRepo,
			groupRepo:   groupRepo,
			publisher:   publisher,
			now:         now,
		},
		now: now,
	}
}

// --- Schedule ---

func (s *groupService) AddToSchedule(ctx context.Context, actor Actor, in ScheduleInput) (*domain.CoachSchedule, error) {
	coachID := in.CoachID
	if actor.IsTrainer() || coachID.IsZero() {
		coachID = actor.ID
	}
	if in.DayOfWeek < time.Sunday || in.DayOfWeek > time.Saturday {
		return nil, newValidationError("day_of_week", "Day of week must be between 0 (Sunday) and 6 (Saturday).")
	}
	if _, err := time.Parse("15:04", in.Time); err != nil {
		return nil, newValidationError("time", "Time must use the HH:MM format.")
	}
	coach, err := s.userRepo.GetByID(ctx, coachID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if coach == nil || !coach.IsTrainer() {
		return nil, newValidationError("coach", "Coach must be a trainer.")
	}
	if _, err := s.clientRepo.GetByID(ctx, in.ClientID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}

	entry := &domain.CoachSchedule{
		CoachID:   coachID,
		ClientID:  in.ClientID,
		DayOfWeek: in.DayOfWeek,
		Time:      in.Time,
	}
	if _, err := s.scheduleRepo.Create(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newValidationError("client", "Client is already in this slot.")
		}
		return nil, err
	}
	return entry, nil
}

func (s *groupService) RemoveFromSchedule(ctx context.Context, id primitive.ObjectID) error {
	if err := s.scheduleRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrScheduleEntryNotFound
		}
		return err
	}
	return nil
}

func (s *groupService) Schedule(ctx context.Context, coachID *primitive.ObjectID) ([]ScheduleEntryView, error) {
	entries, err := s.scheduleRepo.List(ctx, coachID)
	if err != nil {
		return nil, err
	}
	var userIDs, clientIDs []primitive.ObjectID
	for _, e := range entries {
		userIDs = append(userIDs, e.CoachID)
		clientIDs = append(clientIDs, e.ClientID)
	}
	coachNames, err := userNames(ctx, s.userRepo, userIDs)
	if err != nil {
		return nil, err
	}
	clients, err := s.clientRepo.GetByIDs(ctx, uniqueIDs(clientIDs))
	if err != nil {
		return nil, err
	}
	clientNames := make(map[primitive.ObjectID]string, len(clients))
	for _, c := range clients {
		clientNames[c.ID] = c.Name
	}

	now := s.now()
	views := make([]ScheduleEntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, ScheduleEntryView{
			Entry:          e,
			CoachName:      coachNames[e.CoachID],
			ClientName:     clientNames[e.ClientID],
			NextOccurrence: nextOccurrence(e.DayOfWeek, e.Time, now),
		})
	}
	return views, nil
}

var rruleDays = [...]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

// nextOccurrence returns the first weekly slot at or after now, in now's location.
func nextOccurrence(day time.Weekday, hhmm string, now time.Time) time.Time {
	clock, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}
	}
	rule, err := rrule.StrToRRule(fmt.Sprintf("FREQ=WEEKLY;BYDAY=%s", rruleDays[day]))
	if err != nil {
		return time.Time{}
	}
	y, m, d := now.AddDate(0, 0, -7).Date()
	rule.DTStart(time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, now.Location()))
	return rule.After(now, true)
}

// --- Templates ---

func (s *groupService) CreateTemplate(ctx context.Context, actor Actor, name string, exercises []domain.GroupTemplateExercise) (*domain.GroupTemplate, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newValidationError("name", "Template name is required.")
	}
	for i, ex := range exercises {
		if strings.TrimSpace(ex.Name) == "" {
			return nil, newValidationError("exercises", fmt.Sprintf("Exercise %d has no name.", i+1))
		}
		if !ex.Type.Valid() {
			return nil, newValidationError("exercises", fmt.Sprintf("Exercise %q has an unknown type %q.", ex.Name, ex.Type))
		}
	}
	tpl := &domain.GroupTemplate{Name: name, Exercises: exercises, CreatedBy: actor.ID}
	if _, err := s.templateRepo.Create(ctx, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

func (s *groupService) ListTemplates(ctx context.Context) ([]domain.GroupTemplate, error) {
	return s.templateRepo.List(ctx)
}

func (s *groupService) DeleteTemplate(ctx context.Context, id primitive.ObjectID) error {
	if err := s.templateRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTemplateNotFound
		}
		return err
	}
	return nil
}

// --- Sessions ---

// CompleteSession logs a group session led by the acting coach. Each distinct
// client with an active unit-bearing subscription has one unit deducted; the
// others are recorded without deduction. Everything happens in one transaction.
func (s *groupService) CompleteSession(ctx context.Context, actor Actor, in CompleteGroupInput) (*domain.GroupSessionLog, error) {
	// 1. Validate the payload
	dayName := strings.TrimSpace(in.DayName)
	if dayName == "" {
		return nil, newValidationError("day_name", "Day name is required.")
	}
	for i, ex := range in.Exercises {
		if strings.TrimSpace(ex.Name) == "" {
			return nil, newValidationError("exercises", fmt.Sprintf("Exercise %d has no name.", i+1))
		}
		if !ex.Type.Valid() {
			return nil, newValidationError("exercises", fmt.Sprintf("Exercise %q has an unknown type %q.", ex.Name, ex.Type))
		}
	}

	// 2. Dedupe participants and make sure every client exists
	var participants []domain.GroupParticipant
	seen := make(map[primitive.ObjectID]bool)
	for _, p := range in.Participants {
		if seen[p.ClientID] {
			continue
		}
		seen[p.ClientID] = true
		participants = append(participants, domain.GroupParticipant{ClientID: p.ClientID, Note: strings.TrimSpace(p.Note)})
	}
	if len(participants) == 0 {
		return nil, newValidationError("participants", "At least one participant is required.")
	}
	ids := make([]primitive.ObjectID, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.ClientID)
	}
	clients, err := s.clientRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	clientNames := make(map[primitive.ObjectID]string, len(clients))
	for _, c := range clients {
		clientNames[c.ID] = c.Name
	}
	for _, id := range ids {
		if _, ok := clientNames[id]; !ok {
			return nil, ErrClientNotFound
		}
	}

	exercises := make([]domain.GroupExercise, 0, len(in.Exercises))
	for _, ex := range in.Exercises {
		ex.Name = strings.TrimSpace(ex.Name)
		results := make([]domain.GroupResult, 0, len(ex.Results))
		for _, r := range ex.Results {
			if !seen[r.ClientID] {
				continue
			}
			r.ClientName = clientNames[r.ClientID]
			results = append(results, r)
		}
		ex.Results = results
		exercises = append(exercises, ex)
	}

	date := s.now()
	if in.Date != nil {
		date = *in.Date
	}
	entry := &domain.GroupSessionLog{
		CoachID:   actor.ID,
		Date:      domain.DateOnly(date),
		DayName:   dayName,
		Exercises: exercises,
	}

	// 3. Deduct, insert the log and recount in one transaction
	var deactivated []*domain.Subscription
	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		deactivated = nil
		entry.Participants = make([]domain.GroupParticipant, len(participants))
		copy(entry.Participants, participants)

		var deducted []primitive.ObjectID
		for i := range entry.Participants {
			p := &entry.Participants[i]
			sub, err := s.subRepo.FindActiveByClient(txCtx, p.ClientID)
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			plan, err := loadPlan(txCtx, s.planRepo, sub.PlanID)
			if err != nil {
				return err
			}
			if plan == nil || plan.Units <= 0 {
				continue
			}
			subID := sub.ID
			p.SubscriptionID = &subID
			p.Deducted = true
			deducted = append(deducted, subID)
		}

		if _, err := s.groupRepo.Create(txCtx, entry); err != nil {
			return err
		}
		for _, subID := range deducted {
			sub, err := s.usage.recordSessionCompletion(txCtx, subID)
			if err != nil {
				return err
			}
			if sub != nil {
				deactivated = append(deactivated, sub)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.usage.announceDeactivated(ctx, deactivated...)
	return entry, nil
}

func (s *groupService) History(ctx context.Context, page, pageSize int64) ([]domain.GroupSessionLog, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.groupRepo.List(ctx, (page-1)*pageSize, pageSize)
}

func (s *groupService) Get(ctx context.Context, id primitive.ObjectID) (*domain.GroupSessionLog, error) {
	entry, err := s.groupRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGroupSessionNotFound
		}
		return nil, err
	}
	return entry, nil
}

// ClientHistory returns the group sessions a client attended with results and
// roster narrowed to that client.
func (s *groupService) ClientHistory(ctx context.Context, clientID primitive.ObjectID) ([]domain.GroupSessionLog, error) {
	logs, err := s.groupRepo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	for i := range logs {
		var mine []domain.GroupParticipant
		for _, p := range logs[i].Participants {
			if p.ClientID == clientID {
				mine = append(mine, p)
			}
		}
		logs[i].Participants = mine

		exercises := make([]domain.GroupExercise, 0, len(logs[i].Exercises))
		for _, ex := range logs[i].Exercises {
			results := make([]domain.GroupResult, 0, 1)
			for _, r := range ex.Results {
				if r.ClientID == clientID {
					results = append(results, r)
				}
			}
			ex.Results = results
			exercises = append(exercises, ex)
		}
		logs[i].Exercises = exercises
	}
	return logs, nil
}
