package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repositories for service tests. They mirror the conditional
// writes and unique indexes of the Mongo implementations.

type stubTx struct{ calls int }

func (t *stubTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	return nil
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) count(key string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, k := range p.keys {
		if k == key {
			n++
		}
	}
	return n
}

// --- users ---

type stubUserRepo struct {
	users map[primitive.ObjectID]*domain.User
}

func newStubUserRepo(users ...domain.User) *stubUserRepo {
	r := &stubUserRepo{users: make(map[primitive.ObjectID]*domain.User)}
	for i := range users {
		u := users[i]
		r.users[u.ID] = &u
	}
	return r
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	cp := *user
	r.users[user.ID] = &cp
	return user.ID, nil
}

func (r *stubUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *stubUserRepo) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.User, error) {
	var out []domain.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *stubUserRepo) List(_ context.Context, role *domain.Role, activeOnly bool) ([]domain.User, error) {
	var out []domain.User
	for _, u := range r.users {
		if role != nil && u.Role != *role {
			continue
		}
		if activeOnly && !u.IsActive {
			continue
		}
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *stubUserRepo) SetActive(_ context.Context, id primitive.ObjectID, active bool) error {
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsActive = active
	return nil
}

// --- clients ---

type stubClientRepo struct {
	clients map[primitive.ObjectID]*domain.Client
}

func newStubClientRepo(clients ...domain.Client) *stubClientRepo {
	r := &stubClientRepo{clients: make(map[primitive.ObjectID]*domain.Client)}
	for i := range clients {
		c := clients[i]
		r.clients[c.ID] = &c
	}
	return r
}

func (r *stubClientRepo) Create(_ context.Context, client *domain.Client) (primitive.ObjectID, error) {
	for _, c := range r.clients {
		if c.ManualID == client.ManualID {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	client.ID = primitive.NewObjectID()
	cp := *client
	r.clients[client.ID] = &cp
	return client.ID, nil
}

func (r *stubClientRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Client, error) {
	c, ok := r.clients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubClientRepo) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.Client, error) {
	var out []domain.Client
	for _, id := range ids {
		if c, ok := r.clients[id]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *stubClientRepo) List(_ context.Context, filter repository.ClientFilter) ([]domain.Client, int64, error) {
	var out []domain.Client
	for _, c := range r.clients {
		if filter.IsChild != nil && c.IsChild != *filter.IsChild {
			continue
		}
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (r *stubClientRepo) Update(_ context.Context, client *domain.Client) error {
	if _, ok := r.clients[client.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, c := range r.clients {
		if id != client.ID && c.ManualID == client.ManualID {
			return repository.ErrDuplicate
		}
	}
	cp := *client
	r.clients[client.ID] = &cp
	return nil
}

func (r *stubClientRepo) SetPhoto(_ context.Context, id primitive.ObjectID, key string) error {
	c, ok := r.clients[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.PhotoKey = key
	return nil
}

func (r *stubClientRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.clients[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.clients, id)
	return nil
}

// --- plans ---

type stubPlanRepo struct {
	plans map[primitive.ObjectID]*domain.Plan
}

func newStubPlanRepo(plans ...domain.Plan) *stubPlanRepo {
	r := &stubPlanRepo{plans: make(map[primitive.ObjectID]*domain.Plan)}
	for i := range plans {
		p := plans[i]
		r.plans[p.ID] = &p
	}
	return r
}

func (r *stubPlanRepo) Create(_ context.Context, plan *domain.Plan) (primitive.ObjectID, error) {
	plan.ID = primitive.NewObjectID()
	cp := *plan
	r.plans[plan.ID] = &cp
	return plan.ID, nil
}

func (r *stubPlanRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Plan, error) {
	p, ok := r.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubPlanRepo) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.Plan, error) {
	var out []domain.Plan
	for _, id := range ids {
		if p, ok := r.plans[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubPlanRepo) List(_ context.Context, isChild *bool) ([]domain.Plan, error) {
	var out []domain.Plan
	for _, p := range r.plans {
		if isChild != nil && p.IsChildPlan != *isChild {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *stubPlanRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.plans[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.plans, id)
	return nil
}

// --- subscriptions ---

type stubSubscriptionRepo struct {
	subs map[primitive.ObjectID]*domain.Subscription
}

func newStubSubscriptionRepo(subs ...domain.Subscription) *stubSubscriptionRepo {
	r := &stubSubscriptionRepo{subs: make(map[primitive.ObjectID]*domain.Subscription)}
	for i := range subs {
		s := subs[i]
		r.subs[s.ID] = &s
	}
	return r
}

func (r *stubSubscriptionRepo) activeFor(clientID, except primitive.ObjectID) bool {
	for id, s := range r.subs {
		if id != except && s.ClientID == clientID && s.IsActive {
			return true
		}
	}
	return false
}

func (r *stubSubscriptionRepo) Create(_ context.Context, sub *domain.Subscription) (primitive.ObjectID, error) {
	if sub.IsActive && r.activeFor(sub.ClientID, primitive.NilObjectID) {
		return primitive.NilObjectID, repository.ErrDuplicate
	}
	sub.ID = primitive.NewObjectID()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	cp := *sub
	r.subs[sub.ID] = &cp
	return sub.ID, nil
}

func (r *stubSubscriptionRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Subscription, error) {
	s, ok := r.subs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *stubSubscriptionRepo) FindActiveByClient(_ context.Context, clientID primitive.ObjectID) (*domain.Subscription, error) {
	for _, s := range r.subs {
		if s.ClientID == clientID && s.IsActive {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubSubscriptionRepo) List(_ context.Context, f repository.SubscriptionFilter) ([]domain.Subscription, error) {
	in := func(id primitive.ObjectID, ids []primitive.ObjectID) bool {
		for _, x := range ids {
			if x == id {
				return true
			}
		}
		return false
	}
	var out []domain.Subscription
	for _, s := range r.subs {
		if len(f.IDs) > 0 && !in(s.ID, f.IDs) {
			continue
		}
		if len(f.ClientIDs) > 0 && !in(s.ClientID, f.ClientIDs) {
			continue
		}
		if f.TrainerID != nil && (s.TrainerID == nil || *s.TrainerID != *f.TrainerID) {
			continue
		}
		if f.IsActive != nil && s.IsActive != *f.IsActive {
			continue
		}
		if f.CreatedFrom != nil && s.CreatedAt.Before(*f.CreatedFrom) {
			continue
		}
		if f.CreatedBefore != nil && !s.CreatedAt.Before(*f.CreatedBefore) {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (r *stubSubscriptionRepo) Update(_ context.Context, sub *domain.Subscription) error {
	stored, ok := r.subs[sub.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if sub.IsActive && r.activeFor(sub.ClientID, sub.ID) {
		return repository.ErrDuplicate
	}
	endDate := stored.EndDate
	if endDate == nil {
		endDate = sub.EndDate
	}
	cp := *sub
	cp.EndDate = endDate
	cp.SessionsUsed = stored.SessionsUsed
	r.subs[sub.ID] = &cp
	return nil
}

func (r *stubSubscriptionRepo) SetUsage(_ context.Context, id primitive.ObjectID, used int, active bool) error {
	s, ok := r.subs[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.SessionsUsed = used
	s.IsActive = active
	return nil
}

func (r *stubSubscriptionRepo) DeactivateEndedBefore(_ context.Context, day time.Time) (int64, error) {
	var n int64
	for _, s := range r.subs {
		if s.IsActive && s.EndDate != nil && s.EndDate.Before(day) {
			s.IsActive = false
			n++
		}
	}
	return n, nil
}

func (r *stubSubscriptionRepo) DeleteByClient(_ context.Context, clientID primitive.ObjectID) ([]primitive.ObjectID, error) {
	var ids []primitive.ObjectID
	for id, s := range r.subs {
		if s.ClientID == clientID {
			ids = append(ids, id)
			delete(r.subs, id)
		}
	}
	return ids, nil
}

// --- training plans ---

type stubTrainingPlanRepo struct {
	plans map[primitive.ObjectID]*domain.TrainingPlan
}

func newStubTrainingPlanRepo(plans ...domain.TrainingPlan) *stubTrainingPlanRepo {
	r := &stubTrainingPlanRepo{plans: make(map[primitive.ObjectID]*domain.TrainingPlan)}
	for i := range plans {
		p := plans[i]
		r.plans[p.ID] = &p
	}
	return r
}

func (r *stubTrainingPlanRepo) Create(_ context.Context, plan *domain.TrainingPlan) (primitive.ObjectID, error) {
	for _, p := range r.plans {
		if p.SubscriptionID == plan.SubscriptionID {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	plan.ID = primitive.NewObjectID()
	cp := *plan
	r.plans[plan.ID] = &cp
	return plan.ID, nil
}

func (r *stubTrainingPlanRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.TrainingPlan, error) {
	p, ok := r.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	cp.Splits = append([]domain.Split(nil), p.Splits...)
	return &cp, nil
}

func (r *stubTrainingPlanRepo) GetBySubscription(ctx context.Context, subscriptionID primitive.ObjectID) (*domain.TrainingPlan, error) {
	for id, p := range r.plans {
		if p.SubscriptionID == subscriptionID {
			return r.GetByID(ctx, id)
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubTrainingPlanRepo) UpdateSplitExercises(_ context.Context, id primitive.ObjectID, order int, exercises []domain.Exercise) error {
	p, ok := r.plans[id]
	if !ok {
		return repository.ErrNotFound
	}
	for i := range p.Splits {
		if p.Splits[i].Order == order {
			p.Splits[i].Exercises = exercises
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *stubTrainingPlanRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.plans[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.plans, id)
	return nil
}

func (r *stubTrainingPlanRepo) DeleteBySubscriptions(_ context.Context, ids []primitive.ObjectID) error {
	for id, p := range r.plans {
		for _, subID := range ids {
			if p.SubscriptionID == subID {
				delete(r.plans, id)
			}
		}
	}
	return nil
}

// --- training sessions ---

type stubSessionRepo struct {
	sessions []*domain.TrainingSession
	// beforeClaim runs inside ClaimCompletion, letting tests simulate a concurrent completer.
	beforeClaim func(s *domain.TrainingSession)
	failCreate  error
}

func (r *stubSessionRepo) Create(_ context.Context, session *domain.TrainingSession) (primitive.ObjectID, error) {
	if r.failCreate != nil {
		return primitive.NilObjectID, r.failCreate
	}
	for _, s := range r.sessions {
		if s.SubscriptionID == session.SubscriptionID && s.SessionNumber == session.SessionNumber {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	session.ID = primitive.NewObjectID()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	cp := *session
	r.sessions = append(r.sessions, &cp)
	return session.ID, nil
}

func (r *stubSessionRepo) find(id primitive.ObjectID) *domain.TrainingSession {
	for _, s := range r.sessions {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func (r *stubSessionRepo) GetByNumber(_ context.Context, subID primitive.ObjectID, number int) (*domain.TrainingSession, error) {
	for _, s := range r.sessions {
		if s.SubscriptionID == subID && s.SessionNumber == number {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubSessionRepo) ReplaceContent(_ context.Context, id primitive.ObjectID, name string, exercises []domain.Exercise) error {
	s := r.find(id)
	if s == nil {
		return repository.ErrNotFound
	}
	s.Name = name
	s.Exercises = exercises
	return nil
}

func (r *stubSessionRepo) ClaimCompletion(_ context.Context, id, trainerID primitive.ObjectID, at time.Time) error {
	s := r.find(id)
	if s == nil {
		return repository.ErrNotFound
	}
	if r.beforeClaim != nil {
		r.beforeClaim(s)
	}
	if s.IsCompleted {
		return repository.ErrConflict
	}
	s.IsCompleted = true
	s.CompletedBy = &trainerID
	s.DateCompleted = &at
	return nil
}

func (r *stubSessionRepo) ListBySubscription(_ context.Context, subID primitive.ObjectID, completed *bool) ([]domain.TrainingSession, error) {
	var out []domain.TrainingSession
	for _, s := range r.sessions {
		if s.SubscriptionID != subID {
			continue
		}
		if completed != nil && s.IsCompleted != *completed {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (r *stubSessionRepo) ListCompletedNewestFirst(_ context.Context, subID primitive.ObjectID) ([]domain.TrainingSession, error) {
	var out []domain.TrainingSession
	for _, s := range r.sessions {
		if s.SubscriptionID == subID && s.IsCompleted {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].DateCompleted, out[j].DateCompleted
		if di != nil && dj != nil && !di.Equal(*dj) {
			return di.After(*dj)
		}
		return out[i].SessionNumber > out[j].SessionNumber
	})
	return out, nil
}

func (r *stubSessionRepo) CountCompleted(_ context.Context, subID primitive.ObjectID) (int64, error) {
	var n int64
	for _, s := range r.sessions {
		if s.SubscriptionID == subID && s.IsCompleted {
			n++
		}
	}
	return n, nil
}

func (r *stubSessionRepo) ListCompletedBetween(_ context.Context, from, to time.Time) ([]domain.TrainingSession, error) {
	var out []domain.TrainingSession
	for _, s := range r.sessions {
		if s.IsCompleted && s.DateCompleted != nil && !s.DateCompleted.Before(from) && s.DateCompleted.Before(to) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *stubSessionRepo) DeleteBySubscriptions(_ context.Context, ids []primitive.ObjectID) error {
	kept := r.sessions[:0]
	for _, s := range r.sessions {
		drop := false
		for _, id := range ids {
			if s.SubscriptionID == id {
				drop = true
			}
		}
		if !drop {
			kept = append(kept, s)
		}
	}
	r.sessions = kept
	return nil
}

// --- session logs ---

type stubLogRepo struct {
	logs []domain.SessionLog
}

func (r *stubLogRepo) Create(_ context.Context, l *domain.SessionLog) (primitive.ObjectID, error) {
	for _, x := range r.logs {
		if x.SubscriptionID == l.SubscriptionID && x.SessionNumber == l.SessionNumber {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	l.ID = primitive.NewObjectID()
	r.logs = append(r.logs, *l)
	return l.ID, nil
}

func (r *stubLogRepo) CountBySubscription(_ context.Context, subID primitive.ObjectID) (int64, error) {
	var n int64
	for _, l := range r.logs {
		if l.SubscriptionID == subID {
			n++
		}
	}
	return n, nil
}

func (r *stubLogRepo) CountBetween(_ context.Context, from, to time.Time) (int64, error) {
	var n int64
	for _, l := range r.logs {
		if !l.DateCompleted.Before(from) && l.DateCompleted.Before(to) {
			n++
		}
	}
	return n, nil
}

func (r *stubLogRepo) DeleteBySubscriptions(_ context.Context, ids []primitive.ObjectID) error {
	kept := r.logs[:0]
	for _, l := range r.logs {
		drop := false
		for _, id := range ids {
			if l.SubscriptionID == id {
				drop = true
			}
		}
		if !drop {
			kept = append(kept, l)
		}
	}
	r.logs = kept
	return nil
}

// --- group sessions ---

type stubGroupRepo struct {
	logs []domain.GroupSessionLog
}

func (r *stubGroupRepo) Create(_ context.Context, l *domain.GroupSessionLog) (primitive.ObjectID, error) {
	l.ID = primitive.NewObjectID()
	cp := *l
	cp.Participants = append([]domain.GroupParticipant(nil), l.Participants...)
	r.logs = append(r.logs, cp)
	return l.ID, nil
}

func (r *stubGroupRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.GroupSessionLog, error) {
	for i := range r.logs {
		if r.logs[i].ID == id {
			cp := r.logs[i]
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubGroupRepo) List(_ context.Context, skip, limit int64) ([]domain.GroupSessionLog, int64, error) {
	total := int64(len(r.logs))
	if skip >= total {
		return []domain.GroupSessionLog{}, total, nil
	}
	end := skip + limit
	if end > total {
		end = total
	}
	return append([]domain.GroupSessionLog(nil), r.logs[skip:end]...), total, nil
}

func (r *stubGroupRepo) ListBetween(_ context.Context, from, to time.Time) ([]domain.GroupSessionLog, error) {
	var out []domain.GroupSessionLog
	for _, l := range r.logs {
		if !l.Date.Before(from) && l.Date.Before(to) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *stubGroupRepo) ListByClient(_ context.Context, clientID primitive.ObjectID) ([]domain.GroupSessionLog, error) {
	var out []domain.GroupSessionLog
	for _, l := range r.logs {
		for _, p := range l.Participants {
			if p.ClientID == clientID {
				out = append(out, l)
				break
			}
		}
	}
	return out, nil
}

func (r *stubGroupRepo) CountDeducted(_ context.Context, subID primitive.ObjectID) (int64, error) {
	var n int64
	for _, l := range r.logs {
		for _, p := range l.Participants {
			if p.Deducted && p.SubscriptionID != nil && *p.SubscriptionID == subID {
				n++
			}
		}
	}
	return n, nil
}

// --- transfers ---

type stubTransferRepo struct {
	reqs map[primitive.ObjectID]*domain.TransferRequest
}

func newStubTransferRepo() *stubTransferRepo {
	return &stubTransferRepo{reqs: make(map[primitive.ObjectID]*domain.TransferRequest)}
}

func (r *stubTransferRepo) Create(_ context.Context, req *domain.TransferRequest) (primitive.ObjectID, error) {
	req.ID = primitive.NewObjectID()
	cp := *req
	r.reqs[req.ID] = &cp
	return req.ID, nil
}

func (r *stubTransferRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.TransferRequest, error) {
	req, ok := r.reqs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (r *stubTransferRepo) List(_ context.Context, f repository.TransferFilter) ([]domain.TransferRequest, error) {
	var out []domain.TransferRequest
	for _, req := range r.reqs {
		if f.TrainerID != nil && req.FromTrainerID != *f.TrainerID && req.ToTrainerID != *f.TrainerID {
			continue
		}
		if f.Status != nil && req.Status != *f.Status {
			continue
		}
		out = append(out, *req)
	}
	return out, nil
}

func (r *stubTransferRepo) ListAcceptedTo(_ context.Context, trainerID primitive.ObjectID) ([]domain.TransferRequest, error) {
	var out []domain.TransferRequest
	for _, req := range r.reqs {
		if req.ToTrainerID == trainerID && req.Status == domain.TransferAccepted {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (r *stubTransferRepo) Transition(_ context.Context, id primitive.ObjectID, from, to domain.TransferStatus, at time.Time) error {
	req, ok := r.reqs[id]
	if !ok || req.Status != from {
		return repository.ErrConflict
	}
	req.Status = to
	req.UpdatedAt = at
	return nil
}

// --- coach schedules and templates ---

type stubScheduleRepo struct {
	entries []domain.CoachSchedule
}

func (r *stubScheduleRepo) Create(_ context.Context, e *domain.CoachSchedule) (primitive.ObjectID, error) {
	for _, x := range r.entries {
		if x.CoachID == e.CoachID && x.ClientID == e.ClientID && x.DayOfWeek == e.DayOfWeek && x.Time == e.Time {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	e.ID = primitive.NewObjectID()
	r.entries = append(r.entries, *e)
	return e.ID, nil
}

func (r *stubScheduleRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	for i, x := range r.entries {
		if x.ID == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *stubScheduleRepo) List(_ context.Context, coachID *primitive.ObjectID) ([]domain.CoachSchedule, error) {
	var out []domain.CoachSchedule
	for _, x := range r.entries {
		if coachID == nil || x.CoachID == *coachID {
			out = append(out, x)
		}
	}
	return out, nil
}

type stubTemplateRepo struct {
	templates []domain.GroupTemplate
}

func (r *stubTemplateRepo) Create(_ context.Context, t *domain.GroupTemplate) (primitive.ObjectID, error) {
	t.ID = primitive.NewObjectID()
	r.templates = append(r.templates, *t)
	return t.ID, nil
}

func (r *stubTemplateRepo) List(_ context.Context) ([]domain.GroupTemplate, error) {
	return r.templates, nil
}

func (r *stubTemplateRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	for i, t := range r.templates {
		if t.ID == id {
			r.templates = append(r.templates[:i], r.templates[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// --- uploads and storage ---

type stubUploadRepo struct {
	uploads []domain.Upload
}

func (r *stubUploadRepo) Create(_ context.Context, u *domain.Upload) (primitive.ObjectID, error) {
	u.ID = primitive.NewObjectID()
	r.uploads = append(r.uploads, *u)
	return u.ID, nil
}

func (r *stubUploadRepo) ListByClient(_ context.Context, clientID primitive.ObjectID) ([]domain.Upload, error) {
	var out []domain.Upload
	for _, u := range r.uploads {
		if u.ClientID == clientID {
			out = append(out, u)
		}
	}
	return out, nil
}

type stubStorage struct {
	deleted []string
}

func (s *stubStorage) GeneratePresignedUploadURL(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://storage.test/put/" + key, nil
}

func (s *stubStorage) GeneratePresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://storage.test/get/" + key, nil
}

func (s *stubStorage) DeleteObject(_ context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return nil
}

// --- fixtures ---

type fixture struct {
	tx        *stubTx
	users     *stubUserRepo
	clients   *stubClientRepo
	plans     *stubPlanRepo
	subs      *stubSubscriptionRepo
	tplans    *stubTrainingPlanRepo
	sessions  *stubSessionRepo
	logs      *stubLogRepo
	groups    *stubGroupRepo
	transfers *stubTransferRepo
	publisher *recordingPublisher
}

func newFixture() *fixture {
	return &fixture{
		tx:        &stubTx{},
		users:     newStubUserRepo(),
		clients:   newStubClientRepo(),
		plans:     newStubPlanRepo(),
		subs:      newStubSubscriptionRepo(),
		tplans:    newStubTrainingPlanRepo(),
		sessions:  &stubSessionRepo{},
		logs:      &stubLogRepo{},
		groups:    &stubGroupRepo{},
		transfers: newStubTransferRepo(),
		publisher: &recordingPublisher{},
	}
}

func (f *fixture) addTrainer(name string) domain.User {
	u := domain.User{ID: primitive.NewObjectID(), Name: name, Email: name + "@gym.test", Role: domain.RoleTrainer, IsActive: true}
	f.users.users[u.ID] = &u
	return u
}

func (f *fixture) addClient(name string) domain.Client {
	c := domain.Client{ID: primitive.NewObjectID(), Name: name, ManualID: name, Status: domain.ClientStatusActive}
	f.clients.clients[c.ID] = &c
	return c
}

func (f *fixture) addPlan(units int, price string) domain.Plan {
	p := domain.Plan{ID: primitive.NewObjectID(), Name: "Plan", Units: units, DurationDays: 30}
	p.Price, _ = primitive.ParseDecimal128(price)
	f.plans.plans[p.ID] = &p
	return p
}

func (f *fixture) addSubscription(clientID primitive.ObjectID, plan *domain.Plan, trainerID *primitive.ObjectID, active bool) domain.Subscription {
	s := domain.Subscription{
		ID:        primitive.NewObjectID(),
		ClientID:  clientID,
		TrainerID: trainerID,
		StartDate: domain.DateOnly(time.Now()),
		IsActive:  active,
		CreatedAt: time.Now().UTC(),
	}
	if plan != nil {
		id := plan.ID
		s.PlanID = &id
		s.EnsureEndDate(plan)
	}
	f.subs.subs[s.ID] = &s
	return s
}

func (f *fixture) sessionService() *sessionService {
	return NewSessionService(f.tx, f.subs, f.plans, f.sessions, f.logs, f.groups, f.tplans, f.users, f.publisher, "TFG Trainer", time.UTC).(*sessionService)
}

func (f *fixture) subscriptionService() *subscriptionService {
	return NewSubscriptionService(f.subs, f.plans, f.clients, f.users, f.transfers, time.UTC).(*subscriptionService)
}

func (f *fixture) transferService() *transferService {
	return NewTransferService(f.transfers, f.subs, f.plans, f.users, f.clients, f.publisher).(*transferService)
}

func (f *fixture) groupService() *groupService {
	return NewGroupService(f.tx, f.groups, &stubScheduleRepo{}, &stubTemplateRepo{}, f.clients, f.users, f.subs, f.plans, f.sessions, f.logs, f.publisher, time.UTC).(*groupService)
}

func trainerActor(u domain.User) Actor {
	return Actor{ID: u.ID, Role: domain.RoleTrainer}
}

func idPtr(id primitive.ObjectID) *primitive.ObjectID { return &id }
