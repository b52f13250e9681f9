package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (f *fixture) clientService(files *stubStorage, uploads *stubUploadRepo) ClientService {
	return NewClientService(f.tx, f.clients, f.subs, f.sessions, f.logs, f.tplans, uploads, files)
}

func TestClientCreateAndDuplicateManualID(t *testing.T) {
	f := newFixture()
	svc := f.clientService(&stubStorage{}, &stubUploadRepo{})
	ctx := context.Background()

	view, err := svc.Create(ctx, ClientInput{Name: " Ann ", ManualID: "A-1", Phone: "123"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if view.Client.Name != "Ann" || view.Client.Status != domain.ClientStatusActive || view.IsSubscribed {
		t.Errorf("created = %+v", view)
	}

	_, err = svc.Create(ctx, ClientInput{Name: "Other", ManualID: "A-1"})
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "manual_id" {
		t.Errorf("duplicate: err = %v, want ValidationError on manual_id", err)
	}
	_, err = svc.Create(ctx, ClientInput{Name: "Kid", ManualID: "K-1", IsChild: true})
	if !errors.As(err, &vErr) || vErr.Field != "parent_phone" {
		t.Errorf("child without parent phone: err = %v", err)
	}
}

func TestClientUpdateProtectsIdentity(t *testing.T) {
	f := newFixture()
	c := f.addClient("Ann")
	svc := f.clientService(&stubStorage{}, &stubUploadRepo{})
	ctx := context.Background()
	desk := Actor{ID: primitive.NewObjectID(), Role: domain.RoleFrontDesk}

	tests := []struct {
		name  string
		actor Actor
		in    ClientInput
		field string
	}{
		{name: "rename by desk", actor: desk, in: ClientInput{Name: "Anna", ManualID: c.ManualID}, field: "name"},
		{name: "new id by desk", actor: desk, in: ClientInput{Name: c.Name, ManualID: "X-9"}, field: "manual_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Update(ctx, tt.actor, c.ID, tt.in)
			var vErr *ValidationError
			if !errors.As(err, &vErr) || vErr.Field != tt.field {
				t.Fatalf("err = %v, want ValidationError on %s", err, tt.field)
			}
		})
	}

	view, err := svc.Update(ctx, desk, c.ID, ClientInput{Name: c.Name, ManualID: c.ManualID, Phone: "555"})
	if err != nil || view.Client.Phone != "555" {
		t.Fatalf("desk phone update = %+v, %v", view, err)
	}
	view, err = svc.Update(ctx, adminActor, c.ID, ClientInput{Name: "Anna", ManualID: "X-9"})
	if err != nil || view.Client.Name != "Anna" {
		t.Fatalf("admin rename = %+v, %v", view, err)
	}
}

func TestClientDeleteCascades(t *testing.T) {
	f := newFixture()
	c := f.addClient("Ann")
	other := f.addClient("Ben")
	sub := f.addSubscription(c.ID, nil, nil, true)
	keep := f.addSubscription(other.ID, nil, nil, true)
	f.sessions.sessions = append(f.sessions.sessions,
		&domain.TrainingSession{ID: primitive.NewObjectID(), SubscriptionID: sub.ID, SessionNumber: 1},
		&domain.TrainingSession{ID: primitive.NewObjectID(), SubscriptionID: keep.ID, SessionNumber: 1},
	)
	f.logs.logs = append(f.logs.logs, domain.SessionLog{ID: primitive.NewObjectID(), SubscriptionID: sub.ID, SessionNumber: 1})
	tp := domain.TrainingPlan{ID: primitive.NewObjectID(), SubscriptionID: sub.ID, CycleLength: 1}
	f.tplans.plans[tp.ID] = &tp
	f.clients.clients[c.ID].PhotoKey = "clients/" + c.ID.Hex() + "/photos/p.jpg"
	files := &stubStorage{}

	if err := f.clientService(files, &stubUploadRepo{}).Delete(context.Background(), c.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := f.clients.clients[c.ID]; ok {
		t.Error("client not deleted")
	}
	if _, ok := f.subs.subs[sub.ID]; ok {
		t.Error("subscription not deleted")
	}
	if _, ok := f.subs.subs[keep.ID]; !ok {
		t.Error("other client's subscription deleted")
	}
	if len(f.sessions.sessions) != 1 || len(f.logs.logs) != 0 || len(f.tplans.plans) != 0 {
		t.Errorf("left sessions=%d logs=%d plans=%d", len(f.sessions.sessions), len(f.logs.logs), len(f.tplans.plans))
	}
	if len(files.deleted) != 1 {
		t.Errorf("photo objects deleted = %v", files.deleted)
	}
	if f.tx.calls != 1 {
		t.Errorf("tx calls = %d, want 1", f.tx.calls)
	}
}

func TestClientPhotoUpload(t *testing.T) {
	f := newFixture()
	c := f.addClient("Ann")
	f.clients.clients[c.ID].PhotoKey = "clients/" + c.ID.Hex() + "/photos/old.jpg"
	files := &stubStorage{}
	uploads := &stubUploadRepo{}
	svc := f.clientService(files, uploads)
	ctx := context.Background()

	var vErr *ValidationError
	if _, err := svc.RequestPhotoUpload(ctx, c.ID, "application/pdf"); !errors.As(err, &vErr) {
		t.Fatalf("pdf upload: err = %v, want ValidationError", err)
	}

	resp, err := svc.RequestPhotoUpload(ctx, c.ID, "image/png")
	if err != nil {
		t.Fatalf("RequestPhotoUpload() error = %v", err)
	}
	if !strings.HasPrefix(resp.ObjectKey, "clients/"+c.ID.Hex()+"/photos/") || !strings.HasSuffix(resp.ObjectKey, ".png") {
		t.Errorf("object key = %q", resp.ObjectKey)
	}

	if _, err := svc.ConfirmPhotoUpload(ctx, adminActor, c.ID, "clients/other/photos/x.png", "x.png", 10, "image/png"); !errors.As(err, &vErr) {
		t.Errorf("foreign key: err = %v, want ValidationError", err)
	}

	view, err := svc.ConfirmPhotoUpload(ctx, adminActor, c.ID, resp.ObjectKey, "me.png", 2048, "image/png")
	if err != nil {
		t.Fatalf("ConfirmPhotoUpload() error = %v", err)
	}
	if view.PhotoURL != "https://storage.test/get/"+resp.ObjectKey {
		t.Errorf("photo url = %q", view.PhotoURL)
	}
	if f.clients.clients[c.ID].PhotoKey != resp.ObjectKey {
		t.Error("photo key not stored")
	}
	if len(uploads.uploads) != 1 || uploads.uploads[0].UploadedBy != adminActor.ID {
		t.Errorf("uploads = %+v", uploads.uploads)
	}
	if len(files.deleted) != 1 || !strings.HasSuffix(files.deleted[0], "old.jpg") {
		t.Errorf("deleted = %v, want the previous photo", files.deleted)
	}
}

func TestClientListMarksSubscribed(t *testing.T) {
	f := newFixture()
	a := f.addClient("Ann")
	f.addClient("Ben")
	f.addSubscription(a.ID, nil, nil, true)

	res, err := f.clientService(&stubStorage{}, &stubUploadRepo{}).List(context.Background(), repository.ClientFilter{Limit: 20})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Total != 2 {
		t.Fatalf("total = %d, want 2", res.Total)
	}
	for _, v := range res.Clients {
		if v.IsSubscribed != (v.Client.ID == a.ID) {
			t.Errorf("%s subscribed = %v", v.Client.Name, v.IsSubscribed)
		}
	}
}
