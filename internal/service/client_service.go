package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/repository"
	"alcyxob/gym-manager/internal/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrUploadURLError   = errors.New("failed to generate upload URL")
	ErrDownloadURLError = errors.New("failed to generate download URL")
)

// UploadURLResponse structure for returning URL and object key
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"` // reported back on confirm
}

// ClientInput carries client fields for create and update.
type ClientInput struct {
	Name        string
	ManualID    string
	Phone       string
	IsChild     bool
	ParentPhone string
	BirthDate   *time.Time
	Status      domain.ClientStatus
	Notes       string
}

// ClientView is a client with derived fields.
type ClientView struct {
	Client       domain.Client
	IsSubscribed bool
	PhotoURL     string
}

// ClientListResult is one page of clients.
type ClientListResult struct {
	Clients []ClientView
	Total   int64
}

type ClientService interface {
	Create(ctx context.Context, in ClientInput) (*ClientView, error)
	Get(ctx context.Context, id primitive.ObjectID) (*ClientView, error)
	List(ctx context.Context, filter repository.ClientFilter) (*ClientListResult, error)
	Update(ctx context.Context, actor Actor, id primitive.ObjectID, in ClientInput) (*ClientView, error)
	// Delete removes the client with its subscriptions, sessions, logs and plans.
	Delete(ctx context.Context, id primitive.ObjectID) error

	RequestPhotoUpload(ctx context.Context, clientID primitive.ObjectID, contentType string) (*UploadURLResponse, error)
	ConfirmPhotoUpload(ctx context.Context, actor Actor, clientID primitive.ObjectID, objectKey, fileName string, fileSize int64, contentType string) (*ClientView, error)
}

// clientService implements the ClientService interface.
type clientService struct {
	tx               repository.Transactor
	clientRepo       repository.ClientRepository
	subRepo          repository.SubscriptionRepository
	sessionRepo      repository.TrainingSessionRepository
	logRepo          repository.SessionLogRepository
	trainingPlanRepo repository.TrainingPlanRepository
	uploadRepo       repository.UploadRepository
	fileStorage      storage.FileStorage
}

// NewClientService creates a new client service.
func NewClientService(
	tx repository.Transactor,
	clientRepo repository.ClientRepository,
	subRepo repository.SubscriptionRepository,
	sessionRepo repository.TrainingSessionRepository,
	logRepo repository.SessionLogRepository,
	trainingPlanRepo repository.TrainingPlanRepository,
	uploadRepo repository.UploadRepository,
	fileStorage storage.FileStorage,
) ClientService {
	return &clientService{
		tx:               tx,
		clientRepo:       clientRepo,
		subRepo:          subRepo,
		sessionRepo:      sessionRepo,
		logRepo:          logRepo,
		trainingPlanRepo: trainingPlanRepo,
		uploadRepo:       uploadRepo,
		fileStorage:      fileStorage,
	}
}

func (s *clientService) Create(ctx context.Context, in ClientInput) (*ClientView, error) {
	client := &domain.Client{}
	if err := applyClientInput(client, in); err != nil {
		return nil, err
	}
	if _, err := s.clientRepo.Create(ctx, client); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newValidationError("manual_id", "A client with this ID already exists.")
		}
		return nil, err
	}
	return s.view(ctx, client)
}

func (s *clientService) Get(ctx context.Context, id primitive.ObjectID) (*ClientView, error) {
	client, err := s.getClient(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, client)
}

func (s *clientService) List(ctx context.Context, filter repository.ClientFilter) (*ClientListResult, error) {
	clients, total, err := s.clientRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(clients))
	for _, c := range clients {
		ids = append(ids, c.ID)
	}
	subscribed := make(map[primitive.ObjectID]bool)
	if len(ids) > 0 {
		active, err := s.subRepo.List(ctx, repository.SubscriptionFilter{ClientIDs: ids, IsActive: boolPtr(true)})
		if err != nil {
			return nil, err
		}
		for _, sub := range active {
			subscribed[sub.ClientID] = true
		}
	}

	result := &ClientListResult{Clients: make([]ClientView, 0, len(clients)), Total: total}
	for _, c := range clients {
		result.Clients = append(result.Clients, ClientView{Client: c, IsSubscribed: subscribed[c.ID]})
	}
	return result, nil
}

func (s *clientService) Update(ctx context.Context, actor Actor, id primitive.ObjectID, in ClientInput) (*ClientView, error) {
	client, err := s.getClient(ctx, id)
	if err != nil {
		return nil, err
	}

	// Identity fields are admin-only once the client exists.
	if !actor.IsAdmin() {
		if strings.TrimSpace(in.Name) != client.Name {
			return nil, newValidationError("name", "Only an admin can change the client name.")
		}
		if strings.TrimSpace(in.ManualID) != client.ManualID {
			return nil, newValidationError("manual_id", "Only an admin can change the client ID.")
		}
	}

	if err := applyClientInput(client, in); err != nil {
		return nil, err
	}
	if err := s.clientRepo.Update(ctx, client); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newValidationError("manual_id", "A client with this ID already exists.")
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return s.view(ctx, client)
}

func (s *clientService) Delete(ctx context.Context, id primitive.ObjectID) error {
	client, err := s.getClient(ctx, id)
	if err != nil {
		return err
	}

	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		subIDs, err := s.subRepo.DeleteByClient(txCtx, id)
		if err != nil {
			return err
		}
		if err := s.sessionRepo.DeleteBySubscriptions(txCtx, subIDs); err != nil {
			return err
		}
		if err := s.logRepo.DeleteBySubscriptions(txCtx, subIDs); err != nil {
			return err
		}
		if err := s.trainingPlanRepo.DeleteBySubscriptions(txCtx, subIDs); err != nil {
			return err
		}
		return s.clientRepo.Delete(txCtx, id)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrClientNotFound
		}
		return err
	}

	if client.PhotoKey != "" {
		if err := s.fileStorage.DeleteObject(ctx, client.PhotoKey); err != nil {
			log.Printf("WARN: Failed to delete photo of removed client %s: %v", id.Hex(), err)
		}
	}
	return nil
}

// RequestPhotoUpload returns a presigned PUT URL for a new client photo.
func (s *clientService) RequestPhotoUpload(ctx context.Context, clientID primitive.ObjectID, contentType string) (*UploadURLResponse, error) {
	if !storage.IsImageContentType(contentType) {
		return nil, newValidationError("content_type", "Only image uploads are allowed.")
	}
	if _, err := s.getClient(ctx, clientID); err != nil {
		return nil, err
	}

	objectKey := storage.NewClientPhotoKey(clientID.Hex(), contentType)
	url, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		log.Printf("ERROR: Failed to presign photo upload for client %s: %v", clientID.Hex(), err)
		return nil, ErrUploadURLError
	}
	return &UploadURLResponse{UploadURL: url, ObjectKey: objectKey}, nil
}

// ConfirmPhotoUpload records the uploaded object as the client's photo and
// removes the previous one.
func (s *clientService) ConfirmPhotoUpload(ctx context.Context, actor Actor, clientID primitive.ObjectID, objectKey, fileName string, fileSize int64, contentType string) (*ClientView, error) {
	client, err := s.getClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if !storage.KeyBelongsToClient(objectKey, clientID.Hex()) {
		return nil, newValidationError("object_key", "Object key was not issued for this client.")
	}

	upload := &domain.Upload{
		ClientID:    clientID,
		UploadedBy:  actor.ID,
		S3ObjectKey: objectKey,
		FileName:    fileName,
		ContentType: contentType,
		Size:        fileSize,
	}
	if _, err := s.uploadRepo.Create(ctx, upload); err != nil {
		return nil, err
	}
	if err := s.clientRepo.SetPhoto(ctx, clientID, objectKey); err != nil {
		return nil, err
	}

	if previous := client.PhotoKey; previous != "" && previous != objectKey {
		if err := s.fileStorage.DeleteObject(ctx, previous); err != nil {
			log.Printf("WARN: Failed to delete previous photo '%s': %v", previous, err)
		}
	}
	client.PhotoKey = objectKey
	return s.view(ctx, client)
}

func (s *clientService) getClient(ctx context.Context, id primitive.ObjectID) (*domain.Client, error) {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return client, nil
}

func (s *clientService) view(ctx context.Context, client *domain.Client) (*ClientView, error) {
	v := &ClientView{Client: *client}
	_, err := s.subRepo.FindActiveByClient(ctx, client.ID)
	switch {
	case err == nil:
		v.IsSubscribed = true
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}
	if client.PhotoKey != "" {
		url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, client.PhotoKey, storage.DefaultPresignedURLExpiry)
		if err != nil {
			log.Printf("ERROR: %v: %v", ErrDownloadURLError, err)
		} else {
			v.PhotoURL = url
		}
	}
	return v, nil
}

func applyClientInput(client *domain.Client, in ClientInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return newValidationError("name", "Name is required.")
	}
	manualID := strings.TrimSpace(in.ManualID)
	if manualID == "" {
		return newValidationError("manual_id", "Client ID is required.")
	}
	if in.IsChild && strings.TrimSpace(in.ParentPhone) == "" {
		return newValidationError("parent_phone", "A parent phone is required for children.")
	}
	status := in.Status
	if status == "" {
		status = domain.ClientStatusActive
	}
	if status != domain.ClientStatusActive && status != domain.ClientStatusInactive {
		return newValidationError("status", "Status must be active or inactive.")
	}

	client.Name = name
	client.ManualID = manualID
	client.Phone = strings.TrimSpace(in.Phone)
	client.IsChild = in.IsChild
	client.ParentPhone = strings.TrimSpace(in.ParentPhone)
	client.BirthDate = in.BirthDate
	client.Status = status
	client.Notes = in.Notes
	return nil
}
