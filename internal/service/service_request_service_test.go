package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Algorithm-Archetict/raqmiya-backend/internal/models"
	"github.com/Algorithm-Archetict/raqmiya-backend/internal/pkg/apperror"
	"github.com/Algorithm-Archetict/raqmiya-backend/internal/repository"
)

type mockServiceRequestRepo struct {
	mock.Mock
}

func (m *mockServiceRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ServiceRequest), args.Error(1)
}

func (m *mockServiceRequestRepo) Create(ctx context.Context, sr *models.ServiceRequest) error {
	args := m.Called(ctx, sr)
	if args.Error(0) == nil {
		sr.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockServiceRequestRepo) ListByConversation(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]models.ServiceRequest, error) {
	args := m.Called(ctx, conversationID, limit, offset)
	return args.Get(0).([]models.ServiceRequest), args.Error(1)
}

func (m *mockServiceRequestRepo) AcceptIfPending(ctx context.Context, id uuid.UUID, deadline time.Time) (bool, error) {
	args := m.Called(ctx, id, deadline)
	return args.Bool(0), args.Error(1)
}

func (m *mockServiceRequestRepo) ConfirmIfAccepted(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockServiceRequestRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockServiceRequestRepo) CreateDeadlineChange(ctx context.Context, dc *models.DeadlineChange) error {
	args := m.Called(ctx, dc)
	if args.Error(0) == nil {
		dc.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockServiceRequestRepo) GetDeadlineChangeByID(ctx context.Context, id uuid.UUID) (*models.DeadlineChange, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DeadlineChange), args.Error(1)
}

func (m *mockServiceRequestRepo) GetPendingDeadlineChange(ctx context.Context, serviceRequestID uuid.UUID) (*models.DeadlineChange, error) {
	args := m.Called(ctx, serviceRequestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DeadlineChange), args.Error(1)
}

func (m *mockServiceRequestRepo) GetLatestDeadlineChange(ctx context.Context, serviceRequestID uuid.UUID) (*models.DeadlineChange, error) {
	args := m.Called(ctx, serviceRequestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DeadlineChange), args.Error(1)
}

func (m *mockServiceRequestRepo) ListDeadlineChanges(ctx context.Context, serviceRequestID uuid.UUID) ([]models.DeadlineChange, error) {
	args := m.Called(ctx, serviceRequestID)
	return args.Get(0).([]models.DeadlineChange), args.Error(1)
}

func (m *mockServiceRequestRepo) ResolveDeadlineChange(ctx context.Context, changeID uuid.UUID, accept bool) (bool, error) {
	args := m.Called(ctx, changeID, accept)
	return args.Bool(0), args.Error(1)
}

type mockConversationGetter struct {
	mock.Mock
}

func (m *mockConversationGetter) GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

type mockPurchasedChecker struct {
	mock.Mock
}

func (m *mockPurchasedChecker) ExistsPurchasedForServiceRequest(ctx context.Context, serviceRequestID uuid.UUID) (bool, error) {
	args := m.Called(ctx, serviceRequestID)
	return args.Bool(0), args.Error(1)
}

type srFixture struct {
	repo       *mockServiceRequestRepo
	convs      *mockConversationGetter
	deliveries *mockPurchasedChecker
	svc        *ServiceRequestService
	conv       *models.Conversation
	creatorID  uuid.UUID
	customerID uuid.UUID
}

func newSRFixture() *srFixture {
	repo := new(mockServiceRequestRepo)
	convs := new(mockConversationGetter)
	deliveries := new(mockPurchasedChecker)

	f := &srFixture{
		repo:       repo,
		convs:      convs,
		deliveries: deliveries,
		svc:        NewServiceRequestService(repo, convs, deliveries),
		creatorID:  uuid.New(),
		customerID: uuid.New(),
	}
	f.conv = &models.Conversation{
		ID:         uuid.New(),
		CreatorID:  f.creatorID,
		CustomerID: f.customerID,
		Status:     models.ConversationStatusActive,
	}
	return f
}

func (f *srFixture) request(status string) *models.ServiceRequest {
	return &models.ServiceRequest{
		ID:             uuid.New(),
		ConversationID: f.conv.ID,
		CustomerID:     f.customerID,
		Requirements:   "нужен уникальный дизайн обложки",
		Currency:       models.DefaultCurrency,
		Status:         status,
	}
}

func TestServiceRequestService_Create_Success(t *testing.T) {
	f := newSRFixture()
	ctx := context.Background()

	f.convs.On("GetByID", ctx, f.conv.ID).Return(f.conv, nil)
	f.repo.On("Create", ctx, mock.AnythingOfType("*models.ServiceRequest")).Return(nil)

	budget := 150.0
	sr, err := f.svc.CreateServiceRequest(ctx, CreateServiceRequestInput{
		CustomerID:     f.customerID,
		ConversationID: f.conv.ID,
		Requirements:   "нужен уникальный дизайн обложки",
		ProposedBudget: &budget,
		Currency:       "eur",
	})

	assert.NoError(t, err)
	assert.Equal(t, models.ServiceRequestStatusPending, sr.Status)
	assert.Equal(t, "EUR", sr.Currency)
}

func TestServiceRequestService_Create_DefaultCurrency(t *testing.T) {
	f := newSRFixture()
	ctx := context.Background()

	f.convs.On("GetByID", ctx, f.conv.ID).Return(f.conv, nil)
	f.repo.On("Create", ctx, mock.AnythingOfType("*models.ServiceRequest")).Return(nil)

	sr, err := f.svc.CreateServiceRequest(ctx, CreateServiceRequestInput{
		CustomerID:     f.customerID,
		ConversationID: f.conv.ID,
		Requirements:   "нужен уникальный дизайн обложки",
	})

	assert.NoError(t, err)
	assert.Equal(t, "USD", sr.Currency)
	assert.Nil(t, sr.ProposedBudget)
}

func TestServiceRequestService_Create_OnlyCustomer(t *testing.T) {
	f := newSRFixture()
	ctx := context.Background()

	f.convs.On("GetByID", ctx, f.conv.ID).Return(f.conv, nil)

	_, err := f.svc.CreateServiceRequest(ctx, CreateServiceRequestInput{
		CustomerID:     f.creatorID,
		ConversationID: f.conv.ID,
		Requirements:   "нужен уникальный дизайн обложки",
	})

	assert.True(t, apperror.IsForbidden(err))
}

func TestServiceRequestService_Create_PendingConversation(t *testing.T) {
	f := newSRFixture()
	ctx := context.Background()

	f.conv.Status = models.ConversationStatusPending
	f.convs.On("GetByID", ctx, f.conv.ID).Return(f.conv, nil)

	_, err := f.svc.CreateServiceRequest(ctx, CreateServiceRequestInput{
		CustomerID:     f.customerID,
		ConversationID: f.conv.ID,
		Requirements:   "нужен уникальный дизайн обложки",
	})

	assert.True(t, apperror.IsInvalidState(err))
}

func TestServiceRequestService_Accept_Success(t *testing.T) {
	f := newSRFixture()
	ctx := context.Background()
	sr := f.request(models.ServiceRequestStatusPending)
	deadline := time.Now().Add(72 * time.Hour)

	f.convs.On("GetByID", ctx, f.conv.ID).Return(f.conv, nil)
	f.repo.On("GetByID", ctx, sr.ID).Return(sr, nil)
	f.repo.On("AcceptIfPending", ctx, sr.ID, deadline).Return(true, nil)

	got, err := f.svc.AcceptServiceRequest(ctx, f.creatorID, f.conv.ID, sr.ID, deadline)

	assert.NoError(t, err)
	assert.Equal(t, models.ServiceRequestStatusAcceptedByCreator, got.Status)
	assert.Equal(t, deadline, *got.CreatorDeadlineAt)
}

func TestServiceRequestService_Accept_PastDeadlineAllowed(t *testing.T) {
	f := newSRFixture()
	ctx := context.Background()
	sr := f.request(models.ServiceRequestStatusPending)
	deadline := time.Now().Add(-24 * time.Hour)

	f.convs.On("GetByID", ctx, f.conv.ID).Return(f.conv, nil)
	f.repo.On("GetByID", ctx, sr.ID).Return(sr, nil)
	f.repo.On("AcceptIfPending", ctx, sr.ID, deadline).Return(true, nil)

	// Дедлайн принятия записывается как есть, даже из прошлого.
	_, err := f.svc.AcceptServiceRequest(ctx, f.creatorID, f.conv.ID, sr.ID, deadline)

	assert.NoError(t, err)
}

func TestServiceRequestService_Accept_LostRace(t *testing.T) {
	f := newSRFixture()
	ctx := context.Background()
	sr := f.request(models.ServiceRequestStatusPending)
	deadline := time.Now().Add(72 * time.Hour)

	f.convs.On("GetByID", ctx, f.conv.ID).Return(f.conv, nil)
	f.repo.On("GetByID", ctx, sr.ID).Return(sr, nil)
	// Статус успел измениться между чтением и UPDATE.
	f.repo.On("AcceptIfPending", ctx, sr.ID, deadline).Return(false, nil)

	_, err := f.svc.AcceptServiceRequest(ctx, f.creatorID, f.conv.ID, sr.ID, deadline)

	assert.True(t, apperror.IsInvalidState(err))
}

func TestServiceRequestService_Accept_WrongConversation(t *testing.T) {
	f := newSRFixture()
	ctx := context.Background()
	sr := f.request(models.ServiceRequestStatusPending)
	sr.ConversationID = uuid.New()

	f.convs.On("GetByID", ctx, f.conv.ID).Return(f.conv, nil)
	f.repo.On("GetByID", ctx, sr.ID).Return(sr, nil)

	// Заявка чужой переписки неотличима от несуществующей.
	_, err := f.svc.AcceptServiceRequest(ctx, f.creatorID, f.conv.ID, sr.ID, time.Now().Add(time.Hour))

	assert.True(t, apperror.IsNotFound(err))
}

func TestServiceRequestService_Confirm_Success(t *testing.T) {
	f := newSRFixture()
	ctx := context.Background()
	sr := f.request(models.ServiceRequestStatusAcceptedByCreator)

	f.convs.On("GetByID", ctx, f.conv.ID).Return(f.conv, nil)
	f.repo.On("GetByID", ctx, sr.ID).Return(sr, nil)
	f.repo.On("ConfirmIfAccepted", ctx, sr.ID).Return(true, nil)

	got, err := f.svc.ConfirmServiceRequest(ctx, f.customerID, f.conv.ID, sr.ID)

	assert.NoError(t, err)
	assert.Equal(t, models.ServiceRequestStatusConfirmedByCustomer, got.Status)
}

func TestServiceRequestService_Confirm_OnlyCustomer(t *testing.T) {
	f := newSRFixture()
	ctx := context.Background()
	sr := f.request(models.ServiceRequestStatusAcceptedByCreator)

	f.convs.On("GetByID", ctx, f.conv.ID).Return(f.conv, nil)
	f.repo.On("GetByID", ctx, sr.ID).Return(sr, nil)

	_, err := f.svc.ConfirmServiceRequest(ctx, f.creatorID, f.conv.ID, sr.ID)

	assert.True(t, apperror.IsForbidden(err))
}

func TestServiceRequestService_Confirm_NotAcceptedYet(t *testing.T) {
	f := newSRFixture()
	ctx := context.Background()
	sr := f.request(models.ServiceRequestStatusPending)

	f.convs.On("GetByID", ctx, f.conv.ID).Return(f.conv, nil)
	f.repo.On("GetByID", ctx, sr.ID).Return(sr, nil)
	f.repo.On("ConfirmIfAccepted", ctx, sr.ID).Return(false, nil)

	_, err := f.svc.ConfirmServiceRequest(ctx, f.customerID, f.conv.ID, sr.ID)

	assert.True(t, apperror.IsInvalidState(err))
}

func TestServiceRequestService_Decline_PendingByCreator(t *testing.T) {
	f := newSRFixture()
	ctx := context.Background()
	sr := f.request(models.ServiceRequestStatusPending)

	f.convs.On("GetByID", ctx, f.conv.ID).Return(f.conv, nil)
	f.repo.On("GetByID", ctx, sr.ID).Return(sr, nil)
	f.deliveries.On("ExistsPurchasedForServiceRequest", ctx, sr.ID).Return(false, nil)
	f.repo.On("Delete", ctx, sr.ID).Return(nil)

	err := f.svc.DeclineServiceRequest(ctx, f.creatorID, f.conv.ID, sr.ID)

	assert.NoError(t, err)
	f.repo.AssertCalled(t, "Delete", ctx, sr.ID)
}

func TestServiceRequestService_Decline_PendingByCustomerForbidden(t *testing.T) {
	f := newSRFixture()
	ctx := context.Background()
	sr := f.request(models.ServiceRequestStatusPending)

	f.convs.On("GetByID", ctx, f.conv.ID).Return(f.conv, nil)
	f.repo.On("GetByID", ctx, sr.ID).Return(sr, nil)

	err := f.svc.DeclineServiceRequest(ctx, f.customerID, f.conv.ID, sr.ID)

	assert.True(t, apperror.IsForbidden(err))
}

func TestServiceRequestService_Decline_AcceptedByCustomer(t *testing.T) {
	f := newSRFixture()
	ctx := context.Background()
	sr := f.request(models.ServiceRequestStatusAcceptedByCreator)

	f.convs.On("GetByID", ctx, f.conv.ID).Return(f.conv, nil)
	f.repo.On("GetByID", ctx, sr.ID).Return(sr, nil)
	f.deliveries.On("ExistsPurchasedForServiceRequest", ctx, sr.ID).Return(false, nil)
	f.repo.On("Delete", ctx, sr.ID).Return(nil)

	err := f.svc.DeclineServiceRequest(ctx, f.customerID, f.conv.ID, sr.ID)

	assert.NoError(t, err)
}

func TestServiceRequestService_Decline_AcceptedByCreatorForbidden(t *testing.T) {
	f := newSRFixture()
	ctx := context.Background()
	sr := f.request(models.ServiceRequestStatusAcceptedByCreator)

	f.convs.On("GetByID", ctx, f.conv.ID).Return(f.conv, nil)
	f.repo.On("GetByID", ctx, sr.ID).Return(sr, nil)

	err := f.svc.DeclineServiceRequest(ctx, f.creatorID, f.conv.ID, sr.ID)

	assert.True(t, apperror.IsForbidden(err))
}

func TestServiceRequestService_Decline_ConfirmedInvalidState(t *testing.T) {
	f := newSRFixture()
	ctx := context.Background()
	sr := f.request(models.ServiceRequestStatusConfirmedByCustomer)

	f.convs.On("GetByID", ctx, f.conv.ID).Return(f.conv, nil)
	f.repo.On("GetByID", ctx, sr.ID).Return(sr, nil)

	err := f.svc.DeclineServiceRequest(ctx, f.customerID, f.conv.ID, sr.ID)

	assert.True(t, apperror.IsInvalidState(err))
}

func TestServiceRequestService_Decline_BlockedByPurchasedDelivery(t *testing.T) {
	f := newSRFixture()
	ctx := context.Background()
	sr := f.request(models.ServiceRequestStatusAcceptedByCreator)

	f.convs.On("GetByID", ctx, f.conv.ID).Return(f.conv, nil)
	f.repo.On("GetByID", ctx, sr.ID).Return(sr, nil)
	f.deliveries.On("ExistsPurchasedForServiceRequest", ctx, sr.ID).Return(true, nil)

	err := f.svc.DeclineServiceRequest(ctx, f.customerID, f.conv.ID, sr.ID)

	assert.True(t, apperror.IsConflict(err))
	f.repo.AssertNotCalled(t, "Delete")
}

func TestServiceRequestService_ProposeDeadline_Success(t *testing.T) {
	f := newSRFixture()
	ctx := context.Background()
	sr := f.request(models.ServiceRequestStatusAcceptedByCreator)
	proposed := time.Now().Add(14 * 24 * time.Hour)

	f.convs.On("GetByID", ctx, f.conv.ID).Return(f.conv, nil)
	f.repo.On("GetByID", ctx, sr.ID).Return(sr, nil)
	f.repo.On("GetPendingDeadlineChange", ctx, sr.ID).Return(nil, nil)
	f.repo.On("CreateDeadlineChange", ctx, mock.AnythingOfType("*models.DeadlineChange")).Return(nil)

	reason := "затянулись правки"
	dc, err := f.svc.ProposeDeadlineChange(ctx, f.creatorID, f.conv.ID, sr.ID, proposed, &reason)

	assert.NoError(t, err)
	assert.Equal(t, models.DeadlineChangeStatusPending, dc.Status)
	assert.Equal(t, proposed, dc.ProposedDeadlineAt)
}

func TestServiceRequestService_ProposeDeadline_Idempotent(t *testing.T) {
	f := newSRFixture()
	ctx := context.Background()
	sr := f.request(models.ServiceRequestStatusConfirmedByCustomer)

	existing := &models.DeadlineChange{
		ID:                 uuid.New(),
		ServiceRequestID:   sr.ID,
		CreatorID:          f.creatorID,
		ProposedDeadlineAt: time.Now().Add(7 * 24 * time.Hour),
		Status:             models.DeadlineChangeStatusPending,
	}

	f.convs.On("GetByID", ctx, f.conv.ID).Return(f.conv, nil)
	f.repo.On("GetByID", ctx, sr.ID).Return(sr, nil)
	f.repo.On("GetPendingDeadlineChange", ctx, sr.ID).Return(existing, nil)

	// Повторное предложение возвращает существующее, не создавая дубликат.
	dc, err := f.svc.ProposeDeadlineChange(ctx, f.creatorID, f.conv.ID, sr.ID, time.Now().Add(30*24*time.Hour), nil)

	assert.NoError(t, err)
	assert.Equal(t, existing.ID, dc.ID)
	assert.Equal(t, existing.ProposedDeadlineAt, dc.ProposedDeadlineAt)
	f.repo.AssertNotCalled(t, "CreateDeadlineChange")
}

func TestServiceRequestService_ProposeDeadline_InsertRace(t *testing.T) {
	f := newSRFixture()
	ctx := context.Background()
	sr := f.request(models.ServiceRequestStatusAcceptedByCreator)

	winner := &models.DeadlineChange{
		ID:                 uuid.New(),
		ServiceRequestID:   sr.ID,
		CreatorID:          f.creatorID,
		ProposedDeadlineAt: time.Now().Add(7 * 24 * time.Hour),
		Status:             models.DeadlineChangeStatusPending,
	}

	f.convs.On("GetByID", ctx, f.conv.ID).Return(f.conv, nil)
	f.repo.On("GetByID", ctx, sr.ID).Return(sr, nil)
	// Параллельное предложение вставилось между проверкой и вставкой:
	// первое чтение пусто, вставка бьётся об уникальный индекс,
	// повторное чтение возвращает победителя гонки.
	f.repo.On("GetPendingDeadlineChange", ctx, sr.ID).Return(nil, nil).Once()
	f.repo.On("CreateDeadlineChange", ctx, mock.AnythingOfType("*models.DeadlineChange")).
		Return(repository.ErrPendingDeadlineChangeExists)
	f.repo.On("GetPendingDeadlineChange", ctx, sr.ID).Return(winner, nil).Once()

	dc, err := f.svc.ProposeDeadlineChange(ctx, f.creatorID, f.conv.ID, sr.ID, time.Now().Add(30*24*time.Hour), nil)

	assert.NoError(t, err)
	assert.Equal(t, winner.ID, dc.ID)
}

func TestServiceRequestService_ProposeDeadline_PastDeadline(t *testing.T) {
	f := newSRFixture()
	ctx := context.Background()
	sr := f.request(models.ServiceRequestStatusAcceptedByCreator)

	f.convs.On("GetByID", ctx, f.conv.ID).Return(f.conv, nil)
	f.repo.On("GetByID", ctx, sr.ID).Return(sr, nil)

	_, err := f.svc.ProposeDeadlineChange(ctx, f.creatorID, f.conv.ID, sr.ID, time.Now().Add(-time.Hour), nil)

	assert.True(t, apperror.IsValidation(err))
}

func TestServiceRequestService_ProposeDeadline_PendingRequest(t *testing.T) {
	f := newSRFixture()
	ctx := context.Background()
	sr := f.request(models.ServiceRequestStatusPending)

	f.convs.On("GetByID", ctx, f.conv.ID).Return(f.conv, nil)
	f.repo.On("GetByID", ctx, sr.ID).Return(sr, nil)

	_, err := f.svc.ProposeDeadlineChange(ctx, f.creatorID, f.conv.ID, sr.ID, time.Now().Add(time.Hour), nil)

	assert.True(t, apperror.IsInvalidState(err))
}

func TestServiceRequestService_ProposeDeadline_OnlyCreator(t *testing.T) {
	f := newSRFixture()
	ctx := context.Background()
	sr := f.request(models.ServiceRequestStatusAcceptedByCreator)

	f.convs.On("GetByID", ctx, f.conv.ID).Return(f.conv, nil)
	f.repo.On("GetByID", ctx, sr.ID).Return(sr, nil)

	_, err := f.svc.ProposeDeadlineChange(ctx, f.customerID, f.conv.ID, sr.ID, time.Now().Add(time.Hour), nil)

	assert.True(t, apperror.IsForbidden(err))
}

func TestServiceRequestService_RespondToDeadline_Accept(t *testing.T) {
	f := newSRFixture()
	ctx := context.Background()
	sr := f.request(models.ServiceRequestStatusConfirmedByCustomer)
	oldDeadline := time.Now().Add(7 * 24 * time.Hour)
	sr.CreatorDeadlineAt = &oldDeadline

	change := &models.DeadlineChange{
		ID:                 uuid.New(),
		ServiceRequestID:   sr.ID,
		CreatorID:          f.creatorID,
		ProposedDeadlineAt: time.Now().Add(14 * 24 * time.Hour),
		Status:             models.DeadlineChangeStatusPending,
	}

	f.convs.On("GetByID", ctx, f.conv.ID).Return(f.conv, nil)
	f.repo.On("GetByID", ctx, sr.ID).Return(sr, nil)
	f.repo.On("GetDeadlineChangeByID", ctx, change.ID).Return(change, nil)
	f.repo.On("ResolveDeadlineChange", ctx, change.ID, true).Return(true, nil)

	got, err := f.svc.RespondToDeadlineChange(ctx, f.customerID, f.conv.ID, sr.ID, change.ID, true)

	assert.NoError(t, err)
	assert.Equal(t, change.ProposedDeadlineAt, *got.CreatorDeadlineAt)
}

func TestServiceRequestService_RespondToDeadline_DeclineKeepsDeadline(t *testing.T) {
	f := newSRFixture()
	ctx := context.Background()
	sr := f.request(models.ServiceRequestStatusConfirmedByCustomer)
	oldDeadline := time.Now().Add(7 * 24 * time.Hour)
	sr.CreatorDeadlineAt = &oldDeadline

	change := &models.DeadlineChange{
		ID:                 uuid.New(),
		ServiceRequestID:   sr.ID,
		CreatorID:          f.creatorID,
		ProposedDeadlineAt: time.Now().Add(14 * 24 * time.Hour),
		Status:             models.DeadlineChangeStatusPending,
	}

	f.convs.On("GetByID", ctx, f.conv.ID).Return(f.conv, nil)
	f.repo.On("GetByID", ctx, sr.ID).Return(sr, nil)
	f.repo.On("GetDeadlineChangeByID", ctx, change.ID).Return(change, nil)
	f.repo.On("ResolveDeadlineChange", ctx, change.ID, false).Return(true, nil)

	got, err := f.svc.RespondToDeadlineChange(ctx, f.customerID, f.conv.ID, sr.ID, change.ID, false)

	assert.NoError(t, err)
	assert.Equal(t, oldDeadline, *got.CreatorDeadlineAt)
}

func TestServiceRequestService_RespondToDeadline_AlreadyResolved(t *testing.T) {
	f := newSRFixture()
	ctx := context.Background()
	sr := f.request(models.ServiceRequestStatusConfirmedByCustomer)

	change := &models.DeadlineChange{
		ID:               uuid.New(),
		ServiceRequestID: sr.ID,
		Status:           models.DeadlineChangeStatusDeclined,
	}

	f.convs.On("GetByID", ctx, f.conv.ID).Return(f.conv, nil)
	f.repo.On("GetByID", ctx, sr.ID).Return(sr, nil)
	f.repo.On("GetDeadlineChangeByID", ctx, change.ID).Return(change, nil)

	_, err := f.svc.RespondToDeadlineChange(ctx, f.customerID, f.conv.ID, sr.ID, change.ID, true)

	assert.True(t, apperror.IsInvalidState(err))
}

func TestServiceRequestService_RespondToDeadline_ForeignProposal(t *testing.T) {
	f := newSRFixture()
	ctx := context.Background()
	sr := f.request(models.ServiceRequestStatusConfirmedByCustomer)

	change := &models.DeadlineChange{
		ID:               uuid.New(),
		ServiceRequestID: uuid.New(),
		Status:           models.DeadlineChangeStatusPending,
	}

	f.convs.On("GetByID", ctx, f.conv.ID).Return(f.conv, nil)
	f.repo.On("GetByID", ctx, sr.ID).Return(sr, nil)
	f.repo.On("GetDeadlineChangeByID", ctx, change.ID).Return(change, nil)

	_, err := f.svc.RespondToDeadlineChange(ctx, f.customerID, f.conv.ID, sr.ID, change.ID, true)

	assert.True(t, apperror.IsNotFound(err))
}

func TestServiceRequestService_RespondToDeadline_OnlyCustomer(t *testing.T) {
	f := newSRFixture()
	ctx := context.Background()
	sr := f.request(models.ServiceRequestStatusConfirmedByCustomer)

	f.convs.On("GetByID", ctx, f.conv.ID).Return(f.conv, nil)
	f.repo.On("GetByID", ctx, sr.ID).Return(sr, nil)

	_, err := f.svc.RespondToDeadlineChange(ctx, f.creatorID, f.conv.ID, sr.ID, uuid.New(), true)

	assert.True(t, apperror.IsForbidden(err))
}
