package form

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"user-order-console/internal/adapter/rest"
	"user-order-console/internal/apitest"
	"user-order-console/internal/domain/order"
	"user-order-console/internal/domain/paging"
	"user-order-console/internal/domain/user"
	"user-order-console/internal/ui/notify"
	apperrors "user-order-console/pkg/errors"
)

// MockAPI is a mock implementation of the create and list calls
type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) CreateUser(ctx context.Context, in user.CreateInput) (*user.User, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockAPI) CreateOrder(ctx context.Context, in order.CreateInput) (*order.Order, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockAPI) ListUsers(ctx context.Context, p rest.ListParams) (*paging.Page[user.User], error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paging.Page[user.User]), args.Error(1)
}

func setupDeps(t *testing.T) (Deps, *notify.Recorder, *int) {
	rec := &notify.Recorder{}
	created := 0
	return Deps{
		Notifier:  rec,
		Bus:       notify.NewBus(),
		Log:       zaptest.NewLogger(t),
		OnCreated: func() { created++ },
	}, rec, &created
}

func lastMessage(t *testing.T, rec *notify.Recorder) notify.Message {
	t.Helper()
	msg, ok := rec.Last()
	require.True(t, ok, "no notification recorded")
	return msg
}

func duplicateEmail() error {
	return apperrors.NewAPIError(http.StatusConflict, &apperrors.ErrorPayload{
		Error: apperrors.ErrorBody{Code: "duplicate_email", Message: "Email already exists"},
	})
}

func TestUserForm_Submit_Success(t *testing.T) {
	api := new(MockAPI)
	deps, rec, created := setupDeps(t)
	refreshed := 0
	deps.Bus.Subscribe(notify.TopicUsers, func() { refreshed++ })

	want := user.CreateInput{Name: "Ada Lovelace", Email: "ada@example.com"}
	api.On("CreateUser", mock.Anything, want).Return(&user.User{ID: 7, Name: want.Name, Email: want.Email}, nil).Once()

	f := NewUserForm(api, deps)
	f.Name = "  Ada Lovelace "
	f.Email = " ADA@Example.com "

	u, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)

	assert.Empty(t, f.Name)
	assert.Empty(t, f.Email)
	assert.Empty(t, f.Err())
	assert.False(t, f.Submitting())
	assert.Equal(t, 1, *created)
	assert.Equal(t, 1, refreshed)
	assert.Equal(t, notify.Message{Level: notify.LevelSuccess, Text: "User created"}, lastMessage(t, rec))
	api.AssertExpectations(t)
}

func TestUserForm_Submit_Validation(t *testing.T) {
	tests := []struct {
		name      string
		userName  string
		email     string
		wantField string
		wantMsg   string
	}{
		{"missing name", "  ", "ada@example.com", "Name", "Name is required"},
		{"missing email", "Ada", "", "Email", "Email is required"},
		{"invalid email", "Ada", "not-an-email", "Email", "Email must be a valid email"},
		{"both missing", "", "", "Name", "Name is required, Email is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(MockAPI)
			deps, rec, created := setupDeps(t)

			f := NewUserForm(api, deps)
			f.Name = tt.userName
			f.Email = tt.email

			_, err := f.Submit(context.Background())

			vErr, ok := apperrors.AsValidationError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantField, vErr.Field)
			assert.Equal(t, tt.wantMsg, vErr.Message)
			assert.Equal(t, tt.wantMsg, f.Err())
			assert.Equal(t, tt.userName, f.Name, "fields are kept")
			assert.Equal(t, notify.LevelError, lastMessage(t, rec).Level)
			assert.Zero(t, *created)
			api.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
		})
	}
}

func TestUserForm_Submit_APIErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"structured", duplicateEmail(), "Email already exists"},
		{"unstructured", apperrors.NewAPIError(http.StatusBadGateway, nil), UnexpectedError},
		{"transport", apperrors.NewTransportError("POST /users", errors.New("connection refused")), UnexpectedError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(MockAPI)
			deps, rec, created := setupDeps(t)
			api.On("CreateUser", mock.Anything, mock.Anything).Return(nil, tt.err).Once()

			f := NewUserForm(api, deps)
			f.Name = "Ada"
			f.Email = "ada@example.com"

			_, err := f.Submit(context.Background())
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, tt.wantMsg, f.Err())
			assert.Equal(t, notify.Message{Level: notify.LevelError, Text: tt.wantMsg}, lastMessage(t, rec))
			assert.Equal(t, "Ada", f.Name)
			assert.Equal(t, "ada@example.com", f.Email)
			assert.False(t, f.Submitting())
			assert.Zero(t, *created)
		})
	}
}

func TestUserForm_SubmittingDuringCall(t *testing.T) {
	api := new(MockAPI)
	deps, _, _ := setupDeps(t)
	f := NewUserForm(api, deps)
	f.Name, f.Email = "Ada", "ada@example.com"

	var during bool
	api.On("CreateUser", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { during = f.Submitting() }).
		Return(&user.User{ID: 1}, nil)

	_, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.True(t, during)
	assert.False(t, f.Submitting())
}

func TestOrderForm_Submit_TrimsAndParses(t *testing.T) {
	api := new(MockAPI)
	deps, rec, created := setupDeps(t)
	refreshed := 0
	deps.Bus.Subscribe(notify.TopicOrders, func() { refreshed++ })

	want := order.CreateInput{UserID: 3, ProductName: "Pen", Amount: 5.0}
	api.On("CreateOrder", mock.Anything, want).Return(&order.Order{ID: 1, UserID: 3, ProductName: "Pen"}, nil).Once()

	f := NewOrderForm(api, api, deps)
	f.UserID = 3
	f.ProductName = " Pen "
	f.Amount = "5,00"

	o, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), o.ID)

	assert.Zero(t, f.UserID)
	assert.Empty(t, f.ProductName)
	assert.Empty(t, f.Amount)
	assert.Equal(t, 1, *created)
	assert.Equal(t, 1, refreshed)
	assert.Equal(t, "Order created", lastMessage(t, rec).Text)
	api.AssertExpectations(t)
}

func TestOrderForm_Submit_Validation(t *testing.T) {
	tests := []struct {
		name    string
		userID  int64
		product string
		amount  string
		wantMsg string
	}{
		{"no user", 0, "Pen", "5", "User must be selected"},
		{"empty product", 3, "   ", "5", "Product is required"},
		{"empty amount", 3, "Pen", "", "Amount is required"},
		{"zero amount", 3, "Pen", "0", "Amount must be greater than zero"},
		{"negative amount", 3, "Pen", "-1,5", "Amount must be greater than zero"},
		{"garbage amount", 3, "Pen", "abc", "Invalid amount format"},
		{"two commas", 3, "Pen", "1,234,56", "Invalid amount format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(MockAPI)
			deps, rec, _ := setupDeps(t)

			f := NewOrderForm(api, api, deps)
			f.UserID = tt.userID
			f.ProductName = tt.product
			f.Amount = tt.amount

			_, err := f.Submit(context.Background())

			_, ok := apperrors.AsValidationError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantMsg, f.Err())
			assert.Equal(t, tt.wantMsg, lastMessage(t, rec).Text)
			assert.Equal(t, tt.amount, f.Amount, "fields are kept")
			api.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
		})
	}
}

func TestOrderForm_Submit_APIError(t *testing.T) {
	api := new(MockAPI)
	deps, rec, _ := setupDeps(t)
	notFound := apperrors.NewAPIError(http.StatusNotFound, &apperrors.ErrorPayload{
		Error: apperrors.ErrorBody{Code: "user_not_found", Message: "User does not exist"},
	})
	api.On("CreateOrder", mock.Anything, mock.Anything).Return(nil, notFound).Once()

	f := NewOrderForm(api, api, deps)
	f.UserID, f.ProductName, f.Amount = 99, "Pen", "1.5"

	_, err := f.Submit(context.Background())
	assert.Error(t, err)
	assert.Equal(t, "User does not exist", f.Err())
	assert.Equal(t, notify.LevelError, lastMessage(t, rec).Level)
	assert.Equal(t, int64(99), f.UserID)
}

func TestOrderForm_LoadUsers(t *testing.T) {
	api := new(MockAPI)
	deps, _, _ := setupDeps(t)
	page := paging.NewPage([]user.User{{ID: 1, Name: "Ada"}, {ID: 2, Name: "Alan"}}, 2, 1, UserOptionsLimit)
	api.On("ListUsers", mock.Anything, rest.ListParams{Page: 1, Limit: 50}).Return(page, nil).Once()

	f := NewOrderForm(api, api, deps)
	f.LoadUsers(context.Background())

	assert.Len(t, f.UserOptions(), 2)
	assert.Empty(t, f.UsersErr())
	assert.False(t, f.loadingUsers)
	api.AssertExpectations(t)
}

func TestOrderForm_LoadUsersFailureIsNonFatal(t *testing.T) {
	api := new(MockAPI)
	deps, rec, _ := setupDeps(t)
	api.On("ListUsers", mock.Anything, mock.Anything).Return(nil, errors.New("boom")).Once()
	api.On("CreateOrder", mock.Anything, mock.Anything).Return(&order.Order{ID: 1}, nil).Once()

	f := NewOrderForm(api, api, deps)
	f.LoadUsers(context.Background())

	assert.Equal(t, UsersLoadError, f.UsersErr())
	assert.Empty(t, f.UserOptions())
	assert.Equal(t, notify.Message{Level: notify.LevelError, Text: UsersLoadError}, lastMessage(t, rec))

	f.UserID, f.ProductName, f.Amount = 1, "Pen", "2"
	_, err := f.Submit(context.Background())
	assert.NoError(t, err)
}

func TestForms_AgainstFakeBackend(t *testing.T) {
	srv := apitest.New(t)
	client := rest.New(rest.Config{BaseURL: srv.URL}, zaptest.NewLogger(t))
	deps, rec, _ := setupDeps(t)
	ctx := context.Background()

	uf := NewUserForm(client, deps)
	uf.Name, uf.Email = "Grace Hopper", "Grace@Example.com"
	u, err := uf.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", u.Email)

	uf.Name, uf.Email = "Grace Again", "grace@example.com"
	_, err = uf.Submit(ctx)
	require.Error(t, err)
	apiErr, ok := apperrors.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "duplicate_email", apiErr.Code())
	assert.Equal(t, apiErr.Message, uf.Err())

	of := NewOrderForm(client, client, deps)
	of.LoadUsers(ctx)
	require.Len(t, of.UserOptions(), 1)

	of.UserID = of.UserOptions()[0].ID
	of.ProductName = "Notebook"
	of.Amount = "12,50"
	o, err := of.Submit(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 12.5, o.Amount.Float64(), 0.001)
	assert.Equal(t, "Order created", lastMessage(t, rec).Text)
}
