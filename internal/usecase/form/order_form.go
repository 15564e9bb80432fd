package form

import (
	"context"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"user-order-console/internal/adapter/rest"
	"user-order-console/internal/domain/order"
	"user-order-console/internal/domain/paging"
	"user-order-console/internal/domain/user"
	"user-order-console/internal/ui/notify"
	"user-order-console/pkg/amount"
	apperrors "user-order-console/pkg/errors"
)

// Bounds of the user options list loaded by the order form.
const (
	UserOptionsLimit = 50
	UsersLoadError   = "Unable to load users. Please refresh."
)

// OrderCreator creates orders.
type OrderCreator interface {
	CreateOrder(ctx context.Context, in order.CreateInput) (*order.Order, error)
}

// UserLister lists users a page at a time.
type UserLister interface {
	ListUsers(ctx context.Context, p rest.ListParams) (*paging.Page[user.User], error)
}

type orderFields struct {
	UserID      int64  `label:"User" validate:"gt=0"`
	ProductName string `label:"Product" validate:"required,max=200"`
	Amount      string `label:"Amount" validate:"required"`
}

// OrderForm is the create-order form. UserID zero means no user selected.
// Amount is free text accepting a comma or a dot as decimal separator.
type OrderForm struct {
	UserID      int64
	ProductName string
	Amount      string

	status
	api      OrderCreator
	users    UserLister
	deps     Deps
	validate *validator.Validate

	optMu        sync.Mutex
	options      []user.User
	loadingUsers bool
	usersErr     string
}

// NewOrderForm creates an empty create-order form. users serves the
// selection list and may be a caching lister.
func NewOrderForm(api OrderCreator, users UserLister, deps Deps) *OrderForm {
	return &OrderForm{
		api:      api,
		users:    users,
		deps:     deps.withDefaults(),
		validate: newValidator(),
	}
}

// LoadUsers fetches the first page of users as selection options. A failure
// is reported but leaves the form usable.
func (f *OrderForm) LoadUsers(ctx context.Context) {
	f.optMu.Lock()
	f.loadingUsers = true
	f.usersErr = ""
	f.optMu.Unlock()

	page, err := f.users.ListUsers(ctx, rest.ListParams{Page: rest.DefaultPage, Limit: UserOptionsLimit})

	f.optMu.Lock()
	f.loadingUsers = false
	if err != nil {
		f.usersErr = UsersLoadError
	} else {
		f.options = page.Items
	}
	f.optMu.Unlock()

	if err != nil {
		f.deps.Log.Warn("failed to load users", zap.Error(err))
		if f.deps.Notifier != nil {
			f.deps.Notifier.Error(UsersLoadError)
		}
	}
}

// UserOptions returns the loaded selection options.
func (f *OrderForm) UserOptions() []user.User {
	f.optMu.Lock()
	defer f.optMu.Unlock()
	return f.options
}

// UsersErr returns the message of a failed LoadUsers, or "".
func (f *OrderForm) UsersErr() string {
	f.optMu.Lock()
	defer f.optMu.Unlock()
	return f.usersErr
}

// Submit validates the fields and creates the order. On failure the fields
// are kept for correction.
func (f *OrderForm) Submit(ctx context.Context) (*order.Order, error) {
	in, err := f.input()
	if err != nil {
		f.fail(f.deps, err, "")
		return nil, err
	}

	f.begin()
	created, err := f.api.CreateOrder(ctx, in)
	f.end()
	if err != nil {
		f.deps.Log.Warn("create order failed",
			zap.Int64("user_id", in.UserID),
			zap.String("product", in.ProductName),
			zap.Error(err),
		)
		f.fail(f.deps, err, UnexpectedError)
		return nil, err
	}

	f.UserID, f.ProductName, f.Amount = 0, "", ""
	f.succeed(f.deps, notify.TopicOrders, "Order created")
	return created, nil
}

func (f *OrderForm) input() (order.CreateInput, error) {
	fields := orderFields{
		UserID:      f.UserID,
		ProductName: strings.TrimSpace(f.ProductName),
		Amount:      strings.TrimSpace(f.Amount),
	}
	if err := f.validate.Struct(fields); err != nil {
		return order.CreateInput{}, formatValidationError(err)
	}

	v, ok := amount.Parse(fields.Amount)
	if !ok {
		return order.CreateInput{}, apperrors.ErrInvalidAmount
	}
	if v <= 0 {
		return order.CreateInput{}, apperrors.ErrNonPositiveAmount
	}

	return order.CreateInput{
		UserID:      fields.UserID,
		ProductName: fields.ProductName,
		Amount:      v,
	}, nil
}
