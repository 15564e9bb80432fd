package form

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"user-order-console/internal/domain/user"
	"user-order-console/internal/ui/notify"
)

// UserCreator creates users.
type UserCreator interface {
	CreateUser(ctx context.Context, in user.CreateInput) (*user.User, error)
}

type userFields struct {
	Name  string `label:"Name" validate:"required,max=120"`
	Email string `label:"Email" validate:"required,email,max=255"`
}

// UserForm is the create-user form. The caller edits the fields between
// submissions.
type UserForm struct {
	Name  string
	Email string

	status
	api      UserCreator
	deps     Deps
	validate *validator.Validate
}

// NewUserForm creates an empty create-user form.
func NewUserForm(api UserCreator, deps Deps) *UserForm {
	return &UserForm{
		api:      api,
		deps:     deps.withDefaults(),
		validate: newValidator(),
	}
}

// Submit validates the fields and creates the user. On failure the fields
// are kept for correction.
func (f *UserForm) Submit(ctx context.Context) (*user.User, error) {
	in := userFields{
		Name:  strings.TrimSpace(f.Name),
		Email: strings.ToLower(strings.TrimSpace(f.Email)),
	}
	if err := f.validate.Struct(in); err != nil {
		err = formatValidationError(err)
		f.fail(f.deps, err, "")
		return nil, err
	}

	f.begin()
	created, err := f.api.CreateUser(ctx, user.CreateInput{Name: in.Name, Email: in.Email})
	f.end()
	if err != nil {
		f.deps.Log.Warn("create user failed", zap.String("email", in.Email), zap.Error(err))
		f.fail(f.deps, err, UnexpectedError)
		return nil, err
	}

	f.Name, f.Email = "", ""
	f.succeed(f.deps, notify.TopicUsers, "User created")
	return created, nil
}
