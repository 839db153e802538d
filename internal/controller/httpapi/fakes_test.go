package httpapi

import (
	"context"

	"github.com/Freeeeeet/wherewego/internal/auth"
	"github.com/Freeeeeet/wherewego/internal/model"
	"github.com/Freeeeeet/wherewego/internal/search"
	"github.com/Freeeeeet/wherewego/internal/service"
)

// fakeStudents отдаёт заданные ответы и запоминает аргументы
type fakeStudents struct {
	principals map[int64]*auth.Principal
	student    *model.Student
	err        error
	deleted    bool
	lastQuery  search.Query
	lastUID    int64
	lastRole   model.Role
}

func (f *fakeStudents) Register(_ context.Context, in service.RegisterInput) (*model.Student, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.student, nil
}

func (f *fakeStudents) Authenticate(_ context.Context, identifier, password string) (*model.Student, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.student, nil
}

func (f *fakeStudents) Principal(_ context.Context, uid int64) (*auth.Principal, error) {
	return f.principals[uid], nil
}

func (f *fakeStudents) Get(_ context.Context, p *auth.Principal, uid int64) (*model.Student, error) {
	if p == nil {
		return nil, auth.ErrUnauthenticated
	}
	f.lastUID = uid
	if f.err != nil {
		return nil, f.err
	}
	return f.student, nil
}

func (f *fakeStudents) Update(_ context.Context, p *auth.Principal, in service.UpdateInput) (*model.Student, error) {
	if p == nil {
		return nil, auth.ErrUnauthenticated
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.student, nil
}

func (f *fakeStudents) Delete(_ context.Context, p *auth.Principal, uid int64) (bool, error) {
	if p == nil {
		return false, auth.ErrUnauthenticated
	}
	f.lastUID = uid
	return f.deleted, f.err
}

func (f *fakeStudents) SetRole(_ context.Context, p *auth.Principal, uid int64, role model.Role) error {
	if p == nil {
		return auth.ErrUnauthenticated
	}
	f.lastUID = uid
	f.lastRole = role
	return f.err
}

func (f *fakeStudents) Search(_ context.Context, p *auth.Principal, q search.Query) ([]model.StudentBrief, error) {
	if p == nil {
		return nil, auth.ErrUnauthenticated
	}
	f.lastQuery = q
	return []model.StudentBrief{{UID: 7, Name: "Ann"}}, nil
}

type fakeKeys struct {
	info *model.KeyInfo
	err  error
	card []byte
}

func (f *fakeKeys) Validate(context.Context, string) (*model.KeyInfo, error) {
	return f.info, f.err
}

func (f *fakeKeys) Create(_ context.Context, p *auth.Principal, in service.KeyCreate) (*model.RegistrationKey, error) {
	if p == nil {
		return nil, auth.ErrUnauthenticated
	}
	return &model.RegistrationKey{Key: "ABCDEFGH", ClassNumber: in.ClassNumber, GradYear: in.GradYear}, nil
}

func (f *fakeKeys) List(_ context.Context, p *auth.Principal) ([]*model.RegistrationKey, error) {
	if p == nil {
		return nil, auth.ErrUnauthenticated
	}
	return nil, nil
}

func (f *fakeKeys) Update(_ context.Context, p *auth.Principal, in service.KeyUpdate) (*model.RegistrationKey, error) {
	return &model.RegistrationKey{Key: in.Key}, nil
}

func (f *fakeKeys) Card(_ context.Context, p *auth.Principal, key string) ([]byte, error) {
	if p == nil {
		return nil, auth.ErrUnauthenticated
	}
	return f.card, f.err
}

type fakeFeedback struct {
	last *service.PublicFeedbackInput
}

func (f *fakeFeedback) SubmitPublic(_ context.Context, in service.PublicFeedbackInput) (*model.Feedback, error) {
	f.last = &in
	return &model.Feedback{Reason: in.Reason}, nil
}

func (f *fakeFeedback) Submit(_ context.Context, p *auth.Principal, in service.FeedbackInput) (*model.Feedback, error) {
	if p == nil {
		return nil, auth.ErrUnauthenticated
	}
	return &model.Feedback{Reason: in.Reason}, nil
}

func (f *fakeFeedback) ListOwn(_ context.Context, p *auth.Principal) ([]*model.Feedback, error) {
	if p == nil {
		return nil, auth.ErrUnauthenticated
	}
	return nil, nil
}

type fakeSchools struct {
	lastQuery search.Query
}

func (f *fakeSchools) Search(_ context.Context, q search.Query) ([]*model.School, error) {
	f.lastQuery = q
	return []*model.School{{UID: 1, Name: "MIT"}}, nil
}

func (f *fakeSchools) Create(_ context.Context, p *auth.Principal, in service.SchoolInput) (*model.School, error) {
	if p == nil {
		return nil, auth.ErrUnauthenticated
	}
	return &model.School{UID: 2, Name: in.Name}, nil
}

type fakeClasses struct{}

func (fakeClasses) ListManageable(_ context.Context, p *auth.Principal) ([]*model.Class, error) {
	if p == nil {
		return nil, auth.ErrUnauthenticated
	}
	return []*model.Class{{ClassNumber: 3, GradYear: 2020}}, nil
}
