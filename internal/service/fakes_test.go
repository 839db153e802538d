package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Freeeeeet/wherewego/internal/apperr"
	"github.com/Freeeeeet/wherewego/internal/auth"
	"github.com/Freeeeeet/wherewego/internal/mail"
	"github.com/Freeeeeet/wherewego/internal/model"
)

type fakeStudents struct {
	mu   sync.Mutex
	next int64
	rows map[int64]*model.Student

	updateErr error
}

func newFakeStudents() *fakeStudents {
	return &fakeStudents{rows: make(map[int64]*model.Student)}
}

func (f *fakeStudents) put(s *model.Student) *model.Student {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	s.UID = f.next
	cp := *s
	f.rows[s.UID] = &cp
	return s
}

func (f *fakeStudents) Create(_ context.Context, s *model.Student) error {
	f.mu.Lock()
	for _, row := range f.rows {
		if s.Email != nil && row.Email != nil && *row.Email == *s.Email {
			f.mu.Unlock()
			return apperr.Conflict("email", *s.Email)
		}
	}
	f.mu.Unlock()
	f.put(s)
	return nil
}

func (f *fakeStudents) GetByUID(_ context.Context, uid int64) (*model.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[uid]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (f *fakeStudents) GetByIdentifier(_ context.Context, identifier string) (*model.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if (row.Email != nil && *row.Email == identifier) || (row.PhoneNumber != nil && *row.PhoneNumber == identifier) {
			cp := *row
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStudents) Update(_ context.Context, s *model.Student) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return 0, f.updateErr
	}
	if _, ok := f.rows[s.UID]; !ok {
		return 0, nil
	}
	cp := *s
	f.rows[s.UID] = &cp
	return 1, nil
}

func (f *fakeStudents) UpdateRole(_ context.Context, uid int64, role model.Role) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[uid]
	if !ok {
		return 0, nil
	}
	row.Role = role
	return 1, nil
}

func (f *fakeStudents) Delete(_ context.Context, uid int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[uid]; !ok {
		return 0, nil
	}
	delete(f.rows, uid)
	return 1, nil
}

func (f *fakeStudents) Search(_ context.Context, viewer *auth.Principal, offset, limit int, text string) ([]*model.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []*model.Student
	for _, row := range f.rows {
		if !strings.Contains(strings.ToLower(row.Name), strings.ToLower(text)) {
			continue
		}
		t := auth.StudentTarget(row)
		if row.UID == viewer.StudentUID || auth.Covers(viewer, t) || auth.Visible(viewer, t) {
			cp := *row
			matched = append(matched, &cp)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })

	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

type fakeKeys struct {
	mu   sync.Mutex
	rows map[string]*model.RegistrationKey
}

func newFakeKeys() *fakeKeys {
	return &fakeKeys{rows: make(map[string]*model.RegistrationKey)}
}

func (f *fakeKeys) Create(_ context.Context, k *model.RegistrationKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[k.Key]; ok {
		return apperr.Conflict("registration_key", k.Key)
	}
	cp := *k
	f.rows[k.Key] = &cp
	return nil
}

func (f *fakeKeys) Get(_ context.Context, key string) (*model.RegistrationKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[key]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (f *fakeKeys) GetValid(ctx context.Context, key string, now time.Time) (*model.RegistrationKey, error) {
	k, _ := f.Get(ctx, key)
	if k == nil || !k.IsValid(now) {
		return nil, nil
	}
	return k, nil
}

func (f *fakeKeys) Exists(ctx context.Context, key string) (bool, error) {
	k, _ := f.Get(ctx, key)
	return k != nil, nil
}

func (f *fakeKeys) ListByScope(_ context.Context, p *auth.Principal) ([]*model.RegistrationKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.RegistrationKey
	for _, row := range f.rows {
		if auth.Covers(p, auth.KeyTarget(row)) {
			cp := *row
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeKeys) Update(_ context.Context, key string, expiration time.Time, activated bool) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[key]
	if !ok {
		return 0, nil
	}
	row.ExpirationDate = expiration
	row.Activated = activated
	return 1, nil
}

func (f *fakeKeys) DeactivateExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, row := range f.rows {
		if row.Activated && !now.Before(row.ExpirationDate) {
			row.Activated = false
			n++
		}
	}
	return n, nil
}

type fakeClasses struct {
	rows []*model.Class
}

func (f *fakeClasses) Get(_ context.Context, classNumber, gradYear int) (*model.Class, error) {
	for _, c := range f.rows {
		if c.ClassNumber == classNumber && c.GradYear == gradYear {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeClasses) ListByScope(_ context.Context, p *auth.Principal) ([]*model.Class, error) {
	var out []*model.Class
	for _, c := range f.rows {
		if auth.Covers(p, auth.ClassTarget(c)) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeClasses) Create(_ context.Context, class *model.Class) error {
	cp := *class
	f.rows = append(f.rows, &cp)
	return nil
}

type fakeSchools struct {
	rows []*model.School
}

func (f *fakeSchools) Search(_ context.Context, offset, limit int, text string) ([]*model.School, error) {
	var matched []*model.School
	for _, s := range f.rows {
		if strings.Contains(strings.ToLower(s.Name), strings.ToLower(text)) {
			matched = append(matched, s)
		}
	}
	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (f *fakeSchools) Create(_ context.Context, school *model.School) error {
	school.UID = int64(len(f.rows) + 1)
	f.rows = append(f.rows, school)
	return nil
}

type fakeFeedback struct {
	mu   sync.Mutex
	rows []*model.Feedback
}

func (f *fakeFeedback) Create(_ context.Context, fb *model.Feedback) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	fb.PostedAt = time.Now()
	f.rows = append(f.rows, fb)
	return nil
}

func (f *fakeFeedback) ListBySender(_ context.Context, senderUID int64) ([]*model.Feedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Feedback
	for _, fb := range f.rows {
		if fb.SenderUID != nil && *fb.SenderUID == senderUID {
			out = append(out, fb)
		}
	}
	return out, nil
}

func (f *fakeFeedback) ListRecent(_ context.Context, limit int) ([]*model.Feedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.rows) < limit {
		limit = len(f.rows)
	}
	return f.rows[:limit], nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	items []*model.Feedback
}

func (n *recordingNotifier) NotifyFeedback(_ context.Context, f *model.Feedback) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, f)
	return nil
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}
