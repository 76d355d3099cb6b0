package users

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"caixa/internal/core"
)

type fakeRepo struct {
	users  map[int64]User
	nextID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[int64]User)}
}

func (r *fakeRepo) Users(_ context.Context) ([]User, error) {
	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *fakeRepo) User(_ context.Context, id int64) (User, error) {
	u, ok := r.users[id]
	if !ok {
		return User{}, &core.NotFoundError{Kind: "user", ID: id}
	}
	return u, nil
}

func (r *fakeRepo) AddUser(_ context.Context, u User) (User, error) {
	r.nextID++
	u.ID = r.nextID
	r.users[u.ID] = u
	return u, nil
}

func (r *fakeRepo) UpdateUser(_ context.Context, u User) (User, error) {
	if _, ok := r.users[u.ID]; !ok {
		return User{}, &core.NotFoundError{Kind: "user", ID: u.ID}
	}
	r.users[u.ID] = u
	return u, nil
}

func (r *fakeRepo) DeleteUser(_ context.Context, id int64) error {
	if _, ok := r.users[id]; !ok {
		return &core.NotFoundError{Kind: "user", ID: id}
	}
	delete(r.users, id)
	return nil
}

func (r *fakeRepo) UserEmailExists(_ context.Context, email string, excludeID int64) (bool, error) {
	for _, u := range r.users {
		if u.ID != excludeID && strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

type fakePhotoStore struct {
	saved   []string
	removed []string
	err     error
}

func (p *fakePhotoStore) Save(_ context.Context, _ []byte, userID int64) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	name := fmt.Sprintf("user-%d-%d.jpg", userID, len(p.saved))
	p.saved = append(p.saved, name)
	return name, nil
}

func (p *fakePhotoStore) Remove(_ context.Context, name string) error {
	p.removed = append(p.removed, name)
	return nil
}

func validUser() User {
	return User{Name: "Maria Silva", Email: "maria@example.com", Phone: "11999990000", CPF: "52998224725"}
}

func TestServiceCreate(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakePhotoStore{}, nil)
	svc.now = func() time.Time { return time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC) }

	u, err := svc.Create(context.Background(), validUser(), nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.ID == 0 {
		t.Errorf("created user has no id")
	}
	if u.CPF != "529.982.247-25" {
		t.Errorf("CPF = %q, want formatted", u.CPF)
	}
	if !u.CreatedAt.Equal(u.UpdatedAt) || u.CreatedAt.IsZero() {
		t.Errorf("timestamps = %v / %v", u.CreatedAt, u.UpdatedAt)
	}
}

func TestServiceCreateDuplicateEmail(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)

	if _, err := svc.Create(context.Background(), validUser(), nil); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	second := validUser()
	second.Email = "MARIA@example.com"
	second.CPF = "15350946056"
	_, err := svc.Create(context.Background(), second, nil)
	if !core.IsConflict(err) {
		t.Errorf("duplicate email err = %v, want conflict", err)
	}
}

func TestServiceCreateWithPhoto(t *testing.T) {
	repo := newFakeRepo()
	photos := &fakePhotoStore{}
	svc := NewService(repo, photos, nil)

	u, err := svc.Create(context.Background(), validUser(), []byte("raw-image"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.Photo == "" || len(photos.saved) != 1 {
		t.Errorf("photo = %q, saved = %v", u.Photo, photos.saved)
	}
}

func TestServiceCreatePhotoWithoutStore(t *testing.T) {
	svc := NewService(newFakeRepo(), nil, nil)

	_, err := svc.Create(context.Background(), validUser(), []byte("raw-image"))
	if !core.IsValidation(err) {
		t.Errorf("photo without store err = %v, want validation", err)
	}
}

func TestServiceUpdateReplacesPhoto(t *testing.T) {
	repo := newFakeRepo()
	photos := &fakePhotoStore{}
	svc := NewService(repo, photos, nil)

	created, err := svc.Create(context.Background(), validUser(), []byte("first"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	changed := validUser()
	changed.Name = "Maria Souza"
	updated, err := svc.Update(context.Background(), created.ID, changed, []byte("second"))
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "Maria Souza" {
		t.Errorf("Name = %q", updated.Name)
	}
	if updated.Photo == created.Photo {
		t.Errorf("photo was not replaced")
	}
	if len(photos.removed) != 1 || photos.removed[0] != created.Photo {
		t.Errorf("removed = %v, want [%s]", photos.removed, created.Photo)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("CreatedAt changed on update")
	}
}

func TestServiceUpdateKeepsPhotoWhenAbsent(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakePhotoStore{}, nil)

	created, err := svc.Create(context.Background(), validUser(), []byte("first"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	updated, err := svc.Update(context.Background(), created.ID, validUser(), nil)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Photo != created.Photo {
		t.Errorf("photo = %q, want %q", updated.Photo, created.Photo)
	}
}

func TestServiceDeleteRemovesPhoto(t *testing.T) {
	repo := newFakeRepo()
	photos := &fakePhotoStore{}
	svc := NewService(repo, photos, nil)

	created, err := svc.Create(context.Background(), validUser(), []byte("first"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(photos.removed) != 1 {
		t.Errorf("removed = %v", photos.removed)
	}
	if _, err := svc.Get(context.Background(), created.ID); !core.IsNotFound(err) {
		t.Errorf("Get after delete err = %v, want not found", err)
	}
}

func TestServiceSearch(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)

	first := validUser()
	if _, err := svc.Create(context.Background(), first, nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	second := User{Name: "João Pereira", Email: "joao@example.com", Phone: "11888880000", CPF: "15350946056"}
	if _, err := svc.Create(context.Background(), second, nil); err != nil {
		t.Fatalf("Create: %v", err)
	}

	tests := []struct {
		term string
		want int
	}{
		{"maria", 1},
		{"EXAMPLE.COM", 2},
		{"", 2},
		{"nobody", 0},
		{"11888", 1},
	}
	for _, tt := range tests {
		got, err := svc.Search(context.Background(), tt.term)
		if err != nil {
			t.Fatalf("Search(%q): %v", tt.term, err)
		}
		if len(got) != tt.want {
			t.Errorf("Search(%q) = %d users, want %d", tt.term, len(got), tt.want)
		}
	}
}

func TestServiceStats(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakePhotoStore{}, nil)

	if _, err := svc.Create(context.Background(), validUser(), []byte("img")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	second := User{Name: "João Pereira", Email: "joao@example.com", Phone: "11888880000", CPF: "15350946056"}
	if _, err := svc.Create(context.Background(), second, nil); err != nil {
		t.Fatalf("Create: %v", err)
	}

	st, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Total != 2 || st.WithPhoto != 1 || st.WithoutPhoto != 1 {
		t.Errorf("Stats = %+v", st)
	}
}
