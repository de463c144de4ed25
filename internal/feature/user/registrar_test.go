package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"meal_tracker_api/internal/domain"
)

func TestEnsureUserCreatesNewRecord(t *testing.T) {
	hookLogger, hook := logtest.NewNullLogger()
	coll := newFakeUserCollection(t)
	registrar := NewRegistrar(coll, logrus.NewEntry(hookLogger))

	ctx := context.Background()
	user, created, err := registrar.EnsureUser(ctx, Profile{
		TelegramID: 123,
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Username:   "ada",
		PhotoURL:   "https://t.me/i/ada.jpg",
	})
	if err != nil {
		t.Fatalf("EnsureUser returned error: %v", err)
	}
	if !created {
		t.Fatalf("expected created to be true for new user")
	}

	if user.ID == "" {
		t.Fatalf("expected generated id")
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("expected role %s, got %s", domain.RoleUser, user.Role)
	}
	if user.Name != "Ada Lovelace" || user.TelegramUsername != "ada" || user.PhotoURL != "https://t.me/i/ada.jpg" {
		t.Fatalf("unexpected user fields %+v", user)
	}
	if !user.CreatedAt.Equal(user.LastLoginAt) {
		t.Fatalf("expected created_at and last_login_at to match on insert, got %v and %v", user.CreatedAt, user.LastLoginAt)
	}

	doc := coll.docFor(t, 123)
	assertFieldEquals(t, doc, "telegram_id", int64(123))
	assertFieldEquals(t, doc, "role", domain.RoleUser)

	if hook.LastEntry() == nil || hook.LastEntry().Data["event"] != "user_registered" {
		t.Fatalf("expected user_registered log entry")
	}
}

func TestEnsureUserUpdatesExistingRecord(t *testing.T) {
	hookLogger, _ := logtest.NewNullLogger()
	coll := newFakeUserCollection(t)

	createdAt := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	coll.seed(t, bson.M{
		"_id":               "existing-id",
		"telegram_id":       int64(777),
		"name":              "Old Name",
		"telegram_username": "old",
		"photo_url":         "https://t.me/i/old.jpg",
		"role":              domain.RoleAdmin,
		"created_at":        createdAt,
		"updated_at":        createdAt,
		"last_login_at":     createdAt,
	})

	registrar := NewRegistrar(coll, logrus.NewEntry(hookLogger))

	user, created, err := registrar.EnsureUser(context.Background(), Profile{TelegramID: 777, FirstName: "New", Username: "fresh"})
	if err != nil {
		t.Fatalf("EnsureUser returned error: %v", err)
	}
	if created {
		t.Fatalf("expected created=false for existing user")
	}

	if user.ID != "existing-id" {
		t.Fatalf("expected id to be preserved, got %s", user.ID)
	}
	if user.Role != domain.RoleAdmin {
		t.Fatalf("expected role to be preserved, got %s", user.Role)
	}
	if user.Name != "New" || user.TelegramUsername != "fresh" {
		t.Fatalf("expected name and username to refresh, got %+v", user)
	}
	if user.PhotoURL != "https://t.me/i/old.jpg" {
		t.Fatalf("expected photo to be kept when not supplied, got %s", user.PhotoURL)
	}
	if !user.CreatedAt.Equal(createdAt) {
		t.Fatalf("expected created_at to be preserved, got %v", user.CreatedAt)
	}
	if !user.LastLoginAt.After(createdAt) {
		t.Fatalf("expected last_login_at to advance, got %v", user.LastLoginAt)
	}

	_, _, err = registrar.EnsureUser(context.Background(), Profile{TelegramID: 777, FirstName: "New", PhotoURL: "https://t.me/i/new.jpg"})
	if err != nil {
		t.Fatalf("EnsureUser returned error: %v", err)
	}
	assertFieldEquals(t, coll.docFor(t, 777), "photo_url", "https://t.me/i/new.jpg")
}

func TestEnsureUserSameInstantLoginIsNotCreation(t *testing.T) {
	hookLogger, hook := logtest.NewNullLogger()
	hookLogger.SetLevel(logrus.DebugLevel)
	coll := newFakeUserCollection(t)
	registrar := NewRegistrar(coll, logrus.NewEntry(hookLogger))

	fixed := time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC)
	registrar.now = func() time.Time { return fixed }

	first, created, err := registrar.EnsureUser(context.Background(), Profile{TelegramID: 42, FirstName: "Ada"})
	if err != nil {
		t.Fatalf("EnsureUser returned error: %v", err)
	}
	if !created {
		t.Fatalf("expected first login to create the user")
	}

	second, created, err := registrar.EnsureUser(context.Background(), Profile{TelegramID: 42, FirstName: "Ada"})
	if err != nil {
		t.Fatalf("EnsureUser returned error: %v", err)
	}
	if created {
		t.Fatalf("expected second login in the same millisecond to update, not create")
	}
	if second.ID != first.ID {
		t.Fatalf("expected id %s to be preserved, got %s", first.ID, second.ID)
	}
	if hook.LastEntry() == nil || hook.LastEntry().Data["event"] != "user_login" {
		t.Fatalf("expected user_login log entry")
	}
}

func TestEnsureUserValidatesAndPropagatesErrors(t *testing.T) {
	hookLogger, _ := logtest.NewNullLogger()

	var nilRegistrar *Registrar
	if _, _, err := nilRegistrar.EnsureUser(context.Background(), Profile{TelegramID: 1}); err == nil {
		t.Fatalf("expected error from nil registrar")
	}

	registrar := NewRegistrar(newFakeUserCollection(t), logrus.NewEntry(hookLogger))
	if _, _, err := registrar.EnsureUser(context.Background(), Profile{}); err == nil {
		t.Fatalf("expected error for missing telegram id")
	}

	failing := NewRegistrar(&failingUserCollection{err: errors.New("mongo down")}, logrus.NewEntry(hookLogger))
	if _, _, err := failing.EnsureUser(context.Background(), Profile{TelegramID: 5}); err == nil {
		t.Fatalf("expected store error to propagate")
	}
}

func TestProfileDisplayName(t *testing.T) {
	tests := []struct {
		profile  Profile
		expected string
	}{
		{Profile{FirstName: "Ada", LastName: "Lovelace"}, "Ada Lovelace"},
		{Profile{FirstName: "Ada"}, "Ada"},
		{Profile{LastName: "Lovelace"}, ""},
		{Profile{}, ""},
	}

	for _, tt := range tests {
		if got := tt.profile.DisplayName(); got != tt.expected {
			t.Fatalf("DisplayName(%+v) = %q, want %q", tt.profile, got, tt.expected)
		}
	}
}

type fakeUserCollection struct {
	t    *testing.T
	docs map[int64]bson.M
}

func newFakeUserCollection(t *testing.T) *fakeUserCollection {
	t.Helper()
	return &fakeUserCollection{
		t:    t,
		docs: make(map[int64]bson.M),
	}
}

func (f *fakeUserCollection) FindOneAndUpdate(_ context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult {
	filterDoc, ok := filter.(bson.M)
	if !ok {
		f.t.Fatalf("unexpected filter type %T", filter)
	}
	telegramID := readInt64(f.t, filterDoc["telegram_id"])

	updateDoc, ok := update.(bson.M)
	if !ok {
		f.t.Fatalf("unexpected update type %T", update)
	}
	setDoc, _ := updateDoc["$set"].(bson.M)
	setOnInsertDoc, _ := updateDoc["$setOnInsert"].(bson.M)

	for key := range setDoc {
		if _, dup := setOnInsertDoc[key]; dup {
			f.t.Fatalf("field %s present in both $set and $setOnInsert", key)
		}
	}

	upsert := len(opts) > 0 && opts[0] != nil && opts[0].Upsert != nil && *opts[0].Upsert
	if len(opts) == 0 || opts[0].ReturnDocument == nil || *opts[0].ReturnDocument != options.After {
		f.t.Fatalf("expected ReturnDocument(After)")
	}

	doc, found := f.docs[telegramID]
	if !found && !upsert {
		return mongo.NewSingleResultFromDocument(bson.M{}, mongo.ErrNoDocuments, nil)
	}
	if !found {
		doc = bson.M{"telegram_id": telegramID}
		merge(doc, setOnInsertDoc)
	}

	merge(doc, setDoc)
	f.docs[telegramID] = doc

	return mongo.NewSingleResultFromDocument(doc, nil, nil)
}

func (f *fakeUserCollection) docFor(t *testing.T, telegramID int64) bson.M {
	t.Helper()

	doc, ok := f.docs[telegramID]
	if !ok {
		t.Fatalf("no document stored for telegram_id=%d", telegramID)
	}

	return doc
}

func (f *fakeUserCollection) seed(t *testing.T, doc bson.M) {
	t.Helper()
	idVal, ok := doc["telegram_id"]
	if !ok {
		t.Fatalf("seed document missing telegram_id: %v", doc)
	}

	f.docs[readInt64(t, idVal)] = doc
}

type failingUserCollection struct {
	err error
}

func (f *failingUserCollection) FindOneAndUpdate(context.Context, interface{}, interface{}, ...*options.FindOneAndUpdateOptions) *mongo.SingleResult {
	return mongo.NewSingleResultFromDocument(bson.M{}, f.err, nil)
}

func merge(dst bson.M, updates bson.M) {
	for k, v := range updates {
		dst[k] = v
	}
}

func readInt64(t *testing.T, value interface{}) int64 {
	t.Helper()

	switch v := value.(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	default:
		t.Fatalf("expected int64-compatible value, got %T", value)
		return 0
	}
}

func assertFieldEquals(t *testing.T, doc bson.M, field string, expected interface{}) {
	t.Helper()

	val, ok := doc[field]
	if !ok {
		t.Fatalf("expected field %s to be set", field)
	}

	if val != expected {
		t.Fatalf("expected %s=%v, got %v", field, expected, val)
	}
}
