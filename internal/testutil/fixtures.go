package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/samaquete/jangubi/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateDiocese creates a test diocese with the given code and name.
func (f *Fixtures) CreateDiocese(ctx context.Context, code, name string) models.Diocese {
	f.t.Helper()

	now := time.Now().UTC()
	d := models.Diocese{
		ID:        primitive.NewObjectID(),
		Code:      code,
		Name:      name,
		NameCI:    text.Fold(name),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("dioceses").InsertOne(ctx, d); err != nil {
		f.t.Fatalf("failed to create test diocese: %v", err)
	}
	return d
}

// CreateParish creates a test parish in the given diocese.
func (f *Fixtures) CreateParish(ctx context.Context, name, dioceseCode string) models.Parish {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.Parish{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		DioceseID: dioceseCode,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("parishes").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test parish: %v", err)
	}
	return p
}

// CreateChurch creates a test church in the given parish.
func (f *Fixtures) CreateChurch(ctx context.Context, name string, parish models.Parish) models.Church {
	f.t.Helper()

	now := time.Now().UTC()
	ch := models.Church{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		ParishID:  parish.ID,
		DioceseID: parish.DioceseID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("churches").InsertOne(ctx, ch); err != nil {
		f.t.Fatalf("failed to create test church: %v", err)
	}
	return ch
}

// CreateUser creates a test admin user. DioceseID, parishID, and churchID
// may be zero values for roles that do not carry them. The password is
// "test-password".
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role, dioceseCode string, parishID, churchID *primitive.ObjectID) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("test-password"), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("failed to hash test password: %v", err)
	}
	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		FullName:     fullName,
		FullNameCI:   text.Fold(fullName),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Status:       "active",
		DioceseID:    dioceseCode,
		ParishID:     parishID,
		ChurchID:     churchID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateDonationType creates a test donation type owned by the given parish.
// churchID and creatorRole control the workflow state it starts in.
func (f *Fixtures) CreateDonationType(ctx context.Context, name string, parish models.Parish, churchID *primitive.ObjectID, creatorID primitive.ObjectID, creatorRole string, validated bool) models.DonationType {
	f.t.Helper()

	now := time.Now().UTC()
	dt := models.DonationType{
		ID:                primitive.NewObjectID(),
		Name:              name,
		NameCI:            text.Fold(name),
		DefaultAmounts:    [4]int{500, 1000, 2000, 5000},
		ParishID:          parish.ID,
		ChurchID:          churchID,
		DioceseID:         parish.DioceseID,
		IsActive:          true,
		CreatedBy:         creatorID,
		CreatedByRole:     creatorRole,
		ValidatedByParish: validated,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if _, err := f.db.Collection("donation_types").InsertOne(ctx, dt); err != nil {
		f.t.Fatalf("failed to create test donation type: %v", err)
	}
	return dt
}

// CreatePrayerTime creates a test prayer time owned by the given parish.
func (f *Fixtures) CreatePrayerTime(ctx context.Context, name string, parish models.Parish, churchID *primitive.ObjectID, creatorID primitive.ObjectID, creatorRole string, validated bool) models.PrayerTime {
	f.t.Helper()

	now := time.Now().UTC()
	pt := models.PrayerTime{
		ID:                primitive.NewObjectID(),
		ParishID:          parish.ID,
		ChurchID:          churchID,
		DioceseID:         parish.DioceseID,
		Name:              name,
		Time:              "10:00",
		Days:              []string{"Dimanche"},
		Active:            true,
		CreatedBy:         creatorID,
		CreatedByRole:     creatorRole,
		ValidatedByParish: validated,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if _, err := f.db.Collection("prayer_times").InsertOne(ctx, pt); err != nil {
		f.t.Fatalf("failed to create test prayer time: %v", err)
	}
	return pt
}

// CreateNews creates a test news item scoped to the given parish.
func (f *Fixtures) CreateNews(ctx context.Context, title string, parish models.Parish, creatorID primitive.ObjectID, creatorRole string, published bool) models.News {
	f.t.Helper()

	now := time.Now().UTC()
	n := models.News{
		ID:            primitive.NewObjectID(),
		Scope:         models.NewsScopeParish,
		ParishID:      &parish.ID,
		DioceseID:     parish.DioceseID,
		Title:         title,
		TitleCI:       text.Fold(title),
		Content:       "<p>Contenu de test</p>",
		Excerpt:       "Contenu de test",
		Category:      "Annonce",
		Published:     published,
		CreatedBy:     creatorID,
		CreatedByRole: creatorRole,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if published {
		n.PublishedAt = &now
	}
	if _, err := f.db.Collection("parish_news").InsertOne(ctx, n); err != nil {
		f.t.Fatalf("failed to create test news: %v", err)
	}
	return n
}

// CreateDonation creates a test donation for the given parish.
func (f *Fixtures) CreateDonation(ctx context.Context, donorName string, amount int64, parish models.Parish, status string) models.Donation {
	f.t.Helper()

	now := time.Now().UTC()
	d := models.Donation{
		ID:        primitive.NewObjectID(),
		ReceiptNo: "SQ-" + primitive.NewObjectID().Hex()[:8],
		DonorName: donorName,
		Amount:    amount,
		Currency:  "XOF",
		Type:      "Quête",
		Status:    status,
		ParishID:  parish.ID,
		DioceseID: parish.DioceseID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("donations").InsertOne(ctx, d); err != nil {
		f.t.Fatalf("failed to create test donation: %v", err)
	}
	return d
}
