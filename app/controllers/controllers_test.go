package controllers_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/decorhub/decorhub/app/graphql"
	"github.com/decorhub/decorhub/app/models"
	"github.com/decorhub/decorhub/app/repositories"
	"github.com/decorhub/decorhub/app/routes"
	"github.com/decorhub/decorhub/app/schema"
	"github.com/decorhub/decorhub/app/services"
	"github.com/decorhub/decorhub/internal/kernel"
	"github.com/decorhub/decorhub/pkg/auth"
	"github.com/decorhub/decorhub/pkg/event"
	"github.com/decorhub/decorhub/pkg/middleware"
	"github.com/decorhub/decorhub/pkg/session"
	"github.com/decorhub/decorhub/pkg/storage"
	"github.com/decorhub/decorhub/pkg/testkit"
	"github.com/decorhub/decorhub/pkg/ws"
)

func init() { auth.Cost = bcrypt.MinCost }

const cookieName = "decorhub_session"

type app struct {
	h         http.Handler
	store     *repositories.Store
	auth      *services.AuthService
	uploadDir string
}

func newApp(t *testing.T) *app {
	t.Helper()
	store := repositories.New(testkit.NewDB(t), repositories.Options{AcquireTimeout: 5 * time.Second})
	authSvc := services.NewAuthService(store)

	hub := ws.NewHub(ws.AllowOrigins([]string{"*"}))
	hubCtx, stop := context.WithCancel(context.Background())
	t.Cleanup(stop)
	go hub.Run(hubCtx)

	schemaGQL, err := graphql.NewSchema(store)
	require.NoError(t, err)

	dir := t.TempDir()
	k := kernel.NewHTTPKernel(routes.Deps{
		Store:     store,
		Auth:      authSvc,
		Inquiries: services.NewInquiryService(store, event.New()),
		Disk:      storage.NewLocalDisk(dir, "http://localhost:5000/storage"),
		Hub:       hub,
		GraphQL:   schemaGQL,
	}, session.DefaultOptions(session.NewMemoryStore()), middleware.CORSOptions{AllowedOrigins: []string{"*"}})

	return &app{h: k.Handler(), store: store, auth: authSvc, uploadDir: dir}
}

// login creates the user and returns its session cookie.
func (a *app) login(t *testing.T, username, role string) *http.Cookie {
	t.Helper()
	_, err := a.auth.CreateUser(context.Background(), schema.UserInput{Username: username, Password: "correct-horse", Role: role})
	require.NoError(t, err)

	rec := testkit.Call(t, a.h, http.MethodPost, "/api/login", map[string]string{"username": username, "password": "correct-horse"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	c := testkit.Cookie(rec, cookieName)
	require.NotNil(t, c)
	return c
}

func (a *app) seedCategory(t *testing.T) models.Category {
	t.Helper()
	c, err := a.store.CreateCategory(context.Background(), models.Category{
		Name: "arches", Description: "Arches", MainImage: "https://cdn.example.com/arches.jpg", TitleTranslationKey: "products.arches",
	})
	require.NoError(t, err)
	return c
}

// ── Public ───────────────────────────────────────────────────────────────────

func TestSubmitInquiry(t *testing.T) {
	a := newApp(t)
	rec := testkit.Call(t, a.h, http.MethodPost, "/api/inquiries", map[string]string{
		"name": "Maria", "email": "maria@example.com", "phone": "+1 555 0100", "message": "Wedding arch for June 12",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	got := testkit.DecodeJSON[map[string]interface{}](t, rec)
	assert.NotZero(t, got["id"])
	assert.Equal(t, "Maria", got["name"])
	assert.Equal(t, "maria@example.com", got["email"])
	assert.Equal(t, "+1 555 0100", got["phone"])
	assert.Equal(t, "Wedding arch for June 12", got["message"])
	assert.NotEmpty(t, got["createdAt"])
}

func TestSubmitInquiryValidation(t *testing.T) {
	a := newApp(t)
	rec := testkit.Call(t, a.h, http.MethodPost, "/api/inquiries", map[string]string{
		"name": "Maria", "phone": "+1 555 0100", "message": "hi",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := testkit.DecodeJSON[struct {
		Message string `json:"message"`
		Errors  []struct {
			Field string `json:"field"`
		} `json:"errors"`
	}](t, rec)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "email", body.Errors[0].Field)

	list, err := a.store.ListInquiries(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)

	rec = testkit.Call(t, a.h, http.MethodPost, "/api/inquiries", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPublicCatalog(t *testing.T) {
	a := newApp(t)
	cat := a.seedCategory(t)
	_, err := a.store.CreateProduct(context.Background(), models.Product{
		CategoryID: cat.ID, Title: "Gold hexagon arch", Description: "2.2m", Image: "https://cdn.example.com/hex.jpg",
	})
	require.NoError(t, err)

	rec := testkit.Call(t, a.h, http.MethodGet, "/api/categories", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, testkit.DecodeJSON[[]models.Category](t, rec), 1)

	rec = testkit.Call(t, a.h, http.MethodGet, "/api/products?categoryId=1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, testkit.DecodeJSON[[]models.Product](t, rec), 1)

	rec = testkit.Call(t, a.h, http.MethodGet, "/api/categories/1/products", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = testkit.Call(t, a.h, http.MethodGet, "/api/products?categoryId=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	for _, path := range []string{"/api/categories/999", "/api/categories/abc", "/api/products/0", "/api/categories/999/products"} {
		rec = testkit.Call(t, a.h, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}

	rec = testkit.Call(t, a.h, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEmptyListsAreArrays(t *testing.T) {
	a := newApp(t)
	rec := testkit.Call(t, a.h, http.MethodGet, "/api/products", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	testkit.AssertJSON(t, `[]`, rec)
}

// ── Auth ─────────────────────────────────────────────────────────────────────

func TestAdminRouteWithoutSessionIs401(t *testing.T) {
	a := newApp(t)
	rec := testkit.Call(t, a.h, http.MethodPost, "/api/admin/categories", map[string]string{
		"name": "arches", "description": "x", "mainImage": "https://cdn.example.com/a.jpg",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	list, err := a.store.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestLoginLogoutCycle(t *testing.T) {
	a := newApp(t)

	rec := testkit.Call(t, a.h, http.MethodGet, "/api/user", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	cookie := a.login(t, "admin", models.RoleAdmin)
	assert.True(t, cookie.HttpOnly)

	rec = testkit.Call(t, a.h, http.MethodGet, "/api/user", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	user := testkit.DecodeJSON[map[string]interface{}](t, rec)
	assert.Equal(t, "admin", user["username"])
	assert.NotContains(t, user, "password")

	rec = testkit.Call(t, a.h, http.MethodPost, "/api/logout", nil, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	expired := testkit.Cookie(rec, cookieName)
	require.NotNil(t, expired)
	assert.Equal(t, -1, expired.MaxAge)

	rec = testkit.Call(t, a.h, http.MethodGet, "/api/user", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginBadCredentials(t *testing.T) {
	a := newApp(t)
	a.login(t, "admin", models.RoleAdmin)

	rec := testkit.Call(t, a.h, http.MethodPost, "/api/login", map[string]string{"username": "admin", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, testkit.Cookie(rec, cookieName))

	rec = testkit.Call(t, a.h, http.MethodPost, "/api/login", map[string]string{"username": "ghost", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = testkit.Call(t, a.h, http.MethodPost, "/api/login", map[string]string{"username": "admin"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNonAdminIsForbidden(t *testing.T) {
	a := newApp(t)
	cookie := a.login(t, "viewer", models.RoleUser)

	rec := testkit.Call(t, a.h, http.MethodGet, "/api/admin/inquiries", nil, cookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// ── Admin ────────────────────────────────────────────────────────────────────

func TestUpdateMissingProductIs404(t *testing.T) {
	a := newApp(t)
	cookie := a.login(t, "admin", models.RoleAdmin)
	cat := a.seedCategory(t)

	rec := testkit.Call(t, a.h, http.MethodPut, "/api/admin/products/9999", map[string]interface{}{
		"categoryId": cat.ID, "title": "Arch", "description": "x", "image": "https://cdn.example.com/a.jpg",
	}, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
}

func TestAdminCategoryLifecycle(t *testing.T) {
	a := newApp(t)
	cookie := a.login(t, "admin", models.RoleAdmin)

	rec := testkit.Call(t, a.h, http.MethodPost, "/api/admin/categories", map[string]string{
		"name": "lighting", "description": "Fairy lights", "mainImage": "https://cdn.example.com/l.jpg",
	}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cat := testkit.DecodeJSON[models.Category](t, rec)
	assert.Equal(t, "products.lighting", cat.TitleTranslationKey)

	rec = testkit.Call(t, a.h, http.MethodPost, "/api/admin/products", map[string]interface{}{
		"categoryId": cat.ID, "title": "String lights", "description": "10m", "image": "https://cdn.example.com/s.jpg",
	}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	prod := testkit.DecodeJSON[models.Product](t, rec)

	rec = testkit.Call(t, a.h, http.MethodPost, "/api/admin/products", map[string]interface{}{
		"categoryId": 999, "title": "Orphan", "description": "x", "image": "https://cdn.example.com/o.jpg",
	}, cookie)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = testkit.Call(t, a.h, http.MethodDelete, "/api/admin/categories/"+itoa(cat.ID), nil, cookie)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = testkit.Call(t, a.h, http.MethodPut, "/api/admin/categories/"+itoa(cat.ID), map[string]string{
		"name": "lights", "description": "Warm lights", "mainImage": "https://cdn.example.com/l2.jpg",
	}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "lights", testkit.DecodeJSON[models.Category](t, rec).Name)

	rec = testkit.Call(t, a.h, http.MethodDelete, "/api/admin/products/"+itoa(prod.ID), nil, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = testkit.Call(t, a.h, http.MethodDelete, "/api/admin/products/"+itoa(prod.ID), nil, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = testkit.Call(t, a.h, http.MethodDelete, "/api/admin/categories/"+itoa(cat.ID), nil, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestContactSettings(t *testing.T) {
	a := newApp(t)
	cookie := a.login(t, "admin", models.RoleAdmin)

	rec := testkit.Call(t, a.h, http.MethodGet, "/api/contact", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	payload := map[string]interface{}{
		"phone": "+1 555 0100", "email": "hello@decor.example", "address": "1 Main St",
		"mapUrl":       "https://maps.example.com/x",
		"socialLinks":  map[string]string{"instagram": "https://instagram.com/decor"},
		"workingHours": map[string]string{"mon": "9-18"},
	}
	rec = testkit.Call(t, a.h, http.MethodPut, "/api/admin/contact", payload, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	payload["phone"] = "+1 555 0199"
	rec = testkit.Call(t, a.h, http.MethodPut, "/api/admin/contact", payload, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = testkit.Call(t, a.h, http.MethodGet, "/api/contact", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cs := testkit.DecodeJSON[models.ContactSettings](t, rec)
	assert.Equal(t, "+1 555 0199", cs.Phone)
	assert.Equal(t, "https://instagram.com/decor", cs.SocialLinks["instagram"])
}

func TestAdminListsInquiriesAndUsers(t *testing.T) {
	a := newApp(t)
	cookie := a.login(t, "admin", models.RoleAdmin)

	testkit.Call(t, a.h, http.MethodPost, "/api/inquiries", map[string]string{
		"name": "Maria", "email": "maria@example.com", "phone": "+1 555 0100", "message": "hi",
	})
	rec := testkit.Call(t, a.h, http.MethodGet, "/api/admin/inquiries", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, testkit.DecodeJSON[[]models.Inquiry](t, rec), 1)

	rec = testkit.Call(t, a.h, http.MethodGet, "/api/admin/users", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "correct-horse")
}

// ── Uploads ──────────────────────────────────────────────────────────────────

var pngPixel = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01, 0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4,
	0x89, 0x00, 0x00, 0x00, 0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae,
	0x42, 0x60, 0x82,
}

func upload(t *testing.T, h http.Handler, filename string, content []byte, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("folder", "products"))
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestUploadImage(t *testing.T) {
	a := newApp(t)
	cookie := a.login(t, "admin", models.RoleAdmin)

	rec := upload(t, a.h, "notes.txt", []byte("just some text"), cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"file"`)

	rec = upload(t, a.h, "pixel.png", pngPixel, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	up := testkit.DecodeJSON[struct {
		Path string `json:"path"`
		URL  string `json:"url"`
	}](t, rec)
	assert.Regexp(t, `^products/[0-9a-f]{32}\.png$`, up.Path)
	assert.Equal(t, "http://localhost:5000/storage/"+up.Path, up.URL)

	stored, err := os.ReadFile(filepath.Join(a.uploadDir, filepath.FromSlash(up.Path)))
	require.NoError(t, err)
	assert.Equal(t, pngPixel, stored)

	rec = testkit.Call(t, a.h, http.MethodGet, "/storage/"+up.Path, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pngPixel, rec.Body.Bytes())
}

// ── Ops ──────────────────────────────────────────────────────────────────────

func TestGraphQLEndpoint(t *testing.T) {
	a := newApp(t)
	a.seedCategory(t)

	rec := testkit.Call(t, a.h, http.MethodPost, "/graphql", map[string]string{"query": `{ categories { name } }`})
	require.Equal(t, http.StatusOK, rec.Code)
	testkit.AssertJSON(t, `{"data":{"categories":[{"name":"arches"}]}}`, rec)

	rec = testkit.Call(t, a.h, http.MethodPost, "/graphql", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	a := newApp(t)
	rec := testkit.Call(t, a.h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	testkit.AssertJSON(t, `{"status":"ok"}`, rec)

	testkit.Call(t, a.h, http.MethodGet, "/api/categories", nil)
	rec = testkit.Call(t, a.h, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `decorhub_http_requests_total`)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
