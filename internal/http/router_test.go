package http_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/skillhub-backend/internal/data/aggregates"
	auditrepo "github.com/yungbote/skillhub-backend/internal/data/repos/audit"
	skillrepo "github.com/yungbote/skillhub-backend/internal/data/repos/skills"
	"github.com/yungbote/skillhub-backend/internal/data/repos/testutil"
	userrepo "github.com/yungbote/skillhub-backend/internal/data/repos/user"
	types "github.com/yungbote/skillhub-backend/internal/domain"
	"github.com/yungbote/skillhub-backend/internal/domain/user"
	apihttp "github.com/yungbote/skillhub-backend/internal/http"
	httpH "github.com/yungbote/skillhub-backend/internal/http/handlers"
	httpMW "github.com/yungbote/skillhub-backend/internal/http/middleware"
	"github.com/yungbote/skillhub-backend/internal/platform/blob"
	"github.com/yungbote/skillhub-backend/internal/platform/dbctx"
	"github.com/yungbote/skillhub-backend/internal/platform/embedding"
	"github.com/yungbote/skillhub-backend/internal/platform/vectorindex"
	"github.com/yungbote/skillhub-backend/internal/services"
)

const kubeReadme = "---\ndescription: Kubernetes deploy helper\n---\n# Kube\nRoll out deployments with kubectl.\n"

type apiFixture struct {
	t      *testing.T
	engine *gin.Engine
	users  userrepo.UserRepo
	auth   services.AuthService
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.SQLite(t)
	log := testutil.Logger(t)

	skills := skillrepo.NewSkillRepo(db, log)
	versions := skillrepo.NewSkillVersionRepo(db, log)
	embeddings := skillrepo.NewSkillEmbeddingRepo(db, log)
	users := userrepo.NewUserRepo(db, log)
	blobs := blob.NewMemoryStore()
	index := vectorindex.NewMemory()
	embedder := embedding.HashEmbedder{Dim: 256}
	agg := aggregates.NewSkillAggregate(aggregates.SkillAggregateDeps{
		Base:       aggregates.BaseDeps{DB: db, Log: log},
		Skills:     skills,
		Versions:   versions,
		Embeddings: embeddings,
		Users:      users,
		Audit:      auditrepo.NewAuditLogRepo(db, log),
	})
	auth := services.NewAuthService(log, users, "test-secret")

	publish := services.NewPublishService(services.PublishDeps{
		Log: log, Aggregate: agg, Blobs: blobs, Embedder: embedder, Index: index,
	})
	search := services.NewSearchService(services.SearchDeps{
		Log: log, Embedder: embedder, Index: index, Skills: skills, Versions: versions, Embeddings: embeddings,
	})
	query := services.NewSkillQueryService(services.SkillQueryDeps{
		Log: log, Skills: skills, Versions: versions, Users: users, Blobs: blobs,
	})
	admin := services.NewSkillAdminService(services.SkillAdminDeps{Log: log, Aggregate: agg, Index: index})

	engine := apihttp.NewRouter(apihttp.RouterConfig{
		Log:               log,
		AuthMiddleware:    httpMW.NewAuthMiddleware(log, auth),
		HealthHandler:     httpH.NewHealthHandler(nil),
		SkillHandler:      httpH.NewSkillHandler(log, query, search),
		PublishHandler:    httpH.NewPublishHandler(log, publish, services.NewUploadService(log, blobs)),
		SkillAdminHandler: httpH.NewSkillAdminHandler(log, admin),
		UserHandler:       httpH.NewUserHandler(services.NewUserService(log, users)),
	})
	return &apiFixture{t: t, engine: engine, users: users, auth: auth}
}

func (f *apiFixture) token(handle string, role user.Role) string {
	f.t.Helper()
	u := &types.User{Handle: handle, DisplayName: strings.ToUpper(handle), Role: role, Provider: user.ProviderOIDC}
	require.NoError(f.t, f.users.Create(dbctx.Context{Ctx: context.Background()}, u))
	tok, err := f.auth.IssueToken(u.ID, time.Hour)
	require.NoError(f.t, err)
	return tok
}

func (f *apiFixture) do(method, path, token, contentType string, body []byte) *httptest.ResponseRecorder {
	f.t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	env := decode(t, rec)
	return env["error"].(map[string]any)["message"].(string)
}

// publishKube uploads a readme and publishes it as kube@version.
func (f *apiFixture) publishKube(token, version string) map[string]any {
	f.t.Helper()
	up := f.do(http.MethodPost, "/api/v1/uploads", token, "text/markdown", []byte(kubeReadme))
	require.Equal(f.t, http.StatusOK, up.Code, up.Body.String())
	file := decode(f.t, up)
	file["path"] = "SKILL.md"

	body, err := json.Marshal(map[string]any{
		"slug":        "kube",
		"displayName": "Kube",
		"version":     version,
		"changelog":   "release " + version,
		"files":       []any{file},
	})
	require.NoError(f.t, err)
	rec := f.do(http.MethodPost, "/api/v1/skills/publish", token, "application/json", body)
	require.Equal(f.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode(f.t, rec)
}

func TestHealthcheck(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(http.MethodGet, "/healthcheck", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestWhoAmI(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(http.MethodGet, "/api/v1/whoami", "", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	tok := f.token("alice", user.RoleUser)
	rec = f.do(http.MethodGet, "/api/v1/whoami", tok, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	u := decode(t, rec)["user"].(map[string]any)
	require.Equal(t, "alice", u["handle"])
	require.Equal(t, "ALICE", u["displayName"])
}

func TestPublishSearchDownloadFlow(t *testing.T) {
	f := newAPIFixture(t)
	tok := f.token("alice", user.RoleUser)

	out := f.publishKube(tok, "1.0.0")
	require.Equal(t, true, out["ok"])
	require.NotEmpty(t, out["skillId"])
	require.NotEmpty(t, out["embeddingId"])

	rec := f.do(http.MethodGet, "/api/v1/skill?slug=KUBE", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	detail := decode(t, rec)
	require.Equal(t, "kube", detail["skill"].(map[string]any)["slug"])
	require.Equal(t, "Kubernetes deploy helper", detail["skill"].(map[string]any)["summary"])
	require.Equal(t, "1.0.0", detail["latestVersion"].(map[string]any)["version"])
	require.Equal(t, "alice", detail["owner"].(map[string]any)["handle"])

	rec = f.do(http.MethodGet, "/api/v1/search?q=kubernetes+deploy", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	results := decode(t, rec)["results"].([]any)
	require.Len(t, results, 1)
	hit := results[0].(map[string]any)
	require.Equal(t, "kube", hit["slug"])
	require.Equal(t, "1.0.0", hit["version"])

	rec = f.do(http.MethodGet, "/api/v1/download?slug=kube", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	require.Equal(t, `attachment; filename="kube-1.0.0.zip"`, rec.Header().Get("Content-Disposition"))
	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	require.Equal(t, "SKILL.md", zr.File[0].Name)
}

func TestSearchEmptyQuery(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(http.MethodGet, "/api/v1/search?q=++", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"results":[]}`, rec.Body.String())
}

func TestGetSkillErrors(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(http.MethodGet, "/api/v1/skill", "", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Missing slug", errorMessage(t, rec))

	rec = f.do(http.MethodGet, "/api/v1/skill?slug=nope", "", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Skill not found", errorMessage(t, rec))
}

func TestPublishRejectsBadBodies(t *testing.T) {
	f := newAPIFixture(t)
	tok := f.token("alice", user.RoleUser)

	rec := f.do(http.MethodPost, "/api/v1/skills/publish", tok, "application/json", []byte("{"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid JSON", errorMessage(t, rec))

	rec = f.do(http.MethodPost, "/api/v1/skills/publish", tok, "application/json",
		[]byte(`{"slug":"kube","displayName":"Kube","version":"1.0.0","changelog":"x"}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "files required", errorMessage(t, rec))

	rec = f.do(http.MethodPost, "/api/v1/skills/publish", "", "application/json", []byte("{}"))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestModerationRequiresElevatedRole(t *testing.T) {
	f := newAPIFixture(t)
	owner := f.token("alice", user.RoleUser)
	mod := f.token("mod", user.RoleModerator)
	skillID := f.publishKube(owner, "1.0.0")["skillId"].(string)

	path := "/api/v1/skills/" + skillID + "/approval"
	rec := f.do(http.MethodPost, path, owner, "application/json", []byte(`{"approved":true}`))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodPost, path, mod, "application/json", []byte(`{}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "approved required", errorMessage(t, rec))

	rec = f.do(http.MethodPost, path, mod, "application/json", []byte(`{"approved":true}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(http.MethodGet, "/api/v1/search?q=kubernetes&approvedOnly=true", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode(t, rec)["results"].([]any), 1)

	rec = f.do(http.MethodPost, "/api/v1/skills/not-a-uuid/approval", mod, "application/json", []byte(`{"approved":true}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid skill id", errorMessage(t, rec))
}
