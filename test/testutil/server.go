package testutil

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fhuszti/uploads-ms-go/internal/api_context"
	"github.com/fhuszti/uploads-ms-go/internal/handler/api"
	"github.com/fhuszti/uploads-ms-go/internal/metrics"
	cMiddleware "github.com/fhuszti/uploads-ms-go/internal/middleware"
	"github.com/fhuszti/uploads-ms-go/internal/port"
	"github.com/fhuszti/uploads-ms-go/internal/renderer"
	"github.com/fhuszti/uploads-ms-go/internal/repository/mariadb"
	uploadSvc "github.com/fhuszti/uploads-ms-go/internal/usecase/upload"
)

// APIServer is the uploads API wired to real backends, authenticating every
// request as OwnerID.
type APIServer struct {
	URL     string
	OwnerID string
	Metrics port.UploadMetrics
}

func StartAPIServer(t *testing.T, db *sql.DB, strg port.Storage, keys port.KeyRegistry, tasks port.TaskDispatcher, ownerID string) *APIServer {
	t.Helper()

	rec, err := metrics.NewRecorder(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}

	repo := mariadb.NewRecordRepository(db)
	cleanerSvc := uploadSvc.NewCleaner(repo, strg, keys, rec)
	authorizerSvc := uploadSvc.NewAuthorizer(strg, keys, rec, 15*time.Minute, 15*time.Minute)
	committerSvc := uploadSvc.NewCommitter(repo, strg, keys, tasks, cleanerSvc, rec)
	getterSvc := uploadSvc.NewRecordGetter(repo)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(api_context.WithAuthUserID(r.Context(), ownerID)))
		})
	})
	r.NotFound(api.NotFoundHandler())
	r.MethodNotAllowed(api.MethodNotAllowedHandler())

	r.Post("/upload/authorize", api.AuthorizeUploadHandler(authorizerSvc))
	r.Post("/upload/commit", api.CommitUploadHandler(committerSvc))
	r.Post("/upload/cleanup", api.CleanupUploadHandler(cleanerSvc))
	r.Get("/records", api.ListRecordsHandler(getterSvc))
	r.With(cMiddleware.WithRecordID()).
		Get("/records/{id}", api.GetRecordHandler(renderer.NewHTTPRenderer(), getterSvc))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &APIServer{URL: srv.URL, OwnerID: ownerID, Metrics: rec}
}
