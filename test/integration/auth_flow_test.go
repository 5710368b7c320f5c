// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StudyReview Contributors

//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/studyreview/studyreview/internal/auth"
	authpg "github.com/studyreview/studyreview/internal/auth/postgres"
	"github.com/studyreview/studyreview/internal/httpapi"
	"github.com/studyreview/studyreview/internal/notify"
	"github.com/studyreview/studyreview/internal/observability"
	"github.com/studyreview/studyreview/internal/store"
)

const testSecret = "integration-secret-0123456789abcdef"

// testEnv holds the resources shared by the auth flow specs.
type testEnv struct {
	container *postgres.PostgresContainer
	pool      *pgxpool.Pool
	metrics   *observability.Metrics
	server    *httptest.Server
}

// apiResponse mirrors the JSON result envelope.
type apiResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

var env *testEnv

var _ = BeforeSuite(func() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("studyreview"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2)),
	)
	Expect(err).NotTo(HaveOccurred())
	env = &testEnv{container: container}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	Expect(err).NotTo(HaveOccurred())

	migrator, err := store.NewMigrator(connStr, nil)
	Expect(err).NotTo(HaveOccurred())
	Expect(migrator.Up()).To(Succeed())
	Expect(migrator.Close()).To(Succeed())

	env.pool, err = store.Connect(ctx, store.ConnectOptions{URL: connStr})
	Expect(err).NotTo(HaveOccurred())

	logger := slog.New(slog.DiscardHandler)
	tokens, err := auth.NewJWTIssuer(auth.TokenConfig{
		Secret: []byte(testSecret),
		TTL:    time.Hour,
		Issuer: "studyreview",
	})
	Expect(err).NotTo(HaveOccurred())

	env.metrics = observability.NewMetrics(prometheus.NewRegistry())
	svc, err := auth.NewService(
		authpg.NewStudentRepository(env.pool),
		auth.NewBoundedHasher(auth.NewArgon2idHasher(), 2),
		tokens,
		// Development cookies drop Secure so the jar sends them over plain HTTP.
		auth.NewCookieEncoder(true),
		auth.WithLogger(logger),
		auth.WithNotifier(notify.NewLogNotifier(logger)),
		auth.WithRecorder(env.metrics),
	)
	Expect(err).NotTo(HaveOccurred())

	env.server = httptest.NewServer(httpapi.New(svc,
		httpapi.WithLogger(logger),
		httpapi.WithObserver(env.metrics),
	))
})

var _ = AfterSuite(func() {
	if env == nil {
		return
	}
	if env.server != nil {
		env.server.Close()
	}
	if env.pool != nil {
		env.pool.Close()
	}
	if env.container != nil {
		Expect(env.container.Terminate(context.Background())).To(Succeed())
	}
})

func newClient() *http.Client {
	jar, err := cookiejar.New(nil)
	Expect(err).NotTo(HaveOccurred())
	return &http.Client{Jar: jar, Timeout: 30 * time.Second}
}

func postJSON(client *http.Client, path, body string) (*http.Response, apiResponse) {
	resp, err := client.Post(env.server.URL+path, "application/json", strings.NewReader(body))
	Expect(err).NotTo(HaveOccurred())
	return resp, decode(resp)
}

func getSession(client *http.Client, header string) (*http.Response, apiResponse) {
	req, err := http.NewRequest(http.MethodGet, env.server.URL+httpapi.RouteSession, nil)
	Expect(err).NotTo(HaveOccurred())
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := client.Do(req)
	Expect(err).NotTo(HaveOccurred())
	return resp, decode(resp)
}

func decode(resp *http.Response) apiResponse {
	defer resp.Body.Close() //nolint:errcheck // test cleanup
	raw, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	var out apiResponse
	Expect(json.Unmarshal(raw, &out)).To(Succeed(), "body: %s", raw)
	return out
}

func cleanStudents() {
	_, err := env.pool.Exec(context.Background(), "DELETE FROM students")
	Expect(err).NotTo(HaveOccurred())
}

var _ = Describe("Student authentication flow", Ordered, func() {
	var client *http.Client

	BeforeAll(func() {
		cleanStudents()
		client = newClient()
	})

	It("registers a new student", func() {
		resp, body := postJSON(client, httpapi.RouteRegister,
			`{"email":"Ada@Example.com","password":"correct-horse","institution":"TU Delft"}`)

		Expect(resp.StatusCode).To(Equal(http.StatusCreated))
		Expect(body.Status).To(Equal(string(auth.StatusOk)))
		Expect(body.Message).To(Equal(auth.MsgStudentRegistered))

		var student map[string]any
		Expect(json.Unmarshal(body.Data, &student)).To(Succeed())
		Expect(student).To(HaveKeyWithValue("email", "ada@example.com"))
		Expect(student).To(HaveKeyWithValue("institution", "TU Delft"))
		Expect(student).NotTo(HaveKey("password_hash"))
	})

	It("rejects the same email in another case", func() {
		resp, body := postJSON(client, httpapi.RouteRegister,
			`{"email":"ADA@example.com","password":"another-pass"}`)

		Expect(resp.StatusCode).To(Equal(http.StatusConflict))
		Expect(body.Status).To(Equal(string(auth.StatusError)))
		Expect(body.Message).To(Equal(auth.MsgEmailTaken))
		Expect(string(body.Data)).To(Equal("null"))
	})

	It("rejects a wrong password", func() {
		resp, body := postJSON(client, httpapi.RouteLogin,
			`{"email":"ada@example.com","password":"wrong-password"}`)

		Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		Expect(body.Message).To(Equal(auth.MsgAuthenticationFailed))
	})

	It("rejects an unknown email with the same message", func() {
		resp, body := postJSON(client, httpapi.RouteLogin,
			`{"email":"nobody@example.com","password":"correct-horse"}`)

		Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		Expect(body.Message).To(Equal(auth.MsgAuthenticationFailed))
	})

	It("logs in and sets the session cookie", func() {
		resp, body := postJSON(client, httpapi.RouteLogin,
			`{"email":"ada@EXAMPLE.com","password":"correct-horse"}`)

		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body.Message).To(Equal(auth.MsgAuthenticationSuccess))

		var cookie *http.Cookie
		for _, c := range resp.Cookies() {
			if c.Name == auth.CookieName {
				cookie = c
			}
		}
		Expect(cookie).NotTo(BeNil())
		Expect(cookie.HttpOnly).To(BeTrue())
		Expect(cookie.SameSite).To(Equal(http.SameSiteStrictMode))
	})

	It("validates the session from the cookie", func() {
		resp, body := getSession(client, "")

		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body.Message).To(Equal(auth.MsgStudentFound))
		Expect(string(body.Data)).To(ContainSubstring(`"email":"ada@example.com"`))
	})

	It("rejects a forged bearer token", func() {
		resp, body := getSession(newClient(), "Bearer not.a.token")

		Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		Expect(body.Message).To(Equal(auth.MsgTokenInvalid))
	})

	It("returns no student once the account is gone", func() {
		cleanStudents()

		resp, body := getSession(client, "")

		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(string(body.Data)).To(Equal("null"))
	})

	It("counts every operation", func() {
		Expect(testutil.ToFloat64(env.metrics.AuthOperations.WithLabelValues(
			auth.OpRegister, string(auth.StatusOk), "none"))).To(BeNumerically(">=", 1))
		Expect(testutil.ToFloat64(env.metrics.HTTPRequests.WithLabelValues(
			http.MethodPost, httpapi.RouteLogin, "401"))).To(BeNumerically("==", 2))
	})
})

var _ = Describe("Registration with a study program", func() {
	BeforeEach(cleanStudents)

	It("links an existing program", func() {
		var programID int64
		err := env.pool.QueryRow(context.Background(),
			`INSERT INTO study_programs (name, institution) VALUES ($1, $2) RETURNING id`,
			"Computer Science", "TU Delft").Scan(&programID)
		Expect(err).NotTo(HaveOccurred())

		resp, body := postJSON(newClient(), httpapi.RouteRegister,
			`{"email":"grace@example.com","password":"correct-horse","study_program_id":`+
				jsonInt(programID)+`}`)

		Expect(resp.StatusCode).To(Equal(http.StatusCreated))
		Expect(string(body.Data)).To(ContainSubstring(`"study_program_id":` + jsonInt(programID)))
	})

	It("rejects an unknown program", func() {
		resp, body := postJSON(newClient(), httpapi.RouteRegister,
			`{"email":"linus@example.com","password":"correct-horse","study_program_id":999999}`)

		Expect(resp.StatusCode).To(Equal(http.StatusUnprocessableEntity))
		Expect(body.Message).To(Equal(auth.MsgUnknownStudyProgram))
	})
})

func jsonInt(v int64) string {
	out, err := json.Marshal(v)
	Expect(err).NotTo(HaveOccurred())
	return string(out)
}
