package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/daordonez11/noreinventeslarueda/internal/adapters/http/api"
	service "github.com/daordonez11/noreinventeslarueda/internal/app"
	"github.com/daordonez11/noreinventeslarueda/internal/domain/model"
	"github.com/daordonez11/noreinventeslarueda/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// newTestMux starts an in-memory service and registers the API on a fresh mux.
func newTestMux(t *testing.T) (*http.ServeMux, *service.Service) {
	t.Helper()
	svc := service.New()
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	return mux, svc
}

func do(mux *http.ServeMux, method, target, user string, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealthAndStats(t *testing.T) {
	Convey("Given a registered API", t, func() {
		mux, _ := newTestMux(t)

		Convey("When hitting /healthz", func() {
			rec := do(mux, http.MethodGet, "/healthz", "", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "ok")
		})

		Convey("When hitting /stats", func() {
			rec := do(mux, http.MethodGet, "/stats", "", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			stats := decode[map[string]any](t, rec)
			So(stats["started"], ShouldEqual, true)
			So(stats["service"], ShouldEqual, "curation")
			So(stats["uptime"], ShouldNotBeEmpty)
		})

		Convey("When hitting /metrics", func() {
			rec := do(mux, http.MethodGet, "/metrics", "", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "rueda_curation")
		})
	})
}

func TestLibraryEndpoints(t *testing.T) {
	Convey("Given a catalog with one category and two libraries", t, func() {
		ctx := context.Background()
		mux, svc := newTestMux(t)

		cat, err := svc.UpsertCategory(ctx, model.Category{Slug: "frontend", NameES: "Interfaz", NameEN: "Frontend"})
		So(err, ShouldBeNil)

		recent := time.Now().AddDate(0, 0, -5)
		strong, err := svc.UpsertLibrary(ctx, model.Library{
			Name: "react", CategoryID: cat.ID, Stars: 230_000, Forks: 47_000,
			DescriptionES: "Biblioteca para interfaces", DescriptionEN: "A library for interfaces",
			LastCommitDate: &recent,
		})
		So(err, ShouldBeNil)
		_, err = svc.UpsertLibrary(ctx, model.Library{
			Name: "preact", CategoryID: cat.ID, Stars: 37_000, Forks: 2_000,
			LastCommitDate: &recent,
		})
		So(err, ShouldBeNil)

		Convey("When listing the category", func() {
			rec := do(mux, http.MethodGet, "/api/libraries?category=frontend", "", "")
			So(rec.Code, ShouldEqual, http.StatusOK)

			var resp struct {
				Items []struct {
					Name   string `json:"name"`
					Scores struct {
						CurationScore int `json:"curationScore"`
					} `json:"scores"`
				} `json:"items"`
				Total int `json:"total"`
			}
			So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
			So(resp.Total, ShouldEqual, 2)
			So(resp.Items[0].Name, ShouldEqual, "react")
		})

		Convey("When listing an unknown category", func() {
			rec := do(mux, http.MethodGet, "/api/libraries?category=nope", "", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When passing a malformed page", func() {
			rec := do(mux, http.MethodGet, "/api/libraries?page=zero", "", "")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When fetching a single library in each locale", func() {
			rec := do(mux, http.MethodGet, "/api/libraries/"+strong.ID, "", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			es := decode[map[string]any](t, rec)
			So(es["description"], ShouldEqual, "Biblioteca para interfaces")

			rec = do(mux, http.MethodGet, "/api/libraries/"+strong.ID+"?locale=en", "", "")
			en := decode[map[string]any](t, rec)
			So(en["description"], ShouldEqual, "A library for interfaces")
		})

		Convey("When fetching a missing library", func() {
			rec := do(mux, http.MethodGet, "/api/libraries/does-not-exist", "", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When listing categories in English", func() {
			rec := do(mux, http.MethodGet, "/api/categories?locale=en", "", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "Frontend")
		})
	})
}

func TestVoteEndpoints(t *testing.T) {
	Convey("Given a catalog with a votable library", t, func() {
		ctx := context.Background()
		mux, svc := newTestMux(t)

		lib, err := svc.UpsertLibrary(ctx, model.Library{Name: "zustand", Stars: 40_000, Forks: 1_300})
		So(err, ShouldBeNil)
		votesPath := fmt.Sprintf("/api/libraries/%s/votes", lib.ID)

		Convey("When casting without a user header", func() {
			rec := do(mux, http.MethodPost, votesPath, "", `{"value":1}`)
			So(rec.Code, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("When casting an invalid value", func() {
			rec := do(mux, http.MethodPost, votesPath, "alice", `{"value":5}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When casting a valid upvote", func() {
			rec := do(mux, http.MethodPost, votesPath, "alice", `{"value":1}`)
			So(rec.Code, ShouldEqual, http.StatusCreated)

			Convey("Then the vote state should reflect it", func() {
				rec := do(mux, http.MethodGet, votesPath, "alice", "")
				So(rec.Code, ShouldEqual, http.StatusOK)

				var state struct {
					Upvotes int `json:"upvotes"`
					Total   int `json:"total"`
					MyVote  *struct {
						Value int `json:"value"`
					} `json:"my_vote"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &state), ShouldBeNil)
				So(state.Upvotes, ShouldEqual, 1)
				So(state.Total, ShouldEqual, 1)
				So(state.MyVote, ShouldNotBeNil)
				So(state.MyVote.Value, ShouldEqual, 1)
			})

			Convey("And toggling the same direction should clear it", func() {
				rec := do(mux, http.MethodPost, votesPath, "alice", `{"value":1,"toggle":true}`)
				So(rec.Code, ShouldEqual, http.StatusOK)

				state := decode[map[string]any](t, rec)
				So(state["total"], ShouldEqual, 0)
				So(state["my_vote"], ShouldBeNil)
			})

			Convey("And removing the vote should return no content", func() {
				rec := do(mux, http.MethodDelete, votesPath, "alice", "")
				So(rec.Code, ShouldEqual, http.StatusNoContent)

				rec = do(mux, http.MethodDelete, votesPath, "alice", "")
				So(rec.Code, ShouldEqual, http.StatusNoContent)
			})
		})
	})
}

func TestSearchEndpoint(t *testing.T) {
	Convey("Given a catalog with searchable libraries", t, func() {
		ctx := context.Background()
		mux, svc := newTestMux(t)

		_, err := svc.UpsertLibrary(ctx, model.Library{Name: "vitest", DescriptionEN: "Blazing fast unit testing", Stars: 13_000, Forks: 1_100})
		So(err, ShouldBeNil)

		Convey("When searching with a valid query", func() {
			rec := do(mux, http.MethodGet, "/api/search?q=test", "", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "vitest")
		})

		Convey("When the query is too short", func() {
			rec := do(mux, http.MethodGet, "/api/search?q=x", "", "")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(rec.Body.String(), ShouldContainSubstring, "query_too_short")
		})
	})
}

func TestAdminEndpoints(t *testing.T) {
	Convey("Given a registered API", t, func() {
		mux, _ := newTestMux(t)

		Convey("When upserting a category and a library", func() {
			rec := do(mux, http.MethodPost, "/admin/categories", "", `{"slug":"Testing","name_es":"Pruebas","name_en":"Testing"}`)
			So(rec.Code, ShouldEqual, http.StatusOK)
			cat := decode[model.Category](t, rec)
			So(cat.Slug, ShouldEqual, "testing")
			So(cat.ID, ShouldNotBeEmpty)

			body := fmt.Sprintf(`{"name":"mocha","category_id":%q,"stars":22000,"forks":3000,"github_id":1326928,"github_url":"https://github.com/mochajs/mocha"}`, cat.ID)
			rec = do(mux, http.MethodPost, "/admin/libraries", "", body)
			So(rec.Code, ShouldEqual, http.StatusOK)
			lib := decode[model.Library](t, rec)
			So(lib.ID, ShouldNotBeEmpty)
			So(lib.GithubID, ShouldEqual, int64(1326928))
			So(lib.GithubURL, ShouldEqual, "https://github.com/mochajs/mocha")

			Convey("Then the library should be listable", func() {
				rec := do(mux, http.MethodGet, "/api/libraries?category=testing", "", "")
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "mocha")
			})
		})

		Convey("When upserting invalid payloads", func() {
			rec := do(mux, http.MethodPost, "/admin/libraries", "", `{"stars":-1}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)

			rec = do(mux, http.MethodPost, "/admin/categories", "", `{"name_es":"sin slug"}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When invalidating scores", func() {
			rec := do(mux, http.MethodPost, "/admin/invalidate-scores", "", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "invalidated")
		})
	})
}
