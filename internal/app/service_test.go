package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	service "github.com/daordonez11/noreinventeslarueda/internal/app"
	"github.com/daordonez11/noreinventeslarueda/internal/domain/model"
	"github.com/daordonez11/noreinventeslarueda/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func startedService(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()
		defer svc.Stop()

		Convey("When starting it", func() {
			err := svc.Start(context.Background())

			Convey("Then it should start and report stats", func() {
				So(err, ShouldBeNil)
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
			})

			Convey("And starting again should be a no-op", func() {
				So(svc.Start(context.Background()), ShouldBeNil)
			})
		})
	})

	Convey("Given a service with the seed enabled", t, func() {
		svc := service.New(service.WithSeed(true))
		defer svc.Stop()

		Convey("When starting it", func() {
			So(svc.Start(context.Background()), ShouldBeNil)

			Convey("Then the catalog should be populated", func() {
				cats, err := svc.Categories(context.Background())
				So(err, ShouldBeNil)
				So(len(cats), ShouldBeGreaterThan, 0)

				stats := svc.GetStats()
				So(stats["libraries"], ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestService_VotingFlow(t *testing.T) {
	Convey("Given a started service with one library", t, func() {
		ctx := context.Background()
		svc := startedService(t)

		lib, err := svc.UpsertLibrary(ctx, model.Library{Name: "chi", Stars: 20_000, Forks: 1_100})
		So(err, ShouldBeNil)

		Convey("When a user casts and another toggles", func() {
			_, err := svc.CastVote(ctx, "alice", lib.ID, model.Upvote)
			So(err, ShouldBeNil)

			vote, err := svc.ToggleVote(ctx, "bob", lib.ID, model.Upvote)
			So(err, ShouldBeNil)
			So(vote, ShouldNotBeNil)

			Convey("Then counts and the denormalized sum should agree", func() {
				counts, err := svc.VoteCounts(ctx, lib.ID)
				So(err, ShouldBeNil)
				So(counts.Upvotes, ShouldEqual, 2)
				So(counts.Downvotes, ShouldEqual, 0)

				view, err := svc.GetLibrary(ctx, lib.ID)
				So(err, ShouldBeNil)
				So(view.Library.CommunityVotesSum, ShouldEqual, counts.Total)
			})

			Convey("And toggling the held direction should clear it", func() {
				cleared, err := svc.ToggleVote(ctx, "bob", lib.ID, model.Upvote)
				So(err, ShouldBeNil)
				So(cleared, ShouldBeNil)

				_, err = svc.UserVote(ctx, "bob", lib.ID)
				So(err, ShouldNotBeNil)
			})

			Convey("And removal should be idempotent", func() {
				So(svc.RemoveVote(ctx, "alice", lib.ID), ShouldBeNil)
				So(svc.RemoveVote(ctx, "alice", lib.ID), ShouldBeNil)

				counts, err := svc.VoteCounts(ctx, lib.ID)
				So(err, ShouldBeNil)
				So(counts.Upvotes, ShouldEqual, 1) // bob's vote remains
			})
		})
	})
}

func TestService_Listings(t *testing.T) {
	Convey("Given a started service with a scored category", t, func() {
		ctx := context.Background()
		svc := startedService(t)

		cat, err := svc.UpsertCategory(ctx, model.Category{Slug: "backend", NameES: "Servidor", NameEN: "Backend"})
		So(err, ShouldBeNil)

		recent := time.Now().AddDate(0, 0, -3)
		stale := time.Now().AddDate(-3, 0, 0)
		deprecated := time.Now().AddDate(0, -2, 0)

		fixtures := []model.Library{
			{Name: "alpha", CategoryID: cat.ID, Stars: 50_000, Forks: 5_000, LastCommitDate: &recent},
			{Name: "beta", CategoryID: cat.ID, Stars: 10_000, Forks: 900, LastCommitDate: &recent},
			{Name: "gamma", CategoryID: cat.ID, Stars: 60_000, Forks: 200, LastCommitDate: &stale, DeprecatedAt: &deprecated},
		}
		ids := make(map[string]string)
		for _, lib := range fixtures {
			created, err := svc.UpsertLibrary(ctx, lib)
			So(err, ShouldBeNil)
			ids[created.Name] = created.ID
		}

		Convey("When listing by curation score", func() {
			res, err := svc.ListLibraries(ctx, service.ListOptions{
				CategorySlug:      "backend",
				Sort:              service.SortCurationScore,
				IncludeDeprecated: true,
			})
			So(err, ShouldBeNil)

			Convey("Then the deprecated library should sort last with score zero", func() {
				So(len(res.Items), ShouldEqual, 3)
				last := res.Items[len(res.Items)-1]
				So(last.Library.Name, ShouldEqual, "gamma")
				So(last.Scores.CurationScore, ShouldEqual, 0)
			})

			Convey("And the strongest library should lead", func() {
				So(res.Items[0].Library.Name, ShouldEqual, "alpha")
			})
		})

		Convey("When excluding deprecated entries", func() {
			res, err := svc.ListLibraries(ctx, service.ListOptions{CategorySlug: "backend"})
			So(err, ShouldBeNil)
			So(res.Total, ShouldEqual, 2)
		})

		Convey("When paginating", func() {
			res, err := svc.ListLibraries(ctx, service.ListOptions{
				CategorySlug: "backend",
				Limit:        1,
				Page:         2,
			})
			So(err, ShouldBeNil)
			So(len(res.Items), ShouldEqual, 1)
			So(res.Pages, ShouldEqual, 2)
			So(res.Page, ShouldEqual, 2)
		})

		Convey("When listing an unknown category", func() {
			_, err := svc.ListLibraries(ctx, service.ListOptions{CategorySlug: "nope"})
			So(err, ShouldNotBeNil)
		})

		Convey("When sorting by stars", func() {
			res, err := svc.ListLibraries(ctx, service.ListOptions{
				CategorySlug:      "backend",
				Sort:              service.SortStars,
				IncludeDeprecated: true,
			})
			So(err, ShouldBeNil)
			So(res.Items[0].Library.Name, ShouldEqual, "gamma")
		})
	})
}

func TestService_Search(t *testing.T) {
	Convey("Given a started service with searchable entries", t, func() {
		ctx := context.Background()
		svc := startedService(t)

		fixtures := []model.Library{
			{Name: "vitest", DescriptionES: "Pruebas unitarias ultrarrápidas", Stars: 13_000, Forks: 1_200},
			{Name: "jest", DescriptionEN: "Delightful JavaScript testing", Stars: 44_000, Forks: 6_500},
			{Name: "gorm", DescriptionES: "ORM para Go", Stars: 36_000, Forks: 3_900},
		}
		for _, lib := range fixtures {
			_, err := svc.UpsertLibrary(ctx, lib)
			So(err, ShouldBeNil)
		}

		Convey("When searching for testing libraries", func() {
			hits, err := svc.Search(ctx, "test")
			So(err, ShouldBeNil)

			Convey("Then both matches should come back, best first", func() {
				So(len(hits), ShouldEqual, 2)
				So(hits[0].Library.Name, ShouldEqual, "jest")
			})
		})

		Convey("When the query is too short", func() {
			_, err := svc.Search(ctx, "x")
			So(errors.Is(err, service.ErrQueryTooShort), ShouldBeTrue)
		})
	})
}

func TestService_ScoreCacheLifecycle(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := startedService(t)

		lib, err := svc.UpsertLibrary(ctx, model.Library{Name: "redux", Stars: 60_000, Forks: 15_000})
		So(err, ShouldBeNil)

		Convey("When reading the same library twice", func() {
			first, err := svc.GetLibrary(ctx, lib.ID)
			So(err, ShouldBeNil)
			second, err := svc.GetLibrary(ctx, lib.ID)
			So(err, ShouldBeNil)

			Convey("Then the cached result should match the computed one", func() {
				So(second.Scores, ShouldResemble, first.Scores)
			})
		})

		Convey("When invalidating in bulk", func() {
			_, err := svc.GetLibrary(ctx, lib.ID)
			So(err, ShouldBeNil)

			svc.InvalidateScores(ctx)

			Convey("Then reads should still produce identical results", func() {
				again, err := svc.GetLibrary(ctx, lib.ID)
				So(err, ShouldBeNil)
				So(again.Library.ID, ShouldEqual, lib.ID)
				So(again.Scores.CurationScore, ShouldBeBetweenOrEqual, 0, 100)
			})
		})
	})
}
