package talent_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"

	"github.com/creatorscore/engine/internal/adapters/cache"
	"github.com/creatorscore/engine/internal/adapters/talent"
	"github.com/creatorscore/engine/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	os.Exit(m.Run())
}

type fakeProfile struct {
	ID          string   `json:"id,omitempty"`
	TalentUUID  string   `json:"talent_uuid,omitempty"`
	DisplayName string   `json:"display_name,omitempty"`
	Name        string   `json:"name,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
	Score       *float64 `json:"score,omitempty"`
}

func score(v float64) *float64 { return &v }

// pagedServer serves profiles in pages of pageSize, counting requests.
func pagedServer(profiles []fakeProfile, pageSize int, requests *int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*requests++
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		start := (page - 1) * pageSize
		end := start + pageSize
		if start > len(profiles) {
			start = len(profiles)
		}
		if end > len(profiles) {
			end = len(profiles)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"profiles": profiles[start:end]})
	}))
}

func TestTopCreators(t *testing.T) {
	ctx := context.Background()

	Convey("Given a paginated profile API", t, func() {
		var profiles []fakeProfile
		for i := 0; i < 7; i++ {
			profiles = append(profiles, fakeProfile{
				TalentUUID:  fmt.Sprintf("uuid-%d", i),
				DisplayName: fmt.Sprintf("creator %d", i),
				Score:       score(float64(100 - i)),
			})
		}
		var requests int
		srv := pagedServer(profiles, 3, &requests)
		defer srv.Close()

		client := talent.NewClient(srv.URL, "test-key",
			talent.WithPageSize(3),
			talent.WithRequestsPerSecond(1000),
		)

		Convey("When five creators are requested", func() {
			res, err := client.TopCreators(ctx, 5)
			So(err, ShouldBeNil)

			Convey("Then exactly five normalized entries come back", func() {
				So(res.Entries, ShouldHaveLength, 5)
				So(res.ShortCount, ShouldBeFalse)
				So(res.Entries[0].ID, ShouldEqual, "uuid-0")
				So(res.Entries[0].DisplayName, ShouldEqual, "creator 0")
				So(res.Entries[0].Score, ShouldEqual, 100)
			})

			Convey("And pagination stopped once enough were collected", func() {
				So(requests, ShouldEqual, 2)
			})
		})

		Convey("When more creators are requested than exist", func() {
			res, err := client.TopCreators(ctx, 20)
			So(err, ShouldBeNil)

			Convey("Then the short count is flagged, not fatal", func() {
				So(res.Entries, ShouldHaveLength, 7)
				So(res.ShortCount, ShouldBeTrue)
			})
		})

		Convey("When a cache is attached", func() {
			cached := talent.NewClient(srv.URL, "test-key",
				talent.WithPageSize(3),
				talent.WithRequestsPerSecond(1000),
				talent.WithCache(cache.NewTTLCache(cache.WithName("scores"))),
			)
			_, err := cached.TopCreators(ctx, 5)
			So(err, ShouldBeNil)
			before := requests

			Convey("Then a repeat fetch is served from cache", func() {
				res, err := cached.TopCreators(ctx, 5)
				So(err, ShouldBeNil)
				So(res.Entries, ShouldHaveLength, 5)
				So(requests, ShouldEqual, before)
			})

			Convey("And invalidation forces a refetch", func() {
				cached.InvalidateCache()
				_, err := cached.TopCreators(ctx, 5)
				So(err, ShouldBeNil)
				So(requests, ShouldBeGreaterThan, before)
			})
		})

		Convey("When zero creators are requested", func() {
			_, err := client.TopCreators(ctx, 0)

			Convey("Then the request is rejected", func() {
				So(errors.Is(err, talent.ErrBadRequest), ShouldBeTrue)
			})
		})
	})

	Convey("Given loose profile payloads", t, func() {
		Convey("When display_name is missing", func() {
			var requests int
			srv := pagedServer([]fakeProfile{
				{ID: "fallback-id", Name: "plain name", Score: score(10)},
				{ID: "bare", Score: score(5)},
			}, 25, &requests)
			defer srv.Close()

			client := talent.NewClient(srv.URL, "k", talent.WithRequestsPerSecond(1000))
			res, err := client.TopCreators(ctx, 2)
			So(err, ShouldBeNil)

			Convey("Then name falls back, then the id", func() {
				So(res.Entries[0].DisplayName, ShouldEqual, "plain name")
				So(res.Entries[1].DisplayName, ShouldEqual, "bare")
			})
		})

		Convey("When a profile carries a negative score", func() {
			var requests int
			srv := pagedServer([]fakeProfile{
				{ID: "bad", Score: score(-1)},
			}, 25, &requests)
			defer srv.Close()

			client := talent.NewClient(srv.URL, "k", talent.WithRequestsPerSecond(1000))
			_, err := client.TopCreators(ctx, 1)

			Convey("Then normalization fails loudly naming the profile", func() {
				So(errors.Is(err, talent.ErrMalformedProfile), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "bad")
			})
		})

		Convey("When a profile has no score at all", func() {
			var requests int
			srv := pagedServer([]fakeProfile{{ID: "scoreless"}}, 25, &requests)
			defer srv.Close()

			client := talent.NewClient(srv.URL, "k", talent.WithRequestsPerSecond(1000))
			_, err := client.TopCreators(ctx, 1)

			Convey("Then the fetch fails with a malformed profile error", func() {
				So(errors.Is(err, talent.ErrMalformedProfile), ShouldBeTrue)
			})
		})
	})

	Convey("Given an API that returns server errors", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		client := talent.NewClient(srv.URL, "k", talent.WithRequestsPerSecond(1000))
		_, err := client.TopCreators(ctx, 1)

		Convey("Then the failure is surfaced as unavailable", func() {
			So(errors.Is(err, talent.ErrUnavailable), ShouldBeTrue)
		})
	})
}
