package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/creatorscore/engine/internal/adapters/http/api"
	"github.com/creatorscore/engine/internal/adapters/repository"
	"github.com/creatorscore/engine/internal/domain/badge"
	"github.com/creatorscore/engine/internal/domain/model"
	"github.com/creatorscore/engine/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing
type mockDeps struct {
	entries    []types.Entry
	summary    types.RewardSummary
	badges     []badge.Badge
	optOutErr  error
	recorded   []string
	lookupFail bool
}

func (m *mockDeps) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	if n > len(m.entries) {
		return m.entries, nil
	}
	return m.entries[:n], nil
}

func (m *mockDeps) Entry(ctx context.Context, talentUUID string) (types.Entry, error) {
	for _, e := range m.entries {
		if e.TalentUUID == talentUUID {
			return e, nil
		}
	}
	return types.Entry{}, fmt.Errorf("creator not found: %s", talentUUID)
}

func (m *mockDeps) RewardSummary(ctx context.Context, talentUUID string) (types.RewardSummary, error) {
	if m.lookupFail {
		return types.RewardSummary{}, fmt.Errorf("creator not found: %s", talentUUID)
	}
	return m.summary, nil
}

func (m *mockDeps) BadgeProgress(ctx context.Context, talentUUID string) ([]badge.Badge, error) {
	if m.lookupFail {
		return nil, fmt.Errorf("creator not found: %s", talentUUID)
	}
	return m.badges, nil
}

func (m *mockDeps) RecordOptOut(ctx context.Context, talentUUID string, status model.DecisionStatus) error {
	if m.optOutErr != nil {
		return m.optOutErr
	}
	m.recorded = append(m.recorded, talentUUID+":"+string(status))
	return nil
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func newTestServer(deps *mockDeps) *httptest.Server {
	server := api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}, 100)
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func sampleEntries() []types.Entry {
	return []types.Entry{
		{Rank: 1, TalentUUID: "a", DisplayName: "Ada", Score: 300, PayableReward: 480, DisplayReward: "480"},
		{Rank: 2, TalentUUID: "b", DisplayName: "Ben", Score: 100, PayableReward: 160, DisplayReward: "160"},
		{Rank: 2, TalentUUID: "c", DisplayName: "Cyd", Score: 100, PayableReward: 160, DisplayReward: "160"},
	}
}

func TestLeaderboardEndpoint(t *testing.T) {
	Convey("Given a server with three ranked creators", t, func() {
		srv := newTestServer(&mockDeps{entries: sampleEntries()})
		defer srv.Close()

		Convey("When the top two are requested", func() {
			resp, err := http.Get(srv.URL + "/leaderboard?limit=2")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then two entries come back in order", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var got []types.Entry
				So(json.NewDecoder(resp.Body).Decode(&got), ShouldBeNil)
				So(got, ShouldHaveLength, 2)
				So(got[0].TalentUUID, ShouldEqual, "a")
				So(got[0].DisplayReward, ShouldEqual, "480")
			})
		})

		Convey("When the limit is missing", func() {
			resp, err := http.Get(srv.URL + "/leaderboard")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the limit exceeds the maximum", func() {
			resp, err := http.Get(srv.URL + "/leaderboard?limit=5000")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			var body map[string]string
			So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
			So(body["code"], ShouldEqual, "limit_exceeded")
		})
	})
}

func TestRankEndpoint(t *testing.T) {
	Convey("Given a server with ranked creators", t, func() {
		srv := newTestServer(&mockDeps{entries: sampleEntries()})
		defer srv.Close()

		Convey("When an existing creator is fetched", func() {
			resp, err := http.Get(srv.URL + "/rank/b")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			var got types.Entry
			So(json.NewDecoder(resp.Body).Decode(&got), ShouldBeNil)
			So(got.Rank, ShouldEqual, 2)
		})

		Convey("When an unknown creator is fetched", func() {
			resp, err := http.Get(srv.URL + "/rank/nobody")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the path parameter is missing", func() {
			resp, err := http.Get(srv.URL + "/rank/")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestRewardsEndpoint(t *testing.T) {
	Convey("Given a server with a reward summary", t, func() {
		deps := &mockDeps{
			summary: types.RewardSummary{
				TalentUUID:    "b",
				Rank:          2,
				Decision:      "opted_out",
				FinalReward:   160,
				PayableReward: 0,
				DisplayReward: "160",
				TotalPool:     800,
				DonatedPool:   160,
			},
		}
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When the summary is fetched", func() {
			resp, err := http.Get(srv.URL + "/rewards/b")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			var got types.RewardSummary
			So(json.NewDecoder(resp.Body).Decode(&got), ShouldBeNil)
			So(got.Decision, ShouldEqual, "opted_out")
			So(got.DonatedPool, ShouldEqual, 160)
		})

		Convey("When the creator is unknown", func() {
			deps.lookupFail = true
			resp, err := http.Get(srv.URL + "/rewards/nobody")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestOptOutEndpoint(t *testing.T) {
	Convey("Given a server accepting decisions", t, func() {
		deps := &mockDeps{}
		srv := newTestServer(deps)
		defer srv.Close()

		post := func(body string) *http.Response {
			resp, err := http.Post(srv.URL+"/optout", "application/json", strings.NewReader(body))
			So(err, ShouldBeNil)
			return resp
		}

		Convey("When a valid opt-out is posted", func() {
			resp := post(`{"talent_uuid":"b","decision":"opted_out"}`)
			defer resp.Body.Close()

			Convey("Then the decision is recorded and acknowledged", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(deps.recorded, ShouldResemble, []string{"b:opted_out"})

				var body map[string]string
				So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
				So(body["status"], ShouldEqual, "recorded")
			})
		})

		Convey("When the decision value is unknown", func() {
			resp := post(`{"talent_uuid":"b","decision":"maybe"}`)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the talent_uuid is missing", func() {
			resp := post(`{"decision":"opted_out"}`)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the body is not JSON", func() {
			resp := post(`not json`)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the decision is already final", func() {
			deps.optOutErr = repository.ErrDecisionFinal
			resp := post(`{"talent_uuid":"b","decision":"opted_in"}`)
			defer resp.Body.Close()

			Convey("Then the conflict surfaces as 409", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusConflict)
				var body map[string]string
				So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
				So(body["code"], ShouldEqual, "decision_final")
			})
		})

		Convey("When the endpoint is hit with GET", func() {
			resp, err := http.Get(srv.URL + "/optout")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestBadgesEndpoint(t *testing.T) {
	Convey("Given a server with badge progress", t, func() {
		deps := &mockDeps{
			badges: []badge.Badge{
				{Slug: "top-200", Title: "Top 200", Earned: true, Progress: 1},
				{Slug: "top-10", Title: "Top 10", Earned: false, Progress: 0.5},
			},
		}
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When badges are fetched", func() {
			resp, err := http.Get(srv.URL + "/badges/a")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			var got []badge.Badge
			So(json.NewDecoder(resp.Body).Decode(&got), ShouldBeNil)
			So(got, ShouldHaveLength, 2)
			So(got[0].Earned, ShouldBeTrue)
		})
	})
}

func TestStatsEndpoint(t *testing.T) {
	Convey("Given a server with stats", t, func() {
		srv := newTestServer(&mockDeps{})
		defer srv.Close()

		Convey("When stats are fetched", func() {
			resp, err := http.Get(srv.URL + "/stats")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			var got map[string]interface{}
			So(json.NewDecoder(resp.Body).Decode(&got), ShouldBeNil)
			So(got["started"], ShouldEqual, true)
		})
	})
}

func TestHealthEndpoint(t *testing.T) {
	Convey("Given a running server", t, func() {
		srv := newTestServer(&mockDeps{})
		defer srv.Close()

		Convey("When the health endpoint is hit", func() {
			resp, err := http.Get(srv.URL + "/healthz")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})
	})
}
