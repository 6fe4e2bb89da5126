//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/freeeve/squadplan/internal/model"
	"github.com/freeeve/squadplan/internal/testutil"
	"github.com/freeeve/squadplan/pkg/squad"
)

var testRDB *goredis.Client

func setup(t *testing.T) *Client {
	t.Helper()
	if testRDB == nil {
		testRDB = testutil.SetupRedis(t)
	}
	testutil.CleanupRedis(t, testRDB)
	return NewClientFromPool(testRDB)
}

func samplePlan(fp string) *model.Plan {
	return &model.Plan{
		ID:          "6f1c1f8e-8a7b-4a51-9d44-0a0e6f0d9a01",
		ClientID:    "client-1",
		Fingerprint: fp,
		Request: squad.Request{
			Roles:       []string{"Soldier", "Natural Scientist", "Social Scientist"},
			LeaderLevel: 50,
			OthersLevel: 50,
			SuccessTier: "100%",
		},
		Result: squad.Result{
			Hazard:     squad.Negotiation,
			Guaranteed: 12,
			Worst:      12.4,
			Leader:     squad.Allocation{Power: 40, Athletics: 30, Wit: 36},
			Others:     squad.Allocation{Power: 35, Athletics: 35, Wit: 35},
		},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestPlanRoundTrip(t *testing.T) {
	c := setup(t)
	ctx := context.Background()

	want := samplePlan("fp-1")
	if err := c.SetPlan(ctx, want, time.Minute); err != nil {
		t.Fatalf("set plan: %v", err)
	}
	got, err := c.GetPlan(ctx, "fp-1")
	if err != nil {
		t.Fatalf("get plan: %v", err)
	}
	if got == nil {
		t.Fatal("expected cached plan")
	}
	if got.ID != want.ID || got.Result.Guaranteed != 12 || got.Result.Leader != want.Result.Leader {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
	if got.Request.Roles[1] != "Natural Scientist" {
		t.Errorf("roles = %v", got.Request.Roles)
	}
}

func TestPlanMiss(t *testing.T) {
	c := setup(t)
	got, err := c.GetPlan(context.Background(), "nope")
	if err != nil {
		t.Fatalf("get missing plan: %v", err)
	}
	if got != nil {
		t.Fatal("expected nil for missing plan")
	}
}

func TestPlanTTL(t *testing.T) {
	c := setup(t)
	ctx := context.Background()

	if err := c.SetPlan(ctx, samplePlan("fp-ttl"), 30*time.Second); err != nil {
		t.Fatalf("set plan: %v", err)
	}
	ttl, err := testRDB.TTL(ctx, planKey("fp-ttl")).Result()
	if err != nil {
		t.Fatalf("ttl: %v", err)
	}
	if ttl <= 0 || ttl > 30*time.Second {
		t.Errorf("ttl = %v, want within (0, 30s]", ttl)
	}
}

func TestPlanInvalidate(t *testing.T) {
	c := setup(t)
	ctx := context.Background()

	c.SetPlan(ctx, samplePlan("fp-2"), time.Minute)
	if err := c.Invalidate(ctx, "fp-2"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	got, _ := c.GetPlan(ctx, "fp-2")
	if got != nil {
		t.Error("plan still cached after invalidate")
	}
}

func TestCorruptEntry(t *testing.T) {
	c := setup(t)
	ctx := context.Background()

	testRDB.Set(ctx, planKey("fp-bad"), "{not json", time.Minute)
	if _, err := c.GetPlan(ctx, "fp-bad"); err == nil {
		t.Error("expected decode error for corrupt entry")
	}
}
