package control

import (
	"context"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/niceyeti/mediaworld/internal/policy"
)

func startEmbedded(t *testing.T) (*natsserver.Server, string) {
	t.Helper()
	opts := &natsserver.Options{
		Host:      "127.0.0.1",
		Port:      -1,
		JetStream: true,
		StoreDir:  t.TempDir(),
	}
	srv, err := natsserver.NewServer(opts)
	if err != nil {
		t.Fatalf("start embedded nats-server: %v", err)
	}
	go srv.Start()
	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("embedded nats-server never became ready")
	}
	return srv, srv.ClientURL()
}

func TestPolicyMessageRoundTrip(t *testing.T) {
	Convey("Given each PolicyMessage kind", t, func() {
		cases := []PolicyMessage{
			{Kind: "recession", N: 2},
			{Kind: "media_literacy", F: 0.1},
			{Kind: "found_platforms", N: 1},
			{Kind: "tax_advertising", F: 0.05},
			{Kind: "subsidize_production", F: 10},
			{Kind: "population_change", N: 50},
		}

		Convey("ToPolicy resolves to the matching constructor's Kind", func() {
			want := []policy.Kind{
				policy.KindRecession, policy.KindMediaLiteracy, policy.KindFoundPlatforms,
				policy.KindTaxAdvertising, policy.KindSubsidizeProduction, policy.KindPopulationChange,
			}
			for i, c := range cases {
				p, err := c.ToPolicy()
				So(err, ShouldBeNil)
				So(p.Kind(), ShouldEqual, want[i])
			}
		})

		Convey("An unknown kind is rejected", func() {
			_, err := PolicyMessage{Kind: "nonsense"}.ToPolicy()
			So(err, ShouldNotBeNil)
		})
	})
}

func TestNATSAdapter(t *testing.T) {
	srv, url := startEmbedded(t)
	defer srv.Shutdown()

	Convey("Given a Dialed NATSAdapter against an embedded broker", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		adapter, err := Dial(ctx, url)
		So(err, ShouldBeNil)
		defer adapter.Close()

		Convey("SetStatus and PublishSnapshot succeed against a live broker", func() {
			So(adapter.SetStatus(ctx, StatusReady), ShouldBeNil)
			So(adapter.PublishSnapshot(ctx, 3, map[string]int{"step": 3}), ShouldBeNil)
		})
	})
}
