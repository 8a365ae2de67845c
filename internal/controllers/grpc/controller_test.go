package grpc

import (
	"context"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/chrissnell/deepcut/internal/profile"
	"github.com/chrissnell/deepcut/internal/storage"
	"github.com/chrissnell/deepcut/internal/storage/sqlite"
	"github.com/chrissnell/deepcut/internal/synthetic"
	"github.com/chrissnell/deepcut/pkg/config"
)

func gliderDefaults() profile.Params {
	p := profile.DefaultParams()
	p.Smoothing = false
	p.Peaks = profile.Constraints{
		Height:     profile.Float(100),
		Distance:   5,
		Width:      profile.Float(5),
		Prominence: profile.Float(100),
	}
	return p
}

func gliderRecord(t *testing.T) []float64 {
	t.Helper()
	pressure, err := synthetic.GlidePressure(synthetic.Options{NPoints: 200, MaxP: 500, IntermediateP: 200, Cycles: 5})
	require.NoError(t, err)
	return pressure
}

// dial starts a controller on an in-memory listener and returns a connected client
func dial(t *testing.T, store storage.Store) (*ProfilerClient, *grpc.ClientConn) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}

	ctrl, err := NewController(ctx, wg, config.GRPCData{}, gliderDefaults(), store, zap.NewNop().Sugar())
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	require.NoError(t, ctrl.Serve(lis))

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		cancel()
		wg.Wait()
	})
	return NewProfilerClient(conn), conn
}

func TestFindProfiles(t *testing.T) {
	client, _ := dial(t, nil)

	resp, err := client.FindProfiles(context.Background(), &FindProfilesRequest{Pressure: gliderRecord(t)})
	require.NoError(t, err)

	want := []profile.Segment{
		{Start: 0, Peak: 16, End: 33},
		{Start: 33, Peak: 50, End: 66},
		{Start: 66, Peak: 83, End: 99},
		{Start: 100, Peak: 116, End: 133},
		{Start: 133, Peak: 149, End: 166},
		{Start: 166, Peak: 182, End: 199},
	}
	assert.Equal(t, want, resp.Segments)
	assert.Equal(t, 6, resp.Summary.Profiles)
	assert.Empty(t, resp.RunID)
}

func TestFindProfilesParamsOverride(t *testing.T) {
	client, _ := dial(t, nil)

	// Defaults are far too strict for a 200 sample record
	params := profile.DefaultParams()
	params.Smoothing = false
	resp, err := client.FindProfiles(context.Background(), &FindProfilesRequest{
		Pressure: gliderRecord(t),
		Params:   &params,
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Segments)
}

func TestFindProfilesInvalid(t *testing.T) {
	client, _ := dial(t, nil)

	cases := []struct {
		name string
		req  *FindProfilesRequest
	}{
		{"empty", &FindProfilesRequest{}},
		{"bad run length", &FindProfilesRequest{
			Pressure: []float64{1, 2, 3},
			Params:   &profile.Params{RunLength: 0, MinIncrease: 0.01, MinDecrease: -0.01},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := client.FindProfiles(context.Background(), tc.req)
			require.Error(t, err)
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
		})
	}
}

func TestRuns(t *testing.T) {
	store, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	client, _ := dial(t, store)
	ctx := context.Background()

	resp, err := client.FindProfiles(ctx, &FindProfilesRequest{Pressure: gliderRecord(t), Deployment: "glider-7"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.RunID)

	run, err := client.GetRun(ctx, &GetRunRequest{ID: resp.RunID})
	require.NoError(t, err)
	assert.Equal(t, resp.RunID, run.ID.String())
	assert.Equal(t, "glider-7", run.Deployment)
	assert.Equal(t, 200, run.Samples)
	assert.Equal(t, resp.Segments, run.Segments)

	list, err := client.ListRuns(ctx, &ListRunsRequest{Deployment: "glider-7"})
	require.NoError(t, err)
	require.Len(t, list.Runs, 1)
	assert.Equal(t, run.ID, list.Runs[0].ID)

	_, err = client.GetRun(ctx, &GetRunRequest{ID: "not-a-uuid"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.GetRun(ctx, &GetRunRequest{ID: "6f1c2a3e-8d4b-4f5a-9c7e-1b2d3e4f5a6b"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestRunsWithoutStore(t *testing.T) {
	client, _ := dial(t, nil)

	_, err := client.ListRuns(context.Background(), &ListRunsRequest{})
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestHealth(t *testing.T) {
	_, conn := dial(t, nil)

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}
