package grpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/chrissnell/deepcut/internal/grpcutil"
	"github.com/chrissnell/deepcut/internal/profile"
	"github.com/chrissnell/deepcut/internal/storage"
)

// ServiceName is the fully qualified name of the profiler service
const ServiceName = "deepcut.v1.Profiler"

const (
	findProfilesMethod = "/" + ServiceName + "/FindProfiles"
	getRunMethod       = "/" + ServiceName + "/GetRun"
	listRunsMethod     = "/" + ServiceName + "/ListRuns"
)

// FindProfilesRequest carries one pressure record. A nil Params uses the server defaults.
type FindProfilesRequest struct {
	Pressure   []float64       `json:"pressure"`
	Params     *profile.Params `json:"params,omitempty"`
	Deployment string          `json:"deployment,omitempty"`
}

type FindProfilesResponse struct {
	Segments []profile.Segment `json:"segments"`
	Summary  profile.Summary   `json:"summary"`
	RunID    string            `json:"run_id,omitempty"`
}

type GetRunRequest struct {
	ID string `json:"id"`
}

type ListRunsRequest struct {
	Deployment string `json:"deployment,omitempty"`
}

type ListRunsResponse struct {
	Runs []storage.Run `json:"runs"`
}

// ProfilerServer is the server side of the profiler service
type ProfilerServer interface {
	FindProfiles(context.Context, *FindProfilesRequest) (*FindProfilesResponse, error)
	GetRun(context.Context, *GetRunRequest) (*storage.Run, error)
	ListRuns(context.Context, *ListRunsRequest) (*ListRunsResponse, error)
}

// RegisterProfilerServer registers srv with s
func RegisterProfilerServer(s grpc.ServiceRegistrar, srv ProfilerServer) {
	s.RegisterService(&ProfilerServiceDesc, srv)
}

// ProfilerServiceDesc describes the profiler service. Messages travel in the msgpack codec.
var ProfilerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ProfilerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "FindProfiles",
			Handler: unaryHandler(findProfilesMethod, func(srv ProfilerServer, ctx context.Context, in *FindProfilesRequest) (any, error) {
				return srv.FindProfiles(ctx, in)
			}),
		},
		{
			MethodName: "GetRun",
			Handler: unaryHandler(getRunMethod, func(srv ProfilerServer, ctx context.Context, in *GetRunRequest) (any, error) {
				return srv.GetRun(ctx, in)
			}),
		},
		{
			MethodName: "ListRuns",
			Handler: unaryHandler(listRunsMethod, func(srv ProfilerServer, ctx context.Context, in *ListRunsRequest) (any, error) {
				return srv.ListRuns(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "deepcut/v1/profiler",
}

// unaryHandler builds the method handler the generated code would otherwise provide
func unaryHandler[Req any](fullMethod string, call func(ProfilerServer, context.Context, *Req) (any, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ProfilerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ProfilerServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ProfilerClient calls the profiler service
type ProfilerClient struct {
	cc grpc.ClientConnInterface
}

// NewProfilerClient creates a client over cc
func NewProfilerClient(cc grpc.ClientConnInterface) *ProfilerClient {
	return &ProfilerClient{cc: cc}
}

func (c *ProfilerClient) FindProfiles(ctx context.Context, in *FindProfilesRequest, opts ...grpc.CallOption) (*FindProfilesResponse, error) {
	out := new(FindProfilesResponse)
	if err := c.cc.Invoke(ctx, findProfilesMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ProfilerClient) GetRun(ctx context.Context, in *GetRunRequest, opts ...grpc.CallOption) (*storage.Run, error) {
	out := new(storage.Run)
	if err := c.cc.Invoke(ctx, getRunMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ProfilerClient) ListRuns(ctx context.Context, in *ListRunsRequest, opts ...grpc.CallOption) (*ListRunsResponse, error) {
	out := new(ListRunsResponse)
	if err := c.cc.Invoke(ctx, listRunsMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(grpcutil.CodecName)}, opts...)
}
