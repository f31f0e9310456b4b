package api

import (
	"context"
	"errors"
	"io"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"skin-analysis-service/catalog"
	"skin-analysis-service/logging"
	"skin-analysis-service/service"
	"skin-analysis-service/vision"
)

const (
	skinAnalysisServiceName = "skinanalysis.SkinAnalysisService"

	analyzeSkinMethod      = "/" + skinAnalysisServiceName + "/AnalyzeSkin"
	getSkinIssueInfoMethod = "/" + skinAnalysisServiceName + "/GetSkinIssueInfo"
)

// SkinAnalysisServiceServer is the gRPC surface. Messages are protobuf
// well-known types: image chunks arrive as BytesValue, responses are Structs
// shaped like the REST bodies.
type SkinAnalysisServiceServer interface {
	AnalyzeSkin(grpc.ClientStreamingServer[wrapperspb.BytesValue, structpb.Struct]) error
	GetSkinIssueInfo(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

func RegisterSkinAnalysisServiceServer(s grpc.ServiceRegistrar, srv SkinAnalysisServiceServer) {
	s.RegisterService(&skinAnalysisServiceDesc, srv)
}

var skinAnalysisServiceDesc = grpc.ServiceDesc{
	ServiceName: skinAnalysisServiceName,
	HandlerType: (*SkinAnalysisServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetSkinIssueInfo",
			Handler:    getSkinIssueInfoHandler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "AnalyzeSkin",
			Handler:       analyzeSkinHandler,
			ClientStreams: true,
		},
	},
	Metadata: "skinanalysis.proto",
}

func analyzeSkinHandler(srv any, stream grpc.ServerStream) error {
	return srv.(SkinAnalysisServiceServer).AnalyzeSkin(
		&grpc.GenericServerStream[wrapperspb.BytesValue, structpb.Struct]{ServerStream: stream},
	)
}

func getSkinIssueInfoHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SkinAnalysisServiceServer).GetSkinIssueInfo(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: getSkinIssueInfoMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SkinAnalysisServiceServer).GetSkinIssueInfo(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// SkinAnalysisClient calls SkinAnalysisService.
type SkinAnalysisClient struct {
	cc grpc.ClientConnInterface
}

func NewSkinAnalysisClient(cc grpc.ClientConnInterface) *SkinAnalysisClient {
	return &SkinAnalysisClient{cc: cc}
}

func (c *SkinAnalysisClient) AnalyzeSkin(ctx context.Context, opts ...grpc.CallOption) (grpc.ClientStreamingClient[wrapperspb.BytesValue, structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &skinAnalysisServiceDesc.Streams[0], analyzeSkinMethod, opts...)
	if err != nil {
		return nil, err
	}
	return &grpc.GenericClientStream[wrapperspb.BytesValue, structpb.Struct]{ClientStream: stream}, nil
}

func (c *SkinAnalysisClient) GetSkinIssueInfo(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getSkinIssueInfoMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// SkinAnalysisServer implements SkinAnalysisServiceServer on top of the
// analysis service.
type SkinAnalysisServer struct {
	analysis Analyzer
	maxBytes int
}

func NewSkinAnalysisServer(analysis Analyzer, maxBytes int) *SkinAnalysisServer {
	return &SkinAnalysisServer{
		analysis: analysis,
		maxBytes: maxBytes,
	}
}

func (s *SkinAnalysisServer) AnalyzeSkin(stream grpc.ClientStreamingServer[wrapperspb.BytesValue, structpb.Struct]) error {
	var imageData []byte

	for {
		req, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		imageData = append(imageData, req.GetValue()...)
		if s.maxBytes > 0 && len(imageData) > s.maxBytes {
			return status.Errorf(codes.ResourceExhausted, "image exceeds %d bytes", s.maxBytes)
		}
	}
	if len(imageData) == 0 {
		return status.Error(codes.InvalidArgument, msgUploadImage)
	}

	a, err := s.analysis.Analyze(stream.Context(), imageData)
	switch {
	case errors.Is(err, vision.ErrNoFace):
		return status.Error(codes.InvalidArgument, msgNoFace)
	case errors.Is(err, vision.ErrInvalidImage):
		return status.Error(codes.InvalidArgument, msgBadImage)
	case err != nil:
		logging.Error().Err(err).Msg("grpc analysis failed")
		return status.Error(codes.Internal, "Model hatası: "+err.Error())
	}

	resp, err := analysisStruct(a)
	if err != nil {
		return status.Error(codes.Internal, err.Error())
	}
	return stream.SendAndClose(resp)
}

func (s *SkinAnalysisServer) GetSkinIssueInfo(_ context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	issue := in.GetValue()
	info, ok := catalog.LookupInfo(issue)
	if !ok {
		return nil, status.Error(codes.NotFound, issue+" için bilgi bulunamadı")
	}

	return structpb.NewStruct(map[string]any{
		"title":       info.Title,
		"description": info.Description,
		"causes":      stringList(info.Causes),
		"daily_care":  stringList(info.DailyCare),
		"tips":        stringList(info.Tips),
	})
}

func analysisStruct(a *service.Analysis) (*structpb.Struct, error) {
	results := make([]any, 0, len(a.Detected))
	for _, f := range a.Findings() {
		results = append(results, map[string]any{
			"label":          f.Label,
			"confidence":     float64(f.Confidence),
			"description":    f.Description,
			"recommendation": f.Recommendation,
		})
	}
	return structpb.NewStruct(map[string]any{
		"analysis_id":        a.ID.String(),
		"analysis_timestamp": a.Timestamp.Format(time.RFC3339Nano),
		"results":            results,
	})
}

func stringList(xs []string) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}
