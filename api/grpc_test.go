package api

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"skin-analysis-service/vision"
)

func newTestClient(t *testing.T, an Analyzer, maxBytes int) *SkinAnalysisClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterSkinAnalysisServiceServer(srv, NewSkinAnalysisServer(an, maxBytes))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return NewSkinAnalysisClient(conn)
}

func TestGRPC_AnalyzeSkin(t *testing.T) {
	an := &fakeAnalyzer{detected: []string{"acne"}}
	client := newTestClient(t, an, 0)

	stream, err := client.AnalyzeSkin(context.Background())
	require.NoError(t, err)
	for _, chunk := range []string{"fake-", "jp", "eg"} {
		require.NoError(t, stream.Send(wrapperspb.Bytes([]byte(chunk))))
	}
	resp, err := stream.CloseAndRecv()
	require.NoError(t, err)

	assert.Equal(t, []byte("fake-jpeg"), an.got)
	m := resp.AsMap()
	assert.Equal(t, "6f1d3c2a-0000-4000-8000-000000000001", m["analysis_id"])
	results, ok := m["results"].([]any)
	require.True(t, ok)
	require.Len(t, results, 1)
	first := results[0].(map[string]any)
	assert.Equal(t, "acne", first["label"])
	assert.InDelta(t, 0.9, first["confidence"], 1e-6)
}

func TestGRPC_AnalyzeSkinErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		chunks   []string
		maxBytes int
		code     codes.Code
	}{
		{"empty upload", nil, nil, 0, codes.InvalidArgument},
		{"no face", vision.ErrNoFace, []string{"img"}, 0, codes.InvalidArgument},
		{"too large", nil, []string{"0123456789"}, 4, codes.ResourceExhausted},
		{"model failure", assert.AnError, []string{"img"}, 0, codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, &fakeAnalyzer{err: tt.err}, tt.maxBytes)

			stream, err := client.AnalyzeSkin(context.Background())
			require.NoError(t, err)
			for _, c := range tt.chunks {
				_ = stream.Send(wrapperspb.Bytes([]byte(c)))
			}
			_, err = stream.CloseAndRecv()
			require.Error(t, err)
			assert.Equal(t, tt.code, status.Code(err))
		})
	}
}

func TestGRPC_GetSkinIssueInfo(t *testing.T) {
	client := newTestClient(t, &fakeAnalyzer{}, 0)

	info, err := client.GetSkinIssueInfo(context.Background(), wrapperspb.String("stain"))
	require.NoError(t, err)
	m := info.AsMap()
	assert.NotEmpty(t, m["title"])
	assert.NotEmpty(t, m["causes"])

	_, err = client.GetSkinIssueInfo(context.Background(), wrapperspb.String("healthy"))
	assert.Equal(t, codes.NotFound, status.Code(err))
}
