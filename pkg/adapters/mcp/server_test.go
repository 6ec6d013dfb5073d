package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/majbot/internal/runtime"
	"github.com/aretw0/majbot/pkg/adapters/memory"
	"github.com/aretw0/majbot/pkg/domain"
	"github.com/aretw0/majbot/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer() *Server {
	src := memory.MustSource([]domain.State{
		{ID: "0", Messages: []string{"What's your name?"}, Keywords: []domain.Keyword{
			{Pattern: `(\w+)`, Variable: "name", Points: 1, Action: domain.Transition{Target: "1"}},
		}},
		{ID: "1", Messages: []string{"Hi [name]."}, Keywords: []domain.Keyword{
			{Pattern: "jump", Action: domain.Transition{Target: "9"}},
		}},
	}, []string{"Huh?"})

	mgr := session.NewManager(memory.NewStore(), func() *runtime.Engine {
		return runtime.NewEngine("", src.Clone(), nil)
	})
	return NewServer(mgr, "test", WithGraph(src))
}

func TestServer_Conversation(t *testing.T) {
	ctx := context.Background()
	s := newTestServer()

	started, err := s.handleStart(ctx, mcp.CallToolRequest{}, SessionArgs{SessionID: "m1"})
	require.NoError(t, err)
	assert.Equal(t, TurnResult{SessionID: "m1", Level: "0", Reply: "What's your name?"}, started)

	turn, err := s.handleSend(ctx, mcp.CallToolRequest{}, SendArgs{SessionID: "m1", Text: "I am Alice"})
	require.NoError(t, err)
	assert.Equal(t, TurnResult{SessionID: "m1", Level: "1", Reply: "Hi Alice."}, turn)

	msg, err := s.handleMessage(ctx, mcp.CallToolRequest{}, SessionArgs{SessionID: "m1"})
	require.NoError(t, err)
	assert.Equal(t, "Hi Alice.", msg.Reply)

	turn, err = s.handleSend(ctx, mcp.CallToolRequest{}, SendArgs{SessionID: "m1", Text: "xyzzy"})
	require.NoError(t, err)
	assert.Equal(t, "Huh?", turn.Reply)
}

func TestServer_StartGeneratesID(t *testing.T) {
	res, err := newTestServer().handleStart(context.Background(), mcp.CallToolRequest{}, SessionArgs{})
	require.NoError(t, err)
	assert.NotEmpty(t, res.SessionID)
}

func TestServer_SendErrors(t *testing.T) {
	ctx := context.Background()
	s := newTestServer()
	_, err := s.handleStart(ctx, mcp.CallToolRequest{}, SessionArgs{SessionID: "m1"})
	require.NoError(t, err)
	_, err = s.handleSend(ctx, mcp.CallToolRequest{}, SendArgs{SessionID: "m1", Text: "I am Bo"})
	require.NoError(t, err)

	tests := []struct {
		name string
		args SendArgs
		want error
	}{
		{"Missing Session Id", SendArgs{Text: "hi"}, nil},
		{"Unknown Session", SendArgs{SessionID: "nope", Text: "hi"}, domain.ErrSessionNotFound},
		{"Unknown Target", SendArgs{SessionID: "m1", Text: "jump"}, domain.ErrUnknownState},
		{"Invalid UTF-8", SendArgs{SessionID: "m1", Text: "\xff"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.handleSend(ctx, mcp.CallToolRequest{}, tt.args)
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func rpc(t *testing.T, s *Server, body string) string {
	t.Helper()
	resp := s.MCPServer().HandleMessage(context.Background(), []byte(body))
	require.NotNil(t, resp)
	out, err := json.Marshal(resp)
	require.NoError(t, err)
	return string(out)
}

func TestServer_JSONRPC(t *testing.T) {
	s := newTestServer()
	rpc(t, s, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"0"}}}`)

	t.Run("Tools Listed", func(t *testing.T) {
		out := rpc(t, s, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
		for _, name := range []string{"start_session", "send_message", "get_message", "get_graph"} {
			assert.Contains(t, out, `"`+name+`"`)
		}
	})

	t.Run("Tool Call", func(t *testing.T) {
		rpc(t, s, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"start_session","arguments":{"session_id":"r1"}}}`)
		out := rpc(t, s, `{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"send_message","arguments":{"session_id":"r1","text":"I am Ana"}}}`)
		assert.Contains(t, out, "Hi Ana.")
	})

	t.Run("Graph Resource", func(t *testing.T) {
		out := rpc(t, s, `{"jsonrpc":"2.0","id":5,"method":"resources/read","params":{"uri":"majbot://graph"}}`)
		assert.Contains(t, out, "graph TD")
	})
}
