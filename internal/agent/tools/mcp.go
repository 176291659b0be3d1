package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	logx "github.com/waypoint-agents/server/pkg/logger"
)

const (
	BindingMaps   = "google_maps"
	BindingAirbnb = "airbnb"

	clientName    = "waypoint-planner"
	clientVersion = "v1.0.0"
)

// TransportFactory returns a fresh MCP transport for one connection.
type TransportFactory func() (mcp.Transport, error)

// MCPBinding exposes the tools of an MCP server, typically a stdio process such
// as the Google Maps server.
type MCPBinding struct {
	name      string
	transport TransportFactory
}

// NewMCPCommandBinding spawns commandLine (e.g. "npx -y @modelcontextprotocol/server-google-maps")
// for every Open/Probe, passing env on top of the current environment.
func NewMCPCommandBinding(name, commandLine string, env map[string]string) *MCPBinding {
	return NewMCPBinding(name, func() (mcp.Transport, error) {
		fields := strings.Fields(commandLine)
		if len(fields) == 0 {
			return nil, fmt.Errorf("empty MCP command for %s", name)
		}
		cmd := exec.Command(fields[0], fields[1:]...)
		cmd.Env = os.Environ()
		for k, v := range env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
		return &mcp.CommandTransport{Command: cmd, TerminateDuration: 3 * time.Second}, nil
	})
}

func NewMCPBinding(name string, transport TransportFactory) *MCPBinding {
	return &MCPBinding{name: name, transport: transport}
}

func (b *MCPBinding) Name() string { return b.name }

func (b *MCPBinding) connect(ctx context.Context) (*mcp.ClientSession, error) {
	t, err := b.transport()
	if err != nil {
		return nil, err
	}
	client := mcp.NewClient(&mcp.Implementation{Name: clientName, Version: clientVersion}, nil)
	session, err := client.Connect(ctx, t, nil)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", b.name, err)
	}
	return session, nil
}

func (b *MCPBinding) Probe(ctx context.Context) error {
	session, err := b.connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			logx.Debug().Err(cerr).Str("binding", b.name).Msg("MCP probe session close failed")
		}
	}()
	return session.Ping(ctx, nil)
}

func (b *MCPBinding) Open(ctx context.Context) (Session, error) {
	session, err := b.connect(ctx)
	if err != nil {
		return nil, err
	}

	res, err := session.ListTools(ctx, nil)
	if err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("list tools of %s: %w", b.name, err)
	}

	adapted := make([]tool.BaseTool, 0, len(res.Tools))
	for _, t := range res.Tools {
		if t == nil || t.Name == "" {
			continue
		}
		params, err := paramsFromSchema(t.InputSchema)
		if err != nil {
			logx.Warn().Err(err).Str("binding", b.name).Str("tool", t.Name).Msg("Skipping MCP tool with unreadable schema")
			continue
		}
		adapted = append(adapted, &mcpTool{
			session: session,
			info: &schema.ToolInfo{
				Name:        t.Name,
				Desc:        t.Description,
				ParamsOneOf: params,
			},
		})
	}

	logx.Debug().Str("binding", b.name).Int("tools", len(adapted)).Msg("MCP session opened")
	return &mcpSession{name: b.name, session: session, tools: adapted}, nil
}

type mcpSession struct {
	name    string
	session *mcp.ClientSession
	tools   []tool.BaseTool
}

func (s *mcpSession) Tools(ctx context.Context) ([]tool.BaseTool, error) {
	return s.tools, nil
}

func (s *mcpSession) Close() error {
	if err := s.session.Close(); err != nil {
		return fmt.Errorf("close %s session: %w", s.name, err)
	}
	return nil
}

// mcpTool adapts one MCP tool to an eino InvokableTool.
type mcpTool struct {
	session *mcp.ClientSession
	info    *schema.ToolInfo
}

func (t *mcpTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return t.info, nil
}

func (t *mcpTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	args := map[string]any{}
	if s := strings.TrimSpace(argumentsInJSON); s != "" {
		if err := json.Unmarshal([]byte(s), &args); err != nil {
			return "", fmt.Errorf("decode %s arguments: %w", t.info.Name, err)
		}
	}

	res, err := t.session.CallTool(ctx, &mcp.CallToolParams{Name: t.info.Name, Arguments: args})
	if err != nil {
		return "", fmt.Errorf("call %s: %w", t.info.Name, err)
	}

	text := strings.Join(flattenContent(res.Content), "\n")
	if res.IsError {
		// Hand the failure to the model instead of aborting the whole run.
		b, _ := json.Marshal(map[string]string{"error": text})
		return string(b), nil
	}
	return text, nil
}

func flattenContent(content []mcp.Content) []string {
	out := make([]string, 0, len(content))
	for _, c := range content {
		if tc, ok := c.(*mcp.TextContent); ok && tc.Text != "" {
			out = append(out, tc.Text)
		}
	}
	return out
}
