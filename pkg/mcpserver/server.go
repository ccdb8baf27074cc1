// Package mcpserver exposes the skill library and stack catalog as MCP
// tools over stdio, so agent runtimes can query them directly.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillforge/pkg/matrix"
	"github.com/jingkaihe/skillforge/pkg/stacks"
	"github.com/jingkaihe/skillforge/pkg/version"
)

// Config carries the library and stack locations the server reads from.
type Config struct {
	LibraryDir string
	StacksPath string
}

// Server answers MCP tool calls for skill and stack lookups.
type Server struct {
	mcpServer *server.MCPServer
	config    Config
}

type listSkillsArgs struct {
	Category string `mapstructure:"category"`
}

type idArgs struct {
	ID string `mapstructure:"id"`
}

type skillSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Recommended bool   `json:"recommended,omitempty"`
}

type skillDetail struct {
	skillSummary
	CompatibleWith []string `json:"compatibleWith,omitempty"`
	Alternatives   []string `json:"alternatives,omitempty"`
	Content        string   `json:"content"`
}

type stackSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Agents      []string `json:"agents"`
}

type stackDetail struct {
	stackSummary
	Philosophy string              `json:"philosophy,omitempty"`
	Skills     map[string][]string `json:"skills"`
}

// New builds an MCP server with the lookup tools registered.
func New(cfg Config) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer("skillforge", version.Get().Version),
		config:    cfg,
	}
	s.registerTools()
	return s
}

// ServeStdio blocks serving MCP requests on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("list_skills",
			mcp.WithDescription("List all skills in the library, optionally filtered by category"),
			mcp.WithString("category", mcp.Description("Only return skills in this category")),
		),
		s.handleListSkills,
	)
	s.mcpServer.AddTool(
		mcp.NewTool("get_skill",
			mcp.WithDescription("Get a skill's metadata and full instruction content by id or alias"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Skill id or alias")),
		),
		s.handleGetSkill,
	)
	s.mcpServer.AddTool(
		mcp.NewTool("list_stacks",
			mcp.WithDescription("List all available stacks (builtin plus source overrides)"),
		),
		s.handleListStacks,
	)
	s.mcpServer.AddTool(
		mcp.NewTool("get_stack",
			mcp.WithDescription("Get a stack's full agent to skill assignments by id"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Stack id")),
		),
		s.handleGetStack,
	)
}

func (s *Server) handleListSkills(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args listSkillsArgs
	if err := decodeArgs(request, &args); err != nil {
		return toolError(err), nil
	}

	m, err := matrix.Load(ctx, s.config.LibraryDir)
	if err != nil {
		return toolError(err), nil
	}

	var skills []*matrix.Skill
	if args.Category != "" {
		if _, ok := m.Category(args.Category); !ok {
			return toolError(errors.Errorf("unknown category %q", args.Category)), nil
		}
		skills = m.SkillsInCategory(args.Category)
	} else {
		skills = m.Skills()
	}

	summaries := make([]skillSummary, 0, len(skills))
	for _, sk := range skills {
		summaries = append(summaries, skillSummary{
			ID:          sk.ID,
			Name:        sk.Name,
			Description: sk.Description,
			Category:    sk.Category,
			Recommended: sk.Recommended,
		})
	}
	return toolJSON(summaries)
}

func (s *Server) handleGetSkill(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args idArgs
	if err := decodeArgs(request, &args); err != nil {
		return toolError(err), nil
	}
	if args.ID == "" {
		return toolError(errors.New("id is required")), nil
	}

	m, err := matrix.Load(ctx, s.config.LibraryDir)
	if err != nil {
		return toolError(err), nil
	}

	canonical, ok := m.AliasToID(args.ID)
	if !ok {
		canonical = args.ID
	}
	sk, ok := m.Skill(canonical)
	if !ok {
		return toolError(errors.Errorf("unknown skill %q", args.ID)), nil
	}

	detail := skillDetail{
		skillSummary: skillSummary{
			ID:          sk.ID,
			Name:        sk.Name,
			Description: sk.Description,
			Category:    sk.Category,
			Recommended: sk.Recommended,
		},
		CompatibleWith: sk.CompatibleWith,
		Alternatives:   sk.Alternatives,
		Content:        sk.Content,
	}
	return toolJSON(detail)
}

func (s *Server) handleListStacks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	all, err := stacks.LoadStacks(ctx, s.config.StacksPath)
	if err != nil {
		return toolError(err), nil
	}

	summaries := make([]stackSummary, 0, len(all))
	for _, st := range all {
		summaries = append(summaries, stackSummary{
			ID:          st.ID,
			Name:        st.Name,
			Description: st.Description,
			Agents:      st.AgentIDs(),
		})
	}
	return toolJSON(summaries)
}

func (s *Server) handleGetStack(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args idArgs
	if err := decodeArgs(request, &args); err != nil {
		return toolError(err), nil
	}
	if args.ID == "" {
		return toolError(errors.New("id is required")), nil
	}

	st, err := stacks.LoadStackByID(ctx, args.ID, s.config.StacksPath)
	if err != nil {
		return toolError(err), nil
	}

	detail := stackDetail{
		stackSummary: stackSummary{
			ID:          st.ID,
			Name:        st.Name,
			Description: st.Description,
			Agents:      st.AgentIDs(),
		},
		Philosophy: st.Philosophy,
		Skills:     map[string][]string{},
	}
	for _, agentID := range st.AgentIDs() {
		refs := stacks.ResolveAgentSkills(agentID, st, nil)
		ids := make([]string, 0, len(refs))
		for _, ref := range refs {
			label := ref.ID
			if ref.Preloaded {
				label += " (preloaded)"
			}
			ids = append(ids, label)
		}
		detail.Skills[agentID] = ids
	}
	return toolJSON(detail)
}

func decodeArgs(request mcp.CallToolRequest, out interface{}) error {
	return errors.Wrap(mapstructure.Decode(request.Params.Arguments, out), "invalid tool arguments")
}

func toolJSON(v interface{}) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func toolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%v", err))
}
