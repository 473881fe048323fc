package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/nomoreats/builder/internal/builder"
	"github.com/nomoreats/builder/internal/profile"
	"github.com/nomoreats/builder/internal/render"
	"github.com/nomoreats/builder/internal/sections"
)

const (
	documentURIPrefix = "resume://"
	documentURISuffix = "/document"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Service      *builder.Service
	DefaultOwner builder.Identity
}

// NewMCPServer creates an MCP server exposing the resume builder as tools.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"nomoreats",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("nomoreats builds resumes: open a session for a professional field, apply edits, and read the rendered document."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("list_fields",
			mcp.WithDescription("List the professional fields with their default sections and whether each is locked by the plan's field limit."),
			mcp.WithString("owner_id", mcp.Description("Owner to check limits for (defaults to the configured identity)")),
		),
		mcpListFields(deps),
	)

	s.AddTool(
		mcp.NewTool("check_field_lock",
			mcp.WithDescription("Report whether a professional field may be opened by the owner."),
			mcp.WithString("field", mcp.Description("Professional field identifier, e.g. tech"), mcp.Required()),
			mcp.WithString("owner_id", mcp.Description("Owner to check (defaults to the configured identity)")),
		),
		mcpCheckFieldLock(deps),
	)

	s.AddTool(
		mcp.NewTool("render_profile",
			mcp.WithDescription("Render a profile JSON document as the resume preview text, without opening a session."),
			mcp.WithString("profile", mcp.Description("Profile as JSON"), mcp.Required()),
			mcp.WithString("field", mcp.Description("Professional field (defaults to the profile's own)")),
			mcp.WithArray("sections", mcp.Description("Active section IDs in display order (defaults to the field's)"), mcp.WithStringItems()),
		),
		mcpRenderProfile(deps),
	)

	s.AddTool(
		mcp.NewTool("open_session",
			mcp.WithDescription("Open an editing session for a professional field and return its ID."),
			mcp.WithString("field", mcp.Description("Professional field identifier"), mcp.Required()),
			mcp.WithString("owner_id", mcp.Description("Owner (defaults to the configured identity)")),
		),
		mcpOpenSession(deps),
	)

	s.AddTool(
		mcp.NewTool("apply_edit",
			mcp.WithDescription("Apply one edit to a session's profile and return the rendered document text."),
			mcp.WithString("session_id", mcp.Description("Session ID from open_session"), mcp.Required()),
			mcp.WithString("edit", mcp.Description(`Edit as JSON, e.g. {"op":"set","target":"experience","index":0,"field":"company","value":"Acme"}`), mcp.Required()),
		),
		mcpApplyEdit(deps),
	)

	s.AddTool(
		mcp.NewTool("generate_resume",
			mcp.WithDescription("Export a session's profile through the generation service and return the document URL."),
			mcp.WithString("session_id", mcp.Description("Session ID from open_session"), mcp.Required()),
		),
		mcpGenerate(deps),
	)

	s.AddResourceTemplate(
		mcp.NewResourceTemplate(
			documentURIPrefix+"{session}"+documentURISuffix,
			"Resume Document",
			mcp.WithTemplateDescription("Rendered document of an open session as plain text"),
			mcp.WithTemplateMIMEType("text/plain"),
		),
		mcpResourceDocument(deps),
	)

	return s
}

func (d MCPDeps) owner(req mcp.CallToolRequest) string {
	return req.GetString("owner_id", d.DefaultOwner.OwnerID)
}

func mcpListFields(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		owner := deps.owner(req)
		if owner == "" {
			return mcpError("owner_id is required"), nil
		}
		// A failed fetch still lists every field with the fallback snapshot.
		limits, _ := deps.Service.Limits(ctx, owner)

		type fieldInfo struct {
			Field    sections.Field `json:"field"`
			Label    string         `json:"label"`
			Locked   bool           `json:"locked"`
			Sections []sections.ID  `json:"sections"`
		}
		picker := limits.Picker()
		out := make([]fieldInfo, len(picker))
		for i, fs := range picker {
			out[i] = fieldInfo{
				Field:    fs.Field,
				Label:    fs.Label,
				Locked:   fs.Locked,
				Sections: sections.SectionsFor(fs.Field),
			}
		}
		return mcpJSON(out)
	}
}

func mcpCheckFieldLock(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("field")
		if err != nil {
			return mcpError("field is required"), nil
		}
		owner := deps.owner(req)
		if owner == "" {
			return mcpError("owner_id is required"), nil
		}
		limits, err := deps.Service.Limits(ctx, owner)
		if err != nil {
			return mcpError(fmt.Sprintf("loading limits failed: %s", builder.Notice(err))), nil
		}
		field := sections.ParseField(raw)
		if limits.Locked(field) {
			return mcpText(fmt.Sprintf("%s is locked: %d of %d fields in use", sections.Label(field), len(limits.UsedFields), limits.FieldLimit)), nil
		}
		return mcpText(fmt.Sprintf("%s is available", sections.Label(field))), nil
	}
}

func mcpRenderProfile(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("profile")
		if err != nil {
			return mcpError("profile is required"), nil
		}
		var p profile.Profile
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return mcpError(fmt.Sprintf("invalid profile JSON: %v", err)), nil
		}
		if f := req.GetString("field", ""); f != "" {
			p.ProfessionalField = sections.Field(f)
		}
		p = profile.Normalize(p)

		active := sections.SectionsFor(p.ProfessionalField)
		if ids := req.GetStringSlice("sections", nil); len(ids) > 0 {
			active = make([]sections.ID, 0, len(ids))
			for _, s := range ids {
				id, ok := sections.ParseID(s)
				if !ok {
					return mcpError(fmt.Sprintf("unknown section %q", s)), nil
				}
				active = append(active, id)
			}
		}
		doc := render.Render(p, active, deps.Service.RenderOptions())
		return mcpText(render.Text(doc)), nil
	}
}

func mcpOpenSession(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		field, err := req.RequireString("field")
		if err != nil {
			return mcpError("field is required"), nil
		}
		id := deps.DefaultOwner
		if o := req.GetString("owner_id", ""); o != "" && o != id.OwnerID {
			id = builder.Identity{OwnerID: o}
		}
		if id.OwnerID == "" {
			return mcpError("owner_id is required"), nil
		}
		sess, err := deps.Service.Open(ctx, id, sections.ParseField(field))
		if err != nil {
			return mcpError(builder.Notice(err)), nil
		}
		return mcpText(sess.ID()), nil
	}
}

func mcpApplyEdit(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("session_id")
		if err != nil {
			return mcpError("session_id is required"), nil
		}
		raw, err := req.RequireString("edit")
		if err != nil {
			return mcpError("edit is required"), nil
		}
		sess, err := deps.Service.Get(id)
		if err != nil {
			return mcpError(builder.Notice(err)), nil
		}
		var e builder.Edit
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return mcpError(fmt.Sprintf("invalid edit JSON: %v", err)), nil
		}
		if err := sess.Edit(e); err != nil {
			return mcpError(builder.Notice(err)), nil
		}
		return mcpText(render.Text(sess.Document())), nil
	}
}

func mcpGenerate(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("session_id")
		if err != nil {
			return mcpError("session_id is required"), nil
		}
		sess, err := deps.Service.Get(id)
		if err != nil {
			return mcpError(builder.Notice(err)), nil
		}
		res, err := sess.Generate(ctx)
		if err != nil {
			return mcpError(builder.Notice(err)), nil
		}
		return mcpText(res.Locator), nil
	}
}

func mcpResourceDocument(deps MCPDeps) server.ResourceTemplateHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		id, ok := sessionFromURI(req.Params.URI)
		if !ok {
			return nil, fmt.Errorf("invalid document URI %q", req.Params.URI)
		}
		sess, err := deps.Service.Get(id)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", req.Params.URI, err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "text/plain",
				Text:     render.Text(sess.Document()),
			},
		}, nil
	}
}

func sessionFromURI(uri string) (string, bool) {
	rest, ok := strings.CutPrefix(uri, documentURIPrefix)
	if !ok {
		return "", false
	}
	id, ok := strings.CutSuffix(rest, documentURISuffix)
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

func mcpJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcpText(string(b)), nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
