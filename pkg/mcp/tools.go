package mcp

import "github.com/mark3labs/mcp-go/mcp"

func getStatusTool() mcp.Tool {
	return mcp.NewTool("get_status",
		mcp.WithDescription("Summary of the current binding map: mode, counts, unresolved and verbatim entries, settle passes."),
	)
}

func recomputeTool() mcp.Tool {
	return mcp.NewTool("recompute",
		mcp.WithDescription("Re-read the token, theme and component-specification documents and resolve again. Returns the names that were added, changed or removed."),
	)
}

func listBindingsTool() mcp.Tool {
	return mcp.NewTool("list_bindings",
		mcp.WithDescription("List bindings, optionally filtered by group (first path segment), glob pattern over the dashed name, and keyword."),
		mcp.WithString("group", mcp.Description("Group such as 'components' or 'global'")),
		mcp.WithString("pattern", mcp.Description("Glob over binding names, e.g. 'recursica-components-button-**'")),
		mcp.WithString("keyword", mcp.Description("Case-insensitive substring of name or value")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of bindings to return (0 for all)")),
	)
}

func getBindingTool() mcp.Tool {
	return mcp.NewTool("get_binding",
		mcp.WithDescription("Get one binding with its reference chain followed to the final value and the bindings that reference it."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Binding name; '--name', 'var(--name)' and names without the namespace prefix are accepted")),
	)
}

func listComponentsTool() mcp.Tool {
	return mcp.NewTool("list_components",
		mcp.WithDescription("List components declared by the component specification with their binding counts."),
	)
}

func getComponentBindingsTool() mcp.Tool {
	return mcp.NewTool("get_component_bindings",
		mcp.WithDescription("All bindings of one component."),
		mcp.WithString("component", mcp.Required(), mcp.Description("Component name, e.g. 'button' or 'Text Field'")),
	)
}

func componentBindingTool() mcp.Tool {
	return mcp.NewTool("component_binding",
		mcp.WithDescription("Look up the binding a component adapter reads for one property. Empty segments are skipped."),
		mcp.WithString("component", mcp.Required(), mcp.Description("Component name")),
		mcp.WithString("variant", mcp.Description("Variant segment path, e.g. 'variants.styles.solid'")),
		mcp.WithString("state", mcp.Description("State segment, e.g. 'hover'")),
		mcp.WithString("layer", mcp.Description("Layer segment, e.g. 'layer-0'")),
		mcp.WithString("property", mcp.Required(), mcp.Description("Property path, e.g. 'background'")),
	)
}

func searchBindingsTool() mcp.Tool {
	return mcp.NewTool("search_bindings",
		mcp.WithDescription("Case-insensitive search across binding names, reference targets and values."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search text")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (0 for all)")),
	)
}

func auditTool() mcp.Tool {
	return mcp.NewTool("audit",
		mcp.WithDescription("Report dangling references left as raw text and references to names missing from the map."),
	)
}
