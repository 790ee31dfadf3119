package mcp

import (
	"github.com/javakit/mvnbridge-mcp/internal/schema"
)

// Tool names
const (
	ToolSyntaxCheck      = "syntax_check"
	ToolIncrementalBuild = "incremental_build"
	ToolMavenCompile     = "maven_compile"
	ToolListDirectory    = "list_directory"
	ToolBuildHistory     = "build_history"
)

// escalationNote is embedded in every build tool description so the
// calling agent sees the contract: cheap checks gate expensive ones,
// and any stage that reports errors restarts the cycle from the first.
const escalationNote = " Run the build tools in order on every change: " +
	"syntax_check first, then incremental_build, then maven_compile. " +
	"If any stage reports errors, stop, fix them, and start again from syntax_check."

// syntaxCheckSchema declares the stage-one tool.
func syntaxCheckSchema() schema.ToolSchema {
	return schema.ToolSchema{
		Name: ToolSyntaxCheck,
		Description: "Fast syntax validation of the project or a single file. " +
			"Detects only severe parser-level malformations (unterminated strings, " +
			"unbalanced brackets), NOT type errors or undeclared symbols." + escalationNote,
		Parameters: map[string]schema.ParamSpec{
			"filePath":           schema.String("Path of a single file to check, relative to the project root. Omit to check the whole project."),
			"includeWarnings":    schema.Bool("Include warnings in the output", true),
			"includeSuggestions": schema.Bool("Include suggestions in the output", false),
			"maxProblems":        schema.IntRange("Maximum number of problems to collect", 50, 1, 500),
			"refresh": schema.ParamSpec{
				Type: schema.TypeBoolean,
				Description: "Synchronize with the filesystem before scanning. " +
					"Defaults to true for a single file and false project-wide.",
			},
		},
	}
}

// incrementalBuildSchema declares the stage-two tool.
func incrementalBuildSchema() schema.ToolSchema {
	return schema.ToolSchema{
		Name: ToolIncrementalBuild,
		Description: "Incremental compile of changed files and their dependents. " +
			"Error and warning counts are authoritative; the listed problems are " +
			"best-effort detail from a syntax sweep." + escalationNote,
		Parameters: map[string]schema.ParamSpec{
			"filePaths":    schema.ArrayOf("Specific files to compile, relative to the project root. Omit to compile the whole scope.", schema.String("file path")),
			"scope":        schema.StringEnum("Compilation scope", "project", "project", "module"),
			"maxErrors":    schema.IntRange("Maximum number of problems to enumerate", 50, 1, 500),
			"forceRebuild": schema.Bool("Delete build output directories before compiling. Irreversible.", false),
			"fastMode":     schema.Bool("Skip the global filesystem refresh when specific files are given", false),
			"skipWarnings": schema.Bool("Skip warning collection for speed", true),
		},
	}
}

// mavenCompileSchema declares the stage-three tool.
func mavenCompileSchema() schema.ToolSchema {
	return schema.ToolSchema{
		Name: ToolMavenCompile,
		Description: "Full offline Maven build. The only stage that catches " +
			"cross-module and cross-file dependency errors." + escalationNote,
		Parameters: map[string]schema.ParamSpec{
			"goals":     schema.ParamSpec{Type: schema.TypeArray, Description: "Maven goals, in order", Default: []any{"compile"}, Items: &schema.ParamSpec{Type: schema.TypeString}},
			"offline":   schema.Bool("Skip remote dependency resolution (-o)", true),
			"quiet":     schema.Bool("Suppress non-diagnostic output (-q)", true),
			"batchMode": schema.Bool("Run non-interactively (-B)", true),
			"timeout":   schema.IntRange("Build timeout in seconds", 300, 30, 3600),
		},
	}
}

// listDirectorySchema declares the directory browser.
func listDirectorySchema() schema.ToolSchema {
	return schema.ToolSchema{
		Name:        ToolListDirectory,
		Description: "List the entries of a directory inside the project.",
		Parameters: map[string]schema.ParamSpec{
			"path":       schema.ParamSpec{Type: schema.TypeString, Description: "Directory path relative to the project root", Default: "."},
			"maxEntries": schema.IntRange("Maximum number of entries to list", 200, 1, 1000),
		},
	}
}

// buildHistorySchema declares the history reader.
func buildHistorySchema() schema.ToolSchema {
	return schema.ToolSchema{
		Name:        ToolBuildHistory,
		Description: "Show recent build-stage runs and their outcomes.",
		Parameters: map[string]schema.ParamSpec{
			"limit": schema.IntRange("Maximum number of runs to show", 20, 1, 100),
		},
	}
}

// allSchemas returns every tool schema the server advertises.
func allSchemas() []schema.ToolSchema {
	return []schema.ToolSchema{
		syntaxCheckSchema(),
		incrementalBuildSchema(),
		mavenCompileSchema(),
		listDirectorySchema(),
		buildHistorySchema(),
	}
}
