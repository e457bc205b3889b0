package config

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/lone-outpost-oss/multimoon/internal/platform"
)

// luaFields lists the settings a configuration file may assign and their
// Lua types.
var luaFields = map[string]lua.LValueType{
	KeyRegistry:        lua.LTString,
	KeyMoonHome:        lua.LTString,
	KeyMultiMoonHome:   lua.LTString,
	KeyVerbose:         lua.LTBool,
	KeyRegistryKeyring: lua.LTString,
	KeyArchTag:         lua.LTString,
}

// Parser evaluates Lua configuration with the host's platform table.
type Parser struct {
	detector platform.Detector
}

// NewParser creates a parser. A nil detector leaves `platform` undefined.
func NewParser(detector platform.Detector) *Parser {
	return &Parser{detector: detector}
}

// ParseError is a configuration file that failed to evaluate or holds
// unexpected settings.
type ParseError struct {
	Path    string // file name, empty for in-memory code
	Message string // user-facing summary
	Detail  string // raw Lua error or offending field
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// ParseFile reads and evaluates the configuration file at path.
func (p *Parser) ParseFile(ctx context.Context, path string) (map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if len(data) > MaxFileSize {
		return nil, &ParseError{
			Path:    path,
			Message: "config file too large",
			Detail:  fmt.Sprintf("limit is %d bytes", MaxFileSize),
		}
	}

	settings, err := p.ParseString(ctx, string(data))
	if perr, ok := err.(*ParseError); ok {
		perr.Path = path
	}
	return settings, err
}

// ParseString evaluates Lua code and returns the settings assigned in the
// global `multimoon` table, keyed by setting name.
func (p *Parser) ParseString(ctx context.Context, code string) (map[string]any, error) {
	L := newSandboxedVM()
	defer L.Close()
	L.SetContext(ctx)

	if p.detector != nil {
		info, err := p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		platform.InjectPlatformTable(L, info)
	}

	if err := L.DoString(code); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("evaluate config: %w", ctxErr)
		}
		return nil, &ParseError{Message: "Lua error", Detail: err.Error()}
	}

	return extractSettings(L)
}

func extractSettings(L *lua.LState) (map[string]any, error) {
	global := L.GetGlobal(luaGlobal)
	table, ok := global.(*lua.LTable)
	if !ok {
		return nil, &ParseError{
			Message: fmt.Sprintf("missing or invalid '%s' table", luaGlobal),
			Detail:  fmt.Sprintf("expected table, got %s", global.Type()),
		}
	}

	settings := make(map[string]any)
	var problems []string
	table.ForEach(func(key, value lua.LValue) {
		name, isString := key.(lua.LString)
		if !isString {
			problems = append(problems, fmt.Sprintf("unexpected key %s", key.String()))
			return
		}
		want, known := luaFields[string(name)]
		if !known {
			problems = append(problems, fmt.Sprintf("unknown setting %q", string(name)))
			return
		}
		if value.Type() != want {
			problems = append(problems, fmt.Sprintf("%s must be a %s, got %s", name, want, value.Type()))
			return
		}

		switch v := value.(type) {
		case lua.LString:
			settings[string(name)] = string(v)
		case lua.LBool:
			settings[string(name)] = bool(v)
		}
	})

	if len(problems) > 0 {
		sort.Strings(problems)
		return nil, &ParseError{Message: "invalid settings", Detail: strings.Join(problems, "; ")}
	}
	return settings, nil
}

// FormatError renders err for the user. Outside verbose mode the Lua stack
// traceback is dropped.
func FormatError(err error, verbose bool) string {
	parseErr, ok := err.(*ParseError)
	if !ok {
		return err.Error()
	}
	if verbose {
		return fmt.Sprintf("%s\n\nDetails:\n%s", parseErr.Message, parseErr.Detail)
	}

	detail := parseErr.Detail
	if idx := strings.Index(detail, "stack traceback"); idx > 0 {
		detail = strings.TrimSpace(detail[:idx])
	}
	if parseErr.Path != "" {
		return fmt.Sprintf("%s: %s: %s", parseErr.Path, parseErr.Message, detail)
	}
	return fmt.Sprintf("%s: %s", parseErr.Message, detail)
}
