// internal/server/mcp.go
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/ThinkInAIXYZ/go-mcp/server"
)

// slogAdapter lets go-mcp log through the server's slog logger.
type slogAdapter struct {
	logger *slog.Logger
}

func (a slogAdapter) Debugf(format string, args ...any) {
	a.logger.Debug(fmt.Sprintf(format, args...), "component", "mcp")
}

func (a slogAdapter) Infof(format string, args ...any) {
	a.logger.Info(fmt.Sprintf(format, args...), "component", "mcp")
}

func (a slogAdapter) Warnf(format string, args ...any) {
	a.logger.Warn(fmt.Sprintf(format, args...), "component", "mcp")
}

func (a slogAdapter) Errorf(format string, args ...any) {
	a.logger.Error(fmt.Sprintf(format, args...), "component", "mcp")
}

// inputSchema describes a params struct from its json and description tags.
// Fields without omitempty are required.
func inputSchema(params interface{}) protocol.InputSchema {
	schema := protocol.InputSchema{
		Type:       protocol.Object,
		Properties: map[string]interface{}{},
	}
	if params == nil {
		return schema
	}

	t := reflect.TypeOf(params)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, opts, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}

		prop := map[string]interface{}{"type": jsonType(f.Type)}
		if desc := f.Tag.Get("description"); desc != "" {
			prop["description"] = desc
		}
		schema.Properties[name] = prop

		if !strings.Contains(opts, "omitempty") {
			schema.Required = append(schema.Required, name)
		}
	}
	return schema
}

func jsonType(t reflect.Type) string {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	default:
		return "string"
	}
}

// mcpHandler adapts a tool to go-mcp. Failures come back as an error result
// so the client sees the message instead of a bare JSON-RPC internal error.
func (s *NutritionServer) mcpHandler(name string, h toolHandler) server.ToolHandlerFunc {
	return func(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
		ctx, cancel := context.WithTimeout(context.Background(), s.toolTimeout())
		defer cancel()

		result, err := h(ctx, req)
		if err != nil {
			if statusFor(err) >= http.StatusInternalServerError {
				s.logger.Error("tool call failed", "tool", name, "error", err)
			}
			return &protocol.CallToolResult{
				Content: []protocol.Content{protocol.TextContent{Type: "text", Text: err.Error()}},
				IsError: true,
			}, nil
		}
		return result, nil
	}
}

func (s *NutritionServer) toolTimeout() time.Duration {
	return s.config.GatewayTimeout() + 30*time.Second
}
