package assistant

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/pbaille/moodlog/internal/domain"
	"github.com/pbaille/moodlog/internal/query"
	"google.golang.org/genai"
)

// ToolName is the function name the model calls
const ToolName = "fetch_last_entries"

// Describer is the query façade as seen by the assistant
type Describer interface {
	DescribeRecent(ctx context.Context, userID string, limit int) (query.Result, error)
}

// EntriesTool exposes Describer as a model-callable function
type EntriesTool struct {
	describer Describer
}

// NewEntriesTool creates an EntriesTool
func NewEntriesTool(d Describer) *EntriesTool {
	return &EntriesTool{describer: d}
}

// Declaration describes the tool to the model
func (t *EntriesTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name: ToolName,
		Description: fmt.Sprintf(
			"Fetch the most recent mood entries of a user, oldest first. Returns {status: success, entries, formatted} "+
				"or {status: error, error_message}. limit defaults to %d.", domain.DefaultRecentLimit),
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"user_id": {
					Type:        genai.TypeString,
					Description: "The user's ID exactly as they provided it",
				},
				"limit": {
					Type:        genai.TypeInteger,
					Description: "How many recent entries to fetch",
				},
			},
			Required: []string{"user_id"},
		},
	}
}

// Call runs the tool with model-supplied arguments and returns the wire result.
// Bad arguments come back as an error-shaped result so the model can recover.
func (t *EntriesTool) Call(ctx context.Context, args map[string]any) (map[string]any, error) {
	userID, _ := args["user_id"].(string)

	limit, err := intArg(args["limit"])
	if err != nil {
		return query.ToMap(query.Failure{Message: err.Error()})
	}

	res, err := t.describer.DescribeRecent(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	return query.ToMap(res)
}

// intArg accepts the numeric shapes a decoded JSON argument may take.
// A missing value is 0, which the store reads as the default limit.
func intArg(v any) (int, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("limit must be a whole number, got %v", n)
		}
		return int(n), nil
	case string:
		if n == "" {
			return 0, nil
		}
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("limit must be a number, got %q", n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("limit must be a number, got %T", v)
	}
}
