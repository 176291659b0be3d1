package tools

import (
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/schema"
	"github.com/eino-contrib/jsonschema"
)

// paramsFromSchema hands an MCP input schema to eino unchanged, so unions,
// bounds and nested objects reach the model as the server declared them.
// A schema without properties yields nil (the tool takes no arguments).
func paramsFromSchema(raw any) (*schema.ParamsOneOf, error) {
	if raw == nil {
		return nil, nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("marshal input schema: %w", err)
	}
	s := &jsonschema.Schema{}
	if err := json.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("decode input schema: %w", err)
	}
	if s.Properties == nil || s.Properties.Len() == 0 {
		return nil, nil
	}
	return schema.NewParamsOneOfByJSONSchema(s), nil
}
