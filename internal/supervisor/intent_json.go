package supervisor

import (
	"encoding/json"
	"fmt"
	"strings"
)

func decodeIntent(text string, v *modelIntent) error {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON object in model output")
	}
	return json.Unmarshal([]byte(text[start:end+1]), v)
}
