package types

import (
	"encoding/json"
	"fmt"
)

type CommandConfig struct {
	DataDir       string `json:"datadir"`
	Chain         string `json:"chain"`
	LogLevel      string `json:"loglevel"`
	LogModules    string `json:"logmodules"`
	LogJson       bool   `json:"logjson"`
	Backend       string `json:"backend"`
	Parallel      bool   `json:"parallel"`
	TraceEndpoint string `json:"trace_endpoint"`
}

// String method returns the CommandConfig as a formatted JSON string
func (c *CommandConfig) String() string {
	jsonData, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error marshaling JSON: %v", err)
	}
	return string(jsonData)
}
