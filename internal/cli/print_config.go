package cli

import (
	"encoding/json"
	"fmt"
)

// cmdPrintConfig shows the resolved configuration and where it came from.
func (a *app) cmdPrintConfig(o *IO) error {
	data, err := json.MarshalIndent(a.cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	o.Println(string(data))
	o.Println()
	o.Println("data dir:", a.dataDir)

	if a.sources.Global != "" {
		o.Println("global config:", a.sources.Global)
	}

	if a.sources.Project != "" {
		o.Println("project config:", a.sources.Project)
	}

	return nil
}
