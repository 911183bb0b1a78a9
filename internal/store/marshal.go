package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/idmgr/internal/ir"
)

// marshalCluster converts a ClusterSpec to JSON TEXT for storage.
// Device types are written by name through ir.DeviceType.MarshalText.
func marshalCluster(spec ir.ClusterSpec) (string, error) {
	data, err := json.Marshal(spec)
	if err != nil {
		return "", fmt.Errorf("marshal cluster: %w", err)
	}
	return string(data), nil
}

// unmarshalCluster parses a stored ClusterSpec.
func unmarshalCluster(data string) (ir.ClusterSpec, error) {
	var spec ir.ClusterSpec
	if err := json.Unmarshal([]byte(data), &spec); err != nil {
		return ir.ClusterSpec{}, fmt.Errorf("unmarshal cluster: %w", err)
	}
	return spec, nil
}
