// SPDX-License-Identifier: Apache-2.0
// Copyright Contributors to the OpenTimelineIO project

package timeline

// Metadata is a free-form, JSON-compatible property bag attached to timeline
// objects. Adapters namespace their keys (for example "cmx_3600").
type Metadata map[string]any

// MetadataCloner is implemented by metadata values that need a custom deep
// copy.
type MetadataCloner interface {
	CloneMetadata() any
}

// Clone returns a deep copy of m. Nested maps and slices are copied so the
// clone can be mutated independently of the original.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

// Namespace returns the nested metadata stored under key, creating it when
// it does not exist yet.
func (m Metadata) Namespace(key string) Metadata {
	switch v := m[key].(type) {
	case Metadata:
		return v
	case map[string]any:
		return Metadata(v)
	}
	ns := Metadata{}
	m[key] = ns
	return ns
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case MetadataCloner:
		return x.CloneMetadata()
	case Metadata:
		return x.Clone()
	case map[string]any:
		return map[string]any(Metadata(x).Clone())
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return append([]string(nil), x...)
	case []float64:
		return append([]float64(nil), x...)
	case []int:
		return append([]int(nil), x...)
	default:
		return v
	}
}
