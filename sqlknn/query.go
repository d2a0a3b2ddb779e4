package sqlknn

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/viant/knn/codec"
	"github.com/viant/knn/vector"
)

// decodeQuery turns a MATCH argument into a value classifier.PredictAny
// accepts: a []float64 for one query or a JSON-decoded matrix.
func decodeQuery(v any) (any, error) {
	switch val := v.(type) {
	case []byte:
		emb, err := vector.DecodeEmbedding(val)
		if err != nil {
			return nil, err
		}
		return vector.Float64s(emb), nil
	case string:
		return decodeQueryString(val)
	default:
		return nil, fmt.Errorf("knn: expected MATCH arg as BLOB or string, got %T", v)
	}
}

func decodeQueryString(raw string) (any, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, fmt.Errorf("knn: MATCH string is empty")
	}
	if strings.HasPrefix(s, "[") {
		var decoded any
		if err := codec.Default.Unmarshal([]byte(s), &decoded); err != nil {
			return nil, fmt.Errorf("knn: invalid MATCH JSON: %w", err)
		}
		return decoded, nil
	}
	if vec, ok := parseList(s); ok {
		return vec, nil
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		if emb, err := vector.DecodeEmbedding(b); err == nil && len(emb) > 0 {
			return vector.Float64s(emb), nil
		}
	}
	return nil, fmt.Errorf("knn: MATCH string must be a JSON list, a base64 embedding or a comma separated list")
}

func parseList(s string) ([]float64, bool) {
	parts := strings.Split(s, ",")
	vec := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, false
		}
		vec = append(vec, f)
	}
	return vec, len(vec) > 0
}
