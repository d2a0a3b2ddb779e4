package vector

// Float64s widens an embedding to float64.
func Float64s(vec []float32) []float64 {
	if vec == nil {
		return nil
	}
	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = float64(v)
	}
	return out
}

// Float32s narrows features to float32. Precision beyond float32 is lost.
func Float32s(vec []float64) []float32 {
	if vec == nil {
		return nil
	}
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(v)
	}
	return out
}
