package sqlknn

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/viant/knn/classifier"
	"github.com/viant/knn/distance"
	"github.com/viant/knn/index/cover"
)

// tableOptions are the key=value arguments of CREATE VIRTUAL TABLE.
type tableOptions struct {
	model       string
	metric      *distance.Metric
	indexKind   string
	coverBase   float64
	bestFirst   bool
	parallelism int
}

func parseOptions(table string, args []string) (tableOptions, error) {
	opts := tableOptions{model: table, indexKind: classifier.IndexCover}
	for _, raw := range args {
		a := strings.TrimSpace(raw)
		if a == "" {
			continue
		}
		parts := strings.SplitN(a, "=", 2)
		if len(parts) != 2 {
			return opts, fmt.Errorf("knn: argument %q is not key=value", a)
		}
		key := strings.ToLower(strings.TrimSpace(parts[0]))
		val := unquote(strings.TrimSpace(parts[1]))
		switch key {
		case "model":
			opts.model = val
		case "distance":
			m, ok := distance.ByName(strings.ToLower(val))
			if !ok {
				return opts, fmt.Errorf("knn: unknown distance %q", val)
			}
			opts.metric = m
		case "index":
			switch kind := strings.ToLower(val); kind {
			case classifier.IndexCover, classifier.IndexVPTree, classifier.IndexBruteForce:
				opts.indexKind = kind
			default:
				return opts, fmt.Errorf("knn: unknown index %q", val)
			}
		case "cover_base":
			if f, err := strconv.ParseFloat(val, 64); err == nil && f > 1 {
				opts.coverBase = f
			}
		case "cover_best_first":
			opts.bestFirst, _ = strconv.ParseBool(val)
		case "parallel":
			if n, err := strconv.Atoi(val); err == nil && n > 0 {
				opts.parallelism = n
			}
		default:
			return opts, fmt.Errorf("knn: unknown argument %q", key)
		}
	}
	if opts.model == "" {
		return opts, fmt.Errorf("knn: model name is empty")
	}
	return opts, nil
}

// String renders the options in a canonical form.
func (o tableOptions) String() string {
	metric := "default"
	if o.metric != nil {
		metric = o.metric.Name()
	}
	return fmt.Sprintf("model=%s;distance=%s;index=%s;cover_base=%g;cover_best_first=%t;parallel=%d",
		o.model, metric, o.indexKind, o.coverBase, o.bestFirst, o.parallelism)
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

func (o tableOptions) classifierOptions() []classifier.Option {
	opts := []classifier.Option{classifier.WithIndex(o.indexKind)}
	var coverOpts []cover.Option
	if o.coverBase > 1 {
		coverOpts = append(coverOpts, cover.WithBase(o.coverBase))
	}
	if o.bestFirst {
		coverOpts = append(coverOpts, cover.WithBestFirst(true))
	}
	if len(coverOpts) > 0 {
		opts = append(opts, classifier.WithCover(coverOpts...))
	}
	if o.parallelism > 0 {
		opts = append(opts, classifier.WithParallelism(o.parallelism))
	}
	return opts
}
