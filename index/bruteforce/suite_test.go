package bruteforce_test

import (
	"testing"

	"github.com/viant/knn/index/bruteforce"
	"github.com/viant/knn/index/indextest"
)

func TestSharedSuite(t *testing.T) {
	indextest.RoundTrip(t, bruteforce.Factory[int]())
	indextest.Errors(t, bruteforce.Factory[int]())
}
