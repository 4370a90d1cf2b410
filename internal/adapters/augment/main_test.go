package augment

import (
	"io"
	"os"
	"testing"

	"github.com/okian/pacer/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}
