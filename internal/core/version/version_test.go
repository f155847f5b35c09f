package version

import (
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	t.Parallel()
	bi := Info()
	if bi.Service != "apiloader" || bi.Version == "" {
		t.Fatalf("info = %+v", bi)
	}
	if !strings.HasPrefix(bi.String(), "apiloader "+bi.Version) {
		t.Fatalf("string = %s", bi.String())
	}
	if UserAgent() != "apiloader/"+bi.Version {
		t.Fatalf("user agent = %s", UserAgent())
	}
}
