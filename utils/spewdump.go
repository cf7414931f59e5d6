package utils

import (
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"
)

var spewConfig *spew.ConfigState

func init() {
	spewConfig = spew.NewDefaultConfig()
	spewConfig.DisableCapacities = true
	spewConfig.DisablePointerAddresses = true
	spewConfig.SortKeys = true
}

func Dump(w io.Writer, a ...interface{}) {
	fmt.Fprintln(w, spewConfig.Sdump(a...))
}

func SDump(a ...interface{}) string {
	return spewConfig.Sdump(a...)
}

func LogDump(msg string, a ...interface{}) {
	Log.Debugf("%s\n%s", msg, spewConfig.Sdump(a...))
}
