package app

import "os"

// osExit is os.Exit indirected through a variable so tests can observe a
// run's exit code instead of killing the test binary.
var osExit = os.Exit
