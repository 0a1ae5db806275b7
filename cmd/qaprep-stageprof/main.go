// Command qaprep-stageprof profiles one tokenize-and-pack pass with pprof
// stage labels, for digging into where a slow dataset spends its time.
package main

import "github.com/example/go-qa-prep/internal/bench/stageprof"

func main() {
	stageprof.Main()
}
