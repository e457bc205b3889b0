package archive

import (
	"github.com/lone-outpost-oss/multimoon/internal/config"
)

// progress names the first few processed paths and summarizes the rest
// once, so that libraries with thousands of files do not flood the console.
type progress struct {
	logger  config.Logger
	verbose bool
	verb    string
	total   int
	count   int
}

func newProgress(logger config.Logger, verbose bool, verb string, total int) *progress {
	return &progress{
		logger:  config.LoggerOrNoop(logger),
		verbose: verbose,
		verb:    verb,
		total:   total,
	}
}

func (p *progress) step(path string) {
	switch {
	case p.verbose || p.count < progressLimit:
		p.logger.Info(p.verb, "path", path)
	case p.count == progressLimit:
		p.logger.Info(p.verb+" (further paths omitted)", "remaining", p.total-p.count)
	}
	p.count++
}
