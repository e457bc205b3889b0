package installer

// State is a step of the install pipeline.
type State int

// Pipeline states in execution order. StateError is entered from any step
// between Matching and RegisteringPath; RegisteringPath itself never fails.
const (
	StateNotStarted State = iota
	StateMatching
	StateDownloading
	StateInstallingBinaries
	StateInstallingLibrary
	StatePostInstallBuild
	StateRegisteringPath
	StateDone
	StateError
)

var stateNames = [...]string{
	StateNotStarted:         "not started",
	StateMatching:           "matching",
	StateDownloading:        "downloading",
	StateInstallingBinaries: "installing binaries",
	StateInstallingLibrary:  "installing library",
	StatePostInstallBuild:   "post-install build",
	StateRegisteringPath:    "registering path",
	StateDone:               "done",
	StateError:              "error",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
