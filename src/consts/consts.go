package consts

import (
	"fmt"
	"os"
	"runtime"
)

const (
	AppName = "sashaktctl"
)

// Operation names recorded in the audit store.
const (
	OpCreate = "migrations.create"
	OpSync   = "migrations.sync"
	OpReset  = "migrations.reset"
	OpStatus = "migrations.status"
	OpTest   = "test"
	OpWaitDB = "wait-db"
)

type Info struct {
	AppName    string `json:"app_name"`
	AppVersion string `json:"app_version"`
	BuildTime  string `json:"build_time"`
	GitHash    string `json:"git_hash"`
	Pid        int    `json:"pid"`
	Platform   string `json:"platform"`
	GoVersion  string `json:"go_version"`
}

var (
	BuildTime  string
	AppVersion string
	GitHash    string
)

// GetAppInfo must stay a function: AppVersion and friends are injected with
// -ldflags at link time and are still empty during package initialization.
func GetAppInfo() Info {
	return Info{
		AppName:    AppName,
		AppVersion: AppVersion,
		BuildTime:  BuildTime,
		GitHash:    GitHash,
		Pid:        os.Getpid(),
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		GoVersion:  runtime.Version(),
	}
}
