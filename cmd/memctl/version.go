package main

import (
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/joshuapare/memkit/alloc"
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

// versionInfo is the JSON shape of the version command.
type versionInfo struct {
	Version  string `json:"version"`
	Commit   string `json:"commit"`
	Go       string `json:"go"`
	Platform string `json:"platform"`
	PageSize uint64 `json:"page_size"`
	Mapping  string `json:"page_mapping"`
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and platform allocator information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion()
		},
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
}

func buildVersionInfo() versionInfo {
	info := versionInfo{
		Version:  version,
		Commit:   commit,
		Go:       runtime.Version(),
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
		PageSize: uint64(alloc.NewPages().PageSize()),
		Mapping:  pageMapping(),
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && info.Commit == "none" {
				info.Commit = s.Value
			}
		}
	}
	return info
}

// pageMapping names the OS facility behind the pages strategy.
func pageMapping() string {
	switch runtime.GOOS {
	case "windows":
		return "VirtualAlloc"
	case "js", "wasip1", "plan9":
		return "go heap"
	default:
		return "mmap"
	}
}

func runVersion() error {
	info := buildVersionInfo()
	if jsonOut {
		return printJSON(info)
	}
	printInfo("memctl %s\n", info.Version)
	printInfo("  commit:    %s\n", info.Commit)
	printInfo("  go:        %s (%s)\n", info.Go, info.Platform)
	printInfo("  pages:     %d bytes via %s\n", info.PageSize, info.Mapping)
	return nil
}
