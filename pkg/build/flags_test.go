// SPDX-License-Identifier: MIT
package build

import (
	"os"
	"runtime/debug"
	"strings"
	"testing"
)

var (
	origName    string
	origTime    string
	origCommit  string
	origVersion string
	origFlags   Info
	origRead    = readBuildInfo
)

func TestMain(m *testing.M) {
	origName = buildName
	origTime = buildTime
	origCommit = buildCommit
	origVersion = buildVersion
	if buildFlags != nil {
		origFlags = *buildFlags
	}

	exitCode := m.Run()

	buildName = origName
	buildTime = origTime
	buildCommit = origCommit
	buildVersion = origVersion
	readBuildInfo = origRead
	if buildFlags != nil {
		*buildFlags = origFlags
	}

	os.Exit(exitCode)
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name        string
		buildName   string
		buildTime   string
		buildCommit string
		buildVer    string
		wantErrMsg  string
	}{
		{
			"Missing BuildName",
			"",
			"2025-04-13",
			"abcdef123",
			"v1.0.0",
			"BuildName is required",
		},
		{
			"Missing BuildTime",
			"testapp",
			"",
			"abcdef123",
			"v1.0.0",
			"BuildTime is required",
		},
		{
			"Missing BuildCommit",
			"testapp",
			"2025-04-13",
			"",
			"v1.0.0",
			"BuildCommit is required",
		},
		{
			"Missing BuildVersion",
			"testapp",
			"2025-04-13",
			"abcdef123",
			"",
			"BuildVersion is required",
		},
		{
			"Success Case",
			"testapp",
			"2025-04-13",
			"abcdef123",
			"v1.0.0",
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buildFlags = &Info{
				Name:    "unknown",
				Time:    "unknown",
				Commit:  "unknown",
				Version: "unknown",
			}

			buildName = tt.buildName
			buildTime = tt.buildTime
			buildCommit = tt.buildCommit
			buildVersion = tt.buildVer

			err := Initialize()

			if tt.wantErrMsg != "" {
				if err == nil {
					t.Errorf("Initialize() expected error, got nil")
					return
				}
				if err.Error() != tt.wantErrMsg {
					t.Errorf("Initialize() error = %v, want %v", err, tt.wantErrMsg)
					return
				}
				return
			}

			if err != nil {
				t.Errorf("Initialize() unexpected error: %v", err)
				return
			}

			if buildFlags.Name != tt.buildName {
				t.Errorf("buildFlags.Name = %v, want %v", buildFlags.Name, tt.buildName)
			}
			if buildFlags.Time != tt.buildTime {
				t.Errorf("buildFlags.Time = %v, want %v", buildFlags.Time, tt.buildTime)
			}
			if buildFlags.Commit != tt.buildCommit {
				t.Errorf("buildFlags.Commit = %v, want %v", buildFlags.Commit, tt.buildCommit)
			}
			if buildFlags.Version != tt.buildVer {
				t.Errorf("buildFlags.Version = %v, want %v", buildFlags.Version, tt.buildVer)
			}
		})
	}
}

func TestGetBuildFlags(t *testing.T) {
	expected := Info{
		Name:    "testapp",
		Time:    "2025-04-13",
		Commit:  "abcdef123",
		Version: "v1.0.0",
	}
	buildFlags = &expected

	flags := GetBuildFlags()

	if flags.Name != expected.Name ||
		flags.Time != expected.Time ||
		flags.Commit != expected.Commit ||
		flags.Version != expected.Version {
		t.Errorf("GetBuildFlags() = %+v, want %+v", flags, expected)
	}
}

func TestInitializeDev(t *testing.T) {
	tests := []struct {
		name    string
		linked  [4]string // name, time, commit, version
		info    *debug.BuildInfo
		ok      bool
		wantErr bool
		want    Info
	}{
		{
			name:   "Fully linked",
			linked: [4]string{"viz", "2025-04-13", "abc", "v1.2.3"},
			info:   nil,
			want:   Info{"viz", "2025-04-13", "abc", "v1.2.3"},
		},
		{
			name: "VCS stamps",
			info: &debug.BuildInfo{
				Main: debug.Module{Version: "(devel)"},
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "0123abcd"},
					{Key: "vcs.time", Value: "2025-05-01T10:00:00Z"},
				},
			},
			ok:   true,
			want: Info{DefaultName, "2025-05-01T10:00:00Z", "0123abcd", "dev"},
		},
		{
			name:   "Partial link keeps linked version",
			linked: [4]string{"", "", "", "v0.9.0"},
			info:   &debug.BuildInfo{Main: debug.Module{Version: "v0.1.0"}},
			ok:     true,
			want:   Info{DefaultName, "unknown", "unknown", "v0.9.0"},
		},
		{
			name:    "No build info",
			wantErr: true,
			want:    Info{DefaultName, "unknown", "unknown", "dev"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buildFlags = &Info{}
			buildName, buildTime, buildCommit, buildVersion = tt.linked[0], tt.linked[1], tt.linked[2], tt.linked[3]
			readBuildInfo = func() (*debug.BuildInfo, bool) { return tt.info, tt.ok }

			err := InitializeDev()
			if (err != nil) != tt.wantErr {
				t.Fatalf("InitializeDev() error = %v, wantErr %v", err, tt.wantErr)
			}
			if *GetBuildFlags() != tt.want {
				t.Errorf("GetBuildFlags() = %+v, want %+v", *GetBuildFlags(), tt.want)
			}
		})
	}
}

func TestInfoString(t *testing.T) {
	s := Info{"viz", "today", "abc", "v1"}.String()
	if !strings.HasPrefix(s, "viz v1") || !strings.Contains(s, "abc") {
		t.Errorf("String() = %q", s)
	}
}
