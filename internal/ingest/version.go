package ingest

import "golang.org/x/mod/semver"

// Profile names a schema-version band with distinct field-availability
// rules. Profiles are ordered oldest-first.
type Profile string

const (
	ProfileLegacy  Profile = "legacy"  // < 2.0.0, or missing version field
	ProfileBase    Profile = "base"    // 2.0.0 .. 2.0.29
	ProfileMid     Profile = "mid"     // 2.0.30 .. 2.0.55
	ProfileAgents  Profile = "agents"  // 2.0.56 .. 2.0.63
	ProfileUnified Profile = "unified" // 2.0.64 .. 2.0.71
	ProfileLatest  Profile = "latest"  // 2.0.72+
)

// DetectProfile maps a session's "version" field to a schema profile.
// An empty or unparsable version is treated as legacy, matching the
// oldest log files that predate the field's introduction.
func DetectProfile(version string) Profile {
	if version == "" {
		return ProfileLegacy
	}
	v := version
	if v[0] != 'v' {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ProfileLegacy
	}
	switch {
	case semver.Compare(v, "v2.0.0") < 0:
		return ProfileLegacy
	case semver.Compare(v, "v2.0.30") < 0:
		return ProfileBase
	case semver.Compare(v, "v2.0.56") < 0:
		return ProfileMid
	case semver.Compare(v, "v2.0.64") < 0:
		return ProfileAgents
	case semver.Compare(v, "v2.0.72") < 0:
		return ProfileUnified
	default:
		return ProfileLatest
	}
}

// SupportsLogicalParent reports whether a profile can carry compaction
// bridge links (logicalParentUuid), introduced with the "agents"
// profile.
func (p Profile) SupportsLogicalParent() bool {
	switch p {
	case ProfileAgents, ProfileUnified, ProfileLatest:
		return true
	default:
		return false
	}
}

// SupportsTeammate reports whether a profile can carry isTeammate /
// agentId fields, introduced with the "unified" profile.
func (p Profile) SupportsTeammate() bool {
	switch p {
	case ProfileUnified, ProfileLatest:
		return true
	default:
		return false
	}
}
